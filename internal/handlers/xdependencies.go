/*
Copyright © 2025 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/
package handlers

import (
	"context"
	"encoding/json"

	"tsls.dev/server/internal/pkgmanager"
)

// DependencyReference names one package dependency edge, the result shape
// for workspace/xdependencies.
type DependencyReference struct {
	Attributes pkgmanager.Dependency `json:"attributes"`
}

// XDependencies handles workspace/xdependencies: every (dependee, name,
// version) edge across the workspace's non-node_modules package.jsons.
func (c *Context) XDependencies(ctx context.Context, params json.RawMessage, emit func(any)) error {
	deps := c.Packages.Dependencies()
	out := make([]DependencyReference, 0, len(deps))
	for _, d := range deps {
		out = append(out, DependencyReference{Attributes: d})
	}
	emit(out)
	return nil
}

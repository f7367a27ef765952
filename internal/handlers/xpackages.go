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

// workspace/xpackages is listed in spec.md §6's method table but never
// detailed in §4; supplemented here (SPEC_FULL.md §7) as a thin wrapper
// over pkgmanager's package enumeration (§4.E).
package handlers

import (
	"context"
	"encoding/json"
)

// PackageInformation describes one package.json registered in the
// workspace, the result shape for workspace/xpackages.
type PackageInformation struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// XPackages handles workspace/xpackages.
func (c *Context) XPackages(ctx context.Context, params json.RawMessage, emit func(any)) error {
	out := make([]PackageInformation, 0, len(c.Packages.AllPackageJsonUris()))
	for _, uri := range c.Packages.AllPackageJsonUris() {
		pkg, ok := c.Packages.GetPackageJson(ctx, uri)
		if !ok {
			continue
		}
		name, _ := pkg["name"].(string)
		version, _ := pkg["version"].(string)
		out = append(out, PackageInformation{Name: name, Version: version})
	}
	emit(out)
	return nil
}

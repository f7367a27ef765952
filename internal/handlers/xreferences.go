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
)

type xreferencesParams struct {
	Query symbolDescriptor `json:"query"`
}

// ReferenceInformation pairs a Location with the SymbolDescriptor it
// refers to, the result shape for workspace/xreferences.
type ReferenceInformation struct {
	Reference SymbolLocationInformation `json:"reference"`
}

// XReferences handles workspace/xreferences: find every reference across
// the workspace to the symbol named by query, resolved via the same
// navigate-to search workspace/symbol uses.
func (c *Context) XReferences(ctx context.Context, params json.RawMessage, emit func(any)) error {
	var p xreferencesParams
	if err := json.Unmarshal(params, &p); err != nil {
		return err
	}

	cfg, err := c.Projects.GetConfiguration(c.Root, nil)
	if err != nil {
		return err
	}
	if err := cfg.EnsureBasicFiles(ctx); err != nil {
		return err
	}
	host := cfg.Host()
	if host == nil {
		emit([]ReferenceInformation{})
		return nil
	}

	matches, err := host.GetNavigateToItems(ctx, p.Query.Name)
	if err != nil {
		return err
	}

	var out []ReferenceInformation
	for _, match := range matches {
		locs, err := host.GetReferencesAt(ctx, match.Location.FilePath, match.Location.Span.Start)
		if err != nil {
			continue
		}
		for _, loc := range locs {
			out = append(out, ReferenceInformation{
				Reference: SymbolLocationInformation{
					Location: c.locationToProtocol(loc),
					Symbol:   p.Query,
				},
			})
		}
	}
	emit(out)
	return nil
}

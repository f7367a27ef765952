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
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"
	"tsls.dev/server/internal/furi"
)

// symbolDescriptor is the non-standard structured form of workspace/symbol
// params (spec.md §4.I: "query-by-SymbolDescriptor"), used by editors that
// want to filter by kind/package rather than free text. Kind is matched
// against the analyzer item's kind and Package against the name in the
// item's closest package.json; ContainerKind is accepted but not used for
// filtering.
type symbolDescriptor struct {
	Name          string `json:"name"`
	Kind          string `json:"kind"`
	ContainerKind string `json:"containerKind"`
	Package       string `json:"package"`
}

type workspaceSymbolParams struct {
	Query  string             `json:"query"`
	Symbol *symbolDescriptor  `json:"symbol"`
}

// WorkspaceSymbol handles workspace/symbol in both of its modes (spec.md
// §4.I step 5). When the workspace's root package.json name is
// "definitely-typed", a descriptor search for package "@types/<name>" is
// restricted to the types/<name> subdirectory, matching the teacher's own
// "search root-relative subtree" pattern in search/*.
func (c *Context) WorkspaceSymbol(ctx context.Context, params json.RawMessage, emit func(any)) error {
	var p workspaceSymbolParams
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
		emit([]protocol.SymbolInformation{})
		return nil
	}

	search := p.Query
	var restrictPrefix string
	if p.Symbol != nil {
		search = p.Symbol.Name
		if c.isDefinitelyTyped() && strings.HasPrefix(p.Symbol.Package, "@types/") {
			restrictPrefix = "types/" + strings.TrimPrefix(p.Symbol.Package, "@types/") + "/"
		}
	}

	items, err := host.GetNavigateToItems(ctx, search)
	if err != nil {
		return err
	}

	out := make([]protocol.SymbolInformation, 0, len(items))
	for _, item := range items {
		if restrictPrefix != "" && !strings.Contains(item.Location.FilePath, restrictPrefix) {
			continue
		}
		if p.Symbol != nil && p.Symbol.Kind != "" && item.Kind != p.Symbol.Kind {
			continue
		}
		if p.Symbol != nil && p.Symbol.Package != "" && restrictPrefix == "" {
			name := ""
			if pkgURI, ok := c.Packages.GetClosestPackageJsonUri(furi.PathToURI(item.Location.FilePath)); ok {
				if pkg, ok := c.Packages.GetPackageJson(ctx, pkgURI); ok {
					name, _ = pkg["name"].(string)
				}
			}
			if name != p.Symbol.Package {
				continue
			}
		}
		container := item.ContainerName
		out = append(out, protocol.SymbolInformation{
			Name:          item.Name,
			Kind:          symbolKind(item.Kind),
			Location:      c.locationToProtocol(item.Location),
			ContainerName: &container,
		})
	}
	emit(out)
	return nil
}

// isDefinitelyTyped reports whether the workspace root package.json's name
// field is "definitely-typed" (spec.md §4.I step 5).
func (c *Context) isDefinitelyTyped() bool {
	uri, ok := c.Packages.RootPackageJsonUri()
	if !ok {
		return false
	}
	pkg, ok := c.Packages.GetPackageJson(context.Background(), uri)
	if !ok {
		return false
	}
	name, _ := pkg["name"].(string)
	return name == "definitely-typed"
}

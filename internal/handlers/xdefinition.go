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

	protocol "github.com/tliron/glsp/protocol_3_16"
	"tsls.dev/server/internal/furi"
)

// SymbolLocationInformation pairs a Location with metadata about the
// package that owns it, the result shape for workspace/xdefinition.
type SymbolLocationInformation struct {
	Location protocol.Location `json:"location"`
	Symbol   symbolDescriptor  `json:"symbol"`
}

// XDefinition handles workspace/xdefinition: like textDocument/definition,
// but each result also carries the owning package's metadata so a caller
// on another workspace can resolve the dependency.
func (c *Context) XDefinition(ctx context.Context, params json.RawMessage, emit func(any)) error {
	var p protocol.DefinitionParams
	if err := json.Unmarshal(params, &p); err != nil {
		return err
	}
	entry := furi.URI(p.TextDocument.URI)

	if err := c.ensureReferencedFiles(ctx, entry); err != nil {
		return err
	}
	_, host, err := c.resolveHost(ctx, entry)
	if err != nil {
		return err
	}

	nativeFile, err := nativePath(p.TextDocument.URI)
	if err != nil {
		return err
	}
	lm, _, ok := c.lineMapFor(entry)
	if !ok {
		emit([]SymbolLocationInformation{})
		return nil
	}
	offset := lm.PositionToOffset(fromProtocolPosition(p.Position))

	locs, err := host.GetDefinitionAt(ctx, nativeFile, offset)
	if err != nil {
		return err
	}

	out := make([]SymbolLocationInformation, 0, len(locs))
	for _, loc := range locs {
		pkgURI, hasPkg := c.Packages.GetClosestPackageJsonUri(furi.PathToURI(loc.FilePath))
		var desc symbolDescriptor
		if hasPkg {
			if pkg, ok := c.Packages.GetPackageJson(ctx, pkgURI); ok {
				name, _ := pkg["name"].(string)
				desc.Package = name
			}
		}
		out = append(out, SymbolLocationInformation{
			Location: c.locationToProtocol(loc),
			Symbol:   desc,
		})
	}
	emit(out)
	return nil
}

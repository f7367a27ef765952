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

// textDocument/rename is named in spec.md §1's capability list but absent
// from §6's method table; supplemented here (SPEC_FULL.md §7) on top of the
// same reference-closure + analyzer-references call as textDocument/references,
// followed by a WorkspaceEdit assembly step.
package handlers

import (
	"context"
	"encoding/json"

	protocol "github.com/tliron/glsp/protocol_3_16"
	"tsls.dev/server/internal/furi"
)

// Rename handles textDocument/rename.
func (c *Context) Rename(ctx context.Context, params json.RawMessage, emit func(any)) error {
	var p protocol.RenameParams
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
		emit(nil)
		return nil
	}
	offset := lm.PositionToOffset(fromProtocolPosition(p.Position))

	locs, err := host.GetReferencesAt(ctx, nativeFile, offset)
	if err != nil {
		return err
	}

	changes := make(map[protocol.DocumentUri][]protocol.TextEdit)
	for _, loc := range locs {
		pl := c.locationToProtocol(loc)
		changes[pl.URI] = append(changes[pl.URI], protocol.TextEdit{
			Range:   pl.Range,
			NewText: p.NewName,
		})
	}
	emit(protocol.WorkspaceEdit{Changes: changes})
	return nil
}

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

// References handles textDocument/references, emitting the growing result
// list once per location as each is mapped back to protocol.Location so
// clients that negotiated streaming see results incrementally rather than
// waiting for the whole list.
func (c *Context) References(ctx context.Context, params json.RawMessage, emit func(any)) error {
	var p protocol.ReferenceParams
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
		emit([]protocol.Location{})
		return nil
	}
	offset := lm.PositionToOffset(fromProtocolPosition(p.Position))

	locs, err := host.GetReferencesAt(ctx, nativeFile, offset)
	if err != nil {
		return err
	}

	out := make([]protocol.Location, 0, len(locs))
	for _, loc := range locs {
		out = append(out, c.locationToProtocol(loc))
		emit(append([]protocol.Location(nil), out...))
	}
	if len(out) == 0 {
		emit(out)
	}
	return nil
}

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

// DidOpen mutates the overlay and bumps the file's version (spec.md §3
// Overlay lifecycle).
func (c *Context) DidOpen(ctx context.Context, params json.RawMessage, emit func(any)) error {
	var p protocol.DidOpenTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		return err
	}
	return c.Projects.DidOpen(ctx, furi.URI(p.TextDocument.URI), p.TextDocument.Text)
}

// DidChange re-records overlay content under LSP's full-sync mode (spec.md
// §6: textDocumentSync=full).
func (c *Context) DidChange(ctx context.Context, params json.RawMessage, emit func(any)) error {
	var p protocol.DidChangeTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		return err
	}
	if len(p.ContentChanges) == 0 {
		return nil
	}
	last := p.ContentChanges[len(p.ContentChanges)-1]
	whole, ok := last.(protocol.TextDocumentContentChangeEventWhole)
	if !ok {
		return nil
	}
	return c.Projects.DidChange(ctx, furi.URI(p.TextDocument.URI), whole.Text)
}

// DidClose drops the overlay (spec.md §3: "Closing removes from overlay").
func (c *Context) DidClose(ctx context.Context, params json.RawMessage, emit func(any)) error {
	var p protocol.DidCloseTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		return err
	}
	return c.Projects.DidClose(ctx, furi.URI(p.TextDocument.URI))
}

// DidSave promotes overlay content into the VFS (spec.md §3: "saving
// promotes overlay to VFS").
func (c *Context) DidSave(ctx context.Context, params json.RawMessage, emit func(any)) error {
	var p protocol.DidSaveTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		return err
	}
	return c.Projects.DidSave(ctx, furi.URI(p.TextDocument.URI))
}

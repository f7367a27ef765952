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
)

// serverCapabilities is spec.md §6's fixed capability set.
func serverCapabilities() protocol.ServerCapabilities {
	trueVal := true
	return protocol.ServerCapabilities{
		TextDocumentSync:        protocol.TextDocumentSyncKindFull,
		HoverProvider:           true,
		DefinitionProvider:      true,
		ReferencesProvider:      true,
		DocumentSymbolProvider:  true,
		WorkspaceSymbolProvider: true,
		CompletionProvider: &protocol.CompletionOptions{
			TriggerCharacters: []string{"."},
			ResolveProvider:   &[]bool{false}[0],
		},
		SignatureHelpProvider: &protocol.SignatureHelpOptions{
			TriggerCharacters: []string{"(", ","},
		},
		RenameProvider: &trueVal,
	}
}

// Initialize handles the initialize request. Capability negotiation beyond
// the streaming experimental flag (handled by internal/dispatcher itself)
// is not this server's concern; it always advertises the same fixed
// capability set.
func (c *Context) Initialize(ctx context.Context, params json.RawMessage, emit func(any)) error {
	emit(map[string]any{
		"capabilities": serverCapabilities(),
	})
	return nil
}

// Shutdown handles the shutdown request: a graceful no-op from the core's
// perspective, since workspace teardown happens at exit (spec.md §4.H).
func (c *Context) Shutdown(ctx context.Context, params json.RawMessage, emit func(any)) error {
	emit(nil)
	return nil
}

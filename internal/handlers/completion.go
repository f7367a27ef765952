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

// Completion handles textDocument/completion.
func (c *Context) Completion(ctx context.Context, params json.RawMessage, emit func(any)) error {
	var p protocol.CompletionParams
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
		emit(protocol.CompletionList{IsIncomplete: false, Items: []protocol.CompletionItem{}})
		return nil
	}
	offset := lm.PositionToOffset(fromProtocolPosition(p.Position))

	entries, err := host.GetCompletionsAt(ctx, nativeFile, offset)
	if err != nil {
		return err
	}

	items := make([]protocol.CompletionItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, protocol.CompletionItem{
			Label: e.Name,
			Kind:  completionItemKind(e.Kind),
		})
	}
	emit(protocol.CompletionList{IsIncomplete: false, Items: items})
	return nil
}

var completionItemKindByName = map[string]protocol.CompletionItemKind{
	"class":     protocol.CompletionItemKindClass,
	"interface": protocol.CompletionItemKindInterface,
	"enum":      protocol.CompletionItemKindEnum,
	"function":  protocol.CompletionItemKindFunction,
	"method":    protocol.CompletionItemKindMethod,
	"property":  protocol.CompletionItemKindProperty,
	"variable":  protocol.CompletionItemKindVariable,
	"module":    protocol.CompletionItemKindModule,
	"keyword":   protocol.CompletionItemKindKeyword,
}

func completionItemKind(analyzerKind string) *protocol.CompletionItemKind {
	if k, ok := completionItemKindByName[analyzerKind]; ok {
		return &k
	}
	k := protocol.CompletionItemKindText
	return &k
}

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
	"tsls.dev/server/internal/analysishost"
	"tsls.dev/server/internal/furi"
	"tsls.dev/server/internal/project"
)

var symbolKindByName = map[string]protocol.SymbolKind{
	"class":     protocol.SymbolKindClass,
	"interface": protocol.SymbolKindInterface,
	"enum":      protocol.SymbolKindEnum,
	"function":  protocol.SymbolKindFunction,
	"method":    protocol.SymbolKindMethod,
	"property":  protocol.SymbolKindProperty,
	"variable":  protocol.SymbolKindVariable,
	"module":    protocol.SymbolKindModule,
}

func symbolKind(analyzerKind string) protocol.SymbolKind {
	if k, ok := symbolKindByName[analyzerKind]; ok {
		return k
	}
	return protocol.SymbolKindVariable
}

func navigationTreeToSymbol(lm *project.LineMap, tree analysishost.NavigationTree) protocol.DocumentSymbol {
	start := toProtocolPosition(lm.OffsetToPosition(tree.Span.Start))
	end := toProtocolPosition(lm.OffsetToPosition(tree.Span.Start + tree.Span.Length))
	rng := protocol.Range{Start: start, End: end}

	children := make([]protocol.DocumentSymbol, 0, len(tree.Children))
	for _, child := range tree.Children {
		children = append(children, navigationTreeToSymbol(lm, child))
	}
	return protocol.DocumentSymbol{
		Name:           tree.Text,
		Kind:           symbolKind(tree.Kind),
		Range:          rng,
		SelectionRange: rng,
		Children:       children,
	}
}

// DocumentSymbol handles textDocument/documentSymbol by converting the
// analyzer's NavigationTree into a protocol.DocumentSymbol tree.
func (c *Context) DocumentSymbol(ctx context.Context, params json.RawMessage, emit func(any)) error {
	var p protocol.DocumentSymbolParams
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
		emit([]protocol.DocumentSymbol{})
		return nil
	}

	tree, err := host.GetNavigationTree(ctx, nativeFile)
	if err != nil {
		return err
	}
	if tree == nil {
		emit([]protocol.DocumentSymbol{})
		return nil
	}

	root := navigationTreeToSymbol(lm, *tree)
	emit(root.Children)
	return nil
}

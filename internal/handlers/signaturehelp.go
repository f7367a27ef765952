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

// SignatureHelp handles textDocument/signatureHelp.
func (c *Context) SignatureHelp(ctx context.Context, params json.RawMessage, emit func(any)) error {
	var p protocol.SignatureHelpParams
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

	help, err := host.GetSignatureHelp(ctx, nativeFile, offset)
	if err != nil {
		return err
	}
	if help == nil {
		emit(nil)
		return nil
	}

	sigs := make([]protocol.SignatureInformation, 0, len(help.Signatures))
	for _, label := range help.Signatures {
		sigs = append(sigs, protocol.SignatureInformation{Label: label})
	}
	active := uint32(help.ActiveSignature)
	activeParam := uint32(help.ActiveParameter)
	emit(protocol.SignatureHelp{
		Signatures:      sigs,
		ActiveSignature: &active,
		ActiveParameter: &activeParam,
	})
	return nil
}

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

import "tsls.dev/server/internal/dispatcher"

// Register wires every handler method onto d under its LSP method name
// (spec.md §6's method table, plus the supplemented extensions of
// SPEC_FULL.md §7).
func (c *Context) Register(d *dispatcher.Dispatcher) {
	d.Handle("initialize", c.Initialize)
	d.Handle("shutdown", c.Shutdown)

	d.Handle("textDocument/didOpen", c.DidOpen)
	d.Handle("textDocument/didChange", c.DidChange)
	d.Handle("textDocument/didClose", c.DidClose)
	d.Handle("textDocument/didSave", c.DidSave)

	d.Handle("textDocument/definition", c.Definition)
	d.Handle("textDocument/hover", c.Hover)
	d.Handle("textDocument/references", c.References)
	d.Handle("textDocument/documentSymbol", c.DocumentSymbol)
	d.Handle("textDocument/completion", c.Completion)
	d.Handle("textDocument/signatureHelp", c.SignatureHelp)
	d.Handle("textDocument/rename", c.Rename)

	d.Handle("workspace/symbol", c.WorkspaceSymbol)
	d.Handle("workspace/xreferences", c.XReferences)
	d.Handle("workspace/xdefinition", c.XDefinition)
	d.Handle("workspace/xdependencies", c.XDependencies)
	d.Handle("workspace/xpackages", c.XPackages)

	c.WatchDiagnostics(d)
}

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

// textDocument/publishDiagnostics is named in spec.md §1 but absent from
// §6; supplemented here (SPEC_FULL.md §7), grounded on the teacher's own
// lsp/methods/textDocument/publishDiagnostics package: walk state affected
// by a change, emit one notification per affected document.
package handlers

import (
	"context"

	protocol "github.com/tliron/glsp/protocol_3_16"
	"tsls.dev/server/internal/furi"
	"tsls.dev/server/internal/telemetry"
)

// Notifier sends an outbound notification, implemented by
// *dispatcher.Dispatcher.
type Notifier interface {
	Notify(ctx context.Context, method string, params any) error
}

var severityByAnalyzer = map[string]protocol.DiagnosticSeverity{
	"error":      protocol.DiagnosticSeverityError,
	"warning":    protocol.DiagnosticSeverityWarning,
	"suggestion": protocol.DiagnosticSeverityHint,
}

// WatchDiagnostics registers a project-manager hook that republishes
// diagnostics for uri whenever it is opened or changed, pushing the result
// through notifier as an unsolicited textDocument/publishDiagnostics
// notification.
func (c *Context) WatchDiagnostics(notifier Notifier) {
	c.Projects.OnPublishDiagnostics(func(uri furi.URI) {
		ctx := context.Background()
		params, err := c.buildDiagnostics(ctx, uri)
		if err != nil {
			telemetry.Warnf("handlers: building diagnostics for %s: %v", uri, err)
			return
		}
		if err := notifier.Notify(ctx, "textDocument/publishDiagnostics", params); err != nil {
			telemetry.Warnf("handlers: publishing diagnostics for %s: %v", uri, err)
		}
	})
}

func (c *Context) buildDiagnostics(ctx context.Context, uri furi.URI) (protocol.PublishDiagnosticsParams, error) {
	if err := c.ensureReferencedFiles(ctx, uri); err != nil {
		return protocol.PublishDiagnosticsParams{}, err
	}
	_, host, err := c.resolveHost(ctx, uri)
	if err != nil {
		return protocol.PublishDiagnosticsParams{}, err
	}
	nativeFile, err := nativePath(protocol.DocumentUri(uri))
	if err != nil {
		return protocol.PublishDiagnosticsParams{}, err
	}
	lm, _, ok := c.lineMapFor(uri)
	if !ok {
		return protocol.PublishDiagnosticsParams{URI: protocol.DocumentUri(uri), Diagnostics: []protocol.Diagnostic{}}, nil
	}

	diags, err := host.GetDiagnostics(ctx, nativeFile)
	if err != nil {
		return protocol.PublishDiagnosticsParams{}, err
	}

	out := make([]protocol.Diagnostic, 0, len(diags))
	for _, d := range diags {
		start := toProtocolPosition(lm.OffsetToPosition(d.Span.Start))
		end := toProtocolPosition(lm.OffsetToPosition(d.Span.Start + d.Span.Length))
		severity := severityByAnalyzer[d.Severity]
		out = append(out, protocol.Diagnostic{
			Range:    protocol.Range{Start: start, End: end},
			Severity: &severity,
			Message:  d.Message,
		})
	}
	return protocol.PublishDiagnosticsParams{URI: protocol.DocumentUri(uri), Diagnostics: out}, nil
}

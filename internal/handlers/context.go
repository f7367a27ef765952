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

// Package handlers is the handler layer (spec.md §4.I): thin adapters from
// LSP JSON-RPC methods into the project manager (F), reference-closure
// engine (G) and AnalysisHost (external collaborator). Grounded on
// lsp/methods/textDocument/*'s package-per-method layout; reuses
// github.com/tliron/glsp/protocol_3_16 purely as typed LSP JSON vocabulary,
// not for transport or dispatch (that is internal/dispatcher, see
// SPEC_FULL.md §4.H).
package handlers

import (
	"context"
	"fmt"
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"
	"tsls.dev/server/internal/analysishost"
	"tsls.dev/server/internal/furi"
	"tsls.dev/server/internal/pkgmanager"
	"tsls.dev/server/internal/project"
	"tsls.dev/server/internal/refclosure"
	"tsls.dev/server/internal/telemetry"
	"tsls.dev/server/internal/updater"
	"tsls.dev/server/internal/vfs"
)

// tsLibVersion is substituted into the standard-library URI special case
// (spec.md §4.I step 4). It identifies the analyzer's bundled TypeScript
// release, not this server's own version.
const tsLibVersion = "5.6.3"

// Context bundles the collaborators every handler needs: the project
// manager (F), reference-closure engine (G), VFS/updater (B/D), and package
// manager (E, for the xpackages/xdependencies supplemented features).
type Context struct {
	Projects *project.Manager
	Closure  *refclosure.Engine
	Updater  *updater.Updater
	VFS      *vfs.VFS
	Packages *pkgmanager.Manager
	Root     furi.URI
}

// ensureReferencedFiles is handler recipe step 1 (spec.md §4.I): compute
// the entry's reference closure and make sure every member has content in
// the VFS before the analyzer is asked anything about it.
func (c *Context) ensureReferencedFiles(ctx context.Context, entry furi.URI) error {
	closure, err := c.Closure.Closure(ctx, entry)
	if err != nil {
		return telemetry.Wrap(telemetry.KindAnalyzerFailed, fmt.Errorf("handlers: computing reference closure for %s: %w", entry, err))
	}
	for uri := range closure {
		if err := c.Updater.EnsureFile(ctx, uri); err != nil {
			telemetry.Debugf("handlers: ensuring closure member %s: %v", uri, err)
		}
	}
	return nil
}

// resolveHost is handler recipe step 2's configuration half: find the
// owning ProjectConfig and its analyzer handle, instantiating it (to at
// least BasicFilesReady) if necessary.
func (c *Context) resolveHost(ctx context.Context, entry furi.URI) (*project.ProjectConfig, analysishost.Host, error) {
	cfg, err := c.Projects.GetConfiguration(entry, nil)
	if err != nil {
		return nil, nil, telemetry.Wrap(telemetry.KindNotFound, err)
	}
	if err := cfg.EnsureBasicFiles(ctx); err != nil {
		return nil, nil, telemetry.Wrap(telemetry.KindAnalyzerFailed, err)
	}
	host := cfg.Host()
	if host == nil {
		return nil, nil, telemetry.Wrap(telemetry.KindAnalyzerFailed, fmt.Errorf("handlers: %s has no analyzer host", entry))
	}
	return cfg, host, nil
}

// nativePath converts a DocumentUri param into a native path, wrapping
// failures with the InvalidUri taxonomy kind.
func nativePath(uri protocol.DocumentUri) (string, error) {
	p, err := furi.URIToPath(furi.URI(uri))
	if err != nil {
		return "", telemetry.Wrap(telemetry.KindInvalidURI, err)
	}
	return p, nil
}

// tsLibURI is the standard-library URI special case (spec.md §4.I step 4):
// paths that are part of the analyzer's bundled lib files are reported as
// git://github.com/Microsoft/TypeScript?v<ver>#lib/<basename> instead of a
// file: URI, since the editor has no local copy of them to open.
func tsLibURI(nativeFilePath string) (protocol.DocumentUri, bool) {
	if !furi.IsLibraryFile(nativeFilePath) {
		return "", false
	}
	base := nativeFilePath
	if idx := strings.LastIndex(nativeFilePath, "/"); idx >= 0 {
		base = nativeFilePath[idx+1:]
	}
	return protocol.DocumentUri(fmt.Sprintf("git://github.com/Microsoft/TypeScript?v%s#lib/%s", tsLibVersion, base)), true
}

// pathToDocumentURI applies the tsLibURI special case, falling back to a
// normal file: URI (spec.md §4.I step 4).
func pathToDocumentURI(nativeFilePath string) protocol.DocumentUri {
	if u, ok := tsLibURI(nativeFilePath); ok {
		return u
	}
	return protocol.DocumentUri(furi.PathToURI(nativeFilePath))
}

// lineMapFor builds the LineMap that converts LSP positions to/from analyzer
// UTF-16 offsets, from the content currently in the VFS for uri (spec.md
// §4.I step 3). Returns ok=false if the content isn't available.
func (c *Context) lineMapFor(uri furi.URI) (*project.LineMap, string, bool) {
	content, ok := c.VFS.ReadIfAvailable(uri)
	if !ok {
		return nil, "", false
	}
	return project.NewLineMap(content), content, true
}

func toProtocolPosition(p project.Position) protocol.Position {
	return protocol.Position{Line: uint32(p.Line), Character: uint32(p.Character)}
}

func fromProtocolPosition(p protocol.Position) project.Position {
	return project.Position{Line: int(p.Line), Character: int(p.Character)}
}

// locationToProtocol converts one analysishost.Location into a
// protocol.Location, converting its span's start offset into a line/col
// pair using that file's own content if available in the VFS, and applying
// the stdlib-URI special case.
func (c *Context) locationToProtocol(loc analysishost.Location) protocol.Location {
	uri := furi.PathToURI(loc.FilePath)
	start := protocol.Position{}
	end := protocol.Position{}
	if lm, _, ok := c.lineMapFor(uri); ok {
		start = toProtocolPosition(lm.OffsetToPosition(loc.Span.Start))
		end = toProtocolPosition(lm.OffsetToPosition(loc.Span.Start + loc.Span.Length))
	}
	return protocol.Location{
		URI: pathToDocumentURI(loc.FilePath),
		Range: protocol.Range{
			Start: start,
			End:   end,
		},
	}
}

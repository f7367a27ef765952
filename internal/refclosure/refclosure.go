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

// Package refclosure implements the reference-closure engine (spec.md
// §4.G): a depth-bounded, visited-set-deduped, per-edge-error-tolerant
// traversal of a file's imports, triple-slash references, and
// type-reference directives. Grounded on modulegraph/module_graph_interfaces.go
// and module_graph_parsers.go's transitive closure engine, generalized from
// manifest-module edges to AnalysisHost.PreProcessFile edges.
package refclosure

import (
	"context"
	"fmt"
	"sync"

	"github.com/pterm/pterm"
	"tsls.dev/server/internal/furi"
	"tsls.dev/server/internal/project"
	"tsls.dev/server/internal/updater"
	"tsls.dev/server/internal/vfs"
)

// DefaultMaxDepth is spec.md §4.G's default traversal bound.
const DefaultMaxDepth = 30

// edges is one entry's direct, resolved edges.
type edges struct {
	uris []furi.URI
}

// Engine computes and caches direct-edge reference closures.
type Engine struct {
	vfs      *vfs.VFS
	updater  *updater.Updater
	projects *project.Manager
	maxDepth int

	mu    sync.Mutex
	cache map[furi.URI]edges
}

// New creates an Engine with spec.md's default max depth.
func New(v *vfs.VFS, u *updater.Updater, p *project.Manager) *Engine {
	return NewWithMaxDepth(v, u, p, DefaultMaxDepth)
}

// NewWithMaxDepth creates an Engine with an explicit traversal bound,
// letting tests exercise spec.md §4.G's depth-bound property without
// building chains 30 edges deep.
func NewWithMaxDepth(v *vfs.VFS, u *updater.Updater, p *project.Manager, maxDepth int) *Engine {
	return &Engine{vfs: v, updater: u, projects: p, maxDepth: maxDepth, cache: make(map[furi.URI]edges)}
}

// InvalidateReferencedFiles clears one cache entry, or every entry if uri is
// nil.
func (e *Engine) InvalidateReferencedFiles(uri *furi.URI) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if uri == nil {
		e.cache = make(map[furi.URI]edges)
		return
	}
	delete(e.cache, *uri)
}

// Closure computes the set of files transitively reachable from entry via
// imports, triple-slash references, and type-reference directives, bounded
// by the Engine's max depth. Individual edge-resolution errors are logged
// and skipped, never abort the traversal (spec.md §4.G step 4).
func (e *Engine) Closure(ctx context.Context, entry furi.URI) (map[furi.URI]struct{}, error) {
	visited := map[furi.URI]struct{}{entry: {}}
	if err := e.walk(ctx, entry, e.maxDepth, visited); err != nil {
		return nil, err
	}
	return visited, nil
}

func (e *Engine) walk(ctx context.Context, entry furi.URI, depth int, visited map[furi.URI]struct{}) error {
	if depth <= 0 {
		return nil
	}

	cfg, err := e.projects.GetConfiguration(entry, nil)
	if err != nil {
		return fmt.Errorf("refclosure: resolving configuration for %s: %w", entry, err)
	}
	if err := cfg.EnsureBasicFiles(ctx); err != nil {
		return fmt.Errorf("refclosure: ensuring basic files for %s: %w", entry, err)
	}

	ed, err := e.directEdges(ctx, entry, cfg)
	if err != nil {
		return err
	}

	for _, next := range ed.uris {
		if _, seen := visited[next]; seen {
			continue
		}
		visited[next] = struct{}{}
		if err := e.walk(ctx, next, depth-1, visited); err != nil {
			pterm.Debug.Printfln("refclosure: edge %s -> %s: %v", entry, next, err)
		}
	}
	return nil
}

func (e *Engine) directEdges(ctx context.Context, entry furi.URI, cfg *project.ProjectConfig) (edges, error) {
	e.mu.Lock()
	if ed, ok := e.cache[entry]; ok {
		e.mu.Unlock()
		return ed, nil
	}
	e.mu.Unlock()

	if err := e.updater.EnsureFile(ctx, entry); err != nil {
		return edges{}, fmt.Errorf("refclosure: fetching %s: %w", entry, err)
	}
	content, ok := e.vfs.ReadIfAvailable(entry)
	if !ok {
		return edges{}, fmt.Errorf("refclosure: %s has no content after fetch", entry)
	}

	host := cfg.Host()
	if host == nil {
		return edges{}, fmt.Errorf("refclosure: %s's configuration has no analyzer host", entry)
	}
	pre, err := host.PreProcessFile(ctx, nativePathOrEmpty(entry), content)
	if err != nil {
		return edges{}, fmt.Errorf("refclosure: pre-processing %s: %w", entry, err)
	}

	var out []furi.URI
	for _, spec := range pre.ImportedFiles {
		resolved, ok, err := host.ResolveModuleName(ctx, nativePathOrEmpty(entry), spec)
		if err != nil {
			pterm.Debug.Printfln("refclosure: resolving import %q from %s: %v", spec, entry, err)
			continue
		}
		if !ok {
			continue
		}
		out = append(out, furi.PathToURI(resolved))
	}
	for _, rel := range pre.ReferencedFiles {
		out = append(out, joinTripleSlash(entry, rel))
	}
	for _, directive := range pre.TypeReferenceDirectives {
		resolved, ok, err := host.ResolveTypeReferenceDirective(ctx, nativePathOrEmpty(entry), directive)
		if err != nil {
			pterm.Debug.Printfln("refclosure: resolving type reference %q from %s: %v", directive, entry, err)
			continue
		}
		if !ok {
			continue
		}
		out = append(out, furi.PathToURI(resolved))
	}

	ed := edges{uris: out}
	e.mu.Lock()
	e.cache[entry] = ed
	e.mu.Unlock()
	return ed, nil
}

// joinTripleSlash resolves a triple-slash path= reference, always using
// POSIX-style forward-slash joining regardless of host OS (spec.md §4.G
// step 3, §9).
func joinTripleSlash(entry furi.URI, rel string) furi.URI {
	return furi.Join(entry, rel)
}

func nativePathOrEmpty(u furi.URI) string {
	p, err := furi.URIToPath(u)
	if err != nil {
		return string(u)
	}
	return p
}

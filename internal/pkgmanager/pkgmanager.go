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

// Package pkgmanager implements the package manager (spec.md §4.E):
// discovery of package.json files from VFS "added" events, root-package
// selection, and four-key dependency enumeration. Grounded on
// workspace/discovery.go's DiscoverWorkspacePackages/readPackageJSON,
// generalized from an upfront glob walk to an event subscription.
package pkgmanager

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"github.com/pterm/pterm"
	"tsls.dev/server/internal/furi"
	"tsls.dev/server/internal/updater"
	"tsls.dev/server/internal/vfs"
)

// dependencyKeys are the four well-known package.json keys spec.md §4.E
// enumerates.
var dependencyKeys = []string{"dependencies", "devDependencies", "peerDependencies", "optionalDependencies"}

// Dependency is one (dependee, name, version) record yielded by
// Dependencies().
type Dependency struct {
	DependeePackageName string
	DepName             string
	DepVersion          string
}

type record struct {
	uri  furi.URI
	json map[string]any // nil if the content failed to parse
	name string
}

// Manager tracks every non-node_modules package.json registered in the
// workspace.
type Manager struct {
	vfs     *vfs.VFS
	updater *updater.Updater

	mu       sync.RWMutex
	byURI    map[furi.URI]*record
	rootURI  furi.URI
	hasRoot  bool

	events <-chan vfs.AddedEvent
}

// New creates a Manager and subscribes it to v's added events. Run must be
// called (typically in its own goroutine) to consume the subscription.
func New(v *vfs.VFS, u *updater.Updater) *Manager {
	return &Manager{
		vfs:     v,
		updater: u,
		byURI:   make(map[furi.URI]*record),
		events:  v.Subscribe(),
	}
}

// Run consumes the subscription New opened until it is closed or stop is
// closed.
func (m *Manager) Run(stop <-chan struct{}) {
	ch := m.events
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			m.handleAdded(ev.URI, ev.Content)
		case <-stop:
			return
		}
	}
}

func (m *Manager) handleAdded(uri furi.URI, content *string) {
	if !strings.HasSuffix(string(uri), "/package.json") {
		return
	}
	if strings.Contains(string(uri), "/node_modules/") {
		return
	}

	rec := &record{uri: uri}
	if content != nil {
		var parsed map[string]any
		if err := json.Unmarshal([]byte(*content), &parsed); err != nil {
			pterm.Debug.Printfln("pkgmanager: failed to parse %s: %v", uri, err)
			rec.json = nil
		} else {
			rec.json = parsed
			if name, ok := parsed["name"].(string); ok {
				rec.name = name
			}
		}
	}

	m.mu.Lock()
	m.byURI[uri] = rec
	m.recomputeRoot()
	m.mu.Unlock()
}

// recomputeRoot tracks rootPackageJsonUri as the registered URI with fewest
// path segments, ties broken lexicographically (spec.md §9 Open Question).
// Caller must hold m.mu.
func (m *Manager) recomputeRoot() {
	var best furi.URI
	bestDepth := -1
	for uri := range m.byURI {
		depth := strings.Count(string(uri), "/")
		if bestDepth == -1 || depth < bestDepth || (depth == bestDepth && uri < best) {
			best = uri
			bestDepth = depth
		}
	}
	m.rootURI = best
	m.hasRoot = bestDepth != -1
}

// AllPackageJsonUris returns every registered package.json URI.
func (m *Manager) AllPackageJsonUris() []furi.URI {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]furi.URI, 0, len(m.byURI))
	for uri := range m.byURI {
		out = append(out, uri)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RootPackageJsonUri returns the workspace's root package.json URI, if any.
func (m *Manager) RootPackageJsonUri() (furi.URI, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rootURI, m.hasRoot
}

// GetClosestPackageJsonUri walks ancestors of uri, returning the registered
// package.json with the longest matching path prefix (spec.md §8).
func (m *Manager) GetClosestPackageJsonUri(uri furi.URI) (furi.URI, bool) {
	p, err := furi.URIToPath(uri)
	if err != nil {
		return "", false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var best furi.URI
	bestLen := -1
	for candURI := range m.byURI {
		candPath, err := furi.URIToPath(candURI)
		if err != nil {
			continue
		}
		dir := candPath[:len(candPath)-len("package.json")]
		if strings.HasPrefix(p, dir) && len(dir) > bestLen {
			best = candURI
			bestLen = len(dir)
		}
	}
	if bestLen == -1 {
		return "", false
	}
	return best, true
}

// GetPackageJson ensures the file's content is fetched via the updater,
// then returns its parsed JSON (spec.md §4.E).
func (m *Manager) GetPackageJson(ctx context.Context, uri furi.URI) (map[string]any, bool) {
	m.mu.RLock()
	rec, ok := m.byURI[uri]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if rec.json == nil {
		if err := m.updater.EnsureFile(ctx, uri); err == nil {
			if content, ok := m.vfs.ReadIfAvailable(uri); ok {
				m.handleAdded(uri, &content)
				m.mu.RLock()
				rec = m.byURI[uri]
				m.mu.RUnlock()
			}
		}
	}
	return rec.json, rec.json != nil
}

// Dependencies enumerates (dependeePackageName, depName, depVersion) over
// the four well-known dependency keys of every registered, non-node_modules
// package.json.
func (m *Manager) Dependencies() []Dependency {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Dependency
	for _, rec := range m.byURI {
		if rec.json == nil {
			continue
		}
		name, _ := rec.json["name"].(string)
		for _, key := range dependencyKeys {
			deps, ok := rec.json[key].(map[string]any)
			if !ok {
				continue
			}
			for depName, v := range deps {
				version, _ := v.(string)
				out = append(out, Dependency{
					DependeePackageName: name,
					DepName:             depName,
					DepVersion:          version,
				})
			}
		}
	}
	return out
}

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
package project

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"tsls.dev/server/internal/analysishost"
	"tsls.dev/server/internal/furi"
	"tsls.dev/server/internal/updater"
	"tsls.dev/server/internal/vfs"
)

// HostFactory constructs a fresh analysishost.Host for one ProjectConfig.
type HostFactory func() analysishost.Host

// future is a singleflight, invalidatable async computation, grounded on
// internal/updater's pendingEntry shape and generalized to the three
// idempotent "ensure*" operations spec.md §4.F names.
type future struct {
	mu      sync.Mutex
	done    chan struct{}
	err     error
	started bool
}

func (f *future) run(ctx context.Context, fn func(context.Context) error) error {
	f.mu.Lock()
	if f.started {
		ch := f.done
		f.mu.Unlock()
		select {
		case <-ch:
			f.mu.Lock()
			defer f.mu.Unlock()
			return f.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.started = true
	ch := make(chan struct{})
	f.done = ch
	f.mu.Unlock()

	go func() {
		defer close(ch)
		err := fn(context.WithoutCancel(ctx))
		f.mu.Lock()
		f.err = err
		if err != nil {
			f.started = false
		}
		f.mu.Unlock()
	}()

	select {
	case <-ch:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *future) invalidate() {
	f.mu.Lock()
	f.started = false
	f.mu.Unlock()
}

// Manager is the project manager (spec.md §4.F): discovers
// tsconfig.json/jsconfig.json files from VFS added events, maintains two
// synthetic fallback configs, and serves getConfiguration/didOpen et al.
type Manager struct {
	vfs         *vfs.VFS
	updater     *updater.Updater
	hostFactory HostFactory
	root        furi.URI

	mu          sync.RWMutex
	configs     map[furi.URI]*ProjectConfig // keyed by directory URI
	syntheticTS *ProjectConfig
	syntheticJS *ProjectConfig
	versions    map[furi.URI]int

	moduleStructure future
	ownFiles        future
	allFiles        future

	onInvalidateClosure func(uri *furi.URI)
	onDiagnostics       func(uri furi.URI)

	events <-chan vfs.AddedEvent
}

// New creates a Manager rooted at root, synthesising the two fallback
// configs immediately (spec.md §4.F responsibility 1) and subscribing to v's
// added events, which Run consumes.
func New(v *vfs.VFS, u *updater.Updater, root furi.URI, hostFactory HostFactory) *Manager {
	m := &Manager{
		vfs:         v,
		updater:     u,
		hostFactory: hostFactory,
		root:        root,
		configs:     make(map[furi.URI]*ProjectConfig),
		versions:    make(map[furi.URI]int),
		events:      v.Subscribe(),
	}
	m.syntheticTS = newProjectConfig(m, root, "", KindTS, true)
	m.syntheticJS = newProjectConfig(m, root, "", KindJS, true)
	return m
}

// OnInvalidateReferenceClosure registers a callback invoked whenever
// workspace structure changes in a way that invalidates cached reference
// edges (spec.md §4.F: "Completing [ensureModuleStructure] ... invalidates
// the ReferenceClosureCache"). Pass nil uri to mean "invalidate everything".
func (m *Manager) OnInvalidateReferenceClosure(fn func(uri *furi.URI)) {
	m.onInvalidateClosure = fn
}

// OnPublishDiagnostics registers a callback fired after DidOpen and
// DidChange record new overlay content (spec.md §7 supplemented feature:
// textDocument/publishDiagnostics). DidClose, DidSave and EnsureAllFiles do
// not fire it.
func (m *Manager) OnPublishDiagnostics(fn func(uri furi.URI)) {
	m.onDiagnostics = fn
}

// Run consumes the subscription New opened, looking for [tj]sconfig.json
// additions outside node_modules (spec.md §4.F responsibility 2).
func (m *Manager) Run(stop <-chan struct{}) {
	ch := m.events
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			m.handleAdded(ev.URI)
		case <-stop:
			return
		}
	}
}

func (m *Manager) handleAdded(uri furi.URI) {
	if strings.Contains(string(uri), "/node_modules/") {
		return
	}
	var kind Kind
	switch furi.Classify(string(uri)) {
	case furi.TsConfig:
		kind = KindTS
	case furi.JsConfig:
		kind = KindJS
	default:
		return
	}

	dir := furi.URI(strings.TrimSuffix(string(uri), "/"+baseName(string(uri))))
	if strings.HasSuffix(string(dir), "://") {
		dir += "/" // a config at the filesystem root: key it as PathToURI("/")
	}
	cfg := newProjectConfig(m, dir, uri, kind, false)

	m.mu.Lock()
	m.configs[dir] = cfg
	m.mu.Unlock()

	if m.onInvalidateClosure != nil {
		m.onInvalidateClosure(nil)
	}
}

func baseName(uri string) string {
	idx := strings.LastIndex(uri, "/")
	if idx < 0 {
		return uri
	}
	return uri[idx+1:]
}

// GetConfiguration climbs from path to the workspace root looking for a
// registered config of the given kind (nil meaning "either"), returning the
// synthetic root config if none is found along the way.
func (m *Manager) GetConfiguration(path furi.URI, kind *Kind) (*ProjectConfig, error) {
	p, err := furi.URIToPath(path)
	if err != nil {
		return nil, err
	}
	dir := p
	for {
		candURI := furi.PathToURI(dir)
		m.mu.RLock()
		cfg, ok := m.configs[candURI]
		m.mu.RUnlock()
		if ok && (kind == nil || cfg.Kind == *kind) {
			return cfg, nil
		}
		parent := parentDir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	if kind == nil || *kind == KindTS {
		return m.syntheticTS, nil
	}
	if *kind == KindJS {
		return m.syntheticJS, nil
	}
	return nil, ErrNoConfig
}

func parentDir(p string) string {
	idx := strings.LastIndex(strings.TrimSuffix(p, "/"), "/")
	if idx <= 0 {
		return "/"
	}
	return p[:idx]
}

// GetChildConfigurations yields every registered config whose directory is
// equal to or under uri.
func (m *Manager) GetChildConfigurations(uri furi.URI) []*ProjectConfig {
	prefix, err := furi.URIToPath(uri)
	if err != nil {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*ProjectConfig
	for dir, cfg := range m.configs {
		dp, err := furi.URIToPath(dir)
		if err != nil {
			continue
		}
		if dp == prefix || strings.HasPrefix(dp, strings.TrimSuffix(prefix, "/")+"/") {
			out = append(out, cfg)
		}
	}
	return out
}

func (m *Manager) getVersion(uri furi.URI) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.versions[uri]
	if !ok {
		return "", false
	}
	return strconv.Itoa(v), true
}

func (m *Manager) bumpVersion(uri furi.URI) {
	m.mu.Lock()
	m.versions[uri]++
	m.mu.Unlock()
}

// DidOpen records editor-owned content and bumps the file's version, then
// ensures the owning config's analyzer host sees it.
func (m *Manager) DidOpen(ctx context.Context, uri furi.URI, text string) error {
	m.vfs.OpenOverlay(uri, text)
	m.bumpVersion(uri)
	return m.notifyHost(uri)
}

// DidChange re-records overlay content and bumps the version.
func (m *Manager) DidChange(ctx context.Context, uri furi.URI, text string) error {
	m.vfs.OpenOverlay(uri, text)
	m.bumpVersion(uri)
	return m.notifyHost(uri)
}

// DidClose drops the overlay, reverting to any underlying VFS content.
func (m *Manager) DidClose(ctx context.Context, uri furi.URI) error {
	m.vfs.CloseOverlay(uri)
	return nil
}

// DidSave promotes overlay content into the VFS so it survives DidClose.
func (m *Manager) DidSave(ctx context.Context, uri furi.URI) error {
	m.vfs.SaveOverlay(uri)
	return nil
}

func (m *Manager) notifyHost(uri furi.URI) error {
	cfg, err := m.GetConfiguration(uri, nil)
	if err != nil {
		return err
	}
	cfg.IncProjectVersion()
	if m.onDiagnostics != nil {
		m.onDiagnostics(uri)
	}
	return nil
}

// EnsureModuleStructure fetches VFS structure and the contents of every
// global declaration file, config, and package.json, then recomputes the
// config set and invalidates the reference-closure cache.
func (m *Manager) EnsureModuleStructure(ctx context.Context) error {
	return m.moduleStructure.run(ctx, func(ctx context.Context) error {
		if err := m.updater.EnsureStructure(ctx); err != nil {
			return err
		}
		for _, uri := range m.vfs.Uris() {
			switch furi.Classify(string(uri)) {
			case furi.GlobalDeclaration, furi.TsConfig, furi.JsConfig, furi.PackageJson:
				if err := m.updater.EnsureFile(ctx, uri); err != nil {
					return fmt.Errorf("project: ensuring module structure file %s: %w", uri, err)
				}
			}
		}
		for _, cfg := range m.allConfigs() {
			cfg.Reset()
		}
		if m.onInvalidateClosure != nil {
			m.onInvalidateClosure(nil)
		}
		return nil
	})
}

// EnsureOwnFiles additionally fetches every non-node_modules source file.
func (m *Manager) EnsureOwnFiles(ctx context.Context) error {
	return m.ownFiles.run(ctx, func(ctx context.Context) error {
		if err := m.EnsureModuleStructure(ctx); err != nil {
			return err
		}
		for _, uri := range m.vfs.Uris() {
			if strings.Contains(string(uri), "/node_modules/") {
				continue
			}
			switch furi.Classify(string(uri)) {
			case furi.TsSource, furi.JsSource, furi.Declaration:
				if err := m.updater.EnsureFile(ctx, uri); err != nil {
					return fmt.Errorf("project: ensuring own file %s: %w", uri, err)
				}
			}
		}
		return nil
	})
}

// EnsureAllFiles fetches every source, config, and package.json in the
// workspace, including node_modules.
func (m *Manager) EnsureAllFiles(ctx context.Context) error {
	return m.allFiles.run(ctx, func(ctx context.Context) error {
		if err := m.EnsureModuleStructure(ctx); err != nil {
			return err
		}
		for _, uri := range m.vfs.Uris() {
			switch furi.Classify(string(uri)) {
			case furi.TsSource, furi.JsSource, furi.Declaration, furi.GlobalDeclaration, furi.TsConfig, furi.JsConfig, furi.PackageJson:
				if err := m.updater.EnsureFile(ctx, uri); err != nil {
					return fmt.Errorf("project: ensuring all files %s: %w", uri, err)
				}
			}
		}
		return nil
	})
}

// InvalidateModuleStructure forces the next EnsureModuleStructure (and
// transitively EnsureOwnFiles/EnsureAllFiles) call to recompute.
func (m *Manager) InvalidateModuleStructure() {
	m.moduleStructure.invalidate()
	m.ownFiles.invalidate()
	m.allFiles.invalidate()
	m.updater.InvalidateStructure()
}

func (m *Manager) allConfigs() []*ProjectConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*ProjectConfig, 0, len(m.configs)+2)
	for _, cfg := range m.configs {
		out = append(out, cfg)
	}
	out = append(out, m.syntheticTS, m.syntheticJS)
	return out
}

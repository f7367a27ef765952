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

// Package project implements the project manager (spec.md §4.F): discovery
// of tsconfig.json/jsconfig.json files, two synthetic fallback configs, and
// the ProjectConfig state machine that fronts an analysishost.Host.
// Grounded on lsp/registry.go's config/workspace registry and
// workspace/context.go's findProjectRootFromDir ancestor walk.
package project

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pterm/pterm"
	"github.com/tidwall/jsonc"
	"tsls.dev/server/internal/analysishost"
	"tsls.dev/server/internal/furi"
)

// Kind distinguishes a TypeScript project from a JavaScript one.
type Kind int

const (
	KindTS Kind = iota
	KindJS
)

func (k Kind) String() string {
	if k == KindJS {
		return "js"
	}
	return "ts"
}

// State is the ProjectConfig lifecycle (spec.md §4.F).
type State int

const (
	Uninitialised State = iota
	BasicFilesReady
	AllFilesReady
)

// ErrNoConfig is returned by GetConfiguration when a specific kind was
// requested and is genuinely unavailable.
var ErrNoConfig = fmt.Errorf("project: no matching configuration")

// ProjectConfig tracks one tsconfig.json/jsconfig.json (or a synthetic
// workspace-root fallback) and the analyzer project instantiated from it.
type ProjectConfig struct {
	mgr       *Manager
	Dir       furi.URI // directory containing the config, or workspace root
	ConfigURI furi.URI // empty for synthetic configs
	Kind      Kind
	Synthetic bool

	mu               sync.Mutex
	state            State
	compilerOptions  map[string]any
	expectedFiles    []string // native paths
	projectVersion   int
	host             analysishost.Host
}

func newProjectConfig(mgr *Manager, dir, configURI furi.URI, kind Kind, synthetic bool) *ProjectConfig {
	return &ProjectConfig{
		mgr:       mgr,
		Dir:       dir,
		ConfigURI: configURI,
		Kind:      kind,
		Synthetic: synthetic,
	}
}

// State reports the config's current lifecycle state.
func (c *ProjectConfig) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IncProjectVersion bumps the per-config counter the analyzer uses to learn
// the host has mutated (spec.md §4.F AnalyzerHost.incProjectVersion).
func (c *ProjectConfig) IncProjectVersion() {
	c.mu.Lock()
	c.projectVersion++
	c.mu.Unlock()
}

// GetProjectVersion returns the current counter as a string.
func (c *ProjectConfig) GetProjectVersion() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fmt.Sprintf("%d", c.projectVersion)
}

// Host returns the analyzer handle, if the config has been initialised at
// least to BasicFilesReady.
func (c *ProjectConfig) Host() analysishost.Host {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.host
}

// Reset returns the machine to Uninitialised and drops the analyzer handle
// (spec.md §4.F, called on workspace-structure invalidation).
func (c *ProjectConfig) Reset() {
	c.mu.Lock()
	c.state = Uninitialised
	c.host = nil
	c.compilerOptions = nil
	c.expectedFiles = nil
	c.mu.Unlock()
}

// EnsureConfigFile parses the config JSON (if any), computes compilerOptions
// and expectedFiles, and instantiates the analyzer handle.
func (c *ProjectConfig) EnsureConfigFile(ctx context.Context) error {
	c.mu.Lock()
	if c.state != Uninitialised {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	opts := map[string]any{}
	var includePatterns, excludePatterns []string

	if c.ConfigURI != "" {
		if err := c.mgr.updater.EnsureFile(ctx, c.ConfigURI); err != nil {
			return fmt.Errorf("project: fetching config %s: %w", c.ConfigURI, err)
		}
		raw, ok := c.mgr.vfs.ReadIfAvailable(c.ConfigURI)
		if ok {
			parsed, err := parseJSONC(raw)
			if err != nil {
				pterm.Warning.Printfln("project: malformed config %s: %v", c.ConfigURI, err)
			} else {
				if co, ok := parsed["compilerOptions"].(map[string]any); ok {
					opts = co
				}
				includePatterns = toStringSlice(parsed["include"])
				excludePatterns = toStringSlice(parsed["exclude"])
				if files := toStringSlice(parsed["files"]); len(files) > 0 {
					includePatterns = files
				}
			}
		}
	}

	dirPath, err := furi.URIToPath(c.Dir)
	if err != nil {
		return fmt.Errorf("project: config dir %s: %w", c.Dir, err)
	}
	expected := c.mgr.resolveExpectedFiles(dirPath, c.Kind, includePatterns, excludePatterns)

	c.mu.Lock()
	c.compilerOptions = opts
	c.expectedFiles = expected
	c.host = c.mgr.hostFactory()
	c.mu.Unlock()

	if err := c.host.CreateProject(ctx, &scriptHost{cfg: c}); err != nil {
		return fmt.Errorf("project: creating analyzer project for %s: %w", c.Dir, err)
	}
	c.mu.Lock()
	c.state = BasicFilesReady // config + handle ready; basic files fed below
	c.mu.Unlock()
	return nil
}

// EnsureBasicFiles additionally feeds global-declaration and
// non-dependency .d.ts files into the host.
func (c *ProjectConfig) EnsureBasicFiles(ctx context.Context) error {
	if err := c.EnsureConfigFile(ctx); err != nil {
		return err
	}
	for _, uri := range c.mgr.vfs.Uris() {
		if furi.Classify(string(uri)) == furi.GlobalDeclaration {
			if err := c.mgr.updater.EnsureFile(ctx, uri); err != nil {
				pterm.Debug.Printfln("project: basic file %s: %v", uri, err)
			}
		}
	}
	return nil
}

// EnsureAllFiles feeds every expectedFile into the host.
func (c *ProjectConfig) EnsureAllFiles(ctx context.Context) error {
	if err := c.EnsureBasicFiles(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	files := append([]string(nil), c.expectedFiles...)
	c.mu.Unlock()
	for _, p := range files {
		if err := c.mgr.updater.EnsureFile(ctx, furi.PathToURI(p)); err != nil {
			pterm.Debug.Printfln("project: expected file %s: %v", p, err)
		}
	}
	c.mu.Lock()
	c.state = AllFilesReady
	c.mu.Unlock()
	return nil
}

func parseJSONC(raw string) (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal(jsonc.ToJSON([]byte(raw)), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func toStringSlice(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// resolveExpectedFiles applies include/exclude glob patterns (or the kind's
// default pattern when none given) against every source file registered
// under dirPath, excluding node_modules unless explicitly included.
func (m *Manager) resolveExpectedFiles(dirPath string, kind Kind, include, exclude []string) []string {
	if len(include) == 0 {
		if kind == KindJS {
			include = []string{"**/*.js", "**/*.jsx", "**/*.mjs", "**/*.cjs"}
		} else {
			include = []string{"**/*.ts", "**/*.tsx", "**/*.mts", "**/*.cts", "**/*.d.ts"}
		}
	}
	if len(exclude) == 0 {
		exclude = []string{"node_modules/**"}
	}

	var out []string
	for _, uri := range m.vfs.Uris() {
		p, err := furi.URIToPath(uri)
		if err != nil || !strings.HasPrefix(p, dirPath) {
			continue
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(p, dirPath), "/")
		if rel == "" {
			continue
		}
		if matchAny(exclude, rel) {
			continue
		}
		if matchAny(include, rel) {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

func matchAny(patterns []string, rel string) bool {
	for _, pat := range patterns {
		if ok, _ := doublestar.Match(pat, rel); ok {
			return true
		}
	}
	return false
}

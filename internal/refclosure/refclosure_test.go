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
package refclosure_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tsls.dev/server/internal/analysishost"
	"tsls.dev/server/internal/furi"
	"tsls.dev/server/internal/project"
	"tsls.dev/server/internal/refclosure"
	"tsls.dev/server/internal/updater"
	"tsls.dev/server/internal/vfs"
)

// graphHost is a fake analysishost.Host whose PreProcessFile answers from a
// fixed edge map keyed by native path, for deterministic closure tests.
type graphHost struct {
	imports map[string][]string
}

func (h *graphHost) CreateProject(ctx context.Context, s analysishost.ScriptHost) error { return nil }
func (h *graphHost) GetDefinitionAt(ctx context.Context, f string, p int) ([]analysishost.Location, error) {
	return nil, nil
}
func (h *graphHost) GetReferencesAt(ctx context.Context, f string, p int) ([]analysishost.Location, error) {
	return nil, nil
}
func (h *graphHost) GetQuickInfoAt(ctx context.Context, f string, p int) (*analysishost.QuickInfo, error) {
	return nil, nil
}
func (h *graphHost) GetCompletionsAt(ctx context.Context, f string, p int) ([]analysishost.CompletionEntry, error) {
	return nil, nil
}
func (h *graphHost) GetCompletionEntryDetails(ctx context.Context, f string, p int, name string) (*analysishost.CompletionDetails, error) {
	return nil, nil
}
func (h *graphHost) GetSignatureHelp(ctx context.Context, f string, p int) (*analysishost.SignatureHelp, error) {
	return nil, nil
}
func (h *graphHost) GetNavigateToItems(ctx context.Context, search string) ([]analysishost.NavigateToItem, error) {
	return nil, nil
}
func (h *graphHost) GetNavigationTree(ctx context.Context, f string) (*analysishost.NavigationTree, error) {
	return nil, nil
}
func (h *graphHost) GetDiagnostics(ctx context.Context, f string) ([]analysishost.Diagnostic, error) {
	return nil, nil
}
func (h *graphHost) ResolveModuleName(ctx context.Context, from, spec string) (string, bool, error) {
	return spec, true, nil
}
func (h *graphHost) ResolveTypeReferenceDirective(ctx context.Context, from, directive string) (string, bool, error) {
	return "", false, nil
}
func (h *graphHost) PreProcessFile(ctx context.Context, f, content string) (*analysishost.PreProcessedFile, error) {
	return &analysishost.PreProcessedFile{ImportedFiles: h.imports[f]}, nil
}

func str(s string) *string { return &s }

func TestClosureFollowsImportsAndDedupes(t *testing.T) {
	v := vfs.New(nil)
	u := updater.New(v, nil)
	host := &graphHost{imports: map[string][]string{
		"/a.ts": {"/b.ts", "/c.ts"},
		"/b.ts": {"/c.ts"}, // c reachable via both a and b: must not duplicate
		"/c.ts": {},
	}}
	pm := project.New(v, u, furi.PathToURI("/"), func() analysishost.Host { return host })

	v.Add(furi.PathToURI("/a.ts"), str("import './b'; import './c';"))
	v.Add(furi.PathToURI("/b.ts"), str("import './c';"))
	v.Add(furi.PathToURI("/c.ts"), str("export const c = 1;"))

	eng := refclosure.New(v, u, pm)
	closure, err := eng.Closure(context.Background(), furi.PathToURI("/a.ts"))
	require.NoError(t, err)

	assert.Len(t, closure, 3)
	assert.Contains(t, closure, furi.PathToURI("/a.ts"))
	assert.Contains(t, closure, furi.PathToURI("/b.ts"))
	assert.Contains(t, closure, furi.PathToURI("/c.ts"))
}

func TestClosureFollowsDirectEdgeUnderDefaultDepth(t *testing.T) {
	v := vfs.New(nil)
	u := updater.New(v, nil)
	host := &graphHost{imports: map[string][]string{
		"/a.ts": {"/b.ts"},
		"/b.ts": {"/c.ts"},
		"/c.ts": {},
	}}
	pm := project.New(v, u, furi.PathToURI("/"), func() analysishost.Host { return host })
	v.Add(furi.PathToURI("/a.ts"), str(""))
	v.Add(furi.PathToURI("/b.ts"), str(""))
	v.Add(furi.PathToURI("/c.ts"), str(""))

	eng := refclosure.New(v, u, pm)
	eng.InvalidateReferencedFiles(nil)
	closure, err := eng.Closure(context.Background(), furi.PathToURI("/a.ts"))
	require.NoError(t, err)
	assert.Len(t, closure, 3)
}

// TestClosureStopsAtMaxDepth builds a chain of five files (a -> b -> c -> d
// -> e) and bounds the walk to depth 2, so only a, b, and c (the entry plus
// two hops) should ever be visited; d and e must be absent.
func TestClosureStopsAtMaxDepth(t *testing.T) {
	v := vfs.New(nil)
	u := updater.New(v, nil)
	host := &graphHost{imports: map[string][]string{
		"/a.ts": {"/b.ts"},
		"/b.ts": {"/c.ts"},
		"/c.ts": {"/d.ts"},
		"/d.ts": {"/e.ts"},
		"/e.ts": {},
	}}
	pm := project.New(v, u, furi.PathToURI("/"), func() analysishost.Host { return host })
	for _, f := range []string{"/a.ts", "/b.ts", "/c.ts", "/d.ts", "/e.ts"} {
		v.Add(furi.PathToURI(f), str(""))
	}

	eng := refclosure.NewWithMaxDepth(v, u, pm, 2)
	closure, err := eng.Closure(context.Background(), furi.PathToURI("/a.ts"))
	require.NoError(t, err)

	assert.Contains(t, closure, furi.PathToURI("/a.ts"))
	assert.Contains(t, closure, furi.PathToURI("/b.ts"))
	assert.Contains(t, closure, furi.PathToURI("/c.ts"))
	assert.NotContains(t, closure, furi.PathToURI("/d.ts"))
	assert.NotContains(t, closure, furi.PathToURI("/e.ts"))
}

func TestInvalidateReferencedFilesClearsCache(t *testing.T) {
	v := vfs.New(nil)
	u := updater.New(v, nil)
	host := &graphHost{imports: map[string][]string{"/a.ts": {"/b.ts"}, "/b.ts": {}}}
	pm := project.New(v, u, furi.PathToURI("/"), func() analysishost.Host { return host })
	v.Add(furi.PathToURI("/a.ts"), str(""))
	v.Add(furi.PathToURI("/b.ts"), str(""))

	eng := refclosure.New(v, u, pm)
	_, err := eng.Closure(context.Background(), furi.PathToURI("/a.ts"))
	require.NoError(t, err)

	entry := furi.PathToURI("/a.ts")
	eng.InvalidateReferencedFiles(&entry)

	host.imports["/a.ts"] = nil
	closure, err := eng.Closure(context.Background(), entry)
	require.NoError(t, err)
	assert.Len(t, closure, 1)
}

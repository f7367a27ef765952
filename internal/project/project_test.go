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
package project_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tsls.dev/server/internal/analysishost"
	"tsls.dev/server/internal/filesource"
	"tsls.dev/server/internal/furi"
	"tsls.dev/server/internal/project"
	"tsls.dev/server/internal/updater"
	"tsls.dev/server/internal/vfs"
)

type fakeHost struct{}

func (fakeHost) CreateProject(ctx context.Context, host analysishost.ScriptHost) error { return nil }
func (fakeHost) GetDefinitionAt(ctx context.Context, f string, p int) ([]analysishost.Location, error) {
	return nil, nil
}
func (fakeHost) GetReferencesAt(ctx context.Context, f string, p int) ([]analysishost.Location, error) {
	return nil, nil
}
func (fakeHost) GetQuickInfoAt(ctx context.Context, f string, p int) (*analysishost.QuickInfo, error) {
	return nil, nil
}
func (fakeHost) GetCompletionsAt(ctx context.Context, f string, p int) ([]analysishost.CompletionEntry, error) {
	return nil, nil
}
func (fakeHost) GetCompletionEntryDetails(ctx context.Context, f string, p int, name string) (*analysishost.CompletionDetails, error) {
	return nil, nil
}
func (fakeHost) GetSignatureHelp(ctx context.Context, f string, p int) (*analysishost.SignatureHelp, error) {
	return nil, nil
}
func (fakeHost) GetNavigateToItems(ctx context.Context, search string) ([]analysishost.NavigateToItem, error) {
	return nil, nil
}
func (fakeHost) GetNavigationTree(ctx context.Context, f string) (*analysishost.NavigationTree, error) {
	return nil, nil
}
func (fakeHost) GetDiagnostics(ctx context.Context, f string) ([]analysishost.Diagnostic, error) {
	return nil, nil
}
func (fakeHost) ResolveModuleName(ctx context.Context, from, spec string) (string, bool, error) {
	return "", false, nil
}
func (fakeHost) ResolveTypeReferenceDirective(ctx context.Context, from, directive string) (string, bool, error) {
	return "", false, nil
}
func (fakeHost) PreProcessFile(ctx context.Context, f, content string) (*analysishost.PreProcessedFile, error) {
	return &analysishost.PreProcessedFile{}, nil
}

func str(s string) *string { return &s }

func settle() { time.Sleep(20 * time.Millisecond) }

func newManager() (*vfs.VFS, *project.Manager) {
	v := vfs.New(nil)
	u := updater.New(v, nil)
	m := project.New(v, u, furi.PathToURI("/"), func() analysishost.Host { return fakeHost{} })
	return v, m
}

func TestGetConfigurationFallsBackToSynthetic(t *testing.T) {
	_, m := newManager()
	cfg, err := m.GetConfiguration(furi.PathToURI("/src/index.ts"), nil)
	require.NoError(t, err)
	assert.True(t, cfg.Synthetic)
	assert.Equal(t, project.KindTS, cfg.Kind)
}

func TestGetConfigurationClimbsToNearestConfig(t *testing.T) {
	v, m := newManager()
	stop := make(chan struct{})
	defer close(stop)
	go m.Run(stop)

	v.Add(furi.PathToURI("/packages/a/tsconfig.json"), str(`{"compilerOptions":{"strict":true}}`))
	settle()

	cfg, err := m.GetConfiguration(furi.PathToURI("/packages/a/src/index.ts"), nil)
	require.NoError(t, err)
	assert.False(t, cfg.Synthetic)
	assert.Equal(t, furi.PathToURI("/packages/a"), cfg.Dir)
}

func TestConfigDiscoveryIgnoresNodeModules(t *testing.T) {
	v, m := newManager()
	stop := make(chan struct{})
	defer close(stop)
	go m.Run(stop)

	v.Add(furi.PathToURI("/node_modules/x/tsconfig.json"), str(`{}`))
	settle()

	cfg, err := m.GetConfiguration(furi.PathToURI("/node_modules/x/index.ts"), nil)
	require.NoError(t, err)
	assert.True(t, cfg.Synthetic)
}

func TestDidOpenBumpsProjectVersion(t *testing.T) {
	_, m := newManager()
	uri := furi.PathToURI("/src/index.ts")
	cfg, err := m.GetConfiguration(uri, nil)
	require.NoError(t, err)
	before := cfg.GetProjectVersion()

	require.NoError(t, m.DidOpen(context.Background(), uri, "const x = 1;"))
	assert.NotEqual(t, before, cfg.GetProjectVersion())
}

func TestEnsureConfigFileInstantiatesHost(t *testing.T) {
	// EnsureModuleStructure lists files through the updater's source, so
	// this test needs a real (empty) one rather than newManager's nil.
	v := vfs.New(nil)
	u := updater.New(v, filesource.NewLocal(t.TempDir()))
	m := project.New(v, u, furi.PathToURI("/"), func() analysishost.Host { return fakeHost{} })
	stop := make(chan struct{})
	defer close(stop)
	go m.Run(stop)

	v.Add(furi.PathToURI("/tsconfig.json"), str(`{}`))
	settle()

	cfg, err := m.GetConfiguration(furi.PathToURI("/index.ts"), nil)
	require.NoError(t, err)
	require.NoError(t, m.EnsureModuleStructure(context.Background()))

	require.NoError(t, cfg.EnsureBasicFiles(context.Background()))
	assert.NotNil(t, cfg.Host())
	assert.Equal(t, project.BasicFilesReady, cfg.State())
}

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
package pkgmanager_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tsls.dev/server/internal/furi"
	"tsls.dev/server/internal/pkgmanager"
	"tsls.dev/server/internal/updater"
	"tsls.dev/server/internal/vfs"
)

func str(s string) *string { return &s }

func settle() { time.Sleep(20 * time.Millisecond) }

func TestPackageDiscoveryIgnoresNodeModules(t *testing.T) {
	v := vfs.New(nil)
	m := pkgmanager.New(v, updater.New(v, nil))
	stop := make(chan struct{})
	defer close(stop)
	go m.Run(stop)

	v.Add(furi.PathToURI("/node_modules/x/package.json"), str(`{"name":"x"}`))
	v.Add(furi.PathToURI("/package.json"), str(`{"name":"root"}`))
	settle()

	uris := m.AllPackageJsonUris()
	assert.Len(t, uris, 1)
	assert.Equal(t, furi.PathToURI("/package.json"), uris[0])
}

func TestRootPackageJsonTieBreak(t *testing.T) {
	v := vfs.New(nil)
	m := pkgmanager.New(v, updater.New(v, nil))
	stop := make(chan struct{})
	defer close(stop)
	go m.Run(stop)

	v.Add(furi.PathToURI("/b/package.json"), str(`{"name":"b"}`))
	v.Add(furi.PathToURI("/a/package.json"), str(`{"name":"a"}`))
	settle()

	root, ok := m.RootPackageJsonUri()
	require.True(t, ok)
	assert.Equal(t, furi.PathToURI("/a/package.json"), root)
}

func TestGetClosestPackageJsonUri(t *testing.T) {
	v := vfs.New(nil)
	m := pkgmanager.New(v, updater.New(v, nil))
	stop := make(chan struct{})
	defer close(stop)
	go m.Run(stop)

	v.Add(furi.PathToURI("/package.json"), str(`{"name":"root"}`))
	v.Add(furi.PathToURI("/packages/a/package.json"), str(`{"name":"a"}`))
	settle()

	closest, ok := m.GetClosestPackageJsonUri(furi.PathToURI("/packages/a/src/index.ts"))
	require.True(t, ok)
	assert.Equal(t, furi.PathToURI("/packages/a/package.json"), closest)
}

func TestDependenciesEnumeratesFourKeys(t *testing.T) {
	v := vfs.New(nil)
	m := pkgmanager.New(v, updater.New(v, nil))
	stop := make(chan struct{})
	defer close(stop)
	go m.Run(stop)

	v.Add(furi.PathToURI("/package.json"), str(`{
		"name":"root",
		"dependencies": {"a": "1.0.0"},
		"devDependencies": {"b": "2.0.0"},
		"peerDependencies": {"c": "3.0.0"},
		"optionalDependencies": {"d": "4.0.0"}
	}`))
	settle()

	deps := m.Dependencies()
	assert.Len(t, deps, 4)
	names := map[string]bool{}
	for _, d := range deps {
		assert.Equal(t, "root", d.DependeePackageName)
		names[d.DepName] = true
	}
	assert.True(t, names["a"] && names["b"] && names["c"] && names["d"])
}

func TestMalformedPackageJsonRecordedAsNilAndLogged(t *testing.T) {
	v := vfs.New(nil)
	m := pkgmanager.New(v, updater.New(v, nil))
	stop := make(chan struct{})
	defer close(stop)
	go m.Run(stop)

	v.Add(furi.PathToURI("/package.json"), str(`{not valid json`))
	settle()

	_, ok := m.GetPackageJson(context.Background(), furi.PathToURI("/package.json"))
	assert.False(t, ok)
}

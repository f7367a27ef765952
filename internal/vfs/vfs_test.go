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
package vfs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"tsls.dev/server/internal/furi"
	"tsls.dev/server/internal/vfs"
)

func str(s string) *string { return &s }

func TestAddThenHas(t *testing.T) {
	v := vfs.New(nil)
	u := furi.PathToURI("/a.ts")
	v.Add(u, str("const a = 1;"))
	assert.True(t, v.Has(u))
	content, ok := v.ReadIfAvailable(u)
	assert.True(t, ok)
	assert.Equal(t, "const a = 1;", content)
}

func TestAddWithoutContentIsKnownButUnavailable(t *testing.T) {
	v := vfs.New(nil)
	u := furi.PathToURI("/a.ts")
	v.Add(u, nil)
	assert.True(t, v.Has(u))
	_, ok := v.ReadIfAvailable(u)
	assert.False(t, ok)
	assert.Contains(t, v.UrisWithoutContent(), u)
}

func TestContentNeverOverwrittenByNil(t *testing.T) {
	v := vfs.New(nil)
	u := furi.PathToURI("/a.ts")
	v.Add(u, str("hello"))
	v.Add(u, nil)
	content, ok := v.ReadIfAvailable(u)
	assert.True(t, ok)
	assert.Equal(t, "hello", content)
}

func TestDirectoryEntries(t *testing.T) {
	v := vfs.New(nil)
	v.Add(furi.PathToURI("/src/a.ts"), str("a"))
	v.Add(furi.PathToURI("/src/b.ts"), str("b"))
	v.Add(furi.PathToURI("/src/sub/c.ts"), str("c"))

	files, dirs := v.GetDirectoryEntries(furi.PathToURI("/src"))
	assert.ElementsMatch(t, []string{"a.ts", "b.ts"}, files)
	assert.ElementsMatch(t, []string{"sub"}, dirs)

	files, dirs = v.GetDirectoryEntries(furi.PathToURI("/missing"))
	assert.Empty(t, files)
	assert.Empty(t, dirs)
}

func TestOverlayTakesPrecedenceAndCloseReverts(t *testing.T) {
	v := vfs.New(nil)
	u := furi.PathToURI("/a.ts")
	v.Add(u, str("let parameters = [];"))

	v.OpenOverlay(u, "let parameters: number[] = [];")
	content, _ := v.ReadIfAvailable(u)
	assert.Equal(t, "let parameters: number[] = [];", content)

	v.CloseOverlay(u)
	content, _ = v.ReadIfAvailable(u)
	assert.Equal(t, "let parameters = [];", content)
}

func TestSaveOverlayPromotesToVFS(t *testing.T) {
	v := vfs.New(nil)
	u := furi.PathToURI("/a.ts")
	v.Add(u, str("old"))
	v.OpenOverlay(u, "new")
	v.SaveOverlay(u)
	v.CloseOverlay(u)
	content, _ := v.ReadIfAvailable(u)
	assert.Equal(t, "new", content)
}

func TestLibraryBundleFallback(t *testing.T) {
	v := vfs.New(map[string]string{"/libs/lib.es5.d.ts": "declare var x: any;"})
	content, ok := v.ReadIfAvailable(furi.PathToURI("/libs/lib.es5.d.ts"))
	assert.True(t, ok)
	assert.Equal(t, "declare var x: any;", content)
}

func TestAddedEventDeliveredToSubscribers(t *testing.T) {
	v := vfs.New(nil)
	ch := v.Subscribe()
	u := furi.PathToURI("/package.json")
	v.Add(u, str(`{"name":"x"}`))

	select {
	case ev := <-ch:
		assert.Equal(t, u, ev.URI)
	default:
		t.Fatal("expected an AddedEvent")
	}
}

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
package filesource_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tsls.dev/server/internal/filesource"
	"tsls.dev/server/internal/furi"
)

func TestLocalListAndReadFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.ts"), []byte("const a = 1;"), 0o644))

	src := filesource.NewLocal(dir)
	ctx := context.Background()

	ch, err := src.ListFiles(ctx, nil)
	require.NoError(t, err)
	var found []furi.URI
	for r := range ch {
		require.NoError(t, r.Err)
		found = append(found, r.URI)
	}
	assert.Len(t, found, 1)

	readCh, err := src.ReadFile(ctx, found[0])
	require.NoError(t, err)
	res := <-readCh
	require.NoError(t, res.Err)
	assert.Equal(t, "const a = 1;", res.Content)
}

func TestLocalReadFileNotFound(t *testing.T) {
	src := filesource.NewLocal(t.TempDir())
	ch, err := src.ReadFile(context.Background(), furi.PathToURI("/missing.ts"))
	require.NoError(t, err)
	res := <-ch
	require.ErrorIs(t, res.Err, filesource.ErrNotFound)
}

type fakeCaller struct {
	result any
	err    error
}

func (f *fakeCaller) Call(ctx context.Context, method string, params, result any) error {
	if f.err != nil {
		return f.err
	}
	data, _ := json.Marshal(f.result)
	return json.Unmarshal(data, result)
}

func TestRemoteListFiles(t *testing.T) {
	caller := &fakeCaller{result: []map[string]string{{"uri": "file:///a.ts"}}}
	src := filesource.NewRemote(caller)
	ch, err := src.ListFiles(context.Background(), nil)
	require.NoError(t, err)
	var got []furi.URI
	for r := range ch {
		got = append(got, r.URI)
	}
	assert.Equal(t, []furi.URI{"file:///a.ts"}, got)
}

func TestRemoteReadFile(t *testing.T) {
	caller := &fakeCaller{result: map[string]string{"uri": "file:///a.ts", "text": "hello"}}
	src := filesource.NewRemote(caller)
	src.CacheDir = t.TempDir()
	ch, err := src.ReadFile(context.Background(), furi.URI("file:///a.ts"))
	require.NoError(t, err)
	res := <-ch
	require.NoError(t, res.Err)
	assert.Equal(t, "hello", res.Content)
}

func TestRemoteReadFileCachesToDisk(t *testing.T) {
	caller := &fakeCaller{result: map[string]string{"uri": "file:///a.ts", "text": "hello"}}
	src := filesource.NewRemote(caller)
	src.CacheDir = t.TempDir()
	ctx := context.Background()

	ch, err := src.ReadFile(ctx, furi.URI("file:///a.ts"))
	require.NoError(t, err)
	require.NoError(t, (<-ch).Err)

	entries, err := os.ReadDir(src.CacheDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// A second read must be served from disk, not from the caller, which
	// would now return an error if it were invoked again.
	caller.err = errors.New("should not be called again")
	ch, err = src.ReadFile(ctx, furi.URI("file:///a.ts"))
	require.NoError(t, err)
	res := <-ch
	require.NoError(t, res.Err)
	assert.Equal(t, "hello", res.Content)
}

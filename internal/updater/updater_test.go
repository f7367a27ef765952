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
package updater_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tsls.dev/server/internal/filesource"
	"tsls.dev/server/internal/furi"
	"tsls.dev/server/internal/updater"
	"tsls.dev/server/internal/vfs"
)

// countingSource counts ReadFile calls per URI and blocks until release is
// closed, so tests can assert that concurrent EnsureFile callers share one
// underlying fetch.
type countingSource struct {
	mu      sync.Mutex
	calls   map[furi.URI]int32
	release chan struct{}
}

func newCountingSource() *countingSource {
	return &countingSource{calls: make(map[furi.URI]int32), release: make(chan struct{})}
}

func (s *countingSource) ListFiles(ctx context.Context, base *furi.URI) (<-chan filesource.ListResult, error) {
	ch := make(chan filesource.ListResult)
	close(ch)
	return ch, nil
}

func (s *countingSource) ReadFile(ctx context.Context, uri furi.URI) (<-chan filesource.ReadResult, error) {
	s.mu.Lock()
	s.calls[uri]++
	s.mu.Unlock()
	ch := make(chan filesource.ReadResult, 1)
	go func() {
		<-s.release
		ch <- filesource.ReadResult{Content: "content"}
	}()
	return ch, nil
}

func (s *countingSource) countFor(uri furi.URI) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[uri]
}

func TestEnsureFileDedupsConcurrentCallers(t *testing.T) {
	v := vfs.New(nil)
	src := newCountingSource()
	u := updater.New(v, src)
	uri := furi.PathToURI("/a.ts")

	var wg sync.WaitGroup
	var successes int32
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := u.EnsureFile(context.Background(), uri); err == nil {
				atomic.AddInt32(&successes, 1)
			}
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(src.release)
	wg.Wait()

	assert.Equal(t, int32(10), successes)
	assert.Equal(t, int32(1), src.countFor(uri))
}

func TestEnsureFileSkipsSourceOnceContentPresent(t *testing.T) {
	v := vfs.New(nil)
	src := newCountingSource()
	close(src.release)
	u := updater.New(v, src)
	uri := furi.PathToURI("/a.ts")

	require.NoError(t, u.EnsureFile(context.Background(), uri))
	assert.Equal(t, int32(1), src.countFor(uri))

	// EnsureFile is a no-op once content is present.
	require.NoError(t, u.EnsureFile(context.Background(), uri))
	assert.Equal(t, int32(1), src.countFor(uri))
}

type erroringSource struct{ fails int32 }

func (s *erroringSource) ListFiles(ctx context.Context, base *furi.URI) (<-chan filesource.ListResult, error) {
	ch := make(chan filesource.ListResult)
	close(ch)
	return ch, nil
}

func (s *erroringSource) ReadFile(ctx context.Context, uri furi.URI) (<-chan filesource.ReadResult, error) {
	atomic.AddInt32(&s.fails, 1)
	ch := make(chan filesource.ReadResult, 1)
	ch <- filesource.ReadResult{Err: filesource.ErrNotFound}
	close(ch)
	return ch, nil
}

func TestEnsureFileAllowsRetryAfterError(t *testing.T) {
	v := vfs.New(nil)
	src := &erroringSource{}
	u := updater.New(v, src)
	uri := furi.PathToURI("/missing.ts")

	err := u.EnsureFile(context.Background(), uri)
	require.ErrorIs(t, err, filesource.ErrNotFound)

	err = u.EnsureFile(context.Background(), uri)
	require.ErrorIs(t, err, filesource.ErrNotFound)
	assert.Equal(t, int32(2), atomic.LoadInt32(&src.fails))
}

func TestEnsureStructureMergesListing(t *testing.T) {
	v := vfs.New(nil)
	src := newCountingSourceListing()
	u := updater.New(v, src)

	require.NoError(t, u.EnsureStructure(context.Background()))
	assert.True(t, v.Has(furi.PathToURI("/a.ts")))
	_, ok := v.ReadIfAvailable(furi.PathToURI("/a.ts"))
	assert.False(t, ok)
}

type listingSource struct{ calls int32 }

func newCountingSourceListing() *listingSource { return &listingSource{} }

func (s *listingSource) ListFiles(ctx context.Context, base *furi.URI) (<-chan filesource.ListResult, error) {
	atomic.AddInt32(&s.calls, 1)
	ch := make(chan filesource.ListResult, 1)
	ch <- filesource.ListResult{URI: furi.PathToURI("/a.ts")}
	close(ch)
	return ch, nil
}

func (s *listingSource) ReadFile(ctx context.Context, uri furi.URI) (<-chan filesource.ReadResult, error) {
	ch := make(chan filesource.ReadResult, 1)
	ch <- filesource.ReadResult{Content: ""}
	close(ch)
	return ch, nil
}

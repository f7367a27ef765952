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

// Package updater implements the VFS updater (spec.md §4.D): converts
// "reference to a URI" into "content present in VFS" at most once per URI
// per session, with bounded concurrency and single-flight deduplication of
// concurrent callers for the same URI.
package updater

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
	"tsls.dev/server/internal/filesource"
	"tsls.dev/server/internal/furi"
	"tsls.dev/server/internal/vfs"
)

// DefaultMaxInFlight is spec.md §4.D's default bound of 100 concurrent
// source reads.
const DefaultMaxInFlight = 100

// pendingEntry is one in-flight fetch, shared by every concurrent caller
// for the same URI (spec.md's PendingFetchMap).
type pendingEntry struct {
	done chan struct{}
	err  error
}

// Updater bridges filesource.Source and vfs.VFS with the concurrency and
// dedup contract spec.md §4.D requires. Grounded on generate/parallel.go's
// worker-pool idiom, generalized from "process N modules" to "fetch N
// URIs", and on workspace/httpcache.go's single-flight cache shape for
// PendingFetchMap.
type Updater struct {
	vfs    *vfs.VFS
	source filesource.Source
	sem    *semaphore.Weighted

	mu      sync.Mutex
	pending map[furi.URI]*pendingEntry

	structureMu   sync.Mutex
	structureDone *pendingEntry
}

// New creates an Updater with the default concurrency bound.
func New(v *vfs.VFS, source filesource.Source) *Updater {
	return NewWithMaxInFlight(v, source, DefaultMaxInFlight)
}

func NewWithMaxInFlight(v *vfs.VFS, source filesource.Source, maxInFlight int64) *Updater {
	return &Updater{
		vfs:     v,
		source:  source,
		sem:     semaphore.NewWeighted(maxInFlight),
		pending: make(map[furi.URI]*pendingEntry),
	}
}

// EnsureFile returns once VFS.ReadIfAvailable(uri) is guaranteed non-empty,
// or returns the fetch error. Multiple concurrent callers for the same URI
// share one underlying fetch. On error the pending entry is removed so
// retries are possible (spec.md §4.D).
func (u *Updater) EnsureFile(ctx context.Context, uri furi.URI) error {
	if _, ok := u.vfs.ReadIfAvailable(uri); ok {
		return nil
	}

	u.mu.Lock()
	entry, inFlight := u.pending[uri]
	if !inFlight {
		entry = &pendingEntry{done: make(chan struct{})}
		u.pending[uri] = entry
		u.mu.Unlock()
		go u.fetch(context.WithoutCancel(ctx), uri, entry)
	} else {
		u.mu.Unlock()
	}

	select {
	case <-entry.done:
		return entry.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (u *Updater) fetch(ctx context.Context, uri furi.URI, entry *pendingEntry) {
	defer close(entry.done)

	if err := u.sem.Acquire(ctx, 1); err != nil {
		entry.err = err
		u.dropPending(uri)
		return
	}
	defer u.sem.Release(1)

	ch, err := u.source.ReadFile(ctx, uri)
	if err != nil {
		entry.err = err
		u.dropPending(uri)
		return
	}
	res := <-ch
	if res.Err != nil {
		entry.err = res.Err
		u.dropPending(uri)
		return
	}
	content := res.Content
	u.vfs.Add(uri, &content)
}

func (u *Updater) dropPending(uri furi.URI) {
	u.mu.Lock()
	delete(u.pending, uri)
	u.mu.Unlock()
}

// Invalidate drops the pending fetch entry for uri. It does not remove
// content from the VFS: while content for uri is available, the next
// EnsureFile still returns without calling the source.
func (u *Updater) Invalidate(uri furi.URI) {
	u.dropPending(uri)
}

// EnsureStructure merges the top-level file listing for the workspace root
// into the VFS as content-less FileNodes (spec.md §4.D).
func (u *Updater) EnsureStructure(ctx context.Context) error {
	u.structureMu.Lock()
	entry := u.structureDone
	started := entry != nil
	if !started {
		entry = &pendingEntry{done: make(chan struct{})}
		u.structureDone = entry
	}
	u.structureMu.Unlock()

	if !started {
		go func() {
			defer close(entry.done)
			if err := u.sem.Acquire(ctx, 1); err != nil {
				entry.err = err
				return
			}
			defer u.sem.Release(1)
			ch, err := u.source.ListFiles(ctx, nil)
			if err != nil {
				entry.err = err
				return
			}
			for r := range ch {
				if r.Err != nil {
					continue // per-entry errors are skipped, not fatal
				}
				u.vfs.Add(r.URI, nil)
			}
		}()
	}

	select {
	case <-entry.done:
		if entry.err != nil {
			u.InvalidateStructure()
		}
		return entry.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InvalidateStructure drops the cached structure future so the next
// EnsureStructure call refetches.
func (u *Updater) InvalidateStructure() {
	u.structureMu.Lock()
	u.structureDone = nil
	u.structureMu.Unlock()
}

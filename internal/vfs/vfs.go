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

// Package vfs implements the in-memory virtual file system (spec.md §4.B):
// a directory tree mirroring either a remote editor-owned tree or a local
// one, an editor overlay that takes precedence over stored content, and the
// process-lifetime LibraryBundle of analyzer standard-library files.
package vfs

import (
	"path"
	"sort"
	"strings"
	"sync"

	"tsls.dev/server/internal/furi"
)

// node is the VFS tree's sum type: a FileNode has content == nil meaning
// "known to exist, not yet fetched" (spec.md §3), or children != nil for a
// DirectoryNode.
type node struct {
	content  *string
	children map[string]*node
	order    []string // insertion order of children, for stable enumeration
}

func newDirNode() *node {
	return &node{children: make(map[string]*node)}
}

func (n *node) isDir() bool { return n.children != nil }

// AddedEvent is delivered to subscribers whenever a FileNode is created or
// its content first becomes available (spec.md §4.B "Emits added(uri,
// content?) event"). Subscribers (pkgmanager, project) receive events over a
// bounded channel per the "explicit callback list or bounded channel"
// guidance in spec.md §9 Design Notes.
type AddedEvent struct {
	URI     furi.URI
	Content *string
}

// VFS is the single-owner, in-memory file tree for one workspace. All
// mutation happens on the event-loop goroutine (spec.md §5: "VFS state is
// single-owner... mutations from the event loop are naturally serialised"),
// but reads are safe from any goroutine via the mutex.
type VFS struct {
	mu      sync.RWMutex
	root    *node
	overlay map[furi.URI]string
	library map[string]string // native path -> content, process-lifetime

	subsMu sync.Mutex
	subs   []chan AddedEvent
}

// New creates an empty VFS backed by the given library bundle (may be nil).
func New(library map[string]string) *VFS {
	if library == nil {
		library = map[string]string{}
	}
	return &VFS{
		root:    newDirNode(),
		overlay: make(map[furi.URI]string),
		library: library,
	}
}

// Subscribe registers a channel that receives AddedEvent for every file
// added from now on. The channel is buffered (capacity 64) so a slow
// subscriber cannot stall VFS mutation; if the buffer fills, the oldest
// unread event is dropped in favor of the new one's ordering guarantee for
// *that* URI being re-delivered on next add (package.json/config discovery
// only cares about eventual delivery, not at-most-once).
func (v *VFS) Subscribe() <-chan AddedEvent {
	ch := make(chan AddedEvent, 64)
	v.subsMu.Lock()
	v.subs = append(v.subs, ch)
	v.subsMu.Unlock()
	return ch
}

func (v *VFS) publish(ev AddedEvent) {
	v.subsMu.Lock()
	defer v.subsMu.Unlock()
	for _, ch := range v.subs {
		select {
		case ch <- ev:
		default:
			// drop-oldest: make room then retry once.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
			}
		}
	}
}

func segments(u furi.URI) []string {
	p, err := furi.URIToPath(u)
	if err != nil {
		p = string(u)
	}
	p = strings.Trim(path.Clean(p), "/")
	if p == "" || p == "." {
		return nil
	}
	return strings.Split(p, "/")
}

// Add inserts a FileNode and all parent directories. Existing non-nil
// content is never overwritten by nil (spec.md §4.B invariant). Emits
// AddedEvent when the node is newly created or newly gains content.
func (v *VFS) Add(u furi.URI, content *string) {
	v.mu.Lock()
	segs := segments(u)
	dir := v.root
	for _, s := range segs[:max(0, len(segs)-1)] {
		child, ok := dir.children[s]
		if !ok {
			child = newDirNode()
			dir.children[s] = child
			dir.order = append(dir.order, s)
		}
		dir = child
	}
	if len(segs) == 0 {
		v.mu.Unlock()
		return
	}
	name := segs[len(segs)-1]
	existing, ok := dir.children[name]
	var changed bool
	if !ok {
		existing = &node{}
		dir.children[name] = existing
		dir.order = append(dir.order, name)
		changed = true
	}
	if content != nil && existing.content == nil {
		existing.content = content
		changed = true
	}
	v.mu.Unlock()

	if changed {
		v.publish(AddedEvent{URI: u, Content: content})
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Has reports whether a FileNode exists for uri, regardless of content.
func (v *VFS) Has(u furi.URI) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	n := v.lookup(u)
	return n != nil && !n.isDir()
}

func (v *VFS) lookup(u furi.URI) *node {
	segs := segments(u)
	cur := v.root
	for _, s := range segs {
		next, ok := cur.children[s]
		if !ok {
			return nil
		}
		cur = next
	}
	return cur
}

// ReadIfAvailable returns content for uri, preferring overlay, then VFS
// content, then LibraryBundle, per spec.md §4.B.
func (v *VFS) ReadIfAvailable(u furi.URI) (string, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if s, ok := v.overlay[u]; ok {
		return s, true
	}
	if n := v.lookup(u); n != nil && n.content != nil {
		return *n.content, true
	}
	if p, err := furi.URIToPath(u); err == nil {
		if s, ok := v.library[p]; ok {
			return s, true
		}
	}
	return "", false
}

// GetDirectoryEntries returns the direct child file and directory names of
// directoryPath. Directories not present yield empty lists.
func (v *VFS) GetDirectoryEntries(directoryURI furi.URI) (files, dirs []string) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	n := v.lookup(directoryURI)
	if n == nil || !n.isDir() {
		return nil, nil
	}
	for _, name := range n.order {
		child := n.children[name]
		if child.isDir() {
			dirs = append(dirs, name)
		} else {
			files = append(files, name)
		}
	}
	return files, dirs
}

// Uris enumerates every FileNode URI currently in the tree.
func (v *VFS) Uris() []furi.URI {
	v.mu.RLock()
	defer v.mu.RUnlock()
	var out []furi.URI
	var walk func(n *node, prefix []string)
	walk = func(n *node, prefix []string) {
		for _, name := range n.order {
			child := n.children[name]
			segs := append(append([]string{}, prefix...), name)
			if child.isDir() {
				walk(child, segs)
			} else {
				out = append(out, furi.PathToURI("/"+strings.Join(segs, "/")))
			}
		}
	}
	walk(v.root, nil)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// UrisWithoutContent enumerates FileNodes whose content is still nil and
// which have no overlay or library fallback either (spec.md §8: "∀ uri in
// urisWithoutContent(), readIfAvailable(uri) = None").
func (v *VFS) UrisWithoutContent() []furi.URI {
	all := v.Uris()
	out := make([]furi.URI, 0, len(all))
	for _, u := range all {
		if _, ok := v.ReadIfAvailable(u); !ok {
			out = append(out, u)
		}
	}
	return out
}

// --- Overlay ---

// OpenOverlay records editor-owned content for uri (didOpen/didChange).
func (v *VFS) OpenOverlay(u furi.URI, content string) {
	v.mu.Lock()
	v.overlay[u] = content
	v.mu.Unlock()
}

// CloseOverlay removes the editor overlay for uri (didClose). The view
// reverts to VFS content, if any (spec.md §8).
func (v *VFS) CloseOverlay(u furi.URI) {
	v.mu.Lock()
	delete(v.overlay, u)
	v.mu.Unlock()
}

// SaveOverlay promotes the current overlay content into the VFS proper
// (didSave), so it survives a subsequent CloseOverlay.
func (v *VFS) SaveOverlay(u furi.URI) {
	v.mu.Lock()
	defer v.mu.Unlock()
	content, ok := v.overlay[u]
	if !ok {
		return
	}
	segs := segments(u)
	if len(segs) == 0 {
		return
	}
	dir := v.root
	for _, s := range segs[:len(segs)-1] {
		child, ok := dir.children[s]
		if !ok {
			child = newDirNode()
			dir.children[s] = child
			dir.order = append(dir.order, s)
		}
		dir = child
	}
	name := segs[len(segs)-1]
	n, ok := dir.children[name]
	if !ok {
		n = &node{}
		dir.children[name] = n
		dir.order = append(dir.order, name)
	}
	n.content = &content
}

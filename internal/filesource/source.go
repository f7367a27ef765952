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

// Package filesource implements the async file source (spec.md §4.C): a
// Local variant that walks the on-disk filesystem, and a Remote variant
// that issues workspace/xfiles and textDocument/xcontent RPCs to the
// editor. Both sides of the contract are lazy streams delivered over
// channels, the teacher's own idiom for "pull work items without blocking
// the caller" (generate/parallel.go's worker pool).
package filesource

import (
	"context"
	"errors"

	"tsls.dev/server/internal/furi"
)

// Error kinds surfaced by a Source, per spec.md §4.C.
var (
	ErrNotFound  = errors.New("not found")
	ErrIoFailed  = errors.New("io failed")
	ErrCancelled = errors.New("cancelled")
)

// ListResult is one element of a listFiles stream.
type ListResult struct {
	URI furi.URI
	Err error
}

// ReadResult is the single element a readFile stream yields, or an error.
type ReadResult struct {
	Content string
	Err     error
}

// Source is the common contract behind the Local and Remote variants.
type Source interface {
	// ListFiles enumerates files under base (or the whole workspace root if
	// base is nil). The returned channel is closed after the last result.
	ListFiles(ctx context.Context, base *furi.URI) (<-chan ListResult, error)
	// ReadFile yields exactly one ReadResult (content or error) then closes
	// the channel.
	ReadFile(ctx context.Context, uri furi.URI) (<-chan ReadResult, error)
}

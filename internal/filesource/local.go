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

package filesource

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"tsls.dev/server/internal/furi"
)

var _ Source = (*Local)(nil)

// Local walks the on-disk filesystem rooted at Root. Grounded on
// workspace/local.go's disk-backed WorkspaceContext.
type Local struct {
	Root string
}

func NewLocal(root string) *Local {
	return &Local{Root: root}
}

func (l *Local) ListFiles(ctx context.Context, base *furi.URI) (<-chan ListResult, error) {
	start := l.Root
	if base != nil {
		p, err := furi.URIToPath(*base)
		if err != nil {
			return nil, err
		}
		start = p
	}
	ch := make(chan ListResult)
	go func() {
		defer close(ch)
		_ = filepath.Walk(start, func(path string, info os.FileInfo, err error) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if err != nil {
				select {
				case ch <- ListResult{Err: wrapIoErr(err)}:
				case <-ctx.Done():
				}
				return nil
			}
			if info.IsDir() {
				return nil
			}
			select {
			case ch <- ListResult{URI: furi.PathToURI(path)}:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		})
	}()
	return ch, nil
}

func (l *Local) ReadFile(ctx context.Context, uri furi.URI) (<-chan ReadResult, error) {
	ch := make(chan ReadResult, 1)
	go func() {
		defer close(ch)
		p, err := furi.URIToPath(uri)
		if err != nil {
			ch <- ReadResult{Err: err}
			return
		}
		select {
		case <-ctx.Done():
			ch <- ReadResult{Err: ErrCancelled}
			return
		default:
		}
		data, err := os.ReadFile(p)
		if errors.Is(err, os.ErrNotExist) {
			ch <- ReadResult{Err: ErrNotFound}
			return
		}
		if err != nil {
			ch <- ReadResult{Err: wrapIoErr(err)}
			return
		}
		ch <- ReadResult{Content: string(data)}
	}()
	return ch, nil
}

func wrapIoErr(err error) error {
	if err == nil {
		return nil
	}
	return errors.Join(ErrIoFailed, err)
}

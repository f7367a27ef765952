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

package project

import (
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pterm/pterm"
)

// WatchLocalFilesystem recursively watches root for filesystem changes that
// happen outside any editor RPC (spec.md §4.F: local-mode structure changes
// must eventually be observed even without a didChange/didSave). Only
// meaningful when content genuinely comes from disk (filesource.Local); a
// workspace without --strict, backed by filesource.Remote, never calls this. Returns
// a stop function that tears down the watcher.
func (m *Manager) WatchLocalFilesystem(root string) (stop func() error, err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.IsDir() {
			_ = watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		watcher.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					_ = watcher.Add(event.Name)
				}
				pterm.Debug.Printfln("project: out-of-band filesystem change at %s, invalidating module structure", event.Name)
				m.InvalidateModuleStructure()
			case watchErr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				pterm.Warning.Printfln("project: filesystem watch error: %v", watchErr)
			}
		}
	}()

	return watcher.Close, nil
}

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

// Package libfiles embeds the analyzer standard-library declaration files
// that seed vfs.VFS's LibraryBundle (spec.md §3) at process start, the way
// an embedded static-asset bundle is the only idiomatic way to ship
// process-lifetime data with the binary. The bundled files are a minimal
// representative subset of the real TypeScript "lib" directory (enough to
// exercise GetDefaultLibFileName/GetScriptSnapshot and the
// git://github.com/Microsoft/TypeScript lib-URI special case end to end),
// not the full compiler distribution — the real files ship with whatever
// AnalysisHost process is configured via --analyzer-cmd.
package libfiles

import "embed"

//go:embed data/*.d.ts
var data embed.FS

// Load reads every embedded lib file into the map[string]string vfs.New
// expects, keyed by native path ("/lib.es5.d.ts"): vfs.VFS looks library
// files up by a URI's native path, and the analyzer's default lib name
// "lib.d.ts" resolves to "/lib.d.ts". furi.IsLibraryFile and the handler
// layer's stdlib-URI special case look only at the basename.
func Load() map[string]string {
	entries, err := data.ReadDir("data")
	if err != nil {
		panic("libfiles: embedded data directory missing: " + err.Error())
	}
	out := make(map[string]string, len(entries))
	for _, entry := range entries {
		content, err := data.ReadFile("data/" + entry.Name())
		if err != nil {
			panic("libfiles: reading embedded " + entry.Name() + ": " + err.Error())
		}
		out["/"+entry.Name()] = string(content)
	}
	return out
}

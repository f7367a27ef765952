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

package furi

import (
	"path/filepath"
	"strings"
)

// Kind classifies a file by suffix/basename, per spec.md §4.A.
type Kind int

const (
	Other Kind = iota
	TsSource
	JsSource
	Declaration
	TsConfig
	JsConfig
	PackageJson
	GlobalDeclaration
)

func (k Kind) String() string {
	switch k {
	case TsSource:
		return "TsSource"
	case JsSource:
		return "JsSource"
	case Declaration:
		return "Declaration"
	case TsConfig:
		return "TsConfig"
	case JsConfig:
		return "JsConfig"
	case PackageJson:
		return "PackageJson"
	case GlobalDeclaration:
		return "GlobalDeclaration"
	default:
		return "Other"
	}
}

// Classify returns the Kind of the given native or URI path by suffix and
// basename. Declaration files that are also global (contain no import or
// export — spec.md leaves the precise heuristic to the analyzer, so this
// classification is advisory only and is refined by the analyzer's own
// parse) are still reported as Declaration; GlobalDeclaration is reserved
// for ".d.ts" files living outside any node_modules tree, the only signal
// available without reading file content.
func Classify(p string) Kind {
	base := filepath.Base(p)
	lower := strings.ToLower(base)

	switch {
	case lower == "package.json":
		return PackageJson
	case lower == "tsconfig.json" || strings.HasPrefix(lower, "tsconfig.") && strings.HasSuffix(lower, ".json"):
		return TsConfig
	case lower == "jsconfig.json":
		return JsConfig
	case strings.HasSuffix(lower, ".d.ts") || strings.HasSuffix(lower, ".d.mts") || strings.HasSuffix(lower, ".d.cts"):
		if !strings.Contains(p, "/node_modules/") {
			return GlobalDeclaration
		}
		return Declaration
	case strings.HasSuffix(lower, ".ts") || strings.HasSuffix(lower, ".tsx") || strings.HasSuffix(lower, ".mts") || strings.HasSuffix(lower, ".cts"):
		return TsSource
	case strings.HasSuffix(lower, ".js") || strings.HasSuffix(lower, ".jsx") || strings.HasSuffix(lower, ".mjs") || strings.HasSuffix(lower, ".cjs"):
		return JsSource
	default:
		return Other
	}
}

// libraryFilePrefixes are the basename prefixes of the lib.*.d.ts files
// bundled with the analyzer's standard library (spec.md §3 LibraryBundle,
// §4.A isLibraryFile), enough for host-independent classification; the authoritative list is the
// LibraryBundle's own key set (vfs.VFS, seeded from internal/project/libfiles),
// this is a fast pre-check usable without consulting that bundle.
var libraryFilePrefixes = []string{"lib.", "lib/"}

// IsLibraryFile reports whether path looks like one of the analyzer's
// bundled standard-library declaration files, by basename prefix. Callers
// needing an authoritative answer should consult the LibraryBundle itself;
// this is the cheap syntactic check spec.md §4.A describes.
func IsLibraryFile(p string) bool {
	base := filepath.Base(p)
	if !strings.HasSuffix(base, ".d.ts") {
		return false
	}
	for _, prefix := range libraryFilePrefixes {
		if strings.HasPrefix(base, prefix) {
			return true
		}
	}
	return false
}

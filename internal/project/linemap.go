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

import "unicode/utf16"

// LineMap converts between analyzer text-span offsets (UTF-16 code units
// from the start of the document, per analysishost.TextSpan) and LSP
// line/character positions (also UTF-16 code units, but per-line). Grounded
// on the teacher's incremental UTF-16 handling (lsp/incremental_utf16_test.go),
// generalized from tree-sitter byte offsets to analyzer UTF-16 offsets.
type LineMap struct {
	// lineStarts[i] is the UTF-16 offset of the first code unit of line i.
	lineStarts []int
}

// NewLineMap builds a LineMap for the given document text.
func NewLineMap(text string) *LineMap {
	units := utf16.Encode([]rune(text))
	starts := []int{0}
	for i, u := range units {
		if u == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineMap{lineStarts: starts}
}

// Position is an LSP line/character pair (both zero-based, UTF-16 units).
type Position struct {
	Line      int
	Character int
}

// OffsetToPosition converts a UTF-16 offset into an LSP line/character.
func (m *LineMap) OffsetToPosition(offset int) Position {
	lo, hi := 0, len(m.lineStarts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if m.lineStarts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return Position{Line: lo, Character: offset - m.lineStarts[lo]}
}

// PositionToOffset converts an LSP line/character into a UTF-16 offset.
func (m *LineMap) PositionToOffset(pos Position) int {
	if pos.Line < 0 {
		return 0
	}
	if pos.Line >= len(m.lineStarts) {
		return m.lineStarts[len(m.lineStarts)-1] + pos.Character
	}
	return m.lineStarts[pos.Line] + pos.Character
}

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

import "tsls.dev/server/internal/furi"

// scriptHost is the AnalyzerHost facade (spec.md §4.F) a ProjectConfig
// exposes to its analysishost.Host.
type scriptHost struct {
	cfg *ProjectConfig
}

func (s *scriptHost) GetScriptFileNames() []string {
	s.cfg.mu.Lock()
	defer s.cfg.mu.Unlock()
	return append([]string(nil), s.cfg.expectedFiles...)
}

func (s *scriptHost) GetScriptVersion(path string) string {
	v, ok := s.cfg.mgr.getVersion(furi.PathToURI(path))
	if !ok {
		return "1"
	}
	return v
}

func (s *scriptHost) GetScriptSnapshot(path string) (string, bool) {
	return s.cfg.mgr.vfs.ReadIfAvailable(furi.PathToURI(path))
}

func (s *scriptHost) GetCompilationSettings() map[string]any {
	s.cfg.mu.Lock()
	defer s.cfg.mu.Unlock()
	return s.cfg.compilerOptions
}

func (s *scriptHost) GetCurrentDirectory() string {
	p, _ := furi.URIToPath(s.cfg.Dir)
	return p
}

func (s *scriptHost) GetDefaultLibFileName() string {
	return "lib.d.ts"
}

func (s *scriptHost) GetNewLine() string {
	return "\n"
}

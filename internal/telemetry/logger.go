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

// Package telemetry provides the server's logging and tracing, grounded on
// internal/logging/logger.go. The stdio transport (spec.md §4.H) writes LSP
// frames to stdout, so CRITICAL: every pterm printer here is redirected to
// stderr to prevent stdout contamination, exactly as the teacher's
// cmd/lsp.go does for the same reason.
package telemetry

import (
	"os"
	"sync"

	"github.com/pterm/pterm"
)

var once sync.Once

// Init redirects pterm output to stderr and applies the debug-enabled flag.
// Must be called once before any transport begins reading stdin.
func Init(debug bool) {
	once.Do(func() {
		pterm.SetDefaultOutput(os.Stderr)
	})
	SetDebugEnabled(debug)
}

var (
	mu           sync.RWMutex
	debugEnabled bool
)

// SetDebugEnabled toggles Debug-level log output.
func SetDebugEnabled(enabled bool) {
	mu.Lock()
	debugEnabled = enabled
	mu.Unlock()
}

func isDebugEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return debugEnabled
}

func Debugf(format string, args ...any) {
	if isDebugEnabled() {
		pterm.Debug.Printfln(format, args...)
	}
}

func Infof(format string, args ...any) {
	pterm.Info.Printfln(format, args...)
}

func Warnf(format string, args ...any) {
	pterm.Warning.Printfln(format, args...)
}

func Errorf(format string, args ...any) {
	pterm.Error.Printfln(format, args...)
}

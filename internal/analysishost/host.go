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

// Package analysishost declares the AnalysisHost contract (spec.md §6): the
// external semantic service this repo treats as an opaque collaborator. No
// implementation of the TypeScript parser/checker lives in this module —
// per spec.md §1 that is deliberately out of scope. This package is the
// interface boundary plus SubprocessHost, its one implementation; tests in
// other packages define their own fakes of Host. Grounded the same way types/workspace.go abstracts the teacher's
// external package-resolution concern behind an interface.
package analysishost

import "context"

// TextSpan identifies a half-open [Start, Start+Length) range of UTF-16
// code units within a file, the analyzer's native position unit (spec.md
// §6: "all return data keyed by text-span offsets").
type TextSpan struct {
	Start  int
	Length int
}

// Location pairs a file path with a text span.
type Location struct {
	FilePath string
	Span     TextSpan
}

// QuickInfo is the result of getQuickInfoAt (hover).
type QuickInfo struct {
	Span        TextSpan
	DisplayText string
	Documentation string
}

// CompletionEntry is one item from getCompletionsAt.
type CompletionEntry struct {
	Name string
	Kind string
}

// CompletionDetails is the result of getCompletionEntryDetails.
type CompletionDetails struct {
	Name          string
	Kind          string
	Documentation string
}

// SignatureHelp is the result of getSignatureHelp.
type SignatureHelp struct {
	Signatures      []string
	ActiveSignature int
	ActiveParameter int
}

// NavigateToItem is one result from getNavigateToItems (workspace/symbol by
// string).
type NavigateToItem struct {
	Name          string
	Kind          string
	ContainerName string
	Location      Location
}

// NavigationTree is the result of getNavigationTree (documentSymbol).
type NavigationTree struct {
	Text     string
	Kind     string
	Span     TextSpan
	Children []NavigationTree
}

// PreProcessedFile is the result of preProcessFile, the raw edge list the
// reference-closure engine (internal/refclosure) resolves.
type PreProcessedFile struct {
	ImportedFiles           []string
	ReferencedFiles         []string
	TypeReferenceDirectives []string
}

// Diagnostic is one compiler/semantic diagnostic for a file.
type Diagnostic struct {
	Span     TextSpan
	Message  string
	Severity string // "error" | "warning" | "suggestion"
}

// Host is the synchronous facade a ProjectConfig's AnalyzerHost (spec.md
// §4.F) issues queries against. Implementations are not required to be
// thread-safe across concurrent Host values, but a single Host value is
// only ever called from the single-threaded event loop (spec.md §5).
type Host interface {
	CreateProject(ctx context.Context, host ScriptHost) error

	GetDefinitionAt(ctx context.Context, filePath string, position int) ([]Location, error)
	GetReferencesAt(ctx context.Context, filePath string, position int) ([]Location, error)
	GetQuickInfoAt(ctx context.Context, filePath string, position int) (*QuickInfo, error)
	GetCompletionsAt(ctx context.Context, filePath string, position int) ([]CompletionEntry, error)
	GetCompletionEntryDetails(ctx context.Context, filePath string, position int, entryName string) (*CompletionDetails, error)
	GetSignatureHelp(ctx context.Context, filePath string, position int) (*SignatureHelp, error)
	GetNavigateToItems(ctx context.Context, search string) ([]NavigateToItem, error)
	GetNavigationTree(ctx context.Context, filePath string) (*NavigationTree, error)
	GetDiagnostics(ctx context.Context, filePath string) ([]Diagnostic, error)

	ResolveModuleName(ctx context.Context, fromFile, moduleSpecifier string) (resolvedPath string, ok bool, err error)
	ResolveTypeReferenceDirective(ctx context.Context, fromFile, directive string) (resolvedPath string, ok bool, err error)
	PreProcessFile(ctx context.Context, filePath string, content string) (*PreProcessedFile, error)
}

// ScriptHost is the facade spec.md §4.F calls "AnalyzerHost": what a
// ProjectConfig exposes to the analyzer (Host.CreateProject). It is the
// inverse direction of the Host interface: the analyzer calls back into the
// orchestration core to read files and settings.
type ScriptHost interface {
	GetScriptFileNames() []string
	GetScriptVersion(path string) string
	GetScriptSnapshot(path string) (string, bool)
	GetCompilationSettings() map[string]any
	GetCurrentDirectory() string
	GetDefaultLibFileName() string
	GetNewLine() string
}

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

// Subprocess is the one concrete Host this module ships: it forwards every
// AnalysisHost method as a JSON-RPC call to an external process speaking
// the analyzer's own query language, keeping the actual TypeScript
// parser/checker entirely outside this module (spec.md §1). Framing reuses
// github.com/sourcegraph/jsonrpc2, the same library internal/dispatcher
// speaks to editors with, since the wire shape is identical.
package analysishost

import (
	"context"
	"fmt"
	"io"
	"os/exec"

	"github.com/sourcegraph/jsonrpc2"
)

// processStream adapts a child process's stdout/stdin pipes to
// io.ReadWriteCloser; closing it closes the stdin pipe, which is how the
// subprocess is expected to notice EOF and exit.
type processStream struct {
	io.ReadCloser
	io.WriteCloser
}

func (s processStream) Close() error {
	werr := s.WriteCloser.Close()
	rerr := s.ReadCloser.Close()
	if werr != nil {
		return werr
	}
	return rerr
}

// SubprocessHost is an analysishost.Host backed by a long-lived child
// process, one per ProjectConfig (spec.md §5: "ProjectConfig's analyzer
// handle is never shared between configs").
type SubprocessHost struct {
	cmd  *exec.Cmd
	conn *jsonrpc2.Conn
}

var _ Host = (*SubprocessHost)(nil)

// NewSubprocessHostFactory returns a HostFactory-shaped constructor (the
// type itself lives in internal/project to avoid a back-import) that
// spawns command with args fresh for each call.
func NewSubprocessHostFactory(command string, args ...string) func() Host {
	return func() Host {
		return &SubprocessHost{cmd: exec.Command(command, args...)}
	}
}

func (h *SubprocessHost) start(ctx context.Context) error {
	if h.conn != nil {
		return nil
	}
	stdin, err := h.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("analysishost: stdin pipe: %w", err)
	}
	stdout, err := h.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("analysishost: stdout pipe: %w", err)
	}
	if err := h.cmd.Start(); err != nil {
		return fmt.Errorf("analysishost: starting %s: %w", h.cmd.Path, err)
	}
	rwc := processStream{ReadCloser: stdout, WriteCloser: stdin}
	stream := jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{})
	h.conn = jsonrpc2.NewConn(ctx, stream, nil)
	return nil
}

func (h *SubprocessHost) call(ctx context.Context, method string, params, result any) error {
	if err := h.start(ctx); err != nil {
		return err
	}
	return h.conn.Call(ctx, method, params, result)
}

func (h *SubprocessHost) CreateProject(ctx context.Context, host ScriptHost) error {
	return h.call(ctx, "createProject", map[string]any{
		"scriptFileNames":    host.GetScriptFileNames(),
		"compilationSettings": host.GetCompilationSettings(),
		"currentDirectory":   host.GetCurrentDirectory(),
		"defaultLibFileName": host.GetDefaultLibFileName(),
	}, nil)
}

func (h *SubprocessHost) GetDefinitionAt(ctx context.Context, filePath string, position int) ([]Location, error) {
	var out []Location
	err := h.call(ctx, "getDefinitionAt", map[string]any{"filePath": filePath, "position": position}, &out)
	return out, err
}

func (h *SubprocessHost) GetReferencesAt(ctx context.Context, filePath string, position int) ([]Location, error) {
	var out []Location
	err := h.call(ctx, "getReferencesAt", map[string]any{"filePath": filePath, "position": position}, &out)
	return out, err
}

func (h *SubprocessHost) GetQuickInfoAt(ctx context.Context, filePath string, position int) (*QuickInfo, error) {
	var out QuickInfo
	if err := h.call(ctx, "getQuickInfoAt", map[string]any{"filePath": filePath, "position": position}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (h *SubprocessHost) GetCompletionsAt(ctx context.Context, filePath string, position int) ([]CompletionEntry, error) {
	var out []CompletionEntry
	err := h.call(ctx, "getCompletionsAt", map[string]any{"filePath": filePath, "position": position}, &out)
	return out, err
}

func (h *SubprocessHost) GetCompletionEntryDetails(ctx context.Context, filePath string, position int, entryName string) (*CompletionDetails, error) {
	var out CompletionDetails
	if err := h.call(ctx, "getCompletionEntryDetails", map[string]any{"filePath": filePath, "position": position, "entryName": entryName}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (h *SubprocessHost) GetSignatureHelp(ctx context.Context, filePath string, position int) (*SignatureHelp, error) {
	var out SignatureHelp
	if err := h.call(ctx, "getSignatureHelp", map[string]any{"filePath": filePath, "position": position}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (h *SubprocessHost) GetNavigateToItems(ctx context.Context, search string) ([]NavigateToItem, error) {
	var out []NavigateToItem
	err := h.call(ctx, "getNavigateToItems", map[string]any{"search": search}, &out)
	return out, err
}

func (h *SubprocessHost) GetNavigationTree(ctx context.Context, filePath string) (*NavigationTree, error) {
	var out NavigationTree
	if err := h.call(ctx, "getNavigationTree", map[string]any{"filePath": filePath}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (h *SubprocessHost) GetDiagnostics(ctx context.Context, filePath string) ([]Diagnostic, error) {
	var out []Diagnostic
	err := h.call(ctx, "getDiagnostics", map[string]any{"filePath": filePath}, &out)
	return out, err
}

func (h *SubprocessHost) ResolveModuleName(ctx context.Context, fromFile, moduleSpecifier string) (string, bool, error) {
	var out struct {
		ResolvedPath string `json:"resolvedPath"`
		Ok           bool   `json:"ok"`
	}
	err := h.call(ctx, "resolveModuleName", map[string]any{"fromFile": fromFile, "moduleSpecifier": moduleSpecifier}, &out)
	return out.ResolvedPath, out.Ok, err
}

func (h *SubprocessHost) ResolveTypeReferenceDirective(ctx context.Context, fromFile, directive string) (string, bool, error) {
	var out struct {
		ResolvedPath string `json:"resolvedPath"`
		Ok           bool   `json:"ok"`
	}
	err := h.call(ctx, "resolveTypeReferenceDirective", map[string]any{"fromFile": fromFile, "directive": directive}, &out)
	return out.ResolvedPath, out.Ok, err
}

func (h *SubprocessHost) PreProcessFile(ctx context.Context, filePath string, content string) (*PreProcessedFile, error) {
	var out PreProcessedFile
	if err := h.call(ctx, "preProcessFile", map[string]any{"filePath": filePath, "content": content}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

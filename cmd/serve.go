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

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tsls.dev/server/internal/analysishost"
	"tsls.dev/server/internal/dispatcher"
	"tsls.dev/server/internal/filesource"
	"tsls.dev/server/internal/furi"
	"tsls.dev/server/internal/handlers"
	"tsls.dev/server/internal/pkgmanager"
	"tsls.dev/server/internal/project"
	"tsls.dev/server/internal/project/libfiles"
	"tsls.dev/server/internal/refclosure"
	"tsls.dev/server/internal/updater"
	"tsls.dev/server/internal/vfs"
)

// serveCmd starts the dispatcher loop, grounded on the teacher's lspCmd
// (cmd/lsp.go): same transport-flag shape, same mutual-exclusivity check,
// same pterm-to-stderr redirect so stdout stays clean for stdio framing.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the language server over stdio, TCP, or WebSocket",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Bool("stdio", false, "communicate over stdin/stdout")
	serveCmd.Flags().String("tcp", "", "listen for a single TCP connection on host:port")
	serveCmd.Flags().String("websocket", "", "listen for a single WebSocket connection on host:port")
	serveCmd.Flags().String("analyzer-cmd", "", "external AnalysisHost command to spawn, e.g. a tsserver-compatible binary")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// CRITICAL: stdio transport uses stdout for JSON-RPC framing. Any
	// library that writes banners/progress to stdout (pterm included)
	// would corrupt the stream, so pterm is redirected to stderr first,
	// before anything else runs.
	pterm.SetDefaultOutput(os.Stderr)

	stdio, _ := cmd.Flags().GetBool("stdio")
	tcpAddr, _ := cmd.Flags().GetString("tcp")
	wsAddr, _ := cmd.Flags().GetString("websocket")
	analyzerCmd, _ := cmd.Flags().GetString("analyzer-cmd")

	flagCount := 0
	for _, set := range []bool{stdio, tcpAddr != "", wsAddr != ""} {
		if set {
			flagCount++
		}
	}
	if flagCount == 0 {
		stdio = true
	} else if flagCount > 1 {
		return fmt.Errorf("serve: --stdio, --tcp, and --websocket are mutually exclusive")
	}

	projectDir := viper.GetString("projectDir")
	strict := viper.GetBool("strict")
	root := furi.PathToURI(projectDir)

	if analyzerCmd == "" {
		return fmt.Errorf("serve: --analyzer-cmd is required (this module orchestrates an external AnalysisHost, it does not embed one)")
	}

	v := vfs.New(libfiles.Load())
	var source filesource.Source
	d := dispatcher.New()
	if strict {
		source = filesource.NewLocal(projectDir)
	} else {
		source = filesource.NewRemote(d)
	}
	u := updater.New(v, source)

	hostFactory := project.HostFactory(analysishost.NewSubprocessHostFactory(analyzerCmd))
	projects := project.New(v, u, root, hostFactory)
	closure := refclosure.New(v, u, projects)
	packages := pkgmanager.New(v, u)
	projects.OnInvalidateReferenceClosure(closure.InvalidateReferencedFiles)

	stop := make(chan struct{})
	defer close(stop)
	go projects.Run(stop)
	go packages.Run(stop)

	hctx := &handlers.Context{
		Projects: projects,
		Closure:  closure,
		Updater:  u,
		VFS:      v,
		Packages: packages,
		Root:     root,
	}
	hctx.Register(d)

	if strict {
		stopWatch, err := projects.WatchLocalFilesystem(projectDir)
		if err != nil {
			pterm.Warning.Printfln("serve: could not watch %s for out-of-band changes: %v", projectDir, err)
		} else {
			defer stopWatch()
		}
	}

	ctx := context.Background()
	switch {
	case tcpAddr != "":
		pterm.Info.Printf("listening on %s\n", tcpAddr)
		return d.ServeTCP(ctx, tcpAddr)
	case wsAddr != "":
		pterm.Info.Printf("listening on %s\n", wsAddr)
		return d.ServeWebSocket(ctx, wsAddr)
	default:
		pterm.Debug.Println("serving over stdio")
		return d.ServeStdio(ctx, stdioReadWriteCloser{})
	}
}

// stdioReadWriteCloser adapts os.Stdin/os.Stdout to io.ReadWriteCloser for
// ServeStdio. Closing is a no-op: the process owns these descriptors for its
// whole lifetime and exits via the "exit" notification instead.
type stdioReadWriteCloser struct{}

func (stdioReadWriteCloser) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdioReadWriteCloser) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdioReadWriteCloser) Close() error                { return nil }

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
package dispatcher

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sourcegraph/jsonrpc2"
)

// Transport selects the wire carrying JSON-RPC frames, mirroring the
// teacher's cmd/lsp.go transport flags (--stdio/--tcp/--websocket/--nodejs).
type Transport int

const (
	TransportStdio Transport = iota
	TransportTCP
	TransportWebSocket
	// TransportNodeJS speaks the same framing as TransportStdio; it exists
	// as a distinct flag only so editor-launched node IPC wrappers can be
	// told apart in logs, exactly as the teacher's LSP.TransportNodeJS does.
	TransportNodeJS
)

// ServeStdio runs the dispatcher over rwc (cmd/serve.go passes an
// os.Stdin/os.Stdout adapter) using Content-Length framing, blocking until
// the connection closes.
func (d *Dispatcher) ServeStdio(ctx context.Context, rwc io.ReadWriteCloser) error {
	stream := jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{})
	conn := jsonrpc2.NewConn(ctx, stream, d.handler())
	d.mu.Lock()
	d.conn = conn
	d.mu.Unlock()
	<-conn.DisconnectNotify()
	return nil
}

// ServeTCP listens on addr, serving each accepted connection with a fresh
// dispatch context but the same method table. Blocks until ctx is
// cancelled or Listen fails.
func (d *Dispatcher) ServeTCP(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("dispatcher: listening on %s: %w", addr, err)
	}
	defer lis.Close()

	go func() {
		<-ctx.Done()
		_ = lis.Close()
	}()

	for {
		conn, err := lis.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("dispatcher: accept: %w", err)
		}
		go func() {
			stream := jsonrpc2.NewBufferedStream(conn, jsonrpc2.VSCodeObjectCodec{})
			rpcConn := jsonrpc2.NewConn(ctx, stream, d.handler())
			<-rpcConn.DisconnectNotify()
		}()
	}
}

// wsReadWriteCloser adapts a *websocket.Conn to io.ReadWriteCloser by
// framing each Write call as one binary message and buffering reads across
// message boundaries.
type wsReadWriteCloser struct {
	ws  *websocket.Conn
	buf []byte
}

func (w *wsReadWriteCloser) Read(p []byte) (int, error) {
	for len(w.buf) == 0 {
		_, data, err := w.ws.ReadMessage()
		if err != nil {
			return 0, err
		}
		w.buf = data
	}
	n := copy(p, w.buf)
	w.buf = w.buf[n:]
	return n, nil
}

func (w *wsReadWriteCloser) Write(p []byte) (int, error) {
	if err := w.ws.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *wsReadWriteCloser) Close() error {
	return w.ws.Close()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades the single expected editor connection to a
// websocket and speaks the same Content-Length-framed JSON-RPC over it.
func (d *Dispatcher) ServeWebSocket(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		rwc := &wsReadWriteCloser{ws: ws}
		stream := jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{})
		conn := jsonrpc2.NewConn(ctx, stream, d.handler())
		d.mu.Lock()
		d.conn = conn
		d.mu.Unlock()
		<-conn.DisconnectNotify()
	})

	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		_ = server.Close()
	}()
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("dispatcher: websocket listen: %w", err)
	}
	return nil
}

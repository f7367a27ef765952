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
package dispatcher_test

import (
	"context"
	"encoding/json"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/sourcegraph/jsonrpc2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tsls.dev/server/internal/dispatcher"
)

type noopHandler struct{}

func (noopHandler) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {}

func newClient(t *testing.T, serverConn net.Conn) *jsonrpc2.Conn {
	t.Helper()
	return newClientWithHandler(t, serverConn, noopHandler{})
}

func newClientWithHandler(t *testing.T, serverConn net.Conn, h jsonrpc2.Handler) *jsonrpc2.Conn {
	t.Helper()
	stream := jsonrpc2.NewBufferedStream(serverConn, jsonrpc2.VSCodeObjectCodec{})
	return jsonrpc2.NewConn(context.Background(), stream, h)
}

// notificationRecorder records every notification of a given method sent to
// the client, for tests asserting on $/partialResult payloads.
type notificationRecorder struct {
	method string

	mu   sync.Mutex
	recv []json.RawMessage
}

func (r *notificationRecorder) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	if req.Method != r.method || req.Params == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recv = append(r.recv, *req.Params)
}

func (r *notificationRecorder) all() []json.RawMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]json.RawMessage, len(r.recv))
	copy(out, r.recv)
	return out
}

func startServer(t *testing.T, d *dispatcher.Dispatcher) net.Conn {
	t.Helper()
	clientSide, serverSide := net.Pipe()
	go func() { _ = d.ServeStdio(context.Background(), serverSide) }()
	return clientSide
}

func TestUnknownMethodReturnsMethodNotFound(t *testing.T) {
	d := dispatcher.New()
	client := newClient(t, startServer(t, d))
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var result json.RawMessage
	err := client.Call(ctx, "nonexistent/method", nil, &result)
	require.Error(t, err)
	rpcErr, ok := err.(*jsonrpc2.Error)
	require.True(t, ok)
	assert.Equal(t, int64(jsonrpc2.CodeMethodNotFound), rpcErr.Code)
}

func TestUnderscorePrefixedMethodRejected(t *testing.T) {
	d := dispatcher.New()
	d.Handle("_internal/secret", func(ctx context.Context, params json.RawMessage, emit func(any)) error {
		emit("should never run")
		return nil
	})
	client := newClient(t, startServer(t, d))
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var result json.RawMessage
	err := client.Call(ctx, "_internal/secret", nil, &result)
	require.Error(t, err)
	rpcErr, ok := err.(*jsonrpc2.Error)
	require.True(t, ok)
	assert.Equal(t, int64(jsonrpc2.CodeMethodNotFound), rpcErr.Code)
}

func TestHandlerFinalValueBecomesResult(t *testing.T) {
	d := dispatcher.New()
	d.Handle("textDocument/hover", func(ctx context.Context, params json.RawMessage, emit func(any)) error {
		emit(map[string]any{"contents": "hello"})
		return nil
	})
	client := newClient(t, startServer(t, d))
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var result struct {
		Contents string `json:"contents"`
	}
	require.NoError(t, client.Call(ctx, "textDocument/hover", map[string]any{}, &result))
	assert.Equal(t, "hello", result.Contents)
}

// TestPartialResultStreamsJSONPatchOps drives a handler that calls emit
// twice under a streaming-capable initialize handshake, and asserts the
// client receives $/partialResult notifications carrying JSON-Patch ops
// before the final reply (spec.md §8 scenario 3).
func TestPartialResultStreamsJSONPatchOps(t *testing.T) {
	d := dispatcher.New()
	d.Handle("x/stream", func(ctx context.Context, params json.RawMessage, emit func(any)) error {
		emit(map[string]any{"items": []string{"a"}})
		emit(map[string]any{"items": []string{"a", "b"}})
		return nil
	})

	recorder := &notificationRecorder{method: "$/partialResult"}
	client := newClientWithHandler(t, startServer(t, d), recorder)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var initResult json.RawMessage
	require.NoError(t, client.Call(ctx, "initialize", map[string]any{
		"capabilities": map[string]any{
			"experimental": map[string]any{"streaming": true},
		},
	}, &initResult))

	var result struct {
		Items []string `json:"items"`
	}
	require.NoError(t, client.Call(ctx, "x/stream", map[string]any{}, &result))
	assert.Equal(t, []string{"a", "b"}, result.Items)

	require.Eventually(t, func() bool { return len(recorder.all()) > 0 }, 2*time.Second, 10*time.Millisecond)

	var payload struct {
		Patch []map[string]any `json:"patch"`
	}
	require.NoError(t, json.Unmarshal(recorder.all()[0], &payload))
	assert.NotEmpty(t, payload.Patch)
}

// TestCancelRequestReturnsRequestCancelled starts a handler that blocks
// until its context is cancelled, cancels it via $/cancelRequest, and
// asserts the original call fails with JSON-RPC code -32800 (spec.md §8
// scenario 4).
func TestCancelRequestReturnsRequestCancelled(t *testing.T) {
	d := dispatcher.New()
	idCh := make(chan string, 1)
	d.Handle("x/longRunning", func(ctx context.Context, params json.RawMessage, emit func(any)) error {
		if id, ok := dispatcher.RequestID(ctx); ok {
			idCh <- id
		}
		<-ctx.Done()
		return ctx.Err()
	})
	client := newClient(t, startServer(t, d))
	defer client.Close()

	errCh := make(chan error, 1)
	go func() {
		var result json.RawMessage
		errCh <- client.Call(context.Background(), "x/longRunning", map[string]any{}, &result)
	}()

	var id string
	select {
	case id = <-idCh:
	case <-time.After(2 * time.Second):
		t.Fatal("handler never started")
	}
	numID, err := strconv.ParseUint(id, 10, 64)
	require.NoError(t, err)

	cancelCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, client.Notify(cancelCtx, "$/cancelRequest", map[string]any{"id": numID}))

	select {
	case err := <-errCh:
		require.Error(t, err)
		rpcErr, ok := err.(*jsonrpc2.Error)
		require.True(t, ok)
		assert.Equal(t, int64(-32800), rpcErr.Code)
	case <-time.After(2 * time.Second):
		t.Fatal("call never returned after cancellation")
	}
}

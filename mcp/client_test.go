package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJoinText_ConcatenatesTextBlocksOnly(t *testing.T) {
	blocks := []content{
		{Type: "text", Text: "hello "},
		{Type: "image", Text: "ignored"},
		{Type: "text", Text: "world"},
	}
	require.Equal(t, "hello world", joinText(blocks))
}

// fakeServer is a minimal MCP-over-HTTP server: it answers initialize and
// tools/list with canned responses and tools/call with a single fixed "ok"
// text block.
func fakeServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")

		switch req.Method {
		case "initialize":
			json.NewEncoder(w).Encode(Response{JSONRPC: "2.0", ID: req.ID, Result: map[string]any{
				"protocolVersion": protocolVersion,
				"capabilities":    map[string]any{"tools": map[string]any{}},
			}})
		case "notifications/initialized":
			w.WriteHeader(http.StatusNoContent)
		case "tools/list":
			json.NewEncoder(w).Encode(Response{JSONRPC: "2.0", ID: req.ID, Result: listToolsResult{
				Tools: []Tool{{Name: "echo", Description: "echoes input"}},
			}})
		case "tools/call":
			json.NewEncoder(w).Encode(Response{JSONRPC: "2.0", ID: req.ID, Result: callToolResult{
				Content: []content{{Type: "text", Text: "ok"}},
			}})
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
}

func TestClient_ConnectOverHTTPAndCallTool(t *testing.T) {
	srv := fakeServer(t)
	defer srv.Close()

	client := NewClient("fake", ServerConfig{Transport: "http", URL: srv.URL})
	require.NoError(t, client.Connect(context.Background()))
	require.True(t, client.Connected())
	require.Len(t, client.ListTools(), 1)
	require.Equal(t, "echo", client.ListTools()[0].Name)

	output, err := client.CallTool(context.Background(), "echo", map[string]any{"x": 1})
	require.NoError(t, err)
	require.Equal(t, "ok", output)
}

func TestManager_ConnectAndDispatchOverHTTP(t *testing.T) {
	srv := fakeServer(t)
	defer srv.Close()

	m := NewManager(nil, nil, 0)
	ok, err := m.AddServer(context.Background(), "fake", ServerConfig{Transport: "http", URL: srv.URL}, true)
	require.NoError(t, err)
	require.True(t, ok)

	all := m.GetAllTools()
	require.Len(t, all, 1)
	require.Equal(t, "mcp__fake__echo", all[0].Namespaced)

	result, err := m.DispatchTool(context.Background(), "mcp__fake__echo", map[string]any{})
	require.NoError(t, err)
	require.Equal(t, "ok", result.Output)
}

// fakeNotifyTransport answers tools/list with a list that grows by one
// entry each call, so a test can tell a refresh actually happened.
type fakeNotifyTransport struct {
	calls int
}

func (t *fakeNotifyTransport) send(ctx context.Context, req Request) (*Response, error) {
	if req.Method != "tools/list" {
		return &Response{JSONRPC: "2.0", ID: req.ID}, nil
	}
	t.calls++
	tools := make([]Tool, t.calls)
	for i := range tools {
		tools[i] = Tool{Name: fmt.Sprintf("tool%d", i)}
	}
	return &Response{JSONRPC: "2.0", ID: req.ID, Result: listToolsResult{Tools: tools}}, nil
}

func (t *fakeNotifyTransport) close() error { return nil }

// TestClient_HandleNotificationRefreshesToolsAndFiresCallback exercises the
// notify -> refresh -> callback chain a "notifications/tools/list_changed"
// push triggers (spec §4.F), independent of which transport delivered it.
func TestClient_HandleNotificationRefreshesToolsAndFiresCallback(t *testing.T) {
	client := NewClient("fake", ServerConfig{})
	tr := &fakeNotifyTransport{}
	client.mu.Lock()
	client.transport = tr
	client.connected = true
	client.mu.Unlock()

	require.NoError(t, client.refreshTools(context.Background()))
	require.Len(t, client.ListTools(), 1)

	fired := 0
	client.SetOnToolsChanged(func() { fired++ })

	client.handleNotification("notifications/tools/list_changed")

	require.Len(t, client.ListTools(), 2, "handleNotification should have re-run tools/list")
	require.Equal(t, 1, fired, "registered callback should fire once")
}

// TestSSETransport_SetNotifyHandlerSatisfiesNotifier confirms sseTransport
// implements the notifier interface Client.Connect type-asserts against.
func TestSSETransport_SetNotifyHandlerSatisfiesNotifier(t *testing.T) {
	var tr transport = &sseTransport{}
	n, ok := tr.(notifier)
	require.True(t, ok)
	n.setNotifyHandler(func(string) {})
}

package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNamespace(t *testing.T) {
	require.Equal(t, "mcp__github__create_issue", Namespace("github", "create_issue"))
}

func TestSplitNamespaced(t *testing.T) {
	server, raw, ok := splitNamespaced("mcp__github__create_issue")
	require.True(t, ok)
	require.Equal(t, "github", server)
	require.Equal(t, "create_issue", raw)

	_, _, ok = splitNamespaced("read_file")
	require.False(t, ok)
}

func TestManager_IndexAndFilterTools(t *testing.T) {
	m := NewManager(
		map[string][]string{"coder": {"mcp__github__*"}},
		nil,
		0,
	)
	m.mu.Lock()
	m.tools["mcp__github__create_issue"] = ToolInfo{Namespaced: "mcp__github__create_issue", Server: "github", Raw: "create_issue"}
	m.tools["mcp__jira__list_tickets"] = ToolInfo{Namespaced: "mcp__jira__list_tickets", Server: "jira", Raw: "list_tickets"}
	m.mu.Unlock()

	all := m.GetAllTools()
	require.Len(t, all, 2)

	forCoder := m.GetToolsForAgent("coder")
	require.Len(t, forCoder, 1)
	require.Equal(t, "mcp__github__create_issue", forCoder[0].Namespaced)

	forOther := m.GetToolsForAgent("researcher")
	require.Len(t, forOther, 2, "agents with no configured restriction see every tool")
}

func TestManager_ReadonlyToolsUseDefaultGlobs(t *testing.T) {
	m := NewManager(nil, nil, 0)
	m.mu.Lock()
	m.tools["mcp__github__list_issues"] = ToolInfo{Namespaced: "mcp__github__list_issues"}
	m.tools["mcp__github__create_issue"] = ToolInfo{Namespaced: "mcp__github__create_issue"}
	m.mu.Unlock()

	readonly := m.GetReadonlyTools()
	require.Len(t, readonly, 1)
	require.Equal(t, "mcp__github__list_issues", readonly[0].Namespaced)
}

func TestManager_ToolsChangedCallbackReindexesTools(t *testing.T) {
	m := NewManager(nil, nil, 0)
	m.mu.Lock()
	client := NewClient("fake", ServerConfig{})
	m.clients["fake"] = client
	m.mu.Unlock()

	tr := &fakeNotifyTransport{}
	client.mu.Lock()
	client.transport = tr
	client.connected = true
	client.mu.Unlock()

	// ConnectServer wires the re-index callback before connecting; simulate
	// that wiring directly since this fake transport skips the handshake.
	client.SetOnToolsChanged(func() { m.indexServerTools("fake", client) })

	require.NoError(t, client.refreshTools(context.Background()))
	client.handleNotification("notifications/tools/list_changed")

	require.Len(t, m.GetAllTools(), 2, "manager index should reflect the refreshed tool count")
}

func TestTruncateOutput(t *testing.T) {
	out, truncated := truncateOutput("abcdefghijklmnop", 10)
	require.True(t, truncated)
	require.Equal(t, "abcdefghij… (truncated, 16 total chars)", out)

	out, truncated = truncateOutput("short", 10)
	require.False(t, truncated)
	require.Equal(t, "short", out)
}

package mcp

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ToolInfo describes one namespaced MCP tool as exposed to the rest of the
// system (spec §4.G).
type ToolInfo struct {
	Namespaced  string
	Server      string
	Raw         string
	Description string
}

// defaultReadonlyGlobs is used when mcp.readonly_tools is unset.
var defaultReadonlyGlobs = []string{"mcp__*__list*", "mcp__*__get*", "mcp__*__read*", "mcp__*__search*"}

// Manager owns every configured server's Client, namespaces their tools,
// and applies per-agent and read-only glob filters (spec §4.G). Registry
// mutations are serialized through mu; client I/O happens outside the lock
// so a slow network call never blocks unrelated lookups.
type Manager struct {
	mu      sync.Mutex
	clients map[string]*Client
	tools   map[string]ToolInfo // namespaced name -> info

	agentTools      map[string][]string
	readonlyGlobs   []string
	outputMaxChars  int
}

// NewManager creates an empty Manager. agentTools and readonlyGlobs mirror
// the "mcp.agent_tools" / "mcp.readonly_tools" settings and outputMaxChars
// mirrors "mcp.output_max_tokens" (treated as a character bound, per §4.G's
// truncation wording).
func NewManager(agentTools map[string][]string, readonlyGlobs []string, outputMaxChars int) *Manager {
	if len(readonlyGlobs) == 0 {
		readonlyGlobs = defaultReadonlyGlobs
	}
	return &Manager{
		clients:        make(map[string]*Client),
		tools:          make(map[string]ToolInfo),
		agentTools:     agentTools,
		readonlyGlobs:  readonlyGlobs,
		outputMaxChars: outputMaxChars,
	}
}

// AddServer registers a new server config and, when autoConnect is true,
// connects and indexes its tools immediately.
func (m *Manager) AddServer(ctx context.Context, name string, cfg ServerConfig, autoConnect bool) (bool, error) {
	m.mu.Lock()
	if _, exists := m.clients[name]; exists {
		m.mu.Unlock()
		return false, fmt.Errorf("mcp server %q already registered", name)
	}
	client := NewClient(name, cfg)
	m.clients[name] = client
	m.mu.Unlock()

	if !autoConnect {
		return true, nil
	}
	return true, m.ConnectServer(ctx, name)
}

// RemoveServer disconnects and forgets a server.
func (m *Manager) RemoveServer(name string) error {
	m.mu.Lock()
	client, ok := m.clients[name]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("mcp server %q not registered", name)
	}
	delete(m.clients, name)
	m.removeServerToolsLocked(name)
	m.mu.Unlock()

	return client.Disconnect()
}

// ConnectServer connects (or reconnects) a registered server and
// re-indexes its tools.
func (m *Manager) ConnectServer(ctx context.Context, name string) error {
	m.mu.Lock()
	client, ok := m.clients[name]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("mcp server %q not registered", name)
	}

	client.SetOnToolsChanged(func() { m.indexServerTools(name, client) })

	if err := client.Connect(ctx); err != nil {
		return err
	}
	m.indexServerTools(name, client)
	return nil
}

// DisconnectServer disconnects a registered server and removes its tools
// from the index.
func (m *Manager) DisconnectServer(name string) error {
	m.mu.Lock()
	client, ok := m.clients[name]
	if ok {
		m.removeServerToolsLocked(name)
	}
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("mcp server %q not registered", name)
	}
	return client.Disconnect()
}

// indexServerTools replaces every mcp__<name>__* entry with the client's
// current tool list (spec §4.G).
func (m *Manager) indexServerTools(name string, client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeServerToolsLocked(name)
	for _, t := range client.ListTools() {
		namespaced := Namespace(name, t.Name)
		m.tools[namespaced] = ToolInfo{Namespaced: namespaced, Server: name, Raw: t.Name, Description: t.Description}
	}
}

func (m *Manager) removeServerToolsLocked(name string) {
	prefix := "mcp__" + name + "__"
	for key := range m.tools {
		if strings.HasPrefix(key, prefix) {
			delete(m.tools, key)
		}
	}
}

// Namespace builds the collision-free dispatch name for a raw tool name on
// the given server (spec P10).
func Namespace(server, rawTool string) string {
	return "mcp__" + server + "__" + rawTool
}

// splitNamespaced extracts the server name from a namespaced tool name.
func splitNamespaced(namespaced string) (server, raw string, ok bool) {
	if !strings.HasPrefix(namespaced, "mcp__") {
		return "", "", false
	}
	rest := strings.TrimPrefix(namespaced, "mcp__")
	idx := strings.Index(rest, "__")
	if idx < 0 {
		return "", "", false
	}
	return rest[:idx], rest[idx+2:], true
}

// DispatchResult is the outcome of routing a namespaced tool call.
type DispatchResult struct {
	Output    string
	Truncated bool
}

// DispatchTool routes a mcp__<server>__<tool> call to its client and
// applies output truncation (spec §4.G, P11).
func (m *Manager) DispatchTool(ctx context.Context, namespaced string, args map[string]any) (DispatchResult, error) {
	server, raw, ok := splitNamespaced(namespaced)
	if !ok {
		return DispatchResult{}, fmt.Errorf("not a namespaced mcp tool: %q", namespaced)
	}

	m.mu.Lock()
	client, ok := m.clients[server]
	m.mu.Unlock()
	if !ok {
		return DispatchResult{}, fmt.Errorf("mcp server %q not registered", server)
	}

	output, err := client.CallTool(ctx, raw, args)
	if err != nil {
		return DispatchResult{}, err
	}

	truncated, wasTruncated := truncateOutput(output, m.outputMaxChars)
	return DispatchResult{Output: truncated, Truncated: wasTruncated}, nil
}

// truncateOutput applies mcp.output_max_tokens (spec §4.G, P11): output
// longer than max is cut to max chars with a "… (truncated, N total
// chars)" suffix. max <= 0 disables truncation.
func truncateOutput(output string, max int) (string, bool) {
	if max <= 0 || len(output) <= max {
		return output, false
	}
	return output[:max] + fmt.Sprintf("… (truncated, %d total chars)", len(output)), true
}

// GetAllTools returns every currently indexed namespaced tool.
func (m *Manager) GetAllTools() []ToolInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ToolInfo, 0, len(m.tools))
	for _, t := range m.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Namespaced < out[j].Namespaced })
	return out
}

// GetToolsForAgent returns the namespaced tools agent is permitted to use,
// per mcp.agent_tools glob filtering (empty map means unrestricted).
func (m *Manager) GetToolsForAgent(agent string) []ToolInfo {
	all := m.GetAllTools()
	globs, restricted := m.agentTools[agent]
	if !restricted || len(globs) == 0 {
		return all
	}
	var out []ToolInfo
	for _, t := range all {
		for _, g := range globs {
			if ok, _ := filepath.Match(g, t.Namespaced); ok {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

// GetReadonlyTools returns the namespaced tools matching mcp.readonly_tools
// (or the built-in default globs).
func (m *Manager) GetReadonlyTools() []ToolInfo {
	all := m.GetAllTools()
	var out []ToolInfo
	for _, t := range all {
		for _, g := range m.readonlyGlobs {
			if ok, _ := filepath.Match(g, t.Namespaced); ok {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

// Reconcile adds/removes servers so the manager's registered set matches
// desired exactly, driven by a Settings change callback (spec §4.G).
// Unchanged entries (same name, already registered) are left alone.
func (m *Manager) Reconcile(ctx context.Context, desired map[string]ServerConfig) {
	m.mu.Lock()
	var toRemove []string
	for name := range m.clients {
		if _, ok := desired[name]; !ok {
			toRemove = append(toRemove, name)
		}
	}
	var toAdd []string
	for name := range desired {
		if _, ok := m.clients[name]; !ok {
			toAdd = append(toAdd, name)
		}
	}
	m.mu.Unlock()

	for _, name := range toRemove {
		_ = m.RemoveServer(name)
	}
	for _, name := range toAdd {
		_, _ = m.AddServer(ctx, name, desired[name], true)
	}
}

package mcp

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Client is one connection to an external MCP server (spec §4.F). A
// Client is serialized through its own mutex for request/response pairs;
// SSE/stdio background readers only write cached state under this lock.
type Client struct {
	name   string
	cfg    ServerConfig
	nextID int64

	mu        sync.RWMutex
	transport transport
	connected bool
	tools     []Tool
	resources []Resource
	prompts   []Prompt

	onToolsChanged     func()
	onResourcesChanged func()
}

// SetOnToolsChanged registers fn to run after this client's tool cache is
// refreshed in response to an inbound "notifications/tools/list_changed"
// push (spec §4.F); the Manager uses it to re-index this server's
// namespaced tools (spec §4.G).
func (c *Client) SetOnToolsChanged(fn func()) {
	c.mu.Lock()
	c.onToolsChanged = fn
	c.mu.Unlock()
}

// SetOnResourcesChanged registers fn to run after this client's resource
// cache is refreshed in response to an inbound
// "notifications/resources/list_changed" push (spec §4.F).
func (c *Client) SetOnResourcesChanged(fn func()) {
	c.mu.Lock()
	c.onResourcesChanged = fn
	c.mu.Unlock()
}

// handleNotification refreshes the cache a pushed list_changed event
// names, then notifies any registered callback (spec §4.F).
func (c *Client) handleNotification(method string) {
	ctx := context.Background()
	switch method {
	case "notifications/tools/list_changed":
		if err := c.refreshTools(ctx); err != nil {
			return
		}
		c.mu.RLock()
		fn := c.onToolsChanged
		c.mu.RUnlock()
		if fn != nil {
			fn()
		}
	case "notifications/resources/list_changed":
		if err := c.refreshResources(ctx); err != nil {
			return
		}
		c.mu.RLock()
		fn := c.onResourcesChanged
		c.mu.RUnlock()
		if fn != nil {
			fn()
		}
	}
}

// NewClient creates a disconnected client for cfg. Connect must be called
// before use.
func NewClient(name string, cfg ServerConfig) *Client {
	return &Client{name: name, cfg: cfg}
}

// Name returns the server name this client was registered under.
func (c *Client) Name() string { return c.name }

// Connected reports the client's current connection state.
func (c *Client) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Connect opens the transport and runs the initialize handshake (spec
// §4.F): send initialize, read the server's capabilities, send
// notifications/initialized, then call tools/list, resources/list,
// prompts/list per capability flag. The capabilities are used only for that
// choice; they are not stored on the Client.
func (c *Client) Connect(ctx context.Context) error {
	tr, err := newTransport(c.cfg)
	if err != nil {
		return fmt.Errorf("mcp %s: connect failed: %w", c.name, err)
	}
	if n, ok := tr.(notifier); ok {
		n.setNotifyHandler(c.handleNotification)
	}

	initResp, err := tr.send(ctx, Request{
		JSONRPC: "2.0",
		ID:      uuid.NewString(),
		Method:  "initialize",
		Params: map[string]any{
			"protocolVersion": protocolVersion,
			"clientInfo":      map[string]string{"name": "bmo", "version": "0.1.0-alpha"},
			"capabilities":    map[string]any{},
		},
	})
	if err != nil {
		_ = tr.close()
		return fmt.Errorf("mcp %s: initialize failed: %w", c.name, err)
	}
	if initResp != nil && initResp.Error != nil {
		_ = tr.close()
		return fmt.Errorf("mcp %s: initialize error: %s", c.name, initResp.Error.Message)
	}

	capsResult, _ := decodeResult[initializeResult](initResp.Result)

	if _, err := tr.send(ctx, Request{JSONRPC: "2.0", Method: "notifications/initialized"}); err != nil {
		_ = tr.close()
		return fmt.Errorf("mcp %s: initialized notification failed: %w", c.name, err)
	}

	c.mu.Lock()
	c.transport = tr
	c.connected = true
	c.mu.Unlock()

	if capsResult.Capabilities.Tools != nil {
		if err := c.refreshTools(ctx); err != nil {
			c.markDisconnected()
			return err
		}
	}
	if capsResult.Capabilities.Resources != nil {
		if err := c.refreshResources(ctx); err != nil {
			c.markDisconnected()
			return err
		}
	}
	if capsResult.Capabilities.Prompts != nil {
		if err := c.refreshPrompts(ctx); err != nil {
			c.markDisconnected()
			return err
		}
	}
	return nil
}

// Disconnect tears down the transport and clears caches.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	tr := c.transport
	c.transport = nil
	c.connected = false
	c.tools, c.resources, c.prompts = nil, nil, nil
	c.mu.Unlock()
	if tr == nil {
		return nil
	}
	return tr.close()
}

func (c *Client) markDisconnected() {
	c.mu.Lock()
	c.connected = false
	c.transport = nil
	c.mu.Unlock()
}

func (c *Client) call(ctx context.Context, method string, params any) (*Response, error) {
	c.mu.RLock()
	tr := c.transport
	connected := c.connected
	c.mu.RUnlock()
	if !connected || tr == nil {
		return nil, fmt.Errorf("mcp %s: not connected", c.name)
	}

	id := atomic.AddInt64(&c.nextID, 1)
	resp, err := tr.send(ctx, Request{JSONRPC: "2.0", ID: id, Method: method, Params: params})
	if err != nil {
		c.markDisconnected()
		return nil, fmt.Errorf("mcp %s: %s failed: %w", c.name, method, err)
	}
	if resp != nil && resp.Error != nil {
		return nil, fmt.Errorf("mcp %s: %s error: %s", c.name, method, resp.Error.Message)
	}
	return resp, nil
}

func (c *Client) refreshTools(ctx context.Context) error {
	resp, err := c.call(ctx, "tools/list", map[string]any{})
	if err != nil {
		return err
	}
	result, err := decodeResult[listToolsResult](resp.Result)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.tools = result.Tools
	c.mu.Unlock()
	return nil
}

func (c *Client) refreshResources(ctx context.Context) error {
	resp, err := c.call(ctx, "resources/list", map[string]any{})
	if err != nil {
		return err
	}
	result, err := decodeResult[listResourcesResult](resp.Result)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.resources = result.Resources
	c.mu.Unlock()
	return nil
}

func (c *Client) refreshPrompts(ctx context.Context) error {
	resp, err := c.call(ctx, "prompts/list", map[string]any{})
	if err != nil {
		return err
	}
	result, err := decodeResult[listPromptsResult](resp.Result)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.prompts = result.Prompts
	c.mu.Unlock()
	return nil
}

// ListTools returns the cached tool list.
func (c *Client) ListTools() []Tool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Tool(nil), c.tools...)
}

// ListResources returns the cached resource list.
func (c *Client) ListResources() []Resource {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Resource(nil), c.resources...)
}

// ListPrompts returns the cached prompt list.
func (c *Client) ListPrompts() []Prompt {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Prompt(nil), c.prompts...)
}

// CallTool issues tools/call and returns the joined text of the result's
// content blocks.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	resp, err := c.call(ctx, "tools/call", CallParams{Name: name, Arguments: args})
	if err != nil {
		return "", err
	}
	result, err := decodeResult[callToolResult](resp.Result)
	if err != nil {
		return "", err
	}
	return joinText(result.Content), nil
}

// ReadResource issues resources/read and returns the joined text of the
// result's contents.
func (c *Client) ReadResource(ctx context.Context, uri string) (string, error) {
	resp, err := c.call(ctx, "resources/read", map[string]any{"uri": uri})
	if err != nil {
		return "", err
	}
	result, err := decodeResult[readResourceResult](resp.Result)
	if err != nil {
		return "", err
	}
	return joinText(result.Contents), nil
}

// GetPrompt issues prompts/get and returns the raw result, which is
// prompt-schema-specific rather than a flat text blob.
func (c *Client) GetPrompt(ctx context.Context, name string, args map[string]any) (any, error) {
	resp, err := c.call(ctx, "prompts/get", map[string]any{"name": name, "arguments": args})
	if err != nil {
		return nil, err
	}
	return resp.Result, nil
}

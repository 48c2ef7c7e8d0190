package mcp

import (
	"context"
	"encoding/json"
	"fmt"
)

// transport is the send/receive primitive each of the three wire formats
// implements. A transport is used by exactly one Client.
type transport interface {
	// send writes req and, unless it is a notification (req.ID == nil),
	// returns the matching response.
	send(ctx context.Context, req Request) (*Response, error)
	// close tears down any underlying connection/process.
	close() error
}

// notifier is implemented by transports that can push asynchronous,
// unsolicited server notifications outside the request/response cycle
// (spec §4.F: the SSE transport's "notifications/tools/list_changed" and
// "notifications/resources/list_changed" events). A Client wires its
// handler in right after opening the transport, before the initialize
// handshake, so it can refresh the relevant cache.
type notifier interface {
	setNotifyHandler(fn func(method string))
}

// ServerConfig describes how to reach one MCP server.
type ServerConfig struct {
	Transport string // stdio | http | sse
	Command   string
	Args      []string
	Env       map[string]string
	URL       string
}

func newTransport(cfg ServerConfig) (transport, error) {
	switch cfg.Transport {
	case "stdio":
		return newStdioTransport(cfg)
	case "http":
		return newHTTPTransport(cfg), nil
	case "sse":
		return newSSETransport(cfg)
	default:
		return nil, fmt.Errorf("unknown mcp transport %q", cfg.Transport)
	}
}

func decodeResult[T any](raw any) (T, error) {
	var out T
	data, err := json.Marshal(raw)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, err
	}
	return out, nil
}

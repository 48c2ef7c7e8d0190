// Package mcp implements a Model Context Protocol client (one per
// configured external server, over stdio/HTTP/SSE) and a manager that
// namespaces and dispatches their tools to agents (spec §4.F, §4.G).
package mcp

// protocolVersion is the MCP handshake version this client speaks.
const protocolVersion = "2024-11-05"

// Request is a JSON-RPC 2.0 request or notification (omit ID for the
// latter). Grounded on the teacher's hand-rolled JSON-RPC types
// (pkg/tools/mcp.go); this package speaks the same dialect across three
// transports instead of just HTTP.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      any    `json:"id,omitempty"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	ID      any    `json:"id,omitempty"`
	Result  any    `json:"result,omitempty"`
	Error   *RPCError `json:"error,omitempty"`
}

// RPCError is a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string { return e.Message }

// Tool describes one tool a server exposes, as returned by tools/list.
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema any    `json:"inputSchema,omitempty"`
}

// Resource describes one resource a server exposes, as returned by
// resources/list.
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// Prompt describes one prompt a server exposes, as returned by
// prompts/list.
type Prompt struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// content is one block of a tools/call or resources/read result.
type content struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type initializeResult struct {
	ProtocolVersion string `json:"protocolVersion"`
	Capabilities    struct {
		Tools     *struct{} `json:"tools,omitempty"`
		Resources *struct{} `json:"resources,omitempty"`
		Prompts   *struct{} `json:"prompts,omitempty"`
	} `json:"capabilities"`
}

type listToolsResult struct {
	Tools []Tool `json:"tools"`
}

type listResourcesResult struct {
	Resources []Resource `json:"resources"`
}

type listPromptsResult struct {
	Prompts []Prompt `json:"prompts"`
}

type callToolResult struct {
	Content []content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

type readResourceResult struct {
	Contents []content `json:"contents"`
}

// joinText concatenates the text of every text-typed or untyped content
// block.
func joinText(blocks []content) string {
	out := ""
	for _, b := range blocks {
		if b.Type == "text" || b.Type == "" {
			out += b.Text
		}
	}
	return out
}

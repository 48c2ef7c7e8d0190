package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SearchFunc performs a web search and returns a text summary of results.
// No concrete search provider ships with this package; callers inject one
// (e.g. backed by a search API) at dispatcher construction time, the same
// way the chat/plan LLM is injected elsewhere in the system.
type SearchFunc func(ctx context.Context, query string, maxResults int) (string, error)

// webSearchTool implements web_search.
type webSearchTool struct{ search SearchFunc }

func (webSearchTool) Name() string        { return "web_search" }
func (webSearchTool) ReadOnly() bool       { return true }
func (webSearchTool) Description() string { return "Search the web and return a summary of results." }

func (t webSearchTool) Execute(ctx context.Context, args map[string]any) (Result, error) {
	if t.search == nil {
		return Result{Success: false, Error: "web_search is not configured (no search provider injected)"}, nil
	}
	query := stringArg(args, "query")
	if query == "" {
		return Result{Success: false, Error: "query is required"}, nil
	}
	maxResults := intArg(args, "max_results", 5)
	out, err := t.search(ctx, query, maxResults)
	if err != nil {
		return Result{Success: false, Error: err.Error()}, nil
	}
	return Result{Success: true, Content: out}, nil
}

// ragSearchTool implements rag_search, named among the plan-mode read-only
// tools but without a concrete retrieval backend specified. Like web_search
// it accepts an injected search function; with none configured it reports
// itself unavailable rather than silently returning nothing.
type ragSearchTool struct{ search SearchFunc }

func (ragSearchTool) Name() string        { return "rag_search" }
func (ragSearchTool) ReadOnly() bool       { return true }
func (ragSearchTool) Description() string { return "Search project-local embedded documents for relevant passages." }

func (t ragSearchTool) Execute(ctx context.Context, args map[string]any) (Result, error) {
	if t.search == nil {
		return Result{Success: false, Error: "rag_search is not configured (no retrieval backend injected)"}, nil
	}
	query := stringArg(args, "query")
	if query == "" {
		return Result{Success: false, Error: "query is required"}, nil
	}
	out, err := t.search(ctx, query, intArg(args, "max_results", 5))
	if err != nil {
		return Result{Success: false, Error: err.Error()}, nil
	}
	return Result{Success: true, Content: out}, nil
}

// webFetchTool implements web_fetch: a plain HTTP GET with a size cap.
type webFetchTool struct {
	client     *http.Client
	maxBytes   int64
}

func newWebFetch() *webFetchTool {
	return &webFetchTool{
		client:   &http.Client{Timeout: 20 * time.Second},
		maxBytes: 200_000,
	}
}

func (webFetchTool) Name() string        { return "web_fetch" }
func (webFetchTool) ReadOnly() bool       { return true }
func (webFetchTool) Description() string { return "Fetch a URL over HTTP(S) and return its body as text." }

func (t *webFetchTool) Execute(ctx context.Context, args map[string]any) (Result, error) {
	url := stringArg(args, "url")
	if url == "" {
		return Result{Success: false, Error: "url is required"}, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{Success: false, Error: err.Error()}, nil
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return Result{Success: false, Error: err.Error()}, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, t.maxBytes))
	if err != nil {
		return Result{Success: false, Error: err.Error()}, nil
	}
	if resp.StatusCode >= 400 {
		return Result{Success: false, Error: fmt.Sprintf("fetch failed: HTTP %d", resp.StatusCode)}, nil
	}
	return Result{Success: true, Content: string(body)}, nil
}

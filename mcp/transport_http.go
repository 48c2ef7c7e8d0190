package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// httpTransport POSTs each JSON-RPC object to a base URL; an empty body or
// a 204 indicates a notification was accepted (spec §4.F).
type httpTransport struct {
	url    string
	client *http.Client
}

const httpRequestTimeout = 30 * time.Second

func newHTTPTransport(cfg ServerConfig) *httpTransport {
	return &httpTransport{
		url:    cfg.URL,
		client: &http.Client{Timeout: httpRequestTimeout},
	}
}

func (t *httpTransport) send(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("mcp http: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent || req.ID == nil {
		return nil, nil
	}
	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("mcp http: failed to decode response: %w", err)
	}
	return &out, nil
}

func (t *httpTransport) close() error { return nil }

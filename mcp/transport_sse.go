package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// sseTransport opens a long-lived GET stream for server->client messages
// and POSTs requests to an "endpoint" the server announces over that
// stream as its first event (spec §4.F).
type sseTransport struct {
	client     *http.Client
	endpointMu sync.RWMutex
	endpoint   string

	mu      sync.Mutex
	pending map[any]chan *Response

	notifyMu sync.RWMutex
	onNotify func(method string)

	cancel context.CancelFunc
	done   chan struct{}
}

// setNotifyHandler implements notifier: fn is invoked on its own goroutine,
// off the listen goroutine's read path, for every inbound
// "notifications/..." event (spec §4.F), so a handler that sends requests
// can receive their responses over this same stream.
func (t *sseTransport) setNotifyHandler(fn func(method string)) {
	t.notifyMu.Lock()
	t.onNotify = fn
	t.notifyMu.Unlock()
}

const sseHandshakeWait = 5 * time.Second

func newSSETransport(cfg ServerConfig) (*sseTransport, error) {
	ctx, cancel := context.WithCancel(context.Background())
	t := &sseTransport{
		client:  &http.Client{},
		pending: make(map[any]chan *Response),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	endpointReady := make(chan struct{})
	go t.listen(ctx, cfg.URL, endpointReady)

	select {
	case <-endpointReady:
		return t, nil
	case <-time.After(sseHandshakeWait):
		cancel()
		return nil, fmt.Errorf("mcp sse: no endpoint event from %s within %s", cfg.URL, sseHandshakeWait)
	}
}

func (t *sseTransport) listen(ctx context.Context, url string, endpointReady chan struct{}) {
	defer close(t.done)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := t.client.Do(req)
	if err != nil {
		return
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var eventType string
	var dataLines []string
	ready := false

	flush := func() {
		data := strings.Join(dataLines, "\n")
		dataLines = nil
		switch eventType {
		case "endpoint":
			t.endpointMu.Lock()
			t.endpoint = resolveEndpoint(url, data)
			t.endpointMu.Unlock()
			if !ready {
				ready = true
				close(endpointReady)
			}
		case "", "message":
			var resp Response
			if json.Unmarshal([]byte(data), &resp) == nil {
				t.deliver(&resp)
			}
		default:
			if strings.HasPrefix(eventType, "notifications/") {
				t.notifyMu.RLock()
				fn := t.onNotify
				t.notifyMu.RUnlock()
				if fn != nil {
					go fn(eventType)
				}
			}
		}
		eventType = ""
	}

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			if len(dataLines) > 0 || eventType != "" {
				flush()
			}
			continue
		}
		switch {
		case strings.HasPrefix(line, "event:"):
			eventType = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			dataLines = append(dataLines, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
	}
}

func resolveEndpoint(base, data string) string {
	if strings.HasPrefix(data, "http://") || strings.HasPrefix(data, "https://") {
		return data
	}
	idx := strings.Index(base, "://")
	if idx < 0 {
		return data
	}
	schemeHost := base
	if slash := strings.Index(base[idx+3:], "/"); slash >= 0 {
		schemeHost = base[:idx+3+slash]
	}
	if !strings.HasPrefix(data, "/") {
		data = "/" + data
	}
	return schemeHost + data
}

func (t *sseTransport) deliver(resp *Response) {
	t.mu.Lock()
	ch, ok := t.pending[normalizeID(resp.ID)]
	if ok {
		delete(t.pending, normalizeID(resp.ID))
	}
	t.mu.Unlock()
	if ok {
		ch <- resp
		close(ch)
	}
}

func (t *sseTransport) send(ctx context.Context, req Request) (*Response, error) {
	t.endpointMu.RLock()
	endpoint := t.endpoint
	t.endpointMu.RUnlock()
	if endpoint == "" {
		return nil, fmt.Errorf("mcp sse: no endpoint discovered yet")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	var waiter chan *Response
	if req.ID != nil {
		waiter = make(chan *Response, 1)
		t.mu.Lock()
		t.pending[normalizeID(req.ID)] = waiter
		t.mu.Unlock()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("mcp sse: post to endpoint failed: %w", err)
	}
	resp.Body.Close()

	if waiter == nil {
		return nil, nil
	}
	select {
	case resp, ok := <-waiter:
		if !ok {
			return nil, fmt.Errorf("mcp sse: stream closed while awaiting response")
		}
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *sseTransport) close() error {
	t.cancel()
	<-t.done
	return nil
}

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mrorigo/ors-proxy/pkg/api"
	"github.com/mrorigo/ors-proxy/pkg/transport"
)

// mockCreator is a configurable mock ResponseCreator for testing.
type mockCreator struct {
	err    error
	events []api.StreamEvent
}

func (m *mockCreator) CreateResponse(ctx context.Context, req *api.CreateResponseRequest, w transport.ResponseWriter) error {
	if m.err != nil {
		return m.err
	}
	for _, event := range m.events {
		if err := w.WriteEvent(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

func newTestAdapter(creator transport.ResponseCreator) *Adapter {
	cfg := DefaultConfig()
	cfg.KeepAlive = 0
	return NewAdapter(creator, cfg)
}

func postJSON(t *testing.T, srv *httptest.Server, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	resp, err := http.Post(srv.URL+"/v1/responses", "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST error: %v", err)
	}
	return resp
}

func TestInvalidJSONBodyReturns400(t *testing.T) {
	adapter := newTestAdapter(&mockCreator{})
	srv := httptest.NewServer(adapter.Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/responses", "application/json", strings.NewReader("{invalid"))
	if err != nil {
		t.Fatalf("POST error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}

	var errResp api.ErrorResponse
	json.NewDecoder(resp.Body).Decode(&errResp)
	if errResp.Error.Type != api.ErrorTypeInvalidRequest {
		t.Errorf("error type = %q, want %q", errResp.Error.Type, api.ErrorTypeInvalidRequest)
	}
}

func TestOversizedBodyReturns413(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxBodySize = 10 // 10 bytes max
	cfg.KeepAlive = 0
	adapter := NewAdapter(&mockCreator{}, cfg)
	srv := httptest.NewServer(adapter.Handler())
	defer srv.Close()

	bigBody := strings.NewReader(`{"model":"test","input":[{"type":"message"}]}`)
	resp, err := http.Post(srv.URL+"/v1/responses", "application/json", bigBody)
	if err != nil {
		t.Fatalf("POST error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusRequestEntityTooLarge)
	}
}

func TestWrongContentTypeReturns415(t *testing.T) {
	adapter := newTestAdapter(&mockCreator{})
	srv := httptest.NewServer(adapter.Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/responses", "text/plain", strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("POST error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnsupportedMediaType)
	}
}

func TestUnknownPathReturns404(t *testing.T) {
	adapter := newTestAdapter(&mockCreator{})
	srv := httptest.NewServer(adapter.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/nonexistent")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	adapter := newTestAdapter(&mockCreator{})
	srv := httptest.NewServer(adapter.Handler())
	defer srv.Close()

	req, _ := http.NewRequest("PUT", srv.URL+"/v1/responses", strings.NewReader("{}"))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusMethodNotAllowed)
	}
}

func TestHealthEndpoint(t *testing.T) {
	adapter := newTestAdapter(&mockCreator{})
	srv := httptest.NewServer(adapter.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestMetricsEndpointExposesPrometheusFormat(t *testing.T) {
	adapter := newTestAdapter(&mockCreator{})
	srv := httptest.NewServer(adapter.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	buf := new(bytes.Buffer)
	buf.ReadFrom(resp.Body)
	if !strings.Contains(buf.String(), "orsproxy_") {
		t.Error("expected orsproxy_ metrics in exposition output")
	}
}

func TestStreamingPostReturnsSSE(t *testing.T) {
	creator := &mockCreator{
		events: []api.StreamEvent{
			{Type: api.EventResponseCreated, SequenceNumber: 0, ResponseID: "resp_abc"},
			{Type: api.EventOutputTextDelta, SequenceNumber: 1, Delta: "Hello"},
			{Type: api.EventOutputTextDelta, SequenceNumber: 2, Delta: " world"},
		},
	}

	adapter := newTestAdapter(creator)
	srv := httptest.NewServer(adapter.Handler())
	defer srv.Close()

	reqBody := api.CreateResponseRequest{Model: "test", Input: []api.Item{{Type: api.ItemTypeMessage, Message: &api.MessageData{Role: api.RoleUser}}}}
	resp := postJSON(t, srv, reqBody)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want %q", ct, "text/event-stream")
	}

	buf := new(bytes.Buffer)
	buf.ReadFrom(resp.Body)
	body := buf.String()

	if !strings.Contains(body, "event: response.created\n") {
		t.Error("missing response.created event")
	}
	if !strings.Contains(body, "event: response.output_text.delta\n") {
		t.Error("missing output_text.delta event")
	}
}

func TestStreamingErrorBeforeEventsReturnsJSON(t *testing.T) {
	creator := &mockCreator{
		err: api.NewInvalidRequestError("model is required"),
	}

	adapter := newTestAdapter(creator)
	srv := httptest.NewServer(adapter.Handler())
	defer srv.Close()

	reqBody := api.CreateResponseRequest{Model: "", Input: []api.Item{{Type: api.ItemTypeMessage, Message: &api.MessageData{Role: api.RoleUser}}}}
	resp := postJSON(t, srv, reqBody)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}

	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

func TestStreamingErrorAfterEventsClosesWithoutJSON(t *testing.T) {
	creator := transport.ResponseCreatorFunc(func(ctx context.Context, req *api.CreateResponseRequest, w transport.ResponseWriter) error {
		if err := w.WriteEvent(ctx, api.StreamEvent{Type: api.EventResponseCreated, ResponseID: "resp_abc"}); err != nil {
			return err
		}
		return api.NewUpstreamError("upstream stream interrupted")
	})

	adapter := newTestAdapter(creator)
	srv := httptest.NewServer(adapter.Handler())
	defer srv.Close()

	reqBody := api.CreateResponseRequest{Model: "test", Input: []api.Item{{Type: api.ItemTypeMessage, Message: &api.MessageData{Role: api.RoleUser}}}}
	resp := postJSON(t, srv, reqBody)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	buf := new(bytes.Buffer)
	buf.ReadFrom(resp.Body)
	if strings.Contains(buf.String(), string(api.ErrorTypeUpstreamError)) {
		t.Error("should not contain a JSON error body once SSE framing began")
	}
}

// Command mock-upstream runs a deterministic Legacy chat-completions
// server for manual exercising and integration testing of the proxy. It
// classifies each request by its last user message and streams back one
// of a fixed set of chunk sequences, matching the scenarios exercised by
// the integration suite.
//
// Configuration:
//
//	MOCK_PORT - listen port (default: 9090)
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mrorigo/ors-proxy/pkg/legacy"
)

func main() {
	port := os.Getenv("MOCK_PORT")
	if port == "" {
		port = "9090"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat/completions", handleChatCompletions)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})

	srv := &http.Server{Addr: ":" + port, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("mock upstream starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("mock upstream failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("mock upstream shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}

func handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	var req legacy.ChatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":{"message":"invalid request","type":"invalid_request_error"}}`, http.StatusBadRequest)
		return
	}

	if strings.Contains(strings.ToLower(lastUserText(req)), "overload") {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if strings.Contains(strings.ToLower(lastUserText(req)), "weather") {
		streamToolCallTurn(w, flusher)
		return
	}
	streamTextTurn(w, flusher, lastUserText(req))
}

// streamTextTurn emits the scenario-1 chunk sequence: an empty-content
// opener, two content deltas, a finish-reason chunk, then [DONE].
func streamTextTurn(w http.ResponseWriter, flusher http.Flusher, userText string) {
	first, second := "Hi", " there"
	if strings.Contains(strings.ToLower(userText), "count from 1 to 5") {
		first, second = "1, 2, 3,", " 4, 5"
	}

	writeChunk(w, legacy.Delta{Content: strPtr("")})
	flusher.Flush()
	writeChunk(w, legacy.Delta{Content: strPtr(first)})
	flusher.Flush()
	writeChunk(w, legacy.Delta{Content: strPtr(second)})
	flusher.Flush()
	writeFinishChunk(w, "stop")
	flusher.Flush()
	writeDone(w)
	flusher.Flush()
}

// streamToolCallTurn emits the scenario-2 chunk sequence: a tool-call
// opener carrying id/name, two argument-fragment deltas, then a
// finish_reason:"tool_calls" chunk and [DONE].
func streamToolCallTurn(w http.ResponseWriter, flusher http.Flusher) {
	writeChunk(w, legacy.Delta{
		ToolCalls: []legacy.ToolCallDelta{{
			Index:    0,
			ID:       "call_123",
			Function: legacy.ToolCallFuncDelta{Name: "get_weather", Arguments: ""},
		}},
	})
	flusher.Flush()
	writeChunk(w, legacy.Delta{
		ToolCalls: []legacy.ToolCallDelta{{Index: 0, Function: legacy.ToolCallFuncDelta{Arguments: `{"loc"`}}},
	})
	flusher.Flush()
	writeChunk(w, legacy.Delta{
		ToolCalls: []legacy.ToolCallDelta{{Index: 0, Function: legacy.ToolCallFuncDelta{Arguments: `:"SF"}`}}},
	})
	flusher.Flush()
	writeFinishChunk(w, "tool_calls")
	flusher.Flush()
	writeDone(w)
	flusher.Flush()
}

func writeChunk(w http.ResponseWriter, delta legacy.Delta) {
	chunk := legacy.ChatCompletionChunk{
		Choices: []legacy.Choice{{Delta: delta}},
	}
	data, _ := json.Marshal(chunk)
	fmt.Fprintf(w, "data: %s\n\n", data)
}

func writeFinishChunk(w http.ResponseWriter, reason string) {
	chunk := legacy.ChatCompletionChunk{
		Choices: []legacy.Choice{{Delta: legacy.Delta{}, FinishReason: strPtr(reason)}},
	}
	data, _ := json.Marshal(chunk)
	fmt.Fprintf(w, "data: %s\n\n", data)
}

func writeDone(w http.ResponseWriter) {
	fmt.Fprintf(w, "data: [DONE]\n\n")
}

func lastUserText(req legacy.ChatCompletionRequest) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role != "user" {
			continue
		}
		var s string
		if err := json.Unmarshal(req.Messages[i].Content, &s); err == nil {
			return s
		}
		var parts []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}
		if err := json.Unmarshal(req.Messages[i].Content, &parts); err == nil {
			var b strings.Builder
			for _, p := range parts {
				if p.Type == "text" || p.Type == "input_text" {
					b.WriteString(p.Text)
				}
			}
			return b.String()
		}
	}
	return ""
}

func strPtr(s string) *string { return &s }

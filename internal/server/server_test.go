package server

import (
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/websocket"

	"edgevision-go/internal/config"
)

func TestHandleConfig(t *testing.T) {
	srv := &Server{
		cfg: config.AppConfig{
			TargetSize: 96,
			Endpoint:   "tcp://localhost:31001",
			Workers:    2,
			Port:       9999,
		},
	}

	req := httptest.NewRequest("GET", "/config", nil)
	rec := httptest.NewRecorder()
	srv.handleConfig(rec, req)

	if rec.Code != 200 {
		t.Fatalf("unexpected status: %d", rec.Code)
	}

	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if payload["target_size"].(float64) != 96 {
		t.Fatalf("unexpected target_size: %v", payload["target_size"])
	}
	if payload["endpoint"].(string) != "tcp://localhost:31001" {
		t.Fatalf("unexpected endpoint: %v", payload["endpoint"])
	}
	if payload["port"].(float64) != 9999 {
		t.Fatalf("unexpected port: %v", payload["port"])
	}
}

func TestHandleStatusMergesClientCount(t *testing.T) {
	srv := &Server{
		clients: map[*websocket.Conn]*sync.Mutex{},
		statusFn: func() map[string]any {
			return map[string]any{
				"stream":  "receiving",
				"metrics": map[string]any{"frames_received_total": uint64(5)},
			}
		},
	}

	req := httptest.NewRequest("GET", "/status", nil)
	rec := httptest.NewRecorder()
	srv.handleStatus(rec, req)

	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	metrics, ok := payload["metrics"].(map[string]any)
	if !ok {
		t.Fatalf("missing metrics in status payload")
	}
	if metrics["ws_clients"].(float64) != 0 {
		t.Fatalf("unexpected ws_clients: %v", metrics["ws_clients"])
	}
	if payload["stream"].(string) != "receiving" {
		t.Fatalf("unexpected stream state: %v", payload["stream"])
	}
}

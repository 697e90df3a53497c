package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lormic/ecomax360/internal/poller"
	"github.com/lormic/ecomax360/internal/protocol"
)

type stubFetcher struct{}

func (stubFetcher) FetchBulkData(ctx context.Context) (protocol.Values, error) {
	return protocol.Decode(make([]byte, 200), []protocol.FieldSpec{
		{Key: "outside_temp", Offset: 186, Type: protocol.Float32},
	})
}

func (stubFetcher) FetchThermostatState(ctx context.Context) (protocol.Values, error) {
	return protocol.Decode(make([]byte, 105), []protocol.FieldSpec{
		{Key: "current_temp", Offset: 28, Type: protocol.Float32},
	})
}

// snapshotDoc mirrors the JSON wire shape of a snapshot; Value only
// implements the marshal direction.
type snapshotDoc struct {
	Bulk       map[string]float64 `json:"bulk"`
	Thermostat map[string]float64 `json:"thermostat"`
	UpdatedAt  time.Time          `json:"updated_at"`
	Stale      bool               `json:"stale"`
	LastError  string             `json:"last_error"`
}

// startPoller runs a fast poller and blocks until its first cycle
// completes.
func startPoller(t *testing.T) *poller.Poller {
	t.Helper()

	p := poller.New(stubFetcher{}, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go p.Run(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for p.Snapshot().UpdatedAt.IsZero() {
		if time.Now().After(deadline) {
			t.Fatal("Poller did not complete a cycle")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return p
}

func TestHandleValues(t *testing.T) {
	p := startPoller(t)
	s := New(":0", p)

	req := httptest.NewRequest(http.MethodGet, "/values", nil)
	rec := httptest.NewRecorder()
	s.handleValues(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /values status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var snapshot snapshotDoc
	if err := json.NewDecoder(rec.Body).Decode(&snapshot); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if snapshot.UpdatedAt.IsZero() {
		t.Error("Response snapshot has zero UpdatedAt")
	}
	if _, ok := snapshot.Bulk["outside_temp"]; !ok {
		t.Error("Response snapshot missing bulk outside_temp")
	}
}

func TestHandleValues_NoDataYet(t *testing.T) {
	p := poller.New(stubFetcher{}, time.Hour) // never runs
	s := New(":0", p)

	req := httptest.NewRequest(http.MethodGet, "/values", nil)
	rec := httptest.NewRecorder()
	s.handleValues(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("GET /values before first cycle status = %d, want 503", rec.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	p := startPoller(t)
	s := New(":0", p)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.handleHealth(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("GET /healthz status = %d, want 200", rec.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("Health status = %q, want ok", body["status"])
	}
}

func TestWebSocketStream(t *testing.T) {
	p := startPoller(t)
	s := New(":0", p)

	ts := httptest.NewServer(http.HandlerFunc(s.handleWebSocket))
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("WebSocket dial failed: %v", err)
	}
	defer conn.Close()
	defer resp.Body.Close()

	// The initial snapshot arrives without waiting for a poll tick.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var snapshot snapshotDoc
	if err := conn.ReadJSON(&snapshot); err != nil {
		t.Fatalf("Failed to read initial snapshot: %v", err)
	}
	if snapshot.UpdatedAt.IsZero() {
		t.Error("Initial snapshot has zero UpdatedAt")
	}
	if snapshot.Bulk == nil {
		t.Error("Initial snapshot missing bulk values")
	}

	// Subsequent poll cycles keep pushing updates.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&snapshot); err != nil {
		t.Fatalf("Failed to read pushed snapshot: %v", err)
	}
}

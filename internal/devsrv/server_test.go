package devsrv

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/atomo-dev/atomo/pkg/atom"
	"github.com/atomo-dev/atomo/pkg/inspect"
)

func testStore(t *testing.T) *atom.Store {
	t.Helper()
	s := atom.NewStore()
	count := atom.New(1, atom.WithLabel("count"))
	if err := atom.Set(s, count, 3); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return s
}

func TestSnapshotEndpoint(t *testing.T) {
	srv := New(testStore(t))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/snapshot")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %q", ct)
	}

	var g inspect.Graph
	if err := json.NewDecoder(resp.Body).Decode(&g); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(g.Nodes) != 1 || g.Nodes[0].Label != "count" || g.Nodes[0].Value != "3" {
		t.Errorf("unexpected snapshot: %+v", g.Nodes)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := New(testStore(t))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestWebSocketStreamsChanges(t *testing.T) {
	s := testStore(t)
	srv := New(s, WithInterval(10*time.Millisecond))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var g inspect.Graph
	if err := json.Unmarshal(payload, &g); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(g.Nodes) != 1 || g.Nodes[0].Value != "3" {
		t.Fatalf("unexpected first frame: %+v", g.Nodes)
	}

	// A write shows up as a fresh frame.
	count := atom.New(0, atom.WithLabel("extra"))
	if err := atom.Set(s, count, 7); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, payload, err = conn.ReadMessage()
	if err != nil {
		t.Fatalf("second read failed: %v", err)
	}
	if err := json.Unmarshal(payload, &g); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(g.Nodes) != 2 {
		t.Errorf("expected 2 nodes after write, got %d", len(g.Nodes))
	}
}

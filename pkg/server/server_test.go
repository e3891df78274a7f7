package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/chunkmaze/pkg/archive"
	"github.com/matzehuels/chunkmaze/pkg/catalog"
	mio "github.com/matzehuels/chunkmaze/pkg/io"
	"github.com/matzehuels/chunkmaze/pkg/pipeline"
)

func newTestServer(t *testing.T, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	logger := log.New(io.Discard)
	s := New(pipeline.NewRunner(nil, nil, logger), catalog.Default(), archive.NewMemoryStore(), opts...)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func do(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, data
}

func create(t *testing.T, base, body string) *mio.Layout {
	t.Helper()
	resp, data := do(t, http.MethodPost, base+"/v1/mazes", body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d: %s", resp.StatusCode, data)
	}
	var l mio.Layout
	if err := json.Unmarshal(data, &l); err != nil {
		t.Fatalf("decode layout: %v", err)
	}
	if resp.Header.Get("Location") != "/v1/mazes/"+l.ID {
		t.Errorf("Location = %q", resp.Header.Get("Location"))
	}
	return &l
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t)
	resp, data := do(t, http.MethodGet, ts.URL+"/healthz", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" || body["version"] == nil {
		t.Errorf("body = %v", body)
	}
}

func TestCreateAndGet(t *testing.T) {
	s, ts := newTestServer(t)
	l := create(t, ts.URL, `{"seed": 42, "budget": 5}`)

	if l.ID == "" || l.Seed != 42 || l.Budget != 5 {
		t.Errorf("layout id=%q seed=%d budget=%d", l.ID, l.Seed, l.Budget)
	}
	if s.Sessions() != 1 {
		t.Errorf("sessions = %d, want 1", s.Sessions())
	}

	resp, data := do(t, http.MethodGet, ts.URL+"/v1/mazes/"+l.ID, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d: %s", resp.StatusCode, data)
	}
	var got mio.Layout
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.ID != l.ID || len(got.Chunks) != len(l.Chunks) {
		t.Errorf("get returned %q with %d chunks, want %q with %d", got.ID, len(got.Chunks), l.ID, len(l.Chunks))
	}
}

func TestCreateEmptyBody(t *testing.T) {
	_, ts := newTestServer(t)
	l := create(t, ts.URL, "")
	if l.Budget != 10 {
		t.Errorf("budget = %d, want default 10", l.Budget)
	}
}

func TestCreateBadRequest(t *testing.T) {
	_, ts := newTestServer(t)
	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"seed":`},
		{"unknown field", `{"depth": 3}`},
		{"negative budget", `{"budget": -1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := do(t, http.MethodPost, ts.URL+"/v1/mazes", tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400: %s", resp.StatusCode, data)
			}
			var e errorResponse
			if err := json.Unmarshal(data, &e); err != nil || e.Error == "" || e.Code == "" {
				t.Errorf("error body = %s", data)
			}
		})
	}
}

func TestRegenerate(t *testing.T) {
	_, ts := newTestServer(t)
	l := create(t, ts.URL, `{"seed": 9, "budget": 3}`)

	resp, data := do(t, http.MethodPost, ts.URL+"/v1/mazes/"+l.ID+"/regenerate", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, data)
	}
	var got mio.Layout
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.ID != l.ID || got.Round != 1 || got.Budget != 8 {
		t.Errorf("regenerated id=%q round=%d budget=%d, want %q 1 8", got.ID, got.Round, got.Budget, l.ID)
	}

	// The archive follows the latest pass.
	_, data = do(t, http.MethodGet, ts.URL+"/v1/mazes", "")
	var runs []archive.Run
	if err := json.Unmarshal(data, &runs); err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Round != 1 {
		t.Errorf("runs = %+v", runs)
	}

	resp, _ = do(t, http.MethodPost, ts.URL+"/v1/mazes/nope/regenerate", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown session status = %d, want 404", resp.StatusCode)
	}
}

func TestArtifacts(t *testing.T) {
	_, ts := newTestServer(t)
	l := create(t, ts.URL, `{"seed": 5, "budget": 4}`)

	tests := []struct {
		format      string
		contentType string
		prefix      string
	}{
		{"svg", "image/svg+xml", "<svg"},
		{"dot", "text/vnd.graphviz; charset=utf-8", "digraph G {"},
		{"txt", "text/plain; charset=utf-8", ""},
		{"json", "application/json", "{"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			resp, data := do(t, http.MethodGet, ts.URL+"/v1/mazes/"+l.ID+"/"+tt.format+"?width=40&height=20", "")
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d: %s", resp.StatusCode, data)
			}
			if got := resp.Header.Get("Content-Type"); got != tt.contentType {
				t.Errorf("Content-Type = %q, want %q", got, tt.contentType)
			}
			if len(data) == 0 || !strings.HasPrefix(strings.TrimSpace(string(data)), tt.prefix) {
				t.Errorf("body = %.60q", data)
			}
		})
	}

	resp, _ := do(t, http.MethodGet, ts.URL+"/v1/mazes/"+l.ID+"/png", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("png status = %d, want 400", resp.StatusCode)
	}
}

func TestGetFallsBackToArchive(t *testing.T) {
	_, ts := newTestServer(t, WithMaxSessions(1))
	first := create(t, ts.URL, `{"seed": 1, "budget": 2}`)
	create(t, ts.URL, `{"seed": 2, "budget": 2}`)

	// The first session was evicted but its run is archived.
	resp, data := do(t, http.MethodGet, ts.URL+"/v1/mazes/"+first.ID, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, data)
	}
	resp, _ = do(t, http.MethodPost, ts.URL+"/v1/mazes/"+first.ID+"/regenerate", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("evicted session regenerate status = %d, want 404", resp.StatusCode)
	}

	resp, _ = do(t, http.MethodGet, ts.URL+"/v1/mazes/missing", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing status = %d, want 404", resp.StatusCode)
	}
}

func TestStream(t *testing.T) {
	s, ts := newTestServer(t)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/stream?seed=3&budget=4"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	counts := map[string]int{}
	var done *Event
	for done == nil {
		_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
		var e Event
		if err := conn.ReadJSON(&e); err != nil {
			t.Fatalf("read: %v (events so far %v)", err, counts)
		}
		counts[e.Type]++
		if e.Type == EventDone || e.Type == EventError {
			done = &e
		}
	}

	if done.Type != EventDone {
		t.Fatalf("stream ended with %s: %s", done.Type, done.Error)
	}
	if counts[EventGrowStart] != 1 || counts[EventGrowComplete] != 1 {
		t.Errorf("grow events = %v", counts)
	}
	if counts[EventPlacement] != done.Layout.Depth {
		t.Errorf("placements = %d, want depth %d", counts[EventPlacement], done.Layout.Depth)
	}
	if counts[EventSelection] != 2 {
		t.Errorf("selections = %d, want 2", counts[EventSelection])
	}
	if done.Layout.ID == "" || s.Sessions() != 1 {
		t.Errorf("stream should register a session, id=%q sessions=%d", done.Layout.ID, s.Sessions())
	}
}

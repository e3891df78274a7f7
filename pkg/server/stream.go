package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/chunkmaze/pkg/archive"
	"github.com/matzehuels/chunkmaze/pkg/geom"
	mio "github.com/matzehuels/chunkmaze/pkg/io"
	"github.com/matzehuels/chunkmaze/pkg/maze"
	"github.com/matzehuels/chunkmaze/pkg/observability"
	"github.com/matzehuels/chunkmaze/pkg/pipeline"
)

// Event types sent on /v1/stream.
const (
	EventGrowStart    = "grow_start"
	EventPlacement    = "placement"
	EventDeadEnd      = "dead_end"
	EventGrowComplete = "grow_complete"
	EventSelection    = "selection"
	EventDone         = "done"
	EventError        = "error"
)

// Event is one message on the generation stream.
type Event struct {
	Type      string         `json:"type"`
	Budget    int            `json:"budget,omitempty"`
	Depth     int            `json:"depth,omitempty"`
	Template  string         `json:"template,omitempty"`
	Position  *geom.Vec3     `json:"position,omitempty"`
	Yaw       float64        `json:"yaw,omitempty"`
	Socket    *maze.PointRef `json:"socket,omitempty"`
	Chunks    int            `json:"chunks,omitempty"`
	Frontier  int            `json:"frontier,omitempty"`
	Role      string         `json:"role,omitempty"`
	Attempts  int            `json:"attempts,omitempty"`
	Exhausted bool           `json:"exhausted,omitempty"`
	Layout    *mio.Layout    `json:"layout,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// streamHooks forwards generation events to a channel.
type streamHooks struct {
	ctx    context.Context
	events chan<- Event
}

var _ observability.GenerationHooks = (*streamHooks)(nil)

func (h *streamHooks) send(e Event) {
	select {
	case h.events <- e:
	case <-h.ctx.Done():
	}
}

func (h *streamHooks) OnGrowStart(_ context.Context, budget int) {
	h.send(Event{Type: EventGrowStart, Budget: budget})
}

func (h *streamHooks) OnPlacement(_ context.Context, depth int, templateID string, pose geom.Pose) {
	pos := pose.Position
	h.send(Event{Type: EventPlacement, Depth: depth, Template: templateID, Position: &pos, Yaw: pose.Yaw})
}

func (h *streamHooks) OnDeadEnd(_ context.Context, chunk, point int, at geom.Vec3) {
	h.send(Event{Type: EventDeadEnd, Socket: &maze.PointRef{Chunk: chunk, Point: point}, Position: &at})
}

func (h *streamHooks) OnGrowComplete(_ context.Context, depth, chunks, frontier int, _ time.Duration) {
	h.send(Event{Type: EventGrowComplete, Depth: depth, Chunks: chunks, Frontier: frontier})
}

func (h *streamHooks) OnSelection(_ context.Context, role string, attempts int, exhausted bool) {
	h.send(Event{Type: EventSelection, Role: role, Attempts: attempts, Exhausted: exhausted})
}

// handleStream upgrades to a websocket, runs one generation with the query
// parameters seed, budget and rounds, streams its events and finishes with
// a done event carrying the layout. The level is kept as a live session.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var req GenerateRequest
	req.Seed, _ = strconv.ParseUint(q.Get("seed"), 10, 64)
	req.Budget, _ = strconv.Atoi(q.Get("budget"))
	rounds, _ := strconv.Atoi(q.Get("rounds"))

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan Event, 64)
	go func() {
		defer close(events)
		hooks := &streamHooks{ctx: ctx, events: events}
		ps, err := pipeline.NewSession(s.lib, s.options(req), s.logger, pipeline.WithGenerationHooks(hooks))
		if err != nil {
			hooks.send(Event{Type: EventError, Error: err.Error()})
			return
		}
		id := uuid.NewString()
		l, err := ps.Generate(ctx)
		for i := 0; err == nil && i < rounds && i < pipeline.MaxRounds; i++ {
			l, err = ps.Regenerate(ctx)
		}
		l.ID = id
		s.addSession(id, ps)
		if run, aerr := archive.NewRun(l); aerr == nil {
			_ = s.store.Put(ctx, run)
		}
		if err != nil {
			hooks.send(Event{Type: EventError, Error: err.Error(), Layout: l})
			return
		}
		hooks.send(Event{Type: EventDone, Layout: l})
	}()

	// Reader: notice client close.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	for e := range events {
		b, err := json.Marshal(e)
		if err != nil {
			continue
		}
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			cancel()
			break
		}
	}
	for range events {
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"), time.Now().Add(time.Second))
}

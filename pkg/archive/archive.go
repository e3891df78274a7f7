// Package archive keeps a history of generated levels.
//
// A [Store] persists [Run] records: the run ID, a few summary columns, and
// the layout JSON. [Open] picks a backend from a DSN:
//
//	""                  in-memory store, lost on exit
//	"memory"            same
//	"sqlite:<path>"     embedded SQLite database
//	"mongodb://…"       MongoDB collection chunkmaze.runs
//
// The API server archives every generation so levels can be fetched and
// re-rendered after their session has expired.
package archive

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	errs "github.com/matzehuels/chunkmaze/pkg/errors"
	mio "github.com/matzehuels/chunkmaze/pkg/io"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

// DefaultListLimit bounds [Store.List] when no limit is given.
const DefaultListLimit = 50

// Run is an archived generation.
type Run struct {
	ID        string    `json:"id"`
	Seed      uint64    `json:"seed"`
	Round     int       `json:"round"`
	Budget    int       `json:"budget"`
	Chunks    int       `json:"chunks"`
	CreatedAt time.Time `json:"created_at"`
	// Layout is the layout JSON. List leaves it empty.
	Layout []byte `json:"-"`
}

// NewRun builds a record from a layout. The layout must carry an ID.
func NewRun(l *mio.Layout) (Run, error) {
	if l.ID == "" {
		return Run{}, errs.New(errs.ErrCodeInvalidInput, "layout has no run id")
	}
	data, err := mio.MarshalLayout(l)
	if err != nil {
		return Run{}, errs.Wrap(errs.ErrCodeInternal, err, "encode layout %s", l.ID)
	}
	return Run{
		ID:        l.ID,
		Seed:      l.Seed,
		Round:     l.Round,
		Budget:    l.Budget,
		Chunks:    len(l.Chunks),
		CreatedAt: time.Now().UTC(),
		Layout:    data,
	}, nil
}

// Decode parses the archived layout.
func (r Run) Decode() (*mio.Layout, error) {
	return mio.UnmarshalLayout(r.Layout)
}

// Store persists runs. Put replaces a run with the same ID.
type Store interface {
	Put(ctx context.Context, r Run) error
	Get(ctx context.Context, id string) (Run, error)
	// List returns the newest runs first, without their layouts.
	List(ctx context.Context, limit int) ([]Run, error)
	Close() error
}

// Open returns the store named by dsn.
func Open(ctx context.Context, dsn string) (Store, error) {
	switch {
	case dsn == "" || dsn == "memory":
		return NewMemoryStore(), nil
	case strings.HasPrefix(dsn, "sqlite:"):
		s, err := OpenSQLite(strings.TrimPrefix(dsn, "sqlite:"))
		if err != nil {
			return nil, err
		}
		return s, nil
	case strings.HasPrefix(dsn, "mongodb://"), strings.HasPrefix(dsn, "mongodb+srv://"):
		s, err := OpenMongo(ctx, dsn, "chunkmaze", "runs")
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, errs.New(errs.ErrCodeInvalidConfig, "unsupported archive %q (want memory, sqlite:<path> or mongodb://...)", dsn)
	}
}

func notFound(id string) error {
	return errs.Wrap(errs.ErrCodeRunNotFound, ErrNotFound, "run %s", id)
}

// MemoryStore is a process-local [Store].
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]Run
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]Run)}
}

func (s *MemoryStore) Put(_ context.Context, r Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.Layout = append([]byte(nil), r.Layout...)
	s.runs[r.ID] = r
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[id]
	if !ok {
		return Run{}, notFound(id)
	}
	return r, nil
}

func (s *MemoryStore) List(_ context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	s.mu.RLock()
	out := make([]Run, 0, len(s.runs))
	for _, r := range s.runs {
		r.Layout = nil
		out = append(out, r)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

package pipeline

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/chunkmaze/pkg/catalog"
	mio "github.com/matzehuels/chunkmaze/pkg/io"
	"github.com/matzehuels/chunkmaze/pkg/maze"
	"github.com/matzehuels/chunkmaze/pkg/observability"
	"github.com/matzehuels/chunkmaze/pkg/scene"
)

// Session owns a generator and the scene it builds into, so a level can be
// regenerated in place. Methods are safe for concurrent use; passes are
// serialized.
type Session struct {
	mu    sync.Mutex
	opts  Options
	scene *scene.Memory
	gen   *maze.Generator
	last  *maze.Report
}

// SessionOption configures a [Session].
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	hooks observability.GenerationHooks
}

// WithGenerationHooks routes generation events to h instead of the global
// registry.
func WithGenerationHooks(h observability.GenerationHooks) SessionOption {
	return func(c *sessionConfig) { c.hooks = h }
}

// NewSession validates opts and prepares a generator over lib.
func NewSession(lib *catalog.Library, opts Options, logger *log.Logger, sopts ...SessionOption) (*Session, error) {
	if err := opts.ValidateForGenerate(); err != nil {
		return nil, err
	}
	if logger != nil {
		opts.Logger = logger
	}
	var sc sessionConfig
	for _, o := range sopts {
		o(&sc)
	}

	mem := scene.NewMemory()
	gopts := []maze.Option{maze.WithLogger(opts.Logger)}
	if sc.hooks != nil {
		gopts = append(gopts, maze.WithHooks(sc.hooks))
	}
	gen, err := maze.NewGenerator(opts.GeneratorConfig(lib), mem, nil, gopts...)
	if err != nil {
		return nil, err
	}
	return &Session{opts: opts, scene: mem, gen: gen}, nil
}

// Generate runs a first-time pass. In strict mode an exhausted selection is
// returned as an error together with the layout.
func (s *Session) Generate(ctx context.Context) (*mio.Layout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rep, err := s.gen.Generate(ctx)
	return s.snapshot(rep), err
}

// Regenerate grows a larger level in place of the current one.
func (s *Session) Regenerate(ctx context.Context) (*mio.Layout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rep, err := s.gen.Regenerate(ctx)
	return s.snapshot(rep), err
}

// Layout returns the snapshot of the last pass, or nil before the first.
func (s *Session) Layout() *mio.Layout {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	return s.snapshot(s.last)
}

// Report returns the generator report of the last pass.
func (s *Session) Report() *maze.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Options returns the validated options.
func (s *Session) Options() Options { return s.opts }

func (s *Session) snapshot(rep *maze.Report) *mio.Layout {
	s.last = rep
	return mio.FromReport(rep, s.opts.Seed, s.scene)
}

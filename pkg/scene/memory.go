package scene

import (
	"sync"

	"github.com/google/uuid"

	"github.com/matzehuels/chunkmaze/pkg/geom"
)

// Entry is a live object in a [Memory] scene.
type Entry struct {
	Handle Handle
	Object
	// ControllerEnabled is only meaningful for actors.
	ControllerEnabled bool
	// Exit is set once the object has been decorated as the exit.
	Exit *ExitStyle
}

// Event is one recorded mutation, in call order.
type Event struct {
	Op     string
	Handle Handle
}

// Memory is a [Scene] and [NavBaker] that keeps everything in memory.
// It is safe for concurrent use so that observers can snapshot a level while
// a generator owns it.
type Memory struct {
	mu      sync.RWMutex
	entries map[Handle]*Entry
	order   []Handle
	events  []Event
	bakes   int
	record  bool
}

// NewMemory returns an empty scene.
func NewMemory() *Memory {
	return &Memory{entries: make(map[Handle]*Entry)}
}

// Record enables the mutation log returned by [Memory.Events].
func (m *Memory) Record(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record = on
}

func (m *Memory) log(op string, h Handle) {
	if m.record {
		m.events = append(m.events, Event{Op: op, Handle: h})
	}
}

func (m *Memory) Instantiate(obj Object) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()

	h := Handle(uuid.NewString())
	e := &Entry{Handle: h, Object: obj}
	if obj.Kind == KindPlayer || obj.Kind == KindEnemy {
		e.ControllerEnabled = true
	}
	m.entries[h] = e
	m.order = append(m.order, h)
	m.log("instantiate", h)
	return h
}

func (m *Memory) Destroy(h Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.destroy(h)
}

func (m *Memory) destroy(h Handle) {
	if _, ok := m.entries[h]; !ok {
		return
	}
	doomed := map[Handle]bool{h: true}
	for grew := true; grew; {
		grew = false
		for _, c := range m.order {
			if e := m.entries[c]; !doomed[c] && doomed[e.Parent] {
				doomed[c] = true
				grew = true
			}
		}
	}
	kept := m.order[:0]
	for _, c := range m.order {
		if doomed[c] {
			delete(m.entries, c)
			m.log("destroy", c)
			continue
		}
		kept = append(kept, c)
	}
	m.order = kept
}

func (m *Memory) SetParent(h, parent Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[h]; ok {
		e.Parent = parent
		m.log("parent", h)
	}
}

func (m *Memory) SetActive(h Handle, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[h]; ok {
		e.Active = active
		m.log("active", h)
	}
}

func (m *Memory) Find(kind Kind) (Handle, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, h := range m.order {
		if m.entries[h].Kind == kind {
			return h, true
		}
	}
	return "", false
}

func (m *Memory) Move(h Handle, pos geom.Vec3) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[h]; ok {
		e.Pose.Position = pos
		m.log("move", h)
	}
}

func (m *Memory) SetControllerEnabled(h Handle, enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[h]; ok {
		e.ControllerEnabled = enabled
		if enabled {
			m.log("controller_on", h)
		} else {
			m.log("controller_off", h)
		}
	}
}

func (m *Memory) DecorateExit(h Handle, style ExitStyle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[h]; ok {
		s := style
		e.Exit = &s
		m.log("exit", h)
	}
}

// Bake counts navigation bakes.
func (m *Memory) Bake() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bakes++
	m.log("bake", "")
}

// Bakes returns how many times [Memory.Bake] was called.
func (m *Memory) Bakes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bakes
}

// Get returns a copy of the entry for h.
func (m *Memory) Get(h Handle) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[h]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Entries returns copies of all live entries in creation order.
func (m *Memory) Entries() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entry, 0, len(m.order))
	for _, h := range m.order {
		out = append(out, *m.entries[h])
	}
	return out
}

// Count returns the number of live objects of the given kind.
func (m *Memory) Count(kind Kind) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, e := range m.entries {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Events returns the recorded mutation log.
func (m *Memory) Events() []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Event(nil), m.events...)
}

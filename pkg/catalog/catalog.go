// Package catalog holds the chunk templates a maze is assembled from.
//
// A [Template] is a pre-authored level segment: a collision volume plus an
// ordered list of sockets ([PointSpec]) where other chunks may attach. Sockets
// are declared up front when the template is registered; instances copy the
// list instead of discovering sockets at runtime.
//
// A [Library] partitions templates into reusable ones, which may be placed any
// number of times, and single-use ones, which may be placed at most once per
// generation pass.
//
// Libraries are loaded from TOML, YAML or JSON documents with [Load] or
// [Decode]; [Default] returns a small built-in library.
package catalog

import (
	"errors"
	"fmt"

	errs "github.com/matzehuels/chunkmaze/pkg/errors"
	"github.com/matzehuels/chunkmaze/pkg/geom"
)

// ErrEmptyLibrary is returned by [Library.Validate] when no reusable template
// exists to seed a maze with.
var ErrEmptyLibrary = errors.New("library has no reusable templates")

// PointSpec declares a socket on a template.
type PointSpec struct {
	// Name identifies the socket within its template.
	Name string `json:"name"`

	// Position is the socket's location in the template frame. Enemies and
	// exit decorations are placed here.
	Position geom.Vec3 `json:"position"`

	// Offset is the connection offset in the template frame. The point a
	// neighbour's socket must land on is the socket's world position plus
	// its rotated offset; when mating, the incoming chunk is translated so
	// that its own offset ends on that point.
	Offset geom.Vec3 `json:"offset"`

	// Marker names the dead-end cap shown while the socket is unconnected.
	// Empty means the socket has no marker.
	Marker string `json:"marker,omitempty"`
}

// Template is a placeable chunk.
type Template struct {
	ID     string      `json:"id"`
	Volume geom.Box    `json:"volume"`
	Points []PointSpec `json:"points"`
}

// Library is the catalog of templates available to a generator.
// A Library is immutable once validated; the generator copies what it needs
// into a per-pass drawable pool.
type Library struct {
	Reusable  []Template `json:"reusable"`
	SingleUse []Template `json:"single_use,omitempty"`
}

// Validate checks the library's structural invariants:
//   - at least one reusable template
//   - unique, well-formed template IDs across both partitions
//   - every template has a collision volume and at least one socket
//   - socket names unique within a template; marker names well-formed
func (l *Library) Validate() error {
	if l == nil || len(l.Reusable) == 0 {
		return errs.Wrap(errs.ErrCodeInvalidCatalog, ErrEmptyLibrary, "validate library")
	}

	seen := make(map[string]bool, len(l.Reusable)+len(l.SingleUse))
	check := func(t Template) error {
		if err := errs.ValidateTemplateID(t.ID); err != nil {
			return err
		}
		if seen[t.ID] {
			return errs.New(errs.ErrCodeInvalidTemplate, "duplicate template id %q", t.ID)
		}
		seen[t.ID] = true
		return t.Validate()
	}

	for _, t := range l.Reusable {
		if err := check(t); err != nil {
			return err
		}
	}
	for _, t := range l.SingleUse {
		if err := check(t); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks a single template.
func (t Template) Validate() error {
	if t.Volume.IsZero() {
		return errs.New(errs.ErrCodeInvalidTemplate, "template %q has no collision volume", t.ID)
	}
	if len(t.Points) == 0 {
		return errs.New(errs.ErrCodeInvalidTemplate, "template %q has no sockets", t.ID)
	}
	names := make(map[string]bool, len(t.Points))
	for i, p := range t.Points {
		if p.Name == "" {
			return errs.New(errs.ErrCodeInvalidTemplate, "template %q socket %d has no name", t.ID, i)
		}
		if names[p.Name] {
			return errs.New(errs.ErrCodeInvalidTemplate, "template %q has duplicate socket %q", t.ID, p.Name)
		}
		names[p.Name] = true
		if err := errs.ValidateMarkerName(p.Marker); err != nil {
			return fmt.Errorf("template %q socket %q: %w", t.ID, p.Name, err)
		}
	}
	return nil
}

// Template returns the template with the given ID from either partition.
func (l *Library) Template(id string) (Template, bool) {
	for _, t := range l.Reusable {
		if t.ID == id {
			return t, true
		}
	}
	for _, t := range l.SingleUse {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}

// Len returns the total number of templates.
func (l *Library) Len() int {
	return len(l.Reusable) + len(l.SingleUse)
}

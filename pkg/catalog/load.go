package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	errs "github.com/matzehuels/chunkmaze/pkg/errors"
	"github.com/matzehuels/chunkmaze/pkg/geom"
)

// Format identifies a library document encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath infers the document format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", errs.New(errs.ErrCodeInvalidFormat, "unsupported catalog extension %q (want .toml, .yaml, .yml or .json)", filepath.Ext(path))
	}
}

// Load reads, schema-checks and validates a library file.
func Load(path string) (*Library, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "catalog %s", path)
		}
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	lib, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lib, nil
}

// Decode parses a library document. The document is first decoded into an
// untyped value and checked against the embedded schema, then converted to
// a [Library] and validated semantically.
func Decode(data []byte, format Format) (*Library, error) {
	var doc map[string]any
	var err error
	switch format {
	case FormatTOML:
		err = toml.Unmarshal(data, &doc)
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	case FormatJSON:
		err = json.Unmarshal(data, &doc)
	default:
		return nil, errs.New(errs.ErrCodeInvalidFormat, "unsupported catalog format %q", format)
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidCatalog, err, "decode %s", format)
	}

	if err := ValidateSchema(doc); err != nil {
		return nil, err
	}

	normalized, err := json.Marshal(doc)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidCatalog, err, "normalize %s", format)
	}
	var f fileLibrary
	if err := json.Unmarshal(normalized, &f); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidCatalog, err, "decode %s", format)
	}

	lib := f.library()
	if err := lib.Validate(); err != nil {
		return nil, err
	}
	return lib, nil
}

// Encode writes lib in the given format. Offsets are always written
// explicitly so that a round trip does not depend on the default.
func Encode(w io.Writer, lib *Library, format Format) error {
	f := toFile(lib)
	switch format {
	case FormatTOML:
		return toml.NewEncoder(w).Encode(f)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(f); err != nil {
			return err
		}
		return enc.Close()
	case FormatJSON:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(f); err != nil {
			return err
		}
		_, err := w.Write(buf.Bytes())
		return err
	default:
		return errs.New(errs.ErrCodeInvalidFormat, "unsupported catalog format %q", format)
	}
}

type vec3 [3]float64

func (v vec3) geom() geom.Vec3 { return geom.V(v[0], v[1], v[2]) }

func fromGeom(v geom.Vec3) vec3 { return vec3{v.X, v.Y, v.Z} }

type fileLibrary struct {
	Reusable  []fileTemplate `json:"reusable" toml:"reusable" yaml:"reusable"`
	SingleUse []fileTemplate `json:"single_use,omitempty" toml:"single_use,omitempty" yaml:"single_use,omitempty"`
}

type fileTemplate struct {
	ID     string      `json:"id" toml:"id" yaml:"id"`
	Volume fileVolume  `json:"volume" toml:"volume" yaml:"volume"`
	Points []filePoint `json:"points" toml:"points" yaml:"points"`
}

type fileVolume struct {
	Center      *vec3 `json:"center,omitempty" toml:"center,omitempty" yaml:"center,omitempty"`
	HalfExtents vec3  `json:"half_extents" toml:"half_extents" yaml:"half_extents,flow"`
}

type filePoint struct {
	Name     string `json:"name" toml:"name" yaml:"name"`
	Position vec3   `json:"position" toml:"position" yaml:"position,flow"`
	Offset   *vec3  `json:"offset,omitempty" toml:"offset,omitempty" yaml:"offset,omitempty,flow"`
	Marker   string `json:"marker,omitempty" toml:"marker,omitempty" yaml:"marker,omitempty"`
}

func (f fileLibrary) library() *Library {
	lib := &Library{}
	for _, t := range f.Reusable {
		lib.Reusable = append(lib.Reusable, t.template())
	}
	for _, t := range f.SingleUse {
		lib.SingleUse = append(lib.SingleUse, t.template())
	}
	return lib
}

func (f fileTemplate) template() Template {
	t := Template{
		ID:     f.ID,
		Volume: geom.Box{HalfExtents: f.Volume.HalfExtents.geom()},
		Points: make([]PointSpec, 0, len(f.Points)),
	}
	if f.Volume.Center != nil {
		t.Volume.Center = f.Volume.Center.geom()
	}
	for _, p := range f.Points {
		pos := p.Position.geom()
		ps := PointSpec{
			Name:     p.Name,
			Position: pos,
			Offset:   DefaultOffset(pos),
			Marker:   p.Marker,
		}
		if p.Offset != nil {
			ps.Offset = p.Offset.geom()
		}
		t.Points = append(t.Points, ps)
	}
	return t
}

func toFile(lib *Library) fileLibrary {
	conv := func(ts []Template) []fileTemplate {
		out := make([]fileTemplate, 0, len(ts))
		for _, t := range ts {
			center := fromGeom(t.Volume.Center)
			ft := fileTemplate{
				ID:     t.ID,
				Volume: fileVolume{Center: &center, HalfExtents: fromGeom(t.Volume.HalfExtents)},
			}
			for _, p := range t.Points {
				off := fromGeom(p.Offset)
				ft.Points = append(ft.Points, filePoint{
					Name:     p.Name,
					Position: fromGeom(p.Position),
					Offset:   &off,
					Marker:   p.Marker,
				})
			}
			out = append(out, ft)
		}
		return out
	}
	f := fileLibrary{Reusable: conv(lib.Reusable)}
	if len(lib.SingleUse) > 0 {
		f.SingleUse = conv(lib.SingleUse)
	}
	return f
}

// DefaultOffset is the connection offset assumed for a socket at pos when a
// document omits one: half way from the chunk origin to the socket. Two
// facing sockets with default offsets meet exactly on their shared seam.
func DefaultOffset(pos geom.Vec3) geom.Vec3 {
	return pos.Scale(0.5)
}

package catalog

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	errs "github.com/matzehuels/chunkmaze/pkg/errors"
	"github.com/matzehuels/chunkmaze/pkg/geom"
)

const tomlLibrary = `
[[reusable]]
id = "hall"
  [reusable.volume]
  center = [0, 2, 0]
  half_extents = [5, 2, 5]
  [[reusable.points]]
  name = "east"
  position = [5, 0, 0]
  marker = "door_east"
  [[reusable.points]]
  name = "west"
  position = [-5, 0, 0]
  offset = [-1, 0, 0]

[[single_use]]
id = "shrine"
  [single_use.volume]
  half_extents = [3, 2, 3]
  [[single_use.points]]
  name = "door"
  position = [-3, 0, 0]
`

const yamlLibrary = `
reusable:
  - id: hall
    volume:
      center: [0, 2, 0]
      half_extents: [5, 2, 5]
    points:
      - name: east
        position: [5, 0, 0]
        marker: door_east
      - name: west
        position: [-5, 0, 0]
        offset: [-1, 0, 0]
single_use:
  - id: shrine
    volume:
      half_extents: [3, 2, 3]
    points:
      - name: door
        position: [-3, 0, 0]
`

const jsonLibrary = `{
  "reusable": [{
    "id": "hall",
    "volume": {"center": [0, 2, 0], "half_extents": [5, 2, 5]},
    "points": [
      {"name": "east", "position": [5, 0, 0], "marker": "door_east"},
      {"name": "west", "position": [-5, 0, 0], "offset": [-1, 0, 0]}
    ]
  }],
  "single_use": [{
    "id": "shrine",
    "volume": {"half_extents": [3, 2, 3]},
    "points": [{"name": "door", "position": [-3, 0, 0]}]
  }]
}`

func TestDecodeFormats(t *testing.T) {
	tests := []struct {
		format Format
		data   string
	}{
		{FormatTOML, tomlLibrary},
		{FormatYAML, yamlLibrary},
		{FormatJSON, jsonLibrary},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			lib, err := Decode([]byte(tt.data), tt.format)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if len(lib.Reusable) != 1 || len(lib.SingleUse) != 1 {
				t.Fatalf("partitions = %d/%d, want 1/1", len(lib.Reusable), len(lib.SingleUse))
			}

			hall := lib.Reusable[0]
			if hall.Volume.Center != geom.V(0, 2, 0) || hall.Volume.HalfExtents != geom.V(5, 2, 5) {
				t.Errorf("volume = %+v", hall.Volume)
			}
			if got := hall.Points[0].Offset; got != geom.V(2.5, 0, 0) {
				t.Errorf("default offset = %+v, want half the position", got)
			}
			if got := hall.Points[1].Offset; got != geom.V(-1, 0, 0) {
				t.Errorf("explicit offset = %+v", got)
			}
			if hall.Points[0].Marker != "door_east" || hall.Points[1].Marker != "" {
				t.Errorf("markers = %q, %q", hall.Points[0].Marker, hall.Points[1].Marker)
			}
			if c := lib.SingleUse[0].Volume.Center; c != geom.Zero {
				t.Errorf("missing center = %+v, want origin", c)
			}
		})
	}
}

func TestDecodeSchemaErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"no reusable", `{"single_use": []}`},
		{"empty reusable", `{"reusable": []}`},
		{"unknown field", `{"reusable": [], "extra": 1}`},
		{"short vector", `{"reusable": [{"id": "a", "volume": {"half_extents": [1, 1]}, "points": [{"name": "p", "position": [0, 0, 0]}]}]}`},
		{"no points", `{"reusable": [{"id": "a", "volume": {"half_extents": [1, 1, 1]}, "points": []}]}`},
		{"point without name", `{"reusable": [{"id": "a", "volume": {"half_extents": [1, 1, 1]}, "points": [{"position": [0, 0, 0]}]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data), FormatJSON)
			if !errs.Is(err, errs.ErrCodeInvalidCatalog) {
				t.Errorf("Decode() error = %v, want INVALID_CATALOG", err)
			}
		})
	}
}

func TestDecodeSemanticErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"duplicate id", `{"reusable": [
			{"id": "a", "volume": {"half_extents": [1, 1, 1]}, "points": [{"name": "p", "position": [1, 0, 0]}]},
			{"id": "a", "volume": {"half_extents": [1, 1, 1]}, "points": [{"name": "p", "position": [1, 0, 0]}]}]}`},
		{"bad id", `{"reusable": [{"id": "9lives", "volume": {"half_extents": [1, 1, 1]}, "points": [{"name": "p", "position": [1, 0, 0]}]}]}`},
		{"zero volume", `{"reusable": [{"id": "a", "volume": {"half_extents": [0, 1, 1]}, "points": [{"name": "p", "position": [1, 0, 0]}]}]}`},
		{"duplicate socket", `{"reusable": [{"id": "a", "volume": {"half_extents": [1, 1, 1]}, "points": [
			{"name": "p", "position": [1, 0, 0]}, {"name": "p", "position": [-1, 0, 0]}]}]}`},
		{"bad marker", `{"reusable": [{"id": "a", "volume": {"half_extents": [1, 1, 1]}, "points": [{"name": "p", "position": [1, 0, 0], "marker": "door east"}]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data), FormatJSON)
			if !errs.Is(err, errs.ErrCodeInvalidTemplate) {
				t.Errorf("Decode() error = %v, want INVALID_TEMPLATE", err)
			}
		})
	}
}

func TestDecodeUnsupportedFormat(t *testing.T) {
	_, err := Decode([]byte("{}"), Format("xml"))
	if !errs.Is(err, errs.ErrCodeInvalidFormat) {
		t.Errorf("error = %v, want INVALID_FORMAT", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rooms.yml")
	if err := os.WriteFile(path, []byte(yamlLibrary), 0o644); err != nil {
		t.Fatal(err)
	}

	lib, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if lib.Len() != 2 {
		t.Errorf("Len() = %d, want 2", lib.Len())
	}

	if _, err := Load(filepath.Join(dir, "missing.toml")); !errs.Is(err, errs.ErrCodeFileNotFound) {
		t.Errorf("missing file error = %v, want FILE_NOT_FOUND", err)
	}
	if _, err := Load(filepath.Join(dir, "rooms.txt")); !errs.Is(err, errs.ErrCodeInvalidFormat) {
		t.Errorf("bad extension error = %v, want INVALID_FORMAT", err)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	for _, format := range []Format{FormatTOML, FormatYAML, FormatJSON} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Encode(&buf, Default(), format); err != nil {
				t.Fatalf("Encode: %v", err)
			}
			lib, err := Decode(buf.Bytes(), format)
			if err != nil {
				t.Fatalf("Decode: %v\n%s", err, buf.String())
			}
			want := Default()
			if lib.Len() != want.Len() {
				t.Fatalf("Len() = %d, want %d", lib.Len(), want.Len())
			}
			for i, tmpl := range want.Reusable {
				got := lib.Reusable[i]
				if got.ID != tmpl.ID || len(got.Points) != len(tmpl.Points) || got.Volume != tmpl.Volume {
					t.Errorf("template %d = %+v, want %+v", i, got, tmpl)
				}
			}
		})
	}
}

func TestDefaultLibrary(t *testing.T) {
	lib := Default()
	if err := lib.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	cross, ok := lib.Template("cross")
	if !ok {
		t.Fatal("cross template missing")
	}
	if len(cross.Points) != 4 {
		t.Errorf("cross has %d sockets, want 4", len(cross.Points))
	}
	if _, ok := lib.Template("vault"); !ok {
		t.Error("vault template missing")
	}
	if _, ok := lib.Template("nope"); ok {
		t.Error("unexpected template")
	}
}

func TestValidateEmptyLibrary(t *testing.T) {
	var lib *Library
	err := lib.Validate()
	if !errs.Is(err, errs.ErrCodeInvalidCatalog) {
		t.Errorf("nil library error = %v", err)
	}

	lib = &Library{SingleUse: Default().SingleUse}
	if err := lib.Validate(); err == nil {
		t.Error("library with only single-use templates should be invalid")
	}
}

package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/chunkmaze/pkg/catalog"
)

func TestCatalogInitAndValidate(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"lib.toml", "lib.yaml", "lib.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if _, err := execute(t, "catalog", "init", path); err != nil {
				t.Fatalf("init: %v", err)
			}
			lib, err := catalog.Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if lib.Len() != catalog.Default().Len() {
				t.Errorf("templates = %d, want %d", lib.Len(), catalog.Default().Len())
			}
			if _, err := execute(t, "catalog", "validate", path); err != nil {
				t.Errorf("validate: %v", err)
			}
		})
	}
}

func TestCatalogInitRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lib.toml")
	writeFile(t, path, "# mine\n")

	if _, err := execute(t, "catalog", "init", path); err == nil {
		t.Fatal("expected error for existing file")
	}
	data, _ := os.ReadFile(path)
	if string(data) != "# mine\n" {
		t.Error("existing file was modified")
	}
	if _, err := execute(t, "catalog", "init", "--force", path); err != nil {
		t.Errorf("init --force: %v", err)
	}
}

func TestCatalogInitBadExtension(t *testing.T) {
	if _, err := execute(t, "catalog", "init", filepath.Join(t.TempDir(), "lib.ini")); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestCatalogValidateInvalid(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.toml")
	bad := filepath.Join(dir, "bad.toml")
	if _, err := execute(t, "catalog", "init", good); err != nil {
		t.Fatal(err)
	}
	writeFile(t, bad, "reusable = []\n")

	if _, err := execute(t, "catalog", "validate", good, bad); err == nil {
		t.Error("expected error when one catalog is invalid")
	}
}

func TestCatalogShow(t *testing.T) {
	out, err := execute(t, "catalog", "show")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	lib := catalog.Default()
	for _, tmpl := range append(lib.Reusable, lib.SingleUse...) {
		if !strings.Contains(out, tmpl.ID) {
			t.Errorf("table is missing template %q", tmpl.ID)
		}
	}
	if !strings.Contains(out, "single-use") {
		t.Error("table does not mark single-use templates")
	}
}

func TestCatalogSchema(t *testing.T) {
	out, err := execute(t, "catalog", "schema")
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("schema is not JSON: %v", err)
	}
}

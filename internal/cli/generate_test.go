package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	mio "github.com/matzehuels/chunkmaze/pkg/io"
	"github.com/matzehuels/chunkmaze/pkg/render"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestGenerateToStdout(t *testing.T) {
	out, err := execute(t, "generate", "--no-cache", "--seed", "7", "--budget", "6", "--width", "40", "--height", "16")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.ContainsRune(out, render.GlyphPlayer) {
		t.Errorf("plan has no player glyph:\n%s", out)
	}
	if n := strings.Count(out, "\n"); n != 16 {
		t.Errorf("plan has %d lines, want 16", n)
	}
}

func TestGenerateFiles(t *testing.T) {
	base := filepath.Join(t.TempDir(), "level")
	_, err := execute(t, "generate", "--no-cache", "--seed", "7", "--budget", "6", "--rounds", "1", "-f", "json,dot,txt", "-o", base)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	for _, ext := range []string{"json", "dot", "txt"} {
		if _, err := os.Stat(base + "." + ext); err != nil {
			t.Errorf("missing %s artifact: %v", ext, err)
		}
	}

	l, err := mio.ImportJSON(base + ".json")
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	if l.ID == "" {
		t.Error("exported layout has no run ID")
	}
	if l.Seed != 7 || l.Round != 1 {
		t.Errorf("seed=%d round=%d, want 7 and 1", l.Seed, l.Round)
	}
}

func TestGenerateBatchArchive(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "runs.db")
	_, err := execute(t, "generate", "--no-cache", "--seed", "3", "--budget", "5",
		"-n", "3", "-f", "json", "-o", filepath.Join(dir, "lvl"), "--archive", "sqlite:"+db)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	for _, name := range []string{"lvl-001.json", "lvl-002.json", "lvl-003.json"} {
		l, err := mio.ImportJSON(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if l.Budget != 5 {
			t.Errorf("%s budget = %d, want 5", name, l.Budget)
		}
	}
	if _, err := os.Stat(db); err != nil {
		t.Errorf("archive database not created: %v", err)
	}
}

func TestGenerateInvalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad format", []string{"generate", "--no-cache", "-f", "png"}},
		{"zero count", []string{"generate", "--no-cache", "-n", "0"}},
		{"negative budget", []string{"generate", "--no-cache", "--budget=-1"}},
		{"too many rounds", []string{"generate", "--no-cache", "--rounds", "99"}},
		{"missing catalog", []string{"generate", "--no-cache", "--catalog", "nope.toml"}},
		{"bad archive", []string{"generate", "--no-cache", "--archive", "ftp://x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, tt.args...); err == nil {
				t.Errorf("%v: expected error", tt.args)
			}
		})
	}
}

func TestRenderExportedLayout(t *testing.T) {
	dir := t.TempDir()
	layout := filepath.Join(dir, "level.json")
	if _, err := execute(t, "generate", "--no-cache", "--seed", "11", "--budget", "6", "-f", "json", "-o", layout); err != nil {
		t.Fatalf("generate: %v", err)
	}

	out, err := execute(t, "render", "--no-cache", layout, "--width", "30", "--height", "12")
	if err != nil {
		t.Fatalf("render txt: %v", err)
	}
	if !strings.ContainsRune(out, render.GlyphWall) {
		t.Errorf("render printed no walls:\n%s", out)
	}

	if _, err := execute(t, "render", "--no-cache", "-f", "dot,txt", layout); err != nil {
		t.Fatalf("render dot: %v", err)
	}
	dot, err := os.ReadFile(filepath.Join(dir, "level.dot"))
	if err != nil {
		t.Fatalf("dot artifact: %v", err)
	}
	if !strings.HasPrefix(string(dot), "digraph") {
		t.Errorf("dot artifact does not start with digraph: %.40q", dot)
	}
	if _, err := os.Stat(filepath.Join(dir, "level.txt")); err != nil {
		t.Errorf("txt artifact: %v", err)
	}
}

func TestRenderMissingFile(t *testing.T) {
	if _, err := execute(t, "render", "--no-cache", filepath.Join(t.TempDir(), "none.json")); err == nil {
		t.Error("expected error for missing layout")
	}
}

package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/chunkmaze/pkg/io"
	"github.com/matzehuels/chunkmaze/pkg/scene"
)

// Options configures link-graph rendering.
type Options struct {
	// Detailed adds the chunk pose and socket counts to node labels.
	// When false, only the template ID and chunk index are shown.
	Detailed bool
}

// ToDOT converts a layout's chunk link graph to Graphviz DOT format.
// Edges point from the chunk that was extended to the chunk placed against
// it, so the graph reads as the growth tree. The result can be rendered with
// [RenderSVG].
//
// Single-use chunks are drawn grey; the chunk carrying the exit is
// highlighted and the enemy chunk outlined in red.
func ToDOT(l *io.Layout, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=24, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontsize=16];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, c := range l.Chunks {
		label := fmtLabel(c, opts.Detailed)
		attrs := fmtAttrs(l, c, label)
		fmt.Fprintf(&buf, "  %q [%s];\n", nodeID(c.Index), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, k := range l.Links {
		from := l.Chunks[k.From.Chunk].Points[k.From.Point].Name
		to := l.Chunks[k.To.Chunk].Points[k.To.Point].Name
		fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", nodeID(k.From.Chunk), nodeID(k.To.Chunk), from+":"+to)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(i int) string { return "c" + strconv.Itoa(i) }

func fmtLabel(c io.Chunk, detailed bool) string {
	label := fmt.Sprintf("%s #%d", c.Template, c.Index)
	if !detailed {
		return label
	}
	open := 0
	for _, p := range c.Points {
		if p.MarkerActive {
			open++
		}
	}
	return fmt.Sprintf("%s\npos: %.1f %.1f %.1f\nyaw: %.0f\nsockets: %d (%d open)",
		label, c.Position.X, c.Position.Y, c.Position.Z, c.Yaw, len(c.Points), open)
}

func fmtAttrs(l *io.Layout, c io.Chunk, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch {
	case l.ExitMarked && l.Selection.Exit.Chunk == c.Index:
		attrs = append(attrs, "fillcolor=gold")
	case c.SingleUse:
		attrs = append(attrs, "fillcolor=lightgrey")
	}
	if l.Selection.Enemy.Chunk == c.Index && hasEnemy(l) {
		attrs = append(attrs, "color=red", "penwidth=3")
	}
	return attrs
}

func hasEnemy(l *io.Layout) bool {
	for _, s := range l.Spawns {
		if s.Kind == scene.KindEnemy {
			return true
		}
	}
	return false
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-based svg header with a plain
// viewBox so the image scales in a browser.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}

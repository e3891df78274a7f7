package pipeline

import (
	"bytes"
	"context"
	"fmt"

	mio "github.com/matzehuels/chunkmaze/pkg/io"
	"github.com/matzehuels/chunkmaze/pkg/render"
)

// Render generates output artifacts in the requested formats.
func Render(ctx context.Context, l *mio.Layout, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))

	var dot string
	if opts.Wants(FormatDOT) || opts.Wants(FormatSVG) {
		dot = render.ToDOT(l, render.Options{Detailed: opts.Detailed})
	}

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatJSON:
			var buf bytes.Buffer
			err = mio.WriteJSON(l, &buf)
			data = buf.Bytes()
		case FormatDOT:
			data = []byte(dot)
		case FormatSVG:
			data, err = render.RenderSVG(ctx, dot)
		case FormatTXT:
			data = []byte(render.ASCII(l, opts.Width, opts.Height) + "\n")
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

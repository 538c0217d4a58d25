package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/d3fig/pkg/scene"
	"github.com/matzehuels/d3fig/pkg/scene/sink"
)

// Render generates the requested artifacts for one document.
// index is the document's position in the run and keeps HTML container ids
// unique when an explicit FigID is shared by several figures.
func Render(ctx context.Context, doc *scene.Document, index int, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))

	var dot string
	if opts.Wants(FormatDOT) || opts.Wants(FormatSVG) {
		dot = sink.ToDOT(doc, sink.DOTOptions{Detailed: opts.Detailed})
	}

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatJSON:
			var jsonOpts []sink.JSONOption
			if opts.Indent {
				jsonOpts = append(jsonOpts, sink.WithIndent())
			}
			data, err = sink.RenderJSON(doc, jsonOpts...)
		case FormatHTML:
			data, err = sink.RenderHTML(doc, htmlConfig(opts.HTML, doc, index))
		case FormatDOT:
			data = []byte(dot)
		case FormatSVG:
			data, err = sink.RenderDOTSVG(ctx, dot)
		default:
			err = ValidateFormat(format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

func htmlConfig(cfg sink.HTMLConfig, doc *scene.Document, index int) sink.HTMLConfig {
	switch {
	case cfg.FigID == "":
		cfg.FigID = sink.FigIDFor(doc.ID)
	case index > 0:
		cfg.FigID = fmt.Sprintf("%s_%d", cfg.FigID, index)
	}
	return cfg
}

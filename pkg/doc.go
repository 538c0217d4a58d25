// Package pkg provides the libraries behind d3fig.
//
// # Overview
//
// d3fig turns a recorded sequence of figure-drawing calls into mpld3 figure
// documents: JSON objects holding every axes, every drawn element and the
// numeric data they plot, ready for the mpld3 browser runtime. Elements that
// plot the same columns share one dataset, so a figure with many lines over a
// common x axis stores that axis once.
//
// # Architecture
//
//	trace JSON
//	     ↓
//	[trace] parse and replay calls
//	     ↓
//	[scene] builder state machine and element encoding
//	     ↓            ↘
//	[dataset]         [scene/sink] JSON, HTML, DOT and SVG
//	column dedup
//
// [pipeline] runs these stages behind a [cache], [store] keeps finished
// documents, and [config] and [observability] carry settings and hooks.
//
// # Quick Start
//
//	b := scene.NewBuilder()
//	b.OpenFigure(scene.FigureProps{Width: 640, Height: 480})
//	b.OpenAxes(scene.AxesProps{BBox: [4]float64{0.1, 0.1, 0.8, 0.8}})
//	b.DrawLine(points, scene.CoordData, style, "")
//	b.CloseAxes()
//	doc, _ := b.CloseFigure()
//	out, _ := sink.RenderJSON(doc)
//
// [trace]: github.com/matzehuels/d3fig/pkg/trace
// [scene]: github.com/matzehuels/d3fig/pkg/scene
// [dataset]: github.com/matzehuels/d3fig/pkg/dataset
// [scene/sink]: github.com/matzehuels/d3fig/pkg/scene/sink
// [pipeline]: github.com/matzehuels/d3fig/pkg/pipeline
// [cache]: github.com/matzehuels/d3fig/pkg/cache
// [store]: github.com/matzehuels/d3fig/pkg/store
// [config]: github.com/matzehuels/d3fig/pkg/config
// [observability]: github.com/matzehuels/d3fig/pkg/observability
package pkg

// Package scene assembles drawing calls into serializable figure documents.
//
// # Overview
//
// A figure traversal walks a native plot and calls a [Builder] with a strict
// sequence of scope and draw operations:
//
//	b := scene.NewBuilder()
//	b.OpenFigure(scene.FigureProps{Width: 800, Height: 600})
//	b.OpenAxes(scene.AxesProps{BBox: [4]float64{0.1, 0.1, 0.8, 0.8}})
//	b.DrawLine(points, scene.CoordData, style, "")
//	b.CloseAxes()
//	doc, _ := b.CloseFigure()
//
// Each draw call is turned into a record by the [Encoder], which stores point
// arrays in the figure's [dataset.Registry] so that arrays shared between
// primitives are written once. Records refer to their points by dataset label
// and column index.
//
// # States
//
// The builder moves through three states:
//
//	Idle ──OpenFigure──▶ FigureOpen ──OpenAxes──▶ AxesOpen
//	  ▲                   │      ▲                  │
//	  └────CloseFigure────┘      └────CloseAxes─────┘
//
// Draw calls are legal only in AxesOpen; [Builder.Connect] is legal in
// FigureOpen and AxesOpen. Any operation issued in another state fails with a
// PROTOCOL_ERROR naming the expected and actual state. Malformed arrays fail
// with SHAPE_ERROR and unknown enumerated options with VALUE_ERROR. Errors are
// reported at the offending call; a figure that fails mid-build should be
// discarded by the caller. Documents already closed are never affected.
//
// # Identifiers
//
// Every primitive, axes and figure carries an id that is unique within its
// document. Callers may pass their own; an empty id makes the builder issue
// one from a per-figure counter. Figure ids default to random UUIDs.
//
// # Documents
//
// [Document] marshals to the JSON layout read by the mpld3 browser runtime:
// width, height, axes, data and plugins at the top level, and the lists
// lines, paths, markers, collections, texts and images on every axes. Empty
// lists are written as [] rather than omitted.
package scene

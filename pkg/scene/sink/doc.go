// Package sink writes finished figure documents in their output formats.
//
// # Overview
//
// A "sink" turns a [scene.Document] into bytes:
//
//   - JSON: the document as read by the mpld3 browser runtime
//   - HTML: a snippet (or full page) that loads d3 and mpld3 and draws the figure
//   - DOT: a Graphviz diagram of which primitives share which datasets
//   - SVG: the DOT diagram laid out by Graphviz
//
// # JSON Output
//
// [RenderJSON] writes compact JSON by default; [WithIndent] pretty-prints it.
// Non-finite coordinates are written as null.
//
// # HTML Output
//
// [RenderHTML] embeds the JSON document in the page template. Script URLs come
// from [HTMLConfig]; nothing is read from package-level state:
//
//	html, err := sink.RenderHTML(doc, sink.HTMLConfig{
//	    D3URL:    "https://d3js.org/d3.v3.min.js",
//	    MPLD3URL: "js/mpld3.v1.js",
//	})
//
// # Dataset Diagram
//
// [ToDOT] draws one node per dataset and one node per primitive that references
// a dataset, grouped by axes. Edges carry the column indices used. The diagram
// makes deduplication visible: lines plotted against a shared x-array all
// point to the same dataset node. [RenderDOTSVG] lays the diagram out with
// Graphviz.
package sink

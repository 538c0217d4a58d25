// Package trace reads recorded drawing-call sequences and replays them into a
// scene builder.
//
// # Overview
//
// A figure traversal running outside this process (for example a plotting
// library exporter) records the calls it would make on a [scene.Builder] as a
// JSON document:
//
//	{"calls": [
//	  {"op": "open_figure", "width": 800, "height": 600},
//	  {"op": "open_axes", "bbox": [0.1, 0.1, 0.8, 0.8], "xgrid": true},
//	  {"op": "draw_line", "data": [[0, 1], [1, 2]], "coordinates": "data",
//	   "style": {"color": "#0000FF", "linewidth": 1, "dasharray": "none", "alpha": 1, "zorder": 2}},
//	  {"op": "close_axes"},
//	  {"op": "close_figure"}
//	]}
//
// [Parse] decodes and checks every call up front; an unknown op fails with a
// VALUE_ERROR before anything is replayed. [Replay] then drives the builder
// call by call. Builder errors keep their code and are prefixed with the
// index and op of the failing call.
//
// # Ops
//
//   - open_figure: id, width, height (pixels), or figwidth, figheight and dpi
//   - open_axes: id, bbox, xlim, ylim, xgrid, ygrid, zoomable, axes, sharex, sharey, xlabel, ylabel
//   - draw_line, draw_markers: data, coordinates, style, id (markers also markerpath)
//   - draw_path: data, coordinates, pathcodes, style, offset, offsetcoordinates, id
//   - draw_path_collection: paths, pathcoordinates, pathtransforms, offsets,
//     offsetcoordinates, offsetorder, style, id
//   - draw_text: text, position, coordinates, style, id
//   - draw_image: data, extent, coordinates, style, id
//   - plugin: plugin ({type, id, ...params})
//   - close_axes, close_figure
//
// Point arrays may contain null for missing values; they are read as NaN.
// An empty point array ([]) is a valid N×2 array with no rows.
package trace

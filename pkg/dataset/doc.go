// Package dataset stores the coordinate arrays of one figure with
// column-level deduplication.
//
// # Overview
//
// Plotted series frequently share data: several lines drawn against the same
// x-array, a scatter plot whose offsets reuse a line's points. The [Registry]
// detects exact column matches and merges new arrays into an existing
// [Dataset] instead of storing them again. Primitives then reference columns
// by label and index through a [Ref].
//
// # Matching Rules
//
// [Registry.Add] scans datasets in creation order. A dataset is a candidate
// only when its row count equals the new array's. The first candidate in which
// at least one new column equals one of its existing columns wins, even when a
// later dataset would allow more reuse. Column equality is exact and bitwise:
// NaN matches a NaN with the same bit pattern and 0.0 does not match -0.0.
// When several existing columns are equal to a new one, the lowest index is
// used. Unmatched columns of the new array are appended to the winning
// dataset; if no candidate matches, a new dataset is created with the next
// label ("data01", "data02", ...).
//
// [Registry.AddN] also accepts arrays with no rows when the column count is
// given. All empty columns are equal, so such an array joins the first
// dataset without rows and resolves every column to index 0.
//
// Labels are never renumbered and columns are never removed or reordered, so a
// [Ref] handed out earlier stays valid for the lifetime of the figure.
//
// # Serialization
//
// [Registry.Table] flattens every dataset to a row-major [Table]. Tables encode
// non-finite values as JSON null and decode null back to NaN.
package dataset

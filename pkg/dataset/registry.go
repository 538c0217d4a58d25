package dataset

import (
	figerr "github.com/matzehuels/d3fig/pkg/errors"
)

// Default keys under which a primitive record names its dataset.
const (
	KeyData    = "data"
	KeyOffsets = "offsets"
)

// Ref points into a dataset: the label plus one column index per input column,
// in input order.
type Ref struct {
	Key     string // record key the label is stored under ("data", "offsets")
	Label   string
	Indices []int
}

// XIndex returns the column index of the first role.
func (r Ref) XIndex() int { return r.Indices[0] }

// YIndex returns the column index of the second role.
func (r Ref) YIndex() int { return r.Indices[1] }

// Stats counts registry activity for one figure.
type Stats struct {
	Adds            int // calls to Add that succeeded
	Created         int // datasets created
	Merged          int // adds resolved against an existing dataset
	ColumnsReused   int // new columns satisfied by an existing column
	ColumnsAppended int // new columns appended to an existing dataset
}

// Add returns the field-wise sum of s and o.
func (s Stats) Add(o Stats) Stats {
	return Stats{
		Adds:            s.Adds + o.Adds,
		Created:         s.Created + o.Created,
		Merged:          s.Merged + o.Merged,
		ColumnsReused:   s.ColumnsReused + o.ColumnsReused,
		ColumnsAppended: s.ColumnsAppended + o.ColumnsAppended,
	}
}

// Registry owns the distinct datasets of one figure.
// It is not safe for concurrent use.
type Registry struct {
	datasets []*Dataset
	stats    Stats
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add registers an N×M array (N rows, M >= 2 columns) and returns where its
// columns live. The array is given row-major, as points are.
//
// Existing datasets are scanned in creation order; the first one with the
// same row count that already holds at least one of the new columns absorbs
// the array, appending the columns it lacks. Otherwise a new dataset is
// created. See the package documentation for the exact matching rules.
//
// A ragged array, an empty array or one with fewer than two columns fails
// with a SHAPE_ERROR and leaves the registry unchanged. Use [Registry.AddN]
// when the column count is known and the array may have no rows.
func (r *Registry) Add(array [][]float64, key string) (Ref, error) {
	return r.AddN(array, 0, key)
}

// AddN is [Registry.Add] for an array of a known width. Every row must have
// exactly width columns. An array with no rows is accepted and stands for
// width empty columns; it matches the first existing dataset that also has
// no rows, resolving every column to index 0. A width of 0 takes the width
// from the first row.
func (r *Registry) AddN(array [][]float64, width int, key string) (Ref, error) {
	cols, err := toColumns(array, width)
	if err != nil {
		return Ref{}, err
	}
	if key == "" {
		key = KeyData
	}

	sums := make([]uint64, len(cols))
	for j, c := range cols {
		sums[j] = fingerprint(c)
	}

	rows := len(array)
	for _, d := range r.datasets {
		if d.rows != rows {
			continue
		}

		matches := make([]int, len(cols))
		found := false
		for j, c := range cols {
			matches[j] = d.find(c, sums[j])
			if matches[j] >= 0 {
				found = true
			}
		}
		if !found {
			continue
		}

		indices := make([]int, len(cols))
		for j, c := range cols {
			if matches[j] >= 0 {
				indices[j] = matches[j]
				r.stats.ColumnsReused++
				continue
			}
			indices[j] = d.appendColumn(c)
			r.stats.ColumnsAppended++
		}
		r.stats.Adds++
		r.stats.Merged++
		return Ref{Key: key, Label: d.label, Indices: indices}, nil
	}

	d := newDataset(Label(len(r.datasets)+1), cols)
	r.datasets = append(r.datasets, d)
	r.stats.Adds++
	r.stats.Created++

	indices := make([]int, len(cols))
	for j := range indices {
		indices[j] = j
	}
	return Ref{Key: key, Label: d.label, Indices: indices}, nil
}

// Reset drops every dataset, starting a fresh label namespace.
func (r *Registry) Reset() {
	r.datasets = nil
	r.stats = Stats{}
}

// Len returns the number of datasets.
func (r *Registry) Len() int { return len(r.datasets) }

// Stats returns the activity counters since the last Reset.
func (r *Registry) Stats() Stats { return r.stats }

// Dataset looks up a dataset by label.
func (r *Registry) Dataset(label string) (*Dataset, bool) {
	for _, d := range r.datasets {
		if d.label == label {
			return d, true
		}
	}
	return nil, false
}

// Datasets returns the datasets in creation order.
func (r *Registry) Datasets() []*Dataset {
	out := make([]*Dataset, len(r.datasets))
	copy(out, r.datasets)
	return out
}

// Table flattens every dataset into its row-major form keyed by label.
func (r *Registry) Table() map[string]Table {
	out := make(map[string]Table, len(r.datasets))
	for _, d := range r.datasets {
		out[d.label] = d.RowMajor()
	}
	return out
}

// toColumns validates array and transposes it. width is the required column
// count, or 0 to take it from the first row.
func toColumns(array [][]float64, width int) ([][]float64, error) {
	if width < 0 {
		return nil, figerr.Shape("negative width %d", width)
	}
	m := width
	if m == 0 {
		if len(array) == 0 {
			return nil, figerr.Shape("array has no rows; expected N×M with M >= 2")
		}
		m = len(array[0])
	}
	if m < 2 {
		return nil, figerr.Shape("array has %d column(s); expected at least 2", m)
	}
	for i, row := range array {
		if len(row) != m {
			if width > 0 {
				return nil, figerr.Shape("row %d has %d columns, want %d", i, len(row), m)
			}
			return nil, figerr.Shape("array is ragged: row %d has %d columns, row 0 has %d", i, len(row), m)
		}
	}

	cols := make([][]float64, m)
	for j := range cols {
		col := make([]float64, len(array))
		for i, row := range array {
			col[i] = row[j]
		}
		cols[j] = col
	}
	return cols, nil
}

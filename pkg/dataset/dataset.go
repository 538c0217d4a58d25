package dataset

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math"
	"strconv"
)

// Label returns the dataset label for the i-th created dataset (1-based).
func Label(i int) string {
	return fmt.Sprintf("data%02d", i)
}

// Dataset is an append-only set of equal-length numeric columns.
// The row count is fixed when the dataset is created.
type Dataset struct {
	label string
	rows  int
	cols  [][]float64
	sums  []uint64 // fingerprint per column, parallel to cols
}

func newDataset(label string, cols [][]float64) *Dataset {
	d := &Dataset{label: label, rows: len(cols[0])}
	for _, c := range cols {
		d.appendColumn(c)
	}
	return d
}

// Label returns the dataset's label.
func (d *Dataset) Label() string { return d.label }

// Rows returns the number of rows.
func (d *Dataset) Rows() int { return d.rows }

// NumColumns returns the number of columns.
func (d *Dataset) NumColumns() int { return len(d.cols) }

// Column returns a copy of column i.
func (d *Dataset) Column(i int) []float64 {
	out := make([]float64, d.rows)
	copy(out, d.cols[i])
	return out
}

// RowMajor returns the dataset as rows of column values.
func (d *Dataset) RowMajor() Table {
	t := make(Table, d.rows)
	for r := range t {
		row := make([]float64, len(d.cols))
		for c, col := range d.cols {
			row[c] = col[r]
		}
		t[r] = row
	}
	return t
}

// find returns the lowest index of a column equal to col, or -1.
func (d *Dataset) find(col []float64, sum uint64) int {
	for i, existing := range d.cols {
		if d.sums[i] == sum && sameBits(existing, col) {
			return i
		}
	}
	return -1
}

func (d *Dataset) appendColumn(col []float64) int {
	c := make([]float64, len(col))
	copy(c, col)
	d.cols = append(d.cols, c)
	d.sums = append(d.sums, fingerprint(c))
	return len(d.cols) - 1
}

func sameBits(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Float64bits(a[i]) != math.Float64bits(b[i]) {
			return false
		}
	}
	return true
}

func fingerprint(col []float64) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, v := range col {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}
	return h.Sum64()
}

// Table is a row-major numeric array as it appears in a serialized document.
type Table [][]float64

// MarshalJSON encodes the table, writing NaN and ±Inf as null.
func (t Table) MarshalJSON() ([]byte, error) {
	buf := make([]byte, 0, 16*len(t)+2)
	buf = append(buf, '[')
	for i, row := range t {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, '[')
		for j, v := range row {
			if j > 0 {
				buf = append(buf, ',')
			}
			buf = appendFloat(buf, v)
		}
		buf = append(buf, ']')
	}
	buf = append(buf, ']')
	return buf, nil
}

// UnmarshalJSON decodes a table, reading null as NaN.
func (t *Table) UnmarshalJSON(data []byte) error {
	var raw [][]*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Table, len(raw))
	for i, row := range raw {
		r := make([]float64, len(row))
		for j, v := range row {
			if v == nil {
				r[j] = math.NaN()
			} else {
				r[j] = *v
			}
		}
		out[i] = r
	}
	*t = out
	return nil
}

func appendFloat(b []byte, v float64) []byte {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return append(b, "null"...)
	}
	return strconv.AppendFloat(b, v, 'g', -1, 64)
}

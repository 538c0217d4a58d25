package scene

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/matzehuels/d3fig/pkg/dataset"
	figerr "github.com/matzehuels/d3fig/pkg/errors"
)

// =============================================================================
// Coordinates
// =============================================================================

// Coordinates names the space a point array is expressed in.
type Coordinates string

const (
	CoordData    Coordinates = "data"    // data space of the enclosing axes
	CoordAxes    Coordinates = "axes"    // fractions of the axes bounding box
	CoordFigure  Coordinates = "figure"  // fractions of the figure
	CoordDisplay Coordinates = "display" // pixels
)

var coordinateSet = []Coordinates{CoordData, CoordAxes, CoordFigure, CoordDisplay}

// ParseCoordinates converts a coordinate-system code to a [Coordinates].
// Unknown codes fail with a VALUE_ERROR listing the accepted set.
func ParseCoordinates(s string) (Coordinates, error) {
	c := Coordinates(s)
	if err := c.validate(); err != nil {
		return "", err
	}
	return c, nil
}

func (c Coordinates) validate() error {
	for _, ok := range coordinateSet {
		if c == ok {
			return nil
		}
	}
	return figerr.Value("unknown coordinate system %q (accepted: %s)", string(c), joinQuoted(coordinateSet))
}

// =============================================================================
// Path Geometry
// =============================================================================

// PathCode is an SVG-style path command.
type PathCode string

const (
	MoveTo    PathCode = "M"
	LineTo    PathCode = "L"
	Curve3    PathCode = "Q"
	Curve4    PathCode = "C"
	ClosePoly PathCode = "Z"
)

// vertices returns how many points a code consumes, or -1 for an unknown code.
func (c PathCode) vertices() int {
	switch c {
	case MoveTo, LineTo:
		return 1
	case Curve3:
		return 2
	case Curve4:
		return 3
	case ClosePoly:
		return 0
	}
	return -1
}

// checkCodes verifies that codes are known and consume exactly n points.
func checkCodes(codes []PathCode, n int) error {
	used := 0
	for i, c := range codes {
		v := c.vertices()
		if v < 0 {
			return figerr.Value("unknown path code %q at position %d (accepted: \"M\", \"L\", \"Q\", \"C\", \"Z\")", string(c), i)
		}
		used += v
	}
	if used != n {
		return figerr.Shape("path codes consume %d vertices, got %d points", used, n)
	}
	return nil
}

// PathGeometry is a small standalone path: a marker glyph or one member of a
// path collection. It is serialized as the pair [vertices, codes].
type PathGeometry struct {
	Vertices [][2]float64
	Codes    []PathCode
}

func (p PathGeometry) validate() error {
	for i, v := range p.Vertices {
		if !finite(v[0]) || !finite(v[1]) {
			return figerr.Value("path vertex %d is not finite", i)
		}
	}
	return checkCodes(p.Codes, len(p.Vertices))
}

// MarshalJSON encodes the path as [vertices, codes].
func (p PathGeometry) MarshalJSON() ([]byte, error) {
	verts := p.Vertices
	if verts == nil {
		verts = [][2]float64{}
	}
	codes := p.Codes
	if codes == nil {
		codes = []PathCode{}
	}
	return json.Marshal([2]any{verts, codes})
}

// UnmarshalJSON decodes a [vertices, codes] pair.
func (p *PathGeometry) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return figerr.Shape("path must be a [vertices, codes] pair, got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &p.Vertices); err != nil {
		return fmt.Errorf("path vertices: %w", err)
	}
	if err := json.Unmarshal(pair[1], &p.Codes); err != nil {
		return fmt.Errorf("path codes: %w", err)
	}
	return nil
}

// Affine is a 2D affine transform in SVG matrix order [a, b, c, d, e, f],
// mapping (x, y) to (a*x + c*y + e, b*x + d*y + f).
type Affine [6]float64

// Identity is the identity transform.
var Identity = Affine{1, 0, 0, 1, 0, 0}

// AffineFromMatrix reduces a 3×3 homogeneous matrix to its six linear and
// translation coefficients. The bottom row is ignored.
func AffineFromMatrix(m [3][3]float64) Affine {
	return Affine{m[0][0], m[1][0], m[0][1], m[1][1], m[0][2], m[1][2]}
}

// Apply maps a point through the transform.
func (t Affine) Apply(x, y float64) (float64, float64) {
	return t[0]*x + t[2]*y + t[4], t[1]*x + t[3]*y + t[5]
}

// OffsetOrder states whether a collection's offsets are applied before or
// after its per-path transforms.
type OffsetOrder string

const (
	OffsetBefore OffsetOrder = "before"
	OffsetAfter  OffsetOrder = "after"
)

// =============================================================================
// Primitive Records
// =============================================================================

// Line is an encoded polyline.
type Line struct {
	Data        string      `json:"data"`
	XIndex      int         `json:"xindex"`
	YIndex      int         `json:"yindex"`
	Coordinates Coordinates `json:"coordinates"`
	ID          string      `json:"id"`
	LineStyle
}

// Path is an encoded filled or stroked path.
type Path struct {
	Data              string      `json:"data"`
	XIndex            int         `json:"xindex"`
	YIndex            int         `json:"yindex"`
	Coordinates       Coordinates `json:"coordinates"`
	PathCodes         []PathCode  `json:"pathcodes"`
	ID                string      `json:"id"`
	Offset            *[2]float64 `json:"offset,omitempty"`
	OffsetCoordinates Coordinates `json:"offsetcoordinates,omitempty"`
	PathStyle
}

// Markers is an encoded set of marker glyphs, one per point.
type Markers struct {
	Data        string        `json:"data"`
	XIndex      int           `json:"xindex"`
	YIndex      int           `json:"yindex"`
	Coordinates Coordinates   `json:"coordinates"`
	ID          string        `json:"id"`
	MarkerPath  *PathGeometry `json:"markerpath,omitempty"`
	MarkerStyle
}

// Collection is an encoded batch of paths placed at dataset offsets.
type Collection struct {
	Offsets           string         `json:"offsets"`
	XIndex            int            `json:"xindex"`
	YIndex            int            `json:"yindex"`
	Paths             []PathGeometry `json:"paths"`
	PathTransforms    []Affine       `json:"pathtransforms"`
	OffsetCoordinates Coordinates    `json:"offsetcoordinates"`
	PathCoordinates   Coordinates    `json:"pathcoordinates"`
	OffsetOrder       OffsetOrder    `json:"offsetorder"`
	Alphas            []float64      `json:"alphas"`
	EdgeColors        []string       `json:"edgecolors"`
	FaceColors        []string       `json:"facecolors"`
	EdgeWidths        []float64      `json:"edgewidths"`
	ZOrder            float64        `json:"zorder"`
	ID                string         `json:"id"`
}

// Text is an encoded text label. Its position is literal, not a dataset
// reference.
type Text struct {
	Text        string      `json:"text"`
	Position    [2]float64  `json:"position"`
	Coordinates Coordinates `json:"coordinates"`
	HAnchor     string      `json:"h_anchor"`
	VBaseline   string      `json:"v_baseline"`
	Rotation    float64     `json:"rotation"`
	FontSize    float64     `json:"fontsize"`
	Color       string      `json:"color"`
	Alpha       float64     `json:"alpha"`
	ZOrder      float64     `json:"zorder"`
	ID          string      `json:"id"`
}

// Image is an encoded raster image. Style fields are written next to the
// fixed keys.
type Image struct {
	Data        string
	Extent      [4]float64
	Coordinates Coordinates
	Style       map[string]any
	ID          string
}

// reservedImageKeys cannot be overridden by image style fields.
var reservedImageKeys = []string{"data", "extent", "coordinates", "id"}

// MarshalJSON writes the image with its style merged into the object.
func (im Image) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(im.Style)+4)
	for k, v := range im.Style {
		m[k] = v
	}
	m["data"] = im.Data
	m["extent"] = im.Extent
	m["coordinates"] = im.Coordinates
	m["id"] = im.ID
	return json.Marshal(m)
}

// UnmarshalJSON reads an image, collecting unknown keys into Style.
func (im *Image) UnmarshalJSON(data []byte) error {
	var fixed struct {
		Data        string      `json:"data"`
		Extent      [4]float64  `json:"extent"`
		Coordinates Coordinates `json:"coordinates"`
		ID          string      `json:"id"`
	}
	if err := json.Unmarshal(data, &fixed); err != nil {
		return err
	}
	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, k := range reservedImageKeys {
		delete(all, k)
	}
	*im = Image{
		Data:        fixed.Data,
		Extent:      fixed.Extent,
		Coordinates: fixed.Coordinates,
		ID:          fixed.ID,
	}
	if len(all) > 0 {
		im.Style = all
	}
	return nil
}

// =============================================================================
// Scopes
// =============================================================================

// AxisSpec describes one axis line of an axes for the browser runtime.
type AxisSpec struct {
	Position   string    `json:"position"` // left, right, top or bottom
	NTicks     int       `json:"nticks,omitempty"`
	TickValues []float64 `json:"tickvalues,omitempty"`
	TickFormat string    `json:"tickformat,omitempty"`
}

var axisPositions = []string{"left", "right", "top", "bottom"}

func (a AxisSpec) validate() error {
	if !slices.Contains(axisPositions, a.Position) {
		return figerr.Value("unknown axis position %q (accepted: %s)", a.Position, joinQuoted(axisPositions))
	}
	return finiteSlice("axis "+a.Position, "tickvalues", a.TickValues)
}

// Axes is one coordinate system of a figure and its primitives.
type Axes struct {
	ID          string       `json:"id"`
	BBox        [4]float64   `json:"bbox"`
	XLim        [2]float64   `json:"xlim"`
	YLim        [2]float64   `json:"ylim"`
	XGridOn     bool         `json:"xgridOn"`
	YGridOn     bool         `json:"ygridOn"`
	Zoomable    bool         `json:"zoomable"`
	Axes        []AxisSpec   `json:"axes"`
	ShareX      []string     `json:"sharex"`
	ShareY      []string     `json:"sharey"`
	Lines       []Line       `json:"lines"`
	Paths       []Path       `json:"paths"`
	Markers     []Markers    `json:"markers"`
	Collections []Collection `json:"collections"`
	Texts       []Text       `json:"texts"`
	Images      []Image      `json:"images"`
}

func newAxes(id string) *Axes {
	return &Axes{
		ID:          id,
		Axes:        []AxisSpec{},
		ShareX:      []string{},
		ShareY:      []string{},
		Lines:       []Line{},
		Paths:       []Path{},
		Markers:     []Markers{},
		Collections: []Collection{},
		Texts:       []Text{},
		Images:      []Image{},
	}
}

// Document is one finished figure.
type Document struct {
	ID      string                   `json:"id"`
	Width   float64                  `json:"width"`
	Height  float64                  `json:"height"`
	Axes    []*Axes                  `json:"axes"`
	Data    map[string]dataset.Table `json:"data"`
	Plugins []Plugin                 `json:"plugins"`
}

// Refs lists every dataset reference made by the document's primitives.
func (d *Document) Refs() []dataset.Ref {
	var refs []dataset.Ref
	for _, ax := range d.Axes {
		for _, l := range ax.Lines {
			refs = append(refs, dataset.Ref{Key: dataset.KeyData, Label: l.Data, Indices: []int{l.XIndex, l.YIndex}})
		}
		for _, p := range ax.Paths {
			refs = append(refs, dataset.Ref{Key: dataset.KeyData, Label: p.Data, Indices: []int{p.XIndex, p.YIndex}})
		}
		for _, m := range ax.Markers {
			refs = append(refs, dataset.Ref{Key: dataset.KeyData, Label: m.Data, Indices: []int{m.XIndex, m.YIndex}})
		}
		for _, c := range ax.Collections {
			refs = append(refs, dataset.Ref{Key: dataset.KeyOffsets, Label: c.Offsets, Indices: []int{c.XIndex, c.YIndex}})
		}
	}
	return refs
}

// Primitives returns the number of primitive records in the document.
func (d *Document) Primitives() int {
	n := 0
	for _, ax := range d.Axes {
		n += len(ax.Lines) + len(ax.Paths) + len(ax.Markers) +
			len(ax.Collections) + len(ax.Texts) + len(ax.Images)
	}
	return n
}

// Validate checks that every dataset reference resolves to an existing column.
// A table with no rows carries no column count, so any non-negative index into
// it resolves to an empty column.
func (d *Document) Validate() error {
	for _, ref := range d.Refs() {
		t, ok := d.Data[ref.Label]
		if !ok {
			return figerr.Value("%s references unknown dataset %q", ref.Key, ref.Label)
		}
		for _, idx := range ref.Indices {
			if !hasColumn(t, idx) {
				return figerr.Value("%s references column %d of %q, which has %d", ref.Key, idx, ref.Label, width(t))
			}
		}
	}
	return nil
}

// Column extracts one column of a dataset table.
func (d *Document) Column(label string, idx int) ([]float64, bool) {
	t, ok := d.Data[label]
	if !ok || !hasColumn(t, idx) {
		return nil, false
	}
	col := make([]float64, len(t))
	for i, row := range t {
		col[i] = row[idx]
	}
	return col, true
}

func hasColumn(t dataset.Table, idx int) bool {
	if idx < 0 {
		return false
	}
	return len(t) == 0 || idx < len(t[0])
}

func width(t dataset.Table) int {
	if len(t) == 0 {
		return 0
	}
	return len(t[0])
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func joinQuoted[T ~string](vals []T) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprintf("%q", string(v))
	}
	return strings.Join(parts, ", ")
}

package trace

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/d3fig/pkg/dataset"
	figerr "github.com/matzehuels/d3fig/pkg/errors"
	"github.com/matzehuels/d3fig/pkg/scene"
)

// Op names a recorded builder call.
type Op string

const (
	OpOpenFigure         Op = "open_figure"
	OpOpenAxes           Op = "open_axes"
	OpDrawLine           Op = "draw_line"
	OpDrawPath           Op = "draw_path"
	OpDrawMarkers        Op = "draw_markers"
	OpDrawPathCollection Op = "draw_path_collection"
	OpDrawText           Op = "draw_text"
	OpDrawImage          Op = "draw_image"
	OpPlugin             Op = "plugin"
	OpCloseAxes          Op = "close_axes"
	OpCloseFigure        Op = "close_figure"
)

// Trace is a parsed call sequence.
type Trace struct {
	Calls []Call
}

// Call is one recorded builder call.
type Call struct {
	Op   Op
	Raw  json.RawMessage
	step step
}

// step applies one decoded call to a builder.
type step interface {
	apply(b *scene.Builder) error
}

// Figures returns the number of figures the trace opens.
func (t *Trace) Figures() int {
	return t.Count(OpOpenFigure)
}

// Count returns how many calls use op.
func (t *Trace) Count(op Op) int {
	n := 0
	for _, c := range t.Calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// ReadFile parses the trace stored at path.
func ReadFile(path string) (*Trace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(data)
}

// Read parses a trace from r.
func Read(r io.Reader) (*Trace, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}
	return Parse(data)
}

// Parse decodes a trace document and every call in it.
func Parse(data []byte) (*Trace, error) {
	var doc struct {
		Calls []json.RawMessage `json:"calls"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, figerr.Wrap(figerr.ErrCodeInvalidFormat, err, "decode trace")
	}

	t := &Trace{Calls: make([]Call, 0, len(doc.Calls))}
	for i, raw := range doc.Calls {
		var head struct {
			Op Op `json:"op"`
		}
		if err := json.Unmarshal(raw, &head); err != nil {
			return nil, figerr.Wrap(figerr.ErrCodeInvalidFormat, err, "call %d", i)
		}
		s, err := decodeStep(head.Op, raw)
		if err != nil {
			return nil, fmt.Errorf("call %d (%s): %w", i, head.Op, err)
		}
		t.Calls = append(t.Calls, Call{Op: head.Op, Raw: raw, step: s})
	}
	return t, nil
}

// MarshalJSON writes the trace in the form read by [Parse].
func (t *Trace) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"calls":[`)
	for i, c := range t.Calls {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(c.Raw)
	}
	buf.WriteString("]}")
	return buf.Bytes(), nil
}

func decodeStep(op Op, raw json.RawMessage) (step, error) {
	var s step
	switch op {
	case OpOpenFigure:
		s = &openFigure{}
	case OpOpenAxes:
		s = &openAxes{}
	case OpDrawLine:
		s = &drawLine{}
	case OpDrawPath:
		s = &drawPath{}
	case OpDrawMarkers:
		s = &drawMarkers{}
	case OpDrawPathCollection:
		s = &drawCollection{}
	case OpDrawText:
		s = &drawText{}
	case OpDrawImage:
		s = &drawImage{}
	case OpPlugin:
		s = &connect{}
	case OpCloseAxes:
		return closeAxes{}, nil
	case OpCloseFigure:
		return closeFigure{}, nil
	default:
		return nil, figerr.Value("unknown op %q", string(op))
	}
	if err := json.Unmarshal(raw, s); err != nil {
		return nil, figerr.Wrap(figerr.ErrCodeInvalidFormat, err, "decode %s", op)
	}
	return s, nil
}

// =============================================================================
// Call Arguments
// =============================================================================

type openFigure struct {
	ID        string  `json:"id"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	FigWidth  float64 `json:"figwidth"`
	FigHeight float64 `json:"figheight"`
	DPI       float64 `json:"dpi"`
}

func (c *openFigure) apply(b *scene.Builder) error {
	w, h := c.Width, c.Height
	if c.DPI > 0 && c.FigWidth > 0 && c.FigHeight > 0 {
		w, h = c.FigWidth*c.DPI, c.FigHeight*c.DPI
	}
	return b.OpenFigure(scene.FigureProps{ID: c.ID, Width: w, Height: h})
}

type textStyle struct {
	HAlign   string  `json:"halign"`
	VAlign   string  `json:"valign"`
	Rotation float64 `json:"rotation"`
	FontSize float64 `json:"fontsize"`
	Color    string  `json:"color"`
	Alpha    float64 `json:"alpha"`
	ZOrder   float64 `json:"zorder"`
}

func (s textStyle) scene() scene.TextStyle {
	return scene.TextStyle{
		HAlign:   s.HAlign,
		VAlign:   s.VAlign,
		Rotation: s.Rotation,
		FontSize: s.FontSize,
		Color:    s.Color,
		Alpha:    s.Alpha,
		ZOrder:   s.ZOrder,
	}
}

type label struct {
	Text        string            `json:"text"`
	Position    [2]float64        `json:"position"`
	Coordinates scene.Coordinates `json:"coordinates"`
	Style       textStyle         `json:"style"`
	ID          string            `json:"id"`
}

func (l *label) scene() scene.AxisLabel {
	if l == nil {
		return scene.AxisLabel{}
	}
	return scene.AxisLabel{
		Text:        l.Text,
		Position:    l.Position,
		Coordinates: l.Coordinates,
		Style:       l.Style.scene(),
		ID:          l.ID,
	}
}

type openAxes struct {
	ID       string           `json:"id"`
	BBox     [4]float64       `json:"bbox"`
	XLim     [2]float64       `json:"xlim"`
	YLim     [2]float64       `json:"ylim"`
	XGrid    bool             `json:"xgrid"`
	YGrid    bool             `json:"ygrid"`
	Zoomable bool             `json:"zoomable"`
	Axes     []scene.AxisSpec `json:"axes"`
	ShareX   []string         `json:"sharex"`
	ShareY   []string         `json:"sharey"`
	XLabel   *label           `json:"xlabel"`
	YLabel   *label           `json:"ylabel"`
}

func (c *openAxes) apply(b *scene.Builder) error {
	_, err := b.OpenAxes(scene.AxesProps{
		ID:       c.ID,
		BBox:     c.BBox,
		XLim:     c.XLim,
		YLim:     c.YLim,
		XGrid:    c.XGrid,
		YGrid:    c.YGrid,
		Zoomable: c.Zoomable,
		Axes:     c.Axes,
		ShareX:   c.ShareX,
		ShareY:   c.ShareY,
		XLabel:   c.XLabel.scene(),
		YLabel:   c.YLabel.scene(),
	})
	return err
}

type drawLine struct {
	Data        dataset.Table     `json:"data"`
	Coordinates scene.Coordinates `json:"coordinates"`
	Style       scene.LineStyle   `json:"style"`
	ID          string            `json:"id"`
}

func (c *drawLine) apply(b *scene.Builder) error {
	_, err := b.DrawLine(c.Data, c.Coordinates, c.Style, c.ID)
	return err
}

type drawPath struct {
	Data              dataset.Table     `json:"data"`
	Coordinates       scene.Coordinates `json:"coordinates"`
	PathCodes         []scene.PathCode  `json:"pathcodes"`
	Style             scene.PathStyle   `json:"style"`
	Offset            *[2]float64       `json:"offset"`
	OffsetCoordinates scene.Coordinates `json:"offsetcoordinates"`
	ID                string            `json:"id"`
}

func (c *drawPath) apply(b *scene.Builder) error {
	var off *scene.Offset
	if c.Offset != nil {
		coords := c.OffsetCoordinates
		if coords == "" {
			coords = scene.CoordData
		}
		off = &scene.Offset{Point: *c.Offset, Coordinates: coords}
	}
	_, err := b.DrawPath(c.Data, c.Coordinates, c.PathCodes, c.Style, off, c.ID)
	return err
}

type drawMarkers struct {
	Data        dataset.Table       `json:"data"`
	Coordinates scene.Coordinates   `json:"coordinates"`
	Style       scene.MarkerStyle   `json:"style"`
	MarkerPath  *scene.PathGeometry `json:"markerpath"`
	ID          string              `json:"id"`
}

func (c *drawMarkers) apply(b *scene.Builder) error {
	_, err := b.DrawMarkers(c.Data, c.Coordinates, c.Style, c.MarkerPath, c.ID)
	return err
}

type collectionStyle struct {
	Alphas     []float64 `json:"alphas"`
	EdgeColors []string  `json:"edgecolors"`
	FaceColors []string  `json:"facecolors"`
	EdgeWidths []float64 `json:"edgewidths"`
	ZOrder     float64   `json:"zorder"`
}

type drawCollection struct {
	Paths             []scene.PathGeometry `json:"paths"`
	PathCoordinates   scene.Coordinates    `json:"pathcoordinates"`
	PathTransforms    []scene.Affine       `json:"pathtransforms"`
	Offsets           dataset.Table        `json:"offsets"`
	OffsetCoordinates scene.Coordinates    `json:"offsetcoordinates"`
	OffsetOrder       scene.OffsetOrder    `json:"offsetorder"`
	Style             collectionStyle      `json:"style"`
	ID                string               `json:"id"`
}

func (c *drawCollection) apply(b *scene.Builder) error {
	_, err := b.DrawPathCollection(scene.CollectionProps{
		Paths:             c.Paths,
		PathCoordinates:   c.PathCoordinates,
		Transforms:        c.PathTransforms,
		Offsets:           c.Offsets,
		OffsetCoordinates: c.OffsetCoordinates,
		OffsetOrder:       c.OffsetOrder,
		Style: scene.CollectionStyle{
			Alphas:     c.Style.Alphas,
			EdgeColors: c.Style.EdgeColors,
			FaceColors: c.Style.FaceColors,
			EdgeWidths: c.Style.EdgeWidths,
			ZOrder:     c.Style.ZOrder,
		},
	}, c.ID)
	return err
}

type drawText struct {
	Text        string            `json:"text"`
	Position    [2]float64        `json:"position"`
	Coordinates scene.Coordinates `json:"coordinates"`
	Style       textStyle         `json:"style"`
	ID          string            `json:"id"`
}

func (c *drawText) apply(b *scene.Builder) error {
	_, err := b.DrawText(c.Text, c.Position, c.Coordinates, c.Style.scene(), c.ID)
	return err
}

type drawImage struct {
	Data        string            `json:"data"`
	Extent      [4]float64        `json:"extent"`
	Coordinates scene.Coordinates `json:"coordinates"`
	Style       map[string]any    `json:"style"`
	ID          string            `json:"id"`
}

func (c *drawImage) apply(b *scene.Builder) error {
	_, err := b.DrawImage(c.Data, c.Extent, c.Coordinates, c.Style, c.ID)
	return err
}

type connect struct {
	Plugin scene.Plugin `json:"plugin"`
}

func (c *connect) apply(b *scene.Builder) error {
	return b.Connect(c.Plugin)
}

type closeAxes struct{}

func (closeAxes) apply(b *scene.Builder) error { return b.CloseAxes() }

type closeFigure struct{}

func (closeFigure) apply(b *scene.Builder) error {
	_, err := b.CloseFigure()
	return err
}

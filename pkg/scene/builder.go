package scene

import (
	"fmt"
	"io"
	"math"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/d3fig/pkg/dataset"
	figerr "github.com/matzehuels/d3fig/pkg/errors"
)

// State is the position of a [Builder] in its open/close protocol.
type State int

const (
	StateIdle State = iota
	StateFigureOpen
	StateAxesOpen
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateFigureOpen:
		return "FigureOpen"
	case StateAxesOpen:
		return "AxesOpen"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// stateSet names several acceptable states in protocol errors.
type stateSet []State

func (s stateSet) String() string {
	parts := make([]string, len(s))
	for i, st := range s {
		parts[i] = st.String()
	}
	return strings.Join(parts, " or ")
}

// FigureProps describes a figure being opened. Width and Height are in
// pixels. An empty ID makes the builder issue one.
type FigureProps struct {
	ID     string
	Width  float64
	Height float64
}

// AxisLabel is an axis title. Labels with empty Text are not drawn.
type AxisLabel struct {
	Text        string
	Position    [2]float64
	Coordinates Coordinates
	Style       TextStyle
	ID          string
}

// AxesProps describes an axes being opened.
type AxesProps struct {
	ID       string
	BBox     [4]float64 // left, bottom, width, height as figure fractions
	XLim     [2]float64
	YLim     [2]float64
	XGrid    bool
	YGrid    bool
	Zoomable bool
	Axes     []AxisSpec
	ShareX   []string // ids of axes sharing the x scale
	ShareY   []string
	XLabel   AxisLabel
	YLabel   AxisLabel
}

func (p AxesProps) validate() error {
	if err := finiteSlice("axes", "bbox", p.BBox[:]); err != nil {
		return err
	}
	if err := finiteSlice("axes", "xlim", p.XLim[:]); err != nil {
		return err
	}
	if err := finiteSlice("axes", "ylim", p.YLim[:]); err != nil {
		return err
	}
	for _, a := range p.Axes {
		if err := a.validate(); err != nil {
			return err
		}
	}
	return nil
}

// Option configures a [Builder].
type Option func(*Builder)

// WithLogger sets the logger used for debug output. The default discards.
func WithLogger(l *log.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithFigureIDs sets the source of ids for figures opened without one.
// The default issues random UUIDs.
func WithFigureIDs(next func() string) Option {
	return func(b *Builder) {
		if next != nil {
			b.figureID = next
		}
	}
}

// Builder assembles figure documents from a sequence of scope and draw
// calls. It holds at most one open figure and is not safe for concurrent use.
type Builder struct {
	state State
	reg   *dataset.Registry
	enc   *Encoder

	fig  *Document
	ax   *Axes
	ids  map[string]struct{}
	seq  int
	done []*Document

	totals   dataset.Stats
	figureID func() string
	logger   *log.Logger
}

// NewBuilder creates an idle builder.
func NewBuilder(opts ...Option) *Builder {
	reg := dataset.NewRegistry()
	b := &Builder{
		reg:      reg,
		enc:      NewEncoder(reg),
		figureID: uuid.NewString,
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// State returns the current protocol state.
func (b *Builder) State() State { return b.state }

// =============================================================================
// Scopes
// =============================================================================

// OpenFigure starts a new figure with a fresh dataset namespace.
func (b *Builder) OpenFigure(props FigureProps) error {
	if err := b.expect("OpenFigure", StateIdle); err != nil {
		return err
	}
	if !(props.Width > 0) || !(props.Height > 0) || math.IsInf(props.Width, 0) || math.IsInf(props.Height, 0) {
		return figerr.Value("figure size must be positive, got %v×%v", props.Width, props.Height)
	}

	id := props.ID
	if id == "" {
		id = b.figureID()
	}
	b.reg.Reset()
	b.ids = map[string]struct{}{id: {}}
	b.seq = 0
	b.fig = &Document{
		ID:      id,
		Width:   props.Width,
		Height:  props.Height,
		Axes:    []*Axes{},
		Plugins: []Plugin{},
	}
	b.state = StateFigureOpen
	b.logger.Debug("figure opened", "id", id, "width", props.Width, "height", props.Height)
	return nil
}

// OpenAxes starts a coordinate system in the open figure and returns its id.
// Non-empty axis labels are added as text primitives of the new axes.
func (b *Builder) OpenAxes(props AxesProps) (string, error) {
	if err := b.expect("OpenAxes", StateFigureOpen); err != nil {
		return "", err
	}
	if err := props.validate(); err != nil {
		return "", err
	}
	id, err := b.newID(props.ID, "axes")
	if err != nil {
		return "", err
	}

	ax := newAxes(id)
	ax.BBox = props.BBox
	ax.XLim = props.XLim
	ax.YLim = props.YLim
	ax.XGridOn = props.XGrid
	ax.YGridOn = props.YGrid
	ax.Zoomable = props.Zoomable
	ax.Axes = append(ax.Axes, props.Axes...)
	ax.ShareX = withoutID(props.ShareX, id)
	ax.ShareY = withoutID(props.ShareY, id)

	// A failing label releases the ids claimed so far and leaves the figure
	// without the new axes.
	b.commit(id)
	claimed := []string{id}
	release := func() {
		for _, c := range claimed {
			delete(b.ids, c)
		}
	}
	for _, label := range [...]AxisLabel{props.XLabel, props.YLabel} {
		if label.Text == "" {
			continue
		}
		tid, err := b.newID(label.ID, "el")
		if err != nil {
			release()
			return "", fmt.Errorf("axis label %q: %w", label.Text, err)
		}
		rec, err := b.enc.Text(label.Text, label.Position, label.Coordinates, label.Style, tid)
		if err != nil {
			release()
			return "", fmt.Errorf("axis label %q: %w", label.Text, err)
		}
		b.commit(tid)
		claimed = append(claimed, tid)
		ax.Texts = append(ax.Texts, rec)
	}

	b.fig.Axes = append(b.fig.Axes, ax)
	b.ax = ax
	b.state = StateAxesOpen
	b.logger.Debug("axes opened", "id", id, "labels", len(ax.Texts))
	return id, nil
}

// CloseAxes ends the open axes.
func (b *Builder) CloseAxes() error {
	if err := b.expect("CloseAxes", StateAxesOpen); err != nil {
		return err
	}
	b.ax = nil
	b.state = StateFigureOpen
	return nil
}

// CloseFigure finalizes the open figure, appends it to the finished
// documents and returns it.
func (b *Builder) CloseFigure() (*Document, error) {
	if err := b.expect("CloseFigure", StateFigureOpen); err != nil {
		return nil, err
	}
	doc := b.fig
	doc.Data = b.reg.Table()

	stats := b.reg.Stats()
	b.totals = b.totals.Add(stats)
	b.done = append(b.done, doc)
	b.logger.Debug("figure closed",
		"id", doc.ID,
		"axes", len(doc.Axes),
		"datasets", len(doc.Data),
		"merged", stats.Merged,
		"reused", stats.ColumnsReused)

	b.reg.Reset()
	b.fig = nil
	b.ids = nil
	b.state = StateIdle
	return doc, nil
}

// Abort discards the open figure, if any, and returns the builder to Idle.
// Finished documents are kept.
func (b *Builder) Abort() {
	if b.state != StateIdle {
		b.logger.Debug("figure discarded", "id", b.fig.ID, "state", b.state)
	}
	b.reg.Reset()
	b.fig = nil
	b.ax = nil
	b.ids = nil
	b.state = StateIdle
}

// Finished returns the documents closed so far, oldest first.
func (b *Builder) Finished() []*Document {
	return slices.Clone(b.done)
}

// Drain returns the finished documents and forgets them.
func (b *Builder) Drain() []*Document {
	out := b.done
	b.done = nil
	return out
}

// Stats returns dataset registry counters summed over every figure opened
// since the builder was created.
func (b *Builder) Stats() dataset.Stats {
	if b.state == StateIdle {
		return b.totals
	}
	return b.totals.Add(b.reg.Stats())
}

// =============================================================================
// Primitives
// =============================================================================

// DrawLine adds a polyline to the open axes and returns its id.
func (b *Builder) DrawLine(points [][]float64, coords Coordinates, style LineStyle, id string) (string, error) {
	id, err := b.prepare("DrawLine", id)
	if err != nil {
		return "", err
	}
	rec, err := b.enc.Line(points, coords, style, id)
	if err != nil {
		return "", err
	}
	b.commit(id)
	b.ax.Lines = append(b.ax.Lines, rec)
	b.logger.Debug("line", "id", id, "data", rec.Data, "xindex", rec.XIndex, "yindex", rec.YIndex)
	return id, nil
}

// DrawPath adds a path to the open axes and returns its id.
func (b *Builder) DrawPath(points [][]float64, coords Coordinates, codes []PathCode, style PathStyle, offset *Offset, id string) (string, error) {
	id, err := b.prepare("DrawPath", id)
	if err != nil {
		return "", err
	}
	rec, err := b.enc.Path(points, coords, codes, style, offset, id)
	if err != nil {
		return "", err
	}
	b.commit(id)
	b.ax.Paths = append(b.ax.Paths, rec)
	b.logger.Debug("path", "id", id, "data", rec.Data, "xindex", rec.XIndex, "yindex", rec.YIndex)
	return id, nil
}

// DrawMarkers adds a marker set to the open axes and returns its id.
func (b *Builder) DrawMarkers(points [][]float64, coords Coordinates, style MarkerStyle, glyph *PathGeometry, id string) (string, error) {
	id, err := b.prepare("DrawMarkers", id)
	if err != nil {
		return "", err
	}
	rec, err := b.enc.Markers(points, coords, style, glyph, id)
	if err != nil {
		return "", err
	}
	b.commit(id)
	b.ax.Markers = append(b.ax.Markers, rec)
	b.logger.Debug("markers", "id", id, "data", rec.Data, "xindex", rec.XIndex, "yindex", rec.YIndex)
	return id, nil
}

// DrawPathCollection adds a path collection to the open axes and returns its id.
func (b *Builder) DrawPathCollection(props CollectionProps, id string) (string, error) {
	id, err := b.prepare("DrawPathCollection", id)
	if err != nil {
		return "", err
	}
	rec, err := b.enc.PathCollection(props, id)
	if err != nil {
		return "", err
	}
	b.commit(id)
	b.ax.Collections = append(b.ax.Collections, rec)
	b.logger.Debug("collection", "id", id, "offsets", rec.Offsets, "paths", len(rec.Paths))
	return id, nil
}

// DrawText adds a text label to the open axes and returns its id.
func (b *Builder) DrawText(content string, position [2]float64, coords Coordinates, style TextStyle, id string) (string, error) {
	id, err := b.prepare("DrawText", id)
	if err != nil {
		return "", err
	}
	rec, err := b.enc.Text(content, position, coords, style, id)
	if err != nil {
		return "", err
	}
	b.commit(id)
	b.ax.Texts = append(b.ax.Texts, rec)
	return id, nil
}

// DrawImage adds a raster image to the open axes and returns its id.
func (b *Builder) DrawImage(data string, extent [4]float64, coords Coordinates, style map[string]any, id string) (string, error) {
	id, err := b.prepare("DrawImage", id)
	if err != nil {
		return "", err
	}
	rec, err := b.enc.Image(data, extent, coords, style, id)
	if err != nil {
		return "", err
	}
	b.commit(id)
	b.ax.Images = append(b.ax.Images, rec)
	return id, nil
}

// Connect attaches a plugin to the open figure. The plugin's target must be
// the figure itself or an element already drawn in it. Plugins keep their
// attachment order. The params are copied.
func (b *Builder) Connect(p Plugin) error {
	if b.state != StateFigureOpen && b.state != StateAxesOpen {
		return figerr.Protocol("Connect", stateSet{StateFigureOpen, StateAxesOpen}, b.state)
	}
	if p.Type == "" {
		return figerr.Value("plugin has no type")
	}
	if _, ok := b.ids[p.ID]; !ok {
		return figerr.Value("plugin %s targets unknown element %q", p.Type, p.ID)
	}
	b.fig.Plugins = append(b.fig.Plugins, p.clone())
	return nil
}

// =============================================================================
// Helpers
// =============================================================================

func (b *Builder) expect(op string, want State) error {
	if b.state != want {
		return figerr.Protocol(op, want, b.state)
	}
	return nil
}

// prepare checks the state for a draw call and resolves its id.
func (b *Builder) prepare(op, id string) (string, error) {
	if err := b.expect(op, StateAxesOpen); err != nil {
		return "", err
	}
	return b.newID(id, "el")
}

// newID validates a caller id or issues a fresh one. The id is reserved only
// once commit is called.
func (b *Builder) newID(id, prefix string) (string, error) {
	if id != "" {
		if _, taken := b.ids[id]; taken {
			return "", figerr.Value("duplicate id %q in figure %q", id, b.fig.ID)
		}
		return id, nil
	}
	for {
		b.seq++
		id = fmt.Sprintf("%s%d", prefix, b.seq)
		if _, taken := b.ids[id]; !taken {
			return id, nil
		}
	}
}

func (b *Builder) commit(id string) {
	b.ids[id] = struct{}{}
}

func withoutID(ids []string, self string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != self {
			out = append(out, id)
		}
	}
	return out
}

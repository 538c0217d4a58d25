package scene

import (
	"fmt"
	"slices"

	"github.com/matzehuels/d3fig/pkg/dataset"
	figerr "github.com/matzehuels/d3fig/pkg/errors"
)

// Offset anchors a path at a single point given in its own coordinate system.
type Offset struct {
	Point       [2]float64
	Coordinates Coordinates
}

// CollectionProps describes a batch of small paths drawn at a set of offsets.
type CollectionProps struct {
	Paths             []PathGeometry
	PathCoordinates   Coordinates
	Transforms        []Affine // one per path, cycled by the runtime
	Offsets           [][]float64
	OffsetCoordinates Coordinates
	OffsetOrder       OffsetOrder // defaults to OffsetBefore
	Style             CollectionStyle
}

// Encoder turns drawing calls into primitive records, storing point arrays
// in a dataset registry. Arguments are fully validated before the registry is
// touched, so a failed call leaves it unchanged.
type Encoder struct {
	reg *dataset.Registry
}

// NewEncoder creates an encoder that stores point arrays in reg.
func NewEncoder(reg *dataset.Registry) *Encoder {
	return &Encoder{reg: reg}
}

// Line encodes an N×2 point array as a polyline.
func (e *Encoder) Line(points [][]float64, coords Coordinates, style LineStyle, id string) (Line, error) {
	if err := coords.validate(); err != nil {
		return Line{}, err
	}
	if err := style.validate(); err != nil {
		return Line{}, err
	}
	ref, err := e.addPoints(points, dataset.KeyData)
	if err != nil {
		return Line{}, err
	}
	return Line{
		Data:        ref.Label,
		XIndex:      ref.XIndex(),
		YIndex:      ref.YIndex(),
		Coordinates: coords,
		ID:          id,
		LineStyle:   style,
	}, nil
}

// Path encodes a path whose vertices are points and whose commands are codes.
// The codes must consume exactly len(points) vertices. A non-nil offset
// positions the path relative to one anchor point.
func (e *Encoder) Path(points [][]float64, coords Coordinates, codes []PathCode, style PathStyle, offset *Offset, id string) (Path, error) {
	if err := coords.validate(); err != nil {
		return Path{}, err
	}
	if err := style.validate(); err != nil {
		return Path{}, err
	}
	if err := checkCodes(codes, len(points)); err != nil {
		return Path{}, err
	}
	if offset != nil {
		if err := offset.Coordinates.validate(); err != nil {
			return Path{}, err
		}
		if !finite(offset.Point[0]) || !finite(offset.Point[1]) {
			return Path{}, figerr.Value("path offset %v is not finite", offset.Point)
		}
	}

	ref, err := e.addPoints(points, dataset.KeyData)
	if err != nil {
		return Path{}, err
	}
	p := Path{
		Data:        ref.Label,
		XIndex:      ref.XIndex(),
		YIndex:      ref.YIndex(),
		Coordinates: coords,
		PathCodes:   slices.Clone(codes),
		ID:          id,
		PathStyle:   style,
	}
	if offset != nil {
		pt := offset.Point
		p.Offset = &pt
		p.OffsetCoordinates = offset.Coordinates
	}
	return p, nil
}

// Markers encodes one marker per point. A non-nil glyph is the marker shape
// shared by every point.
func (e *Encoder) Markers(points [][]float64, coords Coordinates, style MarkerStyle, glyph *PathGeometry, id string) (Markers, error) {
	if err := coords.validate(); err != nil {
		return Markers{}, err
	}
	if err := style.validate(); err != nil {
		return Markers{}, err
	}
	if glyph != nil {
		if err := glyph.validate(); err != nil {
			return Markers{}, err
		}
	}

	ref, err := e.addPoints(points, dataset.KeyData)
	if err != nil {
		return Markers{}, err
	}
	m := Markers{
		Data:        ref.Label,
		XIndex:      ref.XIndex(),
		YIndex:      ref.YIndex(),
		Coordinates: coords,
		ID:          id,
		MarkerStyle: style,
	}
	if glyph != nil {
		g := clonePath(*glyph)
		m.MarkerPath = &g
	}
	return m, nil
}

// PathCollection encodes a batch of paths. Only the offsets go through the
// registry; paths, transforms and style arrays are written literally.
func (e *Encoder) PathCollection(c CollectionProps, id string) (Collection, error) {
	if err := c.PathCoordinates.validate(); err != nil {
		return Collection{}, err
	}
	if err := c.OffsetCoordinates.validate(); err != nil {
		return Collection{}, err
	}
	if err := c.Style.validate(); err != nil {
		return Collection{}, err
	}
	order := c.OffsetOrder
	switch order {
	case "":
		order = OffsetBefore
	case OffsetBefore, OffsetAfter:
	default:
		return Collection{}, figerr.Value("unknown offset order %q (accepted: %q, %q)", string(order), OffsetBefore, OffsetAfter)
	}
	paths := make([]PathGeometry, len(c.Paths))
	for i, p := range c.Paths {
		if err := p.validate(); err != nil {
			return Collection{}, fmt.Errorf("collection path %d: %w", i, err)
		}
		paths[i] = clonePath(p)
	}
	for i, t := range c.Transforms {
		for _, v := range t {
			if !finite(v) {
				return Collection{}, figerr.Value("collection transform %d is not finite", i)
			}
		}
	}

	ref, err := e.addPoints(c.Offsets, dataset.KeyOffsets)
	if err != nil {
		return Collection{}, err
	}
	return Collection{
		Offsets:           ref.Label,
		XIndex:            ref.XIndex(),
		YIndex:            ref.YIndex(),
		Paths:             paths,
		PathTransforms:    orEmpty(slices.Clone(c.Transforms)),
		OffsetCoordinates: c.OffsetCoordinates,
		PathCoordinates:   c.PathCoordinates,
		OffsetOrder:       order,
		Alphas:            orEmpty(slices.Clone(c.Style.Alphas)),
		EdgeColors:        orEmpty(slices.Clone(c.Style.EdgeColors)),
		FaceColors:        orEmpty(slices.Clone(c.Style.FaceColors)),
		EdgeWidths:        orEmpty(slices.Clone(c.Style.EdgeWidths)),
		ZOrder:            c.Style.ZOrder,
		ID:                id,
	}, nil
}

// Text encodes a text label at a literal position. Alignment keywords are
// translated to SVG anchors and the rotation is negated, since SVG rotates
// clockwise.
func (e *Encoder) Text(content string, position [2]float64, coords Coordinates, style TextStyle, id string) (Text, error) {
	if err := coords.validate(); err != nil {
		return Text{}, err
	}
	if err := style.validate(); err != nil {
		return Text{}, err
	}
	ha, err := HAnchor(style.HAlign)
	if err != nil {
		return Text{}, err
	}
	vb, err := VBaseline(style.VAlign)
	if err != nil {
		return Text{}, err
	}
	if !finite(position[0]) || !finite(position[1]) {
		return Text{}, figerr.Value("text position %v is not finite", position)
	}
	return Text{
		Text:        content,
		Position:    position,
		Coordinates: coords,
		HAnchor:     ha,
		VBaseline:   vb,
		Rotation:    -style.Rotation,
		FontSize:    style.FontSize,
		Color:       style.Color,
		Alpha:       style.Alpha,
		ZOrder:      style.ZOrder,
		ID:          id,
	}, nil
}

// Image encodes a raster image. data is the encoded image (base64 PNG) and
// extent its [x0, x1, y0, y1] placement. Style fields are merged into the
// record and may not reuse the record's own keys.
func (e *Encoder) Image(data string, extent [4]float64, coords Coordinates, style map[string]any, id string) (Image, error) {
	if err := coords.validate(); err != nil {
		return Image{}, err
	}
	for _, k := range reservedImageKeys {
		if _, ok := style[k]; ok {
			return Image{}, figerr.Value("image style may not set reserved key %q", k)
		}
	}
	if err := finiteSlice("image", "extent", extent[:]); err != nil {
		return Image{}, err
	}
	for k, v := range style {
		if f, ok := v.(float64); ok && !finite(f) {
			return Image{}, figerr.Value("image style %s is not finite: %v", k, f)
		}
	}
	var st map[string]any
	if len(style) > 0 {
		st = make(map[string]any, len(style))
		for k, v := range style {
			st[k] = v
		}
	}
	return Image{
		Data:        data,
		Extent:      extent,
		Coordinates: coords,
		Style:       st,
		ID:          id,
	}, nil
}

// addPoints registers an N×2 point array under key. N may be zero.
func (e *Encoder) addPoints(points [][]float64, key string) (dataset.Ref, error) {
	for i, p := range points {
		if len(p) != 2 {
			return dataset.Ref{}, figerr.Shape("%s must be N×2: row %d has %d columns", key, i, len(p))
		}
	}
	return e.reg.AddN(points, 2, key)
}

func clonePath(p PathGeometry) PathGeometry {
	return PathGeometry{
		Vertices: orEmpty(slices.Clone(p.Vertices)),
		Codes:    orEmpty(slices.Clone(p.Codes)),
	}
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

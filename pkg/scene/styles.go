package scene

import (
	"sort"

	figerr "github.com/matzehuels/d3fig/pkg/errors"
)

// LineStyle holds the style fields copied onto a [Line].
type LineStyle struct {
	Color     string  `json:"color"`
	LineWidth float64 `json:"linewidth"`
	DashArray string  `json:"dasharray"` // SVG stroke-dasharray, "none" for solid
	Alpha     float64 `json:"alpha"`
	ZOrder    float64 `json:"zorder"`
}

// PathStyle holds the style fields copied onto a [Path].
type PathStyle struct {
	DashArray string  `json:"dasharray"`
	Alpha     float64 `json:"alpha"`
	FaceColor string  `json:"facecolor"`
	EdgeColor string  `json:"edgecolor"`
	EdgeWidth float64 `json:"edgewidth"`
	ZOrder    float64 `json:"zorder"`
}

// MarkerStyle holds the style fields copied onto a [Markers] record.
type MarkerStyle struct {
	FaceColor string  `json:"facecolor"`
	EdgeColor string  `json:"edgecolor"`
	EdgeWidth float64 `json:"edgewidth"`
	Alpha     float64 `json:"alpha"`
	ZOrder    float64 `json:"zorder"`
}

// CollectionStyle carries the per-path style arrays of a collection. The
// arrays are written as given; the browser runtime cycles through shorter
// arrays.
type CollectionStyle struct {
	Alphas     []float64
	EdgeColors []string
	FaceColors []string
	EdgeWidths []float64
	ZOrder     float64
}

// TextStyle is the style of a text label as the traversal reports it.
// HAlign and VAlign use the plotting library's alignment keywords.
type TextStyle struct {
	HAlign   string  // left, center, right
	VAlign   string  // bottom, baseline, center, top
	Rotation float64 // degrees, counter-clockwise
	FontSize float64
	Color    string
	Alpha    float64
	ZOrder   float64
}

// field is a named numeric style value, for error messages.
type field struct {
	name string
	v    float64
}

// finiteFields fails with a VALUE_ERROR naming the first non-finite field.
func finiteFields(what string, fs ...field) error {
	for _, f := range fs {
		if !finite(f.v) {
			return figerr.Value("%s %s is not finite: %v", what, f.name, f.v)
		}
	}
	return nil
}

func finiteSlice(what, name string, vs []float64) error {
	for i, v := range vs {
		if !finite(v) {
			return figerr.Value("%s %s[%d] is not finite: %v", what, name, i, v)
		}
	}
	return nil
}

func (s LineStyle) validate() error {
	return finiteFields("line style",
		field{"linewidth", s.LineWidth}, field{"alpha", s.Alpha}, field{"zorder", s.ZOrder})
}

func (s PathStyle) validate() error {
	return finiteFields("path style",
		field{"alpha", s.Alpha}, field{"edgewidth", s.EdgeWidth}, field{"zorder", s.ZOrder})
}

func (s MarkerStyle) validate() error {
	return finiteFields("marker style",
		field{"edgewidth", s.EdgeWidth}, field{"alpha", s.Alpha}, field{"zorder", s.ZOrder})
}

func (s CollectionStyle) validate() error {
	if err := finiteSlice("collection style", "alphas", s.Alphas); err != nil {
		return err
	}
	if err := finiteSlice("collection style", "edgewidths", s.EdgeWidths); err != nil {
		return err
	}
	return finiteFields("collection style", field{"zorder", s.ZOrder})
}

func (s TextStyle) validate() error {
	return finiteFields("text style",
		field{"rotation", s.Rotation}, field{"fontsize", s.FontSize},
		field{"alpha", s.Alpha}, field{"zorder", s.ZOrder})
}

// Alignment keyword tables. The values are SVG text-anchor and
// dominant-baseline settings.
var (
	hAnchors = map[string]string{
		"left":   "start",
		"center": "middle",
		"right":  "end",
	}
	vBaselines = map[string]string{
		"bottom":   "auto",
		"baseline": "auto",
		"center":   "central",
		"top":      "hanging",
	}
)

// HAnchor maps a horizontal alignment keyword to an SVG text-anchor.
func HAnchor(align string) (string, error) {
	return lookup("horizontal alignment", hAnchors, align)
}

// VBaseline maps a vertical alignment keyword to an SVG dominant-baseline.
func VBaseline(align string) (string, error) {
	return lookup("vertical alignment", vBaselines, align)
}

func lookup(what string, table map[string]string, key string) (string, error) {
	if v, ok := table[key]; ok {
		return v, nil
	}
	accepted := make([]string, 0, len(table))
	for k := range table {
		accepted = append(accepted, k)
	}
	sort.Strings(accepted)
	return "", figerr.Value("unknown %s %q (accepted: %s)", what, key, joinQuoted(accepted))
}

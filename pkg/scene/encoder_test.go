package scene

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/matzehuels/d3fig/pkg/dataset"
	figerr "github.com/matzehuels/d3fig/pkg/errors"
)

func newEncoder() (*Encoder, *dataset.Registry) {
	reg := dataset.NewRegistry()
	return NewEncoder(reg), reg
}

func TestEncoderPathCodes(t *testing.T) {
	pts := [][]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	tests := []struct {
		name    string
		codes   []PathCode
		wantErr func(error) bool
	}{
		{"lines and close", []PathCode{MoveTo, LineTo, LineTo, LineTo, ClosePoly}, nil},
		{"cubic", []PathCode{MoveTo, Curve4}, nil},
		{"quadratic", []PathCode{MoveTo, Curve3, ClosePoly}, figerr.IsShape},
		{"quadratic plus line", []PathCode{MoveTo, Curve3, LineTo}, nil},
		{"too few codes", []PathCode{MoveTo, LineTo}, figerr.IsShape},
		{"too many codes", []PathCode{MoveTo, LineTo, LineTo, LineTo, LineTo}, figerr.IsShape},
		{"unknown code", []PathCode{MoveTo, "X", LineTo, LineTo}, figerr.IsValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, reg := newEncoder()
			_, err := enc.Path(pts, CoordData, tt.codes, PathStyle{}, nil, "p")
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Path() error: %v", err)
				}
				return
			}
			if !tt.wantErr(err) {
				t.Fatalf("Path() error = %v", err)
			}
			if reg.Len() != 0 {
				t.Error("failed call should not register data")
			}
		})
	}
}

func TestEncoderPathOffset(t *testing.T) {
	enc, _ := newEncoder()
	pts := [][]float64{{0, 0}, {1, 1}}
	codes := []PathCode{MoveTo, LineTo}

	p, err := enc.Path(pts, CoordDisplay, codes, PathStyle{}, &Offset{Point: [2]float64{3, 4}, Coordinates: CoordData}, "p")
	if err != nil {
		t.Fatalf("Path() error: %v", err)
	}
	data, _ := json.Marshal(p)
	if !strings.Contains(string(data), `"offset":[3,4]`) || !strings.Contains(string(data), `"offsetcoordinates":"data"`) {
		t.Errorf("json = %s", data)
	}

	p, _ = enc.Path(pts, CoordDisplay, codes, PathStyle{}, nil, "q")
	data, _ = json.Marshal(p)
	if strings.Contains(string(data), "offset") {
		t.Errorf("json without offset = %s", data)
	}

	_, err = enc.Path(pts, CoordDisplay, codes, PathStyle{}, &Offset{Point: [2]float64{0, 0}, Coordinates: "screen"}, "r")
	if !figerr.IsValue(err) {
		t.Errorf("bad offset coordinates error = %v, want VALUE_ERROR", err)
	}
}

func TestEncoderCoordinates(t *testing.T) {
	for _, c := range []string{"data", "axes", "figure", "display"} {
		if _, err := ParseCoordinates(c); err != nil {
			t.Errorf("ParseCoordinates(%q) error: %v", c, err)
		}
	}
	_, err := ParseCoordinates("pixels")
	if !figerr.IsValue(err) {
		t.Fatalf("ParseCoordinates(pixels) error = %v, want VALUE_ERROR", err)
	}
	if !strings.Contains(err.Error(), `"display"`) {
		t.Errorf("error should list accepted codes: %v", err)
	}

	enc, _ := newEncoder()
	if _, err := enc.Line([][]float64{{0, 0}}, "", LineStyle{}, "l"); !figerr.IsValue(err) {
		t.Errorf("Line() with empty coordinates error = %v, want VALUE_ERROR", err)
	}
}

func TestEncoderTextAlignment(t *testing.T) {
	tests := []struct {
		halign, valign string
		anchor, base   string
	}{
		{"left", "bottom", "start", "auto"},
		{"center", "baseline", "middle", "auto"},
		{"right", "center", "end", "central"},
		{"left", "top", "start", "hanging"},
	}
	enc, _ := newEncoder()
	for _, tt := range tests {
		txt, err := enc.Text("t", [2]float64{0, 0}, CoordAxes, TextStyle{HAlign: tt.halign, VAlign: tt.valign, Rotation: 90}, "t")
		if err != nil {
			t.Fatalf("Text(%s, %s) error: %v", tt.halign, tt.valign, err)
		}
		if txt.HAnchor != tt.anchor || txt.VBaseline != tt.base {
			t.Errorf("Text(%s, %s) = (%s, %s), want (%s, %s)", tt.halign, tt.valign, txt.HAnchor, txt.VBaseline, tt.anchor, tt.base)
		}
		if txt.Rotation != -90 {
			t.Errorf("Rotation = %v, want -90", txt.Rotation)
		}
	}

	_, err := enc.Text("t", [2]float64{0, 0}, CoordAxes, TextStyle{HAlign: "middle", VAlign: "top"}, "t")
	if !figerr.IsValue(err) || !strings.Contains(err.Error(), `"center", "left", "right"`) {
		t.Errorf("bad halign error = %v", err)
	}
	_, err = enc.Text("t", [2]float64{0, 0}, CoordAxes, TextStyle{HAlign: "left", VAlign: "middle"}, "t")
	if !figerr.IsValue(err) {
		t.Errorf("bad valign error = %v", err)
	}
	_, err = enc.Text("t", [2]float64{math.NaN(), 0}, CoordAxes, TextStyle{HAlign: "left", VAlign: "top"}, "t")
	if !figerr.IsValue(err) {
		t.Errorf("NaN position error = %v", err)
	}
}

func TestEncoderImage(t *testing.T) {
	enc, reg := newEncoder()
	im, err := enc.Image("AAAA", [4]float64{0, 10, 0, 5}, CoordData, map[string]any{"alpha": 0.5, "zorder": 1}, "img")
	if err != nil {
		t.Fatalf("Image() error: %v", err)
	}
	if reg.Len() != 0 {
		t.Error("images must not be registered as datasets")
	}

	data, _ := json.Marshal(im)
	var got map[string]any
	json.Unmarshal(data, &got)
	for _, k := range []string{"data", "extent", "coordinates", "id", "alpha", "zorder"} {
		if _, ok := got[k]; !ok {
			t.Errorf("image json missing %q: %s", k, data)
		}
	}

	var back Image
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("json.Unmarshal() error: %v", err)
	}
	if back.ID != "img" || back.Style["alpha"] != 0.5 || back.Extent[1] != 10 {
		t.Errorf("decoded = %+v", back)
	}

	for _, k := range reservedImageKeys {
		_, err := enc.Image("AAAA", [4]float64{}, CoordData, map[string]any{k: "x"}, "img")
		if !figerr.IsValue(err) {
			t.Errorf("style key %q error = %v, want VALUE_ERROR", k, err)
		}
	}
}

func TestEncoderCollection(t *testing.T) {
	enc, _ := newEncoder()
	props := CollectionProps{
		Paths:             []PathGeometry{{Vertices: [][2]float64{{0, 0}, {1, 0}, {0, 1}}, Codes: []PathCode{MoveTo, LineTo, LineTo, ClosePoly}}},
		PathCoordinates:   CoordDisplay,
		Transforms:        []Affine{{2, 0, 0, 2, 0, 0}},
		Offsets:           [][]float64{{1, 2}, {3, 4}, {5, 6}},
		OffsetCoordinates: CoordData,
		Style: CollectionStyle{
			Alphas:     []float64{1},
			EdgeColors: []string{"#000000"},
			FaceColors: []string{"#FF0000", "#00FF00", "#0000FF"},
			EdgeWidths: []float64{1},
			ZOrder:     1,
		},
	}
	c, err := enc.PathCollection(props, "c")
	if err != nil {
		t.Fatalf("PathCollection() error: %v", err)
	}
	if c.OffsetOrder != OffsetBefore {
		t.Errorf("OffsetOrder = %q, want before", c.OffsetOrder)
	}

	data, _ := json.Marshal(c)
	for _, want := range []string{
		`"offsets":"data01"`,
		`"paths":[[[[0,0],[1,0],[0,1]],["M","L","L","Z"]]]`,
		`"pathtransforms":[[2,0,0,2,0,0]]`,
		`"offsetcoordinates":"data"`,
		`"pathcoordinates":"display"`,
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("json missing %s: %s", want, data)
		}
	}

	bad := props
	bad.OffsetOrder = "during"
	if _, err := enc.PathCollection(bad, "c2"); !figerr.IsValue(err) {
		t.Errorf("bad offset order error = %v", err)
	}
	bad = props
	bad.Paths = []PathGeometry{{Vertices: [][2]float64{{0, 0}}, Codes: []PathCode{MoveTo, LineTo}}}
	if _, err := enc.PathCollection(bad, "c3"); !figerr.IsShape(err) {
		t.Errorf("bad path error = %v, want SHAPE_ERROR", err)
	}
	bad = props
	bad.Offsets = [][]float64{{1, 2, 3}}
	if _, err := enc.PathCollection(bad, "c4"); !figerr.IsShape(err) {
		t.Errorf("3-column offsets error = %v, want SHAPE_ERROR", err)
	}
}

func TestEncoderCopiesInputs(t *testing.T) {
	enc, _ := newEncoder()
	codes := []PathCode{MoveTo, LineTo}
	p, _ := enc.Path([][]float64{{0, 0}, {1, 1}}, CoordData, codes, PathStyle{}, nil, "p")
	codes[1] = ClosePoly
	if p.PathCodes[1] != LineTo {
		t.Error("Path should copy its codes")
	}
}

func TestAffineFromMatrix(t *testing.T) {
	m := [3][3]float64{
		{1, 2, 5},
		{3, 4, 6},
		{0, 0, 1},
	}
	got := AffineFromMatrix(m)
	want := Affine{1, 3, 2, 4, 5, 6}
	if got != want {
		t.Fatalf("AffineFromMatrix() = %v, want %v", got, want)
	}
	x, y := got.Apply(1, 1)
	if x != 1+2+5 || y != 3+4+6 {
		t.Errorf("Apply(1,1) = (%v,%v)", x, y)
	}
}

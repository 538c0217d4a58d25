package scene

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/matzehuels/d3fig/pkg/dataset"
)

func TestDocumentJSONKeys(t *testing.T) {
	b := NewBuilder()
	b.OpenFigure(FigureProps{ID: "f", Width: 640, Height: 480})
	b.OpenAxes(AxesProps{ID: "ax", BBox: [4]float64{0, 0, 1, 1}, XLim: [2]float64{0, 1}, YLim: [2]float64{-1, 1}})
	b.DrawLine([][]float64{{0, math.NaN()}, {1, 1}}, CoordData, solid, "l")
	b.CloseAxes()
	doc, _ := b.CloseFigure()

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("json.Marshal() error: %v", err)
	}

	var top map[string]json.RawMessage
	json.Unmarshal(data, &top)
	for _, k := range []string{"id", "width", "height", "axes", "data", "plugins"} {
		if _, ok := top[k]; !ok {
			t.Errorf("document missing key %q", k)
		}
	}
	if string(top["plugins"]) != "[]" {
		t.Errorf("plugins = %s, want []", top["plugins"])
	}
	if string(top["data"]) != `{"data01":[[0,null],[1,1]]}` {
		t.Errorf("data = %s", top["data"])
	}

	var axes []map[string]json.RawMessage
	json.Unmarshal(top["axes"], &axes)
	for _, k := range []string{"bbox", "xlim", "ylim", "xgridOn", "ygridOn", "sharex", "sharey",
		"lines", "paths", "markers", "collections", "texts", "images", "zoomable", "axes", "id"} {
		if _, ok := axes[0][k]; !ok {
			t.Errorf("axes missing key %q", k)
		}
	}
	for _, k := range []string{"paths", "markers", "collections", "texts", "images", "sharex", "sharey"} {
		if string(axes[0][k]) != "[]" {
			t.Errorf("axes %s = %s, want []", k, axes[0][k])
		}
	}

	var line map[string]any
	var lines []json.RawMessage
	json.Unmarshal(axes[0]["lines"], &lines)
	json.Unmarshal(lines[0], &line)
	for _, k := range []string{"data", "xindex", "yindex", "coordinates", "id", "color", "linewidth", "dasharray", "alpha", "zorder"} {
		if _, ok := line[k]; !ok {
			t.Errorf("line missing key %q", k)
		}
	}
}

func TestDocumentDecode(t *testing.T) {
	b := NewBuilder()
	b.OpenFigure(FigureProps{ID: "f", Width: 100, Height: 100})
	b.OpenAxes(AxesProps{})
	b.DrawMarkers([][]float64{{0, 0}, {1, 1}}, CoordData, MarkerStyle{FaceColor: "#FFFFFF"}, &PathGeometry{
		Vertices: [][2]float64{{0, 0}, {1, 1}},
		Codes:    []PathCode{MoveTo, LineTo},
	}, "m")
	b.Connect(PointLabelTooltip("m", []string{"a", "b"}))
	b.CloseAxes()
	doc, _ := b.CloseFigure()

	data, _ := json.Marshal(doc)
	var back Document
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("json.Unmarshal() error: %v", err)
	}
	m := back.Axes[0].Markers[0]
	if m.MarkerPath == nil || len(m.MarkerPath.Codes) != 2 || m.MarkerPath.Vertices[1] != [2]float64{1, 1} {
		t.Errorf("markerpath = %+v", m.MarkerPath)
	}
	if len(back.Plugins) != 1 || back.Plugins[0].ID != "m" || back.Plugins[0].Params["voffset"] != float64(10) {
		t.Errorf("plugins = %+v", back.Plugins)
	}
	if err := back.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

func TestDocumentValidateDangling(t *testing.T) {
	doc := &Document{
		Axes: []*Axes{{Lines: []Line{{Data: "data01", XIndex: 0, YIndex: 3}}}},
		Data: map[string]dataset.Table{"data01": {{1, 2}}},
	}
	if err := doc.Validate(); err == nil {
		t.Error("Validate() should reject an out-of-range column")
	}
	doc.Axes[0].Lines[0].Data = "data02"
	if err := doc.Validate(); err == nil {
		t.Error("Validate() should reject an unknown dataset")
	}
}

func TestPluginJSON(t *testing.T) {
	data, err := json.Marshal(PointLabelTooltip("pts", []string{"x"}))
	if err != nil {
		t.Fatalf("json.Marshal() error: %v", err)
	}
	want := `{"hoffset":0,"id":"pts","labels":["x"],"type":"pointlabel","voffset":10}`
	if string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}

	data, _ = json.Marshal(ResetButton("fig"))
	if string(data) != `{"id":"fig","type":"reset"}` {
		t.Errorf("reset json = %s", data)
	}

	var p Plugin
	if err := json.Unmarshal([]byte(`{"id":"x"}`), &p); err == nil {
		t.Error("plugin without type should fail to decode")
	}
}

func TestPathGeometryDecodeErrors(t *testing.T) {
	tests := []string{
		`[[[0,0]]]`,
		`{"vertices":[]}`,
		`[[[0,0]], "M"]`,
	}
	for _, in := range tests {
		var p PathGeometry
		if err := json.Unmarshal([]byte(in), &p); err == nil {
			t.Errorf("Unmarshal(%s) should fail", in)
		}
	}
}

func TestStateString(t *testing.T) {
	got := []string{StateIdle.String(), StateFigureOpen.String(), StateAxesOpen.String(), State(9).String()}
	if strings.Join(got, ",") != "Idle,FigureOpen,AxesOpen,State(9)" {
		t.Errorf("String() = %v", got)
	}
}

func TestDocumentValidateEmptyDataset(t *testing.T) {
	doc := &Document{
		Axes: []*Axes{{Lines: []Line{{Data: "data01", XIndex: 0, YIndex: 1}}}},
		Data: map[string]dataset.Table{"data01": {}},
	}
	if err := doc.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
	doc.Axes[0].Lines[0].YIndex = -1
	if err := doc.Validate(); err == nil {
		t.Error("Validate() should reject a negative column")
	}
}

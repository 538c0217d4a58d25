package cli

import (
	"bytes"
	"context"
	"reflect"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/d3fig/pkg/dataset"
	"github.com/matzehuels/d3fig/pkg/scene"
	"github.com/matzehuels/d3fig/pkg/trace"
)

func fixtureDocs(t *testing.T) []*scene.Document {
	docs, _ := fixtureBuild(t)
	return docs
}

func fixtureBuild(t *testing.T) ([]*scene.Document, dataset.Stats) {
	t.Helper()
	tr, err := trace.ReadFile(fixture)
	if err != nil {
		t.Fatal(err)
	}
	docs, stats, err := trace.Build(context.Background(), tr)
	if err != nil {
		t.Fatal(err)
	}
	return docs, stats
}

func TestSummaryRows(t *testing.T) {
	doc := fixtureDocs(t)[0]

	if got, want := figureRow(doc), []string{"fig01", "800×600", "1", "4", "1", "1"}; !reflect.DeepEqual(got, want) {
		t.Errorf("figureRow() = %v, want %v", got, want)
	}
	if got, want := axesRows(doc), [][]string{{"ax01", "2", "0", "1", "0", "1", "0"}}; !reflect.DeepEqual(got, want) {
		t.Errorf("axesRows() = %v, want %v", got, want)
	}
	// Both lines and the markers share data01: five rows, three columns.
	if got, want := datasetRows(doc), [][]string{{"data01", "5", "3", "3"}}; !reflect.DeepEqual(got, want) {
		t.Errorf("datasetRows() = %v, want %v", got, want)
	}
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	docs, stats := fixtureBuild(t)
	if err := writeSummary(&buf, docs, stats); err != nil {
		t.Fatalf("writeSummary() error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Figure", "fig01", "ax01", "data01", "1 datasets · 2 merged"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestFigureListModelNavigation(t *testing.T) {
	docs := fixtureDocs(t)
	docs = append(docs, docs[0])
	var m tea.Model = NewFigureListModel(docs)

	key := func(s string) tea.Msg {
		switch s {
		case "down":
			return tea.KeyMsg{Type: tea.KeyDown}
		case "enter":
			return tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			return tea.KeyMsg{Type: tea.KeyEsc}
		}
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}

	m, _ = m.Update(key("down"))
	m, _ = m.Update(key("down"))
	if got := m.(FigureListModel).Cursor; got != 1 {
		t.Errorf("cursor = %d, want 1 (clamped)", got)
	}

	m, _ = m.Update(key("enter"))
	if !m.(FigureListModel).Open {
		t.Fatal("enter should open the figure")
	}
	if view := m.View(); !strings.Contains(view, "Figure fig01") || !strings.Contains(view, "pointlabel") {
		t.Errorf("detail view = %s", view)
	}

	m, cmd := m.Update(key("esc"))
	if m.(FigureListModel).Open || cmd != nil {
		t.Error("esc should close the detail view without quitting")
	}

	_, cmd = m.Update(key("q"))
	if cmd == nil {
		t.Error("q should quit")
	}
}

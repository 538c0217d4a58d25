package cli

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/d3fig/pkg/config"
	"github.com/matzehuels/d3fig/pkg/pipeline"
	"github.com/matzehuels/d3fig/pkg/store"
)

const fixture = "../../pkg/trace/testdata/two_lines.json"

// testCLI returns a CLI with caching disabled and documents stored under a
// temporary directory.
func testCLI(t *testing.T) *CLI {
	t.Helper()
	c := New(io.Discard, log.InfoLevel)
	c.Config.CacheBackend = config.CacheNone
	c.Config.StoreBackend = config.StoreFile
	c.Config.StoreDir = t.TempDir()
	return c
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty defaults to json", "", []string{"json"}},
		{"single format", "html", []string{"html"}},
		{"multiple formats", "json,html,svg", []string{"json", "html", "svg"}},
		{"spaces and empty parts", " dot, ,svg ", []string{"dot", "svg"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseFormats(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseFormats(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		output, input, want string
	}{
		{"", "plots/trace.json", "plots/trace"},
		{"", "-", "figure"},
		{"out/fig.html", "trace.json", "out/fig"},
		{"out/fig", "trace.json", "out/fig"},
		{"out/fig.v2", "trace.json", "out/fig.v2"},
	}
	for _, tt := range tests {
		if got := basePath(tt.output, tt.input); got != tt.want {
			t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
		}
	}
}

func TestOutputPaths(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		figures int
		formats []string
		want    []map[string]string
	}{
		{
			name:    "single artifact goes to output",
			output:  "out.txt",
			figures: 1,
			formats: []string{"json"},
			want:    []map[string]string{{"json": "out.txt"}},
		},
		{
			name:    "stdout",
			output:  "-",
			figures: 1,
			formats: []string{"html"},
			want:    []map[string]string{{"html": "-"}},
		},
		{
			name:    "one figure several formats",
			output:  "",
			figures: 1,
			formats: []string{"json", "html"},
			want:    []map[string]string{{"json": "trace.json", "html": "trace.html"}},
		},
		{
			name:    "several figures are numbered",
			output:  "out/fig.json",
			figures: 2,
			formats: []string{"json"},
			want:    []map[string]string{{"json": "out/fig_1.json"}, {"json": "out/fig_2.json"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := outputPaths(tt.output, "trace.json", tt.figures, tt.formats)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("outputPaths() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRunRender(t *testing.T) {
	c := testCLI(t)
	dir := t.TempDir()
	out := filepath.Join(dir, "plot")

	opts := pipeline.Options{Formats: []string{pipeline.FormatJSON, pipeline.FormatHTML}}
	if err := c.runRender(context.Background(), fixture, opts, renderOpts{output: out, save: true}); err != nil {
		t.Fatalf("runRender() error: %v", err)
	}

	data, err := os.ReadFile(out + ".json")
	if err != nil {
		t.Fatalf("json output missing: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("json output invalid: %v", err)
	}
	if doc["id"] != "fig01" {
		t.Errorf("document id = %v, want fig01", doc["id"])
	}
	if _, err := os.Stat(out + ".html"); err != nil {
		t.Errorf("html output missing: %v", err)
	}

	st, err := store.NewFileStore(c.Config.StoreDir)
	if err != nil {
		t.Fatal(err)
	}
	rec, err := st.Get(context.Background(), "fig01")
	if err != nil {
		t.Fatalf("stored document missing: %v", err)
	}
	if rec.Width != 800 || rec.Height != 600 {
		t.Errorf("stored record = %+v", rec)
	}
}

func TestRunRenderMissingInput(t *testing.T) {
	c := testCLI(t)
	err := c.runRender(context.Background(), filepath.Join(t.TempDir(), "none.json"), pipeline.Options{Formats: []string{"json"}}, renderOpts{})
	if err == nil {
		t.Error("runRender() should fail for a missing trace")
	}
}

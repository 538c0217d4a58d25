// Package pipeline provides the trace → figures → artifacts pipeline for d3fig.
//
// The CLI commands and the figure server share this package so that a trace
// renders the same way everywhere.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Parse: decode the recorded call trace ([trace.Parse])
//  2. Build: replay it into a [scene.Builder], producing figure documents
//  3. Render: emit each document as JSON, HTML, DOT or SVG
//
// The whole result is cached under a key derived from the trace bytes and
// the render options, so re-rendering an unchanged trace is a cache read.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, traceData, pipeline.Options{
//	    Formats: []string{"json", "html"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	html := result.Figures[0]["html"]
//
// [trace.Parse]: github.com/matzehuels/d3fig/pkg/trace.Parse
// [scene.Builder]: github.com/matzehuels/d3fig/pkg/scene.Builder
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/d3fig/pkg/cache"
	"github.com/matzehuels/d3fig/pkg/dataset"
	figerr "github.com/matzehuels/d3fig/pkg/errors"
	"github.com/matzehuels/d3fig/pkg/scene"
	"github.com/matzehuels/d3fig/pkg/scene/sink"
)

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatHTML = "html"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatHTML: true,
	FormatDOT:  true,
	FormatSVG:  true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one pipeline run.
type Options struct {
	// Formats lists the artifacts to produce per figure. Defaults to json.
	Formats []string `json:"formats,omitempty"`

	// Indent pretty-prints the json artifact.
	Indent bool `json:"indent,omitempty"`

	// Figure selects a single figure by 1-based position; 0 renders all.
	Figure int `json:"figure,omitempty"`

	// HTML configures the html artifact. An empty FigID is derived from
	// the figure id.
	HTML sink.HTMLConfig `json:"html"`

	// Detailed adds dataset shapes to the dot and svg diagrams.
	Detailed bool `json:"detailed,omitempty"`

	// Refresh skips the cache lookup. The fresh result is still stored.
	Refresh bool `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// TraceHash is the content hash of the input trace.
	TraceHash string

	// Documents are the selected figure documents, in trace order.
	Documents []*scene.Document

	// Figures holds the rendered artifacts of each document, keyed by format.
	Figures []map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Calls    int
	Figures  int
	Datasets int

	// Registry sums the dataset registry counters over every figure.
	Registry dataset.Stats

	ParseTime  time.Duration
	BuildTime  time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache use for a run.
type CacheInfo struct {
	Key string
	Hit bool
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return figerr.New(figerr.ErrCodeUnsupported, "invalid format: %q (must be one of: json, html, dot, svg)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Figure < 0 {
		return figerr.New(figerr.ErrCodeInvalidInput, "figure must be positive, got %d", o.Figure)
	}
	if err := o.validateHTML(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetDefaults fills in unset fields.
func (o *Options) SetDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if o.HTML.D3URL == "" {
		o.HTML.D3URL = sink.DefaultD3URL
	}
	if o.HTML.MPLD3URL == "" {
		o.HTML.MPLD3URL = sink.DefaultMPLD3URL
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
}

func (o *Options) validateHTML() error {
	if err := figerr.ValidateURL(o.HTML.D3URL); err != nil {
		return fmt.Errorf("d3 url: %w", err)
	}
	if err := figerr.ValidateURL(o.HTML.MPLD3URL); err != nil {
		return fmt.Errorf("mpld3 url: %w", err)
	}
	return nil
}

// Wants reports whether format is requested.
func (o *Options) Wants(format string) bool {
	for _, f := range o.Formats {
		if f == format {
			return true
		}
	}
	return false
}

// ArtifactKeyOpts returns cache key options for this run.
func (o *Options) ArtifactKeyOpts() cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Formats:  o.Formats,
		Figure:   o.Figure,
		Indent:   o.Indent,
		Detailed: o.Detailed,
		D3URL:    o.HTML.D3URL,
		MPLD3URL: o.HTML.MPLD3URL,
		FigID:    o.HTML.FigID,
		Page:     o.HTML.Page,
		Title:    o.HTML.Title,
	}
}

package cache

import "sort"

// ArtifactKeyOpts lists the render options that change an artifact's bytes.
type ArtifactKeyOpts struct {
	Formats  []string `json:"formats"`
	Figure   int      `json:"figure"`
	Indent   bool     `json:"indent"`
	Detailed bool     `json:"detailed,omitempty"`
	D3URL    string   `json:"d3_url,omitempty"`
	MPLD3URL string   `json:"mpld3_url,omitempty"`
	FigID    string   `json:"figid,omitempty"`
	Page     bool     `json:"page,omitempty"`
	Title    string   `json:"title,omitempty"`
}

// Keyer generates cache keys.
type Keyer interface {
	// ArtifactKey keys the rendered output of a trace.
	ArtifactKey(traceHash string, opts ArtifactKeyOpts) string

	// DocumentKey keys a single stored figure document.
	DocumentKey(id string) string
}

// DefaultKeyer produces unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ArtifactKey hashes the trace hash with the options. Format order does not
// matter.
func (DefaultKeyer) ArtifactKey(traceHash string, opts ArtifactKeyOpts) string {
	formats := append([]string(nil), opts.Formats...)
	sort.Strings(formats)
	opts.Formats = formats
	return hashKey("artifact", traceHash, opts)
}

// DocumentKey returns "doc:<id>".
func (DefaultKeyer) DocumentKey(id string) string {
	return "doc:" + id
}

var _ Keyer = DefaultKeyer{}

package sink

import (
	"encoding/json"

	"github.com/matzehuels/d3fig/pkg/scene"
)

// JSONOption configures JSON rendering via [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	indent string
}

// WithIndent pretty-prints the output using two-space indentation.
func WithIndent() JSONOption { return func(r *jsonRenderer) { r.indent = "  " } }

// WithIndentString pretty-prints the output using the given indentation.
func WithIndentString(s string) JSONOption { return func(r *jsonRenderer) { r.indent = s } }

// RenderJSON encodes a finished document. It does not modify doc and is safe
// to call concurrently.
func RenderJSON(doc *scene.Document, opts ...JSONOption) ([]byte, error) {
	r := jsonRenderer{}
	for _, opt := range opts {
		opt(&r)
	}
	if r.indent != "" {
		return json.MarshalIndent(doc, "", r.indent)
	}
	return json.Marshal(doc)
}

// ParseJSON decodes a document written by [RenderJSON].
func ParseJSON(data []byte) (*scene.Document, error) {
	var doc scene.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

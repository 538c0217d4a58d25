package sink

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/google/uuid"

	figerr "github.com/matzehuels/d3fig/pkg/errors"
	"github.com/matzehuels/d3fig/pkg/scene"
)

// Default script locations.
const (
	DefaultD3URL    = "https://d3js.org/d3.v3.min.js"
	DefaultMPLD3URL = "js/mpld3.v1.js"
)

// HTMLConfig controls HTML emission.
type HTMLConfig struct {
	D3URL    string // defaults to DefaultD3URL
	MPLD3URL string // defaults to DefaultMPLD3URL

	// FigID names the container element ("fig" + FigID) and the script
	// variables. Empty means a fresh random id. It must be usable inside a
	// JavaScript identifier.
	FigID string

	// Page wraps the snippet in a standalone HTML document.
	Page  bool
	Title string
}

const figureTemplate = `
<script type="text/javascript" src="{{.D3URL}}"></script>
<script type="text/javascript" src="{{.MPLD3URL}}"></script>

<div id="fig{{.FigID}}"></div>
<script type="text/javascript">
  var spec{{.FigID}} = {{.JSON}};
  var fig{{.FigID}} = mpld3.draw_figure("fig{{.FigID}}", spec{{.FigID}});
</script>
`

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
{{.Body}}
</body>
</html>
`

var (
	figureTmpl = template.Must(template.New("figure").Parse(figureTemplate))
	pageTmpl   = template.Must(template.New("page").Parse(pageTemplate))
)

// RenderHTML renders doc as an HTML snippet that draws it with mpld3.
func RenderHTML(doc *scene.Document, cfg HTMLConfig) ([]byte, error) {
	cfg = cfg.withDefaults()
	if err := figerr.ValidateURL(cfg.D3URL); err != nil {
		return nil, fmt.Errorf("d3 url: %w", err)
	}
	if err := figerr.ValidateURL(cfg.MPLD3URL); err != nil {
		return nil, fmt.Errorf("mpld3 url: %w", err)
	}
	if !isIdentPart(cfg.FigID) {
		return nil, figerr.New(figerr.ErrCodeInvalidInput, "figure id %q is not a valid identifier suffix", cfg.FigID)
	}

	// json.Marshal escapes <, > and &, so the document cannot close the
	// surrounding script element.
	data, err := RenderJSON(doc)
	if err != nil {
		return nil, fmt.Errorf("encode figure: %w", err)
	}

	var body bytes.Buffer
	err = figureTmpl.Execute(&body, struct {
		D3URL, MPLD3URL, FigID, JSON string
	}{cfg.D3URL, cfg.MPLD3URL, cfg.FigID, string(data)})
	if err != nil {
		return nil, err
	}
	if !cfg.Page {
		return body.Bytes(), nil
	}

	var page bytes.Buffer
	err = pageTmpl.Execute(&page, struct{ Title, Body string }{
		Title: template.HTMLEscapeString(cfg.Title),
		Body:  body.String(),
	})
	if err != nil {
		return nil, err
	}
	return page.Bytes(), nil
}

func (c HTMLConfig) withDefaults() HTMLConfig {
	if c.D3URL == "" {
		c.D3URL = DefaultD3URL
	}
	if c.MPLD3URL == "" {
		c.MPLD3URL = DefaultMPLD3URL
	}
	if c.FigID == "" {
		c.FigID = NewFigID()
	}
	if c.Title == "" {
		c.Title = "d3fig"
	}
	return c
}

// NewFigID returns a random container id suffix.
func NewFigID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// FigIDFor derives a container id suffix from a figure id by dropping every
// character that cannot appear in a JavaScript identifier. It falls back to
// [NewFigID] when nothing is left.
func FigIDFor(id string) string {
	s := strings.Map(func(r rune) rune {
		if isIdentPart(string(r)) {
			return r
		}
		return -1
	}, id)
	if s == "" {
		return NewFigID()
	}
	return s
}

func isIdentPart(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		default:
			return false
		}
	}
	return s != ""
}

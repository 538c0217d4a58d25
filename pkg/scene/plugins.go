package scene

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Plugin types understood by the browser runtime.
const (
	PluginPointLabel = "pointlabel"
	PluginPointHTML  = "pointhtml"
	PluginLineLabel  = "linelabel"
	PluginReset      = "reset"
)

// Plugin attaches browser-side behavior to one element of a figure.
// It serializes as {type, id, ...params}.
type Plugin struct {
	Type   string
	ID     string // id of the target element
	Params map[string]any
}

// PointLabelTooltip shows labels[i] when hovering the i-th point of a markers
// or collection element.
func PointLabelTooltip(target string, labels []string) Plugin {
	return Plugin{
		Type: PluginPointLabel,
		ID:   target,
		Params: map[string]any{
			"labels":  labels,
			"hoffset": 0,
			"voffset": 10,
		},
	}
}

// PointHTMLTooltip shows an HTML snippet per point, styled with css.
func PointHTMLTooltip(target string, labels []string, css string) Plugin {
	return Plugin{
		Type: PluginPointHTML,
		ID:   target,
		Params: map[string]any{
			"labels":  labels,
			"hoffset": 0,
			"voffset": 10,
			"css":     css,
		},
	}
}

// LineLabelTooltip shows a single label when hovering a line.
func LineLabelTooltip(target, label string) Plugin {
	return Plugin{
		Type: PluginLineLabel,
		ID:   target,
		Params: map[string]any{
			"label":   label,
			"hoffset": 0,
			"voffset": 10,
		},
	}
}

// ResetButton adds a button restoring the original zoom of a figure.
// The target is the figure id.
func ResetButton(figure string) Plugin {
	return Plugin{Type: PluginReset, ID: figure}
}

// clone returns p with its params deep-copied.
func (p Plugin) clone() Plugin {
	if p.Params != nil {
		p.Params = cloneValue(p.Params).(map[string]any)
	}
	return p
}

// cloneValue copies the maps and slices a decoded or hand-built param value
// may contain. Other values are immutable and returned as is.
func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return slices.Clone(v)
	case []float64:
		return slices.Clone(v)
	case []int:
		return slices.Clone(v)
	case []bool:
		return slices.Clone(v)
	default:
		return v
	}
}

// MarshalJSON writes the plugin with its params merged into the object.
func (p Plugin) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(p.Params)+2)
	for k, v := range p.Params {
		m[k] = v
	}
	m["type"] = p.Type
	m["id"] = p.ID
	return json.Marshal(m)
}

// UnmarshalJSON reads a plugin, collecting every other key into Params.
func (p *Plugin) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	typ, _ := m["type"].(string)
	if typ == "" {
		return fmt.Errorf("plugin has no type")
	}
	id, _ := m["id"].(string)
	delete(m, "type")
	delete(m, "id")
	*p = Plugin{Type: typ, ID: id}
	if len(m) > 0 {
		p.Params = m
	}
	return nil
}

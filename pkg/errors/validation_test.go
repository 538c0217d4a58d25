package errors

import (
	"strings"
	"testing"
)

func TestValidateDocumentID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"uuid", "3f1c6a52-8d0e-5b5a-9c11-2f0e4c7d9b10", false},
		{"generated", "el12", false},
		{"with dot", "fig.1", false},
		{"with underscore", "fig_1", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 129), true},
		{"traversal", "a..b", true},
		{"slash", "a/b", true},
		{"backslash", "a\\b", true},
		{"leading dot", ".hidden", true},
		{"null byte", "a\x00b", true},
		{"space", "a b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocumentID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDocumentID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "figure.json", false},
		{"nested", "out/figure.html", false},

		{"empty", "", true},
		{"absolute", "/etc/passwd", true},
		{"traversal", "../figure.json", true},
		{"backslash", "out\\figure.json", true},
		{"control", "fig\x01.json", true},
		{"too long", strings.Repeat("a", 501), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"https", "https://d3js.org/d3.v3.min.js", false},
		{"http", "http://d3js.org/d3.v3.min.js", false},
		{"relative", "js/mpld3.v0.1.js", false},

		{"empty", "", true},
		{"ftp", "ftp://example.com/d3.js", true},
		{"javascript", "javascript:alert(1)", true},
		{"quote", `https://example.com/"onload`, true},
		{"angle", "https://example.com/<script>", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

package language

import (
	"slices"
	"testing"
)

func TestToISO2(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		// 2-letter codes pass through
		{"en", "en"},
		{"EN", "en"},
		{"es", "es"},
		// 3-letter codes convert
		{"eng", "en"},
		{"spa", "es"},
		{"esp", "es"},
		// Word forms
		{"english", "en"},
		{"Spanish", "es"},
		{"Español", "es"},
		{"latino", "es"},
		// Regional tags
		{"es-MX", "es"},
		{"en_US", "en"},
		// Unknown 2-letter passes through
		{"fr", "fr"},
		// Unknown 3-letter returns empty
		{"fra", ""},
		// Empty
		{"", ""},
		{" ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := ToISO2(tt.input)
			if result != tt.expected {
				t.Errorf("ToISO2(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestSupported(t *testing.T) {
	for _, code := range []string{"es", "en", "spa", "english"} {
		if !Supported(code) {
			t.Errorf("expected %q to be supported", code)
		}
	}
	for _, code := range []string{"fr", "", "pt-BR"} {
		if Supported(code) {
			t.Errorf("expected %q to be unsupported", code)
		}
	}
	if got := SupportedCodes(); !slices.Equal(got, []string{"es", "en"}) {
		t.Errorf("SupportedCodes() = %v", got)
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("spa"); got != "Spanish" {
		t.Errorf("DisplayName(spa) = %q", got)
	}
	if got := DisplayName(""); got != "Unknown" {
		t.Errorf("DisplayName(\"\") = %q", got)
	}
	if got := DisplayName("xx"); got != "XX" {
		t.Errorf("DisplayName(xx) = %q", got)
	}
}

func TestAllFileSuffixes(t *testing.T) {
	if got := AllFileSuffixes(); !slices.Equal(got, []string{"es", "spa", "en", "eng"}) {
		t.Errorf("AllFileSuffixes() = %v", got)
	}
}

func TestDetectInText(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"flag flag-spanish", "es"},
		{"  English  subtitle by foo", "en"},
		{"Subtítulos en Español Latino", "es"},
		{"French", ""},
	}
	for _, tt := range tests {
		if got := DetectInText(tt.text); got != tt.want {
			t.Errorf("DetectInText(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

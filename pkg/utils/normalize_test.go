package utils

import "testing"

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Café", "cafe"},
		{"CAFÉ", "cafe"},
		{"cafe", "cafe"},
		{"  Água   Tônica ", "agua tonica"},
		{"Piña Colada", "pina colada"},
		{"Weißbier", "weissbier"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := NormalizeName(tt.in); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if got := NormalizeName(NormalizeName(tt.in)); got != tt.want {
			t.Errorf("NormalizeName is not idempotent for %q: %q", tt.in, got)
		}
	}
}

func TestDocumentKey(t *testing.T) {
	if got := DocumentKey("Gin / Tônica"); got != "gin - tonica" {
		t.Errorf("DocumentKey = %q", got)
	}
}

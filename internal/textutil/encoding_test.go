package textutil

import "testing"

func TestEnsureUTF8(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"valid passthrough", "hello, maailma", "hello, maailma"},
		{"latin1 accents", "caf\xe9 na\xefve", "café naïve"},
		{"windows-1252 smart quote", "it\x92s fine", "it’s fine"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EnsureUTF8(tt.input); got != tt.want {
				t.Errorf("EnsureUTF8(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeUTF8(t *testing.T) {
	got := sanitizeUTF8("ok\xff\xfeok")
	if got != "ok��ok" {
		t.Errorf("sanitizeUTF8() = %q, want replacement characters", got)
	}
}

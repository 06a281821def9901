package strings

import (
	"testing"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		n        int
		expected string
	}{
		{"short", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"cut", "hello world", 8, "hello..."},
		{"min width", "hello world", 1, "h..."},
		{"multibyte boundary", "héllo wörld", 5, "h..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.input, tt.n); got != tt.expected {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.n, got, tt.expected)
			}
		})
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		input    string
		n        int
		expected string
	}{
		{"日本語テキスト", 10, "日本語テキスト"},
		{"日本語テキスト", 5, "日本..."},
		{"abc", 3, "abc"},
	}

	for _, tt := range tests {
		if got := TruncateRunes(tt.input, tt.n); got != tt.expected {
			t.Errorf("TruncateRunes(%q, %d) = %q, want %q", tt.input, tt.n, got, tt.expected)
		}
	}
}

func TestFirstLine(t *testing.T) {
	if got := FirstLine("\n\n  **Planning** the change\nmore"); got != "**Planning** the change" {
		t.Errorf("FirstLine = %q", got)
	}
	if got := FirstLine("   \n"); got != "" {
		t.Errorf("FirstLine of blank = %q", got)
	}
}

func TestSquash(t *testing.T) {
	if got := Squash("bash -lc\n  'ls   -la'"); got != "bash -lc 'ls -la'" {
		t.Errorf("Squash = %q", got)
	}
}

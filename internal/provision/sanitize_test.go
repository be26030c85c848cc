package provision

import (
	"strings"
	"testing"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"My Site", "my-site"},
		{"my-site", "my-site"},
		{"  My   Cool  Site  ", "my-cool-site"},
		{"Web Shop 2024", "web-shop-2024"},
		{"Ünïcödé Näme", "ncd-nme"},
		{"already_safe-name", "already_safe-name"},
		{"Tabs\tand\nnewlines", "tabs-and-newlines"},
		{"symbols!@#$%", "symbols"},
		{"", ""},
		{"   ", ""},
		{"!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := SanitizeName(tt.in)
			if got != tt.want {
				t.Errorf("SanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeName_Idempotent(t *testing.T) {
	inputs := []string{
		"My Site", "  spaced  out  ", "UPPER", "mixed_Case-99", "", "日本語 name",
	}

	for _, in := range inputs {
		once := SanitizeName(in)
		twice := SanitizeName(once)
		if once != twice {
			t.Errorf("SanitizeName not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestSanitizeName_OutputCharset(t *testing.T) {
	inputs := []string{
		"My Site!", "path/to/thing", `back\slash`, "colon:name", "über cool", "a b\tc\nd",
	}

	for _, in := range inputs {
		out := SanitizeName(in)
		for _, r := range out {
			safe := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-'
			if !safe {
				t.Errorf("SanitizeName(%q) produced unsafe rune %q in %q", in, r, out)
			}
		}
		if strings.ContainsAny(out, " \t\n") {
			t.Errorf("SanitizeName(%q) left whitespace in %q", in, out)
		}
	}
}

func TestSanitizeName_NoEdgeHyphens(t *testing.T) {
	for _, in := range []string{"  leading", "trailing  ", "  both  "} {
		out := SanitizeName(in)
		if strings.HasPrefix(out, "-") || strings.HasSuffix(out, "-") {
			t.Errorf("SanitizeName(%q) = %q has edge hyphen", in, out)
		}
	}
}

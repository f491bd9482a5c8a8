package trigger

import (
	"strings"
	"testing"
)

func TestIsQuickResponse(t *testing.T) {
	t.Parallel()

	long := " and then a lot more words after it"
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"ack", "yes", true},
		{"ack with period", "ok.", true},
		{"two periods", "ok..", true}, // still short
		{"thank you", "thank you", true},
		{"ack inside sentence", "yes but then we need to restructure the parser" + long, false},
		{"open verb", "open the configuration file in the editor please" + long, true},
		{"show with tab", "show\tme every protocol in the catalog right now" + long, true},
		{"display nbsp", "display\u00a0the whole architecture document for me" + long, true},
		{"verb without space", "opening the discussion on the new architecture" + long, false},
		{"time query", "what's the time in tokyo right now, and in berlin" + long, true},
		{"date query no article", "what is date handling like in this library" + long, true},
		{"digits", "12345678901234567890123", true},
		{"digits with space", "1234567890 1234567890 1", false},
		{"exactly 20", strings.Repeat("a", 20), true},
		{"21 chars", strings.Repeat("a", 21), false},
		{"short with newline", "fix\nit", false},
		{"short with line separator", "fix\u2028it", false},
		{"emoji counts two", strings.Repeat("\U0001F600", 10), true},
		{"emoji over limit", strings.Repeat("\U0001F600", 10) + "a", false},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := isQuickResponse(tt.in); got != tt.want {
				t.Errorf("isQuickResponse(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

package ui

import (
	"strings"
	"testing"
	"time"
)

func TestHumanizeDuration(t *testing.T) {
	cases := []struct {
		name string
		in   int64 // seconds
		want string
	}{
		{"negative", -5, "now"},
		{"subsecond", 0, "now"},
		{"seconds", 12, "12s"},
		{"minutes", 61, "1m"},
		{"hours_only", 2*60*60 + 10, "2h"},
		{"hours_minutes", 2*60*60 + 3*60, "2h 3m"},
		{"days", 24 * 60 * 60, "1d"},
		{"days_hours", 26 * 60 * 60, "1d 2h"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := humanizeDuration(time.Duration(tc.in) * time.Second)
			if got != tc.want {
				t.Fatalf("humanizeDuration(%d) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestFormatKB(t *testing.T) {
	cases := map[string]string{
		"":        "0K",
		"junk":    "0K",
		"512":     "512K",
		"2048":    "2.0M",
		"3145728": "3.0G",
	}
	for in, want := range cases {
		if got := formatKB(in); got != want {
			t.Fatalf("formatKB(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestProgressBar(t *testing.T) {
	got := progressBar(0.5, 4)
	if got != "██░░  50%" {
		t.Fatalf("progressBar(0.5) = %q", got)
	}
	if got := progressBar(2, 2); !strings.HasPrefix(got, "██") || !strings.HasSuffix(got, "100%") {
		t.Fatalf("progressBar clamps high values, got %q", got)
	}
}

func TestTruncateMiddle(t *testing.T) {
	if got := truncateMiddle("  ", 10); got != "" {
		t.Fatalf("truncateMiddle blank = %q, want empty", got)
	}
	if got := truncateMiddle("abcd", 2); got != "ab" {
		t.Fatalf("truncateMiddle limit<=3 = %q, want ab", got)
	}
	got := truncateMiddle("showA-shotB-alice_comp", 9)
	if len([]rune(got)) != 9 || !strings.Contains(got, "…") {
		t.Fatalf("truncateMiddle = %q, want 9 runes with ellipsis", got)
	}
}

package utils_test

import (
	"strings"
	"testing"

	"github.com/datascopehq/datascope-cli/internal/utils"
)

func TestCountTokens(t *testing.T) {
	cases := []struct {
		name string
		in   string
		min  int
	}{
		{"empty", "", 0},
		{"simple", "mean income by city", 3},
		{"long", strings.Repeat("x", 4000), 900}, // heuristic ~ 1 tok ≈ 4 chars
	}
	for _, c := range cases {
		if got := utils.CountTokens(c.in); got < c.min {
			t.Errorf("%s: got %d < min %d", c.name, got, c.min)
		}
	}
}

func TestCountTokensNonEmptyFloor(t *testing.T) {
	if got := utils.CountTokens("ab"); got != 1 {
		t.Fatalf("short text should count as 1 token, got %d", got)
	}
}

func TestTruncateToTokenLimit(t *testing.T) {
	text := strings.Repeat("row, ", 1000) // ~5000 chars
	trunc := utils.TruncateToTokenLimit(text, 300)
	n := utils.CountTokens(trunc)
	if n > 300 {
		t.Fatalf("tokens=%d exceeds limit", n)
	}
	if len(trunc) == 0 {
		t.Fatalf("expected non-empty truncation")
	}
	if utils.TruncateToTokenLimit(text, 0) != "" {
		t.Fatalf("zero limit should truncate to empty")
	}
}

package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTruncateForLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		limit  int
		expect string
	}{
		{name: "non-positive limit", input: "hello world", limit: 0, expect: ""},
		{name: "shorter than limit", input: "hello", limit: 10, expect: "hello"},
		{name: "cut with ellipsis", input: "hello world", limit: 5, expect: "hello..."},
		{name: "trims before cutting", input: "  spaced  ", limit: 5, expect: "space..."},
		{name: "counts runes", input: "résumé text", limit: 6, expect: "résumé..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateForLog(tt.input, tt.limit); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestClipRunes(t *testing.T) {
	t.Parallel()

	if got := ClipRunes("日本語テキスト", 3); got != "日本語" {
		t.Fatalf("expected rune clip, got %q", got)
	}
	if got := ClipRunes(" keep ", 10); got != " keep " {
		t.Fatalf("expected untouched string, got %q", got)
	}
}

func TestWaitFor(t *testing.T) {
	t.Parallel()

	if err := WaitFor(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := WaitFor(context.Background(), 0); err != nil {
		t.Fatalf("unexpected error for zero delay: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	if err := WaitFor(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("expected cancelled wait to return immediately")
	}
}

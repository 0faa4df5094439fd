package llm

import (
	"context"
	"strings"
	"testing"
)

func TestFallbackTitleShortTranscript(t *testing.T) {
	if got := FallbackTitle("buy milk"); got != "buy milk" {
		t.Errorf("got %q", got)
	}
}

func TestFallbackTitleTruncatesLongTranscript(t *testing.T) {
	long := strings.Repeat("remember to water the plants ", 10)
	got := FallbackTitle(long)

	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected ellipsis suffix, got %q", got)
	}
	if len([]rune(got)) > fallbackLen {
		t.Errorf("title too long: %d runes", len([]rune(got)))
	}
}

func TestGenerateTitleWithoutClientFallsBack(t *testing.T) {
	got := GenerateTitle(context.Background(), nil, "a quick note about lunch")
	if got != "a quick note about lunch" {
		t.Errorf("got %q", got)
	}
}

func TestGenerateTitleEmptyTranscript(t *testing.T) {
	if got := GenerateTitle(context.Background(), nil, "   "); got != "" {
		t.Errorf("expected empty title for empty transcript, got %q", got)
	}
}

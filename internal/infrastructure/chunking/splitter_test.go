package chunking

import (
	"strings"
	"testing"
)

func TestSplitShortTextYieldsSingleChunk(t *testing.T) {
	s := NewSplitter(200, 30)
	chunks := s.Split("a short sentence that fits in one window.")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
}

func TestSplitTextShorterThanOverlapYieldsAtMostOneChunk(t *testing.T) {
	s := NewSplitter(200, 30)
	chunks := s.Split("under thirty chars here")
	if len(chunks) > 1 {
		t.Fatalf("expected at most 1 chunk, got %d", len(chunks))
	}
}

func TestSplitDropsTinyChunks(t *testing.T) {
	s := NewSplitter(200, 30)
	for _, chunk := range s.Split(strings.Repeat("word and more text. ", 60)) {
		if got := len([]rune(strings.TrimSpace(chunk))); got <= 15 {
			t.Fatalf("chunk with trimmed length %d survived the filter: %q", got, chunk)
		}
	}
}

func TestSplitPrefersSentenceBoundary(t *testing.T) {
	s := NewSplitter(50, 10)
	// Period sits past 80% of the 50-rune window.
	text := strings.Repeat("x", 43) + ". " + strings.Repeat("y", 60)
	chunks := s.Split(text)
	if len(chunks) == 0 {
		t.Fatalf("expected chunks")
	}
	if !strings.HasSuffix(chunks[0], ".") {
		t.Fatalf("expected first chunk to end at the period, got %q", chunks[0])
	}
}

func TestSplitFallsBackToWordBoundary(t *testing.T) {
	s := NewSplitter(50, 10)
	text := strings.Repeat("x", 44) + " " + strings.Repeat("y", 60)
	chunks := s.Split(text)
	if len(chunks) == 0 {
		t.Fatalf("expected chunks")
	}
	if strings.Contains(chunks[0], " y") {
		t.Fatalf("expected first chunk cut at the space, got %q", chunks[0])
	}
}

func TestSplitTerminatesOnUnbreakableText(t *testing.T) {
	s := NewSplitter(40, 30)
	// No periods or spaces anywhere: every window is kept verbatim and the
	// advance shrinks to size-overlap. Must still terminate.
	chunks := s.Split(strings.Repeat("z", 500))
	if len(chunks) == 0 {
		t.Fatalf("expected chunks")
	}
	for _, chunk := range chunks {
		if len(chunk) > 40 {
			t.Fatalf("chunk longer than window: %d", len(chunk))
		}
	}
}

func TestSplitCoversTextWithoutGaps(t *testing.T) {
	s := NewSplitter(80, 20)
	text := strings.Repeat("alpha beta gamma delta. ", 40)
	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	// Ignoring overlap, consecutive windows may skip at most the overlap
	// plus trimmed whitespace; verify every chunk appears in order.
	offset := 0
	for i, chunk := range chunks {
		idx := strings.Index(text[offset:], chunk)
		if idx < 0 {
			t.Fatalf("chunk %d not found in remaining text", i)
		}
		if idx > s.Overlap+len(chunk) {
			t.Fatalf("gap of %d before chunk %d exceeds overlap window", idx, i)
		}
		offset += idx
	}
}

func TestSplitEmptyText(t *testing.T) {
	s := NewSplitter(200, 30)
	if chunks := s.Split(""); chunks != nil {
		t.Fatalf("expected nil, got %v", chunks)
	}
}

package chunking

import "strings"

const minChunkLength = 16

// Splitter cuts text into overlapping windows, preferring sentence and word
// boundaries in the last fifth of each window.
type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 200
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	var out []string
	boundary := s.ChunkSize * 4 / 5

	for start := 0; start < len(runes); {
		end := start + s.ChunkSize
		last := end >= len(runes)
		if last {
			end = len(runes)
		}

		window := runes[start:end]
		if !last {
			if cut := lastIndexBeyond(window, '.', boundary); cut >= 0 {
				window = window[:cut+1]
			} else if cut := lastIndexBeyond(window, ' ', boundary); cut >= 0 {
				window = window[:cut]
			}
		}

		chunk := strings.TrimSpace(string(window))
		if len([]rune(chunk)) >= minChunkLength {
			out = append(out, chunk)
		}
		if last {
			break
		}

		// A verbatim cut shorter than the overlap must still advance, or
		// the loop would never terminate.
		advance := len(window) - s.Overlap
		if advance < 1 {
			advance = 1
		}
		start += advance
	}

	return out
}

// lastIndexBeyond returns the index of the last occurrence of r in window at
// or past the boundary offset, or -1.
func lastIndexBeyond(window []rune, r rune, boundary int) int {
	for i := len(window) - 1; i > boundary; i-- {
		if window[i] == r {
			return i
		}
	}
	return -1
}

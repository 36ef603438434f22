package ingest

import "strings"

// Normalize collapses every run of whitespace into a single space and trims
// the result. Empty or whitespace-only input yields an empty string.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Chunk splits text into overlapping segments of at most maxSize
// characters, preferring to cut at sentence boundaries, then word
// boundaries, then hard-cutting. maxSize must be greater than overlap.
// The input is normalized first; identical input always yields an
// identical sequence.
func Chunk(text string, maxSize, overlap int) []string {
	normalized := Normalize(text)
	if normalized == "" {
		return nil
	}
	if len(normalized) <= maxSize {
		return []string{normalized}
	}

	var chunks []string
	start := 0
	for start < len(normalized) {
		end := start + maxSize
		if end >= len(normalized) {
			end = len(normalized)
		} else {
			window := normalized[start:end]
			if p := lastSentenceEnd(window); p > 0 {
				end = start + p + 1
			} else if p := strings.LastIndexByte(window, ' '); p > 0 {
				end = start + p
			}
		}

		if chunk := strings.TrimSpace(normalized[start:end]); chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

// lastSentenceEnd returns the offset of the terminator of the last
// complete sentence in window, or -1. Whichever of ". ", "? ", "! "
// occurs latest wins.
func lastSentenceEnd(window string) int {
	best := -1
	for _, terminator := range []string{". ", "? ", "! "} {
		if p := strings.LastIndex(window, terminator); p > best {
			best = p
		}
	}
	return best
}

package service

import (
	"strings"
	"unicode"
)

// ChunkConfig controls how documents are split before embedding.
type ChunkConfig struct {
	MaxRunes  int
	Overlap   int
	MaxChunks int
}

func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		MaxRunes:  1500,
		Overlap:   150,
		MaxChunks: 50,
	}
}

// chunkText packs paragraphs into chunks of at most MaxRunes. A paragraph
// longer than that is cut on whitespace, carrying Overlap runes into the
// next piece.
func chunkText(text string, cfg ChunkConfig) []string {
	if cfg.MaxRunes <= 0 {
		cfg = DefaultChunkConfig()
	}

	var chunks []string
	var cur []rune
	flush := func() {
		if s := strings.TrimSpace(string(cur)); s != "" {
			chunks = append(chunks, s)
		}
		cur = cur[:0]
	}

	for _, para := range splitParagraphs(text) {
		p := []rune(para)
		if len(p) > cfg.MaxRunes {
			flush()
			chunks = append(chunks, splitLong(p, cfg)...)
			continue
		}
		if len(cur) > 0 && len(cur)+2+len(p) > cfg.MaxRunes {
			flush()
		}
		if len(cur) > 0 {
			cur = append(cur, '\n', '\n')
		}
		cur = append(cur, p...)
	}
	flush()

	if cfg.MaxChunks > 0 && len(chunks) > cfg.MaxChunks {
		chunks = chunks[:cfg.MaxChunks]
	}
	return chunks
}

func splitParagraphs(text string) []string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	raw := strings.Split(normalized, "\n\n")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func splitLong(runes []rune, cfg ChunkConfig) []string {
	var out []string
	start := 0
	for start < len(runes) {
		end := start + cfg.MaxRunes
		if end >= len(runes) {
			end = len(runes)
		} else {
			// back off to the last whitespace in the second half of the window
			for i := end; i > start+cfg.MaxRunes/2; i-- {
				if unicode.IsSpace(runes[i-1]) {
					end = i
					break
				}
			}
		}

		if s := strings.TrimSpace(string(runes[start:end])); s != "" {
			out = append(out, s)
		}
		if end >= len(runes) {
			break
		}

		next := end - cfg.Overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return out
}

package chunker

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/dshills/ragcontext-mcp/pkg/types"
)

// Defaults for sentence-aware document ingestion.
const (
	DefaultMaxTokens    = 900
	DefaultMinTokens    = 500
	DefaultOverlapRatio = 0.12
)

var wsRx = regexp.MustCompile(`\s+`)

// IngestOptions controls sentence-aware chunking of extracted pages.
type IngestOptions struct {
	Model        string
	MaxTokens    int     // window budget, DefaultMaxTokens when <= 0
	MinTokens    int     // merge threshold for runt chunks, 0 disables
	OverlapRatio float64 // overlap budget as a fraction of MaxTokens, clamped to [0, 0.5]
}

// SplitSentences breaks text into sentences on terminal punctuation
// followed by an upper-case letter or digit. Whitespace is normalized
// first. This is a lightweight splitter; it deliberately avoids a full
// sentence-boundary model.
func SplitSentences(text string) []string {
	text = wsRx.ReplaceAllString(strings.TrimSpace(text), " ")
	if text == "" {
		return nil
	}

	runes := []rune(text)
	var out []string
	start := 0
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '.', '!', '?':
		default:
			continue
		}
		j := i + 1
		for j < len(runes) && runes[j] == ' ' {
			j++
		}
		if j == i+1 || j >= len(runes) {
			continue
		}
		if unicode.IsUpper(runes[j]) || unicode.IsDigit(runes[j]) {
			if seg := strings.TrimSpace(string(runes[start : i+1])); seg != "" {
				out = append(out, seg)
			}
			start = j
		}
	}
	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		out = append(out, tail)
	}
	return out
}

// SentenceWindows groups sentences into windows of at most maxTokens
// tokens. When a window closes, the overlap is rebuilt from whole tail
// sentences up to the overlap token budget, never by splitting a sentence.
func (c *Chunker) SentenceWindows(sentences []string, maxTokens, overlap int, model string) []string {
	if len(sentences) == 0 {
		return nil
	}

	count := func(s string) int {
		n := c.tok.CountTokens(s, model)
		if n < 1 {
			n = 1
		}
		return n
	}

	var chunks []string
	var cur []string
	curTok := 0
	for _, s := range sentences {
		t := count(s)
		if len(cur) > 0 && curTok+t > maxTokens {
			chunks = append(chunks, strings.Join(cur, " "))
			if overlap > 0 {
				// Keep whole sentences from the tail until the overlap
				// budget would be exceeded.
				var tail []string
				tailTok := 0
				for i := len(cur) - 1; i >= 0; i-- {
					tt := count(cur[i])
					if tailTok+tt > overlap {
						break
					}
					tail = append([]string{cur[i]}, tail...)
					tailTok += tt
				}
				cur = tail
				curTok = tailTok
			} else {
				cur = nil
				curTok = 0
			}
		}
		cur = append(cur, s)
		curTok += t
	}
	if len(cur) > 0 {
		chunks = append(chunks, strings.Join(cur, " "))
	}
	return chunks
}

// PagesToChunks converts extracted pages into sentence-aware chunks with
// per-chunk page metadata. Chunks under MinTokens are merged into their
// predecessor when the merge stays within budget, so tiny page tails do not
// become low-quality embeddings of their own.
func (c *Chunker) PagesToChunks(pages []types.Page, opts IngestOptions) []types.Chunk {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	ratio := opts.OverlapRatio
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 0.5 {
		ratio = 0.5
	}
	overlap := int(float64(maxTokens) * ratio)

	count := func(s string) int { return c.tok.CountTokens(s, opts.Model) }

	var chunks []types.Chunk
	idx := 0
	for _, pg := range pages {
		sents := SplitSentences(pg.Text)
		pieces := c.SentenceWindows(sents, maxTokens, overlap, opts.Model)
		for _, piece := range pieces {
			if opts.MinTokens > 0 && count(piece) < opts.MinTokens && len(chunks) > 0 {
				prev := &chunks[len(chunks)-1]
				merged := prev.Text + "\n\n" + piece
				if count(merged) <= maxTokens+overlap {
					prev.Text = merged
					prev.TokenCount = count(merged)
					continue
				}
			}
			chunks = append(chunks, types.Chunk{
				Text:       piece,
				TokenCount: count(piece),
				Index:      idx,
				Page:       pg.Number,
			})
			idx++
		}
	}
	return chunks
}

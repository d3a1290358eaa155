package chunker

import (
	"regexp"
	"strings"

	"github.com/dshills/ragcontext-mcp/internal/tokenizer"
	"github.com/dshills/ragcontext-mcp/pkg/types"
)

const (
	// approxTokensPerWord is the ratio used by the word-window fallback.
	approxTokensPerWord = 0.75
)

// pageRx matches inline page markers emitted by the extraction pipeline.
var pageRx = regexp.MustCompile(`(?i)\[(?:page|sida)\s+(\d+)\]`)

// Chunker splits text into token-bounded chunks using a shared Tokenizer.
type Chunker struct {
	tok *tokenizer.Tokenizer
}

// New creates a Chunker.
func New(tok *tokenizer.Tokenizer) *Chunker {
	return &Chunker{tok: tok}
}

// ChunkText splits text into chunks of at most maxTokens tokens, with
// overlap tokens shared between consecutive chunks. maxTokens <= 0 returns
// the whole text as a single chunk; empty input returns nil.
func (c *Chunker) ChunkText(text string, maxTokens, overlap int, model string) []string {
	if text == "" {
		return nil
	}
	if maxTokens <= 0 {
		return []string{text}
	}
	if overlap < 0 {
		overlap = 0
	}

	if codec, ok := c.tok.Codec(model); ok {
		return windowTokens(codec, text, maxTokens, overlap)
	}
	return windowWords(text, maxTokens, overlap)
}

// windowTokens slides an exact token window across the encoded text.
func windowTokens(codec tokenizer.Codec, text string, maxTokens, overlap int) []string {
	tokens := codec.Encode(text)
	if len(tokens) == 0 {
		return nil
	}

	step := maxTokens - overlap
	if step < 1 {
		step = 1
	}

	var chunks []string
	for start := 0; start < len(tokens); start += step {
		end := start + maxTokens
		if end > len(tokens) {
			end = len(tokens)
		}
		chunks = append(chunks, codec.Decode(tokens[start:end]))
	}
	return chunks
}

// windowWords approximates the token window over whitespace words when no
// codec is available. Budgets are scaled by the tokens-per-word ratio, so
// precision is degraded but coverage and overlap semantics hold.
func windowWords(text string, maxTokens, overlap int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	maxWords := int(float64(maxTokens) / approxTokensPerWord)
	if maxWords < 1 {
		maxWords = 1
	}
	overlapWords := int(float64(overlap) / approxTokensPerWord)

	step := maxWords - overlapWords
	if step < 1 {
		step = 1
	}

	var chunks []string
	for start := 0; start < len(words); start += step {
		end := start + maxWords
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks
}

// SplitPages splits uploaded text on inline page markers into per-page
// texts. Text without markers becomes a single page 1; empty input returns
// nil.
func SplitPages(text string) []types.Page {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	marks := pageRx.FindAllStringSubmatchIndex(text, -1)
	if len(marks) == 0 {
		return []types.Page{{Number: 1, Text: trimmed}}
	}

	var pages []types.Page
	for i, m := range marks {
		numStr := text[m[2]:m[3]]
		num := 0
		for _, ch := range numStr {
			num = num*10 + int(ch-'0')
		}
		end := len(text)
		if i+1 < len(marks) {
			end = marks[i+1][0]
		}
		body := strings.TrimSpace(text[m[1]:end])
		if body == "" {
			continue
		}
		pages = append(pages, types.Page{Number: num, Text: body})
	}
	if len(pages) == 0 {
		return []types.Page{{Number: 1, Text: trimmed}}
	}
	return pages
}

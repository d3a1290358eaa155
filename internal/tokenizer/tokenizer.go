package tokenizer

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// FallbackEncoding is used when a model has no registered encoding family.
const FallbackEncoding = "cl100k_base"

// Codec encodes text into a token sequence and decodes it back.
type Codec interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

// LoadFunc resolves a Codec for a model name.
type LoadFunc func(model string) (Codec, error)

// Tokenizer provides model-aware token counting with a word-count fallback.
// It is safe for concurrent use.
type Tokenizer struct {
	mu     sync.Mutex
	load   LoadFunc
	codecs map[string]Codec
	failed map[string]bool
}

// New creates a Tokenizer backed by tiktoken encodings.
func New() *Tokenizer {
	return NewWithLoader(loadTiktoken)
}

// NewWithLoader creates a Tokenizer with a custom codec loader. Tests use
// this to avoid loading real BPE tables.
func NewWithLoader(load LoadFunc) *Tokenizer {
	return &Tokenizer{
		load:   load,
		codecs: make(map[string]Codec),
		failed: make(map[string]bool),
	}
}

// Codec returns the codec for model, loading and caching it on first use.
// The second return is false when no codec is available; a failed load is
// remembered and not retried.
func (t *Tokenizer) Codec(model string) (Codec, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if c, ok := t.codecs[model]; ok {
		return c, true
	}
	if t.failed[model] {
		return nil, false
	}

	c, err := t.load(model)
	if err != nil || c == nil {
		t.failed[model] = true
		return nil, false
	}
	t.codecs[model] = c
	return c, true
}

// CountTokens returns the token count of text under model's encoding.
// Without a codec it returns an approximate word count; it never fails.
func (t *Tokenizer) CountTokens(text, model string) int {
	if text == "" {
		return 0
	}
	if c, ok := t.Codec(model); ok {
		return len(c.Encode(text))
	}
	return ApproxTokens(text)
}

// ApproxTokens is the documented fallback: a whitespace word count.
// Non-empty input counts as at least one token.
func ApproxTokens(text string) int {
	if text == "" {
		return 0
	}
	n := len(strings.Fields(text))
	if n < 1 {
		n = 1
	}
	return n
}

// tiktokenCodec adapts a tiktoken encoding to the Codec interface.
type tiktokenCodec struct {
	enc *tiktoken.Tiktoken
}

func (c *tiktokenCodec) Encode(text string) []int {
	return c.enc.Encode(text, nil, nil)
}

func (c *tiktokenCodec) Decode(tokens []int) string {
	return c.enc.Decode(tokens)
}

// loadTiktoken resolves the encoding for a model, falling back to the
// cl100k_base tables for models tiktoken does not know by name.
func loadTiktoken(model string) (Codec, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(FallbackEncoding)
		if err != nil {
			return nil, err
		}
	}
	return &tiktokenCodec{enc: enc}, nil
}

package embedder

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

const (
	openaiEmbedURL = "https://api.openai.com/v1/embeddings"
	jinaEmbedURL   = "https://api.jina.ai/v1/embeddings"

	DefaultOpenAIModel = "text-embedding-3-small"
	DefaultJinaModel   = "jina-embeddings-v3"

	requestTimeout = 30 * time.Second
)

// httpEmbedder implements Embedder against the OpenAI-style
// /v1/embeddings JSON endpoint both providers expose.
type httpEmbedder struct {
	provider string
	url      string
	apiKey   string
	model    string
	client   *http.Client
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// NewOpenAIEmbedder creates an embedder backed by the OpenAI API.
func NewOpenAIEmbedder(apiKey, model string) (Embedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: OpenAI API key is empty", ErrInvalidInput)
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &httpEmbedder{
		provider: "openai",
		url:      openaiEmbedURL,
		apiKey:   apiKey,
		model:    model,
		client:   &http.Client{Timeout: requestTimeout},
	}, nil
}

// NewJinaEmbedder creates an embedder backed by the Jina AI API.
func NewJinaEmbedder(apiKey, model string) (Embedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: Jina API key is empty", ErrInvalidInput)
	}
	if model == "" {
		model = DefaultJinaModel
	}
	return &httpEmbedder{
		provider: "jina",
		url:      jinaEmbedURL,
		apiKey:   apiKey,
		model:    model,
		client:   &http.Client{Timeout: requestTimeout},
	}, nil
}

func (e *httpEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ValidateBatch(texts); err != nil {
		return nil, err
	}

	body, err := json.Marshal(embedRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s request failed: %v", ErrProviderFailed, e.provider, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s response: %v", ErrProviderFailed, e.provider, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Provider: e.provider, Body: string(respBody)}
	}

	var parsed embedResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s response: %v", ErrProviderFailed, e.provider, err)
	}
	if len(parsed.Data) != len(texts) {
		return nil, fmt.Errorf("%w: %s returned %d embeddings for %d texts",
			ErrProviderFailed, e.provider, len(parsed.Data), len(texts))
	}

	// Responses can arrive out of order; the index field is authoritative.
	vecs := make([][]float32, len(texts))
	for _, d := range parsed.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("%w: %s returned out-of-range index %d",
				ErrProviderFailed, e.provider, d.Index)
		}
		vecs[d.Index] = d.Embedding
	}
	for i, v := range vecs {
		if len(v) == 0 {
			return nil, fmt.Errorf("%w: %s returned no embedding for index %d",
				ErrProviderFailed, e.provider, i)
		}
	}
	return vecs, nil
}

func (e *httpEmbedder) Model() string    { return e.model }
func (e *httpEmbedder) Provider() string { return e.provider }
func (e *httpEmbedder) Close() error     { return nil }

// LocalDim is the dimension of vectors produced by the local embedder.
const LocalDim = 384

// localEmbedder derives deterministic unit vectors from text hashes.
// It needs no network or API key and keeps the pipeline usable for
// development and tests.
type localEmbedder struct {
	model string
}

// NewLocalEmbedder creates an offline hash-based embedder.
func NewLocalEmbedder() Embedder {
	return &localEmbedder{model: "local-hash-v1"}
}

func (e *localEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if err := ValidateBatch(texts); err != nil {
		return nil, err
	}
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		vecs[i] = hashVector(text)
	}
	return vecs, nil
}

func (e *localEmbedder) Model() string    { return e.model }
func (e *localEmbedder) Provider() string { return "local" }
func (e *localEmbedder) Close() error     { return nil }

// hashVector expands a sha256 digest into a normalized vector. The same
// text always maps to the same vector.
func hashVector(text string) []float32 {
	vec := make([]float32, LocalDim)
	seed := sha256.Sum256([]byte(text))
	var norm float64
	for i := 0; i < LocalDim; i++ {
		block := sha256.Sum256(append(seed[:], byte(i), byte(i>>8)))
		bits := binary.LittleEndian.Uint32(block[:4])
		// Map to [-1, 1).
		v := float32(int32(bits)) / float32(math.MaxInt32)
		vec[i] = v
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec
}

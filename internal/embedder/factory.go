package embedder

import (
	"fmt"
	"os"
	"strings"
)

// Environment variables consulted by NewFromEnv.
const (
	EnvProvider = "RAGCONTEXT_EMBEDDING_PROVIDER"
	EnvModel    = "RAGCONTEXT_EMBEDDING_MODEL"
	EnvOpenAI   = "OPENAI_API_KEY"
	EnvJina     = "JINA_API_KEY"
)

// NewFromEnv creates an embedder from environment configuration.
//
// RAGCONTEXT_EMBEDDING_PROVIDER forces a provider (openai, jina,
// local). Without it, the first provider with an API key wins: OpenAI,
// then Jina, then the offline local embedder.
func NewFromEnv() (Embedder, error) {
	model := os.Getenv(EnvModel)

	switch strings.ToLower(os.Getenv(EnvProvider)) {
	case "openai":
		return NewOpenAIEmbedder(os.Getenv(EnvOpenAI), model)
	case "jina":
		return NewJinaEmbedder(os.Getenv(EnvJina), model)
	case "local":
		return NewLocalEmbedder(), nil
	case "":
		// Auto-detect below.
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrNoProviderEnabled, os.Getenv(EnvProvider))
	}

	if key := os.Getenv(EnvOpenAI); key != "" {
		return NewOpenAIEmbedder(key, model)
	}
	if key := os.Getenv(EnvJina); key != "" {
		return NewJinaEmbedder(key, model)
	}
	return NewLocalEmbedder(), nil
}

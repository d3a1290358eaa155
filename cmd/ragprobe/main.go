// ragprobe exercises the full ingest and query pipeline offline: local
// hash embedder, in-memory SQLite cache, in-memory vectors. Useful as a
// smoke check after changes to chunking, caching, or search.
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/dshills/ragcontext-mcp/internal/chunker"
	"github.com/dshills/ragcontext-mcp/internal/embedder"
	"github.com/dshills/ragcontext-mcp/internal/retrieval"
	"github.com/dshills/ragcontext-mcp/internal/storage"
	"github.com/dshills/ragcontext-mcp/internal/tokenizer"
	"github.com/dshills/ragcontext-mcp/internal/vecstore"
)

const sampleDoc = `[Page 1] The installation requires a grounded outlet.
Mount the unit at least 30 centimeters from the ceiling.
[Page 2] The fuse box is behind the left service panel.
Replace fuses only with the rated 5A type.
[Page 3] For warranty service, contact the dealer where the unit was purchased.`

func main() {
	fmt.Println("Testing retrieval pipeline...")

	cache, err := storage.NewSQLiteCache(":memory:")
	if err != nil {
		log.Fatalf("Failed to create cache: %v", err)
	}
	defer cache.Close()

	tok := tokenizer.New()
	batcher := embedder.NewBatcher(embedder.NewLocalEmbedder(), cache, tok)
	engine := retrieval.NewEngine(batcher, vecstore.NewRegistry(nil), chunker.New(tok))

	ctx := context.Background()

	ing, err := engine.Ingest(ctx, retrieval.IngestRequest{
		Collection: "manuals",
		Source:     "manual.txt",
		Text:       sampleDoc,
		MaxTokens:  40,
		MinTokens:  -1,
	})
	if err != nil {
		log.Fatalf("Failed to ingest: %v", err)
	}

	fmt.Printf("\nIngest Statistics:\n")
	fmt.Printf("  Pages: %d\n", ing.Pages)
	fmt.Printf("  Chunks: %d\n", ing.Chunks)
	fmt.Printf("  Cache Hits: %d\n", ing.CacheHits)
	fmt.Printf("  Dimension: %d\n", ing.Dim)

	// Second ingest of the same document must be served from cache.
	reing, err := engine.Ingest(ctx, retrieval.IngestRequest{
		Collection: "manuals",
		Source:     "manual.txt",
		Text:       sampleDoc,
		MaxTokens:  40,
		MinTokens:  -1,
	})
	if err != nil {
		log.Fatalf("Failed to re-ingest: %v", err)
	}
	fmt.Printf("\nRe-ingest Cache Hits: %d/%d\n", reing.CacheHits, reing.Chunks)

	res, err := engine.Query(ctx, retrieval.QueryRequest{
		Collection: "manuals",
		Query:      "The fuse box is behind the left service panel.",
		TopK:       3,
		UseMMR:     true,
	})
	if err != nil {
		log.Fatalf("Failed to query: %v", err)
	}

	fmt.Printf("\nQuery Results:\n")
	for i, p := range res.Passages {
		fmt.Printf("  [%d] %s page %d (score %.3f)\n", p.Index, p.Source, p.Page, res.Scores[i])
	}
	fmt.Printf("\nContext Block:\n%s\n", res.Context)

	if reing.CacheHits == reing.Chunks && len(res.Passages) > 0 {
		fmt.Println("\n✓ SUCCESS: Cache and retrieval verified!")
	} else {
		fmt.Println("\n✗ FAILURE: Pipeline did not behave as expected!")
		log.Fatal("probe failed")
	}
}

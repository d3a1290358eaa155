package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// ingestDocumentTool returns the tool definition for ingest_document
func ingestDocumentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "ingest_document",
		Description: "Split a document into chunks, embed them, and store them in a named collection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"text": map[string]interface{}{
					"type":        "string",
					"description": "Document text. Inline page markers like [Page 3] split the document into pages",
				},
				"source": map[string]interface{}{
					"type":        "string",
					"description": "Document label (file name or URL) used in citations; generated when omitted",
				},
				"collection": map[string]interface{}{
					"type":        "string",
					"description": "Collection to store chunks in",
					"default":     "default",
				},
				"max_tokens": map[string]interface{}{
					"type":        "integer",
					"description": "Token budget per chunk",
					"default":     900,
				},
				"min_tokens": map[string]interface{}{
					"type":        "integer",
					"description": "Chunks below this are merged into their predecessor; -1 disables merging",
					"default":     500,
				},
				"overlap_ratio": map[string]interface{}{
					"type":        "number",
					"description": "Chunk overlap as a fraction of max_tokens (0-0.5)",
					"default":     0.12,
				},
			},
			Required: []string{"text"},
		},
	}
}

// queryCollectionTool returns the tool definition for query_collection
func queryCollectionTool() mcp.Tool {
	return mcp.Tool{
		Name:        "query_collection",
		Description: "Retrieve the passages most relevant to a query and return a citation-ready context block",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Natural language query",
				},
				"collection": map[string]interface{}{
					"type":        "string",
					"description": "Collection to search",
					"default":     "default",
				},
				"top_k": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of passages to return (1-50)",
					"default":     5,
					"minimum":     1,
					"maximum":     50,
				},
				"use_mmr": map[string]interface{}{
					"type":        "boolean",
					"description": "Re-rank a widened candidate pool with maximal marginal relevance for diversity",
					"default":     false,
				},
				"lambda": map[string]interface{}{
					"type":        "number",
					"description": "MMR relevance weight (0-1); higher favors relevance over diversity",
					"default":     0.5,
				},
			},
			Required: []string{"query"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report collections, document counts, and embedding dimensions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// clearCollectionTool returns the tool definition for clear_collection
func clearCollectionTool() mcp.Tool {
	return mcp.Tool{
		Name:        "clear_collection",
		Description: "Remove all documents from a collection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"collection": map[string]interface{}{
					"type":        "string",
					"description": "Collection to clear",
					"default":     "default",
				},
			},
			Required: []string{"collection"},
		},
	}
}

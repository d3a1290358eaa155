package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/ragcontext-mcp/internal/retrieval"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602 // Invalid method parameters
	ErrorCodeInternalError = -32603 // Internal JSON-RPC error
	ErrorCodeEmptyQuery    = -32004 // Query parameter is empty
)

// handleIngestDocument handles the ingest_document tool invocation
func (s *Server) handleIngestDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	text, ok := args["text"].(string)
	if !ok || text == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "text parameter is required", map[string]interface{}{
			"param":  "text",
			"reason": "missing or empty",
		})
	}

	req := retrieval.IngestRequest{
		Collection:   getStringDefault(args, "collection", "default"),
		Source:       getStringDefault(args, "source", ""),
		Text:         text,
		MaxTokens:    getIntDefault(args, "max_tokens", 0),
		MinTokens:    getIntDefault(args, "min_tokens", 0),
		OverlapRatio: getFloatDefault(args, "overlap_ratio", 0),
	}

	result, err := s.engine.Ingest(ctx, req)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "ingest failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"ingested":   true,
		"collection": req.Collection,
		"source":     result.Source,
		"pages":      result.Pages,
		"chunks":     result.Chunks,
		"cache_hits": result.CacheHits,
		"dim":        result.Dim,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleQueryCollection handles the query_collection tool invocation
func (s *Server) handleQueryCollection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	topK := getIntDefault(args, "top_k", retrieval.DefaultTopK)
	if topK < 1 || topK > 50 {
		return nil, newMCPError(ErrorCodeInvalidParams, "top_k must be between 1 and 50", map[string]interface{}{
			"param": "top_k",
			"value": topK,
		})
	}
	lambda := getFloatDefault(args, "lambda", 0)
	if lambda < 0 || lambda > 1 {
		return nil, newMCPError(ErrorCodeInvalidParams, "lambda must be between 0 and 1", map[string]interface{}{
			"param": "lambda",
			"value": lambda,
		})
	}

	result, err := s.engine.Query(ctx, retrieval.QueryRequest{
		Collection: getStringDefault(args, "collection", "default"),
		Query:      query,
		TopK:       topK,
		UseMMR:     getBoolDefault(args, "use_mmr", false),
		Lambda:     lambda,
	})
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "query failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	passages := make([]map[string]interface{}, len(result.Passages))
	for i, p := range result.Passages {
		passages[i] = map[string]interface{}{
			"index":  p.Index,
			"source": p.Source,
			"page":   p.Page,
			"text":   p.Text,
			"score":  result.Scores[i],
		}
	}
	response := map[string]interface{}{
		"passages":    passages,
		"context":     result.Context,
		"cache_hit":   result.CacheHit,
		"duration_ms": result.Duration.Milliseconds(),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats := s.engine.Stats()
	collections := make(map[string]interface{}, len(stats))
	total := 0
	for name, cs := range stats {
		collections[name] = map[string]interface{}{
			"documents": cs.Count,
			"dim":       cs.Dim,
		}
		total += cs.Count
	}
	response := map[string]interface{}{
		"server":          ServerName,
		"version":         ServerVersion,
		"collections":     collections,
		"total_documents": total,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleClearCollection handles the clear_collection tool invocation
func (s *Server) handleClearCollection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	collection, ok := args["collection"].(string)
	if !ok || collection == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "collection parameter is required", map[string]interface{}{
			"param":  "collection",
			"reason": "missing or empty",
		})
	}

	if err := s.engine.Clear(ctx, collection); err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "clear failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"cleared":    true,
		"collection": collection,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getFloatDefault extracts a number parameter with a default value
func getFloatDefault(args map[string]interface{}, key string, defaultValue float64) float64 {
	if val, ok := args[key].(float64); ok {
		return val
	}
	if val, ok := args[key].(int); ok {
		return float64(val)
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

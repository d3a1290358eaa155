// Package mcp implements the Model Context Protocol (MCP) server for
// RAGContext.
//
// The MCP server exposes four tools to AI assistants:
//   - ingest_document: Chunk, embed, and store a document in a collection
//   - query_collection: Retrieve the passages most relevant to a query
//   - get_status: Report collections and document counts
//   - clear_collection: Remove all documents from a collection
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// The server communicates with MCP clients via standard input/output,
// making it simple to integrate with any MCP-compatible client.
//
// # Tool: ingest_document
//
// Ingest a document into a named collection:
//
//	Request:
//	{
//	  "name": "ingest_document",
//	  "arguments": {
//	    "text": "[Page 1] Installation requires...",
//	    "source": "manual.pdf",
//	    "collection": "manuals"
//	  }
//	}
//
//	Response:
//	{
//	  "ingested": true,
//	  "source": "manual.pdf",
//	  "pages": 12,
//	  "chunks": 31,
//	  "cache_hits": 0,
//	  "dim": 1536
//	}
//
// # Tool: query_collection
//
// Retrieve relevant passages with a citation-ready context block:
//
//	Request:
//	{
//	  "name": "query_collection",
//	  "arguments": {
//	    "query": "where is the fuse box",
//	    "collection": "manuals",
//	    "top_k": 5,
//	    "use_mmr": true
//	  }
//	}
//
//	Response:
//	{
//	  "passages": [
//	    {
//	      "index": 1,
//	      "source": "manual.pdf",
//	      "page": 3,
//	      "score": 0.91,
//	      "text": "The fuse box is behind the left panel..."
//	    }
//	  ],
//	  "context": "[1] (manual.pdf, page 3)\nThe fuse box..."
//	}
//
// # MCP Client Configuration
//
// Configure in an MCP client's settings:
//
//	{
//	  "mcpServers": {
//	    "ragcontext": {
//	      "command": "/usr/local/bin/ragcontext",
//	      "args": ["serve"],
//	      "env": {
//	        "OPENAI_API_KEY": "your-api-key"
//	      }
//	    }
//	  }
//	}
//
// # Error Handling
//
// The MCP server returns standard JSON-RPC error responses:
//
//	{
//	  "error": {
//	    "code": -32602,
//	    "message": "Invalid params",
//	    "data": {
//	      "param": "text",
//	      "reason": "missing or empty"
//	    }
//	  }
//	}
//
// Error codes:
//   - -32602: Invalid params (missing/invalid arguments)
//   - -32603: Internal error (embedding provider, storage)
//   - -32004: Empty query
//
// # Logging
//
// The MCP server logs to stderr (stdout is reserved for MCP protocol):
//
//	log.SetOutput(os.Stderr)
//	log.Printf("MCP server started")
package mcp

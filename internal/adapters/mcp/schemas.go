package mcpadapter

import (
	"github.com/mark3labs/mcp-go/mcp"
)

func searchDocsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_docs",
		Description: "Search indexed documentation and return ranked passages with a confidence score",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: questionProperties(),
			Required:   []string{"query"},
		},
	}
}

func askDocsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "ask_docs",
		Description: "Answer a question from indexed documentation, citing the passages used",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: questionProperties(),
			Required:   []string{"query"},
		},
	}
}

func questionProperties() map[string]interface{} {
	return map[string]interface{}{
		"query": map[string]interface{}{
			"type":        "string",
			"description": "Natural language question or keyword query",
		},
		"corpus_id": map[string]interface{}{
			"type":        "string",
			"description": "Restrict the search to one documentation corpus",
		},
		"session_id": map[string]interface{}{
			"type":        "string",
			"description": "Opaque session id; follow-up queries in the same session bias toward recent topics",
		},
		"limit": map[string]interface{}{
			"type":        "integer",
			"description": "Maximum number of passages to return (1-50)",
			"default":     8,
			"minimum":     1,
			"maximum":     50,
		},
	}
}

package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kirillkom/docscout/internal/core/domain"
	"github.com/kirillkom/docscout/internal/core/ports"
)

// MCP error codes
const (
	ErrorCodeInvalidParams      = -32602 // Invalid method parameters
	ErrorCodeInternalError      = -32603 // Internal JSON-RPC error
	ErrorCodeSourcesUnavailable = -32001 // All retrieval backends are down
	ErrorCodeEmptyQuery         = -32002 // Query parameter is empty
)

func (s *Server) handleSearchDocs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := questionRequestFromArgs(request)
	if err != nil {
		return nil, err
	}

	outcome, err := s.questions.Search(ctx, req)
	if err != nil {
		return nil, mapQuestionError(err)
	}
	return mcp.NewToolResultText(formatJSON(outcomeResponse(outcome))), nil
}

func (s *Server) handleAskDocs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := questionRequestFromArgs(request)
	if err != nil {
		return nil, err
	}

	outcome, err := s.questions.Ask(ctx, req)
	if err != nil {
		return nil, mapQuestionError(err)
	}

	response := outcomeResponse(outcome)
	response["answer"] = outcome.Answer
	return mcp.NewToolResultText(formatJSON(response)), nil
}

func questionRequestFromArgs(request mcp.CallToolRequest) (ports.QuestionRequest, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return ports.QuestionRequest{}, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return ports.QuestionRequest{}, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", 0)
	if limit < 0 || limit > 50 {
		return ports.QuestionRequest{}, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 50", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	return ports.QuestionRequest{
		Query:     query,
		CorpusID:  getStringDefault(args, "corpus_id", ""),
		SessionID: getStringDefault(args, "session_id", ""),
		Limit:     limit,
	}, nil
}

func outcomeResponse(outcome *domain.Outcome) map[string]interface{} {
	results := make([]map[string]interface{}, 0, len(outcome.Results))
	for _, cand := range outcome.Results {
		results = append(results, map[string]interface{}{
			"id":              cand.Passage.ID,
			"source_url":      cand.Passage.SourceURL,
			"title":           cand.Passage.Title,
			"section_heading": cand.Passage.SectionHeading,
			"content":         cand.Passage.Content,
			"content_kind":    string(cand.Passage.Kind),
			"score":           cand.Score,
		})
	}

	attempts := make([]map[string]interface{}, 0, len(outcome.Attempts))
	for _, attempt := range outcome.Attempts {
		attempts = append(attempts, map[string]interface{}{
			"query_used":   attempt.QueryUsed,
			"result_count": attempt.ResultCount,
			"quality_tier": string(attempt.Tier),
		})
	}

	return map[string]interface{}{
		"results":      results,
		"quality_tier": string(outcome.Tier),
		"retried":      outcome.Retried,
		"attempts":     attempts,
		"confidence": map[string]interface{}{
			"score":       outcome.Confidence.Score,
			"explanation": outcome.Confidence.Explanation,
		},
	}
}

func mapQuestionError(err error) error {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return newMCPError(ErrorCodeInvalidParams, err.Error(), nil)
	case domain.IsKind(err, domain.ErrAllSourcesFailed), domain.IsKind(err, domain.ErrTemporary):
		return newMCPError(ErrorCodeSourcesUnavailable, "retrieval backends unavailable", map[string]interface{}{
			"error": err.Error(),
		})
	default:
		return newMCPError(ErrorCodeInternalError, "retrieval failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
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

func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/docscout/internal/core/domain"
	"github.com/kirillkom/docscout/internal/core/ports"
)

// Embedder turns query text into the vector the collection was built with.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Client searches a qdrant collection of embedded documentation passages.
// Indexing is owned by the ingestion pipeline; this client only reads.
type Client struct {
	baseURL    string
	collection string
	embedder   Embedder
	httpClient *http.Client
}

func New(baseURL, collection string, embedder Embedder) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		embedder:   embedder,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) Search(ctx context.Context, query string, opts ports.SearchOptions) ([]domain.ScoredCandidate, error) {
	vector, err := c.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	reqBody := map[string]any{
		"vector":       vector,
		"limit":        opts.Limit,
		"with_payload": true,
	}
	if conditions := buildFilter(opts); len(conditions) > 0 {
		reqBody["filter"] = map[string]any{"must": conditions}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("qdrant search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("qdrant search status: %s", resp.Status)
	}

	var searchResp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]domain.ScoredCandidate, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		out = append(out, domain.ScoredCandidate{
			Passage: passageFromPayload(r.Payload),
			Score:   r.Score,
			Source:  domain.MatchSemantic,
		})
	}
	return out, nil
}

func buildFilter(opts ports.SearchOptions) []map[string]any {
	var must []map[string]any
	if opts.CorpusID != "" {
		must = append(must, matchCondition("corpus_id", opts.CorpusID))
	}
	if opts.Kind != "" {
		must = append(must, matchCondition("content_kind", string(opts.Kind)))
	}
	return must
}

func matchCondition(key, value string) map[string]any {
	return map[string]any{
		"key":   key,
		"match": map[string]any{"value": value},
	}
}

func passageFromPayload(payload map[string]any) domain.Passage {
	return domain.Passage{
		ID:             getStringPayload(payload, "passage_id"),
		SourceURL:      getStringPayload(payload, "source_url"),
		Title:          getStringPayload(payload, "title"),
		SectionHeading: getStringPayload(payload, "section_heading"),
		Content:        getStringPayload(payload, "content"),
		Kind:           domain.ContentKind(getStringPayload(payload, "content_kind")),
		CorpusID:       getStringPayload(payload, "corpus_id"),
		Position:       getIntPayload(payload, "position"),
		Metadata: domain.PassageMetadata{
			HeadingTrail: getStringSlicePayload(payload, "heading_trail"),
			CodeLanguage: getStringPayload(payload, "code_language"),
			Symbols:      getStringSlicePayload(payload, "symbols"),
			TrustTier:    domain.TrustTier(getStringPayload(payload, "trust_tier")),
			QualityScore: getFloatPayload(payload, "quality_score"),
		},
	}
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func getIntPayload(payload map[string]any, key string) int {
	f, ok := payload[key].(float64)
	if !ok {
		return 0
	}
	return int(f)
}

func getFloatPayload(payload map[string]any, key string) float64 {
	f, _ := payload[key].(float64)
	return f
}

func getStringSlicePayload(payload map[string]any, key string) []string {
	raw, ok := payload[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kirillkom/docscout/internal/core/domain"
	"github.com/kirillkom/docscout/internal/core/ports"
)

type embedderStub struct {
	vector []float32
	calls  int
}

func (e *embedderStub) EmbedQuery(context.Context, string) ([]float32, error) {
	e.calls++
	return e.vector, nil
}

func TestClientSearchMapsPayload(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/passages/points/search" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"result": []map[string]any{
				{
					"score": 0.92,
					"payload": map[string]any{
						"passage_id":      "p-1",
						"source_url":      "https://docs.example.com/pooling",
						"title":           "Connection Pooling",
						"section_heading": "Tuning",
						"content":         "Set max_conns based on workload.",
						"content_kind":    "prose",
						"corpus_id":       "pg-docs",
						"position":        float64(4),
						"heading_trail":   []any{"Guides", "Pooling"},
						"trust_tier":      "official",
						"quality_score":   0.8,
					},
				},
			},
		})
	}))
	defer server.Close()

	embedder := &embedderStub{vector: []float32{0.1, 0.2}}
	client := New(server.URL, "passages", embedder)

	got, err := client.Search(context.Background(), "tune pooling", ports.SearchOptions{
		Limit:    10,
		CorpusID: "pg-docs",
		Kind:     domain.KindProse,
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if embedder.calls != 1 {
		t.Fatalf("expected one embedding call, got %d", embedder.calls)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}

	cand := got[0]
	if cand.Source != domain.MatchSemantic {
		t.Fatalf("expected semantic source, got %s", cand.Source)
	}
	if cand.Score != 0.92 {
		t.Fatalf("unexpected score %v", cand.Score)
	}
	p := cand.Passage
	if p.ID != "p-1" || p.CorpusID != "pg-docs" || p.Position != 4 {
		t.Fatalf("payload mapping broken: %+v", p)
	}
	if p.Metadata.TrustTier != domain.TrustOfficial || len(p.Metadata.HeadingTrail) != 2 {
		t.Fatalf("metadata mapping broken: %+v", p.Metadata)
	}

	if captured["limit"].(float64) != 10 {
		t.Fatalf("limit not forwarded: %v", captured["limit"])
	}
	filter, ok := captured["filter"].(map[string]any)
	if !ok {
		t.Fatalf("expected a filter for corpus and kind")
	}
	if must := filter["must"].([]any); len(must) != 2 {
		t.Fatalf("expected two filter conditions, got %d", len(must))
	}
}

func TestClientSearchNoFilterWithoutOptions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if _, ok := body["filter"]; ok {
			t.Fatalf("filter must be omitted when no options are set")
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"result": []any{}})
	}))
	defer server.Close()

	client := New(server.URL, "passages", &embedderStub{vector: []float32{1}})
	if _, err := client.Search(context.Background(), "q", ports.SearchOptions{Limit: 5}); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
}

func TestClientSearchPropagatesHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(server.URL, "passages", &embedderStub{vector: []float32{1}})
	if _, err := client.Search(context.Background(), "q", ports.SearchOptions{Limit: 5}); err == nil {
		t.Fatalf("expected error on 502")
	}
}

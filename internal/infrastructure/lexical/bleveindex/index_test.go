package bleveindex

import (
	"context"
	"testing"

	"github.com/kirillkom/docscout/internal/core/domain"
	"github.com/kirillkom/docscout/internal/core/ports"
)

func seedIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := NewInMemory()
	if err != nil {
		t.Fatalf("NewInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })

	passages := []domain.Passage{
		{
			ID:             "pool-1",
			SourceURL:      "https://docs.example.com/pooling",
			Title:          "Connection Pooling",
			SectionHeading: "Tuning",
			Content:        "Tune max_conns for connection pooling under load.",
			Kind:           domain.KindProse,
			CorpusID:       "pg-docs",
			Position:       2,
			Metadata: domain.PassageMetadata{
				HeadingTrail: []string{"Guides", "Pooling"},
				TrustTier:    domain.TrustOfficial,
				QualityScore: 0.8,
			},
		},
		{
			ID:        "pool-code",
			SourceURL: "https://docs.example.com/pooling",
			Title:     "Connection Pooling",
			Content:   "pool := pgxpool.New(ctx, connString)",
			Kind:      domain.KindCode,
			CorpusID:  "pg-docs",
			Position:  3,
		},
		{
			ID:       "other-corpus",
			Title:    "Connection Pooling Elsewhere",
			Content:  "connection pooling notes",
			Kind:     domain.KindProse,
			CorpusID: "go-docs",
		},
	}
	if err := idx.IndexPassages(passages); err != nil {
		t.Fatalf("IndexPassages() error = %v", err)
	}
	return idx
}

func TestSearchFiltersByCorpus(t *testing.T) {
	idx := seedIndex(t)

	got, err := idx.Search(context.Background(), "connection pooling", ports.SearchOptions{
		Limit:    10,
		CorpusID: "pg-docs",
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) == 0 {
		t.Fatalf("expected hits for pg-docs")
	}
	for _, cand := range got {
		if cand.Passage.CorpusID != "pg-docs" {
			t.Fatalf("corpus filter leaked passage %s from %s", cand.Passage.ID, cand.Passage.CorpusID)
		}
		if cand.Source != domain.MatchLexical {
			t.Fatalf("expected lexical source, got %s", cand.Source)
		}
	}
}

func TestSearchFiltersByKind(t *testing.T) {
	idx := seedIndex(t)

	got, err := idx.Search(context.Background(), "pooling", ports.SearchOptions{
		Limit:    10,
		CorpusID: "pg-docs",
		Kind:     domain.KindProse,
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	for _, cand := range got {
		if cand.Passage.Kind != domain.KindProse {
			t.Fatalf("kind filter leaked passage %s of kind %s", cand.Passage.ID, cand.Passage.Kind)
		}
	}
}

func TestSearchRoundTripsStoredFields(t *testing.T) {
	idx := seedIndex(t)

	got, err := idx.Search(context.Background(), "max_conns", ports.SearchOptions{Limit: 1, CorpusID: "pg-docs"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected exactly one hit, got %d", len(got))
	}

	p := got[0].Passage
	if p.ID != "pool-1" || p.Position != 2 || p.SectionHeading != "Tuning" {
		t.Fatalf("stored fields lost: %+v", p)
	}
	if p.Metadata.TrustTier != domain.TrustOfficial || len(p.Metadata.HeadingTrail) != 2 {
		t.Fatalf("metadata fields lost: %+v", p.Metadata)
	}
	if got[0].Score <= 0 {
		t.Fatalf("expected a positive bm25 score, got %v", got[0].Score)
	}
}

func TestSearchNoMatches(t *testing.T) {
	idx := seedIndex(t)

	got, err := idx.Search(context.Background(), "zebra xylophone", ports.SearchOptions{Limit: 10})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no hits, got %d", len(got))
	}
}

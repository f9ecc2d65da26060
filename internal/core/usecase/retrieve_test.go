package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/docscout/internal/core/domain"
	"github.com/kirillkom/docscout/internal/core/ports"
)

type searcherFake struct {
	hits  []domain.ScoredCandidate
	err   error
	calls int
	opts  ports.SearchOptions
}

func (f *searcherFake) Search(_ context.Context, _ string, opts ports.SearchOptions) ([]domain.ScoredCandidate, error) {
	f.calls++
	f.opts = opts
	if f.err != nil {
		return nil, f.err
	}
	return f.hits, nil
}

func TestRetrieveHybridFusesBothSources(t *testing.T) {
	semantic := &searcherFake{hits: []domain.ScoredCandidate{
		candidate("a", 0.9, domain.MatchSemantic),
		candidate("b", 0.8, domain.MatchSemantic),
	}}
	lexical := &searcherFake{hits: []domain.ScoredCandidate{
		candidate("b", 12.0, domain.MatchLexical),
		candidate("c", 10.0, domain.MatchLexical),
	}}

	r := NewRetriever(semantic, lexical, DefaultParams())
	got, err := r.Retrieve(context.Background(), "goroutine leak", RetrieveOptions{Limit: 5, CorpusID: "go-docs"})
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 fused candidates, got %d", len(got))
	}
	if got[0].Passage.ID != "b" {
		t.Fatalf("expected double-sourced passage first, got %s", got[0].Passage.ID)
	}
	if semantic.calls != 1 || lexical.calls != 1 {
		t.Fatalf("expected one call per source, got %d/%d", semantic.calls, lexical.calls)
	}
}

func TestRetrieveHeadroomRequested(t *testing.T) {
	semantic := &searcherFake{}
	lexical := &searcherFake{}
	r := NewRetriever(semantic, lexical, DefaultParams())

	if _, err := r.Retrieve(context.Background(), "q", RetrieveOptions{Limit: 5}); err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	// max(limit*3, 30) candidates per branch.
	if semantic.opts.Limit != 30 || lexical.opts.Limit != 30 {
		t.Fatalf("expected headroom 30, got %d/%d", semantic.opts.Limit, lexical.opts.Limit)
	}

	if _, err := r.Retrieve(context.Background(), "q", RetrieveOptions{Limit: 20}); err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if semantic.opts.Limit != 60 {
		t.Fatalf("expected headroom 60, got %d", semantic.opts.Limit)
	}
}

func TestRetrievePartialFailureDegradesToSingleSource(t *testing.T) {
	semantic := &searcherFake{hits: []domain.ScoredCandidate{
		candidate("a", 0.9, domain.MatchSemantic),
		candidate("b", 0.8, domain.MatchSemantic),
	}}
	lexical := &searcherFake{err: errors.New("index timeout")}

	r := NewRetriever(semantic, lexical, DefaultParams())
	got, err := r.Retrieve(context.Background(), "q", RetrieveOptions{Limit: 5})
	if err != nil {
		t.Fatalf("partial failure must not error, got %v", err)
	}
	if !equalIDs(ids(got), []string{"a", "b"}) {
		t.Fatalf("expected semantic-only ranking, got %v", ids(got))
	}
}

func TestRetrieveTotalFailureIsFatal(t *testing.T) {
	semantic := &searcherFake{err: errors.New("semantic down")}
	lexical := &searcherFake{err: errors.New("lexical down")}

	r := NewRetriever(semantic, lexical, DefaultParams())
	_, err := r.Retrieve(context.Background(), "q", RetrieveOptions{Limit: 5})
	if err == nil {
		t.Fatalf("expected error when both sources fail")
	}
	if !domain.IsKind(err, domain.ErrAllSourcesFailed) {
		t.Fatalf("expected ErrAllSourcesFailed, got %v", err)
	}
}

func TestRetrieveSemanticOnlyMode(t *testing.T) {
	semantic := &searcherFake{hits: []domain.ScoredCandidate{candidate("a", 0.9, domain.MatchSemantic)}}
	lexical := &searcherFake{}

	r := NewRetriever(semantic, lexical, DefaultParams())
	got, err := r.Retrieve(context.Background(), "q", RetrieveOptions{Limit: 5, Mode: ModeSemantic})
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(got) != 1 || lexical.calls != 0 {
		t.Fatalf("semantic mode must not touch the lexical index")
	}
}

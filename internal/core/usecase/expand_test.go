package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/docscout/internal/core/domain"
)

type neighborStoreFake struct {
	neighbors map[string][]domain.Passage
	err       error
	calls     int
}

func (f *neighborStoreFake) Neighbors(_ context.Context, _, _, anchorID string, _, _ int) ([]domain.Passage, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.neighbors[anchorID], nil
}

func proseCandidate(id string, score float64) domain.ScoredCandidate {
	cand := candidate(id, score, domain.MatchFused)
	cand.Passage.Kind = domain.KindProse
	return cand
}

func TestExpandZeroWindowIsNoOp(t *testing.T) {
	store := &neighborStoreFake{}
	e := NewExpander(store, DefaultParams())

	in := []domain.ScoredCandidate{proseCandidate("a", 0.05)}
	got := e.Expand(context.Background(), in, domain.ExpansionWindows{domain.KindProse: 0})
	if len(got) != 1 || store.calls != 0 {
		t.Fatalf("zero window must be a no-op, got %d results and %d calls", len(got), store.calls)
	}

	got = e.Expand(context.Background(), in, domain.ExpansionWindows{})
	if len(got) != 1 || store.calls != 0 {
		t.Fatalf("empty config must be a no-op")
	}
}

func TestExpandInsertsNeighborsBelowAnchor(t *testing.T) {
	store := &neighborStoreFake{neighbors: map[string][]domain.Passage{
		"a": {
			{ID: "a-prev", SourceURL: "https://docs.example.com/a", Kind: domain.KindProse, Position: 1},
			{ID: "a-next", SourceURL: "https://docs.example.com/a", Kind: domain.KindProse, Position: 3},
		},
	}}
	e := NewExpander(store, DefaultParams())

	in := []domain.ScoredCandidate{
		proseCandidate("a", 0.05),
		proseCandidate("b", 0.04),
	}
	got := e.Expand(context.Background(), in, domain.ExpansionWindows{domain.KindProse: 1})
	if len(got) != 4 {
		t.Fatalf("expected 4 results after expansion, got %d", len(got))
	}

	// Original ranking order survives the re-sort.
	if got[0].Passage.ID != "a" {
		t.Fatalf("anchor must stay first, got %v", ids(got))
	}
	for _, cand := range got {
		if cand.Passage.ID == "a-prev" || cand.Passage.ID == "a-next" {
			if cand.Score >= 0.05 {
				t.Fatalf("neighbor score %v must sit below anchor score", cand.Score)
			}
			if cand.Source != domain.MatchFused {
				t.Fatalf("neighbors must inherit the fused source")
			}
		}
	}
}

func TestExpandTwiceDoesNotDuplicate(t *testing.T) {
	store := &neighborStoreFake{neighbors: map[string][]domain.Passage{
		"a": {{ID: "a-next", SourceURL: "https://docs.example.com/a", Kind: domain.KindProse}},
	}}
	e := NewExpander(store, DefaultParams())
	windows := domain.ExpansionWindows{domain.KindProse: 1}

	once := e.Expand(context.Background(), []domain.ScoredCandidate{proseCandidate("a", 0.05)}, windows)
	twice := e.Expand(context.Background(), once, windows)
	if len(twice) != len(once) {
		t.Fatalf("second expansion duplicated passages: %d vs %d", len(twice), len(once))
	}
}

func TestExpandLookupFailureKeepsAnchor(t *testing.T) {
	store := &neighborStoreFake{err: errors.New("store down")}
	e := NewExpander(store, DefaultParams())

	in := []domain.ScoredCandidate{proseCandidate("a", 0.05)}
	got := e.Expand(context.Background(), in, domain.ExpansionWindows{domain.KindProse: 2})
	if len(got) != 1 || got[0].Passage.ID != "a" {
		t.Fatalf("failed lookup must leave the input untouched, got %v", ids(got))
	}
}

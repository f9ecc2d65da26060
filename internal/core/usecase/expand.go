package usecase

import (
	"context"
	"log/slog"
	"sort"

	"github.com/kirillkom/docscout/internal/core/domain"
	"github.com/kirillkom/docscout/internal/core/ports"
)

// Expander pulls neighboring passages around each matched candidate so the
// reranker sees full local context. It runs after fusion and before
// reranking. Neighbor lookups are best-effort: a failed lookup is logged
// and the anchor keeps its original surroundings.
type Expander struct {
	store     ports.NeighborStore
	decrement float64
}

func NewExpander(store ports.NeighborStore, params Params) *Expander {
	return &Expander{
		store:     store,
		decrement: params.normalize().NeighborDecrement,
	}
}

func (e *Expander) Expand(ctx context.Context, results []domain.ScoredCandidate, windows domain.ExpansionWindows) []domain.ScoredCandidate {
	if len(results) == 0 || len(windows) == 0 {
		return results
	}

	seen := make(map[string]struct{}, len(results)*2)
	for _, cand := range results {
		seen[cand.Passage.ID] = struct{}{}
	}

	out := make([]domain.ScoredCandidate, len(results))
	copy(out, results)

	for _, anchor := range results {
		window := windows[anchor.Passage.Kind]
		if window <= 0 {
			continue
		}

		neighbors, err := e.store.Neighbors(ctx,
			anchor.Passage.CorpusID, anchor.Passage.SourceURL, anchor.Passage.ID,
			window, window)
		if err != nil {
			slog.Warn("neighbor_lookup_failed",
				"passage_id", anchor.Passage.ID,
				"source_url", anchor.Passage.SourceURL,
				"error", err,
			)
			continue
		}

		for _, neighbor := range neighbors {
			if _, dup := seen[neighbor.ID]; dup {
				continue
			}
			seen[neighbor.ID] = struct{}{}
			out = append(out, domain.ScoredCandidate{
				Passage: neighbor,
				// Just below the anchor so the fused ordering survives a re-sort.
				Score:  anchor.Score - e.decrement,
				Source: domain.MatchFused,
			})
		}
	}

	if len(out) == len(results) {
		return results
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

package usecase

import (
	"sort"

	"github.com/kirillkom/docscout/internal/core/domain"
)

type fusedCandidate struct {
	candidate domain.ScoredCandidate
	score     float64
	bestRank  int
}

// fuseRRF merges two ranked lists with Reciprocal Rank Fusion: an item at
// 0-based rank r contributes 1/(k+r+1), summed per passage id across lists.
// When trustWeights is non-nil each contribution is multiplied by the
// passage's trust weight before summation. Ties are broken by the best rank
// the passage held in either input, then by id, so the output is
// deterministic and unchanged when the two lists are swapped.
func fuseRRF(semantic, lexical []domain.ScoredCandidate, k int, trustWeights map[domain.TrustTier]float64) []domain.ScoredCandidate {
	if k <= 0 {
		k = 60
	}

	acc := make(map[string]fusedCandidate, len(semantic)+len(lexical))
	addList := func(list []domain.ScoredCandidate) {
		for rank, cand := range list {
			id := cand.Passage.ID
			entry, seen := acc[id]
			if !seen {
				entry.candidate = cand
				entry.bestRank = rank
			} else if rank < entry.bestRank {
				entry.bestRank = rank
			}
			contribution := 1.0 / float64(k+rank+1)
			if trustWeights != nil {
				contribution *= trustWeight(trustWeights, cand.Passage.Metadata.TrustTier)
			}
			entry.score += contribution
			acc[id] = entry
		}
	}

	addList(semantic)
	addList(lexical)

	out := make([]domain.ScoredCandidate, 0, len(acc))
	ranks := make(map[string]int, len(acc))
	for id, entry := range acc {
		cand := entry.candidate
		cand.Score = entry.score
		cand.Source = domain.MatchFused
		ranks[id] = entry.bestRank
		out = append(out, cand)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		ri, rj := ranks[out[i].Passage.ID], ranks[out[j].Passage.ID]
		if ri != rj {
			return ri < rj
		}
		return out[i].Passage.ID < out[j].Passage.ID
	})

	return out
}

func trustWeight(weights map[domain.TrustTier]float64, tier domain.TrustTier) float64 {
	if w, ok := weights[tier]; ok && w > 0 {
		return w
	}
	return 1.0
}

func trimCandidates(candidates []domain.ScoredCandidate, limit int) []domain.ScoredCandidate {
	if limit <= 0 || len(candidates) <= limit {
		return candidates
	}
	return candidates[:limit]
}

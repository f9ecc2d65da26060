package usecase

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/docscout/internal/core/domain"
	"github.com/kirillkom/docscout/internal/core/ports"
)

// Reranker asks the external relevance scorer to reorder the candidate
// head. Reranking is a best-effort quality improvement: any scorer failure
// or malformed response falls back to the pre-rerank order.
type Reranker struct {
	scorer ports.RelevanceScorer
	params Params
}

func NewReranker(scorer ports.RelevanceScorer, params Params) *Reranker {
	return &Reranker{
		scorer: scorer,
		params: params.normalize(),
	}
}

func (r *Reranker) Rerank(ctx context.Context, query string, queryType domain.QueryType, candidates []domain.ScoredCandidate, topK int) []domain.ScoredCandidate {
	if topK <= 0 || len(candidates) <= topK {
		return candidates
	}

	req := r.buildRequest(query, queryType, candidates, topK)

	callCtx, cancel := context.WithTimeout(ctx, r.params.RerankTimeout)
	defer cancel()
	indices, err := r.scorer.ScoreCandidates(callCtx, req)
	if err != nil {
		slog.Warn("rerank_failed", "query_type", queryType, "error", err)
		return fallbackHead(candidates, topK)
	}
	if !validIndices(indices, topK, len(candidates)) {
		slog.Warn("rerank_invalid_response", "query_type", queryType, "indices", len(indices))
		return fallbackHead(candidates, topK)
	}

	out := make([]domain.ScoredCandidate, 0, topK)
	for _, idx := range indices {
		out = append(out, candidates[idx])
	}
	enforceDescending(out)
	return out
}

func (r *Reranker) buildRequest(query string, queryType domain.QueryType, candidates []domain.ScoredCandidate, topK int) domain.ScoringRequest {
	previewLen := r.params.PreviewShort
	if queryType == domain.QueryConcept {
		// Judging whether a passage explains a concept, rather than merely
		// mentioning it, needs more surrounding text.
		previewLen = r.params.PreviewLong
	}

	scoring := make([]domain.ScoringCandidate, 0, len(candidates))
	for i, cand := range candidates {
		scoring = append(scoring, domain.ScoringCandidate{
			Index:   i,
			Kind:    cand.Passage.Kind,
			Summary: candidateSummary(cand.Passage),
			Preview: truncate(cand.Passage.Content, previewLen),
		})
	}

	return domain.ScoringRequest{
		Query:      query,
		Guidance:   scoringGuidance(queryType),
		TopK:       topK,
		Candidates: scoring,
	}
}

func scoringGuidance(queryType domain.QueryType) string {
	switch queryType {
	case domain.QueryConcept:
		return "Prioritize passages that define or explain the concept with examples. Deprioritize passages that only reference it."
	case domain.QueryCodeLookup:
		return "Prioritize passages whose code contains exact matches for the symbol names in the query."
	case domain.QueryError:
		return "Prioritize passages describing the same failure and its resolution over passages that merely mention related terms."
	case domain.QueryHowTo:
		return "Prioritize step-by-step instructions and worked examples over conceptual overviews."
	case domain.QueryAPIReference:
		return "Prioritize authoritative reference entries: signatures, parameters, return values."
	default:
		return "Prioritize passages that directly answer the question."
	}
}

func candidateSummary(p domain.Passage) string {
	parts := make([]string, 0, 4)
	if p.Title != "" {
		parts = append(parts, p.Title)
	}
	if p.SectionHeading != "" {
		parts = append(parts, p.SectionHeading)
	}
	if len(p.Metadata.HeadingTrail) > 0 {
		parts = append(parts, strings.Join(p.Metadata.HeadingTrail, " > "))
	}
	if len(p.Metadata.Symbols) > 0 {
		parts = append(parts, "symbols: "+strings.Join(p.Metadata.Symbols, ", "))
	}
	return strings.Join(parts, " | ")
}

// truncate cuts on a rune boundary so previews stay valid UTF-8.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func validIndices(indices []int, topK, size int) bool {
	if len(indices) != topK {
		return false
	}
	seen := make(map[int]struct{}, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= size {
			return false
		}
		if _, dup := seen[idx]; dup {
			return false
		}
		seen[idx] = struct{}{}
	}
	return true
}

func fallbackHead(candidates []domain.ScoredCandidate, topK int) []domain.ScoredCandidate {
	out := make([]domain.ScoredCandidate, topK)
	copy(out, candidates[:topK])
	return out
}

// enforceDescending clamps scores so the reranked order reads as a strictly
// descending ranking while keeping the fused score scale.
func enforceDescending(results []domain.ScoredCandidate) {
	const epsilon = 1e-9
	for i := 1; i < len(results); i++ {
		if results[i].Score >= results[i-1].Score {
			results[i].Score = results[i-1].Score - epsilon
		}
	}
}

package usecase

import (
	"fmt"
	"math"
	"strings"

	"github.com/kirillkom/docscout/internal/core/domain"
)

const lowFactorThreshold = 40.0

// ConfidenceScorer derives a 0-100 confidence estimate from the final
// result set and, when available, a draft answer. It is purely heuristic
// and recomputed on every attempt; nothing here calls out.
type ConfidenceScorer struct {
	weights ConfidenceWeights
}

func NewConfidenceScorer(params Params) *ConfidenceScorer {
	return &ConfidenceScorer{weights: params.normalize().Weights}
}

func (s *ConfidenceScorer) Score(query string, analysis domain.QueryAnalysis, results []domain.ScoredCandidate, draftAnswer string) domain.ConfidenceResult {
	factors := domain.ConfidenceFactors{
		Retrieval:     retrievalScore(results),
		Coverage:      coverageScore(query, analysis, results),
		AnswerQuality: answerQualityScore(draftAnswer, analysis.Type),
		Consistency:   sourceConsistency(results),
	}

	w := s.weights
	totalWeight := w.Retrieval + w.Coverage + w.AnswerQuality + w.Consistency
	weighted := factors.Retrieval*w.Retrieval +
		factors.Coverage*w.Coverage +
		factors.AnswerQuality*w.AnswerQuality +
		factors.Consistency*w.Consistency

	score := clampScore(math.Round(weighted / totalWeight))

	return domain.ConfidenceResult{
		Score:       score,
		Factors:     factors,
		Explanation: explain(score, factors),
	}
}

// retrievalScore combines a saturating count bonus (full at 10 results)
// with the average score relative to the best score in the set.
func retrievalScore(results []domain.ScoredCandidate) float64 {
	if len(results) == 0 {
		return 0
	}

	countBonus := math.Min(float64(len(results))/10.0*50.0, 50.0)

	top := results[0].Score
	var sum float64
	for _, cand := range results {
		sum += cand.Score
		if cand.Score > top {
			top = cand.Score
		}
	}
	avg := sum / float64(len(results))

	scoreBonus := 0.0
	if top > 0 {
		scoreBonus = avg / top * 50.0
	}
	return countBonus + scoreBonus
}

// coverageScore is the averaged fraction of meaningful raw-query words and
// analyzer keywords that literally appear in the top results' content.
func coverageScore(query string, analysis domain.QueryAnalysis, results []domain.ScoredCandidate) float64 {
	content := topContentLower(results, 5)
	if content == "" {
		return 0
	}

	queryWords := make([]string, 0, 8)
	for _, w := range splitWords(strings.ToLower(query)) {
		if len(w) > 3 {
			queryWords = append(queryWords, w)
		}
	}

	fractions := make([]float64, 0, 2)
	if f, ok := containedFraction(queryWords, content); ok {
		fractions = append(fractions, f)
	}
	if f, ok := containedFraction(lowerAll(analysis.Keywords), content); ok {
		fractions = append(fractions, f)
	}
	if len(fractions) == 0 {
		return 0
	}

	var sum float64
	for _, f := range fractions {
		sum += f
	}
	return sum / float64(len(fractions)) * 100.0
}

func answerQualityScore(draft string, queryType domain.QueryType) float64 {
	if draft == "" {
		// No draft yet; stay neutral so retrieval factors dominate.
		return 50
	}

	score := 50.0
	switch {
	case len(draft) < 40:
		score -= 30
	case len(draft) > 300:
		score += 20
	case len(draft) > 100:
		score += 10
	}

	codeExpected := queryType == domain.QueryCodeLookup ||
		queryType == domain.QueryError ||
		queryType == domain.QueryHowTo
	if codeExpected && strings.Contains(draft, "```") {
		score += 15
	}
	if strings.Contains(draft, "\n#") || strings.HasPrefix(draft, "#") || strings.Contains(draft, "[") {
		score += 15
	}

	return clampFactor(score)
}

// sourceConsistency penalizes result sets scattered across many unrelated
// sections; a coherent answer usually draws from a tight cluster.
func sourceConsistency(results []domain.ScoredCandidate) float64 {
	if len(results) == 0 {
		return 0
	}

	sections := make(map[string]struct{}, len(results))
	for _, cand := range results {
		label := cand.Passage.SectionHeading
		if label == "" {
			label = cand.Passage.SourceURL
		}
		sections[label] = struct{}{}
	}

	unique := float64(len(sections))
	total := float64(len(results))
	return clampFactor(100.0 * (1.0 - (unique-1.0)/total))
}

func explain(score int, factors domain.ConfidenceFactors) string {
	var issues []string
	if factors.Retrieval < lowFactorThreshold {
		issues = append(issues, "few or weakly matching passages were retrieved")
	}
	if factors.Coverage < lowFactorThreshold {
		issues = append(issues, "the retrieved content covers the query terms poorly")
	}
	if factors.AnswerQuality < lowFactorThreshold {
		issues = append(issues, "the draft answer looks thin")
	}
	if factors.Consistency < lowFactorThreshold {
		issues = append(issues, "the sources span many unrelated sections")
	}
	if len(issues) > 0 {
		return fmt.Sprintf("confidence %d: %s", score, strings.Join(issues, "; "))
	}

	switch {
	case score >= 80:
		return fmt.Sprintf("confidence %d: strong, consistent documentation match", score)
	case score >= 60:
		return fmt.Sprintf("confidence %d: good documentation match", score)
	default:
		return fmt.Sprintf("confidence %d: partial documentation match", score)
	}
}

func topContentLower(results []domain.ScoredCandidate, n int) string {
	if len(results) < n {
		n = len(results)
	}
	var b strings.Builder
	for _, cand := range results[:n] {
		b.WriteString(strings.ToLower(cand.Passage.Content))
		b.WriteByte('\n')
	}
	return b.String()
}

func containedFraction(terms []string, content string) (float64, bool) {
	if len(terms) == 0 {
		return 0, false
	}
	found := 0
	for _, term := range terms {
		if strings.Contains(content, term) {
			found++
		}
	}
	return float64(found) / float64(len(terms)), true
}

func lowerAll(terms []string) []string {
	out := make([]string, len(terms))
	for i, term := range terms {
		out[i] = strings.ToLower(term)
	}
	return out
}

func clampFactor(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func clampScore(v float64) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(v)
}

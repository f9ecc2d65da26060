package usecase

import (
	"strings"
	"testing"

	"github.com/kirillkom/docscout/internal/core/domain"
)

func contentCandidate(id, section, content string, score float64) domain.ScoredCandidate {
	cand := candidate(id, score, domain.MatchFused)
	cand.Passage.SectionHeading = section
	cand.Passage.Content = content
	return cand
}

func TestConfidenceZeroResults(t *testing.T) {
	s := NewConfidenceScorer(DefaultParams())
	got := s.Score("anything", domain.QueryAnalysis{Keywords: []string{"anything"}}, nil, "")

	if got.Factors.Retrieval != 0 {
		t.Fatalf("zero results must yield retrievalScore 0, got %v", got.Factors.Retrieval)
	}
	if got.Score < 0 || got.Score > 100 {
		t.Fatalf("score out of bounds: %d", got.Score)
	}
	if got.Explanation == "" {
		t.Fatalf("explanation must not be empty")
	}
}

func TestConfidenceBounds(t *testing.T) {
	s := NewConfidenceScorer(DefaultParams())

	results := make([]domain.ScoredCandidate, 0, 20)
	for i := 0; i < 20; i++ {
		results = append(results, contentCandidate("p", "Hash Trees", "merkle tree hash structure verification", 0.03))
	}

	inputs := []struct {
		name    string
		query   string
		results []domain.ScoredCandidate
		draft   string
	}{
		{"rich", "merkle tree verification", results, strings.Repeat("merkle trees verify data integrity. ", 20) + "```go\ncode\n```"},
		{"sparse", "quantum chromodynamics", results[:1], ""},
		{"empty_query", "", nil, ""},
	}
	for _, in := range inputs {
		t.Run(in.name, func(t *testing.T) {
			got := s.Score(in.query, domain.QueryAnalysis{Keywords: extractKeywords(in.query)}, in.results, in.draft)
			if got.Score < 0 || got.Score > 100 {
				t.Fatalf("score out of bounds: %d", got.Score)
			}
			for _, factor := range []float64{got.Factors.Retrieval, got.Factors.Coverage, got.Factors.AnswerQuality, got.Factors.Consistency} {
				if factor < 0 || factor > 100 {
					t.Fatalf("factor out of bounds: %v", factor)
				}
			}
		})
	}
}

func TestConfidenceNeutralWithoutDraft(t *testing.T) {
	if got := answerQualityScore("", domain.QueryHowTo); got != 50 {
		t.Fatalf("missing draft must score a neutral 50, got %v", got)
	}
}

func TestConfidenceCodeFenceBonus(t *testing.T) {
	draft := strings.Repeat("use the client like this. ", 15) + "```go\nclient.Do(req)\n```"
	withFence := answerQualityScore(draft, domain.QueryCodeLookup)
	withoutFence := answerQualityScore(strings.Repeat("use the client like this. ", 15), domain.QueryCodeLookup)
	if withFence <= withoutFence {
		t.Fatalf("code fence must raise quality for code queries: %v vs %v", withFence, withoutFence)
	}
}

func TestConfidenceConsistencyPenalizesScatter(t *testing.T) {
	tight := []domain.ScoredCandidate{
		contentCandidate("a", "Connection Pooling", "x", 0.03),
		contentCandidate("b", "Connection Pooling", "x", 0.03),
		contentCandidate("c", "Connection Pooling", "x", 0.03),
	}
	scattered := []domain.ScoredCandidate{
		contentCandidate("a", "Connection Pooling", "x", 0.03),
		contentCandidate("b", "Error Handling", "x", 0.03),
		contentCandidate("c", "Deployment", "x", 0.03),
	}
	if sourceConsistency(tight) <= sourceConsistency(scattered) {
		t.Fatalf("scattered sections must score lower")
	}
}

func TestConfidenceExplanationFlagsLowFactors(t *testing.T) {
	s := NewConfidenceScorer(DefaultParams())
	got := s.Score("zebra xylophone", domain.QueryAnalysis{Keywords: []string{"zebra", "xylophone"}},
		[]domain.ScoredCandidate{contentCandidate("a", "Intro", "nothing relevant here", 0.01)}, "")
	if !strings.Contains(got.Explanation, "covers the query terms poorly") {
		t.Fatalf("expected coverage diagnostic, got %q", got.Explanation)
	}
}

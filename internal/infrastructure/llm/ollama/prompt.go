package ollama

import (
	"fmt"
	"strings"

	"github.com/kirillkom/docscout/internal/core/domain"
)

func buildScoringPrompt(req domain.ScoringRequest) string {
	var candidates strings.Builder
	for _, cand := range req.Candidates {
		candidates.WriteString(fmt.Sprintf(
			"[%d] kind=%s %s\n%s\n\n",
			cand.Index,
			cand.Kind,
			cand.Summary,
			cand.Preview,
		))
	}

	return fmt.Sprintf(`You rank documentation passages by relevance to a question.
%s
Return strict JSON object with a single key:
ranking (array of exactly %d candidate indices, most relevant first).
Use only indices listed below. No markdown, no extra keys.

Question:
%s

Candidates:
%s`, req.Guidance, req.TopK, req.Query, candidates.String())
}

func buildAnswerPrompt(question string, results []domain.ScoredCandidate) string {
	var contextBuilder strings.Builder
	for idx, cand := range results {
		contextBuilder.WriteString(fmt.Sprintf(
			"[%d] source=%s section=%s\n%s\n\n",
			idx+1,
			cand.Passage.SourceURL,
			cand.Passage.SectionHeading,
			cand.Passage.Content,
		))
	}

	return fmt.Sprintf(`Answer the question only from the documentation context below.
Cite sources as [n] next to the statements they support.
If the context is insufficient, say it directly.

Question:
%s

Context:
%s`, question, contextBuilder.String())
}

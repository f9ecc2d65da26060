package ports

import (
	"context"

	"github.com/kirillkom/docscout/internal/core/domain"
)

type SearchOptions struct {
	Limit    int
	Kind     domain.ContentKind
	CorpusID string
}

// SemanticSearcher queries the embedding-based index. Scores are on an
// opaque higher-is-better scale, comparable only within one call.
type SemanticSearcher interface {
	Search(ctx context.Context, query string, opts SearchOptions) ([]domain.ScoredCandidate, error)
}

// LexicalSearcher queries the keyword/full-text index. Its score scale is
// independent of the semantic one; fusion ignores raw magnitudes.
type LexicalSearcher interface {
	Search(ctx context.Context, query string, opts SearchOptions) ([]domain.ScoredCandidate, error)
}

// NeighborStore returns passages surrounding an anchor within the same
// source document, ordered by document position.
type NeighborStore interface {
	Neighbors(ctx context.Context, corpusID, sourceURL, anchorID string, before, after int) ([]domain.Passage, error)
}

// PassageReader reads a single indexed passage.
type PassageReader interface {
	GetByID(ctx context.Context, id string) (*domain.Passage, error)
}

// RelevanceScorer is an untrusted external capability: given a scoring
// request it returns candidate indices in relevance order. Callers must
// treat any error or malformed response as non-fatal.
type RelevanceScorer interface {
	ScoreCandidates(ctx context.Context, req domain.ScoringRequest) ([]int, error)
}

// AnswerGenerator drafts the user-facing answer from ranked passages.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, question string, results []domain.ScoredCandidate) (string, error)
}

// SessionMemory is a TTL-bounded store of recent query keywords per
// corpus/session, used to bias query expansion across turns.
type SessionMemory interface {
	RecentKeywords(ctx context.Context, corpusID, sessionID string) ([]string, error)
	RememberKeywords(ctx context.Context, corpusID, sessionID string, keywords []string) error
}

// OutcomePublisher emits the attempt log of a finished query for
// observability. Publish failures must never affect the caller.
type OutcomePublisher interface {
	PublishOutcome(ctx context.Context, event domain.OutcomeEvent) error
}

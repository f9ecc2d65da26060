package ports

import (
	"context"

	"github.com/kirillkom/docscout/internal/core/domain"
)

type QuestionRequest struct {
	Query     string
	CorpusID  string
	SessionID string
	Limit     int
}

// QuestionService is the inbound contract of the retrieval engine.
// Search runs retrieval only; Ask additionally drafts an answer and folds
// it into the confidence score. Callers bound both with a context deadline.
type QuestionService interface {
	Search(ctx context.Context, req QuestionRequest) (*domain.Outcome, error)
	Ask(ctx context.Context, req QuestionRequest) (*domain.Outcome, error)
}

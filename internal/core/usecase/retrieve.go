package usecase

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/docscout/internal/core/domain"
	"github.com/kirillkom/docscout/internal/core/ports"
)

type RetrievalMode string

const (
	ModeHybrid   RetrievalMode = "hybrid"
	ModeSemantic RetrievalMode = "semantic"
	ModeLexical  RetrievalMode = "lexical"
)

type RetrieveOptions struct {
	Limit    int
	Kind     domain.ContentKind
	CorpusID string
	Mode     RetrievalMode
}

// Retriever is the hybrid retrieval coordinator: it fans out to the
// semantic and lexical indexes concurrently, waits for both, and fuses the
// two rankings with RRF. One failed branch degrades to a single-source
// result; both failing is domain.ErrAllSourcesFailed.
type Retriever struct {
	semantic ports.SemanticSearcher
	lexical  ports.LexicalSearcher
	params   Params
}

func NewRetriever(semantic ports.SemanticSearcher, lexical ports.LexicalSearcher, params Params) *Retriever {
	return &Retriever{
		semantic: semantic,
		lexical:  lexical,
		params:   params.normalize(),
	}
}

func (r *Retriever) Retrieve(ctx context.Context, query string, opts RetrieveOptions) ([]domain.ScoredCandidate, error) {
	if opts.Limit <= 0 {
		opts.Limit = 5
	}
	if opts.Mode == "" {
		opts.Mode = ModeHybrid
	}

	// Each branch over-fetches to leave headroom for fusion and reranking.
	headroom := opts.Limit * r.params.CandidateMultiplier
	if headroom < r.params.MinCandidates {
		headroom = r.params.MinCandidates
	}
	searchOpts := ports.SearchOptions{
		Limit:    headroom,
		Kind:     opts.Kind,
		CorpusID: opts.CorpusID,
	}

	switch opts.Mode {
	case ModeSemantic:
		return r.searchOne(ctx, r.semantic.Search, query, searchOpts, headroom)
	case ModeLexical:
		return r.searchOne(ctx, r.lexical.Search, query, searchOpts, headroom)
	}

	var (
		semanticHits, lexicalHits []domain.ScoredCandidate
		semanticErr, lexicalErr   error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		branchCtx, cancel := context.WithTimeout(gctx, r.params.SearchTimeout)
		defer cancel()
		semanticHits, semanticErr = r.semantic.Search(branchCtx, query, searchOpts)
		return nil
	})
	g.Go(func() error {
		branchCtx, cancel := context.WithTimeout(gctx, r.params.SearchTimeout)
		defer cancel()
		lexicalHits, lexicalErr = r.lexical.Search(branchCtx, query, searchOpts)
		return nil
	})
	_ = g.Wait()

	if semanticErr != nil && lexicalErr != nil {
		return nil, domain.WrapError(domain.ErrAllSourcesFailed, "hybrid retrieve",
			errors.Join(semanticErr, lexicalErr))
	}
	if semanticErr != nil {
		slog.Warn("semantic_search_failed", "corpus_id", opts.CorpusID, "error", semanticErr)
		semanticHits = nil
	}
	if lexicalErr != nil {
		slog.Warn("lexical_search_failed", "corpus_id", opts.CorpusID, "error", lexicalErr)
		lexicalHits = nil
	}

	trustWeights := map[domain.TrustTier]float64(nil)
	if r.params.TrustWeighting {
		trustWeights = r.params.TrustWeights
	}

	fused := fuseRRF(semanticHits, lexicalHits, r.params.RRFK, trustWeights)
	return trimCandidates(fused, headroom), nil
}

type searchFn func(ctx context.Context, query string, opts ports.SearchOptions) ([]domain.ScoredCandidate, error)

func (r *Retriever) searchOne(ctx context.Context, search searchFn, query string, opts ports.SearchOptions, headroom int) ([]domain.ScoredCandidate, error) {
	branchCtx, cancel := context.WithTimeout(ctx, r.params.SearchTimeout)
	defer cancel()

	hits, err := search(branchCtx, query, opts)
	if err != nil {
		return nil, domain.WrapError(domain.ErrAllSourcesFailed, "single-source retrieve", err)
	}
	return trimCandidates(hits, headroom), nil
}

package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/docscout/internal/core/domain"
	"github.com/kirillkom/docscout/internal/core/ports"
)

// Controller orchestrates one logical query: analyze, retrieve, expand,
// rerank, score, and — when the first pass is weak — retry with
// reformulated queries. The retry loop is a small explicit state machine
// (initial -> evaluating -> retrying* -> done) with an append-only attempt
// log; it never issues more than MaxRetries extra rounds and returns the
// best attempt gathered when the context deadline cuts it short.
type Controller struct {
	analyzer   *Analyzer
	retriever  *Retriever
	expander   *Expander
	reranker   *Reranker
	confidence *ConfidenceScorer
	generator  ports.AnswerGenerator
	publisher  ports.OutcomePublisher
	params     Params
}

func NewController(
	analyzer *Analyzer,
	retriever *Retriever,
	expander *Expander,
	reranker *Reranker,
	confidence *ConfidenceScorer,
	generator ports.AnswerGenerator,
	publisher ports.OutcomePublisher,
	params Params,
) *Controller {
	return &Controller{
		analyzer:   analyzer,
		retriever:  retriever,
		expander:   expander,
		reranker:   reranker,
		confidence: confidence,
		generator:  generator,
		publisher:  publisher,
		params:     params.normalize(),
	}
}

var errEmptyQuery = errors.New("query must not be empty")

type attempt struct {
	queryUsed string
	results   []domain.ScoredCandidate
	tier      domain.QualityTier
}

func (c *Controller) Search(ctx context.Context, req ports.QuestionRequest) (*domain.Outcome, error) {
	outcome, _, err := c.handle(ctx, req)
	return outcome, err
}

func (c *Controller) Ask(ctx context.Context, req ports.QuestionRequest) (*domain.Outcome, error) {
	outcome, analysis, err := c.handle(ctx, req)
	if err != nil {
		return nil, err
	}
	if c.generator == nil || len(outcome.Results) == 0 {
		return outcome, nil
	}

	draft, err := c.generator.GenerateAnswer(ctx, req.Query, outcome.Results)
	if err != nil {
		// Synthesis is outside this core; retrieval output stands on its own.
		slog.Warn("answer_generation_failed", "corpus_id", req.CorpusID, "error", err)
		return outcome, nil
	}

	outcome.Answer = draft
	outcome.Confidence = c.confidence.Score(req.Query, analysis, outcome.Results, draft)
	return outcome, nil
}

func (c *Controller) handle(ctx context.Context, req ports.QuestionRequest) (*domain.Outcome, domain.QueryAnalysis, error) {
	started := time.Now()

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, domain.QueryAnalysis{}, domain.WrapError(domain.ErrInvalidInput, "handle query", errEmptyQuery)
	}

	analysis := c.analyzer.Analyze(ctx, req.CorpusID, req.SessionID, query)
	limit := req.Limit
	if limit <= 0 {
		limit = analysis.SuggestedLimit
	}

	// Initial state: one full pipeline pass with the analyzer's parameters.
	first, err := c.runAttempt(ctx, analysis.ExpandedQuery, analysis, limit, req.CorpusID)
	if err != nil {
		return nil, analysis, err
	}
	attempts := []attempt{first}

	// Evaluating / retrying states.
	if c.shouldRetry(first) {
		attempts = c.retryLoop(ctx, attempts, analysis, limit, req.CorpusID)
	}

	best := bestAttempt(attempts)
	outcome := &domain.Outcome{
		Results:    best.results,
		Confidence: c.confidence.Score(query, analysis, best.results, ""),
		Tier:       best.tier,
		Retried:    len(attempts) > 1,
		Attempts:   attemptRecords(attempts),
	}

	c.publish(ctx, req, outcome, time.Since(started))
	return outcome, analysis, nil
}

// retryLoop consumes alternative formulations in order, merging each
// round's new passages into the running set, and stops as soon as quality
// climbs out of low or the deadline expires. Exhausting all retries with
// quality still low is a normal terminal outcome.
func (c *Controller) retryLoop(ctx context.Context, attempts []attempt, analysis domain.QueryAnalysis, limit int, corpusID string) []attempt {
	running := attempts[len(attempts)-1]
	alternatives := reformulate(analysis)

	retries := 0
	for _, alt := range alternatives {
		if retries >= c.params.MaxRetries {
			break
		}
		if ctx.Err() != nil {
			slog.Info("retry_deadline_exceeded", "corpus_id", corpusID, "retries", retries)
			break
		}

		retries++
		next, err := c.runAttempt(ctx, alt, analysis, limit, corpusID)
		if err != nil {
			// A mid-retry total failure does not discard what we already
			// have, but the round still belongs in the attempt log.
			slog.Warn("retry_attempt_failed", "query", alt, "error", err)
			attempts = append(attempts, attempt{queryUsed: alt, tier: domain.QualityLow})
			continue
		}

		merged := mergeUnique(running.results, next.results, limit)
		running = attempt{
			queryUsed: alt,
			results:   merged,
			tier:      c.evaluate(analysis, merged),
		}
		attempts = append(attempts, running)

		if running.tier != domain.QualityLow {
			break
		}
	}

	return attempts
}

func (c *Controller) runAttempt(ctx context.Context, query string, analysis domain.QueryAnalysis, limit int, corpusID string) (attempt, error) {
	candidates, err := c.retriever.Retrieve(ctx, query, RetrieveOptions{
		Limit:    limit,
		Kind:     analysis.SuggestedKind,
		CorpusID: corpusID,
		Mode:     ModeHybrid,
	})
	if err != nil {
		return attempt{}, err
	}

	candidates = c.expander.Expand(ctx, candidates, analysis.Expansion)
	ranked := c.reranker.Rerank(ctx, query, analysis.Type, candidates, limit)

	return attempt{
		queryUsed: query,
		results:   ranked,
		tier:      c.evaluate(analysis, ranked),
	}, nil
}

// evaluate buckets an attempt's quality. Thresholds are configuration;
// the defaults mark sparse, weakly scored, or poorly covering result sets
// as low and middling coverage as medium.
func (c *Controller) evaluate(analysis domain.QueryAnalysis, results []domain.ScoredCandidate) domain.QualityTier {
	if len(results) == 0 {
		return domain.QualityLow
	}
	if len(results) < c.params.MinResults {
		return domain.QualityLow
	}

	var sum float64
	for _, cand := range results {
		sum += cand.Score
	}
	avg := sum / float64(len(results))
	if avg < c.params.ScoreFloorLow {
		return domain.QualityLow
	}

	coverage := keywordCoverage(analysis, results)
	if coverage < c.params.CoverageLow {
		return domain.QualityLow
	}
	if coverage < c.params.CoverageMid || avg < c.params.ScoreFloorMid {
		return domain.QualityMedium
	}
	return domain.QualityHigh
}

func (c *Controller) shouldRetry(a attempt) bool {
	return a.tier == domain.QualityLow && len(a.results) < c.params.RetrySpareResults
}

func (c *Controller) publish(ctx context.Context, req ports.QuestionRequest, outcome *domain.Outcome, elapsed time.Duration) {
	if c.publisher == nil {
		return
	}

	// Detached from the request deadline so a slow caller still gets traced.
	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	event := domain.OutcomeEvent{
		QueryID:    uuid.NewString(),
		CorpusID:   req.CorpusID,
		RawQuery:   req.Query,
		Tier:       outcome.Tier,
		Retried:    outcome.Retried,
		Attempts:   outcome.Attempts,
		Confidence: outcome.Confidence.Score,
		DurationMS: float64(elapsed.Microseconds()) / 1000.0,
	}
	if err := c.publisher.PublishOutcome(publishCtx, event); err != nil {
		slog.Warn("outcome_publish_failed", "corpus_id", req.CorpusID, "error", err)
	}
}

// reformulate generates the alternative query formulations, in the order
// they should be tried: a broadened half-keyword query, the raw query with
// a type-specific suffix, and the bare keyword list.
func reformulate(analysis domain.QueryAnalysis) []string {
	var out []string
	seen := map[string]struct{}{
		analysis.ExpandedQuery: {},
	}
	add := func(q string) {
		q = strings.TrimSpace(q)
		if q == "" {
			return
		}
		if _, dup := seen[q]; dup {
			return
		}
		seen[q] = struct{}{}
		out = append(out, q)
	}

	if len(analysis.Keywords) > 1 {
		half := (len(analysis.Keywords) + 1) / 2
		add(strings.Join(analysis.Keywords[:half], " "))
	}
	if suffix := typeSuffix(analysis.Type); suffix != "" {
		add(analysis.RawQuery + " " + suffix)
	}
	add(strings.Join(analysis.Keywords, " "))

	return out
}

// keywordCoverage is the fraction of analyzer keywords literally present
// in the top few results' content.
func keywordCoverage(analysis domain.QueryAnalysis, results []domain.ScoredCandidate) float64 {
	content := topContentLower(results, 3)
	fraction, ok := containedFraction(lowerAll(analysis.Keywords), content)
	if !ok {
		// A query with no meaningful keywords cannot be coverage-scored;
		// treat it as fully covered rather than forever low.
		return 1
	}
	return fraction
}

func mergeUnique(base, extra []domain.ScoredCandidate, limit int) []domain.ScoredCandidate {
	seen := make(map[string]struct{}, len(base))
	out := make([]domain.ScoredCandidate, 0, len(base)+len(extra))
	for _, cand := range base {
		seen[cand.Passage.ID] = struct{}{}
		out = append(out, cand)
	}
	for _, cand := range extra {
		if _, dup := seen[cand.Passage.ID]; dup {
			continue
		}
		seen[cand.Passage.ID] = struct{}{}
		out = append(out, cand)
	}

	// New passages land after the base set, so the merged ranking has to be
	// restored before it is evaluated or emitted; the stable sort keeps the
	// base attempt ahead of retry newcomers on equal scores.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	out = trimCandidates(out, limit)
	enforceDescending(out)
	return out
}

// bestAttempt picks the highest-quality attempt, preferring earlier ones
// on ties; the final attempt is not automatically the winner.
func bestAttempt(attempts []attempt) attempt {
	best := attempts[0]
	for _, a := range attempts[1:] {
		if tierRank(a.tier) > tierRank(best.tier) {
			best = a
		}
	}
	return best
}

func tierRank(tier domain.QualityTier) int {
	switch tier {
	case domain.QualityHigh:
		return 2
	case domain.QualityMedium:
		return 1
	default:
		return 0
	}
}

func attemptRecords(attempts []attempt) []domain.AttemptRecord {
	out := make([]domain.AttemptRecord, 0, len(attempts))
	for _, a := range attempts {
		out = append(out, domain.AttemptRecord{
			QueryUsed:   a.queryUsed,
			ResultCount: len(a.results),
			Tier:        a.tier,
		})
	}
	return out
}

package domain

type QualityTier string

const (
	QualityHigh   QualityTier = "high"
	QualityMedium QualityTier = "medium"
	QualityLow    QualityTier = "low"
)

type ConfidenceFactors struct {
	Retrieval     float64 `json:"retrieval_score"`
	Coverage      float64 `json:"coverage_score"`
	AnswerQuality float64 `json:"answer_quality_score"`
	Consistency   float64 `json:"source_consistency"`
}

type ConfidenceResult struct {
	Score       int               `json:"score"`
	Factors     ConfidenceFactors `json:"factors"`
	Explanation string            `json:"explanation"`
}

// AttemptRecord is the observable trace of one retrieval round.
type AttemptRecord struct {
	QueryUsed   string      `json:"query_used"`
	ResultCount int         `json:"result_count"`
	Tier        QualityTier `json:"quality_tier"`
}

// OutcomeEvent is the observability record published after a query is
// fully handled.
type OutcomeEvent struct {
	QueryID    string          `json:"query_id"`
	CorpusID   string          `json:"corpus_id"`
	RawQuery   string          `json:"raw_query"`
	Tier       QualityTier     `json:"quality_tier"`
	Retried    bool            `json:"retried"`
	Attempts   []AttemptRecord `json:"attempts"`
	Confidence int             `json:"confidence"`
	DurationMS float64         `json:"duration_ms"`
}

// Outcome is what the engine hands to any transport built on top of it.
type Outcome struct {
	Results    []ScoredCandidate `json:"results"`
	Confidence ConfidenceResult  `json:"confidence"`
	Tier       QualityTier       `json:"quality_tier"`
	Retried    bool              `json:"retried"`
	Attempts   []AttemptRecord   `json:"attempts"`
	Answer     string            `json:"answer,omitempty"`
}

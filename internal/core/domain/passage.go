package domain

type ContentKind string

const (
	KindProse        ContentKind = "prose"
	KindCode         ContentKind = "code"
	KindAPIReference ContentKind = "api-reference"
)

type TrustTier string

const (
	TrustOfficial  TrustTier = "official"
	TrustVerified  TrustTier = "verified"
	TrustCommunity TrustTier = "community"
)

// MatchSource records which index produced a candidate. After RRF fusion
// every candidate carries MatchFused.
type MatchSource string

const (
	MatchSemantic MatchSource = "semantic"
	MatchLexical  MatchSource = "lexical"
	MatchFused    MatchSource = "fused"
)

type PassageMetadata struct {
	HeadingTrail []string  `json:"heading_trail,omitempty"`
	CodeLanguage string    `json:"code_language,omitempty"`
	Symbols      []string  `json:"symbols,omitempty"`
	TrustTier    TrustTier `json:"trust_tier,omitempty"`
	QualityScore float64   `json:"quality_score,omitempty"`
}

// Passage is a retrievable unit of indexed documentation. Passages are
// created by the indexing pipeline and are read-only here; Position is the
// passage's order within its source document.
type Passage struct {
	ID             string          `json:"id"`
	SourceURL      string          `json:"source_url"`
	Title          string          `json:"title"`
	SectionHeading string          `json:"section_heading"`
	Content        string          `json:"content"`
	Kind           ContentKind     `json:"content_kind"`
	CorpusID       string          `json:"corpus_id"`
	Position       int             `json:"position"`
	Metadata       PassageMetadata `json:"metadata"`
}

type ScoredCandidate struct {
	Passage Passage     `json:"passage"`
	Score   float64     `json:"score"`
	Source  MatchSource `json:"match_source"`
}

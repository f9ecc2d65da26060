package domain

type QueryType string

const (
	QueryError        QueryType = "error"
	QueryHowTo        QueryType = "howto"
	QueryConcept      QueryType = "concept"
	QueryCodeLookup   QueryType = "code_lookup"
	QueryAPIReference QueryType = "api_reference"
	QueryGeneral      QueryType = "general"
)

// ExpansionWindows maps a content kind to the number of neighboring passages
// fetched on each side of an anchor of that kind. A zero window disables
// expansion for the kind.
type ExpansionWindows map[ContentKind]int

// QueryAnalysis is produced once per incoming query and consumed unchanged
// by every downstream component.
type QueryAnalysis struct {
	RawQuery       string           `json:"raw_query"`
	ExpandedQuery  string           `json:"expanded_query"`
	Type           QueryType        `json:"type"`
	Keywords       []string         `json:"keywords"`
	SuggestedLimit int              `json:"suggested_limit"`
	SuggestedKind  ContentKind      `json:"suggested_content_kind,omitempty"`
	Expansion      ExpansionWindows `json:"expansion"`
}

// ScoringCandidate is one entry in a relevance-scoring request: a stable
// index into the candidate list plus a truncated preview the scorer judges.
type ScoringCandidate struct {
	Index   int         `json:"index"`
	Kind    ContentKind `json:"kind"`
	Summary string      `json:"summary"`
	Preview string      `json:"preview"`
}

// ScoringRequest is the structured payload handed to the external relevance
// scorer. The scorer returns the TopK candidate indices in relevance order.
type ScoringRequest struct {
	Query      string             `json:"query"`
	Guidance   string             `json:"guidance"`
	TopK       int                `json:"top_k"`
	Candidates []ScoringCandidate `json:"candidates"`
}

package usecase

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/kirillkom/docscout/internal/core/domain"
	"github.com/kirillkom/docscout/internal/core/ports"
)

// Analyzer classifies raw queries and derives retrieval parameters from
// the classification. Classification is an ordered rule table; the first
// matching rule wins and the fallback is QueryGeneral. Analyze never fails.
type Analyzer struct {
	memory ports.SessionMemory
	rules  []classificationRule
}

type classificationRule struct {
	queryType domain.QueryType
	matches   func(q string) bool
}

var (
	reErrorPhrase  = regexp.MustCompile(`(?i)\b(error|exception|panic|traceback|stack trace|crash(es|ed)?|fail(s|ed|ing)?|not work(s|ing)?|cannot|can't|undefined|nil pointer|segfault)\b`)
	reHowToPhrase  = regexp.MustCompile(`(?i)\b(how (do|to|can|should)|steps to|guide (to|for)|set ?up|configure|install)\b`)
	reConcept      = regexp.MustCompile(`(?i)\b(what (is|are|does)|explain|meaning of|difference between|why (is|are|does)|when (to|should))\b`)
	reAPIReference = regexp.MustCompile(`(?i)\b(api|reference|signature|parameters? of|arguments? of|return (type|value)|method(s)? (of|on)|endpoint)\b`)
	reBacktick     = regexp.MustCompile("`[^`]+`")
	reFunctionCall = regexp.MustCompile(`\b\w+\s*\(`)
	reCamelCase    = regexp.MustCompile(`\b[a-z]+[A-Z]\w*\b|\b[A-Z][a-z]+[A-Z]\w*\b`)
	reSnakeIdent   = regexp.MustCompile(`\b\w+_\w+\b`)
)

func NewAnalyzer(memory ports.SessionMemory) *Analyzer {
	return &Analyzer{
		memory: memory,
		rules: []classificationRule{
			{domain.QueryError, func(q string) bool { return reErrorPhrase.MatchString(q) }},
			{domain.QueryHowTo, func(q string) bool { return reHowToPhrase.MatchString(q) }},
			{domain.QueryConcept, func(q string) bool { return reConcept.MatchString(q) }},
			{domain.QueryAPIReference, func(q string) bool { return reAPIReference.MatchString(q) }},
			{domain.QueryCodeLookup, looksLikeCode},
		},
	}
}

func looksLikeCode(q string) bool {
	return reBacktick.MatchString(q) ||
		reCamelCase.MatchString(q) ||
		reSnakeIdent.MatchString(q) ||
		reFunctionCall.MatchString(q)
}

func (a *Analyzer) Analyze(ctx context.Context, corpusID, sessionID, rawQuery string) domain.QueryAnalysis {
	query := strings.TrimSpace(rawQuery)

	queryType := domain.QueryGeneral
	for _, rule := range a.rules {
		if rule.matches(query) {
			queryType = rule.queryType
			break
		}
	}

	keywords := extractKeywords(query)
	expanded := expandQuery(query, queryType)
	expanded = a.applySessionBias(ctx, corpusID, sessionID, expanded, keywords)

	return domain.QueryAnalysis{
		RawQuery:       rawQuery,
		ExpandedQuery:  expanded,
		Type:           queryType,
		Keywords:       keywords,
		SuggestedLimit: suggestedLimit(queryType),
		SuggestedKind:  suggestedKind(queryType),
		Expansion:      expansionWindows(queryType),
	}
}

// expandQuery appends type-specific synonym suffixes; RawQuery stays as
// the user wrote it.
func expandQuery(query string, queryType domain.QueryType) string {
	suffix := typeSuffix(queryType)
	if suffix == "" {
		return query
	}
	return query + " " + suffix
}

func typeSuffix(queryType domain.QueryType) string {
	switch queryType {
	case domain.QueryHowTo:
		return "tutorial example"
	case domain.QueryError:
		return "solution fix"
	case domain.QueryConcept:
		return "definition overview"
	case domain.QueryAPIReference:
		return "api documentation"
	default:
		return ""
	}
}

func suggestedLimit(queryType domain.QueryType) int {
	switch queryType {
	case domain.QueryConcept:
		return 12
	case domain.QueryCodeLookup, domain.QueryAPIReference:
		return 6
	default:
		return 8
	}
}

func suggestedKind(queryType domain.QueryType) domain.ContentKind {
	switch queryType {
	case domain.QueryCodeLookup:
		return domain.KindCode
	case domain.QueryAPIReference:
		return domain.KindAPIReference
	default:
		return ""
	}
}

// expansionWindows tunes adjacent-chunk fetching per query type: concept
// queries favor surrounding prose, error/howto lean on code context, and
// code lookups skip expansion since code passages are self-contained.
func expansionWindows(queryType domain.QueryType) domain.ExpansionWindows {
	switch queryType {
	case domain.QueryConcept:
		return domain.ExpansionWindows{
			domain.KindProse:        2,
			domain.KindCode:         1,
			domain.KindAPIReference: 1,
		}
	case domain.QueryError, domain.QueryHowTo:
		return domain.ExpansionWindows{
			domain.KindProse:        1,
			domain.KindCode:         2,
			domain.KindAPIReference: 1,
		}
	case domain.QueryCodeLookup:
		return domain.ExpansionWindows{}
	case domain.QueryAPIReference:
		return domain.ExpansionWindows{
			domain.KindCode:         1,
			domain.KindAPIReference: 1,
		}
	default:
		return domain.ExpansionWindows{
			domain.KindProse:        1,
			domain.KindCode:         1,
			domain.KindAPIReference: 1,
		}
	}
}

// applySessionBias folds a couple of recent session keywords into the
// expanded query and records the current ones. Memory problems are logged
// and ignored; analysis must never fail.
func (a *Analyzer) applySessionBias(ctx context.Context, corpusID, sessionID, expanded string, keywords []string) string {
	if a.memory == nil || sessionID == "" {
		return expanded
	}

	recent, err := a.memory.RecentKeywords(ctx, corpusID, sessionID)
	if err != nil {
		slog.Warn("session_memory_read_failed", "corpus_id", corpusID, "error", err)
		recent = nil
	}

	present := toTokenSet(expanded)
	added := 0
	for _, term := range recent {
		if added >= 2 {
			break
		}
		if _, ok := present[strings.ToLower(term)]; ok {
			continue
		}
		expanded += " " + term
		added++
	}

	if len(keywords) > 0 {
		if err := a.memory.RememberKeywords(ctx, corpusID, sessionID, keywords); err != nil {
			slog.Warn("session_memory_write_failed", "corpus_id", corpusID, "error", err)
		}
	}
	return expanded
}

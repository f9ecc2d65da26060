package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kirillkom/docscout/internal/core/domain"
)

type memoryFake struct {
	recent     []string
	readErr    error
	remembered [][]string
}

func (f *memoryFake) RecentKeywords(context.Context, string, string) ([]string, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.recent, nil
}

func (f *memoryFake) RememberKeywords(_ context.Context, _, _ string, keywords []string) error {
	f.remembered = append(f.remembered, keywords)
	return nil
}

func TestAnalyzeClassification(t *testing.T) {
	cases := []struct {
		query string
		want  domain.QueryType
	}{
		{"panic: runtime error: index out of range", domain.QueryError},
		{"TypeError: cannot read property of undefined", domain.QueryError},
		{"how do I configure connection pooling", domain.QueryHowTo},
		{"how to deploy with docker", domain.QueryHowTo},
		{"what is a goroutine", domain.QueryConcept},
		{"explain eventual consistency", domain.QueryConcept},
		{"difference between mutex and rwmutex", domain.QueryConcept},
		{"parameters of the search endpoint", domain.QueryAPIReference},
		{"`http.Client` timeout field", domain.QueryCodeLookup},
		{"ParseConfig usage", domain.QueryCodeLookup},
		{"read_file implementation", domain.QueryCodeLookup},
		{"json.Marshal(v)", domain.QueryCodeLookup},
		{"documentation search", domain.QueryGeneral},
	}

	a := NewAnalyzer(nil)
	for _, tc := range cases {
		got := a.Analyze(context.Background(), "corpus", "", tc.query)
		if got.Type != tc.want {
			t.Fatalf("Analyze(%q).Type = %s, want %s", tc.query, got.Type, tc.want)
		}
	}
}

func TestAnalyzeFirstRuleWins(t *testing.T) {
	// Error phrasing plus a code identifier: the error rule sits first.
	a := NewAnalyzer(nil)
	got := a.Analyze(context.Background(), "corpus", "", "json.Unmarshal returns an error on nil pointer")
	if got.Type != domain.QueryError {
		t.Fatalf("expected error classification to win, got %s", got.Type)
	}
}

func TestAnalyzeExpandedQueryKeepsRawQuery(t *testing.T) {
	a := NewAnalyzer(nil)
	raw := "how to rotate tls certificates"
	got := a.Analyze(context.Background(), "corpus", "", raw)

	if got.RawQuery != raw {
		t.Fatalf("raw query mutated: %q", got.RawQuery)
	}
	if !strings.HasPrefix(got.ExpandedQuery, raw) || !strings.Contains(got.ExpandedQuery, "tutorial example") {
		t.Fatalf("expected howto suffix in expansion, got %q", got.ExpandedQuery)
	}
}

func TestAnalyzeKeywordsOrderedDeduplicated(t *testing.T) {
	a := NewAnalyzer(nil)
	got := a.Analyze(context.Background(), "corpus", "", "cache the cache invalidation Cache strategy")

	want := []string{"cache", "invalidation", "strategy"}
	if len(got.Keywords) != len(want) {
		t.Fatalf("keywords = %v, want %v", got.Keywords, want)
	}
	for i := range want {
		if !strings.EqualFold(got.Keywords[i], want[i]) {
			t.Fatalf("keywords = %v, want %v", got.Keywords, want)
		}
	}
}

func TestAnalyzeSuggestedParameters(t *testing.T) {
	a := NewAnalyzer(nil)

	concept := a.Analyze(context.Background(), "corpus", "", "what is raft consensus")
	general := a.Analyze(context.Background(), "corpus", "", "raft consensus docs")
	if concept.SuggestedLimit <= general.SuggestedLimit {
		t.Fatalf("concept queries request larger limits: %d vs %d", concept.SuggestedLimit, general.SuggestedLimit)
	}
	if concept.Expansion[domain.KindProse] < 2 {
		t.Fatalf("concept queries favor prose windows, got %v", concept.Expansion)
	}

	code := a.Analyze(context.Background(), "corpus", "", "NewClient(ctx)")
	if code.SuggestedKind != domain.KindCode {
		t.Fatalf("code lookup must filter to code passages, got %q", code.SuggestedKind)
	}
	if len(code.Expansion) != 0 {
		t.Fatalf("code lookup requests no expansion, got %v", code.Expansion)
	}

	failing := a.Analyze(context.Background(), "corpus", "", "connection refused error on startup")
	if failing.Expansion[domain.KindCode] <= failing.Expansion[domain.KindProse] {
		t.Fatalf("error queries weight windows toward code, got %v", failing.Expansion)
	}
}

func TestAnalyzeSessionBias(t *testing.T) {
	memory := &memoryFake{recent: []string{"postgres", "pooling"}}
	a := NewAnalyzer(memory)

	got := a.Analyze(context.Background(), "corpus", "session-1", "tune max connections")
	if !strings.Contains(got.ExpandedQuery, "postgres") {
		t.Fatalf("expected session bias in expansion, got %q", got.ExpandedQuery)
	}
	if len(memory.remembered) != 1 {
		t.Fatalf("expected keywords to be remembered once, got %d", len(memory.remembered))
	}
}

func TestAnalyzeNeverFails(t *testing.T) {
	memory := &memoryFake{readErr: errors.New("redis down")}
	a := NewAnalyzer(memory)

	got := a.Analyze(context.Background(), "corpus", "session-1", "???")
	if got.Type != domain.QueryGeneral {
		t.Fatalf("ambiguous input must default to general, got %s", got.Type)
	}

	empty := a.Analyze(context.Background(), "corpus", "", "")
	if empty.Type != domain.QueryGeneral || len(empty.Keywords) != 0 {
		t.Fatalf("empty input must yield general with no keywords, got %+v", empty)
	}
}

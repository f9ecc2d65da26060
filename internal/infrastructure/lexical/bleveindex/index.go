package bleveindex

import (
	"context"
	"fmt"

	"github.com/blevesearch/bleve"
	"github.com/blevesearch/bleve/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/mapping"

	"github.com/kirillkom/docscout/internal/core/domain"
	"github.com/kirillkom/docscout/internal/core/ports"
)

const defaultLimit = 10

// Index is a BM25 index over documentation passages. The crawler owns
// writes; the retrieval path only searches.
type Index struct {
	idx bleve.Index
}

// Open opens the index at path, creating it on first use.
func Open(path string) (*Index, error) {
	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		idx, err = bleve.New(path, buildMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("open bleve index: %w", err)
	}
	return &Index{idx: idx}, nil
}

func NewInMemory() (*Index, error) {
	idx, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, fmt.Errorf("create bleve index: %w", err)
	}
	return &Index{idx: idx}, nil
}

func (i *Index) Close() error {
	return i.idx.Close()
}

func buildMapping() mapping.IndexMapping {
	m := bleve.NewIndexMapping()

	// Filter fields must match exactly, not through the standard analyzer,
	// or corpus ids like "go-docs" would be split into two terms.
	kw := bleve.NewTextFieldMapping()
	kw.Analyzer = keyword.Name

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("corpus_id", kw)
	doc.AddFieldMappingsAt("content_kind", kw)
	doc.AddFieldMappingsAt("trust_tier", kw)
	m.DefaultMapping = doc
	return m
}

type passageDoc struct {
	SourceURL      string   `json:"source_url"`
	Title          string   `json:"title"`
	SectionHeading string   `json:"section_heading"`
	Content        string   `json:"content"`
	ContentKind    string   `json:"content_kind"`
	CorpusID       string   `json:"corpus_id"`
	Position       int      `json:"position"`
	HeadingTrail   []string `json:"heading_trail"`
	CodeLanguage   string   `json:"code_language"`
	Symbols        []string `json:"symbols"`
	TrustTier      string   `json:"trust_tier"`
	QualityScore   float64  `json:"quality_score"`
}

func (i *Index) IndexPassages(passages []domain.Passage) error {
	batch := i.idx.NewBatch()
	for _, p := range passages {
		if err := batch.Index(p.ID, docFromPassage(p)); err != nil {
			return fmt.Errorf("index passage %s: %w", p.ID, err)
		}
	}
	return i.idx.Batch(batch)
}

func (i *Index) Search(ctx context.Context, query string, opts ports.SearchOptions) ([]domain.ScoredCandidate, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	match := bleve.NewMatchQuery(query)
	conj := bleve.NewConjunctionQuery(match)
	if opts.CorpusID != "" {
		tq := bleve.NewTermQuery(opts.CorpusID)
		tq.SetField("corpus_id")
		conj.AddQuery(tq)
	}
	if opts.Kind != "" {
		tq := bleve.NewTermQuery(string(opts.Kind))
		tq.SetField("content_kind")
		conj.AddQuery(tq)
	}

	req := bleve.NewSearchRequestOptions(conj, limit, 0, false)
	req.Fields = []string{"*"}

	res, err := i.idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("bleve search: %w", err)
	}

	out := make([]domain.ScoredCandidate, 0, len(res.Hits))
	for _, hit := range res.Hits {
		out = append(out, domain.ScoredCandidate{
			Passage: passageFromFields(hit.ID, hit.Fields),
			Score:   hit.Score,
			Source:  domain.MatchLexical,
		})
	}
	return out, nil
}

func docFromPassage(p domain.Passage) passageDoc {
	return passageDoc{
		SourceURL:      p.SourceURL,
		Title:          p.Title,
		SectionHeading: p.SectionHeading,
		Content:        p.Content,
		ContentKind:    string(p.Kind),
		CorpusID:       p.CorpusID,
		Position:       p.Position,
		HeadingTrail:   p.Metadata.HeadingTrail,
		CodeLanguage:   p.Metadata.CodeLanguage,
		Symbols:        p.Metadata.Symbols,
		TrustTier:      string(p.Metadata.TrustTier),
		QualityScore:   p.Metadata.QualityScore,
	}
}

func passageFromFields(id string, fields map[string]any) domain.Passage {
	return domain.Passage{
		ID:             id,
		SourceURL:      fieldString(fields, "source_url"),
		Title:          fieldString(fields, "title"),
		SectionHeading: fieldString(fields, "section_heading"),
		Content:        fieldString(fields, "content"),
		Kind:           domain.ContentKind(fieldString(fields, "content_kind")),
		CorpusID:       fieldString(fields, "corpus_id"),
		Position:       fieldInt(fields, "position"),
		Metadata: domain.PassageMetadata{
			HeadingTrail: fieldStrings(fields, "heading_trail"),
			CodeLanguage: fieldString(fields, "code_language"),
			Symbols:      fieldStrings(fields, "symbols"),
			TrustTier:    domain.TrustTier(fieldString(fields, "trust_tier")),
			QualityScore: fieldFloat(fields, "quality_score"),
		},
	}
}

func fieldString(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return s
}

func fieldInt(fields map[string]any, key string) int {
	f, _ := fields[key].(float64)
	return int(f)
}

func fieldFloat(fields map[string]any, key string) float64 {
	f, _ := fields[key].(float64)
	return f
}

// Stored array fields come back as a bare value for single elements
// and as a slice otherwise.
func fieldStrings(fields map[string]any, key string) []string {
	switch v := fields[key].(type) {
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/docscout/internal/core/domain"
)

// PassageRepository is the canonical store for crawled passages. It backs
// both single-passage lookups and positional neighbor queries.
type PassageRepository struct {
	db *sql.DB
}

func NewPassageRepository(db *sql.DB) *PassageRepository {
	return &PassageRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *PassageRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across concurrent api startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS passages (
	id TEXT PRIMARY KEY,
	corpus_id TEXT NOT NULL,
	source_url TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	section_heading TEXT NOT NULL DEFAULT '',
	content TEXT NOT NULL,
	content_kind TEXT NOT NULL,
	position INTEGER NOT NULL,
	metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_passages_document_position ON passages(corpus_id, source_url, position);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

const passageColumns = `id, corpus_id, source_url, title, section_heading, content, content_kind, position, metadata`

func (r *PassageRepository) GetByID(ctx context.Context, id string) (*domain.Passage, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+passageColumns+`
FROM passages
WHERE id = $1
`, id)

	p, err := scanPassage(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrPassageNotFound, "get passage", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan passage: %w", err)
	}
	return p, nil
}

// Neighbors returns the passages within [position-before, position+after]
// around the anchor in the same document, excluding the anchor itself,
// ordered by position.
func (r *PassageRepository) Neighbors(ctx context.Context, corpusID, sourceURL, anchorID string, before, after int) ([]domain.Passage, error) {
	if before < 0 {
		before = 0
	}
	if after < 0 {
		after = 0
	}

	rows, err := r.db.QueryContext(ctx, `
WITH anchor AS (
	SELECT position FROM passages
	WHERE id = $3 AND corpus_id = $1 AND source_url = $2
)
SELECT `+qualifiedPassageColumns("p")+`
FROM passages p, anchor a
WHERE p.corpus_id = $1
  AND p.source_url = $2
  AND p.id <> $3
  AND p.position BETWEEN a.position - $4 AND a.position + $5
ORDER BY p.position
`, corpusID, sourceURL, anchorID, before, after)
	if err != nil {
		return nil, fmt.Errorf("query neighbors: %w", err)
	}
	defer rows.Close()

	var out []domain.Passage
	for rows.Next() {
		p, err := scanPassage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan neighbor: %w", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate neighbors: %w", err)
	}
	return out, nil
}

func qualifiedPassageColumns(alias string) string {
	return alias + ".id, " + alias + ".corpus_id, " + alias + ".source_url, " + alias + ".title, " +
		alias + ".section_heading, " + alias + ".content, " + alias + ".content_kind, " +
		alias + ".position, " + alias + ".metadata"
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPassage(row rowScanner) (*domain.Passage, error) {
	var p domain.Passage
	var kind string
	var metadataRaw []byte

	err := row.Scan(
		&p.ID, &p.CorpusID, &p.SourceURL, &p.Title, &p.SectionHeading,
		&p.Content, &kind, &p.Position, &metadataRaw,
	)
	if err != nil {
		return nil, err
	}

	p.Kind = domain.ContentKind(kind)
	if len(metadataRaw) > 0 {
		if err := json.Unmarshal(metadataRaw, &p.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return &p, nil
}

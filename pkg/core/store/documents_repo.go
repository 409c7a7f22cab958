package store

import (
	"context"
	"encoding/json"
	"fmt"

	"filing_tables/pkg/core/extract"

	"github.com/jackc/pgx/v5/pgxpool"
)

const documentsSchema = `
	CREATE TABLE IF NOT EXISTS filing_table_documents (
		run_id      TEXT        NOT NULL,
		source      TEXT        NOT NULL,
		table_index INTEGER     NOT NULL,
		strategy    TEXT        NOT NULL,
		document    JSONB       NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (run_id, table_index)
	)
`

// DocumentRepo persists extracted documents as JSONB rows.
type DocumentRepo struct {
	pool   *pgxpool.Pool
	source string
}

// StoredDocument is one persisted document.
type StoredDocument struct {
	RunID      string
	Source     string
	TableIndex int
	Strategy   string
	Document   json.RawMessage
}

// NewDocumentRepo creates a repository writing rows tagged with source.
func NewDocumentRepo(pool *pgxpool.Pool, source string) *DocumentRepo {
	return &DocumentRepo{pool: pool, source: source}
}

// EnsureSchema creates the documents table if needed.
func (r *DocumentRepo) EnsureSchema(ctx context.Context) error {
	if r.pool == nil {
		return fmt.Errorf("database pool not configured")
	}
	if _, err := r.pool.Exec(ctx, documentsSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// WriteDocument upserts the document of one table.
func (r *DocumentRepo) WriteDocument(ctx context.Context, runID string, doc *extract.Document) error {
	if r.pool == nil {
		return fmt.Errorf("database pool not configured")
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	query := `
		INSERT INTO filing_table_documents (run_id, source, table_index, strategy, document)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (run_id, table_index)
		DO UPDATE SET
			strategy = EXCLUDED.strategy,
			document = EXCLUDED.document
	`
	if _, err := r.pool.Exec(ctx, query, runID, r.source, doc.Table, doc.Strategy, body); err != nil {
		return fmt.Errorf("failed to save table %d: %w", doc.Table, err)
	}
	return nil
}

// GetDocuments returns the documents of a run ordered by table index.
func (r *DocumentRepo) GetDocuments(ctx context.Context, runID string) ([]StoredDocument, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("database pool not configured")
	}

	query := `
		SELECT run_id, source, table_index, strategy, document
		FROM filing_table_documents
		WHERE run_id = $1
		ORDER BY table_index
	`
	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []StoredDocument
	for rows.Next() {
		var d StoredDocument
		var body []byte
		if err := rows.Scan(&d.RunID, &d.Source, &d.TableIndex, &d.Strategy, &body); err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		d.Document = body
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// Package store persists uploaded price-list documents and their parse
// metadata in PostgreSQL.
//
// The catalog itself is not stored; it is cheap to rebuild and the parser is
// deterministic, so the raw document is the source of truth and the catalog
// is re-derived on read.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pricebook/pricebook/internal/catalog"
)

// ErrNotFound is returned when an upload ID does not exist.
var ErrNotFound = errors.New("upload not found")

// DBTX is the subset of pgx operations the store needs.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Upload is one stored document with its parse metadata.
// Document is empty on listing queries; use Get to fetch it.
type Upload struct {
	ID         uuid.UUID     `json:"id"`
	FileName   string        `json:"fileName"`
	ByteSize   int64         `json:"byteSize"`
	GroupCount int           `json:"groupCount"`
	Stats      catalog.Stats `json:"stats"`
	Document   string        `json:"-"`
	UploadedAt time.Time     `json:"uploadedAt"`
}

// Store reads and writes uploads.
type Store struct {
	db DBTX
}

// New creates a Store backed by the given connection or transaction.
func New(db DBTX) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the uploads table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS uploads (
			id              UUID PRIMARY KEY,
			file_name       TEXT NOT NULL DEFAULT '',
			byte_size       BIGINT NOT NULL,
			group_count     INT NOT NULL,
			variant_count   INT NOT NULL,
			short_rows      INT NOT NULL,
			duplicate_skus  INT NOT NULL,
			defaulted_cells INT NOT NULL,
			skipped_lines   INT NOT NULL,
			data_lines      INT NOT NULL,
			truncated       BOOLEAN NOT NULL,
			document        TEXT NOT NULL,
			uploaded_at     TIMESTAMPTZ NOT NULL DEFAULT now()
		)`

	if _, err := s.db.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure uploads schema: %w", err)
	}
	return nil
}

// Insert stores a new upload. The caller assigns the ID.
func (s *Store) Insert(ctx context.Context, u Upload) error {
	const q = `
		INSERT INTO uploads (
			id, file_name, byte_size, group_count, variant_count,
			short_rows, duplicate_skus, defaulted_cells, skipped_lines,
			data_lines, truncated, document
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := s.db.Exec(ctx, q,
		u.ID, u.FileName, u.ByteSize, u.GroupCount, u.Stats.Variants,
		u.Stats.ShortRows, u.Stats.DuplicateSKUs, u.Stats.DefaultedCells,
		u.Stats.SkippedLines, u.Stats.Lines, u.Stats.Truncated, u.Document,
	)
	if err != nil {
		return fmt.Errorf("insert upload %s: %w", u.ID, err)
	}
	return nil
}

// Get fetches one upload including its raw document.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Upload, error) {
	const q = `
		SELECT id, file_name, byte_size, group_count, variant_count,
		       short_rows, duplicate_skus, defaulted_cells, skipped_lines,
		       data_lines, truncated, document, uploaded_at
		FROM uploads WHERE id = $1`

	u, err := scanUpload(s.db.QueryRow(ctx, q, id), true)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Upload{}, ErrNotFound
		}
		return Upload{}, fmt.Errorf("get upload %s: %w", id, err)
	}
	return u, nil
}

// List returns the most recent uploads, newest first, without documents.
func (s *Store) List(ctx context.Context, limit int) ([]Upload, error) {
	const q = `
		SELECT id, file_name, byte_size, group_count, variant_count,
		       short_rows, duplicate_skus, defaulted_cells, skipped_lines,
		       data_lines, truncated, uploaded_at
		FROM uploads
		ORDER BY uploaded_at DESC
		LIMIT $1`

	rows, err := s.db.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	defer rows.Close()

	uploads := make([]Upload, 0, limit)
	for rows.Next() {
		u, err := scanUpload(rows, false)
		if err != nil {
			return nil, fmt.Errorf("scan upload: %w", err)
		}
		uploads = append(uploads, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}

	return uploads, nil
}

// Delete removes an upload. Returns ErrNotFound if the ID does not exist.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM uploads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete upload %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// scanUpload reads one row into an Upload. withDocument selects between the
// Get and List column sets.
func scanUpload(row pgx.Row, withDocument bool) (Upload, error) {
	var (
		u        Upload
		uploaded pgtype.Timestamptz
	)

	dest := []any{
		&u.ID, &u.FileName, &u.ByteSize, &u.GroupCount, &u.Stats.Variants,
		&u.Stats.ShortRows, &u.Stats.DuplicateSKUs, &u.Stats.DefaultedCells,
		&u.Stats.SkippedLines, &u.Stats.Lines, &u.Stats.Truncated,
	}
	if withDocument {
		dest = append(dest, &u.Document)
	}
	dest = append(dest, &uploaded)

	if err := row.Scan(dest...); err != nil {
		return Upload{}, err
	}

	if uploaded.Valid {
		u.UploadedAt = uploaded.Time
	}
	return u, nil
}

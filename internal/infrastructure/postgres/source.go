// Package postgres implements the ingestion collaborator: it loads raw
// per-source catalog rows, image candidates, and price-feed entries from a
// Postgres database. Rows come back with raw fields only; normalization
// happens in the usecase layer so every record in the system goes through
// the same normalizer.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/partlens/backend/internal/domain"
)

// SourceStore loads catalog data from Postgres
type SourceStore struct {
	db *sql.DB
}

// Open connects to the database and verifies the connection
func Open(databaseURL string) (*SourceStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	return &SourceStore{db: db}, nil
}

// Close releases the underlying connection pool
func (s *SourceStore) Close() error {
	return s.db.Close()
}

// LoadSource returns the raw item rows for one source in stable id order
func (s *SourceStore) LoadSource(ctx context.Context, sourceID string) ([]domain.ItemRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT code, title, price, image_path
		   FROM catalog_items
		  WHERE source_id = $1
		  ORDER BY id`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load source %s: %w", sourceID, err)
	}
	defer rows.Close()

	var records []domain.ItemRecord
	for rows.Next() {
		var code, imagePath sql.NullString
		var title string
		var price sql.NullFloat64
		if err := rows.Scan(&code, &title, &price, &imagePath); err != nil {
			return nil, fmt.Errorf("failed to scan source %s row: %w", sourceID, err)
		}
		record := domain.ItemRecord{
			RawCode:  code.String,
			RawTitle: title,
			ImageRef: imagePath.String,
			SourceID: sourceID,
		}
		if price.Valid && price.Float64 > 0 {
			record.Price = price.Float64
			record.HasPrice = true
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// LoadImageCandidates returns the image asset rows registered for the given
// sources, in stable id order.
func (s *SourceStore) LoadImageCandidates(ctx context.Context, sourceIDs []string) ([]domain.ImageCandidate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, width, height, byte_size, source_id
		   FROM image_assets
		  WHERE source_id = ANY($1)
		  ORDER BY id`, pq.Array(sourceIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to load image candidates: %w", err)
	}
	defer rows.Close()

	var candidates []domain.ImageCandidate
	for rows.Next() {
		var c domain.ImageCandidate
		var width, height, byteSize sql.NullInt64
		if err := rows.Scan(&c.Path, &width, &height, &byteSize, &c.SourceID); err != nil {
			return nil, fmt.Errorf("failed to scan image row: %w", err)
		}
		c.Width = int(width.Int64)
		c.Height = int(height.Int64)
		c.ByteSize = int(byteSize.Int64)
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// LoadPriceEntries returns the raw price-feed rows for one source. Prices
// stay unparsed strings here; the cascade owns the disambiguation rule.
func (s *SourceStore) LoadPriceEntries(ctx context.Context, sourceID string) ([]domain.PriceEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT code, title, raw_price
		   FROM price_entries
		  WHERE source_id = $1
		  ORDER BY id`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load price entries for %s: %w", sourceID, err)
	}
	defer rows.Close()

	var entries []domain.PriceEntry
	for rows.Next() {
		var code sql.NullString
		var entry domain.PriceEntry
		if err := rows.Scan(&code, &entry.Title, &entry.RawPrice); err != nil {
			return nil, fmt.Errorf("failed to scan price row: %w", err)
		}
		entry.Code = code.String
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/flowmart-labs/skusync/internal/core/domain"
	"github.com/flowmart-labs/skusync/internal/core/ports/driven"
)

// stagingSource implements driven.StagingSource over the staging table.
type stagingSource struct {
	store *Store
}

var _ driven.StagingSource = (*stagingSource)(nil)

// FetchBatch returns up to limit staging rows strictly after the
// watermark position, ordered by (source_updated_at, business key).
//
// The composite predicate picks up rows that share the watermark's
// timestamp but sort after its key, so a batch boundary inside one
// timestamp never skips rows. The TEXT comparisons rely on timestamps
// being stored in the fixed-width timeKeyFormat.
func (s *stagingSource) FetchBatch(ctx context.Context, wm domain.Watermark, limit int) ([]domain.StagingRecord, error) {
	rows, err := s.store.q(ctx).QueryContext(ctx, `
		SELECT namespace, local_id, source_updated_at, name, price, colors, tags, attributes, description, image_url, on_sale
		FROM products_staging
		WHERE source_updated_at > ?
		   OR (source_updated_at = ? AND (namespace || '#' || local_id) > ?)
		ORDER BY source_updated_at ASC, (namespace || '#' || local_id) ASC
		LIMIT ?
	`, formatTimeKey(wm.LastSeenAt), formatTimeKey(wm.LastSeenAt), wm.LastSeenKey, limit)
	if err != nil {
		return nil, fmt.Errorf("querying staging rows: %w", err)
	}
	defer rows.Close()

	var records []domain.StagingRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		var r domain.StagingRecord
		var sourceUpdatedAt string
		var name, price, colors, tags, attrs, description, imageURL sql.NullString
		var onSale sql.NullInt64

		if err := rows.Scan(&r.Namespace, &r.LocalID, &sourceUpdatedAt,
			&name, &price, &colors, &tags, &attrs, &description, &imageURL, &onSale); err != nil {
			return nil, fmt.Errorf("scanning staging row: %w", err)
		}

		ts, err := time.Parse(time.RFC3339Nano, sourceUpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing staging timestamp %q: %w", sourceUpdatedAt, err)
		}
		r.SourceUpdatedAt = ts
		r.Name = name.String
		r.Price = price.String
		r.ColorsConcat = colors.String
		r.TagsJSON = tags.String
		r.AttrsJSON = attrs.String
		r.Description = description.String
		r.ImageURL = imageURL.String
		if onSale.Valid {
			v := onSale.Int64 == 1
			r.OnSale = &v
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating staging rows: %w", err)
	}
	return records, nil
}

// Stage inserts rows into the staging table. Used by the etl seeding
// path and by tests.
func (s *stagingSource) Stage(ctx context.Context, records ...domain.StagingRecord) error {
	for _, r := range records {
		_, err := s.store.q(ctx).ExecContext(ctx, `
			INSERT INTO products_staging (namespace, local_id, source_updated_at, name, price, colors, tags, attributes, description, image_url, on_sale)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, r.Namespace, r.LocalID, formatTimeKey(r.SourceUpdatedAt),
			nullString(r.Name), nullString(r.Price), nullString(r.ColorsConcat),
			nullString(r.TagsJSON), nullString(r.AttrsJSON), nullString(r.Description),
			nullString(r.ImageURL), nullBool(r.OnSale))
		if err != nil {
			return fmt.Errorf("staging row %s: %w", r.Key().DocumentID(), err)
		}
	}
	return nil
}

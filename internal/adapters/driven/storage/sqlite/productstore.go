package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flowmart-labs/skusync/internal/core/domain"
	"github.com/flowmart-labs/skusync/internal/core/ports/driven"
)

// productStore implements driven.ProductStore.
type productStore struct {
	store *Store
}

var _ driven.ProductStore = (*productStore)(nil)

// Get retrieves a product by business key.
func (s *productStore) Get(ctx context.Context, key domain.BusinessKey) (*domain.Product, error) {
	row := s.store.q(ctx).QueryRowContext(ctx, `
		SELECT id, namespace, local_id, name, price, tags, attributes, on_sale, image_url, description, created_at, updated_at
		FROM products WHERE namespace = ? AND local_id = ?
	`, key.Namespace, key.LocalID)

	return scanProduct(row)
}

// Upsert stores or updates a product keyed on (namespace, local_id).
// The surrogate id and created_at of an existing row are never touched.
func (s *productStore) Upsert(ctx context.Context, p domain.Product) error {
	tagsJSON, err := json.Marshal(p.Tags)
	if err != nil {
		return fmt.Errorf("marshalling tags: %w", err)
	}
	attrsJSON, err := json.Marshal(p.Attributes)
	if err != nil {
		return fmt.Errorf("marshalling attributes: %w", err)
	}

	now := time.Now().UTC()
	id := p.InternalID
	if id == "" {
		id = uuid.NewString()
	}

	_, err = s.store.q(ctx).ExecContext(ctx, `
		INSERT INTO products (id, namespace, local_id, name, price, tags, attributes, on_sale, image_url, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(namespace, local_id) DO UPDATE SET
			name = excluded.name,
			price = excluded.price,
			tags = excluded.tags,
			attributes = excluded.attributes,
			on_sale = excluded.on_sale,
			image_url = excluded.image_url,
			description = excluded.description,
			updated_at = excluded.updated_at
	`, id, p.Key.Namespace, p.Key.LocalID, p.Name, p.Price.String(),
		string(tagsJSON), string(attrsJSON), nullBool(p.OnSale),
		p.ImageURL, p.Description,
		now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano))

	if err != nil {
		return fmt.Errorf("upserting product %s: %w", p.Key.DocumentID(), err)
	}
	return nil
}

// Count returns the number of stored products.
func (s *productStore) Count(ctx context.Context) (int64, error) {
	var count int64
	row := s.store.q(ctx).QueryRowContext(ctx, "SELECT COUNT(*) FROM products")
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("counting products: %w", err)
	}
	return count, nil
}

// scanProduct scans a single product row.
func scanProduct(row *sql.Row) (*domain.Product, error) {
	var p domain.Product
	var price, tagsJSON, attrsJSON, createdAt, updatedAt string
	var onSale sql.NullInt64

	if err := row.Scan(&p.InternalID, &p.Key.Namespace, &p.Key.LocalID, &p.Name,
		&price, &tagsJSON, &attrsJSON, &onSale, &p.ImageURL, &p.Description,
		&createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning product: %w", err)
	}

	d, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parsing stored price %q: %w", price, err)
	}
	p.Price = d

	if err := json.Unmarshal([]byte(tagsJSON), &p.Tags); err != nil {
		return nil, fmt.Errorf("unmarshaling tags: %w", err)
	}
	if err := unmarshalAttributes(attrsJSON, &p.Attributes); err != nil {
		return nil, fmt.Errorf("unmarshaling attributes: %w", err)
	}
	if onSale.Valid {
		v := onSale.Int64 == 1
		p.OnSale = &v
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		p.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		p.UpdatedAt = t
	}
	return &p, nil
}

// unmarshalAttributes decodes the attributes column keeping numbers exact,
// so the version hash of a stored row matches the hash of the incoming one.
func unmarshalAttributes(raw string, out *map[string]any) error {
	m := make(map[string]any)
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&m); err != nil {
		return err
	}
	*out = m
	return nil
}

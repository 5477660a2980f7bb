package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/flowmart-labs/skusync/internal/core/domain"
	"github.com/flowmart-labs/skusync/internal/logger"
)

// colourSeparator splits the legacy concatenated colour column.
const colourSeparator = "||"

// Normaliser coerces raw staging rows into the canonical product shape.
//
// Malformed sub-structures map to safe defaults rather than errors: a row
// is only rejected when its business key is unusable. Everything else is
// logged at warning level and normalised, so one bad upstream export can
// never abort a batch.
type Normaliser struct{}

// NewNormaliser creates a staging row normaliser.
func NewNormaliser() *Normaliser {
	return &Normaliser{}
}

// Normalise converts a staging record into a Product.
// Returns domain.ErrInvalidInput when the business key is missing.
func (n *Normaliser) Normalise(rec domain.StagingRecord) (domain.Product, error) {
	key := domain.BusinessKey{
		Namespace: strings.TrimSpace(rec.Namespace),
		LocalID:   strings.TrimSpace(rec.LocalID),
	}
	if key.Namespace == "" || key.LocalID == "" {
		return domain.Product{}, fmt.Errorf("staging row missing business key: %w", domain.ErrInvalidInput)
	}

	p := domain.Product{
		Key:         key,
		Name:        strings.TrimSpace(rec.Name),
		Price:       parsePrice(key, rec.Price),
		Tags:        parseTags(key, rec.TagsJSON),
		Attributes:  parseAttributes(key, rec.AttrsJSON),
		OnSale:      rec.OnSale,
		ImageURL:    strings.TrimSpace(rec.ImageURL),
		Description: rec.Description,
	}

	if colours := parseColours(rec.ColorsConcat); len(colours) > 0 {
		p.Attributes["colors"] = colours
	}
	return p, nil
}

func parsePrice(key domain.BusinessKey, raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		logger.Warn("invalid price %q for %s, defaulting to 0", raw, key.DocumentID())
		return decimal.Zero
	}
	return d
}

func parseTags(key domain.BusinessKey, raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		logger.Warn("invalid tags payload for %s, dropping: %v", key.DocumentID(), err)
		return nil
	}
	return tags
}

func parseAttributes(key domain.BusinessKey, raw string) map[string]any {
	attrs := make(map[string]any)
	if strings.TrimSpace(raw) == "" {
		return attrs
	}
	// UseNumber keeps decimal attribute values exact instead of routing
	// them through float64.
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	if err := dec.Decode(&attrs); err != nil {
		logger.Warn("invalid attributes payload for %s, dropping: %v", key.DocumentID(), err)
		return make(map[string]any)
	}
	return attrs
}

func parseColours(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var colours []string
	for _, c := range strings.Split(raw, colourSeparator) {
		if c = strings.TrimSpace(c); c != "" {
			colours = append(colours, c)
		}
	}
	return colours
}

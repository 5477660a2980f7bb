package services

import (
	"strings"

	"github.com/flowmart-labs/skusync/internal/core/domain"
)

// BuildVectorText renders the embedding input for a product.
//
// The text must be stable: the same product content must produce the same
// text on every run, otherwise re-embeds jitter the vector with no real
// change behind them. Tags and attributes therefore go through the same
// stable serialisation as the data version.
func BuildVectorText(p domain.Product) string {
	parts := []string{p.Name}

	if len(p.Tags) > 0 {
		parts = append(parts, "Tags: "+domain.StableJSON(p.Tags))
	}
	if len(p.Attributes) > 0 {
		parts = append(parts, "Attributes: "+domain.StableJSON(p.Attributes))
	}
	parts = append(parts, "Price: "+p.Price.String())
	if p.OnSale != nil {
		status := "off sale"
		if *p.OnSale {
			status = "on sale"
		}
		parts = append(parts, "Status: "+status)
	}

	return strings.Join(parts, "\n")
}

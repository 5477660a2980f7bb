package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleProduct() *Product {
	onSale := true
	return &Product{
		Key:      BusinessKey{Namespace: "ACME", LocalID: "SKU-001"},
		Name:     "Trail Runner",
		Price:    decimal.RequireFromString("129.00"),
		Tags:     []string{"outdoor", "shoes"},
		ImageURL: "https://cdn.example.com/sku-001.jpg",
		OnSale:   &onSale,
		Attributes: map[string]any{
			"material": "mesh",
			"sizes":    []any{"40", "41", "42"},
		},
	}
}

func TestDataVersion_Deterministic(t *testing.T) {
	a := sampleProduct()
	b := sampleProduct()

	assert.Equal(t, DataVersion(a), DataVersion(b))
}

func TestDataVersion_OrderIndependent(t *testing.T) {
	a := sampleProduct()

	b := sampleProduct()
	b.Tags = []string{"shoes", "outdoor"}
	b.Attributes = map[string]any{
		"sizes":    []any{"42", "40", "41"},
		"material": "mesh",
	}

	assert.Equal(t, DataVersion(a), DataVersion(b),
		"key/list order must not affect the version")
}

func TestDataVersion_ListDeduplication(t *testing.T) {
	a := sampleProduct()

	b := sampleProduct()
	b.Tags = []string{"outdoor", "shoes", "outdoor", "shoes"}

	assert.Equal(t, DataVersion(a), DataVersion(b))
}

func TestDataVersion_SingleFieldChange(t *testing.T) {
	base := DataVersion(sampleProduct())

	name := sampleProduct()
	name.Name = "Trail Runner II"
	assert.NotEqual(t, base, DataVersion(name))

	price := sampleProduct()
	price.Price = decimal.RequireFromString("129.01")
	assert.NotEqual(t, base, DataVersion(price))

	tags := sampleProduct()
	tags.Tags = append(tags.Tags, "sale")
	assert.NotEqual(t, base, DataVersion(tags))

	attrs := sampleProduct()
	attrs.Attributes["material"] = "leather"
	assert.NotEqual(t, base, DataVersion(attrs))

	img := sampleProduct()
	img.ImageURL = "https://cdn.example.com/sku-001-v2.jpg"
	assert.NotEqual(t, base, DataVersion(img))

	sale := sampleProduct()
	off := false
	sale.OnSale = &off
	assert.NotEqual(t, base, DataVersion(sale))
}

func TestDataVersion_DescriptionExcluded(t *testing.T) {
	a := sampleProduct()
	a.Description = "Original copy"

	b := sampleProduct()
	b.Description = "Rewritten marketing copy"

	assert.Equal(t, DataVersion(a), DataVersion(b),
		"description is not in the whitelist")
}

func TestDataVersion_PriceExactDecimal(t *testing.T) {
	// Equal decimal values with different representations must agree.
	a := sampleProduct()
	a.Price = decimal.RequireFromString("10.00")

	b := sampleProduct()
	b.Price = decimal.New(1000, -2)

	assert.Equal(t, DataVersion(a), DataVersion(b))
}

func TestCanonicalText_StableShape(t *testing.T) {
	p := sampleProduct()
	text := CanonicalText(p)

	// Sorted keys mean attributes precede image_url precede local_id.
	assert.Contains(t, text, `"local_id":"SKU-001"`)
	assert.Contains(t, text, `"price":"129"`)
	assert.Contains(t, text, `"tags":["outdoor","shoes"]`)
	assert.Less(t, indexOf(text, `"attributes"`), indexOf(text, `"image_url"`))
	assert.Less(t, indexOf(text, `"image_url"`), indexOf(text, `"local_id"`))
}

func TestStableJSON_FloatsAsStrings(t *testing.T) {
	// Numbers decoded from embedded JSON arrive as float64 and must be
	// rendered exactly.
	out := StableJSON(map[string]any{"weight": 0.3})
	assert.Equal(t, `{"weight":"0.3"}`, out)
}

func TestStableJSON_NestedNormalisation(t *testing.T) {
	a := StableJSON(map[string]any{
		"colors": []any{"red", "blue", "red"},
		"fit":    "regular",
	})
	b := StableJSON(map[string]any{
		"fit":    "regular",
		"colors": []any{"blue", "red"},
	})
	assert.Equal(t, a, b)
}

func TestParseBusinessKey(t *testing.T) {
	key, err := ParseBusinessKey("ACME#SKU-001")
	require.NoError(t, err)
	assert.Equal(t, BusinessKey{Namespace: "ACME", LocalID: "SKU-001"}, key)
	assert.Equal(t, "ACME#SKU-001", key.DocumentID())

	_, err = ParseBusinessKey("no-separator")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ParseBusinessKey("#sku")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

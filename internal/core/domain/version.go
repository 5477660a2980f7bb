package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// The data version is a deterministic hash over a whitelisted, canonically
// serialised subset of a product's fields. Two products with equal
// whitelisted fields always hash identically, regardless of the order
// keys or list items arrived in; any single-field change produces a
// different hash with overwhelming probability.
//
// Serialisation rules:
//   - map keys are sorted lexicographically
//   - lists are deduplicated, then sorted by their encoded form
//   - monetary and floating-point values are encoded as exact decimal
//     strings, never as platform-rounded floats
//
// The version is the SHA-256 hex digest of the canonical text.

// canonicalFields extracts the whitelisted fields of a product.
// Description is deliberately excluded: long-form copy changes must not
// trigger index resynchronisation.
func canonicalFields(p *Product) map[string]any {
	f := map[string]any{
		"namespace": p.Key.Namespace,
		"local_id":  p.Key.LocalID,
		"name":      p.Name,
		"price":     p.Price,
		"image_url": p.ImageURL,
		"tags":      p.Tags,
	}
	if p.Attributes != nil {
		f["attributes"] = p.Attributes
	}
	if p.OnSale != nil {
		f["on_sale"] = *p.OnSale
	}
	return f
}

// DataVersion computes the stable content hash of a product's
// whitelisted fields. Pure: no I/O, fully deterministic.
func DataVersion(p *Product) string {
	sum := sha256.Sum256([]byte(CanonicalText(p)))
	return hex.EncodeToString(sum[:])
}

// CanonicalText renders the whitelisted fields as canonical JSON-like
// text. Exposed for tests and debugging; DataVersion hashes it.
func CanonicalText(p *Product) string {
	var sb strings.Builder
	stableEncode(&sb, canonicalFields(p))
	return sb.String()
}

// StableJSON canonically serialises an arbitrary value using the same
// rules as the data version. Used to build stable index text from tag
// lists and attribute maps.
func StableJSON(v any) string {
	var sb strings.Builder
	stableEncode(&sb, v)
	return sb.String()
}

func stableEncode(sb *strings.Builder, v any) {
	switch x := v.(type) {
	case nil:
		sb.WriteString("null")
	case string:
		writeJSONString(sb, x)
	case bool:
		sb.WriteString(strconv.FormatBool(x))
	case int:
		sb.WriteString(strconv.Itoa(x))
	case int64:
		sb.WriteString(strconv.FormatInt(x, 10))
	case float32:
		writeJSONString(sb, strconv.FormatFloat(float64(x), 'f', -1, 32))
	case float64:
		// JSON numbers decode as float64; encode as an exact string so
		// the hash never depends on float formatting.
		writeJSONString(sb, strconv.FormatFloat(x, 'f', -1, 64))
	case json.Number:
		writeJSONString(sb, x.String())
	case decimal.Decimal:
		writeJSONString(sb, x.String())
	case []string:
		vals := make([]any, len(x))
		for i, s := range x {
			vals[i] = s
		}
		encodeList(sb, vals)
	case []any:
		encodeList(sb, x)
	case map[string]any:
		encodeMap(sb, x)
	default:
		// Unknown types fall back to encoding/json; deterministic for
		// the scalar shapes that can reach here.
		b, err := json.Marshal(x)
		if err != nil {
			writeJSONString(sb, "")
			return
		}
		sb.Write(b)
	}
}

// encodeList deduplicates and sorts items by their encoded form before
// writing, so input order never affects the output.
func encodeList(sb *strings.Builder, items []any) {
	encoded := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		var b strings.Builder
		stableEncode(&b, item)
		s := b.String()
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		encoded = append(encoded, s)
	}
	sort.Strings(encoded)

	sb.WriteByte('[')
	for i, s := range encoded {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(s)
	}
	sb.WriteByte(']')
}

func encodeMap(sb *strings.Builder, m map[string]any) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sb.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		writeJSONString(sb, k)
		sb.WriteByte(':')
		stableEncode(sb, m[k])
	}
	sb.WriteByte('}')
}

func writeJSONString(sb *strings.Builder, s string) {
	b, err := json.Marshal(s)
	if err != nil {
		sb.WriteString(`""`)
		return
	}
	sb.Write(b)
}

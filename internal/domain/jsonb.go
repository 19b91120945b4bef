package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Polymorphic jsonb columns. Legacy rows store the same logical value as a
// bare string, an array, a JSON-encoded string, or an object, so each type
// normalizes every accepted shape once, at the decode boundary, instead of
// re-deriving the shape at call sites.

// PlaceholderImage is returned when no image URL can be resolved from a row.
const PlaceholderImage = "/placeholder.svg"

// ImageList is the normalized form of the polymorphic `image` column.
type ImageList []string

func (l *ImageList) UnmarshalJSON(data []byte) error {
	*l = extractStrings(data, looksLikeURL)
	return nil
}

// Primary returns the first image, or a placeholder when the list is empty.
func (l ImageList) Primary() string {
	if len(l) > 0 {
		return l[0]
	}
	return PlaceholderImage
}

// Color is one entry of the `colors` column: either {name, hex} or a plain
// string carrying only the name.
type Color struct {
	Name string `json:"name"`
	Hex  string `json:"hex,omitempty"`
}

// ColorList is the normalized form of the polymorphic `colors` column.
type ColorList []Color

func (l *ColorList) UnmarshalJSON(data []byte) error {
	data = unquoteEmbedded(data)

	var objs []json.RawMessage
	if err := json.Unmarshal(data, &objs); err == nil {
		out := make(ColorList, 0, len(objs))
		for _, raw := range objs {
			var s string
			if err := json.Unmarshal(raw, &s); err == nil {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, Color{Name: s})
				}
				continue
			}
			var c Color
			if err := json.Unmarshal(raw, &c); err == nil && c.Name != "" {
				out = append(out, c)
			}
		}
		// Normalize to nil so a NULL or empty column round-trips as null,
		// same as the other list types.
		if len(out) == 0 {
			out = nil
		}
		*l = out
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil && strings.TrimSpace(s) != "" {
		*l = ColorList{{Name: strings.TrimSpace(s)}}
		return nil
	}

	*l = nil
	return nil
}

// SizeList is the normalized form of the polymorphic `sizes` column.
type SizeList []string

func (l *SizeList) UnmarshalJSON(data []byte) error {
	*l = extractStrings(data, nil)
	return nil
}

// Offer is one bundle deal: Price is the TOTAL for Qty units, not per-unit.
type Offer struct {
	Qty   int    `json:"qty"`
	Price Dinars `json:"price"`
}

// Label is the human-readable description persisted on orders, e.g. "2 بسعر 4500".
func (o Offer) Label() string {
	return strconv.Itoa(o.Qty) + " بسعر " + strconv.FormatInt(int64(o.Price), 10)
}

// UnitPrice is the average per-unit price within the bundle, rounded half-up.
// Display only; totals never use it.
func (o Offer) UnitPrice() Dinars {
	if o.Qty <= 0 {
		return o.Price
	}
	return Dinars((int64(o.Price)*2 + int64(o.Qty)) / (2 * int64(o.Qty)))
}

// OfferList is the normalized form of the polymorphic `offers` column.
type OfferList []Offer

func (l *OfferList) UnmarshalJSON(data []byte) error {
	data = unquoteEmbedded(data)

	var offers []Offer
	if err := json.Unmarshal(data, &offers); err == nil {
		out := offers[:0]
		for _, o := range offers {
			if o.Qty > 0 && o.Price >= 0 {
				out = append(out, o)
			}
		}
		*l = out
		return nil
	}
	*l = nil
	return nil
}

// Truthy models the loose `is_available` column: legacy rows store boolean
// true, numeric 1, or their string equivalents. Anything else, including
// absence, is false.
type Truthy bool

func (t *Truthy) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		*t = false
		return nil
	}
	switch x := v.(type) {
	case bool:
		*t = Truthy(x)
	case float64:
		*t = x == 1
	case string:
		s := strings.ToLower(strings.TrimSpace(x))
		*t = s == "1" || s == "true"
	default:
		*t = false
	}
	return nil
}

// Dinars is an integer DZD amount. Rows may store prices as numbers or
// numeric strings; fractional values are rounded half-up on decode so all
// arithmetic downstream stays in integer currency units.
type Dinars int64

func (d *Dinars) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			*d = 0
			return nil
		}
		*d = Dinars(math.Floor(f + 0.5))
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*d = Dinars(math.Floor(f + 0.5))
	return nil
}

// unquoteEmbedded unwraps a JSON-encoded-string payload ("[\"a\"]" -> ["a"])
// so the array/object decoding paths can handle it uniformly.
func unquoteEmbedded(data []byte) []byte {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return data
	}
	trimmed := strings.TrimSpace(s)
	if (strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")) ||
		(strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")) {
		return []byte(trimmed)
	}
	return data
}

func looksLikeURL(s string) bool {
	return strings.Contains(s, "http") || strings.Contains(s, "/") || strings.Contains(s, ".")
}

// extractStrings decodes the four accepted shapes into a flat string slice:
// array of strings, bare string, JSON-encoded array, or an object carrying
// one of the conventional list fields.
func extractStrings(data []byte, bareOK func(string) bool) []string {
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		return trimNonEmpty(arr)
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		var nested []string
		if err := json.Unmarshal([]byte(s), &nested); err == nil {
			return trimNonEmpty(nested)
		}
		if bareOK == nil || bareOK(s) {
			return []string{s}
		}
		return nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err == nil {
		for _, field := range []string{"images", "image_urls", "urls", "photos", "pictures"} {
			var vals []string
			if raw, ok := obj[field]; ok && json.Unmarshal(raw, &vals) == nil {
				if out := trimNonEmpty(vals); len(out) > 0 {
					return out
				}
			}
		}
	}
	return nil
}

func trimNonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

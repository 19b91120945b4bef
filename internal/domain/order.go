package domain

import (
	"regexp"
	"strings"
)

// phoneRe matches a normalized Algerian mobile number: 10 digits starting
// with one of the three mobile prefixes.
var phoneRe = regexp.MustCompile(`^(05|06|07)\d{8}$`)

// NormalizePhone strips every non-digit rune.
func NormalizePhone(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// ValidPhone reports whether the already-normalized number is a valid
// Algerian mobile number.
func ValidPhone(digits string) bool {
	return phoneRe.MatchString(digits)
}

// Order is the persisted order row. Immutable once created: product and
// location names are denormalized snapshots so the record survives future
// catalog changes.
type Order struct {
	ID               int64          `json:"id,omitempty"`
	ProductID        int64          `json:"product_id"`
	ProductName      string         `json:"product_name"`
	ProductImage     string         `json:"product_image"`
	FullName         string         `json:"full_name"`
	PhoneNumber      string         `json:"phone_number"`
	Address          string         `json:"address"`
	StateID          int64          `json:"state_id"`
	StateName        string         `json:"state_name"`
	ShippingType     DeliveryMethod `json:"shipping_type"`
	Color            string         `json:"color,omitempty"`
	ColorHex         string         `json:"color_hex,omitempty"`
	Size             string         `json:"size,omitempty"`
	Quantity         int            `json:"quantity"`
	OfferLabel       string         `json:"offer_label,omitempty"`
	ProductPrice     Dinars         `json:"product_price"`
	ShippingPrice    Dinars         `json:"shipping_price"`
	TotalPrice       Dinars         `json:"total_price"`
	MunicipalityName string         `json:"municipality_name"`
	StoreID          int64          `json:"store_id"`
	CreatedAt        string         `json:"created_at,omitempty"`
}

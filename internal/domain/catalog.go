package domain

import "encoding/json"

// Product is a storefront product row. The image/colors/sizes/offers columns
// are polymorphic jsonb and normalized on decode (see jsonb.go).
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"descr"`
	Price       Dinars    `json:"price"`
	Images      ImageList `json:"image"`
	Colors      ColorList `json:"colors"`
	Sizes       SizeList  `json:"sizes"`
	Offers      OfferList `json:"offers"`
	CategoryID  int64     `json:"category_id"`
	Available   bool      `json:"available"`
	PixelID     int64     `json:"pixel"`
	StoreID     int64     `json:"store_id"`
	CreatedAt   string    `json:"created_at"`
}

// LandingPage is a single-product landing page; same column shapes as Product.
type LandingPage struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"descr"`
	Price       Dinars    `json:"price"`
	Images      ImageList `json:"image"`
	Colors      ColorList `json:"colors"`
	Sizes       SizeList  `json:"sizes"`
	Offers      OfferList `json:"offers"`
	Available   bool      `json:"available"`
	StoreID     int64     `json:"store_id"`
	CreatedAt   string    `json:"created_at"`
}

// Category groups products within one store.
type Category struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
	StoreID  int64  `json:"store_id"`
}

// CategoryWithCount is the admin listing shape.
type CategoryWithCount struct {
	Category
	ProductCount int64 `json:"product_count"`
}

// AdPixel is a platform-global ad tracking pixel row. The pixel_code column
// is free-form: a bare id, an fbq snippet, or an object (see pixel.go).
type AdPixel struct {
	ID        int64           `json:"id"`
	PixelName string          `json:"pixel_name"`
	PixelCode json.RawMessage `json:"pixel_code"`
}

// PixelIDs extracts the numeric pixel ids carried by PixelCode.
func (p AdPixel) PixelIDs() []string {
	return ExtractPixelIDs(p.PixelCode)
}

package domain

// Selection is the buyer's choice on a product page. A bundle offer and a
// free quantity are mutually exclusive: selecting an offer pins the quantity
// to the offer's, and adjusting quantity clears the offer.
type Selection struct {
	OfferIndex     *int           // index into the product's offers, nil when none selected
	Quantity       int            // ignored while an offer is active
	DeliveryMethod DeliveryMethod
}

// Quote is the priced breakdown of a selection. The invariant
// TotalPrice == ProductsTotal + ShippingPrice holds exactly; all amounts are
// integer DZD so there is no rounding drift.
type Quote struct {
	UnitPrice     Dinars `json:"unit_price"`
	Units         int    `json:"units"`
	ProductsTotal Dinars `json:"products_total"`
	ShippingPrice Dinars `json:"shipping_price"`
	TotalPrice    Dinars `json:"total_price"`
}

// PriceSelection computes the quote for a product and selection, with the
// shipping price already resolved for the chosen region and method (zero when
// no region row exists — submission is rejected elsewhere in that case).
//
// With an offer active the products total is the offer's flat bundle price
// for offer.Qty units; otherwise it is unit price times quantity. Never both.
func PriceSelection(product *Product, sel Selection, shipping Dinars) Quote {
	unit := product.Price

	if sel.OfferIndex != nil && *sel.OfferIndex >= 0 && *sel.OfferIndex < len(product.Offers) {
		offer := product.Offers[*sel.OfferIndex]
		return Quote{
			UnitPrice:     unit,
			Units:         offer.Qty,
			ProductsTotal: offer.Price,
			ShippingPrice: shipping,
			TotalPrice:    offer.Price + shipping,
		}
	}

	qty := sel.Quantity
	if qty < 1 {
		qty = 1
	}
	total := Dinars(int64(unit) * int64(qty))
	return Quote{
		UnitPrice:     unit,
		Units:         qty,
		ProductsTotal: total,
		ShippingPrice: shipping,
		TotalPrice:    total + shipping,
	}
}

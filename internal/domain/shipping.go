package domain

// ShippingState is a platform-global delivery zone (wilaya). Pricing for it
// is tenant-specific.
type ShippingState struct {
	ID        int64  `json:"id"`
	StateName string `json:"state_name"`
}

// DeliveryMethod selects which of the two per-region prices applies.
type DeliveryMethod string

const (
	DeliveryHome   DeliveryMethod = "home"
	DeliveryOffice DeliveryMethod = "office"
)

// Valid reports whether the method is one of the two supported modes.
func (m DeliveryMethod) Valid() bool {
	return m == DeliveryHome || m == DeliveryOffice
}

// StoreShippingPrice is the per-tenant price override row, keyed by
// (store_id, state_id). A region without a row is not orderable at all.
type StoreShippingPrice struct {
	StoreID             int64  `json:"store_id"`
	StateID             int64  `json:"state_id"`
	HomeDeliveryPrice   Dinars `json:"home_delivery_price"`
	OfficeDeliveryPrice Dinars `json:"office_delivery_price"`
	IsAvailable         Truthy `json:"is_available"`
}

// ShippingOption is the storefront-facing joined shape: the store price row
// with the global state name resolved.
type ShippingOption struct {
	StateID     int64  `json:"state_id"`
	StateName   string `json:"state_name"`
	HomePrice   Dinars `json:"home_delivery_price"`
	OfficePrice Dinars `json:"office_delivery_price"`
	IsAvailable bool   `json:"is_available"`
}

// PriceFor returns the delivery price for the chosen method.
func (o ShippingOption) PriceFor(m DeliveryMethod) Dinars {
	if m == DeliveryOffice {
		return o.OfficePrice
	}
	return o.HomePrice
}

// RegionStatus is the admin-facing classification of a region: a missing
// price row ("unset") is visually distinct from an existing row switched off
// ("unavailable").
type RegionStatus string

const (
	RegionUnset       RegionStatus = "unset"
	RegionAvailable   RegionStatus = "available"
	RegionUnavailable RegionStatus = "unavailable"
)

// RegionOverview is one row of the admin shipping screen: every global state
// annotated with the store's pricing status.
type RegionOverview struct {
	StateID     int64        `json:"state_id"`
	StateName   string       `json:"state_name"`
	Status      RegionStatus `json:"status"`
	HomePrice   Dinars       `json:"home_delivery_price,omitempty"`
	OfficePrice Dinars       `json:"office_delivery_price,omitempty"`
}

package fulfillment

import "time"

// InventorySummary is the per-SKU stock picture reported by the provider
type InventorySummary struct {
	// SellerSKU is the SKU on the fulfillment provider
	SellerSKU string
	// Fulfillable is the quantity available to ship right now
	Fulfillable int64
	// Reserved is the quantity committed to open orders
	Reserved int64
	// Inbound is the quantity in transit to the provider's warehouses
	Inbound int64
	// Unfulfillable is damaged or otherwise unsellable stock
	Unfulfillable int64
	// AsOf is the provider's report timestamp
	AsOf time.Time
}

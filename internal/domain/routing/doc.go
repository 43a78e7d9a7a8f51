// Package routing holds the domain model of the order-routing pipeline:
// normalized addresses, SKU mappings, per-order routing outcomes and the
// tracking reconciliation records written back to the source platform.
package routing

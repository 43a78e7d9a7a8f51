package routing

import (
	"context"
	"sync"

	"github.com/orderbridge/backend/internal/domain/shared"
)

// SkuMapping is one source-SKU to fulfillment-SKU translation
type SkuMapping struct {
	SourceSKU      string
	FulfillmentSKU string
}

// SkuMap is the bidirectional translation table between the source platform's
// SKUs and the fulfillment provider's SKUs. Each source SKU maps to at most
// one fulfillment SKU; unmapped SKUs are a validation error, never a silent
// drop. Safe for concurrent use.
type SkuMap struct {
	mu        sync.RWMutex
	toFulfill map[string]string
	toSource  map[string]string
}

// NewSkuMap creates an empty SkuMap
func NewSkuMap() *SkuMap {
	return &SkuMap{
		toFulfill: make(map[string]string),
		toSource:  make(map[string]string),
	}
}

// Add registers one mapping, replacing any previous entry for the source SKU
func (m *SkuMap) Add(sourceSKU, fulfillmentSKU string) error {
	if sourceSKU == "" || fulfillmentSKU == "" {
		return shared.ErrInvalidInput
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.toFulfill[sourceSKU]; ok {
		delete(m.toSource, prev)
	}
	m.toFulfill[sourceSKU] = fulfillmentSKU
	m.toSource[fulfillmentSKU] = sourceSKU
	return nil
}

// Load replaces the entire table with the given mappings
func (m *SkuMap) Load(mappings []SkuMapping) error {
	next := make(map[string]string, len(mappings))
	back := make(map[string]string, len(mappings))
	for _, mp := range mappings {
		if mp.SourceSKU == "" || mp.FulfillmentSKU == "" {
			return shared.ErrInvalidInput
		}
		next[mp.SourceSKU] = mp.FulfillmentSKU
		back[mp.FulfillmentSKU] = mp.SourceSKU
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toFulfill = next
	m.toSource = back
	return nil
}

// ToFulfillment resolves a source SKU to the provider's SKU
func (m *SkuMap) ToFulfillment(sourceSKU string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sku, ok := m.toFulfill[sourceSKU]
	return sku, ok
}

// ToSource resolves a provider SKU back to the source platform's SKU
func (m *SkuMap) ToSource(fulfillmentSKU string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sku, ok := m.toSource[fulfillmentSKU]
	return sku, ok
}

// Len returns the number of mappings
func (m *SkuMap) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.toFulfill)
}

// SkuMappingRepository persists SKU mappings
type SkuMappingRepository interface {
	// Upsert creates or updates one mapping
	Upsert(ctx context.Context, mapping SkuMapping) error

	// FindAll returns every stored mapping
	FindAll(ctx context.Context) ([]SkuMapping, error)

	// Delete removes the mapping for a source SKU
	Delete(ctx context.Context, sourceSKU string) error
}

package routing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/orderbridge/backend/internal/domain/channel"
	"github.com/orderbridge/backend/internal/domain/routing"
	"github.com/orderbridge/backend/internal/domain/shared"
)

// ErrOrderNotActionable means the order's status is outside the fulfillable
// set. A skip, not a failure.
var ErrOrderNotActionable = errors.New("routing: order status is not actionable")

// ValidatedOrder is a source order that passed validation, with its address
// in canonical form
type ValidatedOrder struct {
	Order    *channel.SourceOrder
	Address  routing.NormalizedAddress
	Warnings []string
}

// Validator performs structural and business-rule validation plus address
// normalization. Pure over its inputs; the SkuMap and region tables are the
// only lookups.
type Validator struct {
	skuMap   *routing.SkuMap
	validate *validator.Validate
}

// NewValidator creates a validator backed by the given SKU map
func NewValidator(skuMap *routing.SkuMap) *Validator {
	return &Validator{
		skuMap:   skuMap,
		validate: validator.New(),
	}
}

// Validate checks one source order. It returns ErrOrderNotActionable for
// orders outside the fulfillable status set, a coded domain error for data
// problems, and a normalized order otherwise.
func (v *Validator) Validate(order *channel.SourceOrder) (*ValidatedOrder, error) {
	if order == nil {
		return nil, fmt.Errorf("%w: order is nil", shared.ErrInvalidInput)
	}

	if !order.Status.IsFulfillable() {
		return nil, fmt.Errorf("%w: status %s", ErrOrderNotActionable, order.Status)
	}

	if len(order.Items) == 0 {
		return nil, fmt.Errorf("%w: order %s has no line items",
			shared.NewDomainError(shared.ErrCodeValidationError, "order has no line items"), order.OrderID)
	}

	var fieldErrors []string
	for i, item := range order.Items {
		if item.Quantity <= 0 {
			fieldErrors = append(fieldErrors,
				fmt.Sprintf("item %d (%s): quantity must be positive, got %d", i+1, item.SKU, item.Quantity))
		}
		if item.SKU == "" {
			fieldErrors = append(fieldErrors, fmt.Sprintf("item %d: SKU is empty", i+1))
			continue
		}
		if _, ok := v.skuMap.ToFulfillment(item.SKU); !ok {
			return nil, fmt.Errorf("%w: %s", shared.ErrSkuNotMapped, item.SKU)
		}
	}
	if len(fieldErrors) > 0 {
		return nil, fmt.Errorf("%w: %s",
			shared.NewDomainError(shared.ErrCodeValidationError, "order failed validation"),
			strings.Join(fieldErrors, "; "))
	}

	address, warnings, err := normalizeAddress(order.Recipient)
	if err != nil {
		return nil, fmt.Errorf("%w: %v",
			shared.NewDomainError(shared.ErrCodeValidationError, "address could not be normalized"), err)
	}

	if err := v.validate.Struct(address); err != nil {
		return nil, fmt.Errorf("%w: %v",
			shared.NewDomainError(shared.ErrCodeValidationError, "normalized address is incomplete"), err)
	}

	return &ValidatedOrder{
		Order:    order,
		Address:  address,
		Warnings: warnings,
	}, nil
}

package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderbridge/backend/internal/domain/channel"
	"github.com/orderbridge/backend/internal/domain/routing"
	"github.com/orderbridge/backend/internal/domain/shared"
)

func newTestSkuMap(t *testing.T) *routing.SkuMap {
	t.Helper()
	m := routing.NewSkuMap()
	require.NoError(t, m.Add("A", "FUL-A"))
	require.NoError(t, m.Add("B", "FUL-B"))
	return m
}

func fulfillableOrder() *channel.SourceOrder {
	return &channel.SourceOrder{
		OrderID: "ORD-1",
		Status:  channel.OrderStatusAwaitingShipment,
		Recipient: channel.RecipientAddress{
			Name:       "Jane Doe",
			Phone:      "(206) 555-0100",
			AddressLn1: "100 Main St",
			City:       "Seattle",
			Region:     "Washington",
			PostalCode: " 98101 ",
			Country:    "us",
		},
		Items: []channel.LineItem{
			{SKU: "A", Quantity: 2, ProductName: "Widget"},
		},
	}
}

func TestValidate_HappyPath(t *testing.T) {
	v := NewValidator(newTestSkuMap(t))

	validated, err := v.Validate(fulfillableOrder())
	require.NoError(t, err)

	assert.Equal(t, "US", validated.Address.CountryCode)
	assert.Equal(t, "WA", validated.Address.Region)
	assert.Equal(t, "98101", validated.Address.PostalCode)
	assert.Equal(t, "+12065550100", validated.Address.Phone)
	assert.Empty(t, validated.Warnings)
}

func TestValidate_NotActionableStatusIsSkip(t *testing.T) {
	v := NewValidator(newTestSkuMap(t))

	for _, status := range []channel.OrderStatus{
		channel.OrderStatusShipped,
		channel.OrderStatusCompleted,
		channel.OrderStatusCancelled,
	} {
		order := fulfillableOrder()
		order.Status = status
		_, err := v.Validate(order)
		assert.ErrorIs(t, err, ErrOrderNotActionable, "status %s", status)
	}
}

func TestValidate_UnmappedSKU(t *testing.T) {
	v := NewValidator(newTestSkuMap(t))

	order := fulfillableOrder()
	order.Items = []channel.LineItem{{SKU: "UNMAPPED", Quantity: 1}}

	_, err := v.Validate(order)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrSkuNotMapped)
	assert.Equal(t, shared.ErrCodeSkuNotMapped, shared.CodeOf(err))
}

func TestValidate_NonPositiveQuantity(t *testing.T) {
	v := NewValidator(newTestSkuMap(t))

	order := fulfillableOrder()
	order.Items[0].Quantity = 0

	_, err := v.Validate(order)
	require.Error(t, err)
	assert.Equal(t, shared.ErrCodeValidationError, shared.CodeOf(err))
}

func TestValidate_NoLineItems(t *testing.T) {
	v := NewValidator(newTestSkuMap(t))

	order := fulfillableOrder()
	order.Items = nil

	_, err := v.Validate(order)
	require.Error(t, err)
	assert.Equal(t, shared.ErrCodeValidationError, shared.CodeOf(err))
}

func TestValidate_UnrecognizedUSStateIsHardFailure(t *testing.T) {
	v := NewValidator(newTestSkuMap(t))

	order := fulfillableOrder()
	order.Recipient.Region = "Atlantis"

	_, err := v.Validate(order)
	require.Error(t, err)
	assert.Equal(t, shared.ErrCodeValidationError, shared.CodeOf(err))
}

func TestValidate_BadPhoneIsWarningNotFailure(t *testing.T) {
	v := NewValidator(newTestSkuMap(t))

	order := fulfillableOrder()
	order.Recipient.Phone = "not a phone"

	validated, err := v.Validate(order)
	require.NoError(t, err)
	assert.Empty(t, validated.Address.Phone)
	assert.NotEmpty(t, validated.Warnings)
}

func TestValidate_MissingRequiredAddressField(t *testing.T) {
	v := NewValidator(newTestSkuMap(t))

	order := fulfillableOrder()
	order.Recipient.City = ""

	_, err := v.Validate(order)
	require.Error(t, err)
	assert.Equal(t, shared.ErrCodeValidationError, shared.CodeOf(err))
}

func TestNormalizeAddress_CanadianProvinceWithDiacritics(t *testing.T) {
	normalized, warnings, err := normalizeAddress(channel.RecipientAddress{
		Name:       "Jean Tremblay",
		AddressLn1: "10 Rue Principale",
		City:       "Montréal",
		Region:     "Québec",
		PostalCode: "H2X 1Y4",
		Country:    "CA",
	})
	require.NoError(t, err)
	assert.Equal(t, "QC", normalized.Region)
	assert.Empty(t, warnings)
}

func TestNormalizeAddress_CountryWithoutRegionTable(t *testing.T) {
	normalized, warnings, err := normalizeAddress(channel.RecipientAddress{
		Name:       "Sam Smith",
		AddressLn1: "1 High St",
		City:       "London",
		Region:     "Greater London",
		PostalCode: "SW1A 1AA",
		Country:    "GB",
	})
	require.NoError(t, err)
	assert.Equal(t, "Greater London", normalized.Region)
	assert.Empty(t, warnings)
}

func TestNormalizeAddress_TwoLetterCodePassThrough(t *testing.T) {
	normalized, _, err := normalizeAddress(channel.RecipientAddress{
		Name:       "Jane Doe",
		AddressLn1: "100 Main St",
		City:       "Portland",
		Region:     "or",
		Country:    "US",
	})
	require.NoError(t, err)
	assert.Equal(t, "OR", normalized.Region)
}

package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/maisonarome/storefront/pricing"
)

func testPolicy() pricing.Policy {
	return pricing.Policy{
		FreeShippingThreshold: 2999,
		FlatShippingFee:       50,
		TaxRatePercent:        18,
		CODLimit:              10000,
		CODFee:                40,
	}
}

func TestSubtotal(t *testing.T) {
	lines := []pricing.Line{
		{UnitPrice: 1099, Quantity: 2},
		{UnitPrice: 549, Quantity: 1},
	}
	assert.Equal(t, 2747.0, pricing.Subtotal(lines))
}

func TestSubtotal_Empty(t *testing.T) {
	assert.Equal(t, 0.0, pricing.Subtotal(nil))
}

func TestShippingCost_ThresholdBoundary(t *testing.T) {
	p := pricing.Policy{FreeShippingThreshold: 500, FlatShippingFee: 50}
	assert.Equal(t, 50.0, p.ShippingCost(499))
	assert.Equal(t, 0.0, p.ShippingCost(500))
	assert.Equal(t, 0.0, p.ShippingCost(501))
}

func TestQuote_BelowThreshold(t *testing.T) {
	p := testPolicy()
	lines := []pricing.Line{{UnitPrice: 1099, Quantity: 2}}

	b := p.Quote(lines, 0, false, nil)
	assert.Equal(t, 2198.0, b.Subtotal)
	assert.Equal(t, 50.0, b.ShippingCost)
	assert.False(t, b.FreeShipping)
	// subtotal + shipping, before tax
	assert.Equal(t, 2248.0, b.Subtotal+b.ShippingCost)
}

func TestQuote_ShippingUsesPreDiscountSubtotal(t *testing.T) {
	p := pricing.Policy{FreeShippingThreshold: 3000, FlatShippingFee: 50, TaxRatePercent: 0}
	lines := []pricing.Line{{UnitPrice: 3100, Quantity: 1}}

	// Discount drops the payable amount below the threshold, but free
	// shipping is still granted: the threshold check is pre-discount.
	b := p.Quote(lines, 500, false, nil)
	assert.Equal(t, 0.0, b.ShippingCost)
	assert.True(t, b.FreeShipping)
}

func TestQuote_DiscountClampedToSubtotal(t *testing.T) {
	p := testPolicy()
	lines := []pricing.Line{{UnitPrice: 100, Quantity: 1}}

	b := p.Quote(lines, 5000, false, nil)
	assert.Equal(t, 100.0, b.Discount)
	assert.GreaterOrEqual(t, b.Total, 0.0)
}

func TestQuote_TotalNeverNegative(t *testing.T) {
	p := pricing.Policy{FreeShippingThreshold: 1, FlatShippingFee: 0, TaxRatePercent: 0}
	b := p.Quote(nil, 999, false, nil)
	assert.Equal(t, 0.0, b.Total)
}

func TestQuote_Tax(t *testing.T) {
	p := testPolicy()
	lines := []pricing.Line{{UnitPrice: 1000, Quantity: 1}}

	b := p.Quote(lines, 0, false, nil)
	assert.Equal(t, 180.0, b.Tax)

	// Tax is computed on the discounted amount.
	b = p.Quote(lines, 200, false, nil)
	assert.Equal(t, 144.0, b.Tax)
}

func TestQuote_PercentageFee(t *testing.T) {
	p := pricing.Policy{FreeShippingThreshold: 10000, FlatShippingFee: 50, TaxRatePercent: 0}
	lines := []pricing.Line{{UnitPrice: 950, Quantity: 1}}

	b := p.Quote(lines, 0, false, &pricing.FeeRule{Percent: 2})
	// total before fee = 950 + 50 = 1000, 2% of that is 20
	assert.Equal(t, 20.0, b.ProcessingFee)
	assert.Equal(t, 1020.0, b.Total)
}

func TestQuote_FlatFee(t *testing.T) {
	p := testPolicy()
	lines := []pricing.Line{{UnitPrice: 1000, Quantity: 1}}

	b := p.Quote(lines, 0, false, &pricing.FeeRule{Flat: 40})
	assert.Equal(t, 40.0, b.ProcessingFee)
}

func TestQuote_FreeShippingOverride(t *testing.T) {
	p := testPolicy()
	lines := []pricing.Line{{UnitPrice: 1000, Quantity: 1}}

	b := p.Quote(lines, 0, true, nil)
	assert.Equal(t, 0.0, b.ShippingCost)
	// The qualifies flag still reflects the threshold, not the override.
	assert.False(t, b.FreeShipping)
}

func TestCODAvailable(t *testing.T) {
	p := testPolicy()
	assert.True(t, p.CODAvailable(10000))
	assert.False(t, p.CODAvailable(10001))
}

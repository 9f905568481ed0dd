// Package pricing computes order totals: subtotal, shipping, tax,
// processing fees and the final amount payable. All functions are pure;
// policy constants come in through Policy.
package pricing

import "math"

// Line is a (unit price, quantity) pair, the only thing the calculator
// needs to know about a cart line.
type Line struct {
	UnitPrice float64
	Quantity  int
}

// Policy carries the storefront pricing constants.
type Policy struct {
	FreeShippingThreshold float64
	FlatShippingFee       float64
	TaxRatePercent        float64
	CODLimit              float64
	CODFee                float64
}

// FeeRule describes a payment method's processing fee: either a percentage
// of the total before fee, or a flat amount.
type FeeRule struct {
	Percent float64
	Flat    float64
}

// Breakdown is the full pricing result.
type Breakdown struct {
	Subtotal      float64 `json:"subtotal"`
	Discount      float64 `json:"discount"`
	ShippingCost  float64 `json:"shipping_cost"`
	Tax           float64 `json:"tax"`
	ProcessingFee float64 `json:"processing_fee"`
	Total         float64 `json:"total"`
	FreeShipping  bool    `json:"free_shipping"`
}

// Subtotal sums unit price times quantity over the lines.
func Subtotal(lines []Line) float64 {
	var sum float64
	for _, l := range lines {
		if l.Quantity > 0 && l.UnitPrice > 0 {
			sum += l.UnitPrice * float64(l.Quantity)
		}
	}
	return sum
}

// ShippingCost returns 0 when the pre-discount subtotal meets the free
// shipping threshold, else the flat fee. The threshold check deliberately
// ignores any coupon discount.
func (p Policy) ShippingCost(subtotal float64) float64 {
	if subtotal >= p.FreeShippingThreshold {
		return 0
	}
	return p.FlatShippingFee
}

// CODAvailable reports whether cash on delivery may be offered for the
// given order total.
func (p Policy) CODAvailable(total float64) bool {
	return total <= p.CODLimit
}

// QuoteWithShipping computes the breakdown with an already-resolved
// shipping cost, for checkout where the user has picked a carrier option.
// Discount clamping, tax and fee rules match Quote.
func (p Policy) QuoteWithShipping(lines []Line, discount, shipping float64, feeRule *FeeRule) Breakdown {
	subtotal := Subtotal(lines)

	if discount < 0 {
		discount = 0
	}
	if discount > subtotal {
		discount = subtotal
	}

	tax := math.Round((subtotal - discount) * p.TaxRatePercent / 100)
	totalBeforeFee := subtotal - discount + shipping + tax

	var fee float64
	if feeRule != nil {
		if feeRule.Percent > 0 {
			fee = math.Round(totalBeforeFee * feeRule.Percent / 100)
		} else {
			fee = feeRule.Flat
		}
	}

	total := totalBeforeFee + fee
	if total < 0 {
		total = 0
	}

	return Breakdown{
		Subtotal:      subtotal,
		Discount:      discount,
		ShippingCost:  shipping,
		Tax:           tax,
		ProcessingFee: fee,
		Total:         total,
		FreeShipping:  subtotal >= p.FreeShippingThreshold,
	}
}

// Quote computes the full breakdown for a cart. The discount is clamped to
// the subtotal. freeShipping forces shipping to zero (free-shipping
// coupons); the threshold check still uses the pre-discount subtotal.
// feeRule may be nil when no payment method is selected yet.
func (p Policy) Quote(lines []Line, discount float64, freeShipping bool, feeRule *FeeRule) Breakdown {
	subtotal := Subtotal(lines)

	if discount < 0 {
		discount = 0
	}
	if discount > subtotal {
		discount = subtotal
	}

	shipping := p.ShippingCost(subtotal)
	if freeShipping {
		shipping = 0
	}

	tax := math.Round((subtotal - discount) * p.TaxRatePercent / 100)

	totalBeforeFee := subtotal - discount + shipping + tax

	var fee float64
	if feeRule != nil {
		if feeRule.Percent > 0 {
			fee = math.Round(totalBeforeFee * feeRule.Percent / 100)
		} else {
			fee = feeRule.Flat
		}
	}

	total := totalBeforeFee + fee
	if total < 0 {
		total = 0
	}

	return Breakdown{
		Subtotal:      subtotal,
		Discount:      discount,
		ShippingCost:  shipping,
		Tax:           tax,
		ProcessingFee: fee,
		Total:         total,
		FreeShipping:  subtotal >= p.FreeShippingThreshold,
	}
}

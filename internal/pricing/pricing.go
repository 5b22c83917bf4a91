// Package pricing computes the derived monetary values of a sale. Every
// function is pure: totals are recomputed from their inputs on each call and
// never cached, so they cannot drift from the cart state they describe.
package pricing

import (
	"math"

	"kedaipos/backend/internal/domain"
)

// Line is a cart line resolved against the current catalog snapshot.
type Line struct {
	UnitPriceCents int64
	Quantity       int
}

type Totals struct {
	SubtotalCents       int64
	DiscountAmountCents int64
	TaxCents            int64
	TotalCents          int64
	ChangeCents         int64
}

func Subtotal(lines []Line) int64 {
	subtotal := int64(0)
	for _, line := range lines {
		subtotal += line.UnitPriceCents * int64(line.Quantity)
	}
	return subtotal
}

// DiscountAmount resolves the discount configuration against a subtotal.
// PERCENTAGE values are clamped to [0,100] before use and the result is
// rounded half away from zero; NOMINAL values are clamped to [0, subtotal]
// and returned as-is.
func DiscountAmount(subtotal int64, discount domain.Discount) int64 {
	if discount.Type == domain.DiscountPercentage {
		pct := discount.Value
		if pct < 0 {
			pct = 0
		}
		if pct > 100 {
			pct = 100
		}
		return int64(math.Round(float64(subtotal) * float64(pct) / 100))
	}

	value := discount.Value
	if value < 0 {
		value = 0
	}
	if value > subtotal {
		value = subtotal
	}
	return value
}

// Tax is computed on the taxable amount (subtotal minus discount, floored at
// zero) and rounded to the nearest cent, half away from zero.
func Tax(subtotal int64, discountAmount int64, rate float64) int64 {
	taxable := subtotal - discountAmount
	if taxable < 0 {
		taxable = 0
	}
	return int64(math.Round(rate * float64(taxable)))
}

func Total(subtotal int64, discountAmount int64, tax int64) int64 {
	total := subtotal - discountAmount + tax
	if total < 0 {
		total = 0
	}
	return total
}

func Change(payment int64, total int64) int64 {
	change := payment - total
	if change < 0 {
		change = 0
	}
	return change
}

// Compute derives all totals for one cart state in a single pass.
func Compute(lines []Line, discount domain.Discount, taxRate float64, payment int64) Totals {
	subtotal := Subtotal(lines)
	discountAmount := DiscountAmount(subtotal, discount)
	tax := Tax(subtotal, discountAmount, taxRate)
	total := Total(subtotal, discountAmount, tax)

	return Totals{
		SubtotalCents:       subtotal,
		DiscountAmountCents: discountAmount,
		TaxCents:            tax,
		TotalCents:          total,
		ChangeCents:         Change(payment, total),
	}
}

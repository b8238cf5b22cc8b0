package invoicing

import (
	"github.com/shopspring/decimal"

	"profitlens/internal/platform/money"
)

// Subtotal sums quantity × unit price over items and rounds once. It is the
// authoritative figure: the per-line amounts shown on an invoice are rounded
// for display and may add up to a cent more or less. Order does not matter and
// it never fails.
func Subtotal(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Amount())
	}
	return money.Round(sum)
}

// ResolveDiscount is not clamped to the subtotal; an overrun is reported by ComputeTotals.
func ResolveDiscount(subtotal decimal.Decimal, discountType DiscountType, value decimal.Decimal) decimal.Decimal {
	value = money.NonNegative(value)
	switch discountType {
	case DiscountPercentage:
		return money.Round(money.Percent(subtotal, value))
	default:
		return money.Round(value)
	}
}

// ResolveTax returns taxable × rate / 100. A negative taxable amount yields negative tax.
func ResolveTax(taxable, ratePercent decimal.Decimal) decimal.Decimal {
	return money.Round(money.Percent(taxable, money.NonNegative(ratePercent)))
}

// ComputeTotals derives every figure of inv from scratch.
func ComputeTotals(inv Invoice) Totals {
	subtotal := Subtotal(inv.Items)
	discount := ResolveDiscount(subtotal, inv.DiscountType, inv.DiscountValue)
	taxable := subtotal.Sub(discount)
	tax := ResolveTax(taxable, inv.TaxRatePercent)
	total := taxable.Add(tax)

	var warnings []string
	if discount.GreaterThan(subtotal) {
		warnings = append(warnings, WarningDiscountExceedsSubtotal)
	}
	if total.IsNegative() {
		warnings = append(warnings, WarningNegativeTotal)
	}
	return Totals{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		Taxable:        taxable,
		TaxAmount:      tax,
		Total:          total,
		Warnings:       warnings,
	}
}

package invoicing

import (
	"strings"
	"time"

	"profitlens/internal/platform/money"
)

// Invoice converts the draft into an invoice with coerced amounts and fresh totals.
// Malformed amounts count as zero; callers that persist must validate first.
func (d Draft) Invoice() Invoice {
	discountType, _ := ParseDiscountType(strings.TrimSpace(d.DiscountType))
	currency := strings.ToUpper(strings.TrimSpace(d.Currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	inv := Invoice{
		Number:         strings.TrimSpace(d.Number),
		CustomerName:   strings.TrimSpace(d.CustomerName),
		CustomerEmail:  strings.TrimSpace(d.CustomerEmail),
		Currency:       currency,
		IssueDate:      parseDate(d.IssueDate),
		Notes:          d.Notes,
		DiscountType:   discountType,
		DiscountValue:  money.NonNegative(d.DiscountValue.Coerced()),
		TaxRatePercent: money.NonNegative(d.TaxRatePercent.Coerced()),
		Items:          make([]LineItem, 0, len(d.Items)),
	}
	if due := parseDate(d.DueDate); !due.IsZero() {
		inv.DueDate = &due
	}
	for _, item := range d.Items {
		inv.Items = append(inv.Items, LineItem{
			Description:  strings.TrimSpace(item.Description),
			Quantity:     money.NonNegative(item.Quantity.Coerced()),
			UnitPrice:    money.NonNegative(item.UnitPrice.Coerced()),
			CustomFields: item.CustomFields,
		})
	}
	inv.Totals = ComputeTotals(inv)
	return inv
}

func parseDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	if parsed, err := time.Parse(time.DateOnly, raw); err == nil {
		return parsed
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed
	}
	return time.Time{}
}

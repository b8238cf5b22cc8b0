package invoicing

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"profitlens/internal/platform/money"
)

type LineItem struct {
	Description  string            `json:"description"`
	Quantity     decimal.Decimal   `json:"quantity"`
	UnitPrice    decimal.Decimal   `json:"unitPrice"`
	CustomFields map[string]string `json:"customFields,omitempty"`
}

// Amount is quantity × unit price, with negative inputs treated as zero. It is
// left unrounded so Subtotal rounds the exact sum.
func (li LineItem) Amount() decimal.Decimal {
	return money.NonNegative(li.Quantity).Mul(money.NonNegative(li.UnitPrice))
}

type Totals struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	Taxable        decimal.Decimal
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal
	Warnings       []string
}

func (t Totals) MarshalJSON() ([]byte, error) {
	warnings := t.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return json.Marshal(struct {
		Subtotal       string   `json:"subtotal"`
		DiscountAmount string   `json:"discountAmount"`
		Taxable        string   `json:"taxable"`
		TaxAmount      string   `json:"taxAmount"`
		Total          string   `json:"total"`
		Warnings       []string `json:"warnings"`
	}{
		Subtotal:       money.Format(t.Subtotal),
		DiscountAmount: money.Format(t.DiscountAmount),
		Taxable:        money.Format(t.Taxable),
		TaxAmount:      money.Format(t.TaxAmount),
		Total:          money.Format(t.Total),
		Warnings:       warnings,
	})
}

type Invoice struct {
	ID             string
	CompanyID      string
	Number         string
	CustomerName   string
	CustomerEmail  string
	Currency       string
	IssueDate      time.Time
	DueDate        *time.Time
	Notes          string
	Items          []LineItem
	DiscountType   DiscountType
	DiscountValue  decimal.Decimal
	TaxRatePercent decimal.Decimal
	Totals         Totals
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type lineItemView struct {
	Description  string            `json:"description"`
	Quantity     string            `json:"quantity"`
	UnitPrice    string            `json:"unitPrice"`
	Amount       string            `json:"amount"`
	CustomFields map[string]string `json:"customFields,omitempty"`
}

func (inv Invoice) MarshalJSON() ([]byte, error) {
	items := make([]lineItemView, 0, len(inv.Items))
	for _, item := range inv.Items {
		items = append(items, lineItemView{
			Description:  item.Description,
			Quantity:     item.Quantity.String(),
			UnitPrice:    money.Format(item.UnitPrice),
			Amount:       money.Format(item.Amount()),
			CustomFields: item.CustomFields,
		})
	}
	var due *string
	if inv.DueDate != nil {
		formatted := inv.DueDate.Format(time.DateOnly)
		due = &formatted
	}
	return json.Marshal(struct {
		ID             string         `json:"id"`
		Number         string         `json:"number"`
		CustomerName   string         `json:"customerName"`
		CustomerEmail  string         `json:"customerEmail,omitempty"`
		Currency       string         `json:"currency"`
		IssueDate      string         `json:"issueDate"`
		DueDate        *string        `json:"dueDate,omitempty"`
		Notes          string         `json:"notes,omitempty"`
		Items          []lineItemView `json:"items"`
		DiscountType   DiscountType   `json:"discountType"`
		DiscountValue  string         `json:"discountValue"`
		TaxRatePercent string         `json:"taxRatePercent"`
		Totals         Totals         `json:"totals"`
		CreatedAt      time.Time      `json:"createdAt"`
		UpdatedAt      time.Time      `json:"updatedAt"`
	}{
		ID:             inv.ID,
		Number:         inv.Number,
		CustomerName:   inv.CustomerName,
		CustomerEmail:  inv.CustomerEmail,
		Currency:       inv.Currency,
		IssueDate:      inv.IssueDate.Format(time.DateOnly),
		DueDate:        due,
		Notes:          inv.Notes,
		Items:          items,
		DiscountType:   inv.DiscountType,
		DiscountValue:  inv.DiscountValue.String(),
		TaxRatePercent: inv.TaxRatePercent.String(),
		Totals:         inv.Totals,
		CreatedAt:      inv.CreatedAt,
		UpdatedAt:      inv.UpdatedAt,
	})
}

// Draft is the decoded create/update/preview payload. Amounts stay as raw
// inputs so preview can coerce and save can reject.
type Draft struct {
	Number         string      `json:"number" validate:"required,max=64"`
	CustomerName   string      `json:"customerName" validate:"required,max=200"`
	CustomerEmail  string      `json:"customerEmail" validate:"omitempty,email"`
	Currency       string      `json:"currency" validate:"omitempty,len=3,alpha"`
	IssueDate      string      `json:"issueDate" validate:"required"`
	DueDate        string      `json:"dueDate"`
	Notes          string      `json:"notes" validate:"max=2000"`
	Items          []DraftItem `json:"items" validate:"required,min=1,max=500,dive"`
	DiscountType   string      `json:"discountType" validate:"omitempty,oneof=fixed percentage"`
	DiscountValue  money.Input `json:"discountValue"`
	TaxRatePercent money.Input `json:"taxRatePercent"`
}

type DraftItem struct {
	Description  string            `json:"description" validate:"required,max=500"`
	Quantity     money.Input       `json:"quantity"`
	UnitPrice    money.Input       `json:"unitPrice"`
	CustomFields map[string]string `json:"customFields"`
}

type ListResult struct {
	Items []Invoice `json:"items"`
	Total int       `json:"total"`
}

package payroll

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"profitlens/internal/platform/money"
)

type CustomField struct {
	ID    string    `json:"id" firestore:"id" validate:"required,max=64"`
	Label string    `json:"label" firestore:"label" validate:"required,max=120"`
	Type  FieldType `json:"type" firestore:"type" validate:"required,oneof=number string date"`
}

type Settings struct {
	CompanyID     string
	PFPercentage  decimal.Decimal
	ESIPercentage decimal.Decimal
	CustomFields  []CustomField
	UpdatedAt     time.Time
}

// NumberFields returns the ids of custom fields that count as deductions.
func (s Settings) NumberFields() []string {
	var ids []string
	for _, field := range s.CustomFields {
		if field.Type == FieldNumber {
			ids = append(ids, field.ID)
		}
	}
	return ids
}

func (s Settings) Field(id string) (CustomField, bool) {
	for _, field := range s.CustomFields {
		if field.ID == id {
			return field, true
		}
	}
	return CustomField{}, false
}

func (s Settings) MarshalJSON() ([]byte, error) {
	fields := s.CustomFields
	if fields == nil {
		fields = []CustomField{}
	}
	return json.Marshal(struct {
		PFPercentage  string        `json:"pfPercentage"`
		ESIPercentage string        `json:"esiPercentage"`
		CustomFields  []CustomField `json:"customFields"`
		UpdatedAt     *time.Time    `json:"updatedAt,omitempty"`
	}{
		PFPercentage:  s.PFPercentage.String(),
		ESIPercentage: s.ESIPercentage.String(),
		CustomFields:  fields,
		UpdatedAt:     nonZero(s.UpdatedAt),
	})
}

// Input carries the operator-entered figures of one employee for one period.
type Input struct {
	EmployeeID      string
	BaseSalary      decimal.Decimal
	WorkingDays     decimal.Decimal
	PresentDays     decimal.Decimal
	OTDays          decimal.Decimal
	Advances        decimal.Decimal
	OtherDeductions decimal.Decimal
	// CustomFields holds canonical string values keyed by field id.
	CustomFields map[string]string
}

type Breakdown struct {
	// WorkingDaysUsed is the divisor actually applied after the < 1 fallback.
	WorkingDaysUsed  decimal.Decimal
	DailyRate        decimal.Decimal
	ProratedSalary   decimal.Decimal
	OvertimePay      decimal.Decimal
	GrossEarnings    decimal.Decimal
	PFPercentage     decimal.Decimal
	ESIPercentage    decimal.Decimal
	PFContribution   decimal.Decimal
	ESIContribution  decimal.Decimal
	CustomDeductions decimal.Decimal
	TotalDeductions  decimal.Decimal
	NetPayment       decimal.Decimal
	Warnings         []string
}

type breakdownView struct {
	DailyRate        string   `json:"dailyRate"`
	ProratedSalary   string   `json:"proratedSalary"`
	OvertimePay      string   `json:"overtimePay"`
	GrossEarnings    string   `json:"grossEarnings"`
	PFPercentage     string   `json:"pfPercentage"`
	ESIPercentage    string   `json:"esiPercentage"`
	PFContribution   string   `json:"pfContribution"`
	ESIContribution  string   `json:"esiContribution"`
	CustomDeductions string   `json:"customDeductions"`
	TotalDeductions  string   `json:"totalDeductions"`
	NetPayment       string   `json:"netPayment"`
	Warnings         []string `json:"warnings"`
}

func (b Breakdown) view() breakdownView {
	warnings := b.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return breakdownView{
		DailyRate:        money.Format(b.DailyRate),
		ProratedSalary:   money.Format(b.ProratedSalary),
		OvertimePay:      money.Format(b.OvertimePay),
		GrossEarnings:    money.Format(b.GrossEarnings),
		PFPercentage:     b.PFPercentage.String(),
		ESIPercentage:    b.ESIPercentage.String(),
		PFContribution:   money.Format(b.PFContribution),
		ESIContribution:  money.Format(b.ESIContribution),
		CustomDeductions: money.Format(b.CustomDeductions),
		TotalDeductions:  money.Format(b.TotalDeductions),
		NetPayment:       money.Format(b.NetPayment),
		Warnings:         warnings,
	}
}

func (b Breakdown) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.view())
}

// Record is a saved payroll line. The breakdown is a snapshot taken at save
// time; later settings changes never rewrite it.
type Record struct {
	ID        string
	CompanyID string
	PayPeriod string
	Input
	Breakdown
	Status    Status
	PaidAt    *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r Record) MarshalJSON() ([]byte, error) {
	custom := r.CustomFields
	if custom == nil {
		custom = map[string]string{}
	}
	return json.Marshal(struct {
		ID              string            `json:"id"`
		EmployeeID      string            `json:"employeeId"`
		PayPeriod       string            `json:"payPeriod"`
		BaseSalary      string            `json:"baseSalary"`
		WorkingDays     string            `json:"workingDays"`
		PresentDays     string            `json:"presentDays"`
		OTDays          string            `json:"otDays"`
		Advances        string            `json:"advances"`
		OtherDeductions string            `json:"otherDeductions"`
		CustomFields    map[string]string `json:"customFields"`
		breakdownView
		Status    Status     `json:"status"`
		PaidAt    *time.Time `json:"paidAt,omitempty"`
		CreatedAt time.Time  `json:"createdAt"`
		UpdatedAt time.Time  `json:"updatedAt"`
	}{
		ID:              r.ID,
		EmployeeID:      r.EmployeeID,
		PayPeriod:       r.PayPeriod,
		BaseSalary:      money.Format(r.BaseSalary),
		WorkingDays:     r.WorkingDays.String(),
		PresentDays:     r.PresentDays.String(),
		OTDays:          r.OTDays.String(),
		Advances:        money.Format(r.Advances),
		OtherDeductions: money.Format(r.OtherDeductions),
		CustomFields:    custom,
		breakdownView:   r.Breakdown.view(),
		Status:          r.Status,
		PaidAt:          r.PaidAt,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	})
}

type PeriodSummary struct {
	Period          string
	Records         int
	Paid            int
	Pending         int
	GrossEarnings   decimal.Decimal
	TotalDeductions decimal.Decimal
	NetPayment      decimal.Decimal
}

func (s PeriodSummary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Period          string `json:"period"`
		Records         int    `json:"records"`
		Paid            int    `json:"paid"`
		Pending         int    `json:"pending"`
		GrossEarnings   string `json:"grossEarnings"`
		TotalDeductions string `json:"totalDeductions"`
		NetPayment      string `json:"netPayment"`
	}{
		Period:          s.Period,
		Records:         s.Records,
		Paid:            s.Paid,
		Pending:         s.Pending,
		GrossEarnings:   money.Format(s.GrossEarnings),
		TotalDeductions: money.Format(s.TotalDeductions),
		NetPayment:      money.Format(s.NetPayment),
	})
}

// RecordDraft is the decoded create/update/preview/batch payload.
type RecordDraft struct {
	EmployeeID      string         `json:"employeeId" validate:"required,max=64"`
	PayPeriod       string         `json:"payPeriod"`
	BaseSalary      money.Input    `json:"baseSalary"`
	WorkingDays     money.Input    `json:"workingDays"`
	PresentDays     money.Input    `json:"presentDays"`
	OTDays          money.Input    `json:"otDays"`
	Advances        money.Input    `json:"advances"`
	OtherDeductions money.Input    `json:"otherDeductions"`
	CustomFields    map[string]any `json:"customFields"`
}

type SettingsDraft struct {
	PFPercentage  money.Input   `json:"pfPercentage"`
	ESIPercentage money.Input   `json:"esiPercentage"`
	CustomFields  []CustomField `json:"customFields" validate:"max=50,dive"`
}

type StatusChange struct {
	Status string `json:"status" validate:"required,oneof=Pending Paid"`
}

func nonZero(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

package payroll

import (
	"fmt"
	"strings"
	"time"

	"profitlens/internal/platform/money"
)

// NormalizeCustomFields converts decoded custom values into their stored
// string form. Number fields are stored with two decimals, malformed numbers
// as zero; everything else is kept as text.
func NormalizeCustomFields(values map[string]any, settings Settings) map[string]string {
	if len(values) == 0 {
		return map[string]string{}
	}
	out := make(map[string]string, len(values))
	for id, raw := range values {
		field, configured := settings.Field(id)
		if configured && field.Type == FieldNumber {
			d, _ := money.Parse(raw)
			out[id] = money.Format(money.Round(d))
			continue
		}
		if raw == nil {
			continue
		}
		if s, ok := raw.(string); ok {
			out[id] = strings.TrimSpace(s)
			continue
		}
		out[id] = fmt.Sprint(raw)
	}
	return out
}

// CustomFieldIssues lists custom values that do not match their configured type.
// The map is keyed by field id.
func CustomFieldIssues(values map[string]any, settings Settings) map[string]string {
	issues := map[string]string{}
	for id, raw := range values {
		field, ok := settings.Field(id)
		if !ok {
			issues[id] = "is not a configured custom field"
			continue
		}
		switch field.Type {
		case FieldNumber:
			d, ok := money.Parse(raw)
			if !ok {
				issues[id] = "must be a number"
			} else if d.IsNegative() {
				issues[id] = "must be zero or greater"
			}
		case FieldDate:
			s, _ := raw.(string)
			if _, err := time.Parse(time.DateOnly, strings.TrimSpace(s)); err != nil {
				issues[id] = "must be a date in YYYY-MM-DD format"
			}
		case FieldString:
			if _, ok := raw.(string); !ok {
				issues[id] = "must be text"
			}
		}
	}
	return issues
}

// Input converts the draft to calculator input, coercing malformed amounts to zero.
func (d RecordDraft) Input(settings Settings) Input {
	return Input{
		EmployeeID:      strings.TrimSpace(d.EmployeeID),
		BaseSalary:      money.Round(money.NonNegative(d.BaseSalary.Coerced())),
		WorkingDays:     money.NonNegative(d.WorkingDays.Coerced()),
		PresentDays:     money.NonNegative(d.PresentDays.Coerced()),
		OTDays:          money.NonNegative(d.OTDays.Coerced()),
		Advances:        money.Round(money.NonNegative(d.Advances.Coerced())),
		OtherDeductions: money.Round(money.NonNegative(d.OtherDeductions.Coerced())),
		CustomFields:    NormalizeCustomFields(d.CustomFields, settings),
	}
}

package payroll

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"profitlens/internal/platform/money"
)

var customSettings = Settings{CustomFields: []CustomField{
	{ID: "loan", Label: "Loan", Type: FieldNumber},
	{ID: "note", Label: "Note", Type: FieldString},
	{ID: "due", Label: "Due", Type: FieldDate},
}}

func TestNormalizeCustomFields(t *testing.T) {
	out := NormalizeCustomFields(map[string]any{
		"loan":  json.Number("150.5"),
		"note":  "  monthly  ",
		"due":   "2024-05-01",
		"extra": 12.0,
		"empty": nil,
	}, customSettings)
	assert.Equal(t, map[string]string{"loan": "150.50", "note": "monthly", "due": "2024-05-01", "extra": "12"}, out)

	assert.Equal(t, "0.00", NormalizeCustomFields(map[string]any{"loan": "oops"}, customSettings)["loan"])
}

func TestCustomFieldIssues(t *testing.T) {
	issues := CustomFieldIssues(map[string]any{
		"loan":    "oops",
		"note":    42.0,
		"due":     "05/01/2024",
		"unknown": "x",
	}, customSettings)
	assert.Equal(t, map[string]string{
		"loan":    "must be a number",
		"note":    "must be text",
		"due":     "must be a date in YYYY-MM-DD format",
		"unknown": "is not a configured custom field",
	}, issues)

	assert.Empty(t, CustomFieldIssues(map[string]any{"loan": 10.0, "note": "ok", "due": "2024-05-01"}, customSettings))
	assert.Equal(t, "must be zero or greater", CustomFieldIssues(map[string]any{"loan": -1.0}, customSettings)["loan"])
}

func TestRecordDraftInputCoerces(t *testing.T) {
	var draft RecordDraft
	require.NoError(t, json.Unmarshal([]byte(`{
		"employeeId": " e1 ",
		"baseSalary": "3000",
		"workingDays": "thirty",
		"presentDays": 25,
		"otDays": null,
		"advances": -20,
		"customFields": {"loan": "100"}
	}`), &draft))

	in := draft.Input(customSettings)
	assert.Equal(t, "e1", in.EmployeeID)
	assert.Equal(t, "3000.00", money.Format(in.BaseSalary))
	assert.True(t, in.WorkingDays.IsZero())
	assert.Equal(t, "25", in.PresentDays.String())
	assert.True(t, in.OTDays.IsZero())
	assert.True(t, in.Advances.IsZero())
	assert.Equal(t, "100.00", in.CustomFields["loan"])
}

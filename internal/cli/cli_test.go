package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"profitlens/internal/domain/auth"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LOG_LEVEL", "error")
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCalcInvoiceFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "draft.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
	  "items": [{"description": "Design", "quantity": 2, "unitPrice": "100"},
	            {"description": "Hosting", "quantity": 1, "unitPrice": "50.50"}],
	  "discountType": "percentage", "discountValue": 10, "taxRatePercent": 18
	}`), 0o600))

	out, err := run(t, "", "calc", "invoice", "--file", path)
	require.NoError(t, err)
	var totals map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &totals))
	assert.Equal(t, "250.50", totals["subtotal"])
	assert.Equal(t, "266.03", totals["total"])
}

func TestCalcPayrollFromStdin(t *testing.T) {
	input := `{
	  "settings": {"pfPercentage": 12, "esiPercentage": "0.75",
	               "customFields": [{"id": "loan", "label": "Loan", "type": "number"}]},
	  "record": {"baseSalary": 30000, "workingDays": 30, "presentDays": 30,
	             "advances": "1000", "customFields": {"loan": "500"}}
	}`
	out, err := run(t, input, "calc", "payroll", "--file", "-")
	require.NoError(t, err)
	var breakdown map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &breakdown))
	assert.Equal(t, "30000.00", breakdown["grossEarnings"])
	assert.Equal(t, "3600.00", breakdown["pfContribution"])
	assert.Equal(t, "225.00", breakdown["esiContribution"])
	assert.Equal(t, "5325.00", breakdown["totalDeductions"])
	assert.Equal(t, "24675.00", breakdown["netPayment"])
}

func TestCalcRequiresFile(t *testing.T) {
	_, err := run(t, "", "calc", "invoice")
	assert.Error(t, err)
}

func TestTokenCommandMintsParsableToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")
	t.Setenv("APP_ENV", "development")
	out, err := run(t, "", "token", "--company", "c9", "--role", auth.RoleViewer)
	require.NoError(t, err)

	claims, err := auth.ParseToken("cli-secret", strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "c9", claims.CompanyID)
	assert.Equal(t, auth.RoleViewer, claims.Role)
}

func TestMintTokenRejects(t *testing.T) {
	_, err := mintToken("", "c1", "u", auth.RoleOwner, time.Hour)
	assert.Error(t, err)
	_, err = mintToken("s", "c1", "u", "Root", time.Hour)
	assert.Error(t, err)
	_, err = mintToken("s", "c1", "u", auth.RoleOwner, 0)
	assert.Error(t, err)
}

package payroll

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"profitlens/internal/domain/employees"
	"profitlens/internal/platform/money"
)

type mapCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	hits    int
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string][]byte{}}
}

func (c *mapCache) GetJSON(_ context.Context, key string, target any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	c.hits++
	return true, json.Unmarshal(raw, target)
}

func (c *mapCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = raw
	return nil
}

func (c *mapCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, key)
	}
	return nil
}

func (c *mapCache) Ping(context.Context) error { return nil }

type batchCounter struct {
	rows   int
	failed int
}

func (b *batchCounter) RecordBatch(rows int, err error) {
	b.rows += rows
	if err != nil {
		b.failed++
	}
}

type fixture struct {
	svc       *Service
	store     *MemoryStore
	staff     *employees.Service
	cache     *mapCache
	batches   *batchCounter
	employees map[string]employees.Employee
}

const company = "c1"

func newFixture(t *testing.T) fixture {
	t.Helper()
	staff := employees.NewService(employees.NewMemoryStore())
	store := NewMemoryStore()
	f := fixture{
		store:     store,
		staff:     staff,
		cache:     newMapCache(),
		batches:   &batchCounter{},
		employees: map[string]employees.Employee{},
	}
	f.svc = NewService(store, staff, f.cache, time.Minute, f.batches)
	f.svc.now = func() time.Time { return time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC) }

	ctx := context.Background()
	for _, row := range []struct{ name, salary, status string }{
		{"Asha", "3000", ""},
		{"Ravi", "29000", ""},
		{"Meera", "50000", employees.StatusInactive},
	} {
		emp, err := staff.Create(ctx, company, employees.Draft{
			Name:       row.name,
			BaseSalary: money.NewInput(d(row.salary)),
			Status:     row.status,
		})
		require.NoError(t, err)
		f.employees[row.name] = emp
	}
	_, _, err := f.svc.UpdateSettings(ctx, company, SettingsDraft{
		PFPercentage:  money.NewInput(d("12")),
		ESIPercentage: money.NewInput(d("0")),
		CustomFields:  []CustomField{{ID: "loan", Label: "Loan", Type: FieldNumber}},
	})
	require.NoError(t, err)
	return f
}

func recordDraft(employeeID, period string) RecordDraft {
	return RecordDraft{
		EmployeeID:  employeeID,
		PayPeriod:   period,
		BaseSalary:  money.NewInput(d("3000")),
		WorkingDays: money.NewInput(d("30")),
		PresentDays: money.NewInput(d("25")),
		OTDays:      money.NewInput(d("2")),
	}
}

func TestCreateRecordComputesBreakdown(t *testing.T) {
	f := newFixture(t)
	rec, err := f.svc.CreateRecord(context.Background(), company, recordDraft(f.employees["Asha"].ID, "2024-03"))
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, StatusPending, rec.Status)
	assert.Nil(t, rec.PaidAt)
	assertAmount(t, "2700.00", rec.GrossEarnings, "gross")
	assertAmount(t, "300.00", rec.PFContribution, "pf")
	assertAmount(t, "2400.00", rec.NetPayment, "net")
	assert.Equal(t, "12", rec.PFPercentage.String())
}

func TestCreateRecordDefaultsBaseSalaryFromEmployee(t *testing.T) {
	f := newFixture(t)
	draft := recordDraft(f.employees["Ravi"].ID, "2024-03")
	draft.BaseSalary = money.Input{}
	draft.WorkingDays = money.NewInput(d("29"))
	draft.PresentDays = money.NewInput(d("29"))
	draft.OTDays = money.Input{}

	rec, err := f.svc.CreateRecord(context.Background(), company, draft)
	require.NoError(t, err)
	assertAmount(t, "29000.00", rec.BaseSalary, "base")
	assertAmount(t, "29000.00", rec.ProratedSalary, "prorated")
}

func TestCreateRecordRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	asha := f.employees["Asha"].ID

	_, err := f.svc.CreateRecord(ctx, company, recordDraft(asha, "2024-13"))
	assert.ErrorIs(t, err, ErrInvalidPeriod)

	_, err = f.svc.CreateRecord(ctx, company, recordDraft("nobody", "2024-03"))
	assert.ErrorIs(t, err, ErrEmployeeNotFound)

	_, err = f.svc.CreateRecord(ctx, "c2", recordDraft(asha, "2024-03"))
	assert.ErrorIs(t, err, ErrEmployeeNotFound)

	_, err = f.svc.CreateRecord(ctx, company, recordDraft(asha, "2024-03"))
	require.NoError(t, err)
	_, err = f.svc.CreateRecord(ctx, company, recordDraft(asha, "2024-03"))
	assert.ErrorIs(t, err, ErrDuplicateRecord)
}

func TestSettingsAreCachedAndInvalidated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.GetSettings(ctx, company)
	require.NoError(t, err)
	second, err := f.svc.GetSettings(ctx, company)
	require.NoError(t, err)
	assert.Equal(t, 1, f.cache.hits)
	assert.True(t, first.PFPercentage.Equal(second.PFPercentage))
	require.Len(t, second.CustomFields, 1)

	_, previous, err := f.svc.UpdateSettings(ctx, company, SettingsDraft{PFPercentage: money.NewInput(d("10"))})
	require.NoError(t, err)
	assert.Equal(t, "12", previous.PFPercentage.String())
	assert.Empty(t, f.cache.entries)

	current, err := f.svc.GetSettings(ctx, company)
	require.NoError(t, err)
	assert.Equal(t, "10", current.PFPercentage.String())
	assert.Empty(t, current.CustomFields)
}

func TestSettingsChangeDoesNotRewriteSavedRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec, err := f.svc.CreateRecord(ctx, company, recordDraft(f.employees["Asha"].ID, "2024-03"))
	require.NoError(t, err)

	_, _, err = f.svc.UpdateSettings(ctx, company, SettingsDraft{PFPercentage: money.NewInput(d("20"))})
	require.NoError(t, err)

	saved, err := f.svc.GetRecord(ctx, company, rec.ID)
	require.NoError(t, err)
	assertAmount(t, "300.00", saved.PFContribution, "pf")
	assert.Equal(t, "12", saved.PFPercentage.String())

	preview, err := f.svc.Preview(ctx, company, recordDraft(f.employees["Asha"].ID, "2024-03"))
	require.NoError(t, err)
	assertAmount(t, "500.00", preview.PFContribution, "preview pf")
}

func TestStatusLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec, err := f.svc.CreateRecord(ctx, company, recordDraft(f.employees["Asha"].ID, "2024-03"))
	require.NoError(t, err)

	paid, previous, err := f.svc.SetStatus(ctx, company, rec.ID, StatusPaid)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, previous.Status)
	assert.Equal(t, StatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)
	stamped := *paid.PaidAt

	f.svc.now = func() time.Time { return stamped.Add(time.Hour) }
	again, _, err := f.svc.SetStatus(ctx, company, rec.ID, StatusPaid)
	require.NoError(t, err)
	require.NotNil(t, again.PaidAt)
	assert.True(t, again.PaidAt.Equal(stamped))

	_, _, err = f.svc.UpdateRecord(ctx, company, rec.ID, recordDraft(f.employees["Asha"].ID, "2024-03"))
	assert.ErrorIs(t, err, ErrRecordPaid)
	_, err = f.svc.DeleteRecord(ctx, company, rec.ID)
	assert.ErrorIs(t, err, ErrRecordPaid)

	reopened, _, err := f.svc.SetStatus(ctx, company, rec.ID, StatusPending)
	require.NoError(t, err)
	assert.Nil(t, reopened.PaidAt)

	_, _, err = f.svc.SetStatus(ctx, company, rec.ID, Status("Cancelled"))
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateRecordRecomputesAndKeepsIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	asha := f.employees["Asha"].ID
	rec, err := f.svc.CreateRecord(ctx, company, recordDraft(asha, "2024-03"))
	require.NoError(t, err)

	draft := recordDraft(f.employees["Ravi"].ID, "2024-04")
	draft.PresentDays = money.NewInput(d("30"))
	draft.OTDays = money.Input{}
	draft.CustomFields = map[string]any{"loan": "150"}
	updated, previous, err := f.svc.UpdateRecord(ctx, company, rec.ID, draft)
	require.NoError(t, err)

	assert.Equal(t, rec.ID, updated.ID)
	assert.Equal(t, asha, updated.EmployeeID)
	assert.Equal(t, "2024-03", updated.PayPeriod)
	assertAmount(t, "2400.00", previous.NetPayment, "previous net")
	assertAmount(t, "3000.00", updated.GrossEarnings, "gross")
	assertAmount(t, "510.00", updated.TotalDeductions, "deductions")
	assertAmount(t, "2490.00", updated.NetPayment, "net")
	assert.Equal(t, "150.00", updated.CustomFields["loan"])
}

func TestDeleteRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec, err := f.svc.CreateRecord(ctx, company, recordDraft(f.employees["Asha"].ID, "2024-03"))
	require.NoError(t, err)

	deleted, err := f.svc.DeleteRecord(ctx, company, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, deleted.ID)

	_, err = f.svc.GetRecord(ctx, company, rec.ID)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestSavePeriodUpsertsAtomically(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	asha, ravi := f.employees["Asha"].ID, f.employees["Ravi"].ID

	existing, err := f.svc.CreateRecord(ctx, company, recordDraft(asha, "2024-03"))
	require.NoError(t, err)

	saved, err := f.svc.SavePeriod(ctx, company, "2024-03", []RecordDraft{
		recordDraft(asha, ""),
		recordDraft(ravi, "1999-01"),
	})
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, existing.ID, saved[0].ID)
	for _, rec := range saved {
		assert.Equal(t, "2024-03", rec.PayPeriod)
	}
	assert.Equal(t, 2, f.batches.rows)

	records, err := f.svc.ListRecords(ctx, company, "2024-03")
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestSavePeriodRejectsWholeBatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	asha, ravi := f.employees["Asha"].ID, f.employees["Ravi"].ID

	_, err := f.svc.SavePeriod(ctx, company, "2024-03", []RecordDraft{recordDraft(asha, ""), recordDraft(asha, "")})
	assert.ErrorIs(t, err, ErrDuplicateEmployees)

	_, err = f.svc.SavePeriod(ctx, company, "2024-03", []RecordDraft{recordDraft(asha, ""), recordDraft("ghost", "")})
	assert.ErrorIs(t, err, ErrEmployeeNotFound)

	_, err = f.svc.SavePeriod(ctx, company, "03-2024", []RecordDraft{recordDraft(asha, "")})
	assert.ErrorIs(t, err, ErrInvalidPeriod)

	paid, err := f.svc.CreateRecord(ctx, company, recordDraft(asha, "2024-03"))
	require.NoError(t, err)
	_, _, err = f.svc.SetStatus(ctx, company, paid.ID, StatusPaid)
	require.NoError(t, err)

	_, err = f.svc.SavePeriod(ctx, company, "2024-03", []RecordDraft{recordDraft(ravi, ""), recordDraft(asha, "")})
	assert.ErrorIs(t, err, ErrRecordPaid)

	records, err := f.svc.ListRecords(ctx, company, "2024-03")
	require.NoError(t, err)
	assert.Len(t, records, 1, "nothing from the rejected batch is written")
}

func TestSavePeriodBatchLimit(t *testing.T) {
	f := newFixture(t)
	drafts := make([]RecordDraft, MaxBatchRows+1)
	for i := range drafts {
		drafts[i] = recordDraft(fmt.Sprintf("e%d", i), "")
	}
	_, err := f.svc.SavePeriod(context.Background(), company, "2024-03", drafts)
	assert.ErrorIs(t, err, ErrBatchTooLarge)
}

func TestStoreUpsertGuardsPaidRecords(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	rec, err := store.CreateRecord(ctx, Record{CompanyID: company, Input: Input{EmployeeID: "e1"}, PayPeriod: "2024-03", Status: StatusPaid})
	require.NoError(t, err)

	_, err = store.UpsertRecords(ctx, company, []Record{
		{Input: Input{EmployeeID: "e2"}, PayPeriod: "2024-03", Status: StatusPending},
		{Input: Input{EmployeeID: "e1"}, PayPeriod: "2024-03", Status: StatusPending},
	})
	assert.ErrorIs(t, err, ErrRecordPaid)

	records, err := store.ListRecords(ctx, company, "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, rec.ID, records[0].ID)
}

func TestGeneratePeriodFillsActiveEmployees(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.GeneratePeriod(ctx, company, "2024-02")
	require.NoError(t, err)
	require.Len(t, created, 2)

	byEmployee := map[string]Record{}
	for _, rec := range created {
		byEmployee[rec.EmployeeID] = rec
	}
	ravi := byEmployee[f.employees["Ravi"].ID]
	assert.Equal(t, "29", ravi.WorkingDays.String())
	assertAmount(t, "29000.00", ravi.ProratedSalary, "prorated")
	assertAmount(t, "3480.00", ravi.PFContribution, "pf")
	assertAmount(t, "25520.00", ravi.NetPayment, "net")
	_, inactive := byEmployee[f.employees["Meera"].ID]
	assert.False(t, inactive)

	again, err := f.svc.GeneratePeriod(ctx, company, "2024-02")
	require.NoError(t, err)
	assert.Empty(t, again)

	_, err = f.svc.GeneratePeriod(ctx, company, "2024-2")
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.GeneratePeriod(ctx, company, "2024-02")
	require.NoError(t, err)
	records, err := f.svc.ListRecords(ctx, company, "2024-02")
	require.NoError(t, err)
	_, _, err = f.svc.SetStatus(ctx, company, records[0].ID, StatusPaid)
	require.NoError(t, err)

	summary, err := f.svc.Summary(ctx, company, "2024-02")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Records)
	assert.Equal(t, 1, summary.Paid)
	assert.Equal(t, 1, summary.Pending)
	assertAmount(t, "32000.00", summary.GrossEarnings, "gross")
	assertAmount(t, "3840.00", summary.TotalDeductions, "deductions")
	assertAmount(t, "28160.00", summary.NetPayment, "net")

	_, err = f.svc.ListRecords(ctx, company, "bad")
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

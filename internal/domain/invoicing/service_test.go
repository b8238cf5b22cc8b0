package invoicing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"profitlens/internal/platform/money"
)

func newTestService() *Service {
	svc := NewService(NewMemoryStore())
	clock := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return svc
}

func sampleDraft(number string) Draft {
	return Draft{
		Number:       number,
		CustomerName: "Acme Traders",
		IssueDate:    "2024-03-01",
		Items: []DraftItem{
			{Description: "Consulting", Quantity: money.NewInput(d("2")), UnitPrice: money.NewInput(d("50"))},
		},
		DiscountType:   string(DiscountFixed),
		DiscountValue:  money.NewInput(d("10")),
		TaxRatePercent: money.NewInput(d("5")),
	}
}

func TestServiceCreateFreezesTotals(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	inv, err := svc.Create(ctx, "c1", sampleDraft("INV-001"))
	require.NoError(t, err)
	assert.NotEmpty(t, inv.ID)
	assert.Equal(t, "94.50", money.Format(inv.Totals.Total))

	fetched, err := svc.Get(ctx, "c1", inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "94.50", money.Format(fetched.Totals.Total))
}

func TestServiceRejectsDuplicateNumberPerCompany(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "c1", sampleDraft("INV-001"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, "c1", sampleDraft("INV-001"))
	assert.ErrorIs(t, err, ErrDuplicateNumber)

	_, err = svc.Create(ctx, "c2", sampleDraft("INV-001"))
	assert.NoError(t, err)
}

func TestServiceUpdateRecomputesTotals(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	inv, err := svc.Create(ctx, "c1", sampleDraft("INV-001"))
	require.NoError(t, err)

	draft := sampleDraft("INV-001")
	draft.Items = append(draft.Items, DraftItem{Description: "Support", Quantity: money.NewInput(d("1")), UnitPrice: money.NewInput(d("100"))})
	draft.DiscountType = string(DiscountPercentage)

	updated, previous, err := svc.Update(ctx, "c1", inv.ID, draft)
	require.NoError(t, err)
	assert.Equal(t, "94.50", money.Format(previous.Totals.Total))
	assert.Equal(t, "200.00", money.Format(updated.Totals.Subtotal))
	assert.Equal(t, "20.00", money.Format(updated.Totals.DiscountAmount))
	assert.Equal(t, "189.00", money.Format(updated.Totals.Total))
	assert.Equal(t, inv.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(inv.UpdatedAt))
}

func TestServiceTenantIsolation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	inv, err := svc.Create(ctx, "c1", sampleDraft("INV-001"))
	require.NoError(t, err)

	_, err = svc.Get(ctx, "c2", inv.ID)
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
	_, _, err = svc.Update(ctx, "c2", inv.ID, sampleDraft("INV-001"))
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
	_, err = svc.Delete(ctx, "c2", inv.ID)
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
}

func TestServiceListNewestFirst(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	for _, number := range []string{"INV-001", "INV-002", "INV-003"} {
		_, err := svc.Create(ctx, "c1", sampleDraft(number))
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, "c1", 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "INV-003", page.Items[0].Number)
	assert.Equal(t, "INV-002", page.Items[1].Number)

	empty, err := svc.List(ctx, "c9", 10, 0)
	require.NoError(t, err)
	assert.NotNil(t, empty.Items)
	assert.Zero(t, empty.Total)
}

func TestServiceDelete(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	inv, err := svc.Create(ctx, "c1", sampleDraft("INV-001"))
	require.NoError(t, err)

	deleted, err := svc.Delete(ctx, "c1", inv.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, deleted.ID)
	_, err = svc.Get(ctx, "c1", inv.ID)
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
}

func TestServicePreviewNeverFails(t *testing.T) {
	svc := newTestService()
	totals := svc.Preview(Draft{Items: []DraftItem{{Quantity: money.Input{Present: true}}}})
	assert.Equal(t, "0.00", money.Format(totals.Total))
}

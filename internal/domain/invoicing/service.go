package invoicing

import (
	"context"
	"fmt"
	"time"
)

type Service struct {
	store StoreAPI
	now   func() time.Time
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store, now: time.Now}
}

// Preview derives totals for an unsaved draft. It never fails.
func (s *Service) Preview(draft Draft) Totals {
	return draft.Invoice().Totals
}

func (s *Service) Create(ctx context.Context, companyID string, draft Draft) (Invoice, error) {
	inv := draft.Invoice()
	inv.CompanyID = companyID
	now := s.now().UTC()
	inv.CreatedAt = now
	inv.UpdatedAt = now
	created, err := s.store.Create(ctx, inv)
	if err != nil {
		return Invoice{}, fmt.Errorf("create invoice: %w", err)
	}
	return created, nil
}

func (s *Service) Get(ctx context.Context, companyID, invoiceID string) (Invoice, error) {
	return s.store.Get(ctx, companyID, invoiceID)
}

func (s *Service) List(ctx context.Context, companyID string, limit, offset int) (ListResult, error) {
	items, total, err := s.store.List(ctx, companyID, limit, offset)
	if err != nil {
		return ListResult{}, fmt.Errorf("list invoices: %w", err)
	}
	if items == nil {
		items = []Invoice{}
	}
	return ListResult{Items: items, Total: total}, nil
}

// Update replaces the editable fields and recomputes totals. It returns the
// saved invoice and the version it replaced.
func (s *Service) Update(ctx context.Context, companyID, invoiceID string, draft Draft) (Invoice, Invoice, error) {
	previous, err := s.store.Get(ctx, companyID, invoiceID)
	if err != nil {
		return Invoice{}, Invoice{}, err
	}
	next := draft.Invoice()
	next.ID = previous.ID
	next.CompanyID = companyID
	next.CreatedAt = previous.CreatedAt
	next.UpdatedAt = s.now().UTC()
	saved, err := s.store.Update(ctx, next)
	if err != nil {
		return Invoice{}, previous, fmt.Errorf("update invoice: %w", err)
	}
	return saved, previous, nil
}

func (s *Service) Delete(ctx context.Context, companyID, invoiceID string) (Invoice, error) {
	existing, err := s.store.Get(ctx, companyID, invoiceID)
	if err != nil {
		return Invoice{}, err
	}
	if err := s.store.Delete(ctx, companyID, invoiceID); err != nil {
		return Invoice{}, fmt.Errorf("delete invoice: %w", err)
	}
	return existing, nil
}

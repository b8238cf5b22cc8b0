package invoicing

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps invoices in process memory. Used by the memory backend and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	invoices map[string]Invoice
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{invoices: map[string]Invoice{}}
}

func (m *MemoryStore) numberTaken(inv Invoice) bool {
	for _, existing := range m.invoices {
		if existing.CompanyID == inv.CompanyID && existing.Number == inv.Number && existing.ID != inv.ID {
			return true
		}
	}
	return false
}

func (m *MemoryStore) Create(_ context.Context, inv Invoice) (Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	if m.numberTaken(inv) {
		return Invoice{}, ErrDuplicateNumber
	}
	m.invoices[inv.ID] = inv
	return inv, nil
}

func (m *MemoryStore) Get(_ context.Context, companyID, invoiceID string) (Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inv, ok := m.invoices[invoiceID]
	if !ok || inv.CompanyID != companyID {
		return Invoice{}, ErrInvoiceNotFound
	}
	return inv, nil
}

func (m *MemoryStore) List(_ context.Context, companyID string, limit, offset int) ([]Invoice, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var all []Invoice
	for _, inv := range m.invoices {
		if inv.CompanyID == companyID {
			all = append(all, inv)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].Number > all[j].Number
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return all[offset:end], total, nil
}

func (m *MemoryStore) Update(_ context.Context, inv Invoice) (Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.invoices[inv.ID]
	if !ok || existing.CompanyID != inv.CompanyID {
		return Invoice{}, ErrInvoiceNotFound
	}
	if m.numberTaken(inv) {
		return Invoice{}, ErrDuplicateNumber
	}
	m.invoices[inv.ID] = inv
	return inv, nil
}

func (m *MemoryStore) Delete(_ context.Context, companyID, invoiceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.invoices[invoiceID]
	if !ok || existing.CompanyID != companyID {
		return ErrInvoiceNotFound
	}
	delete(m.invoices, invoiceID)
	return nil
}

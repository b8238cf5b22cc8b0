package payroll

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps payroll data in process memory. Batch writes are atomic
// under the store lock.
type MemoryStore struct {
	mu       sync.RWMutex
	settings map[string]Settings
	records  map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{settings: map[string]Settings{}, records: map[string]Record{}}
}

func (m *MemoryStore) GetSettings(_ context.Context, companyID string) (Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if settings, ok := m.settings[companyID]; ok {
		return settings, nil
	}
	return Settings{CompanyID: companyID, CustomFields: []CustomField{}}, nil
}

func (m *MemoryStore) SaveSettings(_ context.Context, settings Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[settings.CompanyID] = settings
	return nil
}

func (m *MemoryStore) find(companyID, employeeID, period string) (Record, bool) {
	for _, rec := range m.records {
		if rec.CompanyID == companyID && rec.EmployeeID == employeeID && rec.PayPeriod == period {
			return rec, true
		}
	}
	return Record{}, false
}

func (m *MemoryStore) CreateRecord(_ context.Context, rec Record) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.find(rec.CompanyID, rec.EmployeeID, rec.PayPeriod); exists {
		return Record{}, ErrDuplicateRecord
	}
	rec.ID = uuid.NewString()
	m.records[rec.ID] = rec
	return rec, nil
}

func (m *MemoryStore) GetRecord(_ context.Context, companyID, recordID string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[recordID]
	if !ok || rec.CompanyID != companyID {
		return Record{}, ErrRecordNotFound
	}
	return rec, nil
}

func (m *MemoryStore) ListRecords(_ context.Context, companyID, period string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Record
	for _, rec := range m.records {
		if rec.CompanyID == companyID && (period == "" || rec.PayPeriod == period) {
			out = append(out, rec)
		}
	}
	sortRecords(out)
	return out, nil
}

func (m *MemoryStore) UpdateRecord(_ context.Context, rec Record) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.records[rec.ID]
	if !ok || existing.CompanyID != rec.CompanyID {
		return Record{}, ErrRecordNotFound
	}
	m.records[rec.ID] = rec
	return rec, nil
}

func (m *MemoryStore) DeleteRecord(_ context.Context, companyID, recordID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.records[recordID]
	if !ok || existing.CompanyID != companyID {
		return ErrRecordNotFound
	}
	delete(m.records, recordID)
	return nil
}

func (m *MemoryStore) UpsertRecords(_ context.Context, companyID string, records []Record) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		rec.CompanyID = companyID
		if prior, ok := m.find(companyID, rec.EmployeeID, rec.PayPeriod); ok {
			if prior.Status == StatusPaid {
				return nil, ErrRecordPaid
			}
			rec.ID = prior.ID
			rec.CreatedAt = prior.CreatedAt
		} else {
			rec.ID = uuid.NewString()
		}
		out = append(out, rec)
	}
	for _, rec := range out {
		m.records[rec.ID] = rec
	}
	return out, nil
}

func (m *MemoryStore) CreateRecords(_ context.Context, companyID string, records []Record) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		rec.CompanyID = companyID
		if _, exists := m.find(companyID, rec.EmployeeID, rec.PayPeriod); exists {
			return nil, ErrDuplicateRecord
		}
		rec.ID = uuid.NewString()
		out = append(out, rec)
	}
	for _, rec := range out {
		m.records[rec.ID] = rec
	}
	return out, nil
}

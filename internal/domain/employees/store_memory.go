package employees

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

type MemoryStore struct {
	mu        sync.RWMutex
	employees map[string]Employee
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{employees: map[string]Employee{}}
}

func (m *MemoryStore) Create(_ context.Context, emp Employee) (Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if emp.ID == "" {
		emp.ID = uuid.NewString()
	}
	m.employees[emp.ID] = emp
	return emp, nil
}

func (m *MemoryStore) Get(_ context.Context, companyID, employeeID string) (Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	emp, ok := m.employees[employeeID]
	if !ok || emp.CompanyID != companyID {
		return Employee{}, ErrEmployeeNotFound
	}
	return emp, nil
}

func (m *MemoryStore) List(_ context.Context, companyID, status string) ([]Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Employee
	for _, emp := range m.employees {
		if emp.CompanyID == companyID && (status == "" || emp.Status == status) {
			out = append(out, emp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m *MemoryStore) Update(_ context.Context, emp Employee) (Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.employees[emp.ID]
	if !ok || existing.CompanyID != emp.CompanyID {
		return Employee{}, ErrEmployeeNotFound
	}
	m.employees[emp.ID] = emp
	return emp, nil
}

// Companies lists every company that has at least one employee. The memory
// backend has no company table, so this stands in for one.
func (m *MemoryStore) Companies(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := map[string]bool{}
	var out []string
	for _, emp := range m.employees {
		if !seen[emp.CompanyID] {
			seen[emp.CompanyID] = true
			out = append(out, emp.CompanyID)
		}
	}
	sort.Strings(out)
	return out, nil
}

package audit

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps audit events in process memory for the memory backend.
type MemoryStore struct {
	mu     sync.RWMutex
	events []Event
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (m *MemoryStore) Record(_ context.Context, evt Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	evt.ID = uuid.NewString()
	if evt.CreatedAt.IsZero() {
		evt.CreatedAt = m.now().UTC()
	}
	m.events = append(m.events, evt)
	return nil
}

func (m *MemoryStore) List(_ context.Context, companyID string, filter Filter, limit, offset int) ([]Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Event
	for i := len(m.events) - 1; i >= 0; i-- {
		evt := m.events[i]
		if evt.CompanyID != companyID {
			continue
		}
		if filter.Action != "" && evt.Action != filter.Action {
			continue
		}
		if filter.EntityType != "" && evt.EntityType != filter.EntityType {
			continue
		}
		out = append(out, evt)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return []Event{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

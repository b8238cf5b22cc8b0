package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"profitlens/internal/domain/payroll"
)

type fakeGenerator struct {
	mu      sync.Mutex
	calls   []string
	failFor string
}

func (g *fakeGenerator) GeneratePeriod(_ context.Context, companyID, period string) ([]payroll.Record, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, companyID+"/"+period)
	if companyID == g.failFor {
		return nil, errors.New("boom")
	}
	return make([]payroll.Record, len(companyID)), nil
}

type memoryRuns struct {
	mu       sync.Mutex
	started  int
	statuses []string
}

func (m *memoryRuns) Start(context.Context, string, string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started++
	return "run", nil
}

func (m *memoryRuns) Finish(_ context.Context, _ string, status string, _ any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses = append(m.statuses, status)
	return nil
}

func companies(ids ...string) CompanyLister {
	return func(context.Context) ([]string, error) { return ids, nil }
}

func TestGenerateAllRecordsEveryRun(t *testing.T) {
	gen := &fakeGenerator{}
	runs := &memoryRuns{}
	svc := New(runs, companies("c1", "c22"), gen)

	created, err := svc.GenerateAll(context.Background(), "2024-02")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"c1": 2, "c22": 3}, created)
	assert.Equal(t, []string{"c1/2024-02", "c22/2024-02"}, gen.calls)
	assert.Equal(t, 2, runs.started)
	assert.Equal(t, []string{StatusCompleted, StatusCompleted}, runs.statuses)
}

func TestGenerateAllStopsAtFailure(t *testing.T) {
	gen := &fakeGenerator{failFor: "c1"}
	runs := &memoryRuns{}
	svc := New(runs, companies("c1", "c2"), gen)

	_, err := svc.GenerateAll(context.Background(), "2024-02")
	require.Error(t, err)
	assert.Equal(t, []string{StatusFailed}, runs.statuses)
}

func TestScheduledGenerationUsesCurrentMonth(t *testing.T) {
	gen := &fakeGenerator{}
	svc := New(nil, companies("c1"), gen)
	svc.now = func() time.Time { return time.Date(2024, 7, 1, 3, 0, 0, 0, time.UTC) }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, svc.Start(ctx, ""))
	svc.EnqueueGeneration(ctx)

	require.Eventually(t, func() bool {
		gen.mu.Lock()
		defer gen.mu.Unlock()
		return len(gen.calls) == 1
	}, time.Second, 10*time.Millisecond)
	gen.mu.Lock()
	defer gen.mu.Unlock()
	assert.Equal(t, "c1/2024-07", gen.calls[0])
}

func TestStartRejectsBadSchedule(t *testing.T) {
	svc := New(nil, companies(), &fakeGenerator{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	assert.Error(t, svc.Start(ctx, "not a cron"))
}

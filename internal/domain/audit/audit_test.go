package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEventMarshalsSnapshots(t *testing.T) {
	evt, err := NewEvent("c1", "u1", ActionUpdate, "invoice", "inv-1", "req-1",
		map[string]string{"total": "10.00"}, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":"10.00"}`, string(evt.Before))
	assert.Empty(t, evt.After)
	assert.Equal(t, "c1", evt.CompanyID)
}

func TestNewEventRejectsUnmarshalable(t *testing.T) {
	_, err := NewEvent("c1", "u1", ActionCreate, "invoice", "inv-1", "", nil, make(chan int))
	assert.Error(t, err)
}

func TestLogRecorderWritesEvent(t *testing.T) {
	var buf bytes.Buffer
	rec := LogRecorder{Logger: zerolog.New(&buf)}
	evt, err := NewEvent("c1", "u1", ActionDelete, "bank_account", "acc-1", "req-9", map[string]int{"n": 1}, nil)
	require.NoError(t, err)
	require.NoError(t, rec.Record(context.Background(), evt))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "audit", line["message"])
	assert.Equal(t, "bank_account", line["entity_type"])
	assert.Nil(t, line["after"])
	assert.Equal(t, map[string]any{"n": float64(1)}, line["before"])
}

func TestMemoryStoreListsNewestFirstWithFilter(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	for _, action := range []string{ActionCreate, ActionUpdate, ActionDelete} {
		evt, err := NewEvent("c1", "u1", action, "invoice", "inv-1", "", nil, nil)
		require.NoError(t, err)
		require.NoError(t, store.Record(ctx, evt))
	}
	other, err := NewEvent("c2", "u2", ActionCreate, "invoice", "inv-2", "", nil, nil)
	require.NoError(t, err)
	require.NoError(t, store.Record(ctx, other))

	all, err := store.List(ctx, "c1", Filter{}, 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ActionDelete, all[0].Action)

	page, err := store.List(ctx, "c1", Filter{}, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, ActionUpdate, page[0].Action)

	created, err := store.List(ctx, "c1", Filter{Action: ActionCreate}, 10, 0)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.NotEmpty(t, created[0].ID)
}

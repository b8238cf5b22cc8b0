package docstore

import (
	"context"
	"fmt"
	"os"
	"testing"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emulatorClient(t *testing.T) *firestore.Client {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	client, err := Connect(context.Background(), "profitlens-test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestBatchChunksAtLimit(t *testing.T) {
	client := emulatorClient(t)
	ctx := context.Background()
	company := Company(client, uuid.NewString())

	b := NewBatch(client, 2)
	for i := 0; i < 5; i++ {
		b.Set(company.Collection("items").Doc(fmt.Sprintf("doc-%d", i)), map[string]any{"n": i})
	}
	assert.Equal(t, 5, b.Ops())
	assert.Equal(t, 3, b.Chunks())
	require.NoError(t, b.Commit(ctx))
	assert.Equal(t, 0, b.Chunks())

	refs, err := company.Collection("items").DocumentRefs(ctx).GetAll()
	require.NoError(t, err)
	assert.Len(t, refs, 5)
}

func TestBatchExactMultipleHasNoEmptyChunk(t *testing.T) {
	client := emulatorClient(t)
	b := NewBatch(client, 2)
	company := Company(client, uuid.NewString())
	b.Set(company.Collection("items").Doc("a"), map[string]any{"n": 1})
	b.Set(company.Collection("items").Doc("b"), map[string]any{"n": 2})
	assert.Equal(t, 1, b.Chunks())
}

func TestBatchCommitAggregatesErrors(t *testing.T) {
	client := emulatorClient(t)
	ctx := context.Background()
	company := Company(client, uuid.NewString())
	ref := company.Collection("items").Doc("dup")
	_, err := ref.Create(ctx, map[string]any{"n": 1})
	require.NoError(t, err)

	b := NewBatch(client, 0)
	b.Create(ref, map[string]any{"n": 2})
	err = b.Commit(ctx)
	require.Error(t, err)
	assert.True(t, IsAlreadyExists(err))
}

func TestBatchCommitStopsAtFirstFailedChunk(t *testing.T) {
	client := emulatorClient(t)
	ctx := context.Background()
	items := Company(client, uuid.NewString()).Collection("items")
	existing := items.Doc("taken")
	_, err := existing.Create(ctx, map[string]any{"n": 1})
	require.NoError(t, err)

	b := NewBatch(client, 1)
	b.Create(existing, map[string]any{"n": 2})
	b.Set(items.Doc("after"), map[string]any{"n": 3})
	require.Equal(t, 2, b.Chunks())

	err = b.Commit(ctx)
	require.Error(t, err)
	assert.True(t, IsAlreadyExists(err))

	_, err = items.Doc("after").Get(ctx)
	assert.True(t, IsNotFound(err), "chunk after the failure must not commit")
	assert.Equal(t, 0, b.Ops())
}

func TestNotFoundHelper(t *testing.T) {
	client := emulatorClient(t)
	_, err := Company(client, uuid.NewString()).Collection("items").Doc("missing").Get(context.Background())
	assert.True(t, IsNotFound(err))
}

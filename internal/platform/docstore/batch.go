package docstore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/hashicorp/go-multierror"
)

// MaxBatchOps is the Firestore limit on writes in a single commit.
const MaxBatchOps = 500

// Batch groups writes into Firestore write batches of at most limit operations.
// Writes that fit in one batch commit atomically; larger groups commit chunk by
// chunk in queue order and stop at the first failed chunk, so later writes
// never land after an earlier one was lost.
type Batch struct {
	fs      *firestore.Client
	batches []*firestore.WriteBatch
	size    int
	limit   int
	ops     int
}

func NewBatch(fs *firestore.Client, limit int) *Batch {
	if limit <= 0 || limit > MaxBatchOps {
		limit = MaxBatchOps
	}
	return &Batch{
		fs:      fs,
		batches: []*firestore.WriteBatch{fs.Batch()},
		limit:   limit,
	}
}

// Ops is the number of queued operations.
func (b *Batch) Ops() int {
	return b.ops
}

// Chunks is the number of commits Commit will issue.
func (b *Batch) Chunks() int {
	if b.ops == 0 {
		return 0
	}
	if b.size == 0 {
		return len(b.batches) - 1
	}
	return len(b.batches)
}

// Commit sends the queued chunks. The Batch is reset whatever the outcome.
func (b *Batch) Commit(ctx context.Context) error {
	var result *multierror.Error
	for i := 0; i < b.Chunks(); i++ {
		if _, err := b.batches[i].Commit(ctx); err != nil {
			result = multierror.Append(result, err)
			break
		}
	}
	b.batches = []*firestore.WriteBatch{b.fs.Batch()}
	b.size = 0
	b.ops = 0
	return result.ErrorOrNil()
}

func (b *Batch) added() *Batch {
	b.ops++
	b.size++
	if b.size >= b.limit {
		b.batches = append(b.batches, b.fs.Batch())
		b.size = 0
	}
	return b
}

func (b *Batch) current() *firestore.WriteBatch {
	return b.batches[len(b.batches)-1]
}

func (b *Batch) Create(dr *firestore.DocumentRef, data any) *Batch {
	b.current().Create(dr, data)
	return b.added()
}

func (b *Batch) Set(dr *firestore.DocumentRef, data any, opts ...firestore.SetOption) *Batch {
	b.current().Set(dr, data, opts...)
	return b.added()
}

func (b *Batch) Update(dr *firestore.DocumentRef, data []firestore.Update, opts ...firestore.Precondition) *Batch {
	b.current().Update(dr, data, opts...)
	return b.added()
}

func (b *Batch) Delete(dr *firestore.DocumentRef, opts ...firestore.Precondition) *Batch {
	b.current().Delete(dr, opts...)
	return b.added()
}

package job_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cashlens-dev/cashlens/internal/job"
)

func TestMemoryStore_PutGet(t *testing.T) {
	store := job.NewMemoryStore()
	ctx := context.Background()

	rec := job.Record{
		ID:        uuid.New(),
		Status:    job.StatusProcessing,
		UpdatedAt: time.Now().UTC(),
	}

	require.NoError(t, store.Put(ctx, rec))

	got, found, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, job.StatusProcessing, got.Status)
}

func TestMemoryStore_GetMissing(t *testing.T) {
	store := job.NewMemoryStore()

	_, found, err := store.Get(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryStore_PutOverwrites(t *testing.T) {
	store := job.NewMemoryStore()
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, store.Put(ctx, job.Record{ID: id, Status: job.StatusProcessing}))
	require.NoError(t, store.Put(ctx, job.Record{ID: id, Status: job.StatusCompleted}))

	got, found, err := store.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, job.StatusCompleted, got.Status)
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := job.NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			id := uuid.New()
			_ = store.Put(ctx, job.Record{ID: id, Status: job.StatusProcessing})
			_, _, _ = store.Get(ctx, id)
		}()
	}

	wg.Wait()
}

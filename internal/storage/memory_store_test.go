package storage

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grachmannico95/oms-bulk-import/internal/domain"
)

func TestMemoryStore_CreateJob(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	jobID := "test-job-1"
	err := store.CreateJob(ctx, jobID, domain.ImportKindOrders)
	require.NoError(t, err)

	job, err := store.GetJob(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, jobID, job.ID)
	assert.Equal(t, domain.ImportKindOrders, job.Kind)
	assert.Equal(t, domain.JobStatusProcessing, job.Status)
	assert.Equal(t, 0, job.ProcessedRows)

	err = store.CreateJob(ctx, jobID, domain.ImportKindSKUs)
	assert.ErrorIs(t, err, domain.ErrEntityAlreadyExist)
}

func TestMemoryStore_GetJob_NotFound(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.GetJob(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestMemoryStore_UpdateJobProgress_Monotonic(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.CreateJob(ctx, "job", domain.ImportKindSKUs))
	require.NoError(t, store.UpdateJobProgress(ctx, "job", 5, 10))
	require.NoError(t, store.UpdateJobProgress(ctx, "job", 3, 10))

	job, err := store.GetJob(ctx, "job")
	require.NoError(t, err)
	assert.Equal(t, 5, job.ProcessedRows)
	assert.Equal(t, 10, job.TotalRows)

	assert.ErrorIs(t, store.UpdateJobProgress(ctx, "missing", 1, 1), domain.ErrJobNotFound)
}

func TestMemoryStore_CompleteJob(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.CreateJob(ctx, "job", domain.ImportKindOrders))

	result := &domain.OrderImportResult{Success: true, TotalRows: 2}
	require.NoError(t, store.CompleteJob(ctx, "job", domain.JobStatusCompleted, result, ""))

	job, err := store.GetJob(ctx, "job")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, job.Status)
	assert.Equal(t, result, job.Result)
	assert.NotNil(t, job.CompletedAt)

	err = store.CompleteJob(ctx, "job", domain.JobStatusProcessing, nil, "")
	assert.ErrorIs(t, err, domain.ErrInvalidJobStatus)
}

func TestMemoryStore_UpdateJobProgress_DropsLateEvents(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.CreateJob(ctx, "job", domain.ImportKindOrders))
	require.NoError(t, store.UpdateJobProgress(ctx, "job", 6, 6))
	require.NoError(t, store.CompleteJob(ctx, "job", domain.JobStatusCompleted, nil, ""))

	require.NoError(t, store.UpdateJobProgress(ctx, "job", 1, 3))
	require.NoError(t, store.UpdateJobProgress(ctx, "job", 9, 9))

	job, err := store.GetJob(ctx, "job")
	require.NoError(t, err)
	assert.Equal(t, 6, job.ProcessedRows)
	assert.Equal(t, 6, job.TotalRows)
}

func TestMemoryStore_UpdateJobProgress_TotalNeverShrinks(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.CreateJob(ctx, "job", domain.ImportKindOrders))
	require.NoError(t, store.UpdateJobProgress(ctx, "job", 2, 6))
	require.NoError(t, store.UpdateJobProgress(ctx, "job", 1, 3))

	job, err := store.GetJob(ctx, "job")
	require.NoError(t, err)
	assert.Equal(t, 2, job.ProcessedRows)
	assert.Equal(t, 6, job.TotalRows)
}

func TestMemoryStore_EventIdempotency(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	processed, err := store.IsEventProcessed(ctx, "event-1")
	require.NoError(t, err)
	assert.False(t, processed)

	require.NoError(t, store.MarkEventProcessed(ctx, "event-1"))

	processed, err = store.IsEventProcessed(ctx, "event-1")
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestMemoryStore_Orders(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	res, err := store.CreateOrder(ctx, domain.OrderCreateData{OrderNo: "ORD-1", TotalAmount: 984})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.NotEmpty(t, res.ID)

	again, err := store.CreateOrder(ctx, domain.OrderCreateData{OrderNo: "ORD-1"})
	require.NoError(t, err)
	assert.False(t, again.Success)
	assert.Equal(t, "order ORD-1 already exists", again.Error)

	found, err := store.ExistingOrderNumbers(ctx, []string{"ORD-1", "ORD-2"})
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"ORD-1": {}}, found)

	order, err := store.GetOrder(ctx, "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, res.ID, order.ID)
	assert.Equal(t, 984.0, order.Order.TotalAmount)
}

func TestMemoryStore_SKULookupsCoverEveryCode(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	id := store.SeedSKU("SKU-1", "Pen")
	assert.Equal(t, id, store.SeedSKU("SKU-1", "Pen"))

	validation, err := store.ValidateSKUs(ctx, []string{"SKU-1", "SKU-9"})
	require.NoError(t, err)
	assert.Equal(t, map[string]domain.SKURef{"SKU-1": {ID: id, Name: "Pen"}}, validation.SKUMap)
	assert.Equal(t, []string{"SKU-9"}, validation.InvalidSKUs)

	existence, err := store.ExistingSKUs(ctx, []string{"SKU-9"})
	require.NoError(t, err)
	assert.False(t, existence.Exists)
	assert.Empty(t, existence.SKUMap)
}

func TestMemoryStore_UpdateSKU(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	mrp := 99.0
	_, err := store.CreateSKU(ctx, domain.SKUCreateData{Code: "SKU-1", Name: "Pen", Brand: "Acme", MRP: &mrp})
	require.NoError(t, err)

	newMRP := 120.0
	res, err := store.UpdateSKU(ctx, "SKU-1", domain.SKUUpdateData{Name: "Gel Pen", MRP: &newMRP})
	require.NoError(t, err)
	require.True(t, res.Success)

	sku, err := store.GetSKU(ctx, "SKU-1")
	require.NoError(t, err)
	assert.Equal(t, "Gel Pen", sku.SKU.Name)
	assert.Equal(t, "Acme", sku.SKU.Brand)
	assert.Equal(t, 120.0, *sku.SKU.MRP)

	missing, err := store.UpdateSKU(ctx, "SKU-9", domain.SKUUpdateData{Name: "x"})
	require.NoError(t, err)
	assert.False(t, missing.Success)
}

func TestMemoryStore_ConcurrentCreates(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := store.CreateOrder(ctx, domain.OrderCreateData{OrderNo: "ORD-RACE"})
			if err == nil && res.Success {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
}

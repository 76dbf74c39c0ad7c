package domain

import "context"

// Collaborator ports consumed by the importers. Lookups are batched (one call
// per file); creators and updaters are called once per entity.

type DuplicateChecker interface {
	// ExistingOrderNumbers returns the subset of orderNos already stored.
	ExistingOrderNumbers(ctx context.Context, orderNos []string) (map[string]struct{}, error)
}

type SKUValidator interface {
	// ValidateSKUs must place every input code either in SKUMap or in InvalidSKUs.
	ValidateSKUs(ctx context.Context, codes []string) (SKUValidation, error)
}

type SKUExistenceChecker interface {
	ExistingSKUs(ctx context.Context, codes []string) (SKUExistence, error)
}

type OrderCreator interface {
	CreateOrder(ctx context.Context, order OrderCreateData) (CreateResult, error)
}

type SKUCreator interface {
	CreateSKU(ctx context.Context, sku SKUCreateData) (CreateResult, error)
}

type SKUUpdater interface {
	UpdateSKU(ctx context.Context, code string, data SKUUpdateData) (UpdateResult, error)
}

// ProgressFunc is fire-and-forget; it is called at most once per group or row.
type ProgressFunc func(processed, total int)

type DuplicateCheckerFunc func(ctx context.Context, orderNos []string) (map[string]struct{}, error)

func (f DuplicateCheckerFunc) ExistingOrderNumbers(ctx context.Context, orderNos []string) (map[string]struct{}, error) {
	return f(ctx, orderNos)
}

type SKUValidatorFunc func(ctx context.Context, codes []string) (SKUValidation, error)

func (f SKUValidatorFunc) ValidateSKUs(ctx context.Context, codes []string) (SKUValidation, error) {
	return f(ctx, codes)
}

type SKUExistenceCheckerFunc func(ctx context.Context, codes []string) (SKUExistence, error)

func (f SKUExistenceCheckerFunc) ExistingSKUs(ctx context.Context, codes []string) (SKUExistence, error) {
	return f(ctx, codes)
}

type OrderCreatorFunc func(ctx context.Context, order OrderCreateData) (CreateResult, error)

func (f OrderCreatorFunc) CreateOrder(ctx context.Context, order OrderCreateData) (CreateResult, error) {
	return f(ctx, order)
}

type SKUCreatorFunc func(ctx context.Context, sku SKUCreateData) (CreateResult, error)

func (f SKUCreatorFunc) CreateSKU(ctx context.Context, sku SKUCreateData) (CreateResult, error) {
	return f(ctx, sku)
}

type SKUUpdaterFunc func(ctx context.Context, code string, data SKUUpdateData) (UpdateResult, error)

func (f SKUUpdaterFunc) UpdateSKU(ctx context.Context, code string, data SKUUpdateData) (UpdateResult, error) {
	return f(ctx, code, data)
}

type JobRepository interface {
	CreateJob(ctx context.Context, jobID string, kind ImportKind) error
	GetJob(ctx context.Context, jobID string) (*Job, error)
	// UpdateJobProgress is ignored once the job has left the processing status.
	UpdateJobProgress(ctx context.Context, jobID string, processed, total int) error
	CompleteJob(ctx context.Context, jobID string, status JobStatus, result interface{}, errMsg string) error

	// Idempotency tracking for progress events
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID string) error
}

// Store is a backend that serves every port and keeps job records.
type Store interface {
	DuplicateChecker
	SKUValidator
	SKUExistenceChecker
	OrderCreator
	SKUCreator
	SKUUpdater
	JobRepository
}

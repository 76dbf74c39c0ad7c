package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/grachmannico95/oms-bulk-import/internal/domain"
)

type StoredOrder struct {
	ID    string
	Order domain.OrderCreateData
}

type StoredSKU struct {
	ID  string
	SKU domain.SKUCreateData
}

// MemoryStore keeps jobs, orders and SKUs in process memory. It implements
// every importer port and the job repository.
type MemoryStore struct {
	jobs            map[string]*domain.Job
	orders          map[string]*StoredOrder
	skus            map[string]*StoredSKU
	processedEvents map[string]bool
	mu              sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs:            make(map[string]*domain.Job),
		orders:          make(map[string]*StoredOrder),
		skus:            make(map[string]*StoredSKU),
		processedEvents: make(map[string]bool),
	}
}

func (s *MemoryStore) CreateJob(ctx context.Context, jobID string, kind domain.ImportKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[jobID]; exists {
		return domain.ErrEntityAlreadyExist
	}

	s.jobs[jobID] = &domain.Job{
		ID:        jobID,
		Kind:      kind,
		Status:    domain.JobStatusProcessing,
		CreatedAt: time.Now(),
	}

	return nil
}

// GetJob returns a copy so callers never race with progress updates.
func (s *MemoryStore) GetJob(ctx context.Context, jobID string) (*domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return nil, domain.ErrJobNotFound
	}

	out := *job
	return &out, nil
}

// UpdateJobProgress never moves either count backwards, since progress events
// may be delivered out of order. Events for a finished job are dropped.
func (s *MemoryStore) UpdateJobProgress(ctx context.Context, jobID string, processed, total int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return domain.ErrJobNotFound
	}

	if job.Status != domain.JobStatusProcessing {
		return nil
	}

	if processed > job.ProcessedRows {
		job.ProcessedRows = processed
	}
	if total > job.TotalRows {
		job.TotalRows = total
	}

	return nil
}

func (s *MemoryStore) CompleteJob(ctx context.Context, jobID string, status domain.JobStatus, result interface{}, errMsg string) error {
	if status != domain.JobStatusCompleted && status != domain.JobStatusFailed {
		return fmt.Errorf("%w: %s", domain.ErrInvalidJobStatus, status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return domain.ErrJobNotFound
	}

	now := time.Now()
	job.Status = status
	job.Result = result
	job.Error = errMsg
	job.CompletedAt = &now

	return nil
}

func (s *MemoryStore) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.processedEvents[eventID], nil
}

func (s *MemoryStore) MarkEventProcessed(ctx context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.processedEvents[eventID] = true

	return nil
}

func (s *MemoryStore) ExistingOrderNumbers(ctx context.Context, orderNos []string) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	found := make(map[string]struct{})
	for _, orderNo := range orderNos {
		if _, exists := s.orders[orderNo]; exists {
			found[orderNo] = struct{}{}
		}
	}

	return found, nil
}

func (s *MemoryStore) ValidateSKUs(ctx context.Context, codes []string) (domain.SKUValidation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := domain.SKUValidation{
		SKUMap:      make(map[string]domain.SKURef),
		InvalidSKUs: []string{},
	}
	for _, code := range codes {
		sku, exists := s.skus[code]
		if !exists {
			res.InvalidSKUs = append(res.InvalidSKUs, code)
			continue
		}
		res.SKUMap[code] = domain.SKURef{ID: sku.ID, Name: sku.SKU.Name}
	}

	return res, nil
}

func (s *MemoryStore) ExistingSKUs(ctx context.Context, codes []string) (domain.SKUExistence, error) {
	validation, err := s.ValidateSKUs(ctx, codes)
	if err != nil {
		return domain.SKUExistence{}, err
	}

	return domain.SKUExistence{
		Exists: len(validation.SKUMap) > 0,
		SKUMap: validation.SKUMap,
	}, nil
}

func (s *MemoryStore) CreateOrder(ctx context.Context, order domain.OrderCreateData) (domain.CreateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[order.OrderNo]; exists {
		return domain.CreateResult{Success: false, Error: fmt.Sprintf("order %s already exists", order.OrderNo)}, nil
	}

	id := uuid.New().String()
	s.orders[order.OrderNo] = &StoredOrder{ID: id, Order: order}

	return domain.CreateResult{Success: true, ID: id}, nil
}

func (s *MemoryStore) CreateSKU(ctx context.Context, sku domain.SKUCreateData) (domain.CreateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.skus[sku.Code]; exists {
		return domain.CreateResult{Success: false, Error: fmt.Sprintf("SKU %s already exists", sku.Code)}, nil
	}

	id := uuid.New().String()
	s.skus[sku.Code] = &StoredSKU{ID: id, SKU: sku}

	return domain.CreateResult{Success: true, ID: id}, nil
}

// UpdateSKU overwrites only the fields present in data.
func (s *MemoryStore) UpdateSKU(ctx context.Context, code string, data domain.SKUUpdateData) (domain.UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.skus[code]
	if !exists {
		return domain.UpdateResult{Success: false, Error: fmt.Sprintf("SKU %s not found", code)}, nil
	}

	sku := &stored.SKU
	setString(&sku.Name, data.Name)
	setString(&sku.Description, data.Description)
	setString(&sku.Category, data.Category)
	setString(&sku.SubCategory, data.SubCategory)
	setString(&sku.Brand, data.Brand)
	setString(&sku.HSN, data.HSN)
	setString(&sku.Barcode, data.Barcode)
	setPtr(&sku.Weight, data.Weight)
	setPtr(&sku.Length, data.Length)
	setPtr(&sku.Width, data.Width)
	setPtr(&sku.Height, data.Height)
	setPtr(&sku.MRP, data.MRP)
	setPtr(&sku.CostPrice, data.CostPrice)
	setPtr(&sku.SellingPrice, data.SellingPrice)
	setPtr(&sku.TaxRate, data.TaxRate)
	setPtr(&sku.ReorderLevel, data.ReorderLevel)
	setPtr(&sku.ReorderQty, data.ReorderQty)

	return domain.UpdateResult{Success: true}, nil
}

// SeedSKU stores a minimal SKU and returns its id.
func (s *MemoryStore) SeedSKU(code, name string) string {
	res, _ := s.CreateSKU(context.Background(), domain.SKUCreateData{Code: code, Name: name})
	if !res.Success {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return s.skus[code].ID
	}
	return res.ID
}

func (s *MemoryStore) GetOrder(ctx context.Context, orderNo string) (*StoredOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, exists := s.orders[orderNo]
	if !exists {
		return nil, domain.ErrEntityNotFound
	}

	out := *order
	return &out, nil
}

func (s *MemoryStore) GetSKU(ctx context.Context, code string) (*StoredSKU, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sku, exists := s.skus[code]
	if !exists {
		return nil, domain.ErrEntityNotFound
	}

	out := *sku
	return &out, nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setPtr[T any](dst **T, v *T) {
	if v != nil {
		*dst = v
	}
}

package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/grachmannico95/oms-bulk-import/internal/domain"
	"github.com/grachmannico95/oms-bulk-import/internal/eventbus"
	"github.com/grachmannico95/oms-bulk-import/internal/importer"
	"github.com/grachmannico95/oms-bulk-import/internal/metrics"
	"github.com/grachmannico95/oms-bulk-import/pkg/logger"
)

type ImportService interface {
	Import(ctx context.Context, kind domain.ImportKind, format domain.FileFormat, reader io.Reader) (*domain.Job, error)
	ImportOrders(ctx context.Context, reader io.Reader) (*domain.Job, error)
	ImportSKUs(ctx context.Context, reader io.Reader) (*domain.Job, error)
	GetJob(ctx context.Context, jobID string) (*domain.Job, error)
}

type importService struct {
	store     domain.Store
	eventBus  eventbus.EventBus
	orderOpts importer.OrderOptions
	skuOpts   importer.SKUOptions
	logger    *logger.Logger
}

func NewImportService(store domain.Store, eventBus eventbus.EventBus, orderOpts importer.OrderOptions, skuOpts importer.SKUOptions, log *logger.Logger) ImportService {
	return &importService{
		store:     store,
		eventBus:  eventBus,
		orderOpts: orderOpts,
		skuOpts:   skuOpts,
		logger:    log,
	}
}

// outcome is what a finished importer reports back to the job record.
type outcome struct {
	result        interface{}
	totalRows     int
	processedRows int
	created       int
	updated       int
	skipped       int
	failed        int
}

type runFunc func(ctx context.Context, progress domain.ProgressFunc) (*outcome, error)

// Import runs one import of the given kind to completion. The returned job
// carries the result; a non-nil error means the job failed as a whole.
func (s *importService) Import(ctx context.Context, kind domain.ImportKind, format domain.FileFormat, reader io.Reader) (*domain.Job, error) {
	if format != domain.FileFormatCSV && format != domain.FileFormatXLSX {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownFileFormat, format)
	}

	switch kind {
	case domain.ImportKindOrders:
		return s.importOrders(ctx, format, reader)
	case domain.ImportKindSKUs:
		return s.importSKUs(ctx, format, reader)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownImportKind, kind)
	}
}

func (s *importService) ImportOrders(ctx context.Context, reader io.Reader) (*domain.Job, error) {
	return s.importOrders(ctx, domain.FileFormatCSV, reader)
}

func (s *importService) ImportSKUs(ctx context.Context, reader io.Reader) (*domain.Job, error) {
	return s.importSKUs(ctx, domain.FileFormatCSV, reader)
}

func (s *importService) importOrders(ctx context.Context, format domain.FileFormat, reader io.Reader) (*domain.Job, error) {
	return s.run(ctx, domain.ImportKindOrders, func(ctx context.Context, progress domain.ProgressFunc) (*outcome, error) {
		opts := s.orderOpts
		opts.RowProgress = progress

		imp := importer.NewOrderImporter(importer.OrderPorts{
			Duplicates: s.store,
			SKUs:       s.store,
			Creator:    s.store,
		}, opts, s.logger)

		var (
			res *domain.OrderImportResult
			err error
		)
		if format == domain.FileFormatXLSX {
			res, err = imp.ImportXLSX(ctx, reader)
		} else {
			res, err = imp.Import(ctx, reader)
		}
		if res == nil {
			return nil, err
		}
		return &outcome{
			result:        res,
			totalRows:     res.TotalRows,
			processedRows: res.ProcessedRows,
			created:       res.SuccessCount,
			skipped:       res.SkippedCount,
			failed:        res.ErrorCount,
		}, err
	})
}

func (s *importService) importSKUs(ctx context.Context, format domain.FileFormat, reader io.Reader) (*domain.Job, error) {
	return s.run(ctx, domain.ImportKindSKUs, func(ctx context.Context, progress domain.ProgressFunc) (*outcome, error) {
		opts := s.skuOpts
		opts.RowProgress = progress

		imp := importer.NewSKUImporter(importer.SKUPorts{
			Existence: s.store,
			Creator:   s.store,
			Updater:   s.store,
		}, opts, s.logger)

		var (
			res *domain.SKUImportResult
			err error
		)
		if format == domain.FileFormatXLSX {
			res, err = imp.ImportXLSX(ctx, reader)
		} else {
			res, err = imp.Import(ctx, reader)
		}
		if res == nil {
			return nil, err
		}
		return &outcome{
			result:        res,
			totalRows:     res.TotalRows,
			processedRows: res.ProcessedRows,
			created:       len(res.CreatedSKUs),
			updated:       len(res.UpdatedSKUs),
			skipped:       res.SkippedCount,
			failed:        res.ErrorCount,
		}, err
	})
}

func (s *importService) run(ctx context.Context, kind domain.ImportKind, fn runFunc) (*domain.Job, error) {
	jobID := uuid.New().String()
	ctx = logger.WithJobID(ctx, jobID)

	s.logger.Info(ctx, "Creating import job", "kind", kind)

	if err := s.store.CreateJob(ctx, jobID, kind); err != nil {
		s.logger.Error(ctx, "Failed to create job",
			"error", err,
		)
		return nil, err
	}

	metrics.JobStarted()
	defer metrics.JobFinished()
	start := time.Now()

	progress := func(processed, total int) {
		if err := s.eventBus.Publish(ctx, eventbus.NewProgressEvent(jobID, processed, total)); err != nil {
			s.logger.Warn(ctx, "Failed to publish progress", "error", err)
		}
	}

	out, runErr := fn(ctx, progress)

	status := domain.JobStatusCompleted
	errMsg := ""
	if runErr != nil {
		status = domain.JobStatusFailed
		errMsg = runErr.Error()
		s.logger.Error(ctx, "Import job failed", "error", runErr)
	}

	// the job record must be closed even when the caller's ctx has ended
	saveCtx := context.WithoutCancel(ctx)

	var result interface{}
	if out != nil {
		result = out.result
		metrics.RecordRows(string(kind), out.totalRows)
		metrics.RecordEntities(string(kind), out.created, out.updated, out.skipped, out.failed)

		if err := s.store.UpdateJobProgress(saveCtx, jobID, out.processedRows, out.totalRows); err != nil {
			s.logger.Warn(ctx, "Failed to record final progress", "error", err)
		}
	}
	metrics.RecordImport(string(kind), string(status), time.Since(start))

	if err := s.store.CompleteJob(saveCtx, jobID, status, result, errMsg); err != nil {
		s.logger.Error(ctx, "Failed to complete job",
			"error", err,
		)
		return nil, err
	}

	job, err := s.store.GetJob(saveCtx, jobID)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "Import job finished",
		"status", status,
		"duration", time.Since(start).String(),
	)

	return job, runErr
}

func (s *importService) GetJob(ctx context.Context, jobID string) (*domain.Job, error) {
	ctx = logger.WithJobID(ctx, jobID)

	s.logger.Debug(ctx, "Getting job")

	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		s.logger.Error(ctx, "Failed to get job",
			"error", err,
		)
		return nil, err
	}

	return job, nil
}

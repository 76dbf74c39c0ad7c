package eventbus

import (
	"context"
	"fmt"

	"github.com/grachmannico95/oms-bulk-import/internal/domain"
	"github.com/grachmannico95/oms-bulk-import/pkg/logger"
)

// ProgressConsumer applies progress events to the job record.
type ProgressConsumer struct {
	repo        domain.JobRepository
	logger      *logger.Logger
	workerCount int
}

func NewProgressConsumer(repo domain.JobRepository, log *logger.Logger, workerCount int) *ProgressConsumer {
	return &ProgressConsumer{
		repo:        repo,
		logger:      log,
		workerCount: workerCount,
	}
}

func (pc *ProgressConsumer) Consume(ctx context.Context, event Event) error {
	// Check idempotency
	processed, err := pc.repo.IsEventProcessed(ctx, event.ID)
	if err != nil {
		pc.logger.Error(ctx, "Failed to check event processed status",
			"event_id", event.ID,
			"error", err,
		)
		return err
	}

	if processed {
		pc.logger.Debug(ctx, "Event already processed, skipping",
			"event_id", event.ID,
		)
		return nil
	}

	payload, ok := event.Payload.(ProgressEvent)
	if !ok {
		pc.logger.Error(ctx, "Invalid payload type for progress event",
			"event_id", event.ID,
		)
		return fmt.Errorf("invalid payload type %T", event.Payload)
	}

	ctx = logger.WithJobID(ctx, payload.JobID)

	err = pc.repo.UpdateJobProgress(ctx, payload.JobID, payload.Processed, payload.Total)
	if err != nil {
		pc.logger.Error(ctx, "Failed to update job progress",
			"event_id", event.ID,
			"error", err,
		)
		return err
	}

	err = pc.repo.MarkEventProcessed(ctx, event.ID)
	if err != nil {
		pc.logger.Error(ctx, "Failed to mark event as processed",
			"event_id", event.ID,
			"error", err,
		)
		return err
	}

	pc.logger.Debug(ctx, "Job progress updated",
		"processed", payload.Processed,
		"total", payload.Total,
	)

	return nil
}

func (pc *ProgressConsumer) GetWorkerCount() int {
	return pc.workerCount
}

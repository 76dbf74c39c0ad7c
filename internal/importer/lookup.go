package importer

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/grachmannico95/oms-bulk-import/internal/csvparse"
	"github.com/grachmannico95/oms-bulk-import/internal/domain"
	"github.com/grachmannico95/oms-bulk-import/internal/metrics"
	"github.com/grachmannico95/oms-bulk-import/pkg/retry"
)

const DefaultLookupChunkSize = 500

// Settings shared by both importers.
type Settings struct {
	Parse csvparse.Options
	// LookupChunkSize bounds the number of keys sent in one lookup call.
	LookupChunkSize int
	// Retry applies to read-only lookups only. Mutations are never retried.
	Retry []retry.Option
	// Limiter throttles create/update calls when set.
	Limiter *rate.Limiter
	// Progress counts orders for the order importer and rows for the SKU importer.
	Progress domain.ProgressFunc
	// RowProgress always reports (processedRows, totalRows), matching the result counters.
	RowProgress domain.ProgressFunc
}

func DefaultSettings() Settings {
	return Settings{
		Parse:           csvparse.DefaultOptions(),
		LookupChunkSize: DefaultLookupChunkSize,
		Retry: []retry.Option{
			retry.WithMaxAttempts(3),
			retry.WithBaseDelay(200 * time.Millisecond),
			retry.WithMaxDelay(2 * time.Second),
		},
	}
}

func (s Settings) chunkSize() int {
	if s.LookupChunkSize <= 0 {
		return DefaultLookupChunkSize
	}
	return s.LookupChunkSize
}

func (s Settings) report(processed, total int) {
	if s.Progress != nil {
		s.Progress(processed, total)
	}
}

func (s Settings) reportRows(processed, total int) {
	if s.RowProgress != nil {
		s.RowProgress(processed, total)
	}
}

func (s Settings) wait(ctx context.Context) error {
	if s.Limiter == nil {
		return nil
	}
	return s.Limiter.Wait(ctx)
}

func chunk(keys []string, size int) [][]string {
	var chunks [][]string
	for start := 0; start < len(keys); start += size {
		end := start + size
		if end > len(keys) {
			end = len(keys)
		}
		chunks = append(chunks, keys[start:end])
	}
	return chunks
}

// batchLookup runs fn once per chunk of keys, retrying each chunk on error.
func batchLookup(ctx context.Context, name string, keys []string, s Settings, fn func(ctx context.Context, keys []string) error) error {
	for _, part := range chunk(keys, s.chunkSize()) {
		err := retry.Do(ctx, func() error {
			start := time.Now()
			err := fn(ctx, part)
			metrics.RecordLookup(name, time.Since(start), err)
			return err
		}, s.Retry...)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", domain.ErrLookupFailed, name, err)
		}
	}
	return nil
}

func toImportErrors(errs []csvparse.RowError) []domain.ImportError {
	out := make([]domain.ImportError, 0, len(errs))
	for _, e := range errs {
		out = append(out, domain.ImportError{Row: e.Row, Field: e.Field, Message: e.Message})
	}
	return out
}

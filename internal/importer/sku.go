package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/grachmannico95/oms-bulk-import/internal/csvparse"
	"github.com/grachmannico95/oms-bulk-import/internal/domain"
	"github.com/grachmannico95/oms-bulk-import/pkg/logger"
)

type SKUOptions struct {
	Settings
	// UpdateExisting overwrites stored SKUs with the file's values.
	UpdateExisting bool
	// SkipDuplicates reports stored SKUs as skipped. Stored SKUs are also
	// skipped when neither flag is set.
	SkipDuplicates bool
}

func DefaultSKUOptions() SKUOptions {
	return SKUOptions{
		Settings:       DefaultSettings(),
		SkipDuplicates: true,
	}
}

// SKUPorts are the collaborators of a SKU import. Existence may be nil, in
// which case every row is created; Updater is only needed with UpdateExisting.
type SKUPorts struct {
	Existence domain.SKUExistenceChecker
	Creator   domain.SKUCreator
	Updater   domain.SKUUpdater
}

type SKUImporter struct {
	ports  SKUPorts
	opts   SKUOptions
	schema *csvparse.Schema[domain.SKUCSVRow]
	logger *logger.Logger
}

func NewSKUImporter(ports SKUPorts, opts SKUOptions, log *logger.Logger) *SKUImporter {
	return &SKUImporter{
		ports:  ports,
		opts:   opts,
		schema: SKUSchema(),
		logger: log,
	}
}

var errUpdatesDisabled = errors.New("SKU updates are not configured")

// Import parses r and creates, updates or skips one SKU per row.
func (i *SKUImporter) Import(ctx context.Context, r io.Reader) (*domain.SKUImportResult, error) {
	parsed := csvparse.Parse(ctx, r, i.schema, i.opts.Parse)
	return i.ImportParsed(ctx, parsed)
}

func (i *SKUImporter) ImportXLSX(ctx context.Context, r io.Reader) (*domain.SKUImportResult, error) {
	parsed := csvparse.ParseXLSX(ctx, r, i.schema, i.opts.Parse)
	return i.ImportParsed(ctx, parsed)
}

func (i *SKUImporter) ImportParsed(ctx context.Context, parsed *csvparse.ParseResult[domain.SKUCSVRow]) (*domain.SKUImportResult, error) {
	result := &domain.SKUImportResult{
		TotalRows:   parsed.TotalRows,
		Errors:      toImportErrors(parsed.Errors),
		CreatedSKUs: []domain.CreatedSKU{},
		UpdatedSKUs: []string{},
		SkippedSKUs: []string{},
	}

	if parsed.Aborted {
		i.logger.Warn(ctx, "SKU file rejected",
			"error", parsed.Errors[0].Message,
			"line", parsed.Errors[0].Row,
		)
		result.ErrorCount = len(parsed.Errors)
		return result, nil
	}

	result.ErrorCount = parsed.ErrorRows
	result.ProcessedRows = parsed.ErrorRows

	i.logger.Info(ctx, "Starting SKU import",
		"total_rows", parsed.TotalRows,
		"valid_rows", parsed.ValidRows,
		"update_existing", i.opts.UpdateExisting,
	)

	// a code first seen on a row that failed validation still claims that row
	firstSeen := make(map[string]int)
	for _, e := range parsed.Errors {
		code := strings.TrimSpace(e.RawData["code"])
		if line, ok := firstSeen[code]; code != "" && (!ok || e.Row < line) {
			firstSeen[code] = e.Row
		}
	}

	var codes []string
	for _, row := range parsed.Data {
		code := row.Value.Code
		if line, ok := firstSeen[code]; !ok || row.Line < line {
			firstSeen[code] = row.Line
			codes = append(codes, code)
		}
	}

	existing, err := i.existingSKUs(ctx, codes)
	if err != nil {
		i.logger.Error(ctx, "SKU existence precheck failed", "error", err)
		return nil, err
	}

	for n, row := range parsed.Data {
		if err := ctx.Err(); err != nil {
			result.Success = result.ErrorCount == 0
			return result, err
		}

		if err := i.processRow(ctx, row, firstSeen, existing, result); err != nil {
			result.Success = result.ErrorCount == 0
			return result, err
		}

		result.ProcessedRows++
		i.opts.report(n+1, len(parsed.Data))
		i.opts.reportRows(result.ProcessedRows, result.TotalRows)
	}

	result.Success = result.ErrorCount == 0

	i.logger.Info(ctx, "SKU import finished",
		"created", len(result.CreatedSKUs),
		"updated", len(result.UpdatedSKUs),
		"skipped", result.SkippedCount,
		"errors", result.ErrorCount,
	)

	return result, nil
}

func (i *SKUImporter) processRow(
	ctx context.Context,
	row csvparse.ParsedRow[domain.SKUCSVRow],
	firstSeen map[string]int,
	existing map[string]domain.SKURef,
	result *domain.SKUImportResult,
) error {
	code := row.Value.Code

	if first := firstSeen[code]; first != row.Line {
		result.Errors = append(result.Errors, domain.ImportError{
			Row:     row.Line,
			Field:   "code",
			Key:     code,
			Message: fmt.Sprintf("duplicate code in file, first seen on row %d", first),
		})
		result.ErrorCount++
		return nil
	}

	if _, ok := existing[code]; ok {
		if !i.opts.UpdateExisting {
			i.logger.Debug(ctx, "SKU already exists, skipping",
				"code", code,
				"skip_duplicates", i.opts.SkipDuplicates,
			)
			result.SkippedSKUs = append(result.SkippedSKUs, code)
			result.SkippedCount++
			return nil
		}

		if err := i.opts.wait(ctx); err != nil {
			return err
		}
		if err := i.update(ctx, code, row.Value); err != nil {
			i.recordFailure(ctx, row, err, result)
			return nil
		}

		result.UpdatedSKUs = append(result.UpdatedSKUs, code)
		result.SuccessCount++
		return nil
	}

	if err := i.opts.wait(ctx); err != nil {
		return err
	}

	created, err := i.ports.Creator.CreateSKU(ctx, domain.SKUCreateData(row.Value))
	if err == nil && !created.Success {
		err = errors.New(orDefault(created.Error, "SKU was not created"))
	}
	if err != nil {
		i.recordFailure(ctx, row, err, result)
		return nil
	}

	result.CreatedSKUs = append(result.CreatedSKUs, domain.CreatedSKU{
		Code:  code,
		SKUID: created.ID,
		Row:   row.Line,
	})
	result.SuccessCount++
	return nil
}

func (i *SKUImporter) update(ctx context.Context, code string, row domain.SKUCSVRow) error {
	if i.ports.Updater == nil {
		return errUpdatesDisabled
	}

	res, err := i.ports.Updater.UpdateSKU(ctx, code, toUpdateData(row))
	if err != nil {
		return err
	}
	if !res.Success {
		return errors.New(orDefault(res.Error, "SKU was not updated"))
	}
	return nil
}

func (i *SKUImporter) recordFailure(ctx context.Context, row csvparse.ParsedRow[domain.SKUCSVRow], err error, result *domain.SKUImportResult) {
	i.logger.Warn(ctx, "Failed to save SKU",
		"code", row.Value.Code,
		"line", row.Line,
		"error", err,
	)
	result.Errors = append(result.Errors, domain.ImportError{
		Row:     row.Line,
		Key:     row.Value.Code,
		Message: err.Error(),
	})
	result.ErrorCount++
}

func (i *SKUImporter) existingSKUs(ctx context.Context, codes []string) (map[string]domain.SKURef, error) {
	existing := make(map[string]domain.SKURef)
	if i.ports.Existence == nil || len(codes) == 0 {
		return existing, nil
	}

	err := batchLookup(ctx, "sku_existence", codes, i.opts.Settings, func(ctx context.Context, keys []string) error {
		res, err := i.ports.Existence.ExistingSKUs(ctx, keys)
		if err != nil {
			return err
		}
		for code, ref := range res.SKUMap {
			existing[code] = ref
		}
		return nil
	})
	return existing, err
}

func toUpdateData(row domain.SKUCSVRow) domain.SKUUpdateData {
	return domain.SKUUpdateData{
		Name:         row.Name,
		Description:  row.Description,
		Category:     row.Category,
		SubCategory:  row.SubCategory,
		Brand:        row.Brand,
		HSN:          row.HSN,
		Weight:       row.Weight,
		Length:       row.Length,
		Width:        row.Width,
		Height:       row.Height,
		MRP:          row.MRP,
		CostPrice:    row.CostPrice,
		SellingPrice: row.SellingPrice,
		TaxRate:      row.TaxRate,
		Barcode:      row.Barcode,
		ReorderLevel: row.ReorderLevel,
		ReorderQty:   row.ReorderQty,
	}
}

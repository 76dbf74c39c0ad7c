package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/grachmannico95/oms-bulk-import/internal/csvparse"
	"github.com/grachmannico95/oms-bulk-import/internal/domain"
	"github.com/grachmannico95/oms-bulk-import/pkg/logger"
)

type OrderOptions struct {
	Settings
	CheckDuplicates bool
	ValidateSKUs    bool
}

func DefaultOrderOptions() OrderOptions {
	return OrderOptions{
		Settings:        DefaultSettings(),
		CheckDuplicates: true,
		ValidateSKUs:    true,
	}
}

// OrderPorts are the collaborators of an order import. Duplicates and SKUs
// may be nil, which disables the matching precheck.
type OrderPorts struct {
	Duplicates domain.DuplicateChecker
	SKUs       domain.SKUValidator
	Creator    domain.OrderCreator
}

type OrderImporter struct {
	ports  OrderPorts
	opts   OrderOptions
	schema *csvparse.Schema[domain.OrderCSVRow]
	logger *logger.Logger
}

func NewOrderImporter(ports OrderPorts, opts OrderOptions, log *logger.Logger) *OrderImporter {
	return &OrderImporter{
		ports:  ports,
		opts:   opts,
		schema: OrderSchema(),
		logger: log,
	}
}

// orderGroup is every valid line sharing one order_no, in file order.
type orderGroup struct {
	orderNo string
	rows    []csvparse.ParsedRow[domain.OrderCSVRow]
}

func (g *orderGroup) firstLine() int {
	return g.rows[0].Line
}

// Import parses r and creates one order per distinct order_no. It returns an
// error only when a batched lookup fails or ctx ends; every row or order level
// failure is reported in the result.
func (i *OrderImporter) Import(ctx context.Context, r io.Reader) (*domain.OrderImportResult, error) {
	parsed := csvparse.Parse(ctx, r, i.schema, i.opts.Parse)
	return i.ImportParsed(ctx, parsed)
}

// ImportXLSX reads the first sheet of an .xlsx workbook instead of CSV text.
func (i *OrderImporter) ImportXLSX(ctx context.Context, r io.Reader) (*domain.OrderImportResult, error) {
	parsed := csvparse.ParseXLSX(ctx, r, i.schema, i.opts.Parse)
	return i.ImportParsed(ctx, parsed)
}

func (i *OrderImporter) ImportParsed(ctx context.Context, parsed *csvparse.ParseResult[domain.OrderCSVRow]) (*domain.OrderImportResult, error) {
	result := &domain.OrderImportResult{
		TotalRows:     parsed.TotalRows,
		Errors:        toImportErrors(parsed.Errors),
		CreatedOrders: []domain.CreatedOrder{},
		SkippedOrders: []string{},
	}

	if parsed.Aborted {
		i.logger.Warn(ctx, "Order file rejected",
			"error", parsed.Errors[0].Message,
			"line", parsed.Errors[0].Row,
		)
		result.ErrorCount = len(parsed.Errors)
		return result, nil
	}

	result.ErrorCount = parsed.ErrorRows
	result.ProcessedRows = parsed.ErrorRows

	groups := groupOrders(parsed.Data)
	rejected := rejectedOrderNumbers(parsed.Errors)

	i.logger.Info(ctx, "Starting order import",
		"total_rows", parsed.TotalRows,
		"valid_rows", parsed.ValidRows,
		"orders", len(groups),
	)

	existing, err := i.existingOrders(ctx, groups)
	if err != nil {
		i.logger.Error(ctx, "Duplicate precheck failed", "error", err)
		return nil, err
	}

	skuMap, invalid, err := i.validateSKUs(ctx, parsed.Data)
	if err != nil {
		i.logger.Error(ctx, "SKU precheck failed", "error", err)
		return nil, err
	}

	for n, group := range groups {
		if err := ctx.Err(); err != nil {
			i.finish(result)
			return result, err
		}

		if err := i.processGroup(ctx, group, rejected, existing, skuMap, invalid, result); err != nil {
			i.finish(result)
			return result, err
		}

		result.ProcessedRows += len(group.rows)
		i.opts.report(n+1, len(groups))
		i.opts.reportRows(result.ProcessedRows, result.TotalRows)
	}

	i.finish(result)

	i.logger.Info(ctx, "Order import finished",
		"created", result.SuccessCount,
		"skipped", result.SkippedCount,
		"errors", result.ErrorCount,
	)

	return result, nil
}

func (i *OrderImporter) finish(result *domain.OrderImportResult) {
	result.Success = result.ErrorCount == 0
}

// processGroup routes one group into exactly one of created, skipped or errors.
// The only error it returns is ctx ending while waiting on the limiter.
func (i *OrderImporter) processGroup(
	ctx context.Context,
	group *orderGroup,
	rejected map[string]struct{},
	existing map[string]struct{},
	skuMap map[string]domain.SKURef,
	invalid map[string]struct{},
	result *domain.OrderImportResult,
) error {
	if _, ok := rejected[group.orderNo]; ok {
		i.logger.Debug(ctx, "Order has invalid lines", "order_no", group.orderNo)
		result.Errors = append(result.Errors, domain.ImportError{
			Row:     group.firstLine(),
			Key:     group.orderNo,
			Message: "order has rows that failed validation",
		})
		result.Errors = append(result.Errors, invalidSKURows(group, invalid)...)
		result.ErrorCount++
		return nil
	}

	if _, ok := existing[group.orderNo]; ok {
		i.logger.Debug(ctx, "Order already exists, skipping", "order_no", group.orderNo)
		result.SkippedOrders = append(result.SkippedOrders, group.orderNo)
		result.SkippedCount++
		return nil
	}

	if bad := invalidSKURows(group, invalid); len(bad) > 0 {
		i.logger.Debug(ctx, "Order references unknown SKUs", "order_no", group.orderNo, "rows", len(bad))
		result.Errors = append(result.Errors, bad...)
		result.ErrorCount++
		return nil
	}

	order := convertOrder(group, skuMap)
	if len(order.Items) == 0 {
		result.Errors = append(result.Errors, domain.ImportError{
			Row:     group.firstLine(),
			Key:     group.orderNo,
			Message: "order has no valid items",
		})
		result.ErrorCount++
		return nil
	}

	if err := i.opts.wait(ctx); err != nil {
		return err
	}

	created, err := i.ports.Creator.CreateOrder(ctx, order)
	if err == nil && !created.Success {
		err = errors.New(orDefault(created.Error, "order was not created"))
	}
	if err != nil {
		i.logger.Warn(ctx, "Failed to create order",
			"order_no", group.orderNo,
			"error", err,
		)
		result.Errors = append(result.Errors, domain.ImportError{
			Row:     group.firstLine(),
			Key:     group.orderNo,
			Message: err.Error(),
		})
		result.ErrorCount++
		return nil
	}

	result.CreatedOrders = append(result.CreatedOrders, domain.CreatedOrder{
		OrderNo: group.orderNo,
		OrderID: created.ID,
		Row:     group.firstLine(),
	})
	result.SuccessCount++
	return nil
}

func (i *OrderImporter) existingOrders(ctx context.Context, groups []*orderGroup) (map[string]struct{}, error) {
	existing := make(map[string]struct{})
	if !i.opts.CheckDuplicates || i.ports.Duplicates == nil || len(groups) == 0 {
		return existing, nil
	}

	orderNos := make([]string, len(groups))
	for n, g := range groups {
		orderNos[n] = g.orderNo
	}

	err := batchLookup(ctx, "duplicate_orders", orderNos, i.opts.Settings, func(ctx context.Context, keys []string) error {
		found, err := i.ports.Duplicates.ExistingOrderNumbers(ctx, keys)
		if err != nil {
			return err
		}
		for orderNo := range found {
			existing[orderNo] = struct{}{}
		}
		return nil
	})
	return existing, err
}

// validateSKUs resolves every distinct sku_code in the file. A code the
// validator places in neither list is treated as invalid.
func (i *OrderImporter) validateSKUs(ctx context.Context, rows []csvparse.ParsedRow[domain.OrderCSVRow]) (map[string]domain.SKURef, map[string]struct{}, error) {
	skuMap := make(map[string]domain.SKURef)
	invalid := make(map[string]struct{})
	if !i.opts.ValidateSKUs || i.ports.SKUs == nil || len(rows) == 0 {
		return skuMap, invalid, nil
	}

	codes := distinctSKUCodes(rows)
	err := batchLookup(ctx, "sku_validation", codes, i.opts.Settings, func(ctx context.Context, keys []string) error {
		res, err := i.ports.SKUs.ValidateSKUs(ctx, keys)
		if err != nil {
			return err
		}
		for code, ref := range res.SKUMap {
			skuMap[code] = ref
		}
		for _, code := range res.InvalidSKUs {
			invalid[code] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	for _, code := range codes {
		_, known := skuMap[code]
		_, bad := invalid[code]
		if !known && !bad {
			i.logger.Warn(ctx, "SKU validator did not report code", "sku_code", code)
			invalid[code] = struct{}{}
		}
	}

	return skuMap, invalid, nil
}

func groupOrders(rows []csvparse.ParsedRow[domain.OrderCSVRow]) []*orderGroup {
	index := make(map[string]*orderGroup)
	var groups []*orderGroup

	for _, row := range rows {
		g, ok := index[row.Value.OrderNo]
		if !ok {
			g = &orderGroup{orderNo: row.Value.OrderNo}
			index[row.Value.OrderNo] = g
			groups = append(groups, g)
		}
		g.rows = append(g.rows, row)
	}

	return groups
}

// rejectedOrderNumbers collects the order_no of every line that failed
// validation, so the remaining lines of that order are not created alone.
func rejectedOrderNumbers(errs []csvparse.RowError) map[string]struct{} {
	rejected := make(map[string]struct{})
	for _, e := range errs {
		if orderNo := strings.TrimSpace(e.RawData["order_no"]); orderNo != "" {
			rejected[orderNo] = struct{}{}
		}
	}
	return rejected
}

func distinctSKUCodes(rows []csvparse.ParsedRow[domain.OrderCSVRow]) []string {
	seen := make(map[string]struct{})
	var codes []string
	for _, row := range rows {
		if _, ok := seen[row.Value.SKUCode]; ok {
			continue
		}
		seen[row.Value.SKUCode] = struct{}{}
		codes = append(codes, row.Value.SKUCode)
	}
	return codes
}

func invalidSKURows(group *orderGroup, invalid map[string]struct{}) []domain.ImportError {
	var errs []domain.ImportError
	for _, row := range group.rows {
		if _, ok := invalid[row.Value.SKUCode]; ok {
			errs = append(errs, domain.ImportError{
				Row:     row.Line,
				Field:   "sku_code",
				Key:     group.orderNo,
				Message: fmt.Sprintf("SKU %q does not exist", row.Value.SKUCode),
			})
		}
	}
	return errs
}

// convertOrder builds the order from its lines. Order-level columns come from
// the first line; money totals are summed over every line.
func convertOrder(group *orderGroup, skuMap map[string]domain.SKURef) domain.OrderCreateData {
	first := group.rows[0].Value

	order := domain.OrderCreateData{
		OrderNo:         group.orderNo,
		ExternalOrderNo: first.ExternalOrderNo,
		OrderDate:       first.OrderDate,
		Channel:         first.Channel,
		PaymentMode:     first.PaymentMode,
		CustomerName:    first.CustomerName,
		CustomerPhone:   first.CustomerPhone,
		CustomerEmail:   first.CustomerEmail,
		ShippingAddress: domain.Address{
			Line1:   first.ShippingAddressLine1,
			Line2:   first.ShippingAddressLine2,
			City:    first.ShippingCity,
			State:   first.ShippingState,
			Pincode: first.ShippingPincode,
		},
		Items:    make([]domain.OrderItemData, 0, len(group.rows)),
		Priority: first.Priority,
		Remarks:  first.Remarks,
	}

	for _, pr := range group.rows {
		row := pr.Value
		lineAmount := float64(row.Quantity) * row.UnitPrice

		item := domain.OrderItemData{
			SKUCode:   row.SKUCode,
			Quantity:  row.Quantity,
			UnitPrice: row.UnitPrice,
			TaxAmount: row.TaxAmount,
			Discount:  row.Discount,
			Total:     round2(lineAmount + row.TaxAmount - row.Discount),
		}
		if ref, ok := skuMap[row.SKUCode]; ok {
			item.SKUID = ref.ID
			item.SKUName = ref.Name
		}
		order.Items = append(order.Items, item)

		order.Subtotal += lineAmount
		order.TaxAmount += row.TaxAmount
		order.Discount += row.Discount
		order.ShippingCharges += row.ShippingCharges
		order.CODCharges += row.CODCharges
	}

	order.Subtotal = round2(order.Subtotal)
	order.TaxAmount = round2(order.TaxAmount)
	order.Discount = round2(order.Discount)
	order.ShippingCharges = round2(order.ShippingCharges)
	order.CODCharges = round2(order.CODCharges)
	order.TotalAmount = round2(order.Subtotal + order.TaxAmount + order.ShippingCharges + order.CODCharges - order.Discount)

	return order
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

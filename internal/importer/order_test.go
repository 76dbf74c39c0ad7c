package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/grachmannico95/oms-bulk-import/internal/domain"
	"github.com/grachmannico95/oms-bulk-import/pkg/logger"
	"github.com/grachmannico95/oms-bulk-import/pkg/retry"
)

const orderHeader = "order_no,order_date,payment_mode,customer_name,customer_phone," +
	"shipping_address_line1,shipping_city,shipping_state,shipping_pincode," +
	"sku_code,quantity,unit_price,tax_amount,discount,shipping_charges\n"

func orderLine(orderNo, sku string, qty int, price, tax, shipping string) string {
	return fmt.Sprintf("%s,2024-01-15,PREPAID,Asha Verma,9876543210,12 MG Road,Bengaluru,Karnataka,560001,%s,%d,%s,%s,0,%s\n",
		orderNo, sku, qty, price, tax, shipping)
}

func testOrderOptions() OrderOptions {
	opts := DefaultOrderOptions()
	opts.Retry = []retry.Option{
		retry.WithMaxAttempts(3),
		retry.WithBaseDelay(time.Millisecond),
		retry.WithMaxDelay(time.Millisecond),
	}
	return opts
}

// recordingCreator hands out sequential ids and keeps every order it saw.
type recordingCreator struct {
	orders []domain.OrderCreateData
	failOn map[int]string
}

func (c *recordingCreator) CreateOrder(_ context.Context, order domain.OrderCreateData) (domain.CreateResult, error) {
	c.orders = append(c.orders, order)
	n := len(c.orders)
	if msg, ok := c.failOn[n]; ok {
		return domain.CreateResult{Success: false, Error: msg}, nil
	}
	return domain.CreateResult{Success: true, ID: fmt.Sprintf("id-%d", n)}, nil
}

func createdOrderNos(res *domain.OrderImportResult) []string {
	var out []string
	for _, o := range res.CreatedOrders {
		out = append(out, o.OrderNo)
	}
	return out
}

func TestOrderImport_GroupsInFirstSeenOrder(t *testing.T) {
	creator := &recordingCreator{}
	imp := NewOrderImporter(OrderPorts{Creator: creator}, testOrderOptions(), logger.NewNop())

	text := orderHeader +
		orderLine("C-1", "SKU-1", 1, "10", "0", "0") +
		orderLine("A-1", "SKU-2", 1, "20", "0", "0") +
		orderLine("C-1", "SKU-3", 2, "30", "0", "0") +
		orderLine("B-1", "SKU-4", 1, "40", "0", "0")

	res, err := imp.Import(context.Background(), strings.NewReader(text))

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, []string{"C-1", "A-1", "B-1"}, createdOrderNos(res))
	assert.Equal(t, 2, res.CreatedOrders[0].Row)
	assert.Equal(t, 3, res.CreatedOrders[1].Row)
	assert.Equal(t, 5, res.CreatedOrders[2].Row)

	require.Len(t, creator.orders, 3)
	require.Len(t, creator.orders[0].Items, 2)
	assert.Equal(t, "SKU-1", creator.orders[0].Items[0].SKUCode)
	assert.Equal(t, "SKU-3", creator.orders[0].Items[1].SKUCode)
	assert.Equal(t, "MANUAL", creator.orders[0].Channel)
}

func TestOrderImport_RecomputesTotals(t *testing.T) {
	creator := &recordingCreator{}
	imp := NewOrderImporter(OrderPorts{Creator: creator}, testOrderOptions(), logger.NewNop())

	text := orderHeader +
		orderLine("ORD-1", "SKU-1", 1, "500", "90", "40") +
		orderLine("ORD-1", "SKU-2", 1, "300", "54", "")

	res, err := imp.Import(context.Background(), strings.NewReader(text))

	require.NoError(t, err)
	require.Equal(t, 1, res.SuccessCount)
	require.Len(t, creator.orders, 1)

	order := creator.orders[0]
	assert.Equal(t, 800.0, order.Subtotal)
	assert.Equal(t, 144.0, order.TaxAmount)
	assert.Equal(t, 40.0, order.ShippingCharges)
	assert.Equal(t, 0.0, order.Discount)
	assert.Equal(t, 984.0, order.TotalAmount)
	assert.Equal(t, 590.0, order.Items[0].Total)
	assert.Equal(t, 354.0, order.Items[1].Total)
}

func TestOrderImport_SkipsExistingOrders(t *testing.T) {
	dupes := new(MockDuplicateChecker)
	creator := new(MockOrderCreator)

	dupes.On("ExistingOrderNumbers", mock.Anything, []string{"ORD-1", "ORD-2"}).
		Return(map[string]struct{}{"ORD-1": {}}, nil).Once()
	creator.On("CreateOrder", mock.Anything, mock.MatchedBy(func(o domain.OrderCreateData) bool {
		return o.OrderNo == "ORD-2"
	})).Return(domain.CreateResult{Success: true, ID: "order-2"}, nil).Once()

	imp := NewOrderImporter(OrderPorts{Duplicates: dupes, Creator: creator}, testOrderOptions(), logger.NewNop())

	text := orderHeader +
		orderLine("ORD-1", "SKU-1", 1, "10", "0", "0") +
		orderLine("ORD-2", "SKU-1", 1, "10", "0", "0")

	res, err := imp.Import(context.Background(), strings.NewReader(text))

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, []string{"ORD-1"}, res.SkippedOrders)
	assert.Equal(t, []domain.CreatedOrder{{OrderNo: "ORD-2", OrderID: "order-2", Row: 3}}, res.CreatedOrders)
	assert.Equal(t, 0, res.ErrorCount)
	assert.Equal(t, 1, res.SkippedCount)
	dupes.AssertExpectations(t)
	creator.AssertExpectations(t)
}

func TestOrderImport_InvalidSKURejectsWholeOrder(t *testing.T) {
	skus := new(MockSKUValidator)
	creator := new(MockOrderCreator)

	skus.On("ValidateSKUs", mock.Anything, []string{"SKU-A", "SKU-X"}).Return(domain.SKUValidation{
		SKUMap:      map[string]domain.SKURef{"SKU-A": {ID: "sku-a", Name: "Widget"}},
		InvalidSKUs: []string{"SKU-X"},
	}, nil).Once()
	creator.On("CreateOrder", mock.Anything, mock.MatchedBy(func(o domain.OrderCreateData) bool {
		return o.OrderNo == "ORD-2" && o.Items[0].SKUID == "sku-a" && o.Items[0].SKUName == "Widget"
	})).Return(domain.CreateResult{Success: true, ID: "order-2"}, nil).Once()

	imp := NewOrderImporter(OrderPorts{SKUs: skus, Creator: creator}, testOrderOptions(), logger.NewNop())

	text := orderHeader +
		orderLine("ORD-1", "SKU-A", 1, "10", "0", "0") +
		orderLine("ORD-1", "SKU-X", 1, "10", "0", "0") +
		orderLine("ORD-2", "SKU-A", 1, "10", "0", "0")

	res, err := imp.Import(context.Background(), strings.NewReader(text))

	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, []string{"ORD-2"}, createdOrderNos(res))
	assert.Equal(t, 1, res.ErrorCount)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 3, res.Errors[0].Row)
	assert.Equal(t, "sku_code", res.Errors[0].Field)
	assert.Equal(t, "ORD-1", res.Errors[0].Key)
	skus.AssertExpectations(t)
	creator.AssertExpectations(t)
}

func TestOrderImport_UnreportedSKUIsInvalid(t *testing.T) {
	skus := new(MockSKUValidator)
	skus.On("ValidateSKUs", mock.Anything, []string{"SKU-A"}).
		Return(domain.SKUValidation{SKUMap: map[string]domain.SKURef{}}, nil)

	creator := new(MockOrderCreator)
	imp := NewOrderImporter(OrderPorts{SKUs: skus, Creator: creator}, testOrderOptions(), logger.NewNop())

	res, err := imp.Import(context.Background(), strings.NewReader(orderHeader+orderLine("ORD-1", "SKU-A", 1, "10", "0", "0")))

	require.NoError(t, err)
	assert.Equal(t, 1, res.ErrorCount)
	creator.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestOrderImport_PartialFailureContinues(t *testing.T) {
	creator := &recordingCreator{failOn: map[int]string{2: "customer blocked"}}
	imp := NewOrderImporter(OrderPorts{Creator: creator}, testOrderOptions(), logger.NewNop())

	text := orderHeader +
		orderLine("ORD-1", "SKU-1", 1, "10", "0", "0") +
		orderLine("ORD-2", "SKU-1", 1, "10", "0", "0") +
		orderLine("ORD-3", "SKU-1", 1, "10", "0", "0")

	res, err := imp.Import(context.Background(), strings.NewReader(text))

	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 2, res.SuccessCount)
	assert.Equal(t, 1, res.ErrorCount)
	require.Len(t, res.CreatedOrders, 2)
	assert.Equal(t, "id-1", res.CreatedOrders[0].OrderID)
	assert.Equal(t, "id-3", res.CreatedOrders[1].OrderID)
	assert.Equal(t, []domain.ImportError{{Row: 3, Key: "ORD-2", Message: "customer blocked"}}, res.Errors)
}

func TestOrderImport_CreatorErrorIsIsolated(t *testing.T) {
	creator := new(MockOrderCreator)
	creator.On("CreateOrder", mock.Anything, mock.MatchedBy(func(o domain.OrderCreateData) bool { return o.OrderNo == "ORD-1" })).
		Return(domain.CreateResult{}, errors.New("connection reset")).Once()
	creator.On("CreateOrder", mock.Anything, mock.MatchedBy(func(o domain.OrderCreateData) bool { return o.OrderNo == "ORD-2" })).
		Return(domain.CreateResult{Success: true, ID: "order-2"}, nil).Once()

	imp := NewOrderImporter(OrderPorts{Creator: creator}, testOrderOptions(), logger.NewNop())

	text := orderHeader +
		orderLine("ORD-1", "SKU-1", 1, "10", "0", "0") +
		orderLine("ORD-2", "SKU-1", 1, "10", "0", "0")

	res, err := imp.Import(context.Background(), strings.NewReader(text))

	require.NoError(t, err)
	assert.Equal(t, 1, res.SuccessCount)
	assert.Equal(t, 1, res.ErrorCount)
	assert.Equal(t, "connection reset", res.Errors[0].Message)
	creator.AssertNumberOfCalls(t, "CreateOrder", 2)
}

func TestOrderImport_BoundaryRowsNeverReachCreator(t *testing.T) {
	creator := new(MockOrderCreator)
	imp := NewOrderImporter(OrderPorts{Creator: creator}, testOrderOptions(), logger.NewNop())

	text := orderHeader +
		orderLine("ORD-1", "SKU-1", 0, "10", "0", "0") +
		orderLine("ORD-2", "SKU-1", 1, "-1", "0", "0") +
		strings.Replace(orderLine("ORD-3", "SKU-1", 1, "10", "0", "0"), "560001", "12345", 1)

	res, err := imp.Import(context.Background(), strings.NewReader(text))

	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 3, res.ErrorCount)
	assert.Equal(t, 3, res.ProcessedRows)
	require.Len(t, res.Errors, 3)
	assert.Equal(t, "quantity", res.Errors[0].Field)
	assert.Equal(t, "unit_price", res.Errors[1].Field)
	assert.Equal(t, "shipping_pincode", res.Errors[2].Field)
	creator.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestOrderImport_InvalidLineRejectsRestOfOrder(t *testing.T) {
	creator := new(MockOrderCreator)
	creator.On("CreateOrder", mock.Anything, mock.Anything).
		Return(domain.CreateResult{Success: true, ID: "order-2"}, nil).Once()

	imp := NewOrderImporter(OrderPorts{Creator: creator}, testOrderOptions(), logger.NewNop())

	text := orderHeader +
		orderLine("ORD-1", "SKU-1", 1, "10", "0", "0") +
		orderLine("ORD-1", "SKU-2", 0, "10", "0", "0") +
		orderLine("ORD-2", "SKU-1", 1, "10", "0", "0")

	res, err := imp.Import(context.Background(), strings.NewReader(text))

	require.NoError(t, err)
	assert.Equal(t, []string{"ORD-2"}, createdOrderNos(res))
	assert.Equal(t, 2, res.ErrorCount)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, domain.ImportError{Row: 3, Field: "quantity", Message: "must be at least 1"}, res.Errors[0])
	assert.Equal(t, 2, res.Errors[1].Row)
	assert.Equal(t, "ORD-1", res.Errors[1].Key)
	creator.AssertExpectations(t)
}

func TestOrderImport_RejectedOrderStillReportsUnknownSKUs(t *testing.T) {
	skus := domain.SKUValidatorFunc(func(_ context.Context, _ []string) (domain.SKUValidation, error) {
		return domain.SKUValidation{
			SKUMap:      map[string]domain.SKURef{"SKU-1": {ID: "sku-1"}},
			InvalidSKUs: []string{"SKU-X"},
		}, nil
	})
	creator := new(MockOrderCreator)

	imp := NewOrderImporter(OrderPorts{SKUs: skus, Creator: creator}, testOrderOptions(), logger.NewNop())

	text := orderHeader +
		orderLine("ORD-1", "SKU-X", 1, "10", "0", "0") +
		orderLine("ORD-1", "SKU-1", 0, "10", "0", "0")

	res, err := imp.Import(context.Background(), strings.NewReader(text))

	require.NoError(t, err)
	assert.Empty(t, res.CreatedOrders)
	assert.Equal(t, 2, res.ErrorCount)
	require.Len(t, res.Errors, 3)
	assert.Equal(t, "quantity", res.Errors[0].Field)
	assert.Equal(t, "order has rows that failed validation", res.Errors[1].Message)
	assert.Equal(t, domain.ImportError{
		Row:     2,
		Field:   "sku_code",
		Key:     "ORD-1",
		Message: `SKU "SKU-X" does not exist`,
	}, res.Errors[2])
	creator.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestOrderImport_RowAccounting(t *testing.T) {
	dupes := domain.DuplicateCheckerFunc(func(_ context.Context, _ []string) (map[string]struct{}, error) {
		return map[string]struct{}{"ORD-2": {}}, nil
	})
	creator := &recordingCreator{failOn: map[int]string{2: "rejected"}}

	var progress, rowProgress [][2]int
	opts := testOrderOptions()
	opts.Progress = func(processed, total int) {
		progress = append(progress, [2]int{processed, total})
	}
	opts.RowProgress = func(processed, total int) {
		rowProgress = append(rowProgress, [2]int{processed, total})
	}

	imp := NewOrderImporter(OrderPorts{Duplicates: dupes, Creator: creator}, opts, logger.NewNop())

	text := orderHeader +
		orderLine("ORD-1", "SKU-1", 1, "10", "0", "0") +
		orderLine("ORD-1", "SKU-2", 1, "10", "0", "0") +
		"\n" +
		orderLine("ORD-2", "SKU-1", 1, "10", "0", "0") +
		orderLine("ORD-3", "SKU-1", 1, "10", "0", "0") +
		orderLine("ORD-4", "SKU-1", 1, "10", "0", "0") +
		orderLine("ORD-5", "SKU-1", 0, "10", "0", "0")

	res, err := imp.Import(context.Background(), strings.NewReader(text))

	require.NoError(t, err)
	assert.Equal(t, 6, res.TotalRows)
	assert.Equal(t, res.TotalRows, res.ProcessedRows)
	assert.Equal(t, 2, res.SuccessCount)
	assert.Equal(t, 1, res.SkippedCount)
	assert.Equal(t, 2, res.ErrorCount)
	assert.Equal(t, [][2]int{{1, 4}, {2, 4}, {3, 4}, {4, 4}}, progress)
	// the failed ORD-5 line is counted up front, then each group adds its rows
	assert.Equal(t, [][2]int{{3, 6}, {4, 6}, {5, 6}, {6, 6}}, rowProgress)
}

func TestOrderImport_MalformedFile(t *testing.T) {
	creator := new(MockOrderCreator)
	imp := NewOrderImporter(OrderPorts{Creator: creator}, testOrderOptions(), logger.NewNop())

	text := orderHeader + orderLine("ORD-1", "SKU-1", 1, "10", "0", "0") + "ORD-2,\"2024-01-15\"x\n"

	res, err := imp.Import(context.Background(), strings.NewReader(text))

	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 1, res.ErrorCount)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 3, res.Errors[0].Row)
	creator.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestOrderImport_LookupFailureStopsBeforeCreate(t *testing.T) {
	dupes := new(MockDuplicateChecker)
	dupes.On("ExistingOrderNumbers", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))
	creator := new(MockOrderCreator)

	imp := NewOrderImporter(OrderPorts{Duplicates: dupes, Creator: creator}, testOrderOptions(), logger.NewNop())

	res, err := imp.Import(context.Background(), strings.NewReader(orderHeader+orderLine("ORD-1", "SKU-1", 1, "10", "0", "0")))

	assert.Nil(t, res)
	assert.ErrorIs(t, err, domain.ErrLookupFailed)
	dupes.AssertNumberOfCalls(t, "ExistingOrderNumbers", 3)
	creator.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestOrderImport_LookupRecoversOnRetry(t *testing.T) {
	dupes := new(MockDuplicateChecker)
	dupes.On("ExistingOrderNumbers", mock.Anything, mock.Anything).Return(nil, errors.New("timeout")).Once()
	dupes.On("ExistingOrderNumbers", mock.Anything, mock.Anything).Return(map[string]struct{}{}, nil).Once()

	imp := NewOrderImporter(OrderPorts{Duplicates: dupes, Creator: &recordingCreator{}}, testOrderOptions(), logger.NewNop())

	res, err := imp.Import(context.Background(), strings.NewReader(orderHeader+orderLine("ORD-1", "SKU-1", 1, "10", "0", "0")))

	require.NoError(t, err)
	assert.Equal(t, 1, res.SuccessCount)
	dupes.AssertExpectations(t)
}

func TestOrderImport_ChunksLookups(t *testing.T) {
	var calls [][]string
	dupes := domain.DuplicateCheckerFunc(func(_ context.Context, orderNos []string) (map[string]struct{}, error) {
		calls = append(calls, append([]string(nil), orderNos...))
		return map[string]struct{}{"ORD-5": {}}, nil
	})

	opts := testOrderOptions()
	opts.LookupChunkSize = 2
	imp := NewOrderImporter(OrderPorts{Duplicates: dupes, Creator: &recordingCreator{}}, opts, logger.NewNop())

	var text strings.Builder
	text.WriteString(orderHeader)
	for n := 1; n <= 5; n++ {
		text.WriteString(orderLine(fmt.Sprintf("ORD-%d", n), "SKU-1", 1, "10", "0", "0"))
	}

	res, err := imp.Import(context.Background(), strings.NewReader(text.String()))

	require.NoError(t, err)
	assert.Equal(t, [][]string{{"ORD-1", "ORD-2"}, {"ORD-3", "ORD-4"}, {"ORD-5"}}, calls)
	assert.Equal(t, 4, res.SuccessCount)
	assert.Equal(t, []string{"ORD-5"}, res.SkippedOrders)
}

func TestOrderImport_DisabledPrechecks(t *testing.T) {
	dupes := new(MockDuplicateChecker)
	skus := new(MockSKUValidator)

	opts := testOrderOptions()
	opts.CheckDuplicates = false
	opts.ValidateSKUs = false
	opts.Limiter = rate.NewLimiter(rate.Inf, 1)

	imp := NewOrderImporter(OrderPorts{Duplicates: dupes, SKUs: skus, Creator: &recordingCreator{}}, opts, logger.NewNop())

	res, err := imp.Import(context.Background(), strings.NewReader(orderHeader+orderLine("ORD-1", "SKU-1", 1, "10", "0", "0")))

	require.NoError(t, err)
	assert.True(t, res.Success)
	dupes.AssertNotCalled(t, "ExistingOrderNumbers", mock.Anything, mock.Anything)
	skus.AssertNotCalled(t, "ValidateSKUs", mock.Anything, mock.Anything)
}

func TestOrderImport_CancelledMidway(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	creator := domain.OrderCreatorFunc(func(_ context.Context, o domain.OrderCreateData) (domain.CreateResult, error) {
		cancel()
		return domain.CreateResult{Success: true, ID: "id-" + o.OrderNo}, nil
	})

	imp := NewOrderImporter(OrderPorts{Creator: creator}, testOrderOptions(), logger.NewNop())

	text := orderHeader +
		orderLine("ORD-1", "SKU-1", 1, "10", "0", "0") +
		orderLine("ORD-2", "SKU-1", 1, "10", "0", "0")

	res, err := imp.Import(ctx, strings.NewReader(text))

	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.Equal(t, []string{"ORD-1"}, createdOrderNos(res))
	assert.Equal(t, 1, res.ProcessedRows)
}

func TestOrderImport_XLSXTemplateRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOrderTemplateXLSX(&buf))

	creator := &recordingCreator{}
	imp := NewOrderImporter(OrderPorts{Creator: creator}, testOrderOptions(), logger.NewNop())

	res, err := imp.ImportXLSX(context.Background(), &buf)

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.TotalRows)
	assert.Equal(t, []string{"ORD-1001"}, createdOrderNos(res))
	require.Len(t, creator.orders, 1)
	assert.Equal(t, domain.PaymentModePrepaid, creator.orders[0].PaymentMode)
}

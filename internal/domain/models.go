package domain

import "time"

type PaymentMode string

const (
	PaymentModePrepaid PaymentMode = "PREPAID"
	PaymentModeCOD     PaymentMode = "COD"
)

// OrderCSVRow is one validated line of an order import file. A multi-line
// order repeats the order-level columns on every line.
type OrderCSVRow struct {
	OrderNo              string      `json:"order_no"`
	OrderDate            time.Time   `json:"order_date"`
	Channel              string      `json:"channel"`
	PaymentMode          PaymentMode `json:"payment_mode"`
	CustomerName         string      `json:"customer_name"`
	CustomerPhone        string      `json:"customer_phone"`
	CustomerEmail        string      `json:"customer_email,omitempty"`
	ShippingAddressLine1 string      `json:"shipping_address_line1"`
	ShippingAddressLine2 string      `json:"shipping_address_line2,omitempty"`
	ShippingCity         string      `json:"shipping_city"`
	ShippingState        string      `json:"shipping_state"`
	ShippingPincode      string      `json:"shipping_pincode"`
	SKUCode              string      `json:"sku_code"`
	Quantity             int         `json:"quantity"`
	UnitPrice            float64     `json:"unit_price"`
	TaxAmount            float64     `json:"tax_amount"`
	Discount             float64     `json:"discount"`
	ShippingCharges      float64     `json:"shipping_charges"`
	CODCharges           float64     `json:"cod_charges"`
	ExternalOrderNo      string      `json:"external_order_no,omitempty"`
	Remarks              string      `json:"remarks,omitempty"`
	Priority             int         `json:"priority"`
}

type SKUCSVRow struct {
	Code         string   `json:"code"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Category     string   `json:"category,omitempty"`
	SubCategory  string   `json:"sub_category,omitempty"`
	Brand        string   `json:"brand,omitempty"`
	HSN          string   `json:"hsn,omitempty"`
	Weight       *float64 `json:"weight,omitempty"`
	Length       *float64 `json:"length,omitempty"`
	Width        *float64 `json:"width,omitempty"`
	Height       *float64 `json:"height,omitempty"`
	MRP          *float64 `json:"mrp,omitempty"`
	CostPrice    *float64 `json:"cost_price,omitempty"`
	SellingPrice *float64 `json:"selling_price,omitempty"`
	TaxRate      *float64 `json:"tax_rate,omitempty"`
	Barcode      string   `json:"barcode,omitempty"`
	ReorderLevel *int     `json:"reorder_level,omitempty"`
	ReorderQty   *int     `json:"reorder_qty,omitempty"`
}

type Address struct {
	Line1   string `json:"line1"`
	Line2   string `json:"line2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
}

type OrderItemData struct {
	SKUCode   string  `json:"sku_code"`
	SKUID     string  `json:"sku_id,omitempty"`
	SKUName   string  `json:"sku_name,omitempty"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	TaxAmount float64 `json:"tax_amount"`
	Discount  float64 `json:"discount"`
	Total     float64 `json:"total"`
}

// OrderCreateData is a persistence-ready order. All money fields are
// recomputed from the item lines.
type OrderCreateData struct {
	OrderNo         string          `json:"order_no"`
	ExternalOrderNo string          `json:"external_order_no,omitempty"`
	OrderDate       time.Time       `json:"order_date"`
	Channel         string          `json:"channel"`
	PaymentMode     PaymentMode     `json:"payment_mode"`
	CustomerName    string          `json:"customer_name"`
	CustomerPhone   string          `json:"customer_phone"`
	CustomerEmail   string          `json:"customer_email,omitempty"`
	ShippingAddress Address         `json:"shipping_address"`
	Items           []OrderItemData `json:"items"`
	Subtotal        float64         `json:"subtotal"`
	TaxAmount       float64         `json:"tax_amount"`
	Discount        float64         `json:"discount"`
	ShippingCharges float64         `json:"shipping_charges"`
	CODCharges      float64         `json:"cod_charges"`
	TotalAmount     float64         `json:"total_amount"`
	Priority        int             `json:"priority"`
	Remarks         string          `json:"remarks,omitempty"`
}

type SKUCreateData struct {
	Code         string   `json:"code"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Category     string   `json:"category,omitempty"`
	SubCategory  string   `json:"sub_category,omitempty"`
	Brand        string   `json:"brand,omitempty"`
	HSN          string   `json:"hsn,omitempty"`
	Weight       *float64 `json:"weight,omitempty"`
	Length       *float64 `json:"length,omitempty"`
	Width        *float64 `json:"width,omitempty"`
	Height       *float64 `json:"height,omitempty"`
	MRP          *float64 `json:"mrp,omitempty"`
	CostPrice    *float64 `json:"cost_price,omitempty"`
	SellingPrice *float64 `json:"selling_price,omitempty"`
	TaxRate      *float64 `json:"tax_rate,omitempty"`
	Barcode      string   `json:"barcode,omitempty"`
	ReorderLevel *int     `json:"reorder_level,omitempty"`
	ReorderQty   *int     `json:"reorder_qty,omitempty"`
}

// SKUUpdateData carries only the columns present in the file; nil or empty
// fields leave the stored value untouched.
type SKUUpdateData struct {
	Name         string   `json:"name,omitempty"`
	Description  string   `json:"description,omitempty"`
	Category     string   `json:"category,omitempty"`
	SubCategory  string   `json:"sub_category,omitempty"`
	Brand        string   `json:"brand,omitempty"`
	HSN          string   `json:"hsn,omitempty"`
	Weight       *float64 `json:"weight,omitempty"`
	Length       *float64 `json:"length,omitempty"`
	Width        *float64 `json:"width,omitempty"`
	Height       *float64 `json:"height,omitempty"`
	MRP          *float64 `json:"mrp,omitempty"`
	CostPrice    *float64 `json:"cost_price,omitempty"`
	SellingPrice *float64 `json:"selling_price,omitempty"`
	TaxRate      *float64 `json:"tax_rate,omitempty"`
	Barcode      string   `json:"barcode,omitempty"`
	ReorderLevel *int     `json:"reorder_level,omitempty"`
	ReorderQty   *int     `json:"reorder_qty,omitempty"`
}

type SKURef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type SKUValidation struct {
	SKUMap      map[string]SKURef `json:"sku_map"`
	InvalidSKUs []string          `json:"invalid_skus"`
}

type SKUExistence struct {
	Exists bool              `json:"exists"`
	SKUMap map[string]SKURef `json:"sku_map"`
}

// CreateResult is what a creator returns for one entity. Success=false with
// Error set is an expected business failure, not a Go error.
type CreateResult struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	Error   string `json:"error,omitempty"`
}

type UpdateResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ImportError points at the file line (and column when known) that caused a failure.
type ImportError struct {
	Row     int    `json:"row"`
	Field   string `json:"field,omitempty"`
	Key     string `json:"key,omitempty"`
	Message string `json:"message"`
}

type CreatedOrder struct {
	OrderNo string `json:"order_no"`
	OrderID string `json:"order_id"`
	Row     int    `json:"row"`
}

type OrderImportResult struct {
	Success       bool           `json:"success"`
	TotalRows     int            `json:"total_rows"`
	ProcessedRows int            `json:"processed_rows"`
	SuccessCount  int            `json:"success_count"`
	ErrorCount    int            `json:"error_count"`
	SkippedCount  int            `json:"skipped_count"`
	Errors        []ImportError  `json:"errors"`
	CreatedOrders []CreatedOrder `json:"created_orders"`
	SkippedOrders []string       `json:"skipped_orders"`
}

type CreatedSKU struct {
	Code  string `json:"code"`
	SKUID string `json:"sku_id"`
	Row   int    `json:"row"`
}

type SKUImportResult struct {
	Success       bool          `json:"success"`
	TotalRows     int           `json:"total_rows"`
	ProcessedRows int           `json:"processed_rows"`
	SuccessCount  int           `json:"success_count"`
	ErrorCount    int           `json:"error_count"`
	SkippedCount  int           `json:"skipped_count"`
	Errors        []ImportError `json:"errors"`
	CreatedSKUs   []CreatedSKU  `json:"created_skus"`
	UpdatedSKUs   []string      `json:"updated_skus"`
	SkippedSKUs   []string      `json:"skipped_skus"`
}

type ImportKind string

const (
	ImportKindOrders ImportKind = "orders"
	ImportKindSKUs   ImportKind = "skus"
)

// FileFormat is the container an import file arrives in.
type FileFormat string

const (
	FileFormatCSV  FileFormat = "csv"
	FileFormatXLSX FileFormat = "xlsx"
)

type JobStatus string

const (
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Job is the bookkeeping record of one import invocation.
type Job struct {
	ID            string      `json:"id"`
	Kind          ImportKind  `json:"kind"`
	Status        JobStatus   `json:"status"`
	ProcessedRows int         `json:"processed_rows"`
	TotalRows     int         `json:"total_rows"`
	Result        interface{} `json:"result,omitempty"`
	Error         string      `json:"error,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	CompletedAt   *time.Time  `json:"completed_at,omitempty"`
}

// Package importer turns parsed order and SKU files into calls on the
// persistence ports, one entity at a time.
package importer

import (
	"regexp"
	"time"

	"github.com/grachmannico95/oms-bulk-import/internal/csvparse"
	"github.com/grachmannico95/oms-bulk-import/internal/domain"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9]{10,15}$`)

const defaultChannel = "MANUAL"

// OrderSchema validates one line of an order import file.
func OrderSchema() *csvparse.Schema[domain.OrderCSVRow] {
	type row = domain.OrderCSVRow
	return csvparse.NewSchema(
		csvparse.Text("order_no", func(r *row, v string) { r.OrderNo = v },
			csvparse.Required(), csvparse.MaxLen(50), csvparse.Example("ORD-1001")),
		csvparse.Date("order_date", func(r *row, v time.Time) { r.OrderDate = v },
			csvparse.Required(), csvparse.Example("2024-01-15")),
		csvparse.Text("channel", func(r *row, v string) { r.Channel = v },
			csvparse.Default(defaultChannel), csvparse.MaxLen(50), csvparse.Example(defaultChannel)),
		csvparse.Enum("payment_mode", []string{string(domain.PaymentModePrepaid), string(domain.PaymentModeCOD)},
			func(r *row, v string) { r.PaymentMode = domain.PaymentMode(v) },
			csvparse.Required(), csvparse.Example(string(domain.PaymentModePrepaid))),
		csvparse.Text("customer_name", func(r *row, v string) { r.CustomerName = v },
			csvparse.Required(), csvparse.MaxLen(255), csvparse.Example("Asha Verma")),
		csvparse.Text("customer_phone", func(r *row, v string) { r.CustomerPhone = v },
			csvparse.Required(), csvparse.Pattern(phonePattern, "must be 10 to 15 digits"), csvparse.Example("9876543210")),
		csvparse.Text("customer_email", func(r *row, v string) { r.CustomerEmail = v },
			csvparse.Email(), csvparse.Example("asha@example.com")),
		csvparse.Text("shipping_address_line1", func(r *row, v string) { r.ShippingAddressLine1 = v },
			csvparse.Required(), csvparse.MaxLen(255), csvparse.Example("12 MG Road")),
		csvparse.Text("shipping_address_line2", func(r *row, v string) { r.ShippingAddressLine2 = v },
			csvparse.MaxLen(255), csvparse.Example("Near City Mall")),
		csvparse.Text("shipping_city", func(r *row, v string) { r.ShippingCity = v },
			csvparse.Required(), csvparse.MaxLen(100), csvparse.Example("Bengaluru")),
		csvparse.Text("shipping_state", func(r *row, v string) { r.ShippingState = v },
			csvparse.Required(), csvparse.MaxLen(100), csvparse.Example("Karnataka")),
		csvparse.Text("shipping_pincode", func(r *row, v string) { r.ShippingPincode = v },
			csvparse.Required(), csvparse.MinLen(6), csvparse.MaxLen(10), csvparse.Digits(), csvparse.Example("560001")),
		csvparse.Text("sku_code", func(r *row, v string) { r.SKUCode = v },
			csvparse.Required(), csvparse.MaxLen(50), csvparse.Example("SKU-001")),
		csvparse.Int("quantity", func(r *row, v int) { r.Quantity = v },
			csvparse.Required(), csvparse.Min(1), csvparse.Example("2")),
		csvparse.Number("unit_price", func(r *row, v float64) { r.UnitPrice = v },
			csvparse.Required(), csvparse.Min(0), csvparse.Example("499.00")),
		csvparse.Number("tax_amount", func(r *row, v float64) { r.TaxAmount = v },
			csvparse.Default("0"), csvparse.Min(0), csvparse.Example("89.82")),
		csvparse.Number("discount", func(r *row, v float64) { r.Discount = v },
			csvparse.Default("0"), csvparse.Min(0), csvparse.Example("0")),
		csvparse.Number("shipping_charges", func(r *row, v float64) { r.ShippingCharges = v },
			csvparse.Default("0"), csvparse.Min(0), csvparse.Example("40")),
		csvparse.Number("cod_charges", func(r *row, v float64) { r.CODCharges = v },
			csvparse.Default("0"), csvparse.Min(0), csvparse.Example("0")),
		csvparse.Text("external_order_no", func(r *row, v string) { r.ExternalOrderNo = v },
			csvparse.MaxLen(100)),
		csvparse.Text("remarks", func(r *row, v string) { r.Remarks = v },
			csvparse.MaxLen(500)),
		csvparse.Int("priority", func(r *row, v int) { r.Priority = v },
			csvparse.Default("0"), csvparse.Min(0), csvparse.Max(10), csvparse.Example("0")),
	)
}

// SKUSchema validates one line of a SKU master file.
func SKUSchema() *csvparse.Schema[domain.SKUCSVRow] {
	type row = domain.SKUCSVRow
	nonNegative := func(name string, set func(*row, float64), example string) csvparse.Field[row] {
		return csvparse.Number(name, set, csvparse.Min(0), csvparse.Example(example))
	}
	count := func(name string, set func(*row, int), example string) csvparse.Field[row] {
		return csvparse.Int(name, set, csvparse.Min(0), csvparse.Example(example))
	}

	return csvparse.NewSchema(
		csvparse.Text("code", func(r *row, v string) { r.Code = v },
			csvparse.Required(), csvparse.MaxLen(50), csvparse.Example("SKU-001")),
		csvparse.Text("name", func(r *row, v string) { r.Name = v },
			csvparse.Required(), csvparse.MaxLen(255), csvparse.Example("Cotton T-Shirt")),
		csvparse.Text("description", func(r *row, v string) { r.Description = v },
			csvparse.MaxLen(1000), csvparse.Example("Round neck, size M")),
		csvparse.Text("category", func(r *row, v string) { r.Category = v },
			csvparse.MaxLen(100), csvparse.Example("Apparel")),
		csvparse.Text("sub_category", func(r *row, v string) { r.SubCategory = v },
			csvparse.MaxLen(100), csvparse.Example("T-Shirts")),
		csvparse.Text("brand", func(r *row, v string) { r.Brand = v },
			csvparse.MaxLen(100), csvparse.Example("Acme")),
		csvparse.Text("hsn", func(r *row, v string) { r.HSN = v },
			csvparse.MaxLen(20), csvparse.Example("6109")),
		nonNegative("weight", func(r *row, v float64) { r.Weight = &v }, "0.25"),
		nonNegative("length", func(r *row, v float64) { r.Length = &v }, "30"),
		nonNegative("width", func(r *row, v float64) { r.Width = &v }, "25"),
		nonNegative("height", func(r *row, v float64) { r.Height = &v }, "2"),
		nonNegative("mrp", func(r *row, v float64) { r.MRP = &v }, "799"),
		nonNegative("cost_price", func(r *row, v float64) { r.CostPrice = &v }, "350"),
		nonNegative("selling_price", func(r *row, v float64) { r.SellingPrice = &v }, "599"),
		csvparse.Number("tax_rate", func(r *row, v float64) { r.TaxRate = &v },
			csvparse.Min(0), csvparse.Max(100), csvparse.Example("12")),
		csvparse.Text("barcode", func(r *row, v string) { r.Barcode = v },
			csvparse.MaxLen(50), csvparse.Example("8901234567890")),
		count("reorder_level", func(r *row, v int) { r.ReorderLevel = &v }, "10"),
		count("reorder_qty", func(r *row, v int) { r.ReorderQty = &v }, "50"),
	)
}

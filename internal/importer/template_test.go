package importer

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grachmannico95/oms-bulk-import/internal/csvparse"
)

func TestTemplatesRoundTrip(t *testing.T) {
	ctx := context.Background()
	opts := csvparse.DefaultOptions()

	orders := csvparse.ParseString(ctx, string(OrderTemplateCSV()), OrderSchema(), opts)
	assert.Empty(t, orders.Errors)
	assert.Equal(t, 1, orders.ValidRows)

	skus := csvparse.ParseString(ctx, string(SKUTemplateCSV()), SKUSchema(), opts)
	assert.Empty(t, skus.Errors)
	require.Equal(t, 1, skus.ValidRows)
	assert.Equal(t, "Round neck, size M", skus.Data[0].Value.Description)
}

func TestXLSXTemplatesRoundTrip(t *testing.T) {
	ctx := context.Background()
	opts := csvparse.DefaultOptions()

	var orderBook bytes.Buffer
	require.NoError(t, WriteOrderTemplateXLSX(&orderBook))
	orders := csvparse.ParseXLSX(ctx, &orderBook, OrderSchema(), opts)
	assert.Empty(t, orders.Errors)
	assert.Equal(t, 1, orders.ValidRows)

	var skuBook bytes.Buffer
	require.NoError(t, WriteSKUTemplateXLSX(&skuBook))
	skus := csvparse.ParseXLSX(ctx, &skuBook, SKUSchema(), opts)
	assert.Empty(t, skus.Errors)
	assert.Equal(t, 1, skus.ValidRows)
}

func TestWriteTemplate(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		wantErr     error
	}{
		{name: "orders.csv", contentType: ContentTypeCSV},
		{name: "skus.csv", contentType: ContentTypeCSV},
		{name: "orders.xlsx", contentType: ContentTypeXLSX},
		{name: "skus.xlsx", contentType: ContentTypeXLSX},
		{name: "invoices.csv", wantErr: ErrUnknownTemplate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			contentType, err := WriteTemplate(&buf, tt.name)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.contentType, contentType)
			assert.NotZero(t, buf.Len())
		})
	}
}

package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
)

func readBack(t *testing.T, buf *bytes.Buffer) *xlsx.Sheet {
	t.Helper()
	file, err := xlsx.OpenReaderAt(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, file.Sheets, 1)
	return file.Sheets[0]
}

func TestWriteProducts(t *testing.T) {
	products := []domain.Product{
		{ID: "p1", Title: "Mango", Category: domain.CategoryFruits, Price: decimal.RequireFromString("218.50"), Stock: 4,
			ImageURLs: []string{"a.jpg", "b.jpg"}, CreatedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
		{ID: "p2", Title: "Bread", Category: domain.CategoryBakery, Price: decimal.NewFromInt(120)},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteProducts(&buf, products))

	sheet := readBack(t, &buf)
	assert.Equal(t, "Products", sheet.Name)
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, "Title", sheet.Rows[0].Cells[1].String())
	assert.Equal(t, "Mango", sheet.Rows[1].Cells[1].String())
	assert.Equal(t, "Fruits", sheet.Rows[1].Cells[2].String())
	assert.Equal(t, "a.jpg,b.jpg", sheet.Rows[1].Cells[10].String())
	assert.Equal(t, "2024-03-01 10:00:00", sheet.Rows[1].Cells[11].String())
	assert.Equal(t, "Bread", sheet.Rows[2].Cells[1].String())
}

func TestWriteOrders(t *testing.T) {
	orders := []domain.Order{{
		ID:           "o1",
		ShippingInfo: domain.ShippingInfo{FirstName: "Ayesha", LastName: "Khan", City: "Lahore"},
		Items:        []domain.OrderItem{{ProductID: "p1", Quantity: 2}, {ProductID: "p2", Quantity: 1}},
		TotalAmount:  decimal.NewFromInt(300),
		Status:       domain.OrderStatusShipped,
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteOrders(&buf, orders))

	sheet := readBack(t, &buf)
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, "Ayesha Khan", sheet.Rows[1].Cells[1].String())
	assert.Equal(t, "Shipped", sheet.Rows[1].Cells[8].String())
}

func TestWriteProducts_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteProducts(&buf, nil))

	sheet := readBack(t, &buf)
	assert.Len(t, sheet.Rows, 1)
}

// Package export writes back-office spreadsheets.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/tealeg/xlsx"
)

const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const timeLayout = "2006-01-02 15:04:05"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timeLayout)
}

func header(sheet *xlsx.Sheet, titles ...string) {
	row := sheet.AddRow()
	for _, h := range titles {
		row.AddCell().SetValue(h)
	}
}

// WriteProducts writes the catalogue as a single "Products" sheet.
func WriteProducts(w io.Writer, products []domain.Product) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return fmt.Errorf("create products sheet: %w", err)
	}

	header(sheet, "ID", "Title", "Category", "Price", "Stock", "Origin", "Quality",
		"Storage", "Packaging", "Weight", "Images", "CreatedAt", "UpdatedAt")
	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetValue(p.ID)
		row.AddCell().SetValue(p.Title)
		row.AddCell().SetValue(string(p.Category))
		row.AddCell().SetFloat(p.Price.InexactFloat64())
		row.AddCell().SetInt(p.Stock)
		row.AddCell().SetValue(p.Origin)
		row.AddCell().SetValue(p.Quality)
		row.AddCell().SetValue(p.Storage)
		row.AddCell().SetValue(p.Packaging)
		row.AddCell().SetValue(p.Weight)
		row.AddCell().SetValue(strings.Join(p.ImageURLs, ","))
		row.AddCell().SetValue(formatTime(p.CreatedAt))
		row.AddCell().SetValue(formatTime(p.UpdatedAt))
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("write products workbook: %w", err)
	}
	return nil
}

// WriteOrders writes one row per order.
func WriteOrders(w io.Writer, orders []domain.Order) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Orders")
	if err != nil {
		return fmt.Errorf("create orders sheet: %w", err)
	}

	header(sheet, "ID", "Customer", "City", "Phone", "Items", "DeliveryFee", "Total",
		"Payment", "Status", "CreatedAt")
	for _, o := range orders {
		items := 0
		for _, it := range o.Items {
			items += it.Quantity
		}
		row := sheet.AddRow()
		row.AddCell().SetValue(o.ID)
		row.AddCell().SetValue(strings.TrimSpace(o.ShippingInfo.FirstName + " " + o.ShippingInfo.LastName))
		row.AddCell().SetValue(o.ShippingInfo.City)
		row.AddCell().SetValue(o.ShippingInfo.Phone)
		row.AddCell().SetInt(items)
		row.AddCell().SetFloat(o.DeliveryFee.InexactFloat64())
		row.AddCell().SetFloat(o.TotalAmount.InexactFloat64())
		row.AddCell().SetValue(string(o.PaymentMethod))
		row.AddCell().SetValue(o.Status.Label())
		row.AddCell().SetValue(formatTime(o.CreatedAt))
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("write orders workbook: %w", err)
	}
	return nil
}

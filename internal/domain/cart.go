package domain

import "github.com/shopspring/decimal"

// CartLine is one product entry in the cart.
// Invariant: 1 <= Quantity <= StockCeiling.
type CartLine struct {
	ProductID    string          `json:"product_id"`
	Title        string          `json:"title"`
	ImageURL     string          `json:"image_url"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Quantity     int             `json:"quantity"`
	StockCeiling int             `json:"stock_ceiling"`
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Valid reports whether the line satisfies the quantity and stock invariants.
func (l CartLine) Valid() bool {
	return l.ProductID != "" &&
		l.Quantity >= 1 &&
		l.Quantity <= l.StockCeiling &&
		!l.UnitPrice.IsNegative()
}

// Cart is an ordered collection of lines; insertion order is display order.
type Cart struct {
	Lines []CartLine `json:"lines"`
}

func (c Cart) TotalItems() int {
	total := 0
	for _, l := range c.Lines {
		total += l.Quantity
	}
	return total
}

func (c Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Find returns the index of the line for productID, or -1.
func (c Cart) Find(productID string) int {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

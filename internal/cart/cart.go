// Package cart holds the customer's in-progress selection. A Cart is owned by a
// single shopper session and is never shared, so it carries no locking; the
// Store adapters decide where it lives between requests.
package cart

import (
	"fmt"

	"farm_store/internal/errs"

	"github.com/shopspring/decimal"
)

type Item struct {
	LineID        string          `json:"line_id"`
	ProductID     uint            `json:"product_id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	ImageURL      string          `json:"image_url"`
	Category      string          `json:"category,omitempty"`
	Quantity      int             `json:"quantity"`
	StockQuantity int             `json:"stock_quantity"`
	AddOnIncluded bool            `json:"add_on_included"`
	AddOnName     string          `json:"add_on_name,omitempty"`
	AddOnFee      decimal.Decimal `json:"add_on_fee"`
}

func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i Item) AddOnTotal() decimal.Decimal {
	if !i.AddOnIncluded {
		return decimal.Zero
	}
	return i.AddOnFee.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Cart struct {
	Items []Item `json:"items"`
	Seq   int    `json:"seq"`
}

func New() *Cart {
	return &Cart{Items: []Item{}}
}

// AddItem merges into the line with the same product and add-on flag, capping
// the quantity at that line's stock snapshot; otherwise it appends a new line.
func (c *Cart) AddItem(item Item) (Item, error) {
	const op = "cart.AddItem"
	if item.Quantity < 1 {
		return Item{}, errs.Validation(op, "quantity must be at least 1")
	}
	if item.StockQuantity < 1 {
		return Item{}, errs.Validation(op, "product is out of stock")
	}

	for idx := range c.Items {
		line := &c.Items[idx]
		if line.ProductID == item.ProductID && line.AddOnIncluded == item.AddOnIncluded {
			line.Quantity = min(line.Quantity+item.Quantity, line.StockQuantity)
			return *line, nil
		}
	}

	c.Seq++
	item.LineID = fmt.Sprintf("l%d", c.Seq)
	item.Quantity = min(item.Quantity, item.StockQuantity)
	c.Items = append(c.Items, item)
	return item, nil
}

// UpdateQuantity sets the quantity as given; clamping to the stock snapshot is
// the caller's job.
func (c *Cart) UpdateQuantity(lineID string, quantity int) (Item, error) {
	line, err := c.line("cart.UpdateQuantity", lineID)
	if err != nil {
		return Item{}, err
	}
	line.Quantity = quantity
	return *line, nil
}

func (c *Cart) RemoveItem(lineID string) error {
	for idx := range c.Items {
		if c.Items[idx].LineID == lineID {
			c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
			return nil
		}
	}
	return errs.NotFound("cart.RemoveItem", "cart line not found")
}

// ToggleAddOnService flips the add-on flag of one line. Lines that end up
// sharing product and flag are not merged.
func (c *Cart) ToggleAddOnService(lineID string, included bool) (Item, error) {
	line, err := c.line("cart.ToggleAddOnService", lineID)
	if err != nil {
		return Item{}, err
	}
	line.AddOnIncluded = included
	return *line, nil
}

func (c *Cart) Clear() {
	c.Items = []Item{}
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c *Cart) Find(lineID string) (Item, bool) {
	for _, item := range c.Items {
		if item.LineID == lineID {
			return item, true
		}
	}
	return Item{}, false
}

func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range c.Items {
		sum = sum.Add(item.Subtotal())
	}
	return sum
}

func (c *Cart) AddOnTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range c.Items {
		sum = sum.Add(item.AddOnTotal())
	}
	return sum
}

// Total is Σ price×qty + Σ addOnFee×qty over lines with the add-on included.
func (c *Cart) Total() decimal.Decimal {
	return c.Subtotal().Add(c.AddOnTotal())
}

func (c *Cart) Clone() *Cart {
	out := &Cart{Seq: c.Seq, Items: make([]Item, len(c.Items))}
	copy(out.Items, c.Items)
	return out
}

func (c *Cart) line(op, lineID string) (*Item, error) {
	for idx := range c.Items {
		if c.Items[idx].LineID == lineID {
			return &c.Items[idx], nil
		}
	}
	return nil, errs.NotFound(op, "cart line not found")
}

package models

import (
	"strings"

	"bitbucket.org/mmdatafocus/storefront_backend/utils"
	"github.com/shopspring/decimal"
)

type LineItem struct {
	ID        int             `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

func (l LineItem) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart keeps line items in insertion order together with their running total.
// The zero value is an empty cart ready for use.
type Cart struct {
	items  []LineItem
	total  decimal.Decimal
	lastID int
}

func NewCart() *Cart {
	return &Cart{}
}

// Add appends a new line with quantity 1. A negative price is stored as 0.
// Repeated adds of the same name produce separate lines.
func (c *Cart) Add(name string, unitPrice decimal.Decimal) (LineItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return LineItem{}, ErrItemNameRequired
	}
	c.lastID++
	item := LineItem{
		ID:        c.lastID,
		Name:      name,
		UnitPrice: utils.CoerceAmount(unitPrice),
		Quantity:  1,
	}
	c.items = append(c.items, item)
	c.total = c.total.Add(item.LineTotal())
	return item, nil
}

// Remove drops the line with the given id. Unknown ids are ignored.
func (c *Cart) Remove(id int) bool {
	for i, item := range c.items {
		if item.ID != id {
			continue
		}
		c.items = append(c.items[:i], c.items[i+1:]...)
		c.total = c.total.Sub(item.LineTotal())
		return true
	}
	return false
}

// Clear empties the cart. Ids keep increasing across clears.
func (c *Cart) Clear() {
	c.items = nil
	c.total = decimal.Zero
}

func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

func (c *Cart) Len() int {
	return len(c.items)
}

func (c *Cart) Total() decimal.Decimal {
	return c.total
}

func (c *Cart) Items() []LineItem {
	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

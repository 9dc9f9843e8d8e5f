package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"

	"github.com/shopspring/decimal"
)

// Product is the catalog record returned by the remote catalog service.
// Attributes other than the four the cart reads are kept verbatim in Attrs.
type Product struct {
	ID    int                        `json:"id"`
	Title string                     `json:"title"`
	Price decimal.Decimal            `json:"price"`
	Image string                     `json:"image"`
	Attrs map[string]json.RawMessage `json:"-"`
}

// Stock is the remote availability of a single product at the time of the call.
type Stock struct {
	ID     int `json:"id"`
	Amount int `json:"amount"`
}

// LineItem is one product entry in the cart together with its quantity.
type LineItem struct {
	ID     int                        `json:"id"`
	Title  string                     `json:"title"`
	Price  decimal.Decimal            `json:"price"`
	Image  string                     `json:"image"`
	Amount int                        `json:"amount"`
	Attrs  map[string]json.RawMessage `json:"-"`
}

// NewLineItem builds a line item for the given product with the given amount.
func NewLineItem(p Product, amount int) LineItem {
	return LineItem{
		ID:     p.ID,
		Title:  p.Title,
		Price:  p.Price,
		Image:  p.Image,
		Amount: amount,
		Attrs:  maps.Clone(p.Attrs),
	}
}

// Subtotal returns price times amount.
func (i LineItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Amount)))
}

// Equal reports whether both items carry the same identifier, quantity and attributes.
func (i LineItem) Equal(o LineItem) bool {
	return i.ID == o.ID &&
		i.Amount == o.Amount &&
		i.Title == o.Title &&
		i.Image == o.Image &&
		i.Price.Equal(o.Price) &&
		attrsEqual(i.Attrs, o.Attrs)
}

func attrsEqual(a, b map[string]json.RawMessage) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		w, ok := b[k]
		if !ok || !bytes.Equal(v, w) {
			return false
		}
	}
	return true
}

// Cart is the ordered list of line items. Identifiers are unique and every
// amount is at least one.
type Cart struct {
	Items []LineItem `json:"items"`
}

// FindItemIndex returns the position of the item with the given product ID, or -1.
func (c Cart) FindItemIndex(productID int) int {
	for i := range c.Items {
		if c.Items[i].ID == productID {
			return i
		}
	}
	return -1
}

// ItemCount returns the number of units in the cart.
func (c Cart) ItemCount() int {
	var count int
	for _, item := range c.Items {
		count += item.Amount
	}
	return count
}

// Total returns the sum of all line subtotals.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// Validate reports a duplicated product ID or an amount below one.
func (c Cart) Validate() error {
	seen := make(map[int]struct{}, len(c.Items))
	for i, item := range c.Items {
		if item.Amount < 1 {
			return fmt.Errorf("%w: item %d (product %d) has amount %d",
				ErrInvalidInput, i, item.ID, item.Amount)
		}
		if _, dup := seen[item.ID]; dup {
			return fmt.Errorf("%w: product %d appears more than once", ErrInvalidInput, item.ID)
		}
		seen[item.ID] = struct{}{}
	}
	return nil
}

// Amounts maps each product ID to its quantity in the cart.
func (c Cart) Amounts() map[int]int {
	amounts := make(map[int]int, len(c.Items))
	for _, item := range c.Items {
		amounts[item.ID] = item.Amount
	}
	return amounts
}

// Clone returns a copy that shares no backing array with c.
func (c Cart) Clone() Cart {
	items := make([]LineItem, len(c.Items))
	copy(items, c.Items)
	for i := range items {
		items[i].Attrs = maps.Clone(items[i].Attrs)
	}
	return Cart{Items: items}
}

// Equal compares two carts item by item, in order.
func (c Cart) Equal(o Cart) bool {
	if len(c.Items) != len(o.Items) {
		return false
	}
	for i := range c.Items {
		if !c.Items[i].Equal(o.Items[i]) {
			return false
		}
	}
	return true
}

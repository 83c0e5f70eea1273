package inventory

import (
	"fmt"
	"maps"
	"math"
)

// MaxQuantity bounds a single cart line.
const MaxQuantity = 999

// Item is a cart line as sent by the browser.
type Item struct {
	Parent   string `json:"parent" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,min=1,max=999"`
}

type CartItem struct {
	CatalogID  string            `json:"catalog_id"`
	UnitPrice  int64             `json:"unit_price"`
	Quantity   int               `json:"quantity"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

func (ci CartItem) Subtotal() (int64, error) {
	if ci.Quantity < 1 || ci.UnitPrice < 0 {
		return 0, fmt.Errorf("%w (%s)", ErrInvalidQuantity, ci.CatalogID)
	}
	if ci.UnitPrice > math.MaxInt64/int64(ci.Quantity) {
		return 0, fmt.Errorf("%w (%s)", ErrAmountOverflow, ci.CatalogID)
	}
	return ci.UnitPrice * int64(ci.Quantity), nil
}

// Cart is built from catalog prices; client-side prices are never trusted.
type Cart []CartItem

func (c Cart) Total() (int64, error) {
	var total int64
	for _, item := range c {
		sub, err := item.Subtotal()
		if err != nil {
			return 0, err
		}
		if total, err = addAmounts(total, sub); err != nil {
			return 0, err
		}
	}
	return total, nil
}

func addAmounts(a, b int64) (int64, error) {
	if b > math.MaxInt64-a {
		return 0, ErrAmountOverflow
	}
	return a + b, nil
}

func (c *Catalog) Cart(items []Item) (Cart, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	cart := make(Cart, 0, len(items))
	for _, item := range items {
		sku, ok := c.SKU(item.Parent)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSKU, item.Parent)
		}
		if item.Quantity < 1 || item.Quantity > MaxQuantity {
			return nil, fmt.Errorf("%w (%s)", ErrInvalidQuantity, item.Parent)
		}
		cart = append(cart, CartItem{
			CatalogID:  sku.ID,
			UnitPrice:  sku.Price,
			Quantity:   item.Quantity,
			Attributes: maps.Clone(sku.Attributes),
		})
	}
	return cart, nil
}

// Amount is the payable total for items plus the shipping option, if any.
func (c *Catalog) Amount(items []Item, shippingID string) (int64, error) {
	cart, err := c.Cart(items)
	if err != nil {
		return 0, err
	}

	total, err := cart.Total()
	if err != nil {
		return 0, err
	}
	if shippingID == "" {
		return total, nil
	}

	shipping, err := c.ShippingCost(shippingID)
	if err != nil {
		return 0, err
	}
	return addAmounts(total, shipping)
}

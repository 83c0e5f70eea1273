package inventory

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed catalog.toml
var defaultCatalog []byte

var (
	ErrInvalidCart     = errors.New("invalid cart")
	ErrUnknownSKU      = fmt.Errorf("%w: unknown sku", ErrInvalidCart)
	ErrInvalidQuantity = fmt.Errorf("%w: quantity must be between 1 and %d", ErrInvalidCart, MaxQuantity)
	ErrAmountOverflow  = fmt.Errorf("%w: total is too large", ErrInvalidCart)
	ErrUnknownShipping = fmt.Errorf("%w: unknown shipping option", ErrInvalidCart)
	ErrEmptyCart       = fmt.Errorf("%w: no items", ErrInvalidCart)
)

type SKU struct {
	ID         string            `json:"id" toml:"id"`
	Product    string            `json:"product" toml:"-"`
	Price      int64             `json:"price" toml:"price"`
	Attributes map[string]string `json:"attributes,omitempty" toml:"attributes"`
}

type Product struct {
	ID          string   `json:"id" toml:"id"`
	Name        string   `json:"name" toml:"name"`
	Description string   `json:"description,omitempty" toml:"description"`
	Attributes  []string `json:"attributes,omitempty" toml:"attributes"`
	Image       string   `json:"-" toml:"image"`
	ImageURL    string   `json:"image_url,omitempty" toml:"-"`
	SKUs        []SKU    `json:"skus" toml:"skus"`
}

type ShippingOption struct {
	ID     string `json:"id" toml:"id"`
	Label  string `json:"label" toml:"label"`
	Detail string `json:"detail" toml:"detail"`
	Amount int64  `json:"amount" toml:"amount"`
}

type file struct {
	Products []Product        `toml:"products"`
	Shipping []ShippingOption `toml:"shipping"`
}

// Catalog is the static product and shipping table. It is loaded once at
// startup and never mutated afterwards.
type Catalog struct {
	products []Product
	byID     map[string]int
	skus     map[string]SKU
	shipping []ShippingOption
}

// Default loads the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return Load(defaultCatalog)
}

// LoadFile reads a TOML catalog from path.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("inventory: read catalog: %w", err)
	}
	return Load(data)
}

func Load(data []byte) (*Catalog, error) {
	var f file
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("inventory: decode catalog: %w", err)
	}

	c := &Catalog{
		byID: make(map[string]int, len(f.Products)),
		skus: make(map[string]SKU),
	}

	for _, p := range f.Products {
		if p.ID == "" {
			return nil, fmt.Errorf("inventory: product without id (%q)", p.Name)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("inventory: duplicate product %q", p.ID)
		}
		for i := range p.SKUs {
			sku := &p.SKUs[i]
			sku.Product = p.ID
			if sku.Price < 0 {
				return nil, fmt.Errorf("inventory: sku %q has a negative price", sku.ID)
			}
			if _, dup := c.skus[sku.ID]; dup {
				return nil, fmt.Errorf("inventory: duplicate sku %q", sku.ID)
			}
			c.skus[sku.ID] = *sku
		}
		c.byID[p.ID] = len(c.products)
		c.products = append(c.products, p)
	}

	seen := make(map[string]bool, len(f.Shipping))
	for _, o := range f.Shipping {
		key := strings.ToLower(o.ID)
		if seen[key] {
			return nil, fmt.Errorf("inventory: duplicate shipping option %q", o.ID)
		}
		seen[key] = true
	}
	c.shipping = f.Shipping

	return c, nil
}

// WithImages resolves every product image through resolver. Products whose
// image cannot be resolved keep an empty URL.
func (c *Catalog) WithImages(resolver ImageResolver) *Catalog {
	for i := range c.products {
		p := &c.products[i]
		if p.Image == "" {
			continue
		}
		url, err := resolver.URL(p.Image)
		if err != nil {
			continue
		}
		p.ImageURL = url
	}
	return c
}

func (c *Catalog) Products() []Product {
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

func (c *Catalog) Product(id string) (Product, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Product{}, false
	}
	return c.products[i], true
}

func (c *Catalog) SKUs(productID string) ([]SKU, bool) {
	p, ok := c.Product(productID)
	if !ok {
		return nil, false
	}
	out := make([]SKU, len(p.SKUs))
	copy(out, p.SKUs)
	return out, true
}

func (c *Catalog) SKU(id string) (SKU, bool) {
	sku, ok := c.skus[id]
	return sku, ok
}

// ProductIDs lists the ids every seeded provider account must carry.
func (c *Catalog) ProductIDs() []string {
	ids := make([]string, len(c.products))
	for i, p := range c.products {
		ids[i] = p.ID
	}
	return ids
}

func (c *Catalog) ShippingOptions() []ShippingOption {
	out := make([]ShippingOption, len(c.shipping))
	copy(out, c.shipping)
	return out
}

// ShippingCost looks the option up ignoring case.
func (c *Catalog) ShippingCost(id string) (int64, error) {
	id = strings.TrimSpace(id)
	for _, o := range c.shipping {
		if strings.EqualFold(o.ID, id) {
			return o.Amount, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownShipping, id)
}

package inventory

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Default()
	require.NoError(t, err)
	return c
}

func TestDefaultCatalog(t *testing.T) {
	c := mustCatalog(t)

	assert.Equal(t, []string{"increment", "shirt", "pins"}, c.ProductIDs())

	sku, ok := c.SKU("pins-collector")
	require.True(t, ok)
	assert.Equal(t, int64(799), sku.Price)
	assert.Equal(t, "pins", sku.Product)
	assert.Equal(t, "Collector Set", sku.Attributes["set"])

	skus, ok := c.SKUs("shirt")
	require.True(t, ok)
	require.Len(t, skus, 1)
	assert.Equal(t, "shirt-small-woman", skus[0].ID)
}

func TestCartUsesCatalogPrices(t *testing.T) {
	c := mustCatalog(t)

	cart, err := c.Cart([]Item{
		{Parent: "shirt-small-woman", Quantity: 2},
		{Parent: "increment-03", Quantity: 1},
	})
	require.NoError(t, err)

	total, err := cart.Total()
	require.NoError(t, err)
	assert.Equal(t, int64(999*2+399), total)
	assert.Equal(t, "Woman", cart[0].Attributes["gender"])
}

func TestCartRejectsBadLines(t *testing.T) {
	c := mustCatalog(t)

	_, err := c.Cart(nil)
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = c.Cart([]Item{{Parent: "mug", Quantity: 1}})
	assert.ErrorIs(t, err, ErrUnknownSKU)
	assert.ErrorIs(t, err, ErrInvalidCart)

	_, err = c.Cart([]Item{{Parent: "pins-collector", Quantity: 0}})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = c.Cart([]Item{{Parent: "pins-collector", Quantity: MaxQuantity + 1}})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestCartTotalNeverWraps(t *testing.T) {
	// 799 * 4686719708339222751 wraps to exactly 1 in int64 arithmetic
	cart := Cart{{CatalogID: "pins-collector", UnitPrice: 799, Quantity: 4686719708339222751}}
	_, err := cart.Total()
	assert.ErrorIs(t, err, ErrAmountOverflow)
	assert.ErrorIs(t, err, ErrInvalidCart)

	cart = Cart{
		{CatalogID: "a", UnitPrice: math.MaxInt64 - 10, Quantity: 1},
		{CatalogID: "b", UnitPrice: 11, Quantity: 1},
	}
	_, err = cart.Total()
	assert.ErrorIs(t, err, ErrAmountOverflow)

	c := mustCatalog(t)
	amount, err := c.Amount([]Item{{Parent: "pins-collector", Quantity: MaxQuantity}}, "express")
	require.NoError(t, err)
	assert.Equal(t, int64(799*MaxQuantity+500), amount)
}

func TestShippingCostCaseInsensitive(t *testing.T) {
	c := mustCatalog(t)

	cost, err := c.ShippingCost("EXPRESS")
	require.NoError(t, err)
	assert.Equal(t, int64(500), cost)

	_, err = c.ShippingCost("overnight")
	assert.ErrorIs(t, err, ErrUnknownShipping)
}

func TestAmountWithShippingChange(t *testing.T) {
	c := mustCatalog(t)
	items := []Item{{Parent: "pins-collector", Quantity: 1}}

	free, err := c.Amount(items, "free")
	require.NoError(t, err)
	express, err := c.Amount(items, "express")
	require.NoError(t, err)

	assert.Equal(t, int64(799), free)
	assert.Equal(t, free+500, express)
}

func TestLoadRejectsDuplicates(t *testing.T) {
	_, err := Load([]byte(`
[[products]]
id = "a"
[[products]]
id = "a"
`))
	assert.Error(t, err)

	_, err = Load([]byte(`
[[shipping]]
id = "free"
[[shipping]]
id = "FREE"
`))
	assert.Error(t, err)
}

func TestStaticImages(t *testing.T) {
	c := mustCatalog(t).WithImages(StaticImages{Prefix: "/images/"})

	p, ok := c.Product("shirt")
	require.True(t, ok)
	assert.Equal(t, "/images/products/shirt.png", p.ImageURL)
}

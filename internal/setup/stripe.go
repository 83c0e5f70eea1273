package setup

import (
	"context"
	"errors"
	"strings"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"

	"storefront/internal/inventory"
)

// StripePublisher creates products and prices. Prices are found again by a
// lookup key of the form "<sku>_<currency>".
type StripePublisher struct {
	api *client.API
}

func NewStripePublisher(api *client.API) *StripePublisher {
	return &StripePublisher{api: api}
}

func (p *StripePublisher) ProductExists(ctx context.Context, id string) (bool, error) {
	params := &stripe.ProductParams{}
	params.Context = ctx

	_, err := p.api.Products.Get(id, params)
	if err == nil {
		return true, nil
	}
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeResourceMissing {
		return false, nil
	}
	return false, err
}

func (p *StripePublisher) PublishProduct(ctx context.Context, product inventory.Product) error {
	params := &stripe.ProductParams{
		ID:   stripe.String(product.ID),
		Name: stripe.String(product.Name),
	}
	if product.Description != "" {
		params.Description = stripe.String(product.Description)
	}
	if product.ImageURL != "" && strings.HasPrefix(product.ImageURL, "https://") {
		params.Images = stripe.StringSlice([]string{product.ImageURL})
	}
	if len(product.Attributes) > 0 {
		params.AddMetadata("attributes", strings.Join(product.Attributes, ","))
	}
	params.Context = ctx

	_, err := p.api.Products.New(params)
	return ignoreExisting(err)
}

func (p *StripePublisher) PublishSKU(ctx context.Context, sku inventory.SKU, currency string) error {
	key := sku.ID + "_" + strings.ToLower(currency)

	list := &stripe.PriceListParams{LookupKeys: stripe.StringSlice([]string{key})}
	list.Context = ctx
	iter := p.api.Prices.List(list)
	if iter.Next() {
		return nil
	}
	if err := iter.Err(); err != nil {
		return err
	}

	params := &stripe.PriceParams{
		Product:    stripe.String(sku.Product),
		Currency:   stripe.String(strings.ToLower(currency)),
		UnitAmount: stripe.Int64(sku.Price),
		LookupKey:  stripe.String(key),
	}
	params.AddMetadata("sku", sku.ID)
	for k, v := range sku.Attributes {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	_, err := p.api.Prices.New(params)
	return ignoreExisting(err)
}

func ignoreExisting(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeResourceAlreadyExists {
		return nil
	}
	return err
}

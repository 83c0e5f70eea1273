// Package setup publishes the local catalog to the payment provider once per
// process so the provider dashboard shows the same products.
package setup

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"storefront/internal/inventory"
)

type Publisher interface {
	ProductExists(ctx context.Context, id string) (bool, error)
	PublishProduct(ctx context.Context, product inventory.Product) error
	PublishSKU(ctx context.Context, sku inventory.SKU, currency string) error
}

type Seeder struct {
	publisher Publisher
	catalog   *inventory.Catalog
	currency  string
	logger    *zap.SugaredLogger

	group singleflight.Group
	done  atomic.Bool
}

func NewSeeder(publisher Publisher, catalog *inventory.Catalog, currency string, logger *zap.SugaredLogger) *Seeder {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Seeder{publisher: publisher, catalog: catalog, currency: currency, logger: logger}
}

func (s *Seeder) Done() bool { return s.done.Load() }

// EnsureSeeded publishes the catalog unless that already happened. Concurrent
// callers share a single run; a failed run is retried by the next caller.
// The run is not cut short when the caller's context is canceled.
func (s *Seeder) EnsureSeeded(ctx context.Context) error {
	if s.done.Load() {
		return nil
	}
	_, err, _ := s.group.Do("seed", func() (any, error) {
		if s.done.Load() {
			return nil, nil
		}
		if err := s.seed(context.WithoutCancel(ctx)); err != nil {
			return nil, err
		}
		s.done.Store(true)
		return nil, nil
	})
	return err
}

func (s *Seeder) seed(ctx context.Context) error {
	exist, err := ExpectedProductsExist(ctx, s.publisher, s.catalog.ProductIDs())
	if err != nil {
		return fmt.Errorf("setup: check products: %w", err)
	}
	if exist {
		s.logger.Debugw("catalog already published")
		return nil
	}

	for _, p := range s.catalog.Products() {
		if err := s.publisher.PublishProduct(ctx, p); err != nil {
			return fmt.Errorf("setup: publish product %s: %w", p.ID, err)
		}
		for _, sku := range p.SKUs {
			if err := s.publisher.PublishSKU(ctx, sku, s.currency); err != nil {
				return fmt.Errorf("setup: publish sku %s: %w", sku.ID, err)
			}
		}
	}
	s.logger.Infow("catalog published", "products", len(s.catalog.ProductIDs()), "currency", s.currency)
	return nil
}

// ExpectedProductsExist reports whether every id is already known to the
// provider.
func ExpectedProductsExist(ctx context.Context, publisher Publisher, ids []string) (bool, error) {
	for _, id := range ids {
		ok, err := publisher.ProductExists(ctx, id)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

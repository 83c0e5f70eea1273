package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// seedCatalog publishes the catalog to the provider the first time products
// are listed. Failures are logged and retried on the next request; the local
// catalog is served either way.
func (app *application) seedCatalog(ctx context.Context) {
	if app.seeder == nil || app.seeder.Done() {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	if err := app.seeder.EnsureSeeded(ctx); err != nil {
		app.logger.Errorw("catalog seeding failed", "error", err)
	}
}

// listProductsHandler godoc
//
//	@Summary		List products
//	@Description	All products of the catalog with their SKUs.
//	@Tags			products
//	@Produce		json
//	@Success		200	{array}	inventory.Product
//	@Router			/products [get]
func (app *application) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	app.seedCatalog(r.Context())

	if err := app.jsonResponse(w, http.StatusOK, app.catalog.Products()); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getProductHandler godoc
//
//	@Summary		Get product
//	@Tags			products
//	@Produce		json
//	@Param			productID	path		string	true	"Product ID"
//	@Success		200			{object}	inventory.Product
//	@Failure		404			{object}	error
//	@Router			/products/{productID} [get]
func (app *application) getProductHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productID")

	product, ok := app.catalog.Product(id)
	if !ok {
		app.notFoundResponse(w, r, fmt.Errorf("product %q not found", id))
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, product); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getProductSKUsHandler godoc
//
//	@Summary		List product SKUs
//	@Tags			products
//	@Produce		json
//	@Param			productID	path	string	true	"Product ID"
//	@Success		200			{array}	inventory.SKU
//	@Failure		404			{object}	error
//	@Router			/products/{productID}/skus [get]
func (app *application) getProductSKUsHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productID")

	skus, ok := app.catalog.SKUs(id)
	if !ok {
		app.notFoundResponse(w, r, fmt.Errorf("product %q not found", id))
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, skus); err != nil {
		app.internalServerError(w, r, err)
	}
}

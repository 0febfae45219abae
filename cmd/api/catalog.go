package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"paginaflex/internal/domain/accounts"
	"paginaflex/internal/domain/catalog"
	"paginaflex/internal/filters"
	"paginaflex/internal/params"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

const catalogPageSize = 24

type productView struct {
	catalog.Product
	DiscountedPrice decimal.Decimal `json:"discounted_price"`
}

type productListResponse struct {
	Products   []productView                  `json:"products"`
	Filters    []filters.Filter               `json:"filters"`
	Categories []catalog.CategoryWithChildren `json:"categories"`
	Discount   decimal.Decimal                `json:"discount"`
	Pagination params.Pagination              `json:"pagination"`
}

// clientDiscount is the caller's discount percentage, zero for users
// without a client profile.
func (app *application) clientDiscount(ctx context.Context, user *accounts.User) (decimal.Decimal, error) {
	profile, err := app.store.Accounts.GetClientProfile(ctx, user.ID)
	if err != nil {
		if errors.Is(err, accounts.ErrNoClientProfile) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return profile.Discount, nil
}

func (app *application) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	sel := filters.ParseSelection(q)
	pg := params.ParsePage(q, catalogPageSize)

	discount, err := app.clientDiscount(ctx, getUserFromContext(r))
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	products, total, err := app.filters.Products(ctx, sel, pg.Limit, pg.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	pg.ComputeMeta(total)

	visible, err := app.filters.VisibleFilters(ctx, sel)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	tree, err := app.store.Catalog.ListCategoryTree(ctx)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	resp := productListResponse{
		Products:   make([]productView, 0, len(products)),
		Filters:    visible,
		Categories: tree,
		Discount:   discount,
		Pagination: pg,
	}
	for _, p := range products {
		resp.Products = append(resp.Products, productView{
			Product:         p,
			DiscountedPrice: catalog.DiscountedPrice(p.Price, discount),
		})
	}

	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) getProductHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := params.ParseID(chi.URLParam(r, "productID"))
	if !ok {
		app.badRequestResponse(w, r, fmt.Errorf("invalid product id"))
		return
	}

	p, err := app.store.Catalog.GetProductDetail(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrProductNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	discount, err := app.clientDiscount(r.Context(), getUserFromContext(r))
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	resp := struct {
		*catalog.ProductDetail
		DiscountedPrice decimal.Decimal `json:"discounted_price"`
		Discount        decimal.Decimal `json:"discount"`
	}{
		ProductDetail:   p,
		DiscountedPrice: catalog.DiscountedPrice(p.Price, discount),
		Discount:        discount,
	}

	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) listCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	tree, err := app.store.Catalog.ListCategoryTree(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, tree); err != nil {
		app.internalServerError(w, r, err)
	}
}

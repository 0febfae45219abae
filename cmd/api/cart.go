package main

import (
	"errors"
	"fmt"
	"net/http"

	"paginaflex/internal/domain/carts"
	"paginaflex/internal/domain/catalog"
	"paginaflex/internal/params"

	"github.com/go-chi/chi/v5"
)

type addCartItemPayload struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"omitempty,gt=0,lte=10000"`
}

type updateCartItemPayload struct {
	Quantity int `json:"quantity" validate:"lte=10000"`
}

// respondCart writes the cart priced with the caller's discount.
func (app *application) respondCart(w http.ResponseWriter, r *http.Request, c *carts.Cart) {
	discount, err := app.clientDiscount(r.Context(), getUserFromContext(r))
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, c.View(discount)); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) getCartHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	c, err := app.carts.Get(r.Context(), user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	app.respondCart(w, r, c)
}

func (app *application) addCartItemHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	var payload addCartItemPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if payload.Quantity == 0 {
		payload.Quantity = 1
	}

	found, err := app.store.Catalog.GetProductsByIDs(r.Context(), []int64{payload.ProductID})
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if len(found) == 0 || !found[0].IsActive {
		app.notFoundResponse(w, r, catalog.ErrProductNotFound)
		return
	}
	p := found[0]

	c, err := app.carts.Get(r.Context(), user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	item := carts.Item{ProductID: p.ID, SKU: p.SKU, Name: p.Name, UnitPrice: p.Price}
	if err := c.Add(item, payload.Quantity); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := app.carts.Save(r.Context(), c); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.respondCart(w, r, c)
}

func (app *application) updateCartItemHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	productID, ok := params.ParseID(chi.URLParam(r, "productID"))
	if !ok {
		app.badRequestResponse(w, r, fmt.Errorf("invalid product id"))
		return
	}

	var payload updateCartItemPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	c, err := app.carts.Get(r.Context(), user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if err := c.SetQuantity(productID, payload.Quantity); err != nil {
		if errors.Is(err, carts.ErrItemNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.badRequestResponse(w, r, err)
		return
	}
	if err := app.carts.Save(r.Context(), c); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.respondCart(w, r, c)
}

func (app *application) removeCartItemHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	productID, ok := params.ParseID(chi.URLParam(r, "productID"))
	if !ok {
		app.badRequestResponse(w, r, fmt.Errorf("invalid product id"))
		return
	}

	c, err := app.carts.Get(r.Context(), user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if err := c.Remove(productID); err != nil {
		app.notFoundResponse(w, r, err)
		return
	}
	if err := app.carts.Save(r.Context(), c); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.respondCart(w, r, c)
}

func (app *application) clearCartHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	if err := app.carts.Clear(r.Context(), user.ID); err != nil {
		app.internalServerError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package main

import (
	"errors"
	"net/http"

	"paginaflex/internal/domain/accounts"
	"paginaflex/internal/domain/orders"
	"paginaflex/internal/mailer"
	"paginaflex/internal/params"

	"github.com/go-chi/chi/v5"
)

type createOrderPayload struct {
	Note string `json:"note" validate:"max=1000"`
}

type updateOrderStatusPayload struct {
	Status       orders.Status `json:"status" validate:"required"`
	InternalNote *string       `json:"internal_note" validate:"omitempty,max=2000"`
}

func (app *application) createOrderHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	var payload createOrderPayload
	if r.ContentLength != 0 {
		if err := readJSON(w, r, &payload); err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx := r.Context()
	cart, err := app.carts.Get(ctx, user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	placed, err := app.store.PlaceOrder(ctx, user.ID, cart, payload.Note)
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrEmptyCart), errors.Is(err, accounts.ErrNoClientProfile):
			app.badRequestResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.carts.Clear(ctx, user.ID); err != nil {
		// the order exists, a stale cart is only an annoyance
		app.logger.Errorw("failed to clear cart after order", "user_id", user.ID, "order_id", placed.Order.ID, "error", err)
	}

	app.logger.Infow("order placed", "user_id", user.ID, "order_id", placed.Order.ID, "number", placed.Order.Number, "total", placed.Order.Total)
	app.sendOrderConfirmation(user, placed)

	if err := app.jsonResponse(w, http.StatusCreated, placed); err != nil {
		app.internalServerError(w, r, err)
	}
}

// sendOrderConfirmation mails the client in the background. Failures are
// only logged.
func (app *application) sendOrderConfirmation(user *accounts.User, d *orders.Detail) {
	if app.mailer == nil || user.Email == "" {
		return
	}

	data := mailer.OrderConfirmation{
		Username: user.Username,
		Number:   d.Order.Number,
		Note:     d.Order.Note,
		Subtotal: d.Order.Subtotal,
		Discount: d.Order.Discount,
		Total:    d.Order.Total,
	}
	for _, it := range d.Items {
		data.Items = append(data.Items, mailer.OrderLine{
			SKU: it.SKU, Name: it.Name, Quantity: it.Quantity, UnitPrice: it.UnitPrice,
		})
	}

	app.background(func() {
		status, err := app.mailer.Send(mailer.OrderConfirmationTemplate, user.Username, user.Email, data)
		if err != nil {
			app.logger.Errorw("error sending order confirmation", "order_id", d.Order.ID, "email", user.Email, "error", err)
			return
		}
		app.logger.Infow("order confirmation sent", "order_id", d.Order.ID, "status", status)
	})
}

func (app *application) listOrdersHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	q := r.URL.Query()

	pg := params.ParsePage(q, orders.PageSize)
	f := orders.ListFilter{Status: orders.Status(q.Get("status"))}
	if f.Status != "" && !f.Status.Valid() {
		app.badRequestResponse(w, r, orders.ErrInvalidStatus)
		return
	}
	if !user.IsAdmin() {
		f.UserID = user.ID
	}

	list, total, err := app.store.Orders.List(r.Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	pg.ComputeMeta(total)
	if list == nil {
		list = []orders.Order{}
	}

	resp := struct {
		Orders     []orders.Order    `json:"orders"`
		Pagination params.Pagination `json:"pagination"`
	}{list, pg}

	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

// orderIDParam accepts either the numeric id or the public order number.
func (app *application) orderIDParam(r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "orderID")
	if id, ok := params.ParseID(raw); ok {
		return id, true
	}
	id, err := app.store.Numbers().Decode(raw)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (app *application) getOrderHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	id, ok := app.orderIDParam(r)
	if !ok {
		app.notFoundResponse(w, r, orders.ErrOrderNotFound)
		return
	}

	d, err := app.store.Orders.GetDetail(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrOrderNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	// clients only see their own orders
	if !user.IsAdmin() && d.Order.UserID != user.ID {
		app.notFoundResponse(w, r, orders.ErrOrderNotFound)
		return
	}
	if !user.IsAdmin() {
		d.Order.InternalNote = ""
	}

	if err := app.jsonResponse(w, http.StatusOK, d); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) updateOrderStatusHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := app.orderIDParam(r)
	if !ok {
		app.notFoundResponse(w, r, orders.ErrOrderNotFound)
		return
	}

	var payload updateOrderStatusPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if !payload.Status.Valid() {
		app.badRequestResponse(w, r, orders.ErrInvalidStatus)
		return
	}

	if err := app.store.Orders.UpdateStatus(r.Context(), id, payload.Status, payload.InternalNote); err != nil {
		switch {
		case errors.Is(err, orders.ErrOrderNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.logger.Infow("order status changed", "order_id", id, "status", payload.Status, "by", getUserFromContext(r).ID)
	w.WriteHeader(http.StatusNoContent)
}

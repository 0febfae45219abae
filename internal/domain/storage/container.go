package storage

import (
	"context"
	"fmt"

	"paginaflex/internal/domain/accounts"
	"paginaflex/internal/domain/carts"
	"paginaflex/internal/domain/catalog"
	"paginaflex/internal/domain/imports"
	"paginaflex/internal/domain/orders"
	"paginaflex/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Container struct {
	pool     *pgxpool.Pool // WithTx needs it
	numbers  *orders.NumberGenerator
	Catalog  catalog.Store
	Accounts accounts.Store
	Imports  imports.Store
	Orders   orders.Store
}

func NewContainer(db *pgxpool.Pool, numbers *orders.NumberGenerator) *Container {
	c := &Container{pool: db, numbers: numbers}
	c.bind(db)
	return c
}

func (c *Container) bind(q dbx.Querier) {
	c.Catalog = catalog.NewRepository(q)
	c.Accounts = accounts.NewRepository(q)
	c.Imports = imports.NewRepository(q)
	c.Orders = orders.NewRepository(q, c.numbers)
}

// Numbers exposes the order number generator for lookups by public number.
func (c *Container) Numbers() *orders.NumberGenerator {
	return c.numbers
}

// WithTx runs fn against a copy of the container whose repositories share
// one transaction. The transaction commits only when fn returns nil.
func (c *Container) WithTx(ctx context.Context, fn func(tx *Container) error) error {
	if c.pool == nil {
		return fmt.Errorf("storage container pool is nil")
	}

	tx, err := c.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx) // no-op after commit
	}()

	scoped := &Container{numbers: c.numbers}
	scoped.bind(tx)

	if err := fn(scoped); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// PlaceOrder turns the cart into an order priced with the client's
// discount. The caller clears the cart once this succeeds.
func (c *Container) PlaceOrder(ctx context.Context, userID int64, cart *carts.Cart, note string) (*orders.Detail, error) {
	if cart == nil || cart.Empty() {
		return nil, orders.ErrEmptyCart
	}

	var placed *orders.Detail
	err := c.WithTx(ctx, func(tx *Container) error {
		profile, err := tx.Accounts.GetClientProfile(ctx, userID)
		if err != nil {
			return err
		}
		d, err := orders.FromCart(userID, cart, profile.Discount, note)
		if err != nil {
			return err
		}
		if err := tx.Orders.Create(ctx, d); err != nil {
			return err
		}
		placed = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return placed, nil
}

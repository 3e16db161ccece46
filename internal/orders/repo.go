package orders

import (
	"context"
	"errors"

	"github.com/ariefcatur/go-sales-orders/internal/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

const orderColumns = `id, customer_name, subtotal, tax, total, created_at`

const itemColumns = `id, order_id, product_id, product_name, variant_id, qty, unit_price, total_price`

// Insert writes o and its items in one transaction and fills in the
// generated ids.
func (r *Repo) Insert(ctx context.Context, o *Order) error {
	return postgres.WithTx(ctx, r.DB, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO orders(customer_name, subtotal, tax, total, created_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, o.CustomerName, o.Subtotal, o.Tax, o.Total, o.CreatedAt).Scan(&o.ID)
		if err != nil {
			return err
		}

		for i := range o.Items {
			it := &o.Items[i]
			it.OrderID = o.ID
			err := tx.QueryRow(ctx, `
				INSERT INTO order_items(order_id, product_id, product_name, variant_id, qty, unit_price, total_price)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				RETURNING id`,
				o.ID, it.ProductID, it.ProductName, it.VariantID, it.Qty, it.UnitPrice, it.TotalPrice,
			).Scan(&it.ID)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// List loads every order newest first, then their items in a second query.
func (r *Repo) List(ctx context.Context) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Order{}
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.CustomerName, &o.Subtotal, &o.Tax, &o.Total, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	ids := make([]int64, len(out))
	for i, o := range out {
		ids[i] = o.ID
	}
	items, err := r.itemsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Items = items[out[i].ID]
	}
	return out, nil
}

func (r *Repo) Get(ctx context.Context, id int64) (Order, error) {
	var o Order
	err := r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id).
		Scan(&o.ID, &o.CustomerName, &o.Subtotal, &o.Tax, &o.Total, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}
	items, err := r.itemsFor(ctx, []int64{id})
	if err != nil {
		return Order{}, err
	}
	o.Items = items[id]
	return o, nil
}

// Delete locks the order row, then removes its items and the order.
func (r *Repo) Delete(ctx context.Context, id int64) error {
	return postgres.WithTx(ctx, r.DB, func(tx pgx.Tx) error {
		var found int64
		err := tx.QueryRow(ctx, `SELECT id FROM orders WHERE id=$1 FOR UPDATE`, id).Scan(&found)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id=$1`, id); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `DELETE FROM orders WHERE id=$1`, id)
		return err
	})
}

func (r *Repo) SetItemNames(ctx context.Context, names map[int64]string) error {
	if len(names) == 0 {
		return nil
	}
	return postgres.WithTx(ctx, r.DB, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for id, name := range names {
			batch.Queue(`UPDATE order_items SET product_name=$2 WHERE id=$1 AND (product_name IS NULL OR product_name = '')`, id, name)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

func (r *Repo) itemsFor(ctx context.Context, orderIDs []int64) (map[int64][]OrderItem, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+itemColumns+` FROM order_items WHERE order_id = ANY($1) ORDER BY id`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[int64][]OrderItem{}
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.VariantID, &it.Qty, &it.UnitPrice, &it.TotalPrice); err != nil {
			return nil, err
		}
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	return out, rows.Err()
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/database/postgres"
	invrepo "github.com/fekuna/omnipos-inventory-service/internal/inventory/repository"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/order"
	"github.com/fekuna/omnipos-inventory-service/internal/order/dto"
	"github.com/jmoiron/sqlx"
)

const orderColumns = `id, order_number, customer_id, created_by_id, status, payment_status, subtotal,
    tax_percentage, tax_amount, shipping_cost, discount_amount, discount_justification, total, notes,
    created_at, updated_at`

const itemColumns = `id, order_id, product_id, quantity, unit_price, subtotal, product_name, product_sku`

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) RunInTx(ctx context.Context, fn func(ctx context.Context, tx order.TxRepository) error) error {
	return postgres.InTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		return fn(ctx, &PGTx{PGTx: invrepo.NewPGTx(tx)})
	})
}

func (r *PGRepository) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	var o model.Order
	err := r.DB.GetContext(ctx, &o, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if err := r.DB.SelectContext(ctx, &o.Items, "SELECT "+itemColumns+" FROM order_items WHERE order_id = $1 ORDER BY product_id", id); err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	query := `SELECT id, order_id, changed_by_id, status, notes, created_at
        FROM order_status_history WHERE order_id = $1 ORDER BY created_at, id`
	if err := r.DB.SelectContext(ctx, &o.StatusHistory, query, id); err != nil {
		return nil, fmt.Errorf("get order history: %w", err)
	}
	return &o, nil
}

func (r *PGRepository) ListOrders(ctx context.Context, f *dto.OrderFilters) ([]model.Order, int, error) {
	var items []model.Order
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.CustomerID != "" {
		conditions = append(conditions, "customer_id = :customer_id")
		args["customer_id"] = f.CustomerID
	}
	if f.Status != "" {
		conditions = append(conditions, "status = :status")
		args["status"] = f.Status
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery, countArgs, err := sqlx.Named("SELECT count(*) FROM orders"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if err := r.DB.GetContext(ctx, &count, r.DB.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	query := "SELECT " + orderColumns + " FROM orders" + whereClause + " ORDER BY created_at DESC, order_number DESC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		if offset < 0 {
			offset = 0
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	if err := nstmt.SelectContext(ctx, &items, args); err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	if err := r.attachItems(ctx, items); err != nil {
		return nil, 0, err
	}
	return items, count, nil
}

func (r *PGRepository) attachItems(ctx context.Context, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	index := make(map[string]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
	}
	query, args, err := sqlx.In("SELECT "+itemColumns+" FROM order_items WHERE order_id IN (?) ORDER BY product_id", ids)
	if err != nil {
		return err
	}
	var items []model.OrderItem
	if err := r.DB.SelectContext(ctx, &items, r.DB.Rebind(query), args...); err != nil {
		return fmt.Errorf("list order items: %w", err)
	}
	for _, item := range items {
		i := index[item.OrderID]
		orders[i].Items = append(orders[i].Items, item)
	}
	return nil
}

func (r *PGRepository) GetProducts(ctx context.Context, ids []string) (map[string]model.Product, error) {
	out := make(map[string]model.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(postgres.ProductSelect+" WHERE p.id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	var products []model.Product
	if err := r.DB.SelectContext(ctx, &products, r.DB.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

// PGTx adds the order tables to the stock write surface of one transaction.
type PGTx struct {
	*invrepo.PGTx
}

func (t *PGTx) GetCustomer(ctx context.Context, id string) (*model.Customer, error) {
	var c model.Customer
	err := t.Tx.GetContext(ctx, &c, "SELECT id, full_name, is_active FROM customers WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return &c, nil
}

func (t *PGTx) NextOrderNumber(ctx context.Context, day string) (int, error) {
	query := `
        INSERT INTO order_sequences (day, last_value) VALUES ($1, 1)
        ON CONFLICT (day) DO UPDATE SET last_value = order_sequences.last_value + 1
        RETURNING last_value
    `
	var next int
	if err := t.Tx.GetContext(ctx, &next, query, day); err != nil {
		return 0, fmt.Errorf("next order number: %w", err)
	}
	return next, nil
}

func (t *PGTx) CreateOrder(ctx context.Context, o *model.Order) error {
	query := `
        INSERT INTO orders (` + orderColumns + `)
        VALUES (:id, :order_number, :customer_id, :created_by_id, :status, :payment_status, :subtotal,
            :tax_percentage, :tax_amount, :shipping_cost, :discount_amount, :discount_justification, :total, :notes,
            :created_at, :updated_at)
    `
	if _, err := t.Tx.NamedExecContext(ctx, query, o); err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	itemQuery := `
        INSERT INTO order_items (` + itemColumns + `)
        VALUES (:id, :order_id, :product_id, :quantity, :unit_price, :subtotal, :product_name, :product_sku)
    `
	for i := range o.Items {
		if _, err := t.Tx.NamedExecContext(ctx, itemQuery, &o.Items[i]); err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}
	return nil
}

func (t *PGTx) LockOrder(ctx context.Context, id string) (*model.Order, error) {
	var o model.Order
	err := t.Tx.GetContext(ctx, &o, "SELECT "+orderColumns+" FROM orders WHERE id = $1 FOR UPDATE", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock order: %w", err)
	}
	if err := t.Tx.SelectContext(ctx, &o.Items, "SELECT "+itemColumns+" FROM order_items WHERE order_id = $1 ORDER BY product_id", id); err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	return &o, nil
}

func (t *PGTx) SaveOrderStatus(ctx context.Context, id string, status model.OrderStatus, at time.Time) error {
	res, err := t.Tx.ExecContext(ctx, "UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3", status, at, id)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update order status: order %s not found", id)
	}
	return nil
}

func (t *PGTx) AppendStatusHistory(ctx context.Context, h *model.OrderStatusHistory) error {
	query := `
        INSERT INTO order_status_history (id, order_id, changed_by_id, status, notes, created_at)
        VALUES (:id, :order_id, :changed_by_id, :status, :notes, :created_at)
    `
	if _, err := t.Tx.NamedExecContext(ctx, query, h); err != nil {
		return fmt.Errorf("failed to append status history: %w", err)
	}
	return nil
}

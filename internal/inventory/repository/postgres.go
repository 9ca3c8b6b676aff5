package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	alertrepo "github.com/fekuna/omnipos-inventory-service/internal/alert/repository"
	"github.com/fekuna/omnipos-inventory-service/internal/database/postgres"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) RunInTx(ctx context.Context, fn func(ctx context.Context, tx inventory.TxRepository) error) error {
	return postgres.InTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		return fn(ctx, NewPGTx(tx))
	})
}

func (r *PGRepository) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	var p model.Product
	err := r.DB.GetContext(ctx, &p, postgres.ProductSelect+" WHERE p.id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

func (r *PGRepository) ListAtOrBelowReorderPoint(ctx context.Context) ([]model.Product, error) {
	query := postgres.ProductSelect + `
        WHERE p.is_active AND p.stock_quantity <= p.reorder_point
        ORDER BY (p.reorder_point - p.stock_quantity) DESC, p.name`
	var products []model.Product
	if err := r.DB.SelectContext(ctx, &products, query); err != nil {
		return nil, fmt.Errorf("list products at reorder point: %w", err)
	}
	return products, nil
}

func (r *PGRepository) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.InventoryMovement, int, error) {
	var items []model.InventoryMovement
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.ProductID != "" {
		conditions = append(conditions, "product_id = :product_id")
		args["product_id"] = f.ProductID
	}
	if f.MovementType != "" {
		conditions = append(conditions, "movement_type = :movement_type")
		args["movement_type"] = f.MovementType
	}
	if f.UserID != "" {
		conditions = append(conditions, "user_id = :user_id")
		args["user_id"] = f.UserID
	}
	if f.OrderID != "" {
		conditions = append(conditions, "related_order_id = :related_order_id")
		args["related_order_id"] = f.OrderID
	}
	if f.From != nil {
		conditions = append(conditions, "created_at >= :from_date")
		args["from_date"] = *f.From
	}
	if f.To != nil {
		conditions = append(conditions, "created_at <= :to_date")
		args["to_date"] = *f.To
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery, countArgs, err := sqlx.Named("SELECT count(*) FROM inventory_movements"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if err := r.DB.GetContext(ctx, &count, r.DB.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count movements: %w", err)
	}

	query := "SELECT " + postgres.MovementColumns + " FROM inventory_movements" + whereClause + " ORDER BY seq DESC"
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

	err = nstmt.SelectContext(ctx, &items, args)
	return items, count, err
}

func (r *PGRepository) ProductMovements(ctx context.Context, productID string) ([]model.InventoryMovement, error) {
	query := "SELECT " + postgres.MovementColumns + " FROM inventory_movements WHERE product_id = $1 ORDER BY seq"
	var items []model.InventoryMovement
	if err := r.DB.SelectContext(ctx, &items, query, productID); err != nil {
		return nil, fmt.Errorf("product movements: %w", err)
	}
	return items, nil
}

func (r *PGRepository) SumSalesSince(ctx context.Context, productID string, since time.Time) (int, error) {
	query := `
        SELECT COALESCE(SUM(ABS(quantity)), 0) FROM inventory_movements
        WHERE product_id = $1 AND movement_type = $2 AND created_at >= $3
    `
	var total int
	if err := r.DB.GetContext(ctx, &total, query, productID, model.MovementSale, since); err != nil {
		return 0, fmt.Errorf("sum sales: %w", err)
	}
	return total, nil
}

func (r *PGRepository) MovementStatistics(ctx context.Context, from, to *time.Time) ([]dto.MovementStat, error) {
	query := `
        SELECT movement_type, count(*) AS movement_count, COALESCE(SUM(quantity), 0) AS total_quantity
        FROM inventory_movements
        WHERE ($1::timestamptz IS NULL OR created_at >= $1)
          AND ($2::timestamptz IS NULL OR created_at <= $2)
        GROUP BY movement_type
        ORDER BY movement_type
    `
	var stats []dto.MovementStat
	if err := r.DB.SelectContext(ctx, &stats, query, from, to); err != nil {
		return nil, fmt.Errorf("movement statistics: %w", err)
	}
	return stats, nil
}

// PGTx binds the stock write surface, alerts included, to one transaction.
type PGTx struct {
	*alertrepo.PGTx
}

func NewPGTx(tx *sqlx.Tx) *PGTx {
	return &PGTx{PGTx: alertrepo.NewPGTx(tx)}
}

func (t *PGTx) LockProducts(ctx context.Context, ids []string) (map[string]*model.Product, error) {
	locked := make(map[string]*model.Product, len(ids))
	if len(ids) == 0 {
		return locked, nil
	}

	query, args, err := sqlx.In(postgres.ProductSelect+" WHERE p.id IN (?) ORDER BY p.id FOR UPDATE OF p", ids)
	if err != nil {
		return nil, err
	}

	var products []model.Product
	if err := t.Tx.SelectContext(ctx, &products, t.Tx.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("lock products: %w", err)
	}
	for i := range products {
		locked[products[i].ID] = &products[i]
	}
	return locked, nil
}

func (t *PGTx) LockProductsByCategory(ctx context.Context, categoryID string) ([]model.Product, error) {
	query := postgres.ProductSelect + " WHERE p.category_id = $1 AND p.is_active ORDER BY p.id FOR UPDATE OF p"
	var products []model.Product
	if err := t.Tx.SelectContext(ctx, &products, query, categoryID); err != nil {
		return nil, fmt.Errorf("lock category products: %w", err)
	}
	return products, nil
}

func (t *PGTx) SaveStock(ctx context.Context, p *model.Product) error {
	query := `
        UPDATE products SET
            stock_quantity = :stock_quantity,
            reserved_stock = :reserved_stock,
            version = :version,
            stock_last_updated = :stock_last_updated,
            last_updated_by_id = :last_updated_by_id,
            updated_at = :updated_at
        WHERE id = :id
        RETURNING (SELECT full_name FROM users WHERE id = products.last_updated_by_id)
    `
	bound, args, err := t.Tx.BindNamed(query, p)
	if err != nil {
		return err
	}
	var name sql.NullString
	if err := t.Tx.GetContext(ctx, &name, bound, args...); err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}
	p.LastUpdatedByName = nil
	if name.Valid {
		p.LastUpdatedByName = &name.String
	}
	return nil
}

func (t *PGTx) AppendMovement(ctx context.Context, m *model.InventoryMovement) error {
	if _, err := t.Tx.NamedExecContext(ctx, postgres.InsertMovement, m); err != nil {
		return fmt.Errorf("failed to log movement: %w", err)
	}
	return nil
}

func (t *PGTx) UpdateReorderPoint(ctx context.Context, productID string, reorderPoint int, at time.Time) error {
	query := `UPDATE products SET reorder_point = $1, updated_at = $2 WHERE id = $3`
	if _, err := t.Tx.ExecContext(ctx, query, reorderPoint, at, productID); err != nil {
		return fmt.Errorf("update reorder point: %w", err)
	}
	return nil
}

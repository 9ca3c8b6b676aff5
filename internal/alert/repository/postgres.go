package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/alert"
	"github.com/fekuna/omnipos-inventory-service/internal/alert/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/database/postgres"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) RunInTx(ctx context.Context, fn func(ctx context.Context, tx alert.TxRepository) error) error {
	return postgres.InTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		return fn(ctx, NewPGTx(tx))
	})
}

func (r *PGRepository) ListAlerts(ctx context.Context, f *dto.AlertFilters) ([]model.InventoryAlert, int, error) {
	var items []model.InventoryAlert
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.ProductID != "" {
		conditions = append(conditions, "product_id = :product_id")
		args["product_id"] = f.ProductID
	}
	if f.ActiveOnly {
		conditions = append(conditions, "is_active = TRUE")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery, countArgs, err := sqlx.Named("SELECT count(*) FROM inventory_alerts"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if err := r.DB.GetContext(ctx, &count, r.DB.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count alerts: %w", err)
	}

	query := "SELECT * FROM inventory_alerts" + whereClause + " ORDER BY created_at DESC"
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

func (r *PGRepository) Statistics(ctx context.Context, since time.Time) (*dto.AlertStatistics, error) {
	query := `
        SELECT
            (SELECT count(*) FROM inventory_alerts WHERE is_active) AS active_alerts,
            (SELECT count(*) FROM inventory_alerts
                WHERE NOT is_active AND resolved_at >= $1) AS resolved_recent,
            COALESCE((SELECT avg(EXTRACT(EPOCH FROM (resolved_at - created_at)) / 3600)
                FROM inventory_alerts WHERE NOT is_active AND resolved_at >= $1), 0) AS avg_resolution_hours,
            (SELECT count(*) FROM products WHERE is_active AND stock_quantity = 0) AS out_of_stock_products
    `
	var stats dto.AlertStatistics
	if err := r.DB.GetContext(ctx, &stats, query, since); err != nil {
		return nil, fmt.Errorf("alert statistics: %w", err)
	}
	return &stats, nil
}

// PGTx is the alert write surface bound to an open transaction.
type PGTx struct {
	Tx *sqlx.Tx
}

func NewPGTx(tx *sqlx.Tx) *PGTx {
	return &PGTx{Tx: tx}
}

func (t *PGTx) FindActiveAlert(ctx context.Context, productID string, alertType model.AlertType) (*model.InventoryAlert, error) {
	var a model.InventoryAlert
	query := `
        SELECT * FROM inventory_alerts
        WHERE product_id = $1 AND alert_type = $2 AND is_active
        ORDER BY created_at DESC
        LIMIT 1
    `
	err := t.Tx.GetContext(ctx, &a, query, productID, alertType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active alert: %w", err)
	}
	return &a, nil
}

func (t *PGTx) CreateAlert(ctx context.Context, a *model.InventoryAlert) error {
	query := `
        INSERT INTO inventory_alerts (
            id, product_id, alert_type, current_stock, reorder_point, is_active, created_at, resolved_at
        )
        VALUES (
            :id, :product_id, :alert_type, :current_stock, :reorder_point, :is_active, :created_at, :resolved_at
        )
    `
	if _, err := t.Tx.NamedExecContext(ctx, query, a); err != nil {
		return fmt.Errorf("create alert: %w", err)
	}
	return nil
}

func (t *PGTx) ResolveAlerts(ctx context.Context, productID string, alertType model.AlertType, at time.Time) (int, error) {
	query := `
        UPDATE inventory_alerts
        SET is_active = FALSE, resolved_at = $1
        WHERE product_id = $2 AND alert_type = $3 AND is_active
    `
	res, err := t.Tx.ExecContext(ctx, query, at, productID, alertType)
	if err != nil {
		return 0, fmt.Errorf("resolve alerts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (t *PGTx) ListZeroStockWithoutAlert(ctx context.Context) ([]model.Product, error) {
	query := `
        SELECT p.* FROM products p
        WHERE p.is_active AND p.stock_quantity = 0
          AND NOT EXISTS (
            SELECT 1 FROM inventory_alerts a
            WHERE a.product_id = p.id AND a.alert_type = $1 AND a.is_active
          )
        ORDER BY p.id
        FOR UPDATE OF p
    `
	var products []model.Product
	if err := t.Tx.SelectContext(ctx, &products, query, model.AlertOutOfStock); err != nil {
		return nil, fmt.Errorf("list zero stock products: %w", err)
	}
	return products, nil
}

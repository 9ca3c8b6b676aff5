package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-inventory-service/internal/database/postgres"
	invrepo "github.com/fekuna/omnipos-inventory-service/internal/inventory/repository"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/product"
	"github.com/fekuna/omnipos-inventory-service/internal/product/dto"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) RunInTx(ctx context.Context, fn func(ctx context.Context, tx product.TxRepository) error) error {
	return postgres.InTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		return fn(ctx, &PGTx{PGTx: invrepo.NewPGTx(tx)})
	})
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	var product model.Product
	err := r.DB.GetContext(ctx, &product, postgres.ProductSelect+" WHERE p.id = $1 LIMIT 1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	var products []model.Product
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.CategoryID != "" {
		conditions = append(conditions, "p.category_id = :category_id")
		args["category_id"] = f.CategoryID
	}
	if f.IsActive != nil {
		conditions = append(conditions, "p.is_active = :is_active")
		args["is_active"] = *f.IsActive
	}
	if f.SearchQuery != "" {
		conditions = append(conditions, "(p.name ILIKE :search OR p.sku ILIKE :search)")
		args["search"] = "%" + f.SearchQuery + "%"
	}
	switch model.StockStatus(f.StockStatus) {
	case model.StockStatusOutOfStock:
		conditions = append(conditions, "p.stock_quantity = 0")
	case model.StockStatusLowStock:
		conditions = append(conditions, "p.stock_quantity > 0 AND p.stock_quantity <= p.reorder_point")
	case model.StockStatusInStock:
		conditions = append(conditions, "p.stock_quantity > p.reorder_point")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	// Count
	countQuery, countArgs, err := sqlx.Named("SELECT count(*) FROM products p"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if err := r.DB.GetContext(ctx, &count, r.DB.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	// List
	orderBy := "p.created_at DESC"
	if f.SortBy != "" {
		// Prevent SQL injection by whitelisting fields
		switch f.SortBy {
		case "name":
			orderBy = "p.name"
		case "price":
			orderBy = "p.sale_price"
		case "stock":
			orderBy = "p.stock_quantity"
		default:
			orderBy = "p.created_at"
		}
		if strings.ToLower(f.SortOrder) == "asc" {
			orderBy += " ASC"
		} else {
			orderBy += " DESC"
		}
	}

	query := fmt.Sprintf("%s%s ORDER BY %s, p.id", postgres.ProductSelect, whereClause, orderBy)

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

	err = nstmt.SelectContext(ctx, &products, args)
	if err != nil {
		return nil, 0, err
	}

	return products, count, nil
}

func (r *PGRepository) IsSKUUnique(ctx context.Context, sku string) (bool, error) {
	var count int
	err := r.DB.GetContext(ctx, &count, `SELECT count(*) FROM products WHERE sku = $1`, sku)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

type PGTx struct {
	*invrepo.PGTx
}

func (t *PGTx) Create(ctx context.Context, p *model.Product) error {
	query := `
        INSERT INTO products (
            id, category_id, sku, name, cost_price, sale_price,
            stock_quantity, reserved_stock, reorder_point, version, is_active,
            stock_last_updated, last_updated_by_id, created_at, updated_at
        )
        VALUES (
            :id, :category_id, :sku, :name, :cost_price, :sale_price,
            :stock_quantity, :reserved_stock, :reorder_point, :version, :is_active,
            :stock_last_updated, :last_updated_by_id, :created_at, :updated_at
        )
    `
	if _, err := t.Tx.NamedExecContext(ctx, query, p); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

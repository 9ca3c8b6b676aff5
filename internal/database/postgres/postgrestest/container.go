// Package postgrestest starts a throwaway postgres with the service schema for integration tests.
package postgrestest

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/database/postgres"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

const (
	image    = "postgres:16-alpine"
	database = "inventory"
	username = "test"
	password = "test"
)

// Container wraps a postgres testcontainer and a migrated connection pool.
type Container struct {
	Container *tcpostgres.PostgresContainer
	DB        *sqlx.DB
}

// NewContainer starts postgres and applies the embedded schema.
func NewContainer(ctx context.Context) (*Container, error) {
	pg, err := tcpostgres.Run(ctx, image,
		tcpostgres.WithDatabase(database),
		tcpostgres.WithUsername(username),
		tcpostgres.WithPassword(password),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	host, err := pg.Host(ctx)
	if err != nil {
		pg.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := pg.MappedPort(ctx, "5432/tcp")
	if err != nil {
		pg.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            host,
		Port:            port.Port(),
		User:            username,
		Password:        password,
		DBName:          database,
		SSLMode:         "disable",
		MaxOpenConns:    32,
		MaxIdleConns:    8,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: time.Minute,
	})
	if err != nil {
		pg.Terminate(ctx)
		return nil, err
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		db.Close()
		pg.Terminate(ctx)
		return nil, err
	}

	return &Container{Container: pg, DB: db}, nil
}

// Close closes the pool and terminates the container.
func (c *Container) Close(ctx context.Context) error {
	if c.DB != nil {
		c.DB.Close()
	}
	if c.Container != nil {
		return c.Container.Terminate(ctx)
	}
	return nil
}

func (c *Container) SeedUser(ctx context.Context, id, fullName string) error {
	_, err := c.DB.ExecContext(ctx, `INSERT INTO users (id, full_name) VALUES ($1, $2)`, id, fullName)
	return err
}

func (c *Container) SeedCustomer(ctx context.Context, id, fullName string) error {
	_, err := c.DB.ExecContext(ctx, `INSERT INTO customers (id, full_name) VALUES ($1, $2)`, id, fullName)
	return err
}

// SeedProduct inserts an active product at version 1 and, for positive stock, the
// initial_stock movement that explains it.
func (c *Container) SeedProduct(ctx context.Context, id string, stock int) error {
	tx, err := c.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
        INSERT INTO products (id, sku, name, cost_price, sale_price, stock_quantity, reorder_point, version)
        VALUES ($1, $2, $3, 4, 10, $4, 2, 1)`,
		id, "SKU-"+id, "Product "+id, stock)
	if err != nil {
		return fmt.Errorf("seed product %s: %w", id, err)
	}
	if stock > 0 {
		_, err = tx.ExecContext(ctx, `
            INSERT INTO inventory_movements (id, product_id, user_id, movement_type, quantity, previous_stock, new_stock)
            VALUES ($1, $2, 'system', 'initial_stock', $3, 0, $3)`,
			uuid.NewString(), id, stock)
		if err != nil {
			return fmt.Errorf("seed initial stock %s: %w", id, err)
		}
	}
	return tx.Commit()
}

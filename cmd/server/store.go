package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-inventory-service/config"
	"github.com/fekuna/omnipos-inventory-service/internal/alert"
	alertRepoPkg "github.com/fekuna/omnipos-inventory-service/internal/alert/repository"
	"github.com/fekuna/omnipos-inventory-service/internal/database/memory"
	"github.com/fekuna/omnipos-inventory-service/internal/database/postgres"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	invRepoPkg "github.com/fekuna/omnipos-inventory-service/internal/inventory/repository"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory/listener"
	"github.com/fekuna/omnipos-inventory-service/internal/logger"
	"github.com/fekuna/omnipos-inventory-service/internal/order"
	orderRepoPkg "github.com/fekuna/omnipos-inventory-service/internal/order/repository"
	"github.com/fekuna/omnipos-inventory-service/internal/product"
	prodRepoPkg "github.com/fekuna/omnipos-inventory-service/internal/product/repository"
	"go.uber.org/zap"
)

type repositories struct {
	inventory inventory.Repository
	order     order.Repository
	product   product.Repository
	alert     alert.Repository
	ping      func(ctx context.Context) error
}

func openStore(ctx context.Context, cfg *config.Config, log logger.ZapLogger) (*repositories, func(), error) {
	switch cfg.Store.Driver {
	case "memory":
		store := memory.NewStore()
		store.PutUser(listener.SystemUserID, "System")
		log.Warn("Using in-memory store, data is lost on restart")
		return &repositories{
			inventory: invRepoPkg.NewMemoryRepository(store),
			order:     orderRepoPkg.NewMemoryRepository(store),
			product:   prodRepoPkg.NewMemoryRepository(store),
			alert:     alertRepoPkg.NewMemoryRepository(store),
			ping:      func(context.Context) error { return nil },
		}, func() {}, nil

	case "postgres", "":
		db, err := postgres.NewPostgres(&postgres.Config{
			Host:            cfg.Postgres.Host,
			Port:            cfg.Postgres.Port,
			User:            cfg.Postgres.User,
			Password:        cfg.Postgres.Password,
			DBName:          cfg.Postgres.DBName,
			SSLMode:         cfg.Postgres.SSLMode,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
			ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
		})
		if err != nil {
			return nil, nil, err
		}
		log.Info("Connected to Postgres", zap.String("host", cfg.Postgres.Host), zap.String("db", cfg.Postgres.DBName))

		if cfg.Postgres.AutoMigrate {
			if err := postgres.Migrate(ctx, db); err != nil {
				db.Close()
				return nil, nil, err
			}
			log.Info("Schema migrated")
		}
		return &repositories{
			inventory: invRepoPkg.NewPGRepository(db),
			order:     orderRepoPkg.NewPGRepository(db),
			product:   prodRepoPkg.NewPGRepository(db),
			alert:     alertRepoPkg.NewPGRepository(db),
			ping:      db.PingContext,
		}, func() { db.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// Package store opens the catalog repositories for the configured driver.
package store

import (
	"context"
	"fmt"

	"grocery-catalog/internal/config"
	"grocery-catalog/internal/database"
	"grocery-catalog/internal/repository"
	"grocery-catalog/internal/repository/mongostore"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Catalog bundles the repositories of one backend with its lifecycle.
type Catalog struct {
	Categories repository.CategoryRepository
	Products   repository.ProductRepository

	health func(ctx context.Context) map[string]string
	close  func(ctx context.Context) error
}

// Health reports the backend status in the same shape for both drivers.
func (c *Catalog) Health(ctx context.Context) map[string]string {
	return c.health(ctx)
}

// Close releases the backend connections.
func (c *Catalog) Close(ctx context.Context) error {
	return c.close(ctx)
}

// NewCatalog bundles repositories whose connections are managed elsewhere.
// Health always reports up and Close is a no-op.
func NewCatalog(categories repository.CategoryRepository, products repository.ProductRepository) *Catalog {
	return &Catalog{
		Categories: categories,
		Products:   products,
		health: func(context.Context) map[string]string {
			return map[string]string{"status": "up"}
		},
		close: func(context.Context) error { return nil },
	}
}

// Open connects to the backend named by cfg.Catalog.StoreDriver. For
// PostgreSQL pending migrations are applied; for MongoDB indexes are ensured.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Catalog, error) {
	switch cfg.Catalog.StoreDriver {
	case config.StoreDriverPostgres:
		return openPostgres(ctx, cfg, logger)
	case config.StoreDriverMongo:
		return openMongo(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Catalog.StoreDriver)
	}
}

func openPostgres(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Catalog, error) {
	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := database.RunMigrations(db.DB(), logger); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("Catalog store ready",
		zap.String("driver", config.StoreDriverPostgres),
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Database),
	)

	return &Catalog{
		Categories: repository.NewCategoryRepository(db.DB()),
		Products:   repository.NewProductRepository(db.DB()),
		health: func(context.Context) map[string]string {
			return db.Health()
		},
		close: func(context.Context) error {
			return db.Close()
		},
	}, nil
}

func openMongo(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Catalog, error) {
	client, err := mongostore.Connect(ctx, cfg.Mongo)
	if err != nil {
		return nil, err
	}

	db := client.Database(cfg.Mongo.Database)
	if err := mongostore.EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	logger.Info("Catalog store ready",
		zap.String("driver", config.StoreDriverMongo),
		zap.String("database", cfg.Mongo.Database),
	)

	return &Catalog{
		Categories: mongostore.NewCategoryRepository(db),
		Products:   mongostore.NewProductRepository(db),
		health: func(ctx context.Context) map[string]string {
			return mongoHealth(ctx, client)
		},
		close: func(ctx context.Context) error {
			return client.Disconnect(ctx)
		},
	}, nil
}

func mongoHealth(ctx context.Context, client *mongo.Client) map[string]string {
	if err := client.Ping(ctx, nil); err != nil {
		return map[string]string{
			"status": "down",
			"error":  fmt.Sprintf("mongo down: %v", err),
		}
	}
	return map[string]string{
		"status":  "up",
		"message": "It's healthy",
	}
}

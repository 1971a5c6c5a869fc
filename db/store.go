package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/stage-engine/config"
	"github.com/Dosada05/stage-engine/repositories"
)

const connectTimeout = 5 * time.Second

// OpenStore builds the repositories.Store selected by cfg.StorageDriver.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repositories.Store, error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		conn, err := Connect(cfg.DatabaseURL, connectTimeout, logger)
		if err != nil {
			return nil, err
		}
		if err := Migrate(ctx, conn); err != nil {
			_ = conn.Close()
			return nil, err
		}
		logger.Info("database connection established", slog.String("driver", cfg.StorageDriver))
		return repositories.NewPostgresStore(conn, logger), nil

	case config.DriverMongo:
		ctx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		return repositories.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDB, logger)

	case config.DriverMemory:
		logger.Warn("using in-memory store, data is lost on restart")
		return repositories.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}

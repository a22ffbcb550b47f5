package adapters

import (
	"context"
	"fmt"

	"github.com/pavi2003-eng/healthcare-backend/internal/adapters/database"
	"github.com/pavi2003-eng/healthcare-backend/internal/adapters/document"
	"github.com/pavi2003-eng/healthcare-backend/internal/adapters/memory"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/repositories"
	mongoclient "github.com/pavi2003-eng/healthcare-backend/internal/infrastructure/clients/mongo"
	"github.com/pavi2003-eng/healthcare-backend/internal/infrastructure/clients/postgres"
	"github.com/pavi2003-eng/healthcare-backend/internal/infrastructure/observability"
	"github.com/pavi2003-eng/healthcare-backend/pkg/config"
)

// OpenStore connects the record store selected by cfg.Store.Driver and
// prepares its schema: migrations for PostgreSQL, indexes for MongoDB.
func OpenStore(ctx context.Context, cfg *config.Config, metrics *observability.Metrics) (*repositories.Store, error) {
	logger := observability.GetLogger()

	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		client, err := postgres.NewClient(ctx, &cfg.Database)
		if err != nil {
			return nil, err
		}
		applied, err := client.Migrate(ctx)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
		logger.Info().Int("applied", applied).Msg("database migrations up to date")
		return database.NewStore(client, metrics), nil

	case config.StoreDriverMongo:
		client, err := mongoclient.NewClient(ctx, &cfg.Mongo)
		if err != nil {
			return nil, err
		}
		if err := client.EnsureIndexes(ctx); err != nil {
			_ = client.Close(ctx)
			return nil, fmt.Errorf("failed to ensure indexes: %w", err)
		}
		return document.NewStore(client, metrics), nil

	case config.StoreDriverMemory:
		logger.Warn().Msg("using in-memory store; data is lost on restart")
		return memory.NewStore(), nil

	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}

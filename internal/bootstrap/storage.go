package bootstrap

import (
	"context"
	"fmt"
	"time"

	"arthik-chat-be/internal/config"
	"arthik-chat-be/internal/pkg/logger"
	"arthik-chat-be/internal/repository/dynamo"
	"arthik-chat-be/internal/repository/memory"
	mongorepo "arthik-chat-be/internal/repository/mongo"
	"arthik-chat-be/internal/repository/unitofwork"
	"arthik-chat-be/pkg/database"
)

// newRepositoryFactory opens the configured session store. The returned
// closer releases its connections.
func newRepositoryFactory(ctx context.Context, cfg *config.Config, log logger.ILogger) (unitofwork.RepositoryFactory, func(), error) {
	noop := func() {}

	switch cfg.Database.Driver {
	case "memory", "":
		store := memory.NewStore()
		log.Warn("Bootstrap", "Using in-memory session store, data is lost on restart", nil)
		return unitofwork.NewStaticRepositoryFactory(
			memory.NewChatSessionRepository(store),
			memory.NewChatMessageRepository(store),
		), noop, nil

	case "postgres", "sqlite":
		db, err := database.NewGormDB(cfg.Database.Driver, cfg.Database.Connection, !cfg.IsProduction())
		if err != nil {
			return nil, noop, err
		}
		if cfg.Database.AutoMigrate {
			if err := database.AutoMigrate(db); err != nil {
				return nil, noop, fmt.Errorf("auto migrate: %w", err)
			}
		}
		closer := func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		log.Info("Bootstrap", "Using SQL session store", map[string]interface{}{"driver": cfg.Database.Driver})
		return unitofwork.NewRepositoryFactory(db), closer, nil

	case "dynamodb":
		awsCfg, err := database.LoadAWSConfig(ctx, cfg.Database.AwsRegion)
		if err != nil {
			return nil, noop, err
		}
		table, err := dynamo.NewTable(database.NewDynamoClient(awsCfg, cfg.Database.DynamoEndpoint), cfg.Database.DynamoTable)
		if err != nil {
			return nil, noop, err
		}
		log.Info("Bootstrap", "Using DynamoDB session store", map[string]interface{}{"table": cfg.Database.DynamoTable})
		return unitofwork.NewStaticRepositoryFactory(
			dynamo.NewChatSessionRepository(table),
			dynamo.NewChatMessageRepository(table),
		), noop, nil

	case "mongodb":
		client, err := database.NewMongoClient(ctx, cfg.Database.MongoURI)
		if err != nil {
			return nil, noop, err
		}
		db := client.Database(cfg.Database.MongoDatabase)
		if err := mongorepo.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, noop, fmt.Errorf("ensure mongo indexes: %w", err)
		}
		closer := func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(dctx)
		}
		log.Info("Bootstrap", "Using MongoDB session store", map[string]interface{}{"database": cfg.Database.MongoDatabase})
		return unitofwork.NewStaticRepositoryFactory(
			mongorepo.NewChatSessionRepository(db),
			mongorepo.NewChatMessageRepository(db),
		), closer, nil
	}

	return nil, noop, fmt.Errorf("unsupported DB_DRIVER: %s", cfg.Database.Driver)
}

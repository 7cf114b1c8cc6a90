package main

import (
	"context"
	"fmt"

	"foodforall/internal/db"
	"foodforall/internal/store/mongostore"
	"foodforall/pkg/types"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var migrateCommand = &cli.Command{
	Name:  "migrate",
	Usage: "Create the Postgres schema or the Mongo indexes for the configured driver",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c.String("env-prefix"))
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		ctx := context.Background()
		logger := logrus.StandardLogger()

		repos, err := openStores(ctx, cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer repos.close()

		switch cfg.StoreDriver {
		case types.StoreDriverPostgres:
			if err := db.ApplySchema(ctx, repos.pool); err != nil {
				return err
			}
			logger.Info("schema applied")
		case types.StoreDriverMongo:
			if err := mongostore.EnsureIndexes(ctx, repos.mongo); err != nil {
				return err
			}
			logger.Info("indexes created")
		default:
			logger.WithField("driver", cfg.StoreDriver).Info("nothing to migrate")
		}

		return nil
	},
}

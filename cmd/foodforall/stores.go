package main

import (
	"context"

	"foodforall/internal/db"
	"foodforall/internal/server"
	"foodforall/internal/store"
	"foodforall/internal/store/memstore"
	"foodforall/internal/store/mongostore"
	"foodforall/pkg/types"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
)

type stores struct {
	foods    server.FoodStore
	requests server.RequestStore
	users    server.UserStore

	pool  *pgxpool.Pool
	mongo *mongo.Database

	close func()
}

func openStores(ctx context.Context, config *types.Config, logger *logrus.Logger) (*stores, error) {
	switch config.StoreDriver {
	case types.StoreDriverMongo:
		client, database, err := db.ConnectMongo(ctx, config)
		if err != nil {
			return nil, err
		}
		logger.WithField("database", config.MongoDatabase).Info("connected to mongo")

		return &stores{
			foods:    mongostore.NewFoodRepository(database),
			requests: mongostore.NewRequestRepository(database),
			users:    mongostore.NewUserRepository(database),
			mongo:    database,
			close: func() {
				if err := client.Disconnect(context.Background()); err != nil {
					logger.WithError(err).Warn("failed to disconnect mongo")
				}
			},
		}, nil

	case types.StoreDriverMemory:
		logger.Warn("using in-memory store; data is lost on restart")
		mem := memstore.New()
		return &stores{foods: mem, requests: mem, users: mem, close: func() {}}, nil
	}

	pool, err := db.Connect(ctx, config)
	if err != nil {
		return nil, err
	}
	logger.Info("connected to postgres")

	return &stores{
		foods:    store.NewFoodRepository(pool),
		requests: store.NewRequestRepository(pool),
		users:    store.NewUserRepository(pool),
		pool:     pool,
		close:    pool.Close,
	}, nil
}

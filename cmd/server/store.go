package main

import (
	"context"
	"fmt"

	herosvc "hero-server/internal/app/hero"
	"hero-server/internal/platform/config"
	"hero-server/internal/platform/db"
	"hero-server/internal/platform/docstore"
	"hero-server/internal/storage/memory"
	mongostore "hero-server/internal/storage/mongo"
	pgstore "hero-server/internal/storage/postgres"
	"hero-server/internal/storage/sqlite"
	surrealstore "hero-server/internal/storage/surreal"
)

const mongoCollection = "heroes"

type heroStore interface {
	herosvc.Repository
	Ping(ctx context.Context) error
}

// openStore connects the backend named by cfg.Store. The returned func
// releases it.
func openStore(ctx context.Context, cfg config.Config) (heroStore, func(), error) {
	switch cfg.Store {
	case config.StoreMongo:
		client, err := docstore.ConnectMongo(ctx, cfg.Mongo.URI)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() { _ = client.Disconnect(context.Background()) }
		return mongostore.New(client, cfg.Mongo.Database, mongoCollection), closeFn, nil

	case config.StoreSurreal:
		sdb, err := docstore.ConnectSurreal(ctx, docstore.SurrealOptions{
			URL:       cfg.Surreal.URL,
			User:      cfg.Surreal.User,
			Password:  cfg.Surreal.Password,
			Namespace: cfg.Surreal.Namespace,
			Database:  cfg.Surreal.Database,
		})
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() { _ = sdb.Close(context.Background()) }
		return surrealstore.New(sdb), closeFn, nil

	case config.StorePostgres:
		pool, err := db.Connect(ctx, cfg.PostgresURL, db.DefaultPoolOptions())
		if err != nil {
			return nil, nil, err
		}
		store, err := pgstore.New(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil

	case config.StoreSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil

	case config.StoreMemory:
		store, err := memory.New()
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown hero store %q", cfg.Store)
}

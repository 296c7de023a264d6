package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/pkordes/globe-trotter/internal/config"
	"github.com/pkordes/globe-trotter/internal/idempotency"
	"github.com/pkordes/globe-trotter/internal/repo"
	"github.com/pkordes/globe-trotter/migrations"
)

// stores holds the repositories backed by one database.
type stores struct {
	trips repo.TripStore
	users repo.UserStore
}

// openStore connects the stores selected by cfg.StoreDriver. The returned
// func releases them on shutdown.
func openStore(ctx context.Context, cfg config.Config) (stores, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		return openPostgres(ctx, cfg.DatabaseURL)
	case config.DriverMongo:
		return openMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case config.DriverBolt:
		s, err := repo.NewBoltTripStore(cfg.BoltPath)
		if err != nil {
			return stores{}, nil, err
		}
		return stores{trips: s, users: s.Users()}, func() { _ = s.Close() }, nil
	}
	return stores{}, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// openPostgres applies pending migrations and returns pool-backed stores.
// pgxpool.New does not open connections immediately; Ping does.
func openPostgres(ctx context.Context, dsn string) (stores, func(), error) {
	if err := migrate(ctx, dsn); err != nil {
		return stores{}, nil, err
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return stores{}, nil, fmt.Errorf("create database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return stores{}, nil, fmt.Errorf("connect to database: %w", err)
	}
	return stores{trips: repo.NewPGTripStore(pool), users: repo.NewPGUserStore(pool)}, pool.Close, nil
}

// migrate runs goose over a short-lived database/sql handle; goose does not
// speak pgxpool.
func migrate(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer db.Close()

	results, err := migrations.Up(ctx, db)
	if err != nil {
		return err
	}
	for _, r := range results {
		slog.InfoContext(ctx, "applied migration", "version", r.Source.Version, "duration", r.Duration)
	}
	return nil
}

func openMongo(ctx context.Context, uri, database string) (stores, func(), error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return stores{}, nil, fmt.Errorf("connect to mongo: %w", err)
	}
	disconnect := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(ctx)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		disconnect()
		return stores{}, nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(database)
	if err := repo.EnsureMongoIndexes(ctx, db); err != nil {
		disconnect()
		return stores{}, nil, err
	}
	return stores{trips: repo.NewMongoTripStore(db), users: repo.NewMongoUserStore(db)}, disconnect, nil
}

// openGuard returns the Redis-backed idempotency guard when REDIS_ADDR is
// set, and an in-process one otherwise.
func openGuard(ctx context.Context, cfg config.Config) (idempotency.Guard, func(), error) {
	if cfg.RedisAddr == "" {
		return idempotency.NewMemoryGuard(cfg.IdempotencyTTL), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		MaxRetries:   3,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	return idempotency.NewRedisGuard(client, cfg.IdempotencyTTL), func() { _ = client.Close() }, nil
}

package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMongo  = "mongo"
)

type Options struct {
	Driver        string
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	MongoURI      string
	MongoDBName   string
}

// Open builds the Store selected by opts.Driver and verifies it is reachable.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case DriverMemory, "":
		return NewMemoryStore(), nil
	case DriverSQLite:
		s, err := NewSQLiteStore(opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := s.RunMigrations(); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	case DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       0,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("redis connection failed: %w", err)
		}
		return NewRedisStore(client, 0), nil
	case DriverMongo:
		db, err := ConnectMongoDB(ctx, opts.MongoURI, opts.MongoDBName)
		if err != nil {
			return nil, err
		}
		return NewMongoStore(db), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
}

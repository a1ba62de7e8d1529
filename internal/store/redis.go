package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "collabmd:doc:"

// Redis stores each snapshot as a JSON string under collabmd:doc:<id>.
type Redis struct {
	rdb *redis.Client
}

func OpenRedis(ctx context.Context, addr string) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}
	return &Redis{rdb: rdb}, nil
}

func (r *Redis) Load(ctx context.Context, docID string) (Snapshot, error) {
	data, err := r.rdb.Get(ctx, redisKeyPrefix+docID).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("load %s: %w", docID, err)
	}
	return decode(docID, data)
}

func (r *Redis) Save(ctx context.Context, snap Snapshot) error {
	data, err := encode(snap)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, redisKeyPrefix+snap.DocID, data, 0).Err(); err != nil {
		return fmt.Errorf("save %s: %w", snap.DocID, err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}

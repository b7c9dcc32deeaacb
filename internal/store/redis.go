// internal/store/redis.go
//
// Redis-backed Store. Each save is a JSON string at {prefix}{playerID}.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/robalobadob/cardmatch/internal/game"
)

const defaultRedisPrefix = "cardmatch:save:"

type redisStore struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewRedisStore connects lazily to addr (comma-separated for a cluster).
func NewRedisStore(addr, prefix string) Store {
	rdb := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: splitAddrs(addr)})
	return NewRedisStoreWithClient(rdb, prefix)
}

// NewRedisStoreWithClient uses an existing client. Close closes it.
func NewRedisStoreWithClient(rdb redis.UniversalClient, prefix string) Store {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &redisStore{rdb: rdb, prefix: prefix}
}

func (s *redisStore) key(playerID string) string { return s.prefix + playerID }

func (s *redisStore) Load(ctx context.Context, playerID string) (*game.Snapshot, error) {
	if playerID == "" {
		return nil, ErrInvalidPlayer
	}
	raw, err := s.rdb.Get(ctx, s.key(playerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var out game.Snapshot
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode save: %w", err)
	}
	return &out, nil
}

func (s *redisStore) Save(ctx context.Context, playerID string, snap *game.Snapshot) error {
	if playerID == "" {
		return ErrInvalidPlayer
	}
	if snap == nil {
		return errors.New("store: nil snapshot")
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, s.key(playerID), raw, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, playerID string) error {
	if playerID == "" {
		return ErrInvalidPlayer
	}
	if err := s.rdb.Del(ctx, s.key(playerID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (s *redisStore) Close() error { return s.rdb.Close() }

func splitAddrs(addr string) []string {
	var out []string
	for _, a := range strings.Split(addr, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	if len(out) == 0 {
		return []string{"localhost:6379"}
	}
	return out
}

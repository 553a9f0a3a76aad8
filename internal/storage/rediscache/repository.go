// Package rediscache wraps a hero repository with cache-aside reads in Redis.
//
// Every cached key carries a generation number stored under heroes:gen. Save
// bumps the generation instead of deleting keys, so a read that raced a save
// can only refill a retired generation. Retired keys expire with the TTL.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	herosvc "hero-server/internal/app/hero"
	"hero-server/internal/domain/hero"
)

const keyGeneration = "heroes:gen"

// Repository caches FindByID and FindAll. Name searches always hit the
// wrapped store. Redis failures fall back to the wrapped store.
type Repository struct {
	next   herosvc.Repository
	cache  *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// Wrap returns next unchanged when client is nil or ttl is zero.
func Wrap(next herosvc.Repository, client *redis.Client, ttl time.Duration, logger zerolog.Logger) herosvc.Repository {
	if client == nil || ttl <= 0 {
		return next
	}
	return &Repository{next: next, cache: client, ttl: ttl, logger: logger}
}

func (r *Repository) FindAll(ctx context.Context) ([]hero.Hero, error) {
	gen, ok := r.generation(ctx)
	if !ok {
		return r.next.FindAll(ctx)
	}
	var heroes []hero.Hero
	if r.get(ctx, allKey(gen), &heroes) {
		return heroes, nil
	}
	heroes, err := r.next.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	r.set(ctx, allKey(gen), heroes)
	return heroes, nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (hero.Hero, error) {
	gen, ok := r.generation(ctx)
	if !ok {
		return r.next.FindByID(ctx, id)
	}
	var h hero.Hero
	if r.get(ctx, idKey(gen, id), &h) {
		return h, nil
	}
	h, err := r.next.FindByID(ctx, id)
	if err != nil {
		return hero.Hero{}, err
	}
	r.set(ctx, idKey(gen, id), h)
	return h, nil
}

func (r *Repository) FindByNameContaining(ctx context.Context, name string) ([]hero.Hero, error) {
	return r.next.FindByNameContaining(ctx, name)
}

func (r *Repository) Save(ctx context.Context, h hero.Hero) (hero.Hero, error) {
	saved, err := r.next.Save(ctx, h)
	if err != nil {
		return hero.Hero{}, err
	}
	if err := r.cache.Incr(ctx, keyGeneration).Err(); err != nil {
		r.logger.Warn().Err(err).Str("hero_id", saved.ID).Msg("hero cache invalidation failed")
	}
	return saved, nil
}

// generation reports false when Redis cannot be read; callers then bypass
// the cache entirely.
func (r *Repository) generation(ctx context.Context) (int64, bool) {
	gen, err := r.cache.Get(ctx, keyGeneration).Int64()
	switch {
	case errors.Is(err, redis.Nil):
		return 0, true
	case err != nil:
		r.logger.Debug().Err(err).Msg("hero cache generation unavailable")
		return 0, false
	}
	return gen, true
}

func (r *Repository) get(ctx context.Context, key string, dst any) bool {
	b, err := r.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Debug().Err(err).Str("key", key).Msg("hero cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(b, dst); err != nil {
		r.logger.Debug().Err(err).Str("key", key).Msg("hero cache entry unreadable")
		return false
	}
	return true
}

func (r *Repository) set(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, key, b, r.ttl).Err(); err != nil {
		r.logger.Debug().Err(err).Str("key", key).Msg("hero cache write failed")
	}
}

func allKey(gen int64) string {
	return fmt.Sprintf("heroes:%d:all", gen)
}

func idKey(gen int64, id string) string {
	return fmt.Sprintf("heroes:%d:id:%s", gen, id)
}

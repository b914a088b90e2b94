package cache

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

const COUNTER_CACHE_KEY = "counter"
const COUNTER_STALE_KEY = "counter_stale"
const COUNTER_CACHE_TTL = time.Second * 30

// CounterCache keeps the rendered /counter response in redis so the landing
// page read path does not hit postgres on every poll. A stale copy without a
// TTL survives expiry so something can be served while the fresh value is
// rebuilt. A nil redis client turns every operation into a no-op.
type CounterCache struct {
	RedisClient *redis.Client
}

var cacheSingleton CounterCache

func (cc CounterCache) Set(body []byte) error {
	if cc.RedisClient == nil {
		return nil
	}

	res := cc.RedisClient.Set(
		context.Background(),
		COUNTER_STALE_KEY,
		body,
		0,
	)

	if res.Err() != nil {
		fmt.Fprintf(os.Stderr, "failed to set stale counter in redis: %v\n", res.Err())
		return res.Err()
	}

	res = cc.RedisClient.SetEX(
		context.Background(),
		COUNTER_CACHE_KEY,
		body,
		COUNTER_CACHE_TTL,
	)

	return res.Err()
}

// Get returns the cached body and whether it should be recomputed. A stale
// hit still returns the body but asks for a recompute.
func (cc CounterCache) Get() ([]byte, bool, error) {
	shouldRecompute := true

	if cc.RedisClient == nil {
		return nil, shouldRecompute, nil
	}

	res := cc.RedisClient.Get(context.Background(), COUNTER_CACHE_KEY)
	if err := res.Err(); err != nil {
		if err == redis.Nil {
			res = cc.RedisClient.Get(context.Background(), COUNTER_STALE_KEY)
			if res.Err() == redis.Nil {
				return nil, shouldRecompute, nil
			}
		} else {
			fmt.Fprintf(os.Stderr, "failed to get counter from redis: %v\n", err)
			return nil, shouldRecompute, err
		}
	} else {
		shouldRecompute = false
	}

	b, err := res.Bytes()
	if err != nil {
		return nil, shouldRecompute, err
	}

	return b, shouldRecompute, nil
}

// Invalidate drops the fresh copy after an increment so the next read
// recomputes the total.
func (cc CounterCache) Invalidate() {
	if cc.RedisClient == nil {
		return
	}

	res := cc.RedisClient.Del(context.Background(), COUNTER_CACHE_KEY)
	if res.Err() != nil {
		fmt.Fprintf(os.Stderr, "failed to invalidate counter cache: %v\n", res.Err())
	}
}

var initOnce sync.Once

func InitCounterCache(r *redis.Client) {
	initOnce.Do(func() {
		cacheSingleton = CounterCache{
			RedisClient: r,
		}
	})
}

func GetCounterCache() CounterCache {
	return cacheSingleton
}

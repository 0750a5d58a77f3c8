package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"wopihost/internal/config"
)

const keyPrefix = "wopi:lock:"

// releaseScript deletes the lock only while it still carries our token,
// so an expired lock re-acquired by another replica is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// renewScript pushes the expiry forward only while the lock still carries our token.
var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// redisClient is the subset of redis used by the lock.
type redisClient interface {
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Extend(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	CompareAndDelete(ctx context.Context, key, value string) (bool, error)
}

type goRedisClient struct {
	client *redis.Client
}

var _ redisClient = (*goRedisClient)(nil)

func (c *goRedisClient) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, key, value, ttl).Result()
}

func (c *goRedisClient) Extend(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	n, err := renewScript.Run(ctx, c.client, []string{key}, value, ttl.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (c *goRedisClient) CompareAndDelete(ctx context.Context, key, value string) (bool, error) {
	n, err := releaseScript.Run(ctx, c.client, []string{key}, value).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// NewRedisClient connects to redis and verifies the connection with a ping.
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// Redis is a lease-based lock shared by every replica using the same redis.
// A lease expires after ttl, so a crashed holder cannot block writers forever.
// While the lock is held the lease is renewed every ttl/3, so a write may outlast ttl.
type Redis struct {
	client redisClient
	ttl    time.Duration
	retry  time.Duration
	log    *zap.Logger
}

// NewRedis returns a Redis locker over client.
func NewRedis(client *redis.Client, ttl, retry time.Duration, log *zap.Logger) *Redis {
	return newRedis(&goRedisClient{client: client}, ttl, retry, log)
}

func newRedis(client redisClient, ttl, retry time.Duration, log *zap.Logger) *Redis {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if retry <= 0 {
		retry = 50 * time.Millisecond
	}
	return &Redis{client: client, ttl: ttl, retry: retry, log: log}
}

// Lock polls SET NX until it wins the lease or ctx ends.
func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	k := keyPrefix + key
	token := uuid.NewString()

	for {
		ok, err := r.client.SetNX(ctx, k, token, r.ttl)
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", k, err)
		}
		if ok {
			break
		}
		t := time.NewTimer(r.retry)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go r.keepAlive(k, token, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
			// The request context may already be done; release on a fresh one.
			rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			released, err := r.client.CompareAndDelete(rctx, k, token)
			if err != nil || !released {
				r.log.Warn("lock_release_failed",
					zap.String("key", k),
					zap.Bool("released", released),
					zap.Error(err),
				)
			}
		})
	}, nil
}

// keepAlive renews the lease until stop is closed or the lease is found lost.
func (r *Redis) keepAlive(key, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	interval := r.ttl / 3
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-stop:
			return
		case <-t.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), interval)
		ok, err := r.client.Extend(ctx, key, token, r.ttl)
		cancel()
		switch {
		case err != nil:
			r.log.Warn("lock_renew_failed", zap.String("key", key), zap.Error(err))
		case !ok:
			r.log.Error("lock_lost", zap.String("key", key))
			return
		}
	}
}

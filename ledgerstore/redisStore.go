package ledgerstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/storefront_backend/config"
	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const defaultLockTTL = 5 * time.Second

// RedisStore keeps the whole ledger under one key with no expiry.
type RedisStore struct {
	client *redis.Client
	locker *redislock.Client
	logger *logrus.Logger
	key    string

	LockTTL time.Duration
}

// NewRedisStore uses locker for write locks, or builds one on client when locker is nil.
func NewRedisStore(client *redis.Client, locker *redislock.Client, key string, logger *logrus.Logger) *RedisStore {
	if locker == nil {
		locker = redislock.New(client)
	}
	return &RedisStore{
		client:  client,
		locker:  locker,
		logger:  logger,
		key:     key,
		LockTTL: defaultLockTTL,
	}
}

func (s *RedisStore) lockKey() string {
	return "lock:" + s.key
}

func (s *RedisStore) Load(ctx context.Context) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	return data, nil
}

// Save rewrites the key. The lock is best effort: when it cannot be taken the write still happens.
func (s *RedisStore) Save(ctx context.Context, data []byte) error {
	lock, err := s.locker.Obtain(ctx, s.lockKey(), s.LockTTL, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(50*time.Millisecond), 10),
	})
	if err != nil {
		config.LogError(s.logger, "RedisStore", "Save", "locker.Obtain", s.lockKey(), err)
	} else {
		defer func() {
			if rerr := lock.Release(context.WithoutCancel(ctx)); rerr != nil && !errors.Is(rerr, redislock.ErrLockNotHeld) {
				config.LogError(s.logger, "RedisStore", "Save", "lock.Release", s.lockKey(), rerr)
			}
		}()
	}

	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

package otp

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps challenges in a Redis hash per phone with fields "hash"
// and "attempts".  The key expires with the code.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStore returns a store writing keys under prefix.
func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "voltride:otp"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) key(phone string) string { return s.prefix + ":" + phone }

func (s *RedisStore) Save(ctx context.Context, phone, hash string, ttl time.Duration) error {
	key := s.key(phone)
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, key)
		p.HSet(ctx, key, "hash", hash, "attempts", 0)
		p.Expire(ctx, key, ttl)
		return nil
	})
	return err
}

func (s *RedisStore) Get(ctx context.Context, phone string) (Challenge, error) {
	vals, err := s.rdb.HGetAll(ctx, s.key(phone)).Result()
	if err != nil {
		return Challenge{}, err
	}
	hash, ok := vals["hash"]
	if !ok || hash == "" {
		return Challenge{}, ErrNotFound
	}
	attempts, _ := strconv.Atoi(vals["attempts"])
	return Challenge{Hash: hash, Attempts: attempts}, nil
}

// IncrAttempts bumps the counter only while the key still exists so a late
// wrong guess cannot resurrect an expired challenge.
func (s *RedisStore) IncrAttempts(ctx context.Context, phone string) (int, error) {
	n, err := incrIfExists.Run(ctx, s.rdb, []string{s.key(phone)}).Int()
	if errors.Is(err, redis.Nil) {
		return 0, ErrNotFound
	}
	return n, err
}

func (s *RedisStore) Delete(ctx context.Context, phone string) error {
	return s.rdb.Del(ctx, s.key(phone)).Err()
}

var incrIfExists = redis.NewScript(`
	if redis.call('EXISTS', KEYS[1]) == 0 then
		return false
	end
	return redis.call('HINCRBY', KEYS[1], 'attempts', 1)
`)

package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each account as a JSON document without expiry.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
}

func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "prv"
	}
	return &RedisStore{redis: client, prefix: prefix}
}

func (s *RedisStore) key(email string) string {
	return s.prefix + ":acct:" + email
}

func (s *RedisStore) Get(ctx context.Context, email string) (Account, error) {
	data, err := s.redis.Get(ctx, s.key(email)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Account{}, ErrNotFound
	}
	if err != nil {
		return Account{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	var acct Account
	if err := json.Unmarshal(data, &acct); err != nil {
		return Account{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return acct, nil
}

func (s *RedisStore) Create(ctx context.Context, acct Account) error {
	data, err := json.Marshal(acct)
	if err != nil {
		return err
	}
	created, err := s.redis.SetNX(ctx, s.key(acct.Email), data, 0).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !created {
		return ErrExists
	}
	return nil
}

func (s *RedisStore) TouchLogin(ctx context.Context, email string, at time.Time) error {
	const maxRetries = 4
	key := s.key(email)

	for i := 0; i < maxRetries; i++ {
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}
			var acct Account
			if err := json.Unmarshal(data, &acct); err != nil {
				return err
			}
			acct.LastLogin = at
			updated, err := json.Marshal(acct)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, updated, 0)
				return nil
			})
			return err
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil
	}

	return fmt.Errorf("%w: touch login contention", ErrUnavailable)
}

// SPDX-License-Identifier: ice License 1.0

package store

import (
	"context"
	"fmt"
	"runtime"
	stdlibtime "time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/bid-agri/console/log"
)

const (
	maxPingRetries = 10
	pingBackoffCap = 5 * stdlibtime.Second
)

//nolint:mnd,gomnd // Configs.
func connectRedis(ctx context.Context, cfg *Config) (Backend, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid redis url")
	}
	if opts.Username == "" {
		opts.Username = cfg.Credentials.User
	}
	if opts.Password == "" {
		opts.Password = cfg.Credentials.Password
	}
	connectionsPerCore := cfg.ConnectionsPerCore
	if connectionsPerCore == 0 {
		connectionsPerCore = defaultConnectionsPerCore
	}
	opts.ClientName = cfg.KeyPrefix
	opts.MaxRetries = 3
	opts.MinRetryBackoff = 10 * stdlibtime.Millisecond
	opts.MaxRetryBackoff = 1 * stdlibtime.Second
	opts.DialTimeout = 5 * stdlibtime.Second
	opts.ReadTimeout = 5 * stdlibtime.Second
	opts.WriteTimeout = 5 * stdlibtime.Second
	opts.ConnMaxIdleTime = 60 * stdlibtime.Second
	opts.ContextTimeoutEnabled = true
	opts.PoolFIFO = true
	opts.PoolSize = connectionsPerCore * runtime.GOMAXPROCS(-1)
	opts.MinIdleConns = 1
	opts.MaxIdleConns = 1

	var snlr *sealer
	if cfg.Secret != "" {
		if snlr, err = newSealer(cfg.Secret); err != nil {
			return nil, err
		}
	}
	db := redis.NewClient(opts)
	if err = ping(ctx, db); err != nil {
		return nil, errors.Wrapf(closeOnFailure(err, db), "redis at %v is unreachable", opts.Addr)
	}
	keyPrefix := cfg.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}

	return &redisBackend{db: db, sealer: snlr, keyPrefix: keyPrefix}, nil
}

func ping(ctx context.Context, db *redis.Client) error {
	exp := backoff.NewExponentialBackOff()
	exp.MaxInterval = pingBackoffCap
	policy := backoff.WithContext(backoff.WithMaxRetries(exp, maxPingRetries), ctx)

	return backoff.RetryNotify( //nolint:wrapcheck // It's wrapped by the caller.
		func() error {
			result, err := db.Ping(ctx).Result()
			if err != nil {
				return err //nolint:wrapcheck // Not needed.
			}
			if result != "PONG" {
				return backoff.Permanent(errors.Errorf("unexpected ping response: %v", result))
			}

			return nil
		},
		policy,
		func(err error, next stdlibtime.Duration) {
			log.Warn("redis ping failed, retrying", "error", err.Error(), "next", next)
		})
}

func closeOnFailure(err error, db *redis.Client) error {
	if cErr := db.Close(); cErr != nil {
		log.Error(errors.Wrap(cErr, "failed to close redis client"))
	}

	return err
}

func (b *redisBackend) For(clientID string) Store {
	return &redisStore{
		backend:     b,
		tokenKey:    fmt.Sprintf("%v:%v:%v", b.keyPrefix, clientID, tokenKeySuffix),
		snapshotKey: fmt.Sprintf("%v:%v:%v", b.keyPrefix, clientID, snapshotKeySuffix),
	}
}

func (b *redisBackend) Ping(ctx context.Context) error {
	return errors.Wrap(b.db.Ping(ctx).Err(), "redis ping failed")
}

func (b *redisBackend) Close() error {
	return errors.Wrap(b.db.Close(), "failed to close redis client")
}

func (s *redisStore) Save(ctx context.Context, rawToken string) error {
	return s.setField(ctx, tokenField, s.backend.sealer.seal(rawToken))
}

func (s *redisStore) Load(ctx context.Context) (string, error) {
	sealed, err := s.field(ctx, tokenField)
	if err != nil {
		return "", err
	}
	rawToken, err := s.backend.sealer.open(sealed)

	return rawToken, errors.Wrapf(err, "stored token of %v", s.tokenKey)
}

func (s *redisStore) SetUsername(ctx context.Context, username string) error {
	return s.setField(ctx, usernameField, username)
}

func (s *redisStore) Username(ctx context.Context) (string, error) {
	return s.field(ctx, usernameField)
}

func (s *redisStore) SetTenant(ctx context.Context, tenant string) error {
	return s.setField(ctx, tenantField, tenant)
}

func (s *redisStore) Tenant(ctx context.Context) (string, error) {
	return s.field(ctx, tenantField)
}

func (s *redisStore) Clear(ctx context.Context) error {
	return errors.Wrapf(s.backend.db.Del(ctx, s.tokenKey, s.snapshotKey).Err(), "failed to delete %v", s.tokenKey)
}

func (s *redisStore) SaveSnapshot(ctx context.Context, snapshot []byte) error {
	return errors.Wrapf(s.backend.db.Set(ctx, s.snapshotKey, snapshot, 0).Err(), "failed to set %v", s.snapshotKey)
}

func (s *redisStore) LoadSnapshot(ctx context.Context) ([]byte, error) {
	snapshot, err := s.backend.db.Get(ctx, s.snapshotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}

	return snapshot, errors.Wrapf(err, "failed to get %v", s.snapshotKey)
}

func (s *redisStore) setField(ctx context.Context, name, value string) error {
	return errors.Wrapf(s.backend.db.HSet(ctx, s.tokenKey, name, value).Err(), "failed to set %v of %v", name, s.tokenKey)
}

func (s *redisStore) field(ctx context.Context, name string) (string, error) {
	value, err := s.backend.db.HGet(ctx, s.tokenKey, name).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}

	return value, errors.Wrapf(err, "failed to get %v of %v", name, s.tokenKey)
}

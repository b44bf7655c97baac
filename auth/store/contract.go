// SPDX-License-Identifier: ice License 1.0

package store

import (
	"context"
	"crypto/cipher"
	"io"
	"sync"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Public API.

const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrUnknownDriver   = errors.New("unknown store driver")
	ErrUnsealingFailed = errors.New("failed to unseal stored token")
)

type (
	// Store holds the persisted token record and the session snapshot of a single client.
	// Every write is visible to the very next read; the store never validates what it's given.
	Store interface {
		Save(ctx context.Context, rawToken string) error
		Load(ctx context.Context) (string, error)
		SetUsername(ctx context.Context, username string) error
		Username(ctx context.Context) (string, error)
		SetTenant(ctx context.Context, tenant string) error
		Tenant(ctx context.Context) (string, error)
		// Clear removes the token, the username, the tenant and the snapshot in one step.
		Clear(ctx context.Context) error
		SaveSnapshot(ctx context.Context, snapshot []byte) error
		LoadSnapshot(ctx context.Context) ([]byte, error)
	}
	// Backend hands out the Store of each client, scoping every record by the client's id.
	Backend interface {
		io.Closer
		For(clientID string) Store
		Ping(ctx context.Context) error
	}
	Config struct {
		Credentials struct {
			User     string `yaml:"user" mapstructure:"user"`
			Password string `yaml:"password" mapstructure:"password"`
		} `yaml:"credentials" mapstructure:"credentials"`
		Driver             string `yaml:"driver" mapstructure:"driver"`
		KeyPrefix          string `yaml:"keyPrefix" mapstructure:"keyPrefix"`
		URL                string `yaml:"url" mapstructure:"url"`
		Secret             string `yaml:"secret" mapstructure:"secret"`
		ConnectionsPerCore int    `yaml:"connectionsPerCore" mapstructure:"connectionsPerCore"`
	}
)

// Private API.

const (
	tokenField    = "token"
	usernameField = "username"
	tenantField   = "tenant"

	tokenKeySuffix    = "token"
	snapshotKeySuffix = "session"

	defaultKeyPrefix          = "console"
	defaultConnectionsPerCore = 10
	secretEnvSuffix           = "STORE_SECRET"
)

type (
	sealer struct {
		aead  cipher.AEAD
		nonce []byte
	}

	memoryBackend struct {
		records map[string]*memoryRecord
		mx      sync.RWMutex
	}
	memoryRecord struct {
		fields   map[string]string
		snapshot []byte
	}
	memoryStore struct {
		backend  *memoryBackend
		clientID string
	}

	redisBackend struct {
		db        *redis.Client
		sealer    *sealer
		keyPrefix string
	}
	redisStore struct {
		backend     *redisBackend
		tokenKey    string
		snapshotKey string
	}
)

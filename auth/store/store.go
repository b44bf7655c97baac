// SPDX-License-Identifier: ice License 1.0

package store

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	appCfg "github.com/bid-agri/console/config"
	"github.com/bid-agri/console/log"
)

// New builds the backend configured under `<applicationYAMLKey>.auth.store`.
// The sealing secret can come from the `<MODULE>_STORE_SECRET` env var as well.
func New(ctx context.Context, applicationYAMLKey string) Backend {
	var cfg Config
	appCfg.MustLoadFromKey(fmt.Sprintf("%v.auth.store", applicationYAMLKey), &cfg, &Config{
		Driver:             DriverMemory,
		KeyPrefix:          defaultKeyPrefix,
		ConnectionsPerCore: defaultConnectionsPerCore,
	})
	if cfg.Secret == "" {
		cfg.Secret = appCfg.Env(applicationYAMLKey, secretEnvSuffix)
	}
	backend, err := NewWithConfig(ctx, &cfg)
	log.Panic(errors.Wrapf(err, "failed to build the %v token store", cfg.Driver)) //nolint:revive // That's intended.

	return backend
}

func NewWithConfig(ctx context.Context, cfg *Config) (Backend, error) {
	switch cfg.Driver {
	case DriverMemory, "":
		return NewMemory(), nil
	case DriverRedis:
		return connectRedis(ctx, cfg)
	default:
		return nil, errors.Wrapf(ErrUnknownDriver, "%q", cfg.Driver)
	}
}

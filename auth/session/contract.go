// SPDX-License-Identifier: ice License 1.0

package session

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/bid-agri/console/api"
	"github.com/bid-agri/console/auth/store"
	"github.com/bid-agri/console/auth/token"
	"github.com/bid-agri/console/time"
)

// Public API.

const (
	Unauthenticated Status = iota
	Checking
	Authenticated
)

const (
	AccessDeniedCode = "ACCESS_DENIED"
)

var (
	ErrAccessDenied     = errors.New("access denied")
	ErrMalformedToken   = errors.New("malformed token")
	ErrExpiredToken     = errors.New("expired token")
	ErrSuperseded       = errors.New("superseded by a newer session operation")
	ErrNotAuthenticated = errors.New("not authenticated")
)

type (
	Status uint8
	// User is what the session exposes of the signed in user's claims.
	User struct {
		ExpiresAt   *time.Time  `json:"expiresAt,omitempty" msgpack:"expiresAt,omitempty"`
		ID          string      `json:"id" msgpack:"id" example:"jdoe@example.com"`
		Email       string      `json:"email,omitempty" msgpack:"email,omitempty" example:"jdoe@example.com"`
		Name        string      `json:"name,omitempty" msgpack:"name,omitempty" example:"Jane Doe"`
		FirstName   string      `json:"firstName,omitempty" msgpack:"firstName,omitempty" example:"Jane"`
		LastName    string      `json:"lastName,omitempty" msgpack:"lastName,omitempty" example:"Doe"`
		TenantID    string      `json:"tenantId,omitempty" msgpack:"tenantId,omitempty" example:"12"`
		Roles       token.Roles `json:"roles" msgpack:"roles" swaggertype:"array,string" example:"TENANT_ADMIN"`
		Permissions []string    `json:"permissions,omitempty" msgpack:"permissions,omitempty" example:"tenant:read"`
	}
	State struct {
		User             *User         `json:"user"`
		CurrentTenant    *api.Tenant   `json:"currentTenant"`
		AvailableTenants []*api.Tenant `json:"availableTenants"`
		IsAuthenticated  bool          `json:"isAuthenticated" example:"true"`
		IsLoading        bool          `json:"isLoading" example:"false"`
	}
	// Policy is who may hold a session of this deployment. No AllowedRoles means any signed in user.
	Policy struct {
		Name         string   `yaml:"name" mapstructure:"name"`
		AllowedRoles []string `yaml:"allowedRoles" mapstructure:"allowedRoles"`
	}
	// Authenticator exchanges credentials for a raw signed token.
	Authenticator interface {
		Login(ctx context.Context, userName, password string) (string, error)
	}
	// Manager owns the session state of a single client.
	// Operations overlap safely: Login and Logout supersede everything started before them,
	// while CheckAuth only ever supersedes older checks and never commits during a Login.
	Manager interface {
		Login(ctx context.Context, identifier, secret string) error
		// CheckAuth revalidates the stored token. Failures are not errors, they end up as Unauthenticated.
		CheckAuth(ctx context.Context) *State
		Logout(ctx context.Context) error
		State() *State

		HasRole(roles ...string) bool
		IsSuperAdmin() bool
		IsTenantAdmin() bool
		IsFarmer() bool

		SetCurrentTenant(ctx context.Context, tenant *api.Tenant) error
		SetAvailableTenants(ctx context.Context, tenants []*api.Tenant) error
		Token(ctx context.Context) (string, error)
		Username(ctx context.Context) (string, error)
	}
)

// Private API.

var errStoreUnavailable = errors.New("token store unavailable")

type (
	manager struct {
		store         store.Store
		authenticator Authenticator
		policy        *Policy
		clock         time.Clock
		state         *State
		// generation is bumped by Login and Logout, checks by every operation.
		generation uint64
		checks     uint64
		// loggingIn is the generation of the Login in flight, 0 if none.
		loggingIn uint64
		mx        sync.RWMutex
	}
	snapshot struct {
		User             *User         `msgpack:"user"`
		CurrentTenant    *api.Tenant   `msgpack:"currentTenant"`
		AvailableTenants []*api.Tenant `msgpack:"availableTenants"`
		IsAuthenticated  bool          `msgpack:"isAuthenticated"`
	}
)

// SPDX-License-Identifier: ice License 1.0

package api

import (
	"context"
	stdlibtime "time"

	"github.com/imroc/req/v3"
	"github.com/pkg/errors"
)

// Public API.

const (
	ResultStatusSuccessful = "SUCCESSFUL"
)

var (
	ErrMissingToken = errors.New("login response carried no token")
	ErrUnavailable  = errors.New("remote api unavailable")
)

type (
	// Client calls the remote marketplace API. Every call that needs an identity gets the caller's bearer token explicitly.
	Client interface {
		Login(ctx context.Context, userName, password string) (string, error)
		VerifyRegistration(ctx context.Context, verificationToken string) (string, error)
		ResendVerificationToken(ctx context.Context, bearer, email string) error
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, arg *ResetPasswordArg) error
		ChangePassword(ctx context.Context, bearer string, arg *ChangePasswordArg) error

		Tenants(ctx context.Context, bearer string) ([]*Tenant, error)
		Tenant(ctx context.Context, bearer string, id int64) (*Tenant, error)
		CreateTenant(ctx context.Context, bearer string, tenant *Tenant) (*Tenant, error)
		UpdateTenant(ctx context.Context, bearer string, tenant *Tenant) (*Tenant, error)
		DeleteTenant(ctx context.Context, bearer string, id int64) error
		RegisterTenantAdmin(ctx context.Context, bearer string, admin *TenantAdmin) error
	}
	// Error is a call the remote API answered negatively; Message is the best effort human readable reason.
	Error struct {
		Message string `json:"message,omitempty"`
		Status  int    `json:"status,omitempty"`
	}
	Tenant struct {
		TenantCode string `json:"tenantCode" msgpack:"tenantCode" example:"STORE-1"`
		TenantName string `json:"tenantName" msgpack:"tenantName" example:"Green Valley Agro"`
		ID         int64  `json:"id,omitempty" msgpack:"id" example:"12"`
		Enabled    bool   `json:"enabled" msgpack:"enabled" example:"true"`
	}
	TenantAdmin struct {
		Tenant           Ref    `json:"tenantDTO"`
		FirstName        string `json:"firstName"`
		LastName         string `json:"lastName"`
		Email            string `json:"email"`
		TempPassword     string `json:"tempPassword"`     //nolint:gosec // It's a request field.
		MatchingPassword string `json:"matchingPassword"` //nolint:gosec // It's a request field.
		Roles            []*Ref `json:"roleDTOs"`
	}
	Ref struct {
		ID int64 `json:"id"`
	}
	ResetPasswordArg struct {
		UserName string `json:"userName"`
		Password string `json:"password"` //nolint:gosec // It's a request field.
		Token    string `json:"token"`
	}
	ChangePasswordArg struct {
		Email       string `json:"email"`
		OldPassword string `json:"oldPassword"` //nolint:gosec // It's a request field.
		NewPassword string `json:"newPassword"` //nolint:gosec // It's a request field.
	}
	Config struct {
		BaseURL        string              `yaml:"baseUrl" mapstructure:"baseUrl"`
		RequestTimeout stdlibtime.Duration `yaml:"requestTimeout" mapstructure:"requestTimeout"`
		RetryCount     int                 `yaml:"retryCount" mapstructure:"retryCount"`
	}
)

// Private API.

const (
	defaultRequestTimeout = 25 * stdlibtime.Second
	defaultRetryCount     = 3
	maxErrorMessageLength = 256
)

type (
	client struct {
		http *req.Client
		cfg  *Config
	}
	envelope[T any] struct {
		Payload      *T     `json:"payload"`
		PayloadDTO   *T     `json:"payloadDto"`
		Success      *bool  `json:"success"`
		Message      string `json:"message"`
		ResultStatus string `json:"resultStatus"`
		Error        string `json:"error"`
	}
	loginPayload struct {
		JWTToken string `json:"jwtToken"`
		Token    string `json:"token"`
	}
)

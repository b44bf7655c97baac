// SPDX-License-Identifier: ice License 1.0

package console

import (
	"sync"
	stdlibtime "time"

	"github.com/bid-agri/console/api"
	"github.com/bid-agri/console/auth/guard"
	"github.com/bid-agri/console/auth/session"
	"github.com/bid-agri/console/auth/store"
	"github.com/bid-agri/console/time"
)

// Public API.

const (
	ApplicationYAMLKey = "console"
)

const (
	NotAuthenticatedCode     = "NOT_AUTHENTICATED"
	InvalidCredentialsCode   = "INVALID_CREDENTIALS"
	InvalidRequestCode       = "INVALID_REQUEST"
	OperationNotAllowedCode  = "OPERATION_NOT_ALLOWED"
	NotFoundCode             = "NOT_FOUND"
	ConflictCode             = "CONFLICT"
	SupersededCode           = "SESSION_OPERATION_SUPERSEDED"
	PasswordsMismatchCode    = "PASSWORDS_DO_NOT_MATCH"
	InvalidRemoteTokenCode   = "INVALID_REMOTE_TOKEN"
	RemoteAPIFailedCode      = "REMOTE_API_FAILED"
	RemoteAPIUnavailableCode = "REMOTE_API_UNAVAILABLE"
)

type (
	Config struct {
		ClientCookie struct {
			Name   string              `yaml:"name" mapstructure:"name"`
			MaxAge stdlibtime.Duration `yaml:"maxAge" mapstructure:"maxAge"`
			Secure bool                `yaml:"secure" mapstructure:"secure"`
		} `yaml:"clientCookie" mapstructure:"clientCookie"`
		// LoginPages is where a user goes to sign in again, by role. The default login page is the fallback.
		LoginPages       []*guard.LandingRule `yaml:"loginPages" mapstructure:"loginPages"`
		DefaultLoginPage string               `yaml:"defaultLoginPage" mapstructure:"defaultLoginPage"`
	}

	LoginArg struct {
		UserName string `json:"userName" required:"true" example:"jdoe@example.com"`
		Password string `json:"password" required:"true" example:"s3cret"` //nolint:gosec // It's a request field.
	}
	GetSessionArg struct{}
	DeleteSessionArg struct{}
	SelectTenantArg struct {
		TenantID int64 `json:"tenantId" required:"true" example:"12"`
	}
	Session struct {
		*session.State
		Username    string `json:"username,omitempty" example:"jdoe@example.com"`
		LandingPath string `json:"landingPath,omitempty" example:"/storeDashboard"`
	}

	GetTenantsArg struct{}
	TenantArg     struct {
		TenantCode string `json:"tenantCode" required:"true" example:"STORE-1"`
		TenantName string `json:"tenantName" required:"true" example:"Green Valley Agro"`
		Enabled    bool   `json:"enabled" example:"true"`
	}
	UpdateTenantArg struct {
		TenantCode string `json:"tenantCode" required:"true" example:"STORE-1"`
		TenantName string `json:"tenantName" required:"true" example:"Green Valley Agro"`
		TenantID   int64  `uri:"tenantId" json:"-" required:"true" swaggerignore:"true" example:"12"`
		Enabled    bool   `json:"enabled" example:"true"`
	}
	TenantByIDArg struct {
		TenantID int64 `uri:"tenantId" required:"true" swaggerignore:"true" example:"12"`
	}
	CreateTenantAdminArg struct {
		FirstName        string  `json:"firstName" required:"true" example:"Jane"`
		LastName         string  `json:"lastName" required:"true" example:"Doe"`
		Email            string  `json:"email" required:"true" example:"jdoe@example.com"`
		Password         string  `json:"password" required:"true" example:"s3cret"`         //nolint:gosec // It's a request field.
		MatchingPassword string  `json:"matchingPassword" required:"true" example:"s3cret"` //nolint:gosec // It's a request field.
		RoleIDs          []int64 `json:"roleIds" example:"2"`
		TenantID         int64   `uri:"tenantId" json:"-" required:"true" swaggerignore:"true" example:"12"`
	}
	ResendVerificationTokenArg struct {
		Email string `json:"email" required:"true" example:"jdoe@example.com"`
	}

	VerifyEmailArg struct {
		Token string `form:"token" required:"true" example:"0b6f0bd2-3b1a-4c36-9f0e-3c4b1b3c2f11"`
	}
	RequestPasswordResetArg struct {
		Email string `json:"email" required:"true" example:"jdoe@example.com"`
	}
	ResetPasswordArg struct {
		UserName string `json:"userName" required:"true" example:"jdoe@example.com"`
		Password string `json:"password" required:"true" example:"n3w-s3cret"` //nolint:gosec // It's a request field.
		Token    string `json:"token" required:"true" example:"0b6f0bd2-3b1a-4c36-9f0e-3c4b1b3c2f11"`
	}
	ChangePasswordArg struct {
		OldPassword string `json:"oldPassword" required:"true" example:"s3cret"`    //nolint:gosec // It's a request field.
		NewPassword string `json:"newPassword" required:"true" example:"n3w-s3cret"` //nolint:gosec // It's a request field.
	}
	PasswordChanged struct {
		LoginPath string `json:"loginPath" example:"/storeLogin"`
	}
	Message struct {
		Message string `json:"message,omitempty" example:"your account was verified"`
	}

	PageArg struct {
		From   string `form:"from" example:"/dashboard"`
		Notice string `form:"notice" example:"Access denied. You do not have permission to access this page."`
	}
	Page struct {
		User          *session.User `json:"user,omitempty"`
		CurrentTenant *api.Tenant   `json:"currentTenant,omitempty"`
		Name          string        `json:"page" example:"storeDashboard"`
		From          string        `json:"from,omitempty" example:"/dashboard"`
		Notice        string        `json:"notice,omitempty" example:"Access denied. You do not have permission to access this page."`
	}
)

// Private API.

const (
	defaultClientCookieName   = "bidagri_client"
	defaultClientCookieMaxAge = 30 * 24 * stdlibtime.Hour
	defaultLoginPage          = "/login"

	defaultTenantAdminRoleID = 2

	idleSweepInterval = stdlibtime.Minute
)

type (
	service struct {
		api        api.Client
		backend    store.Backend
		guard      guard.Guard
		loginPages guard.Guard
		policy     *session.Policy
		clock      time.Clock
		cfg        *Config
		managers   map[string]*clientSession
		lastSweep  *time.Time
		mx         sync.Mutex
	}
	clientSession struct {
		session.Manager
		lastSeen *time.Time
	}
)

// SPDX-License-Identifier: ice License 1.0

package token

import (
	"github.com/golang-jwt/jwt/v5"
)

// Public API.

const (
	RoleSuperAdmin  = "SUPER_ADMIN"
	RoleTenantAdmin = "TENANT_ADMIN"
	RoleSystemUser  = "SYSTEM_USER"
	// RoleAliasPrefix marks the spring-style aliases, i.e. `ROLE_TENANT_ADMIN` is `TENANT_ADMIN`.
	RoleAliasPrefix = "ROLE_"
)

type (
	// Claims is the payload of the token issued by the remote API.
	// It's never verified here: the remote API verifies it on every call, this is only used for routing hints.
	Claims struct {
		jwt.RegisteredClaims
		Name         string   `json:"name,omitempty" example:"Jane Doe"`
		Email        string   `json:"email,omitempty" example:"jdoe@example.com"`
		FirstName    string   `json:"firstName,omitempty" example:"Jane"`
		LastName     string   `json:"lastName,omitempty" example:"Doe"`
		TenantID     Opaque   `json:"tenantId,omitempty" example:"12"`
		TenantAPIKey Opaque   `json:"tenantApiKey,omitempty"`
		Roles        Roles    `json:"roles,omitempty" example:"TENANT_ADMIN"`
		Permissions  []string `json:"permissions,omitempty"`
	}
	// Roles is a set of role identifiers. On the wire it's either an array or a single string.
	Roles []string
	// Opaque holds a claim this package never interprets. On the wire it's a string or a number.
	Opaque string
)

// Private API.

var (
	//nolint:gochecknoglobals // Stateless and goroutine safe.
	parser = jwt.NewParser()
)

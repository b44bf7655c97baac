// SPDX-License-Identifier: ice License 1.0

package token

import (
	"strings"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/bid-agri/console/log"
	"github.com/bid-agri/console/time"
)

// Decode parses the payload segment of rawToken, without verifying its signature.
// It returns nil for anything that is not a well formed token; that's an expected outcome, not an error.
// The header's alg is never looked at, so unknown or missing algorithms are fine.
func Decode(rawToken string) *Claims {
	if rawToken == "" {
		return nil
	}
	claims := new(Claims)
	if _, _, err := parser.ParseUnverified(rawToken, claims); err != nil && !errors.Is(err, jwt.ErrTokenUnverifiable) {
		log.Debug("discarding undecodable token", "error", err.Error())

		return nil
	}

	return claims
}

// IsExpired is true iff the claims carry an expiration and now is at or past it.
// Claims without an expiration never expire.
func IsExpired(claims *Claims, now *time.Time) bool {
	if claims == nil {
		return true
	}
	if claims.ExpiresAt == nil {
		return false
	}

	return !now.Before(claims.ExpiresAt.Time)
}

// DisplayName picks the best human readable name out of the claims.
func (c *Claims) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	if full := strings.TrimSpace(c.FirstName + " " + c.LastName); full != "" {
		return full
	}
	if c.Email != "" {
		return c.Email
	}

	return c.Subject
}

// ExpiresAtTime is nil when the claims don't expire.
func (c *Claims) ExpiresAtTime() *time.Time {
	if c.ExpiresAt == nil {
		return nil
	}

	return time.New(c.ExpiresAt.Time)
}

func NormalizeRole(role string) string {
	return strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(role)), RoleAliasPrefix)
}

// Has reports whether any of the required roles is present, `ROLE_` aliases included.
// It's false when nothing is required: use it only after checking there are requirements.
func (r Roles) Has(required ...string) bool {
	for _, req := range required {
		normalizedReq := NormalizeRole(req)
		for _, role := range r {
			if NormalizeRole(role) == normalizedReq {
				return true
			}
		}
	}

	return false
}

func (r Roles) String() string {
	if len(r) == 0 {
		return "no roles assigned"
	}

	return strings.Join(r, ", ")
}

func (r *Roles) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*r = nil
		if single != "" {
			*r = Roles{single}
		}

		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return errors.Wrapf(err, "roles must be a string or an array of strings, got %s", data)
	}
	*r = many

	return nil
}

func (o *Opaque) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*o = Opaque(str)

		return nil
	}
	if raw := string(data); raw != "null" {
		*o = Opaque(raw)
	}

	return nil
}

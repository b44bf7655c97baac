// SPDX-License-Identifier: ice License 1.0

package fixture

import (
	stdlibtime "time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/bid-agri/console/auth/token"
	"github.com/bid-agri/console/log"
)

const (
	// Secret signs the tokens minted here; nothing in the console ever verifies it.
	Secret = "fixture-secret-not-verified-by-the-console"
	issuer = "bid-agri.test"
)

// Generate mints a signed access token for subject, expiring after expiresIn (never, if zero), holding roles.
func Generate(now stdlibtime.Time, subject string, expiresIn stdlibtime.Duration, roles ...string) string {
	claims := &token.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
		Email: subject,
		Name:  "test user",
		Roles: roles,
	}
	if expiresIn != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(expiresIn))
	}

	return GenerateClaims(claims)
}

func GenerateClaims(claims *token.Claims) string {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(Secret))
	log.Panic(errors.Wrapf(err, "failed to sign fixture token for %v", claims.Subject)) //nolint:revive // Intended.

	return signed
}

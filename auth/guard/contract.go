// SPDX-License-Identifier: ice License 1.0

package guard

import (
	"github.com/gin-gonic/gin"

	"github.com/bid-agri/console/auth/session"
	"github.com/bid-agri/console/auth/token"
)

// Public API.

const (
	Render Action = iota
	Loading
	Redirect
	Deny
)

const (
	FromQueryParam     = "from"
	NoticeQueryParam   = "notice"
	AccessDeniedNotice = "Access denied. You do not have permission to access this page."
	LoadingMessage     = "Checking authentication..."
)

type (
	Action uint8
	// Decision is what to do with a navigation, given the session state it was decided on.
	Decision struct {
		Path   string
		From   string
		Notice string
		Action Action
	}
	// LandingRule sends users holding Role to Path.
	LandingRule struct {
		Role string `yaml:"role" mapstructure:"role"`
		Path string `yaml:"path" mapstructure:"path"`
	}
	Config struct {
		EntryPoint   string         `yaml:"entryPoint" mapstructure:"entryPoint"`
		LandingPath  string         `yaml:"landingPath" mapstructure:"landingPath"`
		LandingRules []*LandingRule `yaml:"landingRules" mapstructure:"landingRules"`
	}
	// Resolver finds the session of the client behind a request.
	Resolver func(*gin.Context) session.Manager
	Guard    interface {
		// Decide is pure: the same state, target and required roles always yield the same decision.
		Decide(state *session.State, target string, requiredRoles ...string) *Decision
		// Landing is the home of a role set. The first matching rule wins, the entry point is the fallback.
		Landing(roles token.Roles) string
		// Middleware revalidates the session on every request and applies the decision.
		Middleware(resolve Resolver, requiredRoles ...string) gin.HandlerFunc
	}
)

// Private API.

const (
	stateCtxKey = "sessionStateCtxKey"

	defaultEntryPoint = "/"
)

type (
	guard struct {
		cfg *Config
	}
	loadingResponse struct {
		Status  string `json:"status" example:"checking"`
		Message string `json:"message" example:"Checking authentication..."`
	}
)

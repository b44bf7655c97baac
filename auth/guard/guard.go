// SPDX-License-Identifier: ice License 1.0

package guard

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/bid-agri/console/auth/session"
	"github.com/bid-agri/console/auth/token"
	appCfg "github.com/bid-agri/console/config"
	"github.com/bid-agri/console/server"
)

func New(applicationYAMLKey string) Guard {
	var cfg Config
	appCfg.MustLoadFromKey(fmt.Sprintf("%v.auth.guard", applicationYAMLKey), &cfg)

	return NewWithConfig(&cfg)
}

// NewWithConfig fills what cfg leaves out: the entry point is `/`, so is the landing path,
// tenant admins land on the store dashboard and farmers on the farmer dashboard.
func NewWithConfig(cfg *Config) Guard {
	withDefaults := *cfg
	if withDefaults.EntryPoint == "" {
		withDefaults.EntryPoint = defaultEntryPoint
	}
	if withDefaults.LandingPath == "" {
		withDefaults.LandingPath = withDefaults.EntryPoint
	}
	if len(withDefaults.LandingRules) == 0 {
		withDefaults.LandingRules = []*LandingRule{
			{Role: token.RoleTenantAdmin, Path: "/storeDashboard"},
			{Role: token.RoleSystemUser, Path: "/farmerDashboard"},
		}
	}

	return &guard{cfg: &withDefaults}
}

func (g *guard) Landing(roles token.Roles) string {
	for _, rule := range g.cfg.LandingRules {
		if roles.Has(rule.Role) {
			return rule.Path
		}
	}

	return g.cfg.EntryPoint
}

func (g *guard) Decide(state *session.State, target string, requiredRoles ...string) *Decision {
	if state.IsLoading {
		return &Decision{Action: Loading}
	}
	if !state.IsAuthenticated || state.User == nil {
		if target == g.cfg.EntryPoint {
			return &Decision{Action: Render}
		}

		return &Decision{Action: Redirect, Path: g.cfg.EntryPoint, From: target}
	}
	landing := g.Landing(state.User.Roles)
	if target == g.cfg.LandingPath {
		if landing == target {
			return &Decision{Action: Render}
		}

		return &Decision{Action: Redirect, Path: landing}
	}
	if len(requiredRoles) != 0 && !state.User.Roles.Has(requiredRoles...) {
		if landing == target {
			return &Decision{Action: Deny, Notice: AccessDeniedNotice}
		}

		return &Decision{Action: Redirect, Path: landing, Notice: AccessDeniedNotice}
	}

	return &Decision{Action: Render}
}

func (g *guard) Middleware(resolve Resolver, requiredRoles ...string) gin.HandlerFunc {
	return func(ginCtx *gin.Context) {
		state := resolve(ginCtx).CheckAuth(ginCtx.Request.Context())
		decision := g.Decide(state, ginCtx.Request.URL.Path, requiredRoles...)
		switch decision.Action {
		case Loading:
			ginCtx.AbortWithStatusJSON(http.StatusAccepted, &loadingResponse{Status: session.Checking.String(), Message: LoadingMessage})
		case Redirect:
			ginCtx.Redirect(http.StatusFound, decision.URL())
			ginCtx.Abort()
		case Deny:
			ginCtx.AbortWithStatusJSON(http.StatusForbidden, &server.ErrorResponse{
				Error: decision.Notice,
				Code:  session.AccessDeniedCode,
				Data:  map[string]any{"roles": []string(state.User.Roles)},
			})
		case Render:
			ginCtx.Set(stateCtxKey, state)
			ginCtx.Next()
		}
	}
}

// URL is where a redirect decision points, carrying the original target and the notice, if any.
func (d *Decision) URL() string {
	query := make(url.Values, 1+1)
	if d.From != "" {
		query.Set(FromQueryParam, d.From)
	}
	if d.Notice != "" {
		query.Set(NoticeQueryParam, d.Notice)
	}
	location := url.URL{Path: d.Path, RawQuery: query.Encode()}

	return location.String()
}

// StateFrom is the session state the guard let the request through with.
func StateFrom(ginCtx *gin.Context) *session.State {
	if state, found := ginCtx.Get(stateCtxKey); found {
		return state.(*session.State) //nolint:forcetypeassert,errcheck // We know for sure.
	}

	return nil
}

func (a Action) String() string {
	switch a {
	case Loading:
		return "loading"
	case Redirect:
		return "redirect"
	case Deny:
		return "deny"
	default:
		return "render"
	}
}

// SPDX-License-Identifier: ice License 1.0

package console

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/bid-agri/console/api"
	"github.com/bid-agri/console/auth/guard"
	"github.com/bid-agri/console/auth/session"
	"github.com/bid-agri/console/auth/store"
	"github.com/bid-agri/console/auth/token"
	appCfg "github.com/bid-agri/console/config"
	"github.com/bid-agri/console/log"
	"github.com/bid-agri/console/server"
	"github.com/bid-agri/console/terror"
	"github.com/bid-agri/console/time"
)

// New is the console's http state. Everything it depends on is built in Init, out of the `console` config key.
func New() server.State {
	return new(service)
}

// setup wires s with its dependencies, filling what cfg leaves out.
func (s *service) setup(cfg *Config, apiClient api.Client, backend store.Backend, grd guard.Guard, policy *session.Policy, clock time.Clock) *service {
	withDefaults := *cfg
	if withDefaults.ClientCookie.Name == "" {
		withDefaults.ClientCookie.Name = defaultClientCookieName
	}
	if withDefaults.ClientCookie.MaxAge <= 0 {
		withDefaults.ClientCookie.MaxAge = defaultClientCookieMaxAge
	}
	if withDefaults.DefaultLoginPage == "" {
		withDefaults.DefaultLoginPage = defaultLoginPage
	}
	if len(withDefaults.LoginPages) == 0 {
		withDefaults.LoginPages = []*guard.LandingRule{
			{Role: token.RoleTenantAdmin, Path: "/storeLogin"},
			{Role: token.RoleSystemUser, Path: "/farmerLogin"},
		}
	}

	if clock == nil {
		clock = time.Now
	}

	s.api = apiClient
	s.backend = backend
	s.guard = grd
	s.loginPages = guard.NewWithConfig(&guard.Config{EntryPoint: withDefaults.DefaultLoginPage, LandingRules: withDefaults.LoginPages})
	s.policy = policy
	s.clock = clock
	s.cfg = &withDefaults
	s.managers = make(map[string]*clientSession)
	s.lastSweep = clock()

	return s
}

func (s *service) Init(ctx context.Context, _ context.CancelFunc) {
	var cfg Config
	appCfg.MustLoadFromKey(ApplicationYAMLKey, &cfg)
	var policy session.Policy
	appCfg.MustLoadFromKey(fmt.Sprintf("%v.auth.session", ApplicationYAMLKey), &policy)
	s.setup(&cfg, api.New(ApplicationYAMLKey), store.New(ctx, ApplicationYAMLKey), guard.New(ApplicationYAMLKey), &policy, time.Now)
}

func (s *service) Close(ctx context.Context) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	clear(s.managers)
	errs := []error{errors.Wrap(s.backend.Close(), "failed to close the token store")}
	if ctx.Err() != nil {
		errs = append(errs, errors.Wrap(ctx.Err(), "context failed"))
	}

	return multierror.Append(nil, errs...).ErrorOrNil() //nolint:wrapcheck // .
}

func (s *service) CheckHealth(ctx context.Context) error {
	return errors.Wrap(s.backend.Ping(ctx), "token store ping failed")
}

func (s *service) RegisterRoutes(router *server.Router) {
	s.setupSessionRoutes(router)
	s.setupTenantRoutes(router)
	s.setupUserRoutes(router)
	s.setupPageRoutes(router)
}

// manager resolves the session of the client behind the request, identified by its client cookie.
// Clients without a valid one get a fresh identity.
// Only clients holding a stored session are kept around, everybody else gets a manager rebuilt from the store.
func (s *service) manager(ginCtx *gin.Context) session.Manager {
	clientID, err := ginCtx.Cookie(s.cfg.ClientCookie.Name)
	if err != nil || !isUUID(clientID) {
		clientID = uuid.NewString()
	}
	ginCtx.SetSameSite(http.SameSiteLaxMode)
	ginCtx.SetCookie(s.cfg.ClientCookie.Name, clientID, int(s.cfg.ClientCookie.MaxAge.Seconds()), "/", "", s.cfg.ClientCookie.Secure, true)

	now := s.clock()
	if mgr := s.lookup(clientID, now); mgr != nil {
		return mgr
	}
	mgr := session.New(ginCtx.Request.Context(), s.backend.For(clientID), s.api, s.policy, s.clock)
	if !mgr.State().IsAuthenticated {
		return mgr
	}
	s.mx.Lock()
	defer s.mx.Unlock()
	if client, found := s.managers[clientID]; found {
		client.lastSeen = now

		return client.Manager
	}
	s.managers[clientID] = &clientSession{Manager: mgr, lastSeen: now}

	return mgr
}

func (s *service) lookup(clientID string, now *time.Time) session.Manager {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.evictIdle(now)
	client, found := s.managers[clientID]
	if !found {
		return nil
	}
	client.lastSeen = now

	return client.Manager
}

// evictIdle drops the managers of clients unseen for longer than the cookie's max age, or signed out meanwhile.
// It must be called while holding the lock.
func (s *service) evictIdle(now *time.Time) {
	if now.Sub(*s.lastSweep.Time) < idleSweepInterval {
		return
	}
	s.lastSweep = now
	for clientID, client := range s.managers {
		if now.Sub(*client.lastSeen.Time) > s.cfg.ClientCookie.MaxAge || client.State().Status() == session.Unauthenticated {
			delete(s.managers, clientID)
		}
	}
}

// authorize revalidates the client's session and hands out its bearer token, if it holds any of roles.
func (s *service) authorize(ctx context.Context, ginCtx *gin.Context, roles ...string) (session.Manager, string, *server.Response[server.ErrorResponse]) {
	mgr := s.manager(ginCtx)
	state := mgr.CheckAuth(ctx)
	if !state.IsAuthenticated || state.User == nil {
		return nil, "", server.Unauthorized(session.ErrNotAuthenticated, NotAuthenticatedCode)
	}
	if len(roles) != 0 && !state.User.Roles.Has(roles...) {
		err := errors.Wrapf(session.ErrAccessDenied, "one of the %v role(s) is required, yours: %v", roles, state.User.Roles)

		return nil, "", server.Forbidden(err, session.AccessDeniedCode, map[string]any{"roles": []string(state.User.Roles), "allowedRoles": roles})
	}
	bearer, err := mgr.Token(ctx)
	if err != nil {
		return nil, "", failure(err)
	}

	return mgr, bearer, nil
}

//nolint:gocyclo,revive,cyclop // It's a flat mapping.
func failure(err error) *server.Response[server.ErrorResponse] {
	var apiErr *api.Error
	if tErr := terror.As(err); tErr != nil && errors.Is(err, session.ErrAccessDenied) {
		return server.Forbidden(err, tErr.Code, tErr.Data)
	}
	switch {
	case errors.Is(err, session.ErrAccessDenied):
		return server.Forbidden(err, session.AccessDeniedCode)
	case errors.Is(err, session.ErrNotAuthenticated):
		return server.Unauthorized(err, NotAuthenticatedCode)
	case errors.Is(err, session.ErrSuperseded):
		return server.Conflict(err, SupersededCode)
	case errors.As(err, &apiErr):
		return remoteFailure(err, apiErr)
	case errors.Is(err, api.ErrMissingToken), errors.Is(err, session.ErrMalformedToken), errors.Is(err, session.ErrExpiredToken):
		return server.BadGateway(err, InvalidRemoteTokenCode)
	case errors.Is(err, api.ErrUnavailable) && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded):
		return server.BadGateway(err, RemoteAPIUnavailableCode)
	default:
		return server.Unexpected(err)
	}
}

// remoteFailure relays a negative answer of the remote API, with its message as is.
func remoteFailure(err error, apiErr *api.Error) *server.Response[server.ErrorResponse] {
	var resp *server.Response[server.ErrorResponse]
	switch apiErr.Status {
	case http.StatusUnauthorized:
		resp = server.Unauthorized(err, InvalidCredentialsCode)
	case http.StatusForbidden:
		resp = server.Forbidden(err, OperationNotAllowedCode)
	case http.StatusNotFound:
		resp = server.NotFound(err, NotFoundCode)
	case http.StatusConflict:
		resp = server.Conflict(err, ConflictCode)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		resp = server.BadRequest(err, InvalidRequestCode)
	default:
		resp = server.BadGateway(err, RemoteAPIFailedCode)
	}
	if apiErr.Message != "" {
		resp.Data.Error = apiErr.Message
	}

	return resp
}

func (s *service) sessionOf(ctx context.Context, mgr session.Manager, state *session.State) *Session {
	resp := &Session{State: state}
	if !state.IsAuthenticated || state.User == nil {
		return resp
	}
	resp.LandingPath = s.guard.Landing(state.User.Roles)
	username, err := mgr.Username(ctx)
	if err != nil && !errors.Is(err, session.ErrNotAuthenticated) {
		log.Error(errors.Wrap(err, "failed to load the username of the session"))
	}
	resp.Username = username

	return resp
}

func isUUID(clientID string) bool {
	_, err := uuid.Parse(clientID)

	return err == nil
}

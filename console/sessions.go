// SPDX-License-Identifier: ice License 1.0

package console

import (
	"context"

	"github.com/pkg/errors"

	"github.com/bid-agri/console/server"
)

func (s *service) setupSessionRoutes(router *server.Router) {
	router.
		Group("/v1").
		POST("/session", server.RootHandler(s.Login)).
		GET("/session", server.RootHandler(s.GetSession)).
		DELETE("/session", server.RootHandler(s.Logout)).
		PUT("/session/tenant", server.RootHandler(s.SelectTenant))
}

// Login godoc
//
//	@Schemes
//	@Description	Signs the client in with the remote API. Only users holding one of the console's allowed roles are let in.
//	@Tags			Session
//	@Accept			json
//	@Produce		json
//	@Param			request	body		LoginArg	true	"Request params"
//	@Success		200		{object}	Session
//	@Failure		401		{object}	server.ErrorResponse	"if the credentials are wrong"
//	@Failure		403		{object}	server.ErrorResponse	"if the user's roles are not allowed in"
//	@Failure		409		{object}	server.ErrorResponse	"if a newer session operation took over"
//	@Failure		422		{object}	server.ErrorResponse	"if syntax fails"
//	@Failure		500		{object}	server.ErrorResponse
//	@Failure		502		{object}	server.ErrorResponse	"if the remote API failed"
//	@Failure		504		{object}	server.ErrorResponse	"if request times out"
//	@Router			/v1/session [POST].
func (s *service) Login( //nolint:gocritic // False negative.
	ctx context.Context,
	req *server.Request[LoginArg, Session],
) (*server.Response[Session], *server.Response[server.ErrorResponse]) {
	mgr := s.manager(req.GinContext())
	if err := mgr.Login(ctx, req.Data.UserName, req.Data.Password); err != nil {
		return nil, failure(errors.Wrapf(err, "failed to sign in %v", req.Data.UserName))
	}

	return server.OK(s.sessionOf(ctx, mgr, mgr.State())), nil
}

// GetSession godoc
//
//	@Schemes
//	@Description	Revalidates the client's stored token and returns the resulting session. Unusable tokens end up as an unauthenticated session.
//	@Tags			Session
//	@Produce		json
//	@Success		200	{object}	Session
//	@Failure		500	{object}	server.ErrorResponse
//	@Failure		504	{object}	server.ErrorResponse	"if request times out"
//	@Router			/v1/session [GET].
func (s *service) GetSession( //nolint:gocritic // False negative.
	ctx context.Context,
	req *server.Request[GetSessionArg, Session],
) (*server.Response[Session], *server.Response[server.ErrorResponse]) {
	mgr := s.manager(req.GinContext())

	return server.OK(s.sessionOf(ctx, mgr, mgr.CheckAuth(ctx))), nil
}

// Logout godoc
//
//	@Schemes
//	@Description	Signs the client out, whatever state its session is in.
//	@Tags			Session
//	@Success		204	"OK - no content"
//	@Failure		500	{object}	server.ErrorResponse
//	@Failure		504	{object}	server.ErrorResponse	"if request times out"
//	@Router			/v1/session [DELETE].
func (s *service) Logout( //nolint:gocritic // False negative.
	ctx context.Context,
	req *server.Request[DeleteSessionArg, any],
) (*server.Response[any], *server.Response[server.ErrorResponse]) {
	if err := s.manager(req.GinContext()).Logout(ctx); err != nil {
		return nil, failure(errors.Wrap(err, "failed to sign out"))
	}

	return server.NoContent[any](), nil
}

// SelectTenant godoc
//
//	@Schemes
//	@Description	Makes a tenant the session's current one.
//	@Tags			Session
//	@Accept			json
//	@Produce		json
//	@Param			request	body		SelectTenantArg	true	"Request params"
//	@Success		200		{object}	Session
//	@Failure		401		{object}	server.ErrorResponse	"if not signed in"
//	@Failure		404		{object}	server.ErrorResponse	"if the tenant doesn't exist"
//	@Failure		422		{object}	server.ErrorResponse	"if syntax fails"
//	@Failure		500		{object}	server.ErrorResponse
//	@Failure		502		{object}	server.ErrorResponse	"if the remote API failed"
//	@Failure		504		{object}	server.ErrorResponse	"if request times out"
//	@Router			/v1/session/tenant [PUT].
func (s *service) SelectTenant( //nolint:gocritic // False negative.
	ctx context.Context,
	req *server.Request[SelectTenantArg, Session],
) (*server.Response[Session], *server.Response[server.ErrorResponse]) {
	mgr, bearer, fail := s.authorize(ctx, req.GinContext())
	if fail != nil {
		return nil, fail
	}
	tenant, err := s.api.Tenant(ctx, bearer, req.Data.TenantID)
	if err != nil {
		return nil, failure(errors.Wrapf(err, "failed to select tenant %v", req.Data.TenantID))
	}
	if tenant == nil {
		return nil, server.NotFound(errors.Errorf("tenant %v not found", req.Data.TenantID), NotFoundCode)
	}
	if err = mgr.SetCurrentTenant(ctx, tenant); err != nil {
		return nil, failure(errors.Wrapf(err, "failed to select tenant %v", req.Data.TenantID))
	}

	return server.OK(s.sessionOf(ctx, mgr, mgr.State())), nil
}

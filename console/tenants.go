// SPDX-License-Identifier: ice License 1.0

package console

import (
	"context"

	"github.com/pkg/errors"

	"github.com/bid-agri/console/api"
	"github.com/bid-agri/console/auth/session"
	"github.com/bid-agri/console/auth/token"
	"github.com/bid-agri/console/log"
	"github.com/bid-agri/console/server"
)

func (s *service) setupTenantRoutes(router *server.Router) {
	router.
		Group("/v1").
		GET("/tenants", server.RootHandler(s.GetTenants)).
		POST("/tenants", server.RootHandler(s.CreateTenant)).
		GET("/tenants/:tenantId", server.RootHandler(s.GetTenant)).
		PUT("/tenants/:tenantId", server.RootHandler(s.UpdateTenant)).
		DELETE("/tenants/:tenantId", server.RootHandler(s.DeleteTenant)).
		POST("/tenants/:tenantId/admins", server.RootHandler(s.CreateTenantAdmin))
}

// GetTenants godoc
//
//	@Schemes
//	@Description	Lists all tenants. They become the session's available tenants.
//	@Tags			Tenants
//	@Produce		json
//	@Success		200	{array}		api.Tenant
//	@Failure		401	{object}	server.ErrorResponse	"if not signed in"
//	@Failure		403	{object}	server.ErrorResponse	"if not a super admin"
//	@Failure		500	{object}	server.ErrorResponse
//	@Failure		502	{object}	server.ErrorResponse	"if the remote API failed"
//	@Failure		504	{object}	server.ErrorResponse	"if request times out"
//	@Router			/v1/tenants [GET].
func (s *service) GetTenants( //nolint:gocritic // False negative.
	ctx context.Context,
	req *server.Request[GetTenantsArg, []*api.Tenant],
) (*server.Response[[]*api.Tenant], *server.Response[server.ErrorResponse]) {
	mgr, bearer, fail := s.authorize(ctx, req.GinContext(), token.RoleSuperAdmin)
	if fail != nil {
		return nil, fail
	}
	tenants, err := s.api.Tenants(ctx, bearer)
	if err != nil {
		return nil, failure(errors.Wrap(err, "failed to list tenants"))
	}
	if tenants == nil {
		tenants = make([]*api.Tenant, 0)
	}
	if err = mgr.SetAvailableTenants(ctx, tenants); err != nil {
		log.Error(errors.Wrap(err, "failed to keep the available tenants in the session"))
	}

	return server.OK(&tenants), nil
}

// GetTenant godoc
//
//	@Schemes
//	@Description	Returns one tenant.
//	@Tags			Tenants
//	@Produce		json
//	@Param			tenantId	path		int	true	"ID of the tenant"
//	@Success		200			{object}	api.Tenant
//	@Failure		401			{object}	server.ErrorResponse	"if not signed in"
//	@Failure		403			{object}	server.ErrorResponse	"if not a super admin"
//	@Failure		404			{object}	server.ErrorResponse	"if not found"
//	@Failure		500			{object}	server.ErrorResponse
//	@Failure		502			{object}	server.ErrorResponse	"if the remote API failed"
//	@Failure		504			{object}	server.ErrorResponse	"if request times out"
//	@Router			/v1/tenants/{tenantId} [GET].
func (s *service) GetTenant( //nolint:gocritic // False negative.
	ctx context.Context,
	req *server.Request[TenantByIDArg, api.Tenant],
) (*server.Response[api.Tenant], *server.Response[server.ErrorResponse]) {
	_, bearer, fail := s.authorize(ctx, req.GinContext(), token.RoleSuperAdmin)
	if fail != nil {
		return nil, fail
	}
	tenant, err := s.api.Tenant(ctx, bearer, req.Data.TenantID)
	if err != nil {
		return nil, failure(errors.Wrapf(err, "failed to get tenant %v", req.Data.TenantID))
	}
	if tenant == nil {
		return nil, server.NotFound(errors.Errorf("tenant %v not found", req.Data.TenantID), NotFoundCode)
	}

	return server.OK(tenant), nil
}

// CreateTenant godoc
//
//	@Schemes
//	@Description	Creates a tenant.
//	@Tags			Tenants
//	@Accept			json
//	@Produce		json
//	@Param			request	body		TenantArg	true	"Request params"
//	@Success		201		{object}	api.Tenant
//	@Failure		400		{object}	server.ErrorResponse	"if the remote API rejected it"
//	@Failure		401		{object}	server.ErrorResponse	"if not signed in"
//	@Failure		403		{object}	server.ErrorResponse	"if not a super admin"
//	@Failure		409		{object}	server.ErrorResponse	"if the tenant code is taken"
//	@Failure		422		{object}	server.ErrorResponse	"if syntax fails"
//	@Failure		500		{object}	server.ErrorResponse
//	@Failure		502		{object}	server.ErrorResponse	"if the remote API failed"
//	@Failure		504		{object}	server.ErrorResponse	"if request times out"
//	@Router			/v1/tenants [POST].
func (s *service) CreateTenant( //nolint:gocritic // False negative.
	ctx context.Context,
	req *server.Request[TenantArg, api.Tenant],
) (*server.Response[api.Tenant], *server.Response[server.ErrorResponse]) {
	_, bearer, fail := s.authorize(ctx, req.GinContext(), token.RoleSuperAdmin)
	if fail != nil {
		return nil, fail
	}
	tenant := &api.Tenant{TenantCode: req.Data.TenantCode, TenantName: req.Data.TenantName, Enabled: req.Data.Enabled}
	created, err := s.api.CreateTenant(ctx, bearer, tenant)
	if err != nil {
		return nil, failure(errors.Wrapf(err, "failed to create tenant %v", tenant.TenantCode))
	}
	if created == nil {
		created = tenant
	}

	return server.Created(created), nil
}

// UpdateTenant godoc
//
//	@Schemes
//	@Description	Updates a tenant. If it's the session's current tenant, the session follows.
//	@Tags			Tenants
//	@Accept			json
//	@Produce		json
//	@Param			tenantId	path		int				true	"ID of the tenant"
//	@Param			request		body		UpdateTenantArg	true	"Request params"
//	@Success		200			{object}	api.Tenant
//	@Failure		400			{object}	server.ErrorResponse	"if the remote API rejected it"
//	@Failure		401			{object}	server.ErrorResponse	"if not signed in"
//	@Failure		403			{object}	server.ErrorResponse	"if not a super admin"
//	@Failure		404			{object}	server.ErrorResponse	"if not found"
//	@Failure		422			{object}	server.ErrorResponse	"if syntax fails"
//	@Failure		500			{object}	server.ErrorResponse
//	@Failure		502			{object}	server.ErrorResponse	"if the remote API failed"
//	@Failure		504			{object}	server.ErrorResponse	"if request times out"
//	@Router			/v1/tenants/{tenantId} [PUT].
func (s *service) UpdateTenant( //nolint:gocritic // False negative.
	ctx context.Context,
	req *server.Request[UpdateTenantArg, api.Tenant],
) (*server.Response[api.Tenant], *server.Response[server.ErrorResponse]) {
	mgr, bearer, fail := s.authorize(ctx, req.GinContext(), token.RoleSuperAdmin)
	if fail != nil {
		return nil, fail
	}
	tenant := &api.Tenant{
		ID:         req.Data.TenantID,
		TenantCode: req.Data.TenantCode,
		TenantName: req.Data.TenantName,
		Enabled:    req.Data.Enabled,
	}
	updated, err := s.api.UpdateTenant(ctx, bearer, tenant)
	if err != nil {
		return nil, failure(errors.Wrapf(err, "failed to update tenant %v", tenant.ID))
	}
	if updated == nil {
		updated = tenant
	}
	if current := mgr.State().CurrentTenant; current != nil && current.ID == updated.ID {
		if err = mgr.SetCurrentTenant(ctx, updated); err != nil && !errors.Is(err, session.ErrNotAuthenticated) {
			log.Error(errors.Wrapf(err, "failed to refresh the current tenant %v", updated.ID))
		}
	}

	return server.OK(updated), nil
}

// DeleteTenant godoc
//
//	@Schemes
//	@Description	Deletes a tenant. If it's the session's current tenant, the selection is cleared.
//	@Tags			Tenants
//	@Param			tenantId	path	int	true	"ID of the tenant"
//	@Success		204			"OK - no content"
//	@Failure		401			{object}	server.ErrorResponse	"if not signed in"
//	@Failure		403			{object}	server.ErrorResponse	"if not a super admin"
//	@Failure		404			{object}	server.ErrorResponse	"if not found"
//	@Failure		500			{object}	server.ErrorResponse
//	@Failure		502			{object}	server.ErrorResponse	"if the remote API failed"
//	@Failure		504			{object}	server.ErrorResponse	"if request times out"
//	@Router			/v1/tenants/{tenantId} [DELETE].
func (s *service) DeleteTenant( //nolint:gocritic // False negative.
	ctx context.Context,
	req *server.Request[TenantByIDArg, any],
) (*server.Response[any], *server.Response[server.ErrorResponse]) {
	mgr, bearer, fail := s.authorize(ctx, req.GinContext(), token.RoleSuperAdmin)
	if fail != nil {
		return nil, fail
	}
	if err := s.api.DeleteTenant(ctx, bearer, req.Data.TenantID); err != nil {
		return nil, failure(errors.Wrapf(err, "failed to delete tenant %v", req.Data.TenantID))
	}
	if current := mgr.State().CurrentTenant; current != nil && current.ID == req.Data.TenantID {
		if err := mgr.SetCurrentTenant(ctx, nil); err != nil && !errors.Is(err, session.ErrNotAuthenticated) {
			log.Error(errors.Wrapf(err, "failed to clear the deleted current tenant %v", req.Data.TenantID))
		}
	}

	return server.NoContent[any](), nil
}

// CreateTenantAdmin godoc
//
//	@Schemes
//	@Description	Registers an admin for a tenant, with a temporary password. The remote API emails them a verification link.
//	@Tags			Tenants
//	@Accept			json
//	@Param			tenantId	path	int						true	"ID of the tenant"
//	@Param			request		body	CreateTenantAdminArg	true	"Request params"
//	@Success		204			"OK - no content"
//	@Failure		400			{object}	server.ErrorResponse	"if the remote API rejected it"
//	@Failure		401			{object}	server.ErrorResponse	"if not signed in"
//	@Failure		403			{object}	server.ErrorResponse	"if not a super admin"
//	@Failure		409			{object}	server.ErrorResponse	"if the email is taken"
//	@Failure		422			{object}	server.ErrorResponse	"if syntax fails or the passwords don't match"
//	@Failure		500			{object}	server.ErrorResponse
//	@Failure		502			{object}	server.ErrorResponse	"if the remote API failed"
//	@Failure		504			{object}	server.ErrorResponse	"if request times out"
//	@Router			/v1/tenants/{tenantId}/admins [POST].
func (s *service) CreateTenantAdmin( //nolint:gocritic // False negative.
	ctx context.Context,
	req *server.Request[CreateTenantAdminArg, any],
) (*server.Response[any], *server.Response[server.ErrorResponse]) {
	if req.Data.Password != req.Data.MatchingPassword {
		return nil, server.UnprocessableEntity(errors.New("the passwords don't match"), PasswordsMismatchCode)
	}
	_, bearer, fail := s.authorize(ctx, req.GinContext(), token.RoleSuperAdmin)
	if fail != nil {
		return nil, fail
	}
	roleIDs := req.Data.RoleIDs
	if len(roleIDs) == 0 {
		roleIDs = []int64{defaultTenantAdminRoleID}
	}
	admin := &api.TenantAdmin{
		Tenant:           api.Ref{ID: req.Data.TenantID},
		FirstName:        req.Data.FirstName,
		LastName:         req.Data.LastName,
		Email:            req.Data.Email,
		TempPassword:     req.Data.Password,
		MatchingPassword: req.Data.MatchingPassword,
		Roles:            make([]*api.Ref, 0, len(roleIDs)),
	}
	for _, id := range roleIDs {
		admin.Roles = append(admin.Roles, &api.Ref{ID: id})
	}
	if err := s.api.RegisterTenantAdmin(ctx, bearer, admin); err != nil {
		return nil, failure(errors.Wrapf(err, "failed to register the admin %v of tenant %v", admin.Email, req.Data.TenantID))
	}

	return server.NoContent[any](), nil
}

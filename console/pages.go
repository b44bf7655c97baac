// SPDX-License-Identifier: ice License 1.0

package console

import (
	"context"
	"strings"

	"github.com/bid-agri/console/auth/guard"
	"github.com/bid-agri/console/auth/token"
	"github.com/bid-agri/console/server"
)

func (s *service) setupPageRoutes(router *server.Router) {
	pages := []struct {
		path  string
		roles []string
	}{
		{path: "/"},
		{path: "/dashboard", roles: []string{token.RoleSuperAdmin}},
		{path: "/storeDashboard", roles: []string{token.RoleTenantAdmin}},
		{path: "/farmerDashboard", roles: []string{token.RoleSystemUser}},
		{path: "/profile"},
	}
	for _, page := range pages {
		router.GET(page.path, s.guard.Middleware(s.manager, page.roles...), server.RootHandler(s.page(page.path)))
	}
}

// page renders what the guard let through: the signed in user, if any, and why the client got there.
func (s *service) page(path string) func(context.Context, *server.Request[PageArg, Page]) (*server.Response[Page], *server.Response[server.ErrorResponse]) {
	name := strings.TrimPrefix(path, "/")
	if name == "" {
		name = "home"
	}

	return func(_ context.Context, req *server.Request[PageArg, Page]) (*server.Response[Page], *server.Response[server.ErrorResponse]) {
		resp := &Page{Name: name, From: req.Data.From, Notice: req.Data.Notice}
		if state := guard.StateFrom(req.GinContext()); state != nil && state.IsAuthenticated {
			resp.User = state.User
			resp.CurrentTenant = state.CurrentTenant
		}

		return server.OK(resp), nil
	}
}

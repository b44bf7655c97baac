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

func (s *service) setupUserRoutes(router *server.Router) {
	router.
		Group("/v1").
		POST("/users/verification-token", server.RootHandler(s.ResendVerificationToken)).
		GET("/email-verification", server.RootHandler(s.VerifyEmail)).
		POST("/password/reset-token", server.RootHandler(s.RequestPasswordReset)).
		POST("/password/reset", server.RootHandler(s.ResetPassword)).
		POST("/password/change", server.RootHandler(s.ChangePassword))
}

// ResendVerificationToken godoc
//
//	@Schemes
//	@Description	Makes the remote API email a fresh verification link to a registered user.
//	@Tags			Users
//	@Accept			json
//	@Param			request	body	ResendVerificationTokenArg	true	"Request params"
//	@Success		204		"OK - no content"
//	@Failure		401		{object}	server.ErrorResponse	"if not signed in"
//	@Failure		403		{object}	server.ErrorResponse	"if not a super admin"
//	@Failure		404		{object}	server.ErrorResponse	"if the user is unknown"
//	@Failure		422		{object}	server.ErrorResponse	"if syntax fails"
//	@Failure		500		{object}	server.ErrorResponse
//	@Failure		502		{object}	server.ErrorResponse	"if the remote API failed"
//	@Failure		504		{object}	server.ErrorResponse	"if request times out"
//	@Router			/v1/users/verification-token [POST].
func (s *service) ResendVerificationToken( //nolint:gocritic // False negative.
	ctx context.Context,
	req *server.Request[ResendVerificationTokenArg, any],
) (*server.Response[any], *server.Response[server.ErrorResponse]) {
	_, bearer, fail := s.authorize(ctx, req.GinContext(), token.RoleSuperAdmin)
	if fail != nil {
		return nil, fail
	}
	if err := s.api.ResendVerificationToken(ctx, bearer, req.Data.Email); err != nil {
		return nil, failure(errors.Wrapf(err, "failed to resend the verification token of %v", req.Data.Email))
	}

	return server.NoContent[any](), nil
}

// VerifyEmail godoc
//
//	@Schemes
//	@Description	Confirms a registration with the token from the verification email.
//	@Tags			Users
//	@Produce		json
//	@Param			token	query		string	true	"the verification token"
//	@Success		200		{object}	Message
//	@Failure		400		{object}	server.ErrorResponse	"if the token is invalid or expired"
//	@Failure		422		{object}	server.ErrorResponse	"if syntax fails"
//	@Failure		500		{object}	server.ErrorResponse
//	@Failure		502		{object}	server.ErrorResponse	"if the remote API failed"
//	@Failure		504		{object}	server.ErrorResponse	"if request times out"
//	@Router			/v1/email-verification [GET].
func (s *service) VerifyEmail( //nolint:gocritic // False negative.
	ctx context.Context,
	req *server.Request[VerifyEmailArg, Message],
) (*server.Response[Message], *server.Response[server.ErrorResponse]) {
	msg, err := s.api.VerifyRegistration(ctx, req.Data.Token)
	if err != nil {
		return nil, failure(errors.Wrap(err, "failed to verify the email"))
	}

	return server.OK(&Message{Message: msg}), nil
}

// RequestPasswordReset godoc
//
//	@Schemes
//	@Description	Makes the remote API email a password reset token.
//	@Tags			Password
//	@Accept			json
//	@Param			request	body	RequestPasswordResetArg	true	"Request params"
//	@Success		204		"OK - no content"
//	@Failure		404		{object}	server.ErrorResponse	"if the user is unknown"
//	@Failure		422		{object}	server.ErrorResponse	"if syntax fails"
//	@Failure		500		{object}	server.ErrorResponse
//	@Failure		502		{object}	server.ErrorResponse	"if the remote API failed"
//	@Failure		504		{object}	server.ErrorResponse	"if request times out"
//	@Router			/v1/password/reset-token [POST].
func (s *service) RequestPasswordReset( //nolint:gocritic // False negative.
	ctx context.Context,
	req *server.Request[RequestPasswordResetArg, any],
) (*server.Response[any], *server.Response[server.ErrorResponse]) {
	if err := s.api.RequestPasswordReset(ctx, req.Data.Email); err != nil {
		return nil, failure(errors.Wrapf(err, "failed to request a password reset for %v", req.Data.Email))
	}

	return server.NoContent[any](), nil
}

// ResetPassword godoc
//
//	@Schemes
//	@Description	Sets a new password with a reset token.
//	@Tags			Password
//	@Accept			json
//	@Param			request	body	ResetPasswordArg	true	"Request params"
//	@Success		204		"OK - no content"
//	@Failure		400		{object}	server.ErrorResponse	"if the token is invalid or expired"
//	@Failure		422		{object}	server.ErrorResponse	"if syntax fails"
//	@Failure		500		{object}	server.ErrorResponse
//	@Failure		502		{object}	server.ErrorResponse	"if the remote API failed"
//	@Failure		504		{object}	server.ErrorResponse	"if request times out"
//	@Router			/v1/password/reset [POST].
func (s *service) ResetPassword( //nolint:gocritic // False negative.
	ctx context.Context,
	req *server.Request[ResetPasswordArg, any],
) (*server.Response[any], *server.Response[server.ErrorResponse]) {
	arg := &api.ResetPasswordArg{UserName: req.Data.UserName, Password: req.Data.Password, Token: req.Data.Token}
	if err := s.api.ResetPassword(ctx, arg); err != nil {
		return nil, failure(errors.Wrapf(err, "failed to reset the password of %v", req.Data.UserName))
	}

	return server.NoContent[any](), nil
}

// ChangePassword godoc
//
//	@Schemes
//	@Description	Changes the signed in user's password, then signs them out. It returns the login page they have to use next.
//	@Tags			Password
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ChangePasswordArg	true	"Request params"
//	@Success		200		{object}	PasswordChanged
//	@Failure		400		{object}	server.ErrorResponse	"if the old password is wrong"
//	@Failure		401		{object}	server.ErrorResponse	"if not signed in"
//	@Failure		422		{object}	server.ErrorResponse	"if syntax fails"
//	@Failure		500		{object}	server.ErrorResponse
//	@Failure		502		{object}	server.ErrorResponse	"if the remote API failed"
//	@Failure		504		{object}	server.ErrorResponse	"if request times out"
//	@Router			/v1/password/change [POST].
func (s *service) ChangePassword( //nolint:gocritic // False negative.
	ctx context.Context,
	req *server.Request[ChangePasswordArg, PasswordChanged],
) (*server.Response[PasswordChanged], *server.Response[server.ErrorResponse]) {
	mgr, bearer, fail := s.authorize(ctx, req.GinContext())
	if fail != nil {
		return nil, fail
	}
	user := mgr.State().User
	if user == nil {
		return nil, server.Unauthorized(session.ErrNotAuthenticated, NotAuthenticatedCode)
	}
	email := user.Email
	if email == "" {
		username, err := mgr.Username(ctx)
		if err != nil {
			return nil, failure(errors.Wrap(err, "failed to resolve the email of the signed in user"))
		}
		email = username
	}
	arg := &api.ChangePasswordArg{Email: email, OldPassword: req.Data.OldPassword, NewPassword: req.Data.NewPassword}
	if err := s.api.ChangePassword(ctx, bearer, arg); err != nil {
		return nil, failure(errors.Wrapf(err, "failed to change the password of %v", email))
	}
	if err := mgr.Logout(ctx); err != nil {
		log.Error(errors.Wrapf(err, "failed to sign %v out after the password change", email))
	}

	return server.OK(&PasswordChanged{LoginPath: s.loginPages.Landing(user.Roles)}), nil
}

// SPDX-License-Identifier: ice License 1.0

package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"
	stdlibtime "time"

	"github.com/goccy/go-json"
	"github.com/hashicorp/go-multierror"
	"github.com/imroc/req/v3"
	"github.com/pkg/errors"

	appCfg "github.com/bid-agri/console/config"
	"github.com/bid-agri/console/log"
)

func New(applicationYAMLKey string) Client {
	var cfg Config
	appCfg.MustLoadFromKey(fmt.Sprintf("%v.api", applicationYAMLKey), &cfg, &Config{
		RequestTimeout: defaultRequestTimeout,
		RetryCount:     defaultRetryCount,
	})
	if cfg.BaseURL == "" {
		cfg.BaseURL = appCfg.Env(applicationYAMLKey, "API_BASE_URL")
	}
	if cfg.BaseURL == "" {
		log.Panic(errors.Errorf("%v.api.baseUrl is required", applicationYAMLKey))
	}

	return NewWithConfig(&cfg)
}

func NewWithConfig(cfg *Config) Client {
	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = defaultRequestTimeout
	}
	httpClient := req.C().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetJsonMarshal(json.Marshal).
		SetJsonUnmarshal(json.Unmarshal).
		SetCommonHeader("Accept", "application/json")

	return &client{http: httpClient, cfg: cfg}
}

func (e *Error) Error() string {
	return fmt.Sprintf("remote api failed with %v: %v", e.Status, e.Message)
}

func (c *client) Login(ctx context.Context, userName, password string) (string, error) {
	body := map[string]string{"userName": userName, "password": password}
	payload, err := call[loginPayload](c, c.request(ctx, "", body), http.MethodPost, "/auth/login")
	if err != nil {
		return "", errors.Wrapf(err, "login of %v failed", userName)
	}
	switch {
	case payload == nil:
		return "", errors.Wrapf(ErrMissingToken, "login of %v", userName)
	case payload.JWTToken != "":
		return payload.JWTToken, nil
	case payload.Token != "":
		return payload.Token, nil
	default:
		return "", errors.Wrapf(ErrMissingToken, "login of %v", userName)
	}
}

func (c *client) VerifyRegistration(ctx context.Context, verificationToken string) (string, error) {
	r := c.request(ctx, "", nil).SetQueryParam("token", verificationToken)
	msg, err := message(c, r, http.MethodGet, "/user/verifyRegistration")

	return msg, errors.Wrap(err, "registration verification failed")
}

func (c *client) ResendVerificationToken(ctx context.Context, bearer, email string) error {
	r := c.request(ctx, bearer, nil).SetQueryParam("email", email)
	_, err := message(c, r, http.MethodGet, "/user/resendVerifyToken")

	return errors.Wrapf(err, "failed to resend the verification token to %v", email)
}

func (c *client) RequestPasswordReset(ctx context.Context, email string) error {
	_, err := message(c, c.request(ctx, "", map[string]string{"email": email}), http.MethodPost, "/user/resetPasswordToken")

	return errors.Wrapf(err, "failed to request a password reset for %v", email)
}

func (c *client) ResetPassword(ctx context.Context, arg *ResetPasswordArg) error {
	_, err := message(c, c.request(ctx, "", arg), http.MethodPost, "/user/resetPassword")

	return errors.Wrapf(err, "failed to reset the password of %v", arg.UserName)
}

func (c *client) ChangePassword(ctx context.Context, bearer string, arg *ChangePasswordArg) error {
	_, err := message(c, c.request(ctx, bearer, arg), http.MethodPost, "/user/changePassword")

	return errors.Wrapf(err, "failed to change the password of %v", arg.Email)
}

func (c *client) Tenants(ctx context.Context, bearer string) ([]*Tenant, error) {
	tenants, err := call[[]*Tenant](c, c.request(ctx, bearer, nil), http.MethodGet, "/tenants")
	if err != nil || tenants == nil {
		return nil, errors.Wrap(err, "failed to list tenants")
	}

	return *tenants, nil
}

func (c *client) Tenant(ctx context.Context, bearer string, id int64) (*Tenant, error) {
	tenant, err := call[Tenant](c, c.request(ctx, bearer, nil), http.MethodGet, tenantPath(id))

	return tenant, errors.Wrapf(err, "failed to get tenant %v", id)
}

func (c *client) CreateTenant(ctx context.Context, bearer string, tenant *Tenant) (*Tenant, error) {
	created, err := call[Tenant](c, c.request(ctx, bearer, tenant), http.MethodPost, "/tenant")

	return created, errors.Wrapf(err, "failed to create tenant %v", tenant.TenantCode)
}

func (c *client) UpdateTenant(ctx context.Context, bearer string, tenant *Tenant) (*Tenant, error) {
	updated, err := call[Tenant](c, c.request(ctx, bearer, tenant), http.MethodPut, tenantPath(tenant.ID))

	return updated, errors.Wrapf(err, "failed to update tenant %v", tenant.ID)
}

func (c *client) DeleteTenant(ctx context.Context, bearer string, id int64) error {
	_, err := message(c, c.request(ctx, bearer, nil), http.MethodDelete, tenantPath(id))

	return errors.Wrapf(err, "failed to delete tenant %v", id)
}

func (c *client) RegisterTenantAdmin(ctx context.Context, bearer string, admin *TenantAdmin) error {
	_, err := message(c, c.request(ctx, bearer, admin), http.MethodPost, "/user/register")

	return errors.Wrapf(err, "failed to register tenant admin %v for tenant %v", admin.Email, admin.Tenant.ID)
}

func tenantPath(id int64) string {
	return "/tenant/" + strconv.FormatInt(id, 10)
}

func (c *client) request(ctx context.Context, bearer string, body any) *req.Request {
	r := c.http.R().SetContext(ctx)
	if bearer != "" {
		r = r.SetBearerAuthToken(bearer)
	}
	if body != nil {
		r = r.SetBodyJsonMarshal(body)
	}

	return r
}

// call sends the request and unwraps the envelope's payload, falling back to payloadDto.
func call[T any](c *client, r *req.Request, method, path string) (*T, error) {
	env, err := send[T](c, r, method, path)
	if err != nil {
		return nil, err
	}
	if env.Payload != nil {
		return env.Payload, nil
	}

	return env.PayloadDTO, nil
}

func message(c *client, r *req.Request, method, path string) (string, error) {
	env, err := send[json.RawMessage](c, r, method, path)
	if err != nil {
		return "", err
	}

	return env.Message, nil
}

// send retries reads only; writes are sent exactly once.
//
//nolint:funlen // .
func send[T any](c *client, r *req.Request, method, path string) (*envelope[T], error) {
	if method == http.MethodGet && c.cfg.RetryCount > 0 {
		r = r.
			SetRetryCount(c.cfg.RetryCount).
			SetRetryBackoffInterval(10*stdlibtime.Millisecond, 1*stdlibtime.Second). //nolint:mnd,gomnd // .
			SetRetryCondition(func(resp *req.Response, err error) bool {
				return err != nil || resp.GetStatusCode() == http.StatusTooManyRequests || resp.GetStatusCode() >= http.StatusInternalServerError
			}).
			SetRetryHook(func(resp *req.Response, err error) {
				if err != nil {
					log.Warn("remote api request failed, retrying...", "path", path, "error", err.Error())
				} else {
					log.Warn("remote api request failed, retrying...", "path", path, "status", resp.GetStatusCode())
				}
			})
	}
	resp, err := r.Send(method, path)
	if err != nil {
		return nil, multierror.Append(ErrUnavailable, errors.Wrapf(err, "%v %v failed", method, path))
	}
	body, err := resp.ToBytes()
	if err != nil {
		return nil, errors.Wrapf(err, "%v %v failed, unable to read response body", method, path)
	}
	env := new(envelope[T])
	var unmarshalErr error
	if len(body) != 0 {
		unmarshalErr = json.Unmarshal(body, env)
	}
	if resp.GetStatusCode() < http.StatusOK || resp.GetStatusCode() >= http.StatusMultipleChoices {
		return nil, &Error{Status: resp.GetStatusCode(), Message: errorMessage(resp, env, body, unmarshalErr)}
	}
	if unmarshalErr != nil {
		return nil, errors.Wrapf(unmarshalErr, "%v %v answered with an unexpected body: %s", method, path, truncate(body))
	}
	if !env.successful() {
		return nil, &Error{Status: resp.GetStatusCode(), Message: errorMessage(resp, env, body, nil)}
	}

	return env, nil
}

func (e *envelope[T]) successful() bool {
	switch {
	case e.ResultStatus == ResultStatusSuccessful:
		return true
	case e.Success != nil:
		return *e.Success
	default:
		return e.ResultStatus == ""
	}
}

func errorMessage[T any](resp *req.Response, env *envelope[T], body []byte, unmarshalErr error) string {
	switch {
	case unmarshalErr == nil && env.Message != "":
		return env.Message
	case unmarshalErr == nil && env.Error != "":
		return env.Error
	case unmarshalErr != nil && len(strings.TrimSpace(string(body))) != 0:
		return truncate(body)
	default:
		return http.StatusText(resp.GetStatusCode())
	}
}

func truncate(body []byte) string {
	if len(body) <= maxErrorMessageLength {
		return string(body)
	}
	cut := maxErrorMessageLength
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}

	return string(body[:cut]) + "..."
}

// SPDX-License-Identifier: ice License 1.0

package session

import (
	"context"
	"slices"
	"strings"

	"github.com/goccy/go-json"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/bid-agri/console/api"
	"github.com/bid-agri/console/auth/store"
	"github.com/bid-agri/console/auth/token"
	"github.com/bid-agri/console/log"
	"github.com/bid-agri/console/terror"
	"github.com/bid-agri/console/time"
)

// New builds the manager of one client and warms it up from the last persisted snapshot, if any.
// The warm state is only a hint until the first CheckAuth.
func New(ctx context.Context, st store.Store, authenticator Authenticator, policy *Policy, clock time.Clock) Manager {
	if clock == nil {
		clock = time.Now
	}
	if policy == nil {
		policy = new(Policy)
	}
	m := &manager{
		store:         st,
		authenticator: authenticator,
		policy:        policy,
		clock:         clock,
		state:         new(State),
	}
	m.restore(ctx)

	return m
}

func (m *manager) restore(ctx context.Context) {
	raw, err := m.store.LoadSnapshot(ctx)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Error(errors.Wrap(err, "failed to load session snapshot"))
		}

		return
	}
	var snap snapshot
	if err = msgpack.Unmarshal(raw, &snap); err != nil {
		log.Error(errors.Wrap(err, "failed to decode session snapshot"))

		return
	}
	m.state = &State{
		User:             snap.User,
		CurrentTenant:    snap.CurrentTenant,
		AvailableTenants: snap.AvailableTenants,
		IsAuthenticated:  snap.IsAuthenticated && snap.User != nil,
	}
}

func (m *manager) Login(ctx context.Context, identifier, secret string) error {
	gen := m.beginLogin()
	rawToken, err := m.authenticator.Login(ctx, identifier, secret)
	if err != nil {
		return m.reject(ctx, gen, errors.Wrapf(err, "login of %v failed", identifier))
	}
	claims, err := m.validate(rawToken)
	if err != nil {
		return m.reject(ctx, gen, errors.Wrapf(err, "login of %v rejected", identifier))
	}

	m.mx.Lock()
	defer m.mx.Unlock()
	if gen != m.generation {
		return ErrSuperseded
	}
	m.loggingIn = 0
	if err = m.store.Clear(ctx); err == nil {
		if err = m.store.Save(ctx, rawToken); err == nil {
			err = m.store.SetUsername(ctx, identifier)
		}
	}
	if err != nil {
		return m.clearLocked(ctx, errors.Wrapf(err, "failed to persist the token of %v", identifier))
	}
	m.set(&State{User: newUser(claims), IsAuthenticated: true})
	m.saveSnapshot(ctx)
	log.Info("signed in", "session", m.policy.Name, "user", claims.Subject, "roles", claims.Roles.String())

	return nil
}

func (m *manager) CheckAuth(ctx context.Context) *State {
	gen, check, ok := m.beginCheck()
	if !ok {
		return m.State()
	}
	claims, err := m.loadClaims(ctx)
	var tenant *api.Tenant
	if err == nil {
		tenant = m.loadTenant(ctx)
	}

	m.mx.Lock()
	defer m.mx.Unlock()
	if gen != m.generation || check != m.checks || m.loggingIn != 0 {
		return m.state.clone()
	}
	if errors.Is(err, errStoreUnavailable) {
		m.set(new(State))

		return m.state.clone()
	}
	if err != nil {
		if cErr := m.clearLocked(ctx, nil); cErr != nil {
			log.Error(cErr)
		}

		return m.state.clone()
	}
	next := m.state.clone()
	next.User = newUser(claims)
	next.IsAuthenticated = true
	next.IsLoading = false
	if next.CurrentTenant == nil {
		next.CurrentTenant = tenant
	}
	m.set(next)
	m.saveSnapshot(ctx)

	return next.clone()
}

// loadClaims fails with errStoreUnavailable when the store itself failed, the token is kept in that case.
func (m *manager) loadClaims(ctx context.Context) (*token.Claims, error) {
	rawToken, err := m.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Error(errors.Wrap(err, "failed to load the stored token"))

			return nil, multierror.Append(errStoreUnavailable, err)
		}

		return nil, err
	}
	claims, err := m.validate(rawToken)
	if err != nil {
		log.Debug("stored token no longer valid", "session", m.policy.Name, "reason", err.Error())
	}

	return claims, err
}

func (m *manager) loadTenant(ctx context.Context) *api.Tenant {
	raw, err := m.store.Tenant(ctx)
	if err != nil || raw == "" {
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			log.Error(errors.Wrap(err, "failed to load the stored tenant"))
		}

		return nil
	}
	tenant := new(api.Tenant)
	if err = json.Unmarshal([]byte(raw), tenant); err != nil {
		log.Error(errors.Wrapf(err, "failed to decode the stored tenant %v", raw))

		return nil
	}

	return tenant
}

func (m *manager) Logout(ctx context.Context) error {
	m.mx.Lock()
	defer m.mx.Unlock()
	m.generation++
	m.checks++
	m.loggingIn = 0

	return m.clearLocked(ctx, nil)
}

func (m *manager) State() *State {
	m.mx.RLock()
	defer m.mx.RUnlock()

	return m.state.clone()
}

func (m *manager) HasRole(roles ...string) bool {
	m.mx.RLock()
	defer m.mx.RUnlock()

	return m.state.User != nil && m.state.User.Roles.Has(roles...)
}

func (m *manager) IsSuperAdmin() bool {
	return m.HasRole(token.RoleSuperAdmin)
}

func (m *manager) IsTenantAdmin() bool {
	return m.HasRole(token.RoleTenantAdmin)
}

func (m *manager) IsFarmer() bool {
	return m.HasRole(token.RoleSystemUser)
}

func (m *manager) SetCurrentTenant(ctx context.Context, tenant *api.Tenant) error {
	var encoded string
	if tenant != nil {
		raw, err := json.Marshal(tenant)
		if err != nil {
			return errors.Wrapf(err, "failed to encode tenant %v", tenant.ID)
		}
		encoded = string(raw)
	}

	m.mx.Lock()
	defer m.mx.Unlock()
	if !m.state.IsAuthenticated {
		return ErrNotAuthenticated
	}
	if err := m.store.SetTenant(ctx, encoded); err != nil {
		return errors.Wrap(err, "failed to persist the current tenant")
	}
	next := m.state.clone()
	next.CurrentTenant = tenant
	m.set(next)
	m.saveSnapshot(ctx)

	return nil
}

func (m *manager) SetAvailableTenants(ctx context.Context, tenants []*api.Tenant) error {
	m.mx.Lock()
	defer m.mx.Unlock()
	if !m.state.IsAuthenticated {
		return ErrNotAuthenticated
	}
	next := m.state.clone()
	next.AvailableTenants = slices.Clone(tenants)
	m.set(next)
	m.saveSnapshot(ctx)

	return nil
}

func (m *manager) Token(ctx context.Context) (string, error) {
	m.mx.RLock()
	authenticated := m.state.IsAuthenticated
	m.mx.RUnlock()
	if !authenticated {
		return "", ErrNotAuthenticated
	}
	rawToken, err := m.store.Load(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrNotAuthenticated
	}

	return rawToken, errors.Wrap(err, "failed to load the stored token")
}

func (m *manager) Username(ctx context.Context) (string, error) {
	username, err := m.store.Username(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrNotAuthenticated
	}

	return username, errors.Wrap(err, "failed to load the stored username")
}

// beginLogin starts a Login, superseding every operation still in flight.
func (m *manager) beginLogin() uint64 {
	m.mx.Lock()
	defer m.mx.Unlock()
	m.generation++
	m.checks++
	m.loggingIn = m.generation
	m.loading()

	return m.generation
}

// beginCheck starts a CheckAuth, superseding older checks only. It doesn't start at all while a Login is in flight.
func (m *manager) beginCheck() (gen, check uint64, ok bool) {
	m.mx.Lock()
	defer m.mx.Unlock()
	if m.loggingIn != 0 {
		return 0, 0, false
	}
	m.checks++
	m.loading()

	return m.generation, m.checks, true
}

// loading must be called while holding the write lock.
func (m *manager) loading() {
	if !m.state.IsLoading {
		next := m.state.clone()
		next.IsLoading = true
		m.set(next)
	}
}

func (m *manager) reject(ctx context.Context, gen uint64, cause error) error {
	m.mx.Lock()
	defer m.mx.Unlock()
	if gen != m.generation {
		return ErrSuperseded
	}
	m.loggingIn = 0

	return m.clearLocked(ctx, cause)
}

// clearLocked must be called while holding the write lock.
func (m *manager) clearLocked(ctx context.Context, cause error) error {
	m.set(new(State))
	if err := m.store.Clear(ctx); err != nil {
		err = errors.Wrap(err, "failed to clear the token store")
		if cause == nil {
			return err
		}

		return multierror.Append(cause, err)
	}

	return cause
}

// set must be called while holding the write lock.
func (m *manager) set(next *State) {
	m.state = next
}

// saveSnapshot must be called while holding the write lock.
func (m *manager) saveSnapshot(ctx context.Context) {
	raw, err := msgpack.Marshal(&snapshot{
		User:             m.state.User,
		CurrentTenant:    m.state.CurrentTenant,
		AvailableTenants: m.state.AvailableTenants,
		IsAuthenticated:  m.state.IsAuthenticated,
	})
	if err == nil {
		err = m.store.SaveSnapshot(ctx, raw)
	}
	log.Error(errors.Wrap(err, "failed to persist the session snapshot"))
}

func (m *manager) validate(rawToken string) (*token.Claims, error) {
	claims := token.Decode(rawToken)
	if claims == nil {
		return nil, ErrMalformedToken
	}
	if token.IsExpired(claims, m.clock()) {
		return nil, errors.Wrapf(ErrExpiredToken, "expired at %v", claims.ExpiresAtTime())
	}
	if len(m.policy.AllowedRoles) != 0 && !claims.Roles.Has(m.policy.AllowedRoles...) {
		return nil, terror.New(
			errors.Wrapf(ErrAccessDenied, "only users with the %v role(s) may sign in to the %v console, yours: %v",
				strings.Join(m.policy.AllowedRoles, " or "), m.policy.Name, claims.Roles),
			AccessDeniedCode,
			map[string]any{"roles": []string(claims.Roles), "allowedRoles": m.policy.AllowedRoles})
	}

	return claims, nil
}

func newUser(claims *token.Claims) *User {
	return &User{
		ID:          claims.Subject,
		Email:       claims.Email,
		Name:        claims.DisplayName(),
		FirstName:   claims.FirstName,
		LastName:    claims.LastName,
		TenantID:    string(claims.TenantID),
		Roles:       slices.Clone(claims.Roles),
		Permissions: slices.Clone(claims.Permissions),
		ExpiresAt:   claims.ExpiresAtTime(),
	}
}

func (s *State) clone() *State {
	if s == nil {
		return new(State)
	}
	cp := *s
	cp.AvailableTenants = slices.Clone(s.AvailableTenants)

	return &cp
}

func (s *State) Status() Status {
	switch {
	case s.IsLoading:
		return Checking
	case s.IsAuthenticated:
		return Authenticated
	default:
		return Unauthenticated
	}
}

func (s Status) String() string {
	switch s {
	case Checking:
		return "checking"
	case Authenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/whatbmphotos/internal/client/client"
	"github.com/dmitrijs2005/whatbmphotos/internal/common"
	"github.com/dmitrijs2005/whatbmphotos/internal/logging"
	"golang.org/x/sync/singleflight"
)

// CredentialStore is the durable token storage the manager reads on every
// call. An absent token is reported as "".
type CredentialStore interface {
	AccessToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) (string, error)
	SetAccessToken(ctx context.Context, token string) error
	SetTokens(ctx context.Context, access, refresh string) error
	ClearAccessToken(ctx context.Context) error
	Clear(ctx context.Context) error
}

// Doer sends a single HTTP request. *client.Transport implements it.
type Doer interface {
	Do(ctx context.Context, req *client.Request) (*client.Response, error)
}

// Option configures a Manager.
type Option func(*Manager)

// WithCoalescedRefresh makes concurrent refreshes share one in-flight call.
// Without it each caller that sees a 401 refreshes on its own.
func WithCoalescedRefresh() Option {
	return func(m *Manager) { m.coalesce = true }
}

type Manager struct {
	transport Doer
	store     CredentialStore
	state     *State
	log       logging.Logger

	coalesce bool
	group    singleflight.Group
}

func NewManager(transport Doer, store CredentialStore, log logging.Logger, opts ...Option) *Manager {
	m := &Manager{
		transport: transport,
		store:     store,
		state:     NewState(),
		log:       log.With("component", "session"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the observable authenticated flag.
func (m *Manager) State() *State {
	return m.state
}

func (m *Manager) token(ctx context.Context, get func(context.Context) (string, error), name string) string {
	tok, err := get(ctx)
	if err != nil {
		m.log.Warn(ctx, "credential unreadable, treating as absent", "key", name, "error", err)
		return ""
	}
	return tok
}

// IsAuthenticated checks the stored access token against /auth-status.
// It never returns an error: any failure reads as false.
func (m *Manager) IsAuthenticated(ctx context.Context) bool {
	ok := m.checkStatus(ctx, true)
	m.state.Set(ok)
	return ok
}

func (m *Manager) checkStatus(ctx context.Context, mayRefresh bool) bool {
	access := m.token(ctx, m.store.AccessToken, common.AccessTokenKey)
	if access == "" {
		return false
	}

	resp, err := m.transport.Do(ctx, &client.Request{Method: http.MethodGet, Path: "/auth-status", Bearer: access})
	if err != nil {
		return false
	}

	if resp.Status == http.StatusUnauthorized {
		if !mayRefresh {
			return false
		}
		if err := m.Refresh(ctx); err != nil {
			return false
		}
		return m.checkStatus(ctx, false)
	}

	if !resp.OK() {
		return false
	}

	var out struct {
		Authenticated bool `json:"authenticated"`
	}
	if err := resp.Decode(&out); err != nil {
		return false
	}
	return out.Authenticated
}

// Do sends req with the current access token. A 401 triggers one refresh
// and one replay. When the refresh fails the error matches
// client.ErrUnauthorized and the state flips to signed-out; clearing
// credentials is left to the caller. Other non-2xx statuses are returned as
// *client.RequestError together with the response.
func (m *Manager) Do(ctx context.Context, req *client.Request) (*client.Response, error) {
	access := m.token(ctx, m.store.AccessToken, common.AccessTokenKey)
	if access == "" {
		return nil, m.unauthorized(ctx, ErrMissingCredentials)
	}

	attempt := *req
	attempt.Bearer = access

	resp, err := m.transport.Do(ctx, &attempt)
	if err != nil {
		return nil, err
	}

	if resp.Status == http.StatusUnauthorized {
		if err := m.Refresh(ctx); err != nil {
			return nil, m.unauthorized(ctx, err)
		}

		attempt.Bearer = m.token(ctx, m.store.AccessToken, common.AccessTokenKey)
		resp, err = m.transport.Do(ctx, &attempt)
		if err != nil {
			return nil, err
		}
		if resp.Status == http.StatusUnauthorized {
			return nil, m.unauthorized(ctx, resp.Err())
		}
	}

	return resp, resp.Err()
}

func (m *Manager) unauthorized(ctx context.Context, cause error) error {
	m.state.Set(false)
	m.log.Info(ctx, "session lost", "reason", cause)
	return fmt.Errorf("%w: %w", client.ErrUnauthorized, cause)
}

// Refresh exchanges the stored token pair for a new access token.
func (m *Manager) Refresh(ctx context.Context) error {
	if !m.coalesce {
		return m.refresh(ctx)
	}
	// Waiters share the leader's context; a cancelled leader fails everyone.
	_, err, shared := m.group.Do("refresh", func() (any, error) {
		return nil, m.refresh(ctx)
	})
	if shared {
		m.log.Debug(ctx, "refresh coalesced")
	}
	return err
}

func (m *Manager) refresh(ctx context.Context) error {
	access := m.token(ctx, m.store.AccessToken, common.AccessTokenKey)
	refresh := m.token(ctx, m.store.RefreshToken, common.RefreshTokenKey)
	if access == "" || refresh == "" {
		return ErrMissingCredentials
	}

	resp, err := m.transport.Do(ctx, &client.Request{
		Method: http.MethodPost,
		Path:   "/refresh-token",
		Bearer: access,
		Header: http.Header{http.CanonicalHeaderKey(common.RefreshTokenHeaderName): {refresh}},
	})
	if err != nil {
		return &RefreshError{Message: "transport", Err: err}
	}

	if resp.Status == http.StatusUnauthorized {
		if err := m.store.ClearAccessToken(ctx); err != nil {
			m.log.Error(ctx, "failed to clear access token", "error", err)
		}
		m.log.Info(ctx, "refresh token expired")
		return ErrRefreshExpired
	}

	if !resp.OK() {
		return &RefreshError{Message: fmt.Sprintf("Error %d: Refresh failed", resp.Status)}
	}

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := resp.Decode(&out); err != nil {
		return &RefreshError{Message: "invalid response from server", Err: err}
	}
	if out.AccessToken == "" {
		return &RefreshError{Message: "invalid response from server"}
	}

	if err := m.store.SetAccessToken(ctx, out.AccessToken); err != nil {
		return &RefreshError{Message: "store access token", Err: err}
	}
	m.log.Debug(ctx, "access token refreshed")
	return nil
}

// SignIn stores a fresh token pair and marks the session authenticated.
func (m *Manager) SignIn(ctx context.Context, access, refresh string) error {
	if access == "" || refresh == "" {
		return ErrMissingCredentials
	}
	if err := m.store.SetTokens(ctx, access, refresh); err != nil {
		return fmt.Errorf("store tokens: %w", err)
	}
	m.state.Set(true)
	return nil
}

// SignOut removes both tokens and marks the session signed-out. The state
// flips even when storage fails.
func (m *Manager) SignOut(ctx context.Context) error {
	m.state.Set(false)
	if err := m.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}

// IsUnauthorized reports whether err should force a sign-out.
func IsUnauthorized(err error) bool {
	return errors.Is(err, client.ErrUnauthorized)
}

package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/whatbmphotos/internal/client/client"
	"github.com/dmitrijs2005/whatbmphotos/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- fake store ----

type fakeStore struct {
	mu      sync.Mutex
	access  string
	refresh string

	readErr        error
	clearAccessCnt int
	clearCnt       int
}

func (s *fakeStore) AccessToken(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return "", s.readErr
	}
	return s.access, nil
}

func (s *fakeStore) RefreshToken(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return "", s.readErr
	}
	return s.refresh, nil
}

func (s *fakeStore) SetAccessToken(_ context.Context, tok string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = tok
	return nil
}

func (s *fakeStore) SetTokens(_ context.Context, a, r string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access, s.refresh = a, r
	return nil
}

func (s *fakeStore) ClearAccessToken(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = ""
	s.clearAccessCnt++
	return nil
}

func (s *fakeStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access, s.refresh = "", ""
	s.clearCnt++
	return nil
}

func (s *fakeStore) tokens() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.access, s.refresh
}

// ---- fake API ----

// fakeAPI accepts only the bearer in valid and hands out next on refresh.
type fakeAPI struct {
	mu            sync.Mutex
	valid         string
	next          string
	refreshStatus int
	refreshBody   string
	refreshDelay  time.Duration

	calls        atomic.Int32
	refreshCalls atomic.Int32
	lastRefresh  string
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		f.refreshCalls.Add(1)
		if f.refreshDelay > 0 {
			time.Sleep(f.refreshDelay)
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		f.lastRefresh = r.Header.Get("x-refresh-token")
		status := f.refreshStatus
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		if f.refreshBody != "" {
			_, _ = w.Write([]byte(f.refreshBody))
			return
		}
		if status == http.StatusOK {
			f.valid = f.next
			_ = json.NewEncoder(w).Encode(map[string]string{"access_token": f.next})
		}
	})
	mux.HandleFunc("/auth-status", func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		if !f.authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]bool{"authenticated": true})
	})
	mux.HandleFunc("/faces", func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		if !f.authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"token expired"}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"faces":[]}`))
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"boom"}`))
	})
	return mux
}

func (f *fakeAPI) authorized(r *http.Request) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return r.Header.Get("Authorization") == "Bearer "+f.valid
}

func newManager(t *testing.T, api *fakeAPI, store *fakeStore, opts ...Option) *Manager {
	t.Helper()
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)
	tr := client.NewTransport(srv.URL, srv.Client(), logging.Nop())
	return NewManager(tr, store, logging.Nop(), opts...)
}

// ---- Do ----

func TestDo_ValidToken(t *testing.T) {
	api := &fakeAPI{valid: "A1"}
	store := &fakeStore{access: "A1", refresh: "R1"}
	m := newManager(t, api, store)

	resp, err := m.Do(context.Background(), &client.Request{Method: http.MethodGet, Path: "/faces"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.EqualValues(t, 0, api.refreshCalls.Load())
}

func TestDo_RefreshThenRetryOnce(t *testing.T) {
	api := &fakeAPI{valid: "other", next: "A2"}
	store := &fakeStore{access: "A1", refresh: "R1"}
	m := newManager(t, api, store)

	resp, err := m.Do(context.Background(), &client.Request{Method: http.MethodGet, Path: "/faces"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)

	assert.EqualValues(t, 1, api.refreshCalls.Load())
	assert.EqualValues(t, 2, api.calls.Load())
	assert.Equal(t, "R1", api.lastRefresh)

	a, r := store.tokens()
	assert.Equal(t, "A2", a)
	assert.Equal(t, "R1", r)
}

func TestDo_RefreshExpired_KeepsRefreshToken(t *testing.T) {
	api := &fakeAPI{valid: "other", refreshStatus: http.StatusUnauthorized}
	store := &fakeStore{access: "A1", refresh: "R1"}
	m := newManager(t, api, store)
	m.State().Set(true)

	_, err := m.Do(context.Background(), &client.Request{Method: http.MethodGet, Path: "/faces"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, client.ErrUnauthorized))
	assert.True(t, errors.Is(err, ErrRefreshExpired))
	assert.True(t, IsUnauthorized(err))

	a, r := store.tokens()
	assert.Empty(t, a)
	assert.Equal(t, "R1", r)
	assert.Equal(t, 1, store.clearAccessCnt)
	assert.Equal(t, 0, store.clearCnt)
	assert.False(t, m.State().Authenticated())
	assert.EqualValues(t, 1, api.calls.Load(), "no retry after failed refresh")
}

func TestDo_RefreshFailed_LeavesTokens(t *testing.T) {
	api := &fakeAPI{valid: "other", refreshStatus: http.StatusInternalServerError}
	store := &fakeStore{access: "A1", refresh: "R1"}
	m := newManager(t, api, store)

	_, err := m.Do(context.Background(), &client.Request{Method: http.MethodGet, Path: "/faces"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, client.ErrUnauthorized))

	var re *RefreshError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "Error 500: Refresh failed", re.Message)

	a, r := store.tokens()
	assert.Equal(t, "A1", a)
	assert.Equal(t, "R1", r)
}

func TestDo_RefreshWithoutAccessTokenInBody(t *testing.T) {
	api := &fakeAPI{valid: "other", refreshBody: `{"success":true}`}
	store := &fakeStore{access: "A1", refresh: "R1"}
	m := newManager(t, api, store)

	_, err := m.Do(context.Background(), &client.Request{Method: http.MethodGet, Path: "/faces"})
	var re *RefreshError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "invalid response from server", re.Message)
}

func TestDo_SecondUnauthorizedIsTerminal(t *testing.T) {
	// refresh succeeds but the server still rejects the new token
	api := &fakeAPI{valid: "never", refreshBody: `{"access_token":"A2"}`}
	store := &fakeStore{access: "A1", refresh: "R1"}
	m := newManager(t, api, store)

	_, err := m.Do(context.Background(), &client.Request{Method: http.MethodGet, Path: "/faces"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, client.ErrUnauthorized))
	assert.EqualValues(t, 1, api.refreshCalls.Load())
	assert.EqualValues(t, 2, api.calls.Load())
}

func TestDo_MissingCredentials_NoNetwork(t *testing.T) {
	api := &fakeAPI{}
	store := &fakeStore{}
	m := newManager(t, api, store)

	_, err := m.Do(context.Background(), &client.Request{Method: http.MethodGet, Path: "/faces"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, client.ErrUnauthorized))
	assert.True(t, errors.Is(err, ErrMissingCredentials))
	assert.EqualValues(t, 0, api.calls.Load())
	assert.EqualValues(t, 0, api.refreshCalls.Load())
}

func TestDo_UnreadableStoreTreatedAsAbsent(t *testing.T) {
	api := &fakeAPI{}
	store := &fakeStore{access: "A1", refresh: "R1", readErr: errors.New("tampered")}
	m := newManager(t, api, store)

	_, err := m.Do(context.Background(), &client.Request{Method: http.MethodGet, Path: "/faces"})
	assert.True(t, errors.Is(err, ErrMissingCredentials))
	assert.EqualValues(t, 0, api.calls.Load())
}

func TestDo_NonAuthErrorPassesThrough(t *testing.T) {
	api := &fakeAPI{valid: "A1"}
	store := &fakeStore{access: "A1", refresh: "R1"}
	m := newManager(t, api, store)

	resp, err := m.Do(context.Background(), &client.Request{Method: http.MethodGet, Path: "/broken"})
	require.Error(t, err)
	require.NotNil(t, resp)

	var re *client.RequestError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, 500, re.Status)
	assert.Equal(t, "boom", re.Message)
	assert.False(t, errors.Is(err, client.ErrUnauthorized))
}

func TestDo_TransportError(t *testing.T) {
	store := &fakeStore{access: "A1", refresh: "R1"}
	tr := client.NewTransport("http://127.0.0.1:1", nil, logging.Nop())
	m := NewManager(tr, store, logging.Nop())

	_, err := m.Do(context.Background(), &client.Request{Method: http.MethodGet, Path: "/faces"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, client.ErrUnavailable))
}

// ---- Refresh ----

func TestRefresh_MissingRefreshToken(t *testing.T) {
	api := &fakeAPI{}
	store := &fakeStore{access: "A1"}
	m := newManager(t, api, store)

	err := m.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrMissingCredentials)
	assert.EqualValues(t, 0, api.refreshCalls.Load())
}

func TestRefresh_CoalescedSharesOneCall(t *testing.T) {
	api := &fakeAPI{next: "A2", refreshDelay: 50 * time.Millisecond}
	store := &fakeStore{access: "A1", refresh: "R1"}
	m := newManager(t, api, store, WithCoalescedRefresh())

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = m.Refresh(context.Background())
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, api.refreshCalls.Load())
}

func TestRefresh_UncoalescedEachCallerRefreshes(t *testing.T) {
	api := &fakeAPI{next: "A2"}
	store := &fakeStore{access: "A1", refresh: "R1"}
	m := newManager(t, api, store)

	require.NoError(t, m.Refresh(context.Background()))
	require.NoError(t, m.Refresh(context.Background()))
	assert.EqualValues(t, 2, api.refreshCalls.Load())
}

// ---- IsAuthenticated ----

func TestIsAuthenticated(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		m := newManager(t, &fakeAPI{valid: "A1"}, &fakeStore{access: "A1", refresh: "R1"})
		assert.True(t, m.IsAuthenticated(context.Background()))
		assert.True(t, m.State().Authenticated())
	})

	t.Run("no token", func(t *testing.T) {
		api := &fakeAPI{}
		m := newManager(t, api, &fakeStore{})
		assert.False(t, m.IsAuthenticated(context.Background()))
		assert.EqualValues(t, 0, api.calls.Load())
	})

	t.Run("expired access, refresh ok", func(t *testing.T) {
		api := &fakeAPI{valid: "x", next: "A2"}
		m := newManager(t, api, &fakeStore{access: "A1", refresh: "R1"})
		assert.True(t, m.IsAuthenticated(context.Background()))
		assert.EqualValues(t, 1, api.refreshCalls.Load())
	})

	t.Run("refresh expired", func(t *testing.T) {
		api := &fakeAPI{valid: "x", refreshStatus: http.StatusUnauthorized}
		m := newManager(t, api, &fakeStore{access: "A1", refresh: "R1"})
		assert.False(t, m.IsAuthenticated(context.Background()))
	})

	t.Run("server down", func(t *testing.T) {
		tr := client.NewTransport("http://127.0.0.1:1", nil, logging.Nop())
		m := NewManager(tr, &fakeStore{access: "A1", refresh: "R1"}, logging.Nop())
		assert.False(t, m.IsAuthenticated(context.Background()))
	})
}

// ---- sign in / out ----

func TestSignInSignOut(t *testing.T) {
	store := &fakeStore{}
	m := newManager(t, &fakeAPI{}, store)

	ch, cancel := m.State().Subscribe()
	defer cancel()

	require.NoError(t, m.SignIn(context.Background(), "A", "R"))
	assert.True(t, <-ch)
	a, r := store.tokens()
	assert.Equal(t, "A", a)
	assert.Equal(t, "R", r)

	require.NoError(t, m.SignOut(context.Background()))
	assert.False(t, <-ch)
	a, r = store.tokens()
	assert.Empty(t, a)
	assert.Empty(t, r)
}

func TestSignIn_RequiresBothTokens(t *testing.T) {
	m := newManager(t, &fakeAPI{}, &fakeStore{})
	assert.ErrorIs(t, m.SignIn(context.Background(), "A", ""), ErrMissingCredentials)
	assert.False(t, m.State().Authenticated())
}

package client

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

	"habitgrid/internal/model"
)

// memStore keeps the session in memory for tests.
type memStore struct {
	mu         sync.Mutex
	sess       *Session
	clearCalls int
}

func (m *memStore) Load() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess, nil
}

func (m *memStore) Save(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = s
	return nil
}

func (m *memStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = nil
	m.clearCalls++
	return nil
}

func authenticatedClient(baseURL string) (*Client, *memStore) {
	store := &memStore{sess: &Session{
		AccessToken:  "stale-access",
		RefreshToken: "valid-refresh",
		User:         &model.User{ID: 1, Username: "ada"},
	}}
	c := New(baseURL, store)
	c.Start()
	return c, store
}

func TestStartStates(t *testing.T) {
	tests := []struct {
		name string
		sess *Session
		want State
	}{
		{"no session", nil, StateAnonymous},
		{"tokens present", &Session{AccessToken: "a", RefreshToken: "r"}, StateAuthenticated},
		{"access token only", &Session{AccessToken: "a"}, StateAnonymous},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New("http://example.invalid", &memStore{sess: tt.sess})
			if c.State() != StateLoading {
				t.Fatalf("pre-start state = %v, want loading", c.State())
			}
			if got := c.Start(); got != tt.want {
				t.Errorf("Start() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "Invalid login credentials"})
	}))
	defer srv.Close()

	c := New(srv.URL, &memStore{})
	c.Start()
	if _, err := c.Login(context.Background(), "ada@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("err = %v, want ErrInvalidCredentials", err)
	}
	if c.State() != StateAnonymous {
		t.Errorf("state = %v, want anonymous", c.State())
	}
}

func TestLoginStoresSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"accessToken":  "a1",
			"refreshToken": "r1",
			"expiresAt":    time.Now().Add(time.Hour).Unix(),
			"user":         map[string]any{"id": 1, "username": "ada"},
		})
	}))
	defer srv.Close()

	store := &memStore{}
	c := New(srv.URL, store)
	c.Start()
	user, err := c.Login(context.Background(), "ada@example.com", "pw")
	if err != nil {
		t.Fatal(err)
	}
	if user.Username != "ada" {
		t.Errorf("user = %+v", user)
	}
	if c.State() != StateAuthenticated {
		t.Errorf("state = %v", c.State())
	}
	if store.sess == nil || store.sess.RefreshToken != "r1" {
		t.Errorf("persisted session = %+v", store.sess)
	}
}

func TestNetworkErrorType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := New(srv.URL, &memStore{})
	c.Start()
	_, err := c.Login(context.Background(), "ada@example.com", "pw")
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Errorf("err = %v (%T), want NetworkError", err, err)
	}
}

// newRefreshServer answers 401 to bearer "stale-access", rotates tokens on
// /refresh and serves /api/users/me with the fresh token.
func newRefreshServer(t *testing.T, refreshCalls *int32, refreshDelay time.Duration) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/refresh":
			atomic.AddInt32(refreshCalls, 1)
			time.Sleep(refreshDelay)
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["refreshToken"] != "valid-refresh" {
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"message": "Invalid or expired refresh token"})
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"accessToken":  "fresh-access",
				"refreshToken": "next-refresh",
			})
		case "/api/users/me":
			if r.Header.Get("Authorization") != "Bearer fresh-access" {
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"error": "Invalid or expired token"})
				return
			}
			json.NewEncoder(w).Encode(map[string]any{"id": 1, "username": "ada"})
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestRefreshOn401RetriesOnce(t *testing.T) {
	var refreshCalls int32
	srv := newRefreshServer(t, &refreshCalls, 0)
	defer srv.Close()

	c, store := authenticatedClient(srv.URL)
	user, err := c.Me(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if user.Username != "ada" {
		t.Errorf("user = %+v", user)
	}
	if n := atomic.LoadInt32(&refreshCalls); n != 1 {
		t.Errorf("refresh calls = %d, want 1", n)
	}
	if store.sess == nil || store.sess.RefreshToken != "next-refresh" {
		t.Errorf("rotated session not persisted: %+v", store.sess)
	}
}

func TestSecond401DoesNotLoop(t *testing.T) {
	var refreshCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/refresh" {
			atomic.AddInt32(&refreshCalls, 1)
			json.NewEncoder(w).Encode(map[string]any{
				"accessToken":  "fresh-access",
				"refreshToken": "next-refresh",
			})
			return
		}
		// Even the refreshed token is rejected.
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "Invalid or expired token"})
	}))
	defer srv.Close()

	c, _ := authenticatedClient(srv.URL)
	_, err := c.Me(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("err = %v, want 401 APIError", err)
	}
	if n := atomic.LoadInt32(&refreshCalls); n != 1 {
		t.Errorf("refresh calls = %d, want exactly 1", n)
	}
}

func TestRefreshFailureClearsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "Invalid or expired refresh token"})
	}))
	defer srv.Close()

	c, store := authenticatedClient(srv.URL)
	_, err := c.Me(context.Background())
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("err = %v, want ErrSessionExpired", err)
	}
	if c.State() != StateAnonymous {
		t.Errorf("state = %v, want anonymous", c.State())
	}
	if store.sess != nil {
		t.Errorf("session should be cleared, got %+v", store.sess)
	}
}

func TestRefreshServerErrorClearsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/refresh" {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": "boom"})
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "Invalid or expired token"})
	}))
	defer srv.Close()

	c, store := authenticatedClient(srv.URL)
	_, err := c.Me(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusInternalServerError {
		t.Fatalf("err = %v, want 500 APIError", err)
	}
	if c.State() != StateAnonymous {
		t.Errorf("state = %v, want anonymous after failed refresh", c.State())
	}
	if store.sess != nil {
		t.Errorf("session should be cleared, got %+v", store.sess)
	}
}

func TestRefreshNetworkErrorClearsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/refresh" {
			// Drop the connection mid-response.
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Error("server does not support hijack")
				return
			}
			conn, _, err := hj.Hijack()
			if err != nil {
				t.Error(err)
				return
			}
			conn.Close()
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "Invalid or expired token"})
	}))
	defer srv.Close()

	c, store := authenticatedClient(srv.URL)
	_, err := c.Me(context.Background())
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("err = %v (%T), want NetworkError", err, err)
	}
	if c.State() != StateAnonymous {
		t.Errorf("state = %v, want anonymous after failed refresh", c.State())
	}
	if store.sess != nil {
		t.Errorf("session should be cleared, got %+v", store.sess)
	}
}

func TestConcurrent401sShareOneRefresh(t *testing.T) {
	var refreshCalls int32
	srv := newRefreshServer(t, &refreshCalls, 50*time.Millisecond)
	defer srv.Close()

	c, _ := authenticatedClient(srv.URL)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Me(context.Background())
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("worker %d: %v", i, err)
		}
	}
	if n := atomic.LoadInt32(&refreshCalls); n != 1 {
		t.Errorf("refresh calls = %d, want 1", n)
	}
}

func TestLogoutBestEffort(t *testing.T) {
	var logoutHit int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/logout" {
			atomic.AddInt32(&logoutHit, 1)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c, store := authenticatedClient(srv.URL)
	c.Logout(context.Background())

	if atomic.LoadInt32(&logoutHit) != 1 {
		t.Error("logout endpoint not called")
	}
	if c.State() != StateAnonymous {
		t.Errorf("state = %v, want anonymous despite server error", c.State())
	}
	if store.sess != nil || store.clearCalls == 0 {
		t.Error("local session should be cleared")
	}
}

func TestRegisterAutoLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"success":      true,
			"accessToken":  "a1",
			"refreshToken": "r1",
			"user":         map[string]any{"id": 2, "username": "bob"},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, &memStore{})
	c.Start()
	user, err := c.Register(context.Background(), RegisterParams{
		Username: "bob", Email: "bob@example.com", Password: "pw",
	})
	if err != nil {
		t.Fatal(err)
	}
	if user.Username != "bob" {
		t.Errorf("user = %+v", user)
	}
	if c.State() != StateAuthenticated {
		t.Errorf("state = %v, want authenticated after register", c.State())
	}
}

func TestAPIErrorMessageVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "Category is required for custom habits"})
	}))
	defer srv.Close()

	store := &memStore{sess: &Session{AccessToken: "a", RefreshToken: "r"}}
	c := New(srv.URL, store)
	c.Start()
	_, err := c.CreateHabit(context.Background(), 1, HabitParams{Name: "Run", Description: "d"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v (%T)", err, err)
	}
	if apiErr.Message != "Category is required for custom habits" {
		t.Errorf("message = %q", apiErr.Message)
	}
}

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"habitgrid/internal/model"
)

// requestTimeout bounds every outbound request. A timeout surfaces as a
// NetworkError, never as a silent retry.
const requestTimeout = 10 * time.Second

// State is the session lifecycle the UI renders against.
type State int

const (
	StateLoading State = iota
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	}
	return "unknown"
}

// Client talks to the habit API. It owns the session: callers never see raw
// tokens, they observe the State and get typed errors.
type Client struct {
	baseURL string
	http    *http.Client
	store   SessionStore

	// refreshGroup collapses concurrent 401-triggered refreshes into one
	// network call.
	refreshGroup singleflight.Group

	mu      sync.Mutex
	state   State
	session *Session
}

func New(baseURL string, store SessionStore) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: requestTimeout},
		store:   store,
		state:   StateLoading,
	}
}

// Start loads the persisted session, moving out of StateLoading. It is the
// single startup read; every later session write goes through login, refresh
// or logout.
func (c *Client) Start() State {
	sess, err := c.store.Load()
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil || sess == nil || sess.RefreshToken == "" {
		c.state = StateAnonymous
		return c.state
	}
	c.session = sess
	c.state = StateAuthenticated
	return c.state
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CurrentUser returns the cached profile, nil when anonymous.
func (c *Client) CurrentUser() *model.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	return c.session.User
}

func (c *Client) accessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ""
	}
	return c.session.AccessToken
}

func (c *Client) refreshToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ""
	}
	return c.session.RefreshToken
}

func (c *Client) setSession(sess *Session) {
	c.mu.Lock()
	c.session = sess
	c.state = StateAuthenticated
	c.mu.Unlock()
	// A persistence failure degrades to an in-memory session.
	_ = c.store.Save(sess)
}

func (c *Client) clearSession() {
	c.mu.Lock()
	c.session = nil
	c.state = StateAnonymous
	c.mu.Unlock()
	_ = c.store.Clear()
}

// sessionBody is the login/register/refresh response shape.
type sessionBody struct {
	Success      bool        `json:"success"`
	Message      string      `json:"message"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	ExpiresAt    int64       `json:"expiresAt"`
	User         *model.User `json:"user"`
}

// errorBody covers both message styles the resource layer uses.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (e errorBody) text() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}

// do performs one request attempt and decodes a 2xx body into out.
func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		return json.NewDecoder(resp.Body).Decode(out)
	}

	var apiErr errorBody
	_ = json.NewDecoder(resp.Body).Decode(&apiErr)
	msg := apiErr.text()
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}

// authed runs an authenticated request. A 401 triggers the refresh flow and
// exactly one retry; a second 401 or a failed refresh ends the session.
func (c *Client) authed(ctx context.Context, method, path string, body, out any) error {
	token := c.accessToken()
	err := c.do(ctx, method, path, token, body, out)
	if !isUnauthorized(err) {
		return err
	}
	// If another caller already rotated the pair, retry with the fresh
	// token instead of refreshing again.
	if c.accessToken() == token {
		if err := c.refreshSession(ctx); err != nil {
			return err
		}
	}
	return c.do(ctx, method, path, c.accessToken(), body, out)
}

func isUnauthorized(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.Status == http.StatusUnauthorized
}

// refreshSession rotates the token pair. Concurrent callers share one
// network call. Any refresh failure is fatal to the session: the stored
// pair is cleared and the UI falls back to anonymous rather than retrying.
func (c *Client) refreshSession(ctx context.Context) error {
	_, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		token := c.refreshToken()
		if token == "" {
			c.clearSession()
			return nil, ErrSessionExpired
		}
		var resp sessionBody
		err := c.do(ctx, http.MethodPost, "/refresh", "", map[string]string{"refreshToken": token}, &resp)
		if err != nil {
			c.clearSession()
			if isUnauthorized(err) {
				return nil, ErrSessionExpired
			}
			return nil, err
		}

		c.mu.Lock()
		user := (*model.User)(nil)
		if c.session != nil {
			user = c.session.User
		}
		c.mu.Unlock()
		c.setSession(&Session{
			AccessToken:  resp.AccessToken,
			RefreshToken: resp.RefreshToken,
			ExpiresAt:    resp.ExpiresAt,
			User:         user,
		})
		return nil, nil
	})
	return err
}

// ========== Session operations ==========

func (c *Client) Login(ctx context.Context, email, password string) (*model.User, error) {
	var resp sessionBody
	err := c.do(ctx, http.MethodPost, "/login", "", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if isUnauthorized(err) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	c.setSession(&Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    resp.ExpiresAt,
		User:         resp.User,
	})
	return resp.User, nil
}

// RegisterParams is the sign-up form payload.
type RegisterParams struct {
	Username               string `json:"username"`
	Password               string `json:"password"`
	Email                  string `json:"email"`
	Phone                  string `json:"phone,omitempty"`
	PreferredContactMethod string `json:"preferred_contact_method,omitempty"`
}

// Register creates an account. When the response carries tokens the client
// is logged in immediately; otherwise the account exists and a login is
// required.
func (c *Client) Register(ctx context.Context, params RegisterParams) (*model.User, error) {
	var resp sessionBody
	if err := c.do(ctx, http.MethodPost, "/api/users", "", params, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken != "" {
		c.setSession(&Session{
			AccessToken:  resp.AccessToken,
			RefreshToken: resp.RefreshToken,
			ExpiresAt:    resp.ExpiresAt,
			User:         resp.User,
		})
	}
	return resp.User, nil
}

// Logout revokes the refresh token best-effort. Local state clears no matter
// what the server answers.
func (c *Client) Logout(ctx context.Context) {
	token := c.refreshToken()
	if token != "" {
		_ = c.do(ctx, http.MethodPost, "/logout", "", map[string]string{"refreshToken": token}, nil)
	}
	c.clearSession()
}

// ForceLogout drops the session without contacting the server. The refresh
// flow uses it when the resource layer no longer honors the tokens.
func (c *Client) ForceLogout() {
	c.clearSession()
}

// ========== Users ==========

func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.authed(ctx, http.MethodGet, "/api/users/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) UpdateUser(ctx context.Context, id int64, updates map[string]any) (*model.User, error) {
	var user model.User
	path := fmt.Sprintf("/api/users/%d", id)
	if err := c.authed(ctx, http.MethodPatch, path, updates, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.authed(ctx, http.MethodDelete, fmt.Sprintf("/api/users/%d", id), nil, nil)
}

// ========== Templates and categories ==========

func (c *Client) Templates(ctx context.Context) ([]model.HabitTemplate, error) {
	var templates []model.HabitTemplate
	if err := c.authed(ctx, http.MethodGet, "/api/habit-templates", nil, &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

func (c *Client) Template(ctx context.Context, id int64) (*model.HabitTemplate, error) {
	var t model.HabitTemplate
	if err := c.authed(ctx, http.MethodGet, fmt.Sprintf("/api/habit-templates/%d", id), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) MyCategories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := c.authed(ctx, http.MethodGet, "/api/categories/me", nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (c *Client) CreateCategory(ctx context.Context, name string) (*model.Category, error) {
	var category model.Category
	if err := c.authed(ctx, http.MethodPost, "/api/categories", map[string]string{"name": name}, &category); err != nil {
		return nil, err
	}
	return &category, nil
}

// ========== Habits ==========

// HabitParams is the habit create/update payload.
type HabitParams struct {
	TemplateID  *int64 `json:"template_id,omitempty"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	CategoryID  *int64 `json:"category_id,omitempty"`
	TimesPerDay int    `json:"times_per_day,omitempty"`
	CreateDate  string `json:"create_date,omitempty"`
}

func (c *Client) Habits(ctx context.Context, userID int64) ([]model.Habit, error) {
	var habits []model.Habit
	path := fmt.Sprintf("/api/users/%d/habits", userID)
	if err := c.authed(ctx, http.MethodGet, path, nil, &habits); err != nil {
		return nil, err
	}
	return habits, nil
}

func (c *Client) CreateHabit(ctx context.Context, userID int64, params HabitParams) (*model.Habit, error) {
	var habit model.Habit
	path := fmt.Sprintf("/api/users/%d/habits", userID)
	if err := c.authed(ctx, http.MethodPost, path, params, &habit); err != nil {
		return nil, err
	}
	return &habit, nil
}

func (c *Client) Habit(ctx context.Context, id int64) (*model.Habit, error) {
	var habit model.Habit
	if err := c.authed(ctx, http.MethodGet, fmt.Sprintf("/api/user-habits/%d", id), nil, &habit); err != nil {
		return nil, err
	}
	return &habit, nil
}

func (c *Client) UpdateHabit(ctx context.Context, id int64, params HabitParams) (*model.Habit, error) {
	var habit model.Habit
	if err := c.authed(ctx, http.MethodPatch, fmt.Sprintf("/api/user-habits/%d", id), params, &habit); err != nil {
		return nil, err
	}
	return &habit, nil
}

func (c *Client) ArchiveHabit(ctx context.Context, id int64) (*model.Habit, error) {
	var habit model.Habit
	if err := c.authed(ctx, http.MethodPatch, fmt.Sprintf("/api/user-habits/%d/archive", id), nil, &habit); err != nil {
		return nil, err
	}
	return &habit, nil
}

func (c *Client) DeleteHabit(ctx context.Context, id int64) error {
	return c.authed(ctx, http.MethodDelete, fmt.Sprintf("/api/user-habits/%d", id), nil, nil)
}

// ========== Habit logs ==========

// LogParams is the completion-event payload.
type LogParams struct {
	Date          string `json:"date,omitempty"`
	TimeCompleted string `json:"time_completed,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

func (c *Client) HabitLogs(ctx context.Context, habitID int64) ([]model.HabitLog, error) {
	var logs []model.HabitLog
	path := fmt.Sprintf("/api/user-habits/%d/logs", habitID)
	if err := c.authed(ctx, http.MethodGet, path, nil, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// TodayLogs fetches the habit's logs for today, or for date when non-empty.
func (c *Client) TodayLogs(ctx context.Context, habitID int64, date string) ([]model.HabitLog, error) {
	path := fmt.Sprintf("/api/user-habits/%d/logs/today", habitID)
	if date != "" {
		path += "?date=" + date
	}
	var logs []model.HabitLog
	if err := c.authed(ctx, http.MethodGet, path, nil, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

func (c *Client) CreateLog(ctx context.Context, habitID int64, params LogParams) (*model.HabitLog, error) {
	var entry model.HabitLog
	path := fmt.Sprintf("/api/user-habits/%d/logs", habitID)
	if err := c.authed(ctx, http.MethodPost, path, params, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (c *Client) UpdateLog(ctx context.Context, id int64, params LogParams) (*model.HabitLog, error) {
	var entry model.HabitLog
	if err := c.authed(ctx, http.MethodPatch, fmt.Sprintf("/api/habit-logs/%d", id), params, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (c *Client) DeleteLog(ctx context.Context, id int64) error {
	return c.authed(ctx, http.MethodDelete, fmt.Sprintf("/api/habit-logs/%d", id), nil, nil)
}

// LogsRange fetches every active-habit log between start and end inclusive,
// both YYYY-MM-DD.
func (c *Client) LogsRange(ctx context.Context, userID int64, start, end string) ([]model.HabitLog, error) {
	path := fmt.Sprintf("/api/users/%d/logs/range?start_date=%s&end_date=%s", userID, start, end)
	var logs []model.HabitLog
	if err := c.authed(ctx, http.MethodGet, path, nil, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

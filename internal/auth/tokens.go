package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"habitgrid/db"
)

var (
	// ErrInvalidCredentials is returned when email or password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTokenInvalid is returned for unknown or revoked tokens.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired is returned when a token's lifetime has elapsed.
	ErrTokenExpired = errors.New("token expired")
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("email already registered")
)

const (
	accessTokenTTL  = time.Hour
	refreshTokenTTL = 7 * 24 * time.Hour
)

// TokenPair is one session's credentials: a short-lived access token and the
// refresh token that renews it.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresAt    int64  `json:"expiresAt"`
}

// UserStore is the subset of the data layer the token service needs for
// account lookups.
type UserStore interface {
	CreateUser(*db.User) error
	UserByEmail(string) (*db.User, error)
	UserByID(uint) (*db.User, error)
}

// TokenStore persists refresh tokens.
type TokenStore interface {
	CreateRefreshToken(*db.RefreshToken) error
	RefreshTokenByValue(string) (*db.RefreshToken, error)
	RevokeRefreshToken(string) error
}

type accessGrant struct {
	userID    uint
	expiresAt time.Time
}

// Service issues and verifies token pairs. Access tokens are opaque values
// held in memory; refresh tokens are persisted and rotated on every refresh
// so a stolen old token cannot be replayed.
type Service struct {
	users  UserStore
	tokens TokenStore

	mu     sync.Mutex
	access map[string]accessGrant
	now    func() time.Time
}

func NewService(users UserStore, tokens TokenStore) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		access: make(map[string]accessGrant),
		now:    time.Now,
	}
}

// SetClock overrides the time source for expiry tests.
func (s *Service) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Register creates an account and logs it straight in, mirroring the
// register-then-auto-login flow of the mobile client.
func (s *Service) Register(username, password, email, phone, contactMethod string) (*db.User, *TokenPair, error) {
	if existing, err := s.users.UserByEmail(email); err == nil && existing != nil {
		return nil, nil, ErrEmailTaken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}
	user := &db.User{
		Username:               username,
		Email:                  email,
		PasswordHash:           string(hash),
		Phone:                  phone,
		PreferredContactMethod: contactMethod,
	}
	if err := s.users.CreateUser(user); err != nil {
		return nil, nil, fmt.Errorf("create user: %w", err)
	}
	pair, err := s.issuePair(user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Login verifies the password and issues a fresh token pair.
func (s *Service) Login(email, password string) (*db.User, *TokenPair, error) {
	user, err := s.users.UserByEmail(email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("lookup user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil, ErrInvalidCredentials
	}
	pair, err := s.issuePair(user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// LoginExternal issues a pair for an already-authenticated user, used by the
// OAuth callback after the provider has vouched for the identity.
func (s *Service) LoginExternal(userID uint) (*TokenPair, error) {
	return s.issuePair(userID)
}

// Verify resolves an access token to its user id.
func (s *Service) Verify(accessToken string) (uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	grant, ok := s.access[accessToken]
	if !ok {
		return 0, ErrTokenInvalid
	}
	if !s.now().Before(grant.expiresAt) {
		delete(s.access, accessToken)
		return 0, ErrTokenExpired
	}
	return grant.userID, nil
}

// Refresh exchanges a refresh token for a new pair. The old refresh token is
// revoked; a revoked, unknown or expired token fails with ErrTokenInvalid /
// ErrTokenExpired and the caller must re-login.
func (s *Service) Refresh(refreshToken string) (*TokenPair, error) {
	stored, err := s.tokens.RefreshTokenByValue(refreshToken)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, fmt.Errorf("lookup refresh token: %w", err)
	}
	if stored.RevokedAt != nil {
		return nil, ErrTokenInvalid
	}
	if !s.clockNow().Before(stored.ExpiresAt) {
		return nil, ErrTokenExpired
	}
	if err := s.tokens.RevokeRefreshToken(refreshToken); err != nil {
		return nil, fmt.Errorf("revoke refresh token: %w", err)
	}
	return s.issuePair(stored.UserID)
}

// Revoke invalidates a refresh token on logout. Unknown tokens are not an
// error; logout is best-effort.
func (s *Service) Revoke(refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.tokens.RevokeRefreshToken(refreshToken)
}

func (s *Service) clockNow() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now()
}

func (s *Service) issuePair(userID uint) (*TokenPair, error) {
	access, err := newAccessToken()
	if err != nil {
		return nil, err
	}
	refresh := uuid.NewString()
	now := s.clockNow()
	expiresAt := now.Add(accessTokenTTL)

	if err := s.tokens.CreateRefreshToken(&db.RefreshToken{
		Token:     refresh,
		UserID:    userID,
		ExpiresAt: now.Add(refreshTokenTTL),
	}); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	s.mu.Lock()
	s.access[access] = accessGrant{userID: userID, expiresAt: expiresAt}
	s.sweepLocked(now)
	s.mu.Unlock()

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt.Unix(),
	}, nil
}

// sweepLocked drops expired access grants so the table does not grow without
// bound. Callers hold s.mu.
func (s *Service) sweepLocked(now time.Time) {
	for token, grant := range s.access {
		if !now.Before(grant.expiresAt) {
			delete(s.access, token)
		}
	}
}

func newAccessToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"

	"github.com/markbates/goth/gothic"

	"habitgrid/db"
	"habitgrid/internal/auth"
)

type registerRequest struct {
	Username               string `json:"username"`
	Password               string `json:"password"`
	Email                  string `json:"email"`
	Phone                  string `json:"phone"`
	PreferredContactMethod string `json:"preferred_contact_method"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type sessionResponse struct {
	Success      bool     `json:"success"`
	Message      string   `json:"message,omitempty"`
	AccessToken  string   `json:"accessToken,omitempty"`
	RefreshToken string   `json:"refreshToken,omitempty"`
	ExpiresAt    int64    `json:"expiresAt,omitempty"`
	User         *db.User `json:"user,omitempty"`
}

func sessionPayload(user *db.User, pair *auth.TokenPair, message string) sessionResponse {
	resp := sessionResponse{Success: true, Message: message, User: user}
	if pair != nil {
		resp.AccessToken = pair.AccessToken
		resp.RefreshToken = pair.RefreshToken
		resp.ExpiresAt = pair.ExpiresAt
	}
	return resp
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	switch {
	case req.Username == "":
		writeError(w, http.StatusBadRequest, "Username is required")
		return
	case req.Email == "":
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	case req.Password == "":
		writeError(w, http.StatusBadRequest, "Password is required")
		return
	}

	user, pair, err := s.auth.Register(req.Username, req.Password, req.Email, req.Phone, req.PreferredContactMethod)
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			writeError(w, http.StatusConflict, "Email already registered")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, sessionPayload(user, pair, "User created successfully"))
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	user, pair, err := s.auth.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeJSON(w, http.StatusUnauthorized, sessionResponse{Message: "Invalid login credentials"})
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sessionPayload(user, pair, ""))
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	pair, err := s.auth.Refresh(req.RefreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrTokenInvalid) || errors.Is(err, auth.ErrTokenExpired) {
			writeJSON(w, http.StatusUnauthorized, sessionResponse{Message: "Invalid or expired refresh token"})
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sessionPayload(nil, pair, ""))
}

// logout revokes the refresh token and always answers 200; the client clears
// its local session regardless of what happens here.
func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	if err := s.auth.Revoke(req.RefreshToken); err != nil {
		log.Printf("logout: revoke failed: %v", err)
	}
	writeJSON(w, http.StatusOK, sessionResponse{Success: true})
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ========== Social sign-in (goth) ==========

func (s *Server) beginAuthProviderCallback(w http.ResponseWriter, r *http.Request) {
	gothic.BeginAuthHandler(w, r)
}

// getAuthCallbackFunction completes the OAuth flow, upserts the user by
// email and redirects to the frontend with a freshly issued token pair.
func (s *Server) getAuthCallbackFunction(w http.ResponseWriter, r *http.Request) {
	gothUser, err := gothic.CompleteUserAuth(w, r)
	if err != nil {
		log.Printf("Auth error: %v", err)
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	user, err := s.store.UserByEmail(gothUser.Email)
	if errors.Is(err, db.ErrNotFound) {
		user = &db.User{
			Username: gothUser.Name,
			Email:    gothUser.Email,
		}
		if err := s.store.CreateUser(user); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	} else if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	pair, err := s.auth.LoginExternal(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	redirectURL := os.Getenv("FRONTEND_URL")
	if redirectURL == "" {
		redirectURL = "http://localhost:8081"
	}
	redirectURL = fmt.Sprintf("%s/auth/callback?username=%s&email=%s&refresh_token=%s&access_token=%s",
		redirectURL,
		url.QueryEscape(user.Username),
		url.QueryEscape(user.Email),
		url.QueryEscape(pair.RefreshToken),
		url.QueryEscape(pair.AccessToken))

	http.Redirect(w, r, redirectURL, http.StatusTemporaryRedirect)
}

func (s *Server) logOutFunction(w http.ResponseWriter, r *http.Request) {
	gothic.Logout(w, r)

	redirectURL := os.Getenv("FRONTEND_URL")
	if redirectURL == "" {
		redirectURL = "http://localhost:8081"
	}
	http.Redirect(w, r, redirectURL, http.StatusTemporaryRedirect)
}

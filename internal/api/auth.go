package api

import (
	"encoding/json"
	"net/http"

	"github.com/atelierhq/atelier-core/internal/auth"
)

// secondsPerMinute converts TTL minutes to the expires_in seconds field.
const secondsPerMinute = 60

// loginRequest is the request body for POST /auth/login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// refreshRequest is the request body for POST /auth/refresh.
type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// logoutRequest is the request body for POST /auth/logout.
type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// tokenResponse is the response body for login and refresh.
type tokenResponse struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	TokenType    string     `json:"token_type"`
	ExpiresIn    int        `json:"expires_in"`
	User         *auth.User `json:"user"`
}

// handleLogin authenticates a user and returns an access/refresh token pair.
//
// Every failure mode returns the same 401 - the response never reveals
// whether the email exists, the password was wrong, or the account is
// inactive.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if req.Email == "" || req.Password == "" {
		writeBadRequest(w, "email and password are required")
		return
	}

	result, err := s.authService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeUnauthorized(w, "invalid credentials")
		return
	}

	s.auditLog("login", "session", "", result.User.ID, nil)

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    s.secCfg.JWT.AccessTokenTTL * secondsPerMinute,
		User:         result.User,
	})
}

// handleRefresh exchanges a valid refresh token for a new token pair.
// The consumed token is revoked; reuse of an already-consumed token
// revokes the entire token family.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if req.RefreshToken == "" {
		writeBadRequest(w, "refresh_token is required")
		return
	}

	result, err := s.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeUnauthorized(w, "invalid or expired refresh token")
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    s.secCfg.JWT.AccessTokenTTL * secondsPerMinute,
		User:         result.User,
	})
}

// handleLogout revokes the refresh token family for the presented token.
// Logout is idempotent: an unknown or already-revoked token is a no-op.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.authService.Logout(r.Context(), req.RefreshToken); err != nil {
		s.logger.Error("logout failed", "error", err)
		writeInternalError(w, "failed to log out")
		return
	}

	claims := claimsFromContext(r.Context())
	if claims != nil {
		s.auditLog("logout", "session", "", claims.Subject, nil)
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// handleMe returns the verified claims of the current session.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeUnauthorized(w, "not authenticated")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":      claims.Subject,
		"email":        claims.Email,
		"display_name": claims.DisplayName,
		"role":         claims.Role,
		"permissions":  auth.PermissionsForRole(claims.Role),
		"expires_at":   claims.ExpiresAt,
	})
}

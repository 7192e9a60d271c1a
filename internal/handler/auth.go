package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/auth"
	"github.com/sakif/portfolio/internal/service"
)

// AuthHandler manages login, logout and the current-user endpoint.
//
//   - HandleLogin  → check credentials, open a session, set the cookie
//   - HandleLogout → delete the session, expire the cookie
//   - HandleUser   → return the signed-in user (RequireAuth in front)
type AuthHandler struct {
	svc          *service.AuthService
	ttl          time.Duration
	secureCookie bool
	logger       *slog.Logger
}

func NewAuthHandler(svc *service.AuthService, ttl time.Duration, secureCookie bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, ttl: ttl, secureCookie: secureCookie, logger: logger}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleLogin checks the credentials and sets the session cookie.
//
// HTTP: POST /api/login
// REQUEST BODY: {"username": "admin", "password": "..."}
//
// Every failure is the same 401 so a client cannot probe for usernames.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	res, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, apperror.ErrUnauthorized) {
			h.logger.Warn("login rejected",
				slog.String("username", req.Username),
				slog.String("remoteAddr", r.RemoteAddr),
			)
		}
		writeError(w, h.logger, err)
		return
	}

	h.logger.Info("user logged in", slog.String("userID", res.User.ID))
	auth.SetSessionCookie(w, res.Token, h.ttl, h.secureCookie)
	writeJSON(w, http.StatusOK, res.User)
}

// HandleLogout ends the session. It is POST-only: a GET logout could be
// triggered by a prefetch or an <img> tag.
//
// HTTP: POST /api/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if sessionID, ok := auth.SessionIDFromContext(r.Context()); ok {
		if err := h.svc.Logout(r.Context(), sessionID); err != nil {
			writeError(w, h.logger, err)
			return
		}
		if user, ok := auth.UserFromContext(r.Context()); ok {
			h.logger.Info("user logged out", slog.String("userID", user.ID))
		}
	}

	auth.ClearSessionCookie(w, h.secureCookie)
	writeMessage(w, http.StatusOK, "logged out")
}

// HandleUser returns the signed-in user.
//
// HTTP: GET /api/user
func (h *AuthHandler) HandleUser(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthorized("authentication required"))
		return
	}
	writeJSON(w, http.StatusOK, user)
}

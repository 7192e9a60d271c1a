package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/model"
)

// SessionCookie is the name of the cookie carrying the signed session id.
const SessionCookie = "portfolio_session"

// contextKey is unexported so no other package can read or shadow the
// values stored here.
type contextKey string

const (
	userKey    contextKey = "user"
	sessionKey contextKey = "session"
)

// SessionStore is what the middleware needs from the database.
type SessionStore interface {
	GetSession(ctx context.Context, id string) (*model.Session, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// LoadUser resolves the session cookie, if any, into a user on the request
// context. It never rejects a request: an absent, forged, expired or revoked
// session simply leaves the request anonymous. RequireAuth does the
// rejecting.
func LoadUser(tokens *TokenService, store SessionStore, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, session, err := resolve(r, tokens, store)
			switch {
			case err == nil:
				r = r.WithContext(WithUser(r.Context(), user, session.ID))
			case !isAnonymous(err):
				logger.Error("failed to resolve session",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth passes requests with a user on the context to next and hands
// the rest to deny, which writes the 401. It must run after LoadUser.
func RequireAuth(deny http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := UserFromContext(r.Context()); !ok {
				deny.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithUser returns a context carrying the signed-in user and their session.
func WithUser(ctx context.Context, user *model.User, sessionID string) context.Context {
	ctx = context.WithValue(ctx, userKey, user)
	return context.WithValue(ctx, sessionKey, sessionID)
}

// UserFromContext returns the signed-in user, or (nil, false) when the
// request is anonymous.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey).(*model.User)
	return u, ok && u != nil
}

// SessionIDFromContext returns the current session id, used by logout.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionKey).(string)
	return id, ok && id != ""
}

// SetSessionCookie stores token in the session cookie for ttl.
func SetSessionCookie(w http.ResponseWriter, token string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie tells the browser to drop the session cookie.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// errAnonymous covers every "no usable session" outcome that is a normal
// part of traffic rather than a fault.
var errAnonymous = errors.New("auth: no valid session")

func isAnonymous(err error) bool {
	return errors.Is(err, errAnonymous) || errors.Is(err, apperror.ErrNotFound)
}

func resolve(r *http.Request, tokens *TokenService, store SessionStore) (*model.User, *model.Session, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return nil, nil, errAnonymous
	}

	sessionID, err := tokens.Validate(cookie.Value)
	if err != nil {
		return nil, nil, errAnonymous
	}

	session, err := store.GetSession(r.Context(), sessionID)
	if err != nil {
		return nil, nil, err
	}
	if session.Expired(time.Now()) {
		return nil, nil, errAnonymous
	}

	user, err := store.GetUserByID(r.Context(), session.UserID)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

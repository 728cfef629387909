package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"lead-crm/internal/auth"
	"lead-crm/internal/db"
	"lead-crm/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const SessionName = "crm_session"

const (
	keyUserID      = "user_id"
	keyEmail       = "email"
	keyName        = "name"
	keyRole        = "role"
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
	keyExpiresAt    = "expires_at"
	keyCheckedAt    = "checked_at"
)

// tokenRecheckInterval is how long a validated access token is trusted
// before the auth service is asked again.
const tokenRecheckInterval = 5 * time.Minute

type contextKey string

const identityKey contextKey = "identity"

// Identity is the signed-in user as stored in the session cookie.
type Identity struct {
	UserID      uuid.UUID
	Email       string
	Name        string
	Role        string
	AccessToken string

	RefreshToken string
	ExpiresAt    time.Time
	CheckedAt    time.Time
}

// ProfileLoader refreshes the role on every request so role changes made by
// an administrator apply without signing out.
type ProfileLoader interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error)
}

// TokenChecker is the part of auth.Provider used to keep a session alive.
type TokenChecker interface {
	User(ctx context.Context, accessToken string) (*auth.User, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.Session, error)
}

// NewSessionStore returns the cookie store shared by sessions and flashes.
func NewSessionStore(secret []byte, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore(secret)
	store.MaxAge(86400 * 7)
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = secure
	store.Options.SameSite = http.SameSiteLaxMode
	return store
}

// SaveIdentity signs the user in.
func SaveIdentity(w http.ResponseWriter, r *http.Request, store sessions.Store, id Identity) error {
	session, _ := store.Get(r, SessionName)
	session.Values[keyUserID] = id.UserID.String()
	session.Values[keyEmail] = id.Email
	session.Values[keyName] = id.Name
	session.Values[keyRole] = id.Role
	session.Values[keyAccessToken] = id.AccessToken
	session.Values[keyRefreshToken] = id.RefreshToken
	session.Values[keyExpiresAt] = unix(id.ExpiresAt)
	session.Values[keyCheckedAt] = unix(id.CheckedAt)
	return session.Save(r, w)
}

// ClearIdentity signs the user out but keeps pending flashes.
func ClearIdentity(w http.ResponseWriter, r *http.Request, store sessions.Store) error {
	session, _ := store.Get(r, SessionName)
	for _, k := range []string{keyUserID, keyEmail, keyName, keyRole, keyAccessToken, keyRefreshToken, keyExpiresAt, keyCheckedAt} {
		delete(session.Values, k)
	}
	return session.Save(r, w)
}

// LoadIdentity reads the identity from the session cookie.
func LoadIdentity(r *http.Request, store sessions.Store) (Identity, bool) {
	session, err := store.Get(r, SessionName)
	if err != nil {
		return Identity{}, false
	}
	raw, _ := session.Values[keyUserID].(string)
	userID, err := uuid.Parse(raw)
	if err != nil {
		return Identity{}, false
	}
	id := Identity{UserID: userID}
	id.Email, _ = session.Values[keyEmail].(string)
	id.Name, _ = session.Values[keyName].(string)
	id.Role, _ = session.Values[keyRole].(string)
	id.AccessToken, _ = session.Values[keyAccessToken].(string)
	id.RefreshToken, _ = session.Values[keyRefreshToken].(string)
	id.ExpiresAt = fromUnix(session.Values[keyExpiresAt])
	id.CheckedAt = fromUnix(session.Values[keyCheckedAt])
	return id, true
}

func unix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func fromUnix(v interface{}) time.Time {
	n, _ := v.(int64)
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(n, 0)
}

// WithIdentity attaches id to ctx, including the claims the database sees.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	ctx = context.WithValue(ctx, identityKey, id)
	return db.ContextWithClaims(ctx, db.Claims{Subject: id.UserID.String(), Email: id.Email, Role: id.Role})
}

func isAPIRequest(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/") ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// RequireAuth redirects anonymous visitors to /login (401 for the JSON API).
// Sessions backed by an access token are refreshed once the token expires
// and rechecked against the auth service every tokenRecheckInterval, so a
// user revoked upstream loses access without waiting for the cookie to age.
func RequireAuth(store sessions.Store, profiles ProfileLoader, tokens TokenChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			deny := func() {
				if isAPIRequest(r) {
					writeJSONError(w, http.StatusUnauthorized, "não autenticado")
					return
				}
				http.Redirect(w, r, "/login", http.StatusFound)
			}

			id, ok := LoadIdentity(r, store)
			if !ok {
				deny()
				return
			}

			if tokens != nil && id.AccessToken != "" {
				var err error
				id, err = revalidate(r.Context(), id, tokens, time.Now())
				switch {
				case errors.Is(err, errSessionFresh):
				case errors.Is(err, auth.ErrInvalidToken):
					logger.Info("session revoked by auth service", "user_id", id.UserID)
					_ = ClearIdentity(w, r, store)
					deny()
					return
				case errors.Is(err, errAuthUnavailable):
					logger.Error("failed to refresh session", "user_id", id.UserID, "error", err)
					if isAPIRequest(r) {
						writeJSONError(w, http.StatusServiceUnavailable, "serviço de autenticação indisponível")
						return
					}
					http.Error(w, "Serviço de autenticação indisponível. Tente novamente.", http.StatusServiceUnavailable)
					return
				case err != nil:
					logger.Warn("failed to recheck session", "user_id", id.UserID, "error", err)
				default:
					if err := SaveIdentity(w, r, store, id); err != nil {
						logger.Error("failed to save session", "user_id", id.UserID, "error", err)
					}
				}
			}

			if profiles != nil {
				p, err := profiles.GetProfile(r.Context(), id.UserID)
				switch {
				case errors.Is(err, models.ErrNotFound):
					_ = ClearIdentity(w, r, store)
					deny()
					return
				case err != nil:
					logger.Error("failed to refresh profile", "user_id", id.UserID, "error", err)
				default:
					id.Role = p.Role
					id.Name = p.DisplayName()
				}
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

var (
	errAuthUnavailable = errors.New("auth service unavailable")
	errSessionFresh    = errors.New("session checked recently")
)

// revalidate returns the identity to store. A nil error means the identity
// changed and must be saved; errSessionFresh means nothing had to be done.
func revalidate(ctx context.Context, id Identity, tokens TokenChecker, now time.Time) (Identity, error) {
	if !id.ExpiresAt.IsZero() && !now.Before(id.ExpiresAt) {
		s, err := tokens.Refresh(ctx, id.RefreshToken)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				return id, err
			}
			return id, fmt.Errorf("%w: %v", errAuthUnavailable, err)
		}
		id.AccessToken = s.AccessToken
		id.RefreshToken = s.RefreshToken
		id.ExpiresAt = s.ExpiresAt
		id.CheckedAt = now
		return id, nil
	}

	if now.Sub(id.CheckedAt) < tokenRecheckInterval {
		return id, errSessionFresh
	}
	if _, err := tokens.User(ctx, id.AccessToken); err != nil {
		return id, err
	}
	id.CheckedAt = now
	return id, nil
}

// RequireRole must run after RequireAuth.
func RequireRole(allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userRole := GetUserRole(r)
			for _, role := range allowedRoles {
				if userRole == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			if isAPIRequest(r) {
				writeJSONError(w, http.StatusForbidden, "acesso restrito")
				return
			}
			http.Error(w, "Acesso restrito: você não tem permissão para acessar esta página.", http.StatusForbidden)
		})
	}
}

func GetIdentity(r *http.Request) (Identity, bool) {
	id, ok := r.Context().Value(identityKey).(Identity)
	return id, ok
}

func GetUserID(r *http.Request) string {
	if id, ok := GetIdentity(r); ok {
		return id.UserID.String()
	}
	return ""
}

func GetUserRole(r *http.Request) string {
	id, _ := GetIdentity(r)
	return id.Role
}

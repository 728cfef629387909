package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lead-crm/internal/auth"
	"lead-crm/internal/db"
	"lead-crm/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func testStore() *sessions.CookieStore {
	return NewSessionStore([]byte("test-secret-key-32-bytes-long!!"), false)
}

// signedIn returns the cookies of a session holding id.
func signedIn(t *testing.T, store sessions.Store, id Identity) []*http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	require.NoError(t, SaveIdentity(rec, req, store, id))
	return rec.Result().Cookies()
}

func withCookies(req *http.Request, cookies []*http.Cookie) *http.Request {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

type fakeProfiles struct {
	profile *models.Profile
	err     error
}

func (f fakeProfiles) GetProfile(context.Context, uuid.UUID) (*models.Profile, error) {
	return f.profile, f.err
}

func TestRequireAuth(t *testing.T) {
	store := testStore()
	userID := uuid.New()
	cookies := signedIn(t, store, Identity{UserID: userID, Email: "ana@x.com", Role: models.RoleSales, Name: "Ana"})

	var seen Identity
	var claims db.Claims
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetIdentity(r)
		claims, _ = db.ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		path       string
		cookies    []*http.Cookie
		profiles   ProfileLoader
		wantStatus int
		wantRole   string
	}{
		{name: "anonymous page redirects", path: "/leads", wantStatus: http.StatusFound},
		{name: "anonymous api is 401", path: "/api/me", wantStatus: http.StatusUnauthorized},
		{name: "session without refresh", path: "/leads", cookies: cookies, wantStatus: http.StatusOK, wantRole: models.RoleSales},
		{
			name: "role refreshed from profile", path: "/leads", cookies: cookies,
			profiles:   fakeProfiles{profile: &models.Profile{ID: userID, FullName: "Ana", Role: models.RoleAdmin}},
			wantStatus: http.StatusOK, wantRole: models.RoleAdmin,
		},
		{
			name: "deleted profile signs out", path: "/leads", cookies: cookies,
			profiles:   fakeProfiles{err: models.ErrNotFound},
			wantStatus: http.StatusFound,
		},
		{
			name: "profile lookup failure keeps session role", path: "/leads", cookies: cookies,
			profiles:   fakeProfiles{err: errors.New("timeout")},
			wantStatus: http.StatusOK, wantRole: models.RoleSales,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = Identity{}
			h := RequireAuth(store, tt.profiles, nil, discard)(ok)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, withCookies(httptest.NewRequest(http.MethodGet, tt.path, nil), tt.cookies))

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusFound {
				assert.Equal(t, "/login", rec.Header().Get("Location"))
			}
			if tt.wantRole != "" {
				assert.Equal(t, tt.wantRole, seen.Role)
				assert.Equal(t, userID, seen.UserID)
				assert.Equal(t, userID.String(), claims.Subject)
				assert.Equal(t, tt.wantRole, claims.Role)
			}
		})
	}
}

type fakeTokens struct {
	userErr    error
	refreshed  *auth.Session
	refreshErr error

	userCalls, refreshCalls int
}

func (f *fakeTokens) User(context.Context, string) (*auth.User, error) {
	f.userCalls++
	if f.userErr != nil {
		return nil, f.userErr
	}
	return &auth.User{}, nil
}

func (f *fakeTokens) Refresh(_ context.Context, refreshToken string) (*auth.Session, error) {
	f.refreshCalls++
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.refreshed, nil
}

func TestRequireAuthRevalidatesToken(t *testing.T) {
	store := testStore()
	userID := uuid.New()
	now := time.Now()
	hosted := Identity{
		UserID: userID, Email: "ana@x.com", Role: models.RoleSales,
		AccessToken: "tok", RefreshToken: "ref", ExpiresAt: now.Add(time.Hour),
	}

	var seen Identity
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetIdentity(r)
		w.WriteHeader(http.StatusOK)
	})
	serve := func(tokens *fakeTokens, id Identity, path string) *httptest.ResponseRecorder {
		seen = Identity{}
		rec := httptest.NewRecorder()
		req := withCookies(httptest.NewRequest(http.MethodGet, path, nil), signedIn(t, store, id))
		RequireAuth(store, nil, tokens, discard)(ok).ServeHTTP(rec, req)
		return rec
	}

	t.Run("recently checked token is trusted", func(t *testing.T) {
		tokens := &fakeTokens{}
		id := hosted
		id.CheckedAt = now.Add(-time.Minute)
		rec := serve(tokens, id, "/leads")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Zero(t, tokens.userCalls)
		assert.Zero(t, tokens.refreshCalls)
	})

	t.Run("stale check asks the auth service", func(t *testing.T) {
		tokens := &fakeTokens{}
		id := hosted
		id.CheckedAt = now.Add(-time.Hour)
		rec := serve(tokens, id, "/leads")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, tokens.userCalls)

		// the new check time is persisted
		saved, found := LoadIdentity(withCookies(httptest.NewRequest(http.MethodGet, "/", nil), rec.Result().Cookies()), store)
		require.True(t, found)
		assert.WithinDuration(t, time.Now(), saved.CheckedAt, time.Minute)
	})

	t.Run("revoked token signs out", func(t *testing.T) {
		tokens := &fakeTokens{userErr: auth.ErrInvalidToken}
		rec := serve(tokens, hosted, "/leads")
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))

		_, found := LoadIdentity(withCookies(httptest.NewRequest(http.MethodGet, "/", nil), rec.Result().Cookies()), store)
		assert.False(t, found)
	})

	t.Run("auth service outage during recheck keeps the session", func(t *testing.T) {
		tokens := &fakeTokens{userErr: errors.New("connection refused")}
		rec := serve(tokens, hosted, "/leads")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, userID, seen.UserID)
	})

	t.Run("expired token is refreshed", func(t *testing.T) {
		tokens := &fakeTokens{refreshed: &auth.Session{AccessToken: "tok2", RefreshToken: "ref2", ExpiresAt: now.Add(time.Hour)}}
		id := hosted
		id.ExpiresAt = now.Add(-time.Minute)
		rec := serve(tokens, id, "/leads")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, tokens.refreshCalls)
		assert.Equal(t, "tok2", seen.AccessToken)

		saved, found := LoadIdentity(withCookies(httptest.NewRequest(http.MethodGet, "/", nil), rec.Result().Cookies()), store)
		require.True(t, found)
		assert.Equal(t, "tok2", saved.AccessToken)
		assert.Equal(t, "ref2", saved.RefreshToken)
	})

	t.Run("rejected refresh token signs out", func(t *testing.T) {
		tokens := &fakeTokens{refreshErr: auth.ErrInvalidToken}
		id := hosted
		id.ExpiresAt = now.Add(-time.Minute)
		rec := serve(tokens, id, "/api/me")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("refresh outage is 503", func(t *testing.T) {
		tokens := &fakeTokens{refreshErr: errors.New("connection refused")}
		id := hosted
		id.ExpiresAt = now.Add(-time.Minute)
		rec := serve(tokens, id, "/api/me")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "serviço de autenticação indisponível")
	})

	t.Run("sessions without a token skip the checks", func(t *testing.T) {
		tokens := &fakeTokens{userErr: auth.ErrInvalidToken}
		rec := serve(tokens, Identity{UserID: userID, Role: models.RoleSales}, "/leads")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Zero(t, tokens.userCalls)
	})
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := RequireRole(models.RoleAdmin)(ok)

	tests := []struct {
		name string
		role string
		path string
		want int
	}{
		{"admin allowed", models.RoleAdmin, "/users", http.StatusNoContent},
		{"sales forbidden", models.RoleSales, "/users", http.StatusForbidden},
		{"anonymous forbidden", "", "/api/users", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.role != "" {
				req = req.WithContext(WithIdentity(req.Context(), Identity{UserID: uuid.New(), Role: tt.role}))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestClearIdentity(t *testing.T) {
	store := testStore()
	cookies := signedIn(t, store, Identity{UserID: uuid.New(), Role: models.RoleSales})

	rec := httptest.NewRecorder()
	req := withCookies(httptest.NewRequest(http.MethodPost, "/logout", nil), cookies)
	require.NoError(t, ClearIdentity(rec, req, store))

	_, ok := LoadIdentity(withCookies(httptest.NewRequest(http.MethodGet, "/", nil), rec.Result().Cookies()), store)
	assert.False(t, ok)
}

func TestFlashes(t *testing.T) {
	store := testStore()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/courses", nil)
	Success(rec, req, store, "Sucesso!", "Curso criado com sucesso.")
	cookies := rec.Result().Cookies()

	rec = httptest.NewRecorder()
	req = withCookies(httptest.NewRequest(http.MethodGet, "/courses", nil), cookies)
	flashes := PopFlashes(rec, req, store)
	require.Len(t, flashes, 1)
	assert.Equal(t, Flash{Title: "Sucesso!", Description: "Curso criado com sucesso.", Variant: FlashDefault}, flashes[0])

	// consumed
	rec2 := httptest.NewRecorder()
	req = withCookies(httptest.NewRequest(http.MethodGet, "/courses", nil), rec.Result().Cookies())
	assert.Empty(t, PopFlashes(rec2, req, store))
}

func TestFailureFlash(t *testing.T) {
	store := testStore()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/origins/x/delete", nil)
	Failure(rec, req, store, "Erro", models.ErrInUse)

	req = withCookies(httptest.NewRequest(http.MethodGet, "/origins", nil), rec.Result().Cookies())
	flashes := PopFlashes(httptest.NewRecorder(), req, store)
	require.Len(t, flashes, 1)
	assert.Equal(t, FlashDestructive, flashes[0].Variant)
	assert.Equal(t, "Não foi possível excluir. Verifique se o item não está em uso.", flashes[0].Description)
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestCSRF(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	h := CSRF(key, false, []string{"localhost:3000"})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("form post without token is rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/leads/new", strings.NewReader("name=Ana"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("json content type does not bypass the token", func(t *testing.T) {
		reached := false
		h := CSRF(key, false, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			reached = true
		}))
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/users/abc/role?role=Administrador", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.False(t, reached)
	})

	t.Run("safe methods pass and receive a token", func(t *testing.T) {
		var token string
		h := CSRF(key, false, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token = csrf.Token(r)
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/leads/new", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, token)
	})
}

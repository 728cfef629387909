package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	gotrue "github.com/supabase-community/auth-go"
	"github.com/supabase-community/auth-go/types"
)

// GoTrue signs users in against the hosted auth service.
type GoTrue struct {
	client gotrue.Client
	logger *slog.Logger
}

// NewGoTrue points the client at baseURL, the project URL without the
// /auth/v1 suffix.
func NewGoTrue(baseURL, anonKey string, logger *slog.Logger) *GoTrue {
	client := gotrue.New("", anonKey).
		WithCustomAuthURL(strings.TrimRight(baseURL, "/") + "/auth/v1").
		WithClient(http.Client{Timeout: 10 * time.Second})
	return &GoTrue{client: client, logger: logger}
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	ErrorCode        string `json:"error_code"`
}

func (e errorResponse) text() string {
	for _, s := range []string{e.ErrorDescription, e.Msg, e.Message, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

// the client reports failures as "response status code 400: {body}"
var statusErrorPattern = regexp.MustCompile(`response status code (\d{3})(?::\s*(.*))?`)

// mapError turns the client's error into the package's sentinel errors.
func (g *GoTrue) mapError(op string, err error) error {
	m := statusErrorPattern.FindStringSubmatch(err.Error())
	if m == nil {
		return fmt.Errorf("auth service unreachable: %w", err)
	}
	status, _ := strconv.Atoi(m[1])
	var e errorResponse
	_ = json.Unmarshal([]byte(m[2]), &e)
	g.logger.Debug("auth service error", "op", op, "status", status, "error", e.text())
	return mapGoTrueError(status, e)
}

func mapGoTrueError(status int, e errorResponse) error {
	text := strings.ToLower(e.text())
	switch {
	case e.Error == "invalid_grant", strings.Contains(text, "invalid login credentials"):
		return ErrInvalidCredentials
	case e.ErrorCode == "user_already_exists", strings.Contains(text, "already registered"):
		return ErrEmailTaken
	case e.ErrorCode == "weak_password", strings.Contains(text, "password should be"):
		return ErrWeakPassword
	case e.ErrorCode == "refresh_token_not_found", e.ErrorCode == "session_not_found":
		return ErrInvalidToken
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return ErrInvalidToken
	}
	if t := e.text(); t != "" {
		return fmt.Errorf("auth service: %s", t)
	}
	return fmt.Errorf("auth service returned status %d", status)
}

func toUser(u types.User) User {
	name, _ := u.UserMetadata["full_name"].(string)
	return User{ID: u.ID, Email: normalizeEmail(u.Email), FullName: name}
}

func toSession(s types.Session) *Session {
	return &Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(s.ExpiresIn) * time.Second),
		User:         toUser(s.User),
	}
}

func (g *GoTrue) SignIn(ctx context.Context, email, password string) (*Session, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := g.client.SignInWithEmailPassword(normalizeEmail(email), password)
	if err != nil {
		return nil, g.mapError("sign_in", err)
	}
	return toSession(resp.Session), nil
}

func (g *GoTrue) SignUp(ctx context.Context, email, password, fullName string) (*Session, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}
	if len(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := g.client.Signup(types.SignupRequest{
		Email:    normalizeEmail(email),
		Password: password,
		Data:     map[string]interface{}{"full_name": strings.TrimSpace(fullName)},
	})
	if err != nil {
		return nil, g.mapError("sign_up", err)
	}
	// without a session the service is waiting for the e-mail confirmation
	if resp.AccessToken == "" {
		return nil, ErrConfirmationRequired
	}
	return toSession(resp.Session), nil
}

func (g *GoTrue) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := g.client.WithToken(accessToken).Logout(); err != nil {
		err = g.mapError("sign_out", err)
		if err == ErrInvalidToken {
			return nil
		}
		return err
	}
	return nil
}

func (g *GoTrue) User(ctx context.Context, accessToken string) (*User, error) {
	if accessToken == "" {
		return nil, ErrInvalidToken
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := g.client.WithToken(accessToken).GetUser()
	if err != nil {
		return nil, g.mapError("user", err)
	}
	u := toUser(resp.User)
	return &u, nil
}

func (g *GoTrue) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, ErrInvalidToken
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := g.client.RefreshToken(refreshToken)
	if err != nil {
		err = g.mapError("refresh", err)
		if err == ErrInvalidCredentials {
			// an unknown or reused refresh token comes back as invalid_grant
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return toSession(resp.Session), nil
}

package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"lead-crm/internal/auth"
	"lead-crm/internal/middleware"
)

type AuthHandler struct {
	*Deps
}

func NewAuthHandler(d *Deps) *AuthHandler {
	return &AuthHandler{Deps: d}
}

// LoginForm renders the login page. Signed-in users go straight to the dashboard.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.LoadIdentity(r, h.Sessions); ok {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	h.render(w, r, http.StatusOK, "login.html", map[string]interface{}{
		"Title": "Entrar - CRM",
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	session, err := h.Auth.SignIn(r.Context(), email, password)
	if err != nil {
		status := http.StatusUnauthorized
		msg := err.Error()
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			h.Logger.Error("sign in failed", "email", email, "error", err)
			status = http.StatusBadGateway
			msg = "Não foi possível entrar. Tente novamente."
		}
		h.render(w, r, status, "login.html", map[string]interface{}{
			"Title": "Entrar - CRM",
			"Error": msg,
			"Email": email,
		})
		return
	}

	if err := h.startSession(w, r, session); err != nil {
		h.serverError(w, "failed to start session", err)
		return
	}
	h.Config.Debugf("login ok for %s", email)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// startSession upserts the profile and stores the identity in the cookie.
func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, s *auth.Session) error {
	profile, err := h.Store.EnsureProfile(r.Context(), s.User.ID, s.User.Email, s.User.FullName)
	if err != nil {
		return err
	}
	return middleware.SaveIdentity(w, r, h.Sessions, middleware.Identity{
		UserID:      profile.ID,
		Email:       profile.Email,
		Name:        profile.DisplayName(),
		Role:        profile.Role,
		AccessToken: s.AccessToken,

		RefreshToken: s.RefreshToken,
		ExpiresAt:    s.ExpiresAt,
		CheckedAt:    time.Now(),
	})
}

func (h *AuthHandler) SignupForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "signup.html", map[string]interface{}{
		"Title": "Criar conta - CRM",
	})
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	fullName := strings.TrimSpace(r.FormValue("full_name"))
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	rerender := func(status int, msg string) {
		h.render(w, r, status, "signup.html", map[string]interface{}{
			"Title":    "Criar conta - CRM",
			"Error":    msg,
			"FullName": fullName,
			"Email":    email,
		})
	}

	if fullName == "" {
		rerender(http.StatusUnprocessableEntity, "Nome é obrigatório.")
		return
	}
	if password != r.FormValue("password_confirm") {
		rerender(http.StatusUnprocessableEntity, "As senhas não conferem.")
		return
	}

	session, err := h.Auth.SignUp(r.Context(), email, password, fullName)
	switch {
	case errors.Is(err, auth.ErrConfirmationRequired):
		h.success(w, r, "Conta criada", err.Error())
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	case errors.Is(err, auth.ErrWeakPassword), errors.Is(err, auth.ErrEmailTaken), errors.Is(err, auth.ErrInvalidCredentials):
		rerender(http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		h.Logger.Error("sign up failed", "email", email, "error", err)
		rerender(http.StatusBadGateway, "Não foi possível criar a conta. Tente novamente.")
		return
	}

	if err := h.startSession(w, r, session); err != nil {
		h.serverError(w, "failed to start session", err)
		return
	}
	h.success(w, r, "Bem-vindo!", "Sua conta foi criada.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if id, ok := middleware.LoadIdentity(r, h.Sessions); ok && id.AccessToken != "" {
		if err := h.Auth.SignOut(r.Context(), id.AccessToken); err != nil {
			h.Logger.Warn("sign out failed", "user_id", id.UserID, "error", err)
		}
	}
	if err := middleware.ClearIdentity(w, r, h.Sessions); err != nil {
		h.Logger.Error("failed to clear session", "error", err)
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

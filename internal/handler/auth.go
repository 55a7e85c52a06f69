package handler

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/mwhitby/alcove/internal/auth"
	"github.com/mwhitby/alcove/internal/middleware"
	"github.com/mwhitby/alcove/internal/store"
)

// User-facing messages for the error taxonomy. The three token failures
// share one message on purpose; only the logs distinguish them.
const (
	msgBadEmail   = "Please enter a valid email address."
	msgBadLink    = "That sign-in link is invalid or has expired. Please request a new one."
	msgMailFailed = "We couldn't send the email. Please check the mail configuration and try again."
	msgTryAgain   = "Something went wrong. Please try again."
)

type AuthHandler struct {
	authn     *auth.Authenticator
	userStore *store.UserStore
	templates *template.Template
	logger    *slog.Logger
}

func NewAuthHandler(authn *auth.Authenticator, us *store.UserStore, logger *slog.Logger) *AuthHandler {
	tmpl := template.Must(template.ParseGlob("web/templates/auth_*.html"))
	return &AuthHandler{
		authn:     authn,
		userStore: us,
		templates: tmpl,
		logger:    logger,
	}
}

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if auth.UserID(r.Context()) != 0 {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.templates.ExecuteTemplate(w, "auth_login.html", nil)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	emailAddr := r.FormValue("email")

	err := h.authn.RequestLogin(emailAddr)
	switch {
	case err == nil:
		// Uniform response whether or not an account exists
		h.templates.ExecuteTemplate(w, "auth_check_email.html", map[string]any{
			"Email": emailAddr,
		})
	case errors.Is(err, auth.ErrInvalidEmail):
		h.templates.ExecuteTemplate(w, "auth_login.html", map[string]any{
			"Email": emailAddr,
			"Error": msgBadEmail,
		})
	case errors.Is(err, auth.ErrMailDelivery):
		h.logger.Error("login mail delivery", "error", err)
		h.templates.ExecuteTemplate(w, "auth_login.html", map[string]any{
			"Email": emailAddr,
			"Error": msgMailFailed,
		})
	default:
		h.logger.Error("request login", "error", err)
		h.templates.ExecuteTemplate(w, "auth_login.html", map[string]any{
			"Email": emailAddr,
			"Error": msgTryAgain,
		})
	}
}

func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	sess := auth.SessionFromContext(r.Context())
	if sess == nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	_, redirect, err := h.authn.VerifyToken(sess, token)
	switch {
	case err == nil:
		http.Redirect(w, r, redirect, http.StatusSeeOther)
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenUsed),
		errors.Is(err, auth.ErrTokenExpired):
		h.logger.Warn("verify token rejected", "reason", err)
		h.templates.ExecuteTemplate(w, "auth_error.html", map[string]any{
			"Error": msgBadLink,
		})
	default:
		h.logger.Error("verify token", "error", err)
		h.templates.ExecuteTemplate(w, "auth_error.html", map[string]any{
			"Error": msgTryAgain,
		})
	}
}

// Logout destroys the session and clears the cookie. Always lands on the
// home page; logging out twice is fine.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFromContext(r.Context())
	if err := h.authn.Logout(sess); err != nil {
		h.logger.Error("logout", "error", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) AccountPage(w http.ResponseWriter, r *http.Request) {
	user, err := h.userStore.GetByID(auth.UserID(r.Context()))
	if err != nil || user == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	h.templates.ExecuteTemplate(w, "auth_account.html", map[string]any{
		"User": user,
	})
}

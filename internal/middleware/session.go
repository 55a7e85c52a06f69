package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/mwhitby/alcove/internal/auth"
	"github.com/mwhitby/alcove/internal/model"
	"github.com/mwhitby/alcove/internal/store"
)

const (
	SessionCookieName = "alcove_session"
	sessionCookieAge  = 7 * 24 * 60 * 60 // seconds, matches the store TTL
)

// LoadSession guarantees every routed request carries a session: it resolves
// the cookie, minting a fresh guest session when the cookie is absent or
// stale, and populates AuthContext with the session and any logged-in user.
func LoadSession(sessionStore *store.SessionStore, userStore *store.UserStore, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := time.Now()

			sess := resolveSession(r, sessionStore, now)
			if sess == nil {
				created, err := sessionStore.Create(now)
				if err != nil {
					logger.Error("create session", "error", err)
					http.Error(w, "Internal error", http.StatusInternalServerError)
					return
				}
				sess = created
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookieName,
					Value:    sess.Token,
					Path:     "/",
					MaxAge:   sessionCookieAge,
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
					Secure:   r.TLS != nil,
				})
			}

			ac := auth.AuthContext{Session: sess}
			if sess.UserID != nil {
				user, err := userStore.GetByID(*sess.UserID)
				if err != nil {
					logger.Error("load session user", "error", err)
				} else if user != nil {
					ac.UserID = user.ID
					ac.IsAdmin = user.IsAdmin
				}
			}

			next.ServeHTTP(w, r.WithContext(auth.WithAuth(r.Context(), ac)))
		})
	}
}

func resolveSession(r *http.Request, sessionStore *store.SessionStore, now time.Time) *model.Session {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	sess, err := sessionStore.GetByToken(cookie.Value, now)
	if err != nil || sess == nil {
		return nil
	}
	return sess
}

// RequireLogin gates pages behind authentication. It remembers the
// requested path on the session so a successful login can return there.
// HTMX-aware: returns an HX-Redirect header instead of a 303 for HTMX
// requests.
func RequireLogin(sessionStore *store.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac, ok := auth.FromContext(r.Context())
			if !ok || ac.UserID == 0 {
				if ok && ac.Session != nil && r.Method == http.MethodGet {
					sessionStore.SetReturnPath(ac.Session.ID, r.URL.RequestURI(), time.Now())
				}
				redirectToLogin(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin checks that the authenticated user has the admin flag.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsAdmin(r.Context()) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/login")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/bookbase/bookbase-admin/internal/middleware"
	"github.com/bookbase/bookbase-admin/internal/session"
)

type loginPage struct {
	Email string
}

// LoginForm renders the login page.
// GET /login
func (h *Handler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if session.FromContext(r.Context()) != nil {
		http.Redirect(w, r, "/books", http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, "login.html", pageData{Title: "Iniciar sessão", Data: loginPage{}})
}

// Login exchanges the submitted credentials for a session.
// POST /login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")
	password := r.PostFormValue("password")

	sess, err := h.auth.Login(r.Context(), email, password)
	if err != nil {
		h.logger.InfoContext(r.Context(), "login failed",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		h.render(w, r, errorStatus(err), "login.html", pageData{
			Title: "Iniciar sessão",
			Flash: errorFlash(loginErrorMessage(err)),
			Data:  loginPage{Email: email},
		})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		MaxAge:   int(time.Until(sess.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/books", http.StatusSeeOther)
}

// Logout deletes the session and clears the cookie.
// POST /logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if s := session.FromContext(r.Context()); s != nil {
		if err := h.auth.Logout(r.Context(), s.ID); err != nil {
			h.logger.WarnContext(r.Context(), "session delete failed",
				slog.String("error", err.Error()),
				slog.String("request_id", middleware.GetRequestID(r.Context())),
			)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Middleware is applied to groups of console routes.
type Middleware func(http.Handler) http.Handler

// RouteMiddleware configures Mount. Nil entries are skipped.
type RouteMiddleware struct {
	// RequireSession guards every page behind login.
	RequireSession Middleware
	// LoginThrottle limits login attempts.
	LoginThrottle Middleware
	// FormLimit bounds regular form bodies, UploadLimit the book form with
	// its cover.
	FormLimit   Middleware
	UploadLimit Middleware
}

// Mount registers the console pages on r.
func (h *Handler) Mount(r chi.Router, mw RouteMiddleware) {
	r.Handle("/static/*", Static())
	r.Get("/covers/{name}", h.Cover)

	r.Group(func(r chi.Router) {
		use(r, mw.FormLimit)
		r.Get("/", h.Home)
		r.Get("/login", h.LoginForm)
		r.With(orPass(mw.LoginThrottle)).Post("/login", h.Login)
	})

	r.Group(func(r chi.Router) {
		use(r, mw.RequireSession)

		r.With(orPass(mw.UploadLimit)).Post("/books", h.CreateBook)

		r.Group(func(r chi.Router) {
			use(r, mw.FormLimit)

			r.Post("/logout", h.Logout)

			r.Get("/books", h.ListBooks)
			r.Get("/books/new", h.NewBookForm)
			r.Post("/books/retry", h.RetryBooks)
			r.Get("/books/{id}/delete", h.ConfirmDeleteBook)
			r.Post("/books/{id}/delete", h.DeleteBook)

			r.Get("/loans", h.ListLoans)
			r.Get("/loans/new", h.NewLoanForm)
			r.Post("/loans", h.CreateLoan)
			r.Post("/loans/retry", h.RetryLoans)
			r.Get("/loans/{id}/return", h.ConfirmReturnLoan)
			r.Post("/loans/{id}/return", h.ReturnLoan)

			r.Get("/activity", h.Activity)
		})
	})

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)
}

func use(r chi.Router, mw Middleware) {
	if mw != nil {
		r.Use(mw)
	}
}

func orPass(mw Middleware) Middleware {
	if mw == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return mw
}

package server

import (
	"context"
	"net/http"

	"gorm.io/gorm"

	"github.com/simplifaq/simplifaq/internal/auth"
	"github.com/simplifaq/simplifaq/internal/handlers"
	"github.com/simplifaq/simplifaq/internal/httpx"
	"github.com/simplifaq/simplifaq/internal/mail"
	"github.com/simplifaq/simplifaq/internal/middleware"
	"github.com/simplifaq/simplifaq/internal/models"
	"github.com/simplifaq/simplifaq/internal/services"
)

// New constructs the root http.Handler with all routes and middlewares applied.
func New(db *gorm.DB, mailer mail.Sender) http.Handler {
	mux := http.NewServeMux()

	// Configure a user verifier so RequireAuth can ensure the user still exists.
	auth.SetUserVerifier(func(_ context.Context, uid uint) bool {
		var count int64
		if err := db.Model(&models.User{}).Where("id = ?", uid).Limit(1).Count(&count).Error; err != nil {
			return false
		}
		return count > 0
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSONError(w, http.StatusServiceUnavailable, "degraded", nil)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	authHandler := handlers.NewAuthHandler(db)
	authHandler.Register(mux)

	invSvc := services.NewInvoiceService(db)
	quoteSvc := services.NewQuoteService(db, invSvc)

	protect := func(h http.HandlerFunc) http.Handler {
		return auth.Middleware(auth.RequireAuth(h))
	}
	getPost := func(get, post http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				get(w, r)
			case http.MethodPost:
				post(w, r)
			default:
				w.Header().Set("Allow", "GET,POST")
				httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
			}
		}
	}
	postOnly := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				w.Header().Set("Allow", "POST")
				httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
				return
			}
			h(w, r)
		}
	}

	ch := handlers.NewClientHandler(db)
	mux.Handle("/clients", protect(getPost(ch.List, ch.Create)))
	mux.Handle("/clients/update", protect(postOnly(ch.Update)))
	mux.Handle("/clients/delete", protect(postOnly(ch.Delete)))

	ph := handlers.NewProductHandler(db)
	mux.Handle("/products", protect(getPost(ph.List, ph.Create)))
	mux.Handle("/products/update", protect(postOnly(ph.Update)))
	mux.Handle("/products/delete", protect(postOnly(ph.Delete)))

	ih := handlers.NewInvoiceHandler(db, invSvc, mailer)
	mux.Handle("/invoices", protect(getPost(ih.List, ih.Create)))
	mux.Handle("/invoices/duplicate", protect(postOnly(ih.Duplicate)))
	mux.Handle("/invoices/status", protect(postOnly(ih.UpdateStatus)))
	mux.Handle("/invoices/pdf", protect(ih.PDF))
	mux.Handle("/invoices/send", protect(postOnly(ih.Send)))

	qh := handlers.NewQuoteHandler(db, quoteSvc)
	mux.Handle("/quotes", protect(getPost(qh.List, qh.Create)))
	mux.Handle("/quotes/status", protect(postOnly(qh.UpdateStatus)))
	mux.Handle("/quotes/convert", protect(postOnly(qh.Convert)))

	payh := handlers.NewPaymentHandler(db, invSvc)
	mux.Handle("/payments", protect(getPost(payh.List, payh.Create)))

	sh := handlers.NewSettingsHandler(db)
	mux.Handle("/settings", protect(getPost(sh.Get, sh.Update)))

	return middleware.Logging(withRecover(mux))
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"centime/internal/services"
)

// Authenticator resolves a bearer token to the acting user's id.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

type Server struct {
	http.Server

	users        *services.UserService
	accounts     *services.AccountService
	categories   *services.CategoryService
	recipients   *services.RecipientService
	transactions *services.TransactionService
	statistics   *services.StatisticsService

	auth         Authenticator
	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// Deps bundles the services the server exposes.
type Deps struct {
	Users        *services.UserService
	Accounts     *services.AccountService
	Categories   *services.CategoryService
	Recipients   *services.RecipientService
	Transactions *services.TransactionService
	Statistics   *services.StatisticsService
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		users:        deps.Users,
		accounts:     deps.Accounts,
		categories:   deps.Categories,
		recipients:   deps.Recipients,
		transactions: deps.Transactions,
		statistics:   deps.Statistics,
		auth:         deps.Users,
		rateLimiter:  newRateLimiter(),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /auth/register", s.withMiddleware(s.handleRegister))
	mux.HandleFunc("POST /auth/login", s.withMiddleware(s.handleLogin))
	mux.HandleFunc("POST /auth/logout", s.withMiddleware(s.handleLogout))

	mux.HandleFunc("GET /accounts", s.authenticated(s.handleListAccounts))
	mux.HandleFunc("POST /accounts", s.authenticated(s.handleCreateAccount))
	mux.HandleFunc("GET /accounts/{id}", s.authenticated(s.handleGetAccount))
	mux.HandleFunc("PATCH /accounts/{id}", s.authenticated(s.handleUpdateAccount))
	mux.HandleFunc("DELETE /accounts/{id}", s.authenticated(s.handleDeleteAccount))

	mux.HandleFunc("GET /categories", s.authenticated(s.handleListCategories))
	mux.HandleFunc("POST /categories", s.authenticated(s.handleCreateCategory))
	mux.HandleFunc("GET /categories/{id}", s.authenticated(s.handleGetCategory))
	mux.HandleFunc("PATCH /categories/{id}", s.authenticated(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /categories/{id}", s.authenticated(s.handleDeleteCategory))

	mux.HandleFunc("GET /recipients", s.authenticated(s.handleListRecipients))
	mux.HandleFunc("POST /recipients", s.authenticated(s.handleCreateRecipient))
	mux.HandleFunc("GET /recipients/{id}", s.authenticated(s.handleGetRecipient))
	mux.HandleFunc("PATCH /recipients/{id}", s.authenticated(s.handleUpdateRecipient))
	mux.HandleFunc("DELETE /recipients/{id}", s.authenticated(s.handleDeleteRecipient))

	mux.HandleFunc("GET /transactions", s.authenticated(s.handleListTransactions))
	mux.HandleFunc("POST /transactions", s.authenticated(s.handleCreateTransaction))
	mux.HandleFunc("GET /transactions/{id}", s.authenticated(s.handleGetTransaction))
	mux.HandleFunc("PATCH /transactions/{id}", s.authenticated(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /transactions/{id}", s.authenticated(s.handleDeleteTransaction))

	mux.HandleFunc("GET /statistics/expenses-by-category", s.authenticated(s.handleExpensesByCategory))
	mux.HandleFunc("GET /statistics/incomes-by-category", s.authenticated(s.handleIncomesByCategory))
	mux.HandleFunc("GET /statistics/expenses-by-account", s.authenticated(s.handleExpensesByAccount))
	mux.HandleFunc("GET /statistics/monthly-balance", s.authenticated(s.handleMonthlyBalance))
	mux.HandleFunc("POST /statistics/expense-trends", s.authenticated(s.handleExpenseTrends))
	mux.HandleFunc("GET /statistics/annual-summary", s.authenticated(s.handleAnnualSummary))
	mux.HandleFunc("GET /statistics/breakdown/accounts/{id}", s.authenticated(s.handleAccountBreakdown))
	mux.HandleFunc("GET /statistics/breakdown/categories/{id}", s.authenticated(s.handleCategoryBreakdown))
	mux.HandleFunc("GET /statistics/breakdown/recipients/{id}", s.authenticated(s.handleRecipientBreakdown))

	return s
}

// Shutdown stops the rate limiter cleanup goroutine before shutting down the
// HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

type ctxKey int

const userIDKey ctxKey = iota

func userID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

// withMiddleware adds request id, structured request logging, security
// headers, and per-IP rate limiting on mutating methods.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		if mutating(r.Method) && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

// authenticated wraps withMiddleware and resolves the bearer token to a user
// id before the handler runs.
func (s *Server) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return s.withMiddleware(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeErrorMessage(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		id, err := s.auth.Authenticate(r.Context(), token)
		if err != nil {
			writeErrorMessage(w, http.StatusUnauthorized, "invalid or expired session")
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, id)
		next(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) > len(prefix) && h[:len(prefix)] == prefix {
		return h[len(prefix):]
	}
	return ""
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

type requestIDCtxKey struct{}

var requestIDKey requestIDCtxKey

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

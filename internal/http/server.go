package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"expenses/internal/auth"
	"expenses/internal/log"
	"expenses/internal/middleware/security"
	"expenses/internal/middleware/trace"
	"expenses/internal/services"
	"expenses/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// SessionCookie names the cookie carrying the session token.
const SessionCookie = "session"

type Server struct {
	http.Server
	svc    *services.TrackerService
	tokens *auth.TokenIssuer
	logger *log.Logger
	trace  *trace.Middleware
	now    func() time.Time

	shutdownOnce sync.Once
}

// NewServer wires the JSON API routes on a chi router.
func NewServer(addr string, svc *services.TrackerService, tokens *auth.TokenIssuer, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	s := &Server{
		svc:    svc,
		tokens: tokens,
		logger: logger.WithComponent(log.ComponentHTTP),
		now:    time.Now,
	}

	ips := security.NewClientIPResolver()
	s.trace = trace.NewMiddleware(logger, ips.ClientIP)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.trace.Middleware)
	r.Use(headers.Middleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("not found").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").Write(w)
	})

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", s.handleSignUp)
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(s.requireSession)

		r.Get("/account", s.handleAccount)
		r.Get("/categories", s.handleCategories)

		r.Get("/expenses", s.handleListExpenses)
		r.Post("/expenses", s.handleCreateExpense)
		r.Put("/expenses/{id}", s.handleUpdateExpense)
		r.Delete("/expenses/{id}", s.handleDeleteExpense)

		r.Get("/budgets/{month}", s.handleGetBudget)
		r.Put("/budgets/{month}", s.handleSetBudget)

		r.Get("/insights", s.handleInsights)
		r.Get("/export.csv", s.handleExport)
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.logger.Info("HTTP server shutting down", log.FieldOperation, log.OpShutdown,
			"requests_served", s.trace.TotalRequests())
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// requireSession resolves the session token and the filter query. Requests
// without a valid token get 401; an inverted date range gets 400.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		if token == "" {
			UnauthorizedError("Please log in.").Write(w)
			return
		}
		userID, username, err := s.tokens.Parse(token)
		if err != nil {
			log.FromContext(r.Context()).DebugContext(r.Context(), "Rejected session token",
				log.FieldErrorType, log.ErrorTypeAuth, log.FieldError, err)
			UnauthorizedError("Please log in.").Write(w)
			return
		}

		filter, err := session.ParseFilter(r.URL.Query(), s.now())
		if err != nil {
			BadRequestError("End date must not be before start date.").Write(w)
			return
		}

		sess := session.Session{UserID: userID, Username: username, Filter: filter}
		ctx := session.WithSession(r.Context(), sess)
		ctx = log.WithLogger(ctx, log.FromContext(ctx).With(log.FieldUserID, userID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Ready(r.Context()); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Readiness check failed",
			log.FieldErrorType, log.ErrorTypeDatabase, log.FieldError, err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

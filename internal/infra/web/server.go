package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	ports "loyalty-subscription-core/internal/domain/ports/usecase"
	"loyalty-subscription-core/internal/infra/logging"
	"loyalty-subscription-core/internal/infra/redis"
)

// Pinger is the health-check view of a storage backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// IssueLimit caps code issuance per subscriber over a fixed window.
type IssueLimit struct {
	Limit  int
	Window time.Duration
}

type Server struct {
	issuer    ports.CodeIssuer
	validator ports.CodeValidator
	redeemer  ports.CodeRedeemer
	history   ports.HistoryReader
	auth      *AuthManager
	limiter   *redis.RateLimiter // nil disables rate limiting
	limit     IssueLimit
	db        Pinger
	cache     Pinger
	timeout   time.Duration
	log       *zerolog.Logger
}

func NewServer(
	issuer ports.CodeIssuer,
	validator ports.CodeValidator,
	redeemer ports.CodeRedeemer,
	history ports.HistoryReader,
	auth *AuthManager,
	limiter *redis.RateLimiter,
	limit IssueLimit,
	db, cache Pinger,
	timeout time.Duration,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "web").Logger()
	return &Server{
		issuer:    issuer,
		validator: validator,
		redeemer:  redeemer,
		history:   history,
		auth:      auth,
		limiter:   limiter,
		limit:     limit,
		db:        db,
		cache:     cache,
		timeout:   timeout,
		log:       &l,
	}
}

// Routes builds the chi router for the public surface.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(traceContext)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.With(s.subscriberAuth).Post("/subscription-codes/generate", s.handleGenerateCode)

	r.Group(func(r chi.Router) {
		r.Use(s.operatorAuth)
		r.Post("/validate-subscription/check", s.handleCheck)
		r.Post("/validate-subscription", s.handleRedeem)
		r.Post("/validate-subscription/save-validation", s.handleSaveValidation)
		r.Get("/validate-subscription/save-validation", s.handleHistory)
	})

	return r
}

type ctxKey string

const (
	ctxOperator   ctxKey = "operator"
	ctxSubscriber ctxKey = "subscriber"
)

// traceContext lifts chi's request id into the logging context.
func traceContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reqID := middleware.GetReqID(r.Context()); reqID != "" {
			r = r.WithContext(logging.WithTraceID(r.Context(), reqID))
		}
		next.ServeHTTP(w, r)
	})
}

// operatorAuth requires a valid operator token and stashes the claims.
func (s *Server) operatorAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.auth.ParseOperator(r)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized", Kind: "unauthorized"})
			return
		}
		ctx := context.WithValue(r.Context(), ctxOperator, claims)
		ctx = logging.WithOperatorID(ctx, claims.OperatorID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// subscriberAuth requires a valid subscriber token.
func (s *Server) subscriberAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.auth.ParseSubscriber(r)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized", Kind: "unauthorized"})
			return
		}
		ctx := context.WithValue(r.Context(), ctxSubscriber, claims)
		ctx = logging.WithSubscriberID(ctx, claims.SubscriberID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func operatorFrom(ctx context.Context) *OperatorClaims {
	if v := ctx.Value(ctxOperator); v != nil {
		return v.(*OperatorClaims)
	}
	return nil
}

func subscriberFrom(ctx context.Context) *SubscriberClaims {
	if v := ctx.Value(ctxSubscriber); v != nil {
		return v.(*SubscriberClaims)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if s.db != nil {
		if err := s.db.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "down", "component": "database"})
			return
		}
	}
	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "down", "component": "cache"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

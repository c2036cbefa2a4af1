package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/osse101/MallLoyalty_Go/internal/database"
	"github.com/osse101/MallLoyalty_Go/internal/handler"
	"github.com/osse101/MallLoyalty_Go/internal/logger"
	"github.com/osse101/MallLoyalty_Go/internal/loyalty"
	"github.com/osse101/MallLoyalty_Go/internal/membership"
	"github.com/osse101/MallLoyalty_Go/internal/metrics"
	"github.com/osse101/MallLoyalty_Go/internal/points"
)

// Options configures the HTTP surface
type Options struct {
	Port           int
	APIKey         string
	AdminAPIKey    string
	TrustedProxies []string
	Version        string
	Detector       DetectorConfig
}

// Services are the loyalty services exposed over HTTP
type Services struct {
	DB         database.Pool
	Points     points.Service
	Membership membership.Service
	Loyalty    loyalty.Service
	Benefits   handler.BenefitsEngine
}

type Server struct {
	httpServer *http.Server
	router     chi.Router
}

// NewServer builds the router and wraps it in an http.Server
func NewServer(opts Options, svc Services) *Server {
	r := chi.NewRouter()

	// Chi middleware executes in the order defined, outermost first
	detector := NewSuspiciousActivityDetector(opts.Detector)

	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(SecurityHeadersMiddleware())
	r.Use(RateLimitMiddleware(opts.TrustedProxies, detector))
	r.Use(AuthMiddleware(opts.APIKey, opts.TrustedProxies, detector))
	r.Use(RequestSizeLimitMiddleware(MaxRequestBodyBytes))
	r.Use(metrics.Middleware)
	r.Use(loggingMiddleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, ErrMsgNotFound)
	})

	// Unversioned operational routes
	r.Get("/healthz", handler.HandleHealthz())
	r.Get("/readyz", handler.HandleReadyz(svc.DB))
	r.Get("/version", handler.HandleVersion(opts.Version))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/points", func(r chi.Router) {
			r.Get("/summary", handler.HandleGetPointsSummary(svc.Points))
			r.Get("/transactions", handler.HandleGetPointsTransactions(svc.Points))
			r.Post("/redemption/validate", handler.HandleValidateRedemption(svc.Loyalty))
			r.Post("/redeem", handler.HandleRedeemPoints(svc.Loyalty))
		})

		r.Route("/membership", func(r chi.Router) {
			r.Get("/status", handler.HandleGetMembershipStatus(svc.Membership))
			r.Get("/history", handler.HandleGetMembershipHistory(svc.Membership))
			r.Get("/tiers", handler.HandleListTiers(svc.Membership.Catalog()))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/benefits", handler.HandleApplyBenefits(svc.Benefits))
			r.Post("/complete", handler.HandleCompleteOrder(svc.Loyalty))
			r.Post("/price", handler.HandlePriceOrder(svc.Benefits))
		})

		r.Post("/users/register", handler.HandleRegisterUser(svc.Loyalty))

		r.Route("/admin", func(r chi.Router) {
			r.Use(AdminMiddleware(opts.AdminAPIKey, opts.TrustedProxies, detector))
			r.Post("/membership/override", handler.HandleAdminOverrideTier(svc.Membership))
			r.Post("/points/adjust", handler.HandleAdminAdjustPoints(svc.Loyalty))
			r.Post("/points/expire", handler.HandleAdminExpirePoints(svc.Points))
		})
	})

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", opts.Port),
			Handler:           r,
			ReadHeaderTimeout: ReadHeaderTimeout,
		},
		router: r,
	}
}

// Handler returns the root handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	if !rw.written {
		rw.statusCode = statusCode
		rw.written = true
		rw.ResponseWriter.WriteHeader(statusCode)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// requestIDMiddleware tags the context and response with a request id,
// reusing a well-formed inbound X-Request-ID
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(HeaderRequestID)
		if !validRequestID(requestID) {
			requestID = logger.GenerateRequestID()
		}
		w.Header().Set(HeaderRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), requestID)))
	})
}

func validRequestID(id string) bool {
	if id == "" || len(id) > MaxRequestIDLength {
		return false
	}
	for _, c := range id {
		if !(c == '-' || c == '_' || c == '.' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
			return false
		}
	}
	return true
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.FromContext(r.Context()).Error(LogMsgPanicRecovered,
					"panic", rec,
					"path", r.URL.Path,
					"stack", string(debug.Stack()))
				writeError(w, http.StatusInternalServerError, ErrMsgInternal)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		log := logger.FromContext(r.Context())

		log.Info(LogMsgRequestStarted,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"content_length", r.ContentLength,
			"user_agent", r.UserAgent())

		sanitizedHeaders := make(http.Header, len(r.Header))
		for k, v := range r.Header {
			if strings.EqualFold(k, HeaderAPIKey) || strings.EqualFold(k, HeaderAdminKey) || strings.EqualFold(k, HeaderAuthorization) {
				sanitizedHeaders[k] = []string{RedactedValue}
			} else {
				sanitizedHeaders[k] = v
			}
		}
		log.Debug(LogMsgRequestHeaders, "headers", sanitizedHeaders)

		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		log.Info(LogMsgRequestCompleted,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds())
	})
}

// Start listens until Stop is called; it returns http.ErrServerClosed then
func (s *Server) Start() error {
	slog.Default().Info(LogMsgServerStarting, "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop drains in-flight requests until ctx expires
func (s *Server) Stop(ctx context.Context) error {
	slog.Default().Info(LogMsgServerStopping)
	return s.httpServer.Shutdown(ctx)
}

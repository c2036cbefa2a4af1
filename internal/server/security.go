package server

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/osse101/MallLoyalty_Go/internal/logger"
)

// writeError writes the same {"error": ...} body the handlers use
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func isPublicPath(path string) bool {
	for _, p := range PublicPaths {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

func keyMatches(provided, want string) bool {
	return subtle.ConstantTimeCompare([]byte(provided), []byte(want)) == 1
}

// AuthMiddleware requires X-API-Key on every non-public path
func AuthMiddleware(apiKey string, trustedProxies []string, detector *SuspiciousActivityDetector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			providedKey := r.Header.Get(HeaderAPIKey)
			if !keyMatches(providedKey, apiKey) {
				ip := extractIP(r, trustedProxies)
				detector.RecordFailedAuth(ip)

				logger.FromContext(r.Context()).Warn(LogMsgAuthFailed,
					"path", r.URL.Path,
					"has_key", providedKey != "",
					"ip", ip)

				writeError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// AdminMiddleware additionally requires X-Admin-Key on admin routes
func AdminMiddleware(adminKey string, trustedProxies []string, detector *SuspiciousActivityDetector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			providedKey := r.Header.Get(HeaderAdminKey)
			if adminKey == "" || !keyMatches(providedKey, adminKey) {
				ip := extractIP(r, trustedProxies)
				detector.RecordFailedAuth(ip)
				logger.FromContext(r.Context()).Warn(LogMsgAdminAuthFailed, "path", r.URL.Path, "ip", ip)
				writeError(w, http.StatusForbidden, ErrMsgForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestSizeLimitMiddleware limits request body size
func RequestSizeLimitMiddleware(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// DetectorConfig sets the per-IP thresholds of a SuspiciousActivityDetector
type DetectorConfig struct {
	Window          time.Duration
	RequestLimit    int
	FailedAuthAlert int
}

// DefaultDetectorConfig allows 1000 requests per IP in a 5 minute window
// and alerts from the fifth failed authentication
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		Window:          DefaultRateWindow,
		RequestLimit:    DefaultRequestLimit,
		FailedAuthAlert: DefaultFailedAuthAlert,
	}
}

// SuspiciousActivityDetector counts requests and failed authentications per
// IP over a fixed window
type SuspiciousActivityDetector struct {
	cfg DetectorConfig
	now func() time.Time

	mu               sync.Mutex
	failedAuthByIP   map[string]int
	requestCountByIP map[string]int
	windowStart      time.Time
}

// NewSuspiciousActivityDetector creates a detector. Zero fields in cfg take
// their defaults.
func NewSuspiciousActivityDetector(cfg DetectorConfig) *SuspiciousActivityDetector {
	def := DefaultDetectorConfig()
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.RequestLimit <= 0 {
		cfg.RequestLimit = def.RequestLimit
	}
	if cfg.FailedAuthAlert <= 0 {
		cfg.FailedAuthAlert = def.FailedAuthAlert
	}
	d := &SuspiciousActivityDetector{
		cfg:              cfg,
		now:              time.Now,
		failedAuthByIP:   make(map[string]int),
		requestCountByIP: make(map[string]int),
	}
	d.windowStart = d.now()
	return d
}

// RecordFailedAuth records a failed authentication attempt
func (s *SuspiciousActivityDetector) RecordFailedAuth(ip string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetCountsIfNeeded()
	s.failedAuthByIP[ip]++

	if s.failedAuthByIP[ip] >= s.cfg.FailedAuthAlert {
		slog.Warn(SecurityAlertFailedAuth, "ip", ip, "count", s.failedAuthByIP[ip])
	}
}

// RecordRequest counts a request and reports whether it is within the limit
func (s *SuspiciousActivityDetector) RecordRequest(ip string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetCountsIfNeeded()
	s.requestCountByIP[ip]++

	count := s.requestCountByIP[ip]
	if count > s.cfg.RequestLimit {
		// Log every 100th rejection
		if count%100 == 0 {
			slog.Warn(SecurityAlertHighRate, "ip", ip, "count_in_window", count)
		}
		return false
	}
	return true
}

// resetCountsIfNeeded starts a new window once the current one has passed.
// Caller must hold the mutex.
func (s *SuspiciousActivityDetector) resetCountsIfNeeded() {
	now := s.now()
	if now.Sub(s.windowStart) > s.cfg.Window {
		s.requestCountByIP = make(map[string]int)
		s.failedAuthByIP = make(map[string]int)
		s.windowStart = now
	}
}

// RateLimitMiddleware rejects clients that exceed the detector's request limit
func RateLimitMiddleware(trustedProxies []string, detector *SuspiciousActivityDetector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !detector.RecordRequest(extractIP(r, trustedProxies)) {
				writeError(w, http.StatusTooManyRequests, ErrMsgTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractIP returns the client address. X-Forwarded-For is honoured only
// when the direct peer is a trusted proxy, and then only its last hop.
func extractIP(r *http.Request, trustedProxies []string) string {
	remoteIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		remoteIP = r.RemoteAddr
	}

	for _, proxy := range trustedProxies {
		if proxy != remoteIP {
			continue
		}
		if forwarded := r.Header.Get(HeaderForwardedFor); forwarded != "" {
			ips := strings.Split(forwarded, ",")
			return strings.TrimSpace(ips[len(ips)-1])
		}
		break
	}

	return remoteIP
}

// SecurityHeadersMiddleware adds security headers to responses
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set(HeaderContentType, HeaderValueNoSniff)
			h.Set(HeaderFrameOptions, HeaderValueDeny)
			h.Set(HeaderReferrerPolicy, HeaderValueNoReferrer)
			h.Set(HeaderCacheControl, HeaderValueNoStore)
			next.ServeHTTP(w, r)
		})
	}
}

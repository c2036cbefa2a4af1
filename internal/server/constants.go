package server

import "time"

// HTTP error messages for middleware responses
const (
	ErrMsgUnauthorized    = "Unauthorized"
	ErrMsgForbidden       = "Forbidden"
	ErrMsgTooManyRequests = "Too Many Requests"
	ErrMsgNotFound        = "Not Found"
	ErrMsgInternal        = "Something went wrong"
)

// Security alert message templates
const (
	SecurityAlertFailedAuth = "SECURITY ALERT: repeated failed authentication"
	SecurityAlertHighRate   = "SECURITY ALERT: blocking high request rate"
)

// Log messages for server lifecycle and request handling
const (
	LogMsgServerStarting   = "Server starting"
	LogMsgServerStopping   = "Server stopping"
	LogMsgRequestStarted   = "Request started"
	LogMsgRequestCompleted = "Request completed"
	LogMsgRequestHeaders   = "Request headers"
	LogMsgAuthFailed       = "Authentication failed"
	LogMsgAdminAuthFailed  = "Admin authentication failed"
	LogMsgPanicRecovered   = "Recovered from handler panic"
)

// HTTP header names
const (
	HeaderAPIKey         = "X-API-Key"
	HeaderAdminKey       = "X-Admin-Key"
	HeaderAuthorization  = "Authorization"
	HeaderForwardedFor   = "X-Forwarded-For"
	HeaderRequestID      = "X-Request-ID"
	HeaderContentType    = "X-Content-Type-Options"
	HeaderFrameOptions   = "X-Frame-Options"
	HeaderReferrerPolicy = "Referrer-Policy"
	HeaderCacheControl   = "Cache-Control"
)

// Security header values
const (
	HeaderValueNoSniff    = "nosniff"
	HeaderValueDeny       = "DENY"
	HeaderValueNoReferrer = "no-referrer"
	HeaderValueNoStore    = "no-store"
)

// Server limits
const (
	MaxRequestBodyBytes    = 1 << 20
	MaxRequestIDLength     = 64
	ReadHeaderTimeout      = 5 * time.Second
	DefaultRateWindow      = 5 * time.Minute
	DefaultRequestLimit    = 1000
	DefaultFailedAuthAlert = 5
)

// PublicPaths bypass API key authentication
var PublicPaths = []string{
	"/healthz",
	"/readyz",
	"/metrics",
	"/version",
}

// RedactedValue replaces secret header values in logs
const RedactedValue = "[REDACTED]"

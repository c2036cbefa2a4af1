package logger

// Accepted LOG_LEVEL values; "warning" is an alias of "warn"
const (
	LogLevelDebug   = "debug"
	LogLevelInfo    = "info"
	LogLevelWarn    = "warn"
	LogLevelWarning = "warning"
	LogLevelError   = "error"
)

// Accepted LOG_FORMAT values
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

const (
	DefaultServiceName = "mall-loyalty"
	DefaultVersion     = "dev"
	ProductionVersion  = "1.0.0"

	EnvironmentDev        = "dev"
	EnvironmentProduction = "prod"
)

// Attribute keys attached to every record carrying request scope
const (
	AttrKeyService     = "service"
	AttrKeyVersion     = "version"
	AttrKeyEnvironment = "environment"
	AttrKeyRequestID   = "request_id"
	AttrKeyUserID      = "user_id"
)

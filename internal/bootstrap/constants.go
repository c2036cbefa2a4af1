package bootstrap

import "time"

// =============================================================================
// File System Permissions
// =============================================================================

const (
	// DirPermission is the standard permission for creating directories
	DirPermission = 0755

	// LogFilePermission is the permission for log files
	LogFilePermission = 0644
)

// =============================================================================
// Logger Configuration
// =============================================================================

const (
	// LogFileTimestampFormat is the timestamp format for log filenames (YYYY-MM-DD_HH-MM-SS)
	LogFileTimestampFormat = "2006-01-02_15-04-05"

	// LogFileNamePattern is the format string for log filenames
	LogFileNamePattern = "session_%s.log"

	// LogFileExtension is the file extension for log files
	LogFileExtension = ".log"

	// LogFileRetentionCount is the number of session logs kept, including the new one
	LogFileRetentionCount = 10
)

// Log messages for logger initialization
const (
	LogMsgLoggingInitialized  = "Logging initialized"
	LogMsgStartingService     = "Starting loyalty service"
	LogMsgConfigurationLoaded = "Configuration loaded"
	LogMsgFailedDeleteOldLog  = "Failed to delete old log file"
)

// =============================================================================
// Event System Configuration
// =============================================================================

const (
	// EventDefaultMaxRetries is the number of retry attempts for failed event publishing
	EventDefaultMaxRetries = 5

	// EventDefaultRetryDelay is the base delay between retry attempts (exponential backoff)
	EventDefaultRetryDelay = 2 * time.Second
)

// Log messages for event system initialization
const (
	LogMsgEventSystemInitialized         = "Event system initialized"
	ErrMsgFailedCreateDeadLetterDir      = "failed to create dead-letter directory"
	ErrMsgFailedCreateResilientPublisher = "failed to create resilient publisher"
)

// =============================================================================
// Config Sync Messages
// =============================================================================

const (
	LogMsgSyncingRules = "Syncing points rules from JSON config..."
	LogMsgRulesSynced  = "Points rules synced successfully"

	ErrMsgFailedLoadCatalog = "failed to load tier catalog"
	ErrMsgFailedLoadRules   = "failed to load points rules config"
	ErrMsgFailedSyncRules   = "failed to sync points rules to database"
)

// =============================================================================
// Event Handler Configuration
// =============================================================================

const (
	LogMsgMetricsCollectorRegistered = "Metrics collector registered"
	LogMsgTierNotifierRegistered     = "Tier change notifier registered"
)

// =============================================================================
// Expiry Sweep
// =============================================================================

const (
	// ExpiryWorkers is the size of the background worker pool
	ExpiryWorkers = 1

	// ExpiryQueueSize bounds pending sweeps; a full queue skips the tick
	ExpiryQueueSize = 1

	// ExpiryJobTimeout caps a single sweep run
	ExpiryJobTimeout = 30 * time.Minute

	JobNameExpirySweep = "points_expiry_sweep"

	LogMsgExpiryScheduled = "Points expiry sweep scheduled"
)

// =============================================================================
// Shutdown Messages
// =============================================================================

const (
	LogMsgShuttingDownServer         = "Shutting down server..."
	LogMsgShuttingDownWorkers        = "Stopping background jobs..."
	LogMsgShuttingDownEventPublisher = "Shutting down event publisher..."
	LogMsgServerStopped              = "Server stopped"
	LogMsgServerForcedShutdown       = "Server forced to shutdown"
	LogMsgResilientPublisherFailed   = "Resilient publisher shutdown failed"
)

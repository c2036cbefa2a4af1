package database

import "time"

// Connection pool settings
const (
	// DefaultMinConnections is the minimum number of connections kept open
	DefaultMinConnections int32 = 2
	// ConnectTimeout bounds pool creation and the first ping
	ConnectTimeout = 10 * time.Second
	// ReadyTimeout bounds the readiness check ping
	ReadyTimeout = 2 * time.Second
)

// Error Messages - Database Operations
const (
	ErrMsgFailedToParseConnString = "failed to parse connection string"
	ErrMsgFailedToCreatePool      = "failed to create connection pool"
	ErrMsgFailedToPingDatabase    = "failed to ping database"
)

// Log Messages
const (
	LogMsgConnected = "Connected to loyalty database"
)

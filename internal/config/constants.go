package config

import "time"

// Configuration file paths
const (
	ConfigPathTiers = "configs/membership/tiers.json"
	ConfigPathRules = "configs/points/rules.json"
)

// Defaults
const (
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"
	DefaultEnvironment = "dev"
	DefaultServiceName = "mall-loyalty"
	DefaultDBName      = "mall_loyalty"

	DefaultDBMaxConns        = 20
	DefaultDBMaxConnIdleTime = 5 * time.Minute
	DefaultDBMaxConnLifetime = 30 * time.Minute

	DefaultPointsRetentionDays = 365
	DefaultExpirySweepInterval = time.Duration(0)
	DefaultExpirySweepAt       = "03:00"
	DefaultShippingCost        = "10.00"
	DefaultDeadLetterPath      = "logs/events_deadletter.jsonl"
)

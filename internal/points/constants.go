package points

import "time"

// Config file locations
const (
	ConfigPathRules = "configs/points/rules.json"
	SchemaPathRules = "configs/schemas/rules.schema.json"
)

// Rule cache settings
const (
	RulesCacheSize = 32
	RulesCacheTTL  = 5 * time.Minute
)

// Transaction listing limits
const (
	DefaultTransactionLimit = 50
	MaxTransactionLimit     = 200
	SummaryRecentLimit      = 10
)

// Reference prefixes identify the business event behind a ledger entry
const (
	RefPrefixExpiration = "exp_"
)

// ExpirationDateLayout formats the earned date in expiration descriptions
const ExpirationDateLayout = "2006-01-02"

// Description templates
const (
	DescExpirationFormat = "Points expired from %s"
)

// Log messages
const (
	LogMsgPointsCredited     = "Points credited"
	LogMsgPointsDebited      = "Points debited"
	LogMsgPointsExpired      = "Points expired"
	LogMsgLotsShort          = "Spendable lots do not cover available balance"
	LogMsgBalanceBelowExpiry = "Available balance lower than expiring lot, clamping to zero"
	LogMsgSweepStarted       = "Expiry sweep started"
	LogMsgSweepCompleted     = "Expiry sweep completed"
	LogMsgSweepAccountFailed = "Expiry sweep failed for account"
	LogMsgPublishFailed      = "Failed to publish points event"
	LogMsgRulesSynced        = "Points rules synced"
	LogMsgRuleCacheMiss      = "Points rule cache miss"
	LogMsgRulesFileLoaded    = "Points rules loaded from file"
)

package membership

// Tier change reasons
const (
	ReasonAccountCreated        = "Account created"
	ReasonSpendingFormat        = "Spending threshold reached: $%s"
	DefaultManualOverrideReason = "Manual override"
)

// History limits
const (
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 100
)

// Log messages
const (
	LogMsgMembershipCreated = "Membership created"
	LogMsgMembershipExists  = "Membership already exists"
	LogMsgTierChanged       = "Membership tier changed"
	LogMsgSpendingApplied   = "Spending applied"
	LogMsgManualOverride    = "Membership tier overridden"
	LogMsgNoMembership      = "No membership for user"
	LogMsgPublishFailed     = "Failed to publish tier change"
	LogMsgUpgradeNotice     = "Membership upgrade notification"
	LogMsgDowngradeNotice   = "Membership downgrade notification"
)

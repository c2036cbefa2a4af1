package tier

import "github.com/shopspring/decimal"

// SpendingGranularity is the largest allowed gap between one tier's
// inclusive maximum and the next tier's minimum
var SpendingGranularity = decimal.New(1, -2)

// Config file locations
const (
	ConfigPathTiers = "configs/membership/tiers.json"
	SchemaPathTiers = "configs/schemas/tiers.schema.json"
)

// Log messages
const (
	LogMsgTierFallback     = "Spending below every tier minimum, using lowest tier"
	LogMsgCatalogLoaded    = "Tier catalog loaded"
	LogMsgCatalogDefaulted = "Tier config not found, using built-in tiers"
)

package benefits

// Defaults for shipping handling
const (
	DefaultShippingCost    = "10.00"
	DefaultShippingInTotal = true
)

// Discount descriptions
const (
	DescTierDiscountFormat = "%s member discount (%s%%)"
	DescFreeShipping       = "Free shipping"
	DescEarlyAccess        = "Early access to new products"
)

// Detail keys stored with each discount
const (
	DetailTier            = "tier"
	DetailRate            = "rate"
	DetailBenefit         = "benefit"
	DetailShippingInTotal = "shipping_in_total"
	DetailMinOrder        = "min_order"
)

// Log messages
const (
	LogMsgNoMembership       = "No membership, skipping order benefits"
	LogMsgLookupFailed       = "Membership lookup failed, skipping order benefits"
	LogMsgBenefitsApplied    = "Order benefits applied"
	LogMsgAlreadyApplied     = "Order benefits already applied"
	LogMsgPublishFailed      = "Failed to publish discount event"
	LogMsgTierRequired       = "Member-exclusive product above purchaser tier"
	LogMsgPricingLookupError = "Membership lookup failed, pricing without membership"
)

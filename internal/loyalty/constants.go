package loyalty

// Reference prefixes for ledger entries written by the loyalty workflows
const (
	RefPrefixRegistration  = "reg_"
	RefPrefixOrder         = "order_"
	RefPrefixFirstPurchase = "first_purchase_"
	RefPrefixReview        = "review_"
	RefPrefixReferral      = "referral_"
	RefPrefixBirthday      = "birthday_"
	RefPrefixDiscount      = "discount_"
	RefPrefixSpending      = "spending_"
)

// Completion step names
const (
	StepMembershipLookup = "membership_lookup"
	StepPurchasePoints   = "purchase_points"
	StepFirstPurchase    = "first_purchase_bonus"
	StepSpendingUpdate   = "spending_update"
)

// Ledger descriptions
const (
	DescPurchaseFormat  = "Purchase points ($%s x %s)"
	DescFirstPurchase   = "First purchase bonus"
	DescRegistration    = "Registration welcome bonus"
	DescReview          = "Product review points"
	DescReferral        = "Referral bonus"
	DescBirthday        = "Birthday bonus"
	DescRedeemedFormat  = "Redeemed for $%s discount"
	DescRefundFormat    = "Refund of points redeemed for order %d"
	DescDiscountFormat  = "Points redemption (%d points)"
	DefaultAdjustReason = "Manual adjustment"
)

// Redemption check messages
const (
	MsgInvalidAmount      = "Points amount must be positive"
	MsgMinimumFormat      = "Minimum redemption is %d points"
	MsgInsufficientFormat = "Insufficient points. Available: %d"
	MsgMaximumFormat      = "Maximum redeemable points for this order: %d"
)

// Log messages
const (
	LogMsgOrderCompleted     = "Order completion processed"
	LogMsgAlreadyAwarded     = "Points already awarded for reference"
	LogMsgSpendingCounted    = "Order spending already counted"
	LogMsgStepFailed         = "Order completion step failed"
	LogMsgNoRule             = "No active points rule"
	LogMsgUserRegistered     = "User registration processed"
	LogMsgPointsRedeemed     = "Points redeemed for order"
	LogMsgRedemptionRefunded = "Points redemption refunded"
	LogMsgCompensating       = "Order discount failed, refunding redeemed points"
	LogMsgCompensationFailed = "Failed to refund redeemed points"
	LogMsgPointsAdjusted     = "Points adjusted"
)

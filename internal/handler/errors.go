package handler

// Generic HTTP error messages for client responses.
// These messages do not expose internal error details.
// Both handlers and tests should reference these constants to maintain consistency.
const (
	// HTTP status messages
	ErrMsgInvalidRequest        = "Invalid request body"
	ErrMsgInvalidRequestSummary = "Invalid request"

	// Query parameter error messages
	ErrMsgMissingQueryParam = "Missing %s query parameter"
	ErrMsgInvalidLimit      = "Invalid limit parameter"

	// Points operation error messages
	ErrMsgGetSummaryFailed      = "Failed to retrieve points summary"
	ErrMsgGetTransactionsFailed = "Failed to retrieve points transactions"
	ErrMsgValidateRedeemFailed  = "Failed to validate redemption"
	ErrMsgRedeemFailed          = "Failed to redeem points"

	// Membership operation error messages
	ErrMsgGetStatusFailed  = "Failed to retrieve membership status"
	ErrMsgGetHistoryFailed = "Failed to retrieve membership history"

	// Order operation error messages
	ErrMsgApplyBenefitsFailed = "Failed to apply membership benefits"
	ErrMsgCompleteOrderFailed = "Failed to complete order"
	ErrMsgPriceOrderFailed    = "Failed to price order"

	// User management error messages
	ErrMsgRegisterUserFailed = "Failed to register user"

	// Admin error messages
	ErrMsgOverrideFailed     = "Failed to override membership tier"
	ErrMsgAdjustPointsFailed = "Failed to adjust points"
	ErrMsgExpirePointsFailed = "Failed to expire points"
)

// Success messages for API responses
const (
	MsgUserRegisteredSuccess = "User registered successfully"
	MsgTierOverriddenSuccess = "Membership tier updated"
	MsgPointsAdjustedSuccess = "Points adjusted"
	MsgPointsExpiredSuccess  = "Expired points swept"
	MsgOrderCompletedSuccess = "Order completion processed"
	MsgOrderCompletedPartial = "Order completion processed with errors"
)

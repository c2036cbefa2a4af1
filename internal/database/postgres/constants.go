package postgres

// PostgreSQL Error Codes
const (
	// PgErrorCodeUniqueViolation is the PostgreSQL error code for unique constraint violations
	PgErrorCodeUniqueViolation = "23505"
)

// Error Messages - Transaction Operations
const (
	ErrMsgFailedToBeginTransaction  = "failed to begin transaction"
	ErrMsgFailedToCommitTransaction = "failed to commit transaction"
)

// Error Messages - Points Operations
const (
	ErrMsgFailedToGetPointsAccount     = "failed to get points account"
	ErrMsgFailedToCreatePointsAccount  = "failed to create points account"
	ErrMsgFailedToUpdatePointsAccount  = "failed to update points account"
	ErrMsgFailedToInsertTransaction    = "failed to insert points transaction"
	ErrMsgFailedToQueryTransactions    = "failed to query points transactions"
	ErrMsgFailedToCheckReference       = "failed to check transaction reference"
	ErrMsgFailedToInsertLot            = "failed to insert points lot"
	ErrMsgFailedToUpdateLot            = "failed to update points lot"
	ErrMsgFailedToQueryLots            = "failed to query points lots"
	ErrMsgFailedToSumExpiring          = "failed to sum expiring points"
	ErrMsgFailedToQueryExpiredAccounts = "failed to query accounts with expired lots"
	ErrMsgFailedToGetRule              = "failed to get points rule"
	ErrMsgFailedToQueryRules           = "failed to query points rules"
	ErrMsgFailedToUpsertRule           = "failed to upsert points rule"
)

// Error Messages - Membership Operations
const (
	ErrMsgFailedToGetMembership      = "failed to get membership"
	ErrMsgFailedToInsertMembership   = "failed to insert membership"
	ErrMsgFailedToUpdateMembership   = "failed to update membership"
	ErrMsgFailedToInsertTierChange   = "failed to insert tier change"
	ErrMsgFailedToQueryTierChanges   = "failed to query tier changes"
	ErrMsgFailedToInsertSpending     = "failed to insert spending event"
	ErrMsgFailedToParseDecimalColumn = "failed to parse decimal column"
)

// Error Messages - Order Operations
const (
	ErrMsgFailedToGetOrder          = "failed to get order"
	ErrMsgFailedToUpdateOrderAmount = "failed to update order amount"
	ErrMsgFailedToInsertDiscount    = "failed to insert order discount"
	ErrMsgFailedToQueryDiscounts    = "failed to query order discounts"
	ErrMsgFailedToMarshalDetails    = "failed to marshal discount details"
	ErrMsgFailedToUnmarshalDetails  = "failed to unmarshal discount details"
)

package domain

import "errors"

// Error message string constants - single source of truth for error messages
// Use these in assert.Contains() checks when testing error messages
const (
	// Points errors
	ErrMsgInvalidPointsAmount    = "points amount must be positive"
	ErrMsgInsufficientPoints     = "insufficient points"
	ErrMsgBelowMinimumRedemption = "below minimum redemption"
	ErrMsgExceedsMaxRedeemable   = "exceeds maximum redeemable points"
	ErrMsgDuplicateReference     = "points transaction already recorded for reference"
	ErrMsgAccountNotFound        = "points account not found"
	ErrMsgRuleNotFound           = "points rule not found"

	// Membership errors
	ErrMsgNoMembership          = "user has no membership"
	ErrMsgTierNotFound          = "tier not found"
	ErrMsgTierRequired          = "membership tier too low"
	ErrMsgInvalidSpendingDelta  = "spending delta must be a non-negative amount in cents"
	ErrMsgSpendingRecorded      = "order spending already counted"
	ErrMsgEmptyCatalog          = "tier catalog is empty"
	ErrMsgInvalidTierDefinition = "invalid tier definition"

	// Order errors
	ErrMsgOrderNotFound      = "order not found"
	ErrMsgBenefitsApplied    = "membership benefits already applied to order"
	ErrMsgRedemptionNotFound = "no points redemption recorded for order"

	// Database/System errors
	ErrMsgTxClosed       = "tx is closed"
	ErrMsgDatabaseError  = "database error"
	ErrMsgRollbackFailed = "failed to rollback transaction"

	// Input errors
	ErrMsgInvalidInput = "invalid input"
)

// Common domain errors
// Wrap these errors with fmt.Errorf("%w: %s", domain.ErrXxx, details) for additional context.
var (
	// Points errors
	ErrInvalidPointsAmount    = errors.New(ErrMsgInvalidPointsAmount)
	ErrInsufficientPoints     = errors.New(ErrMsgInsufficientPoints)
	ErrBelowMinimumRedemption = errors.New(ErrMsgBelowMinimumRedemption)
	ErrExceedsMaxRedeemable   = errors.New(ErrMsgExceedsMaxRedeemable)
	ErrDuplicateReference     = errors.New(ErrMsgDuplicateReference)
	ErrAccountNotFound        = errors.New(ErrMsgAccountNotFound)
	ErrRuleNotFound           = errors.New(ErrMsgRuleNotFound)

	// Membership errors
	ErrNoMembership          = errors.New(ErrMsgNoMembership)
	ErrTierNotFound          = errors.New(ErrMsgTierNotFound)
	ErrTierRequired          = errors.New(ErrMsgTierRequired)
	ErrInvalidSpendingDelta  = errors.New(ErrMsgInvalidSpendingDelta)
	ErrSpendingRecorded      = errors.New(ErrMsgSpendingRecorded)
	ErrEmptyCatalog          = errors.New(ErrMsgEmptyCatalog)
	ErrInvalidTierDefinition = errors.New(ErrMsgInvalidTierDefinition)

	// Order errors
	ErrOrderNotFound      = errors.New(ErrMsgOrderNotFound)
	ErrBenefitsApplied    = errors.New(ErrMsgBenefitsApplied)
	ErrRedemptionNotFound = errors.New(ErrMsgRedemptionNotFound)

	// Database errors
	ErrDatabaseError = errors.New(ErrMsgDatabaseError)

	// Input errors
	ErrInvalidInput = errors.New(ErrMsgInvalidInput)
)

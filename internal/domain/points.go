package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a points ledger entry
type TransactionType string

const (
	TransactionEarning    TransactionType = "earning"
	TransactionRedemption TransactionType = "redemption"
	TransactionExpiration TransactionType = "expiration"
	TransactionAdjustment TransactionType = "adjustment"
	TransactionRefund     TransactionType = "refund"
)

// RuleType identifies the event a points rule applies to
type RuleType string

const (
	RulePurchase      RuleType = "purchase"
	RuleRegistration  RuleType = "registration"
	RuleFirstPurchase RuleType = "first_purchase"
	RuleReview        RuleType = "review"
	RuleReferral      RuleType = "referral"
	RuleBirthday      RuleType = "birthday"
	RuleRedemption    RuleType = "redemption"
)

// Points economy constants
const (
	// PointsPerCurrencyUnit is how many points are worth one unit of currency
	PointsPerCurrencyUnit = 100
	// MinimumRedemptionPoints is the smallest redeemable amount
	MinimumRedemptionPoints = 500
	// DefaultRetentionDays is how long an earned lot stays spendable
	DefaultRetentionDays = 365
	// ExpiringSoonDays is the look-ahead window for the summary
	ExpiringSoonDays = 30
)

// MaxRedemptionRatio caps points redemption at half the order amount
var MaxRedemptionRatio = decimal.NewFromFloat(0.5)

// PointsAccount holds the per-user balances
type PointsAccount struct {
	ID               int64     `json:"id"`
	UserID           string    `json:"user_id"`
	AvailablePoints  int       `json:"available_points"`
	TotalPoints      int       `json:"total_points"`
	LifetimeEarned   int       `json:"lifetime_earned"`
	LifetimeRedeemed int       `json:"lifetime_redeemed"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// PointsLot is a tranche of earned points with its own expiry.
// Lots are never deleted; they are drained or marked expired.
type PointsLot struct {
	ID              int64     `json:"id"`
	AccountID       int64     `json:"account_id"`
	PointsAmount    int       `json:"points_amount"`
	RemainingPoints int       `json:"remaining_points"`
	EarnedAt        time.Time `json:"earned_at"`
	ExpiresAt       time.Time `json:"expires_at"`
	IsExpired       bool      `json:"is_expired"`
	IsFullyRedeemed bool      `json:"is_fully_redeemed"`
	TransactionID   *int64    `json:"transaction_id,omitempty"`
}

// Spendable reports whether the lot can still be drained at now
func (l PointsLot) Spendable(now time.Time) bool {
	return !l.IsExpired && l.RemainingPoints > 0 && !l.ExpiresAt.Before(now)
}

// PointsTransaction is an immutable ledger entry. Amount is signed.
type PointsTransaction struct {
	ID           int64           `json:"id"`
	AccountID    int64           `json:"account_id"`
	Type         TransactionType `json:"transaction_type"`
	Amount       int             `json:"points"`
	BalanceAfter int             `json:"balance_after"`
	Description  string          `json:"description"`
	ReferenceID  *string         `json:"reference_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// PointsRule is the configured award for a rule type
type PointsRule struct {
	ID                      int64            `json:"id"`
	RuleType                RuleType         `json:"rule_type"`
	PointsAmount            int              `json:"points_amount"`
	IsPercentage            bool             `json:"is_percentage"`
	MinOrderAmount          *decimal.Decimal `json:"min_order_amount,omitempty"`
	MaxPointsPerTransaction *int             `json:"max_points_per_transaction,omitempty"`
	IsActive                bool             `json:"is_active"`
	Description             string           `json:"description"`
}

// PointsSummary is the read model returned to the account page
type PointsSummary struct {
	AvailablePoints    int                 `json:"available_points"`
	TotalPoints        int                 `json:"total_points"`
	LifetimeEarned     int                 `json:"lifetime_earned"`
	LifetimeRedeemed   int                 `json:"lifetime_redeemed"`
	ExpiringSoon       int                 `json:"expiring_soon"`
	RecentTransactions []PointsTransaction `json:"recent_transactions"`
}

// PointsToCurrency converts points to their currency value
func PointsToCurrency(points int) decimal.Decimal {
	return decimal.NewFromInt(int64(points)).Div(decimal.NewFromInt(PointsPerCurrencyUnit))
}

// Ref returns a pointer to s, or nil when s is empty
func Ref(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

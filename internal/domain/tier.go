package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TierName identifies a membership tier. Names are always lowercase.
type TierName string

const (
	TierBronze   TierName = "bronze"
	TierSilver   TierName = "silver"
	TierGold     TierName = "gold"
	TierPlatinum TierName = "platinum"
)

// Benefit keys carried in Tier.Benefits
const (
	BenefitFreeShipping      = "free_shipping"
	BenefitEarlyAccess       = "early_access"
	BenefitPrioritySupport   = "priority_support"
	BenefitExclusiveProducts = "exclusive_products"
)

// ParseTierName normalizes s into a TierName. Casing is ignored so legacy
// "Gold" and "GOLD" both resolve to TierGold.
func ParseTierName(s string) (TierName, error) {
	name := TierName(strings.ToLower(strings.TrimSpace(s)))
	switch name {
	case TierBronze, TierSilver, TierGold, TierPlatinum:
		return name, nil
	}
	return "", fmt.Errorf("%w: %q", ErrTierNotFound, s)
}

// Tier is one level of the membership ladder.
// MaxSpending is nil for the top tier. Both bounds are inclusive.
type Tier struct {
	Name             TierName         `json:"name"`
	DisplayName      string           `json:"display_name"`
	MinSpending      decimal.Decimal  `json:"min_spending"`
	MaxSpending      *decimal.Decimal `json:"max_spending,omitempty"`
	PointsMultiplier decimal.Decimal  `json:"points_multiplier"`
	Benefits         map[string]bool  `json:"benefits"`
}

// Contains reports whether amount falls inside the tier's spending range.
func (t Tier) Contains(amount decimal.Decimal) bool {
	if amount.LessThan(t.MinSpending) {
		return false
	}
	return t.MaxSpending == nil || amount.LessThanOrEqual(*t.MaxSpending)
}

// HasBenefit reports whether the benefit flag is set.
func (t Tier) HasBenefit(key string) bool {
	return t.Benefits[key]
}

// CopyBenefits returns a copy of the benefit map that callers may mutate.
func (t Tier) CopyBenefits() map[string]bool {
	out := make(map[string]bool, len(t.Benefits))
	for k, v := range t.Benefits {
		out[k] = v
	}
	return out
}

// MembershipAccount is the per-user tier state.
type MembershipAccount struct {
	UserID             string          `json:"user_id"`
	Tier               TierName        `json:"tier"`
	CumulativeSpending decimal.Decimal `json:"cumulative_spending"`
	TierStartedAt      time.Time       `json:"tier_started_at"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// TierChangeRecord is an append-only audit entry for a tier transition.
// FromTier is nil for the record written when the account is created.
type TierChangeRecord struct {
	ID               int64           `json:"id"`
	UserID           string          `json:"user_id"`
	FromTier         *TierName       `json:"from_tier,omitempty"`
	ToTier           TierName        `json:"to_tier"`
	Reason           string          `json:"reason"`
	SpendingAtChange decimal.Decimal `json:"spending_at_change"`
	CreatedAt        time.Time       `json:"created_at"`
}

// MembershipLookup is the result of resolving a user's membership.
// Found=false is the explicit "no membership" case and carries no tier.
type MembershipLookup struct {
	Found   bool
	Account MembershipAccount
	Tier    Tier
}

// NoMembership is the lookup result for users without an account.
func NoMembership() MembershipLookup {
	return MembershipLookup{}
}

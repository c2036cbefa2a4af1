package points

import (
	"github.com/shopspring/decimal"

	"github.com/osse101/MallLoyalty_Go/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// CalculatePoints returns the points a rule awards for baseAmount at the given
// tier multiplier. Percentage rules keep the exact fractional base and floor
// once after the multiplier, so 1% of 250.00 at 1.2x is 3 points. A missing or
// inactive rule, a base below the rule minimum, or a percentage rule with no
// positive base all award zero.
func CalculatePoints(rule *domain.PointsRule, baseAmount, multiplier decimal.Decimal) int {
	if rule == nil || !rule.IsActive {
		return 0
	}
	if rule.MinOrderAmount != nil && baseAmount.LessThan(*rule.MinOrderAmount) {
		return 0
	}

	var raw decimal.Decimal
	if rule.IsPercentage {
		if !baseAmount.IsPositive() {
			return 0
		}
		raw = baseAmount.Mul(decimal.NewFromInt(int64(rule.PointsAmount))).Div(hundred)
	} else {
		raw = decimal.NewFromInt(int64(rule.PointsAmount))
	}

	if !multiplier.IsPositive() {
		multiplier = decimal.NewFromInt(1)
	}

	points := raw.Mul(multiplier).Floor().IntPart()
	if points < 0 {
		return 0
	}
	if rule.MaxPointsPerTransaction != nil && points > int64(*rule.MaxPointsPerTransaction) {
		points = int64(*rule.MaxPointsPerTransaction)
	}
	return int(points)
}

// MaxRedeemableFor caps redemption at MaxRedemptionRatio of the order value,
// then at the available balance. Results under the minimum redemption are zero.
func MaxRedeemableFor(available int, orderAmount decimal.Decimal) int {
	if available <= 0 || !orderAmount.IsPositive() {
		return 0
	}
	byOrder := orderAmount.
		Mul(domain.MaxRedemptionRatio).
		Mul(decimal.NewFromInt(domain.PointsPerCurrencyUnit)).
		Floor().
		IntPart()

	limit := min(byOrder, int64(available))
	if limit < domain.MinimumRedemptionPoints {
		return 0
	}
	return int(limit)
}

// ValidateRedemption checks a requested redemption against the three
// redemption limits and returns every violated constraint.
func ValidateRedemption(requested, available int, orderAmount decimal.Decimal) []error {
	var errs []error
	if requested <= 0 {
		return append(errs, domain.ErrInvalidPointsAmount)
	}
	if requested < domain.MinimumRedemptionPoints {
		errs = append(errs, domain.ErrBelowMinimumRedemption)
	}
	if requested > available {
		errs = append(errs, domain.ErrInsufficientPoints)
	}
	if limit := MaxRedeemableFor(available, orderAmount); requested > limit {
		errs = append(errs, domain.ErrExceedsMaxRedeemable)
	}
	return errs
}

package benefits

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/osse101/MallLoyalty_Go/internal/domain"
	"github.com/osse101/MallLoyalty_Go/internal/logger"
)

// PriceLines applies member pricing to each line and enforces tier
// requirements on member-exclusive products. The input slice is not modified.
func (e *Engine) PriceLines(ctx context.Context, userID string, lines []domain.OrderLine) ([]domain.OrderLine, error) {
	log := logger.FromContext(ctx)

	current := e.catalog.Lowest()
	member := false
	if userID != "" {
		lookup, err := e.members.Lookup(ctx, userID)
		switch {
		case err != nil:
			log.Warn(LogMsgPricingLookupError, "user_id", userID, "error", err)
		case lookup.Found:
			current = lookup.Tier
			member = true
		}
	}

	rate := decimal.Zero
	if member {
		rate = e.catalog.BenefitsFor(current.Name).PricingRate
	}

	priced := make([]domain.OrderLine, len(lines))
	for i, line := range lines {
		if line.MemberExclusive && line.MinTierRequired != nil && !e.catalog.Meets(current.Name, *line.MinTierRequired) {
			log.Info(LogMsgTierRequired, "user_id", userID, "product_id", line.ProductID, "required", *line.MinTierRequired, "tier", current.Name)
			return nil, fmt.Errorf("%w: product %d requires %s", domain.ErrTierRequired, line.ProductID, *line.MinTierRequired)
		}

		line.OriginalPrice = line.UnitPrice
		line.MemberDiscount = decimal.Zero
		if rate.IsPositive() {
			line.MemberDiscount = domain.RoundMoney(line.UnitPrice.Mul(rate))
			line.UnitPrice = line.UnitPrice.Sub(line.MemberDiscount)
		}
		priced[i] = line
	}
	return priced, nil
}

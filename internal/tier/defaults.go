package tier

import (
	"github.com/shopspring/decimal"

	"github.com/osse101/MallLoyalty_Go/internal/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// DefaultTiers is the four-level ladder shipped with the mall
func DefaultTiers() []domain.Tier {
	return []domain.Tier{
		{
			Name:             domain.TierBronze,
			DisplayName:      "Bronze",
			MinSpending:      dec("0"),
			MaxSpending:      decPtr("999.99"),
			PointsMultiplier: dec("1.0"),
			Benefits:         map[string]bool{},
		},
		{
			Name:             domain.TierSilver,
			DisplayName:      "Silver",
			MinSpending:      dec("1000.00"),
			MaxSpending:      decPtr("4999.99"),
			PointsMultiplier: dec("1.2"),
			Benefits: map[string]bool{
				domain.BenefitFreeShipping: true,
			},
		},
		{
			Name:             domain.TierGold,
			DisplayName:      "Gold",
			MinSpending:      dec("5000.00"),
			MaxSpending:      decPtr("19999.99"),
			PointsMultiplier: dec("1.5"),
			Benefits: map[string]bool{
				domain.BenefitFreeShipping:    true,
				domain.BenefitEarlyAccess:     true,
				domain.BenefitPrioritySupport: true,
			},
		},
		{
			Name:             domain.TierPlatinum,
			DisplayName:      "Platinum",
			MinSpending:      dec("20000.00"),
			PointsMultiplier: dec("2.0"),
			Benefits: map[string]bool{
				domain.BenefitFreeShipping:      true,
				domain.BenefitEarlyAccess:       true,
				domain.BenefitPrioritySupport:   true,
				domain.BenefitExclusiveProducts: true,
			},
		},
	}
}

// DefaultBenefits is the checkout side table for DefaultTiers
func DefaultBenefits() map[domain.TierName]Benefits {
	return map[domain.TierName]Benefits{
		domain.TierBronze: {},
		domain.TierSilver: {
			DiscountRate: dec("0.05"),
			PricingRate:  dec("0.05"),
		},
		domain.TierGold: {
			DiscountRate: dec("0.10"),
			PricingRate:  dec("0.10"),
			Promotion: &Promotion{
				MinOrder:    dec("100"),
				Rate:        dec("0.05"),
				Description: "Gold member extra 5% off orders over 100",
			},
		},
		domain.TierPlatinum: {
			DiscountRate: dec("0.15"),
			PricingRate:  dec("0.15"),
			Promotion: &Promotion{
				MinOrder:    dec("50"),
				Rate:        dec("0.10"),
				Description: "Platinum member extra 10% off orders over 50",
			},
		},
	}
}

// DefaultCatalog builds the catalog from the built-in ladder
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultTiers(), DefaultBenefits())
	if err != nil {
		panic(err)
	}
	return c
}

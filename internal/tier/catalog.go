package tier

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/osse101/MallLoyalty_Go/internal/domain"
)

// Benefits holds the per-tier rates used at checkout
type Benefits struct {
	DiscountRate decimal.Decimal `json:"discount_rate"`
	PricingRate  decimal.Decimal `json:"pricing_rate"`
	Promotion    *Promotion      `json:"promotion,omitempty"`
}

// Promotion is a tier-only bonus discount for orders above a floor
type Promotion struct {
	MinOrder    decimal.Decimal `json:"min_order"`
	Rate        decimal.Decimal `json:"rate"`
	Description string          `json:"description"`
}

// Catalog is the ordered, immutable set of tiers
type Catalog struct {
	tiers    []domain.Tier
	byName   map[domain.TierName]int
	benefits map[domain.TierName]Benefits
}

// NewCatalog validates and indexes tiers. Tiers may be passed in any order.
func NewCatalog(tiers []domain.Tier, benefits map[domain.TierName]Benefits) (*Catalog, error) {
	if len(tiers) == 0 {
		return nil, domain.ErrEmptyCatalog
	}

	sorted := make([]domain.Tier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinSpending.LessThan(sorted[j].MinSpending)
	})

	c := &Catalog{
		tiers:    sorted,
		byName:   make(map[domain.TierName]int, len(sorted)),
		benefits: make(map[domain.TierName]Benefits, len(benefits)),
	}

	if !sorted[0].MinSpending.IsZero() {
		return nil, fmt.Errorf("%w: lowest tier %s must start at 0", domain.ErrInvalidTierDefinition, sorted[0].Name)
	}

	unbounded := 0
	for i := range sorted {
		t := &sorted[i]
		if _, dup := c.byName[t.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate tier %s", domain.ErrInvalidTierDefinition, t.Name)
		}
		c.byName[t.Name] = i

		if t.PointsMultiplier.LessThan(decimal.NewFromInt(1)) {
			return nil, fmt.Errorf("%w: tier %s multiplier %s below 1", domain.ErrInvalidTierDefinition, t.Name, t.PointsMultiplier)
		}
		if t.DisplayName == "" {
			t.DisplayName = displayName(t.Name)
		}
		if t.Benefits == nil {
			t.Benefits = map[string]bool{}
		}

		if t.MaxSpending == nil {
			unbounded++
			if i != len(sorted)-1 {
				return nil, fmt.Errorf("%w: only the top tier may be unbounded, got %s", domain.ErrInvalidTierDefinition, t.Name)
			}
			continue
		}
		if t.MaxSpending.LessThan(t.MinSpending) {
			return nil, fmt.Errorf("%w: tier %s max below min", domain.ErrInvalidTierDefinition, t.Name)
		}
		if i+1 < len(sorted) {
			gap := sorted[i+1].MinSpending.Sub(*t.MaxSpending)
			if !gap.IsPositive() || gap.GreaterThan(SpendingGranularity) {
				return nil, fmt.Errorf("%w: tiers %s and %s are not contiguous", domain.ErrInvalidTierDefinition, t.Name, sorted[i+1].Name)
			}
		}
	}
	if unbounded != 1 {
		return nil, fmt.Errorf("%w: exactly one unbounded tier required", domain.ErrInvalidTierDefinition)
	}

	for name, b := range benefits {
		if _, ok := c.byName[name]; !ok {
			return nil, fmt.Errorf("%w: benefits for %s", domain.ErrTierNotFound, name)
		}
		c.benefits[name] = b
	}

	return c, nil
}

// TierFor returns the highest tier whose MinSpending is at most amount.
// An amount inside a sub-cent gap resolves to the tier below the gap, and
// an amount below every minimum resolves to the lowest tier.
func (c *Catalog) TierFor(amount decimal.Decimal) domain.Tier {
	for i := len(c.tiers) - 1; i >= 0; i-- {
		if !amount.LessThan(c.tiers[i].MinSpending) {
			return c.tiers[i]
		}
	}
	slog.Default().Warn(LogMsgTierFallback, "amount", amount.String())
	return c.tiers[0]
}

// MultiplierFor returns the points multiplier of name, or 1 if unknown
func (c *Catalog) MultiplierFor(name domain.TierName) decimal.Decimal {
	if t, ok := c.Lookup(name); ok {
		return t.PointsMultiplier
	}
	return decimal.NewFromInt(1)
}

// Lookup finds a tier by name
func (c *Catalog) Lookup(name domain.TierName) (domain.Tier, bool) {
	i, ok := c.byName[name]
	if !ok {
		return domain.Tier{}, false
	}
	return c.tiers[i], true
}

// Lowest is the entry tier
func (c *Catalog) Lowest() domain.Tier {
	return c.tiers[0]
}

// Tiers returns the tiers ordered by MinSpending
func (c *Catalog) Tiers() []domain.Tier {
	out := make([]domain.Tier, len(c.tiers))
	copy(out, c.tiers)
	return out
}

// Rank is the zero-based position of name in the ladder, -1 if unknown
func (c *Catalog) Rank(name domain.TierName) int {
	if i, ok := c.byName[name]; ok {
		return i
	}
	return -1
}

// Next returns the tier above name
func (c *Catalog) Next(name domain.TierName) (domain.Tier, bool) {
	i, ok := c.byName[name]
	if !ok || i+1 >= len(c.tiers) {
		return domain.Tier{}, false
	}
	return c.tiers[i+1], true
}

// Meets reports whether have ranks at or above want
func (c *Catalog) Meets(have, want domain.TierName) bool {
	h, w := c.Rank(have), c.Rank(want)
	return h >= 0 && w >= 0 && h >= w
}

// BenefitsFor returns the checkout rates of name. Unknown tiers get zero rates.
func (c *Catalog) BenefitsFor(name domain.TierName) Benefits {
	return c.benefits[name]
}

func displayName(name domain.TierName) string {
	return cases.Title(language.English).String(string(name))
}

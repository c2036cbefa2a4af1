package tier

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/osse101/MallLoyalty_Go/internal/domain"
	"github.com/osse101/MallLoyalty_Go/internal/validation"
)

// FileConfig is the on-disk tier definition
type FileConfig struct {
	Version string       `json:"version" validate:"required"`
	Tiers   []TierConfig `json:"tiers" validate:"required,min=1,dive"`
}

// TierConfig describes one tier and its checkout rates
type TierConfig struct {
	Name             string           `json:"name" validate:"required,oneof=bronze silver gold platinum"`
	DisplayName      string           `json:"display_name" validate:"max=50"`
	MinSpending      decimal.Decimal  `json:"min_spending"`
	MaxSpending      *decimal.Decimal `json:"max_spending,omitempty"`
	PointsMultiplier decimal.Decimal  `json:"points_multiplier"`
	Benefits         []string         `json:"benefits" validate:"dive,oneof=free_shipping early_access priority_support exclusive_products"`
	DiscountRate     decimal.Decimal  `json:"discount_rate"`
	PricingRate      decimal.Decimal  `json:"pricing_rate"`
	Promotion        *Promotion       `json:"promotion,omitempty"`
}

// LoadCatalog reads, schema-checks and validates a tier file
func LoadCatalog(path, schemaPath string, schemas validation.SchemaValidator) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tier config file: %w", err)
	}

	if schemas != nil {
		if err := schemas.ValidateBytes(data, schemaPath); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidTierDefinition, err)
		}
	}

	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse tier config: %w", err)
	}

	return cfg.Build()
}

// LoadCatalogOrDefault loads path, falling back to DefaultCatalog when the
// file does not exist. Any other failure is returned.
func LoadCatalogOrDefault(path, schemaPath string, schemas validation.SchemaValidator) (*Catalog, error) {
	c, err := LoadCatalog(path, schemaPath, schemas)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Default().Warn(LogMsgCatalogDefaulted, "path", path)
		return DefaultCatalog(), nil
	}
	if err != nil {
		return nil, err
	}
	slog.Default().Info(LogMsgCatalogLoaded, "path", path, "tiers", len(c.tiers))
	return c, nil
}

// Build validates the config and turns it into a Catalog
func (cfg *FileConfig) Build() (*Catalog, error) {
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidTierDefinition, err)
	}

	tiers := make([]domain.Tier, 0, len(cfg.Tiers))
	benefits := make(map[domain.TierName]Benefits, len(cfg.Tiers))
	for _, tc := range cfg.Tiers {
		name, err := domain.ParseTierName(tc.Name)
		if err != nil {
			return nil, err
		}
		flags := make(map[string]bool, len(tc.Benefits))
		for _, b := range tc.Benefits {
			flags[b] = true
		}
		tiers = append(tiers, domain.Tier{
			Name:             name,
			DisplayName:      tc.DisplayName,
			MinSpending:      tc.MinSpending,
			MaxSpending:      tc.MaxSpending,
			PointsMultiplier: tc.PointsMultiplier,
			Benefits:         flags,
		})
		benefits[name] = Benefits{
			DiscountRate: tc.DiscountRate,
			PricingRate:  tc.PricingRate,
			Promotion:    tc.Promotion,
		}
	}

	return NewCatalog(tiers, benefits)
}

package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/osse101/MallLoyalty_Go/internal/config"
	"github.com/osse101/MallLoyalty_Go/internal/points"
	"github.com/osse101/MallLoyalty_Go/internal/tier"
	"github.com/osse101/MallLoyalty_Go/internal/validation"
)

// LoadTierCatalog reads the tier table, falling back to the built-in tiers
// when the file does not exist
func LoadTierCatalog(cfg *config.Config, schemas validation.SchemaValidator) (*tier.Catalog, error) {
	catalog, err := tier.LoadCatalogOrDefault(cfg.TiersConfigPath, tier.SchemaPathTiers, schemas)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedLoadCatalog, err)
	}
	return catalog, nil
}

// SyncPointsRules loads and validates the earning rules file and upserts
// every rule, so edits to the file take effect on the next start.
func SyncPointsRules(ctx context.Context, cfg *config.Config, svc points.Service, schemas validation.SchemaValidator) error {
	slog.Info(LogMsgSyncingRules, "path", cfg.RulesConfigPath)

	rules, err := points.LoadRules(cfg.RulesConfigPath, points.SchemaPathRules, schemas)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedLoadRules, err)
	}

	if err := svc.SyncRules(ctx, rules); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedSyncRules, err)
	}

	slog.Info(LogMsgRulesSynced, "rules", len(rules))
	return nil
}

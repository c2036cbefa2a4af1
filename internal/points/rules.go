package points

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/shopspring/decimal"

	"github.com/osse101/MallLoyalty_Go/internal/domain"
	"github.com/osse101/MallLoyalty_Go/internal/logger"
	"github.com/osse101/MallLoyalty_Go/internal/validation"
)

// cachedRule holds a lookup result. A nil rule caches "no active rule".
type cachedRule struct {
	rule *domain.PointsRule
}

// ruleCache keeps active rules in memory since every earning path reads one
type ruleCache struct {
	lru *expirable.LRU[domain.RuleType, cachedRule]
}

func newRuleCache(size int, ttl time.Duration) *ruleCache {
	return &ruleCache{
		lru: expirable.NewLRU[domain.RuleType, cachedRule](size, nil, ttl),
	}
}

func (c *ruleCache) Get(ruleType domain.RuleType) (*domain.PointsRule, bool) {
	entry, ok := c.lru.Get(ruleType)
	if !ok {
		return nil, false
	}
	if entry.rule == nil {
		return nil, true
	}
	rule := *entry.rule
	return &rule, true
}

func (c *ruleCache) Set(ruleType domain.RuleType, rule *domain.PointsRule) {
	var stored *domain.PointsRule
	if rule != nil {
		copied := *rule
		stored = &copied
	}
	c.lru.Add(ruleType, cachedRule{rule: stored})
}

func (c *ruleCache) Clear() {
	c.lru.Purge()
}

// GetActiveRule returns the active rule for ruleType, or nil when none is configured
func (s *service) GetActiveRule(ctx context.Context, ruleType domain.RuleType) (*domain.PointsRule, error) {
	if rule, ok := s.rules.Get(ruleType); ok {
		return rule, nil
	}

	logger.FromContext(ctx).Debug(LogMsgRuleCacheMiss, "rule_type", ruleType)
	rule, err := s.repo.GetActiveRule(ctx, ruleType)
	if err != nil {
		return nil, fmt.Errorf("failed to get points rule: %w", err)
	}
	s.rules.Set(ruleType, rule)
	return rule, nil
}

func (s *service) ListRules(ctx context.Context) ([]domain.PointsRule, error) {
	rules, err := s.repo.ListRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list points rules: %w", err)
	}
	return rules, nil
}

// SyncRules upserts rules by rule type and drops the cache
func (s *service) SyncRules(ctx context.Context, rules []domain.PointsRule) error {
	defer s.rules.Clear()
	for i := range rules {
		if err := s.repo.UpsertRule(ctx, &rules[i]); err != nil {
			return fmt.Errorf("failed to upsert rule %s: %w", rules[i].RuleType, err)
		}
	}
	logger.FromContext(ctx).Info(LogMsgRulesSynced, "count", len(rules))
	return nil
}

// RulesFile is the on-disk shape of configs/points/rules.json
type RulesFile struct {
	Version string       `json:"version" validate:"required"`
	Rules   []RuleConfig `json:"rules" validate:"dive"`
}

// RuleConfig is one rule entry in RulesFile
type RuleConfig struct {
	RuleType                string           `json:"rule_type" validate:"required,oneof=purchase registration first_purchase review referral birthday redemption"`
	PointsAmount            int              `json:"points_amount" validate:"gte=0"`
	IsPercentage            bool             `json:"is_percentage"`
	MinOrderAmount          *decimal.Decimal `json:"min_order_amount,omitempty"`
	MaxPointsPerTransaction *int             `json:"max_points_per_transaction,omitempty" validate:"omitempty,gte=0"`
	IsActive                bool             `json:"is_active"`
	Description             string           `json:"description" validate:"max=255"`
}

// LoadRules reads and validates a rules file. schemas may be nil to skip
// JSON schema validation.
func LoadRules(path, schemaPath string, schemas validation.SchemaValidator) ([]domain.PointsRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	if schemas != nil {
		if err := schemas.ValidateBytes(data, schemaPath); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
		}
	}

	var file RulesFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}
	if err := validator.New().Struct(file); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	seen := make(map[string]bool, len(file.Rules))
	rules := make([]domain.PointsRule, 0, len(file.Rules))
	for _, rc := range file.Rules {
		if seen[rc.RuleType] {
			return nil, fmt.Errorf("%w: duplicate rule type %s", domain.ErrInvalidInput, rc.RuleType)
		}
		seen[rc.RuleType] = true
		rules = append(rules, domain.PointsRule{
			RuleType:                domain.RuleType(rc.RuleType),
			PointsAmount:            rc.PointsAmount,
			IsPercentage:            rc.IsPercentage,
			MinOrderAmount:          rc.MinOrderAmount,
			MaxPointsPerTransaction: rc.MaxPointsPerTransaction,
			IsActive:                rc.IsActive,
			Description:             rc.Description,
		})
	}

	logger.Info(LogMsgRulesFileLoaded, "path", path, "count", len(rules))
	return rules, nil
}

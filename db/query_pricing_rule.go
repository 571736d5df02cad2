package db

import (
	"context"

	"github.com/google/uuid"
)

func (queries *Queries) CreatePricingRule(ctx context.Context, rule *PricingRule) error {
	return queries.DB.WithContext(ctx).Create(rule).Error
}

func (queries *Queries) ListPricingRules(ctx context.Context) ([]PricingRule, error) {
	var rules []PricingRule
	err := queries.DB.WithContext(ctx).Order("date_created DESC").Find(&rules).Error
	return rules, err
}

func (queries *Queries) GetPricingRuleByID(ctx context.Context, id uuid.UUID) (*PricingRule, error) {
	var rule PricingRule
	err := queries.DB.WithContext(ctx).First(&rule, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &rule, nil
}

func (queries *Queries) UpdatePricingRule(ctx context.Context, rule *PricingRule) error {
	return queries.DB.WithContext(ctx).Save(rule).Error
}

// DeletePricingRule soft-deletes only. Rules are never hard-removed because
// booking snapshots reference them by id.
func (queries *Queries) DeletePricingRule(ctx context.Context, id uuid.UUID) error {
	result := queries.DB.WithContext(ctx).Delete(&PricingRule{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

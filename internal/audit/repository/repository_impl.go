package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/finwiselabs/finwise/internal/audit/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() auditdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, event *auditdomain.SubscriptionEvent) error {
	return db.WithContext(ctx).Create(event).Error
}

func (r *repo) ListBySubscription(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID, limit int) ([]*auditdomain.SubscriptionEvent, error) {
	var items []*auditdomain.SubscriptionEvent
	err := db.WithContext(ctx).
		Where("subscription_id = ?", subscriptionID).
		Order("created_at DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

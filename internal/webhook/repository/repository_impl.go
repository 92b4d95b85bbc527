package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	webhookdomain "github.com/finwiselabs/finwise/internal/webhook/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() webhookdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, event *webhookdomain.WebhookEvent) error {
	return db.WithContext(ctx).Create(event).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, event *webhookdomain.WebhookEvent) error {
	return db.WithContext(ctx).Save(event).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*webhookdomain.WebhookEvent, error) {
	var e webhookdomain.WebhookEvent
	res := db.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&e)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &e, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, status webhookdomain.WebhookStatus, limit int) ([]*webhookdomain.WebhookEvent, error) {
	query := db.WithContext(ctx).Model(&webhookdomain.WebhookEvent{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var items []*webhookdomain.WebhookEvent
	err := query.Order("received_at DESC").Limit(limit).Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/finwiselabs/finwise/internal/audit/domain"
	"github.com/finwiselabs/finwise/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  auditdomain.Repository
}

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  auditdomain.Repository
}

func NewService(p Params) auditdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Append(ctx context.Context, entry auditdomain.Entry) {
	severity := entry.Severity
	if severity == "" {
		severity = auditdomain.SeverityInfo
	}

	event := &auditdomain.SubscriptionEvent{
		ID:             s.genID.Generate(),
		SubscriptionID: entry.SubscriptionID,
		ClientID:       entry.ClientID,
		Type:           entry.Type,
		Provider:       entry.Provider,
		Severity:       severity,
		Message:        entry.Message,
		Payload:        datatypes.JSON(entry.Payload),
		Origin:         entry.Origin,
		CreatedAt:      s.clock.Now(ctx),
	}

	if err := s.repo.Insert(ctx, s.db, event); err != nil {
		// The reconciliation already applied; surface the gap, keep going.
		s.log.Error("audit append failed",
			zap.String("type", string(entry.Type)),
			zap.Int64("subscription_id", int64(entry.SubscriptionID)),
			zap.Error(err))
	}
}

func (s *Service) ListBySubscription(ctx context.Context, subscriptionID snowflake.ID, limit int) ([]*auditdomain.SubscriptionEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListBySubscription(ctx, s.db, subscriptionID, limit)
}

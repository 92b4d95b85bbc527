package service

import (
	"context"
	"encoding/json"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/finwiselabs/finwise/internal/audit/domain"
	"github.com/finwiselabs/finwise/internal/clock"
	customerdomain "github.com/finwiselabs/finwise/internal/customer/domain"
	"github.com/finwiselabs/finwise/internal/observability"
	orderdomain "github.com/finwiselabs/finwise/internal/order/domain"
	subscriptiondomain "github.com/finwiselabs/finwise/internal/subscription/domain"
	webhookdomain "github.com/finwiselabs/finwise/internal/webhook/domain"
	"github.com/google/uuid"
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
	repo  webhookdomain.Repository

	customerSvc     customerdomain.Service
	subscriptionSvc subscriptiondomain.Service
	orderSvc        orderdomain.Service
	auditSvc        auditdomain.Service

	locks *keyedMutex
}

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  webhookdomain.Repository

	CustomerSvc     customerdomain.Service
	SubscriptionSvc subscriptiondomain.Service
	OrderSvc        orderdomain.Service
	AuditSvc        auditdomain.Service
}

func New(p Params) webhookdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("webhook.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,

		customerSvc:     p.CustomerSvc,
		subscriptionSvc: p.SubscriptionSvc,
		orderSvc:        p.OrderSvc,
		auditSvc:        p.AuditSvc,

		locks: newKeyedMutex(),
	}
}

func (s *Service) Ingest(ctx context.Context, raw []byte) (*webhookdomain.WebhookEvent, error) {
	now := s.clock.Now(ctx)
	event := &webhookdomain.WebhookEvent{
		ID:         s.genID.Generate(),
		EventType:  peekEventType(raw),
		Payload:    datatypes.JSON(raw),
		Status:     webhookdomain.WebhookStatusPending,
		ReceivedAt: now,
	}
	if err := s.repo.Insert(ctx, s.db, event); err != nil {
		return nil, err
	}

	log := s.log.With(
		zap.String("delivery_id", uuid.NewString()),
		zap.String("event_type", event.EventType),
		zap.Int64("webhook_event_id", int64(event.ID)))
	log.Info("webhook received", zap.Int("payload_size", len(raw)))

	procErr := s.Process(ctx, raw)
	s.finish(ctx, event, procErr)

	if procErr != nil {
		log.Error("webhook processing failed", zap.Error(procErr))
		return event, procErr
	}
	log.Info("webhook processed")
	return event, nil
}

func (s *Service) Reprocess(ctx context.Context, id snowflake.ID) (*webhookdomain.WebhookEvent, error) {
	event, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, webhookdomain.ErrWebhookEventNotFound
	}

	observability.WebhookEventsReprocessed.Inc()
	s.log.Info("reprocessing webhook event",
		zap.Int64("webhook_event_id", int64(event.ID)),
		zap.String("event_type", event.EventType),
		zap.Int("retry_count", event.RetryCount))

	procErr := s.Process(ctx, []byte(event.Payload))

	now := s.clock.Now(ctx)
	event.RetryCount++
	event.LastRetryAt = &now
	s.finish(ctx, event, procErr)

	return event, procErr
}

func (s *Service) List(ctx context.Context, status webhookdomain.WebhookStatus, limit int) ([]*webhookdomain.WebhookEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.repo.List(ctx, s.db, status, limit)
}

// finish records the processing outcome on the stored event. Bookkeeping
// failures are logged only: the reconciliation outcome stands either way.
func (s *Service) finish(ctx context.Context, event *webhookdomain.WebhookEvent, procErr error) {
	now := s.clock.Now(ctx)
	if procErr != nil {
		event.Status = webhookdomain.WebhookStatusFailed
		event.ErrorMessage = procErr.Error()
		observability.WebhookEventsFailed.WithLabelValues(event.EventType).Inc()
	} else {
		event.Status = webhookdomain.WebhookStatusProcessed
		event.ProcessedAt = &now
		event.ErrorMessage = ""
		observability.WebhookEventsProcessed.WithLabelValues(event.EventType).Inc()
	}
	if err := s.repo.Update(ctx, s.db, event); err != nil {
		s.log.Error("failed to record webhook outcome",
			zap.Int64("webhook_event_id", int64(event.ID)),
			zap.Error(err))
	}
}

func peekEventType(raw []byte) string {
	var head struct {
		Event string `json:"event"`
	}
	if err := json.Unmarshal(raw, &head); err != nil || head.Event == "" {
		return "unknown"
	}
	return head.Event
}

package service

import (
	"context"
	"math"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/finwiselabs/finwise/internal/clock"
	orderdomain "github.com/finwiselabs/finwise/internal/order/domain"
	"github.com/finwiselabs/finwise/internal/provider"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  orderdomain.Repository
}

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Repo  orderdomain.Repository
}

func New(p Params) orderdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("order.service"),
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Upsert(ctx context.Context, subscriptionID snowflake.ID, req orderdomain.UpsertRequest) (*orderdomain.Order, error) {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return nil, orderdomain.ErrMissingOrderID
	}

	status := req.StatusOverride
	if status == "" {
		mapped, known := provider.MapOrderStatus(req.Status)
		if !known && req.Status != "" {
			s.log.Warn("unmapped order status, defaulting to failed",
				zap.String("order_id", id),
				zap.String("provider_status", req.Status))
		}
		status = mapped
	}

	now := s.clock.Now(ctx)
	order := &orderdomain.Order{
		ID:             id,
		SubscriptionID: subscriptionID,
		AmountCents:    toCents(req.Amount),
		Status:         status,
		PaidAt:         req.PaidAt,
		DueDate:        req.DueDate,
		PaymentMethod:  req.PaymentMethod,
		PaymentDetails: toJSONMap(req.PaymentDetails),
		Meta:           toJSONMap(req.Meta),
		UpdatedAt:      now,
	}

	existing, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		// Full-record overwrite: only the id and the owning subscription
		// survive from the stored row.
		order.SubscriptionID = existing.SubscriptionID
		order.CreatedAt = existing.CreatedAt
		if err := s.repo.Update(ctx, s.db, order); err != nil {
			return nil, err
		}
		s.log.Debug("order overwritten", zap.String("order_id", id), zap.String("status", string(order.Status)))
		return order, nil
	}

	order.CreatedAt = now
	if err := s.repo.Insert(ctx, s.db, order); err != nil {
		return nil, err
	}
	s.log.Info("order created", zap.String("order_id", id), zap.String("status", string(order.Status)))
	return order, nil
}

func (s *Service) FindByID(ctx context.Context, id string) (*orderdomain.Order, error) {
	return s.repo.FindByID(ctx, s.db, id)
}

// toCents converts a decimal major-unit amount to integer cents, rounding
// rather than truncating so 29.90 stays 2990, not 2989.
func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func toJSONMap(m map[string]any) datatypes.JSONMap {
	if m == nil {
		return datatypes.JSONMap{}
	}
	out := make(datatypes.JSONMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

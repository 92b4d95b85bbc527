package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/finwiselabs/finwise/internal/clock"
	"github.com/finwiselabs/finwise/internal/config"
	"github.com/finwiselabs/finwise/internal/provider"
	subscriptiondomain "github.com/finwiselabs/finwise/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultCurrency = "BRL"

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  subscriptiondomain.Repository

	// providerName is the namespace real traffic reconciles under; test
	// payloads go to the manual namespace instead.
	providerName string
}

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Cfg   config.Config
	Repo  subscriptiondomain.Repository
}

func New(p Params) subscriptiondomain.Service {
	name := p.Cfg.BillingProvider
	if name == "" {
		name = "kiwify"
	}
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("subscription.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		providerName: name,
	}
}

func (s *Service) Upsert(ctx context.Context, userID snowflake.ID, req subscriptiondomain.UpsertRequest) (*subscriptiondomain.Subscription, error) {
	providerSubID := strings.TrimSpace(req.ProviderSubscriptionID)
	if providerSubID == "" {
		return nil, subscriptiondomain.ErrMissingSubscriptionID
	}

	providerName := s.ProviderFor(req.IsTest)

	status, known := provider.MapSubscriptionStatus(req.Status)
	if !known && req.Status != "" {
		s.log.Warn("unmapped subscription status, defaulting to active",
			zap.String("provider_subscription_id", providerSubID),
			zap.String("provider_status", req.Status))
	}

	_, billingInterval := provider.DeriveBillingInterval(req.RecurrenceDays, req.TrialDays)

	now := s.clock.Now(ctx)

	var trialEndsAt *time.Time
	if req.TrialDays > 0 {
		t := now.AddDate(0, 0, req.TrialDays)
		trialEndsAt = &t
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = defaultCurrency
	}

	meta := s.buildMeta(req)

	existing, err := s.repo.FindByProviderRef(ctx, s.db, providerName, providerSubID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		existing.UserID = userID
		existing.PlanName = req.PlanName
		existing.PriceCents = toCents(req.Amount)
		existing.Currency = currency
		existing.BillingInterval = billingInterval
		existing.Status = status
		if trialEndsAt != nil {
			existing.TrialEndsAt = trialEndsAt
		}
		if req.NextPaymentDate != nil {
			existing.CurrentPeriodEnd = req.NextPaymentDate
		}
		existing.Meta = meta
		existing.UpdatedAt = now

		if err := s.repo.Update(ctx, s.db, existing); err != nil {
			return nil, err
		}
		s.log.Debug("subscription updated",
			zap.String("provider", providerName),
			zap.String("provider_subscription_id", providerSubID),
			zap.String("status", string(status)))
		return existing, nil
	}

	sub := &subscriptiondomain.Subscription{
		ID:                     s.genID.Generate(),
		UserID:                 userID,
		Provider:               providerName,
		ProviderSubscriptionID: providerSubID,
		PlanName:               req.PlanName,
		PriceCents:             toCents(req.Amount),
		Currency:               currency,
		BillingInterval:        billingInterval,
		Status:                 status,
		TrialEndsAt:            trialEndsAt,
		CurrentPeriodEnd:       req.NextPaymentDate,
		Meta:                   meta,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if err := s.repo.Insert(ctx, s.db, sub); err != nil {
		return nil, err
	}
	s.log.Info("subscription created",
		zap.String("provider", providerName),
		zap.String("provider_subscription_id", providerSubID),
		zap.String("status", string(status)))
	return sub, nil
}

func (s *Service) ProviderFor(isTest bool) string {
	if isTest {
		return subscriptiondomain.ProviderManual
	}
	return s.providerName
}

func (s *Service) FindByProviderRef(ctx context.Context, providerName, providerSubscriptionID string) (*subscriptiondomain.Subscription, error) {
	sub, err := s.repo.FindByProviderRef(ctx, s.db, providerName, providerSubscriptionID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, subscriptiondomain.ErrSubscriptionNotFound
	}
	return sub, nil
}

func (s *Service) FindByID(ctx context.Context, id snowflake.ID) (*subscriptiondomain.Subscription, error) {
	sub, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, subscriptiondomain.ErrSubscriptionNotFound
	}
	return sub, nil
}

func (s *Service) UpdateStatus(ctx context.Context, sub *subscriptiondomain.Subscription, status subscriptiondomain.SubscriptionStatus) error {
	sub.Status = status
	sub.UpdatedAt = s.clock.Now(ctx)
	if err := s.repo.Update(ctx, s.db, sub); err != nil {
		return err
	}
	s.log.Info("subscription status changed",
		zap.String("provider", sub.Provider),
		zap.String("provider_subscription_id", sub.ProviderSubscriptionID),
		zap.String("status", string(status)))
	return nil
}

func (s *Service) EndTrial(ctx context.Context, sub *subscriptiondomain.Subscription, endedAt *time.Time) error {
	sub.Status = subscriptiondomain.SubscriptionStatusActive
	if endedAt != nil {
		sub.TrialEndsAt = endedAt
	}
	sub.UpdatedAt = s.clock.Now(ctx)
	return s.repo.Update(ctx, s.db, sub)
}

// buildMeta assembles the subscription meta block: offer/product/payment
// identifiers plus, for test subscriptions, the createdBy/providerId markers
// carried from the payload's own meta.
func (s *Service) buildMeta(req subscriptiondomain.UpsertRequest) datatypes.JSONMap {
	meta := datatypes.JSONMap{
		"offer_id":       req.OfferID,
		"product_id":     req.ProductID,
		"payment_method": req.PaymentMethod,
		"recurrence_raw": req.RecurrenceRaw,
	}
	if req.IsTest {
		meta["is_test"] = true
		if v, ok := req.Meta["createdBy"]; ok {
			meta["createdBy"] = v
		}
		if v, ok := req.Meta["providerId"]; ok {
			meta["providerId"] = v
		}
	}
	return meta
}

func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

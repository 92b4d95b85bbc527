package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/finwiselabs/finwise/internal/apperr"
)

type Service interface {
	// Upsert reconciles a subscription block, keyed by
	// (provider, provider_subscription_id). Test payloads are routed to the
	// manual provider namespace.
	Upsert(ctx context.Context, userID snowflake.ID, req UpsertRequest) (*Subscription, error)

	// FindByProviderRef resolves a subscription by its provider-qualified
	// natural key. Returns ErrSubscriptionNotFound when no row exists.
	FindByProviderRef(ctx context.Context, provider, providerSubscriptionID string) (*Subscription, error)

	// ProviderFor returns the namespace a payload reconciles under: the real
	// provider, or manual for test traffic.
	ProviderFor(isTest bool) string

	// FindByID resolves a subscription by surrogate id. Returns
	// ErrSubscriptionNotFound when no row exists.
	FindByID(ctx context.Context, id snowflake.ID) (*Subscription, error)

	// UpdateStatus moves a subscription to the given status.
	UpdateStatus(ctx context.Context, sub *Subscription, status SubscriptionStatus) error

	// EndTrial marks the trial finished: status becomes active and
	// trial_ends_at is pinned to the provider-reported end date when given.
	EndTrial(ctx context.Context, sub *Subscription, endedAt *time.Time) error
}

var (
	ErrMissingSubscriptionID = fmt.Errorf("%w: subscription_id_required", apperr.ErrValidation)
	ErrSubscriptionNotFound  = fmt.Errorf("%w: subscription_not_found", apperr.ErrNotFound)
)

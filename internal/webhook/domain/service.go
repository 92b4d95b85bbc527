package domain

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/finwiselabs/finwise/internal/apperr"
)

type Service interface {
	// Ingest records the delivery as a WebhookEvent and runs it through the
	// dispatcher. The returned event reflects the processing outcome; the
	// error is the processing error, which the HTTP boundary logs but does
	// not convert into a non-200 response.
	Ingest(ctx context.Context, raw []byte) (*WebhookEvent, error)

	// Process runs one raw payload through the reconciliation handlers.
	Process(ctx context.Context, raw []byte) error

	// Reprocess replays a stored payload through the same handler logic as
	// first delivery. Natural-key upserts make replay idempotent, except
	// that the order ledger always applies the replayed values (last write
	// wins, including regressions from stale payloads).
	Reprocess(ctx context.Context, id snowflake.ID) (*WebhookEvent, error)

	// List returns stored webhook events for the admin surface, optionally
	// filtered by status.
	List(ctx context.Context, status WebhookStatus, limit int) ([]*WebhookEvent, error)
}

var (
	ErrMissingCustomerData     = fmt.Errorf("%w: customer_data_required", apperr.ErrValidation)
	ErrMissingSubscriptionData = fmt.Errorf("%w: subscription_data_required", apperr.ErrValidation)
	ErrMissingOrderData        = fmt.Errorf("%w: order_data_required", apperr.ErrValidation)
	ErrWebhookEventNotFound    = fmt.Errorf("%w: webhook_event_not_found", apperr.ErrNotFound)
)

package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// Append writes one audit record. Failures are logged and swallowed:
	// audit trouble must never abort a reconciliation that already applied.
	Append(ctx context.Context, entry Entry)

	// ListBySubscription returns the newest audit records for a
	// subscription, for the admin surface.
	ListBySubscription(ctx context.Context, subscriptionID snowflake.ID, limit int) ([]*SubscriptionEvent, error)
}

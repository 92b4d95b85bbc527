package domain

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/finwiselabs/finwise/internal/apperr"
)

type Service interface {
	// Upsert reconciles an order keyed by the provider order id. An existing
	// row is fully overwritten (id and owning subscription preserved); later
	// webhooks for the same id supersede earlier ones.
	Upsert(ctx context.Context, subscriptionID snowflake.ID, req UpsertRequest) (*Order, error)

	// FindByID resolves an order by provider order id. Returns nil when no
	// row exists.
	FindByID(ctx context.Context, id string) (*Order, error)
}

var (
	ErrMissingOrderID = fmt.Errorf("%w: order_id_required", apperr.ErrValidation)
	ErrOrderNotFound  = fmt.Errorf("%w: order_not_found", apperr.ErrNotFound)
)

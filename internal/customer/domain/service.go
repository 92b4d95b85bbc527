package domain

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/finwiselabs/finwise/internal/apperr"
)

type Service interface {
	// Upsert reconciles a customer block into the users table, keyed by
	// email. Existing rows are updated with a metadata-preserving merge.
	Upsert(ctx context.Context, req UpsertRequest) (*Customer, error)

	// SetBillingStatus refreshes the denormalized billing status cache.
	SetBillingStatus(ctx context.Context, id snowflake.ID, status string) error
}

var (
	ErrMissingEmail     = fmt.Errorf("%w: customer_email_required", apperr.ErrValidation)
	ErrCustomerNotFound = fmt.Errorf("%w: customer_not_found", apperr.ErrNotFound)
)

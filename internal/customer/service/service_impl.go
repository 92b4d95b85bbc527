package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/finwiselabs/finwise/internal/clock"
	customerdomain "github.com/finwiselabs/finwise/internal/customer/domain"
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
	repo  customerdomain.Repository
}

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  customerdomain.Repository
}

func New(p Params) customerdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("customer.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Upsert(ctx context.Context, req customerdomain.UpsertRequest) (*customerdomain.Customer, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, customerdomain.ErrMissingEmail
	}

	firstName, lastName := splitName(req.Name)
	now := s.clock.Now(ctx)

	existing, err := s.repo.FindByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		if firstName != "" {
			existing.FirstName = firstName
		}
		if lastName != "" {
			existing.LastName = lastName
		}
		if req.Phone != "" {
			existing.Phone = req.Phone
		}
		if req.Document != "" {
			existing.Document = req.Document
		}
		if req.Status != "" {
			existing.BillingStatus = req.Status
		}
		existing.Metadata = mergeMetadata(existing.Metadata, req.Metadata)
		existing.UpdatedAt = now

		if err := s.repo.Update(ctx, s.db, existing); err != nil {
			return nil, err
		}
		s.log.Debug("customer updated", zap.String("email", email))
		return existing, nil
	}

	customer := &customerdomain.Customer{
		ID:               s.genID.Generate(),
		Email:            email,
		FirstName:        firstName,
		LastName:         lastName,
		Phone:            req.Phone,
		Document:         req.Document,
		Role:             customerdomain.RoleUser,
		ConnectionStatus: customerdomain.ConnectionStatusAuthenticated,
		BillingStatus:    req.Status,
		Metadata:         mergeMetadata(nil, req.Metadata),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.Insert(ctx, s.db, customer); err != nil {
		return nil, err
	}
	s.log.Info("customer created", zap.String("email", email))
	return customer, nil
}

func (s *Service) SetBillingStatus(ctx context.Context, id snowflake.ID, status string) error {
	return s.repo.SetBillingStatus(ctx, s.db, id, status)
}

// splitName divides a full name on the first whitespace run. Everything
// after it becomes the last name.
func splitName(name string) (string, string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ""
	}
	parts := strings.Fields(name)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// mergeMetadata shallow-merges incoming fields over the stored map. Keys not
// present in the incoming map survive, which keeps test-only markers such as
// isTest/createdBy across later webhooks.
func mergeMetadata(existing datatypes.JSONMap, incoming map[string]any) datatypes.JSONMap {
	if existing == nil && len(incoming) == 0 {
		return datatypes.JSONMap{}
	}
	merged := make(datatypes.JSONMap, len(existing)+len(incoming))
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range incoming {
		merged[k] = v
	}
	return merged
}

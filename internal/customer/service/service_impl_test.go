package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/finwiselabs/finwise/internal/clock"
	customerdomain "github.com/finwiselabs/finwise/internal/customer/domain"
	customerrepo "github.com/finwiselabs/finwise/internal/customer/repository"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) customerdomain.Service {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&customerdomain.Customer{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.New(),
		Repo:  customerrepo.Provide(),
	})
}

func TestUpsertRequiresEmail(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Upsert(context.Background(), customerdomain.UpsertRequest{Name: "No Email"})
	assert.ErrorIs(t, err, customerdomain.ErrMissingEmail)
}

func TestUpsertCreatesWithDefaults(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	c, err := svc.Upsert(ctx, customerdomain.UpsertRequest{
		Email: "Ana@Example.com",
		Name:  "Ana Clara Souza",
		Phone: "+5511999990000",
	})
	require.NoError(t, err)

	assert.Equal(t, "ana@example.com", c.Email)
	assert.Equal(t, "Ana", c.FirstName)
	assert.Equal(t, "Clara Souza", c.LastName)
	assert.Equal(t, customerdomain.RoleUser, c.Role)
	assert.Equal(t, customerdomain.ConnectionStatusAuthenticated, c.ConnectionStatus)
}

func TestUpsertIsIdempotentOnEmail(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.Upsert(ctx, customerdomain.UpsertRequest{Email: "a@x.com", Name: "Ana Souza"})
	require.NoError(t, err)

	second, err := svc.Upsert(ctx, customerdomain.UpsertRequest{Email: "a@x.com", Name: "Ana Souza"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
}

func TestUpsertPreservesMetadata(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, customerdomain.UpsertRequest{
		Email:    "a@x.com",
		Metadata: map[string]any{"isTest": true, "createdBy": "qa"},
	})
	require.NoError(t, err)

	// A later webhook without those keys must not wipe them.
	updated, err := svc.Upsert(ctx, customerdomain.UpsertRequest{
		Email:    "a@x.com",
		Name:     "Ana Souza",
		Metadata: map[string]any{"campaign": "spring"},
	})
	require.NoError(t, err)

	assert.Equal(t, true, updated.Metadata["isTest"])
	assert.Equal(t, "qa", updated.Metadata["createdBy"])
	assert.Equal(t, "spring", updated.Metadata["campaign"])
}

func TestUpsertOverwritesMetadataKeyWhenPresent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, customerdomain.UpsertRequest{
		Email:    "a@x.com",
		Metadata: map[string]any{"isTest": true},
	})
	require.NoError(t, err)

	updated, err := svc.Upsert(ctx, customerdomain.UpsertRequest{
		Email:    "a@x.com",
		Metadata: map[string]any{"isTest": false},
	})
	require.NoError(t, err)

	assert.Equal(t, false, updated.Metadata["isTest"])
}

func TestSplitName(t *testing.T) {
	cases := []struct {
		in    string
		first string
		last  string
	}{
		{"Ana Souza", "Ana", "Souza"},
		{"Ana Clara de Souza", "Ana", "Clara de Souza"},
		{"Ana", "Ana", ""},
		{"  Ana   Souza  ", "Ana", "Souza"},
		{"", "", ""},
	}

	for _, tc := range cases {
		first, last := splitName(tc.in)
		assert.Equal(t, tc.first, first, "name %q", tc.in)
		assert.Equal(t, tc.last, last, "name %q", tc.in)
	}
}

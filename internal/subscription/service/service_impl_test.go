package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/finwiselabs/finwise/internal/clock"
	"github.com/finwiselabs/finwise/internal/config"
	subscriptiondomain "github.com/finwiselabs/finwise/internal/subscription/domain"
	subscriptionrepo "github.com/finwiselabs/finwise/internal/subscription/repository"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (subscriptiondomain.Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&subscriptiondomain.Subscription{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.New(),
		Cfg:   config.Config{BillingProvider: "kiwify"},
		Repo:  subscriptionrepo.Provide(),
	})
	return svc, db
}

func TestUpsertRequiresSubscriptionID(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Upsert(context.Background(), 1, subscriptiondomain.UpsertRequest{Status: "active"})
	assert.ErrorIs(t, err, subscriptiondomain.ErrMissingSubscriptionID)
}

func TestUpsertDerivations(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	sub, err := svc.Upsert(ctx, 1, subscriptiondomain.UpsertRequest{
		ProviderSubscriptionID: "sub_1",
		PlanName:               "Premium",
		Status:                 "active",
		Amount:                 29.9,
		RecurrenceDays:         30,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(2990), sub.PriceCents)
	assert.Equal(t, subscriptiondomain.BillingIntervalMonth, sub.BillingInterval)
	assert.Equal(t, subscriptiondomain.SubscriptionStatusActive, sub.Status)
	assert.Equal(t, "kiwify", sub.Provider)
	assert.Equal(t, "BRL", sub.Currency)
	assert.Nil(t, sub.TrialEndsAt)
}

func TestUpsertTrialWindow(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	sub, err := svc.Upsert(ctx, 1, subscriptiondomain.UpsertRequest{
		ProviderSubscriptionID: "sub_trial",
		Status:                 "trial",
		Amount:                 49.0,
		RecurrenceDays:         30,
		TrialDays:              14,
	})
	require.NoError(t, err)

	require.NotNil(t, sub.TrialEndsAt)
	assert.WithinDuration(t, time.Now().UTC().AddDate(0, 0, 14), *sub.TrialEndsAt, time.Minute)
	assert.Equal(t, subscriptiondomain.SubscriptionStatusTrial, sub.Status)
}

func TestUpsertRoutesTestTrafficToManualProvider(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, 1, subscriptiondomain.UpsertRequest{
		ProviderSubscriptionID: "sub_1",
		Status:                 "active",
		IsTest:                 true,
		Meta:                   map[string]any{"createdBy": "qa", "providerId": "sandbox-7"},
	})
	require.NoError(t, err)

	// A production payload with the same natural key must not collide.
	_, err = svc.Upsert(ctx, 2, subscriptiondomain.UpsertRequest{
		ProviderSubscriptionID: "sub_1",
		Status:                 "active",
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&subscriptiondomain.Subscription{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	manual, err := svc.FindByProviderRef(ctx, subscriptiondomain.ProviderManual, "sub_1")
	require.NoError(t, err)
	assert.Equal(t, true, manual.Meta["is_test"])
	assert.Equal(t, "qa", manual.Meta["createdBy"])
	assert.Equal(t, "sandbox-7", manual.Meta["providerId"])
}

func TestUpsertUpdatesInPlace(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	first, err := svc.Upsert(ctx, 1, subscriptiondomain.UpsertRequest{
		ProviderSubscriptionID: "sub_1",
		Status:                 "trial",
		Amount:                 29.9,
		RecurrenceDays:         30,
	})
	require.NoError(t, err)

	second, err := svc.Upsert(ctx, 1, subscriptiondomain.UpsertRequest{
		ProviderSubscriptionID: "sub_1",
		Status:                 "active",
		Amount:                 39.9,
		RecurrenceDays:         365,
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(3990), second.PriceCents)
	assert.Equal(t, subscriptiondomain.BillingIntervalYear, second.BillingInterval)
	assert.Equal(t, subscriptiondomain.SubscriptionStatusActive, second.Status)

	var count int64
	require.NoError(t, db.Model(&subscriptiondomain.Subscription{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestFindByProviderRefNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.FindByProviderRef(context.Background(), "kiwify", "missing")
	assert.ErrorIs(t, err, subscriptiondomain.ErrSubscriptionNotFound)
}

func TestEndTrial(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	sub, err := svc.Upsert(ctx, 1, subscriptiondomain.UpsertRequest{
		ProviderSubscriptionID: "sub_trial",
		Status:                 "trial",
		TrialDays:              7,
	})
	require.NoError(t, err)

	endedAt := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, svc.EndTrial(ctx, sub, &endedAt))

	reloaded, err := svc.FindByProviderRef(ctx, "kiwify", "sub_trial")
	require.NoError(t, err)
	assert.Equal(t, subscriptiondomain.SubscriptionStatusActive, reloaded.Status)
	require.NotNil(t, reloaded.TrialEndsAt)
	assert.True(t, reloaded.TrialEndsAt.Equal(endedAt))
}

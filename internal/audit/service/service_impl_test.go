package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/finwiselabs/finwise/internal/audit/domain"
	auditrepo "github.com/finwiselabs/finwise/internal/audit/repository"
	"github.com/finwiselabs/finwise/internal/clock"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (auditdomain.Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&auditdomain.SubscriptionEvent{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.New(),
		Repo:  auditrepo.Provide(),
	})
	return svc, db
}

func TestAppendDefaultsSeverityToInfo(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	svc.Append(ctx, auditdomain.Entry{
		SubscriptionID: 1,
		Type:           auditdomain.EventTypeCreated,
		Provider:       "kiwify",
		Message:        "subscription sub_1 created",
		Origin:         "webhook",
	})

	events, err := svc.ListBySubscription(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, auditdomain.SeverityInfo, events[0].Severity)
}

func TestAppendSwallowsInsertFailures(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	// Drop the table out from under the service: Append must not panic or
	// leak the error to the caller.
	require.NoError(t, db.Migrator().DropTable(&auditdomain.SubscriptionEvent{}))
	svc.Append(ctx, auditdomain.Entry{
		SubscriptionID: 1,
		Type:           auditdomain.EventTypeCreated,
	})
}

func TestListBySubscriptionFiltersAndOrders(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	svc.Append(ctx, auditdomain.Entry{SubscriptionID: 1, Type: auditdomain.EventTypeCreated})
	svc.Append(ctx, auditdomain.Entry{SubscriptionID: 1, Type: auditdomain.EventTypePaymentFailed, Severity: auditdomain.SeverityWarning})
	svc.Append(ctx, auditdomain.Entry{SubscriptionID: 2, Type: auditdomain.EventTypeCreated})

	events, err := svc.ListBySubscription(ctx, snowflake.ID(1), 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	for _, e := range events {
		assert.Equal(t, snowflake.ID(1), e.SubscriptionID)
	}

	events, err = svc.ListBySubscription(ctx, snowflake.ID(1), 1)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

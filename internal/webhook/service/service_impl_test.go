package service

import (
	"context"
	"testing"

	subscriptiondomain "github.com/finwiselabs/finwise/internal/subscription/domain"
	webhookdomain "github.com/finwiselabs/finwise/internal/webhook/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestMarksProcessedOnSuccess(t *testing.T) {
	f := newFixture(t)

	event, err := f.svc.Ingest(context.Background(), []byte(createdPayload))
	require.NoError(t, err)
	require.NotNil(t, event)

	assert.Equal(t, "subscription_created", event.EventType)
	assert.Equal(t, webhookdomain.WebhookStatusProcessed, event.Status)
	assert.NotNil(t, event.ProcessedAt)
	assert.Empty(t, event.ErrorMessage)
	assert.Equal(t, 0, event.RetryCount)
}

func TestIngestStoresFailedEventWithError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Update for a subscription that was never created: the delivery is
	// stored, the failure is recorded on it.
	raw := []byte(`{"event":"subscription_updated","data":{"subscription":{"id":"sub_missing"}}}`)
	event, err := f.svc.Ingest(ctx, raw)
	assert.ErrorIs(t, err, subscriptiondomain.ErrSubscriptionNotFound)
	require.NotNil(t, event)

	assert.Equal(t, webhookdomain.WebhookStatusFailed, event.Status)
	assert.Contains(t, event.ErrorMessage, "subscription_not_found")
	assert.Nil(t, event.ProcessedAt)

	failed, err := f.svc.List(ctx, webhookdomain.WebhookStatusFailed, 10)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, event.ID, failed[0].ID)
}

func TestIngestStoresMalformedPayload(t *testing.T) {
	f := newFixture(t)

	event, err := f.svc.Ingest(context.Background(), []byte(`{"event": "subscription_created", "data":`))
	assert.Error(t, err)
	require.NotNil(t, event)
	// The body never decoded, so the stored event type falls back to unknown.
	assert.Equal(t, "unknown", event.EventType)
	assert.Equal(t, webhookdomain.WebhookStatusFailed, event.Status)
}

func TestReprocessRecoversAfterMissingDependencyArrives(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Out-of-order delivery: the update lands first and fails.
	raw := []byte(`{
		"event": "subscription_updated",
		"data": {"subscription": {"id": "sub_123", "status": "active", "amount": 49.9}}
	}`)
	stored, err := f.svc.Ingest(ctx, raw)
	require.Error(t, err)
	require.Equal(t, webhookdomain.WebhookStatusFailed, stored.Status)

	// The create arrives, then an operator replays the stuck update.
	f.process(t, createdPayload)

	replayed, err := f.svc.Reprocess(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, webhookdomain.WebhookStatusProcessed, replayed.Status)
	assert.Equal(t, 1, replayed.RetryCount)
	assert.NotNil(t, replayed.LastRetryAt)
	assert.Empty(t, replayed.ErrorMessage)

	sub := f.subscription(t, "sub_123")
	assert.Equal(t, int64(4990), sub.PriceCents)
}

func TestReprocessKeepsFailingEventFailed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	raw := []byte(`{"event":"payment_failed","data":{"subscription":{"id":"sub_ghost"}}}`)
	stored, err := f.svc.Ingest(ctx, raw)
	require.Error(t, err)

	replayed, err := f.svc.Reprocess(ctx, stored.ID)
	assert.ErrorIs(t, err, subscriptiondomain.ErrSubscriptionNotFound)
	assert.Equal(t, webhookdomain.WebhookStatusFailed, replayed.Status)
	assert.Equal(t, 1, replayed.RetryCount)

	replayed, err = f.svc.Reprocess(ctx, stored.ID)
	assert.Error(t, err)
	assert.Equal(t, 2, replayed.RetryCount)
}

func TestReprocessUnknownEventID(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Reprocess(context.Background(), 424242)
	assert.ErrorIs(t, err, webhookdomain.ErrWebhookEventNotFound)
}

func TestListClampsLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.svc.Ingest(ctx, []byte(createdPayload))
		require.NoError(t, err)
	}

	events, err := f.svc.List(ctx, "", 2)
	require.NoError(t, err)
	assert.Len(t, events, 2)

	events, err = f.svc.List(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

func TestPeekEventType(t *testing.T) {
	assert.Equal(t, "payment_succeeded", peekEventType([]byte(`{"event":"payment_succeeded"}`)))
	assert.Equal(t, "unknown", peekEventType([]byte(`not json`)))
	assert.Equal(t, "unknown", peekEventType([]byte(`{}`)))
}

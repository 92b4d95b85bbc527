package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/finwiselabs/finwise/internal/audit/domain"
	customerdomain "github.com/finwiselabs/finwise/internal/customer/domain"
	orderdomain "github.com/finwiselabs/finwise/internal/order/domain"
	"github.com/finwiselabs/finwise/internal/provider"
	subscriptiondomain "github.com/finwiselabs/finwise/internal/subscription/domain"
	webhookdomain "github.com/finwiselabs/finwise/internal/webhook/domain"
	"go.uber.org/zap"
)

const auditOrigin = "webhook"

// Process routes one payload to its handler. Handlers run a fixed sequence:
// customer reconcile (when present), subscription reconcile, order reconcile
// (when present), billing-status cache refresh, audit append. There is no
// cross-entity transaction; writes performed before a failure stay applied
// and the event is left for manual reprocessing.
func (s *Service) Process(ctx context.Context, raw []byte) error {
	p, err := provider.Parse(raw)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(s.serializationKey(p))
	defer unlock()

	switch p.Event {
	case provider.EventSubscriptionCreated:
		return s.handleSubscriptionCreated(ctx, p, raw)
	case provider.EventSubscriptionUpdated:
		return s.handleSubscriptionUpdated(ctx, p, raw)
	case provider.EventPaymentSucceeded:
		return s.handlePaymentSucceeded(ctx, p, raw)
	case provider.EventPaymentFailed:
		return s.handlePaymentFailed(ctx, p, raw)
	case provider.EventSubscriptionCanceled:
		return s.handleStatusTransition(ctx, p, raw, subscriptiondomain.SubscriptionStatusCanceled, auditdomain.EventTypeCanceled, "subscription canceled")
	case provider.EventSubscriptionSuspended:
		return s.handleStatusTransition(ctx, p, raw, subscriptiondomain.SubscriptionStatusPaused, auditdomain.EventTypePaused, "subscription suspended")
	case provider.EventSubscriptionResumed:
		return s.handleStatusTransition(ctx, p, raw, subscriptiondomain.SubscriptionStatusActive, auditdomain.EventTypeReactivated, "subscription resumed")
	case provider.EventSubscriptionTrialEnded:
		return s.handleTrialEnded(ctx, p, raw)
	case provider.EventPaymentRefunded:
		return s.handleOrderOverwrite(ctx, p, raw, orderdomain.OrderStatusRefunded, "order refunded")
	case provider.EventPaymentChargeback:
		return s.handleOrderOverwrite(ctx, p, raw, orderdomain.OrderStatusChargeback, "order charged back")
	}
	return provider.ErrUnknownEvent
}

// serializationKey picks the natural key events for the same entity contend
// on: the provider-qualified subscription id when present, otherwise the
// order id for order-only events.
func (s *Service) serializationKey(p *provider.Payload) string {
	if sub := p.Data.Subscription; sub != nil && sub.ID != "" {
		return s.subscriptionSvc.ProviderFor(sub.IsTest) + ":" + sub.ID
	}
	if ord := p.Data.Order; ord != nil && ord.ID != "" {
		return "order:" + ord.ID
	}
	return "event:" + p.Event
}

func (s *Service) handleSubscriptionCreated(ctx context.Context, p *provider.Payload, raw []byte) error {
	if p.Data.Customer == nil {
		return webhookErrMissingCustomer(p.Event)
	}
	if p.Data.Subscription == nil {
		return webhookErrMissingSubscription(p.Event)
	}

	customer, err := s.customerSvc.Upsert(ctx, customerRequest(p.Data.Customer))
	if err != nil {
		return err
	}

	sub, err := s.subscriptionSvc.Upsert(ctx, customer.ID, subscriptionRequest(p.Data.Subscription))
	if err != nil {
		return err
	}

	if p.Data.Order != nil {
		if _, err := s.orderSvc.Upsert(ctx, sub.ID, orderRequest(p.Data.Order)); err != nil {
			return err
		}
	}

	if err := s.customerSvc.SetBillingStatus(ctx, customer.ID, string(sub.Status)); err != nil {
		return err
	}

	s.auditSvc.Append(ctx, auditdomain.Entry{
		SubscriptionID: sub.ID,
		ClientID:       customer.ID,
		Type:           auditdomain.EventTypeCreated,
		Provider:       sub.Provider,
		Severity:       auditdomain.SeverityInfo,
		Message:        fmt.Sprintf("subscription %s created with status %s", sub.ProviderSubscriptionID, sub.Status),
		Payload:        raw,
		Origin:         auditOrigin,
	})
	return nil
}

func (s *Service) handleSubscriptionUpdated(ctx context.Context, p *provider.Payload, raw []byte) error {
	if p.Data.Subscription == nil {
		return webhookErrMissingSubscription(p.Event)
	}

	existing, err := s.resolveSubscription(ctx, p.Data.Subscription)
	if err != nil {
		return err
	}

	userID := existing.UserID
	if p.Data.Customer != nil {
		customer, err := s.customerSvc.Upsert(ctx, customerRequest(p.Data.Customer))
		if err != nil {
			return err
		}
		userID = customer.ID
	}

	sub, err := s.subscriptionSvc.Upsert(ctx, userID, subscriptionRequest(p.Data.Subscription))
	if err != nil {
		return err
	}

	if err := s.customerSvc.SetBillingStatus(ctx, sub.UserID, string(sub.Status)); err != nil {
		return err
	}

	s.auditSvc.Append(ctx, auditdomain.Entry{
		SubscriptionID: sub.ID,
		ClientID:       sub.UserID,
		Type:           auditdomain.EventTypeUpdated,
		Provider:       sub.Provider,
		Severity:       auditdomain.SeverityInfo,
		Message:        fmt.Sprintf("subscription %s updated to status %s", sub.ProviderSubscriptionID, sub.Status),
		Payload:        raw,
		Origin:         auditOrigin,
	})
	return nil
}

func (s *Service) handlePaymentSucceeded(ctx context.Context, p *provider.Payload, raw []byte) error {
	if p.Data.Subscription == nil {
		return webhookErrMissingSubscription(p.Event)
	}
	if p.Data.Order == nil {
		return webhookErrMissingOrder(p.Event)
	}

	sub, err := s.resolveSubscription(ctx, p.Data.Subscription)
	if err != nil {
		return err
	}

	if _, err := s.orderSvc.Upsert(ctx, sub.ID, orderRequest(p.Data.Order)); err != nil {
		return err
	}

	// A successful payment only clears an overdue flag; it does not touch
	// trial, paused or canceled states.
	if sub.Status == subscriptiondomain.SubscriptionStatusOverdue {
		if err := s.subscriptionSvc.UpdateStatus(ctx, sub, subscriptiondomain.SubscriptionStatusActive); err != nil {
			return err
		}
		if err := s.customerSvc.SetBillingStatus(ctx, sub.UserID, string(subscriptiondomain.SubscriptionStatusActive)); err != nil {
			return err
		}
	}

	s.auditSvc.Append(ctx, auditdomain.Entry{
		SubscriptionID: sub.ID,
		ClientID:       sub.UserID,
		Type:           auditdomain.EventTypePaymentSucceeded,
		Provider:       sub.Provider,
		Severity:       auditdomain.SeverityInfo,
		Message:        fmt.Sprintf("payment succeeded for order %s", p.Data.Order.ID),
		Payload:        raw,
		Origin:         auditOrigin,
	})
	return nil
}

func (s *Service) handlePaymentFailed(ctx context.Context, p *provider.Payload, raw []byte) error {
	if p.Data.Subscription == nil {
		return webhookErrMissingSubscription(p.Event)
	}

	sub, err := s.resolveSubscription(ctx, p.Data.Subscription)
	if err != nil {
		return err
	}

	if p.Data.Order != nil {
		if _, err := s.orderSvc.Upsert(ctx, sub.ID, orderRequest(p.Data.Order)); err != nil {
			return err
		}
	}

	if err := s.subscriptionSvc.UpdateStatus(ctx, sub, subscriptiondomain.SubscriptionStatusOverdue); err != nil {
		return err
	}
	if err := s.customerSvc.SetBillingStatus(ctx, sub.UserID, string(subscriptiondomain.SubscriptionStatusOverdue)); err != nil {
		return err
	}

	s.auditSvc.Append(ctx, auditdomain.Entry{
		SubscriptionID: sub.ID,
		ClientID:       sub.UserID,
		Type:           auditdomain.EventTypePaymentFailed,
		Provider:       sub.Provider,
		Severity:       auditdomain.SeverityWarning,
		Message:        fmt.Sprintf("payment failed for subscription %s", sub.ProviderSubscriptionID),
		Payload:        raw,
		Origin:         auditOrigin,
	})
	return nil
}

// handleStatusTransition covers canceled, suspended and resumed: one status
// write, one cache refresh, one audit record.
func (s *Service) handleStatusTransition(
	ctx context.Context,
	p *provider.Payload,
	raw []byte,
	status subscriptiondomain.SubscriptionStatus,
	auditType auditdomain.EventType,
	message string,
) error {
	if p.Data.Subscription == nil {
		return webhookErrMissingSubscription(p.Event)
	}

	sub, err := s.resolveSubscription(ctx, p.Data.Subscription)
	if err != nil {
		return err
	}

	if err := s.subscriptionSvc.UpdateStatus(ctx, sub, status); err != nil {
		return err
	}
	if err := s.customerSvc.SetBillingStatus(ctx, sub.UserID, string(status)); err != nil {
		return err
	}

	s.auditSvc.Append(ctx, auditdomain.Entry{
		SubscriptionID: sub.ID,
		ClientID:       sub.UserID,
		Type:           auditType,
		Provider:       sub.Provider,
		Severity:       auditdomain.SeverityInfo,
		Message:        fmt.Sprintf("%s (%s)", message, sub.ProviderSubscriptionID),
		Payload:        raw,
		Origin:         auditOrigin,
	})
	return nil
}

func (s *Service) handleTrialEnded(ctx context.Context, p *provider.Payload, raw []byte) error {
	if p.Data.Subscription == nil {
		return webhookErrMissingSubscription(p.Event)
	}

	sub, err := s.resolveSubscription(ctx, p.Data.Subscription)
	if err != nil {
		return err
	}

	if err := s.subscriptionSvc.EndTrial(ctx, sub, provider.TimeOrNil(p.Data.Subscription.TrialEndDate)); err != nil {
		return err
	}
	if err := s.customerSvc.SetBillingStatus(ctx, sub.UserID, string(subscriptiondomain.SubscriptionStatusActive)); err != nil {
		return err
	}

	s.auditSvc.Append(ctx, auditdomain.Entry{
		SubscriptionID: sub.ID,
		ClientID:       sub.UserID,
		Type:           auditdomain.EventTypeTrialEnded,
		Provider:       sub.Provider,
		Severity:       auditdomain.SeverityInfo,
		Message:        fmt.Sprintf("trial ended for subscription %s", sub.ProviderSubscriptionID),
		Payload:        raw,
		Origin:         auditOrigin,
	})
	return nil
}

// handleOrderOverwrite covers refunds and chargebacks: the order row is
// overwritten with the terminal status, the subscription is left untouched.
func (s *Service) handleOrderOverwrite(
	ctx context.Context,
	p *provider.Payload,
	raw []byte,
	status orderdomain.OrderStatus,
	message string,
) error {
	if p.Data.Order == nil || p.Data.Order.ID == "" {
		return webhookErrMissingOrder(p.Event)
	}

	existing, err := s.orderSvc.FindByID(ctx, p.Data.Order.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return orderdomain.ErrOrderNotFound
	}

	req := orderRequest(p.Data.Order)
	req.StatusOverride = status
	order, err := s.orderSvc.Upsert(ctx, existing.SubscriptionID, req)
	if err != nil {
		return err
	}

	var clientID snowflake.ID
	if sub, err := s.subscriptionSvc.FindByID(ctx, order.SubscriptionID); err == nil {
		clientID = sub.UserID
	} else {
		s.log.Warn("order overwrite for unknown subscription",
			zap.String("order_id", order.ID),
			zap.Int64("subscription_id", int64(order.SubscriptionID)))
	}

	s.auditSvc.Append(ctx, auditdomain.Entry{
		SubscriptionID: order.SubscriptionID,
		ClientID:       clientID,
		Type:           auditdomain.EventTypeUpdated,
		Provider:       s.subscriptionSvc.ProviderFor(false),
		Severity:       auditdomain.SeverityWarning,
		Message:        fmt.Sprintf("%s (order %s)", message, order.ID),
		Payload:        raw,
		Origin:         auditOrigin,
	})
	return nil
}

// resolveSubscription looks up the provider-qualified natural key. A miss is
// a legitimate out-of-order delivery (update before create) and surfaces as
// a not-found error so the event waits in failed state for reprocessing.
func (s *Service) resolveSubscription(ctx context.Context, data *provider.SubscriptionData) (*subscriptiondomain.Subscription, error) {
	if data.ID == "" {
		return nil, subscriptiondomain.ErrMissingSubscriptionID
	}
	providerName := s.subscriptionSvc.ProviderFor(data.IsTest)
	return s.subscriptionSvc.FindByProviderRef(ctx, providerName, data.ID)
}

func customerRequest(c *provider.CustomerData) customerdomain.UpsertRequest {
	return customerdomain.UpsertRequest{
		Email:    c.Email,
		Name:     c.Name,
		Phone:    c.Phone,
		Status:   c.Status,
		Document: c.Document,
		Metadata: c.Metadata,
	}
}

func subscriptionRequest(sub *provider.SubscriptionData) subscriptiondomain.UpsertRequest {
	return subscriptiondomain.UpsertRequest{
		ProviderSubscriptionID: sub.ID,
		PlanName:               sub.PlanName,
		Status:                 sub.Status,
		Amount:                 sub.Amount,
		Currency:               sub.Currency,
		RecurrenceDays:         sub.RecurrencePeriod.Days,
		RecurrenceRaw:          sub.RecurrencePeriod.Raw,
		TrialDays:              sub.TrialDays,
		NextPaymentDate:        provider.TimeOrNil(sub.NextPaymentDate),
		OfferID:                sub.OfferID,
		ProductID:              sub.ProductID,
		PaymentMethod:          sub.PaymentMethod,
		IsTest:                 sub.IsTest,
		Meta:                   sub.Meta,
	}
}

func orderRequest(o *provider.OrderData) orderdomain.UpsertRequest {
	details := map[string]any{}
	if o.Card != nil {
		details["card"] = o.Card
	}
	if o.Boleto != nil {
		details["boleto"] = o.Boleto
	}
	if o.Pix != nil {
		details["pix"] = o.Pix
	}
	return orderdomain.UpsertRequest{
		ID:             o.ID,
		Amount:         o.Amount,
		Status:         o.Status,
		PaidAt:         provider.TimeOrNil(o.PaidAt),
		DueDate:        provider.TimeOrNil(o.DueDate),
		PaymentMethod:  o.PaymentMethod,
		PaymentDetails: details,
		Meta:           o.Meta,
	}
}

func webhookErrMissingCustomer(event string) error {
	return fmt.Errorf("%s: %w", event, webhookdomain.ErrMissingCustomerData)
}

func webhookErrMissingSubscription(event string) error {
	return fmt.Errorf("%s: %w", event, webhookdomain.ErrMissingSubscriptionData)
}

func webhookErrMissingOrder(event string) error {
	return fmt.Errorf("%s: %w", event, webhookdomain.ErrMissingOrderData)
}

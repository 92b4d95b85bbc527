package provider

import (
	"strings"

	orderdomain "github.com/finwiselabs/finwise/internal/order/domain"
	subscriptiondomain "github.com/finwiselabs/finwise/internal/subscription/domain"
)

var subscriptionStatusTable = map[string]subscriptiondomain.SubscriptionStatus{
	"trial":     subscriptiondomain.SubscriptionStatusTrial,
	"trialing":  subscriptiondomain.SubscriptionStatusTrial,
	"active":    subscriptiondomain.SubscriptionStatusActive,
	"paused":    subscriptiondomain.SubscriptionStatusPaused,
	"canceled":  subscriptiondomain.SubscriptionStatusCanceled,
	"cancelled": subscriptiondomain.SubscriptionStatusCanceled,
	"overdue":   subscriptiondomain.SubscriptionStatusOverdue,
	"past_due":  subscriptiondomain.SubscriptionStatusOverdue,
	"late":      subscriptiondomain.SubscriptionStatusOverdue,
}

// MapSubscriptionStatus translates a provider subscription status. Unmapped
// values default to active; ok reports whether the value was in the table so
// callers can log the raw value before applying the default.
func MapSubscriptionStatus(providerStatus string) (subscriptiondomain.SubscriptionStatus, bool) {
	status, ok := subscriptionStatusTable[strings.ToLower(strings.TrimSpace(providerStatus))]
	if !ok {
		return subscriptiondomain.SubscriptionStatusActive, false
	}
	return status, true
}

var orderStatusTable = map[string]orderdomain.OrderStatus{
	"paid":        orderdomain.OrderStatusPaid,
	"approved":    orderdomain.OrderStatusPaid,
	"completed":   orderdomain.OrderStatusPaid,
	"failed":      orderdomain.OrderStatusFailed,
	"refused":     orderdomain.OrderStatusFailed,
	"declined":    orderdomain.OrderStatusFailed,
	"refunded":    orderdomain.OrderStatusRefunded,
	"chargeback":  orderdomain.OrderStatusChargeback,
	"chargedback": orderdomain.OrderStatusChargeback,
}

// MapOrderStatus translates a provider order status. Unmapped values default
// to failed; ok reports whether the value was in the table.
func MapOrderStatus(providerStatus string) (orderdomain.OrderStatus, bool) {
	status, ok := orderStatusTable[strings.ToLower(strings.TrimSpace(providerStatus))]
	if !ok {
		return orderdomain.OrderStatusFailed, false
	}
	return status, true
}

// DeriveBillingInterval maps a recurrence day-count onto a billing interval.
// 365/366 days bill yearly; 1/30/31 bill monthly. 90- and 180-day
// recurrences are collapsed to monthly, matching the provider integration as
// shipped; see DESIGN.md before changing this.
func DeriveBillingInterval(recurrenceDays, trialDays int) (string, subscriptiondomain.BillingInterval) {
	switch recurrenceDays {
	case 365, 366:
		return "yearly", subscriptiondomain.BillingIntervalYear
	case 1, 30, 31, 90, 180:
		return "monthly", subscriptiondomain.BillingIntervalMonth
	}
	// Trial-only plans report no recurrence; they bill monthly once the
	// trial converts.
	return "monthly", subscriptiondomain.BillingIntervalMonth
}

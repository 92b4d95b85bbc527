package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type SubscriptionStatus string

const (
	SubscriptionStatusTrial    SubscriptionStatus = "trial"
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusPaused   SubscriptionStatus = "paused"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
	SubscriptionStatusOverdue  SubscriptionStatus = "overdue"
)

type BillingInterval string

const (
	BillingIntervalMonth BillingInterval = "month"
	BillingIntervalYear  BillingInterval = "year"
)

// Provider namespaces. Test traffic is reconciled under the manual namespace
// so sandbox subscription ids never collide with production ids.
const (
	ProviderManual = "manual"
)

// Subscription is uniquely addressable by (provider, provider_subscription_id).
// All writes for an existing pair are updates, never new rows.
type Subscription struct {
	ID                     snowflake.ID       `json:"id" gorm:"primaryKey"`
	UserID                 snowflake.ID       `json:"user_id" gorm:"not null;index"`
	Provider               string             `json:"provider" gorm:"type:text;not null;uniqueIndex:ux_subscriptions_provider_ref,priority:1"`
	ProviderSubscriptionID string             `json:"provider_subscription_id" gorm:"type:text;not null;uniqueIndex:ux_subscriptions_provider_ref,priority:2"`
	PlanName               string             `json:"plan_name" gorm:"type:text"`
	PriceCents             int64              `json:"price_cents" gorm:"not null;default:0"`
	Currency               string             `json:"currency" gorm:"type:text;not null;default:'BRL'"`
	BillingInterval        BillingInterval    `json:"billing_interval" gorm:"type:text"`
	Status                 SubscriptionStatus `json:"status" gorm:"type:text;not null;index"`
	TrialEndsAt            *time.Time         `json:"trial_ends_at"`
	CurrentPeriodEnd       *time.Time         `json:"current_period_end"`
	Meta                   datatypes.JSONMap  `json:"meta" gorm:"type:jsonb"`
	CreatedAt              time.Time          `json:"created_at" gorm:"not null"`
	UpdatedAt              time.Time          `json:"updated_at" gorm:"not null"`
}

func (Subscription) TableName() string { return "subscriptions" }

// UpsertRequest carries the subscription block of a webhook payload after
// provider-vocabulary decoding.
type UpsertRequest struct {
	ProviderSubscriptionID string
	PlanName               string
	Status                 string // raw provider status, mapped during upsert
	Amount                 float64
	Currency               string
	RecurrenceDays         int
	RecurrenceRaw          string
	TrialDays              int
	NextPaymentDate        *time.Time
	OfferID                string
	ProductID              string
	PaymentMethod          string
	IsTest                 bool
	Meta                   map[string]any
}

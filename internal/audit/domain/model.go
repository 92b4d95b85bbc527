package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type EventType string

const (
	EventTypeCreated          EventType = "created"
	EventTypeUpdated          EventType = "updated"
	EventTypeCanceled         EventType = "canceled"
	EventTypePaused           EventType = "paused"
	EventTypeReactivated      EventType = "reactivated"
	EventTypeTrialEnded       EventType = "trial_ended"
	EventTypePaymentSucceeded EventType = "payment_succeeded"
	EventTypePaymentFailed    EventType = "payment_failed"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// SubscriptionEvent is the append-only audit trail of reconciliations. Rows
// carry the full raw payload for forensic replay and are never updated or
// deleted.
type SubscriptionEvent struct {
	ID             snowflake.ID   `json:"id" gorm:"primaryKey"`
	SubscriptionID snowflake.ID   `json:"subscription_id" gorm:"not null;index"`
	ClientID       snowflake.ID   `json:"client_id" gorm:"index"`
	Type           EventType      `json:"type" gorm:"type:text;not null;index"`
	Provider       string         `json:"provider" gorm:"type:text;not null"`
	Severity       Severity       `json:"severity" gorm:"type:text;not null;default:'info'"`
	Message        string         `json:"message" gorm:"type:text"`
	Payload        datatypes.JSON `json:"payload" gorm:"type:jsonb"`
	Origin         string         `json:"origin" gorm:"type:text"`
	CreatedAt      time.Time      `json:"created_at" gorm:"not null"`
}

func (SubscriptionEvent) TableName() string { return "subscription_events" }

// Entry is what handlers append after a reconciliation.
type Entry struct {
	SubscriptionID snowflake.ID
	ClientID       snowflake.ID
	Type           EventType
	Provider       string
	Severity       Severity
	Message        string
	Payload        []byte
	Origin         string
}

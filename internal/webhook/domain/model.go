package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type WebhookStatus string

const (
	WebhookStatusPending   WebhookStatus = "pending"
	WebhookStatusProcessed WebhookStatus = "processed"
	WebhookStatusFailed    WebhookStatus = "failed"
)

// WebhookEvent is the raw ingestion record for one delivered payload. Failed
// events keep their payload so an operator can replay them once the blocking
// condition clears.
type WebhookEvent struct {
	ID           snowflake.ID   `json:"id" gorm:"primaryKey"`
	EventType    string         `json:"event_type" gorm:"type:text;not null;index"`
	Payload      datatypes.JSON `json:"payload" gorm:"type:jsonb;not null"`
	Status       WebhookStatus  `json:"status" gorm:"type:text;not null;index;default:'pending'"`
	ReceivedAt   time.Time      `json:"received_at" gorm:"not null"`
	ProcessedAt  *time.Time     `json:"processed_at"`
	ErrorMessage string         `json:"error_message" gorm:"type:text"`
	RetryCount   int            `json:"retry_count" gorm:"not null;default:0"`
	LastRetryAt  *time.Time     `json:"last_retry_at"`
}

func (WebhookEvent) TableName() string { return "webhook_events" }

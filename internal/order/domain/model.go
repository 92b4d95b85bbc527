package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type OrderStatus string

const (
	OrderStatusPaid       OrderStatus = "paid"
	OrderStatusFailed     OrderStatus = "failed"
	OrderStatusRefunded   OrderStatus = "refunded"
	OrderStatusChargeback OrderStatus = "chargeback"
)

// Order is a payment/settlement record. The provider's order id is the
// primary key, so later webhooks for the same id overwrite the row instead
// of inserting duplicates.
type Order struct {
	ID             string            `json:"id" gorm:"primaryKey;type:text"`
	SubscriptionID snowflake.ID      `json:"subscription_id" gorm:"not null;index"`
	AmountCents    int64             `json:"amount_cents" gorm:"not null;default:0"`
	Status         OrderStatus       `json:"status" gorm:"type:text;not null;index"`
	PaidAt         *time.Time        `json:"paid_at"`
	DueDate        *time.Time        `json:"due_date"`
	PaymentMethod  string            `json:"payment_method" gorm:"type:text"`
	PaymentDetails datatypes.JSONMap `json:"payment_details" gorm:"type:jsonb"`
	Meta           datatypes.JSONMap `json:"meta" gorm:"type:jsonb"`
	CreatedAt      time.Time         `json:"created_at" gorm:"not null"`
	UpdatedAt      time.Time         `json:"updated_at" gorm:"not null"`
}

func (Order) TableName() string { return "orders" }

// UpsertRequest carries the order block of a webhook payload.
type UpsertRequest struct {
	ID            string
	Amount        float64
	Status        string // raw provider status, mapped during upsert
	PaidAt        *time.Time
	DueDate       *time.Time
	PaymentMethod string
	// Card/boleto/pix blocks, folded into one payment details map.
	PaymentDetails map[string]any
	Meta           map[string]any

	// StatusOverride forces the stored status regardless of the payload's
	// status string. Refund and chargeback handlers use it.
	StatusOverride OrderStatus
}

package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	ConnectionStatusAuthenticated = "authenticated"
)

// Customer is the application user record reconciled from billing webhooks.
// Email is the natural key; rows are created or updated here, never deleted.
type Customer struct {
	ID               snowflake.ID `json:"id" gorm:"primaryKey"`
	Email            string       `json:"email" gorm:"type:text;not null;uniqueIndex:ux_users_email"`
	FirstName        string       `json:"first_name" gorm:"type:text"`
	LastName         string       `json:"last_name" gorm:"type:text"`
	Phone            string       `json:"phone" gorm:"type:text"`
	Document         string       `json:"document" gorm:"type:text"`
	Role             string       `json:"role" gorm:"type:text;not null;default:'user'"`
	ConnectionStatus string       `json:"connection_status" gorm:"type:text"`
	// BillingStatus is a denormalized cache of the latest subscription
	// status, maintained by the webhook dispatcher for fast reads.
	BillingStatus string            `json:"billing_status" gorm:"type:text;index"`
	Metadata      datatypes.JSONMap `json:"metadata" gorm:"type:jsonb"`
	CreatedAt     time.Time         `json:"created_at" gorm:"not null"`
	UpdatedAt     time.Time         `json:"updated_at" gorm:"not null"`
}

func (Customer) TableName() string { return "users" }

// UpsertRequest carries the customer block of a webhook payload.
type UpsertRequest struct {
	Email    string
	Name     string
	Phone    string
	Status   string
	Document string
	Metadata map[string]any
}

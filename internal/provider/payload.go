// Package provider decodes the billing provider's webhook vocabulary: the
// event envelope, its loosely-typed field encodings, and the lookup tables
// that translate provider statuses and recurrence codes into the internal
// enums.
package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/finwiselabs/finwise/internal/apperr"
)

// The ten event kinds the dispatcher routes.
const (
	EventSubscriptionCreated    = "subscription_created"
	EventSubscriptionUpdated    = "subscription_updated"
	EventPaymentSucceeded       = "payment_succeeded"
	EventPaymentFailed          = "payment_failed"
	EventSubscriptionCanceled   = "subscription_canceled"
	EventSubscriptionSuspended  = "subscription_suspended"
	EventSubscriptionResumed    = "subscription_resumed"
	EventSubscriptionTrialEnded = "subscription_trial_ended"
	EventPaymentRefunded        = "payment_refunded"
	EventPaymentChargeback      = "payment_chargeback"
)

var ErrUnknownEvent = fmt.Errorf("%w: unknown_event_type", apperr.ErrValidation)
var ErrMalformedPayload = fmt.Errorf("%w: malformed_payload", apperr.ErrValidation)

// Payload is the inbound webhook envelope: one object per event.
type Payload struct {
	Event string `json:"event"`
	Data  Data   `json:"data"`
}

type Data struct {
	Customer     *CustomerData     `json:"customer,omitempty"`
	Subscription *SubscriptionData `json:"subscription,omitempty"`
	Order        *OrderData        `json:"order,omitempty"`
}

type CustomerData struct {
	Email    string         `json:"email"`
	Name     string         `json:"name"`
	Phone    string         `json:"phone"`
	Status   string         `json:"status"`
	Document string         `json:"doc_number"`
	Metadata map[string]any `json:"metadata"`
}

type SubscriptionData struct {
	ID               string           `json:"id"`
	PlanName         string           `json:"plan_name"`
	Status           string           `json:"status"`
	Amount           float64          `json:"amount"`
	Currency         string           `json:"currency"`
	RecurrencePeriod RecurrencePeriod `json:"recurrence_period"`
	TrialDays        int              `json:"trial_days"`
	TrialEndDate     *Timestamp       `json:"trial_end_date"`
	NextPaymentDate  *Timestamp       `json:"next_payment_date"`
	OfferID          string           `json:"offer_id"`
	ProductID        string           `json:"product_id"`
	PaymentMethod    string           `json:"payment_method"`
	IsTest           bool             `json:"is_test"`
	Meta             map[string]any   `json:"meta"`
}

type OrderData struct {
	ID            string         `json:"id"`
	Amount        float64        `json:"amount"`
	Status        string         `json:"status"`
	PaidAt        *Timestamp     `json:"paid_at"`
	DueDate       *Timestamp     `json:"due_date"`
	PaymentMethod string         `json:"payment_method"`
	Card          map[string]any `json:"card"`
	Boleto        map[string]any `json:"boleto"`
	Pix           map[string]any `json:"pix"`
	Meta          map[string]any `json:"meta"`
}

// Parse decodes a raw webhook body. The event kind is validated here; field
// validation stays with the handlers.
func Parse(raw []byte) (*Payload, error) {
	var p Payload
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if !KnownEvent(p.Event) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, p.Event)
	}
	return &p, nil
}

func KnownEvent(event string) bool {
	switch event {
	case EventSubscriptionCreated, EventSubscriptionUpdated,
		EventPaymentSucceeded, EventPaymentFailed,
		EventSubscriptionCanceled, EventSubscriptionSuspended,
		EventSubscriptionResumed, EventSubscriptionTrialEnded,
		EventPaymentRefunded, EventPaymentChargeback:
		return true
	}
	return false
}

// RecurrencePeriod tolerates the provider's two encodings of recurrence: a
// small integer day-count or a legacy string (numeric or a period word).
// The raw value is kept verbatim for the subscription meta block.
type RecurrencePeriod struct {
	Days int
	Raw  string
}

func (r *RecurrencePeriod) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == "" {
		*r = RecurrencePeriod{}
		return nil
	}

	if s[0] != '"' {
		days, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("recurrence_period: %w", err)
		}
		*r = RecurrencePeriod{Days: days, Raw: s}
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	r.Raw = str

	if days, err := strconv.Atoi(strings.TrimSpace(str)); err == nil {
		r.Days = days
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "weekly":
		r.Days = 7
	case "monthly":
		r.Days = 30
	case "quarterly":
		r.Days = 90
	case "semiannually":
		r.Days = 180
	case "yearly", "annually":
		r.Days = 365
	default:
		r.Days = 0
	}
	return nil
}

func (r RecurrencePeriod) MarshalJSON() ([]byte, error) {
	if r.Raw != "" {
		return json.Marshal(r.Raw)
	}
	return json.Marshal(r.Days)
}

// Timestamp accepts the date encodings seen in provider payloads: RFC 3339
// with or without offset, and bare dates.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.Format(time.RFC3339))
}

// TimeOrNil unwraps an optional payload timestamp.
func TimeOrNil(t *Timestamp) *time.Time {
	if t == nil || t.Time.IsZero() {
		return nil
	}
	out := t.Time
	return &out
}

// internal/model/notification.go
package model

import "time"

const (
	NotificationPending = "pending"
	NotificationSent    = "sent"
	NotificationFailed  = "failed"
)

// Notification tracks the confirmation email sent for a pledge.
type Notification struct {
	ID              int       `db:"id" json:"id"`
	PledgeID        int       `db:"pledge_id" json:"pledge_id"`
	CustomerID      int       `db:"customer_id" json:"customer_id"`
	Status          string    `db:"status" json:"status"` // pending, sent, failed
	RenderedContent string    `db:"rendered_content" json:"rendered_content"`
	LastError       string    `db:"last_error,omitempty" json:"last_error,omitempty"`
	RetryCount      int       `db:"retry_count" json:"retry_count"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// WebhookDelivery is the dedupe ledger row for inbound webhooks.
type WebhookDelivery struct {
	ID         int       `db:"id" json:"id"`
	Provider   string    `db:"provider" json:"provider"`
	DeliveryID string    `db:"delivery_id" json:"delivery_id"`
	Topic      string    `db:"topic" json:"topic"`
	Status     string    `db:"status" json:"status"`
	Attempts   int       `db:"attempts" json:"attempts"`
	LastError  string    `db:"last_error" json:"last_error,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

const (
	DeliveryProcessing = "processing"
	DeliveryProcessed  = "processed"
	DeliveryFailed     = "failed"
)

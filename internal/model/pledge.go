// internal/model/pledge.go
package model

import "time"

const (
	PledgePaid     = "paid"
	PledgeRefunded = "refunded"
)

type Pledge struct {
	ID              int        `db:"id" json:"id"`
	CampaignID      int        `db:"campaign_id" json:"campaign_id"`
	RewardID        *int       `db:"reward_id" json:"reward_id,omitempty"`
	CustomerID      int        `db:"customer_id" json:"customer_id"`
	Amount          int64      `db:"amount" json:"amount"`
	Currency        string     `db:"currency" json:"currency"`
	Status          string     `db:"status" json:"status"`
	Provider        string     `db:"provider" json:"provider"`
	ExternalOrderID string     `db:"external_order_id" json:"external_order_id"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// PledgeDetails joins the customer and reward a pledge references.
type PledgeDetails struct {
	Pledge
	CustomerEmail string `json:"customer_email"`
	CustomerName  string `json:"customer_name"`
	RewardTitle   string `json:"reward_title,omitempty"`
}

// Order is a paid order reported by the commerce platform.
type Order struct {
	Provider        string
	ExternalOrderID string
	CampaignID      int
	RewardID        *int
	Amount          int64
	Currency        string
	Email           string
	FirstName       string
	LastName        string
	CustomerRef     string
}

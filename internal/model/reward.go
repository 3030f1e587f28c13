// internal/model/reward.go
package model

import "time"

type Reward struct {
	ID                int        `db:"id" json:"id"`
	CampaignID        int        `db:"campaign_id" json:"campaign_id"`
	Title             string     `db:"title" json:"title"`
	Description       string     `db:"description" json:"description"`
	Amount            int64      `db:"amount" json:"amount"`
	Currency          string     `db:"currency" json:"currency"`
	EstimatedDelivery string     `db:"estimated_delivery" json:"estimated_delivery"`
	ShipsTo           string     `db:"ships_to" json:"ships_to"`
	QuantityLimit     *int       `db:"quantity_limit" json:"quantity_limit,omitempty"`
	ClaimedCount      int        `db:"claimed_count" json:"claimed_count"`
	SortOrder         int        `db:"sort_order" json:"sort_order"`
	IsActive          bool       `db:"is_active" json:"is_active"`
	ExternalVariantID string     `db:"external_variant_id" json:"external_variant_id,omitempty"`
	ImageURL          string     `db:"image_url" json:"image_url"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// Remaining is nil for unlimited rewards and never negative.
func (r *Reward) Remaining() *int {
	if r.QuantityLimit == nil {
		return nil
	}
	left := *r.QuantityLimit - r.ClaimedCount
	if left < 0 {
		left = 0
	}
	return &left
}

func (r *Reward) SoldOut() bool {
	left := r.Remaining()
	return left != nil && *left == 0
}

// RewardView is the public shape of a reward with derived stock fields.
type RewardView struct {
	Reward
	Remaining *int `json:"remaining"`
	SoldOut   bool `json:"sold_out"`
}

func NewRewardView(r Reward) RewardView {
	return RewardView{Reward: r, Remaining: r.Remaining(), SoldOut: r.SoldOut()}
}

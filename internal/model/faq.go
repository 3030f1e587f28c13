// internal/model/faq.go
package model

import "time"

type FAQItem struct {
	ID         int        `db:"id" json:"id"`
	CampaignID int        `db:"campaign_id" json:"campaign_id"`
	Question   string     `db:"question" json:"question"`
	Answer     string     `db:"answer" json:"answer"`
	SortOrder  int        `db:"sort_order" json:"sort_order"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

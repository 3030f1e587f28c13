// internal/model/community.go
package model

import "time"

type Update struct {
	ID          int        `db:"id" json:"id"`
	CampaignID  int        `db:"campaign_id" json:"campaign_id"`
	Title       string     `db:"title" json:"title"`
	Body        string     `db:"body" json:"body"`
	BackersOnly bool       `db:"backers_only" json:"backers_only"`
	PublishedAt *time.Time `db:"published_at" json:"published_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

func (u *Update) Published() bool { return u.PublishedAt != nil }

type Comment struct {
	ID             int       `db:"id" json:"id"`
	CampaignID     int       `db:"campaign_id" json:"campaign_id"`
	UpdateID       *int      `db:"update_id" json:"update_id,omitempty"`
	AuthorName     string    `db:"author_name" json:"author_name"`
	AuthorEmail    string    `db:"author_email" json:"-"`
	Body           string    `db:"body" json:"body"`
	Hidden         bool      `db:"hidden" json:"hidden,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	VerifiedBacker bool      `db:"-" json:"verified_backer"`
}

// internal/model/campaign.go
package model

import "time"

const (
	CampaignDraft = "draft"
	CampaignLive  = "live"
	CampaignEnded = "ended"
)

type Campaign struct {
	ID            int        `db:"id" json:"id"`
	Slug          string     `db:"slug" json:"slug"`
	Title         string     `db:"title" json:"title"`
	Tagline       string     `db:"tagline" json:"tagline"`
	HeroImageURL  string     `db:"hero_image_url" json:"hero_image_url"`
	HeroVideoURL  string     `db:"hero_video_url" json:"hero_video_url"`
	Story         string     `db:"story" json:"story"`
	GoalAmount    int64      `db:"goal_amount" json:"goal_amount"`
	PledgedAmount int64      `db:"pledged_amount" json:"pledged_amount"`
	BackersCount  int        `db:"backers_count" json:"backers_count"`
	Currency      string     `db:"currency" json:"currency"`
	Status        string     `db:"status" json:"status"`
	StartsAt      *time.Time `db:"starts_at" json:"starts_at,omitempty"`
	EndsAt        *time.Time `db:"ends_at" json:"ends_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// IsOpen reports whether pledges are accepted at now.
func (c *Campaign) IsOpen(now time.Time) bool {
	if c.Status != CampaignLive {
		return false
	}
	if c.StartsAt != nil && now.Before(*c.StartsAt) {
		return false
	}
	if c.EndsAt != nil && !now.Before(*c.EndsAt) {
		return false
	}
	return true
}

// PercentFunded is floored; a zero goal reports 0.
func (c *Campaign) PercentFunded() int {
	if c.GoalAmount <= 0 {
		return 0
	}
	return int(c.PledgedAmount * 100 / c.GoalAmount)
}

// DaysLeft rounds up partial days and is nil when the campaign has no end.
func (c *Campaign) DaysLeft(now time.Time) *int {
	if c.EndsAt == nil {
		return nil
	}
	remaining := c.EndsAt.Sub(now)
	days := 0
	if remaining > 0 {
		day := 24 * time.Hour
		days = int((remaining + day - 1) / day)
	}
	return &days
}

type Creator struct {
	ID            int        `db:"id" json:"id"`
	CampaignID    int        `db:"campaign_id" json:"campaign_id"`
	Name          string     `db:"name" json:"name"`
	Bio           string     `db:"bio" json:"bio"`
	AvatarURL     string     `db:"avatar_url" json:"avatar_url"`
	Location      string     `db:"location" json:"location"`
	WebsiteURL    string     `db:"website_url" json:"website_url"`
	ProjectsCount int        `db:"projects_count" json:"projects_count"`
	UpdatedAt     *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

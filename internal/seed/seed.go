// Package seed loads a campaign with its creator, rewards, FAQs and updates
// from a YAML file.
package seed

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	appErrors "github.com/unclebandit/crowdfund-backend/internal/errors"
	"github.com/unclebandit/crowdfund-backend/internal/model"
	"github.com/unclebandit/crowdfund-backend/internal/repository"
)

type File struct {
	Campaign Campaign `yaml:"campaign"`
	Creator  *Creator `yaml:"creator"`
	Rewards  []Reward `yaml:"rewards"`
	FAQs     []FAQ    `yaml:"faqs"`
	Updates  []Update `yaml:"updates"`
}

type Campaign struct {
	Slug         string     `yaml:"slug"`
	Title        string     `yaml:"title"`
	Tagline      string     `yaml:"tagline"`
	HeroImageURL string     `yaml:"hero_image_url"`
	HeroVideoURL string     `yaml:"hero_video_url"`
	Story        string     `yaml:"story"`
	GoalAmount   int64      `yaml:"goal_amount"`
	Currency     string     `yaml:"currency"`
	Status       string     `yaml:"status"`
	StartsAt     *time.Time `yaml:"starts_at"`
	EndsAt       *time.Time `yaml:"ends_at"`
}

type Creator struct {
	Name          string `yaml:"name"`
	Bio           string `yaml:"bio"`
	AvatarURL     string `yaml:"avatar_url"`
	Location      string `yaml:"location"`
	WebsiteURL    string `yaml:"website_url"`
	ProjectsCount int    `yaml:"projects_count"`
}

type Reward struct {
	Title             string `yaml:"title"`
	Description       string `yaml:"description"`
	Amount            int64  `yaml:"amount"`
	EstimatedDelivery string `yaml:"estimated_delivery"`
	ShipsTo           string `yaml:"ships_to"`
	QuantityLimit     *int   `yaml:"quantity_limit"`
	Inactive          bool   `yaml:"inactive"`
	VariantID         string `yaml:"variant_id"`
	ImageURL          string `yaml:"image_url"`
}

type FAQ struct {
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
}

type Update struct {
	Title       string     `yaml:"title"`
	Body        string     `yaml:"body"`
	BackersOnly bool       `yaml:"backers_only"`
	PublishedAt *time.Time `yaml:"published_at"`
}

// Load decodes and validates a seed file. Unknown keys are rejected so a
// typo does not silently drop content.
func Load(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) validate() error {
	if strings.TrimSpace(f.Campaign.Title) == "" {
		return appErrors.NewValidation("campaign.title", "is required")
	}
	if f.Campaign.GoalAmount < 0 {
		return appErrors.NewValidation("campaign.goal_amount", "must not be negative")
	}
	switch f.Campaign.Status {
	case "", model.CampaignDraft, model.CampaignLive, model.CampaignEnded:
	default:
		return appErrors.NewValidation("campaign.status", "must be draft, live or ended")
	}
	if f.Creator != nil && strings.TrimSpace(f.Creator.Name) == "" {
		return appErrors.NewValidation("creator.name", "is required")
	}
	for i, r := range f.Rewards {
		if strings.TrimSpace(r.Title) == "" {
			return appErrors.NewValidation(fmt.Sprintf("rewards[%d].title", i), "is required")
		}
		if r.Amount <= 0 {
			return appErrors.NewValidation(fmt.Sprintf("rewards[%d].amount", i), "must be positive")
		}
	}
	for i, q := range f.FAQs {
		if strings.TrimSpace(q.Question) == "" || strings.TrimSpace(q.Answer) == "" {
			return appErrors.NewValidation(fmt.Sprintf("faqs[%d]", i), "question and answer are required")
		}
	}
	for i, u := range f.Updates {
		if strings.TrimSpace(u.Title) == "" {
			return appErrors.NewValidation(fmt.Sprintf("updates[%d].title", i), "is required")
		}
	}
	return nil
}

// Stores are the repositories Apply writes through.
type Stores struct {
	Campaigns repository.CampaignRepositoryInterface
	Rewards   repository.RewardRepositoryInterface
	FAQs      repository.FAQRepositoryInterface
	Community repository.CommunityRepositoryInterface
}

type Result struct {
	CampaignID int
	Rewards    int
	FAQs       int
	Updates    int
}

// Apply inserts a new campaign and its content. It is not idempotent; running
// it twice creates two campaigns and the newer one becomes current.
func Apply(ctx context.Context, s Stores, f *File, logger *zap.Logger) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &model.Campaign{
		Slug:         f.Campaign.Slug,
		Title:        f.Campaign.Title,
		Tagline:      f.Campaign.Tagline,
		HeroImageURL: f.Campaign.HeroImageURL,
		HeroVideoURL: f.Campaign.HeroVideoURL,
		Story:        f.Campaign.Story,
		GoalAmount:   f.Campaign.GoalAmount,
		Currency:     strings.ToLower(f.Campaign.Currency),
		Status:       f.Campaign.Status,
		StartsAt:     f.Campaign.StartsAt,
		EndsAt:       f.Campaign.EndsAt,
	}
	if err := s.Campaigns.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create campaign: %w", err)
	}
	res := &Result{CampaignID: c.ID}
	logger.Info("seeded campaign", zap.Int("campaign_id", c.ID), zap.String("title", c.Title))

	if f.Creator != nil {
		cr := &model.Creator{
			CampaignID:    c.ID,
			Name:          f.Creator.Name,
			Bio:           f.Creator.Bio,
			AvatarURL:     f.Creator.AvatarURL,
			Location:      f.Creator.Location,
			WebsiteURL:    f.Creator.WebsiteURL,
			ProjectsCount: f.Creator.ProjectsCount,
		}
		if err := s.Campaigns.UpsertCreator(ctx, cr); err != nil {
			return res, fmt.Errorf("upsert creator: %w", err)
		}
	}

	for i, r := range f.Rewards {
		rw := &model.Reward{
			CampaignID:        c.ID,
			Title:             r.Title,
			Description:       r.Description,
			Amount:            r.Amount,
			Currency:          c.Currency,
			EstimatedDelivery: r.EstimatedDelivery,
			ShipsTo:           r.ShipsTo,
			QuantityLimit:     r.QuantityLimit,
			SortOrder:         i + 1,
			IsActive:          !r.Inactive,
			ExternalVariantID: r.VariantID,
			ImageURL:          r.ImageURL,
		}
		if err := s.Rewards.Create(ctx, rw); err != nil {
			return res, fmt.Errorf("create reward %q: %w", r.Title, err)
		}
		res.Rewards++
	}

	for i, q := range f.FAQs {
		item := &model.FAQItem{CampaignID: c.ID, Question: q.Question, Answer: q.Answer, SortOrder: i + 1}
		if err := s.FAQs.Create(ctx, item); err != nil {
			return res, fmt.Errorf("create faq %d: %w", i, err)
		}
		res.FAQs++
	}

	for _, u := range f.Updates {
		up := &model.Update{CampaignID: c.ID, Title: u.Title, Body: u.Body, BackersOnly: u.BackersOnly, PublishedAt: u.PublishedAt}
		if err := s.Community.CreateUpdate(ctx, up); err != nil {
			return res, fmt.Errorf("create update %q: %w", u.Title, err)
		}
		res.Updates++
	}

	logger.Info("seed complete",
		zap.Int("rewards", res.Rewards),
		zap.Int("faqs", res.FAQs),
		zap.Int("updates", res.Updates))
	return res, nil
}

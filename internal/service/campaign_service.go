// internal/service/campaign_service.go
package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/crowdfund-backend/internal/errors"
	"github.com/unclebandit/crowdfund-backend/internal/model"
	"github.com/unclebandit/crowdfund-backend/internal/repository"
)

const redactedBody = "This update is for backers only."

type CampaignService struct {
	CampaignRepo  repository.CampaignRepositoryInterface
	RewardRepo    repository.RewardRepositoryInterface
	FAQRepo       repository.FAQRepositoryInterface
	CommunityRepo repository.CommunityRepositoryInterface
	Logger        *zap.Logger
	Now           func() time.Time
}

// CampaignPage is everything the public campaign page renders.
type CampaignPage struct {
	Campaign      *model.Campaign    `json:"campaign"`
	Creator       *model.Creator     `json:"creator,omitempty"`
	Rewards       []model.RewardView `json:"rewards"`
	FAQs          []*model.FAQItem   `json:"faqs"`
	Updates       []*model.Update    `json:"updates"`
	CommentCount  int                `json:"comment_count"`
	PercentFunded int                `json:"percent_funded"`
	DaysLeft      *int               `json:"days_left"`
	Open          bool               `json:"open"`
}

// CampaignPatch carries the editable fields; nil leaves a field unchanged.
type CampaignPatch struct {
	Slug         *string    `json:"slug"`
	Title        *string    `json:"title"`
	Tagline      *string    `json:"tagline"`
	HeroImageURL *string    `json:"hero_image_url"`
	HeroVideoURL *string    `json:"hero_video_url"`
	Story        *string    `json:"story"`
	GoalAmount   *int64     `json:"goal_amount"`
	Currency     *string    `json:"currency"`
	Status       *string    `json:"status"`
	StartsAt     *time.Time `json:"starts_at"`
	EndsAt       *time.Time `json:"ends_at"`
	ClearEndsAt  bool       `json:"clear_ends_at"`
}

func (s *CampaignService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *CampaignService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *CampaignService) GetCurrent(ctx context.Context) (*model.Campaign, error) {
	return s.CampaignRepo.GetCurrent(ctx)
}

func (s *CampaignService) GetPage(ctx context.Context) (*CampaignPage, error) {
	campaign, err := s.CampaignRepo.GetCurrent(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()

	page := &CampaignPage{
		Campaign:      campaign,
		PercentFunded: campaign.PercentFunded(),
		DaysLeft:      campaign.DaysLeft(now),
		Open:          campaign.IsOpen(now),
	}

	creator, err := s.CampaignRepo.GetCreator(ctx, campaign.ID)
	switch {
	case err == nil:
		page.Creator = creator
	case appErrors.IsNotFound(err):
	default:
		return nil, err
	}

	rewards, err := s.RewardRepo.ListByCampaign(ctx, campaign.ID, true)
	if err != nil {
		return nil, err
	}
	page.Rewards = make([]model.RewardView, len(rewards))
	for i, r := range rewards {
		page.Rewards[i] = model.NewRewardView(*r)
	}

	if page.FAQs, err = s.FAQRepo.List(ctx, campaign.ID); err != nil {
		return nil, err
	}

	updates, err := s.CommunityRepo.ListUpdates(ctx, campaign.ID, true)
	if err != nil {
		return nil, err
	}
	page.Updates = redactBackerUpdates(updates)

	if page.CommentCount, err = s.CommunityRepo.CountComments(ctx, campaign.ID); err != nil {
		return nil, err
	}

	s.logger().Debug("campaign page built",
		zap.Int("campaign_id", campaign.ID),
		zap.Int("rewards", len(page.Rewards)),
		zap.Int("updates", len(page.Updates)))
	return page, nil
}

// redactBackerUpdates copies updates so the repository's values are not
// mutated when the body is hidden.
func redactBackerUpdates(updates []*model.Update) []*model.Update {
	out := make([]*model.Update, len(updates))
	for i, u := range updates {
		cp := *u
		if cp.BackersOnly {
			cp.Body = redactedBody
		}
		out[i] = &cp
	}
	return out
}

var (
	slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)
	validStatus = map[string]bool{model.CampaignDraft: true, model.CampaignLive: true, model.CampaignEnded: true}
)

// NormalizeSlug lower-cases and hyphenates a slug.
func NormalizeSlug(s string) string {
	return strings.Trim(slugInvalid.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-"), "-")
}

func (s *CampaignService) UpdateCampaign(ctx context.Context, patch CampaignPatch) (*model.Campaign, error) {
	c, err := s.CampaignRepo.GetCurrent(ctx)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		c.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Slug != nil {
		c.Slug = NormalizeSlug(*patch.Slug)
	}
	if patch.Tagline != nil {
		c.Tagline = strings.TrimSpace(*patch.Tagline)
	}
	if patch.HeroImageURL != nil {
		c.HeroImageURL = strings.TrimSpace(*patch.HeroImageURL)
	}
	if patch.HeroVideoURL != nil {
		c.HeroVideoURL = strings.TrimSpace(*patch.HeroVideoURL)
	}
	if patch.Story != nil {
		c.Story = *patch.Story
	}
	if patch.GoalAmount != nil {
		c.GoalAmount = *patch.GoalAmount
	}
	if patch.Currency != nil {
		c.Currency = strings.ToLower(strings.TrimSpace(*patch.Currency))
	}
	if patch.Status != nil {
		c.Status = strings.ToLower(strings.TrimSpace(*patch.Status))
	}
	if patch.StartsAt != nil {
		t := patch.StartsAt.UTC()
		c.StartsAt = &t
	}
	if patch.EndsAt != nil {
		t := patch.EndsAt.UTC()
		c.EndsAt = &t
	}
	if patch.ClearEndsAt {
		c.EndsAt = nil
	}

	if err := validateCampaign(c); err != nil {
		return nil, err
	}
	if err := s.CampaignRepo.Update(ctx, c); err != nil {
		return nil, err
	}
	s.logger().Info("campaign updated", zap.Int("campaign_id", c.ID), zap.String("status", c.Status))
	return c, nil
}

func validateCampaign(c *model.Campaign) error {
	switch {
	case c.Title == "":
		return appErrors.NewValidation("title", "is required")
	case c.Slug == "":
		return appErrors.NewValidation("slug", "is required")
	case c.GoalAmount < 0:
		return appErrors.NewValidation("goal_amount", "must not be negative")
	case !validStatus[c.Status]:
		return appErrors.NewValidation("status", "must be one of draft, live, ended")
	case c.StartsAt != nil && c.EndsAt != nil && !c.EndsAt.After(*c.StartsAt):
		return appErrors.NewValidation("ends_at", "must be after starts_at")
	}
	return nil
}

// GetCreator returns nil without error when no profile has been saved.
func (s *CampaignService) GetCreator(ctx context.Context) (*model.Creator, error) {
	c, err := s.CampaignRepo.GetCurrent(ctx)
	if err != nil {
		return nil, err
	}
	cr, err := s.CampaignRepo.GetCreator(ctx, c.ID)
	if appErrors.IsNotFound(err) {
		return nil, nil
	}
	return cr, err
}

func (s *CampaignService) UpsertCreator(ctx context.Context, cr model.Creator) (*model.Creator, error) {
	c, err := s.CampaignRepo.GetCurrent(ctx)
	if err != nil {
		return nil, err
	}
	cr.Name = strings.TrimSpace(cr.Name)
	if cr.Name == "" {
		return nil, appErrors.NewValidation("name", "is required")
	}
	if cr.ProjectsCount < 0 {
		return nil, appErrors.NewValidation("projects_count", "must not be negative")
	}
	cr.CampaignID = c.ID
	if err := s.CampaignRepo.UpsertCreator(ctx, &cr); err != nil {
		return nil, err
	}
	return &cr, nil
}

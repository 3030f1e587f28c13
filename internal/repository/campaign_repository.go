package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	appErrors "github.com/unclebandit/crowdfund-backend/internal/errors"
	"github.com/unclebandit/crowdfund-backend/internal/model"
)

type CampaignRepositoryInterface interface {
	GetCurrent(ctx context.Context) (*model.Campaign, error)
	GetByID(ctx context.Context, id int) (*model.Campaign, error)
	Create(ctx context.Context, c *model.Campaign) error
	Update(ctx context.Context, c *model.Campaign) error

	GetCreator(ctx context.Context, campaignID int) (*model.Creator, error)
	UpsertCreator(ctx context.Context, cr *model.Creator) error
}

type CampaignRepository struct {
	DB *sql.DB
}

const campaignColumns = `id, slug, title, tagline, hero_image_url, hero_video_url, story,
        goal_amount, pledged_amount, backers_count, currency, status,
        starts_at, ends_at, created_at, updated_at`

func scanCampaign(row interface{ Scan(...any) error }) (*model.Campaign, error) {
	var c model.Campaign
	err := row.Scan(
		&c.ID, &c.Slug, &c.Title, &c.Tagline, &c.HeroImageURL, &c.HeroVideoURL, &c.Story,
		&c.GoalAmount, &c.PledgedAmount, &c.BackersCount, &c.Currency, &c.Status,
		&c.StartsAt, &c.EndsAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ====================== Campaign ======================

// GetCurrent returns the newest non-draft campaign, falling back to the
// newest campaign of any status.
func (r *CampaignRepository) GetCurrent(ctx context.Context) (*model.Campaign, error) {
	query := `
        SELECT ` + campaignColumns + `
        FROM campaigns
        ORDER BY (status <> 'draft') DESC, id DESC
        LIMIT 1
    `
	c, err := scanCampaign(r.DB.QueryRowContext(ctx, query))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewNotFound("campaign", nil)
		}
		return nil, err
	}
	return c, nil
}

func (r *CampaignRepository) GetByID(ctx context.Context, id int) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id=$1`
	c, err := scanCampaign(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return c, nil
}

func (r *CampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
	c.CreatedAt = time.Now().UTC()
	if c.Status == "" {
		c.Status = model.CampaignDraft
	}
	if c.Currency == "" {
		c.Currency = "usd"
	}
	query := `
        INSERT INTO campaigns (slug, title, tagline, hero_image_url, hero_video_url, story,
            goal_amount, currency, status, starts_at, ends_at, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
        RETURNING id
    `
	return r.DB.QueryRowContext(ctx, query,
		c.Slug, c.Title, c.Tagline, c.HeroImageURL, c.HeroVideoURL, c.Story,
		c.GoalAmount, c.Currency, c.Status, c.StartsAt, c.EndsAt, c.CreatedAt,
	).Scan(&c.ID)
}

// Update writes the editable content fields. Counters are owned by the
// pledge repository and are never written here.
func (r *CampaignRepository) Update(ctx context.Context, c *model.Campaign) error {
	query := `
        UPDATE campaigns
        SET slug=$1, title=$2, tagline=$3, hero_image_url=$4, hero_video_url=$5, story=$6,
            goal_amount=$7, currency=$8, status=$9, starts_at=$10, ends_at=$11, updated_at=NOW()
        WHERE id=$12
        RETURNING updated_at
    `
	err := r.DB.QueryRowContext(ctx, query,
		c.Slug, c.Title, c.Tagline, c.HeroImageURL, c.HeroVideoURL, c.Story,
		c.GoalAmount, c.Currency, c.Status, c.StartsAt, c.EndsAt, c.ID,
	).Scan(&c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.NewCampaignNotFound(c.ID)
	}
	return err
}

// ====================== Creator ======================

func (r *CampaignRepository) GetCreator(ctx context.Context, campaignID int) (*model.Creator, error) {
	query := `
        SELECT id, campaign_id, name, bio, avatar_url, location, website_url, projects_count, updated_at
        FROM creators WHERE campaign_id=$1
    `
	var cr model.Creator
	err := r.DB.QueryRowContext(ctx, query, campaignID).Scan(
		&cr.ID, &cr.CampaignID, &cr.Name, &cr.Bio, &cr.AvatarURL,
		&cr.Location, &cr.WebsiteURL, &cr.ProjectsCount, &cr.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewNotFound("creator", nil)
		}
		return nil, err
	}
	return &cr, nil
}

func (r *CampaignRepository) UpsertCreator(ctx context.Context, cr *model.Creator) error {
	query := `
        INSERT INTO creators (campaign_id, name, bio, avatar_url, location, website_url, projects_count, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
        ON CONFLICT (campaign_id) DO UPDATE
        SET name=EXCLUDED.name, bio=EXCLUDED.bio, avatar_url=EXCLUDED.avatar_url,
            location=EXCLUDED.location, website_url=EXCLUDED.website_url,
            projects_count=EXCLUDED.projects_count, updated_at=NOW()
        RETURNING id, updated_at
    `
	return r.DB.QueryRowContext(ctx, query,
		cr.CampaignID, cr.Name, cr.Bio, cr.AvatarURL, cr.Location, cr.WebsiteURL, cr.ProjectsCount,
	).Scan(&cr.ID, &cr.UpdatedAt)
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)

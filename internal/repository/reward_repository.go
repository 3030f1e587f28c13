package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	appErrors "github.com/unclebandit/crowdfund-backend/internal/errors"
	"github.com/unclebandit/crowdfund-backend/internal/model"
)

type RewardRepositoryInterface interface {
	ListByCampaign(ctx context.Context, campaignID int, activeOnly bool) ([]*model.Reward, error)
	GetByID(ctx context.Context, id int) (*model.Reward, error)
	Create(ctx context.Context, rw *model.Reward) error
	Update(ctx context.Context, rw *model.Reward) error
	Delete(ctx context.Context, id int) error
}

type RewardRepository struct {
	DB *sql.DB
}

const rewardColumns = `id, campaign_id, title, description, amount, currency, estimated_delivery,
        ships_to, quantity_limit, claimed_count, sort_order, is_active, external_variant_id,
        image_url, created_at, updated_at`

func scanReward(row interface{ Scan(...any) error }) (*model.Reward, error) {
	var rw model.Reward
	var limit sql.NullInt64
	err := row.Scan(
		&rw.ID, &rw.CampaignID, &rw.Title, &rw.Description, &rw.Amount, &rw.Currency,
		&rw.EstimatedDelivery, &rw.ShipsTo, &limit, &rw.ClaimedCount, &rw.SortOrder,
		&rw.IsActive, &rw.ExternalVariantID, &rw.ImageURL, &rw.CreatedAt, &rw.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if limit.Valid {
		l := int(limit.Int64)
		rw.QuantityLimit = &l
	}
	return &rw, nil
}

func (r *RewardRepository) ListByCampaign(ctx context.Context, campaignID int, activeOnly bool) ([]*model.Reward, error) {
	query := `SELECT ` + rewardColumns + ` FROM rewards WHERE campaign_id=$1`
	if activeOnly {
		query += ` AND is_active`
	}
	query += ` ORDER BY sort_order, amount, id`

	rows, err := r.DB.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rewards := []*model.Reward{}
	for rows.Next() {
		rw, err := scanReward(rows)
		if err != nil {
			return nil, err
		}
		rewards = append(rewards, rw)
	}
	return rewards, rows.Err()
}

func (r *RewardRepository) GetByID(ctx context.Context, id int) (*model.Reward, error) {
	query := `SELECT ` + rewardColumns + ` FROM rewards WHERE id=$1`
	rw, err := scanReward(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewRewardNotFound(id)
		}
		return nil, err
	}
	return rw, nil
}

func (r *RewardRepository) Create(ctx context.Context, rw *model.Reward) error {
	rw.CreatedAt = time.Now().UTC()
	if rw.Currency == "" {
		rw.Currency = "usd"
	}
	query := `
        INSERT INTO rewards (campaign_id, title, description, amount, currency, estimated_delivery,
            ships_to, quantity_limit, sort_order, is_active, external_variant_id, image_url, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
        RETURNING id
    `
	return r.DB.QueryRowContext(ctx, query,
		rw.CampaignID, rw.Title, rw.Description, rw.Amount, rw.Currency, rw.EstimatedDelivery,
		rw.ShipsTo, rw.QuantityLimit, rw.SortOrder, rw.IsActive, rw.ExternalVariantID, rw.ImageURL,
		rw.CreatedAt,
	).Scan(&rw.ID)
}

// Update leaves claimed_count alone; only pledges move it.
func (r *RewardRepository) Update(ctx context.Context, rw *model.Reward) error {
	query := `
        UPDATE rewards
        SET title=$1, description=$2, amount=$3, currency=$4, estimated_delivery=$5, ships_to=$6,
            quantity_limit=$7, sort_order=$8, is_active=$9, external_variant_id=$10, image_url=$11,
            updated_at=NOW()
        WHERE id=$12
        RETURNING claimed_count, updated_at
    `
	err := r.DB.QueryRowContext(ctx, query,
		rw.Title, rw.Description, rw.Amount, rw.Currency, rw.EstimatedDelivery, rw.ShipsTo,
		rw.QuantityLimit, rw.SortOrder, rw.IsActive, rw.ExternalVariantID, rw.ImageURL, rw.ID,
	).Scan(&rw.ClaimedCount, &rw.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.NewRewardNotFound(rw.ID)
	}
	return err
}

// Delete refuses rewards that pledges still reference.
func (r *RewardRepository) Delete(ctx context.Context, id int) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM rewards WHERE id=$1`, id)
	if err != nil {
		if isPQCode(err, pqForeignKeyViolation) {
			return appErrors.NewConflict("reward %d has pledges; deactivate it instead", id)
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.NewRewardNotFound(id)
	}
	return nil
}

var _ RewardRepositoryInterface = (*RewardRepository)(nil)

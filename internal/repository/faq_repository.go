package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	appErrors "github.com/unclebandit/crowdfund-backend/internal/errors"
	"github.com/unclebandit/crowdfund-backend/internal/model"
)

type FAQRepositoryInterface interface {
	List(ctx context.Context, campaignID int) ([]*model.FAQItem, error)
	GetByID(ctx context.Context, id int) (*model.FAQItem, error)
	Create(ctx context.Context, f *model.FAQItem) error
	Update(ctx context.Context, f *model.FAQItem) error
	Delete(ctx context.Context, id int) error
	Reorder(ctx context.Context, campaignID int, ids []int) (int, error)
}

type FAQRepository struct {
	DB *sql.DB
}

func (r *FAQRepository) List(ctx context.Context, campaignID int) ([]*model.FAQItem, error) {
	query := `
        SELECT id, campaign_id, question, answer, sort_order, created_at, updated_at
        FROM faq_items WHERE campaign_id=$1
        ORDER BY sort_order, id
    `
	rows, err := r.DB.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []*model.FAQItem{}
	for rows.Next() {
		var f model.FAQItem
		if err := rows.Scan(&f.ID, &f.CampaignID, &f.Question, &f.Answer, &f.SortOrder, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, &f)
	}
	return items, rows.Err()
}

func (r *FAQRepository) GetByID(ctx context.Context, id int) (*model.FAQItem, error) {
	query := `
        SELECT id, campaign_id, question, answer, sort_order, created_at, updated_at
        FROM faq_items WHERE id=$1
    `
	var f model.FAQItem
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&f.ID, &f.CampaignID, &f.Question, &f.Answer, &f.SortOrder, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewFAQNotFound(id)
		}
		return nil, err
	}
	return &f, nil
}

// Create appends the item after the current last one when SortOrder is unset.
func (r *FAQRepository) Create(ctx context.Context, f *model.FAQItem) error {
	f.CreatedAt = time.Now().UTC()
	query := `
        INSERT INTO faq_items (campaign_id, question, answer, sort_order, created_at)
        VALUES ($1, $2, $3,
            CASE WHEN $4 > 0 THEN $4 ELSE (SELECT COALESCE(MAX(sort_order), 0) + 1 FROM faq_items WHERE campaign_id=$1) END,
            $5)
        RETURNING id, sort_order
    `
	return r.DB.QueryRowContext(ctx, query, f.CampaignID, f.Question, f.Answer, f.SortOrder, f.CreatedAt).Scan(&f.ID, &f.SortOrder)
}

func (r *FAQRepository) Update(ctx context.Context, f *model.FAQItem) error {
	query := `
        UPDATE faq_items SET question=$1, answer=$2, sort_order=$3, updated_at=NOW()
        WHERE id=$4
        RETURNING updated_at
    `
	err := r.DB.QueryRowContext(ctx, query, f.Question, f.Answer, f.SortOrder, f.ID).Scan(&f.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.NewFAQNotFound(f.ID)
	}
	return err
}

func (r *FAQRepository) Delete(ctx context.Context, id int) error {
	return deleteByID(ctx, r.DB, "faq_items", id, appErrors.NewFAQNotFound(id))
}

// Reorder sets each item's sort_order to its 1-based position in ids and
// returns how many rows of the campaign were touched.
func (r *FAQRepository) Reorder(ctx context.Context, campaignID int, ids []int) (int, error) {
	query := `
        UPDATE faq_items
        SET sort_order = array_position($1::int[], id), updated_at=NOW()
        WHERE campaign_id=$2 AND id = ANY($1::int[])
    `
	ids64 := make([]int64, len(ids))
	for i, id := range ids {
		ids64[i] = int64(id)
	}
	res, err := r.DB.ExecContext(ctx, query, pq.Array(ids64), campaignID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

var _ FAQRepositoryInterface = (*FAQRepository)(nil)

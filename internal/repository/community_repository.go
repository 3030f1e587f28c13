package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	appErrors "github.com/unclebandit/crowdfund-backend/internal/errors"
	"github.com/unclebandit/crowdfund-backend/internal/model"
)

type CommunityRepositoryInterface interface {
	// Updates
	ListUpdates(ctx context.Context, campaignID int, publishedOnly bool) ([]*model.Update, error)
	GetUpdate(ctx context.Context, id int) (*model.Update, error)
	CreateUpdate(ctx context.Context, u *model.Update) error
	SaveUpdate(ctx context.Context, u *model.Update) error
	DeleteUpdate(ctx context.Context, id int) error

	// Comments
	ListComments(ctx context.Context, campaignID int, updateID *int, includeHidden bool) ([]*model.Comment, error)
	CountComments(ctx context.Context, campaignID int) (int, error)
	CreateComment(ctx context.Context, c *model.Comment) error
	SetCommentHidden(ctx context.Context, id int, hidden bool) error
	DeleteComment(ctx context.Context, id int) error
}

type CommunityRepository struct {
	DB *sql.DB
}

// ====================== Updates ======================

const updateColumns = `id, campaign_id, title, body, backers_only, published_at, created_at, updated_at`

func scanUpdate(row interface{ Scan(...any) error }) (*model.Update, error) {
	var u model.Update
	if err := row.Scan(&u.ID, &u.CampaignID, &u.Title, &u.Body, &u.BackersOnly, &u.PublishedAt, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *CommunityRepository) ListUpdates(ctx context.Context, campaignID int, publishedOnly bool) ([]*model.Update, error) {
	query := `SELECT ` + updateColumns + ` FROM updates WHERE campaign_id=$1`
	if publishedOnly {
		query += ` AND published_at IS NOT NULL`
	}
	query += ` ORDER BY COALESCE(published_at, created_at) DESC, id DESC`

	rows, err := r.DB.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	updates := []*model.Update{}
	for rows.Next() {
		u, err := scanUpdate(rows)
		if err != nil {
			return nil, err
		}
		updates = append(updates, u)
	}
	return updates, rows.Err()
}

func (r *CommunityRepository) GetUpdate(ctx context.Context, id int) (*model.Update, error) {
	u, err := scanUpdate(r.DB.QueryRowContext(ctx, `SELECT `+updateColumns+` FROM updates WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewUpdateNotFound(id)
		}
		return nil, err
	}
	return u, nil
}

func (r *CommunityRepository) CreateUpdate(ctx context.Context, u *model.Update) error {
	u.CreatedAt = time.Now().UTC()
	query := `
        INSERT INTO updates (campaign_id, title, body, backers_only, published_at, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id
    `
	return r.DB.QueryRowContext(ctx, query, u.CampaignID, u.Title, u.Body, u.BackersOnly, u.PublishedAt, u.CreatedAt).Scan(&u.ID)
}

func (r *CommunityRepository) SaveUpdate(ctx context.Context, u *model.Update) error {
	query := `
        UPDATE updates SET title=$1, body=$2, backers_only=$3, published_at=$4, updated_at=NOW()
        WHERE id=$5
        RETURNING updated_at
    `
	err := r.DB.QueryRowContext(ctx, query, u.Title, u.Body, u.BackersOnly, u.PublishedAt, u.ID).Scan(&u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.NewUpdateNotFound(u.ID)
	}
	return err
}

func (r *CommunityRepository) DeleteUpdate(ctx context.Context, id int) error {
	return deleteByID(ctx, r.DB, "updates", id, appErrors.NewUpdateNotFound(id))
}

// ====================== Comments ======================

func (r *CommunityRepository) ListComments(ctx context.Context, campaignID int, updateID *int, includeHidden bool) ([]*model.Comment, error) {
	query := `
        SELECT id, campaign_id, update_id, author_name, author_email, body, hidden, created_at
        FROM comments WHERE campaign_id=$1`
	args := []any{campaignID}
	if updateID != nil {
		query += fmt.Sprintf(" AND update_id=$%d", len(args)+1)
		args = append(args, *updateID)
	}
	if !includeHidden {
		query += " AND NOT hidden"
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []*model.Comment{}
	for rows.Next() {
		var c model.Comment
		var upd sql.NullInt64
		if err := rows.Scan(&c.ID, &c.CampaignID, &upd, &c.AuthorName, &c.AuthorEmail, &c.Body, &c.Hidden, &c.CreatedAt); err != nil {
			return nil, err
		}
		if upd.Valid {
			id := int(upd.Int64)
			c.UpdateID = &id
		}
		comments = append(comments, &c)
	}
	return comments, rows.Err()
}

func (r *CommunityRepository) CountComments(ctx context.Context, campaignID int) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments WHERE campaign_id=$1 AND NOT hidden`, campaignID).Scan(&n)
	return n, err
}

func (r *CommunityRepository) CreateComment(ctx context.Context, c *model.Comment) error {
	c.CreatedAt = time.Now().UTC()
	c.AuthorEmail = NormalizeEmail(c.AuthorEmail)
	query := `
        INSERT INTO comments (campaign_id, update_id, author_name, author_email, body, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id
    `
	return r.DB.QueryRowContext(ctx, query, c.CampaignID, c.UpdateID, c.AuthorName, c.AuthorEmail, c.Body, c.CreatedAt).Scan(&c.ID)
}

func (r *CommunityRepository) SetCommentHidden(ctx context.Context, id int, hidden bool) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE comments SET hidden=$1 WHERE id=$2`, hidden, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return appErrors.NewCommentNotFound(id)
	}
	return nil
}

func (r *CommunityRepository) DeleteComment(ctx context.Context, id int) error {
	return deleteByID(ctx, r.DB, "comments", id, appErrors.NewCommentNotFound(id))
}

// deleteByID only ever receives table names from this package.
func deleteByID(ctx context.Context, q querier, table string, id int, notFound error) error {
	res, err := q.ExecContext(ctx, `DELETE FROM `+table+` WHERE id=$1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

var _ CommunityRepositoryInterface = (*CommunityRepository)(nil)

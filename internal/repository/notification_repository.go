package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	appErrors "github.com/unclebandit/crowdfund-backend/internal/errors"
	"github.com/unclebandit/crowdfund-backend/internal/model"
)

type NotificationRepositoryInterface interface {
	CreateForPledge(ctx context.Context, pledgeID, customerID int) (*model.Notification, error)
	GetByID(ctx context.Context, id int) (*model.Notification, error)
	Update(ctx context.Context, n *model.Notification) error
}

type NotificationRepository struct {
	DB *sql.DB
}

const notificationColumns = `id, pledge_id, customer_id, status, rendered_content, last_error, retry_count, created_at, updated_at`

func scanNotification(row interface{ Scan(...any) error }) (*model.Notification, error) {
	var n model.Notification
	err := row.Scan(
		&n.ID, &n.PledgeID, &n.CustomerID, &n.Status,
		&n.RenderedContent, &n.LastError, &n.RetryCount,
		&n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// CreateForPledge is idempotent: a second call returns the existing row.
func (r *NotificationRepository) CreateForPledge(ctx context.Context, pledgeID, customerID int) (*model.Notification, error) {
	query := `
        INSERT INTO notifications (pledge_id, customer_id, status, retry_count, created_at, updated_at)
        VALUES ($1, $2, 'pending', 0, NOW(), NOW())
        ON CONFLICT (pledge_id) DO UPDATE SET pledge_id = EXCLUDED.pledge_id
        RETURNING ` + notificationColumns
	return scanNotification(r.DB.QueryRowContext(ctx, query, pledgeID, customerID))
}

// GetByID fetches a notification by its ID
func (r *NotificationRepository) GetByID(ctx context.Context, id int) (*model.Notification, error) {
	n, err := scanNotification(r.DB.QueryRowContext(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewNotFound("notification", id)
		}
		return nil, err
	}
	return n, nil
}

// Update updates status, content, last_error and retry_count
func (r *NotificationRepository) Update(ctx context.Context, n *model.Notification) error {
	n.UpdatedAt = time.Now().UTC()
	query := `
        UPDATE notifications
        SET status=$1, rendered_content=$2, last_error=$3, retry_count=$4, updated_at=$5
        WHERE id=$6
    `
	_, err := r.DB.ExecContext(ctx, query, n.Status, n.RenderedContent, n.LastError, n.RetryCount, n.UpdatedAt, n.ID)
	return err
}

var _ NotificationRepositoryInterface = (*NotificationRepository)(nil)

package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/unclebandit/crowdfund-backend/internal/model"
)

// DeliveryLedger dedupes inbound webhook deliveries.
type DeliveryLedger interface {
	Claim(ctx context.Context, provider, deliveryID, topic string) (*model.WebhookDelivery, bool, error)
	Complete(ctx context.Context, id int) error
	Fail(ctx context.Context, id int, cause error) error
}

type WebhookDeliveryRepository struct {
	DB *sql.DB
	// Lease is how long a processing claim blocks redelivery.
	Lease time.Duration
}

const deliveryColumns = `id, provider, delivery_id, topic, status, attempts, last_error, created_at, updated_at`

func scanDelivery(row interface{ Scan(...any) error }) (*model.WebhookDelivery, error) {
	var d model.WebhookDelivery
	if err := row.Scan(&d.ID, &d.Provider, &d.DeliveryID, &d.Topic, &d.Status, &d.Attempts, &d.LastError, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

// Claim inserts a processing row for a new delivery, or re-claims a failed
// or expired one. It returns false with the existing row when the delivery
// was processed already or another claim is still live.
func (r *WebhookDeliveryRepository) Claim(ctx context.Context, provider, deliveryID, topic string) (*model.WebhookDelivery, bool, error) {
	lease := r.Lease
	if lease <= 0 {
		lease = 30 * time.Second
	}
	query := `
        INSERT INTO webhook_deliveries (provider, delivery_id, topic, status, attempts)
        VALUES ($1, $2, $3, 'processing', 1)
        ON CONFLICT (provider, delivery_id) DO UPDATE
        SET status='processing', attempts=webhook_deliveries.attempts + 1, last_error='', updated_at=NOW()
        WHERE webhook_deliveries.status = 'failed'
           OR (webhook_deliveries.status = 'processing' AND webhook_deliveries.updated_at < NOW() - make_interval(secs => $4))
        RETURNING ` + deliveryColumns

	d, err := scanDelivery(r.DB.QueryRowContext(ctx, query, provider, deliveryID, topic, lease.Seconds()))
	if err == nil {
		return d, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, err
	}

	existing, err := scanDelivery(r.DB.QueryRowContext(ctx,
		`SELECT `+deliveryColumns+` FROM webhook_deliveries WHERE provider=$1 AND delivery_id=$2`,
		provider, deliveryID))
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *WebhookDeliveryRepository) Complete(ctx context.Context, id int) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE webhook_deliveries SET status='processed', updated_at=NOW() WHERE id=$1`, id)
	return err
}

func (r *WebhookDeliveryRepository) Fail(ctx context.Context, id int, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	_, err := r.DB.ExecContext(ctx, `UPDATE webhook_deliveries SET status='failed', last_error=$1, updated_at=NOW() WHERE id=$2`, msg, id)
	return err
}

var _ DeliveryLedger = (*WebhookDeliveryRepository)(nil)

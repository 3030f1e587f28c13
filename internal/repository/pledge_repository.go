package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/unclebandit/crowdfund-backend/internal/db"
	appErrors "github.com/unclebandit/crowdfund-backend/internal/errors"
	"github.com/unclebandit/crowdfund-backend/internal/model"
)

type PledgeRepositoryInterface interface {
	// Webhook ingestion
	RecordPaid(ctx context.Context, order model.Order) (*model.Pledge, bool, error)
	Refund(ctx context.Context, provider, externalOrderID string) (*model.Pledge, bool, error)

	GetByID(ctx context.Context, id int) (*model.Pledge, error)
	List(ctx context.Context, offset, limit int, status string) ([]*model.PledgeDetails, int, error)
	Stats(ctx context.Context, campaignID int) (*PledgeStats, error)
	BackerEmails(ctx context.Context, campaignID int) (map[string]struct{}, error)
}

type PledgeRepository struct {
	DB *sql.DB
}

type PledgeStats struct {
	ByStatus      map[string]int `json:"by_status"`
	PaidAmount    int64          `json:"paid_amount"`
	RefundedTotal int64          `json:"refunded_amount"`
	RewardClaims  map[int]int    `json:"reward_claims"`
}

const pledgeColumns = `id, campaign_id, reward_id, customer_id, amount, currency, status,
        provider, external_order_id, created_at, updated_at`

func scanPledge(row interface{ Scan(...any) error }) (*model.Pledge, error) {
	var p model.Pledge
	var rewardID sql.NullInt64
	err := row.Scan(
		&p.ID, &p.CampaignID, &rewardID, &p.CustomerID, &p.Amount, &p.Currency, &p.Status,
		&p.Provider, &p.ExternalOrderID, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if rewardID.Valid {
		id := int(rewardID.Int64)
		p.RewardID = &id
	}
	return &p, nil
}

// ====================== Webhook ingestion ======================

// RecordPaid stores a paid order and moves the campaign and reward counters
// in one transaction. The bool is false when the order was already recorded,
// in which case no counter changes.
func (r *PledgeRepository) RecordPaid(ctx context.Context, order model.Order) (*model.Pledge, bool, error) {
	var (
		pledge  *model.Pledge
		created bool
	)
	err := db.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		customer := &model.Customer{
			Email:      order.Email,
			FirstName:  order.FirstName,
			LastName:   order.LastName,
			ExternalID: order.CustomerRef,
		}
		if err := upsertCustomer(ctx, tx, customer); err != nil {
			return fmt.Errorf("upsert customer: %w", err)
		}

		insert := `
            INSERT INTO pledges (campaign_id, reward_id, customer_id, amount, currency, status, provider, external_order_id)
            VALUES ($1, $2, $3, $4, $5, 'paid', $6, $7)
            ON CONFLICT (provider, external_order_id) DO NOTHING
            RETURNING ` + pledgeColumns
		p, err := scanPledge(tx.QueryRowContext(ctx, insert,
			order.CampaignID, order.RewardID, customer.ID, order.Amount, order.Currency,
			order.Provider, order.ExternalOrderID,
		))
		if errors.Is(err, sql.ErrNoRows) {
			existing, err := getPledgeByOrder(ctx, tx, order.Provider, order.ExternalOrderID)
			if err != nil {
				return err
			}
			pledge = existing
			return nil
		}
		if err != nil {
			return fmt.Errorf("insert pledge: %w", err)
		}

		if err := moveCounters(ctx, tx, p, 1); err != nil {
			return err
		}
		pledge = p
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return pledge, created, nil
}

// Refund marks a paid pledge refunded and reverses its counters. Refunding
// an already refunded pledge is a no-op reported with false.
func (r *PledgeRepository) Refund(ctx context.Context, provider, externalOrderID string) (*model.Pledge, bool, error) {
	var (
		pledge  *model.Pledge
		changed bool
	)
	err := db.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		update := `
            UPDATE pledges SET status='refunded', updated_at=NOW()
            WHERE provider=$1 AND external_order_id=$2 AND status='paid'
            RETURNING ` + pledgeColumns
		p, err := scanPledge(tx.QueryRowContext(ctx, update, provider, externalOrderID))
		if errors.Is(err, sql.ErrNoRows) {
			existing, err := getPledgeByOrder(ctx, tx, provider, externalOrderID)
			if err != nil {
				return err
			}
			pledge = existing
			return nil
		}
		if err != nil {
			return fmt.Errorf("refund pledge: %w", err)
		}

		if err := moveCounters(ctx, tx, p, -1); err != nil {
			return err
		}
		pledge = p
		changed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return pledge, changed, nil
}

// moveCounters applies one pledge (sign 1) or its reversal (sign -1).
func moveCounters(ctx context.Context, q querier, p *model.Pledge, sign int) error {
	campaignQuery := `
        UPDATE campaigns
        SET pledged_amount = GREATEST(pledged_amount + $1, 0),
            backers_count = GREATEST(backers_count + $2, 0),
            updated_at = NOW()
        WHERE id = $3
    `
	res, err := q.ExecContext(ctx, campaignQuery, int64(sign)*p.Amount, sign, p.CampaignID)
	if err != nil {
		return fmt.Errorf("update campaign counters: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewCampaignNotFound(p.CampaignID)
	}

	if p.RewardID == nil {
		return nil
	}
	rewardQuery := `
        UPDATE rewards
        SET claimed_count = GREATEST(claimed_count + $1, 0), updated_at = NOW()
        WHERE id = $2 AND campaign_id = $3
    `
	res, err = q.ExecContext(ctx, rewardQuery, sign, *p.RewardID, p.CampaignID)
	if err != nil {
		return fmt.Errorf("update reward claims: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewRewardNotFound(*p.RewardID)
	}
	return nil
}

func getPledgeByOrder(ctx context.Context, q querier, provider, externalOrderID string) (*model.Pledge, error) {
	query := `SELECT ` + pledgeColumns + ` FROM pledges WHERE provider=$1 AND external_order_id=$2`
	p, err := scanPledge(q.QueryRowContext(ctx, query, provider, externalOrderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.NewNotFound("pledge", provider+":"+externalOrderID)
	}
	return p, err
}

// ====================== Reads ======================

func (r *PledgeRepository) GetByID(ctx context.Context, id int) (*model.Pledge, error) {
	query := `SELECT ` + pledgeColumns + ` FROM pledges WHERE id=$1`
	p, err := scanPledge(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewPledgeNotFound(id)
		}
		return nil, err
	}
	return p, nil
}

func (r *PledgeRepository) List(ctx context.Context, offset, limit int, status string) ([]*model.PledgeDetails, int, error) {
	query := `
        SELECT p.id, p.campaign_id, p.reward_id, p.customer_id, p.amount, p.currency, p.status,
               p.provider, p.external_order_id, p.created_at, p.updated_at,
               c.email, TRIM(c.first_name || ' ' || c.last_name), COALESCE(rw.title, '')
        FROM pledges p
        JOIN customers c ON c.id = p.customer_id
        LEFT JOIN rewards rw ON rw.id = p.reward_id
        WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM pledges p WHERE 1=1`
	args := []any{}
	argPos := 1

	if status != "" {
		query += fmt.Sprintf(" AND p.status=$%d", argPos)
		countQuery += fmt.Sprintf(" AND p.status=$%d", argPos)
		args = append(args, status)
		argPos++
	}
	countArgs := append([]any{}, args...)

	query += fmt.Sprintf(" ORDER BY p.id DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	pledges := []*model.PledgeDetails{}
	for rows.Next() {
		var d model.PledgeDetails
		var rewardID sql.NullInt64
		if err := rows.Scan(
			&d.ID, &d.CampaignID, &rewardID, &d.CustomerID, &d.Amount, &d.Currency, &d.Status,
			&d.Provider, &d.ExternalOrderID, &d.CreatedAt, &d.UpdatedAt,
			&d.CustomerEmail, &d.CustomerName, &d.RewardTitle,
		); err != nil {
			return nil, 0, err
		}
		if rewardID.Valid {
			id := int(rewardID.Int64)
			d.RewardID = &id
		}
		pledges = append(pledges, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return pledges, total, nil
}

func (r *PledgeRepository) Stats(ctx context.Context, campaignID int) (*PledgeStats, error) {
	stats := &PledgeStats{
		ByStatus:     map[string]int{model.PledgePaid: 0, model.PledgeRefunded: 0},
		RewardClaims: map[int]int{},
	}

	rows, err := r.DB.QueryContext(ctx, `
        SELECT status, COUNT(*), COALESCE(SUM(amount), 0)
        FROM pledges WHERE campaign_id=$1
        GROUP BY status`, campaignID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var (
			status string
			count  int
			sum    int64
		)
		if err := rows.Scan(&status, &count, &sum); err != nil {
			rows.Close()
			return nil, err
		}
		stats.ByStatus[status] = count
		switch status {
		case model.PledgePaid:
			stats.PaidAmount = sum
		case model.PledgeRefunded:
			stats.RefundedTotal = sum
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.DB.QueryContext(ctx, `SELECT id, claimed_count FROM rewards WHERE campaign_id=$1`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id, claimed int
		if err := rows.Scan(&id, &claimed); err != nil {
			return nil, err
		}
		stats.RewardClaims[id] = claimed
	}
	return stats, rows.Err()
}

// BackerEmails returns the normalized emails of customers holding at least
// one paid pledge on the campaign.
func (r *PledgeRepository) BackerEmails(ctx context.Context, campaignID int) (map[string]struct{}, error) {
	query := `
        SELECT DISTINCT c.email
        FROM pledges p
        JOIN customers c ON c.id = p.customer_id
        WHERE p.campaign_id = $1 AND p.status = 'paid'
    `
	rows, err := r.DB.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	emails := map[string]struct{}{}
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		emails[NormalizeEmail(email)] = struct{}{}
	}
	return emails, rows.Err()
}

var _ PledgeRepositoryInterface = (*PledgeRepository)(nil)

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/crowdfund-backend/internal/errors"
	"github.com/unclebandit/crowdfund-backend/internal/model"
)

var pledgeCols = []string{"id", "campaign_id", "reward_id", "customer_id", "amount", "currency", "status",
	"provider", "external_order_id", "created_at", "updated_at"}

func testOrder() model.Order {
	rewardID := 4
	return model.Order{
		Provider:        "shopify",
		ExternalOrderID: "1001",
		CampaignID:      1,
		RewardID:        &rewardID,
		Amount:          2500,
		Currency:        "usd",
		Email:           " Backer@Example.com ",
		FirstName:       "Ada",
	}
}

func expectCustomerUpsert(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("INSERT INTO customers").
		WithArgs("backer@example.com", "Ada", "", "").
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name", "last_name", "external_id", "created_at"}).
			AddRow(9, "Ada", "", "", time.Now()))
}

func TestRecordPaidMovesCounters(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	now := time.Now()
	mock.ExpectBegin()
	expectCustomerUpsert(mock)
	mock.ExpectQuery("INSERT INTO pledges").
		WithArgs(1, 4, 9, int64(2500), "usd", "shopify", "1001").
		WillReturnRows(sqlmock.NewRows(pledgeCols).AddRow(55, 1, 4, 9, 2500, "usd", "paid", "shopify", "1001", now, nil))
	mock.ExpectExec("UPDATE campaigns").WithArgs(int64(2500), 1, 1).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE rewards").WithArgs(1, 4, 1).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := &PledgeRepository{DB: conn}
	p, created, err := repo.RecordPaid(context.Background(), testOrder())
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 55, p.ID)
	require.NotNil(t, p.RewardID)
	assert.Equal(t, 4, *p.RewardID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordPaidDuplicateOrderLeavesCounters(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectBegin()
	expectCustomerUpsert(mock)
	mock.ExpectQuery("INSERT INTO pledges").WillReturnRows(sqlmock.NewRows(pledgeCols))
	mock.ExpectQuery("SELECT .* FROM pledges WHERE provider").
		WithArgs("shopify", "1001").
		WillReturnRows(sqlmock.NewRows(pledgeCols).AddRow(55, 1, 4, 9, 2500, "usd", "paid", "shopify", "1001", time.Now(), nil))
	mock.ExpectCommit()

	repo := &PledgeRepository{DB: conn}
	p, created, err := repo.RecordPaid(context.Background(), testOrder())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 55, p.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordPaidRollsBackOnMissingReward(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectBegin()
	expectCustomerUpsert(mock)
	mock.ExpectQuery("INSERT INTO pledges").
		WillReturnRows(sqlmock.NewRows(pledgeCols).AddRow(55, 1, 4, 9, 2500, "usd", "paid", "shopify", "1001", time.Now(), nil))
	mock.ExpectExec("UPDATE campaigns").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE rewards").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	repo := &PledgeRepository{DB: conn}
	_, _, err = repo.RecordPaid(context.Background(), testOrder())
	assert.True(t, appErrors.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefundReversesCounters(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE pledges SET status='refunded'").
		WithArgs("shopify", "1001").
		WillReturnRows(sqlmock.NewRows(pledgeCols).AddRow(55, 1, nil, 9, 2500, "usd", "refunded", "shopify", "1001", time.Now(), time.Now()))
	mock.ExpectExec("UPDATE campaigns").WithArgs(int64(-2500), -1, 1).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := &PledgeRepository{DB: conn}
	p, changed, err := repo.Refund(context.Background(), "shopify", "1001")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Nil(t, p.RewardID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefundIsIdempotent(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE pledges SET status='refunded'").WillReturnRows(sqlmock.NewRows(pledgeCols))
	mock.ExpectQuery("SELECT .* FROM pledges WHERE provider").
		WillReturnRows(sqlmock.NewRows(pledgeCols).AddRow(55, 1, nil, 9, 2500, "usd", "refunded", "shopify", "1001", time.Now(), time.Now()))
	mock.ExpectCommit()

	repo := &PledgeRepository{DB: conn}
	p, changed, err := repo.Refund(context.Background(), "shopify", "1001")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, model.PledgeRefunded, p.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBackerEmailsNormalizes(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectQuery("SELECT DISTINCT c.email").WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"email"}).AddRow("a@example.com").AddRow(" B@Example.com"))

	repo := &PledgeRepository{DB: conn}
	emails, err := repo.BackerEmails(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, emails, 2)
	assert.Contains(t, emails, "b@example.com")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPledgesWithStatusFilter(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	cols := append(append([]string{}, pledgeCols...), "email", "name", "title")
	mock.ExpectQuery("SELECT p.id").
		WithArgs("paid", 10, 20).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(3, 1, 4, 9, 2500, "usd", "paid", "shopify", "1001", time.Now(), nil, "a@example.com", "Ada L", "Early Bird"))
	mock.ExpectQuery("SELECT COUNT").WithArgs("paid").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(21))

	repo := &PledgeRepository{DB: conn}
	pledges, total, err := repo.List(context.Background(), 20, 10, "paid")
	require.NoError(t, err)
	assert.Equal(t, 21, total)
	require.Len(t, pledges, 1)
	assert.Equal(t, "Early Bird", pledges[0].RewardTitle)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package seed

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/crowdfund-backend/internal/errors"
	"github.com/unclebandit/crowdfund-backend/internal/repository"
)

func loadTestdata(t *testing.T) *File {
	t.Helper()
	fh, err := os.Open("testdata/campaign.yaml")
	require.NoError(t, err)
	defer fh.Close()

	f, err := Load(fh)
	require.NoError(t, err)
	return f
}

func TestLoad(t *testing.T) {
	f := loadTestdata(t)

	assert.Equal(t, "Lumen Desk Lamp", f.Campaign.Title)
	assert.Equal(t, int64(2500000), f.Campaign.GoalAmount)
	require.NotNil(t, f.Campaign.EndsAt)
	assert.Equal(t, time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC), f.Campaign.EndsAt.UTC())

	require.Len(t, f.Rewards, 2)
	require.NotNil(t, f.Rewards[1].QuantityLimit)
	assert.Equal(t, 200, *f.Rewards[1].QuantityLimit)
	assert.Equal(t, "44012345678901", f.Rewards[1].VariantID)
	assert.Len(t, f.FAQs, 2)
	assert.Len(t, f.Updates, 1)
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing title", "campaign:\n  goal_amount: 10\n"},
		{"bad status", "campaign:\n  title: X\n  status: paused\n"},
		{"free reward", "campaign:\n  title: X\nrewards:\n  - title: Free\n    amount: 0\n"},
		{"creator without name", "campaign:\n  title: X\ncreator:\n  bio: hi\n"},
		{"empty faq answer", "campaign:\n  title: X\nfaqs:\n  - question: Why?\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.yaml))
			assert.True(t, appErrors.IsValidation(err), "got %v", err)
		})
	}
}

func TestLoadUnknownField(t *testing.T) {
	_, err := Load(strings.NewReader("campaign:\n  title: X\n  gaol_amount: 10\n"))
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	f := loadTestdata(t)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO campaigns").
		WithArgs("lumen-desk-lamp", "Lumen Desk Lamp", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			int64(2500000), "usd", "live", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery("INSERT INTO creators").
		WithArgs(7, "Lumen Studio", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "updated_at"}).AddRow(1, now))
	mock.ExpectQuery("INSERT INTO rewards").
		WithArgs(7, "Thank you", sqlmock.AnyArg(), int64(500), "usd", sqlmock.AnyArg(), sqlmock.AnyArg(),
			nil, 1, true, "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery("INSERT INTO rewards").
		WithArgs(7, "Early bird lamp", sqlmock.AnyArg(), int64(8900), "usd", sqlmock.AnyArg(), sqlmock.AnyArg(),
			200, 2, true, "44012345678901", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectQuery("INSERT INTO faq_items").
		WillReturnRows(sqlmock.NewRows([]string{"id", "sort_order"}).AddRow(1, 1))
	mock.ExpectQuery("INSERT INTO faq_items").
		WillReturnRows(sqlmock.NewRows([]string{"id", "sort_order"}).AddRow(2, 2))
	mock.ExpectQuery("INSERT INTO updates").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	res, err := Apply(context.Background(), Stores{
		Campaigns: &repository.CampaignRepository{DB: conn},
		Rewards:   &repository.RewardRepository{DB: conn},
		FAQs:      &repository.FAQRepository{DB: conn},
		Community: &repository.CommunityRepository{DB: conn},
	}, f, nil)
	require.NoError(t, err)

	assert.Equal(t, &Result{CampaignID: 7, Rewards: 2, FAQs: 2, Updates: 1}, res)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unclebandit/crowdfund-backend/internal/commerce"
	appErrors "github.com/unclebandit/crowdfund-backend/internal/errors"
	"github.com/unclebandit/crowdfund-backend/internal/repository"
)

// MinPledgeAmount is the smallest free-amount pledge, in minor units.
const MinPledgeAmount int64 = 100

type CheckoutService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	RewardRepo   repository.RewardRepositoryInterface
	Provider     commerce.Provider
	Logger       *zap.Logger
	Now          func() time.Time
}

type CheckoutInput struct {
	RewardID *int   `json:"reward_id"`
	Amount   int64  `json:"amount"`
	Email    string `json:"email"`
}

func (s *CheckoutService) BeginCheckout(ctx context.Context, in CheckoutInput) (*commerce.CheckoutSession, error) {
	campaign, err := s.CampaignRepo.GetCurrent(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now().UTC()
	}
	if !campaign.IsOpen(now) {
		return nil, appErrors.ErrCampaignClosed
	}

	email := repository.NormalizeEmail(in.Email)
	if email != "" && !validEmail(email) {
		return nil, appErrors.NewValidation("email", "must be a valid email address")
	}

	req := commerce.CheckoutRequest{
		Campaign:  campaign,
		Email:     email,
		Reference: uuid.NewString(),
	}

	if in.RewardID != nil {
		reward, err := s.RewardRepo.GetByID(ctx, *in.RewardID)
		if err != nil {
			return nil, err
		}
		if reward.CampaignID != campaign.ID || !reward.IsActive {
			return nil, appErrors.NewRewardNotFound(reward.ID)
		}
		if reward.SoldOut() {
			return nil, appErrors.ErrSoldOut
		}
		amount := in.Amount
		if amount == 0 {
			amount = reward.Amount
		}
		if amount < reward.Amount {
			return nil, appErrors.NewValidation("amount", "must be at least the reward amount")
		}
		req.Reward = reward
		req.Amount = amount
	} else {
		if in.Amount < MinPledgeAmount {
			return nil, appErrors.NewValidation("amount", "must be at least 100")
		}
		req.Amount = in.Amount
	}

	sess, err := s.Provider.CreateCheckout(ctx, req)
	if err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("checkout started",
			zap.String("provider", sess.Provider),
			zap.String("reference", sess.Reference),
			zap.Int64("amount", req.Amount),
			zap.Bool("reward", req.Reward != nil),
			zap.Bool("has_email", strings.TrimSpace(email) != ""))
	}
	return sess, nil
}

package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/crowdfund-backend/internal/errors"
	"github.com/unclebandit/crowdfund-backend/internal/model"
	"github.com/unclebandit/crowdfund-backend/internal/repository"
)

type RewardService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	RewardRepo   repository.RewardRepositoryInterface
	Logger       *zap.Logger
}

// List includes inactive rewards; the admin sees everything.
func (s *RewardService) List(ctx context.Context) ([]model.RewardView, error) {
	c, err := s.CampaignRepo.GetCurrent(ctx)
	if err != nil {
		return nil, err
	}
	rewards, err := s.RewardRepo.ListByCampaign(ctx, c.ID, false)
	if err != nil {
		return nil, err
	}
	views := make([]model.RewardView, len(rewards))
	for i, r := range rewards {
		views[i] = model.NewRewardView(*r)
	}
	return views, nil
}

func (s *RewardService) Create(ctx context.Context, r model.Reward) (*model.Reward, error) {
	c, err := s.CampaignRepo.GetCurrent(ctx)
	if err != nil {
		return nil, err
	}
	r.CampaignID = c.ID
	r.ClaimedCount = 0
	if r.Currency == "" {
		r.Currency = c.Currency
	}
	if err := validateReward(&r); err != nil {
		return nil, err
	}
	if err := s.RewardRepo.Create(ctx, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Update replaces the editable fields of reward id with those of in.
func (s *RewardService) Update(ctx context.Context, id int, in model.Reward) (*model.Reward, error) {
	existing, err := s.RewardRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	in.ID = existing.ID
	in.CampaignID = existing.CampaignID
	in.ClaimedCount = existing.ClaimedCount
	in.CreatedAt = existing.CreatedAt
	if in.Currency == "" {
		in.Currency = existing.Currency
	}
	if err := validateReward(&in); err != nil {
		return nil, err
	}
	if err := s.RewardRepo.Update(ctx, &in); err != nil {
		return nil, err
	}
	return &in, nil
}

func (s *RewardService) Delete(ctx context.Context, id int) error {
	if err := s.RewardRepo.Delete(ctx, id); err != nil {
		return err
	}
	if s.Logger != nil {
		s.Logger.Info("reward deleted", zap.Int("reward_id", id))
	}
	return nil
}

func validateReward(r *model.Reward) error {
	r.Title = strings.TrimSpace(r.Title)
	r.Currency = strings.ToLower(strings.TrimSpace(r.Currency))
	r.ExternalVariantID = strings.TrimSpace(r.ExternalVariantID)
	switch {
	case r.Title == "":
		return appErrors.NewValidation("title", "is required")
	case r.Amount <= 0:
		return appErrors.NewValidation("amount", "must be greater than zero")
	case r.QuantityLimit != nil && *r.QuantityLimit < r.ClaimedCount:
		return appErrors.NewValidation("quantity_limit", "cannot be below the number already claimed")
	}
	return nil
}

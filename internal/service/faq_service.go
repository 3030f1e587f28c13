package service

import (
	"context"
	"fmt"
	"strings"

	appErrors "github.com/unclebandit/crowdfund-backend/internal/errors"
	"github.com/unclebandit/crowdfund-backend/internal/model"
	"github.com/unclebandit/crowdfund-backend/internal/repository"
)

type FAQService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	FAQRepo      repository.FAQRepositoryInterface
}

func (s *FAQService) List(ctx context.Context) ([]*model.FAQItem, error) {
	c, err := s.CampaignRepo.GetCurrent(ctx)
	if err != nil {
		return nil, err
	}
	return s.FAQRepo.List(ctx, c.ID)
}

func (s *FAQService) Create(ctx context.Context, f model.FAQItem) (*model.FAQItem, error) {
	c, err := s.CampaignRepo.GetCurrent(ctx)
	if err != nil {
		return nil, err
	}
	f.CampaignID = c.ID
	if err := validateFAQ(&f); err != nil {
		return nil, err
	}
	if err := s.FAQRepo.Create(ctx, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *FAQService) Update(ctx context.Context, id int, in model.FAQItem) (*model.FAQItem, error) {
	existing, err := s.FAQRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	existing.Question = in.Question
	existing.Answer = in.Answer
	if in.SortOrder > 0 {
		existing.SortOrder = in.SortOrder
	}
	if err := validateFAQ(existing); err != nil {
		return nil, err
	}
	if err := s.FAQRepo.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *FAQService) Delete(ctx context.Context, id int) error {
	return s.FAQRepo.Delete(ctx, id)
}

// Reorder requires every id to belong to the current campaign and to appear once.
func (s *FAQService) Reorder(ctx context.Context, ids []int) ([]*model.FAQItem, error) {
	if len(ids) == 0 {
		return nil, appErrors.NewValidation("ids", "must not be empty")
	}
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return nil, appErrors.NewValidation("ids", "must not contain duplicates")
		}
		seen[id] = true
	}

	c, err := s.CampaignRepo.GetCurrent(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.FAQRepo.List(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	owned := make(map[int]bool, len(items))
	for _, f := range items {
		owned[f.ID] = true
	}
	for _, id := range ids {
		if !owned[id] {
			return nil, appErrors.NewValidation("ids", fmt.Sprintf("faq item %d does not belong to this campaign", id))
		}
	}

	if _, err := s.FAQRepo.Reorder(ctx, c.ID, ids); err != nil {
		return nil, err
	}
	return s.FAQRepo.List(ctx, c.ID)
}

func validateFAQ(f *model.FAQItem) error {
	f.Question = strings.TrimSpace(f.Question)
	f.Answer = strings.TrimSpace(f.Answer)
	if f.Question == "" {
		return appErrors.NewValidation("question", "is required")
	}
	if f.Answer == "" {
		return appErrors.NewValidation("answer", "is required")
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/unclebandit/crowdfund-backend/internal/commerce"
	appErrors "github.com/unclebandit/crowdfund-backend/internal/errors"
	"github.com/unclebandit/crowdfund-backend/internal/model"
	"github.com/unclebandit/crowdfund-backend/internal/queue"
	"github.com/unclebandit/crowdfund-backend/internal/repository"
)

type PledgeService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	RewardRepo   repository.RewardRepositoryInterface
	PledgeRepo   repository.PledgeRepositoryInterface
	CustomerRepo repository.CustomerRepositoryInterface
	Deliveries   repository.DeliveryLedger
	Queue        queue.Queue
	Logger       *zap.Logger
}

// WebhookResult tells the caller what happened to a delivery.
type WebhookResult struct {
	Provider   string `json:"provider"`
	DeliveryID string `json:"delivery_id"`
	Topic      string `json:"topic"`
	Action     string `json:"action"` // recorded, duplicate, refunded, ignored, replayed
	PledgeID   int    `json:"pledge_id,omitempty"`
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}

type CampaignStats struct {
	CampaignID    int            `json:"campaign_id"`
	PledgedAmount int64          `json:"pledged_amount"`
	GoalAmount    int64          `json:"goal_amount"`
	BackersCount  int            `json:"backers_count"`
	PercentFunded int            `json:"percent_funded"`
	ByStatus      map[string]int `json:"by_status"`
	PaidAmount    int64          `json:"paid_amount"`
	RefundedTotal int64          `json:"refunded_amount"`
	RewardClaims  map[int]int    `json:"reward_claims"`
}

func (s *PledgeService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// HandleWebhook verifies, dedupes and applies one provider delivery. A
// delivery already processed returns Action "replayed" with no side effects.
func (s *PledgeService) HandleWebhook(ctx context.Context, provider commerce.Provider, r *http.Request, body []byte) (*WebhookResult, error) {
	event, err := provider.ParseWebhook(r, body)
	if err != nil {
		return nil, err
	}
	result := &WebhookResult{Provider: event.Provider, DeliveryID: event.DeliveryID, Topic: event.Topic}
	log := s.logger().With(
		zap.String("provider", event.Provider),
		zap.String("delivery_id", event.DeliveryID),
		zap.String("topic", event.Topic))

	if event.Kind == commerce.EventIgnored {
		result.Action = "ignored"
		log.Debug("webhook topic ignored")
		return result, nil
	}

	delivery, claimed, err := s.Deliveries.Claim(ctx, event.Provider, event.DeliveryID, event.Topic)
	if err != nil {
		return nil, fmt.Errorf("claim delivery: %w", err)
	}
	if !claimed {
		result.Action = "replayed"
		log.Info("webhook delivery already handled", zap.String("status", delivery.Status))
		return result, nil
	}

	var pledge *model.Pledge
	switch event.Kind {
	case commerce.EventPaid:
		if event.Amount <= 0 {
			// Fully discounted orders carry no pledge; retrying cannot change that.
			result.Action = "ignored"
			log.Info("paid order without amount ignored", zap.String("order_id", event.ExternalOrderID))
			break
		}
		var created bool
		pledge, created, err = s.RecordPledge(ctx, event)
		if err == nil {
			result.Action = "recorded"
			if !created {
				result.Action = "duplicate"
			}
		}
	case commerce.EventRefunded:
		var changed bool
		pledge, changed, err = s.PledgeRepo.Refund(ctx, event.Provider, event.ExternalOrderID)
		switch {
		case appErrors.IsNotFound(err):
			// Cancellations of orders that were never paid, or charges
			// outside this campaign.
			err = nil
			result.Action = "ignored"
			log.Info("refund for unknown order ignored", zap.String("order_id", event.ExternalOrderID))
		case err == nil:
			result.Action = "refunded"
			if !changed {
				result.Action = "duplicate"
			}
		}
	}

	if err != nil {
		if ferr := s.Deliveries.Fail(ctx, delivery.ID, err); ferr != nil {
			log.Error("mark delivery failed", zap.Error(ferr))
		}
		log.Warn("webhook processing failed", zap.Error(err))
		return nil, err
	}
	if err := s.Deliveries.Complete(ctx, delivery.ID); err != nil {
		log.Error("mark delivery processed", zap.Error(err))
	}
	if pledge != nil {
		result.PledgeID = pledge.ID
	}

	if result.Action == "recorded" && s.Queue != nil {
		if err := s.Queue.Publish(queue.TopicPledgeCreated, queue.PledgeEvent{PledgeID: pledge.ID}); err != nil {
			log.Error("publish pledge.created", zap.Int("pledge_id", pledge.ID), zap.Error(err))
		}
	}
	log.Info("webhook processed", zap.String("action", result.Action), zap.Int("pledge_id", result.PledgeID))
	return result, nil
}

// RecordPledge resolves the campaign and reward an order refers to and
// stores it. Rewards are matched by id first, then by shop variant.
// Sold-out rewards are still recorded: the payment already happened.
func (s *PledgeService) RecordPledge(ctx context.Context, ev *commerce.OrderEvent) (*model.Pledge, bool, error) {
	if ev.ExternalOrderID == "" {
		return nil, false, appErrors.NewValidation("order_id", "is required")
	}
	if repository.NormalizeEmail(ev.Email) == "" {
		return nil, false, appErrors.NewValidation("email", "is required")
	}
	if ev.Amount <= 0 {
		return nil, false, appErrors.NewValidation("amount", "must be positive")
	}

	var (
		campaign *model.Campaign
		err      error
	)
	if ev.CampaignID > 0 {
		campaign, err = s.CampaignRepo.GetByID(ctx, ev.CampaignID)
	} else {
		campaign, err = s.CampaignRepo.GetCurrent(ctx)
	}
	if err != nil {
		return nil, false, err
	}

	rewardID, err := s.resolveReward(ctx, campaign.ID, ev)
	if err != nil {
		return nil, false, err
	}

	currency := ev.Currency
	if currency == "" {
		currency = campaign.Currency
	}
	order := model.Order{
		Provider:        ev.Provider,
		ExternalOrderID: ev.ExternalOrderID,
		CampaignID:      campaign.ID,
		RewardID:        rewardID,
		Amount:          ev.Amount,
		Currency:        currency,
		Email:           ev.Email,
		FirstName:       ev.FirstName,
		LastName:        ev.LastName,
		CustomerRef:     ev.CustomerRef,
	}
	return s.PledgeRepo.RecordPaid(ctx, order)
}

func (s *PledgeService) resolveReward(ctx context.Context, campaignID int, ev *commerce.OrderEvent) (*int, error) {
	if ev.RewardID != nil {
		r, err := s.RewardRepo.GetByID(ctx, *ev.RewardID)
		if err != nil {
			if appErrors.IsNotFound(err) {
				s.logger().Warn("order references unknown reward", zap.Int("reward_id", *ev.RewardID))
				return nil, nil
			}
			return nil, err
		}
		if r.CampaignID != campaignID {
			return nil, nil
		}
		return &r.ID, nil
	}
	if len(ev.VariantIDs) == 0 {
		return nil, nil
	}

	rewards, err := s.RewardRepo.ListByCampaign(ctx, campaignID, false)
	if err != nil {
		return nil, err
	}
	for _, v := range ev.VariantIDs {
		for _, r := range rewards {
			if r.ExternalVariantID != "" && r.ExternalVariantID == v {
				id := r.ID
				return &id, nil
			}
		}
	}
	return nil, nil
}

// ====================== Admin reports ======================

func paginate(page, pageSize int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize, (page - 1) * pageSize
}

func newPagination(page, pageSize, total int) Pagination {
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
		TotalPages: (total + pageSize - 1) / pageSize,
	}
}

// ListPledges fetches pledges with pagination
func (s *PledgeService) ListPledges(ctx context.Context, page, pageSize int, status string) ([]*model.PledgeDetails, Pagination, error) {
	switch status {
	case "", model.PledgePaid, model.PledgeRefunded:
	default:
		return nil, Pagination{}, appErrors.NewValidation("status", "must be paid or refunded")
	}
	page, pageSize, offset := paginate(page, pageSize)
	pledges, total, err := s.PledgeRepo.List(ctx, offset, pageSize, status)
	if err != nil {
		return nil, Pagination{}, err
	}
	return pledges, newPagination(page, pageSize, total), nil
}

func (s *PledgeService) ListCustomers(ctx context.Context, page, pageSize int) ([]*model.Customer, Pagination, error) {
	page, pageSize, offset := paginate(page, pageSize)
	customers, total, err := s.CustomerRepo.List(ctx, offset, pageSize)
	if err != nil {
		return nil, Pagination{}, err
	}
	return customers, newPagination(page, pageSize, total), nil
}

func (s *PledgeService) Stats(ctx context.Context) (*CampaignStats, error) {
	c, err := s.CampaignRepo.GetCurrent(ctx)
	if err != nil {
		return nil, err
	}
	st, err := s.PledgeRepo.Stats(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	return &CampaignStats{
		CampaignID:    c.ID,
		PledgedAmount: c.PledgedAmount,
		GoalAmount:    c.GoalAmount,
		BackersCount:  c.BackersCount,
		PercentFunded: c.PercentFunded(),
		ByStatus:      st.ByStatus,
		PaidAmount:    st.PaidAmount,
		RefundedTotal: st.RefundedTotal,
		RewardClaims:  st.RewardClaims,
	}, nil
}

// IsSignatureError reports whether err came from webhook verification.
func IsSignatureError(err error) bool {
	return errors.Is(err, appErrors.ErrSignatureInvalid)
}

package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/unclebandit/crowdfund-backend/internal/model"
	"github.com/unclebandit/crowdfund-backend/internal/notify"
	"github.com/unclebandit/crowdfund-backend/internal/queue"
	"github.com/unclebandit/crowdfund-backend/internal/repository"
)

// PledgeReader is the part of the pledge repository the worker reads.
type PledgeReader interface {
	GetByID(ctx context.Context, id int) (*model.Pledge, error)
}

// Worker sends the backer confirmation email for pledge.created events.
type Worker struct {
	Pledges       PledgeReader
	Customers     repository.CustomerRepositoryInterface
	Campaigns     repository.CampaignRepositoryInterface
	Rewards       repository.RewardRepositoryInterface
	Notifications repository.NotificationRepositoryInterface
	Mailer        notify.Mailer
	Logger        *zap.Logger
}

func (w *Worker) logger() *zap.Logger {
	if w.Logger == nil {
		return zap.NewNop()
	}
	return w.Logger
}

// Process is safe to call more than once per pledge: a notification already
// marked sent is skipped.
func (w *Worker) Process(ctx context.Context, pledgeID int) error {
	pledge, err := w.Pledges.GetByID(ctx, pledgeID)
	if err != nil {
		return fmt.Errorf("load pledge %d: %w", pledgeID, err)
	}
	if pledge.Status != model.PledgePaid {
		w.logger().Info("skip confirmation for unpaid pledge", zap.Int("pledge_id", pledgeID), zap.String("status", pledge.Status))
		return nil
	}

	n, err := w.Notifications.CreateForPledge(ctx, pledge.ID, pledge.CustomerID)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	if n.Status == model.NotificationSent {
		return nil
	}

	customer, err := w.Customers.GetByID(ctx, pledge.CustomerID)
	if err != nil {
		return fmt.Errorf("load customer %d: %w", pledge.CustomerID, err)
	}
	campaign, err := w.Campaigns.GetByID(ctx, pledge.CampaignID)
	if err != nil {
		return fmt.Errorf("load campaign %d: %w", pledge.CampaignID, err)
	}
	rewardTitle := ""
	if pledge.RewardID != nil {
		reward, err := w.Rewards.GetByID(ctx, *pledge.RewardID)
		if err != nil {
			return fmt.Errorf("load reward %d: %w", *pledge.RewardID, err)
		}
		rewardTitle = reward.Title
	}

	data := map[string]string{
		"first_name":     customer.FirstName,
		"campaign_title": campaign.Title,
		"reward_title":   rewardTitle,
		"amount":         FormatAmount(pledge.Amount, pledge.Currency),
	}
	n.RenderedContent = RenderTemplate(ConfirmationTemplate, data)

	sendErr := w.Mailer.Send(ctx, notify.Message{
		To:      customer.Email,
		Subject: RenderTemplate(ConfirmationSubject, data),
		Body:    n.RenderedContent,
	})
	if sendErr != nil {
		n.Status = model.NotificationFailed
		n.LastError = sendErr.Error()
		n.RetryCount++
	} else {
		n.Status = model.NotificationSent
		n.LastError = ""
	}
	if err := w.Notifications.Update(ctx, n); err != nil {
		return fmt.Errorf("update notification %d: %w", n.ID, err)
	}
	if sendErr != nil {
		return fmt.Errorf("send confirmation: %w", sendErr)
	}

	w.logger().Info("confirmation sent", zap.Int("pledge_id", pledge.ID), zap.Int("notification_id", n.ID))
	return nil
}

// Handle adapts Process to a queue subscription handler.
func (w *Worker) Handle(ctx context.Context) func(payload any) error {
	return func(payload any) error {
		id, err := queue.PledgeIDFromPayload(payload)
		if err != nil {
			w.logger().Warn("invalid job payload", zap.Error(err))
			return nil
		}
		return w.Process(ctx, id)
	}
}

// Start drains jobChan until it is closed.
func (w *Worker) Start(ctx context.Context, jobChan <-chan int) {
	for id := range jobChan {
		if err := w.Process(ctx, id); err != nil {
			w.logger().Warn("confirmation failed", zap.Int("pledge_id", id), zap.Error(err))
		}
	}
}

// internal/controller/campaign_controller.go
package controller

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/unclebandit/crowdfund-backend/internal/handler"
	"github.com/unclebandit/crowdfund-backend/internal/model"
	"github.com/unclebandit/crowdfund-backend/internal/service"
)

type CampaignService interface {
	GetCurrent(ctx context.Context) (*model.Campaign, error)
	UpdateCampaign(ctx context.Context, patch service.CampaignPatch) (*model.Campaign, error)
	GetCreator(ctx context.Context) (*model.Creator, error)
	UpsertCreator(ctx context.Context, cr model.Creator) (*model.Creator, error)
}

type CampaignController struct {
	CampaignService CampaignService
	Logger          *zap.Logger
}

func (c *CampaignController) GetCampaign(w http.ResponseWriter, r *http.Request) {
	campaign, err := c.CampaignService.GetCurrent(r.Context())
	if err != nil {
		handler.Fail(w, c.Logger, err)
		return
	}
	handler.OK(w, campaign)
}

func (c *CampaignController) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	var patch service.CampaignPatch
	if err := handler.DecodeJSON(r, &patch); err != nil {
		handler.Fail(w, c.Logger, err)
		return
	}
	campaign, err := c.CampaignService.UpdateCampaign(r.Context(), patch)
	if err != nil {
		handler.Fail(w, c.Logger, err)
		return
	}
	handler.OK(w, campaign)
}

// GetCreator answers with data null when no profile exists yet.
func (c *CampaignController) GetCreator(w http.ResponseWriter, r *http.Request) {
	cr, err := c.CampaignService.GetCreator(r.Context())
	if err != nil {
		handler.Fail(w, c.Logger, err)
		return
	}
	handler.OK(w, cr)
}

func (c *CampaignController) UpsertCreator(w http.ResponseWriter, r *http.Request) {
	var body model.Creator
	if err := handler.DecodeJSON(r, &body); err != nil {
		handler.Fail(w, c.Logger, err)
		return
	}
	cr, err := c.CampaignService.UpsertCreator(r.Context(), body)
	if err != nil {
		handler.Fail(w, c.Logger, err)
		return
	}
	handler.OK(w, cr)
}

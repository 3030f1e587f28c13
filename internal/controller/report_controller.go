package controller

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/unclebandit/crowdfund-backend/internal/handler"
	"github.com/unclebandit/crowdfund-backend/internal/model"
	"github.com/unclebandit/crowdfund-backend/internal/service"
)

type ReportService interface {
	ListPledges(ctx context.Context, page, pageSize int, status string) ([]*model.PledgeDetails, service.Pagination, error)
	ListCustomers(ctx context.Context, page, pageSize int) ([]*model.Customer, service.Pagination, error)
	Stats(ctx context.Context) (*service.CampaignStats, error)
}

type ReportController struct {
	ReportService ReportService
	Logger        *zap.Logger
}

func (c *ReportController) ListPledges(w http.ResponseWriter, r *http.Request) {
	page := handler.QueryInt(r, "page", 1)
	pageSize := handler.QueryInt(r, "page_size", 20)
	status := r.URL.Query().Get("status")

	pledges, pagination, err := c.ReportService.ListPledges(r.Context(), page, pageSize, status)
	if err != nil {
		handler.Fail(w, c.Logger, err)
		return
	}
	handler.Paged(w, pledges, pagination)
}

func (c *ReportController) ListCustomers(w http.ResponseWriter, r *http.Request) {
	page := handler.QueryInt(r, "page", 1)
	pageSize := handler.QueryInt(r, "page_size", 20)

	customers, pagination, err := c.ReportService.ListCustomers(r.Context(), page, pageSize)
	if err != nil {
		handler.Fail(w, c.Logger, err)
		return
	}
	handler.Paged(w, customers, pagination)
}

func (c *ReportController) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := c.ReportService.Stats(r.Context())
	if err != nil {
		handler.Fail(w, c.Logger, err)
		return
	}
	handler.OK(w, stats)
}

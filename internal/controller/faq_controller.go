package controller

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/unclebandit/crowdfund-backend/internal/handler"
	"github.com/unclebandit/crowdfund-backend/internal/model"
)

type FAQService interface {
	List(ctx context.Context) ([]*model.FAQItem, error)
	Create(ctx context.Context, f model.FAQItem) (*model.FAQItem, error)
	Update(ctx context.Context, id int, f model.FAQItem) (*model.FAQItem, error)
	Delete(ctx context.Context, id int) error
	Reorder(ctx context.Context, ids []int) ([]*model.FAQItem, error)
}

type FAQController struct {
	FAQService FAQService
	Logger     *zap.Logger
}

func (c *FAQController) List(w http.ResponseWriter, r *http.Request) {
	items, err := c.FAQService.List(r.Context())
	if err != nil {
		handler.Fail(w, c.Logger, err)
		return
	}
	handler.OK(w, items)
}

func (c *FAQController) Create(w http.ResponseWriter, r *http.Request) {
	var body model.FAQItem
	if err := handler.DecodeJSON(r, &body); err != nil {
		handler.Fail(w, c.Logger, err)
		return
	}
	item, err := c.FAQService.Create(r.Context(), body)
	if err != nil {
		handler.Fail(w, c.Logger, err)
		return
	}
	handler.Created(w, item)
}

func (c *FAQController) Update(w http.ResponseWriter, r *http.Request) {
	id, err := handler.IDParam(r, "id")
	if err != nil {
		handler.Fail(w, c.Logger, err)
		return
	}
	var body model.FAQItem
	if err := handler.DecodeJSON(r, &body); err != nil {
		handler.Fail(w, c.Logger, err)
		return
	}
	item, err := c.FAQService.Update(r.Context(), id, body)
	if err != nil {
		handler.Fail(w, c.Logger, err)
		return
	}
	handler.OK(w, item)
}

func (c *FAQController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := handler.IDParam(r, "id")
	if err != nil {
		handler.Fail(w, c.Logger, err)
		return
	}
	if err := c.FAQService.Delete(r.Context(), id); err != nil {
		handler.Fail(w, c.Logger, err)
		return
	}
	handler.OK(w, map[string]int{"deleted": id})
}

// Reorder takes {"ids": [3, 1, 2]}.
func (c *FAQController) Reorder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDs []int `json:"ids"`
	}
	if err := handler.DecodeJSON(r, &body); err != nil {
		handler.Fail(w, c.Logger, err)
		return
	}
	items, err := c.FAQService.Reorder(r.Context(), body.IDs)
	if err != nil {
		handler.Fail(w, c.Logger, err)
		return
	}
	handler.OK(w, items)
}

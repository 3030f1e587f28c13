package controller

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/unclebandit/crowdfund-backend/internal/handler"
	"github.com/unclebandit/crowdfund-backend/internal/model"
)

type RewardService interface {
	List(ctx context.Context) ([]model.RewardView, error)
	Create(ctx context.Context, r model.Reward) (*model.Reward, error)
	Update(ctx context.Context, id int, r model.Reward) (*model.Reward, error)
	Delete(ctx context.Context, id int) error
}

type RewardController struct {
	RewardService RewardService
	Logger        *zap.Logger
}

func (c *RewardController) List(w http.ResponseWriter, r *http.Request) {
	rewards, err := c.RewardService.List(r.Context())
	if err != nil {
		handler.Fail(w, c.Logger, err)
		return
	}
	handler.OK(w, rewards)
}

func (c *RewardController) Create(w http.ResponseWriter, r *http.Request) {
	var body model.Reward
	if err := handler.DecodeJSON(r, &body); err != nil {
		handler.Fail(w, c.Logger, err)
		return
	}
	reward, err := c.RewardService.Create(r.Context(), body)
	if err != nil {
		handler.Fail(w, c.Logger, err)
		return
	}
	handler.Created(w, model.NewRewardView(*reward))
}

func (c *RewardController) Update(w http.ResponseWriter, r *http.Request) {
	id, err := handler.IDParam(r, "id")
	if err != nil {
		handler.Fail(w, c.Logger, err)
		return
	}
	var body model.Reward
	if err := handler.DecodeJSON(r, &body); err != nil {
		handler.Fail(w, c.Logger, err)
		return
	}
	reward, err := c.RewardService.Update(r.Context(), id, body)
	if err != nil {
		handler.Fail(w, c.Logger, err)
		return
	}
	handler.OK(w, model.NewRewardView(*reward))
}

func (c *RewardController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := handler.IDParam(r, "id")
	if err != nil {
		handler.Fail(w, c.Logger, err)
		return
	}
	if err := c.RewardService.Delete(r.Context(), id); err != nil {
		handler.Fail(w, c.Logger, err)
		return
	}
	handler.OK(w, map[string]int{"deleted": id})
}

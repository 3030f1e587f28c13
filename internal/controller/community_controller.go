package controller

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/unclebandit/crowdfund-backend/internal/handler"
	"github.com/unclebandit/crowdfund-backend/internal/model"
)

type CommunityService interface {
	ListUpdates(ctx context.Context) ([]*model.Update, error)
	CreateUpdate(ctx context.Context, u model.Update) (*model.Update, error)
	EditUpdate(ctx context.Context, id int, u model.Update) (*model.Update, error)
	Publish(ctx context.Context, id int) (*model.Update, error)
	DeleteUpdate(ctx context.Context, id int) error

	ListAllComments(ctx context.Context) ([]*model.Comment, error)
	HideComment(ctx context.Context, id int, hidden bool) error
	DeleteComment(ctx context.Context, id int) error
}

type CommunityController struct {
	CommunityService CommunityService
	Logger           *zap.Logger
}

// adminComment exposes the author email that the public JSON hides.
type adminComment struct {
	*model.Comment
	AuthorEmail string `json:"author_email"`
}

func (c *CommunityController) ListUpdates(w http.ResponseWriter, r *http.Request) {
	updates, err := c.CommunityService.ListUpdates(r.Context())
	if err != nil {
		handler.Fail(w, c.Logger, err)
		return
	}
	handler.OK(w, updates)
}

func (c *CommunityController) CreateUpdate(w http.ResponseWriter, r *http.Request) {
	var body model.Update
	if err := handler.DecodeJSON(r, &body); err != nil {
		handler.Fail(w, c.Logger, err)
		return
	}
	u, err := c.CommunityService.CreateUpdate(r.Context(), body)
	if err != nil {
		handler.Fail(w, c.Logger, err)
		return
	}
	handler.Created(w, u)
}

func (c *CommunityController) EditUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := handler.IDParam(r, "id")
	if err != nil {
		handler.Fail(w, c.Logger, err)
		return
	}
	var body model.Update
	if err := handler.DecodeJSON(r, &body); err != nil {
		handler.Fail(w, c.Logger, err)
		return
	}
	u, err := c.CommunityService.EditUpdate(r.Context(), id, body)
	if err != nil {
		handler.Fail(w, c.Logger, err)
		return
	}
	handler.OK(w, u)
}

func (c *CommunityController) PublishUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := handler.IDParam(r, "id")
	if err != nil {
		handler.Fail(w, c.Logger, err)
		return
	}
	u, err := c.CommunityService.Publish(r.Context(), id)
	if err != nil {
		handler.Fail(w, c.Logger, err)
		return
	}
	handler.OK(w, u)
}

func (c *CommunityController) DeleteUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := handler.IDParam(r, "id")
	if err != nil {
		handler.Fail(w, c.Logger, err)
		return
	}
	if err := c.CommunityService.DeleteUpdate(r.Context(), id); err != nil {
		handler.Fail(w, c.Logger, err)
		return
	}
	handler.OK(w, map[string]int{"deleted": id})
}

func (c *CommunityController) ListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := c.CommunityService.ListAllComments(r.Context())
	if err != nil {
		handler.Fail(w, c.Logger, err)
		return
	}
	out := make([]adminComment, len(comments))
	for i, cm := range comments {
		out[i] = adminComment{Comment: cm, AuthorEmail: cm.AuthorEmail}
	}
	handler.OK(w, out)
}

// HideComment takes {"hidden": bool}; an empty body hides.
func (c *CommunityController) HideComment(w http.ResponseWriter, r *http.Request) {
	id, err := handler.IDParam(r, "id")
	if err != nil {
		handler.Fail(w, c.Logger, err)
		return
	}
	body := struct {
		Hidden *bool `json:"hidden"`
	}{}
	if r.ContentLength != 0 {
		if err := handler.DecodeJSON(r, &body); err != nil {
			handler.Fail(w, c.Logger, err)
			return
		}
	}
	hidden := body.Hidden == nil || *body.Hidden
	if err := c.CommunityService.HideComment(r.Context(), id, hidden); err != nil {
		handler.Fail(w, c.Logger, err)
		return
	}
	handler.OK(w, map[string]any{"id": id, "hidden": hidden})
}

func (c *CommunityController) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id, err := handler.IDParam(r, "id")
	if err != nil {
		handler.Fail(w, c.Logger, err)
		return
	}
	if err := c.CommunityService.DeleteComment(r.Context(), id); err != nil {
		handler.Fail(w, c.Logger, err)
		return
	}
	handler.OK(w, map[string]int{"deleted": id})
}

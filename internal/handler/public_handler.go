package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/unclebandit/crowdfund-backend/internal/commerce"
	"github.com/unclebandit/crowdfund-backend/internal/model"
	"github.com/unclebandit/crowdfund-backend/internal/service"
)

type PageService interface {
	GetPage(ctx context.Context) (*service.CampaignPage, error)
}

type CheckoutService interface {
	BeginCheckout(ctx context.Context, in service.CheckoutInput) (*commerce.CheckoutSession, error)
}

type CommentService interface {
	ListComments(ctx context.Context, updateID *int) ([]*model.Comment, error)
	PostComment(ctx context.Context, in service.CommentInput) (*model.Comment, error)
}

// PublicHandler serves the unauthenticated JSON API.
type PublicHandler struct {
	Page      PageService
	Checkouts CheckoutService
	Comments  CommentService
	Logger    *zap.Logger
}

// GetCampaign handles GET /api/campaign.
func (h *PublicHandler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	page, err := h.Page.GetPage(r.Context())
	if err != nil {
		Fail(w, h.Logger, err)
		return
	}
	OK(w, page)
}

func (h *PublicHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	var updateID *int
	if raw := r.URL.Query().Get("update_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			WriteJSON(w, http.StatusBadRequest, Envelope{Error: "invalid update_id"})
			return
		}
		updateID = &id
	}
	comments, err := h.Comments.ListComments(r.Context(), updateID)
	if err != nil {
		Fail(w, h.Logger, err)
		return
	}
	OK(w, comments)
}

func (h *PublicHandler) PostComment(w http.ResponseWriter, r *http.Request) {
	var in service.CommentInput
	if err := DecodeJSON(r, &in); err != nil {
		Fail(w, h.Logger, err)
		return
	}
	c, err := h.Comments.PostComment(r.Context(), in)
	if err != nil {
		Fail(w, h.Logger, err)
		return
	}
	Created(w, c)
}

// Checkout handles POST /api/checkout and answers with the shop URL.
func (h *PublicHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var in service.CheckoutInput
	if err := DecodeJSON(r, &in); err != nil {
		Fail(w, h.Logger, err)
		return
	}
	sess, err := h.Checkouts.BeginCheckout(r.Context(), in)
	if err != nil {
		Fail(w, h.Logger, err)
		return
	}
	OK(w, sess)
}

// PledgeRedirect handles GET /pledge?reward=ID[&amount=N][&email=E] for
// plain links and forms; it answers 303 to the shop.
func (h *PublicHandler) PledgeRedirect(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in := service.CheckoutInput{Email: strings.TrimSpace(q.Get("email"))}
	if raw := q.Get("reward"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "invalid reward", http.StatusBadRequest)
			return
		}
		in.RewardID = &id
	}
	if raw := q.Get("amount"); raw != "" {
		amount, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			http.Error(w, "invalid amount", http.StatusBadRequest)
			return
		}
		in.Amount = amount
	}

	sess, err := h.Checkouts.BeginCheckout(r.Context(), in)
	if err != nil {
		Fail(w, h.Logger, err)
		return
	}
	http.Redirect(w, r, sess.URL, http.StatusSeeOther)
}

package handler

import (
	"context"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/unclebandit/crowdfund-backend/internal/commerce"
	"github.com/unclebandit/crowdfund-backend/internal/service"
)

type WebhookService interface {
	HandleWebhook(ctx context.Context, provider commerce.Provider, r *http.Request, body []byte) (*service.WebhookResult, error)
}

type WebhookHandler struct {
	Service WebhookService
	Logger  *zap.Logger
}

// Receive reads the raw body before anything parses it; the signature is
// computed over those exact bytes.
func (h *WebhookHandler) Receive(provider commerce.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			WriteJSON(w, http.StatusBadRequest, Envelope{Error: "could not read body"})
			return
		}

		res, err := h.Service.HandleWebhook(r.Context(), provider, r, body)
		if err != nil {
			if service.IsSignatureError(err) && h.Logger != nil {
				h.Logger.Warn("webhook rejected",
					zap.String("provider", provider.Name()),
					zap.String("remote", r.RemoteAddr),
					zap.Error(err))
			}
			Fail(w, h.Logger, err)
			return
		}
		OK(w, res)
	}
}

package handler

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/crowdfund-backend/internal/errors"
)

type Renderer interface {
	Render(w io.Writer, name string, data any) error
}

// PageHandler renders GET / from the same data as /api/campaign.
type PageHandler struct {
	Page     PageService
	Renderer Renderer
	Logger   *zap.Logger
}

func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	page, err := h.Page.GetPage(r.Context())
	if err != nil {
		status := appErrors.HTTPStatus(err)
		if status >= http.StatusInternalServerError && h.Logger != nil {
			h.Logger.Error("render page", zap.Error(err))
		}
		http.Error(w, http.StatusText(status), status)
		return
	}

	var buf bytes.Buffer
	if err := h.Renderer.Render(&buf, "index.html", page); err != nil {
		if h.Logger != nil {
			h.Logger.Error("execute template", zap.Error(err))
		}
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	DB Pinger
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.DB.PingContext(ctx); err != nil {
		WriteJSON(w, http.StatusServiceUnavailable, Envelope{Error: "database unavailable"})
		return
	}
	OK(w, map[string]string{"status": "ok"})
}

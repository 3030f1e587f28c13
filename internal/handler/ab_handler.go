package handler

import (
	"net/http"
	"time"

	"github.com/unclebandit/crowdfund-backend/internal/service"
)

const (
	ABCookie      = "crowd_ab"
	VisitorCookie = "crowd_vid"
)

type ABHandler struct {
	AB        *service.ABService
	CookieTTL time.Duration
	Secure    bool
}

// Redirect handles GET /go. The variant cookie is only written on first
// assignment so the visitor keeps seeing the same page.
func (h *ABHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	existing := ""
	if c, err := r.Cookie(ABCookie); err == nil {
		existing = c.Value
	}

	variant, assigned := h.AB.Assign(existing)
	if assigned {
		http.SetCookie(w, h.cookie(ABCookie, variant))
	}
	if _, err := r.Cookie(VisitorCookie); err != nil {
		http.SetCookie(w, h.cookie(VisitorCookie, service.NewVisitorID()))
	}

	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, h.AB.Target(variant, r.URL.RawQuery), http.StatusFound)
}

func (h *ABHandler) cookie(name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(h.CookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

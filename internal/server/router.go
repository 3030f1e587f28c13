package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/unclebandit/crowdfund-backend/internal/auth"
	"github.com/unclebandit/crowdfund-backend/internal/commerce"
	"github.com/unclebandit/crowdfund-backend/internal/controller"
	"github.com/unclebandit/crowdfund-backend/internal/handler"
	"github.com/unclebandit/crowdfund-backend/internal/logging"
)

// Routes holds every handler the router mounts. Nil groups are skipped so
// tests can build a router with only the parts they exercise.
type Routes struct {
	Page    *handler.PageHandler
	Health  *handler.HealthHandler
	Public  *handler.PublicHandler
	AB      *handler.ABHandler
	Webhook *handler.WebhookHandler

	// Providers maps the webhook path segment to its provider.
	Providers map[string]commerce.Provider

	Auth      *auth.Authenticator
	Login     *controller.AuthController
	Campaign  *controller.CampaignController
	Rewards   *controller.RewardController
	FAQ       *controller.FAQController
	Community *controller.CommunityController
	Reports   *controller.ReportController

	AllowedOrigins []string
	Logger         *zap.Logger
}

func NewRouter(rt Routes) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(rt.Logger))
	r.Use(middleware.Recoverer)

	origins := rt.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Link"},
		MaxAge:         300,
	}))

	if rt.Page != nil {
		r.Get("/", rt.Page.Index)
	}
	if rt.Health != nil {
		r.Get("/healthz", rt.Health.Healthz)
	}
	if rt.AB != nil {
		r.Get("/go", rt.AB.Redirect)
	}

	if rt.Public != nil {
		r.Get("/pledge", rt.Public.PledgeRedirect)
		r.Route("/api", func(r chi.Router) {
			r.Get("/campaign", rt.Public.GetCampaign)
			r.Get("/comments", rt.Public.ListComments)
			r.Post("/comments", rt.Public.PostComment)
			r.Post("/checkout", rt.Public.Checkout)
		})
	}

	if rt.Webhook != nil {
		for name, p := range rt.Providers {
			r.Post("/webhooks/"+name, rt.Webhook.Receive(p))
		}
	}

	if rt.Auth != nil {
		r.Route("/admin", func(r chi.Router) {
			if rt.Login != nil {
				r.Post("/login", rt.Login.Login)
			}

			r.Group(func(r chi.Router) {
				r.Use(auth.Middleware(rt.Auth))
				mountAdmin(r, rt)
			})
		})
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		handler.WriteJSON(w, http.StatusNotFound, handler.Envelope{Error: "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		handler.WriteJSON(w, http.StatusMethodNotAllowed, handler.Envelope{Error: "method not allowed"})
	})

	return r
}

func mountAdmin(r chi.Router, rt Routes) {
	if c := rt.Campaign; c != nil {
		r.Get("/campaign", c.GetCampaign)
		r.Put("/campaign", c.UpdateCampaign)
		r.Get("/creator", c.GetCreator)
		r.Put("/creator", c.UpsertCreator)
	}

	if c := rt.Rewards; c != nil {
		r.Get("/rewards", c.List)
		r.Post("/rewards", c.Create)
		r.Put("/rewards/{id}", c.Update)
		r.Delete("/rewards/{id}", c.Delete)
	}

	if c := rt.FAQ; c != nil {
		r.Get("/faq", c.List)
		r.Post("/faq", c.Create)
		r.Put("/faq/order", c.Reorder)
		r.Put("/faq/{id}", c.Update)
		r.Delete("/faq/{id}", c.Delete)
	}

	if c := rt.Community; c != nil {
		r.Get("/updates", c.ListUpdates)
		r.Post("/updates", c.CreateUpdate)
		r.Put("/updates/{id}", c.EditUpdate)
		r.Post("/updates/{id}/publish", c.PublishUpdate)
		r.Delete("/updates/{id}", c.DeleteUpdate)

		r.Get("/comments", c.ListComments)
		r.Put("/comments/{id}/hidden", c.HideComment)
		r.Delete("/comments/{id}", c.DeleteComment)
	}

	if c := rt.Reports; c != nil {
		r.Get("/pledges", c.ListPledges)
		r.Get("/customers", c.ListCustomers)
		r.Get("/stats", c.Stats)
	}
}

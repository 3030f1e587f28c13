package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/crowdfund-backend/internal/auth"
	"github.com/unclebandit/crowdfund-backend/internal/config"
	"github.com/unclebandit/crowdfund-backend/internal/controller"
	"github.com/unclebandit/crowdfund-backend/internal/handler"
	"github.com/unclebandit/crowdfund-backend/internal/model"
	"github.com/unclebandit/crowdfund-backend/internal/notify"
	"github.com/unclebandit/crowdfund-backend/internal/server"
	"github.com/unclebandit/crowdfund-backend/internal/service"
)

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }

type stubReports struct{}

func (stubReports) ListPledges(ctx context.Context, page, pageSize int, status string) ([]*model.PledgeDetails, service.Pagination, error) {
	return nil, service.Pagination{Page: page, PageSize: pageSize}, nil
}

func (stubReports) ListCustomers(ctx context.Context, page, pageSize int) ([]*model.Customer, service.Pagination, error) {
	return nil, service.Pagination{Page: page, PageSize: pageSize}, nil
}

func (stubReports) Stats(ctx context.Context) (*service.CampaignStats, error) {
	return &service.CampaignStats{PledgedAmount: 4200, BackersCount: 3}, nil
}

type stubCommunity struct{}

func (stubCommunity) ListUpdates(ctx context.Context) ([]*model.Update, error) { return nil, nil }
func (stubCommunity) CreateUpdate(ctx context.Context, u model.Update) (*model.Update, error) {
	return &u, nil
}
func (stubCommunity) EditUpdate(ctx context.Context, id int, u model.Update) (*model.Update, error) {
	return &u, nil
}
func (stubCommunity) Publish(ctx context.Context, id int) (*model.Update, error) {
	return &model.Update{ID: id}, nil
}
func (stubCommunity) DeleteUpdate(ctx context.Context, id int) error { return nil }
func (stubCommunity) ListAllComments(ctx context.Context) ([]*model.Comment, error) {
	return []*model.Comment{{ID: 1, AuthorName: "Ada", AuthorEmail: "ada@example.com", Hidden: true}}, nil
}
func (stubCommunity) HideComment(ctx context.Context, id int, hidden bool) error { return nil }
func (stubCommunity) DeleteComment(ctx context.Context, id int) error { return nil }

func newTestRouter(t *testing.T, db handler.Pinger) (http.Handler, *auth.Authenticator) {
	t.Helper()
	hash, err := auth.HashPassword("correct horse")
	require.NoError(t, err)
	authn := auth.NewAuthenticator("admin@example.com", hash, "s3cret", time.Hour)

	r := server.NewRouter(server.Routes{
		Health:         &handler.HealthHandler{DB: db},
		AB:             &handler.ABHandler{AB: service.NewABService("https://a.example/", "https://b.example/", 100, 1), CookieTTL: time.Hour},
		Auth:           authn,
		Login:          &controller.AuthController{Auth: authn},
		Reports:        &controller.ReportController{ReportService: stubReports{}},
		Community:      &controller.CommunityController{CommunityService: stubCommunity{}},
		AllowedOrigins: []string{"https://shop.example"},
	})
	return r, authn
}

func TestHealthz(t *testing.T) {
	r, _ := newTestRouter(t, pinger{})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	r, _ = newTestRouter(t, pinger{err: errors.New("down")})
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAdminRequiresToken(t *testing.T) {
	r, authn := newTestRouter(t, pinger{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, _, err := authn.Issue("admin@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool                  `json:"success"`
		Data    service.CampaignStats `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, int64(4200), body.Data.PledgedAmount)
}

func TestAdminCommentsIncludeAuthorEmail(t *testing.T) {
	r, authn := newTestRouter(t, pinger{})
	token, _, err := authn.Issue("admin@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin/comments", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []struct {
			ID          int    `json:"id"`
			AuthorEmail string `json:"author_email"`
			Hidden      bool   `json:"hidden"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "ada@example.com", body.Data[0].AuthorEmail)
	assert.True(t, body.Data[0].Hidden)
}

func TestLoginRouteIsPublic(t *testing.T) {
	r, _ := newTestRouter(t, pinger{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(`{"email":"admin@example.com","password":"correct horse"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestABRedirectRoute(t *testing.T) {
	r, _ := newTestRouter(t, pinger{})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/go?utm_source=ig", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://a.example/?utm_source=ig", rec.Header().Get("Location"))
}

func TestCORSPreflight(t *testing.T) {
	r, _ := newTestRouter(t, pinger{})
	req := httptest.NewRequest(http.MethodOptions, "/admin/stats", nil)
	req.Header.Set("Origin", "https://shop.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "https://shop.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	r, _ := newTestRouter(t, pinger{})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"not found"}`, rec.Body.String())
}

func TestNewProvider(t *testing.T) {
	p, err := server.NewProvider(config.CommerceConfig{Provider: config.ProviderShopify, ShopifyStoreDomain: "shop.example", ShopifyWebhookSecret: "x"})
	require.NoError(t, err)
	assert.Equal(t, "shopify", p.Name())

	p, err = server.NewProvider(config.CommerceConfig{Provider: config.ProviderStripe, StripeKey: "sk_test", StripeWebhookSecret: "whsec"})
	require.NoError(t, err)
	assert.Equal(t, "stripe", p.Name())

	_, err = server.NewProvider(config.CommerceConfig{Provider: "paypal"})
	assert.Error(t, err)
}

func TestNewMailerFallsBackToLog(t *testing.T) {
	m := server.NewMailer(config.MailConfig{}, nil)
	_, ok := m.(notify.LogMailer)
	assert.True(t, ok)

	m = server.NewMailer(config.MailConfig{Domain: "mg.example", APIKey: "key", Sender: "a@b.c"}, nil)
	_, ok = m.(*notify.MailgunMailer)
	assert.True(t, ok)
}

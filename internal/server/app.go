package server

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/unclebandit/crowdfund-backend/internal/auth"
	"github.com/unclebandit/crowdfund-backend/internal/commerce"
	"github.com/unclebandit/crowdfund-backend/internal/config"
	"github.com/unclebandit/crowdfund-backend/internal/controller"
	"github.com/unclebandit/crowdfund-backend/internal/handler"
	"github.com/unclebandit/crowdfund-backend/internal/notify"
	"github.com/unclebandit/crowdfund-backend/internal/queue"
	"github.com/unclebandit/crowdfund-backend/internal/repository"
	"github.com/unclebandit/crowdfund-backend/internal/service"
	"github.com/unclebandit/crowdfund-backend/internal/web"
)

// Repositories are the Postgres-backed stores shared by the server, the
// worker and crowdctl.
type Repositories struct {
	Campaigns     *repository.CampaignRepository
	Rewards       *repository.RewardRepository
	FAQs          *repository.FAQRepository
	Community     *repository.CommunityRepository
	Customers     *repository.CustomerRepository
	Pledges       *repository.PledgeRepository
	Notifications *repository.NotificationRepository
	Deliveries    *repository.WebhookDeliveryRepository
}

func NewRepositories(conn *sql.DB) *Repositories {
	return &Repositories{
		Campaigns:     &repository.CampaignRepository{DB: conn},
		Rewards:       &repository.RewardRepository{DB: conn},
		FAQs:          &repository.FAQRepository{DB: conn},
		Community:     &repository.CommunityRepository{DB: conn},
		Customers:     &repository.CustomerRepository{DB: conn},
		Pledges:       &repository.PledgeRepository{DB: conn},
		Notifications: &repository.NotificationRepository{DB: conn},
		Deliveries:    &repository.WebhookDeliveryRepository{DB: conn, Lease: 5 * time.Minute},
	}
}

// NewProvider builds the commerce provider selected by COMMERCE_PROVIDER.
func NewProvider(cfg config.CommerceConfig) (commerce.Provider, error) {
	switch cfg.Provider {
	case config.ProviderShopify:
		return commerce.NewShopify(commerce.ShopifyConfig{
			StoreDomain:       cfg.ShopifyStoreDomain,
			WebhookSecret:     cfg.ShopifyWebhookSecret,
			DonationVariantID: cfg.ShopifyDonationVariantID,
		}), nil
	case config.ProviderStripe:
		return commerce.NewStripe(commerce.StripeConfig{
			SecretKey:     cfg.StripeKey,
			WebhookSecret: cfg.StripeWebhookSecret,
			SuccessURL:    cfg.SuccessURL,
			CancelURL:     cfg.CancelURL,
		}), nil
	default:
		return nil, fmt.Errorf("unknown commerce provider %q", cfg.Provider)
	}
}

// NewMailer sends through Mailgun when a key is configured and only logs
// otherwise.
func NewMailer(cfg config.MailConfig, logger *zap.Logger) notify.Mailer {
	if cfg.APIKey == "" || cfg.Domain == "" {
		return notify.LogMailer{Logger: logger}
	}
	return notify.NewMailgunMailer(cfg.Domain, cfg.APIKey, cfg.Sender, logger)
}

// NewWorker wires the confirmation worker to the repositories.
func NewWorker(repos *Repositories, mailer notify.Mailer, logger *zap.Logger) *service.Worker {
	return &service.Worker{
		Pledges:       repos.Pledges,
		Customers:     repos.Customers,
		Campaigns:     repos.Campaigns,
		Rewards:       repos.Rewards,
		Notifications: repos.Notifications,
		Mailer:        mailer,
		Logger:        logger,
	}
}

// Build assembles the services, handlers and controllers for the HTTP server.
func Build(cfg *config.Config, conn *sql.DB, repos *Repositories, q queue.Queue, provider commerce.Provider, logger *zap.Logger) (Routes, error) {
	renderer, err := web.NewRenderer()
	if err != nil {
		return Routes{}, fmt.Errorf("load templates: %w", err)
	}

	campaignSvc := &service.CampaignService{
		CampaignRepo:  repos.Campaigns,
		RewardRepo:    repos.Rewards,
		FAQRepo:       repos.FAQs,
		CommunityRepo: repos.Community,
		Logger:        logger,
	}
	rewardSvc := &service.RewardService{
		CampaignRepo: repos.Campaigns,
		RewardRepo:   repos.Rewards,
		Logger:       logger,
	}
	faqSvc := &service.FAQService{
		CampaignRepo: repos.Campaigns,
		FAQRepo:      repos.FAQs,
	}
	communitySvc := &service.CommunityService{
		CampaignRepo:  repos.Campaigns,
		CommunityRepo: repos.Community,
		Backers:       repos.Pledges,
		Logger:        logger,
	}
	checkoutSvc := &service.CheckoutService{
		CampaignRepo: repos.Campaigns,
		RewardRepo:   repos.Rewards,
		Provider:     provider,
		Logger:       logger,
	}
	pledgeSvc := &service.PledgeService{
		CampaignRepo: repos.Campaigns,
		RewardRepo:   repos.Rewards,
		PledgeRepo:   repos.Pledges,
		CustomerRepo: repos.Customers,
		Deliveries:   repos.Deliveries,
		Queue:        q,
		Logger:       logger,
	}
	abSvc := service.NewABService(cfg.AB.VariantAURL, cfg.AB.VariantBURL, cfg.AB.SplitPercent, 0)
	authn := auth.NewAuthenticator(cfg.Admin.Email, cfg.Admin.PasswordHash, cfg.Admin.JWTSecret, cfg.Admin.JWTTTL)

	return Routes{
		Page:   &handler.PageHandler{Page: campaignSvc, Renderer: renderer, Logger: logger},
		Health: &handler.HealthHandler{DB: conn},
		Public: &handler.PublicHandler{
			Page:      campaignSvc,
			Checkouts: checkoutSvc,
			Comments:  communitySvc,
			Logger:    logger,
		},
		AB: &handler.ABHandler{
			AB:        abSvc,
			CookieTTL: cfg.AB.CookieTTL,
			Secure:    strings.HasPrefix(cfg.PublicBaseURL, "https://"),
		},
		Webhook:   &handler.WebhookHandler{Service: pledgeSvc, Logger: logger},
		Providers: map[string]commerce.Provider{provider.Name(): provider},

		Auth:      authn,
		Login:     &controller.AuthController{Auth: authn, Logger: logger},
		Campaign:  &controller.CampaignController{CampaignService: campaignSvc, Logger: logger},
		Rewards:   &controller.RewardController{RewardService: rewardSvc, Logger: logger},
		FAQ:       &controller.FAQController{FAQService: faqSvc, Logger: logger},
		Community: &controller.CommunityController{CommunityService: communitySvc, Logger: logger},
		Reports:   &controller.ReportController{ReportService: pledgeSvc, Logger: logger},

		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
	}, nil
}

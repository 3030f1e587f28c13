package commerce

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"

	appErrors "github.com/unclebandit/crowdfund-backend/internal/errors"
)

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
}

type Stripe struct {
	cfg        StripeConfig
	newSession func(*stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

func NewStripe(cfg StripeConfig) *Stripe {
	stripe.Key = cfg.SecretKey
	return &Stripe{cfg: cfg, newSession: session.New}
}

func (s *Stripe) Name() string { return "stripe" }

func (s *Stripe) CreateCheckout(_ context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	name := "Pledge"
	currency := "usd"
	if req.Campaign != nil {
		name = "Pledge to " + req.Campaign.Title
		if req.Campaign.Currency != "" {
			currency = strings.ToLower(req.Campaign.Currency)
		}
	}
	if req.Reward != nil {
		name = req.Reward.Title
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(s.cfg.SuccessURL),
		CancelURL:         stripe.String(s.cfg.CancelURL),
		ClientReferenceID: stripe.String(req.Reference),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(currency),
					UnitAmount: stripe.Int64(req.Amount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(name),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	params.AddMetadata("pledge_ref", req.Reference)
	if req.Campaign != nil {
		params.AddMetadata("campaign_id", strconv.Itoa(req.Campaign.ID))
	}
	if req.Reward != nil {
		params.AddMetadata("reward_id", strconv.Itoa(req.Reward.ID))
	}

	sess, err := s.newSession(params)
	if err != nil {
		return nil, fmt.Errorf("commerce/stripe: create session: %w", err)
	}
	return &CheckoutSession{URL: sess.URL, Provider: s.Name(), Reference: req.Reference}, nil
}

type stripeCheckoutSession struct {
	ID              string            `json:"id"`
	AmountTotal     int64             `json:"amount_total"`
	Currency        string            `json:"currency"`
	PaymentIntent   string            `json:"payment_intent"`
	Metadata        map[string]string `json:"metadata"`
	CustomerDetails *struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"customer_details"`
	CustomerEmail string `json:"customer_email"`
	Customer      string `json:"customer"`
}

type stripeCharge struct {
	ID            string `json:"id"`
	PaymentIntent string `json:"payment_intent"`
}

func (s *Stripe) ParseWebhook(r *http.Request, body []byte) (*OrderEvent, error) {
	event, err := webhook.ConstructEventWithOptions(body, r.Header.Get("Stripe-Signature"), s.cfg.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErrors.ErrSignatureInvalid, err)
	}

	out := &OrderEvent{Provider: s.Name(), DeliveryID: event.ID, Topic: string(event.Type)}
	if event.Data == nil {
		out.Kind = EventIgnored
		return out, nil
	}

	switch out.Topic {
	case "checkout.session.completed":
		var cs stripeCheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			return nil, appErrors.NewValidation("data", "invalid checkout session: "+err.Error())
		}
		out.Kind = EventPaid
		out.ExternalOrderID = cs.PaymentIntent
		if out.ExternalOrderID == "" {
			out.ExternalOrderID = cs.ID
		}
		out.Amount = cs.AmountTotal
		out.Currency = strings.ToLower(cs.Currency)
		out.Email = cs.CustomerEmail
		out.CustomerRef = cs.Customer
		if cs.CustomerDetails != nil {
			if cs.CustomerDetails.Email != "" {
				out.Email = cs.CustomerDetails.Email
			}
			out.FirstName, out.LastName = splitName(cs.CustomerDetails.Name)
		}
		if id := parseOptionalID(cs.Metadata["campaign_id"]); id != nil {
			out.CampaignID = *id
		}
		out.RewardID = parseOptionalID(cs.Metadata["reward_id"])
	case "charge.refunded":
		var ch stripeCharge
		if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
			return nil, appErrors.NewValidation("data", "invalid charge: "+err.Error())
		}
		out.Kind = EventRefunded
		out.ExternalOrderID = ch.PaymentIntent
		if out.ExternalOrderID == "" {
			out.ExternalOrderID = ch.ID
		}
	default:
		out.Kind = EventIgnored
	}
	return out, nil
}

func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

var _ Provider = (*Stripe)(nil)

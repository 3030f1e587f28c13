package commerce

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	appErrors "github.com/unclebandit/crowdfund-backend/internal/errors"
)

const (
	shopifyHeaderHMAC       = "X-Shopify-Hmac-Sha256"
	shopifyHeaderDeliveryID = "X-Shopify-Webhook-Id"
	shopifyHeaderTriggered  = "X-Shopify-Triggered-At"
	shopifyHeaderTopic      = "X-Shopify-Topic"
)

const defaultWebhookReplayWindow = 5 * time.Minute

type ShopifyConfig struct {
	StoreDomain       string
	WebhookSecret     string
	DonationVariantID string
	ReplayWindow      time.Duration
	Now               func() time.Time
}

type Shopify struct {
	cfg ShopifyConfig
}

func NewShopify(cfg ShopifyConfig) *Shopify {
	cfg.StoreDomain = strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(cfg.StoreDomain), "https://"), "/")
	cfg.WebhookSecret = strings.TrimSpace(cfg.WebhookSecret)
	if cfg.ReplayWindow <= 0 {
		cfg.ReplayWindow = defaultWebhookReplayWindow
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Shopify{cfg: cfg}
}

func (s *Shopify) Name() string { return "shopify" }

// CreateCheckout builds a cart permalink. Reward pledges buy the reward's
// variant; free-amount pledges buy the one-unit donation variant N times.
func (s *Shopify) CreateCheckout(_ context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	variant := s.cfg.DonationVariantID
	quantity := int64(1)
	if req.Reward != nil && req.Reward.ExternalVariantID != "" && req.Amount == req.Reward.Amount {
		variant = req.Reward.ExternalVariantID
	} else {
		quantity = (req.Amount + 99) / 100
	}
	if variant == "" {
		return nil, fmt.Errorf("commerce/shopify: no variant configured for this pledge")
	}

	q := url.Values{}
	q.Set("attributes[pledge_ref]", req.Reference)
	if req.Campaign != nil {
		q.Set("attributes[campaign_id]", strconv.Itoa(req.Campaign.ID))
	}
	if req.Reward != nil {
		q.Set("attributes[reward_id]", strconv.Itoa(req.Reward.ID))
	}
	if req.Email != "" {
		q.Set("checkout[email]", req.Email)
	}

	u := fmt.Sprintf("https://%s/cart/%s:%d?%s", s.cfg.StoreDomain, url.PathEscape(variant), quantity, q.Encode())
	return &CheckoutSession{URL: u, Provider: s.Name(), Reference: req.Reference}, nil
}

type shopifyOrder struct {
	ID         int64  `json:"id"`
	OrderID    int64  `json:"order_id"`
	Email      string `json:"email"`
	TotalPrice string `json:"total_price"`
	Currency   string `json:"currency"`
	Customer   *struct {
		ID        int64  `json:"id"`
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	} `json:"customer"`
	NoteAttributes []struct {
		Name  string `json:"name"`
		Value any    `json:"value"`
	} `json:"note_attributes"`
	LineItems []struct {
		VariantID int64 `json:"variant_id"`
	} `json:"line_items"`
}

func (s *Shopify) ParseWebhook(r *http.Request, body []byte) (*OrderEvent, error) {
	if err := s.verify(r.Header, body); err != nil {
		return nil, fmt.Errorf("%w: %v", appErrors.ErrSignatureInvalid, err)
	}

	event := &OrderEvent{
		Provider:   s.Name(),
		DeliveryID: strings.TrimSpace(r.Header.Get(shopifyHeaderDeliveryID)),
		Topic:      strings.TrimSpace(r.Header.Get(shopifyHeaderTopic)),
	}

	switch event.Topic {
	case "orders/paid":
		event.Kind = EventPaid
	case "orders/cancelled", "refunds/create":
		event.Kind = EventRefunded
	default:
		event.Kind = EventIgnored
		return event, nil
	}

	var order shopifyOrder
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, appErrors.NewValidation("body", "invalid order payload: "+err.Error())
	}

	if event.Kind == EventRefunded {
		id := order.ID
		if event.Topic == "refunds/create" {
			id = order.OrderID
		}
		if id == 0 {
			return nil, appErrors.NewValidation("order_id", "is required")
		}
		event.ExternalOrderID = strconv.FormatInt(id, 10)
		return event, nil
	}

	if order.ID == 0 {
		return nil, appErrors.NewValidation("id", "is required")
	}
	amount, err := ParseMinorUnits(order.TotalPrice)
	if err != nil {
		return nil, appErrors.NewValidation("total_price", err.Error())
	}
	event.ExternalOrderID = strconv.FormatInt(order.ID, 10)
	event.Amount = amount
	event.Currency = strings.ToLower(order.Currency)
	event.Email = order.Email
	if order.Customer != nil {
		if event.Email == "" {
			event.Email = order.Customer.Email
		}
		event.FirstName = order.Customer.FirstName
		event.LastName = order.Customer.LastName
		if order.Customer.ID != 0 {
			event.CustomerRef = strconv.FormatInt(order.Customer.ID, 10)
		}
	}
	for _, attr := range order.NoteAttributes {
		value := strings.TrimSpace(fmt.Sprint(attr.Value))
		switch attr.Name {
		case "campaign_id":
			if id := parseOptionalID(value); id != nil {
				event.CampaignID = *id
			}
		case "reward_id":
			event.RewardID = parseOptionalID(value)
		}
	}
	for _, li := range order.LineItems {
		if li.VariantID != 0 {
			event.VariantIDs = append(event.VariantIDs, strconv.FormatInt(li.VariantID, 10))
		}
	}
	return event, nil
}

func (s *Shopify) verify(h http.Header, body []byte) error {
	signature := strings.TrimSpace(h.Get(shopifyHeaderHMAC))
	if signature == "" {
		return fmt.Errorf("%s signature header is required", shopifyHeaderHMAC)
	}
	if s.cfg.WebhookSecret == "" {
		return fmt.Errorf("signature secret is required")
	}
	decoded, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("decode base64 signature: %w", err)
	}
	mac := hmac.New(sha256.New, []byte(s.cfg.WebhookSecret))
	_, _ = mac.Write(body)
	if subtle.ConstantTimeCompare(decoded, mac.Sum(nil)) != 1 {
		return fmt.Errorf("signature mismatch")
	}

	if strings.TrimSpace(h.Get(shopifyHeaderDeliveryID)) == "" {
		return fmt.Errorf("%s header is required", shopifyHeaderDeliveryID)
	}

	triggered := strings.TrimSpace(h.Get(shopifyHeaderTriggered))
	if triggered == "" {
		return nil
	}
	triggeredAt, err := time.Parse(time.RFC3339Nano, triggered)
	if err != nil {
		return fmt.Errorf("parse %s: %w", shopifyHeaderTriggered, err)
	}
	delta := s.cfg.Now().Sub(triggeredAt.UTC())
	if delta < 0 {
		delta = -delta
	}
	if delta > s.cfg.ReplayWindow {
		return fmt.Errorf("webhook trigger time outside replay window")
	}
	return nil
}

var _ Provider = (*Shopify)(nil)

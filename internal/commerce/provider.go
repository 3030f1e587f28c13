// Package commerce talks to the external shop that takes pledge payments:
// it builds checkout redirects and turns signed webhooks into order events.
package commerce

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/unclebandit/crowdfund-backend/internal/model"
)

type EventKind string

const (
	EventPaid     EventKind = "paid"
	EventRefunded EventKind = "refunded"
	EventIgnored  EventKind = "ignored"
)

// CheckoutRequest describes one pledge about to be paid.
type CheckoutRequest struct {
	Campaign  *model.Campaign
	Reward    *model.Reward
	Amount    int64
	Email     string
	Reference string
}

type CheckoutSession struct {
	URL       string `json:"checkout_url"`
	Provider  string `json:"provider"`
	Reference string `json:"reference"`
}

// OrderEvent is a verified webhook reduced to what the pledge ledger needs.
// CampaignID and RewardID are zero/nil when the shop did not echo them back.
type OrderEvent struct {
	Provider        string
	DeliveryID      string
	Topic           string
	Kind            EventKind
	ExternalOrderID string
	Amount          int64
	Currency        string
	Email           string
	FirstName       string
	LastName        string
	CustomerRef     string
	CampaignID      int
	RewardID        *int
	VariantIDs      []string
}

type Provider interface {
	Name() string
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	// ParseWebhook verifies the signature before reading anything else.
	ParseWebhook(r *http.Request, body []byte) (*OrderEvent, error)
}

// ParseMinorUnits converts a decimal price such as "25.5" into cents.
func ParseMinorUnits(price string) (int64, error) {
	price = strings.TrimSpace(price)
	if price == "" {
		return 0, fmt.Errorf("commerce: empty price")
	}
	f, err := strconv.ParseFloat(price, 64)
	if err != nil {
		return 0, fmt.Errorf("commerce: parse price %q: %w", price, err)
	}
	if f < 0 {
		return 0, fmt.Errorf("commerce: negative price %q", price)
	}
	return int64(math.Round(f * 100)), nil
}

func parseOptionalID(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return nil
	}
	return &id
}

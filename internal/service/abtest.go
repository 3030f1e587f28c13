package service

import (
	"math/rand"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	VariantA = "a"
	VariantB = "b"
)

// ABService assigns visitors to one of two landing pages.
type ABService struct {
	VariantAURL  string
	VariantBURL  string
	SplitPercent int

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewABService(aURL, bURL string, splitPercent int, seed int64) *ABService {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &ABService{
		VariantAURL:  aURL,
		VariantBURL:  bURL,
		SplitPercent: splitPercent,
		rnd:          rand.New(rand.NewSource(seed)),
	}
}

// Assign keeps a valid existing variant; otherwise it draws a new one and
// reports assigned=true so the caller sets the cookie.
func (s *ABService) Assign(existing string) (variant string, assigned bool) {
	if existing == VariantA || existing == VariantB {
		return existing, false
	}
	s.mu.Lock()
	roll := s.rnd.Intn(100)
	s.mu.Unlock()
	if roll < s.SplitPercent {
		return VariantA, true
	}
	return VariantB, true
}

// Target returns the variant URL with rawQuery merged into its own query.
// A query that does not parse is appended verbatim.
func (s *ABService) Target(variant, rawQuery string) string {
	base := s.VariantAURL
	if variant == VariantB {
		base = s.VariantBURL
	}
	if rawQuery == "" {
		return base
	}
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	incoming, err := url.ParseQuery(rawQuery)
	if err != nil {
		// Malformed queries pass through untouched.
		if u.RawQuery != "" {
			u.RawQuery += "&"
		}
		u.RawQuery += rawQuery
		return u.String()
	}
	q := u.Query()
	for k, vs := range incoming {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// NewVisitorID is the value of the visitor cookie.
func NewVisitorID() string {
	return uuid.NewString()
}

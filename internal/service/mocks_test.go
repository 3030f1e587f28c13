package service_test

import (
	"context"
	"net/http"
	"sort"
	"sync"

	"github.com/unclebandit/crowdfund-backend/internal/commerce"
	appErrors "github.com/unclebandit/crowdfund-backend/internal/errors"
	"github.com/unclebandit/crowdfund-backend/internal/model"
	"github.com/unclebandit/crowdfund-backend/internal/repository"
)

// ====================== Campaigns ======================

type MockCampaignRepo struct {
	Campaign *model.Campaign
	Creator  *model.Creator
	Updated  int
}

func (m *MockCampaignRepo) GetCurrent(ctx context.Context) (*model.Campaign, error) {
	if m.Campaign == nil {
		return nil, appErrors.NewNotFound("campaign", nil)
	}
	cp := *m.Campaign
	return &cp, nil
}

func (m *MockCampaignRepo) GetByID(ctx context.Context, id int) (*model.Campaign, error) {
	if m.Campaign == nil || m.Campaign.ID != id {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	cp := *m.Campaign
	return &cp, nil
}

func (m *MockCampaignRepo) Create(ctx context.Context, c *model.Campaign) error {
	c.ID = 1
	m.Campaign = c
	return nil
}

func (m *MockCampaignRepo) Update(ctx context.Context, c *model.Campaign) error {
	m.Updated++
	cp := *c
	m.Campaign = &cp
	return nil
}

func (m *MockCampaignRepo) GetCreator(ctx context.Context, campaignID int) (*model.Creator, error) {
	if m.Creator == nil {
		return nil, appErrors.NewNotFound("creator", nil)
	}
	return m.Creator, nil
}

func (m *MockCampaignRepo) UpsertCreator(ctx context.Context, cr *model.Creator) error {
	cr.ID = 1
	m.Creator = cr
	return nil
}

// ====================== Rewards ======================

type MockRewardRepo struct {
	Rewards map[int]*model.Reward
	nextID  int
}

func newRewardRepo(rewards ...*model.Reward) *MockRewardRepo {
	m := &MockRewardRepo{Rewards: map[int]*model.Reward{}, nextID: 100}
	for _, r := range rewards {
		m.Rewards[r.ID] = r
	}
	return m
}

func (m *MockRewardRepo) ListByCampaign(ctx context.Context, campaignID int, activeOnly bool) ([]*model.Reward, error) {
	out := []*model.Reward{}
	for _, r := range m.Rewards {
		if r.CampaignID == campaignID && (!activeOnly || r.IsActive) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockRewardRepo) GetByID(ctx context.Context, id int) (*model.Reward, error) {
	r, ok := m.Rewards[id]
	if !ok {
		return nil, appErrors.NewRewardNotFound(id)
	}
	cp := *r
	return &cp, nil
}

func (m *MockRewardRepo) Create(ctx context.Context, r *model.Reward) error {
	m.nextID++
	r.ID = m.nextID
	m.Rewards[r.ID] = r
	return nil
}

func (m *MockRewardRepo) Update(ctx context.Context, r *model.Reward) error {
	if _, ok := m.Rewards[r.ID]; !ok {
		return appErrors.NewRewardNotFound(r.ID)
	}
	m.Rewards[r.ID] = r
	return nil
}

func (m *MockRewardRepo) Delete(ctx context.Context, id int) error {
	if _, ok := m.Rewards[id]; !ok {
		return appErrors.NewRewardNotFound(id)
	}
	delete(m.Rewards, id)
	return nil
}

// ====================== FAQ ======================

type MockFAQRepo struct {
	Items     []*model.FAQItem
	Reordered []int
}

func (m *MockFAQRepo) List(ctx context.Context, campaignID int) ([]*model.FAQItem, error) {
	out := []*model.FAQItem{}
	for _, f := range m.Items {
		if f.CampaignID == campaignID {
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (m *MockFAQRepo) GetByID(ctx context.Context, id int) (*model.FAQItem, error) {
	for _, f := range m.Items {
		if f.ID == id {
			cp := *f
			return &cp, nil
		}
	}
	return nil, appErrors.NewFAQNotFound(id)
}

func (m *MockFAQRepo) Create(ctx context.Context, f *model.FAQItem) error {
	f.ID = len(m.Items) + 1
	f.SortOrder = len(m.Items) + 1
	m.Items = append(m.Items, f)
	return nil
}

func (m *MockFAQRepo) Update(ctx context.Context, f *model.FAQItem) error {
	for i, it := range m.Items {
		if it.ID == f.ID {
			m.Items[i] = f
			return nil
		}
	}
	return appErrors.NewFAQNotFound(f.ID)
}

func (m *MockFAQRepo) Delete(ctx context.Context, id int) error { return nil }

func (m *MockFAQRepo) Reorder(ctx context.Context, campaignID int, ids []int) (int, error) {
	m.Reordered = ids
	for pos, id := range ids {
		for _, f := range m.Items {
			if f.ID == id {
				f.SortOrder = pos + 1
			}
		}
	}
	return len(ids), nil
}

// ====================== Community ======================

type MockCommunityRepo struct {
	Updates  map[int]*model.Update
	Comments []*model.Comment
	Saved    int
}

func (m *MockCommunityRepo) ListUpdates(ctx context.Context, campaignID int, publishedOnly bool) ([]*model.Update, error) {
	out := []*model.Update{}
	for _, u := range m.Updates {
		if u.CampaignID == campaignID && (!publishedOnly || u.Published()) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *MockCommunityRepo) GetUpdate(ctx context.Context, id int) (*model.Update, error) {
	u, ok := m.Updates[id]
	if !ok {
		return nil, appErrors.NewUpdateNotFound(id)
	}
	cp := *u
	return &cp, nil
}

func (m *MockCommunityRepo) CreateUpdate(ctx context.Context, u *model.Update) error {
	if m.Updates == nil {
		m.Updates = map[int]*model.Update{}
	}
	u.ID = len(m.Updates) + 1
	m.Updates[u.ID] = u
	return nil
}

func (m *MockCommunityRepo) SaveUpdate(ctx context.Context, u *model.Update) error {
	m.Saved++
	m.Updates[u.ID] = u
	return nil
}

func (m *MockCommunityRepo) DeleteUpdate(ctx context.Context, id int) error { return nil }

func (m *MockCommunityRepo) ListComments(ctx context.Context, campaignID int, updateID *int, includeHidden bool) ([]*model.Comment, error) {
	out := []*model.Comment{}
	for _, c := range m.Comments {
		if c.CampaignID != campaignID || (c.Hidden && !includeHidden) {
			continue
		}
		if updateID != nil && (c.UpdateID == nil || *c.UpdateID != *updateID) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *MockCommunityRepo) CountComments(ctx context.Context, campaignID int) (int, error) {
	cs, _ := m.ListComments(ctx, campaignID, nil, false)
	return len(cs), nil
}

func (m *MockCommunityRepo) CreateComment(ctx context.Context, c *model.Comment) error {
	c.ID = len(m.Comments) + 1
	m.Comments = append(m.Comments, c)
	return nil
}

func (m *MockCommunityRepo) SetCommentHidden(ctx context.Context, id int, hidden bool) error {
	for _, c := range m.Comments {
		if c.ID == id {
			c.Hidden = hidden
			return nil
		}
	}
	return appErrors.NewCommentNotFound(id)
}

func (m *MockCommunityRepo) DeleteComment(ctx context.Context, id int) error { return nil }

// ====================== Pledges ======================

type MockPledgeRepo struct {
	mu      sync.Mutex
	Pledges map[string]*model.Pledge
	ByID    map[int]*model.Pledge
	Backers map[string]struct{}
	Err     error
	Orders  []model.Order
}

func newPledgeRepo() *MockPledgeRepo {
	return &MockPledgeRepo{Pledges: map[string]*model.Pledge{}, ByID: map[int]*model.Pledge{}, Backers: map[string]struct{}{}}
}

func (m *MockPledgeRepo) RecordPaid(ctx context.Context, o model.Order) (*model.Pledge, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, false, m.Err
	}
	key := o.Provider + "/" + o.ExternalOrderID
	if p, ok := m.Pledges[key]; ok {
		return p, false, nil
	}
	m.Orders = append(m.Orders, o)
	p := &model.Pledge{
		ID: len(m.ByID) + 1, CampaignID: o.CampaignID, RewardID: o.RewardID, CustomerID: 1,
		Amount: o.Amount, Currency: o.Currency, Status: model.PledgePaid,
		Provider: o.Provider, ExternalOrderID: o.ExternalOrderID,
	}
	m.Pledges[key] = p
	m.ByID[p.ID] = p
	return p, true, nil
}

func (m *MockPledgeRepo) Refund(ctx context.Context, provider, orderID string) (*model.Pledge, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Pledges[provider+"/"+orderID]
	if !ok {
		return nil, false, appErrors.NewNotFound("pledge", orderID)
	}
	if p.Status == model.PledgeRefunded {
		return p, false, nil
	}
	p.Status = model.PledgeRefunded
	return p, true, nil
}

func (m *MockPledgeRepo) GetByID(ctx context.Context, id int) (*model.Pledge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.ByID[id]
	if !ok {
		return nil, appErrors.NewPledgeNotFound(id)
	}
	cp := *p
	return &cp, nil
}

func (m *MockPledgeRepo) List(ctx context.Context, offset, limit int, status string) ([]*model.PledgeDetails, int, error) {
	all := []*model.PledgeDetails{}
	for i := 5; i >= 1; i-- {
		all = append(all, &model.PledgeDetails{Pledge: model.Pledge{ID: i, Status: model.PledgePaid}})
	}
	if offset >= len(all) {
		return []*model.PledgeDetails{}, len(all), nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], len(all), nil
}

func (m *MockPledgeRepo) Stats(ctx context.Context, campaignID int) (*repository.PledgeStats, error) {
	return &repository.PledgeStats{
		ByStatus:     map[string]int{model.PledgePaid: 3, model.PledgeRefunded: 1},
		PaidAmount:   7500,
		RewardClaims: map[int]int{4: 2},
	}, nil
}

func (m *MockPledgeRepo) BackerEmails(ctx context.Context, campaignID int) (map[string]struct{}, error) {
	return m.Backers, nil
}

type MockCustomerRepo struct {
	Customers map[int]*model.Customer
}

func (m *MockCustomerRepo) GetByID(ctx context.Context, id int) (*model.Customer, error) {
	c, ok := m.Customers[id]
	if !ok {
		return nil, appErrors.NewNotFound("customer", id)
	}
	return c, nil
}

func (m *MockCustomerRepo) GetByEmail(ctx context.Context, email string) (*model.Customer, error) {
	for _, c := range m.Customers {
		if c.Email == repository.NormalizeEmail(email) {
			return c, nil
		}
	}
	return nil, appErrors.NewNotFound("customer", email)
}

func (m *MockCustomerRepo) List(ctx context.Context, offset, limit int) ([]*model.Customer, int, error) {
	out := []*model.Customer{}
	for _, c := range m.Customers {
		out = append(out, c)
	}
	return out, len(out), nil
}

// ====================== Deliveries ======================

type MockLedger struct {
	Seen      map[string]*model.WebhookDelivery
	Completed int
	Failed    int
}

func newLedger() *MockLedger { return &MockLedger{Seen: map[string]*model.WebhookDelivery{}} }

func (m *MockLedger) Claim(ctx context.Context, provider, deliveryID, topic string) (*model.WebhookDelivery, bool, error) {
	key := provider + "/" + deliveryID
	if d, ok := m.Seen[key]; ok && d.Status != model.DeliveryFailed {
		return d, false, nil
	}
	d := &model.WebhookDelivery{ID: len(m.Seen) + 1, Provider: provider, DeliveryID: deliveryID, Topic: topic, Status: model.DeliveryProcessing}
	m.Seen[key] = d
	return d, true, nil
}

func (m *MockLedger) Complete(ctx context.Context, id int) error {
	m.Completed++
	for _, d := range m.Seen {
		if d.ID == id {
			d.Status = model.DeliveryProcessed
		}
	}
	return nil
}

func (m *MockLedger) Fail(ctx context.Context, id int, cause error) error {
	m.Failed++
	for _, d := range m.Seen {
		if d.ID == id {
			d.Status = model.DeliveryFailed
		}
	}
	return nil
}

// ====================== Notifications ======================

type MockNotificationRepo struct {
	ByPledge map[int]*model.Notification
}

func (m *MockNotificationRepo) CreateForPledge(ctx context.Context, pledgeID, customerID int) (*model.Notification, error) {
	if m.ByPledge == nil {
		m.ByPledge = map[int]*model.Notification{}
	}
	if n, ok := m.ByPledge[pledgeID]; ok {
		cp := *n
		return &cp, nil
	}
	n := &model.Notification{ID: len(m.ByPledge) + 1, PledgeID: pledgeID, CustomerID: customerID, Status: model.NotificationPending}
	m.ByPledge[pledgeID] = n
	cp := *n
	return &cp, nil
}

func (m *MockNotificationRepo) GetByID(ctx context.Context, id int) (*model.Notification, error) {
	for _, n := range m.ByPledge {
		if n.ID == id {
			return n, nil
		}
	}
	return nil, appErrors.NewNotFound("notification", id)
}

func (m *MockNotificationRepo) Update(ctx context.Context, n *model.Notification) error {
	cp := *n
	m.ByPledge[n.PledgeID] = &cp
	return nil
}

// ====================== Commerce / queue ======================

type fakeProvider struct {
	Event    *commerce.OrderEvent
	Err      error
	Requests []commerce.CheckoutRequest
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) CreateCheckout(ctx context.Context, req commerce.CheckoutRequest) (*commerce.CheckoutSession, error) {
	f.Requests = append(f.Requests, req)
	return &commerce.CheckoutSession{URL: "https://shop.example/cart", Provider: "fake", Reference: req.Reference}, nil
}

func (f *fakeProvider) ParseWebhook(r *http.Request, body []byte) (*commerce.OrderEvent, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	cp := *f.Event
	return &cp, nil
}

type recordingQueue struct {
	mu        sync.Mutex
	Published []any
}

func (q *recordingQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.Published = append(q.Published, payload)
	return nil
}

func (q *recordingQueue) Subscribe(topic string, handler func(payload any) error) error { return nil }

package service

// Hand-rolled fakes shared by the service tests. The contact fake mirrors the
// repository's event semantics: events always append, the aggregate follows
// the transition table.

import (
	"context"
	"fmt"
	"time"

	appErrors "github.com/garageware/crm-backend/internal/errors"
	"github.com/garageware/crm-backend/internal/mailgun"
	"github.com/garageware/crm-backend/internal/model"
	"github.com/garageware/crm-backend/internal/queue"
)

// --- campaign repo fake ---

type fakeCampaignRepo struct {
	campaigns       map[int]*model.Campaign
	templates       map[int]*model.EmailTemplate
	verifiedSenders map[string]bool
	nextID          int
	snapshotCalls   [][]int
	createErr       error
	markedSent      []int
	markedFailed    []int
}

func newFakeCampaignRepo() *fakeCampaignRepo {
	return &fakeCampaignRepo{
		campaigns:       map[int]*model.Campaign{},
		templates:       map[int]*model.EmailTemplate{},
		verifiedSenders: map[string]bool{},
		nextID:          1,
	}
}

func (f *fakeCampaignRepo) CreateWithSnapshot(c *model.Campaign, customerIDs []int) (int, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	c.ID = f.nextID
	f.nextID++
	c.PublicID = fmt.Sprintf("pub-%d", c.ID)
	f.campaigns[c.ID] = c
	f.snapshotCalls = append(f.snapshotCalls, customerIDs)
	return len(customerIDs), nil
}

func (f *fakeCampaignRepo) GetByID(companyID, id int) (*model.Campaign, error) {
	c, ok := f.campaigns[id]
	if !ok || c.CompanyID != companyID {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	return c, nil
}

func (f *fakeCampaignRepo) GetByPublicID(companyID int, publicID string) (*model.Campaign, error) {
	for _, c := range f.campaigns {
		if c.CompanyID == companyID && c.PublicID == publicID {
			return c, nil
		}
	}
	return nil, appErrors.NewCampaignNotFound(0)
}

func (f *fakeCampaignRepo) GetForDispatch(id int) (*model.Campaign, error) {
	c, ok := f.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	return c, nil
}

func (f *fakeCampaignRepo) ListCampaigns(companyID, offset, limit int, status string) ([]*model.Campaign, int, error) {
	out := []*model.Campaign{}
	for _, c := range f.campaigns {
		if c.CompanyID == companyID && (status == "" || c.Status == status) {
			out = append(out, c)
		}
	}
	return out, len(out), nil
}

func (f *fakeCampaignRepo) ClaimForSending(campaignID int, now time.Time) (bool, error) {
	c, ok := f.campaigns[campaignID]
	if !ok || !c.DispatchEligible(now) {
		return false, nil
	}
	c.Status = model.CampaignStatusSending
	return true, nil
}

func (f *fakeCampaignRepo) MarkSent(campaignID int, sentAt time.Time) error {
	if c, ok := f.campaigns[campaignID]; ok && c.Status == model.CampaignStatusSending {
		c.Status = model.CampaignStatusSent
		c.SentAt = &sentAt
	}
	f.markedSent = append(f.markedSent, campaignID)
	return nil
}

func (f *fakeCampaignRepo) MarkFailed(campaignID int) error {
	if c, ok := f.campaigns[campaignID]; ok && c.Status == model.CampaignStatusSending {
		c.Status = model.CampaignStatusFailed
	}
	f.markedFailed = append(f.markedFailed, campaignID)
	return nil
}

func (f *fakeCampaignRepo) DueCampaignIDs(now time.Time, limit int) ([]int, error) {
	ids := []int{}
	for id, c := range f.campaigns {
		if c.DispatchEligible(now) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeCampaignRepo) GetContactStats(campaignID int) (map[string]int, error) {
	return map[string]int{"total": 0}, nil
}

func (f *fakeCampaignRepo) TemplateByID(companyID, id int) (*model.EmailTemplate, error) {
	t, ok := f.templates[id]
	if !ok || t.CompanyID != companyID {
		return nil, nil
	}
	return t, nil
}

func (f *fakeCampaignRepo) SenderVerified(companyID int, email string) (bool, error) {
	return f.verifiedSenders[email], nil
}

// --- customer repo fake ---

type fakeCustomerRepo struct {
	customers map[int]*model.Customer
	byTags    []int
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{customers: map[int]*model.Customer{}}
}

func (f *fakeCustomerRepo) GetByID(companyID, id int) (*model.Customer, error) {
	c, ok := f.customers[id]
	if !ok || c.CompanyID != companyID {
		return nil, nil
	}
	return c, nil
}

func (f *fakeCustomerRepo) IDsByTags(companyID int, tagIDs []int64) ([]int, error) {
	return f.byTags, nil
}

// --- contact repo fake ---

type fakeContactRepo struct {
	contacts map[string]*model.CampaignContact
	events   []model.CampaignEvent
}

func newFakeContactRepo() *fakeContactRepo {
	return &fakeContactRepo{contacts: map[string]*model.CampaignContact{}}
}

func (f *fakeContactRepo) add(c *model.CampaignContact) { f.contacts[c.ID] = c }

func (f *fakeContactRepo) PendingByCampaign(campaignID int) ([]*model.CampaignContact, error) {
	out := []*model.CampaignContact{}
	for _, c := range f.contacts {
		if c.CampaignID == campaignID && c.Status == model.ContactStatusPending && c.ProviderMessageID == nil {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeContactRepo) ListByCampaign(campaignID int) ([]*model.CampaignContact, error) {
	out := []*model.CampaignContact{}
	for _, c := range f.contacts {
		if c.CampaignID == campaignID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeContactRepo) MarkSent(contactID, providerMessageID string) error {
	c := f.contacts[contactID]
	c.Status = model.ContactStatusSent
	c.ProviderMessageID = &providerMessageID
	c.LastError = ""
	return nil
}

func (f *fakeContactRepo) RecordSendError(contactID, errMsg string) error {
	f.contacts[contactID].LastError = errMsg
	return nil
}

func (f *fakeContactRepo) GetByProviderMessageID(messageID string) (*model.CampaignContact, error) {
	for _, c := range f.contacts {
		if c.ProviderMessageID != nil && *c.ProviderMessageID == messageID {
			return c, nil
		}
	}
	return nil, appErrors.NewContactNotFound(messageID)
}

func (f *fakeContactRepo) RecordEvent(contactID, eventType string, payload []byte, errDesc string) (bool, error) {
	f.events = append(f.events, model.CampaignEvent{
		ContactID:  contactID,
		EventType:  eventType,
		RawPayload: payload,
		CreatedAt:  time.Now(),
	})

	c := f.contacts[contactID]
	next, changed := model.ContactStatusAfterEvent(c.Status, eventType)
	if c.Status != model.ContactStatusBounced {
		c.Status = next
		if eventType == model.EventBounced || eventType == model.EventComplained {
			c.LastError = errDesc
		}
	}
	return changed, nil
}

func (f *fakeContactRepo) eventCount(contactID string) int {
	n := 0
	for _, e := range f.events {
		if e.ContactID == contactID {
			n++
		}
	}
	return n
}

// --- gateway fake ---

type fakeGateway struct {
	readyErr error
	failFor  map[string]error // keyed by recipient address
	sent     []mailgun.Message
	nextID   int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{failFor: map[string]error{}}
}

func (f *fakeGateway) Ready() error { return f.readyErr }

func (f *fakeGateway) Send(ctx context.Context, msg *mailgun.Message) (string, error) {
	if f.readyErr != nil {
		return "", f.readyErr
	}
	if err, ok := f.failFor[msg.To]; ok {
		return "", err
	}
	f.sent = append(f.sent, *msg)
	f.nextID++
	return fmt.Sprintf("msg-%d@mg.example.com", f.nextID), nil
}

// --- publisher fake ---

type recordPublisher struct {
	jobs []queue.DispatchJob
	err  error
}

func (p *recordPublisher) PublishDispatch(job queue.DispatchJob) error {
	if p.err != nil {
		return p.err
	}
	p.jobs = append(p.jobs, job)
	return nil
}

// internal/service/campaign_service.go
package service

import (
	"fmt"
	"log"
	"time"

	appErrors "github.com/garageware/crm-backend/internal/errors"
	"github.com/garageware/crm-backend/internal/model"
	"github.com/garageware/crm-backend/internal/queue"
	"github.com/garageware/crm-backend/internal/repository"
)

type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	CustomerRepo repository.CustomerRepositoryInterface
	ContactRepo  repository.ContactRepositoryInterface
	Queue        queue.Publisher
}

// CreateCampaignInput is the campaign creation request from the CRM front end.
type CreateCampaignInput struct {
	CompanyID   int
	Subject     string
	Preheader   string
	TemplateID  int
	FromAddress string
	ReplyTo     string
	TagIDs      []int64
	ScheduledAt *string // RFC3339
}

// CampaignDetails is a campaign plus its per-recipient delivery stats.
type CampaignDetails struct {
	*model.Campaign
	Stats map[string]int `json:"stats"`
}

// CreateCampaign validates the input, snapshots the audience and persists
// campaign + contacts atomically. Campaigns due immediately are handed to
// the dispatch queue; scheduled ones wait for the worker's scheduler loop.
// Returns the campaign and the number of snapshotted contacts.
func (s *CampaignService) CreateCampaign(in CreateCampaignInput) (*model.Campaign, int, error) {
	if len(in.TagIDs) == 0 {
		return nil, 0, appErrors.NewValidation("at least one tag is required")
	}
	if in.Subject == "" {
		return nil, 0, appErrors.NewValidation("subject is required")
	}

	tpl, err := s.CampaignRepo.TemplateByID(in.CompanyID, in.TemplateID)
	if err != nil {
		return nil, 0, err
	}
	if tpl == nil {
		return nil, 0, appErrors.NewValidation("unknown template %d", in.TemplateID)
	}

	verified, err := s.CampaignRepo.SenderVerified(in.CompanyID, in.FromAddress)
	if err != nil {
		return nil, 0, err
	}
	if !verified {
		return nil, 0, appErrors.NewValidation("from address %s is not a verified sender", in.FromAddress)
	}

	var scheduledAt *time.Time
	if in.ScheduledAt != nil && *in.ScheduledAt != "" {
		t, err := time.Parse(time.RFC3339, *in.ScheduledAt)
		if err != nil {
			return nil, 0, appErrors.NewValidation("invalid scheduled_at: %v", err)
		}
		scheduledAt = &t
	}

	now := time.Now()
	c := &model.Campaign{
		CompanyID:   in.CompanyID,
		Subject:     in.Subject,
		Preheader:   in.Preheader,
		TemplateID:  in.TemplateID,
		FromAddress: in.FromAddress,
		ReplyTo:     in.ReplyTo,
		TagIDs:      in.TagIDs,
		Status:      model.StatusAtCreation(scheduledAt, now),
		ScheduledAt: scheduledAt,
	}

	// Snapshot the audience once; later tag changes never touch this campaign.
	customerIDs, err := s.CustomerRepo.IDsByTags(in.CompanyID, in.TagIDs)
	if err != nil {
		return nil, 0, err
	}

	contactCount, err := s.CampaignRepo.CreateWithSnapshot(c, customerIDs)
	if err != nil {
		return nil, 0, err
	}

	if c.Status == model.CampaignStatusQueued {
		if err := s.Queue.PublishDispatch(queue.DispatchJob{CampaignID: c.ID}); err != nil {
			// Creation already succeeded; the scheduler loop will pick the
			// campaign up since it stays queued and due.
			log.Println("⚠️ failed to enqueue dispatch for campaign", c.ID, ":", err)
		}
	}

	return c, contactCount, nil
}

// TriggerSend re-publishes an eligible campaign to the dispatch queue. This
// is the manual recovery path for crashed runs: already-submitted contacts
// carry a provider message id and are skipped, pending ones get retried.
func (s *CampaignService) TriggerSend(companyID int, publicID string) error {
	campaign, err := s.CampaignRepo.GetByPublicID(companyID, publicID)
	if err != nil {
		return err
	}
	if !campaign.DispatchEligible(time.Now()) {
		return appErrors.NewValidation("campaign cannot be sent in status: %s", campaign.Status)
	}
	return s.Queue.PublishDispatch(queue.DispatchJob{CampaignID: campaign.ID})
}

// ListCampaigns fetches campaigns with pagination
func (s *CampaignService) ListCampaigns(companyID, page, pageSize int, status string) ([]model.Campaign, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	ptrs, total, err := s.CampaignRepo.ListCampaigns(companyID, offset, pageSize, status)
	if err != nil {
		return nil, nil, err
	}

	campaigns := make([]model.Campaign, len(ptrs))
	for i, c := range ptrs {
		campaigns[i] = *c
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}

	return campaigns, pagination, nil
}

// GetCampaignDetailsWithStats fetches a campaign and its contact stats.
// Campaigns are addressed by the public id the API hands out at creation.
func (s *CampaignService) GetCampaignDetailsWithStats(companyID int, publicID string) (*CampaignDetails, error) {
	campaign, err := s.CampaignRepo.GetByPublicID(companyID, publicID)
	if err != nil {
		return nil, err
	}

	stats, err := s.CampaignRepo.GetContactStats(campaign.ID)
	if err != nil {
		return nil, err
	}

	return &CampaignDetails{Campaign: campaign, Stats: stats}, nil
}

// ListContacts returns the per-recipient delivery records of a campaign.
func (s *CampaignService) ListContacts(companyID int, publicID string) ([]*model.CampaignContact, error) {
	campaign, err := s.CampaignRepo.GetByPublicID(companyID, publicID)
	if err != nil {
		return nil, err
	}
	return s.ContactRepo.ListByCampaign(campaign.ID)
}

// RenderPreview renders the campaign template against one customer.
func (s *CampaignService) RenderPreview(companyID int, publicID string, customerID int, renderer *Renderer) (string, error) {
	campaign, err := s.CampaignRepo.GetByPublicID(companyID, publicID)
	if err != nil {
		return "", err
	}

	tpl, err := s.CampaignRepo.TemplateByID(companyID, campaign.TemplateID)
	if err != nil {
		return "", err
	}
	if tpl == nil {
		return "", fmt.Errorf("template not found")
	}

	customer, err := s.CustomerRepo.GetByID(companyID, customerID)
	if err != nil {
		return "", err
	}
	if customer == nil {
		return "", fmt.Errorf("customer not found")
	}

	return renderer.Render(tpl.HTMLContent, customer.MergeData())
}

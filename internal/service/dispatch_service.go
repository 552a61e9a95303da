// internal/service/dispatch_service.go
package service

import (
	"context"
	"log"
	"time"

	"github.com/garageware/crm-backend/internal/mailgun"
	"github.com/garageware/crm-backend/internal/model"
	"github.com/garageware/crm-backend/internal/repository"
)

// Gateway is the outbound email provider boundary.
type Gateway interface {
	// Ready reports whether the provider can be reached at all; an error
	// here before any send attempt fails the whole campaign.
	Ready() error
	Send(ctx context.Context, msg *mailgun.Message) (string, error)
}

// DispatchService runs one campaign's send: it claims the campaign, renders
// and submits each pending contact once, and settles the campaign status.
type DispatchService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	ContactRepo  repository.ContactRepositoryInterface
	CustomerRepo repository.CustomerRepositoryInterface
	Gateway      Gateway
	Renderer     *Renderer
}

// Run executes the dispatch for one campaign id. Returning nil means the run
// settled the campaign (sent or failed) or there was nothing to do; an error
// means the run itself could not proceed and may be retried by the queue.
func (s *DispatchService) Run(ctx context.Context, campaignID int) error {
	claimed, err := s.CampaignRepo.ClaimForSending(campaignID, time.Now())
	if err != nil {
		return err
	}
	if !claimed {
		// Another worker got it first, or the campaign is not eligible.
		log.Println("campaign", campaignID, "not claimed, skipping")
		return nil
	}

	campaign, err := s.CampaignRepo.GetForDispatch(campaignID)
	if err != nil {
		s.failCampaign(campaignID, err)
		return nil
	}

	tpl, err := s.CampaignRepo.TemplateByID(campaign.CompanyID, campaign.TemplateID)
	if err != nil || tpl == nil {
		s.failCampaign(campaignID, err)
		return nil
	}

	// Systemic check before any send attempt: an unconfigured provider
	// fails the campaign rather than burning through every contact.
	if err := s.Gateway.Ready(); err != nil {
		s.failCampaign(campaignID, err)
		return nil
	}

	// Only contacts without a provider message id: reruns after a crash skip
	// everything already submitted.
	contacts, err := s.ContactRepo.PendingByCampaign(campaign.ID)
	if err != nil {
		s.failCampaign(campaignID, err)
		return nil
	}

	sent, failed := 0, 0
	for _, contact := range contacts {
		if err := s.sendOne(ctx, campaign, tpl, contact); err != nil {
			// Fail-soft: record on the contact, keep going.
			if recErr := s.ContactRepo.RecordSendError(contact.ID, err.Error()); recErr != nil {
				log.Println("⚠️ failed to record send error for contact", contact.ID, ":", recErr)
			}
			failed++
			continue
		}
		sent++
	}

	now := time.Now()
	if err := s.CampaignRepo.MarkSent(campaign.ID, now); err != nil {
		return err
	}

	log.Printf("campaign %d dispatched: %d sent, %d failed\n", campaign.ID, sent, failed)
	return nil
}

// sendOne renders and submits a single contact. At most one attempt per run.
func (s *DispatchService) sendOne(ctx context.Context, campaign *model.Campaign, tpl *model.EmailTemplate, contact *model.CampaignContact) error {
	customer, err := s.CustomerRepo.GetByID(campaign.CompanyID, contact.CustomerID)
	if err != nil {
		return err
	}
	if customer == nil {
		return &customerGoneError{customerID: contact.CustomerID}
	}

	data := customer.MergeData()
	data["preheader"] = campaign.Preheader

	subject, err := s.Renderer.Render(campaign.Subject, data)
	if err != nil {
		return err
	}
	html, err := s.Renderer.Render(tpl.HTMLContent, data)
	if err != nil {
		return err
	}
	text, err := s.Renderer.Render(tpl.TextContent, data)
	if err != nil {
		return err
	}

	messageID, err := s.Gateway.Send(ctx, &mailgun.Message{
		To:        customer.Email,
		FromEmail: campaign.FromAddress,
		ReplyTo:   campaign.ReplyTo,
		Subject:   subject,
		HTMLBody:  html,
		TextBody:  text,
		ContactID: contact.ID,
	})
	if err != nil {
		return err
	}

	return s.ContactRepo.MarkSent(contact.ID, messageID)
}

func (s *DispatchService) failCampaign(campaignID int, cause error) {
	log.Println("⚠️ campaign", campaignID, "dispatch failed:", cause)
	if err := s.CampaignRepo.MarkFailed(campaignID); err != nil {
		log.Println("⚠️ failed to mark campaign", campaignID, "as failed:", err)
	}
}

type customerGoneError struct {
	customerID int
}

func (e *customerGoneError) Error() string {
	return "customer no longer exists"
}

// internal/service/webhook_service.go
package service

import (
	"encoding/json"
	"log"

	appErrors "github.com/garageware/crm-backend/internal/errors"
	"github.com/garageware/crm-backend/internal/model"
	"github.com/garageware/crm-backend/internal/repository"
)

// SignatureVerifier authenticates a provider webhook body.
type SignatureVerifier interface {
	VerifySignature(timestamp, token, signature string) bool
}

// WebhookService ingests provider delivery/engagement callbacks. Delivery is
// at-least-once and unordered, so every step tolerates duplicates and
// reorderings.
type WebhookService struct {
	ContactRepo repository.ContactRepositoryInterface
	Verifier    SignatureVerifier
}

// WebhookPayload mirrors the Mailgun event webhook body.
type WebhookPayload struct {
	Signature struct {
		Timestamp string `json:"timestamp"`
		Token     string `json:"token"`
		Signature string `json:"signature"`
	} `json:"signature"`
	EventData EventData `json:"event-data"`
}

type EventData struct {
	Event   string `json:"event"`
	Reason  string `json:"reason"`
	Message struct {
		Headers struct {
			MessageID string `json:"message-id"`
		} `json:"headers"`
	} `json:"message"`
	DeliveryStatus struct {
		Code        int    `json:"code"`
		Message     string `json:"message"`
		Description string `json:"description"`
	} `json:"delivery-status"`
}

// errorDescription picks the most useful failure text out of the payload.
func (e *EventData) errorDescription() string {
	if e.DeliveryStatus.Description != "" {
		return e.DeliveryStatus.Description
	}
	if e.DeliveryStatus.Message != "" {
		return e.DeliveryStatus.Message
	}
	return e.Reason
}

// Process authenticates, correlates and applies one webhook body.
// Error mapping for the controller:
//   - ErrInvalidSignature: reject, nothing written
//   - ErrMissingMessageID: unprocessable, nothing written
//   - ErrContactNotFound: unknown message id, nothing written
func (s *WebhookService) Process(body []byte) error {
	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return appErrors.NewValidation("invalid webhook body: %v", err)
	}

	sig := payload.Signature
	if !s.Verifier.VerifySignature(sig.Timestamp, sig.Token, sig.Signature) {
		// Security relevant: someone posted an event we cannot authenticate.
		log.Println("⚠️ rejected webhook with bad signature")
		return appErrors.ErrInvalidSignature
	}

	messageID := payload.EventData.Message.Headers.MessageID
	if messageID == "" {
		return appErrors.ErrMissingMessageID
	}

	contact, err := s.ContactRepo.GetByProviderMessageID(messageID)
	if err != nil {
		return err
	}

	eventType := model.ClassifyEvent(payload.EventData.Event)

	// Event row is always appended, even when the aggregate is untouched;
	// duplicates of the same logical event each leave an audit row.
	changed, err := s.ContactRepo.RecordEvent(contact.ID, eventType, body, payload.EventData.errorDescription())
	if err != nil {
		return err
	}

	if changed {
		log.Println("contact", contact.ID, "moved to", eventType, "via webhook")
	}
	return nil
}

package appErrors

import (
	"errors"
	"fmt"
)

// ErrCampaignNotFound is a sentinel error
type ErrCampaignNotFound struct {
	CampaignID int
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %d not found", e.CampaignID)
}

// Helper constructor
func NewCampaignNotFound(id int) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

// ErrContactNotFound means a webhook's provider message id resolved to no
// campaign contact. Not transient: the id will never resolve.
type ErrContactNotFound struct {
	ProviderMessageID string
}

func (e *ErrContactNotFound) Error() string {
	return fmt.Sprintf("no contact with provider message id %q", e.ProviderMessageID)
}

func NewContactNotFound(messageID string) error {
	return &ErrContactNotFound{ProviderMessageID: messageID}
}

// ValidationError is a bad-request error surfaced to the caller as 422.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func NewValidation(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ErrInvalidSignature rejects a webhook whose HMAC does not match.
var ErrInvalidSignature = errors.New("webhook signature mismatch")

// ErrMissingMessageID rejects a webhook that carries no message id to
// correlate on.
var ErrMissingMessageID = errors.New("webhook payload has no message id")

// ErrProviderNotConfigured means the email provider cannot be reached at all
// (no credentials); a dispatch run hitting this fails the whole campaign.
var ErrProviderNotConfigured = errors.New("email provider not configured")

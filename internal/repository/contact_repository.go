package repository

import (
	"database/sql"
	"time"

	appErrors "github.com/garageware/crm-backend/internal/errors"
	"github.com/garageware/crm-backend/internal/model"
)

type ContactRepositoryInterface interface {
	PendingByCampaign(campaignID int) ([]*model.CampaignContact, error)
	ListByCampaign(campaignID int) ([]*model.CampaignContact, error)
	MarkSent(contactID, providerMessageID string) error
	RecordSendError(contactID, errMsg string) error
	GetByProviderMessageID(messageID string) (*model.CampaignContact, error)
	RecordEvent(contactID, eventType string, payload []byte, errDesc string) (bool, error)
}

type ContactRepository struct {
	DB *sql.DB
}

const contactColumns = `id, campaign_id, customer_id, status, provider_message_id,
	opened_at, clicked_at, bounced_at, last_error, created_at, updated_at`

func scanContact(row interface {
	Scan(dest ...interface{}) error
}) (*model.CampaignContact, error) {
	var c model.CampaignContact
	err := row.Scan(
		&c.ID, &c.CampaignID, &c.CustomerID, &c.Status, &c.ProviderMessageID,
		&c.OpenedAt, &c.ClickedAt, &c.BouncedAt, &c.LastError, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// PendingByCampaign returns contacts still awaiting their one send attempt.
// Contacts that already carry a provider message id were submitted by an
// earlier run and are skipped, which is what makes dispatch reruns safe.
func (r *ContactRepository) PendingByCampaign(campaignID int) ([]*model.CampaignContact, error) {
	rows, err := r.DB.Query(`
		SELECT `+contactColumns+`
		FROM campaign_contacts
		WHERE campaign_id=$1 AND status=$2 AND provider_message_id IS NULL
		ORDER BY id
	`, campaignID, model.ContactStatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := []*model.CampaignContact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

func (r *ContactRepository) ListByCampaign(campaignID int) ([]*model.CampaignContact, error) {
	rows, err := r.DB.Query(`
		SELECT `+contactColumns+`
		FROM campaign_contacts WHERE campaign_id=$1 ORDER BY id
	`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := []*model.CampaignContact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// MarkSent records the provider's message id and advances the contact.
func (r *ContactRepository) MarkSent(contactID, providerMessageID string) error {
	_, err := r.DB.Exec(`
		UPDATE campaign_contacts
		SET status=$1, provider_message_id=$2, last_error='', updated_at=NOW()
		WHERE id=$3
	`, model.ContactStatusSent, providerMessageID, contactID)
	return err
}

// RecordSendError logs a per-recipient submission failure. The contact stays
// pending so a later manual resend can pick it up.
func (r *ContactRepository) RecordSendError(contactID, errMsg string) error {
	_, err := r.DB.Exec(`
		UPDATE campaign_contacts SET last_error=$1, updated_at=NOW() WHERE id=$2
	`, errMsg, contactID)
	return err
}

func (r *ContactRepository) GetByProviderMessageID(messageID string) (*model.CampaignContact, error) {
	c, err := scanContact(r.DB.QueryRow(`
		SELECT `+contactColumns+`
		FROM campaign_contacts WHERE provider_message_id=$1
	`, messageID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewContactNotFound(messageID)
		}
		return nil, err
	}
	return c, nil
}

// RecordEvent appends a campaign event and applies the aggregate status
// update in one transaction, holding a row lock on the contact so concurrent
// webhooks for the same recipient cannot lose updates. The event row is
// always inserted; the status write follows the transition table and is a
// no-op for duplicates and for anything after a bounce. Returns whether the
// contact status changed.
func (r *ContactRepository) RecordEvent(contactID, eventType string, payload []byte, errDesc string) (bool, error) {
	tx, err := r.DB.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRow(`
		SELECT status FROM campaign_contacts WHERE id=$1 FOR UPDATE
	`, contactID).Scan(&current)
	if err != nil {
		return false, err
	}

	now := time.Now()
	if _, err := tx.Exec(`
		INSERT INTO campaign_events (contact_id, event_type, raw_payload, created_at)
		VALUES ($1, $2, $3, $4)
	`, contactID, eventType, payload, now); err != nil {
		return false, err
	}

	next, changed := model.ContactStatusAfterEvent(current, eventType)

	if current != model.ContactStatusBounced {
		switch eventType {
		case model.EventOpened:
			_, err = tx.Exec(`
				UPDATE campaign_contacts
				SET status=$1, opened_at=COALESCE(opened_at, $2), updated_at=$2
				WHERE id=$3
			`, next, now, contactID)
		case model.EventClicked:
			_, err = tx.Exec(`
				UPDATE campaign_contacts
				SET status=$1, clicked_at=COALESCE(clicked_at, $2), updated_at=$2
				WHERE id=$3
			`, next, now, contactID)
		case model.EventBounced, model.EventComplained:
			_, err = tx.Exec(`
				UPDATE campaign_contacts
				SET status=$1, bounced_at=COALESCE(bounced_at, $2), last_error=$3, updated_at=$2
				WHERE id=$4
			`, next, now, errDesc, contactID)
		}
		if err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return changed, nil
}

var _ ContactRepositoryInterface = (*ContactRepository)(nil)

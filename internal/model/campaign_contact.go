// internal/model/campaign_contact.go
package model

import "time"

// Per-recipient delivery statuses. "bounced" is terminal for the recipient;
// the rest advance as engagement events arrive.
const (
	ContactStatusPending = "pending"
	ContactStatusSent    = "sent"
	ContactStatusOpened  = "opened"
	ContactStatusClicked = "clicked"
	ContactStatusBounced = "bounced"
)

// CampaignContact is one recipient's send record within a campaign, created
// in bulk by the snapshot step and never again afterwards.
type CampaignContact struct {
	ID                string     `db:"id" json:"id"`
	CampaignID        int        `db:"campaign_id" json:"campaign_id"`
	CustomerID        int        `db:"customer_id" json:"customer_id"`
	Status            string     `db:"status" json:"status"`
	ProviderMessageID *string    `db:"provider_message_id" json:"provider_message_id,omitempty"`
	OpenedAt          *time.Time `db:"opened_at" json:"opened_at,omitempty"`
	ClickedAt         *time.Time `db:"clicked_at" json:"clicked_at,omitempty"`
	BouncedAt         *time.Time `db:"bounced_at" json:"bounced_at,omitempty"`
	LastError         string     `db:"last_error" json:"last_error,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

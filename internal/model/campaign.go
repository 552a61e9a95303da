// internal/model/campaign.go
package model

import "time"

// Campaign lifecycle statuses. "draft" is reserved; the creation flow only
// produces queued or scheduled campaigns.
const (
	CampaignStatusDraft     = "draft"
	CampaignStatusQueued    = "queued"
	CampaignStatusScheduled = "scheduled"
	CampaignStatusSending   = "sending"
	CampaignStatusSent      = "sent"
	CampaignStatusFailed    = "failed"
)

type Campaign struct {
	ID          int        `db:"id" json:"-"`
	PublicID    string     `db:"public_id" json:"id"`
	CompanyID   int        `db:"company_id" json:"company_id"`
	Subject     string     `db:"subject" json:"subject"`
	Preheader   string     `db:"preheader" json:"preheader"`
	TemplateID  int        `db:"template_id" json:"template_id"`
	FromAddress string     `db:"from_address" json:"from_address"`
	ReplyTo     string     `db:"reply_to" json:"reply_to,omitempty"`
	TagIDs      []int64    `db:"tag_ids" json:"tag_ids"`
	Status      string     `db:"status" json:"status"`
	ScheduledAt *time.Time `db:"scheduled_at" json:"scheduled_at,omitempty"`
	SentAt      *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// StatusAtCreation derives the initial lifecycle status from the schedule:
// a strictly future scheduled_at means "scheduled", anything else is queued
// for immediate dispatch.
func StatusAtCreation(scheduledAt *time.Time, now time.Time) string {
	if scheduledAt != nil && scheduledAt.After(now) {
		return CampaignStatusScheduled
	}
	return CampaignStatusQueued
}

// DispatchEligible reports whether the campaign is due for sending.
func (c *Campaign) DispatchEligible(now time.Time) bool {
	if c.Status != CampaignStatusQueued && c.Status != CampaignStatusScheduled {
		return false
	}
	return c.ScheduledAt == nil || !c.ScheduledAt.After(now)
}

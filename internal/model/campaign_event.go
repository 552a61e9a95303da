// internal/model/campaign_event.go
package model

import (
	"encoding/json"
	"time"
)

// Classified webhook event types. Unknown provider event names land in
// "unclassified" so new provider events never break ingestion.
const (
	EventDelivered    = "delivered"
	EventOpened       = "opened"
	EventClicked      = "clicked"
	EventBounced      = "bounced"
	EventComplained   = "complained"
	EventFailed       = "failed"
	EventUnclassified = "unclassified"
)

// CampaignEvent is an append-only audit record of one provider callback.
// Duplicate deliveries of the same logical event each get their own row.
type CampaignEvent struct {
	ID         int             `db:"id" json:"id"`
	ContactID  string          `db:"contact_id" json:"contact_id"`
	EventType  string          `db:"event_type" json:"event_type"`
	RawPayload json.RawMessage `db:"raw_payload" json:"raw_payload,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// ClassifyEvent maps a provider event name onto the closed event type set.
func ClassifyEvent(providerEvent string) string {
	switch providerEvent {
	case "delivered":
		return EventDelivered
	case "opened":
		return EventOpened
	case "clicked":
		return EventClicked
	case "bounced":
		return EventBounced
	case "complained":
		return EventComplained
	case "failed", "rejected":
		return EventFailed
	default:
		return EventUnclassified
	}
}

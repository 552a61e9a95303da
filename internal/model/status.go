// internal/model/status.go
package model

// Explicit transition tables for campaign and contact state, so every legal
// and illegal transition can be tested instead of being buried in ad hoc
// conditionals.

// campaignTransitions lists the legal (current -> next) campaign moves.
var campaignTransitions = map[string][]string{
	CampaignStatusDraft:     {CampaignStatusQueued, CampaignStatusScheduled},
	CampaignStatusQueued:    {CampaignStatusSending},
	CampaignStatusScheduled: {CampaignStatusSending},
	CampaignStatusSending:   {CampaignStatusSent, CampaignStatusFailed},
	// sent and failed are terminal
}

// CampaignTransitionAllowed reports whether a campaign may move from one
// lifecycle status to another.
func CampaignTransitionAllowed(current, next string) bool {
	for _, s := range campaignTransitions[current] {
		if s == next {
			return true
		}
	}
	return false
}

// ContactStatusAfterEvent returns the contact status that should result from
// applying a classified event to a contact in the given status. The second
// return value is false when the event leaves the status untouched.
//
// The mapping is last-write on engagement events with a single override rule:
// bounced is terminal and never reverts, so a late open after a bounce is a
// no-op. Applying the same event twice yields the same end state.
func ContactStatusAfterEvent(current, eventType string) (string, bool) {
	if current == ContactStatusBounced {
		return current, false
	}

	switch eventType {
	case EventOpened:
		if current == ContactStatusOpened {
			return current, false
		}
		return ContactStatusOpened, true
	case EventClicked:
		if current == ContactStatusClicked {
			return current, false
		}
		return ContactStatusClicked, true
	case EventBounced, EventComplained:
		return ContactStatusBounced, true
	default:
		// delivered, failed and unclassified are recorded for audit only
		return current, false
	}
}

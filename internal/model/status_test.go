package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCampaignTransitionAllowed(t *testing.T) {
	allStatuses := []string{
		CampaignStatusDraft, CampaignStatusQueued, CampaignStatusScheduled,
		CampaignStatusSending, CampaignStatusSent, CampaignStatusFailed,
	}

	legal := map[[2]string]bool{
		{CampaignStatusDraft, CampaignStatusQueued}:      true,
		{CampaignStatusDraft, CampaignStatusScheduled}:   true,
		{CampaignStatusQueued, CampaignStatusSending}:    true,
		{CampaignStatusScheduled, CampaignStatusSending}: true,
		{CampaignStatusSending, CampaignStatusSent}:      true,
		{CampaignStatusSending, CampaignStatusFailed}:    true,
	}

	// Every pair, legal and illegal
	for _, from := range allStatuses {
		for _, to := range allStatuses {
			want := legal[[2]string{from, to}]
			assert.Equal(t, want, CampaignTransitionAllowed(from, to),
				"transition %s -> %s", from, to)
		}
	}
}

func TestCampaignTransitionAllowed_TerminalStates(t *testing.T) {
	for _, terminal := range []string{CampaignStatusSent, CampaignStatusFailed} {
		for _, to := range []string{
			CampaignStatusQueued, CampaignStatusScheduled, CampaignStatusSending,
			CampaignStatusSent, CampaignStatusFailed,
		} {
			assert.False(t, CampaignTransitionAllowed(terminal, to),
				"terminal status %s must not transition to %s", terminal, to)
		}
	}
}

func TestContactStatusAfterEvent(t *testing.T) {
	cases := []struct {
		name        string
		current     string
		event       string
		wantStatus  string
		wantChanged bool
	}{
		{"pending open", ContactStatusPending, EventOpened, ContactStatusOpened, true},
		{"sent open", ContactStatusSent, EventOpened, ContactStatusOpened, true},
		{"sent click", ContactStatusSent, EventClicked, ContactStatusClicked, true},
		{"opened click", ContactStatusOpened, EventClicked, ContactStatusClicked, true},
		{"clicked open is last-write", ContactStatusClicked, EventOpened, ContactStatusOpened, true},
		{"duplicate open", ContactStatusOpened, EventOpened, ContactStatusOpened, false},
		{"duplicate click", ContactStatusClicked, EventClicked, ContactStatusClicked, false},
		{"sent bounce", ContactStatusSent, EventBounced, ContactStatusBounced, true},
		{"sent complaint", ContactStatusSent, EventComplained, ContactStatusBounced, true},
		{"opened bounce", ContactStatusOpened, EventBounced, ContactStatusBounced, true},
		{"bounce is terminal for open", ContactStatusBounced, EventOpened, ContactStatusBounced, false},
		{"bounce is terminal for click", ContactStatusBounced, EventClicked, ContactStatusBounced, false},
		{"bounce is terminal for bounce", ContactStatusBounced, EventBounced, ContactStatusBounced, false},
		{"delivered leaves status", ContactStatusSent, EventDelivered, ContactStatusSent, false},
		{"failed leaves status", ContactStatusSent, EventFailed, ContactStatusSent, false},
		{"unclassified leaves status", ContactStatusSent, EventUnclassified, ContactStatusSent, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, changed := ContactStatusAfterEvent(tc.current, tc.event)
			assert.Equal(t, tc.wantStatus, got)
			assert.Equal(t, tc.wantChanged, changed)
		})
	}
}

func TestContactStatusAfterEvent_Idempotent(t *testing.T) {
	// Applying the same event twice must land on the same end state.
	statuses := []string{ContactStatusPending, ContactStatusSent, ContactStatusOpened, ContactStatusClicked, ContactStatusBounced}
	events := []string{EventDelivered, EventOpened, EventClicked, EventBounced, EventComplained, EventFailed, EventUnclassified}

	for _, s := range statuses {
		for _, e := range events {
			once, _ := ContactStatusAfterEvent(s, e)
			twice, _ := ContactStatusAfterEvent(once, e)
			assert.Equal(t, once, twice, "status %s event %s", s, e)
		}
	}
}

func TestStatusAtCreation(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	assert.Equal(t, CampaignStatusQueued, StatusAtCreation(nil, now))
	assert.Equal(t, CampaignStatusQueued, StatusAtCreation(&past, now))
	assert.Equal(t, CampaignStatusQueued, StatusAtCreation(&now, now))
	assert.Equal(t, CampaignStatusScheduled, StatusAtCreation(&future, now))
}

func TestDispatchEligible(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	assert.True(t, (&Campaign{Status: CampaignStatusQueued}).DispatchEligible(now))
	assert.True(t, (&Campaign{Status: CampaignStatusScheduled, ScheduledAt: &past}).DispatchEligible(now))
	assert.False(t, (&Campaign{Status: CampaignStatusScheduled, ScheduledAt: &future}).DispatchEligible(now))
	assert.False(t, (&Campaign{Status: CampaignStatusSending}).DispatchEligible(now))
	assert.False(t, (&Campaign{Status: CampaignStatusSent}).DispatchEligible(now))
	assert.False(t, (&Campaign{Status: CampaignStatusFailed}).DispatchEligible(now))
}

func TestClassifyEvent(t *testing.T) {
	assert.Equal(t, EventOpened, ClassifyEvent("opened"))
	assert.Equal(t, EventClicked, ClassifyEvent("clicked"))
	assert.Equal(t, EventBounced, ClassifyEvent("bounced"))
	assert.Equal(t, EventComplained, ClassifyEvent("complained"))
	assert.Equal(t, EventDelivered, ClassifyEvent("delivered"))
	assert.Equal(t, EventFailed, ClassifyEvent("failed"))
	assert.Equal(t, EventFailed, ClassifyEvent("rejected"))

	// Unknown provider events must classify, never error out of ingestion
	assert.Equal(t, EventUnclassified, ClassifyEvent("list_member_uploaded"))
	assert.Equal(t, EventUnclassified, ClassifyEvent(""))
}

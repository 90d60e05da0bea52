// internal/model/campaign.go
package model

import "time"

// Campaign statuses. A campaign only moves forward through these; the one
// exception is cancel, which returns scheduled -> draft.
const (
	CampaignDraft     = "draft"
	CampaignScheduled = "scheduled"
	CampaignSending   = "sending"
	CampaignSent      = "sent"
)

const (
	CategoryMarketing     = "marketing"
	CategoryTransactional = "transactional"
)

type Campaign struct {
	ID             int        `db:"id" json:"id"`
	Name           string     `db:"name" json:"name"`
	Category       string     `db:"category" json:"category"`
	Subject        string     `db:"subject" json:"subject"`
	HTMLBody       string     `db:"html_body" json:"html_body"`
	TextBody       string     `db:"text_body" json:"text_body,omitempty"`
	Segment        string     `db:"segment" json:"segment,omitempty"`
	ManualList     string     `db:"manual_list" json:"manual_list,omitempty"`
	WaitlistStatus string     `db:"waitlist_status" json:"waitlist_status,omitempty"`
	ListRef        string     `db:"list_ref" json:"list_ref,omitempty"`
	ApptSegment    string     `db:"appt_segment" json:"appt_segment,omitempty"`
	Status         string     `db:"status" json:"status"`
	ScheduledAt    *time.Time `db:"scheduled_at" json:"scheduled_at,omitempty"`
	SentAt         *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	ScheduleRef    string     `db:"schedule_ref" json:"schedule_ref,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// Audience returns the campaign's audience descriptor.
func (c *Campaign) Audience() Audience {
	return Audience{
		Manual:         c.ManualList,
		WaitlistStatus: c.WaitlistStatus,
		ListRef:        c.ListRef,
		ApptSegment:    c.ApptSegment,
	}
}

// internal/model/recipient.go
package model

import "time"

// Recipient statuses. Rows start queued (or unsubscribed when the address is
// on the suppression list at build time) and only move forward from there.
const (
	RecipientQueued       = "queued"
	RecipientSent         = "sent"
	RecipientFailed       = "failed"
	RecipientUnsubscribed = "unsubscribed"
)

type Recipient struct {
	ID              int        `db:"id" json:"id"`
	CampaignID      int        `db:"campaign_id" json:"campaign_id"`
	Email           string     `db:"email" json:"email"`
	Status          string     `db:"status" json:"status"`
	UnsubToken      string     `db:"unsub_token" json:"unsub_token"`
	RenderedSubject string     `db:"rendered_subject" json:"rendered_subject,omitempty"`
	RenderedHTML    string     `db:"rendered_html" json:"rendered_html,omitempty"`
	RenderedText    string     `db:"rendered_text" json:"rendered_text,omitempty"`
	LastError       string     `db:"last_error" json:"last_error,omitempty"`
	SentAt          *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

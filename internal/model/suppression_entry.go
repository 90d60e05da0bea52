// internal/model/suppression_entry.go
package model

import "time"

// SuppressionEntry is the global do-not-contact ledger. It is
// campaign-independent: once an address lands here marketing mail must never
// reach it again, regardless of per-campaign recipient state.
type SuppressionEntry struct {
	ID           int       `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Origin       string    `db:"origin" json:"origin,omitempty"`
	SuppressedAt time.Time `db:"suppressed_at" json:"suppressed_at"`
}

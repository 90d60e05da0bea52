// internal/errors/errors.go
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

// ValidationError is returned for bad input rejected at the boundary.
// Nothing is mutated when one of these comes back.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func NewValidation(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var (
	// ErrEmptyAudience: the audience descriptor resolved to zero valid addresses.
	ErrEmptyAudience = &ValidationError{Msg: "audience resolved to zero valid addresses"}

	// ErrNoQueuedRecipients: schedule or dispatch attempted with nothing queued.
	ErrNoQueuedRecipients = &ValidationError{Msg: "campaign has no queued recipients"}

	// ErrAlreadyClaimed: a concurrent dispatch already claimed the
	// scheduled -> sending transition for this campaign.
	ErrAlreadyClaimed = errors.New("campaign already claimed for sending")
)

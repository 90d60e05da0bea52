package repository

import (
	"database/sql"
)

// AudienceRepositoryInterface exposes the read-only pulls the audience
// resolver makes against tables owned by other parts of the platform
// (waitlist signups, appointment requests).
type AudienceRepositoryInterface interface {
	// ListWaitlistEmails returns waitlist addresses filtered by sub-status;
	// empty status means every entry.
	ListWaitlistEmails(status string) ([]string, error)

	// ListAppointmentEmails returns appointment-request addresses. The
	// status filter exists but callers currently pass "" (all entries);
	// real segment rules are pending product clarification.
	ListAppointmentEmails(status string) ([]string, error)
}

type AudienceRepository struct {
	DB *sql.DB
}

func (r *AudienceRepository) ListWaitlistEmails(status string) ([]string, error) {
	query := `SELECT email FROM waitlist_entries`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status=$1`
		args = append(args, status)
	}
	return r.listEmails(query, args...)
}

func (r *AudienceRepository) ListAppointmentEmails(status string) ([]string, error) {
	query := `SELECT email FROM appointment_requests`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status=$1`
		args = append(args, status)
	}
	return r.listEmails(query, args...)
}

func (r *AudienceRepository) listEmails(query string, args ...interface{}) ([]string, error) {
	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	emails := []string{}
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}

var _ AudienceRepositoryInterface = (*AudienceRepository)(nil)

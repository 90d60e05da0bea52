package repository

import (
	"database/sql"
	"strings"

	"github.com/lib/pq"
)

type SuppressionRepositoryInterface interface {
	// Add records an address on the do-not-contact ledger. Re-adding an
	// address that is already suppressed is a no-op.
	Add(email, origin string) error

	// Lookup returns the subset of emails present on the ledger, keyed by
	// normalized (lowercased) address.
	Lookup(emails []string) (map[string]bool, error)
}

type SuppressionRepository struct {
	DB *sql.DB
}

func (r *SuppressionRepository) Add(email, origin string) error {
	query := `
        INSERT INTO suppression_entries (email, origin, suppressed_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (email) DO NOTHING
    `
	_, err := r.DB.Exec(query, strings.ToLower(strings.TrimSpace(email)), origin)
	return err
}

func (r *SuppressionRepository) Lookup(emails []string) (map[string]bool, error) {
	suppressed := map[string]bool{}
	if len(emails) == 0 {
		return suppressed, nil
	}

	normalized := make([]string, len(emails))
	for i, e := range emails {
		normalized[i] = strings.ToLower(strings.TrimSpace(e))
	}

	rows, err := r.DB.Query(`SELECT email FROM suppression_entries WHERE email = ANY($1)`, pq.Array(normalized))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		suppressed[email] = true
	}
	return suppressed, rows.Err()
}

var _ SuppressionRepositoryInterface = (*SuppressionRepository)(nil)

package repository

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/unclebandit/taxleopard-backend/internal/model"
)

type SubscriberRepositoryInterface interface {
	Upsert(s *model.Subscriber) error
	List(listRef, status string) ([]model.Subscriber, error)

	// ListActiveEmails returns subscribed addresses, optionally filtered by
	// list_ref (empty = every list).
	ListActiveEmails(listRef string) ([]string, error)

	// NamesByEmails resolves display names for personalization in bulk.
	NamesByEmails(emails []string) (map[string]string, error)

	UpdateStatusByEmail(email, status string) error
}

type SubscriberRepository struct {
	DB *sql.DB
}

func (r *SubscriberRepository) Upsert(s *model.Subscriber) error {
	if s.Status == "" {
		s.Status = model.SubscriberSubscribed
	}
	query := `
        INSERT INTO subscribers (email, name, tags, list_ref, status, origin, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
        ON CONFLICT (email) DO UPDATE
        SET name=EXCLUDED.name, tags=EXCLUDED.tags, list_ref=EXCLUDED.list_ref, updated_at=NOW()
        RETURNING id
    `
	return r.DB.QueryRow(query, s.Email, s.Name, s.Tags, s.ListRef, s.Status, s.Origin).Scan(&s.ID)
}

func (r *SubscriberRepository) List(listRef, status string) ([]model.Subscriber, error) {
	query := `SELECT id, email, name, tags, list_ref, status, origin, created_at, updated_at FROM subscribers WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if listRef != "" {
		query += fmt.Sprintf(" AND list_ref=$%d", argPos)
		args = append(args, listRef)
		argPos++
	}
	if status != "" {
		query += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, status)
	}
	query += " ORDER BY id"

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subscribers := []model.Subscriber{}
	for rows.Next() {
		var s model.Subscriber
		if err := rows.Scan(&s.ID, &s.Email, &s.Name, &s.Tags, &s.ListRef, &s.Status, &s.Origin, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		subscribers = append(subscribers, s)
	}
	return subscribers, rows.Err()
}

func (r *SubscriberRepository) ListActiveEmails(listRef string) ([]string, error) {
	query := `SELECT email FROM subscribers WHERE status=$1`
	args := []interface{}{model.SubscriberSubscribed}
	if listRef != "" {
		query += ` AND list_ref=$2`
		args = append(args, listRef)
	}

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

func (r *SubscriberRepository) NamesByEmails(emails []string) (map[string]string, error) {
	names := map[string]string{}
	if len(emails) == 0 {
		return names, nil
	}

	rows, err := r.DB.Query(`SELECT email, name FROM subscribers WHERE email = ANY($1)`, pq.Array(emails))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var email, name string
		if err := rows.Scan(&email, &name); err != nil {
			return nil, err
		}
		names[email] = name
	}
	return names, rows.Err()
}

func (r *SubscriberRepository) UpdateStatusByEmail(email, status string) error {
	_, err := r.DB.Exec(`UPDATE subscribers SET status=$1, updated_at=NOW() WHERE email=$2`, status, email)
	return err
}

var _ SubscriberRepositoryInterface = (*SubscriberRepository)(nil)

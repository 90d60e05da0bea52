package repository

import (
	"database/sql"

	"github.com/unclebandit/taxleopard-backend/internal/model"
)

type RecipientRepositoryInterface interface {
	// InsertIgnore persists rec unless a row for (campaign_id, email)
	// already exists. Reports whether a new row was created.
	InsertIgnore(rec *model.Recipient) (bool, error)

	GetByID(id int) (*model.Recipient, error)
	ListQueued(campaignID int) ([]model.Recipient, error)
	CountQueued(campaignID int) (int, error)

	// Per-recipient outcome writes, recorded right after each send attempt.
	MarkSent(id int, subject, html, text string) error
	MarkFailed(id int, subject, html, text, sendErr string) error
	MarkRetrySent(id int) error
	MarkUnsubscribed(id int) error

	// UnsubscribeEmail flips every still-queued row for an address,
	// across campaigns. Returns the number of rows flipped.
	UnsubscribeEmail(email string) (int64, error)
}

type RecipientRepository struct {
	DB *sql.DB
}

const recipientColumns = `id, campaign_id, email, status, unsub_token,
	rendered_subject, rendered_html, rendered_text, last_error, sent_at, created_at, updated_at`

// InsertIgnore relies on the UNIQUE (campaign_id, email) constraint: the
// conflict clause swallows re-resolutions so rebuilding an audience is a
// no-op for addresses already present, however many times an admin clicks.
func (r *RecipientRepository) InsertIgnore(rec *model.Recipient) (bool, error) {
	query := `
        INSERT INTO recipients (campaign_id, email, status, unsub_token, created_at, updated_at)
        VALUES ($1, $2, $3, $4, NOW(), NOW())
        ON CONFLICT (campaign_id, email) DO NOTHING
        RETURNING id
    `
	err := r.DB.QueryRow(query, rec.CampaignID, rec.Email, rec.Status, rec.UnsubToken).Scan(&rec.ID)
	if err == sql.ErrNoRows {
		return false, nil // already present
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *RecipientRepository) GetByID(id int) (*model.Recipient, error) {
	query := `SELECT ` + recipientColumns + ` FROM recipients WHERE id=$1`
	var rec model.Recipient
	err := r.DB.QueryRow(query, id).Scan(
		&rec.ID, &rec.CampaignID, &rec.Email, &rec.Status, &rec.UnsubToken,
		&rec.RenderedSubject, &rec.RenderedHTML, &rec.RenderedText,
		&rec.LastError, &rec.SentAt, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, err
	}
	return &rec, nil
}

func (r *RecipientRepository) ListQueued(campaignID int) ([]model.Recipient, error) {
	query := `SELECT ` + recipientColumns + ` FROM recipients WHERE campaign_id=$1 AND status=$2 ORDER BY id`
	rows, err := r.DB.Query(query, campaignID, model.RecipientQueued)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recipients := []model.Recipient{}
	for rows.Next() {
		var rec model.Recipient
		if err := rows.Scan(
			&rec.ID, &rec.CampaignID, &rec.Email, &rec.Status, &rec.UnsubToken,
			&rec.RenderedSubject, &rec.RenderedHTML, &rec.RenderedText,
			&rec.LastError, &rec.SentAt, &rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, err
		}
		recipients = append(recipients, rec)
	}
	return recipients, rows.Err()
}

func (r *RecipientRepository) CountQueued(campaignID int) (int, error) {
	var count int
	err := r.DB.QueryRow(
		`SELECT COUNT(*) FROM recipients WHERE campaign_id=$1 AND status=$2`,
		campaignID, model.RecipientQueued,
	).Scan(&count)
	return count, err
}

func (r *RecipientRepository) MarkSent(id int, subject, html, text string) error {
	query := `
        UPDATE recipients
        SET status=$1, rendered_subject=$2, rendered_html=$3, rendered_text=$4,
            last_error='', sent_at=NOW(), updated_at=NOW()
        WHERE id=$5 AND status=$6
    `
	_, err := r.DB.Exec(query, model.RecipientSent, subject, html, text, id, model.RecipientQueued)
	return err
}

func (r *RecipientRepository) MarkFailed(id int, subject, html, text, sendErr string) error {
	query := `
        UPDATE recipients
        SET status=$1, rendered_subject=$2, rendered_html=$3, rendered_text=$4,
            last_error=$5, updated_at=NOW()
        WHERE id=$6 AND status=$7
    `
	_, err := r.DB.Exec(query, model.RecipientFailed, subject, html, text, sendErr, id, model.RecipientQueued)
	return err
}

// MarkRetrySent records a successful re-send by the retry worker. Only
// failed rows qualify; queued rows stay with the main dispatcher.
func (r *RecipientRepository) MarkRetrySent(id int) error {
	query := `UPDATE recipients SET status=$1, last_error='', sent_at=NOW(), updated_at=NOW() WHERE id=$2 AND status=$3`
	_, err := r.DB.Exec(query, model.RecipientSent, id, model.RecipientFailed)
	return err
}

func (r *RecipientRepository) MarkUnsubscribed(id int) error {
	query := `UPDATE recipients SET status=$1, updated_at=NOW() WHERE id=$2 AND status=$3`
	_, err := r.DB.Exec(query, model.RecipientUnsubscribed, id, model.RecipientQueued)
	return err
}

func (r *RecipientRepository) UnsubscribeEmail(email string) (int64, error) {
	query := `UPDATE recipients SET status=$1, updated_at=NOW() WHERE email=$2 AND status=$3`
	res, err := r.DB.Exec(query, model.RecipientUnsubscribed, email, model.RecipientQueued)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

var _ RecipientRepositoryInterface = (*RecipientRepository)(nil)

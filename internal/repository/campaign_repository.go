package repository

import (
	"database/sql"
	"fmt"
	"time"

	appErrors "github.com/unclebandit/taxleopard-backend/internal/errors"
	"github.com/unclebandit/taxleopard-backend/internal/model"
)

type CampaignRepositoryInterface interface {
	Create(c *model.Campaign) error
	Update(c *model.Campaign) error
	GetByID(id int) (*model.Campaign, error)
	ListCampaigns(offset, limit int, category, status string) ([]*model.Campaign, int, error)

	// Lifecycle writes
	MarkScheduled(id int, sendAt time.Time, scheduleRef string) error
	ClearSchedule(id int) error
	ClaimSending(id int) (bool, error)
	MarkSent(id int, sentAt time.Time) error

	GetRecipientStats(campaignID int) (map[string]int, error)
}

type CampaignRepository struct {
	DB *sql.DB
}

const campaignColumns = `id, name, category, subject, html_body, text_body, segment,
	manual_list, waitlist_status, list_ref, appt_segment,
	status, scheduled_at, sent_at, schedule_ref, created_at, updated_at`

// ====================== Campaign CRUD ======================

func (r *CampaignRepository) Create(c *model.Campaign) error {
	c.CreatedAt = time.Now()
	if c.Status == "" {
		c.Status = model.CampaignDraft
	}
	query := `
        INSERT INTO campaigns (name, category, subject, html_body, text_body, segment,
            manual_list, waitlist_status, list_ref, appt_segment, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
        RETURNING id
    `
	return r.DB.QueryRow(query,
		c.Name, c.Category, c.Subject, c.HTMLBody, c.TextBody, c.Segment,
		c.ManualList, c.WaitlistStatus, c.ListRef, c.ApptSegment, c.Status, c.CreatedAt,
	).Scan(&c.ID)
}

func (r *CampaignRepository) Update(c *model.Campaign) error {
	query := `
        UPDATE campaigns
        SET name=$1, subject=$2, html_body=$3, text_body=$4, segment=$5,
            manual_list=$6, waitlist_status=$7, list_ref=$8, appt_segment=$9, updated_at=NOW()
        WHERE id=$10
    `
	_, err := r.DB.Exec(query,
		c.Name, c.Subject, c.HTMLBody, c.TextBody, c.Segment,
		c.ManualList, c.WaitlistStatus, c.ListRef, c.ApptSegment, c.ID,
	)
	return err
}

func (r *CampaignRepository) GetByID(id int) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id=$1`

	var c model.Campaign
	var scheduleRef sql.NullString
	err := r.DB.QueryRow(query, id).Scan(
		&c.ID, &c.Name, &c.Category, &c.Subject, &c.HTMLBody, &c.TextBody, &c.Segment,
		&c.ManualList, &c.WaitlistStatus, &c.ListRef, &c.ApptSegment,
		&c.Status, &c.ScheduledAt, &c.SentAt, &scheduleRef, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	c.ScheduleRef = scheduleRef.String
	return &c, nil
}

func (r *CampaignRepository) ListCampaigns(offset, limit int, category, status string) ([]*model.Campaign, int, error) {
	campaigns := []*model.Campaign{}
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if category != "" {
		query += fmt.Sprintf(" AND category=$%d", argPos)
		args = append(args, category)
		argPos++
	}
	if status != "" {
		query += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, status)
		argPos++
	}

	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		c := &model.Campaign{}
		var scheduleRef sql.NullString
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Category, &c.Subject, &c.HTMLBody, &c.TextBody, &c.Segment,
			&c.ManualList, &c.WaitlistStatus, &c.ListRef, &c.ApptSegment,
			&c.Status, &c.ScheduledAt, &c.SentAt, &scheduleRef, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		c.ScheduleRef = scheduleRef.String
		campaigns = append(campaigns, c)
	}

	// Count total
	countQuery := `SELECT COUNT(*) FROM campaigns WHERE 1=1`
	argsCount := []interface{}{}
	argPosCount := 1
	if category != "" {
		countQuery += fmt.Sprintf(" AND category=$%d", argPosCount)
		argsCount = append(argsCount, category)
		argPosCount++
	}
	if status != "" {
		countQuery += fmt.Sprintf(" AND status=$%d", argPosCount)
		argsCount = append(argsCount, status)
	}

	var total int
	if err := r.DB.QueryRow(countQuery, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return campaigns, total, nil
}

// ====================== Lifecycle writes ======================

func (r *CampaignRepository) MarkScheduled(id int, sendAt time.Time, scheduleRef string) error {
	query := `UPDATE campaigns SET status=$1, scheduled_at=$2, schedule_ref=$3, updated_at=NOW() WHERE id=$4`
	_, err := r.DB.Exec(query, model.CampaignScheduled, sendAt, scheduleRef, id)
	return err
}

// ClearSchedule is the cancel transition: back to draft with no schedule state.
func (r *CampaignRepository) ClearSchedule(id int) error {
	query := `UPDATE campaigns SET status=$1, scheduled_at=NULL, schedule_ref=NULL, updated_at=NOW() WHERE id=$2`
	_, err := r.DB.Exec(query, model.CampaignDraft, id)
	return err
}

// ClaimSending performs the conditional scheduled -> sending transition.
// The status predicate makes the row itself the lock: of two concurrent
// trigger callbacks only one sees a row affected, the other must abort.
func (r *CampaignRepository) ClaimSending(id int) (bool, error) {
	query := `UPDATE campaigns SET status=$1, updated_at=NOW() WHERE id=$2 AND status=$3`
	res, err := r.DB.Exec(query, model.CampaignSending, id, model.CampaignScheduled)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *CampaignRepository) MarkSent(id int, sentAt time.Time) error {
	query := `UPDATE campaigns SET status=$1, scheduled_at=NULL, sent_at=$2, updated_at=NOW() WHERE id=$3`
	_, err := r.DB.Exec(query, model.CampaignSent, sentAt, id)
	return err
}

// ====================== Stats ======================

func (r *CampaignRepository) GetRecipientStats(campaignID int) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM recipients WHERE campaign_id=$1 GROUP BY status`
	rows, err := r.DB.Query(query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[string]int{
		"total":        0,
		"queued":       0,
		"sent":         0,
		"failed":       0,
		"unsubscribed": 0,
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		if _, ok := stats[status]; ok {
			stats[status] = count
		}
		stats["total"] += count
	}
	return stats, nil
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)

// internal/service/campaign_service.go
package service

import (
	"log"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/taxleopard-backend/internal/errors"
	"github.com/unclebandit/taxleopard-backend/internal/model"
	"github.com/unclebandit/taxleopard-backend/internal/repository"
	"github.com/unclebandit/taxleopard-backend/internal/scheduler"
	"github.com/unclebandit/taxleopard-backend/internal/template"
)

// MinScheduleLead is the safety margin: a campaign cannot be scheduled to
// dispatch less than this far in the future.
const MinScheduleLead = time.Minute

type CampaignService struct {
	CampaignRepo  repository.CampaignRepositoryInterface
	RecipientRepo repository.RecipientRepositoryInterface
	Audience      *AudienceService
	Bridge        scheduler.SchedulerBridge

	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

func (s *CampaignService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// CreateCampaign validates the templates strictly before saving; drafts
// with unknown placeholders never reach the table.
func (s *CampaignService) CreateCampaign(c *model.Campaign) error {
	if c.Category == "" {
		c.Category = model.CategoryMarketing
	}
	if err := template.Validate(c.Category, c.Subject, c.HTMLBody, c.TextBody); err != nil {
		return appErrors.NewValidation("invalid template: %v", err)
	}
	c.Status = model.CampaignDraft
	return s.CampaignRepo.Create(c)
}

func (s *CampaignService) UpdateCampaign(c *model.Campaign) error {
	existing, err := s.CampaignRepo.GetByID(c.ID)
	if err != nil {
		return err
	}
	if existing.Status != model.CampaignDraft {
		return appErrors.NewValidation("campaign can only be edited while draft, current status: %s", existing.Status)
	}
	if err := template.Validate(existing.Category, c.Subject, c.HTMLBody, c.TextBody); err != nil {
		return appErrors.NewValidation("invalid template: %v", err)
	}
	return s.CampaignRepo.Update(c)
}

// ListCampaigns fetches campaigns with pagination
func (s *CampaignService) ListCampaigns(page, pageSize int, category, status string) ([]model.Campaign, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	ptrs, total, err := s.CampaignRepo.ListCampaigns(offset, pageSize, category, status)
	if err != nil {
		return nil, nil, err
	}

	campaigns := make([]model.Campaign, len(ptrs))
	for i, c := range ptrs {
		campaigns[i] = *c
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}

	return campaigns, pagination, nil
}

func (s *CampaignService) GetCampaign(id int) (*model.Campaign, error) {
	return s.CampaignRepo.GetByID(id)
}

// BuildResult summarizes one "build recipients" run.
type BuildResult struct {
	CampaignID int `json:"campaign_id"`
	Queued     int `json:"queued"`
	Suppressed int `json:"suppressed"`
	Existing   int `json:"existing"`
}

// BuildRecipients resolves the campaign's audience and persists it as
// recipient rows. Safe to re-run: addresses already present are skipped by
// the unique (campaign_id, email) constraint. Nothing is sent here.
func (s *CampaignService) BuildRecipients(campaignID int) (*BuildResult, error) {
	campaign, err := s.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.Status == model.CampaignSending || campaign.Status == model.CampaignSent {
		return nil, appErrors.NewValidation("recipients cannot be rebuilt in status: %s", campaign.Status)
	}

	resolved, err := s.Audience.Resolve(campaign.Audience())
	if err != nil {
		return nil, err
	}

	result := &BuildResult{CampaignID: campaignID}
	for _, addr := range resolved {
		status := model.RecipientQueued
		if addr.Suppressed {
			status = model.RecipientUnsubscribed
		}

		rec := &model.Recipient{
			CampaignID: campaignID,
			Email:      addr.Email,
			Status:     status,
			UnsubToken: uuid.NewString(),
		}
		created, err := s.RecipientRepo.InsertIgnore(rec)
		if err != nil {
			return nil, err
		}
		switch {
		case !created:
			result.Existing++
		case addr.Suppressed:
			result.Suppressed++
		default:
			result.Queued++
		}
	}

	log.Printf("built recipients for campaign %d: %d queued, %d suppressed, %d existing",
		campaignID, result.Queued, result.Suppressed, result.Existing)
	return result, nil
}

// Schedule moves a draft campaign to scheduled and arms the external
// trigger. Validation failures mutate nothing; scheduling an
// already-scheduled campaign is silently absorbed.
func (s *CampaignService) Schedule(campaignID int, sendAt time.Time) error {
	campaign, err := s.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return err
	}

	switch campaign.Status {
	case model.CampaignScheduled:
		return nil // duplicate schedule-create, no-op
	case model.CampaignDraft:
		// fall through
	default:
		return appErrors.NewValidation("campaign cannot be scheduled in status: %s", campaign.Status)
	}

	if sendAt.Before(s.now().Add(MinScheduleLead)) {
		return appErrors.NewValidation("send time must be at least 1 minute in the future")
	}

	queued, err := s.RecipientRepo.CountQueued(campaignID)
	if err != nil {
		return err
	}
	if queued == 0 {
		return appErrors.ErrNoQueuedRecipients
	}

	// Arm before persisting: a trigger pointing at a still-draft campaign
	// is harmless (the dispatch claim will refuse it), whereas a scheduled
	// row with no trigger would never fire.
	ref, err := s.Bridge.Arm(campaignID, sendAt)
	if err != nil {
		return err
	}

	return s.CampaignRepo.MarkScheduled(campaignID, sendAt, ref)
}

// CancelSchedule returns a scheduled campaign to draft and disarms the
// trigger. Idempotent: cancelling anything not scheduled succeeds quietly,
// and a trigger that is already gone counts as deleted.
func (s *CampaignService) CancelSchedule(campaignID int) error {
	campaign, err := s.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return err
	}
	if campaign.Status != model.CampaignScheduled {
		return nil
	}

	if err := s.Bridge.Disarm(campaignID); err != nil {
		return err
	}
	return s.CampaignRepo.ClearSchedule(campaignID)
}

// Preview renders the campaign permissively with the supplied variables.
// Unknown placeholders come out empty; validation only runs on save.
func (s *CampaignService) Preview(campaignID int, vars map[string]string) (*template.Rendered, error) {
	campaign, err := s.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return nil, err
	}
	rendered := template.RenderAll(campaign.Subject, campaign.HTMLBody, campaign.TextBody, vars)
	return &rendered, nil
}

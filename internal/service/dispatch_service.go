// internal/service/dispatch_service.go
package service

import (
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"
	"time"

	appErrors "github.com/unclebandit/taxleopard-backend/internal/errors"
	"github.com/unclebandit/taxleopard-backend/internal/model"
	"github.com/unclebandit/taxleopard-backend/internal/provider"
	"github.com/unclebandit/taxleopard-backend/internal/queue"
	"github.com/unclebandit/taxleopard-backend/internal/repository"
	"github.com/unclebandit/taxleopard-backend/internal/template"
	"github.com/unclebandit/taxleopard-backend/internal/token"
)

// UnsubTokenTTL bounds how long a mailed unsubscribe link stays valid.
const UnsubTokenTTL = 30 * 24 * time.Hour

// DispatchService runs a campaign end to end once the external trigger
// fires: claim the campaign, load the queued recipients, render and send in
// provider-sized batches, and record every outcome as it happens.
type DispatchService struct {
	CampaignRepo    repository.CampaignRepositoryInterface
	RecipientRepo   repository.RecipientRepositoryInterface
	SubscriberRepo  repository.SubscriberRepositoryInterface
	SuppressionRepo repository.SuppressionRepositoryInterface
	Sender          provider.Sender
	Queue           queue.Publisher
	Codec           *token.Codec

	BaseURL     string
	CompanyName string
}

// Dispatch delivers campaignID to every queued recipient. Returns how many
// messages were handed to the provider.
//
// Failure semantics: outcomes are written per recipient immediately after
// each provider call, so a batch-level error aborts the run but loses
// nothing already recorded; the failed batch is queued for individual
// retries and the campaign stays in sending.
func (s *DispatchService) Dispatch(campaignID int) (int, error) {
	campaign, err := s.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return 0, err
	}

	claimed, err := s.CampaignRepo.ClaimSending(campaignID)
	if err != nil {
		return 0, err
	}
	if !claimed {
		// A concurrent callback (or a replayed trigger) got here first.
		return 0, appErrors.ErrAlreadyClaimed
	}

	recipients, err := s.RecipientRepo.ListQueued(campaignID)
	if err != nil {
		return 0, err
	}
	if len(recipients) == 0 {
		return 0, appErrors.ErrNoQueuedRecipients
	}

	batchSize := s.Sender.MaxBatchSize()
	sent := 0

	for start := 0; start < len(recipients); start += batchSize {
		end := start + batchSize
		if end > len(recipients) {
			end = len(recipients)
		}
		batch := recipients[start:end]

		n, err := s.sendBatch(campaign, batch)
		sent += n
		if err != nil {
			return sent, fmt.Errorf("batch %d-%d of campaign %d: %w", start, end, campaignID, err)
		}
	}

	if err := s.CampaignRepo.MarkSent(campaignID, time.Now()); err != nil {
		return sent, err
	}

	log.Printf("campaign %d dispatched: %d message(s) sent", campaignID, sent)
	return sent, nil
}

// sendBatch renders and sends one provider-sized slice of recipients and
// records each recipient's outcome.
func (s *DispatchService) sendBatch(campaign *model.Campaign, batch []model.Recipient) (int, error) {
	emails := make([]string, len(batch))
	for i, rec := range batch {
		emails[i] = rec.Email
	}

	// Addresses can land on the suppression ledger between queueing and
	// dispatch; those rows flip to unsubscribed instead of being sent.
	suppressed, err := s.SuppressionRepo.Lookup(emails)
	if err != nil {
		return 0, err
	}
	names, err := s.SubscriberRepo.NamesByEmails(emails)
	if err != nil {
		return 0, err
	}

	type prepared struct {
		rec      model.Recipient
		rendered template.Rendered
	}

	msgs := []provider.Message{}
	preparedBatch := []prepared{}

	for _, rec := range batch {
		if suppressed[rec.Email] {
			if err := s.RecipientRepo.MarkUnsubscribed(rec.ID); err != nil {
				return 0, err
			}
			continue
		}

		rendered, err := s.render(campaign, rec, names[rec.Email])
		if err != nil {
			return 0, err
		}

		preparedBatch = append(preparedBatch, prepared{rec: rec, rendered: rendered})
		msgs = append(msgs, provider.Message{
			To:          rec.Email,
			Subject:     rendered.Subject,
			HTML:        rendered.HTML,
			Text:        rendered.Text,
			CampaignID:  campaign.ID,
			RecipientID: rec.ID,
		})
	}

	if len(msgs) == 0 {
		return 0, nil
	}

	if sendErr := s.Sender.SendBatch(msgs); sendErr != nil {
		for _, p := range preparedBatch {
			if err := s.RecipientRepo.MarkFailed(p.rec.ID, p.rendered.Subject, p.rendered.HTML, p.rendered.Text, sendErr.Error()); err != nil {
				log.Printf("⚠️ failed to record failure for recipient %d: %v", p.rec.ID, err)
			}
			if s.Queue != nil {
				if err := s.Queue.Publish(queue.TopicRecipientRetries, map[string]int{"recipient_id": p.rec.ID}); err != nil {
					log.Printf("⚠️ failed to enqueue retry for recipient %d: %v", p.rec.ID, err)
				}
			}
		}
		return 0, sendErr
	}

	for _, p := range preparedBatch {
		if err := s.RecipientRepo.MarkSent(p.rec.ID, p.rendered.Subject, p.rendered.HTML, p.rendered.Text); err != nil {
			log.Printf("⚠️ failed to record send for recipient %d: %v", p.rec.ID, err)
		}
	}
	return len(msgs), nil
}

func (s *DispatchService) render(campaign *model.Campaign, rec model.Recipient, name string) (template.Rendered, error) {
	unsubToken, err := s.Codec.Issue(rec.Email, UnsubTokenTTL)
	if err != nil {
		return template.Rendered{}, err
	}

	first, last := splitName(name)
	vars := map[string]string{
		"name":            name,
		"first_name":      first,
		"last_name":       last,
		"email":           rec.Email,
		"company_name":    s.CompanyName,
		"current_year":    strconv.Itoa(time.Now().Year()),
		"unsubscribe_url": s.BaseURL + "/unsubscribe?token=" + url.QueryEscape(unsubToken),
	}
	return template.RenderAll(campaign.Subject, campaign.HTMLBody, campaign.TextBody, vars), nil
}

// splitName breaks a stored display name at the first space. Names come in
// as one field, so "last" is everything after the first word.
func splitName(name string) (first, last string) {
	first, last, _ = strings.Cut(strings.TrimSpace(name), " ")
	return first, last
}

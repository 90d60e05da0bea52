// internal/service/retry_worker.go
package service

import (
	"fmt"
	"log"

	"github.com/unclebandit/taxleopard-backend/internal/model"
	"github.com/unclebandit/taxleopard-backend/internal/provider"
	"github.com/unclebandit/taxleopard-backend/internal/repository"
)

// RetryWorker re-sends recipients that failed during a batch dispatch, one
// at a time, from the rendered snapshot recorded at failure time.
type RetryWorker struct {
	RecipientRepo repository.RecipientRepositoryInterface
	Sender        provider.Sender
	Jobs          <-chan int
}

func NewRetryWorker(repo repository.RecipientRepositoryInterface, sender provider.Sender, jobs <-chan int) *RetryWorker {
	return &RetryWorker{
		RecipientRepo: repo,
		Sender:        sender,
		Jobs:          jobs,
	}
}

// Start drains the job channel until it closes.
func (w *RetryWorker) Start() {
	for recipientID := range w.Jobs {
		if err := w.ProcessRecipient(recipientID); err != nil {
			log.Println("⚠️ retry failed for recipient", recipientID, ":", err)
		}
	}
}

// ProcessRecipient re-sends one failed recipient. Recipients in any other
// status are skipped: queued rows belong to the dispatcher, terminal rows
// are done.
func (w *RetryWorker) ProcessRecipient(recipientID int) error {
	rec, err := w.RecipientRepo.GetByID(recipientID)
	if err != nil {
		return err
	}
	if rec == nil {
		log.Println("⚠️ retry job for unknown recipient", recipientID)
		return nil
	}
	if rec.Status != model.RecipientFailed {
		return nil
	}
	if rec.RenderedSubject == "" && rec.RenderedHTML == "" {
		return fmt.Errorf("recipient %d has no rendered snapshot to retry", recipientID)
	}

	msg := provider.Message{
		To:          rec.Email,
		Subject:     rec.RenderedSubject,
		HTML:        rec.RenderedHTML,
		Text:        rec.RenderedText,
		CampaignID:  rec.CampaignID,
		RecipientID: rec.ID,
	}
	if err := w.Sender.SendBatch([]provider.Message{msg}); err != nil {
		return err
	}

	return w.RecipientRepo.MarkRetrySent(rec.ID)
}

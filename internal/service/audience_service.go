// internal/service/audience_service.go
package service

import (
	"regexp"
	"strings"

	appErrors "github.com/unclebandit/taxleopard-backend/internal/errors"
	"github.com/unclebandit/taxleopard-backend/internal/model"
	"github.com/unclebandit/taxleopard-backend/internal/repository"
)

// basic address shape; real validation happens at the provider
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ResolvedAddress is one destination in a resolved audience. Suppressed
// addresses stay in the set so a recipient row still gets created for
// observability, just as unsubscribed instead of queued.
type ResolvedAddress struct {
	Email      string
	Suppressed bool
}

type AudienceService struct {
	SubscriberRepo  repository.SubscriberRepositoryInterface
	AudienceRepo    repository.AudienceRepositoryInterface
	SuppressionRepo repository.SuppressionRepositoryInterface
}

// Resolve merges every set source of the descriptor into one deduplicated,
// lower-cased address set and flags addresses found on the suppression
// ledger. An audience that resolves to nothing valid is an error; callers
// must not go on to queue recipients.
func (s *AudienceService) Resolve(a model.Audience) ([]ResolvedAddress, error) {
	seen := map[string]bool{}
	emails := []string{}

	add := func(candidates []string, validate bool) {
		for _, raw := range candidates {
			email := strings.ToLower(strings.TrimSpace(raw))
			if email == "" || seen[email] {
				continue
			}
			if validate && !emailPattern.MatchString(email) {
				continue
			}
			seen[email] = true
			emails = append(emails, email)
		}
	}

	if a.Manual != "" {
		add(splitManualList(a.Manual), true)
	}

	if a.WaitlistStatus != "" {
		status := a.WaitlistStatus
		if status == "all" {
			status = ""
		}
		waitlist, err := s.AudienceRepo.ListWaitlistEmails(status)
		if err != nil {
			return nil, err
		}
		add(waitlist, false)
	}

	if a.ListRef != "" {
		listRef := a.ListRef
		if listRef == "all" {
			listRef = ""
		}
		subscribers, err := s.SubscriberRepo.ListActiveEmails(listRef)
		if err != nil {
			return nil, err
		}
		add(subscribers, false)
	}

	if a.ApptSegment != "" {
		// Coarse inclusion: every appointment-request address regardless of
		// status. Tighter segment rules are pending product clarification.
		appts, err := s.AudienceRepo.ListAppointmentEmails("")
		if err != nil {
			return nil, err
		}
		add(appts, false)
	}

	if len(emails) == 0 {
		return nil, appErrors.ErrEmptyAudience
	}

	suppressed, err := s.SuppressionRepo.Lookup(emails)
	if err != nil {
		return nil, err
	}

	resolved := make([]ResolvedAddress, len(emails))
	for i, email := range emails {
		resolved[i] = ResolvedAddress{Email: email, Suppressed: suppressed[email]}
	}
	return resolved, nil
}

func splitManualList(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	})
}

package service

import (
	"sort"
	"strconv"
	"sync"
	"time"

	appErrors "github.com/unclebandit/taxleopard-backend/internal/errors"
	"github.com/unclebandit/taxleopard-backend/internal/model"
)

// --- in-memory fakes shared by the service tests ---

type fakeCampaignRepo struct {
	mu        sync.Mutex
	campaigns map[int]*model.Campaign
}

func newFakeCampaignRepo(campaigns ...*model.Campaign) *fakeCampaignRepo {
	r := &fakeCampaignRepo{campaigns: map[int]*model.Campaign{}}
	for _, c := range campaigns {
		r.campaigns[c.ID] = c
	}
	return r
}

func (r *fakeCampaignRepo) Create(c *model.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = len(r.campaigns) + 1
	r.campaigns[c.ID] = c
	return nil
}

func (r *fakeCampaignRepo) Update(c *model.Campaign) error { return nil }

func (r *fakeCampaignRepo) GetByID(id int) (*model.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	clone := *c
	return &clone, nil
}

func (r *fakeCampaignRepo) ListCampaigns(offset, limit int, category, status string) ([]*model.Campaign, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var filtered []*model.Campaign
	for _, c := range r.campaigns {
		if category != "" && c.Category != category {
			continue
		}
		if status != "" && c.Status != status {
			continue
		}
		filtered = append(filtered, c)
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].ID > filtered[j].ID })
	total := len(filtered)
	if offset > total {
		return []*model.Campaign{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return filtered[offset:end], total, nil
}

func (r *fakeCampaignRepo) MarkScheduled(id int, sendAt time.Time, scheduleRef string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.campaigns[id]
	c.Status = model.CampaignScheduled
	c.ScheduledAt = &sendAt
	c.ScheduleRef = scheduleRef
	return nil
}

func (r *fakeCampaignRepo) ClearSchedule(id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.campaigns[id]
	c.Status = model.CampaignDraft
	c.ScheduledAt = nil
	c.ScheduleRef = ""
	return nil
}

func (r *fakeCampaignRepo) ClaimSending(id int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok || c.Status != model.CampaignScheduled {
		return false, nil
	}
	c.Status = model.CampaignSending
	return true, nil
}

func (r *fakeCampaignRepo) MarkSent(id int, sentAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.campaigns[id]
	c.Status = model.CampaignSent
	c.ScheduledAt = nil
	c.SentAt = &sentAt
	return nil
}

func (r *fakeCampaignRepo) GetRecipientStats(campaignID int) (map[string]int, error) {
	return map[string]int{}, nil
}

type fakeRecipientRepo struct {
	mu     sync.Mutex
	nextID int
	rows   map[int]*model.Recipient
}

func newFakeRecipientRepo() *fakeRecipientRepo {
	return &fakeRecipientRepo{rows: map[int]*model.Recipient{}}
}

func (r *fakeRecipientRepo) seed(campaignID int, status string, emails ...string) {
	for _, email := range emails {
		r.InsertIgnore(&model.Recipient{CampaignID: campaignID, Email: email, Status: status, UnsubToken: "t"})
	}
}

func (r *fakeRecipientRepo) InsertIgnore(rec *model.Recipient) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rows {
		if existing.CampaignID == rec.CampaignID && existing.Email == rec.Email {
			return false, nil
		}
	}
	r.nextID++
	rec.ID = r.nextID
	clone := *rec
	r.rows[rec.ID] = &clone
	return true, nil
}

func (r *fakeRecipientRepo) GetByID(id int) (*model.Recipient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	clone := *rec
	return &clone, nil
}

func (r *fakeRecipientRepo) ListQueued(campaignID int) ([]model.Recipient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Recipient{}
	for _, rec := range r.rows {
		if rec.CampaignID == campaignID && rec.Status == model.RecipientQueued {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeRecipientRepo) CountQueued(campaignID int) (int, error) {
	queued, _ := r.ListQueued(campaignID)
	return len(queued), nil
}

func (r *fakeRecipientRepo) MarkSent(id int, subject, html, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.rows[id]
	if rec.Status != model.RecipientQueued {
		return nil
	}
	now := time.Now()
	rec.Status = model.RecipientSent
	rec.RenderedSubject, rec.RenderedHTML, rec.RenderedText = subject, html, text
	rec.LastError = ""
	rec.SentAt = &now
	return nil
}

func (r *fakeRecipientRepo) MarkFailed(id int, subject, html, text, sendErr string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.rows[id]
	if rec.Status != model.RecipientQueued {
		return nil
	}
	rec.Status = model.RecipientFailed
	rec.RenderedSubject, rec.RenderedHTML, rec.RenderedText = subject, html, text
	rec.LastError = sendErr
	return nil
}

func (r *fakeRecipientRepo) MarkRetrySent(id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.rows[id]
	if rec.Status != model.RecipientFailed {
		return nil
	}
	now := time.Now()
	rec.Status = model.RecipientSent
	rec.LastError = ""
	rec.SentAt = &now
	return nil
}

func (r *fakeRecipientRepo) MarkUnsubscribed(id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.rows[id]
	if rec.Status == model.RecipientQueued {
		rec.Status = model.RecipientUnsubscribed
	}
	return nil
}

func (r *fakeRecipientRepo) UnsubscribeEmail(email string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, rec := range r.rows {
		if rec.Email == email && rec.Status == model.RecipientQueued {
			rec.Status = model.RecipientUnsubscribed
			n++
		}
	}
	return n, nil
}

func (r *fakeRecipientRepo) byEmail(campaignID int, email string) *model.Recipient {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.rows {
		if rec.CampaignID == campaignID && rec.Email == email {
			clone := *rec
			return &clone
		}
	}
	return nil
}

type fakeSubscriberRepo struct {
	emails map[string][]string // listRef -> emails, "" key = all lists
	names  map[string]string
}

func (r *fakeSubscriberRepo) Upsert(s *model.Subscriber) error { return nil }

func (r *fakeSubscriberRepo) List(listRef, status string) ([]model.Subscriber, error) {
	return nil, nil
}

func (r *fakeSubscriberRepo) ListActiveEmails(listRef string) ([]string, error) {
	return r.emails[listRef], nil
}

func (r *fakeSubscriberRepo) NamesByEmails(emails []string) (map[string]string, error) {
	if r.names == nil {
		return map[string]string{}, nil
	}
	return r.names, nil
}

func (r *fakeSubscriberRepo) UpdateStatusByEmail(email, status string) error { return nil }

type fakeSuppressionRepo struct {
	mu  sync.Mutex
	set map[string]bool
}

func newFakeSuppressionRepo(emails ...string) *fakeSuppressionRepo {
	r := &fakeSuppressionRepo{set: map[string]bool{}}
	for _, e := range emails {
		r.set[e] = true
	}
	return r
}

func (r *fakeSuppressionRepo) Add(email, origin string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.set[email] = true
	return nil
}

func (r *fakeSuppressionRepo) Lookup(emails []string) (map[string]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]bool{}
	for _, e := range emails {
		if r.set[e] {
			out[e] = true
		}
	}
	return out, nil
}

type fakeAudienceRepo struct {
	waitlist     map[string][]string // status -> emails, "" = all
	appointments []string

	waitlistCalls []string
	apptCalls     []string
}

func (r *fakeAudienceRepo) ListWaitlistEmails(status string) ([]string, error) {
	r.waitlistCalls = append(r.waitlistCalls, status)
	return r.waitlist[status], nil
}

func (r *fakeAudienceRepo) ListAppointmentEmails(status string) ([]string, error) {
	r.apptCalls = append(r.apptCalls, status)
	return r.appointments, nil
}

type fakeBridge struct {
	armed    map[int]time.Time
	disarmed []int
	armErr   error
}

func newFakeBridge() *fakeBridge {
	return &fakeBridge{armed: map[int]time.Time{}}
}

func (b *fakeBridge) Arm(campaignID int, at time.Time) (string, error) {
	if b.armErr != nil {
		return "", b.armErr
	}
	b.armed[campaignID] = at
	return "campaign-" + strconv.Itoa(campaignID), nil
}

func (b *fakeBridge) Disarm(campaignID int) error {
	b.disarmed = append(b.disarmed, campaignID)
	return nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []any
}

func (p *fakePublisher) Publish(topic string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, payload)
	return nil
}

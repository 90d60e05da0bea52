// internal/controller/campaign_controller.go
package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	appErrors "github.com/unclebandit/taxleopard-backend/internal/errors"
	"github.com/unclebandit/taxleopard-backend/internal/model"
	"github.com/unclebandit/taxleopard-backend/internal/service"
)

type CampaignController struct {
	CampaignService *service.CampaignService
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name           string `json:"name"`
		Category       string `json:"category"`
		Subject        string `json:"subject"`
		HTMLBody       string `json:"html_body"`
		TextBody       string `json:"text_body"`
		Segment        string `json:"segment"`
		ManualList     string `json:"manual_list"`
		WaitlistStatus string `json:"waitlist_status"`
		ListRef        string `json:"list_ref"`
		ApptSegment    string `json:"appt_segment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	campaign := &model.Campaign{
		Name:           body.Name,
		Category:       body.Category,
		Subject:        body.Subject,
		HTMLBody:       body.HTMLBody,
		TextBody:       body.TextBody,
		Segment:        body.Segment,
		ManualList:     body.ManualList,
		WaitlistStatus: body.WaitlistStatus,
		ListRef:        body.ListRef,
		ApptSegment:    body.ApptSegment,
	}
	if err := c.CampaignService.CreateCampaign(campaign); err != nil {
		writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(campaign)
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	category := r.URL.Query().Get("category")
	status := r.URL.Query().Get("status")

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	campaigns, pagination, err := c.CampaignService.ListCampaigns(page, pageSize, category, status)
	if err != nil {
		writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"data":       campaigns,
		"pagination": pagination,
	})
}

// BuildRecipients resolves the campaign audience into recipient rows.
// Safe to call repeatedly; existing rows are left alone.
func (c *CampaignController) BuildRecipients(w http.ResponseWriter, r *http.Request) {
	id, err := campaignID(r)
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}

	result, err := c.CampaignService.BuildRecipients(id)
	if err != nil {
		writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(result)
}

func (c *CampaignController) ScheduleCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := campaignID(r)
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}

	// Keys match the scheduler-facing contract, like campaignId on the
	// dispatch callback.
	var body struct {
		SendAt      string `json:"sendAt"`
		SendAtLocal string `json:"sendAtLocal"` // display only, not parsed
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	sendAt, err := time.Parse(time.RFC3339, body.SendAt)
	if err != nil {
		http.Error(w, "sendAt must be an RFC3339 timestamp", http.StatusBadRequest)
		return
	}

	if err := c.CampaignService.Schedule(id, sendAt); err != nil {
		writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"campaignId": id,
		"status":     model.CampaignScheduled,
		"sendAt":     sendAt,
	})
}

func (c *CampaignController) CancelSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := campaignID(r)
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}

	if err := c.CampaignService.CancelSchedule(id); err != nil {
		writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"campaignId": id,
		"status":     model.CampaignDraft,
	})
}

// Preview renders the campaign with admin-supplied variables. Rendering is
// permissive so unfinished drafts still preview.
func (c *CampaignController) Preview(w http.ResponseWriter, r *http.Request) {
	id, err := campaignID(r)
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}

	var body struct {
		Vars map[string]string `json:"vars"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	rendered, err := c.CampaignService.Preview(id, body.Vars)
	if err != nil {
		writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"campaign_id":      id,
		"rendered_subject": rendered.Subject,
		"rendered_html":    rendered.HTML,
		"rendered_text":    rendered.Text,
	})
}

func campaignID(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "id"))
}

// writeError maps service errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	var nf *appErrors.ErrCampaignNotFound
	switch {
	case errors.As(err, &nf):
		http.Error(w, err.Error(), http.StatusNotFound)
	case appErrors.IsValidation(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, appErrors.ErrAlreadyClaimed):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

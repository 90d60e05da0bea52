// internal/handler/subscriber_handler.go
package handler

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"github.com/unclebandit/taxleopard-backend/internal/model"
	"github.com/unclebandit/taxleopard-backend/internal/repository"
)

var subscriberEmailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// SubscriberHandler manages standing mailing-list members.
type SubscriberHandler struct {
	Repo repository.SubscriberRepositoryInterface
}

func (h *SubscriberHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email   string `json:"email"`
		Name    string `json:"name"`
		Tags    string `json:"tags"`
		ListRef string `json:"list_ref"`
		Origin  string `json:"origin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	email := strings.ToLower(strings.TrimSpace(body.Email))
	if !subscriberEmailPattern.MatchString(email) {
		http.Error(w, "invalid email address", http.StatusBadRequest)
		return
	}

	sub := &model.Subscriber{
		Email:   email,
		Name:    body.Name,
		Tags:    body.Tags,
		ListRef: body.ListRef,
		Status:  model.SubscriberSubscribed,
		Origin:  body.Origin,
	}
	if err := h.Repo.Upsert(sub); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(sub)
}

func (h *SubscriberHandler) List(w http.ResponseWriter, r *http.Request) {
	listRef := r.URL.Query().Get("list_ref")
	status := r.URL.Query().Get("status")

	subscribers, err := h.Repo.List(listRef, status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"data": subscribers,
	})
}

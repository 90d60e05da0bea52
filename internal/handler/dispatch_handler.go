// internal/handler/dispatch_handler.go
package handler

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	appErrors "github.com/unclebandit/taxleopard-backend/internal/errors"
)

// SecretHeader is what the external trigger service sends back on the
// dispatch callback.
const SecretHeader = "x-scheduler-secret"

// Dispatcher is the slice of the dispatch service this handler needs.
type Dispatcher interface {
	Dispatch(campaignID int) (int, error)
}

// DispatchHandler is the inbound entry point the armed trigger fires at.
// Authentication happens before any campaign or recipient state is read.
type DispatchHandler struct {
	Service Dispatcher
	Secret  string
}

type dispatchRequest struct {
	CampaignID string `json:"campaignId"`
}

func (h *DispatchHandler) HandleTrigger(w http.ResponseWriter, r *http.Request) {
	got := r.Header.Get(SecretHeader)
	if h.Secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(h.Secret)) != 1 {
		writeDispatchError(w, http.StatusUnauthorized, "invalid scheduler secret")
		return
	}

	var body dispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDispatchError(w, http.StatusBadRequest, "invalid body")
		return
	}

	campaignID, err := strconv.Atoi(body.CampaignID)
	if err != nil {
		writeDispatchError(w, http.StatusBadRequest, "invalid campaignId")
		return
	}

	sent, err := h.Service.Dispatch(campaignID)
	if err != nil {
		var nf *appErrors.ErrCampaignNotFound
		switch {
		case errors.As(err, &nf):
			writeDispatchError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, appErrors.ErrAlreadyClaimed):
			writeDispatchError(w, http.StatusConflict, err.Error())
		case appErrors.IsValidation(err):
			writeDispatchError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			writeDispatchError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"ok":   true,
		"sent": sent,
	})
}

func writeDispatchError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"ok":    false,
		"error": msg,
	})
}

// internal/handler/unsubscribe_handler.go
package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/unclebandit/taxleopard-backend/internal/model"
	"github.com/unclebandit/taxleopard-backend/internal/repository"
	"github.com/unclebandit/taxleopard-backend/internal/token"
)

// UnsubscribeHandler is the public one-click unsubscribe confirmation.
// Token verification is stateless: no database read happens before the
// signature and expiry check out, and an invalid token mutates nothing.
type UnsubscribeHandler struct {
	Codec           *token.Codec
	SuppressionRepo repository.SuppressionRepositoryInterface
	SubscriberRepo  repository.SubscriberRepositoryInterface
	RecipientRepo   repository.RecipientRepositoryInterface
}

func (h *UnsubscribeHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	tok := r.URL.Query().Get("token")
	if tok == "" {
		tok = r.FormValue("token")
	}

	email, err := h.Codec.Verify(tok)
	if err != nil {
		status := http.StatusBadRequest
		msg := "invalid unsubscribe link"
		if errors.Is(err, token.ErrExpired) {
			msg = "unsubscribe link has expired"
		}
		http.Error(w, msg, status)
		return
	}

	// The suppression ledger is the authoritative write; the row flips are
	// best-effort bookkeeping on top of it.
	if err := h.SuppressionRepo.Add(email, "unsubscribe_link"); err != nil {
		http.Error(w, "could not process unsubscribe", http.StatusInternalServerError)
		return
	}
	if err := h.SubscriberRepo.UpdateStatusByEmail(email, model.SubscriberUnsubscribed); err != nil {
		log.Println("⚠️ failed to flip subscriber status:", err)
	}
	if _, err := h.RecipientRepo.UnsubscribeEmail(email); err != nil {
		log.Println("⚠️ failed to flip queued recipient rows:", err)
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"ok":      true,
		"message": "You have been unsubscribed.",
	})
}

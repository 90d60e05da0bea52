package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/taxleopard-backend/internal/errors"
)

type fakeDispatcher struct {
	calls []int
	sent  int
	err   error
}

func (d *fakeDispatcher) Dispatch(campaignID int) (int, error) {
	d.calls = append(d.calls, campaignID)
	return d.sent, d.err
}

func callTrigger(h *DispatchHandler, secret string, body any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", "/internal/campaigns/dispatch", bytes.NewReader(b))
	if secret != "" {
		req.Header.Set(SecretHeader, secret)
	}
	w := httptest.NewRecorder()
	h.HandleTrigger(w, req)
	return w
}

func TestHandleTriggerRejectsMissingSecret(t *testing.T) {
	d := &fakeDispatcher{}
	h := &DispatchHandler{Service: d, Secret: "hush"}

	w := callTrigger(h, "", map[string]string{"campaignId": "1"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, d.calls, "auth failure must precede any state access")

	var res map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
	assert.Equal(t, false, res["ok"])
}

func TestHandleTriggerRejectsWrongSecret(t *testing.T) {
	d := &fakeDispatcher{}
	h := &DispatchHandler{Service: d, Secret: "hush"}

	w := callTrigger(h, "wrong", map[string]string{"campaignId": "1"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, d.calls)
}

// An unset server secret must never mean "allow everything".
func TestHandleTriggerRejectsWhenUnconfigured(t *testing.T) {
	d := &fakeDispatcher{}
	h := &DispatchHandler{Service: d, Secret: ""}

	w := callTrigger(h, "", map[string]string{"campaignId": "1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandleTriggerHappyPath(t *testing.T) {
	d := &fakeDispatcher{sent: 250}
	h := &DispatchHandler{Service: d, Secret: "hush"}

	w := callTrigger(h, "hush", map[string]string{"campaignId": "42"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []int{42}, d.calls)

	var res struct {
		OK   bool `json:"ok"`
		Sent int  `json:"sent"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
	assert.True(t, res.OK)
	assert.Equal(t, 250, res.Sent)
}

func TestHandleTriggerBadCampaignID(t *testing.T) {
	h := &DispatchHandler{Service: &fakeDispatcher{}, Secret: "hush"}

	w := callTrigger(h, "hush", map[string]string{"campaignId": "not-a-number"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleTriggerMapsDispatchErrors(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{appErrors.NewCampaignNotFound(7), http.StatusNotFound},
		{appErrors.ErrAlreadyClaimed, http.StatusConflict},
		{appErrors.ErrNoQueuedRecipients, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		h := &DispatchHandler{Service: &fakeDispatcher{err: tc.err}, Secret: "hush"}
		w := callTrigger(h, "hush", map[string]string{"campaignId": "7"})
		assert.Equal(t, tc.code, w.Code, "error %v", tc.err)

		var res map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
		assert.Equal(t, false, res["ok"])
		assert.NotEmpty(t, res["error"])
	}
}

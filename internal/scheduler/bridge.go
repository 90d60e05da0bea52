// internal/scheduler/bridge.go
package scheduler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SchedulerBridge is what the campaign service needs from the external
// one-shot trigger service.
type SchedulerBridge interface {
	// Arm creates or updates the trigger for a campaign to fire once at
	// the given instant, and returns the external schedule reference.
	Arm(campaignID int, at time.Time) (string, error)

	// Disarm deletes the trigger. An already-gone trigger is success.
	Disarm(campaignID int) error
}

// Bridge maintains a 1:1 mapping between a campaign and a named one-shot
// job on the external trigger service. Jobs are addressed by a name derived
// from the campaign id, so repeated Arm calls land on the same job (PUT by
// name = create-if-absent, else update-in-place).
type Bridge struct {
	baseURL string
	apiKey  string

	// What the trigger fires at: the dispatch callback plus the shared
	// secret it must echo back.
	callbackURL    string
	callbackSecret string

	client *http.Client
}

func NewBridge(baseURL, apiKey, callbackURL, callbackSecret string) *Bridge {
	return &Bridge{
		baseURL:        baseURL,
		apiKey:         apiKey,
		callbackURL:    callbackURL,
		callbackSecret: callbackSecret,
		client:         &http.Client{Timeout: 30 * time.Second},
	}
}

// JobName returns the deterministic trigger name for a campaign.
func JobName(campaignID int) string {
	return fmt.Sprintf("campaign-%d", campaignID)
}

type jobSpec struct {
	RunAt          string            `json:"run_at"`
	Method         string            `json:"method"`
	URL            string            `json:"url"`
	Headers        map[string]string `json:"headers,omitempty"`
	Body           json.RawMessage   `json:"body,omitempty"`
	DeleteAfterRun bool              `json:"delete_after_run"`
}

func (b *Bridge) Arm(campaignID int, at time.Time) (string, error) {
	name := JobName(campaignID)

	body, err := json.Marshal(map[string]string{
		"campaignId": fmt.Sprintf("%d", campaignID),
	})
	if err != nil {
		return "", err
	}

	spec := jobSpec{
		RunAt:  at.UTC().Format(time.RFC3339),
		Method: "POST",
		URL:    b.callbackURL,
		Headers: map[string]string{
			"x-scheduler-secret": b.callbackSecret,
			"Content-Type":       "application/json",
		},
		Body:           body,
		DeleteAfterRun: true,
	}

	jsonData, err := json.Marshal(spec)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest("PUT", b.baseURL+"/jobs/"+name, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	b.setHeaders(req)

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("arm trigger: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("trigger service returned %d: %s", resp.StatusCode, string(respBody))
	}
	return name, nil
}

func (b *Bridge) Disarm(campaignID int) error {
	req, err := http.NewRequest("DELETE", b.baseURL+"/jobs/"+JobName(campaignID), nil)
	if err != nil {
		return err
	}
	b.setHeaders(req)

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("disarm trigger: %w", err)
	}
	defer resp.Body.Close()

	// Not-found means there was nothing to cancel, which is fine.
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("trigger service returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func (b *Bridge) setHeaders(req *http.Request) {
	if b.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")
}

var _ SchedulerBridge = (*Bridge)(nil)

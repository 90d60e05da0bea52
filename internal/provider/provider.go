// internal/provider/provider.go
package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Message is one email to exactly one recipient. Recipients of the same
// campaign never share a message, so they never see each other's addresses.
type Message struct {
	To          string
	Subject     string
	HTML        string
	Text        string
	CampaignID  int
	RecipientID int
}

// Sender delivers batches of one-recipient messages through an external
// email service provider. A batch is one provider call and must not exceed
// MaxBatchSize messages.
type Sender interface {
	SendBatch(msgs []Message) error
	MaxBatchSize() int
}

// ESPClient talks to a Postmark-style batch API: one POST carries an array
// of complete messages, each with its own recipient, subject and bodies.
// The configured limit of 100 messages per call is what dispatch batches
// are sized to.
type ESPClient struct {
	apiKey    string
	baseURL   string
	fromEmail string
	fromName  string
	maxBatch  int
	client    *http.Client
}

func NewESPClient(apiKey, baseURL, fromEmail, fromName string) *ESPClient {
	return &ESPClient{
		apiKey:    apiKey,
		baseURL:   baseURL,
		fromEmail: fromEmail,
		fromName:  fromName,
		maxBatch:  100,
		client:    &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *ESPClient) MaxBatchSize() int { return c.maxBatch }

type espMessage struct {
	From     string            `json:"From"`
	To       string            `json:"To"`
	Subject  string            `json:"Subject"`
	HTMLBody string            `json:"HtmlBody"`
	TextBody string            `json:"TextBody,omitempty"`
	Metadata map[string]string `json:"Metadata,omitempty"`
}

func (c *ESPClient) SendBatch(msgs []Message) error {
	if c.apiKey == "" {
		return fmt.Errorf("ESP API key not configured")
	}
	if len(msgs) == 0 {
		return nil
	}
	if len(msgs) > c.maxBatch {
		return fmt.Errorf("batch of %d exceeds provider limit of %d", len(msgs), c.maxBatch)
	}

	from := c.fromEmail
	if c.fromName != "" {
		from = fmt.Sprintf("%s <%s>", c.fromName, c.fromEmail)
	}

	batch := make([]espMessage, 0, len(msgs))
	for _, m := range msgs {
		batch = append(batch, espMessage{
			From:     from,
			To:       m.To,
			Subject:  m.Subject,
			HTMLBody: m.HTML,
			TextBody: m.Text,
			Metadata: map[string]string{
				"campaign_id":  strconv.Itoa(m.CampaignID),
				"recipient_id": strconv.Itoa(m.RecipientID),
			},
		})
	}

	jsonData, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequest("POST", c.baseURL+"/email/batch", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Api-Token", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("provider returned %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

var _ Sender = (*ESPClient)(nil)

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

type Slack struct {
	Webhook string
	Client  *http.Client
}

// NewSlack returns nil for an empty webhook so callers can skip it.
func NewSlack(webhook string) *Slack {
	if webhook == "" {
		return nil
	}
	return &Slack{
		Webhook: webhook,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type slackAttachment struct {
	Color string `json:"color"`
	Text  string `json:"text"`
}

type slackPayload struct {
	Text        string            `json:"text"`
	Attachments []slackAttachment `json:"attachments,omitempty"`
}

func (s *Slack) Notify(ctx context.Context, m Message) error {
	if s == nil || s.Webhook == "" {
		return errors.New("slack disabled")
	}
	color := "danger"
	if m.Healthy {
		color = "good"
	}
	body, err := json.Marshal(slackPayload{
		Text:        "*" + m.Title + "*",
		Attachments: []slackAttachment{{Color: color, Text: m.Text}},
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Webhook, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("slack: status %d", resp.StatusCode)
	}
	return nil
}

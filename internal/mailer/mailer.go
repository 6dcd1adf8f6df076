// Package mailer sends notification emails through an HTTP email API.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Email is a plain-text notification.
type Email struct {
	To      []string
	ReplyTo string
	Subject string
	Text    string
}

// HTTPMailer delivers through a Resend-compatible JSON endpoint.
type HTTPMailer struct {
	apiKey   string
	endpoint string
	from     string
	client   *http.Client
}

func NewHTTPMailer(apiKey, endpoint, from string) *HTTPMailer {
	return &HTTPMailer{
		apiKey:   apiKey,
		endpoint: endpoint,
		from:     from,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
	ReplyTo string   `json:"reply_to,omitempty"`
}

func (m *HTTPMailer) Send(ctx context.Context, e Email) error {
	body, err := json.Marshal(sendRequest{
		From:    m.from,
		To:      e.To,
		Subject: e.Subject,
		Text:    e.Text,
		ReplyTo: e.ReplyTo,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("mail api returned status %d", resp.StatusCode)
	}
	return nil
}

// LogMailer writes emails to the log instead of sending them.
type LogMailer struct {
	logger zerolog.Logger
}

func NewLogMailer(logger zerolog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, e Email) error {
	m.logger.Info().
		Strs("to", e.To).
		Str("reply_to", e.ReplyTo).
		Str("subject", e.Subject).
		Msg("mail delivery disabled, email not sent")
	return nil
}

// Package mailer is a thin client for the transactional email API
// (Resend-compatible). Email is best-effort everywhere it is used; callers
// log failures and never fail the request over them.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

type Client struct {
	baseURL    string
	apiKey     string
	from       string
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(baseURL, apiKey, from string, log *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://api.resend.com"
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		from:       from,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		log:        log,
	}
}

// Enabled reports whether an API key is configured. Without one every Send
// is a logged no-op, which keeps local development keyless.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (c *Client) Send(ctx context.Context, to, subject, html string) error {
	if !c.Enabled() {
		c.log.Debug("mailer disabled, dropping email", "to", to, "subject", subject)
		return nil
	}

	payload, err := json.Marshal(sendRequest{
		From:    c.from,
		To:      []string{to},
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("email api returned status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// SendPremiumWelcome sends the purchase confirmation after a successful
// checkout webhook.
func (c *Client) SendPremiumWelcome(ctx context.Context, to, tier string) error {
	subject := "Welcome to CakeVision Premium"
	if tier == "lifetime" {
		subject = "Welcome, Founding Member!"
	}
	html := fmt.Sprintf(
		"<p>Your %s plan is active. Head back to the studio and start creating.</p>", tier)
	return c.Send(ctx, to, subject, html)
}

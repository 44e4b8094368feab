package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/schedulo/schedulo/internal/domain/providers"
	"github.com/schedulo/schedulo/pkg/config"
)

// MailAPISender delivers email through a SendGrid-compatible HTTP API.
type MailAPISender struct {
	apiKey      string
	fromName    string
	fromAddress string
	httpClient  *http.Client
	baseURL     string
}

// NewMailAPISender creates a new mail sender
func NewMailAPISender(cfg *config.MailConfig) (*MailAPISender, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("MAIL_API_KEY must be set")
	}

	return &MailAPISender{
		apiKey:      cfg.APIKey,
		fromName:    cfg.FromName,
		fromAddress: cfg.FromAddress,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: cfg.BaseURL,
	}, nil
}

type mailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type mailPersonalization struct {
	To []mailAddress `json:"to"`
}

type mailContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type mailSendRequest struct {
	Personalizations []mailPersonalization `json:"personalizations"`
	From             mailAddress           `json:"from"`
	Subject          string                `json:"subject"`
	Content          []mailContent         `json:"content"`
}

// Send delivers the message and returns the provider message id.
func (s *MailAPISender) Send(ctx context.Context, email providers.OutboundEmail) (string, error) {
	payload := mailSendRequest{
		Personalizations: []mailPersonalization{
			{To: []mailAddress{{Email: email.ToAddress, Name: email.ToName}}},
		},
		From:    mailAddress{Email: s.fromAddress, Name: s.fromName},
		Subject: email.Subject,
		Content: []mailContent{{Type: "text/plain", Value: email.Body}},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/mail/send", s.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("mail API error (status %d): %s", resp.StatusCode, string(body))
	}

	// SendGrid returns the message id as a response header on 202.
	if id := resp.Header.Get("X-Message-Id"); id != "" {
		return id, nil
	}
	return "", nil
}

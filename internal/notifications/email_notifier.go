package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// EmailNotifier delivers cancellation notices through an HTTP email provider.
// The provider contract is a single JSON POST answering {"success": bool}.
type EmailNotifier struct {
	providerURL string
	apiKey      string
	client      *http.Client
}

func NewEmailNotifier(providerURL, apiKey string) *EmailNotifier {
	return &EmailNotifier{
		providerURL: providerURL,
		apiKey:      apiKey,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

type providerRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	Key     string `json:"key,omitempty"`
}

type providerResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func (n *EmailNotifier) SendCancellationNotice(ctx context.Context, in CancellationNoticeInput) error {
	body := providerRequest{
		To:      in.Email,
		Subject: "Your reservation has been canceled",
		Text: fmt.Sprintf("Hi %s, your table reservation for %s at %s has been canceled.",
			in.Name, in.Date, in.Time),
		Key: n.apiKey,
	}

	raw, err := json.Marshal(body)

	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.providerURL, bytes.NewReader(raw))

	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)

	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("email provider returned status %d", resp.StatusCode)
	}

	var out providerResponse

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return err
	}

	if !out.Success {
		return fmt.Errorf("email provider rejected notice: %s", out.Error)
	}

	return nil
}

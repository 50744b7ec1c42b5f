package sendgrid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type Client struct {
	BaseURL    string
	APIKey     string
	FromEmail  string
	FromName   string
	HTTPClient *http.Client
}

type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendRequest struct {
	Personalizations []struct {
		To []address `json:"to"`
	} `json:"personalizations"`
	From    address   `json:"from"`
	Subject string    `json:"subject"`
	Content []content `json:"content"`
}

func NewClient(baseURL, apiKey, fromEmail, fromName string) *Client {
	return &Client{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		APIKey:    apiKey,
		FromEmail: fromEmail,
		FromName:  fromName,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Send posts one message to the v3 mail/send endpoint.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if c.APIKey == "" {
		return fmt.Errorf("sendgrid: api key not configured")
	}
	if msg.To == "" {
		return fmt.Errorf("sendgrid: recipient is required")
	}

	reqData := sendRequest{
		From:    address{Email: c.FromEmail, Name: c.FromName},
		Subject: msg.Subject,
	}
	reqData.Personalizations = append(reqData.Personalizations, struct {
		To []address `json:"to"`
	}{To: []address{{Email: msg.To}}})
	// text/plain must precede text/html
	if msg.Text != "" {
		reqData.Content = append(reqData.Content, content{Type: "text/plain", Value: msg.Text})
	}
	if msg.HTML != "" {
		reqData.Content = append(reqData.Content, content{Type: "text/html", Value: msg.HTML})
	}

	jsonData, err := json.Marshal(reqData)
	if err != nil {
		return fmt.Errorf("failed to marshal mail: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v3/mail/send", bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

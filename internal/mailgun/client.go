// Package mailgun is the outbound email provider gateway: one send call per
// recipient plus the signed-webhook verification shared with the event
// processor. The rest of the system treats it as an opaque boundary.
package mailgun

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/garageware/crm-backend/internal/config"
	appErrors "github.com/garageware/crm-backend/internal/errors"
)

// Client is a Mailgun Messages API client
type Client struct {
	baseURL    string
	apiKey     string
	domain     string
	signingKey string
	httpClient *http.Client
}

// NewClient creates a new Mailgun client from injected configuration.
func NewClient(cfg config.MailgunConfig) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		domain:     cfg.Domain,
		signingKey: cfg.SigningKey,
		httpClient: &http.Client{Timeout: cfg.Timeout()},
	}
}

// Message is one outbound send request.
type Message struct {
	To        string
	FromName  string
	FromEmail string
	ReplyTo   string
	Subject   string
	HTMLBody  string
	TextBody  string
	// ContactID is the internal campaign contact UUID, attached as a custom
	// variable for correlation redundancy beyond the provider message id.
	ContactID string
}

// Ready reports whether the client has credentials to send with.
func (c *Client) Ready() error {
	if c.apiKey == "" || c.domain == "" {
		return appErrors.ErrProviderNotConfigured
	}
	return nil
}

// Send delivers a single email and returns the provider-assigned message id.
func (c *Client) Send(ctx context.Context, msg *Message) (string, error) {
	if err := c.Ready(); err != nil {
		return "", err
	}

	form := url.Values{}
	if msg.FromName != "" {
		form.Add("from", fmt.Sprintf("%s <%s>", msg.FromName, msg.FromEmail))
	} else {
		form.Add("from", msg.FromEmail)
	}
	form.Add("to", msg.To)
	form.Add("subject", msg.Subject)
	form.Add("html", msg.HTMLBody)
	if msg.TextBody != "" {
		form.Add("text", msg.TextBody)
	}
	if msg.ReplyTo != "" {
		form.Add("h:Reply-To", msg.ReplyTo)
	}
	form.Add("v:contact_id", msg.ContactID)

	endpoint := fmt.Sprintf("%s/%s/messages", c.baseURL, c.domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth("api", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("mailgun error %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		ID      string `json:"id"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("parse send response: %w", err)
	}

	// Mailgun wraps the id in angle brackets
	return strings.Trim(result.ID, "<>"), nil
}

// VerifySignature checks a webhook's HMAC-SHA256 over timestamp+token
// against the supplied hex signature using a constant-time compare.
func (c *Client) VerifySignature(timestamp, token, signature string) bool {
	if c.signingKey == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(c.signingKey))
	mac.Write([]byte(timestamp + token))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

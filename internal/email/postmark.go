// Package email sends transactional mail through the Postmark HTTP API.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/nacp/internal/model"
)

const defaultAPIURL = "https://api.postmarkapp.com"

type Client struct {
	serverToken string
	fromEmail   string
	baseURL     string
	apiURL      string
	httpClient  *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithAPIURL points the client at a different Postmark endpoint.
func WithAPIURL(u string) Option {
	return func(cl *Client) {
		cl.apiURL = strings.TrimRight(u, "/")
	}
}

// NewClient creates a Postmark client. baseURL is the public address of the
// census site, used for links in messages.
func NewClient(serverToken, fromEmail, baseURL string, opts ...Option) *Client {
	c := &Client{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiURL:      defaultAPIURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the server token and sender are set.
func (c *Client) Configured() bool {
	return c.serverToken != "" && c.fromEmail != ""
}

type postmarkEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
	Tag      string `json:"Tag,omitempty"`
}

var confirmationHTML = template.Must(template.New("confirmation").Parse(
	`<p>Dear {{.Name}},</p>
<p>Thank you for registering for the National Agricultural Census Pilot. An enumerator will contact you by {{.Methods}}.</p>
<p>Island: {{.Island}}<br>Settlement: {{.Settlement}}<br>Availability: {{.Days}} ({{.Times}})</p>
<p>Reference number: {{.ID}}</p>`))

var approvedHTML = template.Must(template.New("approved").Parse(
	`<p>Hello {{.Username}},</p>
<p>Your {{.Role}} account for the National Agricultural Census has been approved.</p>
<p><a href="{{.Link}}">Sign in</a></p>`))

// SendRegistrationConfirmation thanks a citizen after final confirmation.
func (c *Client) SendRegistrationConfirmation(ctx context.Context, reg model.Registration) error {
	data := map[string]any{
		"Name":       reg.FullName(),
		"Methods":    strings.Join(reg.CommunicationMethods, " or "),
		"Island":     reg.Island,
		"Settlement": reg.Settlement,
		"Days":       strings.Join(reg.AvailableDays, ", "),
		"Times":      strings.Join(reg.AvailableTimes, ", "),
		"ID":         reg.ID,
	}
	var html bytes.Buffer
	if err := confirmationHTML.Execute(&html, data); err != nil {
		return fmt.Errorf("render confirmation: %w", err)
	}
	text := fmt.Sprintf(
		"Dear %s,\n\nThank you for registering for the National Agricultural Census Pilot. An enumerator will contact you by %s.\n\nIsland: %s\nSettlement: %s\nAvailability: %s (%s)\n\nReference number: %d\n",
		data["Name"], data["Methods"], reg.Island, reg.Settlement, data["Days"], data["Times"], reg.ID,
	)
	return c.send(ctx, postmarkEmail{
		To:       reg.Email,
		Subject:  "Your NACP census registration",
		HtmlBody: html.String(),
		TextBody: text,
		Tag:      "registration-confirmation",
	})
}

// SendAccountApproved tells an agent or holder their account is active.
func (c *Client) SendAccountApproved(ctx context.Context, u model.User) error {
	link := c.baseURL + "/login"
	var html bytes.Buffer
	if err := approvedHTML.Execute(&html, map[string]string{"Username": u.Username, "Role": u.Role, "Link": link}); err != nil {
		return fmt.Errorf("render approval: %w", err)
	}
	return c.send(ctx, postmarkEmail{
		To:       u.Email,
		Subject:  "Your NACP census account is approved",
		HtmlBody: html.String(),
		TextBody: fmt.Sprintf("Hello %s,\n\nYour %s account for the National Agricultural Census has been approved.\n\nSign in: %s\n", u.Username, u.Role, link),
		Tag:      "account-approved",
	})
}

func (c *Client) send(ctx context.Context, msg postmarkEmail) error {
	if !c.Configured() {
		return fmt.Errorf("email client not configured: missing server token or sender")
	}
	if msg.To == "" {
		return fmt.Errorf("email has no recipient")
	}
	msg.From = c.fromEmail

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/email", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("postmark API error: status %d", resp.StatusCode)
	}
	return nil
}

package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dukerupert/nacp/internal/model"
)

func newTestServer(t *testing.T, received *postmarkEmail, gotToken *string, status int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/email" {
			t.Errorf("path = %q, want /email", r.URL.Path)
		}
		*gotToken = r.Header.Get("X-Postmark-Server-Token")
		if err := json.NewDecoder(r.Body).Decode(received); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(status)
		w.Write([]byte(`{"MessageID": "test-id"}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestSendRegistrationConfirmation(t *testing.T) {
	var received postmarkEmail
	var gotToken string
	server := newTestServer(t, &received, &gotToken, http.StatusOK)

	client := NewClient("test-token", "census@example.gov.bs", "https://census.test", WithAPIURL(server.URL))
	reg := model.Registration{
		ID:                   12,
		FirstName:            "Ann",
		LastName:             "<Rolle>",
		Email:                "ann@example.com",
		CommunicationMethods: []string{"WhatsApp", "Email"},
		Island:               "Exuma",
		Settlement:           "George Town",
		AvailableDays:        []string{"Monday", "Friday"},
		AvailableTimes:       []string{"Morning (7-10am)"},
	}

	if err := client.SendRegistrationConfirmation(context.Background(), reg); err != nil {
		t.Fatalf("send confirmation: %v", err)
	}

	if gotToken != "test-token" {
		t.Errorf("server token = %q, want %q", gotToken, "test-token")
	}
	if received.To != "ann@example.com" {
		t.Errorf("To = %q, want %q", received.To, "ann@example.com")
	}
	if received.From != "census@example.gov.bs" {
		t.Errorf("From = %q, want %q", received.From, "census@example.gov.bs")
	}
	if received.Subject != "Your NACP census registration" {
		t.Errorf("Subject = %q", received.Subject)
	}
	if !strings.Contains(received.TextBody, "WhatsApp or Email") {
		t.Errorf("TextBody missing methods: %q", received.TextBody)
	}
	if !strings.Contains(received.HtmlBody, "Ann &lt;Rolle&gt;") {
		t.Errorf("HtmlBody should escape names: %q", received.HtmlBody)
	}
	if !strings.Contains(received.HtmlBody, "Reference number: 12") {
		t.Errorf("HtmlBody missing reference: %q", received.HtmlBody)
	}
}

func TestSendAccountApproved(t *testing.T) {
	var received postmarkEmail
	var gotToken string
	server := newTestServer(t, &received, &gotToken, http.StatusOK)

	client := NewClient("test-token", "census@example.gov.bs", "https://census.test/", WithAPIURL(server.URL))
	u := model.User{Username: "agent7", Email: "agent7@example.com", Role: model.RoleAgent}

	if err := client.SendAccountApproved(context.Background(), u); err != nil {
		t.Fatalf("send approval: %v", err)
	}
	if !strings.Contains(received.TextBody, "https://census.test/login") {
		t.Errorf("TextBody missing login link: %q", received.TextBody)
	}
	if received.Tag != "account-approved" {
		t.Errorf("Tag = %q, want %q", received.Tag, "account-approved")
	}
}

func TestSendAPIError(t *testing.T) {
	var received postmarkEmail
	var gotToken string
	server := newTestServer(t, &received, &gotToken, http.StatusUnprocessableEntity)

	client := NewClient("test-token", "census@example.gov.bs", "https://census.test", WithAPIURL(server.URL))
	err := client.SendRegistrationConfirmation(context.Background(), model.Registration{Email: "x@example.com"})
	if err == nil {
		t.Fatal("expected error for 422 response")
	}
}

func TestSendNotConfigured(t *testing.T) {
	client := NewClient("", "census@example.gov.bs", "https://census.test")
	if client.Configured() {
		t.Fatal("Configured() = true without token")
	}

	err := client.SendRegistrationConfirmation(context.Background(), model.Registration{Email: "x@example.com"})
	if err == nil {
		t.Fatal("expected error for unconfigured client")
	}
}

func TestSendNoRecipient(t *testing.T) {
	client := NewClient("token", "census@example.gov.bs", "https://census.test")
	if err := client.SendRegistrationConfirmation(context.Background(), model.Registration{}); err == nil {
		t.Fatal("expected error without recipient")
	}
}

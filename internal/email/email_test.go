package email

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func sampleNotification() LeadNotification {
	return LeadNotification{
		ChildName: "Max",
		Gender:    "male",
		Age:       "5",
		FirstName: "Sam",
		LastName:  "Smith",
		Email:     "a@b.com",
		Phone:     "07911 123456",
		PostCode:  "SW1A 1AA",
		ImageURL:  "https://cdn.example.com/leads/1700000000000-ab12cd34.jpg",
	}
}

func TestRenderLeadNotification(t *testing.T) {
	m, err := renderLeadNotification(sampleNotification())
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if m.Subject != "Max (male) - EdgeKidLead" {
		t.Fatalf("unexpected subject %q", m.Subject)
	}
	if m.ReplyTo != "a@b.com" {
		t.Fatalf("expected replies to go to the parent, got %q", m.ReplyTo)
	}
	for _, want := range []string{
		"New Model Application Received",
		"Sam Smith",
		"a@b.com",
		"07911 123456",
		"SW1A 1AA",
		`src="https://cdn.example.com/leads/1700000000000-ab12cd34.jpg"`,
		"View Full Image",
		"Sent from TinyTalent Application Form",
	} {
		if !strings.Contains(m.HTML, want) {
			t.Fatalf("expected html body to contain %q", want)
		}
	}
}

func TestRenderLeadNotificationPlainText(t *testing.T) {
	m, err := renderLeadNotification(sampleNotification())
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	for _, want := range []string{
		"Parent Name: Sam Smith",
		"Phone: 07911 123456",
		"Photo: https://cdn.example.com/leads/1700000000000-ab12cd34.jpg",
		"Sent from TinyTalent Application Form",
	} {
		if !strings.Contains(m.Text, want) {
			t.Fatalf("expected text body to contain %q, got:\n%s", want, m.Text)
		}
	}
	if strings.Contains(m.Text, "<") {
		t.Fatal("expected no markup in the text body")
	}
}

func TestRenderLeadNotificationEscapesInput(t *testing.T) {
	n := sampleNotification()
	n.ChildName = `<script>alert("x")</script>`

	m, err := renderLeadNotification(n)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(m.HTML, "<script>") {
		t.Fatal("expected child name to be html-escaped")
	}
}

func TestRenderLeadNotificationWithoutImage(t *testing.T) {
	n := sampleNotification()
	n.ImageURL = ""

	m, err := renderLeadNotification(n)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(m.HTML, "View Full Image") || strings.Contains(m.Text, "Photo:") {
		t.Fatal("expected photo block to be omitted")
	}
}

func TestBrevoSenderPostsMessage(t *testing.T) {
	var got brevoEmailRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("api-key") != "key" {
			t.Errorf("missing api key header")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	sender := NewBrevoSender("key", "no-reply@tinytalent.uk", "TinyTalent Applications")
	sender.endpoint = srv.URL

	if err := sender.SendLeadNotification(context.Background(), "admin@tinytalent.uk", sampleNotification()); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(got.To) != 1 || got.To[0].Email != "admin@tinytalent.uk" {
		t.Fatalf("unexpected recipients %+v", got.To)
	}
	if got.Subject != "Max (male) - EdgeKidLead" {
		t.Fatalf("unexpected subject %q", got.Subject)
	}
	if got.ReplyTo == nil || got.ReplyTo.Email != "a@b.com" {
		t.Fatalf("unexpected reply-to %+v", got.ReplyTo)
	}
	if got.TextContent == "" {
		t.Fatal("expected a plain text alternative")
	}
}

func TestBrevoSenderReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":"unauthorized"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	sender := NewBrevoSender("bad", "no-reply@tinytalent.uk", "TinyTalent Applications")
	sender.endpoint = srv.URL

	if err := sender.SendLeadNotification(context.Background(), "admin@tinytalent.uk", sampleNotification()); err == nil {
		t.Fatal("expected error on non-2xx")
	}
}

func TestSMTPSenderBuildsMultipartMessage(t *testing.T) {
	sender := NewSMTPSender("localhost", 2525, "", "", "no-reply@tinytalent.uk", "TinyTalent Applications")
	m, err := renderLeadNotification(sampleNotification())
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	msg, err := sender.buildMsg("admin@tinytalent.uk", m)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	raw := buf.String()
	for _, want := range []string{"Reply-To:", "a@b.com", "text/plain", "text/html", "admin@tinytalent.uk"} {
		if !strings.Contains(raw, want) {
			t.Fatalf("expected message to contain %q", want)
		}
	}
}

func TestSMTPSenderToleratesMalformedReplyTo(t *testing.T) {
	sender := NewSMTPSender("localhost", 2525, "", "", "no-reply@tinytalent.uk", "TinyTalent Applications")
	m, err := renderLeadNotification(sampleNotification())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	m.ReplyTo = "not an address"

	if _, err := sender.buildMsg("admin@tinytalent.uk", m); err != nil {
		t.Fatalf("expected the message to build without a reply-to, got %v", err)
	}
}

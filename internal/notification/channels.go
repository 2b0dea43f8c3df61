package notification

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"talent_intake_backend/internal/conversion"
	"talent_intake_backend/internal/email"
	"talent_intake_backend/internal/leads/domain"
)

// EmailChannel sends the operator notification for one lead. It is the send
// primitive shared by the fan-out, single resends and bulk resends.
type EmailChannel struct {
	sender    email.Sender
	recipient string
}

func NewEmailChannel(sender email.Sender, recipient string) *EmailChannel {
	return &EmailChannel{sender: sender, recipient: recipient}
}

// Send delivers the lead notification to the configured recipient.
func (c *EmailChannel) Send(ctx context.Context, lead domain.Lead) error {
	if c.recipient == "" {
		return Permanent(errors.New("notification recipient is not configured"))
	}
	if err := c.sender.SendLeadNotification(ctx, c.recipient, NotificationFromLead(lead)); err != nil {
		return fmt.Errorf("send lead notification: %w", err)
	}
	return nil
}

// NotificationFromLead maps a lead to the email template fields.
func NotificationFromLead(lead domain.Lead) email.LeadNotification {
	age := ""
	if lead.Age > 0 {
		age = strconv.Itoa(lead.Age)
	}
	return email.LeadNotification{
		ChildName: lead.DisplayName(),
		Gender:    lead.Gender,
		Age:       age,
		FirstName: lead.FirstName,
		LastName:  lead.LastName,
		Email:     lead.Email,
		Phone:     lead.Phone,
		PostCode:  lead.PostCode,
		ImageURL:  lead.ImageURL,
	}
}

// EventSender posts one conversion event.
type EventSender interface {
	Configured() bool
	Send(ctx context.Context, event conversion.Event) error
}

// ConversionChannel builds and posts the server-side conversion event.
type ConversionChannel struct {
	builder *conversion.Builder
	client  EventSender
}

func NewConversionChannel(builder *conversion.Builder, client EventSender) *ConversionChannel {
	return &ConversionChannel{builder: builder, client: client}
}

// Configured reports whether events can be sent at all.
func (c *ConversionChannel) Configured() bool {
	return c != nil && c.client != nil && c.client.Configured()
}

// Send hashes the lead's identity and posts the event under eventID. Upstream
// rejections that a retry cannot fix are returned as permanent.
func (c *ConversionChannel) Send(ctx context.Context, lead domain.Lead, eventID, sourceURL string) error {
	if !c.Configured() {
		return conversion.ErrNotConfigured
	}

	event := c.builder.Build(conversion.InputFromLead(lead), eventID, sourceURL)
	err := c.client.Send(ctx, event)

	var apiErr *conversion.APIError
	if errors.As(err, &apiErr) && !apiErr.Temporary() {
		return Permanent(err)
	}
	return err
}

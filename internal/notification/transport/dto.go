package transport

import (
	"bytes"
	"encoding/json"
	"strings"
)

// FlexString accepts a JSON string, number or null. Form clients send age either way.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if string(trimmed) == "null" {
		*f = ""
		return nil
	}

	var raw string
	if err := json.Unmarshal(trimmed, &raw); err == nil {
		*f = FlexString(strings.TrimSpace(raw))
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(trimmed, &num); err != nil {
		return err
	}
	*f = FlexString(num.String())
	return nil
}

func (f FlexString) String() string { return string(f) }

// SendEmailRequest is the body of POST /api/send-email.
type SendEmailRequest struct {
	ChildName string     `json:"childName"`
	Gender    string     `json:"gender"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	Age       FlexString `json:"age"`
	PostCode  string     `json:"postCode"`
	ImageURL  string     `json:"imageUrl"`
}

// TrackLeadRequest is the body of POST /api/track-lead.
type TrackLeadRequest struct {
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	ChildName string     `json:"childName"`
	Gender    string     `json:"gender"`
	Age       FlexString `json:"age"`
	PostCode  string     `json:"postCode"`
	EventID   string     `json:"eventId"`
	SourceURL string     `json:"sourceUrl"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type TrackLeadResponse struct {
	Success         bool   `json:"success"`
	DeduplicationID string `json:"deduplicationId"`
}

// Package conversion builds and sends server-side "Lead" conversion events and
// describes the matching browser pixel event. Both carry the same event id so
// the ad platform counts one conversion.
package conversion

import (
	"strconv"

	"talent_intake_backend/internal/leads/domain"
)

const (
	EventNameLead       = "Lead"
	ActionSourceWebsite = "website"
	ContentNameIntake   = "Application Submission"
)

// Input is the raw identity and context a conversion event is built from.
type Input struct {
	Email     string
	Phone     string
	FirstName string
	LastName  string
	PostCode  string
	ChildName string
	Gender    string
	Age       string
}

// InputFromLead maps a stored lead to builder input.
func InputFromLead(lead domain.Lead) Input {
	age := ""
	if lead.Age > 0 {
		age = strconv.Itoa(lead.Age)
	}
	return Input{
		Email:     lead.Email,
		Phone:     lead.Phone,
		FirstName: lead.FirstName,
		LastName:  lead.LastName,
		PostCode:  lead.PostCode,
		ChildName: lead.ChildName,
		Gender:    lead.Gender,
		Age:       age,
	}
}

// Event is one entry of the Conversions API "data" array.
type Event struct {
	EventName      string     `json:"event_name"`
	EventTime      int64      `json:"event_time"`
	EventID        string     `json:"event_id"`
	EventSourceURL string     `json:"event_source_url,omitempty"`
	ActionSource   string     `json:"action_source"`
	UserData       UserData   `json:"user_data"`
	CustomData     CustomData `json:"custom_data"`
}

// UserData holds SHA-256 hex digests. An absent field is an empty list, never
// the digest of an empty string.
type UserData struct {
	Email     []string `json:"em"`
	Phone     []string `json:"ph"`
	FirstName []string `json:"fn"`
	LastName  []string `json:"ln"`
	City      []string `json:"ct"`
	State     []string `json:"st"`
	Zip       []string `json:"zp"`
	Country   []string `json:"country"`
}

// CustomData carries the unhashed application context.
type CustomData struct {
	ChildName string  `json:"child_name,omitempty"`
	Gender    string  `json:"gender,omitempty"`
	Age       string  `json:"age,omitempty"`
	Currency  string  `json:"currency"`
	Value     float64 `json:"value"`
}

// Payload is the request body posted to the events endpoint.
type Payload struct {
	Data          []Event `json:"data"`
	TestEventCode string  `json:"test_event_code,omitempty"`
}

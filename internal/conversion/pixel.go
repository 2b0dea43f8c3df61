package conversion

import "errors"

// PixelState is the initialization state of the browser tracking library as
// reported by the client that submitted the form.
type PixelState int

const (
	PixelUninitialized PixelState = iota
	PixelReady
)

func (s PixelState) String() string {
	if s == PixelReady {
		return "ready"
	}
	return "uninitialized"
}

// ErrPixelNotInitialized is returned by Track on a handle that is not ready.
var ErrPixelNotInitialized = errors.New("pixel not initialized")

// Pixel is an explicit handle to the browser pixel. The zero value is uninitialized.
type Pixel struct {
	id    string
	state PixelState
}

// NewPixel returns a ready handle only when a pixel id is configured and the
// client says its tracking library loaded.
func NewPixel(pixelID string, clientReady bool) Pixel {
	if pixelID == "" || !clientReady {
		return Pixel{id: pixelID, state: PixelUninitialized}
	}
	return Pixel{id: pixelID, state: PixelReady}
}

// State returns the handle's state.
func (p Pixel) State() PixelState { return p.state }

// PixelEvent is the instruction the browser replays as fbq('track', EventName, {...}, {eventID}).
type PixelEvent struct {
	PixelID     string  `json:"pixelId"`
	EventName   string  `json:"eventName"`
	EventID     string  `json:"eventId"`
	ContentName string  `json:"contentName"`
	Currency    string  `json:"currency"`
	Value       float64 `json:"value"`
}

// Track describes the Lead event for eventID.
func (p Pixel) Track(eventID, currency string, value float64) (PixelEvent, error) {
	if p.state != PixelReady {
		return PixelEvent{}, ErrPixelNotInitialized
	}
	return PixelEvent{
		PixelID:     p.id,
		EventName:   EventNameLead,
		EventID:     eventID,
		ContentName: ContentNameIntake,
		Currency:    currency,
		Value:       value,
	}, nil
}

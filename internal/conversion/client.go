package conversion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"talent_intake_backend/platform/logger"
)

const (
	DefaultGraphBaseURL = "https://graph.facebook.com"
	DefaultGraphVersion = "v18.0"

	maxErrorBody = 64 << 10
)

// ErrNotConfigured is returned when the pixel id or access token is missing.
var ErrNotConfigured = errors.New("conversion api credentials are not configured")

// APIError is a non-2xx answer from the events endpoint.
type APIError struct {
	StatusCode int
	// Details is the upstream JSON body, or a JSON string when the body was not JSON.
	Details json.RawMessage
}

func (e *APIError) Error() string {
	return fmt.Sprintf("conversion api returned %d: %s", e.StatusCode, string(e.Details))
}

// Temporary reports whether repeating the same request might succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// ClientConfig provides the credentials and endpoint of the Conversions API.
type ClientConfig interface {
	GetMetaPixelID() string
	GetMetaAccessToken() string
	GetMetaGraphBaseURL() string
	GetMetaGraphAPIVersion() string
	GetMetaTestEventCode() string
}

// Client posts events to the Conversions API.
type Client struct {
	baseURL       string
	version       string
	pixelID       string
	accessToken   string
	testEventCode string
	http          *http.Client
	log           *logger.Logger
}

func NewClient(cfg ClientConfig, log *logger.Logger) *Client {
	baseURL := strings.TrimRight(cfg.GetMetaGraphBaseURL(), "/")
	if baseURL == "" {
		baseURL = DefaultGraphBaseURL
	}
	version := strings.Trim(cfg.GetMetaGraphAPIVersion(), "/")
	if version == "" {
		version = DefaultGraphVersion
	}

	return &Client{
		baseURL:       baseURL,
		version:       version,
		pixelID:       cfg.GetMetaPixelID(),
		accessToken:   cfg.GetMetaAccessToken(),
		testEventCode: cfg.GetMetaTestEventCode(),
		http:          &http.Client{Timeout: 10 * time.Second},
		log:           log,
	}
}

// Configured reports whether both the pixel id and access token are set.
func (c *Client) Configured() bool {
	return c != nil && c.pixelID != "" && c.accessToken != ""
}

// PixelID returns the configured pixel id.
func (c *Client) PixelID() string {
	if c == nil {
		return ""
	}
	return c.pixelID
}

// Send posts a single event. A non-2xx answer is returned as *APIError.
func (c *Client) Send(ctx context.Context, event Event) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	body, err := json.Marshal(Payload{Data: []Event{event}, TestEventCode: c.testEventCode})
	if err != nil {
		return fmt.Errorf("marshal conversion payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/%s/events?access_token=%s",
		c.baseURL, c.version, url.PathEscape(c.pixelID), url.QueryEscape(c.accessToken))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("conversion api request failed: %w", redactToken(err, c.accessToken))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &APIError{StatusCode: resp.StatusCode, Details: errorDetails(data)}
		c.log.Warn("conversion api rejected event",
			"status", resp.StatusCode, "eventId", event.EventID, "details", string(apiErr.Details))
		return apiErr
	}

	c.log.Info("conversion event sent", "eventId", event.EventID)
	return nil
}

func errorDetails(data []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && json.Valid(trimmed) {
		return json.RawMessage(trimmed)
	}
	quoted, _ := json.Marshal(string(trimmed))
	return json.RawMessage(quoted)
}

// redactToken keeps the access token out of logged transport errors, which
// embed the request URL.
func redactToken(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), url.QueryEscape(token)) {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), url.QueryEscape(token), "REDACTED"))
}

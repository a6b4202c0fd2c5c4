package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"jire/pkg/model"
)

// ReservationClient talks to the reservation API the way Jicofo and the
// booking front end do.
type ReservationClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewReservationClient(baseURL string) *ReservationClient {
	return &ReservationClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// APIError is any non-success answer. ConflictID is set when a conference is
// already running.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	ConflictID int64
}

func (e *APIError) Error() string {
	if e.ConflictID != 0 {
		return fmt.Sprintf("status %d: conference %d already running", e.StatusCode, e.ConflictID)
	}
	if e.Code != "" {
		return fmt.Sprintf("status %d: %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
}

type Response struct {
	*http.Response
	Body []byte
}

func (r *Response) DecodeJSON(target any) error {
	return json.Unmarshal(r.Body, target)
}

type ReservationInput struct {
	ID        int64  `json:"id,omitempty"`
	Name      string `json:"name"`
	Owner     string `json:"owner,omitempty"`
	Pin       string `json:"pin,omitempty"`
	Timezone  string `json:"timezone,omitempty"`
	StartTime string `json:"start_time"`
	Duration  int    `json:"duration,omitempty"` // minutes
}

func (c *ReservationClient) AddReservation(ctx context.Context, in ReservationInput) (*model.ExternalView, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPost, "/reservation", bytes.NewReader(data), "application/json")
	if err != nil {
		return nil, err
	}
	return decodeView(resp, http.StatusCreated)
}

// Allocate posts the form Jicofo sends when a participant joins. An empty
// startTime means now.
func (c *ReservationClient) Allocate(ctx context.Context, name, owner, startTime string) (*model.ExternalView, error) {
	form := url.Values{"name": {name}}
	if owner != "" {
		form.Set("mail_owner", owner)
	}
	if startTime != "" {
		form.Set("start_time", startTime)
	}
	resp, err := c.do(ctx, http.MethodPost, "/conference", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return nil, err
	}
	return decodeView(resp, http.StatusOK)
}

func (c *ReservationClient) GetConference(ctx context.Context, key string) (*model.ExternalView, error) {
	return c.get(ctx, "/conference/"+url.PathEscape(key))
}

func (c *ReservationClient) GetReservation(ctx context.Context, key string) (*model.ExternalView, error) {
	return c.get(ctx, "/reservation/"+url.PathEscape(key))
}

// get returns (nil, nil) on 404.
func (c *ReservationClient) get(ctx context.Context, path string) (*model.ExternalView, error) {
	resp, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	return decodeView(resp, http.StatusOK)
}

func (c *ReservationClient) DeleteConference(ctx context.Context, key string) (bool, error) {
	return c.delete(ctx, "/conference/"+url.PathEscape(key))
}

func (c *ReservationClient) DeleteReservation(ctx context.Context, key string) (bool, error) {
	return c.delete(ctx, "/reservation/"+url.PathEscape(key))
}

// delete reports false when the server had nothing to remove.
func (c *ReservationClient) delete(ctx context.Context, path string) (bool, error) {
	resp, err := c.do(ctx, http.MethodDelete, path, nil, "")
	if err != nil {
		return false, err
	}
	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusForbidden:
		return false, nil
	default:
		return false, apiError(resp)
	}
}

func (c *ReservationClient) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		Response: resp,
		Body:     respBody,
	}, nil
}

func decodeView(resp *Response, want int) (*model.ExternalView, error) {
	if resp.StatusCode != want {
		return nil, apiError(resp)
	}
	var v model.ExternalView
	if err := resp.DecodeJSON(&v); err != nil {
		return nil, fmt.Errorf("failed to decode booking: %w", err)
	}
	return &v, nil
}

func apiError(resp *Response) *APIError {
	var body struct {
		Code       string `json:"code"`
		Message    string `json:"message"`
		ConflictID int64  `json:"conflict_id"`
	}
	e := &APIError{StatusCode: resp.StatusCode}
	if err := resp.DecodeJSON(&body); err != nil {
		e.Message = strings.TrimSpace(string(resp.Body))
		return e
	}
	e.Code = body.Code
	e.Message = body.Message
	e.ConflictID = body.ConflictID
	return e
}

func (c *ReservationClient) WaitForHealthy(ctx context.Context, maxWait time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, maxWait)
	defer cancel()
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		resp, err := c.do(ctx, http.MethodGet, "/health", nil, "")
		if err == nil && resp.StatusCode == http.StatusOK {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("service did not become healthy within %v", maxWait)
		case <-ticker.C:
		}
	}
}

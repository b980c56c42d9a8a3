package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"autocheckout.service/internal/core/model"
)

// AttendanceAPI is the contract for the staff portal's attendance backend.
// The agent only consumes this API; it never implements it.
type AttendanceAPI interface {
	GetMyAttendance(ctx context.Context, q AttendanceQuery) ([]model.AttendanceRecord, error)
	CheckOut(ctx context.Context, req CheckOutRequest) error
	CheckIn(ctx context.Context, req CheckInRequest) error
}

// AttendanceQuery is a date-range query over the caller's own records.
type AttendanceQuery struct {
	StartDate model.LocalDate
	EndDate   model.LocalDate
	Limit     int
}

// CheckOutRequest is the checkout command. The server treats it as
// idempotent per (user, date): last write wins.
type CheckOutRequest struct {
	Date           string `json:"date"`
	CheckOutTime   string `json:"check_out_time"`
	Location       string `json:"location"`
	IsAutoCheckout bool   `json:"is_auto_checkout"`
}

// CheckInRequest is the clock-in command. The core never sends it; the
// manual proxy endpoints and local tooling do.
type CheckInRequest struct {
	Date        string `json:"date"`
	CheckInTime string `json:"check_in_time"`
	Location    string `json:"location"`
	Status      string `json:"status"`
}

// envelope is the API's standard response wrapper.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		Attendance []model.AttendanceRecord `json:"attendance"`
	} `json:"data"`
}

// HTTPClient talks to the attendance API over HTTP with bearer auth.
type HTTPClient struct {
	client  *http.Client
	baseURL string
	token   string
}

// NewHTTPClient builds an attendance API client. Requests carry a fixed
// client-side timeout; callers impose no additional one.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL: baseURL,
		token:   token,
	}
}

// GetMyAttendance fetches the caller's attendance records in a date range.
func (c *HTTPClient) GetMyAttendance(ctx context.Context, q AttendanceQuery) ([]model.AttendanceRecord, error) {
	params := url.Values{}
	params.Set("startDate", q.StartDate.String())
	params.Set("endDate", q.EndDate.String())
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/attendance/my?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create attendance list request: %w", err)
	}

	var env envelope
	if err := c.do(req, &env); err != nil {
		return nil, err
	}
	return env.Data.Attendance, nil
}

// CheckOut submits a checkout command for a single date.
func (c *HTTPClient) CheckOut(ctx context.Context, body CheckOutRequest) error {
	if err := c.post(ctx, "/attendance/check-out", body); err != nil {
		return err
	}
	log.Ctx(ctx).Info().
		Str("date", body.Date).
		Str("check_out_time", body.CheckOutTime).
		Bool("is_auto_checkout", body.IsAutoCheckout).
		Msg("Checkout recorded in attendance system")
	return nil
}

// CheckIn submits a clock-in command for a single date.
func (c *HTTPClient) CheckIn(ctx context.Context, body CheckInRequest) error {
	return c.post(ctx, "/attendance/check-in", body)
}

func (c *HTTPClient) post(ctx context.Context, path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal attendance api payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+path, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create attendance api request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var env envelope
	return c.do(req, &env)
}

func (c *HTTPClient) do(req *http.Request, env *envelope) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call attendance api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		// 401 lands here too: the agent surfaces it as a generic failure
		// and does not attempt to re-authenticate.
		return fmt.Errorf("attendance api returned non-successful status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(env); err != nil {
		return fmt.Errorf("failed to decode attendance api response: %w", err)
	}
	if !env.Success {
		return fmt.Errorf("attendance api rejected request: %s", env.Message)
	}
	return nil
}

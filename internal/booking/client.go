// Package booking provides a client for the remote booking service that owns
// patient records, the doctor directory, slot availability, and appointments.
package booking

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

	"github.com/Adithya-srikar/Medical-chatbot/pkg/logging"
)

// Doctor is an entry in the remote doctor directory.
type Doctor struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	ImageURL  string `json:"imageUrl,omitempty"`
}

// TimeSlot is a bookable slot for a (doctor, date) pair.
type TimeSlot struct {
	ID        string `json:"id"`
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// AppointmentRequest carries the completed appointment draft to the booking endpoint.
type AppointmentRequest struct {
	DoctorID   string   `json:"doctorId"`
	DoctorName string   `json:"doctorName"`
	Date       string   `json:"date"` // YYYY-MM-DD
	TimeSlot   TimeSlot `json:"timeSlot"`
	Reason     string   `json:"reason"`
}

// AppointmentResponse is the outcome of a booking attempt.
type AppointmentResponse struct {
	Success       bool   `json:"success"`
	AppointmentID string `json:"appointmentId,omitempty"`
}

// ValidateUserResponse reports whether a patient record already exists.
type ValidateUserResponse struct {
	Message string `json:"message"`
}

// PatientExists reports whether the service recognised the (phone, dob) pair.
func (r *ValidateUserResponse) PatientExists() bool {
	return r != nil && strings.EqualFold(strings.TrimSpace(r.Message), "patient exists")
}

// CreateUserResponse confirms a new patient record.
type CreateUserResponse struct {
	Message string `json:"message"`
}

// Client is an HTTP client for the remote booking service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// ClientOption is a functional option for configuring the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the request timeout on the default HTTP client.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *logging.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a booking service client.
// baseURL is the deployment-specific API root, without a trailing slash.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logging.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ValidateUser checks whether a patient record exists for the phone/dob pair.
func (c *Client) ValidateUser(ctx context.Context, phoneNumber, dob string) (*ValidateUserResponse, error) {
	body := map[string]string{
		"phoneNumber": phoneNumber,
		"dob":         dob,
	}
	var resp ValidateUserResponse
	if err := c.postJSON(ctx, "/validate-user", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateUser registers a new patient record.
func (c *Client) CreateUser(ctx context.Context, firstName, lastName, phoneNumber, dob string) (*CreateUserResponse, error) {
	body := map[string]string{
		"firstName":   firstName,
		"lastName":    lastName,
		"phoneNumber": phoneNumber,
		"dob":         dob,
	}
	var resp CreateUserResponse
	if err := c.postJSON(ctx, "/create-user", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListDoctors fetches the doctor directory.
func (c *Client) ListDoctors(ctx context.Context) ([]Doctor, error) {
	var doctors []Doctor
	if err := c.getJSON(ctx, "/doctors", nil, &doctors); err != nil {
		return nil, err
	}
	return doctors, nil
}

// ListTimeSlots fetches slots for a doctor on a given date (YYYY-MM-DD).
func (c *Client) ListTimeSlots(ctx context.Context, doctorID, date string) ([]TimeSlot, error) {
	params := url.Values{}
	params.Set("doctorId", doctorID)
	params.Set("date", date)

	var slots []TimeSlot
	if err := c.getJSON(ctx, "/timeslots", params, &slots); err != nil {
		return nil, err
	}
	return slots, nil
}

// BookAppointment persists the completed draft.
func (c *Client) BookAppointment(ctx context.Context, appt AppointmentRequest) (*AppointmentResponse, error) {
	var resp AppointmentResponse
	if err := c.postJSON(ctx, "/appointments", appt, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("booking: marshal %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("booking: create %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, path, out)
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("booking: create %s request: %w", path, err)
	}

	return c.do(req, path, out)
}

func (c *Client) do(req *http.Request, path string, out any) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("booking: %s request failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("booking: %s returned status %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("booking: decode %s response: %w", path, err)
	}

	c.logger.Debug("booking: request completed",
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

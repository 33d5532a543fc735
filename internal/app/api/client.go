// Package api is the typed client for the clinic backend REST service. All
// business logic lives behind these endpoints; this tier only forwards
// intents and renders confirmed responses.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/alimponya/clinic-portal/internal/app/models"
	"github.com/alimponya/clinic-portal/internal/app/observability/metrics"
	"github.com/alimponya/clinic-portal/pkg/logger"
)

// APIError carries a backend-reported failure, as opposed to a transport
// failure where no response arrived at all.
type APIError struct {
	StatusCode int
	Msg        string
}

func (e *APIError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return fmt.Sprintf("backend returned status %d", e.StatusCode)
}

// Unwrap maps the status code onto the domain sentinels so callers can use
// errors.Is without caring about HTTP.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusBadRequest:
		return models.ErrBadRequest
	case http.StatusUnauthorized:
		return models.ErrUnauthenticated
	case http.StatusForbidden:
		return models.ErrForbidden
	case http.StatusNotFound:
		return models.ErrNotFound
	}
	return nil
}

// Client talks to the backend over HTTP with a bearer token per call.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
	tracer  trace.Tracer
}

func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
		tracer: otel.Tracer("clinic-portal/api"),
	}
}

// LoginResponse is the payload of POST /auth/login.
type LoginResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// RegisterResponse is the payload of POST /auth/register. Token and User are
// only present when the backend auto-logs the new account in.
type RegisterResponse struct {
	Msg   string       `json:"msg"`
	Token string       `json:"token,omitempty"`
	User  *models.User `json:"user,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createBookingRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type roleRequest struct {
	Role string `json:"role"`
}

// Login authenticates against the backend. The caller decides whether the
// returned role is acceptable for its portal before storing anything.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var out LoginResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", "", loginRequest{Email: email, Password: password}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, name, email, password string) (*RegisterResponse, error) {
	var out RegisterResponse
	err := c.do(ctx, http.MethodPost, "/auth/register", "", registerRequest{Name: name, Email: email, Password: password}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListBookings returns the caller's own bookings (backend scopes by token).
func (c *Client) ListBookings(ctx context.Context, token string) ([]models.Booking, error) {
	return c.list(ctx, "/bookings", token)
}

// CreateBooking requests a new pending appointment.
func (c *Client) CreateBooking(ctx context.Context, token, date, tm string) (*models.Booking, error) {
	var out struct {
		Msg     string          `json:"msg"`
		Booking *models.Booking `json:"booking"`
	}
	err := c.do(ctx, http.MethodPost, "/bookings", token, createBookingRequest{Date: date, Time: tm}, &out)
	if err != nil {
		return nil, err
	}
	if out.Booking == nil {
		return nil, errors.New("backend confirmed booking without returning it")
	}
	return out.Booking, nil
}

// UpdateBookingStatus patches a booking on the client surface.
func (c *Client) UpdateBookingStatus(ctx context.Context, token, id, status string) (*models.Booking, error) {
	return c.patchBooking(ctx, "/bookings/"+id, token, status)
}

// ListAllBookings is the legacy admin read of every booking.
func (c *Client) ListAllBookings(ctx context.Context, token string) ([]models.Booking, error) {
	return c.list(ctx, "/bookings/all", token)
}

func (c *Client) ListReceptionBookings(ctx context.Context, token string) ([]models.Booking, error) {
	return c.list(ctx, "/receptionist/bookings", token)
}

func (c *Client) UpdateReceptionBookingStatus(ctx context.Context, token, id, status string) (*models.Booking, error) {
	return c.patchBooking(ctx, "/receptionist/bookings/"+id, token, status)
}

func (c *Client) ListUsers(ctx context.Context, token string) ([]models.User, error) {
	var out []models.User
	if err := c.do(ctx, http.MethodGet, "/admin/users", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateUserRole(ctx context.Context, token, id string, role models.Role) error {
	return c.do(ctx, http.MethodPatch, "/admin/users/"+id, token, roleRequest{Role: role.String()}, nil)
}

func (c *Client) DeleteUser(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, "/admin/users/"+id, token, nil, nil)
}

func (c *Client) ListAdminBookings(ctx context.Context, token string) ([]models.Booking, error) {
	return c.list(ctx, "/admin/bookings", token)
}

func (c *Client) UpdateAdminBookingStatus(ctx context.Context, token, id, status string) (*models.Booking, error) {
	return c.patchBooking(ctx, "/admin/bookings/"+id, token, status)
}

func (c *Client) DeleteBooking(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, "/admin/bookings/"+id, token, nil, nil)
}

// bookingEnvelope accepts both response shapes the backend uses for booking
// mutations: a bare booking object, or the booking wrapped under "data".
type bookingEnvelope struct {
	Data *models.Booking `json:"data"`
	models.Booking
}

func (c *Client) patchBooking(ctx context.Context, path, token, status string) (*models.Booking, error) {
	var out bookingEnvelope
	if err := c.do(ctx, http.MethodPatch, path, token, statusRequest{Status: status}, &out); err != nil {
		return nil, err
	}
	if out.Data != nil {
		return out.Data, nil
	}
	return &out.Booking, nil
}

// listEnvelope accepts both a plain array and an object-with-data payload.
type listEnvelope struct {
	Data []models.Booking `json:"data"`
}

func (c *Client) list(ctx context.Context, path, token string) ([]models.Booking, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, token, nil, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var bookings []models.Booking
	if err := json.Unmarshal(raw, &bookings); err == nil {
		return bookings, nil
	}
	var env listEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, errors.Wrap(err, "unexpected booking list payload")
	}
	return env.Data, nil
}

// do performs one upstream request. Transport failures come back wrapped;
// non-2xx responses come back as *APIError with the backend's msg field when
// one is present. out may be nil for calls whose body is irrelevant.
func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	ctx, span := c.tracer.Start(ctx, "backend "+method+" "+path)
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("upstream.path", path),
	)

	var bodyReader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "failed to encode request body")
		}
		bodyReader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if requestID, ok := ctx.Value(logger.RequestIDKey).(string); ok && requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	metrics.RecordUpstreamRequest(ctx, method, path, time.Since(start), err)
	if err != nil {
		c.logger.Warn("Backend request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return errors.Wrap(err, "backend unreachable")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read backend response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var msg struct {
			Msg string `json:"msg"`
		}
		if jsonErr := json.Unmarshal(payload, &msg); jsonErr == nil {
			apiErr.Msg = msg.Msg
		}
		return apiErr
	}

	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return errors.Wrap(err, "failed to decode backend response")
	}
	return nil
}

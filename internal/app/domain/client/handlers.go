// Package client renders the client dashboard: a booking form plus the
// caller's booking history with cancellation for bookings the lifecycle
// rules still allow out.
package client

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/alimponya/clinic-portal/internal/app/api"
	"github.com/alimponya/clinic-portal/internal/app/booking"
	"github.com/alimponya/clinic-portal/internal/app/middleware"
	"github.com/alimponya/clinic-portal/internal/app/models"
	"github.com/alimponya/clinic-portal/internal/app/observability/metrics"
	"github.com/alimponya/clinic-portal/internal/app/session"
)

type ClientHandlers struct {
	backend  *api.Client
	sessions *session.Store
	logger   *zap.Logger
}

func NewClientHandlers(backend *api.Client, sessions *session.Store, logger *zap.Logger) *ClientHandlers {
	return &ClientHandlers{
		backend:  backend,
		sessions: sessions,
		logger:   logger,
	}
}

// bookingRow pairs a record with the controls the lifecycle predicate grants
// this surface, so the template never inspects status strings itself.
type bookingRow struct {
	models.Booking
	CanCancel bool
}

func (h *ClientHandlers) rows(bookings []models.Booking) []bookingRow {
	rows := make([]bookingRow, 0, len(bookings))
	for _, b := range bookings {
		rows = append(rows, bookingRow{
			Booking:   b,
			CanCancel: booking.Allowed(models.RoleClient, booking.Status(b.Status), booking.ActionCancel),
		})
	}
	return rows
}

// ShowDashboard lists the caller's bookings and the booking form.
func (h *ClientHandlers) ShowDashboard(c *gin.Context) {
	token := middleware.TokenFromContext(c)

	msg := h.sessions.TakeFlash(c)
	bookings, err := h.backend.ListBookings(c.Request.Context(), token)
	if err != nil {
		h.logger.Warn("Failed to fetch bookings", zap.Error(err))
		if msg == "" {
			msg = "Failed to fetch bookings"
		}
	}

	c.HTML(http.StatusOK, "client_dashboard.html", gin.H{
		"Bookings": h.rows(bookings),
		"Msg":      msg,
		"FormDate": "",
		"FormTime": "",
	})
}

// HandleCreate books a new appointment. On failure the form re-renders with
// the entered values and the list unchanged; nothing is mutated locally
// until the backend confirms.
func (h *ClientHandlers) HandleCreate(c *gin.Context) {
	token := middleware.TokenFromContext(c)
	date := c.PostForm("date")
	tm := c.PostForm("time")

	if date == "" || tm == "" {
		h.renderFormError(c, token, http.StatusBadRequest, "Please select date and time", date, tm)
		return
	}

	if !booking.Allowed(middleware.RoleFromContext(c), booking.StatusPending, booking.ActionCreate) {
		h.renderFormError(c, token, http.StatusForbidden, "Only clients can book appointments", date, tm)
		return
	}

	created, err := h.backend.CreateBooking(c.Request.Context(), token, date, tm)
	if err != nil {
		h.logger.Warn("Booking creation failed", zap.Error(err))
		metrics.RecordBookingAction(c.Request.Context(), "client", string(booking.ActionCreate), "failure")
		h.renderFormError(c, token, http.StatusBadGateway, errorMessage(err, "Booking failed"), date, tm)
		return
	}

	metrics.RecordBookingAction(c.Request.Context(), "client", string(booking.ActionCreate), "success")
	h.logger.Info("Booking created",
		zap.String("booking_id", created.ID),
		zap.String("status", created.Status),
	)
	h.sessions.Flash(c, "Booking successful!")
	c.Redirect(http.StatusFound, "/client/dashboard")
}

// HandleCancel cancels one of the caller's bookings. The predicate runs
// against the backend's current view of the record before any request is
// issued.
func (h *ClientHandlers) HandleCancel(c *gin.Context) {
	token := middleware.TokenFromContext(c)
	id := c.Param("id")

	bookings, err := h.backend.ListBookings(c.Request.Context(), token)
	if err != nil {
		h.sessions.Flash(c, "Failed to cancel booking")
		c.Redirect(http.StatusFound, "/client/dashboard")
		return
	}

	var current *models.Booking
	for i := range bookings {
		if bookings[i].ID == id {
			current = &bookings[i]
			break
		}
	}
	if current == nil {
		h.sessions.Flash(c, "Booking not found")
		c.Redirect(http.StatusFound, "/client/dashboard")
		return
	}

	if !booking.Allowed(middleware.RoleFromContext(c), booking.Status(current.Status), booking.ActionCancel) {
		metrics.RecordBookingAction(c.Request.Context(), "client", string(booking.ActionCancel), "denied")
		h.sessions.Flash(c, "This booking can no longer be cancelled")
		c.Redirect(http.StatusFound, "/client/dashboard")
		return
	}

	if _, err := h.backend.UpdateBookingStatus(c.Request.Context(), token, id, string(booking.StatusCancelled)); err != nil {
		h.logger.Warn("Booking cancellation failed", zap.String("booking_id", id), zap.Error(err))
		metrics.RecordBookingAction(c.Request.Context(), "client", string(booking.ActionCancel), "failure")
		h.sessions.Flash(c, "Failed to cancel booking")
		c.Redirect(http.StatusFound, "/client/dashboard")
		return
	}

	metrics.RecordBookingAction(c.Request.Context(), "client", string(booking.ActionCancel), "success")
	h.sessions.Flash(c, "Booking cancelled")
	c.Redirect(http.StatusFound, "/client/dashboard")
}

// renderFormError re-renders the dashboard with the submitted values intact
// and the history list as the backend last confirmed it.
func (h *ClientHandlers) renderFormError(c *gin.Context, token string, status int, msg, date, tm string) {
	bookings, err := h.backend.ListBookings(c.Request.Context(), token)
	if err != nil {
		h.logger.Warn("Failed to fetch bookings", zap.Error(err))
	}
	c.HTML(status, "client_dashboard.html", gin.H{
		"Bookings": h.rows(bookings),
		"Msg":      msg,
		"FormDate": date,
		"FormTime": tm,
	})
}

func errorMessage(err error, fallback string) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.Msg != "" {
		return apiErr.Msg
	}
	return fallback
}

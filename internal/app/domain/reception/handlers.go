// Package reception renders the receptionist dashboard: every booking with
// a status filter and approve/complete/cancel controls driven by the shared
// lifecycle predicate.
package reception

import (
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

type ReceptionHandlers struct {
	backend  *api.Client
	sessions *session.Store
	logger   *zap.Logger
}

func NewReceptionHandlers(backend *api.Client, sessions *session.Store, logger *zap.Logger) *ReceptionHandlers {
	return &ReceptionHandlers{
		backend:  backend,
		sessions: sessions,
		logger:   logger,
	}
}

type bookingRow struct {
	models.Booking
	Actions []booking.Action
}

// ShowDashboard lists bookings, optionally narrowed by ?status=.
func (h *ReceptionHandlers) ShowDashboard(c *gin.Context) {
	token := middleware.TokenFromContext(c)
	filter := c.DefaultQuery("status", "all")
	if filter != "all" && !booking.KnownStatus(booking.Status(filter)) {
		filter = "all"
	}

	msg := h.sessions.TakeFlash(c)
	bookings, err := h.backend.ListReceptionBookings(c.Request.Context(), token)
	if err != nil {
		h.logger.Warn("Failed to fetch bookings", zap.Error(err))
		if msg == "" {
			msg = "Failed to load bookings"
		}
	}

	rows := make([]bookingRow, 0, len(bookings))
	for _, b := range bookings {
		if filter != "all" && b.Status != filter {
			continue
		}
		rows = append(rows, bookingRow{
			Booking: b,
			Actions: booking.ActionsFor(models.RoleReceptionist, booking.Status(b.Status)),
		})
	}

	c.HTML(http.StatusOK, "reception_dashboard.html", gin.H{
		"Bookings": rows,
		"Filter":   filter,
		"Statuses": booking.Statuses,
		"Msg":      msg,
	})
}

// HandleAction performs one lifecycle action (approve, complete or cancel)
// on a booking. The predicate is consulted against the backend's current
// record before the PATCH goes out; a stale button press is rejected here.
func (h *ReceptionHandlers) HandleAction(c *gin.Context) {
	token := middleware.TokenFromContext(c)
	role := middleware.RoleFromContext(c)
	id := c.Param("id")
	action := booking.Action(c.PostForm("action"))

	target, ok := booking.Target(action)
	if !ok || action == booking.ActionRevert {
		h.sessions.Flash(c, "Unknown action")
		c.Redirect(http.StatusFound, "/admin/reception")
		return
	}

	bookings, err := h.backend.ListReceptionBookings(c.Request.Context(), token)
	if err != nil {
		h.sessions.Flash(c, "Could not update booking")
		c.Redirect(http.StatusFound, "/admin/reception")
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
		c.Redirect(http.StatusFound, "/admin/reception")
		return
	}

	if !booking.Allowed(role, booking.Status(current.Status), action) {
		metrics.RecordBookingAction(c.Request.Context(), "reception", string(action), "denied")
		h.sessions.Flash(c, "That action is not allowed for a "+current.Status+" booking")
		c.Redirect(http.StatusFound, "/admin/reception")
		return
	}

	updated, err := h.backend.UpdateReceptionBookingStatus(c.Request.Context(), token, id, string(target))
	if err != nil {
		h.logger.Warn("Status update failed",
			zap.String("booking_id", id),
			zap.String("action", string(action)),
			zap.Error(err),
		)
		metrics.RecordBookingAction(c.Request.Context(), "reception", string(action), "failure")
		h.sessions.Flash(c, "Could not update booking")
		c.Redirect(http.StatusFound, "/admin/reception")
		return
	}

	metrics.RecordBookingAction(c.Request.Context(), "reception", string(action), "success")
	h.sessions.Flash(c, "Booking marked as "+updated.Status)
	c.Redirect(http.StatusFound, "/admin/reception")
}

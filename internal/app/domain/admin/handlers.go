// Package admin renders the main-admin dashboard (user management plus full
// booking control, including the revert-to-pending override and hard
// deletes) and the legacy read-only all-bookings view.
package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/alimponya/clinic-portal/internal/app/api"
	"github.com/alimponya/clinic-portal/internal/app/booking"
	"github.com/alimponya/clinic-portal/internal/app/middleware"
	"github.com/alimponya/clinic-portal/internal/app/models"
	"github.com/alimponya/clinic-portal/internal/app/observability/metrics"
	"github.com/alimponya/clinic-portal/internal/app/session"
)

type AdminHandlers struct {
	backend  *api.Client
	sessions *session.Store
	logger   *zap.Logger
}

func NewAdminHandlers(backend *api.Client, sessions *session.Store, logger *zap.Logger) *AdminHandlers {
	return &AdminHandlers{
		backend:  backend,
		sessions: sessions,
		logger:   logger,
	}
}

type bookingRow struct {
	models.Booking
	Actions []booking.Action
}

// AssignableRoles drive the role buttons on the users tab.
var AssignableRoles = []models.Role{models.RoleClient, models.RoleMainAdmin, models.RoleReceptionist}

// ShowDashboard renders the users and bookings tabs. Both lists are fetched
// from the backend in parallel; either failing degrades to an inline
// message, never a blank page.
func (h *AdminHandlers) ShowDashboard(c *gin.Context) {
	token := middleware.TokenFromContext(c)
	tab := c.DefaultQuery("tab", "bookings")

	var (
		users    []models.User
		bookings []models.Booking
	)
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		var err error
		users, err = h.backend.ListUsers(ctx, token)
		return err
	})
	g.Go(func() error {
		var err error
		bookings, err = h.backend.ListAdminBookings(ctx, token)
		return err
	})

	msg := h.sessions.TakeFlash(c)
	if err := g.Wait(); err != nil {
		h.logger.Warn("Failed to fetch admin data", zap.Error(err))
		if msg == "" {
			msg = "Failed to load dashboard data"
		}
	}

	rows := make([]bookingRow, 0, len(bookings))
	for _, b := range bookings {
		rows = append(rows, bookingRow{
			Booking: b,
			Actions: booking.ActionsFor(models.RoleMainAdmin, booking.Status(b.Status)),
		})
	}

	c.HTML(http.StatusOK, "admin_dashboard.html", gin.H{
		"Tab":      tab,
		"Users":    users,
		"Bookings": rows,
		"Roles":    AssignableRoles,
		"Msg":      msg,
	})
}

// HandleUserRole sets a user's role to one of the three known roles.
func (h *AdminHandlers) HandleUserRole(c *gin.Context) {
	token := middleware.TokenFromContext(c)
	id := c.Param("id")
	role := models.Role(c.PostForm("role"))

	if !role.Valid() {
		h.sessions.Flash(c, "Unknown role")
		c.Redirect(http.StatusFound, "/admin/main?tab=users")
		return
	}

	if err := h.backend.UpdateUserRole(c.Request.Context(), token, id, role); err != nil {
		h.logger.Warn("Role update failed", zap.String("user_id", id), zap.Error(err))
		h.sessions.Flash(c, "Failed to update role")
		c.Redirect(http.StatusFound, "/admin/main?tab=users")
		return
	}

	h.sessions.Flash(c, "User role updated to "+role.String())
	c.Redirect(http.StatusFound, "/admin/main?tab=users")
}

// HandleUserDelete removes a user account.
func (h *AdminHandlers) HandleUserDelete(c *gin.Context) {
	token := middleware.TokenFromContext(c)
	id := c.Param("id")

	if err := h.backend.DeleteUser(c.Request.Context(), token, id); err != nil {
		h.logger.Warn("User delete failed", zap.String("user_id", id), zap.Error(err))
		h.sessions.Flash(c, "Failed to delete user")
		c.Redirect(http.StatusFound, "/admin/main?tab=users")
		return
	}

	h.sessions.Flash(c, "User deleted successfully")
	c.Redirect(http.StatusFound, "/admin/main?tab=users")
}

// HandleBookingAction performs any lifecycle action the admin surface
// offers, including the revert override and delete.
func (h *AdminHandlers) HandleBookingAction(c *gin.Context) {
	token := middleware.TokenFromContext(c)
	role := middleware.RoleFromContext(c)
	id := c.Param("id")
	action := booking.Action(c.PostForm("action"))

	bookings, err := h.backend.ListAdminBookings(c.Request.Context(), token)
	if err != nil {
		h.sessions.Flash(c, "Failed to update booking")
		c.Redirect(http.StatusFound, "/admin/main")
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
		c.Redirect(http.StatusFound, "/admin/main")
		return
	}

	if !booking.Allowed(role, booking.Status(current.Status), action) {
		metrics.RecordBookingAction(c.Request.Context(), "admin", string(action), "denied")
		h.sessions.Flash(c, "That action is not allowed for a "+current.Status+" booking")
		c.Redirect(http.StatusFound, "/admin/main")
		return
	}

	if action == booking.ActionDelete {
		if err := h.backend.DeleteBooking(c.Request.Context(), token, id); err != nil {
			h.logger.Warn("Booking delete failed", zap.String("booking_id", id), zap.Error(err))
			metrics.RecordBookingAction(c.Request.Context(), "admin", string(action), "failure")
			h.sessions.Flash(c, "Failed to delete booking")
			c.Redirect(http.StatusFound, "/admin/main")
			return
		}
		metrics.RecordBookingAction(c.Request.Context(), "admin", string(action), "success")
		h.sessions.Flash(c, "Booking deleted successfully")
		c.Redirect(http.StatusFound, "/admin/main")
		return
	}

	target, ok := booking.Target(action)
	if !ok {
		h.sessions.Flash(c, "Unknown action")
		c.Redirect(http.StatusFound, "/admin/main")
		return
	}

	updated, err := h.backend.UpdateAdminBookingStatus(c.Request.Context(), token, id, string(target))
	if err != nil {
		h.logger.Warn("Status update failed",
			zap.String("booking_id", id),
			zap.String("action", string(action)),
			zap.Error(err),
		)
		metrics.RecordBookingAction(c.Request.Context(), "admin", string(action), "failure")
		h.sessions.Flash(c, "Failed to update booking status")
		c.Redirect(http.StatusFound, "/admin/main")
		return
	}

	metrics.RecordBookingAction(c.Request.Context(), "admin", string(action), "success")
	h.sessions.Flash(c, "Booking marked as "+updated.Status)
	c.Redirect(http.StatusFound, "/admin/main")
}

// ShowLegacyDashboard is the older all-bookings view kept for parity with
// the previous admin surface. Read plus pending-only approve/cancel.
func (h *AdminHandlers) ShowLegacyDashboard(c *gin.Context) {
	token := middleware.TokenFromContext(c)

	msg := h.sessions.TakeFlash(c)
	bookings, err := h.backend.ListAllBookings(c.Request.Context(), token)
	if err != nil {
		h.logger.Warn("Failed to fetch bookings", zap.Error(err))
		if msg == "" {
			msg = "Error fetching bookings"
		}
	}

	rows := make([]bookingRow, 0, len(bookings))
	for _, b := range bookings {
		var actions []booking.Action
		// legacy surface only ever offered controls on pending records
		if booking.Status(b.Status) == booking.StatusPending {
			for _, a := range []booking.Action{booking.ActionApprove, booking.ActionCancel} {
				if booking.Allowed(models.RoleMainAdmin, booking.Status(b.Status), a) {
					actions = append(actions, a)
				}
			}
		}
		rows = append(rows, bookingRow{Booking: b, Actions: actions})
	}

	c.HTML(http.StatusOK, "admin_legacy.html", gin.H{
		"Bookings": rows,
		"Msg":      msg,
	})
}

// HandleLegacyAction services the legacy surface's approve/cancel buttons
// through the shared client-surface PATCH endpoint.
func (h *AdminHandlers) HandleLegacyAction(c *gin.Context) {
	token := middleware.TokenFromContext(c)
	role := middleware.RoleFromContext(c)
	id := c.Param("id")
	action := booking.Action(c.PostForm("action"))

	target, ok := booking.Target(action)
	if !ok || (action != booking.ActionApprove && action != booking.ActionCancel) {
		h.sessions.Flash(c, "Unknown action")
		c.Redirect(http.StatusFound, "/admin/legacy")
		return
	}

	bookings, err := h.backend.ListAllBookings(c.Request.Context(), token)
	if err != nil {
		h.sessions.Flash(c, "Error updating status")
		c.Redirect(http.StatusFound, "/admin/legacy")
		return
	}

	var current *models.Booking
	for i := range bookings {
		if bookings[i].ID == id {
			current = &bookings[i]
			break
		}
	}
	if current == nil || !booking.Allowed(role, booking.Status(current.Status), action) {
		h.sessions.Flash(c, "That action is not allowed")
		c.Redirect(http.StatusFound, "/admin/legacy")
		return
	}

	if _, err := h.backend.UpdateBookingStatus(c.Request.Context(), token, id, string(target)); err != nil {
		h.logger.Warn("Legacy status update failed", zap.String("booking_id", id), zap.Error(err))
		h.sessions.Flash(c, "Error updating status")
		c.Redirect(http.StatusFound, "/admin/legacy")
		return
	}

	h.sessions.Flash(c, "Booking marked as "+string(target))
	c.Redirect(http.StatusFound, "/admin/legacy")
}

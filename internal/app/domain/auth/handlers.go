// Package auth owns the three login portals, registration and logout. Each
// portal accepts only its own role: valid credentials for another role get
// "Access denied" and nothing is written to the session store.
package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/alimponya/clinic-portal/internal/app/api"
	"github.com/alimponya/clinic-portal/internal/app/models"
	"github.com/alimponya/clinic-portal/internal/app/observability/metrics"
	"github.com/alimponya/clinic-portal/internal/app/session"
)

// Portal describes one of the three login surfaces.
type Portal struct {
	Role   models.Role
	Title  string
	Action string
}

var (
	ClientPortal       = Portal{Role: models.RoleClient, Title: "Client Login", Action: "/login/client"}
	MainAdminPortal    = Portal{Role: models.RoleMainAdmin, Title: "Main Admin Login", Action: "/login/main-admin"}
	ReceptionistPortal = Portal{Role: models.RoleReceptionist, Title: "Receptionist Login", Action: "/login/receptionist"}
)

type AuthHandlers struct {
	backend  *api.Client
	sessions *session.Store
	logger   *zap.Logger
}

func NewAuthHandlers(backend *api.Client, sessions *session.Store, logger *zap.Logger) *AuthHandlers {
	return &AuthHandlers{
		backend:  backend,
		sessions: sessions,
		logger:   logger,
	}
}

// ShowLoginPage renders the portal's login form.
func (h *AuthHandlers) ShowLoginPage(portal Portal) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, "login.html", gin.H{
			"Title":  portal.Title,
			"Action": portal.Action,
			"Msg":    h.sessions.TakeFlash(c),
			"Email":  "",
		})
	}
}

// HandleLogin authenticates against the backend and enforces the portal's
// role before anything touches the session store.
func (h *AuthHandlers) HandleLogin(portal Portal) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := strings.TrimSpace(c.PostForm("email"))
		password := strings.TrimSpace(c.PostForm("password"))

		if email == "" || password == "" {
			h.renderLoginError(c, portal, http.StatusBadRequest, "Email and password are required")
			return
		}

		res, err := h.backend.Login(c.Request.Context(), email, password)
		if err != nil {
			h.logger.Warn("Login failed",
				zap.String("portal", portal.Action),
				zap.String("email", email),
				zap.Error(err),
			)
			metrics.RecordAuthAttempt(c.Request.Context(), portal.Action, "failure")
			h.renderLoginError(c, portal, http.StatusUnauthorized, loginErrorMessage(err))
			return
		}

		// Wrong portal for this account: deny before the session store is
		// touched so nothing is persisted on this path.
		if res.User.Role != portal.Role {
			h.logger.Warn("Login role mismatch",
				zap.String("portal", portal.Action),
				zap.String("got_role", res.User.Role.String()),
				zap.Error(models.ErrWrongPortal),
			)
			metrics.RecordAuthAttempt(c.Request.Context(), portal.Action, "denied")
			h.renderLoginError(c, portal, http.StatusForbidden, "Access denied. Please use the correct portal.")
			return
		}

		h.sessions.Set(c, res.Token, res.User.Role)
		metrics.RecordAuthAttempt(c.Request.Context(), portal.Action, "success")
		h.logger.Info("Successful login",
			zap.String("portal", portal.Action),
			zap.String("role", res.User.Role.String()),
		)
		c.Redirect(http.StatusFound, res.User.Role.DashboardPath())
	}
}

// ShowRegisterPage renders the sign-up form.
func (h *AuthHandlers) ShowRegisterPage(c *gin.Context) {
	c.HTML(http.StatusOK, "register.html", gin.H{
		"Msg":   h.sessions.TakeFlash(c),
		"Name":  "",
		"Email": "",
	})
}

// HandleRegister creates a client account. When the backend returns a token
// with the new user the session is established immediately; otherwise the
// user is sent to the login page with the backend's message.
func (h *AuthHandlers) HandleRegister(c *gin.Context) {
	name := strings.TrimSpace(c.PostForm("name"))
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")

	if name == "" || email == "" || password == "" {
		c.HTML(http.StatusBadRequest, "register.html", gin.H{
			"Msg":   "All fields are required",
			"Name":  name,
			"Email": email,
		})
		return
	}

	res, err := h.backend.Register(c.Request.Context(), name, email, password)
	if err != nil {
		h.logger.Warn("Registration failed", zap.String("email", email), zap.Error(err))
		metrics.RecordAuthAttempt(c.Request.Context(), "/register", "failure")
		c.HTML(http.StatusBadRequest, "register.html", gin.H{
			"Msg":   loginErrorMessage(err),
			"Name":  name,
			"Email": email,
		})
		return
	}

	metrics.RecordAuthAttempt(c.Request.Context(), "/register", "success")

	if res.Token != "" && res.User != nil {
		h.sessions.Set(c, res.Token, res.User.Role)
		c.Redirect(http.StatusFound, res.User.Role.DashboardPath())
		return
	}

	msg := res.Msg
	if msg == "" {
		msg = "Registration successful. Please log in."
	}
	h.sessions.Flash(c, msg)
	c.Redirect(http.StatusFound, "/login/client")
}

// HandleLogout tears the session down and returns to the default route. The
// redirect is synchronous; any upstream call still in flight dies with its
// request context and can never repopulate the store.
func (h *AuthHandlers) HandleLogout(c *gin.Context) {
	h.sessions.Clear(c)
	h.logger.Info("User logout")
	c.Redirect(http.StatusFound, "/login/client")
}

func (h *AuthHandlers) renderLoginError(c *gin.Context, portal Portal, status int, msg string) {
	c.HTML(status, "login.html", gin.H{
		"Title":  portal.Title,
		"Action": portal.Action,
		"Msg":    msg,
		"Email":  c.PostForm("email"),
	})
}

// loginErrorMessage maps a client error to what the user should see: the
// backend's own msg when it sent one, a generic line otherwise.
func loginErrorMessage(err error) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.Msg != "" {
		return apiErr.Msg
	}
	return "Invalid email or password"
}

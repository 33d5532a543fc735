package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/alimponya/clinic-portal/internal/app/api"
	"github.com/alimponya/clinic-portal/internal/app/domain/admin"
	"github.com/alimponya/clinic-portal/internal/app/domain/auth"
	"github.com/alimponya/clinic-portal/internal/app/domain/client"
	"github.com/alimponya/clinic-portal/internal/app/domain/reception"
	"github.com/alimponya/clinic-portal/internal/app/middleware"
	"github.com/alimponya/clinic-portal/internal/app/models"
	"github.com/alimponya/clinic-portal/internal/app/session"
)

type AppHandlers struct {
	Auth      *auth.AuthHandlers
	Client    *client.ClientHandlers
	Reception *reception.ReceptionHandlers
	Admin     *admin.AdminHandlers
}

// Setup wires the handler tree and registers every route on the engine.
func Setup(r *gin.Engine, backend *api.Client, sessions *session.Store, log *zap.Logger) {
	handlers := setupDependencies(backend, sessions, log)
	setupRouter(r, handlers, sessions, log)
}

func setupDependencies(backend *api.Client, sessions *session.Store, log *zap.Logger) *AppHandlers {
	return &AppHandlers{
		Auth:      auth.NewAuthHandlers(backend, sessions, log),
		Client:    client.NewClientHandlers(backend, sessions, log),
		Reception: reception.NewReceptionHandlers(backend, sessions, log),
		Admin:     admin.NewAdminHandlers(backend, sessions, log),
	}
}

func setupRouter(r *gin.Engine, h *AppHandlers, sessions *session.Store, log *zap.Logger) {
	loginLimiter := middleware.NewLoginRateLimiter(log, 10, time.Minute)

	// Public routes: the three login portals and registration. Login POSTs
	// are rate limited per client IP.
	public := r.Group("/")
	{
		public.GET("/register", h.Auth.ShowRegisterPage)
		public.POST("/register", loginLimiter.Middleware(), h.Auth.HandleRegister)

		public.GET("/login/client", h.Auth.ShowLoginPage(auth.ClientPortal))
		public.POST("/login/client", loginLimiter.Middleware(), h.Auth.HandleLogin(auth.ClientPortal))

		public.GET("/login/main-admin", h.Auth.ShowLoginPage(auth.MainAdminPortal))
		public.POST("/login/main-admin", loginLimiter.Middleware(), h.Auth.HandleLogin(auth.MainAdminPortal))

		public.GET("/login/receptionist", h.Auth.ShowLoginPage(auth.ReceptionistPortal))
		public.POST("/login/receptionist", loginLimiter.Middleware(), h.Auth.HandleLogin(auth.ReceptionistPortal))

		public.POST("/logout", h.Auth.HandleLogout)
	}

	// Each protected group is gated to exactly one role. A wrong-role
	// session is redirected the same as no session at all.
	clientGroup := r.Group("/client")
	clientGroup.Use(middleware.RequireRole(sessions, models.RoleClient))
	{
		clientGroup.GET("/dashboard", h.Client.ShowDashboard)
		clientGroup.POST("/bookings", h.Client.HandleCreate)
		clientGroup.POST("/bookings/:id/cancel", h.Client.HandleCancel)
	}

	mainAdminGroup := r.Group("/admin/main")
	mainAdminGroup.Use(middleware.RequireRole(sessions, models.RoleMainAdmin))
	{
		mainAdminGroup.GET("", h.Admin.ShowDashboard)
		mainAdminGroup.POST("/bookings/:id", h.Admin.HandleBookingAction)
		mainAdminGroup.POST("/users/:id/role", h.Admin.HandleUserRole)
		mainAdminGroup.POST("/users/:id/delete", h.Admin.HandleUserDelete)
	}

	legacyGroup := r.Group("/admin/legacy")
	legacyGroup.Use(middleware.RequireRole(sessions, models.RoleMainAdmin))
	{
		legacyGroup.GET("", h.Admin.ShowLegacyDashboard)
		legacyGroup.POST("/bookings/:id", h.Admin.HandleLegacyAction)
	}

	receptionGroup := r.Group("/admin/reception")
	receptionGroup.Use(middleware.RequireRole(sessions, models.RoleReceptionist))
	{
		receptionGroup.GET("", h.Reception.ShowDashboard)
		receptionGroup.POST("/bookings/:id", h.Reception.HandleAction)
	}

	// Everything else, including "/", resolves by session state.
	r.NoRoute(func(c *gin.Context) {
		log.Info("Unmatched path",
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)
		middleware.NoRouteHandler(sessions)(c)
	})
}

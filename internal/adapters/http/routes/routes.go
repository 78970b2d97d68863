package routes

import (
	"finspark-backoffice/internal/adapters/http/handlers"
	"finspark-backoffice/internal/adapters/http/middleware"
	"finspark-backoffice/internal/apiclient"
	"finspark-backoffice/internal/config"
	"finspark-backoffice/internal/notify"
	"finspark-backoffice/internal/observability/metrics"
	"finspark-backoffice/internal/workspace"

	"github.com/gofiber/fiber/v2"
)

// Deps are the process-wide collaborators the routes are built from
type Deps struct {
	Config     *config.Config
	API        *apiclient.Client
	Center     *notify.Center
	Workspaces *workspace.Registry
	Checks     map[string]handlers.Check
}

// Setup configures all routes for the application
func Setup(app *fiber.App, d Deps) {
	cfg := d.Config

	// Initialize handlers
	base := handlers.NewBase(d.API, d.Center, cfg.Unauthorized)
	healthHandler := handlers.NewHealthHandler(cfg.AppMode, d.Checks)
	authHandler := handlers.NewAuthHandler(base)
	dashboardHandler := handlers.NewDashboardHandler(base)
	customerHandler := handlers.NewCustomerHandler(base)
	loanHandler := handlers.NewLoanHandler(base)

	// Operational endpoints
	app.Get("/health", healthHandler.HealthCheck)
	app.Get("/metrics", metrics.Handler())

	// Every page request is bound to its browser workspace
	app.Use(
		middleware.Workspace(d.Workspaces, cfg.Cookie, cfg.Session.MaxAge),
		middleware.CSRF(cfg),
	)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/dashboard")
	})

	// Guest screens
	guest := []fiber.Handler{middleware.GuestOnly(), middleware.AuthRateLimiter()}
	setupAuthRoutes(app, authHandler, guest)

	// Signed-in screens
	signedIn := []fiber.Handler{middleware.RequireSession(), middleware.NoCacheHeaders()}
	app.Post("/logout", with(signedIn, authHandler.Logout)...)
	app.Get("/dashboard", with(signedIn, dashboardHandler.Index)...)
	setupCustomerRoutes(app.Group("/customers", signedIn...), customerHandler)
	setupLoanRoutes(app.Group("/loans", signedIn...), loanHandler)

	// Anything else is a 404 page
	app.Use(func(c *fiber.Ctx) error {
		return fiber.ErrNotFound
	})
}

// setupAuthRoutes configures login, registration and OTP routes
func setupAuthRoutes(router fiber.Router, h *handlers.AuthHandler, guest []fiber.Handler) {
	router.Get("/login", with(guest, h.LoginPage)...)
	router.Post("/login", with(guest, h.Login)...)
	router.Get("/register", with(guest, h.RegisterPage)...)
	router.Post("/register", with(guest, h.Register)...)
	router.Get("/verify-otp", with(guest, h.VerifyOTPPage)...)
	router.Post("/verify-otp", with(guest, h.VerifyOTP)...)
}

// setupCustomerRoutes configures customer routes
func setupCustomerRoutes(router fiber.Router, h *handlers.CustomerHandler) {
	router.Get("/", h.Index)
	router.Post("/", h.Create)
	router.Get("/:customerId", h.Show)
	router.Post("/:customerId", h.Update)
	router.Post("/:customerId/delete", h.Delete)
}

// setupLoanRoutes configures loan routes
func setupLoanRoutes(router fiber.Router, h *handlers.LoanHandler) {
	router.Get("/", h.Index)
	router.Post("/", h.Create)
	router.Get("/:loanId", h.Show)
	router.Post("/:loanId", h.Update)
	router.Post("/:loanId/delete", h.Delete)
}

// with appends the route handler to its guards
func with(guards []fiber.Handler, h fiber.Handler) []fiber.Handler {
	out := make([]fiber.Handler, 0, len(guards)+1)
	out = append(out, guards...)
	return append(out, h)
}

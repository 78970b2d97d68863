package middleware

import (
	"errors"
	"log"
	"time"

	"finspark-backoffice/internal/adapters/http/views"
	"finspark-backoffice/internal/config"
	"finspark-backoffice/internal/observability/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

// Locals keys
const (
	requestIDKey = "requestid"
	csrfKey      = "csrf"
)

// Setup configures all middlewares for the application
func Setup(app *fiber.App, cfg *config.Config) {
	// Recover middleware - catches panics
	app.Use(recover.New())

	app.Use(requestid.New(requestid.Config{
		Generator:  uuid.NewString,
		ContextKey: requestIDKey,
	}))

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// Security Headers middleware (Helmet)
	app.Use(helmet.New(helmet.Config{
		XSSProtection:             "1; mode=block",
		ContentTypeNosniff:        "nosniff",
		XFrameOptions:             "SAMEORIGIN",
		ReferrerPolicy:            "strict-origin-when-cross-origin",
		CrossOriginEmbedderPolicy: "require-corp",
		CrossOriginOpenerPolicy:   "same-origin",
		CrossOriginResourcePolicy: "same-origin",
		PermissionPolicy:          "geolocation=(), microphone=(), camera=()",
	}))

	// General rate limit (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/health" || c.Path() == "/metrics"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, "Too many requests. Please wait a moment and try again.")
		},
	}))

	// Logger middleware
	if cfg.IsDev() {
		app.Use(logger.New(logger.Config{
			Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
		}))
	} else {
		app.Use(logger.New(logger.Config{
			Format:     "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${locals:requestid} | ${error}\n",
			TimeFormat: "2006-01-02 15:04:05",
		}))
	}

	app.Use(metrics.Middleware())
}

// CSRF protects form posts with a per-browser token when enabled
func CSRF(cfg *config.Config) fiber.Handler {
	if !cfg.CSRFEnabled {
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	return csrf.New(csrf.Config{
		KeyLookup:      "form:_csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   cfg.Cookie.Secure,
		CookieHTTPOnly: true,
		Expiration:     1 * time.Hour,
		ContextKey:     csrfKey,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("⚠️ CSRF rejected %s %s: %v", c.Method(), c.Path(), err)
			return fiber.NewError(fiber.StatusForbidden, "Your form has expired. Please reload the page and try again.")
		},
	})
}

// CSRFToken returns the token forms must echo back, empty when disabled
func CSRFToken(c *fiber.Ctx) string {
	token, _ := c.Locals(csrfKey).(string)
	return token
}

// AuthRateLimiter creates a stricter rate limiter for auth form posts
// 5 requests per minute per IP (for login, register, OTP)
func AuthRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        5,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() != fiber.MethodPost
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "-auth"
		},
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, "Too many attempts. Please wait a minute and try again.")
		},
	})
}

// CustomErrorHandler renders errors as HTML pages
func CustomErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}
	if code >= fiber.StatusInternalServerError {
		log.Printf("❌ %s %s [%v]: %v", c.Method(), c.Path(), c.Locals(requestIDKey), err)
	}

	c.Status(code)
	if code == fiber.StatusNotFound {
		err = c.Render("errors/not_found", fiber.Map{"Title": "Page not found"}, views.LayoutPlain)
	} else {
		err = c.Render("errors/error", fiber.Map{
			"Title":   "Error",
			"Status":  code,
			"Message": message,
		}, views.LayoutPlain)
	}
	if err != nil {
		return c.SendString(message)
	}
	return nil
}

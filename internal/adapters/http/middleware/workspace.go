package middleware

import (
	"context"
	"time"

	"finspark-backoffice/internal/apiclient"
	"finspark-backoffice/internal/config"
	"finspark-backoffice/internal/workspace"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
)

const workspaceKey = "workspace"

// Workspace identifies the browser by cookie and attaches its workspace.
// A missing or malformed cookie starts a fresh anonymous browser id.
func Workspace(registry *workspace.Registry, cookie config.CookieConfig, maxAge time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// the cookie value aliases a pooled buffer; the id outlives the request
		id := utils.CopyString(c.Cookies(cookie.Name))
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		ws, err := registry.For(id)
		if err != nil {
			return err
		}

		c.Cookie(&fiber.Cookie{
			Name:     cookie.Name,
			Value:    id,
			Path:     "/",
			Domain:   cookie.Domain,
			MaxAge:   int(maxAge.Seconds()),
			Secure:   cookie.Secure,
			HTTPOnly: true,
			SameSite: cookie.SameSite,
		})

		c.Locals(workspaceKey, ws)
		return c.Next()
	}
}

// WorkspaceFrom returns the workspace attached by Workspace
func WorkspaceFrom(c *fiber.Ctx) *workspace.Workspace {
	ws, _ := c.Locals(workspaceKey).(*workspace.Workspace)
	return ws
}

// RequestContext returns the request context carrying the request id
// forwarded to the API
func RequestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if id, ok := c.Locals(requestIDKey).(string); ok && id != "" {
		ctx = apiclient.WithRequestID(ctx, id)
	}
	return ctx
}

// GuestOnly sends signed-in browsers to the dashboard
func GuestOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ws := WorkspaceFrom(c); ws != nil && ws.Session.Authenticated() {
			return c.Redirect("/dashboard")
		}
		return c.Next()
	}
}

// RequireSession sends anonymous browsers to the login page
func RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ws := WorkspaceFrom(c); ws == nil || !ws.Session.Authenticated() {
			return c.Redirect("/login")
		}
		return c.Next()
	}
}

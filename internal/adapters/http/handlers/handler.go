package handlers

import (
	"context"

	"finspark-backoffice/internal/adapters/http/middleware"
	"finspark-backoffice/internal/apiclient"
	"finspark-backoffice/internal/config"
	"finspark-backoffice/internal/core/services"
	"finspark-backoffice/internal/notify"

	"github.com/gofiber/fiber/v2"
)

// Base carries what every page handler needs to reach the API and render
type Base struct {
	api    *apiclient.Client
	center *notify.Center
	policy config.UnauthorizedPolicy
}

// NewBase creates the shared handler dependencies
func NewBase(api *apiclient.Client, center *notify.Center, policy config.UnauthorizedPolicy) *Base {
	return &Base{api: api, center: center, policy: policy}
}

// deps binds the services to the requesting browser
func (b *Base) deps(c *fiber.Ctx) services.Deps {
	return services.NewDeps(b.api, middleware.WorkspaceFrom(c), b.policy)
}

func requestContext(c *fiber.Ctx) context.Context {
	return middleware.RequestContext(c)
}

// page is the data every template can rely on
type page struct {
	Title string
	Nav   string
}

// render adds the session, pending toasts and csrf token to data
func (b *Base) render(c *fiber.Ctx, name, layout string, p page, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	data["Title"] = p.Title
	data["Nav"] = p.Nav
	data["CSRF"] = middleware.CSRFToken(c)

	if ws := middleware.WorkspaceFrom(c); ws != nil {
		data["Session"] = ws.Session.Current()
		data["Toasts"] = b.center.Drain(ws.ID)
	}
	return c.Render(name, data, layout)
}

// formError renders a form again with its error kept inline
func (b *Base) formError(c *fiber.Ctx, name, layout string, p page, data fiber.Map, err error) error {
	if data == nil {
		data = fiber.Map{}
	}
	data["FormError"] = services.Message(err)
	c.Status(fiber.StatusUnprocessableEntity)
	return b.render(c, name, layout, p, data)
}

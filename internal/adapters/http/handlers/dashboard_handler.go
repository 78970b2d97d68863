package handlers

import (
	"finspark-backoffice/internal/adapters/http/presenter"
	"finspark-backoffice/internal/adapters/http/views"
	"finspark-backoffice/internal/core/services"

	"github.com/gofiber/fiber/v2"
)

// DashboardHandler serves the portfolio overview
type DashboardHandler struct {
	*Base
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(base *Base) *DashboardHandler {
	return &DashboardHandler{Base: base}
}

// Index shows the stat cards, activity chart, top customers and recent loans.
// A failed read still renders the page with placeholder cards.
func (h *DashboardHandler) Index(c *fiber.Ctx) error {
	svc := services.NewDashboardService(h.deps(c))
	stats, err := svc.Summary(requestContext(c))

	data := fiber.Map{"Cards": presenter.DashboardCards(stats)}
	if err != nil {
		data["LoadError"] = services.Message(err)
	}
	if stats != nil {
		data["Chart"] = presenter.ChartBars(stats.ChartData)
		data["TopCustomers"] = presenter.TopCustomers(stats.TopCustomers)
		data["RecentLoans"] = presenter.LoanRows(stats.RecentLoans)
	}
	return h.render(c, "dashboard/index", views.LayoutApp, page{Title: "Dashboard", Nav: "dashboard"}, data)
}

package handlers

import (
	"fmt"
	"net/url"
	"strconv"

	"finspark-backoffice/internal/adapters/http/presenter"
	"finspark-backoffice/internal/adapters/http/views"
	"finspark-backoffice/internal/core/domain"
	"finspark-backoffice/internal/core/services"
	"finspark-backoffice/internal/pkg/pagination"

	"github.com/gofiber/fiber/v2"
)

// CustomerPageSize is the number of customers per page
const CustomerPageSize = 5

var (
	customersPage      = page{Title: "Customers", Nav: "customers"}
	customerDetailPage = page{Title: "Customer", Nav: "customers"}
)

// CustomerHandler serves the customer list, detail and forms
type CustomerHandler struct {
	*Base
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(base *Base) *CustomerHandler {
	return &CustomerHandler{Base: base}
}

// Index lists one page of customers; ?modal=add|edit opens the form
func (h *CustomerHandler) Index(c *fiber.Ctx) error {
	data := fiber.Map{}

	switch c.Query("modal") {
	case "add":
		data["Modal"] = "add"
		data["Form"] = domain.CustomerInput{}
	case "edit":
		svc := services.NewCustomerService(h.deps(c))
		customer, err := svc.Get(requestContext(c), c.Query("id"))
		if err == nil && customer != nil {
			data["Modal"] = "edit"
			data["EditID"] = customer.ID
			data["Form"] = customer.Input()
		}
	}
	return h.index(c, data)
}

// index loads the current page into data and renders the list
func (h *CustomerHandler) index(c *fiber.Ctx, data fiber.Map) error {
	params := pagination.Normalize(currentPage(c), CustomerPageSize)
	search := c.Query("q")

	svc := services.NewCustomerService(h.deps(c))
	result, err := svc.List(requestContext(c), params.Page, params.Size)

	data["Page"] = params.Page
	data["Search"] = search
	if err != nil {
		data["LoadError"] = services.Message(err)
	} else {
		data["Rows"] = presenter.FilterCustomers(presenter.CustomerRows(result.Content), search)
		data["Pager"] = presenter.NewPager("/customers", result, url.Values{"q": {search}})
	}
	return h.render(c, "customers/index", views.LayoutApp, customersPage, data)
}

// Show displays one customer with their loan history
func (h *CustomerHandler) Show(c *fiber.Ctx) error {
	id := c.Params("customerId")
	ctx := requestContext(c)

	customer, err := services.NewCustomerService(h.deps(c)).Get(ctx, id)
	if err != nil {
		return h.render(c, "customers/show", views.LayoutApp, customerDetailPage, fiber.Map{
			"LoadError": services.Message(err),
		})
	}
	if customer == nil {
		return fiber.ErrNotFound
	}

	history, err := services.NewLoanService(h.deps(c)).ForCustomer(ctx, id)
	if err != nil {
		history = customer.LoanHistory
	}

	initial := presenter.NewCustomerRow(*customer).Initial
	return h.render(c, "customers/show", views.LayoutApp, page{Title: customer.Name, Nav: "customers"}, fiber.Map{
		"Customer":    customer,
		"Initial":     initial,
		"LoanHistory": presenter.LoanRows(history),
		"ActiveLoans": presenter.ActiveLoans(history),
	})
}

// Create registers a customer
func (h *CustomerHandler) Create(c *fiber.Ctx) error {
	var in domain.CustomerInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid form submission")
	}

	svc := services.NewCustomerService(h.deps(c))
	if _, err := svc.Create(requestContext(c), in); err != nil {
		return h.modalError(c, fiber.Map{"Modal": "add", "Form": in}, err)
	}
	return c.Redirect(fmt.Sprintf("/customers?page=%d", currentPage(c)))
}

// Update saves changes to a customer
func (h *CustomerHandler) Update(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("customerId"), 10, 64)
	if err != nil {
		return fiber.ErrNotFound
	}

	var in domain.CustomerInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid form submission")
	}

	svc := services.NewCustomerService(h.deps(c))
	if _, err := svc.Update(requestContext(c), id, in); err != nil {
		return h.modalError(c, fiber.Map{"Modal": "edit", "EditID": id, "Form": in}, err)
	}
	return c.Redirect(fmt.Sprintf("/customers?page=%d", currentPage(c)))
}

// Delete removes a customer. Failures surface as a notification.
func (h *CustomerHandler) Delete(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("customerId"), 10, 64)
	if err != nil {
		return fiber.ErrNotFound
	}

	// a failure is already queued as a toast for the list page
	_ = services.NewCustomerService(h.deps(c)).Delete(requestContext(c), id)
	return c.Redirect(fmt.Sprintf("/customers?page=%d", currentPage(c)))
}

func (h *CustomerHandler) modalError(c *fiber.Ctx, data fiber.Map, err error) error {
	data["FormError"] = services.Message(err)
	c.Status(fiber.StatusUnprocessableEntity)
	return h.index(c, data)
}

// currentPage reads the zero-based page from the query, or from the
// form on posts
func currentPage(c *fiber.Ctx) int {
	raw := c.Query("page")
	if c.Method() == fiber.MethodPost {
		raw = c.FormValue("page")
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

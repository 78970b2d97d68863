package handlers

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"finspark-backoffice/internal/adapters/http/presenter"
	"finspark-backoffice/internal/adapters/http/views"
	"finspark-backoffice/internal/core/domain"
	"finspark-backoffice/internal/core/services"
	"finspark-backoffice/internal/pkg/pagination"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

const (
	// LoanPageSize is the number of loans per page
	LoanPageSize = 10
	// customerChoices bounds the customer select of the loan form
	customerChoices = 1000
)

var loansPage = page{Title: "Loans", Nav: "loans"}

// LoanStatuses are the values offered by the status selects
var LoanStatuses = []string{string(domain.LoanPending), string(domain.LoanActive), string(domain.LoanCompleted)}

// loanForm holds the raw form values so a rejected submission is shown
// exactly as typed
type loanForm struct {
	CustomerID      string
	Principal       string
	InterestRate    string
	TimePeriodYears string
	DateIssued      string
	Status          string
}

func newLoanForm() loanForm {
	return loanForm{
		InterestRate:    "5",
		TimePeriodYears: "1",
		DateIssued:      time.Now().Format("2006-01-02"),
	}
}

func loanFormFrom(l domain.Loan) loanForm {
	return loanForm{
		CustomerID:      strconv.FormatInt(l.CustomerID, 10),
		Principal:       l.Principal.String(),
		InterestRate:    l.InterestRate.String(),
		TimePeriodYears: strconv.Itoa(l.TimePeriodYears),
		DateIssued:      presenter.InputDate(l.DateIssued),
		Status:          string(l.Status),
	}
}

func parseLoanForm(c *fiber.Ctx) loanForm {
	return loanForm{
		CustomerID:      strings.TrimSpace(c.FormValue("customerId")),
		Principal:       strings.TrimSpace(c.FormValue("principal")),
		InterestRate:    strings.TrimSpace(c.FormValue("interestRate")),
		TimePeriodYears: strings.TrimSpace(c.FormValue("timePeriodYears")),
		DateIssued:      strings.TrimSpace(c.FormValue("dateIssued")),
		Status:          strings.TrimSpace(c.FormValue("status")),
	}
}

// input converts the form; unparseable numbers become zero and fail validation
func (f loanForm) input() domain.LoanInput {
	customerID, _ := strconv.ParseInt(f.CustomerID, 10, 64)
	principal, _ := decimal.NewFromString(f.Principal)
	rate, _ := decimal.NewFromString(f.InterestRate)
	years, _ := strconv.Atoi(f.TimePeriodYears)

	return domain.LoanInput{
		CustomerID:      customerID,
		Principal:       principal,
		InterestRate:    rate,
		TimePeriodYears: years,
		DateIssued:      f.DateIssued,
		Status:          domain.LoanStatus(f.Status),
	}
}

// LoanHandler serves the loan list, detail and forms
type LoanHandler struct {
	*Base
}

// NewLoanHandler creates a new loan handler
func NewLoanHandler(base *Base) *LoanHandler {
	return &LoanHandler{Base: base}
}

// Index lists one page of loans; ?modal=add|edit opens the form
func (h *LoanHandler) Index(c *fiber.Ctx) error {
	data := fiber.Map{}

	switch c.Query("modal") {
	case "add":
		data["Modal"] = "add"
		data["Form"] = newLoanForm()
	case "edit":
		loan, err := services.NewLoanService(h.deps(c)).Get(requestContext(c), c.Query("id"))
		if err == nil && loan != nil {
			data["Modal"] = "edit"
			data["EditID"] = loan.ID
			data["Form"] = loanFormFrom(*loan)
		}
	}
	return h.index(c, data)
}

func (h *LoanHandler) index(c *fiber.Ctx, data fiber.Map) error {
	params := pagination.Normalize(currentPage(c), LoanPageSize)
	search, status := c.Query("q"), c.Query("status", "All")
	ctx := requestContext(c)

	result, err := services.NewLoanService(h.deps(c)).List(ctx, params.Page, params.Size)

	data["Page"] = params.Page
	data["Search"] = search
	data["Status"] = status
	data["StatusFilters"] = presenter.StatusFilters
	data["LoanStatuses"] = LoanStatuses
	if err != nil {
		data["LoadError"] = services.Message(err)
	} else {
		data["Rows"] = presenter.FilterLoans(presenter.LoanRows(result.Content), search, status)
		data["Pager"] = presenter.NewPager("/loans", result, url.Values{"q": {search}, "status": {status}})
	}

	if _, open := data["Modal"]; open {
		customers, err := services.NewCustomerService(h.deps(c)).List(ctx, 0, customerChoices)
		if err == nil {
			data["Customers"] = customers.Content
		}
	}
	return h.render(c, "loans/index", views.LayoutApp, loansPage, data)
}

// Show displays one loan with its edit form. Both "L42" and "42" are accepted.
func (h *LoanHandler) Show(c *fiber.Ctx) error {
	id := presenter.ParseLoanID(c.Params("loanId"))
	loan, err := services.NewLoanService(h.deps(c)).Get(requestContext(c), id)
	if err != nil {
		return h.render(c, "loans/show", views.LayoutApp, loansPage, fiber.Map{
			"LoadError": services.Message(err),
		})
	}
	if loan == nil {
		return fiber.ErrNotFound
	}
	return h.show(c, loan, loanFormFrom(*loan), nil)
}

func (h *LoanHandler) show(c *fiber.Ctx, loan *domain.Loan, form loanForm, formErr error) error {
	data := fiber.Map{
		"Row":          presenter.NewLoanRow(*loan),
		"Form":         form,
		"LoanStatuses": statusChoices(loan.Status),
	}
	p := page{Title: "Loan " + presenter.LoanLabel(loan.ID), Nav: "loans"}
	if formErr != nil {
		return h.formError(c, "loans/show", views.LayoutApp, p, data, formErr)
	}
	return h.render(c, "loans/show", views.LayoutApp, p, data)
}

// Create issues a loan
func (h *LoanHandler) Create(c *fiber.Ctx) error {
	form := parseLoanForm(c)

	svc := services.NewLoanService(h.deps(c))
	if _, err := svc.Create(requestContext(c), form.input()); err != nil {
		return h.modalError(c, fiber.Map{"Modal": "add", "Form": form}, err)
	}
	return c.Redirect(fmt.Sprintf("/loans?page=%d", currentPage(c)))
}

// Update saves a loan. Posts from the detail page only carry principal
// and status; the rest is taken from the current record.
func (h *LoanHandler) Update(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(presenter.ParseLoanID(c.Params("loanId")), 10, 64)
	if err != nil {
		return fiber.ErrNotFound
	}
	ctx := requestContext(c)
	svc := services.NewLoanService(h.deps(c))
	form := parseLoanForm(c)

	if c.FormValue("from") != "detail" {
		if _, err := svc.Update(ctx, id, form.input()); err != nil {
			return h.modalError(c, fiber.Map{"Modal": "edit", "EditID": id, "Form": form}, err)
		}
		return c.Redirect(fmt.Sprintf("/loans?page=%d", currentPage(c)))
	}

	loan, err := svc.Get(ctx, strconv.FormatInt(id, 10))
	if err != nil || loan == nil {
		return c.Redirect("/loans/" + presenter.LoanLabel(id))
	}

	in := loan.Input()
	in.Principal, _ = decimal.NewFromString(form.Principal)
	if form.Status != "" {
		in.Status = domain.LoanStatus(form.Status)
	}

	if _, err := svc.Revise(ctx, id, in); err != nil {
		edited := loanFormFrom(*loan)
		edited.Principal, edited.Status = form.Principal, form.Status
		return h.show(c, loan, edited, err)
	}
	return c.Redirect("/loans/" + presenter.LoanLabel(id))
}

// Delete removes a loan. From the detail page it returns to the list.
func (h *LoanHandler) Delete(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(presenter.ParseLoanID(c.Params("loanId")), 10, 64)
	if err != nil {
		return fiber.ErrNotFound
	}

	err = services.NewLoanService(h.deps(c)).Delete(requestContext(c), id)
	if c.FormValue("from") == "detail" {
		if err != nil {
			return c.Redirect("/loans/" + presenter.LoanLabel(id))
		}
		return c.Redirect("/loans")
	}
	return c.Redirect(fmt.Sprintf("/loans?page=%d", currentPage(c)))
}

func (h *LoanHandler) modalError(c *fiber.Ctx, data fiber.Map, err error) error {
	data["FormError"] = services.Message(err)
	c.Status(fiber.StatusUnprocessableEntity)
	return h.index(c, data)
}

// statusChoices keeps an unknown current status selectable
func statusChoices(current domain.LoanStatus) []string {
	if current == "" || current.Known() {
		return LoanStatuses
	}
	return append([]string{string(current)}, LoanStatuses...)
}

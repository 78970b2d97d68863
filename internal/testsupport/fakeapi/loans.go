package fakeapi

import (
	"strconv"

	"finspark-backoffice/internal/core/domain"
	"finspark-backoffice/internal/pkg/pagination"
	"finspark-backoffice/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// defaultRate is applied when a loan is created without an interest rate
var defaultRate = decimal.NewFromInt(10)

// SeedLoan stores a loan for an existing customer and returns it
func (s *Server) SeedLoan(in domain.LoanInput) domain.Loan {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.storeLoan(in)
	return *l
}

func (s *Server) storeLoan(in domain.LoanInput) *domain.Loan {
	l := &domain.Loan{ID: s.id(), CreatedAt: s.now().Format("2006-01-02T15:04:05")}
	s.applyLoan(l, in)
	s.loans[l.ID] = l
	return l
}

// applyLoan copies input onto l and recomputes the payable total:
// principal plus simple interest over the term.
func (s *Server) applyLoan(l *domain.Loan, in domain.LoanInput) {
	l.CustomerID = in.CustomerID
	if c, ok := s.customers[in.CustomerID]; ok {
		l.CustomerName = c.Name
	}
	l.Principal = in.Principal
	if in.InterestRate.IsPositive() {
		l.InterestRate = in.InterestRate
	} else if l.InterestRate.IsZero() {
		l.InterestRate = defaultRate
	}
	if in.TimePeriodYears > 0 {
		l.TimePeriodYears = in.TimePeriodYears
	} else if l.TimePeriodYears == 0 {
		l.TimePeriodYears = 1
	}
	l.DateIssued = in.DateIssued
	if in.Status != "" {
		l.Status = in.Status
	} else if l.Status == "" {
		l.Status = domain.LoanPending
	}

	interest := l.Principal.Mul(l.InterestRate).Div(decimal.NewFromInt(100)).Mul(decimal.NewFromInt(int64(l.TimePeriodYears)))
	l.TotalAmountPayable = l.Principal.Add(interest).Round(2)
}

func (s *Server) listLoans(c *fiber.Ctx) error {
	p := pagination.GetParams(c)

	s.mu.Lock()
	all := make([]domain.Loan, 0, len(s.loans))
	for _, id := range sortedIDs(s.loans) {
		all = append(all, *s.loans[id])
	}
	s.mu.Unlock()

	return response.Success(c, "Loans retrieved", pagination.Spring(pagination.Slice(all, p)))
}

func (s *Server) getLoan(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid loan id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	found, ok := s.loans[id]
	if !ok {
		return response.NotFound(c, "Loan not found")
	}
	return response.Success(c, "Loan retrieved", *found)
}

func (s *Server) customerLoans(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid customer id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := []domain.Loan{}
	for _, loanID := range sortedIDs(s.loans) {
		if l := s.loans[loanID]; l.CustomerID == id {
			out = append(out, *l)
		}
	}
	return response.Success(c, "Customer loans retrieved", out)
}

func (s *Server) createLoan(c *fiber.Ctx) error {
	var in domain.LoanInput
	if err := c.BodyParser(&in); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if in.CustomerID == 0 || !in.Principal.IsPositive() || in.DateIssued == "" {
		return response.BadRequest(c, "Customer, principal and date issued are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.customers[in.CustomerID]; !ok {
		return response.NotFound(c, "Customer not found")
	}
	created := s.storeLoan(in)
	return response.Created(c, "Loan created", *created)
}

func (s *Server) updateLoan(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid loan id")
	}
	var in domain.LoanInput
	if err := c.BodyParser(&in); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	found, ok := s.loans[id]
	if !ok {
		return response.NotFound(c, "Loan not found")
	}
	s.applyLoan(found, in)
	return response.Success(c, "Loan updated", *found)
}

func (s *Server) deleteLoan(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid loan id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.loans[id]; !ok {
		return response.NotFound(c, "Loan not found")
	}
	delete(s.loans, id)
	return response.Success(c, "Loan deleted", nil)
}

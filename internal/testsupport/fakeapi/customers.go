package fakeapi

import (
	"strconv"

	"finspark-backoffice/internal/core/domain"
	"finspark-backoffice/internal/pkg/pagination"
	"finspark-backoffice/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// SeedCustomer stores a customer and returns it
func (s *Server) SeedCustomer(in domain.CustomerInput) domain.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.storeCustomer(in)
	return *c
}

func (s *Server) storeCustomer(in domain.CustomerInput) *domain.Customer {
	c := &domain.Customer{
		ID:               s.id(),
		Name:             in.Name,
		IDCard:           in.IDCard,
		PhoneNumber:      in.PhoneNumber,
		MaritalStatus:    in.MaritalStatus,
		EmploymentStatus: in.EmploymentStatus,
		EmployerName:     in.EmployerName,
		DateOfBirth:      in.DateOfBirth,
		Address:          in.Address,
		CreatedAt:        s.now().Format("2006-01-02T15:04:05"),
		TotalBorrowed:    decimal.Zero,
	}
	s.customers[c.ID] = c
	return c
}

// withTotals fills the computed fields; the caller holds the lock
func (s *Server) withTotals(c domain.Customer, history bool) domain.Customer {
	c.TotalLoans = 0
	c.TotalBorrowed = decimal.Zero
	c.LoanHistory = nil
	for _, id := range sortedIDs(s.loans) {
		l := s.loans[id]
		if l.CustomerID != c.ID {
			continue
		}
		c.TotalLoans++
		c.TotalBorrowed = c.TotalBorrowed.Add(l.Principal)
		if history {
			c.LoanHistory = append(c.LoanHistory, *l)
		}
	}
	return c
}

func (s *Server) listCustomers(c *fiber.Ctx) error {
	p := pagination.GetParams(c)

	s.mu.Lock()
	all := make([]domain.Customer, 0, len(s.customers))
	for _, id := range sortedIDs(s.customers) {
		all = append(all, s.withTotals(*s.customers[id], false))
	}
	s.mu.Unlock()

	return response.Success(c, "Customers retrieved", pagination.Slice(all, p))
}

func (s *Server) getCustomer(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid customer id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	found, ok := s.customers[id]
	if !ok {
		return response.NotFound(c, "Customer not found")
	}
	return response.Success(c, "Customer retrieved", s.withTotals(*found, true))
}

func (s *Server) createCustomer(c *fiber.Ctx) error {
	var in domain.CustomerInput
	if err := c.BodyParser(&in); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := in.Validate(); err != nil {
		return response.BadRequest(c, "Name, ID card and phone number are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.customers {
		if existing.IDCard == in.IDCard {
			return response.Conflict(c, "A customer with this ID card already exists")
		}
	}
	created := s.storeCustomer(in)
	return response.Created(c, "Customer registered", s.withTotals(*created, false))
}

func (s *Server) updateCustomer(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid customer id")
	}
	var in domain.CustomerInput
	if err := c.BodyParser(&in); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	found, ok := s.customers[id]
	if !ok {
		return response.NotFound(c, "Customer not found")
	}
	found.Name = in.Name
	found.IDCard = in.IDCard
	found.PhoneNumber = in.PhoneNumber
	found.MaritalStatus = in.MaritalStatus
	found.EmploymentStatus = in.EmploymentStatus
	found.EmployerName = in.EmployerName
	found.DateOfBirth = in.DateOfBirth
	found.Address = in.Address

	for _, l := range s.loans {
		if l.CustomerID == id {
			l.CustomerName = in.Name
		}
	}
	return response.Success(c, "Customer updated", s.withTotals(*found, false))
}

func (s *Server) deleteCustomer(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid customer id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.customers[id]; !ok {
		return response.NotFound(c, "Customer not found")
	}
	for _, l := range s.loans {
		if l.CustomerID == id {
			return response.Conflict(c, "Customer has loans and cannot be deleted")
		}
	}
	delete(s.customers, id)
	return response.Success(c, "Customer deleted", nil)
}

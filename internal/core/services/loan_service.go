package services

import (
	"context"
	"fmt"
	"strconv"

	"finspark-backoffice/internal/core/domain"
	"finspark-backoffice/internal/notify"
	"finspark-backoffice/internal/pkg/pagination"
	"finspark-backoffice/internal/query"
)

// LoanService reads and mutates loans through the API
type LoanService struct {
	Deps
}

// NewLoanService creates a new loan service
func NewLoanService(d Deps) *LoanService {
	return &LoanService{Deps: d}
}

// List returns one page of loans. The API answers in the spring page
// shape, which is converted to the canonical one.
func (s *LoanService) List(ctx context.Context, page, size int) (*pagination.Page[domain.Loan], error) {
	p := pagination.Normalize(page, size)
	path := fmt.Sprintf("/loans?page=%d&size=%d", p.Page, p.Size)

	return read(ctx, s.Deps, query.K("loans", p.Page, p.Size), "Failed to fetch loans",
		func(ctx context.Context) (*pagination.Page[domain.Loan], error) {
			var out pagination.SpringPage[domain.Loan]
			if _, err := s.API.Get(ctx, path, &out); err != nil {
				return nil, err
			}
			converted := out.ToPage()
			return &converted, nil
		})
}

// Get returns one loan. An empty id is a disabled read.
func (s *LoanService) Get(ctx context.Context, id string) (*domain.Loan, error) {
	return read(ctx, s.Deps, query.K("loan", id), "Failed to fetch loan",
		func(ctx context.Context) (*domain.Loan, error) {
			var out domain.Loan
			if _, err := s.API.Get(ctx, "/loans/"+id, &out); err != nil {
				return nil, err
			}
			return &out, nil
		}, query.EnabledIf(id != ""))
}

// ForCustomer returns every loan of a customer
func (s *LoanService) ForCustomer(ctx context.Context, customerID string) ([]domain.Loan, error) {
	return read(ctx, s.Deps, query.K("customerLoans", customerID), "Failed to fetch customer loans",
		func(ctx context.Context) ([]domain.Loan, error) {
			var out []domain.Loan
			if _, err := s.API.Get(ctx, "/loans/customer/"+customerID, &out); err != nil {
				return nil, err
			}
			if out == nil {
				out = []domain.Loan{}
			}
			return out, nil
		}, query.EnabledIf(customerID != ""))
}

// Create issues a new loan
func (s *LoanService) Create(ctx context.Context, in domain.LoanInput) (*domain.Loan, error) {
	return mutate(s.Deps, in.Validate, "Loan creation failed",
		notify.PromiseMessages[*domain.Loan]{
			Loading: "Creating loan...",
			Success: notify.Text[*domain.Loan]("Loan created successfully!"),
		},
		func() (*domain.Loan, error) {
			var out domain.Loan
			if _, err := s.API.Post(ctx, "/loans", in, &out); err != nil {
				return nil, err
			}
			s.invalidate(out.ID, in.CustomerID)
			return &out, nil
		},
	)
}

// Update saves the full loan edit form
func (s *LoanService) Update(ctx context.Context, id int64, in domain.LoanInput) (*domain.Loan, error) {
	return s.update(ctx, id, in, in.Validate)
}

// Revise saves an edit from the detail page. Only principal and status
// come from the form; a rate or term missing on the record is left to the API.
func (s *LoanService) Revise(ctx context.Context, id int64, in domain.LoanInput) (*domain.Loan, error) {
	return s.update(ctx, id, in, func() error {
		if in.CustomerID == 0 || !in.Principal.IsPositive() || in.DateIssued == "" {
			return domain.NewValidationError("All fields are required.")
		}
		return nil
	})
}

func (s *LoanService) update(ctx context.Context, id int64, in domain.LoanInput, validate func() error) (*domain.Loan, error) {
	return mutate(s.Deps, validate, "Loan update failed",
		notify.PromiseMessages[*domain.Loan]{
			Loading: "Updating loan...",
			Success: notify.Text[*domain.Loan]("Loan updated successfully!"),
		},
		func() (*domain.Loan, error) {
			var out domain.Loan
			if _, err := s.API.Put(ctx, fmt.Sprintf("/loans/%d", id), in, &out); err != nil {
				return nil, err
			}
			s.invalidate(id, in.CustomerID)
			return &out, nil
		},
	)
}

// Delete removes a loan
func (s *LoanService) Delete(ctx context.Context, id int64) error {
	_, err := mutate(s.Deps, nil, "Loan deletion failed",
		notify.PromiseMessages[struct{}]{
			Loading: "Deleting loan...",
			Success: notify.Text[struct{}]("Loan deleted successfully!"),
		},
		func() (struct{}, error) {
			if _, err := s.API.Delete(ctx, fmt.Sprintf("/loans/%d", id), nil); err != nil {
				return struct{}{}, err
			}
			s.invalidate(id, 0)
			return struct{}{}, nil
		},
	)
	return err
}

// invalidate drops every read a loan change can affect. It completes
// before the mutation returns.
func (s *LoanService) invalidate(loanID, customerID int64) {
	s.Queries.Invalidate(query.K("loans"))
	s.Queries.Invalidate(query.K("loan", strconv.FormatInt(loanID, 10)))
	s.Queries.Invalidate(query.K("customerLoans"))
	if customerID != 0 {
		s.Queries.Invalidate(query.K("customer", strconv.FormatInt(customerID, 10)))
	} else {
		s.Queries.Invalidate(query.K("customer"))
	}
	s.Queries.Invalidate(query.K("customers"))
	s.Queries.Invalidate(query.K("dashboard"))
}

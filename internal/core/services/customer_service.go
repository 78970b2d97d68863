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

// CustomerService reads and mutates customers through the API
type CustomerService struct {
	Deps
}

// NewCustomerService creates a new customer service
func NewCustomerService(d Deps) *CustomerService {
	return &CustomerService{Deps: d}
}

// List returns one page of customers
func (s *CustomerService) List(ctx context.Context, page, size int) (*pagination.Page[domain.Customer], error) {
	p := pagination.Normalize(page, size)
	path := fmt.Sprintf("/customers?page=%d&size=%d", p.Page, p.Size)

	return read(ctx, s.Deps, query.K("customers", p.Page, p.Size), "Failed to fetch customers",
		func(ctx context.Context) (*pagination.Page[domain.Customer], error) {
			var out pagination.Page[domain.Customer]
			if _, err := s.API.Get(ctx, path, &out); err != nil {
				return nil, err
			}
			if out.Content == nil {
				out.Content = []domain.Customer{}
			}
			return &out, nil
		})
}

// Get returns one customer. An empty id is a disabled read.
func (s *CustomerService) Get(ctx context.Context, id string) (*domain.Customer, error) {
	return read(ctx, s.Deps, query.K("customer", id), "Failed to fetch customer",
		func(ctx context.Context) (*domain.Customer, error) {
			var out domain.Customer
			if _, err := s.API.Get(ctx, "/customers/"+id, &out); err != nil {
				return nil, err
			}
			return &out, nil
		}, query.EnabledIf(id != ""))
}

// Create registers a new customer
func (s *CustomerService) Create(ctx context.Context, in domain.CustomerInput) (*domain.Customer, error) {
	return mutate(s.Deps, in.Validate, "Customer registration failed",
		notify.PromiseMessages[*domain.Customer]{
			Loading: "Registering customer...",
			Success: func(c *domain.Customer) string {
				return fmt.Sprintf("Customer %s registered successfully!", c.Name)
			},
		},
		func() (*domain.Customer, error) {
			var out domain.Customer
			if _, err := s.API.Post(ctx, "/customers/register", in, &out); err != nil {
				return nil, err
			}
			s.invalidate(out.ID)
			return &out, nil
		},
	)
}

// Update replaces the editable fields of a customer
func (s *CustomerService) Update(ctx context.Context, id int64, in domain.CustomerInput) (*domain.Customer, error) {
	return mutate(s.Deps, in.Validate, "Customer update failed",
		notify.PromiseMessages[*domain.Customer]{
			Loading: "Updating customer...",
			Success: func(c *domain.Customer) string {
				return fmt.Sprintf("Customer %s updated successfully!", c.Name)
			},
		},
		func() (*domain.Customer, error) {
			var out domain.Customer
			if _, err := s.API.Put(ctx, fmt.Sprintf("/customers/%d", id), in, &out); err != nil {
				return nil, err
			}
			if out.Name == "" {
				out.ID, out.Name = id, in.Name
			}
			s.invalidate(id)
			return &out, nil
		},
	)
}

// Delete removes a customer
func (s *CustomerService) Delete(ctx context.Context, id int64) error {
	_, err := mutate(s.Deps, nil, "Customer deletion failed",
		notify.PromiseMessages[struct{}]{
			Loading: "Deleting customer...",
			Success: notify.Text[struct{}]("Customer deleted successfully!"),
		},
		func() (struct{}, error) {
			if _, err := s.API.Delete(ctx, fmt.Sprintf("/customers/%d", id), nil); err != nil {
				return struct{}{}, err
			}
			s.invalidate(id)
			return struct{}{}, nil
		},
	)
	return err
}

func (s *CustomerService) invalidate(id int64) {
	s.Queries.Invalidate(query.K("customers"))
	s.Queries.Invalidate(query.K("customer", strconv.FormatInt(id, 10)))
	s.Queries.Invalidate(query.K("dashboard"))
}

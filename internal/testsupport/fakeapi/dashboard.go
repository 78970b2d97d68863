package fakeapi

import (
	"sort"

	"finspark-backoffice/internal/core/domain"
	"finspark-backoffice/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

const (
	recentLoans  = 5
	topCustomers = 5
)

func (s *Server) dashboard(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := domain.DashboardStats{
		TotalCustomers: len(s.customers),
		TotalLoans:     len(s.loans),
		TotalDisbursed: decimal.Zero,
		RecentLoans:    []domain.Loan{},
		TopCustomers:   []domain.TopCustomer{},
	}

	ids := sortedIDs(s.loans)
	perCustomer := make(map[int64]*domain.TopCustomer)
	for _, id := range ids {
		l := s.loans[id]
		switch l.Status.Bucket() {
		case domain.BucketActive:
			stats.ActiveLoans++
		case domain.BucketPending:
			stats.PendingLoans++
		}
		stats.TotalDisbursed = stats.TotalDisbursed.Add(l.Principal)

		top, ok := perCustomer[l.CustomerID]
		if !ok {
			top = &domain.TopCustomer{CustomerID: l.CustomerID, CustomerName: l.CustomerName, TotalBorrowed: decimal.Zero}
			perCustomer[l.CustomerID] = top
		}
		top.TotalLoans++
		top.TotalBorrowed = top.TotalBorrowed.Add(l.Principal)
	}

	for i := len(ids) - 1; i >= 0 && len(stats.RecentLoans) < recentLoans; i-- {
		stats.RecentLoans = append(stats.RecentLoans, *s.loans[ids[i]])
	}

	for _, top := range perCustomer {
		stats.TopCustomers = append(stats.TopCustomers, *top)
	}
	sort.Slice(stats.TopCustomers, func(i, j int) bool {
		a, b := stats.TopCustomers[i], stats.TopCustomers[j]
		if !a.TotalBorrowed.Equal(b.TotalBorrowed) {
			return a.TotalBorrowed.GreaterThan(b.TotalBorrowed)
		}
		return a.CustomerID < b.CustomerID
	})
	if len(stats.TopCustomers) > topCustomers {
		stats.TopCustomers = stats.TopCustomers[:topCustomers]
	}

	today := s.now()
	for offset := domain.ChartDays - 1; offset >= 0; offset-- {
		day := today.AddDate(0, 0, -offset)
		date := day.Format("2006-01-02")
		count := 0
		for _, l := range s.loans {
			if len(l.DateIssued) >= 10 && l.DateIssued[:10] == date {
				count++
			}
		}
		stats.ChartData = append(stats.ChartData, domain.ChartPoint{Day: day.Format("Mon"), Value: count})
	}

	return response.Success(c, "Dashboard summary", stats)
}

// Package fakeapi is an in-memory stand-in for the Finspark REST API,
// served over httptest for service and handler tests.
package fakeapi

import (
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"finspark-backoffice/internal/core/domain"
	"finspark-backoffice/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

// OTP is the one-time password every registration receives
const OTP = "123456"

type user struct {
	username string
	email    string
	hash     string
	role     string
}

type failure struct {
	status  int
	message string
}

// Server is the fake API
type Server struct {
	srv *httptest.Server

	mu        sync.Mutex
	secret    string
	users     map[string]user
	pending   map[string]user
	customers map[int64]*domain.Customer
	loans     map[int64]*domain.Loan
	nextID    int64
	hits      map[string]int
	failures  map[string]failure
	gate      chan struct{}
	now       func() time.Time
}

// New starts a fake API and stops it when the test ends
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		secret:    "fake-api-secret",
		users:     make(map[string]user),
		pending:   make(map[string]user),
		customers: make(map[int64]*domain.Customer),
		loans:     make(map[int64]*domain.Loan),
		hits:      make(map[string]int),
		failures:  make(map[string]failure),
		now:       time.Now,
	}

	s.srv = httptest.NewServer(adaptor.FiberApp(s.app()))
	t.Cleanup(s.srv.Close)
	return s
}

// BaseURL is the API root to configure clients with
func (s *Server) BaseURL() string {
	return s.srv.URL + "/api"
}

// Hits returns how many requests reached method and path, e.g. ("GET", "/customers")
func (s *Server) Hits(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[method+" "+path]
}

// FailNext makes the next request to method and path answer status with message
func (s *Server) FailNext(method, path string, status int, message string) {
	s.mu.Lock()
	s.failures[method+" "+path] = failure{status: status, message: message}
	s.mu.Unlock()
}

// Hold makes every request wait until the returned release is called
func (s *Server) Hold() (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.gate = gate
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.gate = nil
			s.mu.Unlock()
			close(gate)
		})
	}
}

// RotateSecret invalidates every token issued so far
func (s *Server) RotateSecret() {
	s.mu.Lock()
	s.secret += "-rotated"
	s.mu.Unlock()
}

func (s *Server) app() *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	api := app.Group("/api", s.count)

	auth := api.Group("/auth")
	auth.Post("/login", s.login)
	auth.Post("/register/start", s.registerStart)
	auth.Post("/register/verify", s.registerVerify)

	protected := api.Group("", s.bearer)

	customers := protected.Group("/customers")
	customers.Get("/", s.listCustomers)
	customers.Post("/register", s.createCustomer)
	customers.Get("/:id", s.getCustomer)
	customers.Put("/:id", s.updateCustomer)
	customers.Delete("/:id", s.deleteCustomer)

	loans := protected.Group("/loans")
	loans.Get("/", s.listLoans)
	loans.Post("/", s.createLoan)
	loans.Get("/customer/:id", s.customerLoans)
	loans.Get("/:id", s.getLoan)
	loans.Put("/:id", s.updateLoan)
	loans.Delete("/:id", s.deleteLoan)

	protected.Get("/dashboard/summary", s.dashboard)

	return app
}

// count records the hit, applies a pending failure and waits on the gate
func (s *Server) count(c *fiber.Ctx) error {
	key := c.Method() + " " + strings.TrimSuffix(strings.TrimPrefix(c.Path(), "/api"), "/")

	s.mu.Lock()
	s.hits[key]++
	fail, failing := s.failures[key]
	delete(s.failures, key)
	gate := s.gate
	s.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if failing {
		return response.Error(c, fail.status, fail.message)
	}
	return c.Next()
}

func (s *Server) id() int64 {
	s.nextID++
	return s.nextID
}

func sortedIDs[T any](m map[int64]T) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

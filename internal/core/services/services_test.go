package services

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"finspark-backoffice/internal/apiclient"
	"finspark-backoffice/internal/config"
	"finspark-backoffice/internal/core/domain"
	"finspark-backoffice/internal/notify"
	"finspark-backoffice/internal/session"
	"finspark-backoffice/internal/testsupport/fakeapi"
	"finspark-backoffice/internal/workspace"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	api    *fakeapi.Server
	center *notify.Center
	ws     *workspace.Workspace
	deps   Deps
}

func newTestEnv(t *testing.T, policy config.UnauthorizedPolicy) *testEnv {
	t.Helper()

	api := fakeapi.New(t)
	center := notify.NewCenter()
	registry := workspace.NewRegistry(session.NewMemoryStorage(), center, workspace.Config{
		SessionMaxAge: time.Hour,
		QueryTTL:      time.Minute,
	})
	ws, err := registry.For("browser-1")
	require.NoError(t, err)

	client := apiclient.New(apiclient.Config{BaseURL: api.BaseURL(), Timeout: 5 * time.Second})
	return &testEnv{
		api:    api,
		center: center,
		ws:     ws,
		deps:   NewDeps(client, ws, policy),
	}
}

// signIn seeds a user and stores a valid session
func (e *testEnv) signIn(t *testing.T) {
	t.Helper()
	e.api.SeedUser("admin", "admin@finspark.io", "secret-pass", "ADMIN")
	require.NoError(t, e.ws.Session.SetAuth("admin", "admin@finspark.io", e.api.Token("admin"), "ADMIN"))
}

func (e *testEnv) toasts() []notify.Notification {
	return e.center.Pending(e.ws.ID)
}

func levels(ns []notify.Notification) []notify.Level {
	out := make([]notify.Level, len(ns))
	for i, n := range ns {
		out[i] = n.Level
	}
	return out
}

func sampleCustomer(name, idCard string) domain.CustomerInput {
	return domain.CustomerInput{
		Name:             name,
		MaritalStatus:    "Single",
		EmploymentStatus: "Employed",
		EmployerName:     "Acme",
		DateOfBirth:      "1990-01-01",
		IDCard:           idCard,
		Address:          "1 Main St",
		PhoneNumber:      "0244000000",
	}
}

func sampleLoan(customerID int64) domain.LoanInput {
	return domain.LoanInput{
		CustomerID:      customerID,
		Principal:       decimal.NewFromInt(1000),
		InterestRate:    decimal.NewFromInt(10),
		TimePeriodYears: 2,
		DateIssued:      time.Now().Format("2006-01-02"),
	}
}

// ============================================================
// Auth
// ============================================================

func TestAuthService_Login(t *testing.T) {
	env := newTestEnv(t, config.PolicyLogout)
	env.api.SeedUser("alice", "alice@finspark.io", "pa55word", "OFFICER")
	svc := NewAuthService(env.deps)

	auth, err := svc.Login(context.Background(), domain.LoginInput{Username: "alice", Password: "pa55word"})
	require.NoError(t, err)
	assert.Equal(t, "alice", auth.Username)

	current := env.ws.Session.Current()
	assert.Equal(t, "alice", current.User)
	assert.Equal(t, "alice@finspark.io", current.Email)
	assert.Equal(t, "OFFICER", current.Role)
	assert.NotEmpty(t, current.Token)

	toasts := env.toasts()
	require.Len(t, toasts, 1)
	assert.Equal(t, notify.LevelSuccess, toasts[0].Level)
	assert.Equal(t, "Welcome back, alice!", toasts[0].Message)
}

func TestAuthService_LoginRejected(t *testing.T) {
	env := newTestEnv(t, config.PolicyLogout)
	env.api.SeedUser("alice", "alice@finspark.io", "pa55word", "OFFICER")
	svc := NewAuthService(env.deps)

	_, err := svc.Login(context.Background(), domain.LoginInput{Username: "alice", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, "Invalid username or password", Message(err))
	assert.False(t, env.ws.Session.Authenticated())

	toasts := env.toasts()
	require.Len(t, toasts, 1)
	assert.Equal(t, notify.LevelError, toasts[0].Level)
	assert.Equal(t, 5*time.Second, toasts[0].Duration)
}

func TestAuthService_ValidationNeverReachesNetwork(t *testing.T) {
	env := newTestEnv(t, config.PolicyLogout)
	svc := NewAuthService(env.deps)

	_, err := svc.Login(context.Background(), domain.LoginInput{Username: "alice"})
	assert.Equal(t, "Username and password are required.", Message(err))

	err = svc.Register(context.Background(), domain.RegistrationInput{
		Username: "bob", Email: "bob@finspark.io", Password: "one", Confirm: "two",
	})
	assert.Equal(t, "Passwords do not match.", Message(err))

	_, err = svc.VerifyOTP(context.Background(), domain.VerifyOTPInput{Email: "bob@finspark.io"})
	assert.Equal(t, "Both email and OTP are required.", Message(err))

	assert.Zero(t, env.api.Hits(http.MethodPost, "/auth/login"))
	assert.Zero(t, env.api.Hits(http.MethodPost, "/auth/register/start"))
	assert.Zero(t, env.api.Hits(http.MethodPost, "/auth/register/verify"))
	assert.Empty(t, env.toasts())
}

func TestAuthService_RegisterAndVerify(t *testing.T) {
	env := newTestEnv(t, config.PolicyLogout)
	svc := NewAuthService(env.deps)

	err := svc.Register(context.Background(), domain.RegistrationInput{
		Username: "bob", Email: "bob@finspark.io", Password: "pa55word", Confirm: "pa55word",
	})
	require.NoError(t, err)
	assert.Equal(t, "Registration started! Please check your email for OTP.", env.toasts()[0].Message)

	env.center.Drain(env.ws.ID)

	auth, err := svc.VerifyOTP(context.Background(), domain.VerifyOTPInput{Email: "bob@finspark.io", OTP: fakeapi.OTP})
	require.NoError(t, err)
	assert.Equal(t, "bob", auth.Username)

	// the API omits the email, so the submitted one is kept
	assert.Equal(t, "bob@finspark.io", env.ws.Session.Current().Email)

	toasts := env.toasts()
	require.Len(t, toasts, 1, "loading and success share one notification")
	assert.Equal(t, notify.LevelSuccess, toasts[0].Level)
	assert.Equal(t, "Welcome, bob!", toasts[0].Message)
}

func TestAuthService_VerifyOTPFailure(t *testing.T) {
	env := newTestEnv(t, config.PolicyLogout)
	svc := NewAuthService(env.deps)

	_, err := svc.VerifyOTP(context.Background(), domain.VerifyOTPInput{Email: "nobody@finspark.io", OTP: "000000"})
	require.Error(t, err)
	assert.Equal(t, "Invalid or expired OTP", Message(err))

	toasts := env.toasts()
	require.Len(t, toasts, 1)
	assert.Equal(t, notify.LevelError, toasts[0].Level)
	assert.Equal(t, "Invalid or expired OTP", toasts[0].Message)
	assert.False(t, env.ws.Session.Authenticated())
}

func TestAuthService_Logout(t *testing.T) {
	env := newTestEnv(t, config.PolicyLogout)
	env.signIn(t)

	_, err := NewCustomerService(env.deps).List(context.Background(), 0, 5)
	require.NoError(t, err)
	require.Equal(t, 1, env.ws.Queries.Stats().Entries)

	require.NoError(t, NewAuthService(env.deps).Logout())

	assert.True(t, env.ws.Session.Current().IsZero())
	assert.Zero(t, env.ws.Queries.Stats().Entries)
	toasts := env.toasts()
	require.Len(t, toasts, 1)
	assert.Equal(t, notify.LevelInfo, toasts[0].Level)
	assert.Equal(t, "You have been logged out", toasts[0].Message)
}

// ============================================================
// Customers
// ============================================================

func TestCustomerService_ListIsCached(t *testing.T) {
	env := newTestEnv(t, config.PolicyLogout)
	env.signIn(t)
	for _, name := range []string{"Ama", "Kofi", "Esi"} {
		env.api.SeedCustomer(sampleCustomer(name, "GHA-"+name))
	}
	svc := NewCustomerService(env.deps)

	first, err := svc.List(context.Background(), 0, 2)
	require.NoError(t, err)
	assert.Len(t, first.Content, 2)
	assert.Equal(t, int64(3), first.TotalElements)
	assert.Equal(t, 2, first.TotalPages)
	assert.True(t, first.First)
	assert.False(t, first.Last)

	second, err := svc.List(context.Background(), 0, 2)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, env.api.Hits(http.MethodGet, "/customers"))
}

func TestCustomerService_ConcurrentReadsShareOneRequest(t *testing.T) {
	env := newTestEnv(t, config.PolicyLogout)
	env.signIn(t)
	env.api.SeedCustomer(sampleCustomer("Ama", "GHA-1"))
	svc := NewCustomerService(env.deps)

	release := env.api.Hold()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.List(context.Background(), 0, 5)
			assert.NoError(t, err)
		}()
	}

	assert.Eventually(t, func() bool {
		return env.api.Hits(http.MethodGet, "/customers") == 1
	}, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	release()
	wg.Wait()

	assert.Equal(t, 1, env.api.Hits(http.MethodGet, "/customers"))
}

func TestCustomerService_GetDisabledWithoutID(t *testing.T) {
	env := newTestEnv(t, config.PolicyLogout)
	env.signIn(t)

	_, err := NewCustomerService(env.deps).Get(context.Background(), "")
	assert.Error(t, err)
	assert.Empty(t, env.toasts())
}

func TestCustomerService_CreateInvalidatesList(t *testing.T) {
	env := newTestEnv(t, config.PolicyLogout)
	env.signIn(t)
	svc := NewCustomerService(env.deps)

	page, err := svc.List(context.Background(), 0, 5)
	require.NoError(t, err)
	assert.Empty(t, page.Content)

	created, err := svc.Create(context.Background(), sampleCustomer("Ama", "GHA-1"))
	require.NoError(t, err)
	assert.Equal(t, "Ama", created.Name)

	toasts := env.toasts()
	require.Len(t, toasts, 1)
	assert.Equal(t, "Customer Ama registered successfully!", toasts[0].Message)

	page, err = svc.List(context.Background(), 0, 5)
	require.NoError(t, err)
	assert.Len(t, page.Content, 1)
	assert.Equal(t, 2, env.api.Hits(http.MethodGet, "/customers"))
}

func TestCustomerService_CreateValidation(t *testing.T) {
	env := newTestEnv(t, config.PolicyLogout)
	env.signIn(t)

	_, err := NewCustomerService(env.deps).Create(context.Background(), domain.CustomerInput{Name: "Ama"})
	assert.Equal(t, "All fields are required.", Message(err))
	assert.Zero(t, env.api.Hits(http.MethodPost, "/customers/register"))
	assert.Empty(t, env.toasts())
}

func TestCustomerService_ServerMessageWins(t *testing.T) {
	env := newTestEnv(t, config.PolicyLogout)
	env.signIn(t)
	env.api.SeedCustomer(sampleCustomer("Ama", "GHA-1"))

	_, err := NewCustomerService(env.deps).Create(context.Background(), sampleCustomer("Ama Two", "GHA-1"))
	require.Error(t, err)
	assert.Equal(t, "A customer with this ID card already exists", Message(err))

	toasts := env.toasts()
	require.Len(t, toasts, 1)
	assert.Equal(t, notify.LevelError, toasts[0].Level)
	assert.Equal(t, "A customer with this ID card already exists", toasts[0].Message)
}

func TestCustomerService_FallbackMessage(t *testing.T) {
	env := newTestEnv(t, config.PolicyLogout)
	env.signIn(t)
	env.api.FailNext(http.MethodGet, "/customers", http.StatusOK, "")

	_, err := NewCustomerService(env.deps).List(context.Background(), 0, 5)
	require.Error(t, err)
	assert.Equal(t, "Failed to fetch customers", Message(err))
}

func TestCustomerService_StatusMessageWithoutEnvelope(t *testing.T) {
	env := newTestEnv(t, config.PolicyLogout)
	env.signIn(t)
	env.api.FailNext(http.MethodGet, "/customers", http.StatusInternalServerError, "")

	_, err := NewCustomerService(env.deps).List(context.Background(), 0, 5)
	require.Error(t, err)
	assert.Equal(t, "Request failed with status code 500", Message(err))
	assert.Equal(t, []notify.Level{notify.LevelError}, levels(env.toasts()))
}

func TestCustomerService_UpdateAndDelete(t *testing.T) {
	env := newTestEnv(t, config.PolicyLogout)
	env.signIn(t)
	seeded := env.api.SeedCustomer(sampleCustomer("Ama", "GHA-1"))
	svc := NewCustomerService(env.deps)

	in := seeded.Input()
	in.Name = "Ama Mensah"
	updated, err := svc.Update(context.Background(), seeded.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Ama Mensah", updated.Name)
	assert.Equal(t, "Customer Ama Mensah updated successfully!", env.toasts()[0].Message)
	env.center.Drain(env.ws.ID)

	require.NoError(t, svc.Delete(context.Background(), seeded.ID))
	assert.Equal(t, "Customer deleted successfully!", env.toasts()[0].Message)
}

// ============================================================
// Loans
// ============================================================

func TestLoanService_ListConvertsSpringPage(t *testing.T) {
	env := newTestEnv(t, config.PolicyLogout)
	env.signIn(t)
	customer := env.api.SeedCustomer(sampleCustomer("Ama", "GHA-1"))
	for i := 0; i < 3; i++ {
		env.api.SeedLoan(sampleLoan(customer.ID))
	}

	page, err := NewLoanService(env.deps).List(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Len(t, page.Content, 1)
	assert.Equal(t, 1, page.PageNumber)
	assert.Equal(t, 2, page.PageSize)
	assert.Equal(t, int64(3), page.TotalElements)
	assert.False(t, page.First)
	assert.True(t, page.Last)
}

func TestLoanService_MutationRefreshesEveryView(t *testing.T) {
	env := newTestEnv(t, config.PolicyLogout)
	env.signIn(t)
	customer := env.api.SeedCustomer(sampleCustomer("Ama", "GHA-1"))
	id := "1"
	loans := NewLoanService(env.deps)
	customers := NewCustomerService(env.deps)

	_, err := loans.List(context.Background(), 0, 10)
	require.NoError(t, err)
	_, err = loans.ForCustomer(context.Background(), id)
	require.NoError(t, err)
	before, err := customers.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 0, before.TotalLoans)

	created, err := loans.Create(context.Background(), sampleLoan(customer.ID))
	require.NoError(t, err)
	assert.True(t, created.TotalAmountPayable.Equal(decimal.NewFromInt(1200)))

	// invalidation is complete when Create returns
	page, err := loans.List(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.Len(t, page.Content, 1)

	history, err := loans.ForCustomer(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	after, err := customers.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 1, after.TotalLoans)

	assert.Equal(t, 2, env.api.Hits(http.MethodGet, "/loans"))
	assert.Equal(t, 2, env.api.Hits(http.MethodGet, "/customers/1"))
}

func TestLoanService_PromisePhases(t *testing.T) {
	env := newTestEnv(t, config.PolicyLogout)
	env.signIn(t)
	customer := env.api.SeedCustomer(sampleCustomer("Ama", "GHA-1"))

	var seen []notify.Notification
	var mu sync.Mutex
	cancel := env.center.Subscribe(func(n notify.Notification) {
		mu.Lock()
		seen = append(seen, n)
		mu.Unlock()
	})
	defer cancel()

	_, err := NewLoanService(env.deps).Create(context.Background(), sampleLoan(customer.ID))
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 2)
	assert.Equal(t, notify.LevelLoading, seen[0].Level)
	assert.Equal(t, "Creating loan...", seen[0].Message)
	assert.Equal(t, notify.LevelSuccess, seen[1].Level)
	assert.Equal(t, "Loan created successfully!", seen[1].Message)
	assert.Equal(t, seen[0].ID, seen[1].ID)
}

func TestLoanService_UpdateFromDetail(t *testing.T) {
	env := newTestEnv(t, config.PolicyLogout)
	env.signIn(t)
	customer := env.api.SeedCustomer(sampleCustomer("Ama", "GHA-1"))
	loan := env.api.SeedLoan(sampleLoan(customer.ID))

	in := loan.Input()
	in.Principal = decimal.NewFromInt(2000)
	in.Status = domain.LoanActive
	updated, err := NewLoanService(env.deps).Revise(context.Background(), loan.ID, in)
	require.NoError(t, err)
	assert.True(t, updated.Principal.Equal(decimal.NewFromInt(2000)))
	assert.Equal(t, domain.LoanActive, updated.Status)
}

func TestLoanService_UpdateRequiresEveryField(t *testing.T) {
	env := newTestEnv(t, config.PolicyLogout)
	env.signIn(t)
	customer := env.api.SeedCustomer(sampleCustomer("Ama", "GHA-1"))
	loan := env.api.SeedLoan(sampleLoan(customer.ID))

	in := loan.Input()
	in.InterestRate = decimal.Zero
	in.TimePeriodYears = 0
	_, err := NewLoanService(env.deps).Update(context.Background(), loan.ID, in)
	require.Error(t, err)
	assert.Equal(t, "All fields are required.", Message(err))
	assert.Zero(t, env.api.Hits(http.MethodPut, fmt.Sprintf("/loans/%d", loan.ID)))
	assert.Empty(t, env.toasts())
}

func TestLoanService_Delete(t *testing.T) {
	env := newTestEnv(t, config.PolicyLogout)
	env.signIn(t)
	customer := env.api.SeedCustomer(sampleCustomer("Ama", "GHA-1"))
	loan := env.api.SeedLoan(sampleLoan(customer.ID))
	svc := NewLoanService(env.deps)

	require.NoError(t, svc.Delete(context.Background(), loan.ID))
	assert.Equal(t, "Loan deleted successfully!", env.toasts()[0].Message)

	env.center.Drain(env.ws.ID)
	err := svc.Delete(context.Background(), loan.ID)
	require.Error(t, err)
	assert.Equal(t, "Loan not found", Message(err))
}

// ============================================================
// Dashboard
// ============================================================

func TestDashboardService_Summary(t *testing.T) {
	env := newTestEnv(t, config.PolicyLogout)
	env.signIn(t)
	customer := env.api.SeedCustomer(sampleCustomer("Ama", "GHA-1"))
	active := sampleLoan(customer.ID)
	active.Status = domain.LoanActive
	env.api.SeedLoan(active)
	env.api.SeedLoan(sampleLoan(customer.ID))

	svc := NewDashboardService(env.deps)
	stats, err := svc.Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.TotalCustomers)
	assert.Equal(t, 2, stats.TotalLoans)
	assert.Equal(t, 1, stats.ActiveLoans)
	assert.Equal(t, 1, stats.PendingLoans)
	assert.True(t, stats.TotalDisbursed.Equal(decimal.NewFromInt(2000)))
	assert.Len(t, stats.ChartData, domain.ChartDays)
	assert.Equal(t, 2, stats.ChartData[domain.ChartDays-1].Value)

	// never retained between page loads
	_, err = svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, env.api.Hits(http.MethodGet, "/dashboard/summary"))
}

// ============================================================
// Unauthorized policy and cancellation
// ============================================================

func TestUnauthorized_LogoutPolicyClearsSession(t *testing.T) {
	env := newTestEnv(t, config.PolicyLogout)
	env.signIn(t)
	env.api.RotateSecret()

	_, err := NewCustomerService(env.deps).List(context.Background(), 0, 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, apiclient.ErrUnauthorized)
	assert.False(t, env.ws.Session.Authenticated())
}

func TestUnauthorized_ManualPolicyKeepsSession(t *testing.T) {
	env := newTestEnv(t, config.PolicyManual)
	env.signIn(t)
	env.api.RotateSecret()

	_, err := NewCustomerService(env.deps).List(context.Background(), 0, 5)
	require.Error(t, err)
	assert.Equal(t, "Invalid access token", Message(err))
	assert.True(t, env.ws.Session.Authenticated())
}

func TestRead_CancelledCallerGetsNoToast(t *testing.T) {
	env := newTestEnv(t, config.PolicyLogout)
	env.signIn(t)
	release := env.api.Hold()
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		_, err := NewCustomerService(env.deps).List(ctx, 0, 5)
		done <- err
	}()

	assert.Eventually(t, func() bool {
		return env.api.Hits(http.MethodGet, "/customers") == 1
	}, time.Second, time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Empty(t, env.toasts())
}

package domain

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Role represents the staff role reported by the API
type Role string

const (
	RoleUser    Role = "USER"
	RoleOfficer Role = "OFFICER"
	RoleAdmin   Role = "ADMIN"
)

// Session is the identity and credential held for one browser.
// All four fields are set together or are all empty.
type Session struct {
	User  string `json:"user"`
	Email string `json:"email"`
	Token string `json:"token"`
	Role  string `json:"role"`
}

// IsZero reports whether the session is anonymous
func (s Session) IsZero() bool {
	return s.Token == ""
}

// Initial returns the upper-cased first letter of the user name for the avatar
func (s Session) Initial() string {
	for _, r := range s.User {
		return strings.ToUpper(string(r))
	}
	return ""
}

// ============================================================
// Auth
// ============================================================

// LoginInput represents login form values
type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate checks required fields
func (in LoginInput) Validate() error {
	if strings.TrimSpace(in.Username) == "" || strings.TrimSpace(in.Password) == "" {
		return NewValidationError("Username and password are required.")
	}
	return nil
}

// RegistrationInput represents registration form values
type RegistrationInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Confirm  string `json:"-"`
}

// Validate checks required fields and the password confirmation
func (in RegistrationInput) Validate() error {
	if strings.TrimSpace(in.Username) == "" ||
		strings.TrimSpace(in.Email) == "" ||
		strings.TrimSpace(in.Password) == "" ||
		strings.TrimSpace(in.Confirm) == "" {
		return NewValidationError("All fields are required.")
	}
	if in.Password != in.Confirm {
		return NewValidationError("Passwords do not match.")
	}
	return nil
}

// VerifyOTPInput represents the OTP verification form
type VerifyOTPInput struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// Validate checks required fields
func (in VerifyOTPInput) Validate() error {
	if strings.TrimSpace(in.Email) == "" || strings.TrimSpace(in.OTP) == "" {
		return NewValidationError("Both email and OTP are required.")
	}
	return nil
}

// AuthResult is the payload returned by login and OTP verification
type AuthResult struct {
	Token    string `json:"token"`
	Type     string `json:"type,omitempty"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
}

// ============================================================
// Customers
// ============================================================

// Customer mirrors the API customer record.
// TotalLoans and TotalBorrowed are computed by the server.
type Customer struct {
	ID               int64           `json:"id"`
	Name             string          `json:"name"`
	IDCard           string          `json:"idCard"`
	PhoneNumber      string          `json:"phoneNumber"`
	MaritalStatus    string          `json:"maritalStatus"`
	EmploymentStatus string          `json:"employmentStatus"`
	EmployerName     string          `json:"employerName"`
	DateOfBirth      string          `json:"dateOfBirth"`
	Address          string          `json:"address"`
	CreatedAt        string          `json:"createdAt"`
	TotalLoans       int             `json:"totalLoans"`
	TotalBorrowed    decimal.Decimal `json:"totalBorrowed"`
	LoanHistory      []Loan          `json:"loanHistory"`
}

// Input returns the editable fields of the customer
func (c Customer) Input() CustomerInput {
	return CustomerInput{
		Name:             c.Name,
		MaritalStatus:    c.MaritalStatus,
		EmploymentStatus: c.EmploymentStatus,
		EmployerName:     c.EmployerName,
		DateOfBirth:      c.DateOfBirth,
		IDCard:           c.IDCard,
		Address:          c.Address,
		PhoneNumber:      c.PhoneNumber,
	}
}

// CustomerInput is the body for customer create and update
type CustomerInput struct {
	Name             string `json:"name" form:"name"`
	MaritalStatus    string `json:"maritalStatus" form:"maritalStatus"`
	EmploymentStatus string `json:"employmentStatus" form:"employmentStatus"`
	EmployerName     string `json:"employerName" form:"employerName"`
	DateOfBirth      string `json:"dateOfBirth" form:"dateOfBirth"`
	IDCard           string `json:"idCard" form:"idCard"`
	Address          string `json:"address" form:"address"`
	PhoneNumber      string `json:"phoneNumber" form:"phoneNumber"`
}

// Validate checks required fields
func (in CustomerInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" ||
		strings.TrimSpace(in.IDCard) == "" ||
		strings.TrimSpace(in.PhoneNumber) == "" {
		return NewValidationError("All fields are required.")
	}
	return nil
}

// ============================================================
// Loans
// ============================================================

// LoanStatus is the server-defined loan lifecycle value
type LoanStatus string

const (
	LoanPending   LoanStatus = "PENDING"
	LoanActive    LoanStatus = "ACTIVE"
	LoanCompleted LoanStatus = "COMPLETED"
)

// StatusBucket groups statuses for display; unknown values land in BucketOther
type StatusBucket string

const (
	BucketPending   StatusBucket = "Pending"
	BucketActive    StatusBucket = "Active"
	BucketCompleted StatusBucket = "Completed"
	BucketOther     StatusBucket = "Other"
)

// Bucket maps the status to its display bucket
func (s LoanStatus) Bucket() StatusBucket {
	switch LoanStatus(strings.ToUpper(string(s))) {
	case LoanPending:
		return BucketPending
	case LoanActive:
		return BucketActive
	case LoanCompleted:
		return BucketCompleted
	default:
		return BucketOther
	}
}

// Known reports whether the status is one of the documented values
func (s LoanStatus) Known() bool {
	return s.Bucket() != BucketOther
}

// Loan mirrors the API loan record.
// TotalAmountPayable is authoritative and computed by the server.
type Loan struct {
	ID                 int64           `json:"id"`
	CustomerID         int64           `json:"customerId"`
	CustomerName       string          `json:"customerName"`
	Principal          decimal.Decimal `json:"principal"`
	InterestRate       decimal.Decimal `json:"interestRate"`
	TimePeriodYears    int             `json:"timePeriodYears"`
	DateIssued         string          `json:"dateIssued"`
	TotalAmountPayable decimal.Decimal `json:"totalAmountPayable"`
	Status             LoanStatus      `json:"status"`
	CreatedAt          string          `json:"createdAt"`
}

// Input returns the editable fields of the loan
func (l Loan) Input() LoanInput {
	return LoanInput{
		CustomerID:      l.CustomerID,
		Principal:       l.Principal,
		InterestRate:    l.InterestRate,
		TimePeriodYears: l.TimePeriodYears,
		DateIssued:      l.DateIssued,
		Status:          l.Status,
	}
}

// LoanInput is the body for loan create and update
type LoanInput struct {
	CustomerID      int64
	Principal       decimal.Decimal
	InterestRate    decimal.Decimal
	TimePeriodYears int
	DateIssued      string
	Status          LoanStatus
}

type loanInputWire struct {
	CustomerID      int64       `json:"customerId"`
	Principal       json.Number `json:"principal"`
	InterestRate    json.Number `json:"interestRate,omitempty"`
	TimePeriodYears int         `json:"timePeriodYears,omitempty"`
	DateIssued      string      `json:"dateIssued"`
	Status          LoanStatus  `json:"status,omitempty"`
}

// MarshalJSON sends money as JSON numbers
func (in LoanInput) MarshalJSON() ([]byte, error) {
	w := loanInputWire{
		CustomerID:      in.CustomerID,
		Principal:       json.Number(in.Principal.String()),
		TimePeriodYears: in.TimePeriodYears,
		DateIssued:      in.DateIssued,
		Status:          in.Status,
	}
	if !in.InterestRate.IsZero() {
		w.InterestRate = json.Number(in.InterestRate.String())
	}
	return json.Marshal(w)
}

// UnmarshalJSON accepts money as numbers or strings
func (in *LoanInput) UnmarshalJSON(b []byte) error {
	var w struct {
		CustomerID      int64           `json:"customerId"`
		Principal       decimal.Decimal `json:"principal"`
		InterestRate    decimal.Decimal `json:"interestRate"`
		TimePeriodYears int             `json:"timePeriodYears"`
		DateIssued      string          `json:"dateIssued"`
		Status          LoanStatus      `json:"status"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*in = LoanInput{
		CustomerID:      w.CustomerID,
		Principal:       w.Principal,
		InterestRate:    w.InterestRate,
		TimePeriodYears: w.TimePeriodYears,
		DateIssued:      w.DateIssued,
		Status:          w.Status,
	}
	return nil
}

// Validate checks required fields
func (in LoanInput) Validate() error {
	if in.CustomerID == 0 ||
		!in.Principal.IsPositive() ||
		!in.InterestRate.IsPositive() ||
		in.TimePeriodYears <= 0 ||
		strings.TrimSpace(in.DateIssued) == "" {
		return NewValidationError("All fields are required.")
	}
	return nil
}

// ============================================================
// Dashboard
// ============================================================

// DashboardStats is the server-computed summary snapshot
type DashboardStats struct {
	TotalCustomers int             `json:"totalCustomers"`
	TotalLoans     int             `json:"totalLoans"`
	ActiveLoans    int             `json:"activeLoans"`
	PendingLoans   int             `json:"pendingLoans"`
	TotalDisbursed decimal.Decimal `json:"totalDisbursed"`
	RecentLoans    []Loan          `json:"recentLoans"`
	TopCustomers   []TopCustomer   `json:"topCustomers"`
	ChartData      []ChartPoint    `json:"chartData"`
}

// TopCustomer is one entry of the top-customers ranking
type TopCustomer struct {
	CustomerID    int64           `json:"customerId"`
	CustomerName  string          `json:"customerName"`
	TotalLoans    int             `json:"totalLoans"`
	TotalBorrowed decimal.Decimal `json:"totalBorrowed"`
}

// ChartPoint is one day of the trailing activity series
type ChartPoint struct {
	Day   string `json:"day"`
	Value int    `json:"value"`
}

// ChartDays is the length of the trailing activity window
const ChartDays = 7

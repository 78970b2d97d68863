// Package presenter maps API records to display rows. Rows are one-way:
// nothing computed here is ever sent back to the API.
package presenter

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"finspark-backoffice/internal/core/domain"
	"finspark-backoffice/internal/pkg/pagination"

	"github.com/shopspring/decimal"
)

// Currency is the symbol prefixed to every amount
const Currency = "₵"

var hundred = decimal.NewFromInt(100)

// Money formats an amount with two decimals and thousands separators
func Money(d decimal.Decimal) string {
	fixed := d.StringFixed(2)

	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + Currency + b.String() + "." + frac
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Date formats an API date for display; unparseable input is returned as is
func Date(raw string) string {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("Jan 2, 2006")
		}
	}
	return raw
}

// InputDate trims an API date to the yyyy-mm-dd form inputs expect
func InputDate(raw string) string {
	if len(raw) >= 10 {
		return raw[:10]
	}
	return raw
}

// ============================================================
// Loans
// ============================================================

// LoanLabel is the display id of a loan, e.g. "L42"
func LoanLabel(id int64) string {
	return "L" + strconv.FormatInt(id, 10)
}

// ParseLoanID accepts both "L42" and "42" and returns the numeric part
func ParseLoanID(raw string) string {
	return strings.TrimPrefix(raw, "L")
}

// LoanRow is one loan as the tables show it
type LoanRow struct {
	ID         int64
	Label      string
	CustomerID int64
	Customer   string
	Principal  string
	Interest   string
	Rate       string
	Years      int
	Total      string
	DateIssued string
	Status     domain.StatusBucket
	RawStatus  string
	Badge      string
}

// NewLoanRow builds the row. Interest is principal times rate for display
// only; the payable total always comes from the API.
func NewLoanRow(l domain.Loan) LoanRow {
	interest := l.Principal.Mul(l.InterestRate).Div(hundred)
	bucket := l.Status.Bucket()

	return LoanRow{
		ID:         l.ID,
		Label:      LoanLabel(l.ID),
		CustomerID: l.CustomerID,
		Customer:   l.CustomerName,
		Principal:  Money(l.Principal),
		Interest:   Money(interest),
		Rate:       l.InterestRate.String(),
		Years:      l.TimePeriodYears,
		Total:      Money(l.TotalAmountPayable),
		DateIssued: Date(l.DateIssued),
		Status:     bucket,
		RawStatus:  string(l.Status),
		Badge:      BadgeClass(bucket),
	}
}

// LoanRows maps every loan
func LoanRows(loans []domain.Loan) []LoanRow {
	rows := make([]LoanRow, 0, len(loans))
	for _, l := range loans {
		rows = append(rows, NewLoanRow(l))
	}
	return rows
}

// FilterLoans keeps rows whose label or customer contains search and
// whose bucket matches status. An empty or "All" status keeps every bucket.
func FilterLoans(rows []LoanRow, search, status string) []LoanRow {
	needle := strings.ToLower(strings.TrimSpace(search))
	out := make([]LoanRow, 0, len(rows))
	for _, r := range rows {
		if status != "" && status != "All" && string(r.Status) != status {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(r.Label), needle) &&
			!strings.Contains(strings.ToLower(r.Customer), needle) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// StatusFilters are the options of the loan status filter
var StatusFilters = []string{"All", string(domain.BucketActive), string(domain.BucketPending), string(domain.BucketCompleted), string(domain.BucketOther)}

// BadgeClass returns the css modifier of a status badge
func BadgeClass(b domain.StatusBucket) string {
	switch b {
	case domain.BucketActive:
		return "badge-active"
	case domain.BucketPending:
		return "badge-pending"
	case domain.BucketCompleted:
		return "badge-completed"
	default:
		return "badge-other"
	}
}

// ActiveLoans counts loans in the Active bucket
func ActiveLoans(loans []domain.Loan) int {
	n := 0
	for _, l := range loans {
		if l.Status.Bucket() == domain.BucketActive {
			n++
		}
	}
	return n
}

// ============================================================
// Customers
// ============================================================

// CustomerRow is one customer as the table shows it
type CustomerRow struct {
	ID            int64
	Initial       string
	Name          string
	IDCard        string
	Phone         string
	TotalLoans    int
	TotalBorrowed string
}

// NewCustomerRow builds the row
func NewCustomerRow(c domain.Customer) CustomerRow {
	initial := ""
	if r := []rune(strings.TrimSpace(c.Name)); len(r) > 0 {
		initial = strings.ToUpper(string(r[0]))
	}
	return CustomerRow{
		ID:            c.ID,
		Initial:       initial,
		Name:          c.Name,
		IDCard:        c.IDCard,
		Phone:         c.PhoneNumber,
		TotalLoans:    c.TotalLoans,
		TotalBorrowed: Money(c.TotalBorrowed),
	}
}

// CustomerRows maps every customer
func CustomerRows(customers []domain.Customer) []CustomerRow {
	rows := make([]CustomerRow, 0, len(customers))
	for _, c := range customers {
		rows = append(rows, NewCustomerRow(c))
	}
	return rows
}

// FilterCustomers keeps rows whose name or id card contains search,
// ignoring case, or whose phone contains it verbatim
func FilterCustomers(rows []CustomerRow, search string) []CustomerRow {
	raw := strings.TrimSpace(search)
	if raw == "" {
		return rows
	}
	needle := strings.ToLower(raw)

	out := make([]CustomerRow, 0, len(rows))
	for _, r := range rows {
		if strings.Contains(strings.ToLower(r.Name), needle) ||
			strings.Contains(strings.ToLower(r.IDCard), needle) ||
			(r.Phone != "" && strings.Contains(r.Phone, raw)) {
			out = append(out, r)
		}
	}
	return out
}

// ============================================================
// Dashboard
// ============================================================

// StatCard is one of the four dashboard tiles
type StatCard struct {
	Label string
	Value string
	Tone  string
}

// DashboardCards builds the tiles; missing stats show "--"
func DashboardCards(stats *domain.DashboardStats) []StatCard {
	if stats == nil {
		return []StatCard{
			{Label: "Total Customers", Value: "--", Tone: "blue"},
			{Label: "Active Loans", Value: "--", Tone: "green"},
			{Label: "Total Disbursed", Value: "--", Tone: "purple"},
			{Label: "Pending Applications", Value: "--", Tone: "orange"},
		}
	}
	return []StatCard{
		{Label: "Total Customers", Value: count(stats.TotalCustomers), Tone: "blue"},
		{Label: "Active Loans", Value: count(stats.ActiveLoans), Tone: "green"},
		{Label: "Total Disbursed", Value: Money(stats.TotalDisbursed), Tone: "purple"},
		{Label: "Pending Applications", Value: count(stats.PendingLoans), Tone: "orange"},
	}
}

func count(n int) string {
	return strings.TrimPrefix(strings.TrimSuffix(Money(decimal.NewFromInt(int64(n))), ".00"), Currency)
}

// ChartBar is one day of the activity chart
type ChartBar struct {
	Day     string
	Value   int
	Percent int
}

// ChartBars scales the series against its largest value
func ChartBars(points []domain.ChartPoint) []ChartBar {
	peak := 0
	for _, p := range points {
		if p.Value > peak {
			peak = p.Value
		}
	}

	bars := make([]ChartBar, 0, len(points))
	for _, p := range points {
		percent := 0
		if peak > 0 {
			percent = p.Value * 100 / peak
		}
		bars = append(bars, ChartBar{Day: p.Day, Value: p.Value, Percent: percent})
	}
	return bars
}

// TopCustomerRow is one entry of the ranking
type TopCustomerRow struct {
	CustomerID    int64
	Name          string
	TotalLoans    int
	TotalBorrowed string
}

// TopCustomers maps the ranking
func TopCustomers(top []domain.TopCustomer) []TopCustomerRow {
	rows := make([]TopCustomerRow, 0, len(top))
	for _, t := range top {
		rows = append(rows, TopCustomerRow{
			CustomerID:    t.CustomerID,
			Name:          t.CustomerName,
			TotalLoans:    t.TotalLoans,
			TotalBorrowed: Money(t.TotalBorrowed),
		})
	}
	return rows
}

// ============================================================
// Pagination
// ============================================================

// Pager is the pagination control plus the links it renders
type Pager struct {
	pagination.Window
	base  url.URL
	query url.Values
}

// NewPager builds the control for page, linking to path with the
// extra query parameters preserved
func NewPager[T any](path string, page *pagination.Page[T], extra url.Values) Pager {
	w := pagination.Window{}
	if page != nil {
		w = pagination.NewWindow(page.PageNumber, page.TotalPages, page.PageSize, page.TotalElements)
	}

	q := url.Values{}
	for k, v := range extra {
		if len(v) > 0 && v[0] != "" {
			q[k] = v
		}
	}
	return Pager{Window: w, base: url.URL{Path: path}, query: q}
}

// Href links to the page with the given one-based label
func (p Pager) Href(label int) string {
	q := url.Values{}
	for k, v := range p.query {
		q[k] = v
	}
	q.Set("page", strconv.Itoa(label-1))

	u := p.base
	u.RawQuery = q.Encode()
	return u.String()
}

// FirstHref links to the first page
func (p Pager) FirstHref() string { return p.Href(1) }

// PrevHref links to the previous page
func (p Pager) PrevHref() string { return p.Href(p.Current) }

// NextHref links to the next page
func (p Pager) NextHref() string { return p.Href(p.Current + 2) }

// LastHref links to the last page
func (p Pager) LastHref() string { return p.Href(p.TotalPages) }

// IsCurrent reports whether label is the current page
func (p Pager) IsCurrent(label int) bool { return label == p.Current+1 }

// Summary is the "start – end of total" line
func (p Pager) Summary() string {
	if p.StartItem == 0 {
		return fmt.Sprintf("0 of %d", p.Total)
	}
	return fmt.Sprintf("%d – %d of %d", p.StartItem, p.EndItem, p.Total)
}

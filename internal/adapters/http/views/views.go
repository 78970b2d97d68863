// Package views holds the embedded page templates and their helpers.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"finspark-backoffice/internal/adapters/http/presenter"
	"finspark-backoffice/internal/notify"
	"finspark-backoffice/internal/pkg/pagination"

	"github.com/gofiber/template/html/v2"
	"github.com/shopspring/decimal"
)

//go:embed templates
var files embed.FS

// Layouts
const (
	LayoutApp   = "layouts/app"
	LayoutAuth  = "layouts/auth"
	LayoutPlain = "layouts/plain"
)

// New creates the template engine. reload re-parses templates on every
// render, which only helps when templates are edited during development.
func New(reload bool) *html.Engine {
	sub, err := fs.Sub(files, "templates")
	if err != nil {
		panic(err)
	}

	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.Reload(reload)
	engine.AddFuncMap(Funcs())
	return engine
}

// Funcs are the helpers available to every template
func Funcs() template.FuncMap {
	return template.FuncMap{
		"money":     presenter.Money,
		"date":      presenter.Date,
		"inputDate": presenter.InputDate,
		"loanLabel": presenter.LoanLabel,
		"badge":     presenter.BadgeClass,
		"lower":     strings.ToLower,
		"decimal": func(d decimal.Decimal) string {
			return d.String()
		},
		"isGap": func(p int) bool {
			return p == pagination.Ellipsis
		},
		"toastMillis": func(n notify.Notification) int64 {
			return n.Duration.Milliseconds()
		},
		"eqs": func(a, b interface{}) bool {
			return toString(a) == toString(b)
		},
	}
}

func toString(v interface{}) string {
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(v)
}

// Package web holds the embedded HTML templates and their helper functions.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/RMBLOGG/StreamFliix/pkg/models"
	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var files embed.FS

// FuncMap returns the template helpers. Times are shown in loc and compared
// against now.
func FuncMap(loc *time.Location, now func() time.Time) template.FuncMap {
	return template.FuncMap{
		"is_future": func(t time.Time) bool {
			return models.GrantValid(t, now())
		},
		"local_time": func(t time.Time) string {
			if t.IsZero() {
				return "-"
			}
			return t.In(loc).Format("15:04")
		},
		"local_datetime": func(t time.Time) string {
			if t.IsZero() {
				return "-"
			}
			return t.In(loc).Format("02/01/2006 15:04")
		},
		"local_date": func(t time.Time) string {
			return t.In(loc).Format("2006-01-02")
		},
		"hours_remaining": func(t time.Time) float64 {
			return models.HoursRemaining(t, now())
		},
		"rupiah": func(v decimal.Decimal) string {
			return models.FormatRupiah(v)
		},
		"deref": func(p *int64) int64 {
			if p == nil {
				return 0
			}
			return *p
		},
		"same_id": func(p *int64, id int64) bool {
			return p != nil && *p == id
		},
	}
}

// Templates parses every page with the helper functions installed
func Templates(loc *time.Location, now func() time.Time) (*template.Template, error) {
	tmpl, err := template.New("").Funcs(FuncMap(loc, now)).ParseFS(files, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}

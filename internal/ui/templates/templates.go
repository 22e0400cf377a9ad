// Package templates renders the admin pages and the fragments the SSE
// endpoints patch into them. Fragments carry stable element ids so
// datastar can morph them in place.
package templates

import (
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/shopspring/decimal"

	"scr-dashboard/internal/models"
)

// Element ids targeted by SSE patches.
const (
	IDOverviewKPIs = "overview-kpis"
	IDHomeAlerts   = "home-alerts"
	IDSalesReport  = "sales-report"
	IDAlertFeed    = "alert-feed"
)

var funcs = template.FuncMap{
	"money": formatMoney,
	"stamp": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Format("02 Jan 2006, 15:04")
	},
	"hour": formatHour,
}

var set = template.Must(template.New("set").Funcs(funcs).Parse(layoutHTML + fragmentsHTML + pagesHTML))

func formatMoney(d decimal.Decimal) string {
	return "₹" + d.StringFixed(2)
}

func formatHour(h int) string {
	if h < 0 {
		return "N/A"
	}
	return fmt.Sprintf("%02d:00", h)
}

type PolicyOption struct {
	Value    string
	Title    string
	Selected bool
}

type bar struct {
	Label   string
	Value   decimal.Decimal
	Percent int
	Peak    bool
}

type salesData struct {
	Report   models.SalesReport
	Bars     []bar
	Policies []PolicyOption
}

func newSalesData(r models.SalesReport, policies []PolicyOption) salesData {
	maxValue := decimal.Zero
	for _, b := range r.Series.Buckets {
		if b.Value.GreaterThan(maxValue) {
			maxValue = b.Value
		}
	}

	bars := make([]bar, len(r.Series.Buckets))
	peakMarked := false
	for i, b := range r.Series.Buckets {
		bars[i] = bar{Label: b.Label, Value: b.Value}
		if maxValue.IsPositive() {
			bars[i].Percent = int(b.Value.Mul(decimal.NewFromInt(100)).Div(maxValue).IntPart())
		}
		if !peakMarked && b.Label == r.Series.Peak {
			bars[i].Peak = true
			peakMarked = true
		}
	}

	return salesData{Report: r, Bars: bars, Policies: policies}
}

func lookup(name string) *template.Template {
	t := set.Lookup(name)
	if t == nil {
		panic("templates: missing template " + name)
	}
	return t
}

// Fragments.

func OverviewKPIs(o models.Overview) templ.Component {
	return templ.FromGoHTML(lookup("kpis"), o)
}

func HomeAlerts(alerts []models.StockAlert) templ.Component {
	return templ.FromGoHTML(lookup("home-alerts"), alerts)
}

func SalesReport(r models.SalesReport, policies []PolicyOption) templ.Component {
	return templ.FromGoHTML(lookup("sales-report"), newSalesData(r, policies))
}

func AlertFeed(feed models.AlertFeed) templ.Component {
	return templ.FromGoHTML(lookup("alert-feed"), feed)
}

// Pages.

func Home(o models.Overview) templ.Component {
	return templ.FromGoHTML(lookup("home"), o)
}

func Analytics(r models.SalesReport, policies []PolicyOption) templ.Component {
	return templ.FromGoHTML(lookup("analytics"), newSalesData(r, policies))
}

func Alerts(feed models.AlertFeed) templ.Component {
	return templ.FromGoHTML(lookup("alerts"), feed)
}

// Loading is served while no snapshot has been loaded yet. The page polls
// the live stream, which patches the real content in once data arrives.
func Loading(title string) templ.Component {
	return templ.FromGoHTML(lookup("loading"), title)
}

// Render renders c to a string for SSE patches.
func Render(ctx context.Context, c templ.Component) (string, error) {
	var b strings.Builder
	if err := c.Render(ctx, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}

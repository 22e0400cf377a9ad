package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"scr-dashboard/internal/models"
)

// Policy selects how orders are grouped into time buckets.
type Policy string

const (
	PolicyMonthly    Policy = "monthly"
	PolicyQuarterly  Policy = "quarterly"
	PolicyHalfYearly Policy = "half-yearly"
	PolicyYearly     Policy = "yearly"
)

const (
	monthlyWindow = 4
	yearlyWindow  = 3
)

var Policies = []Policy{PolicyMonthly, PolicyQuarterly, PolicyHalfYearly, PolicyYearly}

var ErrUnknownPolicy = errors.New("unknown bucketing policy")

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicyMonthly, nil
	case PolicyMonthly, PolicyQuarterly, PolicyHalfYearly, PolicyYearly:
		return p, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownPolicy, s)
	}
}

func (p Policy) Title() string {
	switch p {
	case PolicyQuarterly:
		return "Quarterly Sales Trend"
	case PolicyHalfYearly:
		return "Half-Yearly Sales Trend"
	case PolicyYearly:
		return "Yearly Sales Trend"
	default:
		return "Monthly Sales Trend"
	}
}

// bucketWindow describes the fixed set of buckets for a policy and how an
// order timestamp maps onto one of them.
type bucketWindow struct {
	labels []string
	index  func(t time.Time) int
}

func windowFor(p Policy, now time.Time) bucketWindow {
	year := now.Year()

	switch p {
	case PolicyQuarterly:
		return bucketWindow{
			labels: []string{"Q1", "Q2", "Q3", "Q4"},
			index: func(t time.Time) int {
				if t.Year() != year {
					return -1
				}
				return (int(t.Month()) - 1) / 3
			},
		}

	case PolicyHalfYearly:
		return bucketWindow{
			labels: []string{"H1 (Jan–Jun)", "H2 (Jul–Dec)"},
			index: func(t time.Time) int {
				if t.Year() != year {
					return -1
				}
				if t.Month() <= time.June {
					return 0
				}
				return 1
			},
		}

	case PolicyYearly:
		labels := make([]string, yearlyWindow)
		for i := range labels {
			labels[i] = strconv.Itoa(year - (yearlyWindow - 1) + i)
		}
		return bucketWindow{
			labels: labels,
			index: func(t time.Time) int {
				i := t.Year() - (year - (yearlyWindow - 1))
				if i < 0 || i >= yearlyWindow {
					return -1
				}
				return i
			},
		}

	default:
		// Months are counted from year 0 so the window can cross a year
		// boundary without special cases.
		current := year*12 + int(now.Month()) - 1
		first := current - (monthlyWindow - 1)
		labels := make([]string, monthlyWindow)
		for i := range labels {
			m := time.Month((first+i)%12 + 1)
			labels[i] = m.String()[:3]
		}
		return bucketWindow{
			labels: labels,
			index: func(t time.Time) int {
				i := t.Year()*12 + int(t.Month()) - 1 - first
				if i < 0 || i >= monthlyWindow {
					return -1
				}
				return i
			},
		}
	}
}

// BucketRevenue sums order totals into the policy's fixed window anchored
// at now. Every bucket of the window is returned, zero-valued when empty.
// Orders without a timestamp are skipped. Order timestamps are read in
// now's location.
func BucketRevenue(orders []models.Order, p Policy, now time.Time) []models.TimeBucket {
	w := windowFor(p, now)

	values := make([]decimal.Decimal, len(w.labels))
	for i := range values {
		values[i] = decimal.Zero
	}

	for _, o := range orders {
		if !o.HasTimestamp() {
			continue
		}
		if i := w.index(o.CreatedAt.In(now.Location())); i >= 0 {
			values[i] = values[i].Add(o.Total)
		}
	}

	buckets := make([]models.TimeBucket, len(w.labels))
	for i, label := range w.labels {
		buckets[i] = models.TimeBucket{Label: label, Value: values[i]}
	}
	return buckets
}

// SalesSeries buckets orders under p and annotates the result with its peak.
func SalesSeries(orders []models.Order, p Policy, now time.Time) models.SalesSeries {
	buckets := BucketRevenue(orders, p, now)
	return models.SalesSeries{
		Policy:  string(p),
		Title:   p.Title(),
		Buckets: buckets,
		Peak:    PeakBucket(buckets),
	}
}

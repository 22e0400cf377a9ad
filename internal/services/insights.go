package services

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"scr-dashboard/internal/models"
)

// NoPeak is reported when there is nothing to pick a peak from.
const NoPeak = "N/A"

// PeakBucket returns the label of the first bucket holding the maximum value.
func PeakBucket(buckets []models.TimeBucket) string {
	i := PeakIndex(buckets)
	if i < 0 {
		return NoPeak
	}
	return buckets[i].Label
}

// PeakIndex is PeakBucket's position, or -1 for an empty series.
func PeakIndex(buckets []models.TimeBucket) int {
	if len(buckets) == 0 {
		return -1
	}
	peak := 0
	for i := 1; i < len(buckets); i++ {
		if buckets[i].Value.GreaterThan(buckets[peak].Value) {
			peak = i
		}
	}
	return peak
}

// PeakHour returns the hour of day (in loc) with the most orders, the
// earliest hour on ties, or -1 when no order has a timestamp.
func PeakHour(orders []models.Order, loc *time.Location) int {
	var counts [24]int
	seen := false
	for _, o := range orders {
		if !o.HasTimestamp() {
			continue
		}
		counts[o.CreatedAt.In(loc).Hour()]++
		seen = true
	}
	if !seen {
		return -1
	}

	best := 0
	for h := 1; h < len(counts); h++ {
		if counts[h] > counts[best] {
			best = h
		}
	}
	return best
}

// SalesSince sums totals of orders in the revenue status set created at or
// after since.
func SalesSince(orders []models.Order, revenueStatuses []string, since time.Time) decimal.Decimal {
	sum := decimal.Zero
	for _, o := range orders {
		if !o.HasTimestamp() || o.CreatedAt.Before(since) {
			continue
		}
		if slices.Contains(revenueStatuses, o.Status) {
			sum = sum.Add(o.Total)
		}
	}
	return sum
}

func CountByStatus(orders []models.Order, statuses []string) int {
	n := 0
	for _, o := range orders {
		if slices.Contains(statuses, o.Status) {
			n++
		}
	}
	return n
}

func CountProfilesSince(profiles []models.Profile, since time.Time) int {
	n := 0
	for _, p := range profiles {
		if !p.CreatedAt.IsZero() && !p.CreatedAt.Before(since) {
			n++
		}
	}
	return n
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

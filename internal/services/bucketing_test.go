package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scr-dashboard/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func order(total string, createdAt time.Time, status string) models.Order {
	o := models.Order{CreatedAt: createdAt, Status: status}
	if total != "" {
		o.Total = decimal.RequireFromString(total)
	}
	return o
}

func labels(buckets []models.TimeBucket) []string {
	out := make([]string, len(buckets))
	for i, b := range buckets {
		out[i] = b.Label
	}
	return out
}

func values(buckets []models.TimeBucket) []string {
	out := make([]string, len(buckets))
	for i, b := range buckets {
		out[i] = b.Value.String()
	}
	return out
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"monthly", PolicyMonthly, false},
		{"Quarterly", PolicyQuarterly, false},
		{" half-yearly ", PolicyHalfYearly, false},
		{"yearly", PolicyYearly, false},
		{"", PolicyMonthly, false},
		{"weekly", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePolicy(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownPolicy)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBucketRevenue_Monthly(t *testing.T) {
	now := day(2024, time.February, 20)
	orders := []models.Order{
		order("100", day(2024, time.January, 15), "completed"),
		order("200", day(2024, time.February, 10), "pending"),
		order("", time.Time{}, "cancelled"),
		order("50", day(2023, time.October, 31), "paid"),
	}

	buckets := BucketRevenue(orders, PolicyMonthly, now)

	assert.Equal(t, []string{"Nov", "Dec", "Jan", "Feb"}, labels(buckets))
	assert.Equal(t, []string{"0", "0", "100", "200"}, values(buckets))
}

func TestBucketRevenue_MonthlyWindowInsideYear(t *testing.T) {
	now := day(2024, time.August, 1)
	orders := []models.Order{
		order("10", day(2024, time.May, 1), "paid"),
		order("20", day(2024, time.May, 31), "paid"),
		order("5", day(2023, time.May, 15), "paid"),
		order("7.25", day(2024, time.August, 1), "paid"),
	}

	buckets := BucketRevenue(orders, PolicyMonthly, now)

	assert.Equal(t, []string{"May", "Jun", "Jul", "Aug"}, labels(buckets))
	assert.Equal(t, []string{"30", "0", "0", "7.25"}, values(buckets))
}

func TestBucketRevenue_Quarterly(t *testing.T) {
	now := day(2024, time.June, 1)
	orders := []models.Order{
		order("10", day(2024, time.January, 2), "paid"),
		order("5", day(2024, time.May, 5), "paid"),
		order("7", day(2024, time.November, 30), "paid"),
		order("100", day(2023, time.February, 1), "paid"),
	}

	buckets := BucketRevenue(orders, PolicyQuarterly, now)

	assert.Equal(t, []string{"Q1", "Q2", "Q3", "Q4"}, labels(buckets))
	assert.Equal(t, []string{"10", "5", "0", "7"}, values(buckets))
}

func TestBucketRevenue_HalfYearly(t *testing.T) {
	now := day(2024, time.March, 1)
	orders := []models.Order{
		order("1.5", time.Date(2024, time.June, 30, 23, 59, 0, 0, time.UTC), "paid"),
		order("2.5", time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC), "paid"),
		order("9", day(2025, time.January, 1), "paid"),
	}

	buckets := BucketRevenue(orders, PolicyHalfYearly, now)

	assert.Equal(t, []string{"H1 (Jan–Jun)", "H2 (Jul–Dec)"}, labels(buckets))
	assert.Equal(t, []string{"1.5", "2.5"}, values(buckets))
}

func TestBucketRevenue_Yearly(t *testing.T) {
	now := day(2024, time.March, 1)
	orders := []models.Order{
		order("1", day(2021, time.December, 31), "paid"),
		order("2", day(2022, time.January, 1), "paid"),
		order("3", day(2023, time.June, 1), "paid"),
		order("4", day(2024, time.March, 1), "paid"),
		order("5", day(2024, time.April, 1), "paid"),
	}

	buckets := BucketRevenue(orders, PolicyYearly, now)

	assert.Equal(t, []string{"2022", "2023", "2024"}, labels(buckets))
	assert.Equal(t, []string{"2", "3", "9"}, values(buckets))
}

func TestBucketRevenue_FixedBucketCounts(t *testing.T) {
	now := day(2024, time.February, 20)
	want := map[Policy]int{
		PolicyMonthly:    4,
		PolicyQuarterly:  4,
		PolicyHalfYearly: 2,
		PolicyYearly:     3,
	}

	for _, orders := range [][]models.Order{nil, {order("10", day(1999, time.January, 1), "paid")}} {
		for p, n := range want {
			buckets := BucketRevenue(orders, p, now)
			require.Len(t, buckets, n, "policy %s", p)
			for _, b := range buckets {
				assert.True(t, b.Value.IsZero(), "policy %s bucket %s", p, b.Label)
			}
		}
	}
}

func TestBucketRevenue_UsesAnchorLocation(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	now := time.Date(2024, time.February, 10, 9, 0, 0, 0, ist)
	orders := []models.Order{
		// 01:30 on Feb 1st in IST.
		order("40", time.Date(2024, time.January, 31, 20, 0, 0, 0, time.UTC), "paid"),
	}

	buckets := BucketRevenue(orders, PolicyMonthly, now)

	assert.Equal(t, []string{"0", "0", "0", "40"}, values(buckets))
}

func TestBucketRevenue_SumNeverExceedsTotal(t *testing.T) {
	now := day(2024, time.February, 20)
	orders := []models.Order{
		order("100", day(2024, time.January, 15), "completed"),
		order("0.1", day(2024, time.February, 1), "pending"),
		order("0.2", day(2024, time.February, 2), "pending"),
		order("999", day(2020, time.February, 2), "pending"),
		order("3", time.Time{}, "pending"),
	}

	total := Summarize(orders, DefaultStatusSets()).TotalRevenue
	sum := decimal.Zero
	for _, b := range BucketRevenue(orders, PolicyMonthly, now) {
		sum = sum.Add(b.Value)
	}

	assert.True(t, sum.LessThanOrEqual(total))
	assert.Equal(t, "100.3", sum.String())
}

func TestBucketRevenue_AllInWindowEqualsTotal(t *testing.T) {
	now := day(2024, time.February, 20)
	orders := []models.Order{
		order("100", day(2023, time.November, 15), "completed"),
		order("12.34", day(2023, time.December, 1), "pending"),
		order("0.01", day(2024, time.February, 20), "pending"),
	}

	total := Summarize(orders, DefaultStatusSets()).TotalRevenue
	sum := decimal.Zero
	for _, b := range BucketRevenue(orders, PolicyMonthly, now) {
		sum = sum.Add(b.Value)
	}

	assert.True(t, sum.Equal(total), "sum %s total %s", sum, total)
}

func TestSalesSeries(t *testing.T) {
	now := day(2024, time.February, 20)
	orders := []models.Order{
		order("100", day(2024, time.January, 15), "completed"),
		order("200", day(2024, time.February, 10), "pending"),
	}

	series := SalesSeries(orders, PolicyMonthly, now)

	assert.Equal(t, "monthly", series.Policy)
	assert.Equal(t, "Monthly Sales Trend", series.Title)
	assert.Equal(t, "Feb", series.Peak)
	assert.Len(t, series.Buckets, 4)
}

package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SweepState remembers the last calendar month the commitments sweep ran for.
type SweepState struct {
	LastPeriod string
}

// PeriodLayout formats a sweep period, one per calendar month.
const PeriodLayout = "2006-01"

// PeriodOf returns the sweep period containing t, evaluated in UTC.
func PeriodOf(t time.Time) string {
	return t.UTC().Format(PeriodLayout)
}

// Commitment is a recurring scheduled payment out of the monitored account.
type Commitment struct {
	Amount    int64
	Active    bool
	Frequency string
}

// monthlyFactors converts a schedule frequency to payments per month.
var monthlyFactors = map[string]decimal.Decimal{
	"daily":       decimal.NewFromInt(365).Div(decimal.NewFromInt(12)),
	"weekly":      decimal.NewFromInt(52).Div(decimal.NewFromInt(12)),
	"fortnightly": decimal.NewFromInt(26).Div(decimal.NewFromInt(12)),
	"four_weekly": decimal.NewFromInt(13).Div(decimal.NewFromInt(12)),
	"monthly":     decimal.NewFromInt(1),
	"quarterly":   decimal.NewFromInt(1).Div(decimal.NewFromInt(3)),
	"yearly":      decimal.NewFromInt(1).Div(decimal.NewFromInt(12)),
	"annually":    decimal.NewFromInt(1).Div(decimal.NewFromInt(12)),
}

// MonthlyEquivalent returns the commitment's cost per month in minor units,
// rounded half away from zero. ok is false for an unknown frequency.
func (c Commitment) MonthlyEquivalent() (amount int64, ok bool) {
	factor, ok := monthlyFactors[strings.ToLower(strings.TrimSpace(c.Frequency))]
	if !ok {
		return 0, false
	}
	abs := decimal.NewFromInt(c.Amount).Abs()
	return abs.Mul(factor).Round(0).IntPart(), true
}

// MonthlyTotal sums the monthly equivalents of the active commitments.
// Frequencies it cannot convert are returned so callers can report them.
func MonthlyTotal(commitments []Commitment) (total int64, unknown []string) {
	for _, c := range commitments {
		if !c.Active {
			continue
		}
		amount, ok := c.MonthlyEquivalent()
		if !ok {
			unknown = append(unknown, c.Frequency)
			continue
		}
		total += amount
	}
	return total, unknown
}

var sweepNamespace = uuid.MustParse("6f1c2b7e-3d5a-4c8e-9b1f-2a7d4e6c8b90")

// SweepDedupeID derives the provider-side idempotency key for a sweep. The
// same account and period always produce the same key.
func SweepDedupeID(accountID, period string) string {
	return uuid.NewSHA1(sweepNamespace, []byte(accountID+":"+period)).String()
}

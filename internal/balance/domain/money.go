package domain

import "github.com/shopspring/decimal"

// CurrencySymbol prefixes formatted amounts. The monitored account is GBP.
const CurrencySymbol = "£"

// FormatMinor renders an amount in minor units, e.g. 12345 -> "£123.45".
func FormatMinor(amount int64) string {
	return CurrencySymbol + decimal.New(amount, -2).StringFixed(2)
}

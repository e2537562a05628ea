package utils

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CurrencySymbol is appended to formatted amounts
const CurrencySymbol = "₸"

// FormatShortNotation formats a number using short notation (e.g., 50k instead of 50000)
func FormatShortNotation(value int64) string {
	absValue := value
	sign := ""
	if value < 0 {
		absValue = -value
		sign = "-"
	}

	switch {
	case absValue >= 1_000_000_000:
		return fmt.Sprintf("%s%.2fB", sign, float64(absValue)/1_000_000_000)
	case absValue >= 1_000_000:
		return fmt.Sprintf("%s%.2fM", sign, float64(absValue)/1_000_000)
	case absValue >= 10_000:
		return fmt.Sprintf("%s%dk", sign, absValue/1_000)
	case absValue >= 1_000:
		return fmt.Sprintf("%s%.1fk", sign, float64(absValue)/1_000)
	default:
		return fmt.Sprintf("%s%d", sign, absValue)
	}
}

// FormatMoney renders an amount with the currency symbol
func FormatMoney(amount int64) string {
	return decimal.NewFromInt(amount).StringFixedBank(0) + " " + CurrencySymbol
}

// FormatSignedMoney renders a ledger change with an explicit sign
func FormatSignedMoney(amount int64) string {
	if amount > 0 {
		return "+" + FormatMoney(amount)
	}
	return FormatMoney(amount)
}

// FormatPercent renders a ratio in [0,1] as a whole percentage
func FormatPercent(ratio float64) string {
	return decimal.NewFromFloat(ratio).Mul(decimal.NewFromInt(100)).Round(0).String() + "%"
}

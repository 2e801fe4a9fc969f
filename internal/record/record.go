// Package record defines the stock record produced by extraction and the
// normalization rules applied to its fields.
package record

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MaxCompanyLen is the display-name truncation limit.
const MaxCompanyLen = 50

// SmallCapCeiling is the acceptance threshold in billions of dollars.
var SmallCapCeiling = decimal.NewFromInt(2)

// StockRecord is one extracted ticker/company/market-cap triple.
type StockRecord struct {
	Ticker      string    `json:"ticker"`
	Company     string    `json:"company"`
	MarketCap   string    `json:"market_cap"` // "$<value>B", value <= 2.0
	ExtractedAt time.Time `json:"extracted_at"`
}

var (
	nonAlpha   = regexp.MustCompile(`[^A-Za-z]`)
	enumPrefix = regexp.MustCompile(`^\d+\.\s*`)
	parens     = regexp.MustCompile(`\s*\([^)]*\)`)
	tickerForm = regexp.MustCompile(`^[A-Z]{1,5}$`)
)

// NormalizeTicker strips non-alphabetic characters. The result is only a
// valid ticker if ValidTicker also holds; normalization never uppercases.
func NormalizeTicker(raw string) string {
	return nonAlpha.ReplaceAllString(raw, "")
}

// ValidTicker reports whether t is 1-5 uppercase letters.
func ValidTicker(t string) bool {
	return tickerForm.MatchString(t)
}

// NormalizeCompany strips a leading "<digits>. " enumeration marker, removes
// parenthetical fragments, and truncates to MaxCompanyLen.
func NormalizeCompany(raw string) string {
	name := enumPrefix.ReplaceAllString(strings.TrimSpace(raw), "")
	name = parens.ReplaceAllString(name, "")
	name = strings.TrimSpace(name)
	if runes := []rune(name); len(runes) > MaxCompanyLen {
		name = string(runes[:MaxCompanyLen])
	}
	return strings.TrimSpace(name)
}

// ParseCap parses a market-cap value expressed in billions. The second
// return is false when the value does not parse or exceeds SmallCapCeiling.
func ParseCap(raw string) (decimal.Decimal, bool) {
	v, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, false
	}
	if v.GreaterThan(SmallCapCeiling) {
		return decimal.Decimal{}, false
	}
	return v, true
}

// FormatCap renders a billions value as "$<value>B", keeping the scale the
// value was parsed with ("2.0" stays "$2.0B", not "$2B").
func FormatCap(v decimal.Decimal) string {
	if exp := v.Exponent(); exp < 0 {
		return "$" + v.StringFixed(-exp) + "B"
	}
	return "$" + v.String() + "B"
}

package market

import (
	"regexp"
	"strings"
)

// IDXSuffix is the Yahoo Finance suffix for Jakarta-exchange listings.
const IDXSuffix = ".JK"

// DefaultIDXTickers are the IDX symbols harvested when none are given.
var DefaultIDXTickers = []string{
	"BBCA", // Bank Central Asia
	"BBRI", // Bank Rakyat Indonesia
	"TLKM", // Telkom Indonesia
	"GOTO", // GoTo Gojek Tokopedia
	"ANTM", // Aneka Tambang
	"ASII", // Astra International
}

var (
	tickerPattern   = regexp.MustCompile(`^[A-Z]+$`)
	intervalPattern = regexp.MustCompile(`^\d+[mh]$`)
)

// ValidTicker reports whether s is an uppercase alphabetic exchange code.
func ValidTicker(s string) bool {
	return tickerPattern.MatchString(s)
}

// ValidInterval reports whether s is an interval token such as "1m" or "1h".
func ValidInterval(s string) bool {
	return intervalPattern.MatchString(s)
}

// YahooSymbol maps a bare IDX ticker to its Yahoo Finance symbol. Symbols
// that already carry an exchange suffix pass through unchanged.
func YahooSymbol(ticker string) string {
	if strings.Contains(ticker, ".") {
		return ticker
	}
	return ticker + IDXSuffix
}

// CleanTicker strips the exchange suffix from a Yahoo symbol so it can be
// used in fragment filenames.
func CleanTicker(symbol string) string {
	symbol = strings.TrimSuffix(symbol, IDXSuffix)
	return strings.ReplaceAll(symbol, ".", "_")
}

// Package common provides shared utilities across the application.
package common

import (
	"strings"
)

// Ticker represents a parsed exchange-qualified ticker.
// Format: EXCHANGE:CODE (e.g., "NASDAQ:AAPL", "NYSE:KO")
type Ticker struct {
	// Exchange is the exchange code (e.g., "NASDAQ", "NYSE", "ASX")
	Exchange string
	// Code is the stock/security code (e.g., "AAPL", "KO")
	Code string
	// Raw is the original ticker string
	Raw string
}

// KnownExchanges lists exchange codes recognized when parsing the
// EXCHANGE.CODE dot form. Codes themselves may contain dots (e.g. BRK.B),
// so only these prefixes are treated as exchanges.
var KnownExchanges = map[string]bool{
	"NASDAQ": true,
	"NYSE":   true,
	"AMEX":   true,
	"ASX":    true,
	"LSE":    true,
	"TSX":    true,
	"XETRA":  true,
}

// DefaultExchange is the exchange assumed when parsing tickers without an
// exchange prefix. Overridden via [markets] default_exchange in TOML.
var DefaultExchange = "NASDAQ"

// SetDefaultExchange sets the default exchange for parsing tickers.
// Called during app initialization from config.
func SetDefaultExchange(exchange string) {
	if exchange != "" {
		DefaultExchange = strings.ToUpper(exchange)
	}
}

// ParseTicker parses an exchange-qualified ticker string.
// Supports formats:
//   - "NASDAQ:AAPL" -> Exchange="NASDAQ", Code="AAPL" (colon separator)
//   - "NASDAQ.AAPL" -> Exchange="NASDAQ", Code="AAPL" (dot separator)
//   - "AAPL"        -> Exchange=DefaultExchange, Code="AAPL"
//   - "aapl"        -> Exchange=DefaultExchange, Code="AAPL" (normalized to uppercase)
func ParseTicker(ticker string) Ticker {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return Ticker{}
	}

	// Check for exchange prefix with colon separator (EXCHANGE:CODE)
	if idx := strings.Index(ticker, ":"); idx > 0 {
		exchange := strings.ToUpper(ticker[:idx])
		code := strings.ToUpper(ticker[idx+1:])
		return Ticker{
			Exchange: exchange,
			Code:     code,
			Raw:      ticker,
		}
	}

	// Check for exchange prefix with dot separator (EXCHANGE.CODE)
	// Only match if the prefix is a known exchange to avoid conflicts with codes containing dots
	if idx := strings.Index(ticker, "."); idx > 0 {
		possibleExchange := strings.ToUpper(ticker[:idx])
		if KnownExchanges[possibleExchange] {
			code := strings.ToUpper(ticker[idx+1:])
			return Ticker{
				Exchange: possibleExchange,
				Code:     code,
				Raw:      ticker,
			}
		}
	}

	// No exchange prefix - use default exchange
	return Ticker{
		Exchange: DefaultExchange,
		Code:     strings.ToUpper(ticker),
		Raw:      ticker,
	}
}

// String returns the full exchange-qualified ticker string.
func (t Ticker) String() string {
	if t.Exchange == "" || t.Code == "" {
		return t.Code
	}
	return t.Exchange + ":" + t.Code
}

// SessionKey returns a standardized identifier for session storage.
// Example: "NASDAQ:AAPL" -> "nasdaq:AAPL"
func (t Ticker) SessionKey() string {
	if t.Code == "" {
		return ""
	}
	exchange := strings.ToLower(t.Exchange)
	if exchange == "" {
		exchange = strings.ToLower(DefaultExchange)
	}
	return exchange + ":" + t.Code
}

// ParseTickers parses a list of ticker strings, dropping empty results.
func ParseTickers(tickers []string) []Ticker {
	result := make([]Ticker, 0, len(tickers))
	for _, t := range tickers {
		if parsed := ParseTicker(t); parsed.Code != "" {
			result = append(result, parsed)
		}
	}
	return result
}

package exchange

import "github.com/shopspring/decimal"

// ErrorKind tags an ExchangeError so callers can branch with errors.As
// without string-matching messages.
type ErrorKind string

const (
	ErrConnection          ErrorKind = "connection"
	ErrAuthentication      ErrorKind = "authentication"
	ErrAPI                 ErrorKind = "api"
	ErrRateLimit           ErrorKind = "rate_limit"
	ErrInvalidPair         ErrorKind = "invalid_pair"
	ErrInsufficientBalance ErrorKind = "insufficient_balance"
	ErrOrderFailed         ErrorKind = "order_failed"
	ErrParse               ErrorKind = "parse"
	ErrWebSocket           ErrorKind = "websocket"
)

// ExchangeError is the single tagged error type propagated out of a
// Connector's REST-facing methods. The reconnect loop also builds one for a
// failed dial or subscribe, but only logs it and retries; streaming failures
// never reach a Connector's caller.
type ExchangeError struct {
	Venue   string
	Kind    ErrorKind
	Message string
	Needed  decimal.Decimal // only meaningful for ErrInsufficientBalance
	Have    decimal.Decimal // only meaningful for ErrInsufficientBalance
	Cause   error
}

func (e *ExchangeError) Error() string {
	if e.Venue != "" {
		return e.Venue + ": " + string(e.Kind) + ": " + e.Message
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *ExchangeError) Unwrap() error {
	return e.Cause
}

func newErr(venue string, kind ErrorKind, msg string, cause error) *ExchangeError {
	return &ExchangeError{Venue: venue, Kind: kind, Message: msg, Cause: cause}
}

func newInsufficientBalance(venue string, needed, have decimal.Decimal) *ExchangeError {
	return &ExchangeError{
		Venue:   venue,
		Kind:    ErrInsufficientBalance,
		Message: "insufficient balance",
		Needed:  needed,
		Have:    have,
	}
}

// Package reason defines the codes returned for recoverable command failures.
// A Code is an error, so callers may compare with errors.Is.
package reason

import (
	"errors"
	"strings"
)

type Code string

const (
	UnknownInstrument  Code = "unknown_instrument"
	InvalidQuantity    Code = "invalid_quantity"
	InsufficientFunds  Code = "insufficient_funds"
	InsufficientShares Code = "insufficient_shares"
	MarketClosed       Code = "market_closed"
	DayNotSettled      Code = "day_not_settled"
	UnknownBoost       Code = "unknown_boost"
	BoostCooldown      Code = "boost_cooldown"
	NothingToCollect   Code = "nothing_to_collect"
	ClientAlreadyUsed  Code = "client_already_used"
	RateLimited        Code = "rate_limited"
)

func (c Code) Error() string {
	return strings.ReplaceAll(string(c), "_", " ")
}

// Of extracts the code carried by err, or "" when err has none.
func Of(err error) Code {
	var c Code
	if errors.As(err, &c) {
		return c
	}
	return ""
}

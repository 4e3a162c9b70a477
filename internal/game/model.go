package game

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"

	"tradingdesk/internal/reason"
)

const (
	StartingDay    = 1
	FeedLimit      = 50
	TutorialSymbol = "NLSY"
	DefaultSlot    = "default"
)

const (
	welcomeMessage  = "Welcome to your trading desk. Good luck!"
	resetMessage    = "Game reset. Welcome back to your trading desk!"
	tutorialMessage = "Welcome to the tutorial! Let's learn how to trade."
	newDayMessage   = "--- New Trading Day ---"
	quietDayMessage = "Quiet day. No major headlines."
)

var (
	ErrNoSave      = errors.New("no saved game")
	ErrCorruptSave = errors.New("corrupt save")
)

var symbolRE = regexp.MustCompile(`^[A-Z]{1,6}$`)

// NormalizeSymbol upper-cases symbol and checks its shape.
func NormalizeSymbol(symbol string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if !symbolRE.MatchString(s) {
		return "", reason.UnknownInstrument
	}
	return s, nil
}

type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

func ParseSide(s string) (Side, error) {
	switch Side(strings.ToLower(strings.TrimSpace(s))) {
	case Buy:
		return Buy, nil
	case Sell:
		return Sell, nil
	default:
		return "", fmt.Errorf("side must be buy or sell, got %q", s)
	}
}

func dollars(v float64) string {
	return "$" + humanize.CommafWithDigits(v, 2)
}

func signedDollars(v float64) string {
	if v < 0 {
		return "-" + dollars(math.Abs(v))
	}
	return "+" + dollars(v)
}

func errUnknownInstrument(symbol string) error {
	return fmt.Errorf("%s: %w", symbol, reason.UnknownInstrument)
}

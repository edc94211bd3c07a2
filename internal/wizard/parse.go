package wizard

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/finance-bot/internal/command"
)

// DateLayout is the user-facing date format.
const DateLayout = "02.01.2006"

var (
	// ErrInvalidAmount is returned for input that is not a decimal number.
	ErrInvalidAmount = errors.New("invalid amount format")
	// ErrNonPositiveAmount is returned for zero or negative amounts.
	ErrNonPositiveAmount = errors.New("amount must be greater than zero")
	// ErrInvalidDate is returned for input that is neither "today" nor DD.MM.YYYY.
	ErrInvalidDate = errors.New("invalid date format")
)

var (
	amountRegex = regexp.MustCompile(`^-?\d+(?:\.\d+)?$`)
	dateRegex   = regexp.MustCompile(`^\d{2}\.\d{2}\.\d{4}$`)
)

// ParseAmount parses a positive decimal amount. Both "." and "," are accepted
// as decimal separator and whitespace is treated as a thousands separator, so
// "1 500,50" and "1500.50" are the same amount.
func ParseAmount(input string) (decimal.Decimal, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, input)
	cleaned = strings.ReplaceAll(cleaned, ",", ".")

	if !amountRegex.MatchString(cleaned) {
		return decimal.Zero, ErrInvalidAmount
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !amount.IsPositive() {
		return decimal.Zero, ErrNonPositiveAmount
	}
	return amount, nil
}

// ParseDate parses the "today" token or a DD.MM.YYYY date. Dates are returned
// at midnight in now's location.
func ParseDate(input string, now time.Time) (time.Time, error) {
	if command.IsToday(input) {
		return truncateDay(now), nil
	}

	text := strings.TrimSpace(input)
	if !dateRegex.MatchString(text) {
		return time.Time{}, ErrInvalidDate
	}

	date, err := time.ParseInLocation(DateLayout, text, now.Location())
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return date, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// parseText accepts any non-blank text verbatim.
func parseText(input string) (string, bool) {
	text := strings.TrimSpace(input)
	return text, text != ""
}

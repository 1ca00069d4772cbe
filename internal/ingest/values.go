package ingest

import (
	"errors"
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var (
	errInvalidEmail    = errors.New("invalid email format")
	errInvalidNumber   = errors.New("not a number")
	errNegative        = errors.New("must not be negative")
	errInvalidQuantity = errors.New("quantity must be a positive integer")
)

var maxQuantity = decimal.NewFromInt(math.MaxInt32)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// currency marks tolerated around amounts, e.g. "₩15,000" or "15,000원".
var currencyReplacer = strings.NewReplacer(
	",", "", " ", "", " ", "",
	"₩", "", "￦", "", "$", "", "€", "", "¥", "", "£", "",
)

func validEmail(s string) error {
	if !emailPattern.MatchString(s) {
		return errInvalidEmail
	}
	return nil
}

// trimUnit drops a trailing run of letters such as "원", "KRW" or "개".
func trimUnit(s string) string {
	return strings.TrimRightFunc(s, unicode.IsLetter)
}

// ParseMoney parses a non-negative amount written with thousands
// separators, currency symbols or a trailing unit word.
func ParseMoney(s string) (decimal.Decimal, error) {
	clean := trimUnit(currencyReplacer.Replace(strings.TrimSpace(s)))
	if clean == "" {
		return decimal.Zero, errInvalidNumber
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, errInvalidNumber
	}
	if d.IsNegative() {
		return decimal.Zero, errNegative
	}
	return d, nil
}

// ParseQuantity parses an order quantity. An empty cell means one unit.
func ParseQuantity(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 1, nil
	}
	clean := strings.TrimSpace(trimUnit(strings.ReplaceAll(s, ",", "")))
	// decimal also accepts "2.0" as exported by spreadsheets
	d, err := decimal.NewFromString(clean)
	if err != nil || !d.IsInteger() || !d.IsPositive() || d.GreaterThan(maxQuantity) {
		return 0, errInvalidQuantity
	}
	return int(d.IntPart()), nil
}

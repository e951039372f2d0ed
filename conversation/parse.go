package conversation

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

var (
	yesWords = []string{"yes", "y", "more", "add", "yeah", "yep", "sure", "ok"}
	noWords  = []string{"no", "n", "done", "finish", "nope", "review"}
)

// fold normalizes user text for case-insensitive matching.
func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

const (
	maxIntegerDigits  = 12
	maxFractionDigits = 6
)

// parseDecimal accepts plain decimal notation: an optional sign, digits, and
// at most one period. Exponents are rejected and digit counts are bounded so
// every accepted value converts to a finite float64 on the wire.
func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrNotANumber
	}

	digits := strings.TrimLeft(s, "+-")
	if len(s)-len(digits) > 1 {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrNotANumber, s)
	}
	whole, frac, _ := strings.Cut(digits, ".")
	if whole == "" && frac == "" || !isDigits(whole) || !isDigits(frac) {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrNotANumber, s)
	}
	if len(strings.TrimLeft(whole, "0")) > maxIntegerDigits || len(frac) > maxFractionDigits {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrOutOfRange, s)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrNotANumber, s)
	}
	if f := d.InexactFloat64(); math.IsInf(f, 0) || math.IsNaN(f) || (f == 0) != d.IsZero() {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrOutOfRange, s)
	}
	return d, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ParseQuantity parses a decimal quantity. Only a period is accepted as the
// decimal separator. The value must be greater than zero, with at most 12
// integer and 6 fractional digits.
func ParseQuantity(s string) (decimal.Decimal, error) {
	d, err := parseDecimal(s)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrNotPositive, d)
	}
	return d, nil
}

// ParsePrice parses a decimal unit price. Zero is allowed.
func ParsePrice(s string) (decimal.Decimal, error) {
	d, err := parseDecimal(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrNegative, d)
	}
	return d, nil
}

// ParseYesNo interprets an answer to the add-more question. ok is false when
// the text is neither a yes nor a no variant.
func ParseYesNo(s string) (yes bool, ok bool) {
	word := fold(s)
	for _, w := range yesWords {
		if word == w {
			return true, true
		}
	}
	for _, w := range noWords {
		if word == w {
			return false, true
		}
	}
	return false, false
}

// parseIndex parses a 1-based selection index bounded by n.
func parseIndex(s string, n int) (int, bool) {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || i < 1 || i > n {
		return 0, false
	}
	return i, true
}

// reviewAction maps typed review words to their button events.
func reviewAction(s string) (EventKind, bool) {
	switch fold(s) {
	case "confirm", "submit":
		return EventConfirm, true
	case "add_more", "add more":
		return EventAddMore, true
	case "cancel":
		return EventCancel, true
	}
	return EventInput, false
}

package conversation

import "errors"

var (
	// ErrUnknownState is returned by Step when a session holds a code with no
	// handler.
	ErrUnknownState = errors.New("unknown conversation state")

	// ErrIllegalTransition is returned by Step when a handler produces a
	// state change absent from the transition table.
	ErrIllegalTransition = errors.New("illegal state transition")

	// ErrEmptyDraft is returned when a draft with no lines reaches submission.
	ErrEmptyDraft = errors.New("draft order has no lines")

	// ErrNotANumber reports input that does not parse as a decimal.
	ErrNotANumber = errors.New("not a number")

	// ErrOutOfRange reports a number with too many digits or an exponent
	// beyond what an order line can carry.
	ErrOutOfRange = errors.New("number out of range")

	// ErrNotPositive reports a quantity of zero or less.
	ErrNotPositive = errors.New("must be greater than zero")

	// ErrNegative reports a price below zero.
	ErrNegative = errors.New("must not be negative")
)

// ErrNoPendingLine is returned when quantity or price input arrives with no
// product selected.
var ErrNoPendingLine = errors.New("no product selected for the current line")

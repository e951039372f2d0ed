package conversation

import "fmt"

// State is a step of the purchase-order flow. The integer values are the
// codes persisted with a session.
type State int

const (
	StateIdle          State = 0
	StateAwaitSupplier State = 200
	StateAwaitProduct  State = 201
	StateAwaitQuantity State = 202
	StateAwaitPrice    State = 203
	StateAwaitMore     State = 204
	StateReview        State = 205
)

var stateNames = map[State]string{
	StateIdle:          "IDLE",
	StateAwaitSupplier: "AWAIT_SUPPLIER",
	StateAwaitProduct:  "AWAIT_PRODUCT",
	StateAwaitQuantity: "AWAIT_QTY",
	StateAwaitPrice:    "AWAIT_PRICE",
	StateAwaitMore:     "AWAIT_MORE",
	StateReview:        "REVIEW",
}

// String returns the state name, or the raw code for unknown states.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Code returns the protocol code of the state.
func (s State) Code() int { return int(s) }

// Valid reports whether s is one of the declared states.
func (s State) Valid() bool {
	_, ok := stateNames[s]
	return ok
}

// Active reports whether s is a step of an in-progress flow.
func (s State) Active() bool {
	return s >= StateAwaitSupplier && s <= StateReview
}

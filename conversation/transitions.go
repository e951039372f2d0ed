package conversation

// edges lists the state changes each handler may produce. Start (any state to
// AWAIT_SUPPLIER) and cancel (any active state to IDLE) are accepted
// everywhere and are checked separately.
var edges = map[State][]State{
	StateIdle:          {StateAwaitSupplier},
	StateAwaitSupplier: {StateAwaitSupplier, StateAwaitProduct},
	StateAwaitProduct:  {StateAwaitProduct, StateAwaitQuantity},
	StateAwaitQuantity: {StateAwaitQuantity, StateAwaitPrice},
	StateAwaitPrice:    {StateAwaitPrice, StateAwaitMore},
	StateAwaitMore:     {StateAwaitMore, StateAwaitProduct, StateReview},
	StateReview:        {StateReview, StateAwaitProduct, StateIdle},
}

// CanTransition reports whether the flow may move from one state to another.
func CanTransition(from, to State) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if to == StateAwaitSupplier {
		return true
	}
	if to == StateIdle && from.Active() {
		return true
	}
	for _, next := range edges[from] {
		if next == to {
			return true
		}
	}
	return false
}

package purchase

// ERP purchase order states.
const (
	StateDraft     = "draft"
	StateSent      = "sent"
	StateToApprove = "to approve"
	StatePurchase  = "purchase"
	StateDone      = "done"
	StateCancel    = "cancel"
)

var stateLabels = map[string]string{
	StateDraft:     "RFQ",
	StateSent:      "RFQ Sent",
	StateToApprove: "To Approve",
	StatePurchase:  "Purchase Order",
	StateDone:      "Locked",
	StateCancel:    "Cancelled",
}

// StateLabel returns the display label for an ERP order state, or the raw
// state when it is not a known one.
func StateLabel(state string) string {
	if label, ok := stateLabels[state]; ok {
		return label
	}
	return state
}

// AwaitingDecision reports whether an order in the given state can still be
// approved or rejected.
func AwaitingDecision(state string) bool {
	switch state {
	case StateDraft, StateSent, StateToApprove:
		return true
	default:
		return false
	}
}

package conversation

import "strings"

// EventKind classifies an inbound user action.
type EventKind int

const (
	EventInput EventKind = iota
	EventStart
	EventCancel
	EventConfirm
	EventAddMore
	EventSearchAgain
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventCancel:
		return "cancel"
	case EventConfirm:
		return "confirm"
	case EventAddMore:
		return "add_more"
	case EventSearchAgain:
		return "search_again"
	default:
		return "input"
	}
}

// Event is one user action applied to the machine.
type Event struct {
	Kind EventKind
	Text string
}

// Input wraps free text typed by the user.
func Input(text string) Event {
	return Event{Kind: EventInput, Text: text}
}

// Callback data carried by buttons rendered by the machine.
const (
	CallbackConfirm = "confirm"
	CallbackAddMore = "add_more"
	CallbackCancel  = "cancel"
	CallbackYes     = "yes"
	CallbackNo      = "no"
	// CallbackSearchAgain discards the listed candidates so a new product
	// query can be typed.
	CallbackSearchAgain = "search_again"
	callbackPick        = "pick:"
)

// ParseCallback maps button data to an event. Candidate buttons ("pick:<n>")
// become the typed index n; unknown data is treated as typed text.
func ParseCallback(data string) Event {
	switch data {
	case CallbackConfirm:
		return Event{Kind: EventConfirm}
	case CallbackAddMore:
		return Event{Kind: EventAddMore}
	case CallbackCancel:
		return Event{Kind: EventCancel}
	case CallbackSearchAgain:
		return Event{Kind: EventSearchAgain}
	}
	if n, ok := strings.CutPrefix(data, callbackPick); ok {
		return Input(n)
	}
	return Input(data)
}

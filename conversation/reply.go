package conversation

// Button is an inline action attached to a reply. Data is delivered back as
// a callback when pressed.
type Button struct {
	Label string `json:"label"`
	Data  string `json:"data"`
}

// Reply is one outbound message. Buttons are laid out as rows. Menu asks the
// transport to show the top-level service menu after the text.
type Reply struct {
	Text    string     `json:"text"`
	Buttons [][]Button `json:"buttons,omitempty"`
	Menu    bool       `json:"menu,omitempty"`
}

// Text builds a plain reply.
func Text(text string) Reply {
	return Reply{Text: text}
}

package chat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/tailored-agentic-units/procure/bot"
	"github.com/tailored-agentic-units/procure/conversation"
)

// Console drives one user's conversation from line-oriented input. A line
// starting with "!" presses the button whose data follows it.
type Console struct {
	handler Handler
	userID  string
	in      io.Reader
	out     io.Writer
}

// NewConsole creates a Console for userID.
func NewConsole(h Handler, userID string, in io.Reader, out io.Writer) *Console {
	return &Console{handler: h, userID: userID, in: in, out: out}
}

// Run reads until input ends or ctx is cancelled. Cancellation returns
// without waiting for the next line.
func (c *Console) Run(ctx context.Context) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	fmt.Fprint(c.out, "> ")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			return err
		case line := <-lines:
			c.handle(ctx, strings.TrimSpace(line))
			fmt.Fprint(c.out, "> ")
		}
	}
}

func (c *Console) handle(ctx context.Context, line string) {
	if line == "" {
		return
	}

	msg := bot.Message{UserID: c.userID}
	if data, ok := strings.CutPrefix(line, "!"); ok {
		msg.Callback = data
	} else {
		msg.Text = line
	}

	replies, err := c.handler.Handle(ctx, msg)
	if err != nil {
		fmt.Fprintf(c.out, "error: %v\n", err)
	}
	for _, r := range replies {
		c.render(r)
	}
}

func (c *Console) render(r conversation.Reply) {
	fmt.Fprintln(c.out, r.Text)
	for _, row := range r.Buttons {
		labels := make([]string, 0, len(row))
		for _, b := range row {
			labels = append(labels, fmt.Sprintf("[%s] !%s", b.Label, b.Data))
		}
		fmt.Fprintln(c.out, "  "+strings.Join(labels, "   "))
	}
	if r.Menu {
		items := make([]string, 0, 3)
		for _, row := range bot.MenuLabels() {
			items = append(items, row...)
		}
		fmt.Fprintln(c.out, "  Menu: "+strings.Join(items, " | "))
	}
	fmt.Fprintln(c.out)
}

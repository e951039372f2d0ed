package bot_test

import (
	"context"
	"errors"
	"testing"

	"github.com/tailored-agentic-units/procure/bot"
	"github.com/tailored-agentic-units/procure/conversation"
)

func echo(text string) bot.CommandHandler {
	return func(ctx context.Context, msg bot.Message, args []string) ([]conversation.Reply, error) {
		return []conversation.Reply{conversation.Text(text)}, nil
	}
}

func TestCommands_Register(t *testing.T) {
	c := bot.NewCommands()

	if err := c.Register(bot.Command{Name: "ping"}, echo("pong")); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := c.Register(bot.Command{Name: "ping"}, echo("again")); !errors.Is(err, bot.ErrCommandExists) {
		t.Errorf("duplicate Register: got %v, want ErrCommandExists", err)
	}
	if err := c.Register(bot.Command{}, echo("x")); !errors.Is(err, bot.ErrEmptyCommand) {
		t.Errorf("empty Register: got %v, want ErrEmptyCommand", err)
	}
}

func TestCommands_Replace(t *testing.T) {
	c := bot.NewCommands()

	if err := c.Replace(bot.Command{Name: "ping"}, echo("pong")); !errors.Is(err, bot.ErrUnknownCommand) {
		t.Errorf("Replace missing: got %v, want ErrUnknownCommand", err)
	}

	c.Register(bot.Command{Name: "ping"}, echo("pong"))
	if err := c.Replace(bot.Command{Name: "ping"}, echo("PONG")); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	replies, err := c.Execute(context.Background(), "ping", bot.Message{UserID: "u1"}, nil)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if replies[0].Text != "PONG" {
		t.Errorf("got %q, want PONG", replies[0].Text)
	}
}

func TestCommands_Execute(t *testing.T) {
	c := bot.NewCommands()
	boom := errors.New("boom")
	c.Register(bot.Command{Name: "fail"}, func(ctx context.Context, msg bot.Message, args []string) ([]conversation.Reply, error) {
		return nil, boom
	})

	if _, err := c.Execute(context.Background(), "missing", bot.Message{}, nil); !errors.Is(err, bot.ErrUnknownCommand) {
		t.Errorf("got %v, want ErrUnknownCommand", err)
	}
	if _, err := c.Execute(context.Background(), "fail", bot.Message{}, nil); !errors.Is(err, boom) {
		t.Errorf("got %v, want wrapped handler error", err)
	}
}

func TestCommands_ListSorted(t *testing.T) {
	c := bot.NewCommands()
	for _, name := range []string{"status", "approve", "orders"} {
		c.Register(bot.Command{Name: name}, echo(name))
	}

	list := c.List()
	want := []string{"approve", "orders", "status"}
	if len(list) != len(want) {
		t.Fatalf("got %d commands, want %d", len(list), len(want))
	}
	for i, name := range want {
		if list[i].Name != name {
			t.Errorf("List()[%d] = %q, want %q", i, list[i].Name, name)
		}
	}
}

func TestBot_CustomCommand(t *testing.T) {
	b, _ := newBot(t, &fakeGateway{})

	if err := b.Commands().Register(bot.Command{Name: "ping", Description: "Check the bot"}, echo("pong")); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if reply := text(t, b, "/ping"); reply.Text != "pong" {
		t.Errorf("got %q, want pong", reply.Text)
	}
}

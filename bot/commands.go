package bot

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/tailored-agentic-units/procure/conversation"
)

// CommandHandler runs a slash command. args are the whitespace-separated
// words after the command name.
type CommandHandler func(ctx context.Context, msg Message, args []string) ([]conversation.Reply, error)

// Command describes a slash command for /help.
type Command struct {
	Name        string
	Usage       string
	Description string
}

type entry struct {
	command Command
	handler CommandHandler
}

// Commands is a registry of slash commands. It is safe for concurrent use.
type Commands struct {
	entries map[string]entry
	mu      sync.RWMutex
}

// NewCommands returns an empty registry.
func NewCommands() *Commands {
	return &Commands{entries: make(map[string]entry)}
}

// Register adds a command. Returns ErrCommandExists if the name is taken;
// use Replace to swap an existing handler.
func (c *Commands) Register(cmd Command, handler CommandHandler) error {
	if cmd.Name == "" {
		return ErrEmptyCommand
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[cmd.Name]; exists {
		return fmt.Errorf("%w: %s", ErrCommandExists, cmd.Name)
	}
	c.entries[cmd.Name] = entry{command: cmd, handler: handler}
	return nil
}

// Replace updates an existing command's description and handler.
func (c *Commands) Replace(cmd Command, handler CommandHandler) error {
	if cmd.Name == "" {
		return ErrEmptyCommand
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[cmd.Name]; !exists {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, cmd.Name)
	}
	c.entries[cmd.Name] = entry{command: cmd, handler: handler}
	return nil
}

// Get retrieves a handler by command name.
func (c *Commands) Get(name string) (CommandHandler, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, exists := c.entries[name]
	if !exists {
		return nil, false
	}
	return e.handler, true
}

// List returns every registered command sorted by name.
func (c *Commands) List() []Command {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cmds := make([]Command, 0, len(c.entries))
	for _, e := range c.entries {
		cmds = append(cmds, e.command)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
	return cmds
}

// Execute dispatches to the named command. Returns ErrUnknownCommand if it
// is not registered; handler errors are wrapped with the command name.
func (c *Commands) Execute(ctx context.Context, name string, msg Message, args []string) ([]conversation.Reply, error) {
	handler, ok := c.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: /%s", ErrUnknownCommand, name)
	}

	replies, err := handler(ctx, msg, args)
	if err != nil {
		return nil, fmt.Errorf("command /%s failed: %w", name, err)
	}
	return replies, nil
}

// parseCommand splits "/name@bot arg1 arg2" into its lower-cased name and
// arguments.
func parseCommand(text string) (string, []string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", nil, false
	}
	fields := strings.Fields(text)
	name, _, _ := strings.Cut(strings.TrimPrefix(fields[0], "/"), "@")
	if name == "" {
		return "", nil, false
	}
	return strings.ToLower(name), fields[1:], true
}

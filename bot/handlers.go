package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/tailored-agentic-units/procure/conversation"
	"github.com/tailored-agentic-units/procure/purchase"
)

// Main menu labels. Typing a label runs its command.
const (
	MenuPurchase = "Create Purchase Order"
	MenuOrders   = "Purchase Orders"
	MenuHelp     = "Help"
)

var menuCommands = map[string]string{
	MenuPurchase: "purchase",
	MenuOrders:   "orders",
	MenuHelp:     "help",
}

// Button data of the form "<command>:<arg>" runs the command.
var callbackCommands = map[string]bool{
	"approve": true,
	"reject":  true,
	"status":  true,
}

// MenuLabels returns the main menu rows a transport shows for a reply with
// Menu set.
func MenuLabels() [][]string {
	return [][]string{{MenuPurchase}, {MenuOrders}, {MenuHelp}}
}

// maxOrderButtons bounds the status buttons attached to an order list.
const maxOrderButtons = 10

func (b *Bot) registerCommands() error {
	builtins := []struct {
		cmd     Command
		handler CommandHandler
	}{
		{Command{Name: "start", Description: "Show the main menu"}, b.cmdStart},
		{Command{Name: "help", Description: "List available commands"}, b.cmdHelp},
		{Command{Name: "purchase", Description: "Create a purchase order"}, b.cmdPurchase},
		{Command{Name: "cancel", Description: "Cancel the purchase order in progress"}, b.cmdCancel},
		{Command{Name: "orders", Usage: "[state] [limit]", Description: "List recent purchase orders"}, b.cmdOrders},
		{Command{Name: "status", Usage: "<order_id>", Description: "Show a purchase order"}, b.cmdStatus},
		{Command{Name: "approve", Usage: "<order_id>", Description: "Confirm a purchase order"}, b.cmdApprove},
		{Command{Name: "reject", Usage: "<order_id> [reason]", Description: "Cancel a purchase order"}, b.cmdReject},
	}

	for _, bi := range builtins {
		if err := b.commands.Register(bi.cmd, bi.handler); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) cmdStart(ctx context.Context, msg Message, args []string) ([]conversation.Reply, error) {
	if err := b.store.Delete(ctx, msg.UserID); err != nil {
		return nil, err
	}
	return []conversation.Reply{{
		Text: "Purchase Assistant\nChoose a service below:",
		Menu: true,
	}}, nil
}

func (b *Bot) cmdHelp(ctx context.Context, msg Message, args []string) ([]conversation.Reply, error) {
	var sb strings.Builder
	sb.WriteString("Available commands:\n")
	for _, c := range b.commands.List() {
		sb.WriteString("\n/" + c.Name)
		if c.Usage != "" {
			sb.WriteString(" " + c.Usage)
		}
		sb.WriteString(" - " + c.Description)
	}
	return []conversation.Reply{{Text: sb.String(), Menu: true}}, nil
}

func (b *Bot) cmdPurchase(ctx context.Context, msg Message, args []string) ([]conversation.Reply, error) {
	return b.converse(ctx, msg.UserID, conversation.Event{Kind: conversation.EventStart})
}

func (b *Bot) cmdCancel(ctx context.Context, msg Message, args []string) ([]conversation.Reply, error) {
	sess, err := b.store.Get(ctx, msg.UserID)
	if err == nil && sess.State.Active() {
		return b.converse(ctx, msg.UserID, conversation.Event{Kind: conversation.EventCancel})
	}
	return []conversation.Reply{{
		Text: "Cancelled. Use /start to choose a service.",
		Menu: true,
	}}, nil
}

func (b *Bot) cmdOrders(ctx context.Context, msg Message, args []string) ([]conversation.Reply, error) {
	req := &purchase.ListRequest{}
	var state []string
	for _, arg := range args {
		if n, err := strconv.Atoi(arg); err == nil {
			if n <= 0 {
				return usage("orders", "[state] [limit]"), nil
			}
			req.Limit = n
			continue
		}
		state = append(state, arg)
	}
	// "to approve" arrives as two words or as to_approve.
	req.State = strings.ReplaceAll(strings.ToLower(strings.Join(state, " ")), "_", " ")

	resp, err := b.orders.ListOrders(ctx, req)
	if err != nil {
		return []conversation.Reply{{Text: "Could not load purchase orders: " + b.describe(err), Menu: true}}, nil
	}
	if len(resp.Orders) == 0 {
		return []conversation.Reply{{Text: "No purchase orders found.", Menu: true}}, nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Purchase Orders (%d)\n", len(resp.Orders))
	var buttons [][]conversation.Button
	for i, o := range resp.Orders {
		fmt.Fprintf(&sb, "\n%d. %s - %s\n   %s | %.2f | %s",
			i+1, o.Name, o.PartnerName, o.DateOrder, o.AmountTotal, purchase.StateLabel(o.State))
		if i < maxOrderButtons {
			buttons = append(buttons, []conversation.Button{{
				Label: o.Name,
				Data:  fmt.Sprintf("status:%d", o.ID),
			}})
		}
	}
	return []conversation.Reply{{Text: sb.String(), Buttons: buttons}}, nil
}

func (b *Bot) cmdStatus(ctx context.Context, msg Message, args []string) ([]conversation.Reply, error) {
	id, ok := orderID(args)
	if !ok {
		return usage("status", "<order_id>"), nil
	}

	resp, err := b.orders.OrderStatus(ctx, id)
	if err != nil {
		return []conversation.Reply{{Text: "Could not load the purchase order: " + b.describe(err), Menu: true}}, nil
	}

	o := resp.Order
	reply := conversation.Reply{Text: fmt.Sprintf(
		"Purchase Order %s\n\nSupplier: %s\nDate: %s\nTotal Amount: %.2f\nLines: %d\nStatus: %s",
		o.Name, o.PartnerName, o.DateOrder, o.AmountTotal, o.LineCount, purchase.StateLabel(o.State),
	)}
	if purchase.AwaitingDecision(o.State) {
		reply.Buttons = [][]conversation.Button{{
			{Label: "Approve", Data: fmt.Sprintf("approve:%d", o.ID)},
			{Label: "Reject", Data: fmt.Sprintf("reject:%d", o.ID)},
		}}
	}
	return []conversation.Reply{reply}, nil
}

func (b *Bot) cmdApprove(ctx context.Context, msg Message, args []string) ([]conversation.Reply, error) {
	id, ok := orderID(args)
	if !ok {
		return usage("approve", "<order_id>"), nil
	}
	return b.decide(ctx, &purchase.ApproveRequest{OrderID: id, Action: purchase.ActionApprove})
}

func (b *Bot) cmdReject(ctx context.Context, msg Message, args []string) ([]conversation.Reply, error) {
	id, ok := orderID(args)
	if !ok {
		return usage("reject", "<order_id> [reason]"), nil
	}
	return b.decide(ctx, &purchase.ApproveRequest{
		OrderID: id,
		Action:  purchase.ActionReject,
		Reason:  strings.Join(args[1:], " "),
	})
}

func (b *Bot) decide(ctx context.Context, req *purchase.ApproveRequest) ([]conversation.Reply, error) {
	resp, err := b.orders.Decide(ctx, req)
	if err != nil {
		return []conversation.Reply{{Text: fmt.Sprintf("Could not %s order %d: %s", req.Action, req.OrderID, b.describe(err)), Menu: true}}, nil
	}
	return []conversation.Reply{{
		Text: fmt.Sprintf("%s\nStatus: %s", resp.Message, purchase.StateLabel(resp.State)),
		Menu: true,
	}}, nil
}

func orderID(args []string) (int64, bool) {
	if len(args) == 0 {
		return 0, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func usage(name, args string) []conversation.Reply {
	return []conversation.Reply{conversation.Text(fmt.Sprintf("Usage: /%s %s", name, args))}
}

package conversation

import (
	"fmt"
	"strings"
)

// RenderReview formats the draft with per-line subtotals, the total, and the
// confirm, add-more, and cancel controls. Totals are computed on every call.
func RenderReview(d Draft) Reply {
	var b strings.Builder
	b.WriteString("Purchase Order Review\n\n")
	fmt.Fprintf(&b, "Supplier: %s\n", d.SupplierName)
	fmt.Fprintf(&b, "Total Items: %d\n", len(d.Lines))
	fmt.Fprintf(&b, "Total Amount: %s\n\n", d.Total().StringFixed(2))
	b.WriteString("Order Lines:\n")
	for i, line := range d.Lines {
		fmt.Fprintf(&b, "%d. %s\n", i+1, line.ProductName)
		fmt.Fprintf(&b, "   Qty: %s x %s = %s\n",
			line.Quantity.String(),
			line.UnitPrice.StringFixed(2),
			line.Subtotal().StringFixed(2),
		)
	}

	return Reply{
		Text: strings.TrimRight(b.String(), "\n"),
		Buttons: [][]Button{
			{{Label: "Confirm Order", Data: CallbackConfirm}},
			{{Label: "Add More Products", Data: CallbackAddMore}},
			{{Label: "Cancel", Data: CallbackCancel}},
		},
	}
}

func candidatesReply(header string, candidates []Candidate) Reply {
	var b strings.Builder
	b.WriteString(header)
	rows := make([][]Button, 0, len(candidates))
	for i, c := range candidates {
		label := fmt.Sprintf("%d. %s", i+1, candidateLabel(c))
		fmt.Fprintf(&b, "\n%s", label)
		rows = append(rows, []Button{{Label: label, Data: fmt.Sprintf("%s%d", callbackPick, i+1)}})
	}
	rows = append(rows, []Button{{Label: "Search Again", Data: CallbackSearchAgain}})
	return Reply{Text: b.String(), Buttons: rows}
}

func candidateLabel(c Candidate) string {
	name := productName(c)
	if c.Code != "" {
		return fmt.Sprintf("%s [%s]", name, c.Code)
	}
	return name
}

func productName(c Candidate) string {
	if c.Name != "" {
		return c.Name
	}
	return fmt.Sprintf("Product %d", c.ProductID)
}

func yesNoReply(text string) Reply {
	return Reply{
		Text: text,
		Buttons: [][]Button{{
			{Label: "Yes", Data: CallbackYes},
			{Label: "No", Data: CallbackNo},
		}},
	}
}

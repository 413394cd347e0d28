package email

import (
	"fmt"
	"strings"
)

// OrderItem is one order line rendered in a mail body.
type OrderItem struct {
	ProductID string
	Name      string
	Quantity  int
	Price     int // unit price in cents
}

// BuildOrderConfirmationBody builds the HTML body for the confirmation mail.
func BuildOrderConfirmationBody(orderID string, total int, items []OrderItem) string {
	var itemsHTML strings.Builder
	for _, item := range items {
		name := item.Name
		if name == "" {
			name = item.ProductID
		}
		itemsHTML.WriteString(fmt.Sprintf(
			`<tr>
				<td style="padding: 12px; border-bottom: 1px solid #eee;">%s</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: center;">%d</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">%s</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">%s</td>
			</tr>`,
			name,
			item.Quantity,
			formatPrice(item.Price),
			formatPrice(item.Price*item.Quantity),
		))
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; color: #333; margin: 0; padding: 0;">
	<div style="max-width: 600px; margin: 0 auto; padding: 24px;">
		<h1 style="font-size: 20px;">Thanks for your order!</h1>
		<p>We received your order <strong>%s</strong> and it is now being prepared.</p>
		<table style="width: 100%%; border-collapse: collapse; margin: 16px 0;">
			<thead>
				<tr style="background: #f7f7f7;">
					<th style="padding: 12px; text-align: left;">Item</th>
					<th style="padding: 12px; text-align: center;">Qty</th>
					<th style="padding: 12px; text-align: right;">Price</th>
					<th style="padding: 12px; text-align: right;">Subtotal</th>
				</tr>
			</thead>
			<tbody>%s</tbody>
		</table>
		<p style="text-align: right; font-size: 16px;"><strong>Total: %s</strong></p>
		<p style="color: #888; font-size: 12px;">You will get another mail when your order ships.</p>
	</div>
</body>
</html>`, orderID, itemsHTML.String(), formatPrice(total))
}

// BuildOrderStatusBody builds the HTML body for a status update mail.
func BuildOrderStatusBody(orderID, status string) string {
	message := map[string]string{
		"Shipped":   "Your order is on its way.",
		"Delivered": "Your order has been delivered. Enjoy!",
	}[status]
	if message == "" {
		message = fmt.Sprintf("Your order status is now %s.", status)
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; color: #333; margin: 0; padding: 0;">
	<div style="max-width: 600px; margin: 0 auto; padding: 24px;">
		<h1 style="font-size: 20px;">Order %s: %s</h1>
		<p>%s</p>
		<p style="color: #888; font-size: 12px;">Questions? Just reply to this mail.</p>
	</div>
</body>
</html>`, shortID(orderID), status, message)
}

// formatPrice renders cents as a dollar amount with thousands separators.
func formatPrice(cents int) string {
	dollars := cents / 100
	rem := cents % 100

	s := fmt.Sprintf("%d", dollars)
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)

	return fmt.Sprintf("$%s.%02d", strings.Join(parts, ","), rem)
}

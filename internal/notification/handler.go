package notification

import (
	"context"
	"encoding/json"
	"log"

	"github.com/example/animal-store/internal/email"
	"github.com/example/animal-store/internal/events"
	"github.com/example/animal-store/internal/order"
	"github.com/example/animal-store/internal/user"
)

// Sender is the slice of the email service the notifier uses.
type Sender interface {
	SendOrderConfirmation(to, orderID string, total int, items []email.OrderItem) error
	SendOrderStatusUpdate(to, orderID, status string) error
}

// UserDirectory resolves user ids to accounts so mails have an address.
type UserDirectory interface {
	GetUser(ctx context.Context, id string) (*user.User, error)
}

// Handler turns consumed order events into customer emails.
type Handler struct {
	sender Sender
	users  UserDirectory
}

func NewHandler(sender Sender, users UserDirectory) *Handler {
	return &Handler{sender: sender, users: users}
}

// HandleEvent processes one event from the feed. Unknown event types are
// skipped; lookup failures are logged and swallowed so the consumer keeps
// moving.
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	var event events.Event
	if err := json.Unmarshal(value, &event); err != nil {
		log.Printf("[Notifier] Failed to unmarshal event: %v", err)
		return err
	}

	switch event.Type {
	case events.TypeOrderPlaced:
		return h.handleOrderPlaced(ctx, event)
	case events.TypeOrderStatusChanged:
		return h.handleStatusChanged(ctx, event)
	}
	return nil
}

func (h *Handler) handleOrderPlaced(ctx context.Context, event events.Event) error {
	var e events.OrderPlaced
	if err := json.Unmarshal(event.Data, &e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal OrderPlaced event: %v", err)
		return err
	}

	log.Printf("[Notifier] Processing OrderPlaced event for order %s, user %s", e.OrderID, e.UserID)

	u, err := h.users.GetUser(ctx, e.UserID)
	if err != nil {
		log.Printf("[Notifier] Could not resolve user %s: %v", e.UserID, err)
		return nil
	}

	emailItems := make([]email.OrderItem, len(e.Items))
	for i, item := range e.Items {
		emailItems[i] = email.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.UnitPrice,
		}
	}

	if err := h.sender.SendOrderConfirmation(u.Email, e.OrderID, e.Total, emailItems); err != nil {
		log.Printf("[Notifier] Failed to send confirmation to %s: %v", u.Email, err)
		return err
	}

	log.Printf("[Notifier] Order confirmation email sent to %s for order %s", u.Email, e.OrderID)
	return nil
}

func (h *Handler) handleStatusChanged(ctx context.Context, event events.Event) error {
	var e events.OrderStatusChanged
	if err := json.Unmarshal(event.Data, &e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal OrderStatusChanged event: %v", err)
		return err
	}

	// Customers only care about shipping milestones.
	if e.NewStatus != string(order.StatusShipped) && e.NewStatus != string(order.StatusDelivered) {
		return nil
	}

	u, err := h.users.GetUser(ctx, e.UserID)
	if err != nil {
		log.Printf("[Notifier] Could not resolve user %s: %v", e.UserID, err)
		return nil
	}

	if err := h.sender.SendOrderStatusUpdate(u.Email, e.OrderID, e.NewStatus); err != nil {
		log.Printf("[Notifier] Failed to send status update to %s: %v", u.Email, err)
		return err
	}

	log.Printf("[Notifier] Status update (%s) email sent to %s for order %s", e.NewStatus, u.Email, e.OrderID)
	return nil
}

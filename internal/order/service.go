package order

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/example/animal-store/internal/catalog"
	"github.com/example/animal-store/internal/events"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrEmptyOrder        = errors.New("order must have at least one item")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrInvalidLineItem   = errors.New("invalid line item")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrNotOrderOwner     = errors.New("order belongs to a different user")
	ErrOrderNotEditable  = errors.New("order can no longer be edited")
	ErrNotCancellable    = errors.New("order can no longer be cancelled")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrUnknownStatus     = errors.New("unknown order status")
)

// Store persists orders.
type Store interface {
	CreateOrder(ctx context.Context, o *Order) error
	GetOrder(ctx context.Context, id string) (*Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]*Order, error)
	ListAllOrders(ctx context.Context) ([]*Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status Status, updatedAt time.Time) error
	UpdateOrderShipping(ctx context.Context, id string, info ShippingInfo, updatedAt time.Time) error
}

// Inventory is the slice of the catalog store the order processor needs.
// ReserveStock must be an atomic conditional decrement: it fails with
// ErrInsufficientStock instead of ever driving stock negative, even under
// concurrent calls.
type Inventory interface {
	GetProduct(ctx context.Context, id string) (*catalog.Product, error)
	ReserveStock(ctx context.Context, productID string, quantity int) error
	ReleaseStock(ctx context.Context, productID string, quantity int) error
}

// LineRequest is one (product, quantity) pair of an incoming order.
type LineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Service turns cart submissions into consistent orders and drives the order
// lifecycle.
type Service struct {
	store     Store
	inventory Inventory
	publisher events.Publisher
}

func NewService(store Store, inventory Inventory, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{store: store, inventory: inventory, publisher: publisher}
}

// Place validates every line, reserves stock and persists the order. All or
// nothing: any line failure releases the stock already reserved for earlier
// lines, in reverse order.
func (s *Service) Place(ctx context.Context, userID string, lines []LineRequest, shipping ShippingInfo) (*Order, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyOrder
	}
	for _, line := range lines {
		if line.Quantity < 1 {
			return nil, fmt.Errorf("%w: product %s", ErrInvalidQuantity, line.ProductID)
		}
	}

	var (
		items    []Item
		reserved []Item
		total    int
	)

	release := func() {
		for i := len(reserved) - 1; i >= 0; i-- {
			item := reserved[i]
			if err := s.inventory.ReleaseStock(ctx, item.ProductID, item.Quantity); err != nil {
				log.Printf("[Order] CRITICAL: failed to release %d of product %s: %v", item.Quantity, item.ProductID, err)
			}
		}
	}

	for _, line := range lines {
		p, err := s.inventory.GetProduct(ctx, line.ProductID)
		if err != nil || !p.IsActive {
			release()
			return nil, fmt.Errorf("%w: product %s", ErrInvalidLineItem, line.ProductID)
		}

		if err := s.inventory.ReserveStock(ctx, line.ProductID, line.Quantity); err != nil {
			release()
			if errors.Is(err, ErrInsufficientStock) {
				return nil, fmt.Errorf("%w: product %s", ErrInsufficientStock, line.ProductID)
			}
			return nil, fmt.Errorf("%w: product %s", ErrInvalidLineItem, line.ProductID)
		}

		item := Item{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Quantity:  line.Quantity,
		}
		reserved = append(reserved, item)
		items = append(items, item)
		total += p.Price * line.Quantity
	}

	now := time.Now()
	o := &Order{
		ID:           uuid.New().String(),
		UserID:       userID,
		Items:        items,
		ShippingInfo: shipping,
		Total:        total,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.CreateOrder(ctx, o); err != nil {
		release()
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.publish(ctx, events.TypeOrderPlaced, o.ID, events.OrderPlaced{
		OrderID:  o.ID,
		UserID:   o.UserID,
		Items:    toEventLines(o.Items),
		Total:    o.Total,
		PlacedAt: o.CreatedAt,
	})

	return o, nil
}

// Get returns an order visible to the actor: the owner or an admin.
func (s *Service) Get(ctx context.Context, orderID, actorID string, admin bool) (*Order, error) {
	o, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != actorID && !admin {
		return nil, ErrNotOrderOwner
	}
	return o, nil
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]*Order, error) {
	return s.store.ListOrdersByUser(ctx, userID)
}

func (s *Service) ListAll(ctx context.Context) ([]*Order, error) {
	return s.store.ListAllOrders(ctx)
}

// Cancel cancels an order on behalf of its owner (or an admin) and restores
// the reserved stock. Allowed from Pending and Processing only.
func (s *Service) Cancel(ctx context.Context, orderID, actorID string, admin bool) (*Order, error) {
	o, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != actorID && !admin {
		return nil, ErrNotOrderOwner
	}
	if !o.Status.CanTransitionTo(StatusCancelled) {
		return nil, fmt.Errorf("%w: status is %s", ErrNotCancellable, o.Status)
	}

	if err := s.transition(ctx, o, StatusCancelled); err != nil {
		return nil, err
	}

	s.publish(ctx, events.TypeOrderCancelled, o.ID, events.OrderCancelled{
		OrderID:     o.ID,
		UserID:      o.UserID,
		CancelledBy: actorID,
		CancelledAt: o.UpdatedAt,
	})

	return o, nil
}

// SetStatus moves an order along the lifecycle (admin operation). Transitions
// into Cancelled restore stock regardless of who triggers them.
func (s *Service) SetStatus(ctx context.Context, orderID string, target Status) (*Order, error) {
	o, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.Status.CanTransitionTo(target) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, target)
	}

	oldStatus := o.Status
	if err := s.transition(ctx, o, target); err != nil {
		return nil, err
	}

	s.publish(ctx, events.TypeOrderStatusChanged, o.ID, events.OrderStatusChanged{
		OrderID:   o.ID,
		UserID:    o.UserID,
		OldStatus: string(oldStatus),
		NewStatus: string(target),
		ChangedAt: o.UpdatedAt,
	})

	return o, nil
}

// transition persists the status change and applies its side effects. Stock
// restoration is tied to the transition itself so no cancellation path can
// skip it.
func (s *Service) transition(ctx context.Context, o *Order, target Status) error {
	now := time.Now()
	if err := s.store.UpdateOrderStatus(ctx, o.ID, target, now); err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	o.Status = target
	o.UpdatedAt = now

	if target == StatusCancelled {
		for _, item := range o.Items {
			if err := s.inventory.ReleaseStock(ctx, item.ProductID, item.Quantity); err != nil {
				log.Printf("[Order] CRITICAL: failed to release %d of product %s for cancelled order %s: %v",
					item.Quantity, item.ProductID, o.ID, err)
			}
		}
	}
	return nil
}

// UpdateShipping edits the shipping info of a not-yet-shipped order. Only the
// owner may edit; empty fields keep their current values.
func (s *Service) UpdateShipping(ctx context.Context, orderID, actorID string, info ShippingInfo) (*Order, error) {
	o, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != actorID {
		return nil, ErrNotOrderOwner
	}
	if !o.Status.editable() {
		return nil, fmt.Errorf("%w: status is %s", ErrOrderNotEditable, o.Status)
	}

	merged := o.ShippingInfo.merge(info)
	now := time.Now()
	if err := s.store.UpdateOrderShipping(ctx, o.ID, merged, now); err != nil {
		return nil, fmt.Errorf("update shipping info: %w", err)
	}
	o.ShippingInfo = merged
	o.UpdatedAt = now
	return o, nil
}

func toEventLines(items []Item) []events.OrderLine {
	lines := make([]events.OrderLine, len(items))
	for i, item := range items {
		lines[i] = events.OrderLine{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		}
	}
	return lines
}

// publish is best-effort; the event feed never fails an order operation.
func (s *Service) publish(ctx context.Context, eventType, aggregateID string, payload any) {
	event, err := events.New(eventType, aggregateID, payload)
	if err != nil {
		log.Printf("[Order] Failed to build %s event: %v", eventType, err)
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Printf("[Order] Failed to publish %s event: %v", eventType, err)
	}
}

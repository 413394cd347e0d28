package order

import (
	"fmt"
	"time"
)

// Status is an order lifecycle state.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusProcessing Status = "Processing"
	StatusShipped    Status = "Shipped"
	StatusDelivered  Status = "Delivered"
	StatusCancelled  Status = "Cancelled"
)

// ParseStatus validates a status value received over the wire.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return Status(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

// statusRank orders the fulfilment stages. Cancelled sits outside the chain.
var statusRank = map[Status]int{
	StatusPending:    0,
	StatusProcessing: 1,
	StatusShipped:    2,
	StatusDelivered:  3,
}

// IsTerminal reports whether no transition leaves the status.
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// cancellable reports whether an order in this status may still be cancelled.
func (s Status) cancellable() bool {
	return s == StatusPending || s == StatusProcessing
}

// editable reports whether shipping info may still change.
func (s Status) editable() bool {
	return s == StatusPending || s == StatusProcessing
}

// CanTransitionTo reports whether the lifecycle allows moving to target.
// Fulfilment only moves forward; Cancelled is reachable from Pending and
// Processing only.
func (s Status) CanTransitionTo(target Status) bool {
	if s.IsTerminal() || s == target {
		return false
	}
	if target == StatusCancelled {
		return s.cancellable()
	}
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[target]
	if !ok {
		return false
	}
	return to > from
}

// Item is one order line. Name and UnitPrice are snapshots captured at
// placement; later catalog edits never alter historical orders.
type Item struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int    `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

// ShippingInfo is the delivery address attached to an order.
type ShippingInfo struct {
	FullName   string `json:"full_name,omitempty"`
	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// merge overlays the non-empty fields of other onto s, mirroring a partial
// shipping-info edit.
func (s ShippingInfo) merge(other ShippingInfo) ShippingInfo {
	if other.FullName != "" {
		s.FullName = other.FullName
	}
	if other.Address != "" {
		s.Address = other.Address
	}
	if other.City != "" {
		s.City = other.City
	}
	if other.PostalCode != "" {
		s.PostalCode = other.PostalCode
	}
	if other.Phone != "" {
		s.Phone = other.Phone
	}
	return s
}

// Order is a placed order. Items and Total are immutable after placement.
type Order struct {
	ID           string       `json:"id"`
	UserID       string       `json:"user_id"`
	Items        []Item       `json:"items"`
	ShippingInfo ShippingInfo `json:"shipping_info"`
	Total        int          `json:"total"`
	Status       Status       `json:"status"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

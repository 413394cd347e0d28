package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/animal-store/internal/email"
	"github.com/example/animal-store/internal/events"
	"github.com/example/animal-store/internal/user"
)

type fakeSender struct {
	confirmations []string // order ids
	statusUpdates []string // "orderID:status"
	lastItems     []email.OrderItem
	lastTo        string
	err           error
}

func (s *fakeSender) SendOrderConfirmation(to, orderID string, total int, items []email.OrderItem) error {
	if s.err != nil {
		return s.err
	}
	s.lastTo = to
	s.lastItems = items
	s.confirmations = append(s.confirmations, orderID)
	return nil
}

func (s *fakeSender) SendOrderStatusUpdate(to, orderID, status string) error {
	if s.err != nil {
		return s.err
	}
	s.lastTo = to
	s.statusUpdates = append(s.statusUpdates, orderID+":"+status)
	return nil
}

type fakeDirectory struct {
	users map[string]*user.User
}

func (d *fakeDirectory) GetUser(ctx context.Context, id string) (*user.User, error) {
	u, ok := d.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return u, nil
}

func newTestHandler() (*Handler, *fakeSender, *fakeDirectory) {
	sender := &fakeSender{}
	directory := &fakeDirectory{users: map[string]*user.User{
		"user-1": {ID: "user-1", Email: "jordan@example.com"},
	}}
	return NewHandler(sender, directory), sender, directory
}

func marshalEvent(t *testing.T, eventType, aggregateID string, payload any) []byte {
	t.Helper()
	event, err := events.New(eventType, aggregateID, payload)
	require.NoError(t, err)
	data, err := json.Marshal(event)
	require.NoError(t, err)
	return data
}

func TestHandler_OrderPlaced_SendsConfirmation(t *testing.T) {
	handler, sender, _ := newTestHandler()

	value := marshalEvent(t, events.TypeOrderPlaced, "order-1", events.OrderPlaced{
		OrderID: "order-1",
		UserID:  "user-1",
		Items: []events.OrderLine{
			{ProductID: "prod-1", Name: "Chicken Kibble", UnitPrice: 349900, Quantity: 2},
		},
		Total: 699800,
	})

	err := handler.HandleEvent(context.Background(), []byte("order-1"), value)

	require.NoError(t, err)
	assert.Equal(t, []string{"order-1"}, sender.confirmations)
	assert.Equal(t, "jordan@example.com", sender.lastTo)
	require.Len(t, sender.lastItems, 1)
	assert.Equal(t, "Chicken Kibble", sender.lastItems[0].Name)
	assert.Equal(t, 349900, sender.lastItems[0].Price)
}

func TestHandler_OrderPlaced_UnknownUserIsSwallowed(t *testing.T) {
	handler, sender, _ := newTestHandler()

	value := marshalEvent(t, events.TypeOrderPlaced, "order-1", events.OrderPlaced{
		OrderID: "order-1",
		UserID:  "no-such-user",
	})

	// Lookup failures must not wedge the consumer on the same offset.
	err := handler.HandleEvent(context.Background(), []byte("order-1"), value)

	require.NoError(t, err)
	assert.Empty(t, sender.confirmations)
}

func TestHandler_StatusChanged_ShippingMilestonesOnly(t *testing.T) {
	handler, sender, _ := newTestHandler()
	ctx := context.Background()

	for _, status := range []string{"Shipped", "Delivered"} {
		value := marshalEvent(t, events.TypeOrderStatusChanged, "order-1", events.OrderStatusChanged{
			OrderID:   "order-1",
			UserID:    "user-1",
			OldStatus: "Processing",
			NewStatus: status,
		})
		require.NoError(t, handler.HandleEvent(ctx, []byte("order-1"), value))
	}

	// Processing is not a customer-facing milestone
	value := marshalEvent(t, events.TypeOrderStatusChanged, "order-1", events.OrderStatusChanged{
		OrderID:   "order-1",
		UserID:    "user-1",
		OldStatus: "Pending",
		NewStatus: "Processing",
	})
	require.NoError(t, handler.HandleEvent(ctx, []byte("order-1"), value))

	assert.Equal(t, []string{"order-1:Shipped", "order-1:Delivered"}, sender.statusUpdates)
}

func TestHandler_UnknownEventTypeIsSkipped(t *testing.T) {
	handler, sender, _ := newTestHandler()

	value := marshalEvent(t, events.TypeUserRegistered, "user-1", events.UserRegistered{UserID: "user-1"})

	err := handler.HandleEvent(context.Background(), []byte("user-1"), value)

	require.NoError(t, err)
	assert.Empty(t, sender.confirmations)
	assert.Empty(t, sender.statusUpdates)
}

func TestHandler_MalformedEvent(t *testing.T) {
	handler, _, _ := newTestHandler()

	err := handler.HandleEvent(context.Background(), nil, []byte("not json"))

	assert.Error(t, err)
}

func TestHandler_SendFailureIsReturned(t *testing.T) {
	handler, sender, _ := newTestHandler()
	sender.err = errors.New("smtp down")

	value := marshalEvent(t, events.TypeOrderPlaced, "order-1", events.OrderPlaced{
		OrderID: "order-1",
		UserID:  "user-1",
	})

	err := handler.HandleEvent(context.Background(), []byte("order-1"), value)

	assert.Error(t, err)
}

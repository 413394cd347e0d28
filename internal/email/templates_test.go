package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		cents int
		want  string
	}{
		{0, "$0.00"},
		{99, "$0.99"},
		{100, "$1.00"},
		{349900, "$3,499.00"},
		{123456789, "$1,234,567.89"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatPrice(tt.cents))
	}
}

func TestBuildOrderConfirmationBody(t *testing.T) {
	body := BuildOrderConfirmationBody("order-abc", 759700, []OrderItem{
		{ProductID: "prod-1", Name: "Chicken Kibble", Quantity: 2, Price: 349900},
		{ProductID: "prod-2", Name: "Dental Sticks", Quantity: 1, Price: 59900},
	})

	assert.Contains(t, body, "order-abc")
	assert.Contains(t, body, "Chicken Kibble")
	assert.Contains(t, body, "Dental Sticks")
	assert.Contains(t, body, "$6,998.00") // line subtotal
	assert.Contains(t, body, "Total: $7,597.00")
}

func TestBuildOrderConfirmationBody_FallsBackToProductID(t *testing.T) {
	body := BuildOrderConfirmationBody("order-abc", 100, []OrderItem{
		{ProductID: "prod-1", Quantity: 1, Price: 100},
	})

	assert.Contains(t, body, "prod-1")
}

func TestBuildOrderStatusBody(t *testing.T) {
	shipped := BuildOrderStatusBody("0123456789abcdef", "Shipped")
	assert.Contains(t, shipped, "Shipped")
	assert.Contains(t, shipped, "on its way")
	// Order ids are shortened in the subject line of the body
	assert.Contains(t, shipped, "01234567")

	delivered := BuildOrderStatusBody("order-1", "Delivered")
	assert.Contains(t, delivered, "delivered")
}

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{"pending to confirmed", OrderStatusPending, OrderStatusConfirmed, true},
		{"pending skips to shipped", OrderStatusPending, OrderStatusShipped, true},
		{"confirmed to processing", OrderStatusConfirmed, OrderStatusProcessing, true},
		{"processing to delivered", OrderStatusProcessing, OrderStatusDelivered, true},

		{"no backward move", OrderStatusShipped, OrderStatusConfirmed, false},
		{"no self transition", OrderStatusProcessing, OrderStatusProcessing, false},

		{"cancel from pending", OrderStatusPending, OrderStatusCancelled, true},
		{"cancel from shipped", OrderStatusShipped, OrderStatusCancelled, true},

		{"delivered is terminal", OrderStatusDelivered, OrderStatusShipped, false},
		{"delivered cannot cancel", OrderStatusDelivered, OrderStatusCancelled, false},
		{"cancelled is terminal", OrderStatusCancelled, OrderStatusConfirmed, false},
		{"cancelled cannot re-cancel", OrderStatusCancelled, OrderStatusCancelled, false},

		{"unknown source", OrderStatus("limbo"), OrderStatusConfirmed, false},
		{"unknown target", OrderStatusPending, OrderStatus("limbo"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

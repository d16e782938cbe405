package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"carrierdesk/models"
)

func TestCircuitOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		allowed bool
	}{
		{name: "pending to ordered", from: "pending", to: "ordered", allowed: true},
		{name: "pending to cancelled", from: "pending", to: "cancelled", allowed: true},
		{name: "pending cannot skip to installed", from: "pending", to: "installed", allowed: false},
		{name: "ordered to installed", from: "ordered", to: "installed", allowed: true},
		{name: "ordered to cancelled", from: "ordered", to: "cancelled", allowed: true},
		{name: "installed to billing", from: "installed", to: "billing", allowed: true},
		{name: "installed cannot cancel", from: "installed", to: "cancelled", allowed: false},
		{name: "billing is terminal", from: "billing", to: "cancelled", allowed: false},
		{name: "cancelled is terminal", from: "cancelled", to: "pending", allowed: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowed, ok := models.CircuitOrderStatuses[tt.from]
			assert.True(t, ok, "unknown status %q", tt.from)
			assert.Equal(t, tt.allowed, containsStatus(allowed, tt.to))
		})
	}
}

func TestContainsStatus(t *testing.T) {
	assert.True(t, containsStatus([]string{"ordered", "cancelled"}, "cancelled"))
	assert.False(t, containsStatus([]string{"ordered", "cancelled"}, "billing"))
	assert.False(t, containsStatus(nil, "ordered"))
}

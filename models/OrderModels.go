package models

import (
	"time"

	"gorm.io/gorm"
)

// CircuitOrder tracks a circuit from acceptance through billing. One row is
// created when an agent accepts a carrier quote.
type CircuitOrder struct {
	ID             uint           `gorm:"primaryKey;column:id" json:"id" example:"3"`
	QuoteID        int            `gorm:"column:quote_id;not null" json:"quote_id" example:"42"`
	CarrierQuoteID int            `gorm:"column:carrier_quote_id;not null" json:"carrier_quote_id" example:"7"`
	ClientID       int            `gorm:"column:client_id" json:"client_id" example:"12"`
	AgentID        int            `gorm:"column:agent_id" json:"agent_id" example:"4"`
	Carrier        string         `gorm:"column:carrier" json:"carrier" example:"Spectrum"`
	CircuitID      string         `gorm:"column:circuit_id" json:"circuit_id" example:"SPEC-TX-009441"`
	Status         string         `gorm:"column:status;default:pending" json:"status" example:"ordered"` // pending, ordered, installed, billing, cancelled
	MonthlyPrice   float64        `gorm:"column:monthly_price" json:"monthly_price" example:"517.5"`
	OrderedDate    *time.Time     `gorm:"column:ordered_date" json:"ordered_date,omitempty"`
	FOCDate        *time.Time     `gorm:"column:foc_date" json:"foc_date,omitempty"`
	InstalledDate  *time.Time     `gorm:"column:installed_date" json:"installed_date,omitempty"`
	Notes          string         `gorm:"column:notes" json:"notes" example:""`
	CreatedAt      time.Time      `gorm:"column:created_at;not null" json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;not null" json:"updated_at" example:"2024-01-15T10:30:00Z"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for CircuitOrder
func (CircuitOrder) TableName() string {
	return "circuit_orders"
}

// CircuitOrderStatuses lists the transitions allowed from each order status.
var CircuitOrderStatuses = map[string][]string{
	"pending":   {"ordered", "cancelled"},
	"ordered":   {"installed", "cancelled"},
	"installed": {"billing"},
	"billing":   {},
	"cancelled": {},
}

type CircuitOrderResponse struct {
	Success bool          `json:"success" example:"true"`
	Message string        `json:"message" example:"Success"`
	Data    *CircuitOrder `json:"data,omitempty"`
	Error   string        `json:"error,omitempty" example:""`
}

type CircuitOrderListResponse struct {
	Success bool           `json:"success" example:"true"`
	Message string         `json:"message" example:"Success"`
	Data    []CircuitOrder `json:"data,omitempty"`
	Error   string         `json:"error,omitempty" example:""`
}

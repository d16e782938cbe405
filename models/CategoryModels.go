package models

import (
	"time"

	"gorm.io/gorm"
)

// CategoryGorm represents the categories table with GORM tags
type CategoryGorm struct {
	ID            uint           `gorm:"primaryKey;column:id" json:"id" example:"1"`
	Name          string         `gorm:"column:name;not null" json:"name" example:"Dedicated Fiber Internet"`
	Type          string         `gorm:"column:type" json:"type" example:"Fiber"`
	MinimumMarkup float64        `gorm:"column:minimum_markup" json:"minimum_markup" example:"15"`
	CreatedAt     time.Time      `gorm:"column:created_at;not null" json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;not null" json:"updated_at" example:"2024-01-15T10:30:00Z"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for CategoryGorm
func (CategoryGorm) TableName() string {
	return "categories"
}

// Category is a circuit-type classification for API requests/responses.
// MinimumMarkup is the percentage applied to agent-facing prices; zero means
// no markup policy for the category.
type Category struct {
	ID            uint      `json:"id,omitempty" example:"1"`
	Name          string    `json:"name" binding:"required" example:"Dedicated Fiber Internet"`
	Type          string    `json:"type" example:"Fiber"`
	MinimumMarkup float64   `json:"minimum_markup" example:"15"`
	CreatedAt     time.Time `json:"created_at,omitempty" example:"2024-01-15T10:30:00Z"`
	UpdatedAt     time.Time `json:"updated_at,omitempty" example:"2024-01-15T10:30:00Z"`
}

// CategoryResponse represents the response for category operations
type CategoryResponse struct {
	Success bool      `json:"success" example:"true"`
	Message string    `json:"message" example:"Success"`
	Data    *Category `json:"data,omitempty"`
	Error   string    `json:"error,omitempty" example:""`
}

// CategoryListResponse represents the response for category list operations
type CategoryListResponse struct {
	Success bool       `json:"success" example:"true"`
	Message string     `json:"message" example:"Success"`
	Data    []Category `json:"data,omitempty"`
	Error   string     `json:"error,omitempty" example:""`
}

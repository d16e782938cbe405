package models

import (
	"time"

	_ "github.com/lib/pq"
)

type User struct {
	ID          int       `json:"id" example:"1"`
	Email       string    `json:"email" example:"agent@example.com"`
	Password    string    `json:"password" example:""`
	FirstName   string    `json:"first_name" example:"John"`
	LastName    string    `json:"last_name" example:"Doe"`
	IsAdmin     bool      `json:"is_admin" example:"false"`
	PhoneNo     string    `json:"phone_no" example:"5125550134"`
	Company     string    `json:"company" example:"Lone Star Telecom Partners"`
	Suspended   bool      `json:"suspended" example:"false"`
	CreatedAt   time.Time `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt   time.Time `json:"updated_at" example:"2024-01-15T10:30:00Z"`
	FirstAccess time.Time `json:"first_access,omitempty" example:"2024-01-15T10:30:00Z"`
	LastAccess  time.Time `json:"last_access,omitempty" example:"2024-01-15T10:30:00Z"`
}

// Agent is the reseller-side view of a non-admin user, including the
// commission percentage used for payout reporting. The commission rate is
// not part of the displayed-price calculation.
type Agent struct {
	ID             int       `json:"id" example:"4"`
	UserID         int       `json:"user_id" example:"9"`
	FirstName      string    `json:"first_name" example:"Dana"`
	LastName       string    `json:"last_name" example:"Reyes"`
	Email          string    `json:"email" example:"dana@example.com"`
	PhoneNo        string    `json:"phone_no" example:"5125550188"`
	Company        string    `json:"company" example:"Reyes Consulting"`
	CommissionRate float64   `json:"commission_rate" example:"40"`
	Suspended      bool      `json:"suspended" example:"false"`
	CreatedAt      time.Time `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt      time.Time `json:"updated_at" example:"2024-01-15T10:30:00Z"`
}

type Client struct {
	ID            int       `json:"id" example:"12"`
	CompanyName   string    `json:"company_name" example:"Hill Country Medical Group"`
	ContactPerson string    `json:"contact_person" example:"Sam Patel"`
	ContactEmail  string    `json:"contact_email" example:"sam@hcmg.example.com"`
	ContactPhone  string    `json:"contact_phone" example:"2105550101"`
	Address       string    `json:"address" example:"200 Main St"`
	City          string    `json:"city" example:"San Antonio"`
	State         string    `json:"state" example:"TX"`
	ZipCode       string    `json:"zip_code" example:"78205"`
	AgentID       int       `json:"agent_id" example:"4"`
	AgentName     string    `json:"agent_name,omitempty" example:"Dana Reyes"`
	Notes         string    `json:"notes" example:""`
	CreatedAt     time.Time `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt     time.Time `json:"updated_at" example:"2024-01-15T10:30:00Z"`
}

type Session struct {
	UserID                int       `json:"user_id" example:"1"`
	SessionID             string    `json:"session_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	HostName              string    `json:"host_name" example:"agent-laptop"`
	IPAddress             string    `json:"ip_address" example:"192.168.1.10"`
	Timestamp             time.Time `json:"timestp" example:"2024-01-15T10:30:00Z"`
	ExpiresAt             time.Time `json:"expires_at" example:"2024-01-16T10:30:00Z"`
	RefreshToken          string    `json:"refresh_token,omitempty"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required" example:"agent@example.com"`
	Password string `json:"password" binding:"required" example:"secret"`
	IP       string `json:"ip" example:"192.168.1.10"`
}

type LoginResponse struct {
	Message      string `json:"message" example:"Login successful"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	SessionID    string `json:"session_id"`
	IsAdmin      bool   `json:"is_admin" example:"false"`
}

type ValidateSessionResponse struct {
	Valid   bool   `json:"valid" example:"true"`
	UserID  int    `json:"user_id" example:"1"`
	Email   string `json:"email" example:"agent@example.com"`
	IsAdmin bool   `json:"is_admin" example:"false"`
}

type ErrorResponse struct {
	Error   string `json:"error" example:"Invalid request"`
	Details string `json:"details,omitempty"`
}

type Notification struct {
	ID        int       `json:"id" example:"1"`
	UserID    int       `json:"user_id" example:"1"`
	Message   string    `json:"message" example:"Quote #42 pricing is complete"`
	Status    string    `json:"status" example:"unread"`
	Action    string    `json:"action" example:"/quotes/42"`
	CreatedAt time.Time `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt time.Time `json:"updated_at" example:"2024-01-15T10:30:00Z"`
}

type ActivityLog struct {
	ID                int       `json:"id" example:"1"`
	CreatedAt         time.Time `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UserName          string    `json:"user_name" example:"Dana Reyes"`
	HostName          string    `json:"host_name" example:"agent-laptop"`
	EventContext      string    `json:"event_context" example:"Quotes"`
	IPAddress         string    `json:"ip_address" example:"192.168.1.10"`
	Description       string    `json:"description" example:"Marked quote #42 complete"`
	EventName         string    `json:"event_name" example:"quote_complete"`
	AffectedUserName  string    `json:"affected_user_name,omitempty"`
	AffectedUserEmail string    `json:"affected_user_email,omitempty"`
	QuoteID           int       `json:"quote_id,omitempty" example:"42"`
}

type ClientResponse struct {
	Success bool    `json:"success" example:"true"`
	Message string  `json:"message" example:"Success"`
	Data    *Client `json:"data,omitempty"`
	Error   string  `json:"error,omitempty" example:""`
}

type ClientListResponse struct {
	Success bool     `json:"success" example:"true"`
	Message string   `json:"message" example:"Success"`
	Data    []Client `json:"data,omitempty"`
	Error   string   `json:"error,omitempty" example:""`
}

type AgentResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message" example:"Success"`
	Data    *Agent `json:"data,omitempty"`
	Error   string `json:"error,omitempty" example:""`
}

type AgentListResponse struct {
	Success bool    `json:"success" example:"true"`
	Message string  `json:"message" example:"Success"`
	Data    []Agent `json:"data,omitempty"`
	Error   string  `json:"error,omitempty" example:""`
}

package models

import (
	"time"

	_ "github.com/lib/pq"
)

// Quote is one RFQ for a single client location. Carrier quotes hang off it.
type Quote struct {
	ID             int       `json:"id" example:"42"`
	ClientID       int       `json:"client_id" example:"12"`
	ClientName     string    `json:"client_name,omitempty" example:"Hill Country Medical Group"`
	AgentID        int       `json:"agent_id" example:"4"`
	AgentName      string    `json:"agent_name,omitempty" example:"Dana Reyes"`
	LocationName   string    `json:"location_name" example:"Main Office"`
	Address        string    `json:"address" example:"200 Main St"`
	City           string    `json:"city" example:"San Antonio"`
	State          string    `json:"state" example:"TX"`
	ZipCode        string    `json:"zip_code" example:"78205"`
	RequestedSpeed string    `json:"requested_speed" example:"500M x 500M"`
	RequestedTerm  string    `json:"requested_term" example:"36 months"`
	Status         string    `json:"status" example:"open"` // open, complete, accepted, closed
	ExpiresAt      time.Time `json:"expires_at,omitempty" example:"2024-03-15T00:00:00Z"`
	Notes          string    `json:"notes" example:""`
	CreatedBy      int       `json:"created_by" example:"1"`
	CreatedAt      time.Time `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt      time.Time `json:"updated_at" example:"2024-01-15T10:30:00Z"`
}

// CarrierQuote is one vendor's offer for the circuit requested in a quote.
// Price is the base monthly recurring cost before add-ons; zero means the
// vendor has not priced it yet. Fee amounts are stored raw and only applied
// when the matching flag is set.
type CarrierQuote struct {
	ID                 int       `json:"id" example:"7"`
	QuoteID            int       `json:"quote_id" example:"42"`
	Carrier            string    `json:"carrier" example:"Spectrum"`
	Type               string    `json:"type" example:"Fiber"`
	Speed              string    `json:"speed" example:"500M x 500M"`
	Price              float64   `json:"price" example:"450"`
	Term               string    `json:"term" example:"36 months"`
	Notes              string    `json:"notes" example:""`
	Color              string    `json:"color" example:"#2d8cf0"`
	InstallFee         bool      `json:"install_fee" example:"true"`
	InstallFeeAmount   float64   `json:"install_fee_amount" example:"500"`
	StaticIP           bool      `json:"static_ip" example:"false"`
	StaticIPFeeAmount  float64   `json:"static_ip_fee_amount" example:"25"`
	StaticIP5          bool      `json:"static_ip_5" example:"false"`
	StaticIP5FeeAmount float64   `json:"static_ip_5_fee_amount" example:"35"`
	OtherCosts         float64   `json:"other_costs" example:"0"`
	NoService          bool      `json:"no_service" example:"false"`
	SiteSurveyNeeded   bool      `json:"site_survey_needed" example:"false"`
	SiteSurveyPriority string    `json:"site_survey_priority" example:"none"` // none, red, yellow, orange, green
	SortOrder          int       `json:"sort_order" example:"1"`
	CreatedAt          time.Time `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt          time.Time `json:"updated_at" example:"2024-01-15T10:30:00Z"`
}

// PricedCarrierQuote is a carrier quote with the viewer-specific resolved
// price attached, as returned by the priced listing endpoint.
type PricedCarrierQuote struct {
	CarrierQuote
	DisplayPrice           float64  `json:"display_price" example:"517.5"`
	BasePriceWithoutAddOns float64  `json:"base_price_without_addons" example:"450"`
	TickedOptions          []string `json:"ticked_options"`
	ConstructionRisk       string   `json:"construction_risk,omitempty" example:"Construction needed"`
}

type QuoteResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message" example:"Success"`
	Data    *Quote `json:"data,omitempty"`
	Error   string `json:"error,omitempty" example:""`
}

type QuoteListResponse struct {
	Success bool    `json:"success" example:"true"`
	Message string  `json:"message" example:"Success"`
	Data    []Quote `json:"data,omitempty"`
	Error   string  `json:"error,omitempty" example:""`
}

type CarrierQuoteResponse struct {
	Success bool          `json:"success" example:"true"`
	Message string        `json:"message" example:"Success"`
	Data    *CarrierQuote `json:"data,omitempty"`
	Error   string        `json:"error,omitempty" example:""`
}

type CarrierQuoteListResponse struct {
	Success bool           `json:"success" example:"true"`
	Message string         `json:"message" example:"Success"`
	Data    []CarrierQuote `json:"data,omitempty"`
	Error   string         `json:"error,omitempty" example:""`
}

type PricedCarrierQuoteListResponse struct {
	Success bool                 `json:"success" example:"true"`
	Message string               `json:"message" example:"Success"`
	Data    []PricedCarrierQuote `json:"data,omitempty"`
	Error   string               `json:"error,omitempty" example:""`
}

// ReorderRequest carries the new ordering of carrier quotes within a quote.
type ReorderRequest struct {
	CarrierQuoteIDs []int `json:"carrier_quote_ids" binding:"required"`
}

// AcceptRequest marks one carrier quote as the accepted offer for a quote.
type AcceptRequest struct {
	CarrierQuoteID int `json:"carrier_quote_id" binding:"required" example:"7"`
}

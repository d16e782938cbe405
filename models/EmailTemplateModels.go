package models

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// EmailTemplate represents the email_templates table
type EmailTemplate struct {
	ID           int             `json:"id" example:"1"`
	Name         string          `json:"name" example:"Quote Complete"`
	Subject      string          `json:"subject" example:"Pricing ready for {{client_name}}"`
	Body         string          `json:"body" example:"Hello {{agent_name}}"`
	TemplateType string          `json:"template_type" example:"quote_complete"`
	IsDefault    bool            `json:"is_default" example:"false"`
	IsActive     bool            `json:"is_active" example:"true"`
	Variables    json.RawMessage `json:"variables"`
	CC           []string        `json:"cc,omitempty"`
	BCC          []string        `json:"bcc,omitempty"`
	CreatedBy    *int            `json:"created_by"`
	CreatedAt    time.Time       `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt    time.Time       `json:"updated_at" example:"2024-01-15T10:30:00Z"`
	UpdatedBy    *int            `json:"updated_by"`
}

// EmailTemplateVariable represents a single variable in the template
type EmailTemplateVariable struct {
	Key         string `json:"key" example:"agent_name"`
	Description string `json:"description" example:"Name of the agent"`
}

// EmailTemplateRequest represents the request structure for creating/updating templates
type EmailTemplateRequest struct {
	Name         string                  `json:"name" binding:"required" example:"Quote Complete"`
	Subject      string                  `json:"subject" binding:"required" example:"Pricing ready"`
	Body         string                  `json:"body" binding:"required" example:"Hello {{agent_name}}"`
	TemplateType string                  `json:"template_type" binding:"required" example:"quote_complete"`
	IsDefault    bool                    `json:"is_default" example:"false"`
	IsActive     bool                    `json:"is_active" example:"true"`
	Variables    []EmailTemplateVariable `json:"variables"`
	CC           []string                `json:"cc"`
	BCC          []string                `json:"bcc"`
}

// EmailData represents the data structure for email sending with template variables
type EmailData struct {
	ClientName   string `json:"client_name"`
	AgentName    string `json:"agent_name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Role         string `json:"role"`
	CompanyName  string `json:"company_name"`
	QuoteID      string `json:"quote_id"`
	Location     string `json:"location"`
	CarrierTable string `json:"carrier_table"`
	PortalURL    string `json:"portal_url"`
	SupportEmail string `json:"support_email"`
}

// GetDefaultTemplate retrieves the default template for a given type
func GetDefaultTemplate(db *sql.DB, templateType string) (*EmailTemplate, error) {
	var template EmailTemplate
	query := `
		SELECT id, name, subject, body, template_type, is_default, is_active,
		       variables, cc, bcc, created_by, created_at, updated_at, updated_by
		FROM email_templates
		WHERE template_type = $1 AND is_default = true AND is_active = true
		ORDER BY created_at DESC
		LIMIT 1`

	err := db.QueryRow(query, templateType).Scan(
		&template.ID, &template.Name, &template.Subject, &template.Body,
		&template.TemplateType, &template.IsDefault, &template.IsActive,
		&template.Variables, pq.Array(&template.CC), pq.Array(&template.BCC),
		&template.CreatedBy, &template.CreatedAt, &template.UpdatedAt, &template.UpdatedBy,
	)
	if err != nil {
		return nil, err
	}

	return &template, nil
}

// GetAllTemplates retrieves every active template.
func GetAllTemplates(db *sql.DB) ([]EmailTemplate, error) {
	rows, err := db.Query(`
		SELECT id, name, subject, body, template_type, is_default, is_active,
		       variables, cc, bcc, created_by, created_at, updated_at, updated_by
		FROM email_templates
		WHERE is_active = true
		ORDER BY template_type, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []EmailTemplate
	for rows.Next() {
		var t EmailTemplate
		if err := rows.Scan(
			&t.ID, &t.Name, &t.Subject, &t.Body,
			&t.TemplateType, &t.IsDefault, &t.IsActive,
			&t.Variables, pq.Array(&t.CC), pq.Array(&t.BCC),
			&t.CreatedBy, &t.CreatedAt, &t.UpdatedAt, &t.UpdatedBy,
		); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// GetTemplateByID retrieves a template by its ID
func GetTemplateByID(db *sql.DB, id int) (*EmailTemplate, error) {
	var template EmailTemplate
	query := `
		SELECT id, name, subject, body, template_type, is_default, is_active,
		       variables, cc, bcc, created_by, created_at, updated_at, updated_by
		FROM email_templates
		WHERE id = $1`

	err := db.QueryRow(query, id).Scan(
		&template.ID, &template.Name, &template.Subject, &template.Body,
		&template.TemplateType, &template.IsDefault, &template.IsActive,
		&template.Variables, pq.Array(&template.CC), pq.Array(&template.BCC),
		&template.CreatedBy, &template.CreatedAt, &template.UpdatedAt, &template.UpdatedBy,
	)
	if err != nil {
		return nil, err
	}

	return &template, nil
}

package services

import (
	"database/sql"
	"fmt"
	"net/smtp"
	"os"
	"strings"

	"carrierdesk/models"

	"golang.org/x/net/html"
)

// EmailService handles email operations with template support
type EmailService struct {
	db *sql.DB
}

// NewEmailService creates a new email service instance
func NewEmailService(db *sql.DB) *EmailService {
	return &EmailService{db: db}
}

// convertHTMLToText converts HTML content to plain text for the text part of
// outbound emails.
func convertHTMLToText(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return htmlContent
	}

	var text strings.Builder
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			text.WriteString(n.Data)
		case html.ElementNode:
			switch n.Data {
			case "p", "div", "br", "h1", "h2", "h3", "h4", "h5", "h6", "table", "tr":
				text.WriteString("\n")
			case "li":
				text.WriteString("- ")
			case "td", "th":
				text.WriteString(" | ")
			}
		}

		for child := n.FirstChild; child != nil; child = child.NextSibling {
			extractText(child)
		}
	}

	extractText(doc)

	result := text.String()
	result = strings.ReplaceAll(result, "\n\n\n", "\n\n")
	return strings.TrimSpace(result)
}

// PreviewEmailAsText converts an HTML template to plain text for preview
// purposes, after variable substitution.
func (es *EmailService) PreviewEmailAsText(htmlContent string, emailData models.EmailData) (string, error) {
	processedContent := ProcessTemplate(htmlContent, emailData)
	return convertHTMLToText(processedContent), nil
}

// SendTemplatedEmail sends an email using a stored template with variable
// substitution. A custom template ID overrides the default for the type.
func (es *EmailService) SendTemplatedEmail(templateType string, emailData models.EmailData, customTemplateID *int) error {
	var emailTemplate *models.EmailTemplate
	var err error

	if customTemplateID != nil {
		emailTemplate, err = models.GetTemplateByID(es.db, *customTemplateID)
		if err != nil {
			return fmt.Errorf("failed to get custom template (ID: %d): %v", *customTemplateID, err)
		}
		if emailTemplate.TemplateType != templateType {
			return fmt.Errorf("custom template type mismatch: expected %s, got %s", templateType, emailTemplate.TemplateType)
		}
	} else {
		emailTemplate, err = models.GetDefaultTemplate(es.db, templateType)
		if err != nil {
			return fmt.Errorf("failed to get default template for type '%s': %v", templateType, err)
		}
	}

	subject := ProcessTemplate(emailTemplate.Subject, emailData)
	body := ProcessTemplate(emailTemplate.Body, emailData)

	return es.SendHTMLEmail(emailData.Email, subject, body, emailTemplate.CC, emailTemplate.BCC)
}

// ProcessTemplate substitutes {{variable}} placeholders in a template string.
func ProcessTemplate(templateStr string, data models.EmailData) string {
	variables := map[string]string{
		"client_name":   data.ClientName,
		"agent_name":    data.AgentName,
		"email":         data.Email,
		"password":      data.Password,
		"role":          data.Role,
		"company_name":  data.CompanyName,
		"quote_id":      data.QuoteID,
		"location":      data.Location,
		"carrier_table": data.CarrierTable,
		"portal_url":    data.PortalURL,
		"support_email": data.SupportEmail,
	}

	result := templateStr
	for key, value := range variables {
		placeholder := fmt.Sprintf("{{%s}}", key)
		result = strings.ReplaceAll(result, placeholder, value)
	}

	return result
}

// SendHTMLEmail sends an HTML email with optional CC and BCC over SMTP.
func (es *EmailService) SendHTMLEmail(to, subject, htmlBody string, cc, bcc []string) error {
	smtpHost := os.Getenv("SMTP_HOST")
	smtpPort := os.Getenv("SMTP_PORT")
	smtpUser := os.Getenv("SMTP_USER")
	smtpPassword := os.Getenv("SMTP_PASSWORD")
	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = smtpUser
	}
	if smtpPort == "" {
		smtpPort = "587"
	}

	auth := smtp.PlainAuth("", smtpUser, smtpPassword, smtpHost)

	toList := []string{to}
	toList = append(toList, cc...)
	toList = append(toList, bcc...)

	headers := []string{
		"From: " + from,
		"To: " + to,
	}
	if len(cc) > 0 {
		headers = append(headers, "Cc: "+strings.Join(cc, ", "))
	}
	headers = append(headers,
		"Subject: "+subject,
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=\"UTF-8\"",
		"",
		htmlBody,
	)

	msg := []byte(strings.Join(headers, "\r\n") + "\r\n")

	return smtp.SendMail(smtpHost+":"+smtpPort, auth, from, toList, msg)
}

// SendWelcomeAgentEmail sends a welcome email to a newly created agent.
func (es *EmailService) SendWelcomeAgentEmail(user models.User, customTemplateID *int) error {
	emailData := models.EmailData{
		AgentName:    user.FirstName + " " + user.LastName,
		Email:        user.Email,
		Password:     user.Password,
		Role:         "Agent",
		CompanyName:  user.Company,
		PortalURL:    portalURL(),
		SupportEmail: supportEmail(),
	}

	return es.SendTemplatedEmail("welcome_agent", emailData, customTemplateID)
}

// SendWelcomeClientEmail sends a welcome email to a new client contact.
func (es *EmailService) SendWelcomeClientEmail(client models.Client, customTemplateID *int) error {
	emailData := models.EmailData{
		ClientName:   client.ContactPerson,
		Email:        client.ContactEmail,
		CompanyName:  client.CompanyName,
		PortalURL:    portalURL(),
		SupportEmail: supportEmail(),
	}

	return es.SendTemplatedEmail("welcome_client", emailData, customTemplateID)
}

func portalURL() string {
	if url := os.Getenv("PORTAL_URL"); url != "" {
		return url
	}
	return "https://portal.carrierdesk.example.com"
}

func supportEmail() string {
	if addr := os.Getenv("SUPPORT_EMAIL"); addr != "" {
		return addr
	}
	return "support@carrierdesk.example.com"
}

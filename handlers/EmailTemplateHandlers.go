package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"carrierdesk/models"
	"carrierdesk/services"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"golang.org/x/net/html"
)

var validTemplateTypes = []string{"welcome_agent", "welcome_client", "quote_complete", "quote_expiring"}

func isValidTemplateType(t string) bool {
	for _, v := range validTemplateTypes {
		if t == v {
			return true
		}
	}
	return false
}

// CreateEmailTemplate creates a new email template
// @Summary Create email template
// @Tags Email Templates
// @Accept json
// @Produce json
// @Param template body models.EmailTemplateRequest true "Email template data"
// @Success 201 {object} models.EmailTemplate
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /api/email-templates [post]
func CreateEmailTemplate(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := RequireSessionUser(c, db)
		if !ok {
			return
		}
		if !user.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only administrators can manage email templates"})
			return
		}

		var request models.EmailTemplateRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}

		if !isValidTemplateType(request.TemplateType) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid template type", "valid_types": validTemplateTypes})
			return
		}

		tx, err := db.Begin()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
			return
		}
		defer tx.Rollback()

		// Only one default per type.
		if request.IsDefault {
			if _, err := tx.Exec("UPDATE email_templates SET is_default = false WHERE template_type = $1", request.TemplateType); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update existing defaults"})
				return
			}
		}

		sanitizedBody := sanitizeHTML(request.Body)

		variablesJSON, err := json.Marshal(request.Variables)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process variables"})
			return
		}

		var templateID int
		err = tx.QueryRow(`
			INSERT INTO email_templates (name, subject, body, template_type, is_default, is_active, variables, cc, bcc, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id`,
			request.Name, request.Subject, sanitizedBody, request.TemplateType,
			request.IsDefault, request.IsActive, variablesJSON, pq.Array(request.CC), pq.Array(request.BCC), user.ID,
		).Scan(&templateID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create template", "details": err.Error()})
			return
		}

		if err := tx.Commit(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit transaction"})
			return
		}

		logTemplateActivity(db, c, user, "template_create", fmt.Sprintf("Created email template '%s'", request.Name))

		template, err := models.GetTemplateByID(db, templateID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Template created but failed to retrieve"})
			return
		}

		c.JSON(http.StatusCreated, template)
	}
}

// GetEmailTemplates retrieves all active email templates
// @Summary Get all email templates
// @Tags Email Templates
// @Produce json
// @Success 200 {array} models.EmailTemplate
// @Failure 403 {object} models.ErrorResponse
// @Router /api/email-templates [get]
func GetEmailTemplates(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := RequireSessionUser(c, db)
		if !ok {
			return
		}
		if !user.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only administrators can manage email templates"})
			return
		}

		templates, err := models.GetAllTemplates(db)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve templates", "details": err.Error()})
			return
		}

		c.JSON(http.StatusOK, templates)
	}
}

// GetEmailTemplateByID retrieves a specific email template
// @Summary Get email template by ID
// @Tags Email Templates
// @Produce json
// @Param id path int true "Template ID"
// @Success 200 {object} models.EmailTemplate
// @Failure 404 {object} models.ErrorResponse
// @Router /api/email-templates/{id} [get]
func GetEmailTemplateByID(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := RequireSessionUser(c, db)
		if !ok {
			return
		}
		if !user.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only administrators can manage email templates"})
			return
		}

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid template ID"})
			return
		}

		template, err := models.GetTemplateByID(db, id)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve template", "details": err.Error()})
			}
			return
		}

		c.JSON(http.StatusOK, template)
	}
}

// UpdateEmailTemplate updates an existing email template
// @Summary Update email template
// @Tags Email Templates
// @Accept json
// @Produce json
// @Param id path int true "Template ID"
// @Param template body models.EmailTemplateRequest true "Updated email template data"
// @Success 200 {object} models.EmailTemplate
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/email-templates/{id} [put]
func UpdateEmailTemplate(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := RequireSessionUser(c, db)
		if !ok {
			return
		}
		if !user.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only administrators can manage email templates"})
			return
		}

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid template ID"})
			return
		}

		var request models.EmailTemplateRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}
		if !isValidTemplateType(request.TemplateType) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid template type", "valid_types": validTemplateTypes})
			return
		}

		if _, err := models.GetTemplateByID(db, id); err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve template"})
			}
			return
		}

		tx, err := db.Begin()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
			return
		}
		defer tx.Rollback()

		if request.IsDefault {
			if _, err := tx.Exec("UPDATE email_templates SET is_default = false WHERE template_type = $1 AND id != $2",
				request.TemplateType, id); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update existing defaults"})
				return
			}
		}

		sanitizedBody := sanitizeHTML(request.Body)

		variablesJSON, err := json.Marshal(request.Variables)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process variables"})
			return
		}

		result, err := tx.Exec(`
			UPDATE email_templates
			SET name = $1, subject = $2, body = $3, template_type = $4,
			    is_default = $5, is_active = $6, variables = $7, cc = $8, bcc = $9, updated_by = $10
			WHERE id = $11`,
			request.Name, request.Subject, sanitizedBody, request.TemplateType,
			request.IsDefault, request.IsActive, variablesJSON, pq.Array(request.CC), pq.Array(request.BCC), user.ID, id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update template", "details": err.Error()})
			return
		}

		rowsAffected, _ := result.RowsAffected()
		if rowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
			return
		}

		if err := tx.Commit(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit transaction"})
			return
		}

		logTemplateActivity(db, c, user, "template_update", fmt.Sprintf("Updated email template '%s'", request.Name))

		template, err := models.GetTemplateByID(db, id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Template updated but failed to retrieve"})
			return
		}

		c.JSON(http.StatusOK, template)
	}
}

// DeleteEmailTemplate soft-deletes an email template
// @Summary Delete email template
// @Tags Email Templates
// @Produce json
// @Param id path int true "Template ID"
// @Success 200 {object} object
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/email-templates/{id} [delete]
func DeleteEmailTemplate(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := RequireSessionUser(c, db)
		if !ok {
			return
		}
		if !user.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only administrators can manage email templates"})
			return
		}

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid template ID"})
			return
		}

		existingTemplate, err := models.GetTemplateByID(db, id)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve template"})
			}
			return
		}

		if existingTemplate.IsDefault {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot delete default template. Please set another template as default first."})
			return
		}

		result, err := db.Exec("UPDATE email_templates SET is_active = false WHERE id = $1", id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete template", "details": err.Error()})
			return
		}

		rowsAffected, _ := result.RowsAffected()
		if rowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
			return
		}

		logTemplateActivity(db, c, user, "template_delete", fmt.Sprintf("Deleted email template '%s'", existingTemplate.Name))

		c.JSON(http.StatusOK, gin.H{"message": "Template deleted successfully"})
	}
}

// PreviewEmailTemplate renders a template with sample data
// @Summary Preview email template
// @Tags Email Templates
// @Produce json
// @Param id path int true "Template ID"
// @Success 200 {object} object
// @Failure 404 {object} models.ErrorResponse
// @Router /api/email-templates/{id}/preview [get]
func PreviewEmailTemplate(db *sql.DB, emailService *services.EmailService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := RequireSessionUser(c, db)
		if !ok {
			return
		}
		if !user.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only administrators can manage email templates"})
			return
		}

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid template ID"})
			return
		}

		template, err := models.GetTemplateByID(db, id)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve template"})
			}
			return
		}

		sample := models.EmailData{
			ClientName:   "Hill Country Medical Group",
			AgentName:    "Dana Reyes",
			Email:        "dana@example.com",
			CompanyName:  "Reyes Consulting",
			QuoteID:      "42",
			Location:     "200 Main St, San Antonio, TX, 78205",
			CarrierTable: "<table><tr><td>Spectrum</td><td>$517.50/mo</td></tr></table>",
			PortalURL:    "https://portal.example.com",
			SupportEmail: "support@example.com",
		}

		htmlBody := services.ProcessTemplate(template.Body, sample)
		textBody, err := emailService.PreviewEmailAsText(template.Body, sample)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render preview"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"subject": services.ProcessTemplate(template.Subject, sample),
			"html":    htmlBody,
			"text":    textBody,
		})
	}
}

// sanitizeHTML strips disallowed tags and attributes from editor content.
func sanitizeHTML(input string) string {
	doc, err := html.Parse(strings.NewReader(input))
	if err != nil {
		return input
	}

	allowedTags := map[string]bool{
		"p": true, "br": true, "strong": true, "b": true, "em": true, "i": true,
		"u": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
		"ul": true, "ol": true, "li": true, "div": true, "span": true, "a": true,
		"table": true, "thead": true, "tbody": true, "tr": true, "th": true, "td": true,
		"blockquote": true, "code": true, "pre": true, "hr": true,
	}

	allowedAttributes := map[string]map[string]bool{
		"a":     {"href": true, "target": true, "title": true},
		"table": {"border": true, "cellpadding": true, "cellspacing": true, "width": true},
		"td":    {"colspan": true, "rowspan": true, "width": true, "height": true},
		"th":    {"colspan": true, "rowspan": true, "width": true, "height": true},
	}

	// Tags whose content must go with them; unwrapping a script would leave
	// its source behind as literal text.
	droppedTags := map[string]bool{
		"script": true, "style": true, "iframe": true, "object": true,
		"embed": true, "noscript": true,
	}

	var newDoc html.Node
	newDoc.Type = html.DocumentNode

	var processNode func(*html.Node, *html.Node)
	processNode = func(src *html.Node, dst *html.Node) {
		for child := src.FirstChild; child != nil; child = child.NextSibling {
			switch child.Type {
			case html.TextNode:
				dst.AppendChild(&html.Node{Type: html.TextNode, Data: child.Data})
			case html.ElementNode:
				if droppedTags[child.Data] {
					continue
				}
				if allowedTags[child.Data] {
					newElement := &html.Node{Type: html.ElementNode, Data: child.Data}
					for _, attr := range child.Attr {
						if allowedAttributes[child.Data] != nil && allowedAttributes[child.Data][attr.Key] {
							newElement.Attr = append(newElement.Attr, attr)
						}
					}
					dst.AppendChild(newElement)
					processNode(child, newElement)
				} else {
					// Disallowed tags keep their content only.
					processNode(child, dst)
				}
			}
		}
	}

	processNode(doc, &newDoc)

	var buf strings.Builder
	if err := html.Render(&buf, &newDoc); err != nil {
		return input
	}

	result := buf.String()

	// html.Render wraps fragments in <html><head></head><body>.
	if strings.HasPrefix(result, "<html>") {
		start := strings.Index(result, "<body>")
		end := strings.Index(result, "</body>")
		if start != -1 && end != -1 {
			result = result[start+6 : end]
		}
	}

	return strings.TrimSpace(result)
}

func logTemplateActivity(db *sql.DB, c *gin.Context, user *models.User, event, description string) {
	entry := models.ActivityLog{
		CreatedAt:    time.Now(),
		UserName:     user.FirstName + " " + user.LastName,
		HostName:     c.Request.Host,
		EventContext: "Email Templates",
		IPAddress:    c.ClientIP(),
		Description:  description,
		EventName:    event,
	}
	if err := SaveActivityLog(db, entry); err != nil {
		log.Printf("Failed to save activity log: %v", err)
	}
}

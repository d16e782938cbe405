package handlers

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"carrierdesk/models"
	"carrierdesk/services"

	"github.com/gin-gonic/gin"
)

// ==================== CLIENT CRUD OPERATIONS ====================

// CreateClient creates a new client organization
// @Summary Create client
// @Tags Clients
// @Accept json
// @Produce json
// @Param request body models.Client true "Client creation request"
// @Success 201 {object} models.ClientResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /api/clients [post]
func CreateClient(db *sql.DB, emailService *services.EmailService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := RequireSessionUser(c, db)
		if !ok {
			return
		}

		var client models.Client
		if err := c.ShouldBindJSON(&client); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if client.CompanyName == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "company_name is required"})
			return
		}

		// Agents may only create clients under their own agency.
		if !user.IsAdmin {
			var agentID int
			if err := db.QueryRow(`SELECT id FROM agents WHERE user_id = $1`, user.ID).Scan(&agentID); err != nil {
				c.JSON(http.StatusForbidden, gin.H{"error": "No agent record for this user"})
				return
			}
			client.AgentID = agentID
		}

		err := db.QueryRow(`
			INSERT INTO clients (company_name, contact_person, contact_email, contact_phone,
			                     address, city, state, zip_code, agent_id, notes, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING id`,
			client.CompanyName, client.ContactPerson, client.ContactEmail, client.ContactPhone,
			client.Address, client.City, client.State, client.ZipCode, nullableID(client.AgentID), client.Notes,
			time.Now(), time.Now(),
		).Scan(&client.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create client", "details": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, models.ClientResponse{
			Success: true,
			Message: "Client created successfully",
			Data:    &client,
		})

		if client.ContactEmail != "" {
			go func(cl models.Client) {
				if err := emailService.SendWelcomeClientEmail(cl, nil); err != nil {
					log.Printf("Failed to send welcome email to client %d: %v", cl.ID, err)
				}
			}(client)
		}

		logClientActivity(db, c, user, "client_create", fmt.Sprintf("Created client %s", client.CompanyName))
	}
}

// GetClients lists clients visible to the caller
// @Summary List clients
// @Tags Clients
// @Produce json
// @Success 200 {object} models.ClientListResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /api/clients [get]
func GetClients(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := RequireSessionUser(c, db)
		if !ok {
			return
		}

		query := `
			SELECT c.id, c.company_name, c.contact_person, c.contact_email, c.contact_phone,
			       c.address, c.city, c.state, c.zip_code, COALESCE(c.agent_id, 0),
			       COALESCE(c.notes, ''), c.created_at, c.updated_at,
			       COALESCE(CONCAT(u.first_name, ' ', u.last_name), '')
			FROM clients c
			LEFT JOIN agents a ON a.id = c.agent_id
			LEFT JOIN users u ON u.id = a.user_id`

		var rows *sql.Rows
		var err error
		if user.IsAdmin {
			rows, err = db.Query(query + ` ORDER BY c.company_name`)
		} else {
			rows, err = db.Query(query+` WHERE a.user_id = $1 ORDER BY c.company_name`, user.ID)
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch clients"})
			return
		}
		defer rows.Close()

		var clients []models.Client
		for rows.Next() {
			var cl models.Client
			if err := rows.Scan(
				&cl.ID, &cl.CompanyName, &cl.ContactPerson, &cl.ContactEmail, &cl.ContactPhone,
				&cl.Address, &cl.City, &cl.State, &cl.ZipCode, &cl.AgentID,
				&cl.Notes, &cl.CreatedAt, &cl.UpdatedAt, &cl.AgentName,
			); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan client"})
				return
			}
			clients = append(clients, cl)
		}

		c.JSON(http.StatusOK, models.ClientListResponse{
			Success: true,
			Message: "Clients fetched successfully",
			Data:    clients,
		})
	}
}

// GetClient fetches a single client
// @Summary Get client
// @Tags Clients
// @Param id path int true "Client ID"
// @Success 200 {object} models.ClientResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/clients/{id} [get]
func GetClient(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := RequireSessionUser(c, db); !ok {
			return
		}

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid client ID"})
			return
		}

		var cl models.Client
		var notes sql.NullString
		err = db.QueryRow(`
			SELECT c.id, c.company_name, c.contact_person, c.contact_email, c.contact_phone,
			       c.address, c.city, c.state, c.zip_code, COALESCE(c.agent_id, 0), c.notes,
			       c.created_at, c.updated_at,
			       COALESCE(CONCAT(u.first_name, ' ', u.last_name), '')
			FROM clients c
			LEFT JOIN agents a ON a.id = c.agent_id
			LEFT JOIN users u ON u.id = a.user_id
			WHERE c.id = $1`, id).Scan(
			&cl.ID, &cl.CompanyName, &cl.ContactPerson, &cl.ContactEmail, &cl.ContactPhone,
			&cl.Address, &cl.City, &cl.State, &cl.ZipCode, &cl.AgentID, &notes,
			&cl.CreatedAt, &cl.UpdatedAt, &cl.AgentName,
		)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
			return
		} else if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch client"})
			return
		}
		cl.Notes = notes.String

		c.JSON(http.StatusOK, models.ClientResponse{
			Success: true,
			Message: "Client fetched successfully",
			Data:    &cl,
		})
	}
}

// UpdateClient updates a client
// @Summary Update client
// @Tags Clients
// @Accept json
// @Produce json
// @Param id path int true "Client ID"
// @Param request body models.Client true "Client update request"
// @Success 200 {object} models.ClientResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/clients/{id} [put]
func UpdateClient(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := RequireSessionUser(c, db)
		if !ok {
			return
		}

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid client ID"})
			return
		}

		var client models.Client
		if err := c.ShouldBindJSON(&client); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result, err := db.Exec(`
			UPDATE clients SET company_name = $1, contact_person = $2, contact_email = $3,
			       contact_phone = $4, address = $5, city = $6, state = $7, zip_code = $8,
			       agent_id = $9, notes = $10, updated_at = $11
			WHERE id = $12`,
			client.CompanyName, client.ContactPerson, client.ContactEmail,
			client.ContactPhone, client.Address, client.City, client.State, client.ZipCode,
			nullableID(client.AgentID), client.Notes, time.Now(), id,
		)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update client"})
			return
		}

		rowsAffected, _ := result.RowsAffected()
		if rowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
			return
		}

		client.ID = id

		c.JSON(http.StatusOK, models.ClientResponse{
			Success: true,
			Message: "Client updated successfully",
			Data:    &client,
		})

		logClientActivity(db, c, user, "client_update", fmt.Sprintf("Updated client %s", client.CompanyName))
	}
}

// DeleteClient removes a client
// @Summary Delete client
// @Tags Clients
// @Param id path int true "Client ID"
// @Success 200 {object} models.ClientResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/clients/{id} [delete]
func DeleteClient(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := RequireSessionUser(c, db)
		if !ok {
			return
		}
		if !user.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only administrators can delete clients"})
			return
		}

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid client ID"})
			return
		}

		var openQuotes int
		if err := db.QueryRow(`SELECT COUNT(*) FROM quotes WHERE client_id = $1 AND status IN ('open', 'complete')`, id).Scan(&openQuotes); err == nil && openQuotes > 0 {
			c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("Client has %d open quotes", openQuotes)})
			return
		}

		result, err := db.Exec(`DELETE FROM clients WHERE id = $1`, id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete client"})
			return
		}

		rowsAffected, _ := result.RowsAffected()
		if rowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
			return
		}

		c.JSON(http.StatusOK, models.ClientResponse{
			Success: true,
			Message: "Client deleted successfully",
		})

		logClientActivity(db, c, user, "client_delete", fmt.Sprintf("Deleted client %d", id))
	}
}

func nullableID(id int) interface{} {
	if id == 0 {
		return nil
	}
	return id
}

func logClientActivity(db *sql.DB, c *gin.Context, user *models.User, event, description string) {
	entry := models.ActivityLog{
		CreatedAt:    time.Now(),
		UserName:     user.FirstName + " " + user.LastName,
		HostName:     c.Request.Host,
		EventContext: "Clients",
		IPAddress:    c.ClientIP(),
		Description:  description,
		EventName:    event,
	}
	if err := SaveActivityLog(db, entry); err != nil {
		log.Printf("Failed to save activity log: %v", err)
	}
}

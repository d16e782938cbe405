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
	"carrierdesk/utils"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
)

type CreateAgentRequest struct {
	Email          string  `json:"email" binding:"required" example:"dana@example.com"`
	Password       string  `json:"password" binding:"required" example:"changeme"`
	FirstName      string  `json:"first_name" binding:"required" example:"Dana"`
	LastName       string  `json:"last_name" binding:"required" example:"Reyes"`
	PhoneNo        string  `json:"phone_no" example:"5125550188"`
	Company        string  `json:"company" example:"Reyes Consulting"`
	CommissionRate float64 `json:"commission_rate" example:"40"`
}

type UpdateAgentRequest struct {
	FirstName      string  `json:"first_name" example:"Dana"`
	LastName       string  `json:"last_name" example:"Reyes"`
	PhoneNo        string  `json:"phone_no" example:"5125550188"`
	Company        string  `json:"company" example:"Reyes Consulting"`
	CommissionRate float64 `json:"commission_rate" example:"40"`
	Suspended      bool    `json:"suspended" example:"false"`
}

// ==================== AGENT CRUD OPERATIONS ====================

// CreateAgent creates a user account and its agent record
// @Summary Create agent
// @Tags Agents
// @Accept json
// @Produce json
// @Param request body CreateAgentRequest true "Agent creation request"
// @Success 201 {object} models.AgentResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/agents [post]
func CreateAgent(db *sql.DB, emailService *services.EmailService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := RequireSessionUser(c, db)
		if !ok {
			return
		}
		if !user.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only administrators can create agents"})
			return
		}

		var req CreateAgentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		hashed, err := utils.HashPassword(req.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}

		tx, err := db.Begin()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
			return
		}
		defer tx.Rollback()

		var userID int
		err = tx.QueryRow(`
			INSERT INTO users (email, password, first_name, last_name, phone_no, company,
			                   is_admin, suspended, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, false, false, $7, $8)
			RETURNING id`,
			req.Email, hashed, req.FirstName, req.LastName, req.PhoneNo, req.Company,
			time.Now(), time.Now(),
		).Scan(&userID)
		if err != nil {
			if pqErr, isPQ := err.(*pq.Error); isPQ && pqErr.Code == "23505" {
				c.JSON(http.StatusConflict, gin.H{"error": "A user with this email already exists"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user", "details": err.Error()})
			return
		}

		var agentID int
		err = tx.QueryRow(`
			INSERT INTO agents (user_id, commission_rate, created_at, updated_at)
			VALUES ($1, $2, $3, $4)
			RETURNING id`,
			userID, req.CommissionRate, time.Now(), time.Now(),
		).Scan(&agentID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create agent", "details": err.Error()})
			return
		}

		if err := tx.Commit(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit transaction"})
			return
		}

		agent := models.Agent{
			ID:             agentID,
			UserID:         userID,
			FirstName:      req.FirstName,
			LastName:       req.LastName,
			Email:          req.Email,
			PhoneNo:        req.PhoneNo,
			Company:        req.Company,
			CommissionRate: req.CommissionRate,
			CreatedAt:      time.Now(),
			UpdatedAt:      time.Now(),
		}

		c.JSON(http.StatusCreated, models.AgentResponse{
			Success: true,
			Message: "Agent created successfully",
			Data:    &agent,
		})

		go func(u models.User, plain string) {
			u.Password = plain
			if err := emailService.SendWelcomeAgentEmail(u, nil); err != nil {
				log.Printf("Failed to send welcome email to agent %s: %v", u.Email, err)
			}
		}(models.User{
			ID:        userID,
			Email:     req.Email,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Company:   req.Company,
		}, req.Password)

		logAgentActivity(db, c, user, "agent_create", fmt.Sprintf("Created agent %s %s", req.FirstName, req.LastName))
	}
}

// GetAgents lists all agents
// @Summary List agents
// @Tags Agents
// @Produce json
// @Success 200 {object} models.AgentListResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /api/agents [get]
func GetAgents(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := RequireSessionUser(c, db)
		if !ok {
			return
		}
		if !user.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only administrators can list agents"})
			return
		}

		rows, err := db.Query(`
			SELECT a.id, a.user_id, u.first_name, u.last_name, u.email,
			       COALESCE(u.phone_no, ''), COALESCE(u.company, ''),
			       COALESCE(a.commission_rate, 0), u.suspended, a.created_at, a.updated_at
			FROM agents a
			JOIN users u ON u.id = a.user_id
			ORDER BY u.last_name, u.first_name`)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch agents"})
			return
		}
		defer rows.Close()

		var agents []models.Agent
		for rows.Next() {
			var a models.Agent
			if err := rows.Scan(
				&a.ID, &a.UserID, &a.FirstName, &a.LastName, &a.Email,
				&a.PhoneNo, &a.Company, &a.CommissionRate, &a.Suspended,
				&a.CreatedAt, &a.UpdatedAt,
			); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan agent"})
				return
			}
			agents = append(agents, a)
		}

		c.JSON(http.StatusOK, models.AgentListResponse{
			Success: true,
			Message: "Agents fetched successfully",
			Data:    agents,
		})
	}
}

// GetAgent fetches a single agent
// @Summary Get agent
// @Tags Agents
// @Param id path int true "Agent ID"
// @Success 200 {object} models.AgentResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/agents/{id} [get]
func GetAgent(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := RequireSessionUser(c, db)
		if !ok {
			return
		}

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid agent ID"})
			return
		}

		var a models.Agent
		err = db.QueryRow(`
			SELECT a.id, a.user_id, u.first_name, u.last_name, u.email,
			       COALESCE(u.phone_no, ''), COALESCE(u.company, ''),
			       COALESCE(a.commission_rate, 0), u.suspended, a.created_at, a.updated_at
			FROM agents a
			JOIN users u ON u.id = a.user_id
			WHERE a.id = $1`, id).Scan(
			&a.ID, &a.UserID, &a.FirstName, &a.LastName, &a.Email,
			&a.PhoneNo, &a.Company, &a.CommissionRate, &a.Suspended,
			&a.CreatedAt, &a.UpdatedAt,
		)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Agent not found"})
			return
		} else if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch agent"})
			return
		}

		// Agents can see their own record, admins can see anyone.
		if !user.IsAdmin && a.UserID != user.ID {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return
		}

		c.JSON(http.StatusOK, models.AgentResponse{
			Success: true,
			Message: "Agent fetched successfully",
			Data:    &a,
		})
	}
}

// UpdateAgent updates an agent and its user record
// @Summary Update agent
// @Tags Agents
// @Accept json
// @Produce json
// @Param id path int true "Agent ID"
// @Param request body UpdateAgentRequest true "Agent update request"
// @Success 200 {object} models.AgentResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/agents/{id} [put]
func UpdateAgent(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := RequireSessionUser(c, db)
		if !ok {
			return
		}
		if !user.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only administrators can update agents"})
			return
		}

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid agent ID"})
			return
		}

		var req UpdateAgentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var userID int
		if err := db.QueryRow(`SELECT user_id FROM agents WHERE id = $1`, id).Scan(&userID); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Agent not found"})
			return
		}

		tx, err := db.Begin()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
			return
		}
		defer tx.Rollback()

		if _, err := tx.Exec(`
			UPDATE users SET first_name = $1, last_name = $2, phone_no = $3,
			       company = $4, suspended = $5, updated_at = $6
			WHERE id = $7`,
			req.FirstName, req.LastName, req.PhoneNo, req.Company, req.Suspended, time.Now(), userID,
		); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
			return
		}

		if _, err := tx.Exec(`
			UPDATE agents SET commission_rate = $1, updated_at = $2 WHERE id = $3`,
			req.CommissionRate, time.Now(), id,
		); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update agent"})
			return
		}

		if err := tx.Commit(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit transaction"})
			return
		}

		c.JSON(http.StatusOK, models.AgentResponse{
			Success: true,
			Message: "Agent updated successfully",
		})

		logAgentActivity(db, c, user, "agent_update", fmt.Sprintf("Updated agent %d", id))
	}
}

// DeleteAgent suspends the agent's user account rather than removing rows
// @Summary Suspend agent
// @Tags Agents
// @Param id path int true "Agent ID"
// @Success 200 {object} models.AgentResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/agents/{id} [delete]
func DeleteAgent(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := RequireSessionUser(c, db)
		if !ok {
			return
		}
		if !user.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only administrators can suspend agents"})
			return
		}

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid agent ID"})
			return
		}

		result, err := db.Exec(`
			UPDATE users SET suspended = true, updated_at = NOW()
			WHERE id = (SELECT user_id FROM agents WHERE id = $1)`, id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to suspend agent"})
			return
		}

		rowsAffected, _ := result.RowsAffected()
		if rowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Agent not found"})
			return
		}

		c.JSON(http.StatusOK, models.AgentResponse{
			Success: true,
			Message: "Agent suspended successfully",
		})

		logAgentActivity(db, c, user, "agent_suspend", fmt.Sprintf("Suspended agent %d", id))
	}
}

func logAgentActivity(db *sql.DB, c *gin.Context, user *models.User, event, description string) {
	entry := models.ActivityLog{
		CreatedAt:    time.Now(),
		UserName:     user.FirstName + " " + user.LastName,
		HostName:     c.Request.Host,
		EventContext: "Agents",
		IPAddress:    c.ClientIP(),
		Description:  description,
		EventName:    event,
	}
	if err := SaveActivityLog(db, entry); err != nil {
		log.Printf("Failed to save activity log: %v", err)
	}
}

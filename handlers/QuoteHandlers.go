package handlers

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"carrierdesk/models"
	"carrierdesk/pricing"
	"carrierdesk/repository"
	"carrierdesk/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ==================== QUOTE CRUD OPERATIONS ====================

// CreateQuote creates a quote for a client location
// @Summary Create quote
// @Tags Quotes
// @Accept json
// @Produce json
// @Param request body models.Quote true "Quote creation request"
// @Success 201 {object} models.QuoteResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /api/quotes [post]
func CreateQuote(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := RequireSessionUser(c, db)
		if !ok {
			return
		}

		var quote models.Quote
		if err := c.ShouldBindJSON(&quote); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if quote.ClientID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "client_id is required"})
			return
		}

		// Quotes inherit the client's agent so ownership never drifts.
		if err := db.QueryRow(`SELECT COALESCE(agent_id, 0) FROM clients WHERE id = $1`, quote.ClientID).Scan(&quote.AgentID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Client not found"})
			return
		}

		if quote.Status == "" {
			quote.Status = "open"
		}

		var expiresAt interface{}
		if !quote.ExpiresAt.IsZero() {
			expiresAt = quote.ExpiresAt
		}

		err := db.QueryRow(`
			INSERT INTO quotes (client_id, agent_id, location_name, address, city, state, zip_code,
			                    requested_speed, requested_term, status, expires_at, notes, created_by,
			                    created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			RETURNING id`,
			quote.ClientID, nullableID(quote.AgentID), quote.LocationName, quote.Address, quote.City,
			quote.State, quote.ZipCode, quote.RequestedSpeed, quote.RequestedTerm, quote.Status,
			expiresAt, quote.Notes, user.ID, time.Now(), time.Now(),
		).Scan(&quote.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create quote", "details": err.Error()})
			return
		}
		quote.CreatedBy = user.ID

		c.JSON(http.StatusCreated, models.QuoteResponse{
			Success: true,
			Message: "Quote created successfully",
			Data:    &quote,
		})

		logQuoteActivity(db, c, user, quote.ID, "quote_create",
			fmt.Sprintf("Created quote #%d for client %d", quote.ID, quote.ClientID))
	}
}

// GetQuotes lists quotes visible to the caller
// @Summary List quotes
// @Tags Quotes
// @Produce json
// @Param status query string false "Filter by status"
// @Success 200 {object} models.QuoteListResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /api/quotes [get]
func GetQuotes(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := RequireSessionUser(c, db)
		if !ok {
			return
		}

		query := `
			SELECT q.id, q.client_id, COALESCE(cl.company_name, ''), COALESCE(q.agent_id, 0),
			       COALESCE(CONCAT(u.first_name, ' ', u.last_name), ''),
			       q.location_name, q.address, q.city, q.state, q.zip_code,
			       q.requested_speed, q.requested_term, q.status, q.expires_at,
			       COALESCE(q.notes, ''), q.created_by, q.created_at, q.updated_at
			FROM quotes q
			LEFT JOIN clients cl ON cl.id = q.client_id
			LEFT JOIN agents a ON a.id = q.agent_id
			LEFT JOIN users u ON u.id = a.user_id`

		conditions := []string{}
		args := []interface{}{}
		if !user.IsAdmin {
			args = append(args, user.ID)
			conditions = append(conditions, fmt.Sprintf("a.user_id = $%d", len(args)))
		}
		if status := c.Query("status"); status != "" {
			args = append(args, status)
			conditions = append(conditions, fmt.Sprintf("q.status = $%d", len(args)))
		}
		for i, cond := range conditions {
			if i == 0 {
				query += " WHERE " + cond
			} else {
				query += " AND " + cond
			}
		}
		query += " ORDER BY q.created_at DESC"

		rows, err := db.Query(query, args...)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch quotes"})
			return
		}
		defer rows.Close()

		var quotes []models.Quote
		for rows.Next() {
			var q models.Quote
			var expiresAt sql.NullTime
			if err := rows.Scan(
				&q.ID, &q.ClientID, &q.ClientName, &q.AgentID, &q.AgentName,
				&q.LocationName, &q.Address, &q.City, &q.State, &q.ZipCode,
				&q.RequestedSpeed, &q.RequestedTerm, &q.Status, &expiresAt,
				&q.Notes, &q.CreatedBy, &q.CreatedAt, &q.UpdatedAt,
			); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan quote"})
				return
			}
			if expiresAt.Valid {
				q.ExpiresAt = expiresAt.Time
			}
			quotes = append(quotes, q)
		}

		c.JSON(http.StatusOK, models.QuoteListResponse{
			Success: true,
			Message: "Quotes fetched successfully",
			Data:    quotes,
		})
	}
}

// GetQuoteHandler fetches a single quote
// @Summary Get quote
// @Tags Quotes
// @Param id path int true "Quote ID"
// @Success 200 {object} models.QuoteResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/quotes/{id} [get]
func GetQuoteHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := RequireSessionUser(c, db)
		if !ok {
			return
		}

		quote, ok := loadQuoteForUser(c, db, user)
		if !ok {
			return
		}

		c.JSON(http.StatusOK, models.QuoteResponse{
			Success: true,
			Message: "Quote fetched successfully",
			Data:    quote,
		})
	}
}

// UpdateQuote updates a quote's request details
// @Summary Update quote
// @Tags Quotes
// @Accept json
// @Produce json
// @Param id path int true "Quote ID"
// @Param request body models.Quote true "Quote update request"
// @Success 200 {object} models.QuoteResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/quotes/{id} [put]
func UpdateQuote(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := RequireSessionUser(c, db)
		if !ok {
			return
		}

		existing, ok := loadQuoteForUser(c, db, user)
		if !ok {
			return
		}

		var quote models.Quote
		if err := c.ShouldBindJSON(&quote); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var expiresAt interface{}
		if !quote.ExpiresAt.IsZero() {
			expiresAt = quote.ExpiresAt
		}

		_, err := db.Exec(`
			UPDATE quotes SET location_name = $1, address = $2, city = $3, state = $4, zip_code = $5,
			       requested_speed = $6, requested_term = $7, expires_at = $8, notes = $9, updated_at = $10
			WHERE id = $11`,
			quote.LocationName, quote.Address, quote.City, quote.State, quote.ZipCode,
			quote.RequestedSpeed, quote.RequestedTerm, expiresAt, quote.Notes, time.Now(), existing.ID,
		)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update quote"})
			return
		}

		quote.ID = existing.ID

		c.JSON(http.StatusOK, models.QuoteResponse{
			Success: true,
			Message: "Quote updated successfully",
			Data:    &quote,
		})

		logQuoteActivity(db, c, user, existing.ID, "quote_update", fmt.Sprintf("Updated quote #%d", existing.ID))
	}
}

// DeleteQuote closes a quote
// @Summary Close quote
// @Tags Quotes
// @Param id path int true "Quote ID"
// @Success 200 {object} models.QuoteResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/quotes/{id} [delete]
func DeleteQuote(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := RequireSessionUser(c, db)
		if !ok {
			return
		}

		quote, ok := loadQuoteForUser(c, db, user)
		if !ok {
			return
		}

		if quote.Status == "accepted" {
			c.JSON(http.StatusConflict, gin.H{"error": "Accepted quotes cannot be closed"})
			return
		}

		if _, err := db.Exec(`UPDATE quotes SET status = 'closed', updated_at = NOW() WHERE id = $1`, quote.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to close quote"})
			return
		}

		c.JSON(http.StatusOK, models.QuoteResponse{
			Success: true,
			Message: "Quote closed successfully",
		})

		logQuoteActivity(db, c, user, quote.ID, "quote_close", fmt.Sprintf("Closed quote #%d", quote.ID))
	}
}

// MarkQuoteComplete flags pricing as done and notifies the owning agent
// @Summary Mark quote complete
// @Tags Quotes
// @Param id path int true "Quote ID"
// @Success 200 {object} models.QuoteResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/quotes/{id}/complete [post]
func MarkQuoteComplete(db *sql.DB, notifier *services.QuoteNotifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := RequireSessionUser(c, db)
		if !ok {
			return
		}
		if !user.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only administrators can complete pricing"})
			return
		}

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quote ID"})
			return
		}

		quote, err := repository.GetQuote(db, id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		if quote.Status != "open" {
			c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("Quote is %s, only open quotes can be completed", quote.Status)})
			return
		}

		if _, err := db.Exec(`UPDATE quotes SET status = 'complete', updated_at = NOW() WHERE id = $1`, id); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update quote status"})
			return
		}

		// Notification failure does not roll the status back; the agent still
		// sees completed pricing in the portal.
		if err := notifier.SendQuoteComplete(c.Request.Context(), id); err != nil {
			log.Printf("Failed to notify completion of quote %d: %v", id, err)
		}

		c.JSON(http.StatusOK, models.QuoteResponse{
			Success: true,
			Message: "Quote marked complete",
		})

		logQuoteActivity(db, c, user, id, "quote_complete", fmt.Sprintf("Marked quote #%d complete", id))
	}
}

// AcceptCarrierQuote records the agent's chosen offer and opens a circuit order
// @Summary Accept carrier quote
// @Tags Quotes
// @Accept json
// @Produce json
// @Param id path int true "Quote ID"
// @Param request body models.AcceptRequest true "Accepted carrier quote"
// @Success 201 {object} models.CircuitOrderResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/quotes/{id}/accept [post]
func AcceptCarrierQuote(db *sql.DB, gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := RequireSessionUser(c, db)
		if !ok {
			return
		}

		quote, ok := loadQuoteForUser(c, db, user)
		if !ok {
			return
		}
		if quote.Status != "complete" {
			c.JSON(http.StatusConflict, gin.H{"error": "Only completed quotes can be accepted"})
			return
		}

		var req models.AcceptRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		cq, err := repository.GetCarrierQuote(db, req.CarrierQuoteID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		if cq.QuoteID != quote.ID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Carrier quote does not belong to this quote"})
			return
		}
		if cq.NoService {
			c.JSON(http.StatusConflict, gin.H{"error": "A no-service offer cannot be accepted"})
			return
		}
		if cq.Price <= 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "An unpriced offer cannot be accepted"})
			return
		}

		// The order is booked at the agent-facing price regardless of who
		// clicks accept, so admins accepting on behalf of an agent do not
		// book the unmarked cost.
		categories, err := repository.ListCategories(db)
		if err != nil {
			log.Printf("Category fetch failed while accepting quote %d, booking unmarked price: %v", quote.ID, err)
			categories = nil
		}
		res := pricing.Resolve(*cq, false, categories)

		order := models.CircuitOrder{
			QuoteID:        quote.ID,
			CarrierQuoteID: cq.ID,
			ClientID:       quote.ClientID,
			AgentID:        quote.AgentID,
			Carrier:        cq.Carrier,
			Status:         "pending",
			MonthlyPrice:   res.DisplayPrice,
		}
		if err := gormDB.Create(&order).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create circuit order", "details": err.Error()})
			return
		}

		if _, err := db.Exec(`UPDATE quotes SET status = 'accepted', updated_at = NOW() WHERE id = $1`, quote.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update quote status"})
			return
		}

		c.JSON(http.StatusCreated, models.CircuitOrderResponse{
			Success: true,
			Message: "Carrier quote accepted",
			Data:    &order,
		})

		logQuoteActivity(db, c, user, quote.ID, "quote_accept",
			fmt.Sprintf("Accepted %s offer on quote #%d at $%.2f/mo", cq.Carrier, quote.ID, res.DisplayPrice))
	}
}

// loadQuoteForUser resolves the :id param to a quote the caller may access.
// It writes the error response itself when access fails.
func loadQuoteForUser(c *gin.Context, db *sql.DB, user *models.User) (*models.Quote, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quote ID"})
		return nil, false
	}

	quote, err := repository.GetQuote(db, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return nil, false
	}

	if !user.IsAdmin {
		var agentUserID int
		err := db.QueryRow(`SELECT user_id FROM agents WHERE id = $1`, quote.AgentID).Scan(&agentUserID)
		if err != nil || agentUserID != user.ID {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return nil, false
		}
	}

	return quote, true
}

func logQuoteActivity(db *sql.DB, c *gin.Context, user *models.User, quoteID int, event, description string) {
	entry := models.ActivityLog{
		CreatedAt:    time.Now(),
		UserName:     user.FirstName + " " + user.LastName,
		HostName:     c.Request.Host,
		EventContext: "Quotes",
		IPAddress:    c.ClientIP(),
		Description:  description,
		EventName:    event,
		QuoteID:      quoteID,
	}
	if err := SaveActivityLog(db, entry); err != nil {
		log.Printf("Failed to save activity log: %v", err)
	}
}

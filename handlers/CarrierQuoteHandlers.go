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

	"github.com/gin-gonic/gin"
)

// ==================== CARRIER QUOTE OPERATIONS ====================

// CreateCarrierQuote adds a vendor offer to a quote
// @Summary Create carrier quote
// @Tags CarrierQuotes
// @Accept json
// @Produce json
// @Param id path int true "Quote ID"
// @Param request body models.CarrierQuote true "Carrier quote"
// @Success 201 {object} models.CarrierQuoteResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /api/quotes/{id}/carriers [post]
func CreateCarrierQuote(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := RequireSessionUser(c, db)
		if !ok {
			return
		}
		if !user.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only administrators can enter carrier pricing"})
			return
		}

		quoteID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quote ID"})
			return
		}

		var cq models.CarrierQuote
		if err := c.ShouldBindJSON(&cq); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if cq.Carrier == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "carrier is required"})
			return
		}
		cq.QuoteID = quoteID
		if cq.SiteSurveyPriority == "" {
			cq.SiteSurveyPriority = "none"
		}

		// New offers go to the end of the display order.
		var maxSort sql.NullInt64
		_ = db.QueryRow(`SELECT MAX(sort_order) FROM carrier_quotes WHERE quote_id = $1`, quoteID).Scan(&maxSort)
		cq.SortOrder = int(maxSort.Int64) + 1

		err = db.QueryRow(`
			INSERT INTO carrier_quotes (quote_id, carrier, type, speed, price, term, notes, color,
			        install_fee, install_fee_amount, static_ip, static_ip_fee_amount,
			        static_ip_5, static_ip_5_fee_amount, other_costs, no_service,
			        site_survey_needed, site_survey_priority, sort_order, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
			RETURNING id`,
			cq.QuoteID, cq.Carrier, cq.Type, cq.Speed, cq.Price, cq.Term, cq.Notes, cq.Color,
			cq.InstallFee, cq.InstallFeeAmount, cq.StaticIP, cq.StaticIPFeeAmount,
			cq.StaticIP5, cq.StaticIP5FeeAmount, cq.OtherCosts, cq.NoService,
			cq.SiteSurveyNeeded, cq.SiteSurveyPriority, cq.SortOrder, time.Now(), time.Now(),
		).Scan(&cq.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create carrier quote", "details": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, models.CarrierQuoteResponse{
			Success: true,
			Message: "Carrier quote created successfully",
			Data:    &cq,
		})

		logQuoteActivity(db, c, user, quoteID, "carrier_quote_create",
			fmt.Sprintf("Added %s offer to quote #%d", cq.Carrier, quoteID))
	}
}

// GetCarrierQuotes lists a quote's raw carrier quotes
// @Summary List carrier quotes
// @Tags CarrierQuotes
// @Produce json
// @Param id path int true "Quote ID"
// @Success 200 {object} models.CarrierQuoteListResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/quotes/{id}/carriers [get]
func GetCarrierQuotes(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := RequireSessionUser(c, db)
		if !ok {
			return
		}
		if !user.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Raw carrier pricing is admin only"})
			return
		}

		quoteID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quote ID"})
			return
		}

		quotes, err := repository.ListCarrierQuotes(db, quoteID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, models.CarrierQuoteListResponse{
			Success: true,
			Message: "Carrier quotes fetched successfully",
			Data:    quotes,
		})
	}
}

// GetPricedCarrierQuotes lists a quote's carrier quotes with viewer-specific
// resolved prices. Admins see the raw base numbers, agents see marked prices.
// @Summary List priced carrier quotes
// @Tags CarrierQuotes
// @Produce json
// @Param id path int true "Quote ID"
// @Success 200 {object} models.PricedCarrierQuoteListResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/quotes/{id}/carriers/priced [get]
func GetPricedCarrierQuotes(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := RequireSessionUser(c, db)
		if !ok {
			return
		}

		quote, ok := loadQuoteForUser(c, db, user)
		if !ok {
			return
		}

		carrierQuotes, err := repository.ListCarrierQuotes(db, quote.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		// A failed category fetch degrades to no markup rather than a 500.
		categories, err := repository.ListCategories(db)
		if err != nil {
			log.Printf("Category fetch failed for quote %d listing, serving unmarked prices: %v", quote.ID, err)
			categories = nil
		}

		priced := make([]models.PricedCarrierQuote, 0, len(carrierQuotes))
		for _, cq := range carrierQuotes {
			res := pricing.Resolve(cq, user.IsAdmin, categories)
			row := models.PricedCarrierQuote{
				CarrierQuote:           cq,
				DisplayPrice:           res.DisplayPrice,
				BasePriceWithoutAddOns: res.BasePriceWithoutAddOns,
				TickedOptions:          res.TickedOptions,
			}
			if cq.SiteSurveyNeeded {
				row.ConstructionRisk = pricing.ConstructionRisk(pricing.SurveyColor(cq))
			}
			priced = append(priced, row)
		}

		c.JSON(http.StatusOK, models.PricedCarrierQuoteListResponse{
			Success: true,
			Message: "Carrier quotes fetched successfully",
			Data:    priced,
		})
	}
}

// UpdateCarrierQuote updates a vendor offer
// @Summary Update carrier quote
// @Tags CarrierQuotes
// @Accept json
// @Produce json
// @Param id path int true "Carrier quote ID"
// @Param request body models.CarrierQuote true "Carrier quote"
// @Success 200 {object} models.CarrierQuoteResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/carriers/{id} [put]
func UpdateCarrierQuote(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := RequireSessionUser(c, db)
		if !ok {
			return
		}
		if !user.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only administrators can edit carrier pricing"})
			return
		}

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid carrier quote ID"})
			return
		}

		var cq models.CarrierQuote
		if err := c.ShouldBindJSON(&cq); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if cq.SiteSurveyPriority == "" {
			cq.SiteSurveyPriority = "none"
		}

		result, err := db.Exec(`
			UPDATE carrier_quotes SET carrier = $1, type = $2, speed = $3, price = $4, term = $5,
			       notes = $6, color = $7, install_fee = $8, install_fee_amount = $9,
			       static_ip = $10, static_ip_fee_amount = $11, static_ip_5 = $12,
			       static_ip_5_fee_amount = $13, other_costs = $14, no_service = $15,
			       site_survey_needed = $16, site_survey_priority = $17, updated_at = $18
			WHERE id = $19`,
			cq.Carrier, cq.Type, cq.Speed, cq.Price, cq.Term,
			cq.Notes, cq.Color, cq.InstallFee, cq.InstallFeeAmount,
			cq.StaticIP, cq.StaticIPFeeAmount, cq.StaticIP5,
			cq.StaticIP5FeeAmount, cq.OtherCosts, cq.NoService,
			cq.SiteSurveyNeeded, cq.SiteSurveyPriority, time.Now(), id,
		)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update carrier quote"})
			return
		}

		rowsAffected, _ := result.RowsAffected()
		if rowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Carrier quote not found"})
			return
		}

		cq.ID = id

		c.JSON(http.StatusOK, models.CarrierQuoteResponse{
			Success: true,
			Message: "Carrier quote updated successfully",
			Data:    &cq,
		})
	}
}

// DeleteCarrierQuote removes a vendor offer
// @Summary Delete carrier quote
// @Tags CarrierQuotes
// @Param id path int true "Carrier quote ID"
// @Success 200 {object} models.CarrierQuoteResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/carriers/{id} [delete]
func DeleteCarrierQuote(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := RequireSessionUser(c, db)
		if !ok {
			return
		}
		if !user.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only administrators can delete carrier pricing"})
			return
		}

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid carrier quote ID"})
			return
		}

		var accepted int
		if err := db.QueryRow(`SELECT COUNT(*) FROM circuit_orders WHERE carrier_quote_id = $1 AND deleted_at IS NULL`, id).Scan(&accepted); err == nil && accepted > 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "Carrier quote has a circuit order attached"})
			return
		}

		result, err := db.Exec(`DELETE FROM carrier_quotes WHERE id = $1`, id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete carrier quote"})
			return
		}

		rowsAffected, _ := result.RowsAffected()
		if rowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Carrier quote not found"})
			return
		}

		c.JSON(http.StatusOK, models.CarrierQuoteResponse{
			Success: true,
			Message: "Carrier quote deleted successfully",
		})
	}
}

// ReorderCarrierQuotes rewrites the display order of a quote's offers
// @Summary Reorder carrier quotes
// @Tags CarrierQuotes
// @Accept json
// @Produce json
// @Param id path int true "Quote ID"
// @Param request body models.ReorderRequest true "Carrier quote ids in display order"
// @Success 200 {object} models.CarrierQuoteListResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /api/quotes/{id}/carriers/reorder [put]
func ReorderCarrierQuotes(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := RequireSessionUser(c, db)
		if !ok {
			return
		}
		if !user.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only administrators can reorder carrier pricing"})
			return
		}

		quoteID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quote ID"})
			return
		}

		var req models.ReorderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		tx, err := db.Begin()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
			return
		}
		defer tx.Rollback()

		for i, cqID := range req.CarrierQuoteIDs {
			result, err := tx.Exec(`UPDATE carrier_quotes SET sort_order = $1, updated_at = NOW() WHERE id = $2 AND quote_id = $3`,
				i+1, cqID, quoteID)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reorder carrier quotes"})
				return
			}
			if n, _ := result.RowsAffected(); n == 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Carrier quote %d does not belong to quote %d", cqID, quoteID)})
				return
			}
		}

		if err := tx.Commit(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit transaction"})
			return
		}

		quotes, err := repository.ListCarrierQuotes(db, quoteID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, models.CarrierQuoteListResponse{
			Success: true,
			Message: "Carrier quotes reordered successfully",
			Data:    quotes,
		})
	}
}

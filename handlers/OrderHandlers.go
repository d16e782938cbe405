package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"carrierdesk/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type UpdateOrderStatusRequest struct {
	Status        string     `json:"status" binding:"required" example:"ordered"`
	CircuitID     string     `json:"circuit_id" example:"SPEC-TX-009441"`
	OrderedDate   *time.Time `json:"ordered_date,omitempty"`
	FOCDate       *time.Time `json:"foc_date,omitempty"`
	InstalledDate *time.Time `json:"installed_date,omitempty"`
	Notes         string     `json:"notes" example:""`
}

// ==================== CIRCUIT ORDER OPERATIONS ====================

// GetCircuitOrders lists circuit orders visible to the caller
// @Summary List circuit orders
// @Tags Orders
// @Produce json
// @Param status query string false "Filter by status"
// @Success 200 {object} models.CircuitOrderListResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /api/orders [get]
func GetCircuitOrders(db *sql.DB, gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := RequireSessionUser(c, db)
		if !ok {
			return
		}

		query := gormDB.Model(&models.CircuitOrder{}).Order("created_at DESC")
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}
		if !user.IsAdmin {
			var agentID int
			if err := db.QueryRow(`SELECT id FROM agents WHERE user_id = $1`, user.ID).Scan(&agentID); err != nil {
				c.JSON(http.StatusForbidden, gin.H{"error": "No agent record for this user"})
				return
			}
			query = query.Where("agent_id = ?", agentID)
		}

		var orders []models.CircuitOrder
		if err := query.Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch circuit orders"})
			return
		}

		c.JSON(http.StatusOK, models.CircuitOrderListResponse{
			Success: true,
			Message: "Circuit orders fetched successfully",
			Data:    orders,
		})
	}
}

// GetCircuitOrder fetches one circuit order
// @Summary Get circuit order
// @Tags Orders
// @Param id path int true "Order ID"
// @Success 200 {object} models.CircuitOrderResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/orders/{id} [get]
func GetCircuitOrder(db *sql.DB, gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := RequireSessionUser(c, db)
		if !ok {
			return
		}

		order, ok := loadOrderForUser(c, db, gormDB, user)
		if !ok {
			return
		}

		c.JSON(http.StatusOK, models.CircuitOrderResponse{
			Success: true,
			Message: "Circuit order fetched successfully",
			Data:    order,
		})
	}
}

// UpdateCircuitOrderStatus moves an order along its lifecycle
// @Summary Update circuit order status
// @Tags Orders
// @Accept json
// @Produce json
// @Param id path int true "Order ID"
// @Param request body UpdateOrderStatusRequest true "Status transition"
// @Success 200 {object} models.CircuitOrderResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/orders/{id}/status [put]
func UpdateCircuitOrderStatus(db *sql.DB, gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := RequireSessionUser(c, db)
		if !ok {
			return
		}
		if !user.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only administrators can update order status"})
			return
		}

		order, ok := loadOrderForUser(c, db, gormDB, user)
		if !ok {
			return
		}

		var req UpdateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		allowed, known := models.CircuitOrderStatuses[order.Status]
		if !known {
			c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Order has unknown status %q", order.Status)})
			return
		}
		if !containsStatus(allowed, req.Status) {
			c.JSON(http.StatusConflict, gin.H{
				"error": fmt.Sprintf("Cannot move order from %s to %s", order.Status, req.Status),
			})
			return
		}

		updates := map[string]interface{}{
			"status":     req.Status,
			"updated_at": time.Now(),
		}
		if req.CircuitID != "" {
			updates["circuit_id"] = req.CircuitID
		}
		if req.Notes != "" {
			updates["notes"] = req.Notes
		}
		if req.OrderedDate != nil {
			updates["ordered_date"] = req.OrderedDate
		}
		if req.FOCDate != nil {
			updates["foc_date"] = req.FOCDate
		}
		if req.InstalledDate != nil {
			updates["installed_date"] = req.InstalledDate
		}
		// Transitions stamp their own date when the caller omits it.
		now := time.Now()
		switch req.Status {
		case "ordered":
			if req.OrderedDate == nil {
				updates["ordered_date"] = &now
			}
		case "installed":
			if req.InstalledDate == nil {
				updates["installed_date"] = &now
			}
		}

		if err := gormDB.Model(order).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update circuit order"})
			return
		}

		c.JSON(http.StatusOK, models.CircuitOrderResponse{
			Success: true,
			Message: "Circuit order updated successfully",
			Data:    order,
		})

		logOrderActivity(db, c, user, order, "order_status",
			fmt.Sprintf("Moved order #%d (%s) to %s", order.ID, order.Carrier, req.Status))
	}
}

// DeleteCircuitOrder soft-deletes an order
// @Summary Delete circuit order
// @Tags Orders
// @Param id path int true "Order ID"
// @Success 200 {object} models.CircuitOrderResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/orders/{id} [delete]
func DeleteCircuitOrder(db *sql.DB, gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := RequireSessionUser(c, db)
		if !ok {
			return
		}
		if !user.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only administrators can delete orders"})
			return
		}

		order, ok := loadOrderForUser(c, db, gormDB, user)
		if !ok {
			return
		}

		if err := gormDB.Delete(order).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete circuit order"})
			return
		}

		c.JSON(http.StatusOK, models.CircuitOrderResponse{
			Success: true,
			Message: "Circuit order deleted successfully",
		})

		logOrderActivity(db, c, user, order, "order_delete",
			fmt.Sprintf("Deleted order #%d (%s)", order.ID, order.Carrier))
	}
}

func loadOrderForUser(c *gin.Context, db *sql.DB, gormDB *gorm.DB, user *models.User) (*models.CircuitOrder, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return nil, false
	}

	var order models.CircuitOrder
	if err := gormDB.First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Circuit order not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch circuit order"})
		}
		return nil, false
	}

	if !user.IsAdmin {
		var agentUserID int
		err := db.QueryRow(`SELECT user_id FROM agents WHERE id = $1`, order.AgentID).Scan(&agentUserID)
		if err != nil || agentUserID != user.ID {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return nil, false
		}
	}

	return &order, true
}

func containsStatus(allowed []string, status string) bool {
	for _, s := range allowed {
		if s == status {
			return true
		}
	}
	return false
}

func logOrderActivity(db *sql.DB, c *gin.Context, user *models.User, order *models.CircuitOrder, event, description string) {
	entry := models.ActivityLog{
		CreatedAt:    time.Now(),
		UserName:     user.FirstName + " " + user.LastName,
		HostName:     c.Request.Host,
		EventContext: "Orders",
		IPAddress:    c.ClientIP(),
		Description:  description,
		EventName:    event,
		QuoteID:      order.QuoteID,
	}
	if err := SaveActivityLog(db, entry); err != nil {
		log.Printf("Failed to save activity log: %v", err)
	}
}

package handlers

import (
	"database/sql"
	"net/http"

	"carrierdesk/utils"

	"github.com/gin-gonic/gin"
)

type carrierCount struct {
	Carrier string `json:"carrier" example:"Spectrum"`
	Count   int    `json:"count" example:"9"`
}

// GetDashboardStats returns the landing-page counters
// @Summary Dashboard stats
// @Tags Dashboard
// @Produce json
// @Success 200 {object} object
// @Failure 401 {object} models.ErrorResponse
// @Router /api/dashboard [get]
func GetDashboardStats(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := RequireSessionUser(c, db)
		if !ok {
			return
		}

		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		// Agents see their own book of business, admins see everything.
		scope := ""
		args := []interface{}{}
		if !user.IsAdmin {
			var agentID int
			if err := db.QueryRow(`SELECT id FROM agents WHERE user_id = $1`, user.ID).Scan(&agentID); err != nil {
				c.JSON(http.StatusForbidden, gin.H{"error": "No agent record for this user"})
				return
			}
			scope = " AND agent_id = $1"
			args = append(args, agentID)
		}

		var openQuotes, completeQuotes, quotesThisMonth int
		if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM quotes WHERE status = 'open'`+scope, args...).Scan(&openQuotes); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch quote counts"})
			return
		}
		if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM quotes WHERE status = 'complete'`+scope, args...).Scan(&completeQuotes); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch quote counts"})
			return
		}
		if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM quotes WHERE created_at >= date_trunc('month', NOW())`+scope, args...).Scan(&quotesThisMonth); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch quote counts"})
			return
		}

		var pendingOrders, activeCircuits int
		if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM circuit_orders WHERE status IN ('pending', 'ordered') AND deleted_at IS NULL`+scope, args...).Scan(&pendingOrders); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order counts"})
			return
		}
		if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM circuit_orders WHERE status IN ('installed', 'billing') AND deleted_at IS NULL`+scope, args...).Scan(&activeCircuits); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order counts"})
			return
		}

		rows, err := db.QueryContext(ctx, `
			SELECT carrier, COUNT(*) AS cnt
			FROM circuit_orders
			WHERE status != 'cancelled' AND deleted_at IS NULL`+scope+`
			GROUP BY carrier
			ORDER BY cnt DESC
			LIMIT 5`, args...)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch carrier counts"})
			return
		}
		defer rows.Close()

		topCarriers := []carrierCount{}
		for rows.Next() {
			var cc carrierCount
			if err := rows.Scan(&cc.Carrier, &cc.Count); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan carrier count"})
				return
			}
			topCarriers = append(topCarriers, cc)
		}

		var unreadNotifications int
		if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND status = 'unread'`, user.ID).Scan(&unreadNotifications); err != nil {
			unreadNotifications = 0
		}

		c.JSON(http.StatusOK, gin.H{
			"open_quotes":          openQuotes,
			"complete_quotes":      completeQuotes,
			"quotes_this_month":    quotesThisMonth,
			"pending_orders":       pendingOrders,
			"active_circuits":      activeCircuits,
			"top_carriers":         topCarriers,
			"unread_notifications": unreadNotifications,
		})
	}
}

package handlers

import (
	"database/sql"
	"math"
	"net/http"
	"strconv"

	"carrierdesk/models"

	"github.com/gin-gonic/gin"
)

// RequireSessionUser resolves the Authorization header into the calling
// user, writing the error response itself when the session is invalid.
func RequireSessionUser(c *gin.Context, db *sql.DB) (*models.User, bool) {
	sessionID := c.GetHeader("Authorization")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id header is missing"})
		return nil, false
	}

	var user models.User
	err := db.QueryRow(`
		SELECT u.id, u.email, u.first_name, u.last_name, u.is_admin, u.suspended
		FROM users u
		JOIN session s ON s.user_id = u.id
		WHERE s.session_id = $1 AND s.expires_at > NOW()`, sessionID).Scan(
		&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.IsAdmin, &user.Suspended)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
		return nil, false
	}

	if user.Suspended {
		c.JSON(http.StatusForbidden, gin.H{"error": "Account is suspended"})
		return nil, false
	}

	return &user, true
}

// Helper to save activity logs
func SaveActivityLog(db *sql.DB, log models.ActivityLog) error {
	query := `
    INSERT INTO activity_logs (
        created_at, user_name, host_name, event_context, ip_address,
        description, event_name, affected_user_name, affected_user_email, quote_id
    ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := db.Exec(query,
		log.CreatedAt, log.UserName, log.HostName, log.EventContext, log.IPAddress,
		log.Description, log.EventName, log.AffectedUserName, log.AffectedUserEmail, log.QuoteID,
	)
	return err
}

// GetActivityLogsHandler godoc
// @Summary      Get activity logs
// @Tags         activity-logs
// @Param        page   query  int  false  "Page"
// @Param        limit  query  int  false  "Limit"
// @Success      200    {object}  object
// @Router       /api/logs [get]
func GetActivityLogsHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		pageStr := c.DefaultQuery("page", "1")
		limitStr := c.DefaultQuery("limit", "10")

		page, err := strconv.Atoi(pageStr)
		if err != nil || page < 1 {
			page = 1
		}

		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			limit = 10
		}

		offset := (page - 1) * limit

		var totalRecords int
		if err := db.QueryRow(`SELECT COUNT(*) FROM activity_logs`).Scan(&totalRecords); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error counting logs"})
			return
		}

		rows, err := db.Query(`
			SELECT id, created_at, user_name, host_name, event_context, ip_address,
			       description, event_name, COALESCE(affected_user_name, ''),
			       COALESCE(affected_user_email, ''), COALESCE(quote_id, 0)
			FROM activity_logs
			ORDER BY created_at DESC
			LIMIT $1 OFFSET $2`, limit, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching logs"})
			return
		}
		defer rows.Close()

		var logs []models.ActivityLog
		for rows.Next() {
			var entry models.ActivityLog
			if err := rows.Scan(
				&entry.ID, &entry.CreatedAt, &entry.UserName, &entry.HostName, &entry.EventContext,
				&entry.IPAddress, &entry.Description, &entry.EventName,
				&entry.AffectedUserName, &entry.AffectedUserEmail, &entry.QuoteID,
			); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error scanning logs"})
				return
			}
			logs = append(logs, entry)
		}

		c.JSON(http.StatusOK, gin.H{
			"data":        logs,
			"page":        page,
			"limit":       limit,
			"total":       totalRecords,
			"total_pages": int(math.Ceil(float64(totalRecords) / float64(limit))),
		})
	}
}

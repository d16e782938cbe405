package handlers

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	"carrierdesk/models"
	"carrierdesk/services"

	"github.com/gin-gonic/gin"
)

// Global FCM service - set from main.go, nil when push is disabled.
var GlobalFCMService *services.FCMService

// SetFCMService sets the global FCM service
func SetFCMService(fcmService *services.FCMService) {
	GlobalFCMService = fcmService
}

// SendNotificationHelper inserts an in-app notification and pushes it to the
// user's devices. Safe to call from any handler; push is best effort.
func SendNotificationHelper(db *sql.DB, userID int, title, body string, action string) {
	_, err := db.Exec(`
		INSERT INTO notifications (user_id, message, status, action, created_at, updated_at)
		VALUES ($1, $2, 'unread', $3, NOW(), NOW())`, userID, body, action)
	if err != nil {
		log.Printf("Failed to insert notification for user %d: %v", userID, err)
	}

	if GlobalFCMService == nil {
		return
	}
	ctx := context.Background()
	if err := GlobalFCMService.SendNotificationToUser(ctx, userID, title, body, map[string]string{"action": action}); err != nil {
		log.Printf("Failed to push notification to user %d: %v", userID, err)
	}
}

// GetMyNotifications returns notifications for the current user.
// @Summary Get my notifications
// @Tags Notifications
// @Produce json
// @Success 200 {array} models.Notification
// @Failure 401 {object} models.ErrorResponse
// @Router /api/notifications [get]
func GetMyNotifications(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := RequireSessionUser(c, db)
		if !ok {
			return
		}

		rows, err := db.Query(`
			SELECT id, user_id, message, status, action, created_at, updated_at
			FROM notifications
			WHERE user_id = $1
			ORDER BY created_at DESC`, user.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch notifications"})
			return
		}
		defer rows.Close()

		// Initialize slice to empty (ensures [] instead of null)
		notifications := []models.Notification{}
		for rows.Next() {
			var n models.Notification
			if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.Status, &n.Action, &n.CreatedAt, &n.UpdatedAt); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error scanning notification"})
				return
			}
			notifications = append(notifications, n)
		}

		c.JSON(http.StatusOK, notifications)
	}
}

// MarkNotificationAsRead marks a notification as read.
// @Summary Mark notification as read
// @Tags Notifications
// @Param id path int true "Notification ID"
// @Success 200 {object} object
// @Failure 401 {object} models.ErrorResponse
// @Router /api/notifications/{id}/read [put]
func MarkNotificationAsRead(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := RequireSessionUser(c, db)
		if !ok {
			return
		}

		result, err := db.Exec(`
			UPDATE notifications SET status = 'read', updated_at = $1
			WHERE id = $2 AND user_id = $3`, time.Now(), c.Param("id"), user.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notification"})
			return
		}
		if n, _ := result.RowsAffected(); n == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
	}
}

// MarkAllNotificationsAsRead marks all of the caller's notifications as read.
// @Summary Mark all notifications as read
// @Tags Notifications
// @Success 200 {object} object
// @Failure 401 {object} models.ErrorResponse
// @Router /api/notifications/read-all [put]
func MarkAllNotificationsAsRead(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := RequireSessionUser(c, db)
		if !ok {
			return
		}

		result, err := db.Exec(`
			UPDATE notifications
			SET status = 'read', updated_at = $1
			WHERE user_id = $2 AND status = 'unread'`, time.Now(), user.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notifications"})
			return
		}

		rowsAffected, _ := result.RowsAffected()
		c.JSON(http.StatusOK, gin.H{
			"message":       "All notifications marked as read",
			"rows_affected": rowsAffected,
		})
	}
}

// DeleteNotification removes one of the caller's notifications.
// @Summary Delete notification
// @Tags Notifications
// @Param id path int true "Notification ID"
// @Success 200 {object} object
// @Failure 401 {object} models.ErrorResponse
// @Router /api/notifications/{id} [delete]
func DeleteNotification(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := RequireSessionUser(c, db)
		if !ok {
			return
		}

		_, err := db.Exec(`DELETE FROM notifications WHERE id = $1 AND user_id = $2`, c.Param("id"), user.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete notification"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Notification deleted"})
	}
}

// RegisterFCMToken registers a device token for push notifications.
// @Summary Register FCM token
// @Tags Notifications
// @Accept json
// @Produce json
// @Param body body object true "token"
// @Success 200 {object} object
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /api/fcm/register-token [post]
func RegisterFCMToken(db *sql.DB, fcmService *services.FCMService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := RequireSessionUser(c, db)
		if !ok {
			return
		}

		var request struct {
			Token string `json:"token" binding:"required"`
		}
		if err := c.BindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request. Token is required."})
			return
		}

		if fcmService != nil {
			if err := fcmService.SaveFCMToken(user.ID, request.Token); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save FCM token: " + err.Error()})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{"message": "FCM token registered successfully"})
	}
}

// RemoveFCMToken removes the caller's device token.
// @Summary Remove FCM token
// @Tags Notifications
// @Success 200 {object} object
// @Failure 401 {object} models.ErrorResponse
// @Router /api/fcm/remove-token [delete]
func RemoveFCMToken(db *sql.DB, fcmService *services.FCMService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := RequireSessionUser(c, db)
		if !ok {
			return
		}

		if fcmService != nil {
			if err := fcmService.RemoveFCMToken(user.ID); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove FCM token: " + err.Error()})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{"message": "FCM token removed successfully"})
	}
}

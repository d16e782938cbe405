package handlers

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"
	"time"

	"carrierdesk/models"
	"carrierdesk/storage"
	"carrierdesk/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// LoginHandler handles user authentication
// @Summary Login user
// @Description Authenticate user and return session token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login credentials"
// @Success 200 {object} models.LoginResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /api/login [post]
func LoginHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Token-based re-login: a still-valid access token skips the
		// password check.
		token := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))

		if token != "" {
			parsedToken, err := utils.ValidateJWT(token)
			// Fall through to email/password login on a bad token, so users
			// with expired tokens can still log in with credentials.
			if err == nil && parsedToken.Valid {
				claims, ok := parsedToken.Claims.(jwt.MapClaims)
				if !ok {
					c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims structure"})
					return
				}

				email, ok := claims["email"].(string)
				if !ok || email == "" {
					c.JSON(http.StatusUnauthorized, gin.H{"error": "Email claim missing or invalid"})
					return
				}

				user, err := storage.GetUserByEmail(db, email)
				if err != nil {
					c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
					return
				}

				if user.Suspended {
					c.JSON(http.StatusForbidden, gin.H{"error": "Account is suspended"})
					return
				}

				c.JSON(http.StatusOK, gin.H{
					"message":      "User successfully logged in via token",
					"access_token": token,
					"is_admin":     user.IsAdmin,
					"user": gin.H{
						"id":    user.ID,
						"email": user.Email,
					},
				})
				return
			}
		}

		var loginData models.LoginRequest
		if err := c.ShouldBindJSON(&loginData); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
			return
		}

		user, err := storage.GetUserByEmail(db, loginData.Email)
		if err != nil || !utils.ValidatePassword(user.Password, loginData.Password) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}

		if user.Suspended {
			c.JSON(http.StatusForbidden, gin.H{"error": "Account is suspended"})
			return
		}

		accessToken, err := utils.GenerateJWT(user.Email)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate access token"})
			return
		}

		sessionID := uuid.New().String()

		refreshToken, err := utils.GenerateRefreshToken(user.Email, sessionID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate refresh token"})
			return
		}

		session := &models.Session{
			UserID:                user.ID,
			SessionID:             sessionID,
			HostName:              c.Request.Host,
			IPAddress:             loginData.IP,
			Timestamp:             time.Now(),
			ExpiresAt:             time.Now().Add(24 * time.Hour),
			RefreshToken:          refreshToken,
			RefreshTokenExpiresAt: time.Now().Add(15 * 24 * time.Hour),
		}

		if err := storage.SaveSession(db, session, true); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save session", "details": err.Error()})
			return
		}

		// Last-access is best effort.
		_, _ = db.Exec(`UPDATE users SET last_access = NOW() WHERE id = $1`, user.ID)

		c.JSON(http.StatusOK, models.LoginResponse{
			Message:      "Login successful",
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			SessionID:    sessionID,
			IsAdmin:      user.IsAdmin,
		})
	}
}

// RefreshTokenHandler exchanges a valid refresh token for a new access token
// @Summary Refresh access token
// @Tags Authentication
// @Accept json
// @Produce json
// @Success 200 {object} object
// @Failure 401 {object} models.ErrorResponse
// @Router /api/refresh-token [post]
func RefreshTokenHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			RefreshToken string `json:"refresh_token" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "refresh_token is required"})
			return
		}

		parsedToken, err := utils.ValidateJWT(req.RefreshToken)
		if err != nil || !parsedToken.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired refresh token"})
			return
		}

		claims, ok := parsedToken.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			return
		}

		tokenType, _ := claims["type"].(string)
		if tokenType != "refresh" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token is not a refresh token"})
			return
		}

		email, _ := claims["email"].(string)
		sessionID, _ := claims["sessionId"].(string)
		if email == "" || sessionID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token claims incomplete"})
			return
		}

		// The refresh token must still be the one bound to this session.
		storedToken, err := storage.GetRefreshTokenBySession(db, sessionID)
		if err != nil || storedToken != req.RefreshToken {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token not recognized"})
			return
		}

		accessToken, err := utils.GenerateJWT(email)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate access token"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"access_token": accessToken,
		})
	}
}

// GetSessionHandler returns the stored session for a user
// @Summary Get user session
// @Tags Authentication
// @Param user_id path int true "User ID"
// @Success 200 {object} models.Session
// @Failure 404 {object} models.ErrorResponse
// @Router /api/session/{user_id} [get]
func GetSessionHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := strconv.Atoi(c.Param("user_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
			return
		}

		session, err := storage.GetSession(db, userID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}

		c.JSON(http.StatusOK, session)
	}
}

// DeleteSessionHandler removes every session for a user
// @Summary Delete user sessions
// @Tags Authentication
// @Param user_id path int true "User ID"
// @Success 200 {object} object
// @Router /api/session/{user_id} [delete]
func DeleteSessionHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := strconv.Atoi(c.Param("user_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
			return
		}

		if err := storage.DeleteSession(db, userID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete sessions"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Sessions deleted"})
	}
}

// GetActiveDevicesHandler lists the calling user's active devices
// @Summary List active devices
// @Tags Authentication
// @Success 200 {object} object
// @Failure 401 {object} models.ErrorResponse
// @Router /api/active-devices [get]
func GetActiveDevicesHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := RequireSessionUser(c, db)
		if !ok {
			return
		}

		devices, err := storage.GetActiveDevices(db, user.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch devices"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"devices": devices})
	}
}

// LogoutDeviceHandler logs out one device/session of the calling user
// @Summary Logout device
// @Tags Authentication
// @Accept json
// @Success 200 {object} object
// @Failure 401 {object} models.ErrorResponse
// @Router /api/logout-device [post]
func LogoutDeviceHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := RequireSessionUser(c, db)
		if !ok {
			return
		}

		var req struct {
			SessionID string `json:"session_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
			return
		}

		if err := storage.DeleteRefreshToken(db, req.SessionID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear refresh token"})
			return
		}

		if err := storage.DeleteSessionByID(db, req.SessionID, user.ID); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Device logged out"})
	}
}

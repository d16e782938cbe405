package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/jwt"
)

// FCMService pushes quote lifecycle notifications to agent devices using the
// Firebase Cloud Messaging HTTP v1 API.
type FCMService struct {
	projectID   string
	credentials *jwt.Config
	db          *sql.DB
	httpClient  *http.Client
	tokenSource oauth2.TokenSource
}

// ServiceAccountCredentials represents the structure of Firebase service account JSON
type ServiceAccountCredentials struct {
	Type         string `json:"type"`
	ProjectID    string `json:"project_id"`
	PrivateKeyID string `json:"private_key_id"`
	PrivateKey   string `json:"private_key"`
	ClientEmail  string `json:"client_email"`
	ClientID     string `json:"client_id"`
	TokenURI     string `json:"token_uri"`
}

// NewFCMService initializes the FCM service from a service account JSON file.
func NewFCMService(credentialsPath string, db *sql.DB) (*FCMService, error) {
	if credentialsPath == "" {
		return nil, fmt.Errorf("credentials path is required")
	}

	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("error reading credentials file: %v", err)
	}

	var creds ServiceAccountCredentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("error parsing credentials: %v", err)
	}

	// Convert escaped newlines to actual newlines before handing the key to
	// the oauth2 JWT config.
	privateKey := strings.ReplaceAll(creds.PrivateKey, "\\n", "\n")

	config := &jwt.Config{
		Email:      creds.ClientEmail,
		PrivateKey: []byte(privateKey),
		Scopes:     []string{"https://www.googleapis.com/auth/firebase.messaging"},
		TokenURL:   creds.TokenURI,
	}

	return &FCMService{
		projectID:   creds.ProjectID,
		credentials: config,
		db:          db,
		httpClient:  &http.Client{},
		tokenSource: config.TokenSource(context.Background()),
	}, nil
}

// SendNotification sends a push notification to a single FCM token.
func (f *FCMService) SendNotification(ctx context.Context, token, title, body string, data map[string]string) error {
	if token == "" {
		return fmt.Errorf("FCM token cannot be empty")
	}

	oauthToken, err := f.tokenSource.Token()
	if err != nil {
		return fmt.Errorf("error getting OAuth token: %v", err)
	}

	message := map[string]interface{}{
		"message": map[string]interface{}{
			"token": token,
			"notification": map[string]string{
				"title": title,
				"body":  body,
			},
			"data": data,
			"webpush": map[string]interface{}{
				"fcm_options": map[string]interface{}{
					"link": data["action"],
				},
			},
		},
	}

	endpoint := fmt.Sprintf("https://fcm.googleapis.com/v1/projects/%s/messages:send", f.projectID)
	return f.sendHTTPv1Request(ctx, endpoint, oauthToken.AccessToken, message)
}

func (f *FCMService) sendHTTPv1Request(ctx context.Context, endpoint, accessToken string, payload map[string]interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error marshaling FCM payload: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("error creating FCM request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error sending FCM request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("FCM request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// SendNotificationToUser sends a push notification to a user by their user ID.
// A user without a registered device token is not an error.
func (f *FCMService) SendNotificationToUser(ctx context.Context, userID int, title, body string, data map[string]string) error {
	var fcmToken string
	err := f.db.QueryRow(`SELECT fcm_token FROM users WHERE id = $1 AND fcm_token IS NOT NULL AND fcm_token != ''`, userID).Scan(&fcmToken)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Printf("No FCM token found for user %d", userID)
			return nil
		}
		return fmt.Errorf("error fetching FCM token for user %d: %v", userID, err)
	}

	return f.SendNotification(ctx, fcmToken, title, body, data)
}

// SendNotificationToUsers sends push notifications to multiple users.
func (f *FCMService) SendNotificationToUsers(ctx context.Context, userIDs []int, title, body string, data map[string]string) error {
	if len(userIDs) == 0 {
		return nil
	}

	placeholders := make([]string, len(userIDs))
	args := make([]interface{}, len(userIDs))
	for i, id := range userIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := fmt.Sprintf(`SELECT fcm_token FROM users WHERE id IN (%s) AND fcm_token IS NOT NULL AND fcm_token != ''`, strings.Join(placeholders, ","))
	rows, err := f.db.Query(query, args...)
	if err != nil {
		return fmt.Errorf("error fetching FCM tokens: %v", err)
	}
	defer rows.Close()

	failureCount := 0
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			log.Printf("Error scanning FCM token: %v", err)
			continue
		}
		if err := f.SendNotification(ctx, token, title, body, data); err != nil {
			failureCount++
			log.Printf("Failed to push to one device: %v", err)
		}
	}

	if failureCount > 0 {
		log.Printf("Failed to send %d push notifications", failureCount)
	}

	return nil
}

// SaveFCMToken saves or updates the FCM token for a user
func (f *FCMService) SaveFCMToken(userID int, token string) error {
	_, err := f.db.Exec(`UPDATE users SET fcm_token = $1 WHERE id = $2`, token, userID)
	if err != nil {
		return fmt.Errorf("error saving FCM token: %v", err)
	}
	return nil
}

// RemoveFCMToken removes the FCM token for a user
func (f *FCMService) RemoveFCMToken(userID int) error {
	_, err := f.db.Exec(`UPDATE users SET fcm_token = NULL WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("error removing FCM token: %v", err)
	}
	return nil
}

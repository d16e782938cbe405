// @title           CarrierDesk API
// @version         1.0
// @description     CarrierDesk Backend API - telecom quoting and circuit ordering.
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.url    https://carrierdesk.blueinvent.com

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      https://carrierdesk.blueinvent.com

// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// @schemes http https
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	_ "carrierdesk/docs"
	"carrierdesk/handlers"
	"carrierdesk/models"
	"carrierdesk/repository"
	"carrierdesk/services"
	"carrierdesk/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func CORSConfig() cors.Config {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{
		"https://carrierdesk.blueinvent.com",
		"http://localhost:9000",
		"http://localhost:8080",
		"http://localhost:3000",
	}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{
		"Content-Type", "Content-Length", "Accept-Encoding", "X-XSRF-TOKEN",
		"Accept", "Origin", "X-Requested-With", "Authorization", "User-Agent",
		"Cache-Control", "Referer",
		"Access-Control-Request-Method", "Access-Control-Request-Headers",
	}
	corsConfig.AllowMethods = []string{
		"GET", "POST", "PUT", "DELETE", "OPTIONS", "HEAD", "PATCH",
	}
	corsConfig.ExposeHeaders = []string{
		"Content-Length", "Authorization", "Content-Type", "Content-Disposition",
	}
	corsConfig.MaxAge = 12 * time.Hour
	return corsConfig
}

// runExpiredQuoteSweep closes quotes whose expiry date has passed. Accepted
// quotes are left alone because a circuit order already exists for them.
func runExpiredQuoteSweep() error {
	db := storage.GetDB()
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction for expiry sweep: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			log.Printf("Recovered from panic in runExpiredQuoteSweep: %v", r)
		}
	}()

	res, err := tx.Exec(`
		UPDATE quotes
		SET status = 'closed',
		    updated_at = NOW()
		WHERE expires_at < NOW()
		  AND status IN ('open', 'complete')
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to close expired quotes: %w", err)
	}
	rowsAffected, _ := res.RowsAffected()
	log.Printf("Closed %d quotes past their expiry date.", rowsAffected)

	return tx.Commit()
}

// expiringQuote is one row of the expiry-reminder query.
type expiringQuote struct {
	ID          int
	Location    string
	ExpiresAt   time.Time
	CompanyName string
	AgentUserID int
	AgentName   string
	AgentEmail  string
}

// expiryReminderPayload builds the notification and email content for one
// expiring quote.
func expiryReminderPayload(q expiringQuote) (title, body, action string, emailData models.EmailData) {
	reference := repository.GenerateQuoteReference(q.ID)
	title = "Quote expiring soon"
	body = fmt.Sprintf("%s for %s expires on %s", reference, q.CompanyName, q.ExpiresAt.Format("Jan 2, 2006"))
	action = fmt.Sprintf("quote_expiring:%d", q.ID)
	emailData = models.EmailData{
		ClientName:  q.CompanyName,
		AgentName:   q.AgentName,
		Email:       q.AgentEmail,
		CompanyName: q.CompanyName,
		QuoteID:     reference,
		Location:    q.Location,
	}
	return title, body, action, emailData
}

// runQuoteExpiryReminders notifies the owning agent about quotes expiring
// within the next three days. Each quote is reminded at most once, keyed by
// the notification action.
func runQuoteExpiryReminders(db *sql.DB, emailService *services.EmailService, cronLogger *log.Logger) error {
	rows, err := db.Query(`
		SELECT q.id, q.location_name, q.expires_at,
		       c.company_name,
		       u.id, CONCAT(u.first_name, ' ', u.last_name) AS agent_name, u.email
		FROM quotes q
		JOIN clients c ON c.id = q.client_id
		JOIN agents a ON a.id = q.agent_id
		JOIN users u ON u.id = a.user_id
		WHERE q.status IN ('open', 'complete')
		  AND q.expires_at >= NOW()
		  AND q.expires_at < NOW() + INTERVAL '3 days'
		  AND NOT EXISTS (
		      SELECT 1 FROM notifications n
		      WHERE n.user_id = u.id AND n.action = 'quote_expiring:' || q.id
		  )
		ORDER BY q.expires_at ASC
	`)
	if err != nil {
		return fmt.Errorf("failed to fetch expiring quotes: %w", err)
	}
	defer rows.Close()

	reminded := 0
	for rows.Next() {
		var q expiringQuote
		if err := rows.Scan(&q.ID, &q.Location, &q.ExpiresAt, &q.CompanyName, &q.AgentUserID, &q.AgentName, &q.AgentEmail); err != nil {
			if cronLogger != nil {
				cronLogger.Printf("Scan error in expiry reminders: %v", err)
			}
			continue
		}

		title, body, action, emailData := expiryReminderPayload(q)
		handlers.SendNotificationHelper(db, q.AgentUserID, title, body, action)

		if err := emailService.SendTemplatedEmail("quote_expiring", emailData, nil); err != nil {
			log.Printf("Failed to send expiry reminder email for quote %d: %v", q.ID, err)
			if cronLogger != nil {
				cronLogger.Printf("Failed to send expiry reminder email for quote %d: %v", q.ID, err)
			}
		}
		reminded++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error reading expiring quotes: %w", err)
	}

	log.Printf("Sent %d quote expiry reminders.", reminded)
	return nil
}

var cronRunning int32

func safeGo(
	ctx context.Context,
	wg *sync.WaitGroup,
	name string,
	fn func(context.Context) error,
	cronLogger *log.Logger,
) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PANIC in %s: %v\n%s", name, r, debug.Stack())
				if cronLogger != nil {
					cronLogger.Printf("PANIC in %s: %v\n%s", name, r, debug.Stack())
				}
			}
		}()

		if err := fn(ctx); err != nil {
			log.Printf("%s failed: %v", name, err)
			if cronLogger != nil {
				cronLogger.Printf("%s failed: %v", name, err)
			}
		} else {
			log.Printf("%s completed successfully", name)
			if cronLogger != nil {
				cronLogger.Printf("%s completed successfully", name)
			}
		}
	}()
}

func main() {
	db := storage.InitDB()
	_ = storage.InitGormDB()
	gormDB := storage.GetGormDB()

	db.SetMaxOpenConns(15)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Firebase Cloud Messaging via the HTTP v1 API. Push is optional; the
	// server runs without it when credentials are missing.
	credentialsPath := os.Getenv("FCM_CREDENTIALS_PATH")
	if credentialsPath == "" {
		credentialsPath = "firebase-credentials.json"
	}
	fcmService, err := services.NewFCMService(credentialsPath, db)
	if err != nil {
		log.Printf("Warning: Failed to initialize FCM service: %v. Push notifications will be disabled.", err)
		fcmService = nil
	} else {
		log.Println("FCM service initialized successfully")
	}
	handlers.SetFCMService(fcmService)

	emailService := services.NewEmailService(db)
	notifier := services.NewQuoteNotifier(db, emailService, fcmService)

	// Daily maintenance at 06:30.
	c := cron.New(
		cron.WithLogger(cron.VerbosePrintfLogger(log.New(os.Stdout, "cron: ", log.LstdFlags))),
	)

	cronLogFile, err := os.OpenFile("cron_errors.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Printf("Failed to open cron error log file: %v", err)
	}
	cronLogger := log.New(cronLogFile, "CRON_ERROR: ", log.LstdFlags)

	_, err = c.AddFunc("30 6 * * *", func() {
		if !atomic.CompareAndSwapInt32(&cronRunning, 0, 1) {
			log.Println("Previous cron still running. Skipping this run.")
			if cronLogger != nil {
				cronLogger.Println("Previous cron still running. Skipping this run.")
			}
			return
		}
		defer atomic.StoreInt32(&cronRunning, 0)

		log.Println("Starting daily maintenance cron job")
		if cronLogger != nil {
			cronLogger.Println("Starting daily maintenance cron job")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
		defer cancel()

		var wg sync.WaitGroup

		safeGo(ctx, &wg, "CleanupExpiredSessions", func(ctx context.Context) error {
			return storage.CleanupExpiredSessions(db)
		}, cronLogger)

		safeGo(ctx, &wg, "ExpiredQuoteSweep", func(ctx context.Context) error {
			return runExpiredQuoteSweep()
		}, cronLogger)

		safeGo(ctx, &wg, "QuoteExpiryReminders", func(ctx context.Context) error {
			return runQuoteExpiryReminders(db, emailService, cronLogger)
		}, cronLogger)

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			log.Println("All cron jobs finished")
			if cronLogger != nil {
				cronLogger.Println("All cron jobs finished")
			}
		case <-ctx.Done():
			log.Println("Cron timeout reached, jobs cancelled")
			if cronLogger != nil {
				cronLogger.Println("Cron timeout reached, jobs cancelled")
			}
		}

		log.Println("Daily cron cycle completed")
		if cronLogger != nil {
			cronLogger.Println("Daily cron cycle completed")
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule daily maintenance cron job: %v", err)
	}

	c.Start()

	r := gin.Default()
	r.MaxMultipartMemory = 8 << 20

	r.Use(cors.New(CORSConfig()))

	// ==================== 1. AUTH & SESSIONS ====================
	r.POST("/api/login", handlers.LoginHandler(db))
	r.POST("/api/refresh-token", handlers.RefreshTokenHandler(db))
	r.POST("/api/validate-session", handlers.ValidateSession(db))
	r.GET("/api/session/:user_id", handlers.GetSessionHandler(db))
	r.DELETE("/api/session/:user_id", handlers.DeleteSessionHandler(db))
	r.GET("/api/active-devices", handlers.GetActiveDevicesHandler(db))
	r.POST("/api/logout-device", handlers.LogoutDeviceHandler(db))

	// ==================== 2. CATEGORIES ====================
	r.POST("/api/categories", handlers.CreateCategory(db))
	r.GET("/api/categories", handlers.GetCategories(db))
	r.PUT("/api/categories/:id", handlers.UpdateCategory(db))
	r.DELETE("/api/categories/:id", handlers.DeleteCategory(db))

	// ==================== 3. CLIENTS ====================
	r.POST("/api/clients", handlers.CreateClient(db, emailService))
	r.GET("/api/clients", handlers.GetClients(db))
	r.GET("/api/clients/:id", handlers.GetClient(db))
	r.PUT("/api/clients/:id", handlers.UpdateClient(db))
	r.DELETE("/api/clients/:id", handlers.DeleteClient(db))

	// ==================== 4. AGENTS ====================
	r.POST("/api/agents", handlers.CreateAgent(db, emailService))
	r.GET("/api/agents", handlers.GetAgents(db))
	r.GET("/api/agents/:id", handlers.GetAgent(db))
	r.PUT("/api/agents/:id", handlers.UpdateAgent(db))
	r.DELETE("/api/agents/:id", handlers.DeleteAgent(db))

	// ==================== 5. QUOTES ====================
	r.POST("/api/quotes", handlers.CreateQuote(db))
	r.GET("/api/quotes", handlers.GetQuotes(db))
	r.GET("/api/quotes/:id", handlers.GetQuoteHandler(db))
	r.PUT("/api/quotes/:id", handlers.UpdateQuote(db))
	r.DELETE("/api/quotes/:id", handlers.DeleteQuote(db))
	r.POST("/api/quotes/:id/complete", handlers.MarkQuoteComplete(db, notifier))
	r.POST("/api/quotes/:id/accept", handlers.AcceptCarrierQuote(db, gormDB))

	// ==================== 6. CARRIER QUOTES ====================
	r.POST("/api/quotes/:id/carriers", handlers.CreateCarrierQuote(db))
	r.GET("/api/quotes/:id/carriers", handlers.GetCarrierQuotes(db))
	r.GET("/api/quotes/:id/carriers/priced", handlers.GetPricedCarrierQuotes(db))
	r.PUT("/api/quotes/:id/carriers/reorder", handlers.ReorderCarrierQuotes(db))
	r.PUT("/api/carriers/:id", handlers.UpdateCarrierQuote(db))
	r.DELETE("/api/carriers/:id", handlers.DeleteCarrierQuote(db))

	// ==================== 7. CIRCUIT ORDERS ====================
	r.GET("/api/orders", handlers.GetCircuitOrders(db, gormDB))
	r.GET("/api/orders/:id", handlers.GetCircuitOrder(db, gormDB))
	r.PUT("/api/orders/:id/status", handlers.UpdateCircuitOrderStatus(db, gormDB))
	r.DELETE("/api/orders/:id", handlers.DeleteCircuitOrder(db, gormDB))

	// ==================== 8. AGREEMENT PDF & QR ====================
	r.GET("/api/quotes/:id/agreement", handlers.GenerateAgreementPDF(db))
	r.GET("/api/quotes/:id/qr", handlers.GenerateQuoteQRCodeJPEG(db))

	// ==================== 9. EXPORT (CSV/EXCEL) ====================
	r.GET("/api/quotes/:id/export/csv", handlers.ExportComparisonCSV(db))
	r.GET("/api/quotes/:id/export/xlsx", handlers.ExportComparisonXLSX(db))

	// ==================== 10. NOTIFICATIONS ====================
	r.GET("/api/notifications", handlers.GetMyNotifications(db))
	r.PUT("/api/notifications/:id/read", handlers.MarkNotificationAsRead(db))
	r.PUT("/api/notifications/read-all", handlers.MarkAllNotificationsAsRead(db))
	r.DELETE("/api/notifications/:id", handlers.DeleteNotification(db))
	r.POST("/api/fcm/register-token", handlers.RegisterFCMToken(db, fcmService))
	r.DELETE("/api/fcm/remove-token", handlers.RemoveFCMToken(db, fcmService))

	// ==================== 11. EMAIL TEMPLATES ====================
	r.POST("/api/email-templates", handlers.CreateEmailTemplate(db))
	r.GET("/api/email-templates", handlers.GetEmailTemplates(db))
	r.GET("/api/email-templates/:id", handlers.GetEmailTemplateByID(db))
	r.PUT("/api/email-templates/:id", handlers.UpdateEmailTemplate(db))
	r.DELETE("/api/email-templates/:id", handlers.DeleteEmailTemplate(db))
	r.GET("/api/email-templates/:id/preview", handlers.PreviewEmailTemplate(db, emailService))

	// ==================== 12. ACTIVITY LOGS & DASHBOARD ====================
	r.GET("/api/logs", handlers.GetActivityLogsHandler(db))
	r.GET("/api/dashboard", handlers.GetDashboardStats(db))

	// ==================== 13. SWAGGER ====================
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	port := os.Getenv("PORT")
	if port == "" {
		port = "9000"
	}

	portInt, err := strconv.Atoi(port)
	if err != nil {
		log.Fatalf("Invalid PORT environment variable: %s. Must be a number.", port)
	}
	if portInt < 0 || portInt > 65535 {
		log.Fatalf("Invalid PORT: %d. Must be between 0 and 65535.", portInt)
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c.Stop()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exiting")
}

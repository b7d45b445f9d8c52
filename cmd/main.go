package main

import (
	"context"
	"log"
	"os"
	"strconv"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/random"

	"agencyops/internal/caching"
	"agencyops/internal/config"
	"agencyops/internal/handlers"
	"agencyops/internal/jobs"
	"agencyops/internal/jobs/background"
	"agencyops/internal/middleware"
	"agencyops/internal/repositories"
	"agencyops/internal/services"
	"agencyops/pkg/database"
)

const version = "1.0.0"

func main() {
	// Database connection
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := database.NewPool(context.Background(), databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Billing configuration: TOML file when provided, env on top
	billingCfg := config.DefaultBillingConfig()
	if configPath := os.Getenv("BILLING_CONFIG"); configPath != "" {
		billingCfg, err = config.LoadBillingConfig(configPath)
		if err != nil {
			log.Fatalf("Failed to load billing config: %v", err)
		}
	}
	if key := os.Getenv("STRIPE_API_KEY"); key != "" {
		billingCfg.Stripe.APIKey = key
	}
	if secret := os.Getenv("STRIPE_WEBHOOK_SECRET"); secret != "" {
		billingCfg.Stripe.WebhookSecret = secret
	}
	if billingCfg.Stripe.APIKey == "" {
		log.Fatal("STRIPE_API_KEY environment variable is required")
	}
	if billingCfg.Stripe.WebhookSecret == "" {
		log.Printf("WARN: STRIPE_WEBHOOK_SECRET is not set; webhook deliveries will be rejected with 503")
	}

	// JWT configuration
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = random.String(32) // Generate random secret for development
		log.Printf("WARNING: Using generated JWT secret")
	}

	// Redis configuration
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if redisDBStr := os.Getenv("REDIS_DB"); redisDBStr != "" {
		if db, err := strconv.Atoi(redisDBStr); err == nil {
			redisDB = db
		}
	}

	// Create repositories
	invoiceRepo := repositories.NewInvoiceRepo(pool)
	paymentRepo := repositories.NewPaymentRepo(pool)
	clientRepo := repositories.NewClientRepo(pool)
	projectRepo := repositories.NewProjectRepo(pool)
	milestoneRepo := repositories.NewMilestoneRepo(pool)

	// Create cache service
	cacheSvc := caching.NewRedisCacheService(redisAddr, redisPassword, redisDB)

	// Create services
	stripeSvc := services.NewStripeService(billingCfg.Stripe.APIKey)
	sender := services.NewInvoiceSender(
		invoiceRepo,
		clientRepo,
		projectRepo,
		stripeSvc,
		billingCfg.Send.CommitAttempts,
		billingCfg.Send.CommitBackoff(),
	)
	reconciler := services.NewPaymentReconciler(invoiceRepo, paymentRepo, milestoneRepo)

	// Create handlers
	invoiceHandlers := handlers.NewInvoiceHandlers(sender, invoiceRepo, clientRepo, projectRepo, cacheSvc)
	webhookHandlers := handlers.NewWebhookHandlers(reconciler, billingCfg.Stripe.WebhookSecret)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc, version)

	rateLimiter := middleware.NewRateLimitMiddleware(cacheSvc, billingCfg.RateLimit.SendLimit, billingCfg.RateLimit.SendWindow())

	// Background jobs
	scheduler, err := background.NewJobScheduler(jobs.NewOverdueSweep(invoiceRepo))
	if err != nil {
		log.Fatalf("Failed to create job scheduler: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// HTTP server
	e := echo.New()
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())

	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/ready", healthHandlers.ReadinessCheck)

	// The webhook endpoint authenticates with the signature over the raw
	// body, not a bearer token.
	e.POST("/api/webhooks/stripe", webhookHandlers.StripeWebhook)

	api := e.Group("/api")
	api.Use(echojwt.WithConfig(middleware.JWTConfig(jwtSecret)))
	api.Use(middleware.RequireRole("admin", "member"))

	api.GET("/invoices/:id", invoiceHandlers.GetInvoice)
	api.POST("/invoices/:id/send", invoiceHandlers.SendInvoice, rateLimiter.LimitInvoiceSends())

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	e.Logger.Fatal(e.Start(":" + port))
}

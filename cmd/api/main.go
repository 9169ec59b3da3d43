package main

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"mylinked/internal/analytics"
	"mylinked/internal/handlers"
	"mylinked/internal/linkmeta"
	"mylinked/pkg/auth"
	"mylinked/pkg/config"
	"mylinked/pkg/database"
	"mylinked/pkg/geoip"
	"mylinked/pkg/kafka"
	"mylinked/pkg/logging"
	"mylinked/pkg/middleware"
	"mylinked/pkg/models"
	"mylinked/pkg/monitoring"
	myredis "mylinked/pkg/redis"
	"mylinked/pkg/server"
	"mylinked/pkg/version"

	goredis "github.com/redis/go-redis/v9"
)

func main() {
	logger := logging.NewLoggerWithService("mylinked-api")
	config.LoadEnv(logger)

	logger.Info("Starting MyLinked API")

	// Required config
	databaseURL := config.RequireEnv("DATABASE_URL")
	jwtSecret := []byte(config.RequireEnv("JWT_SECRET"))

	// Optional backends; each degrades independently when absent
	redisURL := config.GetEnv("REDIS_URL", "")
	kafkaBrokers := config.GetEnv("KAFKA_BROKERS", "")
	clickhouseAddr := config.GetEnv("CLICKHOUSE_ADDR", "")
	geoipPath := config.GetEnv("GEOIP_DB_PATH", "")
	httpPort := config.GetEnv("MYLINKED_PORT", "18080")

	// Setup monitoring
	healthChecker := monitoring.NewHealthChecker("mylinked-api", version.Version)
	metricsCollector := monitoring.NewMetricsCollector("mylinked-api", version.Version, version.GitCommit)

	healthChecker.AddCheck("config", monitoring.ConfigurationHealthCheck(map[string]string{
		"DATABASE_URL": databaseURL,
	}))

	// Postgres is the source of truth; refuse to start without it
	dbConfig := database.DefaultConfig()
	dbConfig.URL = databaseURL
	db := database.MustConnect(dbConfig, logger)
	defer func() { _ = db.Close() }()
	healthChecker.AddCheck("database", monitoring.DatabaseHealthCheck(db))

	// Redis: profile view deduplication
	var redisClient *goredis.Client
	if redisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		client, err := myredis.NewClientFromURL(ctx, redisURL)
		cancel()
		if err != nil {
			logger.WithError(err).Warn("Failed to connect to Redis; view deduplication disabled")
		} else {
			redisClient = client
			defer func() { _ = redisClient.Close() }()
		}
	}
	healthChecker.AddCheck("redis", monitoring.RedisHealthCheck(redisClient))

	// Kafka: analytics event firehose
	var producer *kafka.Producer
	if kafkaBrokers != "" {
		p, err := kafka.NewProducer(strings.Split(kafkaBrokers, ","), logger)
		if err != nil {
			logger.WithError(err).Warn("Failed to create Kafka producer; event publishing disabled")
		} else {
			producer = p
			defer producer.Close()
		}
	}
	if producer != nil {
		healthChecker.AddCheck("kafka", monitoring.KafkaProducerHealthCheck(producer.Client()))
	} else {
		healthChecker.AddCheck("kafka", monitoring.KafkaProducerHealthCheck(nil))
	}

	// ClickHouse: analytics timeseries reads
	var clickhouseDB *sql.DB
	if clickhouseAddr != "" {
		chConfig := database.DefaultClickHouseConfig()
		chConfig.Addr = strings.Split(clickhouseAddr, ",")
		chConfig.Database = config.GetEnv("CLICKHOUSE_DATABASE", "mylinked")
		chConfig.Username = config.GetEnv("CLICKHOUSE_USER", "default")
		chConfig.Password = config.GetEnv("CLICKHOUSE_PASSWORD", "")
		ch, err := database.ConnectClickHouse(chConfig, logger)
		if err != nil {
			logger.WithError(err).Warn("Failed to connect to ClickHouse; analytics timeseries disabled")
		} else {
			clickhouseDB = ch
			defer func() { _ = clickhouseDB.Close() }()
		}
	}
	healthChecker.AddCheck("clickhouse", monitoring.ClickHouseHealthCheck(clickhouseDB))

	// GeoIP: country enrichment for analytics events
	geoReader, err := geoip.NewReader(geoipPath)
	if err != nil {
		logger.WithError(err).Warn("Failed to open GeoIP database; country enrichment disabled")
	}
	if geoReader != nil {
		defer func() { _ = geoReader.Close() }()
	}

	tracker := analytics.NewTracker(db, producer, geoReader, redisClient, logger)

	metaFetcher := linkmeta.NewFetcher(&http.Client{Timeout: 10 * time.Second})

	// Initialize HTTP handlers
	handlers.Init(handlers.Dependencies{
		DB:        db,
		Logger:    logger,
		JWTSecret: jwtSecret,
		Tracker:   tracker,
		Reader:    analytics.NewReader(db, clickhouseDB),
		Meta:      metaFetcher,
	})

	router := server.SetupRouter(logger, "mylinked-api", healthChecker, metricsCollector)

	// Public routes; the page and redirect endpoints are unauthenticated
	// and rate limited per visitor IP
	publicLimit := config.GetEnvInt("PUBLIC_RATE_LIMIT", 120)
	publicPages := middleware.RateLimitMiddleware(redisClient, logger, "public", publicLimit, time.Minute)
	router.POST("/api/auth/register", handlers.Register)
	router.POST("/api/auth/login", handlers.Login)
	router.GET("/u/:slug", publicPages, handlers.GetPublicProfile)
	router.GET("/r/:id", publicPages, handlers.RedirectLink)

	// Authenticated routes
	apiRoutes := router.Group("/api")
	apiRoutes.Use(auth.Middleware(jwtSecret))
	{
		apiRoutes.GET("/profile", handlers.GetProfile)
		apiRoutes.PUT("/profile", handlers.UpdateProfile)

		apiRoutes.GET("/links", handlers.ListLinks)
		apiRoutes.POST("/links", handlers.CreateLink)
		apiRoutes.PUT("/links/reorder", handlers.ReorderLinks)
		apiRoutes.PUT("/links/:id", handlers.UpdateLink)
		apiRoutes.DELETE("/links/:id", handlers.DeleteLink)

		apiRoutes.GET("/social/accounts", handlers.ListSocialAccounts)
		apiRoutes.POST("/social/accounts", handlers.ConnectSocialAccount)
		apiRoutes.DELETE("/social/accounts/:platform", handlers.DisconnectSocialAccount)
		apiRoutes.GET("/social/accounts/:platform/preview", handlers.PreviewSocialContent)

		apiRoutes.GET("/analytics/summary", handlers.GetAnalyticsSummary)
		apiRoutes.GET("/analytics/timeseries", handlers.GetAnalyticsTimeseries)

		apiRoutes.POST("/support/tickets", handlers.CreateTicket)
		apiRoutes.GET("/support/tickets", handlers.ListMyTickets)
	}

	// Admin routes
	adminRoutes := router.Group("/api/admin")
	adminRoutes.Use(auth.Middleware(jwtSecret), auth.RequireRole(models.RoleAdmin))
	{
		adminRoutes.GET("/users", handlers.AdminListUsers)
		adminRoutes.PUT("/users/:id/status", handlers.AdminUpdateUserStatus)
		adminRoutes.GET("/tickets", handlers.AdminListTickets)
		adminRoutes.PUT("/tickets/:id", handlers.AdminUpdateTicket)
	}

	// Start HTTP server with graceful shutdown
	serverConfig := server.DefaultConfig("mylinked-api", httpPort)
	if err := server.Start(serverConfig, router, logger); err != nil {
		logger.WithError(err).Fatal("HTTP server failed")
	}
}

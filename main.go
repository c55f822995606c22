package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Manish-456/eatsy-backend/common/logger"
	commonmw "github.com/Manish-456/eatsy-backend/common/middleware"
	"github.com/Manish-456/eatsy-backend/controllers"
	"github.com/Manish-456/eatsy-backend/database"
	"github.com/Manish-456/eatsy-backend/events"
	"github.com/Manish-456/eatsy-backend/middleware"
	"github.com/Manish-456/eatsy-backend/models"
	awspkg "github.com/Manish-456/eatsy-backend/pkg/aws"
	"github.com/Manish-456/eatsy-backend/repository"
	"github.com/Manish-456/eatsy-backend/routes"
	"github.com/Manish-456/eatsy-backend/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const serviceName = "eatsy-api"

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatal("[Eatsy] Failed to load config: ", err)
	}

	ctx := context.Background()

	awsCfg, err := awspkg.LoadAWSConfig(ctx, cfg.AWSRegion, cfg.AWSEndpoint)
	if err != nil {
		log.Fatal("[Eatsy] Failed to load AWS config: ", err)
	}

	// --- 1. Logging ---

	var cwWriter io.Writer
	if cfg.CloudWatchLogs {
		cw, err := awspkg.NewCloudWatchLogsClientFromConfig(ctx, awsCfg, cfg.CloudWatchLogGrp, serviceName)
		if err != nil {
			log.Println("[Eatsy] CloudWatch logging disabled:", err)
		} else {
			cwWriter = cw
		}
	}

	zl, err := logger.New(cfg.Env, cwWriter)
	if err != nil {
		log.Fatal("[Eatsy] Failed to initialize logger: ", err)
	}
	defer func() { _ = zl.Sync() }()

	// --- 2. Stores ---

	mongoClient, mongoDB, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDB, zl)
	if err != nil {
		zl.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}

	pg, err := database.ConnectPostgres(cfg.Postgres, zl, &models.Order{}, &models.CartItem{})
	if err != nil {
		zl.Fatal("Failed to connect to Postgres", zap.Error(err))
	}

	rdb, err := database.NewRedisClient(ctx, cfg.RedisURL, zl)
	if err != nil {
		zl.Warn("Redis unavailable, webhook ledger disabled", zap.Error(err))
		rdb = nil
	}

	userRepo := repository.NewMongoUserRepository(mongoDB)
	restaurantRepo := repository.NewMongoRestaurantRepository(mongoDB)
	menuItemRepo := repository.NewMongoMenuItemRepository(mongoDB)
	for name, ensure := range map[string]func(context.Context) error{
		"users":       userRepo.EnsureIndexes,
		"restaurants": restaurantRepo.EnsureIndexes,
		"menu_items":  menuItemRepo.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			zl.Warn("Failed to ensure indexes", zap.String("collection", name), zap.Error(err))
		}
	}
	orderRepo := repository.NewGormOrderRepository(pg)

	var ledger repository.WebhookLedger
	if rdb != nil {
		ledger = repository.NewRedisWebhookLedger(rdb, 0)
	}

	// --- 3. External services ---

	metrics := awspkg.NewMetricsClient(awsCfg, cfg.MetricsNamespace, cfg.MetricsEnabled)
	media := awspkg.NewS3MediaStore(awspkg.NewS3Client(awsCfg), cfg.S3Bucket, cfg.S3Prefix, cfg.S3Endpoint, cfg.CloudFrontDomain)
	gateway := services.NewStripeGateway(cfg.StripeAPIKey, cfg.StripeWebhookSecret)

	var publishers events.Multi
	if cfg.OrderEventsTopicARN != "" {
		publishers = append(publishers, events.NewSNSPublisher(awspkg.NewSNSClient(awsCfg), cfg.OrderEventsTopicARN))
	}
	if len(cfg.KafkaBrokers) > 0 {
		publishers = append(publishers, events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.OrderEventsTopic, zl))
	}
	var publisher events.Publisher = events.NoopPublisher{}
	if len(publishers) > 0 {
		publisher = publishers
	}

	// --- 4. Services and controllers ---

	userService := services.NewUserService(userRepo, zl)
	restaurantService := services.NewRestaurantService(restaurantRepo, menuItemRepo, zl)
	myRestaurantService := services.NewMyRestaurantService(restaurantRepo, menuItemRepo, orderRepo, media, metrics, zl)
	orderService := services.NewOrderService(orderRepo, restaurantRepo, userRepo, cfg.DeliveredPolicy, publisher, metrics, zl)
	checkoutService := services.NewCheckoutService(restaurantRepo, menuItemRepo, orderRepo, gateway,
		services.CheckoutConfig{Currency: cfg.CheckoutCurrency, FrontendURL: cfg.FrontendURL}, publisher, metrics, zl)
	paymentService := services.NewPaymentService(orderRepo, gateway, ledger, publisher, metrics, zl)

	auth, err := middleware.NewAuthenticator(ctx, cfg.Auth, userRepo, zl)
	if err != nil {
		zl.Fatal("Failed to configure token verification", zap.Error(err))
	}

	// --- 5. HTTP server and middleware ---

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestID())
	r.Use(commonmw.RequestLogger(zl))
	r.Use(commonmw.SecurityHeaders())
	r.Use(commonmw.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(commonmw.RateLimitMiddleware(commonmw.NewRateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst, 10*time.Minute)))
	r.Use(commonmw.MetricsMiddleware(metrics, serviceName, zl))

	r.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})

	routes.Register(r, auth, routes.Table(routes.Controllers{
		Users:        controllers.NewUserController(userService),
		Restaurants:  controllers.NewRestaurantController(restaurantService),
		MyRestaurant: controllers.NewMyRestaurantController(myRestaurantService, orderService),
		Orders:       controllers.NewOrderController(orderService, checkoutService, paymentService),
	}))

	// --- 6. Graceful shutdown ---

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zl.Info("Eatsy API starting", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zl.Info("Shutting down Eatsy API...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("Server forced to shutdown", zap.Error(err))
	}
	auth.Close()
	if err := publisher.Close(); err != nil {
		zl.Error("Failed to close event publisher", zap.Error(err))
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			zl.Error("Failed to close Redis", zap.Error(err))
		}
	}
	if err := database.ClosePostgres(pg); err != nil {
		zl.Error("Failed to close Postgres", zap.Error(err))
	}
	if err := database.DisconnectMongo(shutdownCtx, mongoClient); err != nil {
		zl.Error("Failed to disconnect MongoDB", zap.Error(err))
	}

	zl.Info("Eatsy API stopped gracefully")
}

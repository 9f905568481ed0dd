package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/maisonarome/storefront/config"
	"github.com/maisonarome/storefront/controllers"
	"github.com/maisonarome/storefront/database"
	"github.com/maisonarome/storefront/middleware"
	"github.com/maisonarome/storefront/models"
	"github.com/maisonarome/storefront/pricing"
	"github.com/maisonarome/storefront/providers"
	"github.com/maisonarome/storefront/realtime"
	"github.com/maisonarome/storefront/repository"
	"github.com/maisonarome/storefront/routes"
	"github.com/maisonarome/storefront/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("config load failed: " + err.Error())
	}

	var logger *zap.Logger
	if cfg.Env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	// --- Datastores ---
	db, err := database.ConnectPostgres(cfg)
	if err != nil {
		logger.Fatal("Postgres connection failed", zap.Error(err))
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Product{},
		&models.ProductVariant{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.Review{},
		&models.WishlistItem{},
	); err != nil {
		logger.Fatal("Migration failed", zap.Error(err))
	}

	redisClient, err := database.ConnectRedis(cfg)
	if err != nil {
		logger.Fatal("Redis connection failed", zap.Error(err))
	}

	mongoClient, mongoDB, err := database.ConnectMongo(cfg)
	if err != nil {
		logger.Fatal("Mongo connection failed", zap.Error(err))
	}

	// --- Pricing policy ---
	policy := pricing.Policy{
		FreeShippingThreshold: cfg.FreeShippingThreshold,
		FlatShippingFee:       cfg.FlatShippingFee,
		TaxRatePercent:        cfg.TaxRatePercent,
		CODLimit:              cfg.CODLimit,
		CODFee:                cfg.CODFee,
	}

	// --- Repositories ---
	userRepo := repository.NewGormUserRepository(db)
	productRepo := repository.NewGormProductRepository(db)
	orderRepo := repository.NewGormOrderRepository(db)
	paymentRepo := repository.NewGormPaymentRepository(db)
	reviewRepo := repository.NewGormReviewRepository(db)
	wishlistRepo := repository.NewGormWishlistRepository(db)
	couponRepo := repository.NewMongoCouponRepository(mongoDB)
	addressRepo := repository.NewMongoAddressRepository(mongoDB)
	guestCarts := repository.NewGuestCartStore(redisClient, cfg.GuestCartTTL)
	userCarts := repository.NewUserCartStore(redisClient, cfg.UserCartTTL)

	// --- Realtime ---
	hub := realtime.NewHub(logger)
	publisher := realtime.NewRedisPublisher(redisClient, logger)
	subscriber := realtime.NewSubscriber(redisClient, hub, logger)
	subCtx, subCancel := context.WithCancel(context.Background())
	go subscriber.Run(subCtx)

	// --- Shipping provider ---
	var shippingProvider providers.ShippingProvider
	if cfg.CarrierAPIKey != "" {
		shippingProvider = providers.NewCarrierProvider(cfg.CarrierAPIKey, cfg.CarrierBaseURL)
	} else {
		logger.Warn("No carrier API key configured, using flat-rate shipping quotes")
		shippingProvider = providers.NewFlatRateProvider(cfg.FlatShippingFee)
	}

	// --- Services ---
	tokens := services.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	mailer := services.NewLogMailer(logger)
	stripeGateway := services.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookKey)

	authSvc := services.NewAuthService(userRepo, tokens, mailer, logger)
	productSvc := services.NewProductService(productRepo, logger)
	cartSvc := services.NewCartService(guestCarts, userCarts, productRepo, policy, publisher, logger)
	couponSvc := services.NewCouponService(couponRepo, logger)
	origin := models.Address{
		Name:       cfg.OriginName,
		Street1:    cfg.OriginStreet1,
		City:       cfg.OriginCity,
		State:      cfg.OriginState,
		PostalCode: cfg.OriginPostalCode,
		Country:    cfg.OriginCountry,
		Phone:      cfg.OriginPhone,
	}
	shippingSvc := services.NewShippingService(shippingProvider, addressRepo, productRepo, origin, logger)
	checkoutSvc := services.NewCheckoutService(cartSvc, couponSvc, shippingSvc, stripeGateway,
		orderRepo, paymentRepo, addressRepo, productRepo, policy, publisher, logger)
	orderSvc := services.NewOrderService(orderRepo, productRepo, publisher, logger)
	reviewSvc := services.NewReviewService(reviewRepo, productRepo, logger)
	wishlistSvc := services.NewWishlistService(wishlistRepo, productRepo, logger)
	addressSvc := services.NewAddressService(addressRepo, logger)
	adminSvc := services.NewAdminService(orderRepo, userRepo, productRepo, logger)

	// --- HTTP router ---
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.CORSAllowedOrigin))
	r.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})

	routes.Register(r, routes.Controllers{
		Auth:     controllers.NewAuthController(authSvc, cartSvc),
		Product:  controllers.NewProductController(productSvc),
		Cart:     controllers.NewCartController(cartSvc),
		Checkout: controllers.NewCheckoutController(checkoutSvc, stripeGateway, logger),
		Order:    controllers.NewOrderController(orderSvc, shippingSvc),
		Coupon:   controllers.NewCouponController(couponSvc),
		Review:   controllers.NewReviewController(reviewSvc),
		Wishlist: controllers.NewWishlistController(wishlistSvc),
		Address:  controllers.NewAddressController(addressSvc),
		Admin:    controllers.NewAdminController(adminSvc),
		Realtime: realtime.NewHandler(hub, tokens, logger),
	}, tokens)

	// --- HTTP server ---
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("Storefront API started", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Initiating graceful shutdown...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	subCancel()
	hub.Close()

	if err := redisClient.Close(); err != nil {
		logger.Error("Redis close error", zap.Error(err))
	}
	if err := database.CloseMongo(mongoClient); err != nil {
		logger.Error("Mongo close error", zap.Error(err))
	}
	if err := database.ClosePostgres(db); err != nil {
		logger.Error("Postgres close error", zap.Error(err))
	}

	logger.Info("Storefront API stopped gracefully")
}

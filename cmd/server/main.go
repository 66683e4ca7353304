package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"buspass/internal/app"
	"buspass/internal/config"
	"buspass/internal/handler"
	"buspass/internal/live"
	internalRedis "buspass/internal/redis"
	"buspass/internal/repository/postgres"
	"buspass/internal/service"
	"buspass/internal/sim"
)

func main() {
	// Load .env if present; real deployments use the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration.
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s (with DB instrumentation)", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// In-process hub feeds the SSE endpoint; NATS optionally mirrors the
	// same events to external consumers.
	hub := live.NewHub()
	publishers := live.Fanout{hub}
	if cfg.NATS.Enabled {
		natsPub, err := live.NewNATSPublisher(cfg.NATS.URL)
		if err != nil {
			log.Printf("failed to connect to NATS, live feed disabled: %v", err)
		} else {
			defer natsPub.Close()
			publishers = append(publishers, natsPub)
			log.Println("Connected to NATS")
		}
	}

	// Wire dependencies.
	server, manager := wireServer(db, redisClient, nrApp, hub, publishers, cfg)

	// Resume trips that were active when the previous process stopped.
	if resumed, err := manager.ResumeAll(ctx); err != nil {
		log.Printf("failed to resume active trips: %v", err)
	} else if resumed > 0 {
		log.Printf("Resumed %d active trip(s)", resumed)
	}

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	// Stop trip simulations after the HTTP surface is closed; trips stay
	// active in storage and resume on the next boot.
	manager.StopAll()

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server plus the
// simulation manager (the caller owns its shutdown).
func wireServer(
	db *sql.DB,
	redisClient *redis.Client,
	nrApp *newrelic.Application,
	hub *live.Hub,
	publisher live.Publisher,
	cfg *config.Config,
) (*http.Server, *sim.Manager) {
	// Initialize Redis stores.
	positionStore := internalRedis.NewPositionStore(redisClient)
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)

	// Initialize repositories.
	userRepo := postgres.NewUserRepository(db)
	routeRepo := postgres.NewRouteRepository(db)
	tripRepo := postgres.NewActiveTripRepository(db)
	historyRepo := postgres.NewTripHistoryRepository(db)
	ledgerRepo := postgres.NewLedgerRepository(db)

	// Initialize services.
	notificationService := service.NewNotificationService()
	ledgerService := service.NewLedgerService(ledgerRepo, userRepo, notificationService)
	routeService := service.NewRouteService(routeRepo, cacheStore)
	userService := service.NewUserService(userRepo)
	trackingService := service.NewTrackingService(positionStore)

	// Simulation manager drives every active trip.
	manager := sim.NewManager(tripRepo, ledgerService, publisher, positionStore, lockStore, notificationService, sim.Config{
		TickInterval:       cfg.Sim.TickInterval,
		SpeedKmh:           cfg.Sim.SpeedKmh,
		OriginRadiusM:      cfg.Sim.OriginRadiusM,
		DestinationRadiusM: cfg.Sim.DestinationRadiusM,
		FixedLegDuration:   cfg.Sim.FixedLegDuration,
		RetryDelay:         cfg.Sim.RetryDelay,
	})

	bookingService := service.NewBookingService(tripRepo, historyRepo, userRepo, routeService, manager)

	// Initialize handlers.
	userHandler := handler.NewUserHandler(userService, ledgerService)
	routeHandler := handler.NewRouteHandler(routeService)
	tripHandler := handler.NewTripHandler(bookingService)
	walletHandler := handler.NewWalletHandler(ledgerService)
	liveHandler := handler.NewLiveHandler(hub)
	mapHandler := handler.NewMapHandler(trackingService)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		UserHandler:   userHandler,
		RouteHandler:  routeHandler,
		TripHandler:   tripHandler,
		WalletHandler: walletHandler,
		LiveHandler:   liveHandler,
		MapHandler:    mapHandler,
		RedisClient:   redisClient,
		NewRelicApp:   nrApp,
	})

	// Create HTTP server.
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return server, manager
}

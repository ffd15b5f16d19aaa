package cmd

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	pubnub "github.com/pubnub/go"

	"eventa/config"
	"eventa/handlers"
	_ "eventa/migrations"
	"eventa/monitoring"
	"eventa/security"
	"eventa/services"
	"eventa/store"
	"eventa/utils"
)

func Start() error {
	cfg := config.LoadConfig()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	app := pocketbase.New()

	redisClient, err := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	// Realtime is optional; without keys the notifier degrades to a
	// no-op and purchases stay pending until resolved manually.
	var pn *pubnub.PubNub
	if cfg.PubNubPublishKey != "" && cfg.PubNubSubscribeKey != "" {
		pnConfig := pubnub.NewConfig()
		pnConfig.PublishKey = cfg.PubNubPublishKey
		pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
		pnConfig.SecretKey = cfg.PubNubSecretKey
		pn = pubnub.NewPubNub(pnConfig)
	}

	// The store handle is created once and injected everywhere.
	st := store.NewPBStore(app)

	// Initialize services
	notifier := services.NewPaymentNotifier(st, pn, cfg.PaymentChannel, logger)
	authService := services.NewAuthService(st, logger)
	eventService := services.NewEventService(st, logger)
	votingService := services.NewVotingService(st, redisClient, notifier, cfg.VoteStatsCacheTTL, logger)
	ticketService := services.NewTicketService(st, redisClient, notifier, cfg.MaxQuantityPerUser, logger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(app, authService)
	feedHandler := handlers.NewFeedHandler(app, eventService, cfg.FeedPageSize)
	votingHandler := handlers.NewVotingHandler(app, votingService)
	ticketHandler := handlers.NewTicketHandler(app, ticketService, st)
	ussdHandler := handlers.NewUSSDHandler(votingService, st, redisClient, cfg, logger)

	limiter := security.NewRateLimiter(redisClient, logger)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start background tasks
	go notifier.Run(ctx)
	if cfg.EnableMetrics {
		go monitoring.StartMetricsServer(ctx, cfg.MetricsPort, redisClient, logger)
	}

	// Setup graceful shutdown
	go handleShutdown(cancel)

	// Register routes
	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		// Auth endpoints
		e.Router.POST("/api/v1/auth/signup", authHandler.SignUp)
		e.Router.POST("/api/v1/auth/signin", authHandler.SignIn)
		e.Router.POST("/api/v1/auth/signout", authHandler.SignOut)
		e.Router.PATCH("/api/v1/my/profile", authHandler.UpdateProfile)

		// Event feed endpoints
		e.Router.GET("/api/v1/events", feedHandler.ListEvents)
		e.Router.GET("/api/v1/events/{eventId}", feedHandler.GetEvent)

		// Voting endpoints
		e.Router.POST("/api/v1/events/{eventId}/votes",
			limiter.Limit("vote", cfg.VoteRateLimit, cfg.VoteRateWindow, votingHandler.CastVote))
		e.Router.GET("/api/v1/events/{eventId}/stats", votingHandler.GetVoteStats)
		e.Router.GET("/api/v1/my/votes", votingHandler.GetMyVotes)

		// Ticket endpoints
		e.Router.POST("/api/v1/tickets/purchase",
			limiter.Limit("purchase", cfg.PurchaseRateLimit, cfg.PurchaseRateWindow, ticketHandler.Purchase))
		e.Router.GET("/api/v1/my/tickets", ticketHandler.MyTickets)
		e.Router.GET("/api/v1/purchases/{purchaseId}/qr", ticketHandler.PurchaseQR)
		e.Router.POST("/api/v1/checkin", ticketHandler.CheckIn)

		// USSD gateway webhook
		e.Router.POST("/api/v1/ussd/votes", ussdHandler.VoteWebhook)

		// Test endpoint for payment simulation
		if cfg.Environment == "development" {
			e.Router.POST("/api/v1/test/simulate-payment", ticketHandler.SimulatePayment)
		}

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(http.StatusServiceUnavailable, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(http.StatusOK, map[string]string{"status": "healthy"})
		})

		logger.Info("server routes registered")

		return e.Next()
	})

	// Start server
	return app.Start()
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	slog.Info("shutdown signal received, cleaning up")
	cancel()
}

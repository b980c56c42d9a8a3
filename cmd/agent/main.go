// Entry point for the auto-checkout agent
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"autocheckout.service/internal/api"
	"autocheckout.service/internal/api/handler"
	"autocheckout.service/internal/config"
	"autocheckout.service/internal/core"
	"autocheckout.service/internal/core/model"
	"autocheckout.service/internal/gateway"
	"autocheckout.service/internal/ports/messaging"
	"autocheckout.service/internal/ports/repository"
	"autocheckout.service/pkg/aws"
	"autocheckout.service/pkg/database"
	"autocheckout.service/pkg/logger"
	"autocheckout.service/pkg/telemetry"
)

func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load configuration")
	}

	// Configure structured logging
	logger.Setup(cfg.IsLocalDev)

	// Configure OpenTelemetry Tracing
	shutdownTracer, err := telemetry.InitTracer("autocheckout-agent", cfg.OTLPEndpoint, cfg.IsLocalDev)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to init tracer")
	}
	defer func() {
		_ = shutdownTracer(context.Background())
	}()

	// All date decisions use the employee's local timezone.
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.Timezone).Msg("Invalid timezone")
	}

	// Journal DB connection
	db, err := database.NewConnection(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening database")
	}
	defer db.Close()
	log.Info().Msg("Successfully connected to the database.")

	// AWS SDK Config
	awsCfg, err := aws.NewAWSConfig(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to load SDK config")
	}

	// Initialize dependencies
	sqsClient := sqs.NewFromConfig(awsCfg)
	repo := repository.NewJournalRepository(db)
	producer := messaging.NewSQSProducer(sqsClient, cfg.NotifySQSQueueURL)
	apiClient := gateway.NewHTTPClient(cfg.AttendanceAPIURL, cfg.AttendanceAPIToken)

	// The completion callback is the agent-side equivalent of the portal
	// refreshing its attendance view: the record is closed now, so the
	// clocked-in flag is recomputed to false.
	var scheduler *core.Scheduler
	onComplete := func(date model.LocalDate, checkOutTime string) {
		log.Info().Str("date", date.String()).Str("check_out_time", checkOutTime).Msg("Checkout completed")
		scheduler.SetEnabled(false)
	}

	service := core.NewAutoCheckoutService(apiClient, repo, producer, cfg.EmployeeID, cfg.CheckoutLocation, onComplete)
	reconciler := core.NewReconciler(apiClient, service, loc)
	scheduler = core.NewScheduler(core.SystemClock{}, loc, service, reconciler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	scheduler.Start(ctx)

	// Setup router and server
	router := api.NewRouter(&handler.AgentHandler{
		Scheduler: scheduler,
		Gateway:   apiClient,
		Executor:  service,
		Clock:     core.SystemClock{},
		Location:  loc,
		Workplace: cfg.CheckoutLocation,
	})

	// Middleware to inject logger with trace ID
	loggerMiddleware := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ctx = logger.EnrichContextWithLogger(ctx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}

	// Wrap the router with OpenTelemetry middleware to create spans for each request
	h := otelhttp.NewHandler(loggerMiddleware(router), "agent")

	serverAddr := ":" + cfg.ServerPort
	srv := &http.Server{
		Addr:    serverAddr,
		Handler: h,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.ServerPort).Msg("Auto-checkout agent starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	// Wait for interrupt signal to gracefully shut down.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down agent...")

	// Release every scheduler timer before the server stops serving status.
	scheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Agent exiting")
}

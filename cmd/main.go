package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"logistics-live-tracking/internal/config"
	"logistics-live-tracking/internal/delivery/http/handler"
	"logistics-live-tracking/internal/domain/depot"
	"logistics-live-tracking/internal/infrastructure/database/postgres"
	"logistics-live-tracking/internal/logger"
	"logistics-live-tracking/internal/routes"
	"logistics-live-tracking/internal/telemetry"
	"logistics-live-tracking/internal/tracking"
	"logistics-live-tracking/pkg/mqtt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("Failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	env := cfg.Server.Environment
	if env == "" {
		env = "development"
	}
	if err := logger.Init(env); err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("environment", env),
	)

	if cfg.Database.Host == "" || cfg.Database.DBName == "" {
		logger.Fatal("Database configuration is missing. Please set DB_HOST and DB_NAME environment variables.")
	}
	if cfg.Telemetry.BaseURL == "" || cfg.Telemetry.Username == "" {
		logger.Fatal("Telemetry provider configuration is missing. Please set TELEMETRY_BASE_URL and TELEMETRY_USERNAME environment variables.")
	}

	db, err := postgres.NewDB(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	entries, err := config.LoadDepots(cfg.Depots.File)
	if err != nil {
		logger.Fatal("Failed to load depot catalog", zap.Error(err))
	}
	depots := make([]depot.Depot, len(entries))
	for i, e := range entries {
		depots[i] = depot.Depot{
			Name:         e.Name,
			Latitude:     e.Latitude,
			Longitude:    e.Longitude,
			RadiusMeters: e.RadiusMeters,
		}
	}
	catalog := depot.NewStaticCatalog(depots)
	logger.Info("Depot catalog loaded", zap.Int("depots", len(depots)))

	tokenRepo := postgres.NewTokenRepository(db)
	session := telemetry.NewSession(telemetry.SessionConfig{
		BaseURL:  cfg.Telemetry.BaseURL,
		Username: cfg.Telemetry.Username,
		Password: cfg.Telemetry.Password,
		Timeout:  time.Duration(cfg.Telemetry.RequestTimeoutSec) * time.Second,
	}, tokenRepo, logger.Named("telemetry"))
	client := telemetry.NewClient(session)

	loadRepo := postgres.NewLoadRepository(db)

	var publisher tracking.EventPublisher
	if cfg.MQTT.Enabled {
		mqttClient := mqtt.NewClient(&mqtt.Config{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
		}, logger.Named("mqtt"))
		if err := mqttClient.Connect(); err != nil {
			// Tracking still works without the broker; events are only
			// mirrored there.
			logger.Warn("MQTT broker unreachable, geofence events will not be published", zap.Error(err))
		}
		defer mqttClient.Disconnect()
		publisher = tracking.NewMQTTPublisher(mqttClient, cfg.MQTT.EventsTopic)
	}

	reducer := tracking.NewReducer(loadRepo, publisher, logger.Named("reducer"))
	snapshots := tracking.NewSnapshotStore()
	hub := tracking.NewHub(logger.Named("ws"))

	poller := tracking.NewPoller(
		tracking.PollerConfig{
			OrganisationID:  cfg.Telemetry.OrganisationID,
			Interval:        time.Duration(cfg.Poller.IntervalSec) * time.Second,
			TickTimeout:     time.Duration(cfg.Poller.TickTimeoutSec) * time.Second,
			AverageSpeedKmh: cfg.Poller.AverageSpeedKmh,
		},
		client, loadRepo, catalog, reducer, snapshots, hub, logger.Named("poller"),
	)

	pollCtx, pollCancel := context.WithCancel(context.Background())
	defer pollCancel()
	go poller.Run(pollCtx)

	trackingHandler := handler.NewTrackingHandler(
		session, poller, snapshots, hub, catalog,
		cfg.Telemetry.Username, cfg.Telemetry.Password,
	)
	router := routes.SetupRoutes(cfg, db, trackingHandler)

	host := cfg.Server.Host
	if host == "" {
		host = "0.0.0.0"
	}
	port := cfg.Server.Port
	if port == "" {
		port = "8080"
	}
	addr := net.JoinHostPort(host, port)

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting",
			zap.String("address", addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown Server ...")

	pollCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Failed to shutdown server", zap.Error(err))
	}

	log.Println("Server exited properly")
}

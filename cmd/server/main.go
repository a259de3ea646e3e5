package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	apigrpc "rentdesk-backend/internal/api/grpc"
	httpapi "rentdesk-backend/internal/api/http"
	"rentdesk-backend/internal/cache"
	"rentdesk-backend/internal/config"
	"rentdesk-backend/internal/jobs"
	"rentdesk-backend/internal/logger"
	"rentdesk-backend/internal/repository"
	"rentdesk-backend/internal/repository/memory"
	"rentdesk-backend/internal/repository/postgres"
	"rentdesk-backend/internal/scheduler"
	"rentdesk-backend/internal/security"
	"rentdesk-backend/internal/service"

	_ "github.com/lib/pq"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	envFile := flag.String("env", ".env", "Optional .env file loaded before the configuration")
	withScheduler := flag.Bool("scheduler", true, "Run cron jobs inside the server process")
	flag.Parse()

	config.LoadDotEnv(*envFile)

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting RentDesk Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "http_address", cfg.GetHTTPAddress(), "grpc_address", cfg.GetGRPCAddress(), "store", cfg.Store.Type)

	var checks []apigrpc.Check

	// Initialize Store
	var store repository.Store
	var db *sql.DB
	switch cfg.Store.Type {
	case config.StoreTypeMemory:
		logger.Warn("Using in-memory store, data is lost on restart")
		store = memory.NewStore()
	default:
		logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
		db, err = sql.Open("postgres", cfg.GetDatabaseConnectionString())
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := db.Ping(); err != nil {
			logger.Error("Failed to ping database", "error", err)
			log.Fatalf("Failed to ping database: %v", err)
		}
		logger.Info("Database connection established")
		store = postgres.NewStore(db)
		checks = append(checks, apigrpc.Check{Name: "postgres", Fn: db.PingContext})
	}

	// Initialize Calendar Cache
	var calendar cache.CalendarCache = cache.Noop{}
	if cfg.Redis.Addr != "" {
		client, err := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Warn("Redis unavailable, reservation calendars will not be cached", "addr", cfg.Redis.Addr, "error", err)
		} else {
			defer client.Close()
			calendar = cache.NewRedisCalendarCache(client, cfg.CalendarTTL())
			checks = append(checks, apigrpc.Check{Name: "redis", Fn: func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			}})
			logger.Info("Reservation calendar cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.CalendarTTL())
		}
	}

	// Initialize Services
	billing := service.BillingPolicy{
		PaymentTerms: cfg.PaymentTerms(),
		LateFeeRate:  cfg.LateFeeRate(),
	}
	availabilitySvc := service.NewAvailabilityService(store, calendar)
	productSvc := service.NewProductService(store)
	quotationSvc := service.NewQuotationService(store)
	orderSvc := service.NewOrderService(store, calendar, billing)
	invoiceSvc := service.NewInvoiceService(store, billing)

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer)

	// Set up HTTP API
	handler := httpapi.NewHandler(httpapi.Services{
		Availability: availabilitySvc,
		Products:     productSvc,
		Quotations:   quotationSvc,
		Orders:       orderSvc,
		Invoices:     invoiceSvc,
	})
	httpServer := httpapi.NewServer(cfg.GetHTTPAddress(), httpapi.NewRouter(handler, tokenManager))

	// Set up gRPC health server
	grpcServer, healthServer := apigrpc.NewServer()
	lis, err := net.Listen("tcp", cfg.GetGRPCAddress())
	if err != nil {
		logger.Error("Failed to listen", "error", err, "address", cfg.GetGRPCAddress())
		log.Fatalf("Failed to listen: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	monitor := apigrpc.NewHealthMonitor(healthServer, 15*time.Second, checks...)
	go monitor.Run(ctx)

	errCh := make(chan error, 2)
	go func() {
		logger.Info("gRPC server listening", "address", cfg.GetGRPCAddress())
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()
	go func() {
		logger.Info("HTTP server listening", "address", cfg.GetHTTPAddress())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	// Start Scheduler
	var cronScheduler *scheduler.Scheduler
	if *withScheduler {
		jobRunner := jobs.NewJobRunner(&jobs.Services{Invoices: invoiceSvc}, cfg)
		cronScheduler = scheduler.NewScheduler(jobRunner)
		cronScheduler.Start()
	}

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		logger.Error("Server failed", "error", err)
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	grpcServer.GracefulStop()
	if cronScheduler != nil {
		cronScheduler.Stop()
	}
	logger.Info("RentDesk Backend stopped. Goodbye!")
}

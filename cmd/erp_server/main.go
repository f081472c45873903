package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/solaris-erp/backoffice/internal/config"
	"github.com/solaris-erp/backoffice/internal/data/mongo"
	"github.com/solaris-erp/backoffice/internal/data/postgres"
	"github.com/solaris-erp/backoffice/internal/logger"
	"github.com/solaris-erp/backoffice/internal/platform/notifier"
	"github.com/solaris-erp/backoffice/internal/platform/omie"
	"github.com/solaris-erp/backoffice/internal/platform/persistence"
	"github.com/solaris-erp/backoffice/internal/server"
	"github.com/solaris-erp/backoffice/internal/server/service"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("erp_server")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	// Initialize databases with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	recordRepo := postgres.NewFinancialRecordRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	ticketRepo := postgres.NewTicketRepository(log, postgresDB)
	saleRepo := postgres.NewSaleRepository(log, postgresDB)
	installmentRepo := postgres.NewFranchiseInstallmentRepository(log, postgresDB)
	paymentRepo := postgres.NewPaymentRepository(log, postgresDB)
	auditRepo := mongo.NewAuditRepository(log, mongoDB.Database())

	// Initialize outbound clients
	omieClient := omie.NewClient(&cfg.Omie, nil, log)
	webhookNotifier := notifier.New(nil, cfg.Webhooks.OutboundTimeout, log)

	// Initialize services
	services := server.Services{
		Financial: service.NewFinancialService(log, postgresDB, recordRepo, outboxRepo, auditRepo, omieClient, webhookNotifier, &cfg.Webhooks),
		Lookup:    service.NewLookupService(log, omieClient),
		Ticket:    service.NewTicketService(log, postgresDB, ticketRepo, outboxRepo, auditRepo),
		Sale:      service.NewSaleService(log, postgresDB, saleRepo, installmentRepo, auditRepo),
		Payment:   service.NewPaymentService(log, postgresDB, paymentRepo),
	}

	// Initialize REST server
	srv := server.NewServer(log, cfg, services)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := srv.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server first so in-flight requests drain
	if err = srv.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}

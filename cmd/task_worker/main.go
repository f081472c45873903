package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/solaris-erp/backoffice/internal/config"
	"github.com/solaris-erp/backoffice/internal/data/postgres"
	"github.com/solaris-erp/backoffice/internal/logger"
	"github.com/solaris-erp/backoffice/internal/platform/messaging/consumers"
	"github.com/solaris-erp/backoffice/internal/platform/messaging/producers"
	"github.com/solaris-erp/backoffice/internal/platform/notifier"
	"github.com/solaris-erp/backoffice/internal/platform/omie"
	"github.com/solaris-erp/backoffice/internal/platform/persistence"
	"github.com/solaris-erp/backoffice/internal/task_worker/consumer"
	"github.com/solaris-erp/backoffice/internal/task_worker/handlers"
	"github.com/solaris-erp/backoffice/internal/task_worker/outbox_poller"
	"github.com/solaris-erp/backoffice/internal/task_worker/service"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("task_worker")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting Task Worker",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	// Initialize database with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	recordRepo := postgres.NewFinancialRecordRepository(log, postgresDB)
	ticketRepo := postgres.NewTicketRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)

	// Initialize outbound clients
	omieClient := omie.NewClient(&cfg.Omie, nil, log)
	webhookNotifier := notifier.New(nil, cfg.Webhooks.OutboundTimeout, log)

	// Initialize Kafka consumer
	kafkaConsumer := consumers.NewKafkaConsumer(appCtx, log, &cfg.Kafka)

	// Initialize Kafka DLQ producer
	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ Kafka producer", "error", err)
		os.Exit(1)
	}
	// dlqProducer might be nil if DLQTopic is not configured. Handler is nil-safe.

	// Initialize the task topic producer used by the outbox poller
	taskProducer, err := producers.NewTaskMessageProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize task Kafka producer", "error", err)
		os.Exit(1)
	}

	// Register the task handlers behind the dispatcher
	dispatch := service.NewDispatchService(log,
		handlers.NewSendToOmieHandler(log, recordRepo, omieClient),
		handlers.NewResendApprovalHandler(log, recordRepo, omieClient, webhookNotifier, &cfg.Webhooks),
		handlers.NewNotifyAuditChangeHandler(log, recordRepo, omieClient, webhookNotifier, &cfg.Webhooks),
		handlers.NewTicketTeamsHandler(log, ticketRepo, webhookNotifier, &cfg.Webhooks),
	)

	// Bound concurrent task execution with the worker pool
	processingService, err := service.NewWorkerPoolProcessingService(
		dispatch,
		service.WorkerPoolConfig{Size: cfg.WorkerPool.Size},
		log,
	)
	if err != nil {
		log.Error("Failed to initialize worker pool", "error", err)
		os.Exit(1)
	}

	// Initialize the task event handler
	taskEventHandler := consumer.NewTaskEventHandler(log, processingService, dlqProducer)

	// Initialize outbox poller
	taskPublisher := outbox_poller.NewKafkaTaskPublisher(log, outboxRepo, taskProducer)
	poller := outbox_poller.NewPoller(&cfg.Outbox, outboxRepo, taskPublisher, log)

	// Create error channel for service errors
	errChan := make(chan error, 2)

	// Create wait group for graceful shutdown
	var wg sync.WaitGroup

	// Start Kafka consumer in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting Kafka consumer",
			"topic", cfg.Kafka.TaskTopic,
			"group", cfg.Kafka.ConsumerGroup,
		)
		if err := kafkaConsumer.Subscribe(appCtx, cfg.Kafka.TaskTopic, cfg.Kafka.ConsumerGroup, taskEventHandler.HandleMessage); err != nil {
			errChan <- fmt.Errorf("kafka consumer error: %w", err)
		}
	}()

	// Start outbox poller in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting task-outbox poller",
			"interval", cfg.Outbox.PollingInterval.String(),
			"batch_size", cfg.Outbox.BatchSize,
		)
		poller.Start(appCtx)
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serviceErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Service error occurred", "error", err)
		serviceErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Shutdown the worker pool
	processingService.Shutdown()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Wait for all goroutines to finish
	log.Info("Waiting for services to stop...")
	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(wgChan)
	}()

	select {
	case <-wgChan:
		log.Info("All services stopped successfully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	// Close Kafka producers
	if dlqProducer != nil { // dlqProducer can be nil if DLQTopic was not configured
		if err = dlqProducer.Close(); err != nil {
			log.Error("Error closing DLQ Kafka producer", "error", err)
		}
	}
	if err = taskProducer.Close(); err != nil {
		log.Error("Error closing task Kafka producer", "error", err)
	}

	// Close Kafka consumer
	if err = kafkaConsumer.Close(); err != nil {
		log.Error("Error closing Kafka consumer", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	// Final status
	if serviceErr != nil {
		log.Error("Task Worker shutdown with errors", "error", serviceErr)
	}
	if err != nil {
		log.Error("Task Worker shutdown completed with errors")
	} else {
		log.Info("Task Worker shutdown completed successfully")
	}
}

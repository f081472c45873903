package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/solaris-erp/backoffice/internal/config"
	"github.com/solaris-erp/backoffice/internal/server/handler"
	"github.com/solaris-erp/backoffice/internal/server/service"
)

// Services groups the application services consumed by the HTTP layer.
type Services struct {
	Financial service.FinancialRecordService
	Lookup    service.LookupService
	Ticket    service.TicketService
	Sale      service.SaleService
	Payment   service.PaymentService
}

// Server handles HTTP requests and manages the application's lifecycle
type Server struct {
	logger     *slog.Logger // For structured logging
	httpServer *http.Server // Underlying HTTP server
	httpRouter *gin.Engine  // Gin router instance
}

// NewServer creates and configures a new HTTP server with the given services
func NewServer(log *slog.Logger, cfg *config.Config, services Services) *Server {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpRouter := gin.New()

	financialHandler := handler.NewFinancialRecordHandler(log, services.Financial)
	lookupHandler := handler.NewLookupHandler(log, services.Lookup)
	webhookHandler := handler.NewWebhookHandler(log, services.Financial)
	ticketHandler := handler.NewTicketHandler(log, services.Ticket)
	saleHandler := handler.NewSaleHandler(log, services.Sale)
	paymentHandler := handler.NewPaymentHandler(log, services.Payment)

	setupRouter(log, httpRouter, financialHandler, lookupHandler, webhookHandler, ticketHandler, saleHandler, paymentHandler)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		logger:     log,
		httpServer: httpServer,
		httpRouter: httpRouter,
	}
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server with a timeout
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.httpServer.WriteTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}

	return nil
}

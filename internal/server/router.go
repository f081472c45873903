package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/solaris-erp/backoffice/internal/server/handler"
	"github.com/solaris-erp/backoffice/internal/server/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	financialHandler *handler.FinancialRecordHandler,
	lookupHandler *handler.LookupHandler,
	webhookHandler *handler.WebhookHandler,
	ticketHandler *handler.TicketHandler,
	saleHandler *handler.SaleHandler,
	paymentHandler *handler.PaymentHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Accounting lookups backing the request form
		v1.GET("/suppliers", lookupHandler.SearchSuppliers)
		v1.POST("/suppliers", lookupHandler.CreateSupplier)
		v1.GET("/categories", lookupHandler.ListCategories)

		// Payment request pipeline
		records := v1.Group("/financial-records")
		{
			records.POST("", financialHandler.Create)
			records.GET("/:id", financialHandler.GetByID)
			records.GET("/:id/history", financialHandler.History)
			records.POST("/:id/manager-approval", financialHandler.ManagerApproval)
			records.POST("/:id/audit", financialHandler.Audit)
			records.POST("/:id/resend-approval", financialHandler.ResendApproval)
			records.POST("/:id/send-to-omie", financialHandler.SendToOmie)
			records.DELETE("/:id", financialHandler.Delete)
		}

		// Inbound callbacks
		v1.POST("/webhooks/payment-paid", webhookHandler.PaymentPaid)

		// Ticket lifecycle
		tickets := v1.Group("/tickets")
		{
			tickets.POST("", ticketHandler.Create)
			tickets.GET("/:id", ticketHandler.GetByID)
			tickets.POST("/:id/transition", ticketHandler.Transition)
		}

		// Franchise payout inputs
		v1.PATCH("/sales/:id", saleHandler.Update)
		v1.POST("/payments", paymentHandler.Create)
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}

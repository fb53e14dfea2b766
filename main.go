package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"github.com/luishou/safe-xcx/config"
	"github.com/luishou/safe-xcx/database"
	"github.com/luishou/safe-xcx/handlers"
	"github.com/luishou/safe-xcx/middleware"
	"github.com/luishou/safe-xcx/rabbitmq"
	"github.com/luishou/safe-xcx/version"
)

func main() {
	cfg := config.Load()

	db, err := database.NewDatabase(cfg)
	if err != nil {
		stdlog.Fatal("Failed to create database connection:", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.EnsureReportsTable(ctx); err != nil {
		stdlog.Fatal("Failed to ensure reports table:", err)
	}
	if err := db.EnsureReportHistoryTable(ctx); err != nil {
		stdlog.Fatal("Failed to ensure report history table:", err)
	}

	// The lifecycle event stream is optional; the service runs without
	// a broker.
	var publisher *rabbitmq.Publisher
	if p, err := rabbitmq.NewPublisher(cfg.GetAMQPURL(), cfg.RabbitMQExchange, cfg.RabbitMQRoutingKey); err != nil {
		log.WithError(err).Warn("RabbitMQ unavailable, lifecycle events disabled")
	} else {
		publisher = p
		log.WithField("exchange", cfg.RabbitMQExchange).Info("RabbitMQ publisher initialized")
	}

	h := handlers.NewHandlers(db, cfg, publisher)
	router := setupRouter(cfg, h)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			stdlog.Fatal("Failed to start HTTP server:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		stdlog.Fatal("Server forced to shutdown:", err)
	}

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.WithError(err).Warn("failed to close RabbitMQ publisher")
		}
	}

	log.Info("server exited")
}

func setupRouter(cfg *config.Config, h *handlers.Handlers) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.RequestID())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeaders())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, version.Get())
	})

	report := router.Group("/report")
	report.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	{
		report.POST("/submit", h.SubmitReport)
		report.GET("/my-reports", h.GetMyReports)
		report.GET("/personal-reports", h.GetMyReports)
		report.GET("/public-reports", h.GetPublicReports)

		admin := report.Group("")
		admin.Use(middleware.RequireAdmin())
		{
			admin.GET("/list", h.GetManagementReports)
			admin.GET("/stats", h.GetStats)
			admin.GET("/export", h.ExportReports)
			admin.PUT("/:id/status", h.UpdateReportStatus)
			admin.POST("/:id/complete", h.CompleteReport)
			admin.POST("/:id/images", h.UploadRectifiedImages)
		}

		report.GET("/:id", h.GetReportDetail)
		report.POST("/:id/history", h.AddReportHistory)
	}

	return router
}

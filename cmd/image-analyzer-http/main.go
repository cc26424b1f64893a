package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ironsheep/image-analyzer-mcp/internal/config"
	"github.com/ironsheep/image-analyzer-mcp/internal/httpapi"
	"github.com/ironsheep/image-analyzer-mcp/internal/logger"
	"github.com/sirupsen/logrus"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("image-analyzer-http %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("image-analyzer-http - HTTP API for grayscale, histogram and threshold analysis")
			fmt.Println()
			fmt.Println("Usage: image-analyzer-http [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  HOST=0.0.0.0                       Listen address")
			fmt.Println("  PORT=8080                          Listen port")
			fmt.Println("  REQUEST_TIMEOUT=30s                Per-request analysis timeout")
			fmt.Println("  MAX_REQUEST_BODY_SIZE=20971520     Upload limit in bytes")
			fmt.Println("  IMAGE_ANALYZER_LOG_LEVEL=info      debug, info, warn or error")
			fmt.Println("  IMAGE_ANALYZER_LOG_FORMAT=text     text or json")
			fmt.Println("  IMAGE_ANALYZER_GRAY_MODEL=cie      cie or rec601")
			fmt.Println("  IMAGE_ANALYZER_GRAY_QUALITY=default default, speed or precise")
			return
		}
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Configure(cfg.LogLevel, cfg.LogFormat, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to configure logging: %v\n", err)
		os.Exit(1)
	}
	gin.SetMode(gin.ReleaseMode)

	server := &http.Server{
		Addr:         cfg.ServerAddress(),
		Handler:      httpapi.NewHandler(cfg),
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.WithFields(logrus.Fields{
			"address":      cfg.ServerAddress(),
			"timeout":      cfg.RequestTimeout,
			"gray_model":   cfg.GrayModel.String(),
			"gray_quality": cfg.GrayQuality.String(),
			"version":      Version,
		}).Info("Starting HTTP server")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited")
}

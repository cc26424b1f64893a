package main

import (
	"fmt"
	"os"

	"github.com/ironsheep/image-analyzer-mcp/internal/config"
	"github.com/ironsheep/image-analyzer-mcp/internal/logger"
	"github.com/ironsheep/image-analyzer-mcp/internal/server"
	"github.com/sirupsen/logrus"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("image-analyzer-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("image-analyzer-mcp - MCP server for grayscale, histogram and threshold analysis")
			fmt.Println()
			fmt.Println("Usage: image-analyzer-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  IMAGE_ANALYZER_LOG_LEVEL=debug     debug, info, warn or error")
			fmt.Println("  IMAGE_ANALYZER_LOG_FORMAT=text     text or json")
			fmt.Println("  IMAGE_ANALYZER_CACHE_SIZE=32       Cached images, 0 for unbounded")
			fmt.Println("  IMAGE_ANALYZER_GRAY_MODEL=cie      cie or rec601")
			fmt.Println("  IMAGE_ANALYZER_GRAY_QUALITY=default default, speed or precise")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Logs go to stderr, stdout is for MCP protocol
	if err := logger.Configure(cfg.LogLevel, cfg.LogFormat, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to configure logging: %v\n", err)
		os.Exit(1)
	}

	logger.WithFields(logrus.Fields{
		"version":      Version,
		"build_time":   BuildTime,
		"commit":       GitCommit,
		"cache_size":   cfg.CacheSize,
		"gray_model":   cfg.GrayModel.String(),
		"gray_quality": cfg.GrayQuality.String(),
	}).Debug("Image analyzer MCP server starting")

	srv := server.New(cfg)
	if err := srv.Run(); err != nil {
		logger.WithError(err).Fatal("Server error")
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/depth-metrology-mcp/internal/config"
	"github.com/ironsheep/depth-metrology-mcp/internal/logging"
	"github.com/ironsheep/depth-metrology-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	var configPath string

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version", "-v", "version":
			fmt.Printf("depth-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printUsage()
			return
		case "--config", "-c":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--config requires a file path")
				os.Exit(2)
			}
			i++
			configPath = args[i]
		default:
			fmt.Fprintf(os.Stderr, "unknown argument %q (see --help)\n", args[i])
			os.Exit(2)
		}
	}

	cfg, err := config.Load(configPath, ".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "depth-mcp: %v\n", err)
		os.Exit(1)
	}

	// Logs go to stderr; stdout is for MCP protocol.
	logger, err := logging.New("depth-mcp", cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "depth-mcp: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Infow("starting depth metrology MCP server",
		"version", Version,
		"build_time", BuildTime,
		"commit", GitCommit,
		"output_dir", cfg.Output.Dir,
		"window_size", cfg.Roughness.WindowSize,
		"denoise", cfg.Preprocess.Denoise,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, logger, Version)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Errorw("server error", "error", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("depth-mcp - MCP server for depth image metrology")
	fmt.Println()
	fmt.Println("Usage: depth-mcp [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --config, -c <path>  YAML configuration file")
	fmt.Println("  --version, -v        Print version information")
	fmt.Println("  --help, -h           Print this help message")
	fmt.Println()
	fmt.Println("Environment variables (override the configuration file; also read from .env):")
	fmt.Printf("  %-22s YAML configuration file when --config is not given\n", config.EnvConfigPath)
	fmt.Printf("  %-22s Meters per raw depth unit (default 0.001)\n", config.EnvDepthScale)
	fmt.Printf("  %-22s Focal length X in pixels (default 600)\n", config.EnvFocalLengthX)
	fmt.Printf("  %-22s Focal length Y in pixels (default 600)\n", config.EnvFocalLengthY)
	fmt.Printf("  %-22s Principal point X in pixels\n", config.EnvPrincipalX)
	fmt.Printf("  %-22s Principal point Y in pixels\n", config.EnvPrincipalY)
	fmt.Printf("  %-22s Roughness window size (default 5)\n", config.EnvWindowSize)
	fmt.Printf("  %-22s Median filter by default (true/false)\n", config.EnvDenoise)
	fmt.Printf("  %-22s Parallel detections in depth_analyze\n", config.EnvWorkers)
	fmt.Printf("  %-22s Directory for saved renderings (default results)\n", config.EnvOutputDir)
	fmt.Printf("  %-22s debug, info, warn or error\n", config.EnvLogLevel)
	fmt.Println()
	fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ycho/linear-mcp-server/internal/api"
	"github.com/ycho/linear-mcp-server/internal/config"
	"github.com/ycho/linear-mcp-server/internal/mcp"
)

var (
	version = mcp.ServerVersion

	// Global flags
	configFile string
	linearURL  string
	port       int
	logLevel   string

	cfg *config.Config
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "linear-mcp-server",
		Short:   "Linear MCP Server - AI assistant integration for Linear",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = loadConfig(cmd)
			if err != nil {
				return err
			}
			setupLogging(cfg.Log.Level)
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&linearURL, "linear-url", "", "Linear GraphQL endpoint (overrides config file and "+config.EnvLinearURL+")")
	rootCmd.PersistentFlags().IntVar(&port, "port", config.DefaultPort, "Server port (for SSE and API modes)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	// MCP command
	mcpCmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server",
		Long:  "Start the MCP server in stdio or SSE mode",
		RunE:  runMCP,
	}

	var sseMode bool
	mcpCmd.Flags().BoolVar(&sseMode, "sse", false, "Run in SSE mode instead of stdio")

	// API command
	apiCmd := &cobra.Command{
		Use:   "api",
		Short: "Start REST API server",
		Long:  "Start the REST API server exposing the Linear tools over HTTP",
		RunE:  runAPI,
	}

	rootCmd.AddCommand(mcpCmd, apiCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig layers explicitly set flags over the file and environment.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	c, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("linear-url") {
		c.Linear.URL = linearURL
	}
	if flags.Changed("port") {
		c.Server.Port = port
	}
	if flags.Changed("log-level") {
		c.Log.Level = logLevel
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func setupLogging(logLevel string) {
	var level slog.Level
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

func runMCP(cmd *cobra.Command, args []string) error {
	sseMode, _ := cmd.Flags().GetBool("sse")

	server := mcp.NewServer(mcp.Config{
		LinearURL:     cfg.Linear.URL,
		LinearAPIKey:  cfg.Linear.APIKey,
		LinearTimeout: cfg.Linear.Timeout,
		Port:          cfg.Server.Port,
		SSEMode:       sseMode,
	})
	return server.Run()
}

func runAPI(cmd *cobra.Command, args []string) error {
	server := api.NewServer(api.Config{
		LinearURL:     cfg.Linear.URL,
		LinearAPIKey:  cfg.Linear.APIKey,
		LinearTimeout: cfg.Linear.Timeout,
		Port:          cfg.Server.Port,
	})
	return server.Run()
}

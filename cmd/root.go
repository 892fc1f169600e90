package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version is reported by the CLI, the /version endpoint, and the health
// endpoints.
const Version = "1.0.0"

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ocr-gateway",
		Short: "HTTP gateway for OCR processing backed by dots.ocr",
		Long: `ocr-gateway accepts image uploads over HTTP, forwards them to a dots.ocr
inference service, and normalizes its responses into a stable JSON contract.

It validates uploads before any disk or network work happens, stages accepted
files on local disk for the duration of the request, and always cleans them up.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			setupLogging()
		},
	}

	// Add subcommands
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newStubCmd())

	return cmd
}

// setupLogging configures the default slog logger from LOG_LEVEL.
func setupLogging() {
	logLevel := slog.LevelInfo
	switch strings.ToUpper(os.Getenv("LOG_LEVEL")) {
	case "DEBUG":
		logLevel = slog.LevelDebug
	case "WARN", "WARNING":
		logLevel = slog.LevelWarn
	case "ERROR":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}

package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"

	"github.com/MohmdFo/ocr-gateway/internal/config"
	"github.com/MohmdFo/ocr-gateway/internal/dotsocr"
	"github.com/MohmdFo/ocr-gateway/internal/handlers"
	"github.com/MohmdFo/ocr-gateway/internal/ocr"
)

func newServeCmd() *cobra.Command {
	var port string
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the OCR gateway HTTP server",
		Long: `Starts the OCR gateway on the specified port.

The gateway accepts image uploads, forwards them to the configured dots.ocr
service, and returns normalized OCR results. Use DOTS_OCR_URL to point it at
the inference backend.`,
		Example: `  # Start the gateway on the default port 8000
  ocr-gateway serve

  # Use a different backend and port
  DOTS_OCR_URL=http://dots-ocr:8501 ocr-gateway serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
			}

			// Composition root: one backend client shared by every request
			client := dotsocr.NewClient(cfg.DotsOCRURL, cfg.RequestTimeout)
			service := ocr.NewService(client)
			handler := handlers.New(cfg, service, Version)

			if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
				slog.Warn("Unable to create upload directory at startup", "dir", cfg.UploadDir, "err", err)
			}

			// Set up routes
			r := chi.NewRouter()
			r.Use(middleware.RequestID)
			r.Use(middleware.Logger)
			r.Use(middleware.Recoverer)
			r.Use(middleware.Timeout(60 * time.Second))

			r.Use(cors.Handler(cors.Options{
				AllowedOrigins: []string{"*"},
				AllowedMethods: []string{"GET", "POST", "OPTIONS"},
				AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			}))

			r.Get("/", handler.HandleWelcome)
			r.Get("/health", handler.HandleHealth)
			r.Get("/version", handler.HandleVersion)

			r.Route("/v1/ocr", func(api chi.Router) {
				api.Post("/upload", handler.HandleUpload)
				api.Post("/process", handler.HandleProcess)
				api.Get("/health", handler.HandleOCRHealth)
				api.Get("/supported-formats", handler.HandleSupportedFormats)
				api.Get("/stats", handler.HandleStats)
			})

			addr := ":" + cfg.Port
			server := &http.Server{
				Addr:    addr,
				Handler: r,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("OCR gateway listening", "addr", addr, "dots_ocr_url", cfg.DotsOCRURL)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (defaults to PORT or 8000)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")

	return cmd
}

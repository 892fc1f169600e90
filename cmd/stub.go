package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

// newStubCmd runs a stand-in dots.ocr service. It speaks the same wire
// contract as the real inference server but returns canned predictions,
// which is enough to exercise the gateway end to end without GPUs.
func newStubCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "stub",
		Short: "Run a stub dots.ocr backend for local development",
		Long: `Starts a small HTTP server that accepts the same multipart requests as a
real dots.ocr service and answers with canned predictions. Point the gateway
at it with DOTS_OCR_URL to test the full pipeline locally.`,
		Example: `  # Terminal 1: stub backend on the default port
  ocr-gateway stub

  # Terminal 2: gateway against the stub
  DOTS_OCR_URL=http://localhost:8501 ocr-gateway serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := ":" + port
			server := &http.Server{
				Addr:    addr,
				Handler: newStubHandler(),
			}

			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Stub dots.ocr backend listening", "addr", addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down stub backend...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Stub shutdown failed", "err", err)
					return err
				}
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8501", "Port to listen on")

	return cmd
}

// newStubHandler builds the stub's routes: the health probe and the OCR
// endpoint with canned predictions.
func newStubHandler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]string{"status": "healthy"}); err != nil {
			slog.Error("Unable to write stub health response", "err", err)
		}
	})

	mux.HandleFunc("/ocr", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "Missing file part: "+err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()

		size, _ := io.Copy(io.Discard, file)
		language := r.FormValue("language")
		slog.Info("Stub OCR request", "filename", header.Filename, "bytes", size, "language", language)

		response := map[string]any{
			"success": true,
			"message": "ok",
			"predictions": []map[string]any{
				{
					"text":       fmt.Sprintf("Stub OCR text for %s (%d bytes, language %s)", header.Filename, size, language),
					"confidence": 0.9,
					"bbox":       map[string]float64{"x": 0, "y": 0, "width": 100, "height": 20},
				},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			slog.Error("Unable to write stub OCR response", "err", err)
		}
	})

	return mux
}

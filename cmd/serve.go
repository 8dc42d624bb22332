package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/felo/eml-vectorizer/internal/classifier"
	"github.com/felo/eml-vectorizer/internal/handlers"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var (
		host      string
		port      string
		modelPath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the active fit over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load(cmd)
			if err != nil {
				return err
			}
			if host != "" {
				cfg.Host = host
			}
			if port != "" {
				cfg.Port = port
			}
			if modelPath != "" {
				cfg.ModelPath = modelPath
			}

			database, err := openDB(cfg, logger)
			if err != nil {
				return err
			}
			defer database.Close()

			h := handlers.New(database, cfg, logger)
			if cfg.ModelPath != "" {
				model, err := classifier.LoadLinearModel(cfg.ModelPath)
				if err != nil {
					return err
				}
				h.WithModel(model)
				logger.Info("model loaded", "path", cfg.ModelPath, "labels", model.Labels())
			}
			if err := h.LoadActiveFit(); err != nil {
				return err
			}

			// Create shutdown signal channel
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			// Create server
			srv := &http.Server{
				Addr:         cfg.Address(),
				Handler:      h.Routes(),
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 60 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				logger.Info("starting server", "url", cfg.URL())
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for interrupt signal or a failed listener
			select {
			case <-sigChan:
				logger.Info("shutting down gracefully")
			case err := <-serverErr:
				h.Close()
				return err
			}

			// Graceful shutdown
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("server shutdown error", "error", err)
			}

			// Stop a fit that is still loading the corpus
			h.Close()

			logger.Info("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "listen host")
	cmd.Flags().StringVar(&port, "port", "", "listen port")
	cmd.Flags().StringVar(&modelPath, "model", "", "linear model JSON file enabling /predict")

	return cmd
}

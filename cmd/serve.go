package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/Abeelha/portaljs-World-Sustainability-Dataset/internal/api"
)

var (
	serveAddr     string
	serveProvider string
	serveModel    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the query API over HTTP",
	Long: `Serve starts the HTTP API immediately and loads the dataset in the
background. Until the load finishes every /api route answers 503.`,
	Example: `  wsd serve --addr :9090
  wsd serve --provider gemini`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := cfg.ServeAddr
		if serveAddr != "" {
			addr = serveAddr
		}
		assistant, err := newAssistant(serveProvider, serveModel)
		if err != nil {
			return err
		}
		p := newPortal(assistant)
		e := api.NewServer(p, logger)

		ctx := cmd.Context()
		go func() {
			logger.Info("loading dataset in background", "source", cfg.DatasetSource)
			t0 := time.Now()
			if err := p.Load(ctx); err != nil {
				logger.Error("dataset load failed", "err", err)
				return
			}
			logger.Info("dataset ready", "records", p.Stats().Records, "elapsed", time.Since(t0))
		}()

		serverErr := make(chan error, 1)
		go func() {
			fmt.Fprintf(cmd.OutOrStdout(), "wsd API listening on http://%s (Ctrl+C to stop)\n", addr)
			serverErr <- e.Start(addr)
		}()

		select {
		case err := <-serverErr:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
		case <-ctx.Done():
			logger.Info("shutting down")
			sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := e.Shutdown(sctx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from serve_addr)")
	serveCmd.Flags().StringVar(&serveProvider, "provider", "", "AI provider for /api/insights and /api/ask")
	serveCmd.Flags().StringVar(&serveModel, "model", "", "model name for the AI provider")
}

package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"sjsage522/jobworker/internal"
	"sjsage522/jobworker/logger"
)

var workerDigest bool

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the pipeline every CRAWL_INTERVAL_SECONDS until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.Default

		log.Info().
			Str("environment", cfg.Environment).
			Str("board", cfg.BoardURL).
			Dur("crawl_interval", cfg.CrawlInterval).
			Msg("Starting application")

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		deps, err := internal.InitializeServices(ctx, cfg)
		if err != nil {
			return err
		}
		defer deps.Cleanup()

		w := newWorker(ctx, deps, workerDigest && deps.Mailer != nil)

		workerDone := make(chan error, 1)
		go func() {
			log.Info().Msg("Starting job worker")
			workerDone <- w.Start()
		}()

		select {
		case <-ctx.Done():
			log.Info().Msg("Received shutdown signal")
			err = <-workerDone
		case err = <-workerDone:
		}

		if err != nil {
			log.Error().Err(err).Msg("Worker exited with error")
			return err
		}
		log.Info().Msg("Shutting down gracefully...")
		return nil
	},
}

func init() {
	workerCmd.Flags().BoolVar(&workerDigest, "digest", true, "e-mail a digest after every run when SMTP is configured")
}

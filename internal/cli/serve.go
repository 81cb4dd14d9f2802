package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/TuanHung1810/ChatBox-AI/internal/config"
	"github.com/TuanHung1810/ChatBox-AI/internal/logger"
	"github.com/TuanHung1810/ChatBox-AI/internal/server"
	"github.com/TuanHung1810/ChatBox-AI/pkg/chat"
	"github.com/TuanHung1810/ChatBox-AI/pkg/llm"
	"github.com/TuanHung1810/ChatBox-AI/pkg/session"
	"github.com/TuanHung1810/ChatBox-AI/pkg/tabular"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the ChatBox HTTP server",
	Long: `Start the ChatBox HTTP server. The server exposes the chat, image
upload, CSV upload, history, and session management endpoints and runs
until interrupted.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.NewLoader(cfgFile).Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	lg, err := logger.New(logger.Config{
		Level:   cfg.Logging.Level,
		File:    cfg.Logging.File,
		Console: true,
		Pretty:  cfg.Logging.Pretty,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer lg.Close()

	gateway := llm.NewClient(llm.Config{
		APIKey:          cfg.AI.APIKey,
		BaseURL:         cfg.AI.BaseURL,
		TextModel:       cfg.AI.Model,
		VisionModel:     cfg.AI.VisionModel,
		MaxTokens:       cfg.AI.MaxTokens,
		VisionMaxTokens: cfg.AI.VisionMaxTokens,
	})

	orchestrator := chat.New(session.NewStore(), gateway)
	fetcher := tabular.NewFetcher(cfg.Uploads.Dir)

	srv, err := server.NewServer(server.Options{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		UploadDir:      cfg.Uploads.Dir,
		MaxUploadBytes: cfg.Uploads.MaxBytes,
	}, orchestrator, fetcher, *lg.Zerolog())
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("Signal received, shutting down")
		return srv.Stop()
	case err := <-errCh:
		return err
	}
}

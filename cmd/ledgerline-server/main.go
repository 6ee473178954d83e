// Package main provides the entry point for the ledgerline server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ledgerline-ai/ledgerline/internal/config"
	"github.com/ledgerline-ai/ledgerline/internal/event"
	"github.com/ledgerline-ai/ledgerline/internal/logging"
	"github.com/ledgerline-ai/ledgerline/internal/provider"
	"github.com/ledgerline-ai/ledgerline/internal/server"
	"github.com/ledgerline-ai/ledgerline/internal/session"
	"github.com/ledgerline-ai/ledgerline/internal/store"
	"github.com/ledgerline-ai/ledgerline/internal/summarizer"
	"github.com/ledgerline-ai/ledgerline/pkg/types"
)

var (
	// Version information set at build time
	Version   = "0.1.0"
	BuildTime = "dev"
)

var (
	servePort  int
	configPath string
	dataDir    string
	logLevel   string
	prettyLogs bool
)

var rootCmd = &cobra.Command{
	Use:   "ledgerline-server",
	Short: "Ledgerline - conversation session service",
	Long: `Ledgerline manages assistant conversation sessions for an embedding
business application: lifecycle, per-user admission, context window
assembly, and summarization.`,
	Version: Version,
	RunE:    runServe,
}

func init() {
	rootCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "Port to listen on")
	rootCmd.Flags().StringVar(&configPath, "config", "", "Config file (watched for changes)")
	rootCmd.Flags().StringVar(&dataDir, "data-dir", "", "Storage directory (defaults to XDG data dir)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug|info|warn|error)")
	rootCmd.Flags().BoolVar(&prettyLogs, "pretty-logs", false, "Human-readable log output")

	rootCmd.SetVersionTemplate(fmt.Sprintf("ledgerline-server %s (%s)\n", Version, BuildTime))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	// Best effort; running without a .env file is normal.
	godotenv.Load()

	appConfig, err := loadConfig()
	if err != nil {
		return err
	}

	if logLevel == "" {
		logLevel = appConfig.Log.Level
	}
	logging.Init(logging.Config{
		Level:  logLevel,
		Pretty: prettyLogs || appConfig.Log.Pretty,
	})

	log := logging.Component("main")
	log.Info().Str("version", Version).Msg("starting ledgerline server")

	paths := config.GetPaths()
	if err := paths.EnsurePaths(); err != nil {
		return fmt.Errorf("create data directories: %w", err)
	}

	storageDir := dataDir
	if storageDir == "" {
		storageDir = paths.StoragePath()
	}
	gateway := store.New(storageDir)
	log.Info().Str("path", storageDir).Msg("storage initialized")

	ctx := context.Background()

	providerReg, err := provider.InitializeProviders(ctx, appConfig)
	if err != nil {
		log.Warn().Err(err).Msg("some providers failed to initialize")
	}

	var sum summarizer.Summarizer
	if len(providerReg.List()) > 0 {
		sum = summarizer.NewLLM(providerReg, appConfig.Summarizer.MaxTokens)
	} else {
		log.Warn().Msg("no LLM providers available, summaries will degrade to the fallback synopsis")
	}

	bus := event.NewBus()
	defer bus.Close()

	sessions := session.NewService(gateway, sum, bus, appConfig.Policy)

	// Hot-reload policy knobs when an explicit config file changes on disk.
	var watcher *config.Watcher
	if configPath != "" {
		watcher, err = config.NewWatcher(configPath, func(updated *types.Config) {
			sessions.SetPolicy(updated.Policy)
			log.Info().Msg("policy reloaded from config")
		})
		if err != nil {
			log.Warn().Err(err).Msg("config watcher unavailable")
		} else {
			watcher.Start()
			defer watcher.Stop()
		}
	}

	sweeper := session.NewSweepRunner(sessions)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	serverConfig := server.DefaultConfig()
	serverConfig.Port = servePort

	srv := server.New(serverConfig, sessions, bus)

	go func() {
		log.Info().Int("port", servePort).Msg("server listening")
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}

	log.Info().Msg("server stopped")
	return nil
}

func loadConfig() (*types.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load()
}

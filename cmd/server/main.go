// Package main is the entry point for the ZapDeck dashboard backend.
// It serves the SPA's API: agent views fetched from the execution backend,
// combined wallet portfolios from two market-data sources, the deployment
// flow, and wallet login sessions. Two SQLite databases back it: app.db for
// users, sessions and cached views; client_cache.db for external API blobs.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/zapdeck/zapdeck/internal/clientcache"
	"github.com/zapdeck/zapdeck/internal/clients/botapi"
	"github.com/zapdeck/zapdeck/internal/clients/mobula"
	"github.com/zapdeck/zapdeck/internal/clients/tokenapi"
	"github.com/zapdeck/zapdeck/internal/config"
	"github.com/zapdeck/zapdeck/internal/database"
	"github.com/zapdeck/zapdeck/internal/identity"
	"github.com/zapdeck/zapdeck/internal/modules/agents"
	agenthandlers "github.com/zapdeck/zapdeck/internal/modules/agents/handlers"
	deployhandlers "github.com/zapdeck/zapdeck/internal/modules/deploy/handlers"
	portfoliohandlers "github.com/zapdeck/zapdeck/internal/modules/portfolio/handlers"
	sessionhandlers "github.com/zapdeck/zapdeck/internal/modules/session/handlers"
	"github.com/zapdeck/zapdeck/internal/portfolio"
	"github.com/zapdeck/zapdeck/internal/prompt"
	"github.com/zapdeck/zapdeck/internal/reliability"
	"github.com/zapdeck/zapdeck/internal/scheduler"
	"github.com/zapdeck/zapdeck/internal/server"
	"github.com/zapdeck/zapdeck/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting ZapDeck")

	// Databases
	appDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "app.db"),
		Profile: database.ProfileStandard,
		Name:    "app",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open app database")
	}
	defer appDB.Close()

	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "client_cache.db"),
		Profile: database.ProfileCache,
		Name:    "client_cache",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open client cache database")
	}
	defer cacheDB.Close()

	if err := appDB.InitAppSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize app schema")
	}
	if err := cacheDB.InitClientCacheSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize client cache schema")
	}

	// External clients
	cacheRepo := clientcache.NewRepository(cacheDB.Conn())
	botClient := botapi.NewClient(cfg.BotAPIURL, log)
	mobulaClient := mobula.NewClient(cfg.MobulaAPIURL, cfg.MobulaAPIKey, cacheRepo, log)
	tokenClient := tokenapi.NewClient(cfg.TokenAPIURL, cfg.TokenAPIKey, cacheRepo, log)

	// Services
	snapshots := portfolio.NewSnapshotStore(cacheRepo)
	portfolioService, err := portfolio.NewService(mobulaClient, tokenClient, cfg.TokenAPINetworks, snapshots, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create portfolio service")
	}

	sessions := identity.NewService(appDB.Conn(), log)
	agentService := agents.NewService(botClient, agents.NewViewRepository(appDB.Conn()), log)
	reviewer := prompt.NewReviewer(cfg.AnthropicAPIKey, log)

	// HTTP surface
	stream := server.NewHub(log)
	systemHandlers := server.NewSystemHandlers(log, cfg.DataDir, appDB, cacheDB, botClient, stream)

	deployHandler := deployhandlers.NewHandler(botClient, reviewer, sessions, log)
	srv := server.New(server.Config{
		Log:              log,
		Config:           cfg,
		SessionHandler:   sessionhandlers.NewHandler(sessions, deployHandler.Evict, log),
		AgentHandler:     agenthandlers.NewHandler(agentService, sessions, log),
		PortfolioHandler: portfoliohandlers.NewHandler(portfolioService, sessions, log),
		DeployHandler:    deployHandler,
		SystemHandlers:   systemHandlers,
		Stream:           stream,
	})

	// Background jobs
	sched := scheduler.New(log)

	agentsJob := &scheduler.AgentsRefreshJob{Agents: agentService, Sessions: sessions, Stream: stream, Log: log}
	if err := sched.AddJob(fmt.Sprintf("@every %s", cfg.AgentsRefresh), agentsJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register agents refresh job")
	}

	exploreJob := &scheduler.ExploreRefreshJob{Agents: agentService, Stream: stream, Log: log}
	if err := sched.AddJob(fmt.Sprintf("@every %s", cfg.ExploreRefresh), exploreJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register explore refresh job")
	}

	if err := sched.AddJob("@hourly", clientcache.NewCleanupJob(cacheRepo, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register cache cleanup job")
	}

	if cfg.Backup != nil && cfg.Backup.Enabled {
		r2Client, err := reliability.NewR2Client(
			context.Background(),
			cfg.Backup.AccountID,
			cfg.Backup.AccessKeyID,
			cfg.Backup.SecretAccessKey,
			cfg.Backup.BucketName,
			log,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create R2 client")
		}
		backupService := reliability.NewBackupService(
			r2Client,
			[]*database.DB{appDB, cacheDB},
			cfg.DataDir,
			cfg.Backup.RetentionDays,
			log,
		)
		if err := sched.AddJob("0 0 3 * * *", &reliability.BackupJob{Service: backupService}); err != nil {
			log.Fatal().Err(err).Msg("Failed to register backup job")
		}
		log.Info().Str("bucket", cfg.Backup.BucketName).Msg("R2 backups enabled")
	}

	sched.Start()

	// Warm the explore view so the first page load has content.
	go func() {
		if err := sched.RunNow(exploreJob); err != nil {
			log.Warn().Err(err).Msg("Initial explore refresh failed")
		}
	}()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

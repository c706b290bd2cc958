package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"satbridge/internal/config"
	"satbridge/internal/constants"
	"satbridge/internal/database"
	"satbridge/internal/ledger"
	"satbridge/internal/media"
	"satbridge/internal/models"
	"satbridge/internal/registry"
	"satbridge/internal/retry"
	"satbridge/internal/service"
	"satbridge/internal/tracing"
	"satbridge/pkg/mailer"
	"satbridge/pkg/webhook"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	// CLI flags
	verbose    = flag.Bool("verbose", false, "Enable verbose logging (includes sensitive information)")
	configPath = flag.String("config", "", "Path to configuration file (optional, environment still applies)")
	version    = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("satbridge %s\nBuild Time: %s\nGit Commit: %s\n", Version, BuildTime, GitCommit)
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logrus.Fatalf("Application error: %v", err)
	}
}

func run(ctx context.Context) error {
	// Best effort; the environment may already be populated.
	_ = godotenv.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	logger.WithFields(logrus.Fields{
		"version": Version,
		"build":   BuildTime,
		"commit":  GitCommit,
	}).Info("Starting satbridge")

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
		logger.Info("Verbose logging enabled - sensitive information will be logged")
	} else if cfg.LogLevel != "" {
		level, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			logger.Warnf("Invalid log level %q, defaulting to info", cfg.LogLevel)
			logger.SetLevel(logrus.InfoLevel)
		} else {
			logger.SetLevel(level)
		}
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	if config.WeakSecret(cfg) {
		logger.Warn("Weak or missing provisioning secret - set a strong PROVISION_SECRET")
	}

	tracingManager := tracing.NewManager(cfg.Tracing, logger)
	if err := tracingManager.Initialize(ctx); err != nil {
		logger.Warnf("Failed to initialize tracing: %v", err)
	}
	defer func() {
		if err := tracingManager.Shutdown(context.Background()); err != nil {
			logger.Warnf("Failed to shutdown tracing: %v", err)
		}
	}()

	// The device app may hold the datastore locked briefly; open with
	// exponential backoff.
	var db *database.Database
	backoff := retry.NewBackoff(retry.BackoffConfig{
		InitialDelay: constants.DatastoreInitialDelayMs * time.Millisecond,
		MaxDelay:     constants.DatastoreMaxDelayMs * time.Millisecond,
		Multiplier:   2.0,
		MaxAttempts:  constants.DatastoreRetryAttempts,
		Jitter:       true,
	})
	err = backoff.Retry(ctx, func() error {
		var initErr error
		db, initErr = database.New(cfg.Datastore.Path)
		if initErr != nil {
			logger.Warnf("Failed to open datastore: %v", initErr)
		}
		return initErr
	})
	if err != nil {
		return fmt.Errorf("failed to open datastore after retries: %w", err)
	}
	defer db.Close()

	subs, err := registry.New(cfg.State.SubsFile)
	if err != nil {
		return fmt.Errorf("failed to initialize subscription registry: %w", err)
	}

	seen, err := ledger.New(cfg.State.SeenFile, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize seen ledger: %w", err)
	}
	logger.WithField("entries", seen.Len()).Info("Seen ledger loaded")

	resolver := media.NewResolver(cfg.Media.RootDir, cfg.Media.Extensions)

	router := service.NewCaptionRouter(subs, *cfg.Forward.CaptionTargeting, *cfg.Forward.TargetWordStrip)
	whClient := webhook.NewClient(time.Duration(cfg.Delivery.HTTPTimeoutSec) * time.Second)
	delivery := service.NewDeliveryEngine(whClient, subs, router, retry.NewSchedule(cfg.Delivery.BackoffSec), cfg.Forward.Mode, logger)

	forwarders := []service.MediaForwarder{delivery}
	if cfg.Email.Enabled() {
		sender, err := mailer.NewSMTPSender(cfg.Email)
		if err != nil {
			logger.Warnf("Email path disabled: %v", err)
		} else {
			forwarders = append(forwarders, service.NewEmailForwarder(sender, cfg.Email, logger))
			logger.Info("Email forward path enabled")
		}
	}

	commands := service.NewCommandInterpreter(subs, logger)

	tailer := service.NewTailer(db, resolver, seen, commands, forwarders, service.TailerConfig{
		Interval:        time.Duration(cfg.Poll.IntervalSec) * time.Second,
		TailLimit:       cfg.Poll.TailLimit,
		BootReplay:      cfg.Poll.BootReplay,
		PendingMaxAge:   pendingMaxAge(cfg),
		DeleteOnSuccess: *cfg.Forward.DeleteOnSuccess,
		DeleteDelay:     time.Duration(cfg.Forward.DeleteDelaySec) * time.Second,
	}, logger)

	if err := tailer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start change tailer: %w", err)
	}
	defer tailer.Stop()

	server := NewServer(cfg.Provision, subs, logger)
	serverErrCh := make(chan error, constants.ServerErrorChannelSize)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	case err := <-serverErrCh:
		logger.Error(err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.GracefulShutdownSec*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server gracefully: %w", err)
	}

	logger.Info("Shutdown completed")
	return nil
}

// pendingMaxAge converts the configured bound; negative disables it and
// unresolved attachments are retried forever.
func pendingMaxAge(cfg *models.Config) time.Duration {
	if cfg.Poll.PendingMaxAgeHours < 0 {
		return 0
	}
	return time.Duration(cfg.Poll.PendingMaxAgeHours) * time.Hour
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"listentg/internal/config"
	"listentg/internal/constants"
	"listentg/internal/database"
	apperrors "listentg/internal/errors"
	"listentg/internal/models"
	"listentg/internal/reporting"
	"listentg/internal/retry"
	"listentg/internal/service"
	"listentg/internal/tracing"
	"listentg/pkg/telegram"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	// CLI flags
	verbose    = flag.BoolP("verbose", "v", false, "Enable verbose logging (includes unmasked ids)")
	configPath = flag.StringP("config", "c", "config.ini", "Path to configuration file")
	envFile    = flag.String("env-file", ".env", "Optional .env file loaded before the configuration")
	version    = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("ListenTG %s\nBuild Time: %s\nGit Commit: %s\n", Version, BuildTime, GitCommit)
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logrus.Fatalf("Application error: %v", err)
	}
}

func run(ctx context.Context) error {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WithError(err).Warn("Failed to load env file")
	}

	logger.WithFields(logrus.Fields{
		"version": Version,
		"build":   BuildTime,
		"commit":  GitCommit,
	}).Info("Starting ListenTG")

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	configureLogLevel(logger, cfg.Logging.Level, *verbose)

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}

	tracingManager := tracing.NewTracingManager(cfg.Tracing, logger)
	if err := tracingManager.Initialize(ctx); err != nil {
		logger.Warnf("Failed to initialize tracing: %v", err)
	}
	defer func() {
		if err := tracingManager.Shutdown(context.Background()); err != nil {
			logger.Warnf("Failed to shutdown tracing: %v", err)
		}
	}()

	reporter, err := reporting.New(cfg.ErrorReporting, logger)
	if err != nil {
		logger.WithError(err).Warn("Error reporting unavailable")
		reporter = reporting.Nop{}
	}
	defer reporter.Flush(2 * time.Second)
	defer reporting.Recover(reporter, logger)

	db, err := openDatabase(ctx, cfg, loc, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	client, err := telegram.NewClient(cfg.Telegram, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to telegram: %w", err)
	}
	defer client.Stop()

	var acker service.ReadAcknowledger
	if cfg.Forwarding.MarkAsRead {
		if a, ok := interface{}(client).(service.ReadAcknowledger); ok {
			acker = a
		} else {
			logger.Warn("mark_as_read is enabled but the client cannot acknowledge reads, ignoring")
		}
	}

	queue := service.NewDeliveryQueue(cfg.Forwarding.QueueCapacity)
	filter := service.NewFilter(cfg.Filters)
	ingestor := service.NewIngestor(filter, db, queue, acker, loc, reporter, logger)
	forwarder := service.NewForwarder(client, queue, cfg.Forwarding.TargetGroup, cfg.Forwarding.ForwardingDelay(), reporter, logger)
	pipeline := service.NewPipeline(client, ingestor, forwarder, queue, logger)

	logger.WithFields(logrus.Fields{
		"excluded_chats":   len(cfg.Filters.ExcludeChatIDs),
		"excluded_senders": len(cfg.Filters.ExcludeSenderIDs),
		"delay":            cfg.Forwarding.ForwardingDelay(),
		"timezone":         loc.String(),
	}).Info("Pipeline configured")

	monitor := service.NewQueueMonitor(queue,
		time.Duration(cfg.QueueMonitor.IntervalSec)*time.Second,
		cfg.QueueMonitor.BacklogThreshold, logger)
	go monitor.Start(ctx)
	defer monitor.Stop()

	server := NewServer(cfg.Server, service.NewStatsService(db), db, reporter, logger)
	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			serverErrCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	pipelineCtx, cancelPipeline := context.WithCancel(service.WithVerbose(ctx, *verbose))
	defer cancelPipeline()
	pipelineErrCh := make(chan error, 1)
	go func() {
		pipelineErrCh <- pipeline.Run(pipelineCtx)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	case err := <-serverErrCh:
		apperrors.LogError(logger, err, "Read API server failed")
		runErr = err
	case err := <-pipelineErrCh:
		if err != nil {
			apperrors.LogError(logger, err, "Pipeline stopped")
			reporter.CaptureError(err, nil)
			runErr = err
		}
	}

	cancelPipeline()
	select {
	case <-pipelineErrCh:
	case <-time.After(secondsOr(cfg.Server.ShutdownTimeoutSec, constants.DefaultGracefulShutdownSec)):
		logger.Warn("Pipeline did not stop before the shutdown timeout")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), secondsOr(cfg.Server.ShutdownTimeoutSec, constants.DefaultGracefulShutdownSec))
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("Failed to shutdown server gracefully")
	}

	logger.Info("Shutdown completed")
	return runErr
}

func configureLogLevel(logger *logrus.Logger, level string, verbose bool) {
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
		logger.Info("Verbose logging enabled - ids are logged unmasked")
		return
	}
	if level == "" {
		logger.SetLevel(logrus.InfoLevel)
		return
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		logger.Warnf("Invalid log level %q, defaulting to info", level)
		logger.SetLevel(logrus.InfoLevel)
		return
	}
	logger.SetLevel(parsed)
}

// openDatabase opens storage with exponential backoff and brings the schema
// up to date
func openDatabase(ctx context.Context, cfg *models.Config, loc *time.Location, logger *logrus.Logger) (*database.Database, error) {
	backoff := retry.NewBackoff(retry.FromRetryConfig(cfg.Retry)).WithNotify(func(attempt int, err error, delay time.Duration) {
		logger.WithError(err).WithFields(logrus.Fields{
			service.LogFieldAttempt: attempt,
			"retry_in":              delay,
		}).Warn("Failed to open database")
	})

	var db *database.Database
	err := backoff.Retry(ctx, func() error {
		var openErr error
		db, openErr = database.New(cfg.Database.Path, database.OptionsFromConfig(cfg.Database, loc))
		return openErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database after retries: %w", err)
	}

	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare database schema: %w", err)
	}
	return db, nil
}
